package tmplstream

import (
	"context"
	"io"
	"slices"

	"github.com/a-h/templ"
)

// Template is an immutable pairing of static text fragments with dynamic slot
// values. A template with N slots has N+1 fragments, and renders as
//
//	fragments[0], slots[0], fragments[1], ..., slots[N-1], fragments[N]
//
// Templates are built with Build or Literal.With and never modified. The
// fragment structure is shared through a Cache; slot values always belong to
// the call that built the template.
//
// Template implements templ.Component, so it can be embedded in templ views:
//
//	@tmplstream.Build([]string{"<b>", "</b>"}, name)
type Template struct {
	shape *shape
	slots []any
}

// shape is the reusable, value-independent part of a template.
type shape struct {
	fragments []string
	static    int
}

func newShape(fragments []string) *shape {
	s := &shape{fragments: slices.Clone(fragments)}
	for _, f := range s.fragments {
		s.static += len(f)
	}
	return s
}

// Build creates a template from static fragments and slot values using the
// default engine's cache.
//
// len(fragments) must equal len(values)+1. Passing the same fragments slice
// on every evaluation (see Lit) lets the cache reuse its structure.
//
// Panics if the fragment and value counts don't line up: that is a bug at the
// call site, not a runtime condition.
func Build(fragments []string, values ...any) *Template {
	return defaultEngine.Build(fragments, values...)
}

// Fragments returns a copy of the static fragments.
func (t *Template) Fragments() []string {
	return slices.Clone(t.shape.fragments)
}

// Slots returns a copy of the slot values.
func (t *Template) Slots() []any {
	return slices.Clone(t.slots)
}

// Len returns the number of slots.
func (t *Template) Len() int {
	return len(t.slots)
}

// Render writes the resolved template to w, implementing templ.Component.
// Stops at the first resolution error.
func (t *Template) Render(ctx context.Context, w io.Writer) error {
	for chunk, err := range Resolve(ctx, t) {
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
	}
	return nil
}

var _ templ.Component = (*Template)(nil)

// Literal is a template call site: a fixed fragment sequence evaluated many
// times with different values. Declare literals once, at package level:
//
//	var greeting = tmplstream.Lit("<p>Hello, ", "!</p>")
//
//	func render(name string) *tmplstream.Template {
//	    return greeting.With(name)
//	}
//
// Every With call passes the same fragment slice, so the template cache
// resolves it by identity.
type Literal struct {
	fragments []string
}

// Lit declares a literal site with the given fragments.
func Lit(fragments ...string) Literal {
	if len(fragments) == 0 {
		fragments = []string{""}
	}
	return Literal{fragments: fragments}
}

// With builds a template from the literal's fragments and values, using the
// default engine.
func (l Literal) With(values ...any) *Template {
	return defaultEngine.Build(l.fragments, values...)
}

// In builds a template using the given engine's cache.
func (l Literal) In(e *Engine, values ...any) *Template {
	return e.Build(l.fragments, values...)
}

// Slots returns the number of values the literal expects.
func (l Literal) Slots() int {
	return len(l.fragments) - 1
}
