package tmplstream

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"net/http"
	"path/filepath"
	"runtime"
)

// Component[P] is a named component that can be served by a Registry.
// P is the props type.
//
// A Component wraps a Renderer and is itself a Renderer, so it can be passed
// to RenderComponent directly or registered for HTTP delivery:
//
//	var Card = tmplstream.NewComponent("card", tmplstream.RenderFunc[CardProps](
//	    func(ctx context.Context, p CardProps) any {
//	        return cardTemplate.With(p.Title, p.Body)
//	    },
//	))
//
//	reg.Add(Card)
//	url, _ := Card.URL(CardProps{Title: "Hi"})
//
// Each component receives a deterministic URL prefix based on its name and
// the source location of the NewComponent call, so two components with the
// same name still get distinct routes.
type Component[P any] struct {
	name      string
	prefix    string
	sensitive bool
	renderer  Renderer[P]
	encoder   *Encoder
}

// NewComponent creates a component with the given name and renderer.
//
// Props are signed by default (visible in URLs but tamper-proof via HMAC).
// Call Sensitive to encrypt them instead.
func NewComponent[P any](name string, r Renderer[P]) *Component[P] {
	return &Component[P]{
		name:     name,
		prefix:   "/_c/" + name + "-" + componentHash(name, 1),
		renderer: r,
	}
}

// Sensitive marks the component as sensitive, enabling full props encryption.
func (c *Component[P]) Sensitive() *Component[P] {
	c.sensitive = true
	return c
}

// Name returns the component's name.
func (c *Component[P]) Name() string {
	return c.name
}

// Prefix returns the component's URL prefix.
func (c *Component[P]) Prefix() string {
	return c.prefix
}

// IsSensitive returns whether the component uses encrypted props.
func (c *Component[P]) IsSensitive() bool {
	return c.sensitive
}

// Render calls the wrapped renderer.
func (c *Component[P]) Render(ctx context.Context, props P) any {
	return c.renderer.Render(ctx, props)
}

// Hydrate calls the wrapped renderer's Hydrate when it implements Hydrater.
func (c *Component[P]) Hydrate(ctx context.Context, props *P) error {
	if h, ok := c.renderer.(Hydrater[P]); ok {
		return h.Hydrate(ctx, props)
	}
	return nil
}

// URL returns the render URL for props, encoded with the registry's encoder.
// The component must have been added to a Registry.
func (c *Component[P]) URL(props P) (string, error) {
	path := c.prefix + "/"
	if c.encoder == nil {
		return "", fmt.Errorf("tmplstream: component %q is not registered", c.name)
	}
	encoded, err := c.encoder.Encode(props, c.sensitive)
	if err != nil {
		return "", fmt.Errorf("tmplstream: encode props for %q: %w", c.name, err)
	}
	return path + "?p=" + encoded, nil
}

func (c *Component[P]) setEncoder(enc *Encoder) {
	c.encoder = enc
}

// serveHTTP decodes props from the request, hydrates them and streams the
// rendered component.
func (c *Component[P]) serveHTTP(reg *Registry, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var props P
	if encoded := r.URL.Query().Get("p"); encoded != "" {
		if err := c.encoder.Decode(encoded, c.sensitive, &props); err != nil {
			reg.fail(w, r, c.name, wrapEncodingError(err))
			return
		}
	}

	if err := c.Hydrate(ctx, &props); err != nil {
		reg.fail(w, r, c.name, fmt.Errorf("%w: %w", ErrHydrationFailed, err))
		return
	}

	reg.stream(w, r, c.name, RenderComponentWith(ctx, reg.engine, c, props))
}

// Invoke calls the component once with props and returns the lazily
// validated text of its output.
//
// The component is called synchronously, before Invoke returns. Its output
// is only checked while the sequence is drained: anything that does not
// reduce to templates yields InvalidComponentOutputError at the point it is
// reached. Slot values inside the returned templates are resolved as by
// Resolve, so they may be primitives or raw collections.
func Invoke[P any](ctx context.Context, c Renderer[P], props P) iter.Seq2[string, error] {
	out := c.Render(ctx, props)
	return func(yield func(string, error) bool) {
		r := resolver{ctx: ctx, yield: yield}
		r.output(out)
	}
}

// output resolves a component's direct output, which must reduce to
// templates.
func (r *resolver) output(v any) bool {
	switch classify(v) {
	case kindAbsent:
		return true
	case kindTemplate:
		return r.template(v.(*Template))
	case kindDeferred:
		return r.await(v.(Awaiter), r.output)
	case kindSync:
		return r.each(v, r.outputElement)
	case kindAsync:
		return r.eachAsync(v, r.outputElement)
	default:
		return r.fail(&InvalidComponentOutputError{Output: v})
	}
}

// outputElement resolves one element of a component's output sequence.
func (r *resolver) outputElement(v any) bool {
	t, ok := v.(*Template)
	if !ok || t == nil {
		return r.fail(&InvalidComponentOutputError{Output: v})
	}
	return r.template(t)
}

// componentHash generates a deterministic hash based on component name and source location.
func componentHash(name string, skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	var input string
	if ok {
		// Base filename only, for portability across environments
		input = fmt.Sprintf("%s:%d:%s", filepath.Base(file), line, name)
	} else {
		input = name
	}
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:4])
}
