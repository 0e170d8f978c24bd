package tmplstream

import (
	"bytes"
	"context"
	"iter"
	"math/big"
	"reflect"

	"github.com/a-h/templ"
)

// kind is the resolvable shape of a value. Classification happens once per
// value, in this order; the first match wins.
type kind uint8

const (
	kindInvalid kind = iota
	kindAbsent
	kindPrimitive
	kindDeferred
	kindTemplate
	kindTempl
	kindSync
	kindAsync
)

func (k kind) String() string {
	switch k {
	case kindAbsent:
		return "absent"
	case kindPrimitive:
		return "primitive"
	case kindDeferred:
		return "deferred"
	case kindTemplate:
		return "template"
	case kindTempl:
		return "templ"
	case kindSync:
		return "sync"
	case kindAsync:
		return "async"
	default:
		return "invalid"
	}
}

// classify probes v for the capabilities the resolver understands. It is
// structural: caller-defined types participate by shape or by implementing
// Awaiter, Iterable or AsyncIterator.
func classify(v any) kind {
	if v == nil {
		return kindAbsent
	}

	switch v.(type) {
	case string, bool, int, int64, float64:
		return kindPrimitive
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice:
		if rv.IsNil() {
			return kindAbsent
		}
	}

	switch v.(type) {
	case *big.Int, *Symbol:
		return kindPrimitive
	}

	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return kindPrimitive
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return kindPrimitive
		}
	}

	switch v.(type) {
	case Awaiter:
		return kindDeferred
	case *Template:
		return kindTemplate
	case templ.Component:
		return kindTempl
	case Iterable, iter.Seq[any], func(func(any) bool):
		return kindSync
	case AsyncIterator:
		return kindAsync
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return kindSync
	case reflect.Func:
		if isSeqFunc(rv.Type()) {
			return kindSync
		}
	case reflect.Chan:
		if rv.Type().ChanDir()&reflect.RecvDir != 0 {
			return kindAsync
		}
	}
	return kindInvalid
}

// isSeqFunc reports whether t has the shape of iter.Seq[T] for some T.
func isSeqFunc(t reflect.Type) bool {
	if t.NumIn() != 1 || t.NumOut() != 0 || t.IsVariadic() {
		return false
	}
	y := t.In(0)
	return y.Kind() == reflect.Func &&
		y.NumIn() == 1 && y.NumOut() == 1 && !y.IsVariadic() &&
		y.Out(0).Kind() == reflect.Bool
}

// Resolve expands v into its ordered text chunks.
//
// Templates interleave their fragments with their resolved slots; deferred
// values are awaited and resolved in turn; collections and async sequences
// are flattened depth first. Resolution is strictly sequential: every value
// is fully drained before its next sibling starts.
//
// A failure is yielded once, as the final element, with an empty chunk:
//   - *InvalidSlotValueError for a value of no resolvable shape
//   - the Awaiter's or AsyncIterator's error, unchanged
//   - ctx.Err() once ctx is done
//
// The sequence does no work until ranged over, and stops as soon as the
// consumer stops.
func Resolve(ctx context.Context, v any) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		r := resolver{ctx: ctx, yield: yield}
		r.value(v)
	}
}

// resolver walks a value tree, pushing chunks into yield. Every walk method
// reports whether resolution should continue; false means the consumer
// stopped or a failure has already been yielded.
type resolver struct {
	ctx   context.Context
	yield func(string, error) bool
}

func (r *resolver) emit(chunk string) bool {
	if chunk == "" {
		return true
	}
	if err := r.ctx.Err(); err != nil {
		return r.fail(err)
	}
	return r.yield(chunk, nil)
}

func (r *resolver) fail(err error) bool {
	r.yield("", err)
	return false
}

// value resolves a slot value.
func (r *resolver) value(v any) bool {
	switch classify(v) {
	case kindAbsent:
		return true
	case kindPrimitive:
		return r.emit(primitiveText(v))
	case kindDeferred:
		return r.await(v.(Awaiter), r.value)
	case kindTemplate:
		return r.template(v.(*Template))
	case kindTempl:
		return r.templ(v.(templ.Component))
	case kindSync:
		return r.each(v, r.value)
	case kindAsync:
		return r.eachAsync(v, r.value)
	default:
		return r.fail(&InvalidSlotValueError{Value: v})
	}
}

func (r *resolver) template(t *Template) bool {
	fragments := t.shape.fragments
	for i, slot := range t.slots {
		if !r.emit(fragments[i]) || !r.value(slot) {
			return false
		}
	}
	return r.emit(fragments[len(fragments)-1])
}

// templ renders a templ component into a single chunk.
func (r *resolver) templ(c templ.Component) bool {
	var buf bytes.Buffer
	if err := c.Render(r.ctx, &buf); err != nil {
		return r.fail(err)
	}
	return r.emit(buf.String())
}

// await suspends until a settles, then hands the settled value to next.
func (r *resolver) await(a Awaiter, next func(any) bool) bool {
	if err := r.ctx.Err(); err != nil {
		return r.fail(err)
	}
	settled, err := a.Await(r.ctx)
	if err != nil {
		return r.fail(err)
	}
	return next(settled)
}

// each calls fn for every element of a synchronous collection, in order.
func (r *resolver) each(v any, fn func(any) bool) bool {
	switch c := v.(type) {
	case []any:
		for _, e := range c {
			if !fn(e) {
				return false
			}
		}
		return true
	case Iterable:
		return r.seq(c.All(), fn)
	case iter.Seq[any]:
		return r.seq(c, fn)
	case func(func(any) bool):
		return r.seq(c, fn)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func {
		return r.reflectSeq(rv, fn)
	}
	for i := 0; i < rv.Len(); i++ {
		if !fn(rv.Index(i).Interface()) {
			return false
		}
	}
	return true
}

func (r *resolver) seq(s iter.Seq[any], fn func(any) bool) bool {
	for e := range s {
		if !fn(e) {
			return false
		}
	}
	return true
}

// reflectSeq drives an iter.Seq[T] whose T is only known at run time.
func (r *resolver) reflectSeq(rv reflect.Value, fn func(any) bool) bool {
	yieldType := rv.Type().In(0)
	cont := true
	yield := reflect.MakeFunc(yieldType, func(args []reflect.Value) []reflect.Value {
		if cont {
			cont = fn(args[0].Interface())
		}
		return []reflect.Value{reflect.ValueOf(cont).Convert(yieldType.Out(0))}
	})
	rv.Call([]reflect.Value{yield})
	return cont
}

// stopper is implemented by async iterators holding resources that must be
// released when iteration ends early.
type stopper interface {
	Stop()
}

// eachAsync calls fn for every element of an asynchronous sequence, awaiting
// each element in turn.
func (r *resolver) eachAsync(v any, fn func(any) bool) bool {
	switch s := v.(type) {
	case AsyncIterator:
		cont := r.iterate(s, fn)
		if st, ok := s.(stopper); ok && !cont {
			st.Stop()
		}
		return cont
	case <-chan any:
		return r.receive(s, fn)
	case chan any:
		return r.receive(s, fn)
	}

	cases := []reflect.SelectCase{
		{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(r.ctx.Done())},
		{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(v)},
	}
	for {
		chosen, e, ok := reflect.Select(cases)
		if chosen == 0 {
			return r.fail(r.ctx.Err())
		}
		if !ok {
			return true
		}
		if !fn(e.Interface()) {
			return false
		}
	}
}

func (r *resolver) iterate(s AsyncIterator, fn func(any) bool) bool {
	for {
		if err := r.ctx.Err(); err != nil {
			return r.fail(err)
		}
		e, ok, err := s.Next(r.ctx)
		if err != nil {
			return r.fail(err)
		}
		if !ok {
			return true
		}
		if !fn(e) {
			return false
		}
	}
}

func (r *resolver) receive(ch <-chan any, fn func(any) bool) bool {
	for {
		select {
		case <-r.ctx.Done():
			return r.fail(r.ctx.Err())
		case e, ok := <-ch:
			if !ok {
				return true
			}
			if !fn(e) {
				return false
			}
		}
	}
}
