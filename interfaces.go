package tmplstream

import (
	"context"
	"iter"
)

// Awaiter is implemented by deferred values: values whose result becomes
// available later, such as futures.
//
// Await blocks until the value settles or ctx is done. A settled value is
// resolved again, so an Awaiter may yield a template, a primitive, or another
// Awaiter. A non-nil error is propagated to the stream consumer unchanged.
//
// lib/async.Future satisfies Awaiter:
//
//	user := async.Go(ctx, loadUser)
//	tmplstream.Build([]string{"<p>", "</p>"}, user)
type Awaiter interface {
	Await(ctx context.Context) (any, error)
}

// AsyncIterator is implemented by asynchronously produced sequences.
//
// Next blocks until the next element is available. It returns ok == false
// once the sequence is exhausted. A non-nil error ends the sequence and is
// propagated to the stream consumer unchanged.
//
// Receive-capable channels are treated as async sequences without needing
// to implement this interface.
type AsyncIterator interface {
	Next(ctx context.Context) (value any, ok bool, err error)
}

// Iterable is implemented by caller-defined synchronous collections.
//
// Slices, arrays and iter.Seq values of any element type are recognized
// structurally and need not implement Iterable.
type Iterable interface {
	All() iter.Seq[any]
}

// Renderer is implemented by components.
//
// Render receives the props record unmodified and returns the component
// output. The output must reduce to templates:
//   - nil (renders nothing)
//   - *Template
//   - an Awaiter settling to one of these shapes
//   - a slice, array or iter.Seq of *Template
//   - an AsyncIterator or channel of *Template
//
// Anything else fails with InvalidComponentOutputError once the stream
// reaches it. Render should be pure: it is called exactly once per render
// and its output is validated lazily.
//
//	func (c *Card) Render(ctx context.Context, props CardProps) any {
//	    return cardTemplate.With(props.Title, props.Body)
//	}
type Renderer[P any] interface {
	Render(ctx context.Context, props P) any
}

// Hydrater is implemented by components to reconstruct rich objects from
// serialized IDs in props. The registry calls it after decoding props from the
// request URL and before Render.
//
//	func (c *Card) Hydrate(ctx context.Context, props *CardProps) error {
//	    props.Owner = c.users.Get(props.OwnerID)
//	    return nil
//	}
type Hydrater[P any] interface {
	Hydrate(ctx context.Context, props *P) error
}

// RenderFunc adapts a plain function to Renderer.
type RenderFunc[P any] func(ctx context.Context, props P) any

// Render calls f(ctx, props).
func (f RenderFunc[P]) Render(ctx context.Context, props P) any {
	return f(ctx, props)
}

// Observer receives stream lifecycle notifications. Metrics implements it
// with Prometheus collectors.
type Observer interface {
	StreamStarted(root string)
	ChunkEmitted(root string, size int)
	StreamFinished(root string, stats StreamStats, err error)
}
