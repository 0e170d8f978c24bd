// Package async provides deferred values and asynchronous sequences that the
// tmplstream resolver understands: Future satisfies tmplstream.Awaiter and
// Generator satisfies tmplstream.AsyncIterator.
package async

import (
	"context"
	"fmt"
)

// Future is a value that becomes available once its producer finishes.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn in a new goroutine and returns a future for its result.
// A panic in fn settles the future with an error.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("async: panic in future: %v", r)
			}
		}()
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: v}
	close(f.done)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get waits for the future to settle or ctx to be done.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Await is Get with the value boxed, satisfying tmplstream.Awaiter.
func (f *Future[T]) Await(ctx context.Context) (any, error) {
	v, err := f.Get(ctx)
	if err != nil {
		return nil, err
	}
	return v, nil
}
