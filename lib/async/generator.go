package async

import (
	"context"
	"iter"
)

// Generator is an asynchronous sequence produced by a function. The function
// starts on the first call to Next and runs only while the consumer waits
// for the next element, so it never runs ahead of the consumer.
//
//	rows := async.NewGenerator(func(ctx context.Context, yield func(Row) bool) error {
//	    for cur.Next(ctx) {
//	        if !yield(cur.Row()) {
//	            return nil
//	        }
//	    }
//	    return cur.Err()
//	})
//
// A Generator is single-pass and not safe for concurrent use.
type Generator[T any] struct {
	fn   func(ctx context.Context, yield func(T) bool) error
	next func() (T, bool)
	stop func()
	err  error
	done bool
}

// NewGenerator creates a generator from fn. fn should return when yield
// returns false or ctx is done. Its error ends the sequence.
func NewGenerator[T any](fn func(ctx context.Context, yield func(T) bool) error) *Generator[T] {
	return &Generator[T]{fn: fn}
}

// FromSlice returns a generator over the elements of s.
func FromSlice[T any](s []T) *Generator[T] {
	return NewGenerator(func(ctx context.Context, yield func(T) bool) error {
		for _, v := range s {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !yield(v) {
				return nil
			}
		}
		return nil
	})
}

// Next returns the next element, satisfying tmplstream.AsyncIterator.
// The ctx of the first call is the one fn runs with.
func (g *Generator[T]) Next(ctx context.Context) (any, bool, error) {
	if g.done {
		return nil, false, g.err
	}
	if g.next == nil {
		g.next, g.stop = iter.Pull(func(yield func(T) bool) {
			g.err = g.fn(ctx, yield)
		})
	}

	v, ok := g.next()
	if !ok {
		g.Stop()
		return nil, false, g.err
	}
	return v, true, nil
}

// Stop ends the generator early, letting fn return.
func (g *Generator[T]) Stop() {
	g.done = true
	if g.stop != nil {
		g.stop()
	}
}
