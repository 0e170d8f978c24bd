package tmplstream

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSeq counts how many elements have been produced.
type countingSeq struct {
	produced atomic.Int32
	items    []any
}

func (c *countingSeq) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range c.items {
			c.produced.Add(1)
			if !yield(v) {
				return
			}
		}
	}
}

func TestStream_NextUntilEOF(t *testing.T) {
	s := Render(context.Background(), Build([]string{"<b>", "</b>"}, "x"))

	var chunks []string
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, []string{"<b>", "x", "</b>"}, chunks)

	_, err := s.Next()
	assert.Equal(t, io.EOF, err, "EOF is sticky")
	assert.NoError(t, s.Err())
	assert.Equal(t, 3, s.Stats().Chunks)
	assert.Equal(t, int64(len("<b>x</b>")), s.Stats().Bytes)
}

func TestStream_FailureAfterPartialOutput(t *testing.T) {
	s := Render(context.Background(), Build([]string{"<p>", "</p>"}, []any{"ok", struct{}{}}))

	text, err := s.ReadAll()
	assert.Equal(t, "<p>ok", text)
	assert.True(t, IsInvalidSlotValue(err))

	_, again := s.Next()
	assert.Equal(t, err, again)
	assert.Equal(t, err, s.Err())
}

func TestStream_PullDriven(t *testing.T) {
	seq := &countingSeq{items: []any{"a", "b", "c", "d"}}
	s := Render(context.Background(), Build([]string{"", ""}, seq))
	defer s.Close()

	assert.Zero(t, seq.produced.Load(), "nothing is resolved before the first pull")

	chunk, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", chunk)
	assert.Equal(t, int32(1), seq.produced.Load())

	_, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, int32(2), seq.produced.Load())
}

func TestStream_CloseStopsResolution(t *testing.T) {
	later := &countingAwaiter{value: "late"}
	s := Render(context.Background(), Build([]string{"first", "", ""}, "second", later))

	chunk, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "first", chunk)

	require.NoError(t, s.Close())
	_, err = s.Next()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Err(), ErrClosed)
	assert.Zero(t, later.calls.Load())

	require.NoError(t, s.Close(), "closing twice is a no-op")
}

func TestStream_AllBreakCloses(t *testing.T) {
	later := &countingAwaiter{value: "late"}
	s := Render(context.Background(), Build([]string{"a", "b", "c"}, "x", later))

	for chunk, err := range s.All() {
		require.NoError(t, err)
		assert.Equal(t, "a", chunk)
		break
	}
	assert.ErrorIs(t, s.Err(), ErrClosed)
	assert.Zero(t, later.calls.Load())
}

func TestStream_AllYieldsFailureLast(t *testing.T) {
	boom := errors.New("boom")
	s := Render(context.Background(), Build([]string{"a", "b"}, failingAwaiter{boom}))

	var chunks []string
	var last error
	for chunk, err := range s.All() {
		if err != nil {
			last = err
			continue
		}
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, []string{"a"}, chunks)
	assert.True(t, last == boom)
}

type failingAwaiter struct{ err error }

func (f failingAwaiter) Await(ctx context.Context) (any, error) { return nil, f.err }

type brokenWriter struct{ writes int }

func (w *brokenWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("disk full")
}

func TestStream_WriteTo(t *testing.T) {
	var sb strings.Builder
	n, err := Render(context.Background(), listLit.With([]*Template{itemLit.With(1), itemLit.With(2)})).WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, "<ul><li>1</li><li>2</li></ul>", sb.String())
	assert.Equal(t, int64(sb.Len()), n)

	later := &countingAwaiter{value: "late"}
	s := Render(context.Background(), Build([]string{"a", "b"}, later))
	w := &brokenWriter{}
	_, err = s.WriteTo(w)
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 1, w.writes)
	assert.ErrorIs(t, s.Err(), ErrClosed)
	assert.Zero(t, later.calls.Load())
}

func TestStream_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := Render(ctx, Build([]string{"a", "b", "c"}, "x", "y"))

	_, err := s.Next()
	require.NoError(t, err)
	cancel()

	_, err = s.Next()
	assert.ErrorIs(t, err, context.Canceled)
}
