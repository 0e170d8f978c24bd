package tmplstream

import (
	"io"
	"iter"
	"strings"
	"time"
)

// StreamStats summarizes a finished stream.
type StreamStats struct {
	Chunks   int
	Bytes    int64
	Duration time.Duration
}

// Stream is a pull-driven, single-pass sequence of rendered text chunks.
//
// Chunks are produced on demand: nothing is resolved until Next is called,
// and each call resolves only as far as the next chunk. A stream ends in one
// of three ways:
//   - io.EOF after the last chunk
//   - the resolution error, in place of a chunk
//   - ErrClosed after Close
//
// The terminal error is returned again by every later call. Chunks delivered
// before a failure remain valid; a caller must check for the error rather than
// assume success from having received output.
//
// Streams are not safe for concurrent use. A stream that is neither drained
// nor closed holds its producer until it is garbage, so callers that stop
// early should Close it.
type Stream struct {
	root    string
	next    func() (string, error, bool)
	stop    func()
	onChunk func(size int)
	finish  func(stats StreamStats, err error)

	err     error
	stats   StreamStats
	started time.Time
}

func newStream(root string, seq iter.Seq2[string, error]) *Stream {
	next, stop := iter.Pull2(seq)
	return &Stream{
		root:    root,
		next:    next,
		stop:    stop,
		started: time.Now(),
	}
}

// Root describes what the stream renders: "template" or a component name.
func (s *Stream) Root() string {
	return s.root
}

// Next returns the next chunk. It returns io.EOF once the stream is
// exhausted, ErrClosed after Close, or the error that ended resolution.
func (s *Stream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}

	chunk, err, ok := s.next()
	switch {
	case !ok:
		s.end(io.EOF)
	case err != nil:
		s.end(err)
	default:
		s.stats.Chunks++
		s.stats.Bytes += int64(len(chunk))
		if s.onChunk != nil {
			s.onChunk(len(chunk))
		}
		return chunk, nil
	}
	return "", s.err
}

// Close stops the stream. No further resolution work is scheduled and no
// more chunks are returned. Closing a finished stream is a no-op.
func (s *Stream) Close() error {
	if s.err == nil {
		s.end(ErrClosed)
	}
	return nil
}

// Err returns the error that ended the stream: nil while the stream is open
// or after a clean end, ErrClosed if it was closed early, or the failure.
func (s *Stream) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// Stats returns counters for the chunks delivered so far.
func (s *Stream) Stats() StreamStats {
	return s.stats
}

// All returns an iterator over the remaining chunks. A failure is yielded as
// the last element. Breaking out of the loop closes the stream.
//
//	for chunk, err := range stream.All() {
//	    if err != nil {
//	        return err
//	    }
//	    w.Write([]byte(chunk))
//	}
func (s *Stream) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			chunk, err := s.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(chunk, nil) {
				s.Close()
				return
			}
		}
	}
}

// WriteTo writes every remaining chunk to w, implementing io.WriterTo.
// A write error closes the stream.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		written, err := io.WriteString(w, chunk)
		n += int64(written)
		if err != nil {
			s.Close()
			return n, err
		}
	}
}

// ReadAll drains the stream into a string. On failure it returns the text
// delivered before the failure together with the error.
func (s *Stream) ReadAll() (string, error) {
	var sb strings.Builder
	_, err := s.WriteTo(&sb)
	return sb.String(), err
}

func (s *Stream) end(err error) {
	s.err = err
	s.stop()
	s.stats.Duration = time.Since(s.started)
	if s.finish != nil {
		if err == io.EOF {
			err = nil
		}
		s.finish(s.stats, err)
	}
}
