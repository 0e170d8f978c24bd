package tmplstream

import (
	"io"
	"net/http"
)

// ServeTemplate streams t to the HTTP response using the default engine,
// flushing after every chunk.
//
// Sets Content-Type to text/html. If rendering fails before any chunk was
// written, the error is returned and nothing has been sent, so the caller can
// still write an error response. Afterwards the response is cut short and the
// error returned for logging.
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    if err := tmplstream.ServeTemplate(w, r, page.With(title, body)); err != nil {
//	        log.Print(err)
//	    }
//	}
func ServeTemplate(w http.ResponseWriter, r *http.Request, t *Template) error {
	s := Render(r.Context(), t)
	defer s.Close()
	_, err := writeStream(w, s, "text/html; charset=utf-8", 1)
	return err
}

// writeStream copies chunks from s to w, flushing every flushEvery chunks when
// w is an http.Flusher. It returns the number of chunks written. The header is
// committed with the first chunk, so a failure with written == 0 leaves the
// response untouched.
func writeStream(w http.ResponseWriter, s *Stream, contentType string, flushEvery int) (int, error) {
	flusher, _ := w.(http.Flusher)
	written, pending := 0, 0

	for {
		chunk, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, err
		}

		if written == 0 {
			w.Header().Set("Content-Type", contentType)
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return written, err
		}
		written++
		pending++

		if flusher != nil && pending >= flushEvery {
			flusher.Flush()
			pending = 0
		}
	}

	if written == 0 {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
	}
	if flusher != nil && pending > 0 {
		flusher.Flush()
	}
	return written, nil
}

// FlushableWriter wraps an http.ResponseWriter and counts flushes.
// Useful for testing streaming behavior.
type FlushableWriter struct {
	http.ResponseWriter
	FlushCount int
}

// Flush implements http.Flusher.
func (w *FlushableWriter) Flush() {
	w.FlushCount++
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
