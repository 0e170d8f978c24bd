package tmplstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
)

// TestResult holds the output of a render for testing.
//
// Text is the concatenation of Chunks. When the render failed, Text and
// Chunks hold what was delivered before the failure and Err holds the error.
type TestResult struct {
	Text       string
	Chunks     []string
	Err        error
	StatusCode int
	Headers    http.Header
}

// TestRender renders a component and collects its chunks.
//
// Use this for pure unit tests of rendering logic when you control props
// directly. Hydrate is called first when comp implements Hydrater.
//
//	result, err := tmplstream.TestRender(card, CardProps{Title: "Hi"})
//	if !result.TextContains("<h1>Hi</h1>") {
//	    t.Fatal("missing title")
//	}
//
// The returned error is the render failure, if any; result is non-nil
// whenever hydration succeeded.
func TestRender[P any](comp Renderer[P], props P) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), comp, props)
}

// TestRenderWithContext renders a component with a custom context.
//
// Use this when testing components that read values from context:
//
//	ctx := context.WithValue(context.Background(), userKey, testUser)
//	result, err := tmplstream.TestRenderWithContext(ctx, comp, props)
func TestRenderWithContext[P any](ctx context.Context, comp Renderer[P], props P) (*TestResult, error) {
	if h, ok := comp.(Hydrater[P]); ok {
		if err := h.Hydrate(ctx, &props); err != nil {
			return nil, err
		}
	}
	return collect(RenderComponent(ctx, comp, props))
}

// TestRenderTemplate renders a template and collects its chunks.
func TestRenderTemplate(t *Template) (*TestResult, error) {
	return collect(Render(context.Background(), t))
}

func collect(s *Stream) (*TestResult, error) {
	defer s.Close()

	result := &TestResult{
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
	}
	var sb strings.Builder
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Err = err
			break
		}
		result.Chunks = append(result.Chunks, chunk)
		sb.WriteString(chunk)
	}
	result.Text = sb.String()
	return result, result.Err
}

// TestGet simulates a GET request against a registry.
//
//	url, _ := card.URL(props)
//	result, err := tmplstream.TestGet(reg, url)
//	if !result.IsOK() {
//	    t.Fatal("expected success")
//	}
func TestGet(reg *Registry, url string) (*TestResult, error) {
	return TestGetWithContext(context.Background(), reg, url)
}

// TestGetWithContext simulates a GET request with a custom context.
func TestGetWithContext(ctx context.Context, reg *Registry, url string) (*TestResult, error) {
	req := httptest.NewRequest(http.MethodGet, url, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)

	return &TestResult{
		Text:       rec.Body.String(),
		Chunks:     []string{rec.Body.String()},
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}, nil
}

// TextContains checks if the text contains a substring.
func (r *TestResult) TextContains(substr string) bool {
	return strings.Contains(r.Text, substr)
}

// TextContainsAll checks if the text contains all the given substrings.
func (r *TestResult) TextContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.Text, s) {
			return false
		}
	}
	return true
}

// TextContainsAny checks if the text contains any of the given substrings.
func (r *TestResult) TextContainsAny(substrs ...string) bool {
	for _, s := range substrs {
		if strings.Contains(r.Text, s) {
			return true
		}
	}
	return false
}

// ChunkCount returns the number of chunks delivered.
func (r *TestResult) ChunkCount() int {
	return len(r.Chunks)
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// HasHeader checks if a header is set with the given value.
func (r *TestResult) HasHeader(key, value string) bool {
	return r.Headers.Get(key) == value
}
