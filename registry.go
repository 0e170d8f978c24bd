package tmplstream

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/pthm/tmplstream/internal/logging"
)

// routable is implemented by *Component[P] for every P.
type routable interface {
	Name() string
	Prefix() string
	setEncoder(enc *Encoder)
	serveHTTP(reg *Registry, w http.ResponseWriter, r *http.Request)
}

// Registry serves components over HTTP, streaming their output.
//
//	reg := tmplstream.NewRegistry(key)
//	reg.Add(card, sidebar)
//	http.Handle("/_c/", reg.Handler())
//
// Each component answers GET <prefix>/?p=<props>. Props are decoded, passed
// through Hydrate when the component implements Hydrater, and the rendered
// chunks are written and flushed as they are produced.
type Registry struct {
	mu          sync.RWMutex
	router      chi.Router
	encoder     *Encoder
	engine      *Engine
	logger      *slog.Logger
	components  map[string]routable // map[prefix]component
	flushEvery  int
	contentType string

	// OnError is called when a request fails before any output was written.
	// Customize this to handle errors appropriately for your application.
	// Failures after output has started can only be logged: the status line
	// has already been sent.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithEngine sets the engine used to render components.
func WithEngine(e *Engine) RegistryOption {
	return func(reg *Registry) {
		reg.engine = e
	}
}

// WithRegistryLogger sets the registry's logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(reg *Registry) {
		reg.logger = logger
	}
}

// WithFlushEvery flushes the response after every n chunks (default 1).
func WithFlushEvery(n int) RegistryOption {
	return func(reg *Registry) {
		if n > 0 {
			reg.flushEvery = n
		}
	}
}

// WithContentType sets the response Content-Type
// (default "text/html; charset=utf-8").
func WithContentType(contentType string) RegistryOption {
	return func(reg *Registry) {
		if contentType != "" {
			reg.contentType = contentType
		}
	}
}

// NewRegistry creates a new component registry with the given props key.
func NewRegistry(key []byte, opts ...RegistryOption) *Registry {
	enc, err := NewEncoder(key)
	if err != nil {
		panic(fmt.Sprintf("tmplstream: failed to create encoder: %v", err))
	}

	reg := &Registry{
		router:      chi.NewRouter(),
		encoder:     enc,
		engine:      defaultEngine,
		logger:      logging.NewNop(),
		components:  make(map[string]routable),
		flushEvery:  1,
		contentType: "text/html; charset=utf-8",
	}
	for _, opt := range opts {
		opt(reg)
	}

	// Default error handler
	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		if IsNotFound(err) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if IsDecryptionError(err) {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}

	return reg
}

// Encoder returns the registry's props encoder.
func (reg *Registry) Encoder() *Encoder {
	return reg.encoder
}

// Engine returns the engine used to render components.
func (reg *Registry) Engine() *Engine {
	return reg.engine
}

// Add registers components with the registry. Components must be created
// with NewComponent. Add all components before serving requests.
// Panics on a non-component value or a prefix collision.
func (reg *Registry) Add(components ...any) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, comp := range components {
		rc, ok := comp.(routable)
		if !ok {
			panic(fmt.Sprintf("tmplstream: %T is not a *tmplstream.Component", comp))
		}
		reg.register(rc)
	}
}

func (reg *Registry) register(rc routable) {
	prefix := rc.Prefix()
	if _, exists := reg.components[prefix]; exists {
		panic(fmt.Sprintf("tmplstream: prefix collision for %q", prefix))
	}
	rc.setEncoder(reg.encoder)
	reg.components[prefix] = rc

	reg.router.Get(prefix+"/", func(w http.ResponseWriter, r *http.Request) {
		rc.serveHTTP(reg, w, r)
	})
}

// Lookup returns the component registered under prefix.
func (reg *Registry) Lookup(prefix string) (any, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	rc, ok := reg.components[prefix]
	return rc, ok
}

// Handler returns the HTTP handler for component routes.
// Mount this at "/_c/" in your application.
func (reg *Registry) Handler() http.Handler {
	return reg.router
}

// fail reports a request error that happened before any output.
func (reg *Registry) fail(w http.ResponseWriter, r *http.Request, name string, err error) {
	reg.logger.Error("component request failed", "component", name, "path", r.URL.Path, "error", err)
	reg.OnError(w, r, err)
}

// stream writes s to w, flushing as configured.
func (reg *Registry) stream(w http.ResponseWriter, r *http.Request, name string, s *Stream) {
	defer s.Close()

	written, err := writeStream(w, s, reg.contentType, reg.flushEvery)
	if err == nil {
		return
	}
	if written == 0 {
		reg.fail(w, r, name, err)
		return
	}
	reg.logger.Error("component stream failed mid-response",
		"component", name, "path", r.URL.Path, "chunks", written, "error", err)
}
