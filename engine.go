package tmplstream

import (
	"context"
	"iter"
	"log/slog"

	"github.com/pthm/tmplstream/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for render spans.
const defaultTracerName = "tmplstream"

// Engine builds templates and opens render streams. It owns the template
// cache and the observability hooks; the zero configuration (NewEngine with
// no options) is what the package-level functions use.
//
// An Engine is safe for concurrent use.
type Engine struct {
	cache    *Cache
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache sets the template cache. Engines may share a cache.
func WithCache(c *Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithCacheSize gives the engine its own cache of the given size.
func WithCacheSize(size int) Option {
	return func(e *Engine) {
		e.cache = NewCache(size)
	}
}

// WithLogger sets the logger. Stream failures are logged at Debug.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithObserver sets the stream observer (see NewMetrics).
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithTracer sets the tracer used for render spans.
// Default: otel.Tracer("tmplstream").
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewCache(DefaultCacheSize)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(defaultTracerName)
	}
	return e
}

var defaultEngine = NewEngine()

// Cache returns the engine's template cache.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Build creates a template using the engine's cache. See the package-level Build.
func (e *Engine) Build(fragments []string, values ...any) *Template {
	return e.cache.Build(fragments, values...)
}

// Render opens a stream over t.
func (e *Engine) Render(ctx context.Context, t *Template) *Stream {
	return e.open(ctx, "template", func(ctx context.Context) iter.Seq2[string, error] {
		return Resolve(ctx, t)
	})
}

// Render opens a stream over t using the default engine.
func Render(ctx context.Context, t *Template) *Stream {
	return defaultEngine.Render(ctx, t)
}

// RenderComponent invokes c with props and opens a stream over its output,
// using the default engine. The component is called before RenderComponent
// returns; its output is validated as the stream is drained.
func RenderComponent[P any](ctx context.Context, c Renderer[P], props P) *Stream {
	return RenderComponentWith(ctx, defaultEngine, c, props)
}

// RenderComponentWith is RenderComponent on a specific engine.
func RenderComponentWith[P any](ctx context.Context, e *Engine, c Renderer[P], props P) *Stream {
	root := "component"
	if n, ok := c.(interface{ Name() string }); ok {
		root = n.Name()
	}
	return e.open(ctx, root, func(ctx context.Context) iter.Seq2[string, error] {
		return Invoke(ctx, c, props)
	})
}

// open starts the render span, builds the chunk sequence under it and wires
// the stream's lifecycle to the observer, the span and the logger.
func (e *Engine) open(ctx context.Context, root string, build func(context.Context) iter.Seq2[string, error]) *Stream {
	ctx, span := e.tracer.Start(ctx, "tmplstream.render",
		trace.WithAttributes(attribute.String("tmplstream.root", root)))
	if e.observer != nil {
		e.observer.StreamStarted(root)
	}

	s := newStream(root, build(ctx))
	if e.observer != nil {
		s.onChunk = func(size int) {
			e.observer.ChunkEmitted(root, size)
		}
	}
	s.finish = func(stats StreamStats, err error) {
		span.SetAttributes(
			attribute.Int("tmplstream.chunks", stats.Chunks),
			attribute.Int64("tmplstream.bytes", stats.Bytes),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.logger.Debug("render stream ended early",
				"root", root, "chunks", stats.Chunks, "error", err)
		}
		span.End()
		if e.observer != nil {
			e.observer.StreamFinished(root, stats, err)
		}
	}
	return s
}
