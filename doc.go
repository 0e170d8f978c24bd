// Package tmplstream is a streaming template engine: it turns a tree of
// templates and component invocations into an ordered, lazily produced
// sequence of text chunks, so large documents can be served without ever
// holding the whole output in memory.
//
// # Templates
//
// A Template pairs N+1 static fragments with N dynamic slot values. Declare
// each call site once with Lit and evaluate it with With:
//
//	var item = tmplstream.Lit("<li>", "</li>")
//	var list = tmplstream.Lit("<ul>", "</ul>")
//
//	func render(names []string) *tmplstream.Template {
//	    items := make([]*tmplstream.Template, len(names))
//	    for i, n := range names {
//	        items[i] = item.With(n)
//	    }
//	    return list.With(items)
//	}
//
// Fragment structure is cached per call site (see Cache); slot values are
// always the ones passed to With.
//
// # Slot Values
//
// A slot may hold:
//   - nil or a typed nil: renders nothing
//   - a primitive: booleans, numbers, strings, []byte, *big.Int, *Symbol
//   - a deferred value (Awaiter), awaited and then resolved in turn
//   - a *Template or a templ.Component
//   - a slice, array, iter.Seq or Iterable, flattened in order
//   - a channel or AsyncIterator, each element awaited in order
//
// Anything else fails with InvalidSlotValueError when the stream reaches it.
// Nothing is validated when a template is built.
//
// # Components
//
// A component is a Renderer: it takes a props record and returns nil, a
// template, a deferred template, or a sync or async sequence of templates.
// Unlike slots, a component's own output must reduce to templates; a bare
// string or number fails with InvalidComponentOutputError ("Invalid
// template.") once the stream is drained to that point.
//
//	greeting := tmplstream.RenderFunc[string](func(ctx context.Context, name string) any {
//	    return hello.With(name)
//	})
//	stream := tmplstream.RenderComponent(ctx, greeting, "Ada")
//
// # Streams
//
// Render and RenderComponent return a Stream. Streams are pull-driven: each
// call to Next resolves just enough of the tree to produce one chunk, so the
// producer never runs ahead of the consumer. Resolution is depth first and
// strictly sequential; deferred values and async sequences are the only
// points where it waits.
//
//	s := tmplstream.Render(ctx, page)
//	defer s.Close()
//	for chunk, err := range s.All() {
//	    if err != nil {
//	        return err
//	    }
//	    io.WriteString(w, chunk)
//	}
//
// A failure ends the stream in place of io.EOF. Chunks delivered before it
// stay delivered: this is a streaming system, not a transactional one.
// Close stops the producer; no resolution work happens after it.
//
// # Serving Components
//
// A Registry serves components created with NewComponent over HTTP, with
// props encoded in the URL (signed by default, encrypted for Sensitive
// components) and output flushed as it is produced:
//
//	reg := tmplstream.NewRegistry(key)
//	reg.Add(card)
//	http.Handle("/_c/", reg.Handler())
//
// # Observability
//
// Engines take a *slog.Logger, an Observer (NewMetrics provides Prometheus
// collectors) and an OpenTelemetry tracer. Each stream is one span.
package tmplstream
