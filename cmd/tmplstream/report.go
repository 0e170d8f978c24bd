package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pthm/tmplstream"
	"github.com/pthm/tmplstream/lib/async"
)

var (
	pageLit = tmplstream.Lit(
		"<!doctype html><html><head><title>", "</title></head><body><h1>", "</h1>", "<footer>", "</footer></body></html>",
	)
	tableLit = tmplstream.Lit("<table><tr><th>#</th><th>Name</th><th>Score</th></tr>", "</table>")
	rowLit   = tmplstream.Lit("<tr><td>", "</td><td>", "</td><td>", "</td></tr>")
	summary  = tmplstream.Lit("<p>", " rows, generated in ", "</p>")
)

// reportProps configures the demo report.
type reportProps struct {
	Title string        `msgpack:"title"`
	Rows  int           `msgpack:"rows"`
	Delay time.Duration `msgpack:"delay"`
}

type row struct {
	N     int
	Name  string
	Score float64
}

// reportComponent renders a table whose rows are produced one at a time,
// each after Delay. The footer is a future that settles once every row is
// out.
type reportComponent struct{}

func (reportComponent) Render(ctx context.Context, p reportProps) any {
	started := time.Now()
	done := make(chan struct{})

	rows := async.NewGenerator(func(ctx context.Context, yield func(*tmplstream.Template) bool) error {
		defer close(done)
		for r := range loadRows(ctx, p.Rows, p.Delay) {
			if !yield(rowLit.With(r.N, r.Name, r.Score)) {
				return nil
			}
		}
		return ctx.Err()
	})

	footer := async.Go(ctx, func(ctx context.Context) (*tmplstream.Template, error) {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return summary.With(p.Rows, time.Since(started).Round(time.Millisecond).String()), nil
	})

	return pageLit.With(p.Title, p.Title, tableLit.With(rows), footer)
}

// loadRows simulates a slow data source.
func loadRows(ctx context.Context, n int, delay time.Duration) <-chan row {
	out := make(chan row)
	go func() {
		defer close(out)
		for i := 1; i <= n; i++ {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			r := row{N: i, Name: fmt.Sprintf("item-%03d", i), Score: float64(i*37%100) / 4}
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
