package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pthm/tmplstream"
	"github.com/pthm/tmplstream/internal/logging"
	"github.com/spf13/cobra"
)

var (
	indexLit = tmplstream.Lit(
		"<!doctype html><html><body><h1>tmplstream</h1><ul>", "</ul></body></html>",
	)
	linkLit = tmplstream.Lit(`<li><a href="`, `">`, "</a></li>")
)

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo report over HTTP",
		Long: `Serve the demo report over HTTP. Open the index page and follow a
link to watch the report stream in.

Routes:
  /          index of report links
  /_c/...    streamed components
  /metrics   Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runServe(ctx, cfg, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Listen address")

	return cmd
}

func runServe(ctx context.Context, cfg tmplstream.Config, addr string) error {
	logger := logging.New(slog.LevelInfo)

	promReg := prometheus.NewRegistry()
	cfg.Metrics.Enabled = true
	engine := tmplstream.NewEngine(cfg.Options(promReg)...)

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return err
	}
	reg := tmplstream.NewRegistry(key, cfg.RegistryOptions(engine)...)
	report := tmplstream.NewComponent[reportProps]("report", reportComponent{})
	reg.Add(report)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		links, err := reportLinks(report)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		if err := tmplstream.ServeTemplate(w, req, indexLit.In(engine, links)); err != nil {
			logger.Error("index failed", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	mux := http.NewServeMux()
	mux.Handle("/_c/", reg.Handler())
	mux.Handle("/", r)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func reportLinks(report *tmplstream.Component[reportProps]) ([]*tmplstream.Template, error) {
	var links []*tmplstream.Template
	for _, rows := range []int{5, 25, 100} {
		url, err := report.URL(reportProps{
			Title: strconv.Itoa(rows) + " rows",
			Rows:  rows,
			Delay: 2 * time.Second / time.Duration(rows),
		})
		if err != nil {
			return nil, err
		}
		links = append(links, linkLit.With(url, strconv.Itoa(rows)+" rows"))
	}
	return links, nil
}
