package tmplstream

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus stream observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "tmplstream").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for stream duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus stream observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "tmplstream",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Stream outcome label values.
const (
	statusOK        = "ok"
	statusCancelled = "cancelled"
	statusError     = "error"
)

// Metrics is an Observer backed by Prometheus collectors. All series are
// labeled by root ("template" or the component name).
//
// Collectors are registered on creation, so create one Metrics per
// registerer and share it between engines.
type Metrics struct {
	streamsTotal   *prometheus.CounterVec
	chunksTotal    *prometheus.CounterVec
	bytesTotal     *prometheus.CounterVec
	streamDuration *prometheus.HistogramVec
	activeStreams  prometheus.Gauge
}

// NewMetrics creates and registers the stream metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		streamsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "streams_total",
			Help:        "Total number of finished render streams by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"root", "status"}),

		chunksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "chunks_total",
			Help:        "Total number of text chunks delivered to consumers",
			ConstLabels: config.ConstLabels,
		}, []string{"root"}),

		bytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bytes_total",
			Help:        "Total number of rendered bytes delivered to consumers",
			ConstLabels: config.ConstLabels,
		}, []string{"root"}),

		streamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stream_duration_seconds",
			Help:        "Time from opening a render stream to its end",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"root"}),

		activeStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_streams",
			Help:        "Number of render streams currently open",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// StreamStarted implements Observer.
func (m *Metrics) StreamStarted(root string) {
	m.activeStreams.Inc()
}

// ChunkEmitted implements Observer.
func (m *Metrics) ChunkEmitted(root string, size int) {
	m.chunksTotal.WithLabelValues(root).Inc()
	m.bytesTotal.WithLabelValues(root).Add(float64(size))
}

// StreamFinished implements Observer.
func (m *Metrics) StreamFinished(root string, stats StreamStats, err error) {
	m.activeStreams.Dec()
	m.streamsTotal.WithLabelValues(root, streamStatus(err)).Inc()
	m.streamDuration.WithLabelValues(root).Observe(stats.Duration.Seconds())
}

func streamStatus(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, ErrClosed), errors.Is(err, context.Canceled):
		return statusCancelled
	default:
		return statusError
	}
}

var _ Observer = (*Metrics)(nil)
