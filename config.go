package tmplstream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pthm/tmplstream/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config is the file form of engine and registry settings.
//
//	cache_size: 2048
//	log_level: debug
//	metrics:
//	  enabled: true
//	  namespace: myapp
//	registry:
//	  flush_every: 4
//	  content_type: text/html; charset=utf-8
type Config struct {
	CacheSize int             `yaml:"cache_size"`
	LogLevel  string          `yaml:"log_level"`
	Metrics   MetricsSection  `yaml:"metrics"`
	Registry  RegistrySection `yaml:"registry"`
}

// MetricsSection configures the Prometheus observer.
type MetricsSection struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// RegistrySection configures the HTTP registry.
type RegistrySection struct {
	FlushEvery  int    `yaml:"flush_every"`
	ContentType string `yaml:"content_type"`
}

// LoadConfig reads a YAML config. Unknown keys are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("tmplstream: decode config: %w", err)
	}
	if c.CacheSize < 0 {
		return Config{}, fmt.Errorf("tmplstream: cache_size must not be negative, got %d", c.CacheSize)
	}
	if c.Registry.FlushEvery < 0 {
		return Config{}, fmt.Errorf("tmplstream: registry.flush_every must not be negative, got %d", c.Registry.FlushEvery)
	}
	if c.LogLevel != "" {
		if _, err := c.level(); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

func (c Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("tmplstream: invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Options converts the config to engine options. When metrics are enabled
// the collectors are registered on reg (prometheus.DefaultRegisterer if nil).
func (c Config) Options(reg prometheus.Registerer) []Option {
	opts := []Option{WithCacheSize(c.CacheSize)}

	if c.LogLevel != "" {
		if level, err := c.level(); err == nil {
			opts = append(opts, WithLogger(logging.New(level)))
		}
	}

	if c.Metrics.Enabled {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		mopts := []MetricsOption{WithRegistry(reg), WithSubsystem(c.Metrics.Subsystem)}
		if c.Metrics.Namespace != "" {
			mopts = append(mopts, WithNamespace(c.Metrics.Namespace))
		}
		opts = append(opts, WithObserver(NewMetrics(mopts...)))
	}
	return opts
}

// RegistryOptions converts the config to registry options. The registry
// renders with e.
func (c Config) RegistryOptions(e *Engine) []RegistryOption {
	opts := []RegistryOption{
		WithEngine(e),
		WithFlushEvery(c.Registry.FlushEvery),
		WithContentType(c.Registry.ContentType),
	}
	if c.LogLevel != "" {
		if level, err := c.level(); err == nil {
			opts = append(opts, WithRegistryLogger(logging.New(level)))
		}
	}
	return opts
}
