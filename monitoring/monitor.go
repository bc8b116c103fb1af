package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the metrics endpoint configuration.
type Config struct {
	Enabled       bool   `mapstructure:"enabled"`
	ListenAddress string `mapstructure:"listen_address"`
	MetricsPath   string `mapstructure:"metrics_path"`
}

// DefaultConfig returns the default monitoring configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		ListenAddress: ":9090",
		MetricsPath:   "/metrics",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ListenAddress == "" {
		return errors.New("monitoring config: listen_address cannot be empty")
	}
	if c.MetricsPath == "" {
		return errors.New("monitoring config: metrics_path cannot be empty")
	}
	return nil
}

// Monitor owns the metrics registry and the HTTP server exposing it.
type Monitor struct {
	config   Config
	registry *prometheus.Registry
	metrics  *Metrics

	server *http.Server
	addr   string
}

// New creates a Monitor with a fresh registry carrying the gateway metrics
// plus the standard Go and process collectors.
func New(cfg Config) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Monitor{
		config:   cfg,
		registry: registry,
		metrics:  NewMetrics(registry),
	}, nil
}

// Metrics returns the instruments to hand to the HTTP layer.
func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// Enabled reports whether the metrics endpoint is configured to run.
func (m *Monitor) Enabled() bool {
	return m.config.Enabled
}

// Addr returns the bound listen address once Start has succeeded.
func (m *Monitor) Addr() string {
	return m.addr
}

// Start binds the metrics listener and serves it in the background. A nil
// return means the bind succeeded; serve errors after that are logged.
func (m *Monitor) Start() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.MetricsPath, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", m.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("bind metrics listener: %w", err)
	}
	m.addr = ln.Addr().String()

	m.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "err", err)
		}
	}()

	slog.Info("metrics endpoint started", "addr", m.addr, "path", m.config.MetricsPath)
	return nil
}

// Stop shuts the metrics server down gracefully.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
