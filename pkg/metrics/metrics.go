// Package metrics provides Prometheus metrics instrumentation for
// Signalcast dispatch.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for Signalcast. It implements
// dispatch.MetricsRecorder; install it with dispatch.SetMetricsRecorder.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	// Dispatch metrics
	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	invocations      *prometheus.CounterVec
	rejections       *prometheus.CounterVec

	// Hub metrics
	registeredSignals prometheus.Gauge
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Port    int
	Path    string

	// DispatchDurationBuckets are the histogram buckets for dispatch
	// duration, in seconds.
	DispatchDurationBuckets []float64
}

// DefaultConfig returns default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:                 true,
		Port:                    9091,
		Path:                    "/metrics",
		DispatchDurationBuckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}
}

// NewManager creates a new metrics manager.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{enabled: false}
	}
	if len(cfg.DispatchDurationBuckets) == 0 {
		cfg.DispatchDurationBuckets = DefaultConfig().DispatchDurationBuckets
	}

	registry := prometheus.NewRegistry()

	// Register Go runtime metrics
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		enabled:  true,
	}

	m.dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_dispatches_total",
			Help: "Total number of dispatch passes by signal and outcome",
		},
		[]string{"signal", "outcome"},
	)

	m.dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signal_dispatch_duration_seconds",
			Help:    "Dispatch pass duration in seconds",
			Buckets: cfg.DispatchDurationBuckets,
		},
		[]string{"signal", "outcome"},
	)

	m.invocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_listener_invocations_total",
			Help: "Total number of listener invocations",
		},
		[]string{"signal"},
	)

	m.rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_dispatch_rejections_total",
			Help: "Total number of dispatch requests rejected while another was in flight",
		},
		[]string{"signal", "reason"},
	)

	m.registeredSignals = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_registered_signals",
			Help: "Current number of signal types cached in the hub",
		},
	)

	m.registry.MustRegister(m.dispatches)
	m.registry.MustRegister(m.dispatchDuration)
	m.registry.MustRegister(m.invocations)
	m.registry.MustRegister(m.rejections)
	m.registry.MustRegister(m.registeredSignals)

	return m
}

// Enabled returns whether metrics collection is enabled.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// RecordDispatch records a dispatch pass and its outcome.
func (m *Manager) RecordDispatch(signal string, outcome string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.dispatches.WithLabelValues(signal, outcome).Inc()
	m.dispatchDuration.WithLabelValues(signal, outcome).Observe(duration.Seconds())
}

// RecordListenerInvoked records one listener invocation.
func (m *Manager) RecordListenerInvoked(signal string) {
	if !m.enabled {
		return
	}
	m.invocations.WithLabelValues(signal).Inc()
}

// RecordDispatchRejected records a rejected dispatch request.
func (m *Manager) RecordDispatchRejected(signal string, reason string) {
	if !m.enabled {
		return
	}
	m.rejections.WithLabelValues(signal, reason).Inc()
}

// SetRegisteredSignals records the number of signal types cached in a hub.
func (m *Manager) SetRegisteredSignals(n int) {
	if !m.enabled {
		return
	}
	m.registeredSignals.Set(float64(n))
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server on the configured port.
func (m *Manager) StartServer(ctx context.Context, port int, path string) error {
	if !m.enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

// NoOpManager returns a no-op metrics manager for when metrics are disabled.
func NoOpManager() *Manager {
	return &Manager{enabled: false}
}
