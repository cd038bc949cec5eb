package dispatch

import (
	"sync"
	"time"
)

// MetricsRecorder defines metrics hooks for dispatch operations.
type MetricsRecorder interface {
	RecordDispatch(signal string, outcome string, duration time.Duration)
	RecordListenerInvoked(signal string)
	RecordDispatchRejected(signal string, reason string)
}

type nopMetrics struct{}

func (n *nopMetrics) RecordDispatch(signal string, outcome string, duration time.Duration) {}
func (n *nopMetrics) RecordListenerInvoked(signal string)                                  {}
func (n *nopMetrics) RecordDispatchRejected(signal string, reason string)                  {}

var (
	metricsMu sync.RWMutex
	metrics   MetricsRecorder = &nopMetrics{}
)

// SetMetricsRecorder sets the package-level dispatch metrics recorder.
func SetMetricsRecorder(recorder MetricsRecorder) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if recorder == nil {
		metrics = &nopMetrics{}
		return
	}
	metrics = recorder
}

func metricsRecorder() MetricsRecorder {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	if metrics == nil {
		return &nopMetrics{}
	}
	return metrics
}
