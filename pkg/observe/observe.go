// Package observe provides ready-made implementations of the process-wide
// dispatch observer: structured logging and OpenTelemetry span creation
// around every dispatch pass. Install one with dispatch.SetObserver;
// dispatch.SetObserver(nil) disables all observation again.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalcast/signalcast/pkg/dispatch"
	"github.com/signalcast/signalcast/pkg/logger"
)

const dispatchTracerName = "signalcast.dispatch"

const spanDispatch = "signal.dispatch"

// LogObserver logs every dispatch pass at debug level.
type LogObserver struct {
	log logger.Logger
}

// NewLogObserver creates a LogObserver. A nil logger uses the global one.
func NewLogObserver(log logger.Logger) *LogObserver {
	if log == nil {
		log = logger.Global()
	}
	return &LogObserver{log: log}
}

// DispatchStarted implements dispatch.Observer.
func (o *LogObserver) DispatchStarted(ctx context.Context, c *dispatch.Core) {
	o.log.DebugContext(ctx, "dispatch started",
		"signal", c.Name(),
		"index", c.Index(),
	)
}

// DispatchReturned implements dispatch.Observer.
func (o *LogObserver) DispatchReturned(ctx context.Context, c *dispatch.Core) {
	o.log.DebugContext(ctx, "dispatch returned",
		"signal", c.Name(),
		"outcome", c.State().String(),
		"index", c.Index(),
	)
}

// TraceObserver opens an OpenTelemetry span per dispatch pass and annotates
// it with the signal identity and outcome.
type TraceObserver struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[*dispatch.Core]trace.Span
}

// NewTraceObserver creates a TraceObserver using the global tracer provider.
func NewTraceObserver() *TraceObserver {
	return &TraceObserver{
		tracer: otel.Tracer(dispatchTracerName),
		spans:  make(map[*dispatch.Core]trace.Span),
	}
}

// DispatchStarted implements dispatch.Observer.
func (o *TraceObserver) DispatchStarted(ctx context.Context, c *dispatch.Core) {
	_, span := o.tracer.Start(ctx, spanDispatch,
		trace.WithAttributes(
			attribute.String("signal.name", c.Name()),
			attribute.Int("signal.start_index", c.Index()),
		),
	)
	o.mu.Lock()
	o.spans[c] = span
	o.mu.Unlock()
}

// DispatchReturned implements dispatch.Observer.
func (o *TraceObserver) DispatchReturned(ctx context.Context, c *dispatch.Core) {
	o.mu.Lock()
	span, ok := o.spans[c]
	delete(o.spans, c)
	o.mu.Unlock()
	if !ok {
		return
	}
	span.SetAttributes(
		attribute.String("signal.outcome", c.State().String()),
		attribute.Int("signal.end_index", c.Index()),
	)
	span.End()
}

// multiObserver fans notifications out to several observers.
type multiObserver struct {
	observers []dispatch.Observer
}

// Combine joins observers into one; nil entries are skipped.
func Combine(observers ...dispatch.Observer) dispatch.Observer {
	var kept []dispatch.Observer
	for _, o := range observers {
		if o != nil {
			kept = append(kept, o)
		}
	}
	return &multiObserver{observers: kept}
}

func (m *multiObserver) DispatchStarted(ctx context.Context, c *dispatch.Core) {
	for _, o := range m.observers {
		o.DispatchStarted(ctx, c)
	}
}

func (m *multiObserver) DispatchReturned(ctx context.Context, c *dispatch.Core) {
	for _, o := range m.observers {
		o.DispatchReturned(ctx, c)
	}
}
