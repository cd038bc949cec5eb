package signal

import (
	"context"

	"github.com/signalcast/signalcast/pkg/dispatch"
)

// Event is a dispatchable signal with no payload.
// The zero value is ready to use.
type Event struct {
	s Signal[struct{}]
}

// Connect appends a listener and returns its handle.
func (e *Event) Connect(fn func(ctx context.Context)) Handle {
	return e.s.Connect(adapt(fn))
}

// ConnectFront inserts a listener ahead of all current listeners.
func (e *Event) ConnectFront(fn func(ctx context.Context)) Handle {
	return e.s.ConnectFront(adapt(fn))
}

// ConnectAt inserts a listener at the given position in dispatch order.
func (e *Event) ConnectAt(index int, fn func(ctx context.Context)) Handle {
	return e.s.ConnectAt(index, adapt(fn))
}

// ConnectOnce appends a listener that runs at most once.
func (e *Event) ConnectOnce(fn func(ctx context.Context)) Handle {
	if fn == nil {
		return Handle{}
	}
	var h Handle
	h = e.Connect(func(ctx context.Context) {
		e.Disconnect(h)
		fn(ctx)
	})
	return h
}

// Disconnect removes the listener registered under the handle.
func (e *Event) Disconnect(h Handle) bool {
	return e.s.Disconnect(h)
}

// DisconnectAll removes every listener.
func (e *Event) DisconnectAll() {
	e.s.DisconnectAll()
}

// Len returns the number of connected listeners.
func (e *Event) Len() int {
	return e.s.Len()
}

// Emit dispatches to every listener in registration order.
func (e *Event) Emit(ctx context.Context) error {
	return e.s.Emit(ctx, struct{}{})
}

// Pause checkpoints the dispatch in flight.
func (e *Event) Pause() {
	e.s.Pause()
}

// Resume continues a paused dispatch.
func (e *Event) Resume(ctx context.Context) {
	e.s.Resume(ctx)
}

// Consume aborts the remainder of the dispatch in flight.
func (e *Event) Consume() {
	e.s.Consume()
}

// State returns the dispatch state.
func (e *Event) State() dispatch.State {
	return e.s.State()
}

// Name returns the signal's identity.
func (e *Event) Name() string {
	return e.s.Name()
}

// SetName sets the signal's identity.
func (e *Event) SetName(name string) {
	e.s.SetName(name)
}

// Configure applies dispatch options to the signal's core.
func (e *Event) Configure(opts ...dispatch.Option) {
	e.s.Configure(opts...)
}

// ListenerCount implements dispatch.Sequence.
func (e *Event) ListenerCount() int {
	return e.s.ListenerCount()
}

// Invoke implements dispatch.Sequence.
func (e *Event) Invoke(index int) {
	e.s.Invoke(index)
}

func adapt(fn func(ctx context.Context)) func(ctx context.Context, _ struct{}) {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context, _ struct{}) {
		fn(ctx)
	}
}
