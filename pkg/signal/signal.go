// Package signal provides the concrete signal carriers dispatched by the
// Signalcast core: Event for payload-free signals and Signal[T] for signals
// carrying one typed payload.
//
// A carrier owns an ordered listener table and a dispatch.Core. Listeners
// run in registration order; every structural change to the table is
// reported to the Core so that the dispatch cursor stays consistent when
// listeners connect or disconnect mid-dispatch.
//
// Carriers are default-constructible on purpose: the hub creates them by
// type with their zero value. Like the core, they assume a single scheduling
// context and provide no locking.
package signal

import (
	"context"

	"github.com/google/uuid"

	"github.com/signalcast/signalcast/pkg/dispatch"
)

// Handle identifies one listener registration. Connecting the same function
// twice yields two handles; disconnection goes through the handle, so
// duplicates are permitted.
type Handle struct {
	id uuid.UUID
}

// Valid reports whether the handle refers to a registration.
func (h Handle) Valid() bool {
	return h.id != uuid.Nil
}

// String returns the handle's identifier.
func (h Handle) String() string {
	return h.id.String()
}

type entry[T any] struct {
	id uuid.UUID
	fn func(ctx context.Context, v T)
}

// Signal is a dispatchable signal carrying one payload of type T.
// The zero value is ready to use.
type Signal[T any] struct {
	core    dispatch.Core
	entries []entry[T]

	// Payload of the dispatch in flight; kept across a pause so Resume
	// delivers the same value.
	ctx context.Context
	arg T
}

// init binds the carrier to its core on first use.
func (s *Signal[T]) init() {
	if !s.core.Bound() {
		s.core.Bind(s)
	}
}

// Connect appends a listener and returns its handle.
func (s *Signal[T]) Connect(fn func(ctx context.Context, v T)) Handle {
	return s.ConnectAt(len(s.entries), fn)
}

// ConnectFront inserts a listener ahead of all current listeners. If a
// dispatch is in flight the new listener does not run in it.
func (s *Signal[T]) ConnectFront(fn func(ctx context.Context, v T)) Handle {
	return s.ConnectAt(0, fn)
}

// ConnectAt inserts a listener at the given position in dispatch order.
// Positions outside [0, Len()] are clamped.
func (s *Signal[T]) ConnectAt(index int, fn func(ctx context.Context, v T)) Handle {
	s.init()
	if fn == nil {
		return Handle{}
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.entries) {
		index = len(s.entries)
	}

	e := entry[T]{id: uuid.New(), fn: fn}
	s.entries = append(s.entries, entry[T]{})
	copy(s.entries[index+1:], s.entries[index:])
	s.entries[index] = e

	s.core.ListenerInserted(index)
	return Handle{id: e.id}
}

// ConnectOnce appends a listener that disconnects itself before its first
// invocation, so it runs at most once.
func (s *Signal[T]) ConnectOnce(fn func(ctx context.Context, v T)) Handle {
	if fn == nil {
		return Handle{}
	}
	var h Handle
	h = s.Connect(func(ctx context.Context, v T) {
		s.Disconnect(h)
		fn(ctx, v)
	})
	return h
}

// Disconnect removes the listener registered under the handle. It is safe to
// call from within the listener's own invocation. Returns false if the
// handle is unknown.
func (s *Signal[T]) Disconnect(h Handle) bool {
	if !h.Valid() {
		return false
	}
	for i, e := range s.entries {
		if e.id == h.id {
			s.removeAt(i)
			return true
		}
	}
	return false
}

// DisconnectAll removes every listener.
func (s *Signal[T]) DisconnectAll() {
	for i := len(s.entries) - 1; i >= 0; i-- {
		s.removeAt(i)
	}
}

func (s *Signal[T]) removeAt(index int) {
	copy(s.entries[index:], s.entries[index+1:])
	s.entries[len(s.entries)-1] = entry[T]{}
	s.entries = s.entries[:len(s.entries)-1]
	s.core.ListenerRemoved(index)
}

// Len returns the number of connected listeners.
func (s *Signal[T]) Len() int {
	return len(s.entries)
}

// Emit dispatches the payload to every listener in registration order. See
// dispatch.Core.Dispatch for the in-flight semantics.
func (s *Signal[T]) Emit(ctx context.Context, v T) error {
	s.init()
	prevCtx, prevArg := s.ctx, s.arg
	s.ctx, s.arg = ctx, v
	err := s.core.Dispatch(ctx)
	if err != nil {
		// Rejected emit: keep the in-flight payload for Resume.
		s.ctx, s.arg = prevCtx, prevArg
		return err
	}
	s.clearIfIdle()
	return nil
}

// Pause checkpoints the dispatch in flight; see dispatch.Core.Pause.
func (s *Signal[T]) Pause() {
	s.core.Pause()
}

// Resume continues a paused dispatch with the payload it was emitted with.
func (s *Signal[T]) Resume(ctx context.Context) {
	s.core.Resume(ctx)
	s.clearIfIdle()
}

// Consume aborts the remainder of the dispatch in flight; see
// dispatch.Core.Consume.
func (s *Signal[T]) Consume() {
	s.core.Consume()
}

// State returns the dispatch state.
func (s *Signal[T]) State() dispatch.State {
	return s.core.State()
}

// Name returns the signal's identity.
func (s *Signal[T]) Name() string {
	return s.core.Name()
}

// SetName sets the signal's identity; the hub assigns the type name on first
// lookup.
func (s *Signal[T]) SetName(name string) {
	s.core.SetName(name)
}

// Configure applies dispatch options to the signal's core.
func (s *Signal[T]) Configure(opts ...dispatch.Option) {
	s.core.Configure(opts...)
}

// ListenerCount implements dispatch.Sequence.
func (s *Signal[T]) ListenerCount() int {
	return len(s.entries)
}

// Invoke implements dispatch.Sequence.
func (s *Signal[T]) Invoke(index int) {
	e := s.entries[index]
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	e.fn(ctx, s.arg)
}

func (s *Signal[T]) clearIfIdle() {
	if s.core.State() == dispatch.StateIdle {
		var zero T
		s.ctx, s.arg = nil, zero
	}
}
