// Package dispatch implements the dispatch state machine at the heart of
// Signalcast.
//
// A Core walks an ordered listener sequence exactly once per dispatch,
// invoking each listener in registration order. Listener code may call back
// into the same Core before returning: it can pause the dispatch, consume
// (abort) it, or mutate the listener sequence through the insertion/removal
// hooks. The Core keeps its cursor consistent through all of this, so a
// listener that removes itself does not cause its successor to be skipped,
// and a listener inserted ahead of the cursor is not invoked in the dispatch
// already underway.
//
// Everything here assumes a single scheduling context. Dispatch is
// synchronous and reentrant, never concurrent; confining all signal traffic
// to one goroutine is the caller's job.
package dispatch

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/signalcast/signalcast/pkg/logger"
)

// State is the dispatch state of a signal instance.
type State int

const (
	// StateIdle means no dispatch is in flight.
	StateIdle State = iota
	// StateRunning means the dispatch loop is walking the listener sequence.
	StateRunning
	// StatePaused means a listener paused the dispatch; Resume continues it.
	StatePaused
	// StateConsumed means a listener aborted the dispatch; the next Dispatch
	// resets the instance.
	StateConsumed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// Sequence is the capability contract a concrete signal variant supplies to
// the Core: a stable, ordered listener table. ListenerCount must only change
// through registration operations, and every structural change must be
// reported back through ListenerInserted/ListenerRemoved on the owning Core.
type Sequence interface {
	// ListenerCount returns the number of registered listeners.
	ListenerCount() int

	// Invoke calls the listener at the given index with the payload of the
	// dispatch in flight.
	Invoke(index int)
}

// Configurable is implemented by signal variants whose Core accepts options
// after construction. The hub uses it to apply hub-wide dispatch options to
// lazily created instances.
type Configurable interface {
	Configure(opts ...Option)
}

// defaultMisuseLogInterval throttles the warning emitted when a dispatch is
// requested while another is in flight.
const defaultMisuseLogInterval = time.Second

// Core is the dispatch state machine owned by each signal instance.
//
// The zero value is usable once a Sequence is bound; state starts at
// StateIdle with the restart policy RestartReject.
type Core struct {
	seq    Sequence
	name   string
	state  State
	index  int
	policy RestartPolicy

	misuseLimit *rate.Limiter
}

// Option configures a Core.
type Option func(*Core)

// WithRestartPolicy sets the policy applied when Dispatch is called while a
// dispatch is already in flight.
func WithRestartPolicy(p RestartPolicy) Option {
	return func(c *Core) {
		c.policy = p
	}
}

// WithMisuseLogInterval sets the minimum interval between in-flight misuse
// warnings. Zero or negative disables throttling.
func WithMisuseLogInterval(d time.Duration) Option {
	return func(c *Core) {
		if d <= 0 {
			c.misuseLimit = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.misuseLimit = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewCore creates a Core bound to the given listener sequence.
func NewCore(name string, seq Sequence, opts ...Option) *Core {
	c := &Core{seq: seq, name: name}
	c.Configure(opts...)
	return c
}

// Bind attaches the listener sequence if none is bound yet.
func (c *Core) Bind(seq Sequence) {
	if c.seq == nil {
		c.seq = seq
	}
}

// Bound reports whether a listener sequence is attached.
func (c *Core) Bound() bool {
	return c.seq != nil
}

// Configure applies options to the Core. Must not be called while a dispatch
// is in flight.
func (c *Core) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Name returns the identity of the owning signal instance.
func (c *Core) Name() string {
	return c.name
}

// SetName sets the identity of the owning signal instance. The hub assigns
// the signal's type name on first lookup; the identity is stable afterwards.
func (c *Core) SetName(name string) {
	if c.name == "" {
		c.name = name
	}
}

// State returns the current dispatch state.
func (c *Core) State() State {
	return c.state
}

// Index returns the cursor position of the dispatch in flight. Meaningful
// only while State is not StateIdle.
func (c *Core) Index() int {
	return c.index
}

// Dispatch runs one pass over the listener sequence.
//
// It resets the cursor, enters StateRunning and invokes listeners in
// ascending index order until the sequence is exhausted (back to StateIdle),
// a listener pauses the dispatch (StatePaused, resume with Resume), or a
// listener consumes it (StateConsumed).
//
// Calling Dispatch while a previous dispatch is still Running or Paused is a
// caller error. Under RestartReject (the default) the call is rejected with
// an *InFlightError and the in-flight dispatch is untouched; under
// RestartReset the in-flight dispatch is abandoned and a fresh one starts. A
/// Consumed instance is always restartable: the next Dispatch resets it.
func (c *Core) Dispatch(ctx context.Context) error {
	if c.seq == nil {
		return ErrNotBound
	}

	switch c.state {
	case StateIdle, StateConsumed:
	default:
		c.warnInFlight(ctx)
		if c.policy == RestartReject {
			metricsRecorder().RecordDispatchRejected(c.name, "in_flight")
			return &InFlightError{Signal: c.name, State: c.state}
		}
	}

	c.index = 0
	c.state = StateRunning

	notifyDispatchStarted(ctx, c)
	defer notifyDispatchReturned(ctx, c)

	c.run(ctx)
	return nil
}

// Pause checkpoints the dispatch in flight. It takes effect when the
// currently running listener returns: the loop suspends without advancing
// past it, and the call stack unwinds to whoever called Dispatch or Resume.
// No-op unless a dispatch is Running.
func (c *Core) Pause() {
	if c.state == StateRunning {
		c.state = StatePaused
	}
}

// Resume continues a paused dispatch at the next listener. The listener that
// triggered the pause counts as complete. No-op unless Paused.
func (c *Core) Resume(ctx context.Context) {
	if c.state != StatePaused {
		return
	}

	c.index++
	c.state = StateRunning

	notifyDispatchStarted(ctx, c)
	defer notifyDispatchReturned(ctx, c)

	c.run(ctx)
}

// Consume aborts the remainder of the dispatch in flight. It takes effect
// when the currently running listener returns; listeners after it are not
// invoked and the instance stays Consumed until the next Dispatch. No-op
// unless Running.
func (c *Core) Consume() {
	if c.state == StateRunning {
		c.state = StateConsumed
	}
}

// ListenerInserted informs the Core that a listener was inserted at the
// given index. While a dispatch is in flight, an insertion at or before the
// cursor shifts the cursor forward so the new listener is not invoked in the
// dispatch already underway and no existing listener is skipped.
func (c *Core) ListenerInserted(index int) {
	if c.state == StateIdle {
		return
	}
	if index <= c.index {
		c.index++
	}
}

// ListenerRemoved informs the Core that the listener at the given index was
// removed. While a dispatch is in flight, a removal at or before the cursor
// shifts the cursor back so it still refers to the correct next listener and
// none is invoked twice. Removal of the currently running listener (the
// self-unregistering "fire once" pattern) is safe.
func (c *Core) ListenerRemoved(index int) {
	if c.state == StateIdle {
		return
	}
	if index <= c.index {
		c.index--
	}
}

// run is the dispatch loop. It is written iteratively so the stack depth per
// dispatch is one frame regardless of listener count; a recursive
// formulation would grow the stack once per listener.
func (c *Core) run(ctx context.Context) {
	start := time.Now()

	for {
		if c.index >= c.seq.ListenerCount() {
			c.state = StateIdle
			c.index = 0
			metricsRecorder().RecordDispatch(c.name, "completed", time.Since(start))
			return
		}

		// May reenter Pause/Consume/ListenerInserted/ListenerRemoved.
		c.seq.Invoke(c.index)
		metricsRecorder().RecordListenerInvoked(c.name)

		if c.state != StateRunning {
			outcome := c.state.String()
			if c.state == StateIdle {
				// An inner dispatch under RestartReset took over this pass
				// and finished it.
				outcome = "abandoned"
			}
			// Paused, consumed or abandoned: suspend here, do not advance.
			metricsRecorder().RecordDispatch(c.name, outcome, time.Since(start))
			return
		}
		c.index++
	}
}

func (c *Core) warnInFlight(ctx context.Context) {
	if c.misuseLimit == nil {
		c.misuseLimit = rate.NewLimiter(rate.Every(defaultMisuseLogInterval), 1)
	}
	if !c.misuseLimit.Allow() {
		return
	}
	logger.WarnContext(ctx, "dispatch requested while another is in flight",
		"signal", c.name,
		"state", c.state.String(),
		"index", c.index,
		"policy", c.policy.String(),
	)
}
