// Package hub provides the type-keyed registry of singleton signal
// instances.
//
// A Hub maps each signal type to exactly one lazily created instance: the
// first lookup constructs the zero value, names it after its type, and
// caches it; later lookups return the identical instance. Hubs are meant to
// be passed explicitly to the subsystems that need them; a process-wide
// Default hub exists for convenience but is not the only access path.
//
// A Hub provides no locking. Like the dispatch core it assumes all signal
// traffic is confined to a single scheduling context, such as a game's main
// update goroutine.
package hub

import (
	"fmt"
	"reflect"

	"github.com/signalcast/signalcast/pkg/dispatch"
)

// ConfigError is returned when a requested signal type cannot be
// instantiated. It is fatal to that lookup, not to the hub.
type ConfigError struct {
	Type   reflect.Type
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("hub: cannot instantiate signal type %v: %s", e.Type, e.Reason)
}

// capable constrains Get to types whose pointer satisfies the dispatch
// capability contract.
type capable[S any] interface {
	*S
	dispatch.Sequence
}

// Hub is a registry of singleton signal instances keyed by type.
type Hub struct {
	instances map[reflect.Type]dispatch.Sequence
	opts      []dispatch.Option
}

// Option configures a Hub.
type Option func(*Hub)

// WithDispatchOptions sets dispatch options applied to every instance the
// hub creates.
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(h *Hub) {
		h.opts = append(h.opts, opts...)
	}
}

// New creates an empty Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		instances: make(map[reflect.Type]dispatch.Sequence),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Get returns the hub's singleton instance of signal type S, constructing
// and caching it on first lookup. The capability contract is enforced at
// compile time.
func Get[S any, P capable[S]](h *Hub) P {
	t := reflect.TypeOf((*S)(nil)).Elem()
	if inst, ok := h.instances[t]; ok {
		return inst.(P)
	}
	p := P(new(S))
	h.adopt(t, p)
	return p
}

// Lookup is the reflective counterpart of Get for callers that only hold a
// type at runtime. It returns a ConfigError if the type is not
// default-constructible or does not satisfy the capability contract
// (ListenerCount, Invoke).
func (h *Hub) Lookup(t reflect.Type) (dispatch.Sequence, error) {
	if t == nil {
		return nil, &ConfigError{Type: t, Reason: "nil type"}
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if inst, ok := h.instances[t]; ok {
		return inst, nil
	}
	if t.Kind() != reflect.Struct {
		return nil, &ConfigError{Type: t, Reason: "not default-constructible"}
	}

	seq, ok := reflect.New(t).Interface().(dispatch.Sequence)
	if !ok {
		return nil, &ConfigError{Type: t, Reason: "does not satisfy the signal contract (ListenerCount, Invoke)"}
	}

	h.adopt(t, seq)
	return seq, nil
}

// adopt names, configures and caches a freshly constructed instance.
func (h *Hub) adopt(t reflect.Type, inst dispatch.Sequence) {
	if named, ok := inst.(interface{ SetName(string) }); ok {
		named.SetName(t.String())
	}
	if cfg, ok := inst.(dispatch.Configurable); ok && len(h.opts) > 0 {
		cfg.Configure(h.opts...)
	}
	h.instances[t] = inst
}

// Count returns the number of distinct signal types currently cached.
func (h *Hub) Count() int {
	return len(h.instances)
}

// Clear drops all cached instances. Instances held externally are orphaned:
// they keep working, but a later lookup for their type yields a new
// instance.
func (h *Hub) Clear() {
	h.instances = make(map[reflect.Type]dispatch.Sequence)
}

// defaultHub is the process-wide convenience hub.
var defaultHub = New()

// Default returns the process-wide hub. Prefer passing an explicit Hub to
// the subsystems that need one.
func Default() *Hub {
	return defaultHub
}
