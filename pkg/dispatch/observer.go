package dispatch

import (
	"context"
	"sync"
)

// Observer receives dispatch lifecycle notifications for diagnostic and
// tracing purposes. Implementations must not alter dispatch outcome: they
// run synchronously on the dispatching goroutine and must not panic, block,
// or call back into the observed Core.
type Observer interface {
	// DispatchStarted is called when a dispatch pass begins, including the
	// continuation of a paused dispatch.
	DispatchStarted(ctx context.Context, c *Core)

	// DispatchReturned is called when control returns to the caller of
	// Dispatch or Resume: after natural completion, a pause, or a consume.
	DispatchReturned(ctx context.Context, c *Core)
}

var (
	observerMu sync.RWMutex
	observer   Observer
)

// SetObserver installs the process-wide dispatch observer. Passing nil
// removes it and disables all dispatch observation with no other side
// effect.
func SetObserver(o Observer) {
	observerMu.Lock()
	defer observerMu.Unlock()
	observer = o
}

func currentObserver() Observer {
	observerMu.RLock()
	defer observerMu.RUnlock()
	return observer
}

func notifyDispatchStarted(ctx context.Context, c *Core) {
	if o := currentObserver(); o != nil {
		o.DispatchStarted(ctx, c)
	}
}

func notifyDispatchReturned(ctx context.Context, c *Core) {
	if o := currentObserver(); o != nil {
		o.DispatchReturned(ctx, c)
	}
}
