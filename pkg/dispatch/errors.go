package dispatch

import (
	"errors"
	"fmt"
)

// ErrNotBound is returned when Dispatch is called on a Core with no listener
// sequence attached.
var ErrNotBound = errors.New("dispatch: no listener sequence bound")

// InFlightError is returned under RestartReject when Dispatch is called
// while a previous dispatch on the same instance is still Running or Paused.
type InFlightError struct {
	Signal string
	State  State
}

func (e *InFlightError) Error() string {
	return fmt.Sprintf("signal %q: dispatch requested while %s", e.Signal, e.State)
}

// RestartPolicy controls what Dispatch does when called while a dispatch is
// already in flight.
type RestartPolicy int

const (
	// RestartReject rejects the call with an *InFlightError and leaves the
	// in-flight dispatch untouched. This is the default.
	RestartReject RestartPolicy = iota
	// RestartReset abandons the in-flight dispatch and starts a fresh one.
	// This forcibly overrides an unfinished pause; it exists for callers
	// that treat a lingering pause as recoverable, not as a normal path.
	RestartReset
)

// String returns the string representation of the policy.
func (p RestartPolicy) String() string {
	switch p {
	case RestartReject:
		return "reject"
	case RestartReset:
		return "reset"
	default:
		return "unknown"
	}
}

// ParseRestartPolicy parses a policy string as used in configuration.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch s {
	case "reject", "":
		return RestartReject, nil
	case "reset":
		return RestartReset, nil
	default:
		return RestartReject, fmt.Errorf("unknown restart policy %q", s)
	}
}
