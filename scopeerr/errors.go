// Package scopeerr defines the typed error kinds raised by scopeprop's
// binding runtime, carrier, transmitter, executor, and structured-scope
// components. Each kind is a distinct struct so callers can use
// errors.As to recover kind-specific fields instead of matching on
// message text.
package scopeerr

import (
	"fmt"
	"time"
)

// Unbound is raised by Get when a key has neither an active binding
// nor a default value.
type Unbound struct {
	Key string
}

func (e *Unbound) Error() string {
	return fmt.Sprintf("scopeprop: %q is not bound and has no default", e.Key)
}

// InvalidScopeState is raised when a structured-scope operation is
// issued while the scope is in a state that does not permit it.
type InvalidScopeState struct {
	Op    string
	State string
}

func (e *InvalidScopeState) Error() string {
	return fmt.Sprintf("scopeprop: %s not permitted in state %s", e.Op, e.State)
}

// Timeout is raised when a bulk executor operation or a structured
// scope's timed join exceeds its deadline.
type Timeout struct {
	Op    string
	After time.Duration
}

func (e *Timeout) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("scopeprop: %s timed out after %s", e.Op, e.After)
	}
	return fmt.Sprintf("scopeprop: %s timed out", e.Op)
}

// ExecutionFailure wraps the cause a structured scope surfaces to its
// joiner after a child task failed.
type ExecutionFailure struct {
	Cause error
}

func (e *ExecutionFailure) Error() string {
	return fmt.Sprintf("scopeprop: subtask failed: %v", e.Cause)
}

func (e *ExecutionFailure) Unwrap() error { return e.Cause }

// Interrupted is raised when a worker observes cooperative
// cancellation while performing scoped work.
type Interrupted struct {
	Cause error
}

func (e *Interrupted) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scopeprop: interrupted: %v", e.Cause)
	}
	return "scopeprop: interrupted"
}

func (e *Interrupted) Unwrap() error { return e.Cause }

// TransmitterFailure is raised when a Transmitter errors during
// capture, replay, or restore. It is never swallowed silently; the
// carrier attaches it to the primary error via errors.Join.
type TransmitterFailure struct {
	Name  string
	Op    string
	Cause error
}

func (e *TransmitterFailure) Error() string {
	return fmt.Sprintf("scopeprop: transmitter %q failed during %s: %v", e.Name, e.Op, e.Cause)
}

func (e *TransmitterFailure) Unwrap() error { return e.Cause }

// Precondition is raised by Bind/Get/Wrap when a required argument is
// missing or invalid.
type Precondition struct {
	Arg    string
	Reason string
}

func (e *Precondition) Error() string {
	return fmt.Sprintf("scopeprop: precondition violated for %s: %s", e.Arg, e.Reason)
}
