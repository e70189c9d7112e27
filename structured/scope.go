// Package structured implements structured-concurrency scopes: a
// joiner opens a Scope, forks subtasks into it, and joins before the
// scope closes — with the scope's policy deciding what joining means
// and what happens to still-running siblings when one subtask ends.
//
// Every scope captures the opening goroutine's Carrier once, at fork
// time per subtask, so each forked subtask runs with the joiner's
// scoped bindings and transmitter state rather than whatever ambient
// state its own goroutine would otherwise have.
package structured

import (
	"context"
	"sync"

	"github.com/jeeves-cluster-organization/scopeprop/carrier"
	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
	"github.com/jeeves-cluster-organization/scopeprop/scopelog"
)

// state is the lifecycle every scope implementation drives through:
// open while subtasks may still be forked, joined once Join has
// returned, closed once Close has run. Forking after open, or joining
// more than once, are programmer errors reported as
// *scopeerr.InvalidScopeState rather than silently tolerated; Close is
// accepted in every state.
type state int32

const (
	stateOpen state = iota
	stateJoined
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateJoined:
		return "joined"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// lifecycle is embedded by every scope implementation to enforce the
// open -> joined -> closed transition with a single mutex.
type lifecycle struct {
	mu    sync.Mutex
	state state
	log   scopelog.Logger
}

// SetLogger attaches a scopelog.Logger that receives a warning whenever
// a scope operation is rejected for being issued in the wrong
// lifecycle state (forking after Join, joining twice, and so on) —
// these are programmer errors, not expected runtime conditions.
// It must be called before the first Fork/Join/Close to take effect
// for every subsequent call.
func (l *lifecycle) SetLogger(log scopelog.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = log
}

func (l *lifecycle) requireOpen(op string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != stateOpen {
		err := &scopeerr.InvalidScopeState{Op: op, State: l.state.String()}
		if l.log != nil {
			l.log.Warn("structured_scope_invalid_state", "op", op, "state", l.state.String())
		}
		return err
	}
	return nil
}

func (l *lifecycle) transition(op string, from, to state) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != from {
		err := &scopeerr.InvalidScopeState{Op: op, State: l.state.String()}
		if l.log != nil {
			l.log.Warn("structured_scope_invalid_state", "op", op, "state", l.state.String())
		}
		return err
	}
	l.state = to
	return nil
}

// closeAny moves the scope to stateClosed from whatever state it was
// in, never failing: close is guaranteed-release cleanup and must work
// whether or not Join ever ran. It reports the state the scope was in
// before closing, so a caller can skip redundant cancellation work if
// the scope was already closed.
func (l *lifecycle) closeAny() state {
	l.mu.Lock()
	defer l.mu.Unlock()
	prior := l.state
	l.state = stateClosed
	return prior
}

// captureFork snapshots ctx's scoped bindings and transmitter state so
// a subtask forked from ctx can be restored onto whatever goroutine
// actually runs it.
func captureFork(ctx context.Context, opts []carrier.Option) (*carrier.Carrier, error) {
	return carrier.Capture(ctx, opts...)
}
