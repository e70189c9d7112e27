package structured

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jeeves-cluster-organization/scopeprop/carrier"
	"github.com/jeeves-cluster-organization/scopeprop/observability"
	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
)

// FailureScope forks subtasks that all succeed or none do: the first
// subtask to return a non-nil error cancels the scope's context,
// signalling every other subtask to stop, and Join surfaces that
// first error. It is a thin structured-concurrency wrapper over
// errgroup.Group, whose cancel-on-first-error semantics already match
// this policy exactly. errgroup.WithContext does not expose the cancel
// function it derives internally, so the scope wraps ctx with its own
// context.WithCancel first and hands errgroup that — giving Close a
// cancel it can call unconditionally, independent of whether any
// subtask has failed or Join has even run yet.
type FailureScope struct {
	lifecycle
	grp         *errgroup.Group
	scopeCtx    context.Context
	joinerCtx   context.Context
	cancel      context.CancelFunc
	carrierOpts []carrier.Option
}

// OpenFailureScope opens a FailureScope rooted at ctx. The returned
// context is cancelled the moment any forked subtask fails, or Close
// runs.
func OpenFailureScope(ctx context.Context, opts ...carrier.Option) (*FailureScope, context.Context) {
	cancelable, cancel := context.WithCancel(ctx)
	grp, scopeCtx := errgroup.WithContext(cancelable)
	return &FailureScope{grp: grp, scopeCtx: scopeCtx, joinerCtx: ctx, cancel: cancel, carrierOpts: opts}, scopeCtx
}

// Fork captures the joiner's current scoped bindings and transmitter
// state and schedules task to run with them restored, on a new
// goroutine, under the scope's cancellable context. Fork itself runs
// on the joiner's goroutine, so the Carrier it captures reflects
// whatever bindings are active at the call site — call Fork from
// inside a Bind body to carry that binding into the subtask.
func (s *FailureScope) Fork(task func(context.Context) error) error {
	if err := s.requireOpen("Fork"); err != nil {
		return err
	}
	c, captureErr := captureFork(s.joinerCtx, s.carrierOpts)
	if captureErr != nil {
		return captureErr
	}
	observability.ObserveFork("failure")
	s.grp.Go(func() error {
		return c.Restore(s.scopeCtx, task)
	})
	return nil
}

// Join waits for every forked subtask to finish and returns the first
// non-nil error, if any. It may be called only once.
func (s *FailureScope) Join() error {
	if err := s.transition("Join", stateOpen, stateJoined); err != nil {
		return err
	}
	start := time.Now()
	defer func() { observability.ObserveJoin("failure", time.Since(start)) }()
	return s.grp.Wait()
}

// JoinTimeout is Join bounded by timeout. If the deadline elapses
// before every subtask finishes, outstanding subtasks are cancelled,
// the scope is closed, and JoinTimeout returns *scopeerr.Timeout
// instead of waiting further.
func (s *FailureScope) JoinTimeout(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- s.Join() }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = s.Close()
		return &scopeerr.Timeout{Op: "structured.FailureScope.JoinTimeout", After: timeout}
	}
}

// Close cancels any subtask still running and moves the scope to
// closed, whatever state it was in — a live FailureScope closed before
// Join ever ran must not leak its forked subtasks.
func (s *FailureScope) Close() error {
	s.cancel()
	s.closeAny()
	return nil
}
