package structured

import (
	"context"
	"sync"
	"time"

	"github.com/jeeves-cluster-organization/scopeprop/carrier"
	"github.com/jeeves-cluster-organization/scopeprop/observability"
	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
)

// Handle is a per-subtask result from a PlainScope fork. Unlike
// FailureScope and SuccessScope, a PlainScope applies no policy on
// failure — it is the joiner's job to inspect each Handle after Join
// and decide what a partial failure means for its own caller.
type Handle[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Get returns the subtask's result. Join must have returned first;
// calling Get before that may block indefinitely.
func (h *Handle[T]) Get() (T, error) {
	<-h.done
	return h.val, h.err
}

// PlainScope forks subtasks under no shared policy: no cancellation
// on failure, no racing for a first winner. It exists for callers
// that want structured lifetime (every subtask finishes before Join
// returns) without ShutdownOnFailure's or SuccessScope's opinions
// about what a subtask's outcome means for its siblings. It still owns
// a cancellable context, the same way SuccessScope does, purely so
// Close can release any subtask forked but never joined.
type PlainScope struct {
	lifecycle
	joinerCtx   context.Context
	scopeCtx    context.Context
	cancel      context.CancelFunc
	carrierOpts []carrier.Option
	wg          sync.WaitGroup
}

// OpenPlainScope opens a PlainScope rooted at ctx.
func OpenPlainScope(ctx context.Context, opts ...carrier.Option) *PlainScope {
	scopeCtx, cancel := context.WithCancel(ctx)
	return &PlainScope{joinerCtx: ctx, scopeCtx: scopeCtx, cancel: cancel, carrierOpts: opts}
}

// ForkPlain captures the joiner's current scoped bindings and
// transmitter state and runs task on a new goroutine, returning a
// Handle the joiner can Get after Join. Methods cannot be generic in
// Go, so this is a free function taking the scope rather than
// PlainScope.Fork.
func ForkPlain[T any](s *PlainScope, task func(context.Context) (T, error)) (*Handle[T], error) {
	if err := s.requireOpen("Fork"); err != nil {
		return nil, err
	}
	c, captureErr := captureFork(s.joinerCtx, s.carrierOpts)
	if captureErr != nil {
		return nil, captureErr
	}

	observability.ObserveFork("plain")
	h := &Handle[T]{done: make(chan struct{})}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = c.Restore(s.scopeCtx, func(taskCtx context.Context) error {
			h.val, h.err = task(taskCtx)
			return nil
		})
		close(h.done)
	}()
	return h, nil
}

// Join waits for every forked subtask to finish. It may be called
// only once; it never itself fails on a subtask's error — inspect
// each Handle for that.
func (s *PlainScope) Join() error {
	if err := s.transition("Join", stateOpen, stateJoined); err != nil {
		return err
	}
	start := time.Now()
	s.wg.Wait()
	observability.ObserveJoin("plain", time.Since(start))
	return nil
}

// JoinTimeout is Join bounded by timeout. If the deadline elapses
// before every subtask finishes, outstanding subtasks are cancelled,
// the scope is closed, and JoinTimeout returns *scopeerr.Timeout
// instead of waiting further — any Handle still unresolved at that
// point resolves only once its subtask returns.
func (s *PlainScope) JoinTimeout(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- s.Join() }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = s.Close()
		return &scopeerr.Timeout{Op: "structured.PlainScope.JoinTimeout", After: timeout}
	}
}

// Close cancels any subtask still running and moves the scope to
// closed, whatever state it was in — a PlainScope closed before Join
// ever ran must not leak its forked subtasks.
func (s *PlainScope) Close() error {
	s.cancel()
	s.closeAny()
	return nil
}
