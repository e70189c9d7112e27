package structured

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jeeves-cluster-organization/scopeprop/carrier"
	"github.com/jeeves-cluster-organization/scopeprop/observability"
	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
)

// SuccessScope forks subtasks racing for the first success: as soon as
// one returns a nil error, the scope's context is cancelled so the
// rest can stop, and Join yields that first value. If every subtask
// fails, Join returns an *scopeerr.ExecutionFailure joining their
// causes. There is no errgroup equivalent for first-success-wins, so
// this is hand-rolled around a sync.Once guarding the winning result.
type SuccessScope[T any] struct {
	lifecycle
	joinerCtx   context.Context
	scopeCtx    context.Context
	cancel      context.CancelFunc
	carrierOpts []carrier.Option
	wg          sync.WaitGroup
	once        sync.Once

	mu        sync.Mutex
	result    T
	hasResult bool
	errs      []error
}

// OpenSuccessScope opens a SuccessScope rooted at ctx. The returned
// context is cancelled as soon as one forked subtask succeeds.
func OpenSuccessScope[T any](ctx context.Context, opts ...carrier.Option) (*SuccessScope[T], context.Context) {
	scopeCtx, cancel := context.WithCancel(ctx)
	return &SuccessScope[T]{joinerCtx: ctx, scopeCtx: scopeCtx, cancel: cancel, carrierOpts: opts}, scopeCtx
}

// Fork captures the joiner's current scoped bindings and transmitter
// state and races task against the scope's other subtasks.
func (s *SuccessScope[T]) Fork(task func(context.Context) (T, error)) error {
	if err := s.requireOpen("Fork"); err != nil {
		return err
	}
	c, captureErr := captureFork(s.joinerCtx, s.carrierOpts)
	if captureErr != nil {
		return captureErr
	}
	observability.ObserveFork("success")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = c.Restore(s.scopeCtx, func(taskCtx context.Context) error {
			v, terr := task(taskCtx)
			if terr != nil {
				s.mu.Lock()
				s.errs = append(s.errs, terr)
				s.mu.Unlock()
				return nil
			}
			s.once.Do(func() {
				s.mu.Lock()
				s.result = v
				s.hasResult = true
				s.mu.Unlock()
				s.cancel()
			})
			return nil
		})
	}()
	return nil
}

// Join waits for every forked subtask to finish (once one has won, the
// rest have been signalled to stop through the scope's context) and
// returns the winner's value, or an *scopeerr.ExecutionFailure if none
// succeeded. It may be called only once.
func (s *SuccessScope[T]) Join() (T, error) {
	var zero T
	if err := s.transition("Join", stateOpen, stateJoined); err != nil {
		return zero, err
	}
	start := time.Now()
	s.wg.Wait()
	observability.ObserveJoin("success", time.Since(start))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasResult {
		return s.result, nil
	}
	if len(s.errs) > 0 {
		return zero, &scopeerr.ExecutionFailure{Cause: errors.Join(s.errs...)}
	}
	return zero, &scopeerr.ExecutionFailure{Cause: errors.New("no subtasks were forked")}
}

// JoinTimeout is Join bounded by timeout. If the deadline elapses
// before Join returns, outstanding subtasks are cancelled, the
// scope is closed, and JoinTimeout returns *scopeerr.Timeout instead
// of the result Join would have produced.
func (s *SuccessScope[T]) JoinTimeout(timeout time.Duration) (T, error) {
	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := s.Join()
		done <- outcome{val: v, err: err}
	}()
	select {
	case o := <-done:
		return o.val, o.err
	case <-time.After(timeout):
		_ = s.Close()
		var zero T
		return zero, &scopeerr.Timeout{Op: "structured.SuccessScope.JoinTimeout", After: timeout}
	}
}

// Close cancels the scope's context, releasing any subtask still
// blocked on it, and moves the scope to closed, whatever state it was
// in.
func (s *SuccessScope[T]) Close() error {
	s.cancel()
	s.closeAny()
	return nil
}
