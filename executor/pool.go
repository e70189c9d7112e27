// Package executor provides bounded goroutine pools and a capture-on-
// submit / restore-on-run decorator so that a task dispatched onto a
// worker goroutine runs with the submitting goroutine's scoped
// bindings and transmitter state, not the worker's ambient state.
package executor

import (
	"context"
	"sync"

	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
	"github.com/jeeves-cluster-organization/scopeprop/scopelog"
)

// Pool runs tasks, possibly on a different goroutine than the caller.
// Every method takes ctx explicitly: Go has no ambient goroutine-local
// context, so the context a task should capture from has to be named
// at submission time rather than inferred.
type Pool interface {
	// Execute submits task for execution and returns once it has been
	// accepted (not once it has finished). A non-nil error means task
	// was never scheduled — the pool is full-and-non-blocking, closed,
	// or ctx was already done.
	Execute(ctx context.Context, task func(context.Context)) error

	// Close stops accepting new tasks and waits for in-flight ones to
	// finish.
	Close(ctx context.Context) error
}

// WorkerPool is a bounded pool of goroutines backed by a semaphore
// channel: at most Size tasks run concurrently, and Execute blocks
// until a slot is free or ctx is done.
//
// The context a submitted task actually runs under is the pool's own
// workerCtx, not the ctx passed to Execute: a worker goroutine is a
// long-lived resource that outlives any single Execute call, the same
// way a real thread-pool worker is not part of any one caller's
// call stack. Execute's ctx governs only how long the caller is
// willing to wait for a free slot. This is exactly the gap Wrap
// exists to close — a bare WorkerPool hands every task the pool's
// background context, losing whatever scoped bindings the submitter
// had; Wrap restores them explicitly via a captured Carrier.
type WorkerPool struct {
	workerCtx context.Context
	sem       chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	done      bool
	log       scopelog.Logger
}

// PoolOption customizes a WorkerPool at construction time.
type PoolOption func(*WorkerPool)

// WithPoolLogger attaches a scopelog.Logger that receives a warning
// whenever Close times out waiting for in-flight tasks.
func WithPoolLogger(log scopelog.Logger) PoolOption {
	return func(p *WorkerPool) { p.log = log }
}

// NewWorkerPool returns a WorkerPool that runs at most size tasks
// concurrently; a size below 1 is treated as 1. Tasks run under
// context.Background(), not the caller's Execute context; use
// NewWorkerPoolContext to give workers a different base context, such
// as one tied to a service's shutdown signal.
func NewWorkerPool(size int, opts ...PoolOption) *WorkerPool {
	return NewWorkerPoolContext(context.Background(), size, opts...)
}

// NewWorkerPoolContext is NewWorkerPool with an explicit base context
// for every task the pool runs.
func NewWorkerPoolContext(workerCtx context.Context, size int, opts ...PoolOption) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	p := &WorkerPool{workerCtx: workerCtx, sem: make(chan struct{}, size)}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Execute blocks until a worker slot is available, ctx is done, or the
// pool has been closed, then runs task on a new goroutine under the
// pool's worker context.
func (p *WorkerPool) Execute(ctx context.Context, task func(context.Context)) error {
	if task == nil {
		return &scopeerr.Precondition{Arg: "task", Reason: "must not be nil"}
	}

	p.mu.Lock()
	closed := p.done
	p.mu.Unlock()
	if closed {
		return &scopeerr.Precondition{Arg: "pool", Reason: "closed"}
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return &scopeerr.Interrupted{Cause: ctx.Err()}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		task(p.workerCtx)
	}()
	return nil
}

// Close marks the pool closed to new submissions and waits for every
// already-accepted task to finish, or ctx to expire first.
func (p *WorkerPool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.done = true
	p.mu.Unlock()

	waited := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		if p.log != nil {
			p.log.Warn("worker_pool_close_timed_out", "error", ctx.Err().Error())
		}
		return &scopeerr.Timeout{Op: "executor.Close"}
	}
}
