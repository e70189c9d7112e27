package executor

import (
	"context"

	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
)

// Future is a single-assignment handle to the result of a task
// dispatched onto a Pool. It is deliberately minimal: no Then, no
// combinators. Chaining a continuation onto a Future the way
// JavaScript or Java's CompletableFuture does would silently run that
// continuation without ever re-capturing the scoped bindings or
// transmitter state of whoever called Then — exactly the kind of
// invisible context loss this package exists to prevent. Call Get,
// act on the result under your own ambient bindings, and if you need
// to dispatch again, capture and submit explicitly.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Get blocks until the task completes or ctx is done, whichever comes
// first.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, &scopeerr.Interrupted{Cause: ctx.Err()}
	}
}

// Done reports whether the task has completed, without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// SupplyAsync is the task-level wrap(supplier) primitive: it captures
// ctx's scoped bindings and transmitter state itself and schedules fn
// to run with them restored, regardless of whether pool was built with
// Wrap. It does this by wrapping pool before submitting — Wrap is
// idempotent, so wrapping an already-wrapped pool is a cheap no-op and
// callers that pre-wrap with custom carrier.Option values keep exactly
// the behavior they asked for.
func SupplyAsync[T any](ctx context.Context, pool Pool, fn func(context.Context) (T, error)) *Future[T] {
	pool = Wrap(pool)
	fut := newFuture[T]()
	err := pool.Execute(ctx, func(workerCtx context.Context) {
		v, ferr := fn(workerCtx)
		fut.complete(v, ferr)
	})
	if err != nil {
		var zero T
		fut.complete(zero, err)
	}
	return fut
}

// RunAsync is SupplyAsync for tasks with no result value.
func RunAsync(ctx context.Context, pool Pool, fn func(context.Context) error) *Future[struct{}] {
	return SupplyAsync(ctx, pool, func(wctx context.Context) (struct{}, error) {
		return struct{}{}, fn(wctx)
	})
}
