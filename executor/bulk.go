package executor

import (
	"context"
	"errors"
	"time"

	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
)

// Submit is SupplyAsync under the name ExecutorService.Submit uses in
// the model this package ports: a single task dispatched onto pool
// with the submitter's scoped bindings and transmitter state captured
// and restored around it.
func Submit[T any](ctx context.Context, pool Pool, task func(context.Context) (T, error)) *Future[T] {
	return SupplyAsync(ctx, pool, task)
}

// InvokeAll submits every task to pool and waits for all of them to
// finish, returning each result in task order. A failing task does
// not cancel its siblings — every task runs to completion and the
// first failure is reported wrapped in *scopeerr.ExecutionFailure,
// matching ExecutorService.invokeAll's run-them-all semantics rather
// than the fail-fast policy structured.FailureScope applies.
func InvokeAll[T any](ctx context.Context, pool Pool, tasks []func(context.Context) (T, error)) ([]T, error) {
	pool = Wrap(pool)
	futs := make([]*Future[T], len(tasks))
	for i, task := range tasks {
		futs[i] = SupplyAsync(ctx, pool, task)
	}

	results := make([]T, len(tasks))
	var firstErr error
	for i, fut := range futs {
		v, err := fut.Get(ctx)
		results[i] = v
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return results, &scopeerr.ExecutionFailure{Cause: firstErr}
	}
	return results, nil
}

// InvokeAllWithTimeout is InvokeAll bounded by timeout. A deadline
// that elapses before every task finishes is reported as
// *scopeerr.Timeout rather than the underlying context error.
func InvokeAllWithTimeout[T any](ctx context.Context, pool Pool, timeout time.Duration, tasks []func(context.Context) (T, error)) ([]T, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := InvokeAll(tctx, pool, tasks)
	if err != nil && tctx.Err() == context.DeadlineExceeded {
		return results, &scopeerr.Timeout{Op: "executor.InvokeAllWithTimeout", After: timeout}
	}
	return results, err
}

// InvokeAny submits every task to pool and returns the first success.
// Once one task succeeds, the others are signalled to stop via a
// context derived from the context each one actually executes under
// (the submitter's restored context, not the pool's fixed worker
// context, which WorkerPool never cancels on Execute's ctx) — the same
// first-success-wins-then-cancel shape structured.SuccessScope uses,
// adapted to run through a Pool's bounded concurrency instead of a
// goroutine-per-fork. If every task fails, the joined causes are
// returned wrapped in *scopeerr.ExecutionFailure.
func InvokeAny[T any](ctx context.Context, pool Pool, tasks []func(context.Context) (T, error)) (T, error) {
	var zero T
	if len(tasks) == 0 {
		return zero, &scopeerr.Precondition{Arg: "tasks", Reason: "must not be empty"}
	}

	pool = Wrap(pool)
	raceCtx, cancelRace := context.WithCancel(ctx)
	defer cancelRace()

	type outcome struct {
		val T
		err error
	}
	results := make(chan outcome, len(tasks))

	for _, task := range tasks {
		task := task
		raced := func(execCtx context.Context) (T, error) {
			childCtx, cancelChild := context.WithCancel(execCtx)
			defer cancelChild()
			stop := make(chan struct{})
			defer close(stop)
			go func() {
				select {
				case <-raceCtx.Done():
					cancelChild()
				case <-stop:
				}
			}()
			return task(childCtx)
		}
		fut := SupplyAsync(ctx, pool, raced)
		go func() {
			v, err := fut.Get(ctx)
			results <- outcome{val: v, err: err}
		}()
	}

	var errs []error
	for i := 0; i < len(tasks); i++ {
		o := <-results
		if o.err == nil {
			cancelRace()
			return o.val, nil
		}
		errs = append(errs, o.err)
	}
	return zero, &scopeerr.ExecutionFailure{Cause: errors.Join(errs...)}
}

// InvokeAnyWithTimeout is InvokeAny bounded by timeout.
func InvokeAnyWithTimeout[T any](ctx context.Context, pool Pool, timeout time.Duration, tasks []func(context.Context) (T, error)) (T, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := InvokeAny(tctx, pool, tasks)
	if err != nil && tctx.Err() == context.DeadlineExceeded {
		var zero T
		return zero, &scopeerr.Timeout{Op: "executor.InvokeAnyWithTimeout", After: timeout}
	}
	return v, err
}
