package structured

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jeeves-cluster-organization/scopeprop/carrier"
	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
)

// InvokeAll runs every task to completion under ShutdownOnFailure
// policy: the first failure cancels the rest, and InvokeAll returns
// that failure wrapped in *scopeerr.ExecutionFailure. On success it
// returns each task's result in task order.
func InvokeAll[T any](ctx context.Context, tasks []func(context.Context) (T, error), opts ...carrier.Option) ([]T, error) {
	results := make([]T, len(tasks))
	grp, gctx := errgroup.WithContext(ctx)

	for i, task := range tasks {
		i, task := i, task
		c, err := captureFork(ctx, opts)
		if err != nil {
			return nil, err
		}
		grp.Go(func() error {
			return c.Restore(gctx, func(taskCtx context.Context) error {
				v, terr := task(taskCtx)
				if terr != nil {
					return terr
				}
				results[i] = v
				return nil
			})
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, &scopeerr.ExecutionFailure{Cause: err}
	}
	return results, nil
}

// InvokeAllWithTimeout is InvokeAll bounded by timeout. A deadline
// that elapses before every task finishes is reported as
// *scopeerr.Timeout rather than the underlying context error.
func InvokeAllWithTimeout[T any](ctx context.Context, timeout time.Duration, tasks []func(context.Context) (T, error), opts ...carrier.Option) ([]T, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := InvokeAll(tctx, tasks, opts...)
	if err != nil && tctx.Err() == context.DeadlineExceeded {
		return nil, &scopeerr.Timeout{Op: "structured.InvokeAllWithTimeout", After: timeout}
	}
	return results, err
}

// InvokeAny races every task and returns the first success, the way
// SuccessScope does. If every task fails, it returns the joined
// causes wrapped in *scopeerr.ExecutionFailure.
func InvokeAny[T any](ctx context.Context, tasks []func(context.Context) (T, error), opts ...carrier.Option) (T, error) {
	scope, _ := OpenSuccessScope[T](ctx, opts...)
	for _, task := range tasks {
		if err := scope.Fork(task); err != nil {
			var zero T
			_ = scope.Close()
			return zero, err
		}
	}
	v, err := scope.Join()
	_ = scope.Close()
	return v, err
}

// InvokeAnyWithTimeout is InvokeAny bounded by timeout.
func InvokeAnyWithTimeout[T any](ctx context.Context, timeout time.Duration, tasks []func(context.Context) (T, error), opts ...carrier.Option) (T, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := InvokeAny(tctx, tasks, opts...)
	if err != nil && tctx.Err() == context.DeadlineExceeded {
		var zero T
		return zero, &scopeerr.Timeout{Op: "structured.InvokeAnyWithTimeout", After: timeout}
	}
	return v, err
}

// InvokeAllAndCombine runs InvokeAll and reduces its results with
// combine, for callers that want a single aggregate rather than a
// slice.
func InvokeAllAndCombine[T any, R any](ctx context.Context, tasks []func(context.Context) (T, error), combine func([]T) R, opts ...carrier.Option) (R, error) {
	var zero R
	results, err := InvokeAll(ctx, tasks, opts...)
	if err != nil {
		return zero, err
	}
	return combine(results), nil
}
