package executor

import (
	"context"

	"github.com/jeeves-cluster-organization/scopeprop/carrier"
	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
)

// scopeAware marks a Pool that already captures and restores scoped
// state around every task, so Wrap can be idempotent instead of
// stacking a second, redundant capture around an already-wrapped
// pool.
type scopeAware interface {
	isScopeAware()
}

type scopeAwarePool struct {
	inner Pool
	opts  []carrier.Option
}

func (p *scopeAwarePool) isScopeAware() {}

// Wrap decorates pool so that every task submitted through its
// Execute runs with the submitting goroutine's scoped bindings and
// transmitter state restored around it, rather than whatever ambient
// state the worker goroutine happens to have. Wrapping an
// already-wrapped pool returns it unchanged. Execute is Pool's only
// submission method; the single-task and bulk submission variants — Submit,
// InvokeAll(WithTimeout), InvokeAny(WithTimeout) in bulk.go — are free
// functions built on SupplyAsync, which itself calls Wrap before
// every submission, so they get the same capture/restore guarantee
// without needing their own entries on Pool.
func Wrap(pool Pool, opts ...carrier.Option) Pool {
	if _, already := pool.(scopeAware); already {
		return pool
	}
	return &scopeAwarePool{inner: pool, opts: opts}
}

func (p *scopeAwarePool) Execute(ctx context.Context, task func(context.Context)) error {
	if task == nil {
		return &scopeerr.Precondition{Arg: "task", Reason: "must not be nil"}
	}
	c, captureErr := carrier.Capture(ctx, p.opts...)
	return p.inner.Execute(ctx, func(workerCtx context.Context) {
		_ = c.Restore(workerCtx, func(restoredCtx context.Context) error {
			if captureErr != nil {
				// Partial capture: some transmitter's state did not
				// make it into c, but the bindings that did capture
				// are still worth restoring rather than dropping the
				// task entirely.
				restoredCtx = context.WithValue(restoredCtx, captureErrCtxKey{}, captureErr)
			}
			task(restoredCtx)
			return nil
		})
	})
}

func (p *scopeAwarePool) Close(ctx context.Context) error {
	return p.inner.Close(ctx)
}

type captureErrCtxKey struct{}

// CaptureError returns the transmitter capture error, if any, that
// occurred when the currently-running task was submitted through a
// Wrap-decorated pool. Most tasks can ignore this; it exists for
// callers that want to surface a degraded-propagation warning rather
// than fail silently.
func CaptureError(ctx context.Context) error {
	err, _ := ctx.Value(captureErrCtxKey{}).(error)
	return err
}
