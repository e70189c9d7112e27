// Package carrier implements the snapshot/restore protocol that lets a
// submitting goroutine freeze its ambient bindings and foreign
// transmitter state into an immutable Carrier, and have a worker
// goroutine re-establish that exact ambient state around a task.
package carrier

import (
	"context"
	"errors"
	"time"

	"github.com/jeeves-cluster-organization/scopeprop/observability"
	"github.com/jeeves-cluster-organization/scopeprop/scope"
	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
	"github.com/jeeves-cluster-organization/scopeprop/scopelog"
	"github.com/jeeves-cluster-organization/scopeprop/transmitter"
)

// Carrier is an immutable snapshot of the bindings and transmitter
// state that were active at the moment Capture ran. It holds no
// reference that mutates after capture; it is safe to Restore
// concurrently on many workers.
type Carrier struct {
	bindings     []scope.Binding
	transmitters []transmitterSnapshot
	log          scopelog.Logger
}

type transmitterSnapshot struct {
	t        transmitter.Transmitter
	snapshot any
}

var empty = &Carrier{}

// Empty returns the sentinel carrier with nothing to restore. Restore
// on it is a valid no-op wrapper around task.
func Empty() *Carrier { return empty }

// options configures Capture.
type options struct {
	registry     *scope.Registry
	transmitters []transmitter.Transmitter
	log          scopelog.Logger
}

// Option customizes a Capture call.
type Option func(*options)

// WithRegistry captures bindings from reg instead of
// scope.DefaultRegistry(). Intended for test isolation.
func WithRegistry(reg *scope.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithTransmitters captures the given transmitters instead of the
// process-wide transmitter registry's current snapshot. Intended for
// test isolation.
func WithTransmitters(ts []transmitter.Transmitter) Option {
	return func(o *options) { o.transmitters = ts }
}

// WithLogger attaches a scopelog.Logger that receives a warning for
// every transmitter failure a Restore encounters. Without one,
// failures are still reported through Restore's returned error, just
// not logged.
func WithLogger(log scopelog.Logger) Option {
	return func(o *options) { o.log = log }
}

// Capture freezes every registered, currently-bound key and every
// transmitter that returns a non-nil snapshot, in their respective
// traversal orders. Transmitter capture errors are collected and
// returned alongside a still-usable Carrier (partial capture is
// preferable to dropping an entire submission).
func Capture(ctx context.Context, opts ...Option) (*Carrier, error) {
	start := time.Now()
	cfg := &options{registry: scope.DefaultRegistry(), transmitters: transmitter.Registered()}
	for _, o := range opts {
		o(cfg)
	}

	bindings := scope.CaptureAll(ctx, cfg.registry)

	var snaps []transmitterSnapshot
	var captureErr error
	for _, tr := range cfg.transmitters {
		snap, err := tr.Capture(ctx)
		if err != nil {
			captureErr = errors.Join(captureErr, &scopeerr.TransmitterFailure{Name: tr.Name(), Op: "capture", Cause: err})
			observability.ObserveTransmitterFailure(tr.Name(), "capture")
			continue
		}
		if snap == nil {
			continue
		}
		snaps = append(snaps, transmitterSnapshot{t: tr, snapshot: snap})
	}

	outcome := "ok"
	if captureErr != nil {
		outcome = "partial_failure"
	}
	observability.ObserveCapture(outcome, time.Since(start))

	if len(bindings) == 0 && len(snaps) == 0 && cfg.log == nil {
		return empty, captureErr
	}
	return &Carrier{bindings: bindings, transmitters: snaps, log: cfg.log}, captureErr
}

// Restore re-establishes c's bindings as a single atomic frame, then
// replays each transmitter in capture order (collecting its backup),
// runs task, and tears every transmitter down in reverse order no
// matter how task returns — including a panic, which propagates
// unchanged once teardown has run. Teardown failures are attached to
// task's error (or to each other) via errors.Join rather than
// swallowed.
func (c *Carrier) Restore(ctx context.Context, task func(context.Context) error) error {
	if task == nil {
		return &scopeerr.Precondition{Arg: "task", Reason: "must not be nil"}
	}
	return scope.BindAll(ctx, c.bindings, func(bctx context.Context) error {
		return c.runTransmitters(bctx, task)
	})
}

type replayedTransmitter struct {
	t      transmitter.Transmitter
	backup any
}

func (c *Carrier) runTransmitters(ctx context.Context, task func(context.Context) error) error {
	start := time.Now()
	workCtx := ctx
	var replayErr error
	stack := make([]replayedTransmitter, 0, len(c.transmitters))
	for _, ts := range c.transmitters {
		newCtx, backup, err := ts.t.Replay(workCtx, ts.snapshot)
		if err != nil {
			replayErr = errors.Join(replayErr, &scopeerr.TransmitterFailure{Name: ts.t.Name(), Op: "replay", Cause: err})
			observability.ObserveTransmitterFailure(ts.t.Name(), "replay")
			if c.log != nil {
				c.log.Warn("transmitter_replay_failed", "transmitter", ts.t.Name(), "error", err.Error())
			}
			continue
		}
		workCtx = newCtx
		stack = append(stack, replayedTransmitter{t: ts.t, backup: backup})
	}

	var taskErr error
	var panicVal any
	func() {
		defer func() {
			panicVal = recover()
		}()
		taskErr = task(workCtx)
	}()

	var teardownErr error
	for i := len(stack) - 1; i >= 0; i-- {
		r := stack[i]
		if _, err := r.t.Restore(workCtx, r.backup); err != nil {
			tf := &scopeerr.TransmitterFailure{Name: r.t.Name(), Op: "restore", Cause: err}
			teardownErr = errors.Join(teardownErr, tf)
			observability.ObserveTransmitterFailure(r.t.Name(), "restore")
			if c.log != nil {
				c.log.Warn("transmitter_teardown_failed", "transmitter", r.t.Name(), "error", err.Error())
			}
		}
	}

	if panicVal != nil {
		observability.ObserveRestore("panic", time.Since(start))
		// Teardown already ran above; re-raise so the caller sees the
		// original panic unchanged, per the restore protocol's
		// guaranteed-release-then-propagate contract.
		panic(panicVal)
	}

	joined := errors.Join(replayErr, taskErr, teardownErr)
	outcome := "ok"
	switch {
	case replayErr != nil || teardownErr != nil:
		outcome = "transmitter_failure"
	case taskErr != nil:
		outcome = "task_error"
	}
	observability.ObserveRestore(outcome, time.Since(start))
	return joined
}
