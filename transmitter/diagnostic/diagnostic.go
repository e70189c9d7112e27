// Package diagnostic implements an MDC-style (mapped diagnostic
// context) transmitter: a small string-keyed map that a submitting
// goroutine accumulates with WithField/WithFields, and that rides
// along with a Carrier so a worker's log lines carry the same fields
// the submitter would have logged with.
package diagnostic

import (
	"context"
	"maps"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jeeves-cluster-organization/scopeprop/transmitter"
)

const name = "diagnostic-context"

// Fields is an MDC snapshot. Values are copied, never aliased, by
// WithField/WithFields and by the transmitter's capture step.
type Fields map[string]any

type fieldsCtxKey struct{}

var ctxKey = fieldsCtxKey{}

// FromContext returns the Fields accumulated on ctx, or an empty map
// if none have been set. The returned map must not be mutated; use
// WithField/WithFields to derive a new context instead.
func FromContext(ctx context.Context) Fields {
	f, _ := ctx.Value(ctxKey).(Fields)
	if f == nil {
		return Fields{}
	}
	return f
}

// WithField returns a context with key=value added to the current
// diagnostic fields.
func WithField(ctx context.Context, key string, value any) context.Context {
	return WithFields(ctx, Fields{key: value})
}

// WithFields returns a context with add merged over the current
// diagnostic fields. Keys in add take precedence over existing ones.
func WithFields(ctx context.Context, add Fields) context.Context {
	merged := make(Fields, len(FromContext(ctx))+len(add))
	maps.Copy(merged, FromContext(ctx))
	maps.Copy(merged, add)
	return context.WithValue(ctx, ctxKey, merged)
}

// Logger returns a logrus.Entry pre-populated with ctx's diagnostic
// fields, suitable for a call site that wants its log line to carry
// whatever the ambient MDC holds.
func Logger(ctx context.Context) *logrus.Entry {
	return logrus.WithFields(logrus.Fields(FromContext(ctx)))
}

// requestIDField is the conventional key EnsureRequestID uses.
const requestIDField = "request_id"

// EnsureRequestID returns ctx unchanged if it already carries a
// request_id diagnostic field, or a context with a freshly generated
// UUID request_id attached otherwise. Callers at a boundary (an RPC
// handler, a queue consumer) use this so every log line downstream,
// including lines a worker pool task emits after a Carrier restore,
// shares one correlation ID for the request.
func EnsureRequestID(ctx context.Context) context.Context {
	if _, ok := FromContext(ctx)[requestIDField]; ok {
		return ctx
	}
	return WithField(ctx, requestIDField, uuid.NewString())
}

type diagnosticTransmitter struct{}

func init() {
	transmitter.Register(New())
}

// New returns the diagnostic-context Transmitter. It self-registers
// under the default transmitter registry by this package's init.
func New() transmitter.Transmitter { return diagnosticTransmitter{} }

func (diagnosticTransmitter) Name() string { return name }

// Capture returns the submitter's current Fields, or a nil snapshot
// if nothing has been set.
func (diagnosticTransmitter) Capture(ctx context.Context) (any, error) {
	f := FromContext(ctx)
	if len(f) == 0 {
		return nil, nil
	}
	return maps.Clone(f), nil
}

// Replay installs snapshot as the worker's diagnostic fields,
// overwriting rather than merging, and backs up whatever fields the
// worker had before — including "none".
func (diagnosticTransmitter) Replay(ctx context.Context, snapshot any) (context.Context, any, error) {
	f, ok := snapshot.(Fields)
	if !ok {
		return ctx, FromContext(ctx), nil
	}
	backup := FromContext(ctx)
	return context.WithValue(ctx, ctxKey, f), backup, nil
}

// Restore reinstalls the backed-up fields.
func (diagnosticTransmitter) Restore(ctx context.Context, backup any) (context.Context, error) {
	f, _ := backup.(Fields)
	return context.WithValue(ctx, ctxKey, f), nil
}
