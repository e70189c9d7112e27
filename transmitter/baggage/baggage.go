// Package baggage adapts go.opentelemetry.io/otel/baggage into the
// transmitter SPI, so that W3C baggage members set on a submitting
// goroutine's context ride along with its Carrier onto whichever
// worker goroutine ends up running the task.
package baggage

import (
	"context"

	otelbaggage "go.opentelemetry.io/otel/baggage"

	"github.com/jeeves-cluster-organization/scopeprop/transmitter"
)

const name = "otel-baggage"

type baggageTransmitter struct{}

func init() {
	transmitter.Register(New())
}

// New returns the otel baggage Transmitter. It is registered under
// the default transmitter registry by this package's init, so hosts
// that import it for side effects get baggage propagation for free.
func New() transmitter.Transmitter { return baggageTransmitter{} }

func (baggageTransmitter) Name() string { return name }

// Capture returns the otel baggage attached to ctx, or a nil snapshot
// if ctx carries none.
func (baggageTransmitter) Capture(ctx context.Context) (any, error) {
	b := otelbaggage.FromContext(ctx)
	if b.Len() == 0 {
		return nil, nil
	}
	return b, nil
}

// Replay installs snapshot's baggage onto the worker's context,
// backing up whatever baggage (possibly none) was there before.
func (baggageTransmitter) Replay(ctx context.Context, snapshot any) (context.Context, any, error) {
	b, ok := snapshot.(otelbaggage.Baggage)
	if !ok {
		return ctx, otelbaggage.FromContext(ctx), nil
	}
	backup := otelbaggage.FromContext(ctx)
	return otelbaggage.ContextWithBaggage(ctx, b), backup, nil
}

// Restore reinstalls the backed-up baggage, including the
// zero-value-baggage case when the worker had none before replay.
func (baggageTransmitter) Restore(ctx context.Context, backup any) (context.Context, error) {
	b, _ := backup.(otelbaggage.Baggage)
	return otelbaggage.ContextWithBaggage(ctx, b), nil
}
