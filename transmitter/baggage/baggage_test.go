package baggage_test

import (
	"context"
	"testing"

	otelbaggage "go.opentelemetry.io/otel/baggage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeeves-cluster-organization/scopeprop/transmitter/baggage"
)

func newBaggage(t *testing.T, kv ...string) otelbaggage.Baggage {
	t.Helper()
	var members []otelbaggage.Member
	for i := 0; i+1 < len(kv); i += 2 {
		m, err := otelbaggage.NewMember(kv[i], kv[i+1])
		require.NoError(t, err)
		members = append(members, m)
	}
	b, err := otelbaggage.New(members...)
	require.NoError(t, err)
	return b
}

func TestBaggageTransmitter_CaptureNilWhenEmpty(t *testing.T) {
	tr := baggage.New()
	snap, err := tr.Capture(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestBaggageTransmitter_RoundTrip(t *testing.T) {
	tr := baggage.New()
	b := newBaggage(t, "tenant", "acme")
	ctx := otelbaggage.ContextWithBaggage(context.Background(), b)

	snap, err := tr.Capture(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)

	workerCtx := context.Background()
	newCtx, backup, err := tr.Replay(workerCtx, snap)
	require.NoError(t, err)
	assert.Equal(t, "acme", otelbaggage.FromContext(newCtx).Member("tenant").Value())

	restoredCtx, err := tr.Restore(newCtx, backup)
	require.NoError(t, err)
	assert.Equal(t, 0, otelbaggage.FromContext(restoredCtx).Len())
}

func TestBaggageTransmitter_RestoreReinstatesWorkerPriorBaggage(t *testing.T) {
	tr := baggage.New()
	workerBaggage := newBaggage(t, "worker-scoped", "1")
	workerCtx := otelbaggage.ContextWithBaggage(context.Background(), workerBaggage)

	submitterBaggage := newBaggage(t, "tenant", "acme")
	snap, err := tr.Capture(otelbaggage.ContextWithBaggage(context.Background(), submitterBaggage))
	require.NoError(t, err)

	replayedCtx, backup, err := tr.Replay(workerCtx, snap)
	require.NoError(t, err)
	assert.Equal(t, "acme", otelbaggage.FromContext(replayedCtx).Member("tenant").Value())

	restoredCtx, err := tr.Restore(replayedCtx, backup)
	require.NoError(t, err)
	assert.Equal(t, "1", otelbaggage.FromContext(restoredCtx).Member("worker-scoped").Value())
}
