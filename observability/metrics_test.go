package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func histogramSampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	require := assert.New(t)
	require.NoError(h.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestObserveCapture_IncrementsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(captureTotal.WithLabelValues("ok"))
	ObserveCapture("ok", 10*time.Millisecond)
	after := testutil.ToFloat64(captureTotal.WithLabelValues("ok"))
	assert.Equal(t, before+1, after)
}

func TestObserveCapture_RecordsDuration(t *testing.T) {
	before := histogramSampleCount(t, captureDurationSeconds)
	ObserveCapture("partial_failure", 3*time.Millisecond)
	after := histogramSampleCount(t, captureDurationSeconds)
	assert.Equal(t, before+1, after)
}

func TestObserveRestore_IncrementsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(restoreTotal.WithLabelValues("task_error"))
	ObserveRestore("task_error", 5*time.Millisecond)
	after := testutil.ToFloat64(restoreTotal.WithLabelValues("task_error"))
	assert.Equal(t, before+1, after)
}

func TestObserveRestore_RecordsDuration(t *testing.T) {
	before := histogramSampleCount(t, restoreDurationSeconds)
	ObserveRestore("ok", 1*time.Millisecond)
	after := histogramSampleCount(t, restoreDurationSeconds)
	assert.Equal(t, before+1, after)
}

func TestObserveTransmitterFailure_TracksNameAndOp(t *testing.T) {
	before := testutil.ToFloat64(transmitterFailuresTotal.WithLabelValues("otel-baggage", "replay"))
	ObserveTransmitterFailure("otel-baggage", "replay")
	after := testutil.ToFloat64(transmitterFailuresTotal.WithLabelValues("otel-baggage", "replay"))
	assert.Equal(t, before+1, after)
}

func TestObserveFork_TracksScopeKind(t *testing.T) {
	before := testutil.ToFloat64(scopeForksTotal.WithLabelValues("failure"))
	ObserveFork("failure")
	after := testutil.ToFloat64(scopeForksTotal.WithLabelValues("failure"))
	assert.Equal(t, before+1, after)
}

func TestObserveJoin_RecordsDurationPerScopeKind(t *testing.T) {
	obs := scopeJoinDurationSeconds.WithLabelValues("success").(prometheus.Histogram)
	before := histogramSampleCount(t, obs)
	ObserveJoin("success", 20*time.Millisecond)
	after := histogramSampleCount(t, obs)
	assert.Equal(t, before+1, after)
}

func TestMetrics_DifferentLabelsAreIndependent(t *testing.T) {
	ObserveFork("plain")
	before := testutil.ToFloat64(scopeForksTotal.WithLabelValues("failure"))
	ObserveFork("success")
	after := testutil.ToFloat64(scopeForksTotal.WithLabelValues("failure"))
	assert.Equal(t, before, after)
}
