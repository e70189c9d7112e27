// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for scopeprop's own components: capture/restore, structured
// scope fork/join, and transmitter failures.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	captureTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopeprop_carrier_captures_total",
			Help: "Total number of Carrier.Capture calls, by outcome",
		},
		[]string{"outcome"}, // ok, partial_failure
	)

	captureDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scopeprop_carrier_capture_duration_seconds",
			Help:    "Carrier.Capture duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	restoreTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopeprop_carrier_restores_total",
			Help: "Total number of Carrier.Restore calls, by outcome",
		},
		[]string{"outcome"}, // ok, task_error, transmitter_failure, panic
	)

	restoreDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scopeprop_carrier_restore_duration_seconds",
			Help:    "Carrier.Restore duration in seconds, including the task body",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
	)

	transmitterFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopeprop_transmitter_failures_total",
			Help: "Total number of Transmitter capture/replay/restore failures",
		},
		[]string{"transmitter", "op"},
	)

	scopeForksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scopeprop_structured_forks_total",
			Help: "Total number of subtasks forked into a structured scope",
		},
		[]string{"scope_kind"}, // failure, success, plain
	)

	scopeJoinDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scopeprop_structured_join_duration_seconds",
			Help:    "Time spent blocked in a structured scope's Join",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 60},
		},
		[]string{"scope_kind"},
	)
)

// ObserveCapture records the outcome and duration of a Carrier.Capture
// call.
func ObserveCapture(outcome string, d time.Duration) {
	captureTotal.WithLabelValues(outcome).Inc()
	captureDurationSeconds.Observe(d.Seconds())
}

// ObserveRestore records the outcome and duration of a Carrier.Restore
// call.
func ObserveRestore(outcome string, d time.Duration) {
	restoreTotal.WithLabelValues(outcome).Inc()
	restoreDurationSeconds.Observe(d.Seconds())
}

// ObserveTransmitterFailure records one capture/replay/restore
// failure for the named transmitter.
func ObserveTransmitterFailure(transmitterName, op string) {
	transmitterFailuresTotal.WithLabelValues(transmitterName, op).Inc()
}

// ObserveFork records one subtask forked into a structured scope of
// the given kind ("failure", "success", or "plain").
func ObserveFork(scopeKind string) {
	scopeForksTotal.WithLabelValues(scopeKind).Inc()
}

// ObserveJoin records how long a structured scope's Join blocked.
func ObserveJoin(scopeKind string, d time.Duration) {
	scopeJoinDurationSeconds.WithLabelValues(scopeKind).Observe(d.Seconds())
}
