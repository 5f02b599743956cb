// Package metrics provides observability hooks for doxbuilder builds.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection is optional and carries no overhead
// when disabled. The daemon swaps in PrometheusRecorder when its HTTP
// listener is configured.
package metrics

import "time"

// ResultLabel enumerates generation result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailure  ResultLabel = "failure"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for build and generation metrics.
// Implementations must tolerate concurrent use.
type Recorder interface {
	ObserveGenerateDuration(format string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncGenerateResult(format string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|failed|canceled
	IncWatchEvent()
	SetQueueDepth(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveGenerateDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) IncGenerateResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                        {}
func (NoopRecorder) IncWatchEvent()                                {}
func (NoopRecorder) SetQueueDepth(int)                             {}
