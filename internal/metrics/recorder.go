package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// DocumentLabel names a point in the pipeline where documents are counted.
type DocumentLabel string

const (
	DocumentsLoaded    DocumentLabel = "loaded"
	DocumentsSkipped   DocumentLabel = "skipped"
	DocumentsPublished DocumentLabel = "published"
	DocumentsDrafts    DocumentLabel = "draft"
)

// Recorder defines observability hooks for build and stage metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	AddDocuments(label DocumentLabel, n int)
	IncWarning(stage string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) AddDocuments(DocumentLabel, int)            {}
func (NoopRecorder) IncWarning(string)                          {}
