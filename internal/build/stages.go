package build

import (
	"context"
	"errors"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StageLoad      StageName = "load"
	StageTransform StageName = "transform"
	StageGraph     StageName = "graph"
	StageFeed      StageName = "feed"
	StageRender    StageName = "render"
)

// Stages lists the stages in execution order.
var Stages = []StageName{StageLoad, StageTransform, StageGraph, StageFeed, StageRender}

// StageError records which stage a fatal error came from.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return string(e.Stage) + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// runStage times fn, records its result and wraps a failure in a StageError.
func (r *run) runStage(ctx context.Context, stage StageName, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}

	start := time.Now()
	warningsBefore := len(r.report.Warnings)
	err := fn(ctx)
	d := time.Since(start)

	r.report.StageDurations[stage] = d
	r.recorder.ObserveStageDuration(string(stage), d)

	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = metrics.ResultCanceled
	case err != nil:
		result = metrics.ResultFatal
	case len(r.report.Warnings) > warningsBefore:
		result = metrics.ResultWarning
	}
	r.recorder.IncStageResult(string(stage), result)
	r.logger.Debug("Stage finished", logfields.Stage(string(stage)), logfields.Duration(d), "result", string(result))

	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}
