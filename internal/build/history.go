package build

import (
	"context"

	"git.home.luguber.info/inful/blogbuilder/internal/eventstore"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/version"
)

// History failures are logged and never fail the build.

func (r *run) recordStarted(ctx context.Context) {
	if r.history == nil {
		return
	}
	ev, err := eventstore.NewBuildStarted(r.buildID, eventstore.BuildStartedMeta{
		ContentDir:    r.cfg.Content.Dir,
		OutputDir:     r.cfg.Output.Directory,
		IncludeDrafts: r.cfg.Content.IncludeDrafts,
		Version:       version.Version,
	})
	r.append(ctx, ev, err)
}

func (r *run) recordSkipped(ctx context.Context, stage StageName, source string, cause error) {
	if r.history == nil {
		return
	}
	ev, err := eventstore.NewDocumentSkipped(r.buildID, source, string(stage), cause.Error())
	r.append(ctx, ev, err)
}

func (r *run) recordFinished(ctx context.Context, buildErr error) {
	if r.history == nil {
		return
	}
	// The build context may already be canceled; the outcome still goes on record.
	ctx = context.WithoutCancel(ctx)
	if buildErr != nil {
		stage := ""
		if s, ok := errors.AsClassified(buildErr); ok {
			stage, _ = s.Context().GetString("stage")
		}
		ev, err := eventstore.NewBuildFailed(r.buildID, stage, string(errors.GetCategory(buildErr)), buildErr.Error(), r.report.Duration())
		r.append(ctx, ev, err)
		return
	}
	ev, err := eventstore.NewBuildCompleted(r.buildID, eventstore.BuildCompletedMeta{
		Outcome:   string(r.report.Outcome),
		Duration:  r.report.Duration(),
		Documents: r.report.Documents,
		Pages:     r.report.Pages,
		Warnings:  len(r.report.Warnings),
	})
	r.append(ctx, ev, err)
}

func (r *run) append(ctx context.Context, ev eventstore.Event, err error) {
	if err == nil {
		err = r.history.Append(ctx, ev)
	}
	if err != nil {
		r.logger.Warn("Failed to record build history", logfields.Error(err))
	}
}
