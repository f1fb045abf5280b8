package build

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/eventstore"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/render"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// Builder runs builds for one configuration. A Builder may be reused; each
// Run starts from the files on disk.
type Builder struct {
	cfg      *config.Config
	recorder metrics.Recorder
	history  eventstore.Store
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithHistory records build events to store.
func WithHistory(store eventstore.Store) Option {
	return func(b *Builder) { b.history = store }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a builder. cfg must not be modified while builds run.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{cfg: cfg, recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// run holds the state of a single build.
type run struct {
	cfg      *config.Config
	buildID  string
	report   *Report
	recorder metrics.Recorder
	history  eventstore.Store
	logger   *slog.Logger

	entries   []*content.Entry
	docs      []*markdown.Document
	graph     *site.Graph
	artifacts []render.Artifact
}

// Run executes one build. The report is returned even when the build fails.
// Fatal errors are classified errors carrying the stage and the sources involved.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	buildID := uuid.NewString()
	r := &run{
		cfg:      b.cfg,
		buildID:  buildID,
		report:   newReport(buildID, time.Now()),
		recorder: b.recorder,
		history:  b.history,
		logger:   b.logger.With(logfields.BuildID(buildID)),
	}

	r.logger.Info("Build started",
		slog.String("content", b.cfg.Content.Dir),
		logfields.Output(b.cfg.Output.Directory),
		slog.Bool("drafts", b.cfg.Content.IncludeDrafts))
	r.recordStarted(ctx)

	err := r.execute(ctx)
	canceled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	if err != nil {
		err = classify(err)
	}
	r.report.finish(err, canceled)

	if err == nil {
		if perr := r.report.Persist(b.cfg.Output.Directory, b.cfg.Build.ReportFile); perr != nil {
			r.logger.Warn("Failed to persist build report", logfields.Error(perr))
		}
	}
	r.recorder.ObserveBuildDuration(r.report.Duration())
	r.recorder.IncBuildOutcome(string(r.report.Outcome))
	r.recordFinished(ctx, err)
	r.writeMetrics()

	if err != nil {
		r.logger.Error("Build failed", logfields.Error(err), logfields.Duration(r.report.Duration()))
		return r.report, err
	}
	r.logger.Info("Build completed",
		slog.String("outcome", string(r.report.Outcome)),
		logfields.Count(r.report.Pages),
		slog.Int("warnings", len(r.report.Warnings)),
		logfields.Duration(r.report.Duration()))
	return r.report, nil
}

func (r *run) execute(ctx context.Context) error {
	stages := []struct {
		name StageName
		fn   func(context.Context) error
	}{
		{StageLoad, r.load},
		{StageTransform, r.transform},
		{StageGraph, r.buildGraph},
		{StageFeed, r.generateFeeds},
		{StageRender, r.render},
	}
	for _, s := range stages {
		if err := r.runStage(ctx, s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// writeMetrics dumps metrics to the configured textfile when the recorder supports it.
func (r *run) writeMetrics() {
	path := r.cfg.Build.MetricsFile
	if path == "" {
		return
	}
	w, ok := r.recorder.(interface{ WriteTextfile(string) error })
	if !ok {
		return
	}
	if err := w.WriteTextfile(path); err != nil {
		r.logger.Warn("Failed to write metrics file", logfields.Path(path), logfields.Error(err))
	}
}
