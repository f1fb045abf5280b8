package commands

import (
	"context"
	"net/http"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/preview"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	Port     int    `short:"p" help:"Port to serve on" default:"1313"`
	Output   string `short:"o" help:"Output directory (overrides output.directory)"`
	NoDrafts bool   `name:"no-drafts" help:"Leave drafts out of the preview"`
}

func (p *PreviewCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	log := logger(g)
	cfg.Content.IncludeDrafts = !p.NoDrafts
	if p.Output != "" {
		cfg.Output.Directory = p.Output
	}

	history, closeHistory := openHistory(cfg, log)
	defer closeHistory()

	recorder := metrics.NewPrometheusRecorder(nil)
	builder := newBuilder(cfg, recorder, history, log)

	return preview.Start(ctx, preview.Options{
		Port:      p.Port,
		OutputDir: cfg.Output.Directory,
		WatchDirs: []string{cfg.Content.Dir, cfg.Content.StaticDir},
		Rebuild: func(ctx context.Context) error {
			_, err := builder.Run(ctx)
			return err
		},
		Metrics: metricsHandler(recorder),
		Logger:  log,
	})
}

func metricsHandler(r *metrics.PrometheusRecorder) http.Handler {
	return metrics.HTTPHandler(r.Registry())
}
