package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory (overrides output.directory)"`
	Drafts bool   `help:"Publish draft posts"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	b.apply(cfg)
	return RunBuild(ctx, g, cfg, os.Stdout)
}

func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.Drafts {
		cfg.Content.IncludeDrafts = true
	}
}

// RunBuild runs one build and prints its summary to out.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config, out io.Writer) error {
	log := logger(g)
	history, closeHistory := openHistory(cfg, log)
	defer closeHistory()

	report, err := newBuilder(cfg, recorderFor(cfg), history, log).Run(ctx)
	if report != nil {
		_, _ = fmt.Fprintln(out, report.Summary())
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Site written to %s\n", cfg.Output.Directory)
	return nil
}
