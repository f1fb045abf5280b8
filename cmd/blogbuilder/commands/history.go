package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/eventstore"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show" default:"10"`
}

func (h *HistoryCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if cfg.Build.HistoryDB == "" {
		return ferrors.ConfigError("build history is not enabled (set build.history_db)").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.Build.HistoryDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return RunHistory(ctx, store, h.Limit, os.Stdout)
}

// RunHistory prints the newest builds in store as a table.
func RunHistory(ctx context.Context, store eventstore.Store, limit int, out io.Writer) error {
	projection := eventstore.NewBuildHistoryProjection(store, limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}
	builds := projection.History(limit)
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(out, "No builds recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tSTATUS\tOUTCOME\tDOCS\tPAGES\tSKIPPED\tWARNINGS\tDURATION\tERROR")
	for _, b := range builds {
		errMsg := ""
		if b.ErrorMsg != "" {
			errMsg = b.ErrorStage + ": " + b.ErrorMsg
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			b.StartedAt.Local().Format(time.DateTime), b.Status, dash(b.Outcome),
			b.Documents, b.Pages, len(b.Skipped), b.Warnings,
			b.Duration.Round(time.Millisecond), errMsg)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
