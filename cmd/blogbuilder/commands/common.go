package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/eventstore"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// LogLevelEnv overrides the log level chosen by --verbose.
const LogLevelEnv = "BLOGBUILDER_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"blogbuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build     BuildCmd     `cmd:"" help:"Build the site into the output directory"`
	Init      InitCmd      `cmd:"" help:"Write an example configuration file"`
	New       NewCmd       `cmd:"" help:"Scaffold a new draft post"`
	Preview   PreviewCmd   `cmd:"" help:"Serve the site locally and rebuild on changes"`
	History   HistoryCmd   `cmd:"" help:"List recent builds"`
	Visualize VisualizeCmd `cmd:"" help:"Print the Markdown pass chain"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honours LogLevelEnv before the verbose flag.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func logger(g *Global) *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// openHistory opens the build event store when one is configured. The
// returned close function is always safe to call.
func openHistory(cfg *config.Config, log *slog.Logger) (eventstore.Store, func()) {
	if cfg.Build.HistoryDB == "" {
		return nil, func() {}
	}
	store, err := eventstore.NewSQLiteStore(cfg.Build.HistoryDB)
	if err != nil {
		log.Warn("Build history disabled", logfields.Path(cfg.Build.HistoryDB), logfields.Error(err))
		return nil, func() {}
	}
	return store, func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close build history", logfields.Error(err))
		}
	}
}

// newBuilder wires a builder with history and recorder for cfg.
func newBuilder(cfg *config.Config, recorder metrics.Recorder, history eventstore.Store, log *slog.Logger) *build.Builder {
	opts := []build.Option{build.WithRecorder(recorder), build.WithLogger(log)}
	if history != nil {
		opts = append(opts, build.WithHistory(history))
	}
	return build.New(cfg, opts...)
}

// recorderFor returns a Prometheus recorder when metrics are exported, else a no-op.
func recorderFor(cfg *config.Config) metrics.Recorder {
	if cfg.Build.MetricsFile == "" {
		return metrics.NoopRecorder{}
	}
	return metrics.NewPrometheusRecorder(nil)
}

