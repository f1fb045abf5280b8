package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/eventstore"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

func TestCLIParsesSubcommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		command string
		check   func(t *testing.T, cli *CLI)
	}{
		{
			name:    "build flags",
			args:    []string{"-c", "site.yaml", "build", "-o", "out", "--drafts"},
			command: "build",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, "site.yaml", cli.Config)
				assert.Equal(t, "out", cli.Build.Output)
				assert.True(t, cli.Build.Drafts)
			},
		},
		{
			name:    "new with slug",
			args:    []string{"new", "Hello World", "--slug", "greetings"},
			command: "new <title>",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, "Hello World", cli.New.Title)
				assert.Equal(t, "greetings", cli.New.Slug)
				assert.Equal(t, "blogbuilder.yaml", cli.Config)
			},
		},
		{
			name:    "preview default port",
			args:    []string{"preview"},
			command: "preview",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, 1313, cli.Preview.Port)
			},
		},
		{
			name:    "history limit",
			args:    []string{"history", "-n", "3"},
			command: "history",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, 3, cli.History.Limit)
			},
		},
		{
			name:    "visualize format",
			args:    []string{"visualize", "-f", "mermaid"},
			command: "visualize",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, "mermaid", cli.Visualize.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := &CLI{}
			parser, err := kong.New(cli, kong.Name("blogbuilder"), kong.Vars{"version": "test"})
			require.NoError(t, err)
			kctx, err := parser.Parse(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.command, kctx.Command())
			tt.check(t, cli)
		})
	}
}

func TestCLIRejectsUnknownVisualizeFormat(t *testing.T) {
	parser, err := kong.New(&CLI{}, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse([]string{"visualize", "-f", "dot"})
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv(LogLevelEnv, "")
	assert.Equal(t, slog.LevelInfo, parseLogLevel(false))
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true))

	t.Setenv(LogLevelEnv, "WARN")
	assert.Equal(t, slog.LevelWarn, parseLogLevel(true))

	t.Setenv(LogLevelEnv, "debug")
	assert.Equal(t, slog.LevelDebug, parseLogLevel(false))
}

func TestScaffoldPost(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2021, time.March, 4, 17, 30, 0, 0, time.UTC)

	path, err := ScaffoldPost(dir, "Hello, Wörld!", "", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hello-world", "index.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entry, err := content.Parse("hello-world/index.md", path, data)
	require.NoError(t, err)
	assert.Equal(t, "Hello, Wörld!", entry.Title)
	assert.Equal(t, "hello-world", entry.Slug)
	assert.True(t, entry.Draft)
	assert.True(t, entry.Date.Equal(time.Date(2021, time.March, 4, 0, 0, 0, 0, time.UTC)))

	_, err = ScaffoldPost(dir, "Hello, Wörld!", "", now)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestScaffoldPost_ExplicitSlug(t *testing.T) {
	dir := t.TempDir()
	path, err := ScaffoldPost(dir, "Anything", "/notes/first/", time.Now())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes", "first", "index.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "slug: notes/first")
}

func TestScaffoldPost_RejectsEmptyTitle(t *testing.T) {
	_, err := ScaffoldPost(t.TempDir(), "   ", "", time.Now())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	_, err = ScaffoldPost(t.TempDir(), "???", "", time.Now())
	require.Error(t, err)
}

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "blogbuilder.yaml")
	var out bytes.Buffer

	require.NoError(t, RunInit(cfgPath, false, &out))
	assert.Contains(t, out.String(), "initialized successfully")
	assert.DirExists(t, filepath.Join(dir, "content"))
	assert.DirExists(t, filepath.Join(dir, "static"))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", cfg.Site.URL)

	err = RunInit(cfgPath, false, &out)
	require.Error(t, err)
	assert.Equal(t, 2, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	require.NoError(t, RunInit(cfgPath, true, &out))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Site = config.SiteMetadata{Title: "Test Blog", URL: "https://blog.example.com"}
	cfg.Content.Dir = filepath.Join(root, "content")
	cfg.Content.StaticDir = filepath.Join(root, "static")
	cfg.Output.Directory = filepath.Join(root, "public")
	cfg.Build.HistoryDB = filepath.Join(root, ".blogbuilder", "history.db")
	require.NoError(t, os.MkdirAll(cfg.Content.Dir, 0o755))
	return cfg
}

func TestRunBuild_RecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Content.Dir, "hello.md"),
		[]byte("---\ntitle: Hello\ndate: 2020-01-01\n---\nworld\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, RunBuild(t.Context(), nil, cfg, &out))
	assert.Contains(t, out.String(), "outcome=success")
	assert.Contains(t, out.String(), "Site written to "+cfg.Output.Directory)
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "hello", "index.html"))

	store, err := eventstore.NewSQLiteStore(cfg.Build.HistoryDB)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var table bytes.Buffer
	require.NoError(t, RunHistory(t.Context(), store, 10, &table))
	lines := strings.Split(strings.TrimSpace(table.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[1], eventstore.StatusCompleted)
	assert.Contains(t, lines[1], "success")
}

func TestRunBuild_FailureKeepsClassification(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.Dir = filepath.Join(t.TempDir(), "missing")

	var out bytes.Buffer
	err := RunBuild(t.Context(), &Global{Logger: slog.Default()}, cfg, &out)
	require.Error(t, err)
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Contains(t, out.String(), "outcome=failed")
}

func TestRunHistory_Empty(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var out bytes.Buffer
	require.NoError(t, RunHistory(t.Context(), store, 5, &out))
	assert.Equal(t, "No builds recorded.\n", out.String())
}

func TestVisualizePasses(t *testing.T) {
	passes := markdown.DefaultPasses()

	var text bytes.Buffer
	require.NoError(t, VisualizePasses(&text, passes, "text"))
	out := text.String()
	assert.Contains(t, out, "1. [code-titles]")
	assert.Contains(t, out, "└── 6. [smartypants]")
	assert.Less(t, strings.Index(out, "linked-files"), strings.Index(out, "responsive-images"))
	assert.Contains(t, out, "Total: 6 passes")

	var mermaid bytes.Buffer
	require.NoError(t, VisualizePasses(&mermaid, passes, "mermaid"))
	assert.Contains(t, mermaid.String(), "parse --> p1")
	assert.Contains(t, mermaid.String(), "p6 --> html")

	assert.Error(t, VisualizePasses(&bytes.Buffer{}, passes, "dot"))
}
