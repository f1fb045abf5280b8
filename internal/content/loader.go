package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Loader reads Markdown documents from a content root.
type Loader struct {
	root        string
	concurrency int
	logger      *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency bounds the number of files LoadAll reads at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLogger sets the logger used for skipped-entry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader for cfg.Dir.
func NewLoader(cfg config.ContentConfig, opts ...Option) *Loader {
	l := &Loader{root: cfg.Dir, concurrency: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the content directory.
func (l *Loader) Root() string { return l.root }

// LoadResult holds every valid entry, sorted by ID, and the skipped sources.
type LoadResult struct {
	Entries  []*Entry
	Warnings []*MalformedFrontMatterError
}

// Entries returns a lazy sequence over the content root in path order.
// Each call walks the directory again. Per-file problems are yielded with a
// nil entry and iteration continues; discovery failures and cancellation end
// the sequence.
func (l *Loader) Entries(ctx context.Context) iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		ids, err := l.discover()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(l.load(id)) {
				return
			}
		}
	}
}

// LoadAll reads every document in parallel and returns them sorted by ID.
func (l *Loader) LoadAll(ctx context.Context) (*LoadResult, error) {
	ids, err := l.discover()
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, len(ids))
	problems := make([]*MalformedFrontMatterError, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, err := l.load(id)
			var bad *MalformedFrontMatterError
			switch {
			case errors.As(err, &bad):
				problems[i] = bad
			case err != nil:
				return err
			default:
				entries[i] = entry
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &LoadResult{Entries: make([]*Entry, 0, len(ids))}
	for i := range ids {
		if problems[i] != nil {
			l.logger.Warn("Skipping document with malformed front-matter",
				logfields.Path(problems[i].Path), logfields.Error(problems[i]))
			result.Warnings = append(result.Warnings, problems[i])
			continue
		}
		result.Entries = append(result.Entries, entries[i])
	}
	l.logger.Debug("Content loaded", logfields.Count(len(result.Entries)), slog.Int("skipped", len(result.Warnings)))
	return result, nil
}

func (l *Loader) load(id string) (*Entry, error) {
	path := filepath.Join(l.root, filepath.FromSlash(id))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return Parse(id, path, data)
}

// discover lists Markdown files under the root as sorted slash paths.
// Hidden files and directories are skipped.
func (l *Loader) discover() ([]string, error) {
	info, err := os.Stat(l.root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrContentRootNotFound, l.root)
	}

	var ids []string
	err = filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != l.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsMarkdown(path) {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content root %s: %w", l.root, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// IsMarkdown reports whether path has a Markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
