package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	Title string `arg:"" help:"Post title"`
	Slug  string `help:"Explicit slug (defaults to the slugified title)"`
}

func (n *NewCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	path, err := ScaffoldPost(cfg.Content.Dir, n.Title, n.Slug, time.Now())
	if err != nil {
		return err
	}
	logger(g).Info("Draft created", "path", path)
	fmt.Println(path)
	return nil
}

// ScaffoldPost writes <dir>/<slug>/index.md as a draft dated now and returns
// its path. An existing file is never overwritten.
func ScaffoldPost(dir, title, slug string, now time.Time) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ferrors.ValidationError("post title must not be empty").Build()
	}
	fields := map[string]any{
		"title":       title,
		"date":        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		"draft":       true,
		"description": "",
		"tags":        []string{},
	}
	if explicit := strings.Trim(strings.TrimSpace(slug), "/"); explicit != "" {
		slug = explicit
		fields["slug"] = explicit
	} else {
		slug = content.Slugify(title)
	}
	if slug == "" {
		return "", ferrors.ValidationError("cannot derive a slug from the title; pass --slug").
			WithContext("title", title).
			Build()
	}

	path := filepath.Join(dir, filepath.FromSlash(slug), "index.md")
	if _, err := os.Stat(path); err == nil {
		return "", ferrors.ValidationError("post already exists").WithContext("path", path).Build()
	}

	doc, err := frontmatter.Render(fields, []byte("\nWrite something.\n"))
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryInternal, "failed to render front-matter").Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", ferrors.FileSystemError(err, "failed to create post directory").
			WithContext("path", path).
			Build()
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", ferrors.FileSystemError(err, "failed to write post").
			WithContext("path", path).
			Build()
	}
	return path, nil
}
