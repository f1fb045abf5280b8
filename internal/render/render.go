// Package render writes the page graph and generated artifacts to the output
// directory. Output is assembled in a staging directory and promoted in one
// rename, so a failed build never leaves a half-written site behind.
package render

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"path"
	"sort"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// SiteCSSPath is where the site stylesheet is published.
const SiteCSSPath = "css/site.css"

// Artifact is a generated file written verbatim, such as a feed.
type Artifact struct {
	// Path is slash-separated and relative to the output root.
	Path string
	Data []byte
}

// Stats summarizes what a render wrote.
type Stats struct {
	Pages       int
	LinkedFiles int
	StaticFiles int
	Artifacts   int
}

// Renderer writes a site to disk.
type Renderer struct {
	meta      config.SiteMetadata
	cfg       config.OutputConfig
	staticDir string
	feedPath  string
	atomPath  string
	templates map[string]*template.Template
	logger    *slog.Logger

	stats Stats
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStaticDir sets the directory copied verbatim into the output root.
func WithStaticDir(dir string) Option {
	return func(r *Renderer) { r.staticDir = dir }
}

// WithFeeds sets the feed routes advertised in page heads.
func WithFeeds(rssPath, atomPath string) Option {
	return func(r *Renderer) {
		r.feedPath = rssPath
		r.atomPath = atomPath
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer parses the embedded templates.
func NewRenderer(meta config.SiteMetadata, cfg config.OutputConfig, opts ...Option) (*Renderer, error) {
	tmpls, err := loadTemplates()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to load page templates").Build()
	}
	r := &Renderer{meta: meta, cfg: cfg, templates: tmpls, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Stats returns the counts from the last successful Render.
func (r *Renderer) Stats() Stats { return r.stats }

// Render writes every page of graph plus artifacts, then promotes the result
// over the output directory. On error the existing output is left untouched.
func (r *Renderer) Render(ctx context.Context, graph *site.Graph, artifacts []Artifact) (err error) {
	stage, err := r.beginStaging()
	if err != nil {
		return errors.FileSystemError(err, "failed to create staging directory").
			WithContext("output", r.cfg.Directory).
			Build()
	}
	defer func() {
		if err != nil {
			r.abortStaging(stage)
		}
	}()

	var stats Stats
	// Static files go first so generated pages win on conflicts.
	if stats.StaticFiles, err = r.copyStaticDir(stage); err != nil {
		return errors.FileSystemError(err, "failed to copy static directory").
			WithContext("path", r.staticDir).
			Build()
	}
	if stats.LinkedFiles, err = r.copyLinkedFiles(stage, graph); err != nil {
		return errors.FileSystemError(err, "failed to copy linked files").Build()
	}
	if err = writeFile(stage, SiteCSSPath, siteCSS); err != nil {
		return errors.FileSystemError(err, "failed to write stylesheet").Build()
	}

	for _, p := range graph.Pages {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = r.renderPage(stage, p); err != nil {
			return err
		}
		stats.Pages++
	}

	sorted := make([]Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	for _, a := range sorted {
		if err = writeFile(stage, path.Clean("/"+a.Path), a.Data); err != nil {
			return errors.FileSystemError(err, "failed to write artifact").
				WithContext("path", a.Path).
				Build()
		}
		stats.Artifacts++
	}

	if err = ctx.Err(); err != nil {
		return err
	}
	if err = r.promote(stage); err != nil {
		return errors.FileSystemError(err, "failed to promote staging directory").
			WithContext("output", r.cfg.Directory).
			Build()
	}

	r.stats = stats
	r.logger.Info("Site rendered",
		logfields.Output(r.cfg.Directory),
		logfields.Count(stats.Pages),
		slog.Int("linked_files", stats.LinkedFiles),
		slog.Int("static_files", stats.StaticFiles))
	return nil
}

func (r *Renderer) renderPage(stage string, p *site.Page) error {
	name := templateFor(p)
	var buf bytes.Buffer
	if err := r.templates[name].ExecuteTemplate(&buf, "layout", r.view(p)); err != nil {
		return errors.WrapError(err, errors.CategoryRender, "failed to render page").
			WithContext("route", p.Route).
			WithContext("source", p.Source()).
			WithContext("template", name).
			Build()
	}
	out := site.OutputPath(p.Route)
	if err := writeFile(stage, out, buf.Bytes()); err != nil {
		return errors.FileSystemError(err, "failed to write page").
			WithContext("route", p.Route).
			WithContext("path", out).
			Build()
	}
	r.logger.Debug("Rendered page", logfields.Route(p.Route), logfields.Path(out))
	return nil
}
