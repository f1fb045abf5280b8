package build

import (
	"context"
	"errors"
	"fmt"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/feed"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/render"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// HighlightCSSPath is where the code highlighting stylesheet is published.
const HighlightCSSPath = "css/highlight.css"

func (r *run) load(ctx context.Context) error {
	loader := content.NewLoader(r.cfg.Content,
		content.WithConcurrency(r.cfg.Build.Concurrency),
		content.WithLogger(r.logger))
	result, err := loader.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		r.skip(ctx, StageLoad, w.Path, w)
	}
	r.entries = result.Entries
	r.report.Documents = len(result.Entries)
	r.recorder.AddDocuments(metrics.DocumentsLoaded, len(result.Entries))
	return nil
}

func (r *run) transform(ctx context.Context) error {
	t := markdown.NewTransformer(r.cfg.Markdown,
		markdown.WithExcerptLength(r.cfg.Content.ExcerptLength),
		markdown.WithAssetResolver(markdown.NewFileResolver(r.cfg.Content.Dir)),
		markdown.WithLogger(r.logger))

	r.docs = make([]*markdown.Document, 0, len(r.entries))
	for _, entry := range r.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := t.Transform(entry)
		var terr *markdown.TransformError
		switch {
		case errors.As(err, &terr):
			r.skip(ctx, StageTransform, entry.ID, terr)
			continue
		case err != nil:
			return fmt.Errorf("transform %s: %w", entry.ID, err)
		}
		r.docs = append(r.docs, doc)
	}
	return nil
}

// reservedRoutes are the routes taken by generated artifacts.
func (r *run) reservedRoutes() []string {
	routes := []string{r.cfg.Feed.Path, "/" + render.SiteCSSPath, "/" + HighlightCSSPath}
	if r.cfg.Feed.AtomPath != "" {
		routes = append(routes, r.cfg.Feed.AtomPath)
	}
	if r.cfg.Output.Sitemap {
		routes = append(routes, feed.SitemapRoute, feed.RobotsRoute)
	}
	return routes
}

func (r *run) buildGraph(_ context.Context) error {
	g, err := site.NewBuilder(r.cfg.Site, site.Options{
		IncludeDrafts: r.cfg.Content.IncludeDrafts,
		Reserved:      r.reservedRoutes(),
		Logger:        r.logger,
	}).Build(r.docs)
	if err != nil {
		return err
	}
	r.graph = g

	for _, source := range g.Drafts {
		r.logger.Debug("Draft left out", logfields.Path(source))
	}
	r.report.Published = len(g.Listing)
	r.report.Drafts = len(g.Drafts)
	r.report.Pages = len(g.Pages)
	for _, doc := range g.Listing {
		r.report.Fingerprints[doc.Source()] = doc.Entry.Fingerprint
	}
	r.recorder.AddDocuments(metrics.DocumentsPublished, len(g.Listing))
	r.recorder.AddDocuments(metrics.DocumentsDrafts, len(g.Drafts))
	return nil
}

func (r *run) generateFeeds(_ context.Context) error {
	gen := feed.NewGenerator(r.cfg.Site, r.cfg.Feed)
	items := gen.Items(r.graph)
	r.report.FeedItems = len(items)

	rss, err := gen.RSS(items)
	if err != nil {
		return err
	}
	r.artifacts = append(r.artifacts, render.Artifact{Path: r.cfg.Feed.Path, Data: rss})

	if r.cfg.Feed.AtomPath != "" {
		atom, err := gen.Atom(items)
		if err != nil {
			return err
		}
		r.artifacts = append(r.artifacts, render.Artifact{Path: r.cfg.Feed.AtomPath, Data: atom})
	}

	if r.cfg.Output.Sitemap {
		sitemap, err := feed.Sitemap(r.cfg.Site, r.graph)
		if err != nil {
			return err
		}
		r.artifacts = append(r.artifacts,
			render.Artifact{Path: feed.SitemapRoute, Data: sitemap},
			render.Artifact{Path: feed.RobotsRoute, Data: feed.Robots(r.cfg.Site, true)})
	}

	css, err := markdown.HighlightCSS(r.cfg.Markdown.HighlightStyle)
	if err != nil {
		return fmt.Errorf("highlight stylesheet: %w", err)
	}
	r.artifacts = append(r.artifacts, render.Artifact{Path: HighlightCSSPath, Data: css})
	return nil
}

func (r *run) render(ctx context.Context) error {
	renderer, err := render.NewRenderer(r.cfg.Site, r.cfg.Output,
		render.WithStaticDir(r.cfg.Content.StaticDir),
		render.WithFeeds(r.cfg.Feed.Path, r.cfg.Feed.AtomPath),
		render.WithLogger(r.logger))
	if err != nil {
		return err
	}
	if err := renderer.Render(ctx, r.graph, r.artifacts); err != nil {
		return err
	}
	stats := renderer.Stats()
	r.report.LinkedFiles = stats.LinkedFiles
	r.report.StaticFiles = stats.StaticFiles
	return nil
}

// skip records a document left out of the build.
func (r *run) skip(ctx context.Context, stage StageName, source string, err error) {
	r.logger.Warn("Skipping document", logfields.Stage(string(stage)), logfields.Path(source), logfields.Error(err))
	r.report.addWarning(stage, source, err)
	r.report.Skipped++
	r.recorder.AddDocuments(metrics.DocumentsSkipped, 1)
	r.recorder.IncWarning(string(stage))
	r.recordSkipped(ctx, stage, source, err)
}
