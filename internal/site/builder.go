package site

import (
	"log/slog"
	"sort"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

// Options controls graph assembly.
type Options struct {
	IncludeDrafts bool
	// Reserved routes are files written verbatim by generated artifacts such
	// as the feed and stylesheets.
	Reserved []string
	Logger   *slog.Logger
}

// Builder assembles the page graph.
type Builder struct {
	meta config.SiteMetadata
	opts Options
}

// NewBuilder creates a builder for the given site.
func NewBuilder(meta config.SiteMetadata, opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Builder{meta: meta, opts: opts}
}

// Graph is the complete, deduplicated set of pages for one build.
type Graph struct {
	Meta config.SiteMetadata
	// Pages are posts newest first, then index, tag and static pages.
	Pages []*Page
	// Listing is every published post, newest first.
	Listing []*markdown.Document
	Tags    []*Tag
	// Drafts are the sources left out because they are drafts.
	Drafts []string

	byRoute map[string]*Page
}

// Page looks up a page by route.
func (g *Graph) Page(route string) (*Page, bool) {
	p, ok := g.byRoute[route]
	return p, ok
}

// Posts returns the post pages in listing order.
func (g *Graph) Posts() []*Page {
	out := make([]*Page, 0, len(g.Listing))
	for _, p := range g.Pages {
		if p.Kind == KindPost {
			out = append(out, p)
		}
	}
	return out
}

// Build maps documents to pages, rejects route collisions and appends the
// index, tag and static pages. docs must be in a stable order; it breaks date ties.
func (b *Builder) Build(docs []*markdown.Document) (*Graph, error) {
	g := &Graph{Meta: b.meta, byRoute: make(map[string]*Page)}
	routes := newRouteTable()

	published := make([]*markdown.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Draft() && !b.opts.IncludeDrafts {
			g.Drafts = append(g.Drafts, doc.Source())
			continue
		}
		published = append(published, doc)
	}

	postsByDoc := make(map[*markdown.Document]*Page, len(published))
	for _, doc := range published {
		page := &Page{Route: "/" + doc.Slug, Kind: KindPost, Title: doc.Title(), Doc: doc}
		if err := routes.claimPage(page.Route, doc.Source()); err != nil {
			return nil, err
		}
		postsByDoc[doc] = page
	}

	g.Listing = SortByDate(published)
	for i, doc := range g.Listing {
		page := postsByDoc[doc]
		if i > 0 {
			page.Newer = g.Listing[i-1]
		}
		if i+1 < len(g.Listing) {
			page.Older = g.Listing[i+1]
		}
		g.add(page)
	}

	g.Tags = collectTags(g.Listing)
	fixed := []*Page{{Route: RouteHome, Kind: KindIndex, Title: b.meta.Title, Listing: g.Listing}}
	if len(g.Tags) > 0 {
		fixed = append(fixed, &Page{Route: RouteTags, Kind: KindIndex, Title: "Tags", Tags: g.Tags})
		for _, tag := range g.Tags {
			fixed = append(fixed, &Page{Route: tag.Route, Kind: KindIndex, Title: tag.Name, Tag: tag, Listing: tag.Docs})
		}
	}
	fixed = append(fixed, &Page{Route: RouteNotFound, Kind: KindStatic, Title: "Not Found"})

	for _, page := range fixed {
		if err := routes.claimPage(page.Route, page.Source()); err != nil {
			return nil, err
		}
		g.add(page)
	}
	for _, route := range b.opts.Reserved {
		if err := routes.claimFile(route, "generated "+route); err != nil {
			return nil, err
		}
	}

	b.opts.Logger.Debug("Page graph built",
		logfields.Count(len(g.Pages)),
		slog.Int("posts", len(g.Listing)),
		slog.Int("drafts", len(g.Drafts)))
	return g, nil
}

func (g *Graph) add(p *Page) {
	g.Pages = append(g.Pages, p)
	g.byRoute[p.Route] = p
}

// collectTags groups posts by tag slug. The first spelling seen in listing
// order names the tag. Tags are sorted by slug.
func collectTags(listing []*markdown.Document) []*Tag {
	bySlug := make(map[string]*Tag)
	for _, doc := range listing {
		seen := make(map[string]bool)
		for _, name := range doc.Entry.Tags {
			slug := content.Slugify(name)
			if slug == "" || seen[slug] {
				continue
			}
			seen[slug] = true
			tag, ok := bySlug[slug]
			if !ok {
				tag = &Tag{Name: name, Slug: slug, Route: RouteTags + "/" + slug}
				bySlug[slug] = tag
			}
			tag.Docs = append(tag.Docs, doc)
		}
	}

	tags := make([]*Tag, 0, len(bySlug))
	for _, tag := range bySlug {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Slug < tags[j].Slug })
	return tags
}
