package render

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

//go:embed assets/site.css
var siteCSS []byte

// pageTemplates maps each page template to the file defining its "content" block.
var pageTemplates = map[string]string{
	"index":    "templates/index.html",
	"post":     "templates/post.html",
	"tag":      "templates/tag.html",
	"tags":     "templates/tags.html",
	"notfound": "templates/404.html",
}

var funcs = template.FuncMap{
	"displayDate": func(t time.Time) string { return t.UTC().Format("January 2, 2006") },
	"isoDate":     func(t time.Time) string { return t.UTC().Format(time.DateOnly) },
	"postURL":     func(d *markdown.Document) string { return "/" + d.Slug },
	"tagURL":      func(name string) string { return site.RouteTags + "/" + content.Slugify(name) },
	// trusted marks transformer output as safe HTML.
	"trusted": func(s string) template.HTML { return template.HTML(s) }, // #nosec G203 -- rendered from the site's own content
}

// loadTemplates parses the shared layout once per page template.
func loadTemplates() (map[string]*template.Template, error) {
	base, err := template.New("layout").Funcs(funcs).Option("missingkey=error").
		ParseFS(embeddedTemplates, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	out := make(map[string]*template.Template, len(pageTemplates))
	for name, file := range pageTemplates {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if out[name], err = clone.ParseFS(embeddedTemplates, file); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
	}
	return out, nil
}

// templateFor picks the page template for p.
func templateFor(p *site.Page) string {
	switch {
	case p.Kind == site.KindPost:
		return "post"
	case p.Tag != nil:
		return "tag"
	case p.Route == site.RouteTags:
		return "tags"
	case p.Route == site.RouteNotFound:
		return "notfound"
	default:
		return "index"
	}
}

// pageView is the data every template receives.
type pageView struct {
	Site        config.SiteMetadata
	Page        *site.Page
	Title       string
	Description string
	Canonical   string
	FeedURL     string
	AtomURL     string
	TweetScript bool
}

func (r *Renderer) view(p *site.Page) pageView {
	v := pageView{
		Site:        r.meta,
		Page:        p,
		Title:       p.Title,
		Description: r.meta.Description,
		Canonical:   r.meta.AbsoluteURL(p.Route),
	}
	if r.feedPath != "" {
		v.FeedURL = r.meta.AbsoluteURL(r.feedPath)
	}
	if r.atomPath != "" {
		v.AtomURL = r.meta.AbsoluteURL(r.atomPath)
	}
	if p.Doc != nil {
		v.Description = p.Doc.Excerpt
		v.TweetScript = p.Doc.HasTweetEmbeds
	}
	return v
}
