// Package site assembles transformed documents into the routed page graph.
package site

import (
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

// Kind classifies a page.
type Kind int

const (
	KindPost Kind = iota
	KindIndex
	KindStatic
)

func (k Kind) String() string {
	switch k {
	case KindPost:
		return "post"
	case KindIndex:
		return "index"
	case KindStatic:
		return "static"
	default:
		return "unknown"
	}
}

// Well-known routes.
const (
	RouteHome     = "/"
	RouteTags     = "/tags"
	RouteNotFound = "/404.html"
)

// Page is one routable unit of the site.
type Page struct {
	Route string
	Kind  Kind
	Title string
	// Doc is set for posts.
	Doc *markdown.Document
	// Listing holds the documents an index page lists, newest first.
	Listing []*markdown.Document
	// Tag is set for tag index pages.
	Tag *Tag
	// Tags is set on the tag overview page.
	Tags []*Tag
	// Newer and Older link neighbouring posts in the listing.
	Newer *markdown.Document
	Older *markdown.Document
}

// Source names what produced the page, for error reports.
func (p *Page) Source() string {
	if p.Doc != nil {
		return p.Doc.Source()
	}
	return p.Kind.String() + " page " + p.Route
}

// Tag is a tag and the published posts carrying it.
type Tag struct {
	Name  string
	Slug  string
	Route string
	Docs  []*markdown.Document
}

// OutputPath maps a route to the file that serves it, relative to the output
// directory: "/" is index.html, routes ending in .html are used as they are,
// anything else gets its own directory with an index.html.
func OutputPath(route string) string {
	r := strings.Trim(route, "/")
	switch {
	case r == "":
		return "index.html"
	case strings.HasSuffix(r, ".html"):
		return r
	default:
		return path.Join(r, "index.html")
	}
}

// SortByDate orders documents newest first. Documents with equal dates keep
// their input order. The input slice is not modified.
func SortByDate(docs []*markdown.Document) []*markdown.Document {
	out := make([]*markdown.Document, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date().After(out[j].Date())
	})
	return out
}
