package feed

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// SitemapRoute is where the sitemap is published.
const SitemapRoute = "/sitemap.xml"

// RobotsRoute is where robots.txt is published.
const RobotsRoute = "/robots.txt"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap lists every page except the 404 page, sorted by URL. Posts carry
// their publish date; index pages carry the date of their newest post.
func Sitemap(meta config.SiteMetadata, graph *site.Graph) ([]byte, error) {
	urls := make([]sitemapURL, 0, len(graph.Pages))
	for _, p := range graph.Pages {
		if p.Route == site.RouteNotFound {
			continue
		}
		u := sitemapURL{Loc: meta.AbsoluteURL(p.Route)}
		switch {
		case p.Doc != nil:
			u.LastMod = p.Doc.Date().UTC().Format(time.DateOnly)
		case len(p.Listing) > 0:
			u.LastMod = p.Listing[0].Date().UTC().Format(time.DateOnly)
		}
		if off := invalidXMLChar(u.Loc); off >= 0 {
			return nil, &FeedSerializationError{Source: p.Source(), Field: "loc", Offset: off}
		}
		urls = append(urls, u)
	}
	sort.Slice(urls, func(i, j int) bool { return urls[i].Loc < urls[j].Loc })

	out, err := encode(sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9", URLs: urls})
	if err != nil {
		return nil, &FeedSerializationError{Source: "sitemap", Err: err}
	}
	return out, nil
}

// Robots allows every crawler and points at the sitemap when one is published.
func Robots(meta config.SiteMetadata, withSitemap bool) []byte {
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\n")
	if withSitemap {
		fmt.Fprintf(&b, "\nSitemap: %s\n", meta.AbsoluteURL(SitemapRoute))
	}
	return []byte(b.String())
}
