package feed

import (
	"encoding/xml"
	"time"
)

const (
	nsContent = "http://purl.org/rss/1.0/modules/content/"
	nsAtom    = "http://www.w3.org/2005/Atom"
)

type rssXML struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string      `xml:"title"`
	Link          string      `xml:"link"`
	Description   string      `xml:"description"`
	AtomLink      rssAtomLink `xml:"atom:link"`
	Generator     string      `xml:"generator"`
	LastBuildDate string      `xml:"lastBuildDate,omitempty"`
	Items         []rssItem   `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string     `xml:"title"`
	Link        string     `xml:"link"`
	GUID        rssGUID    `xml:"guid"`
	PubDate     string     `xml:"pubDate"`
	Description string     `xml:"description"`
	Content     rssContent `xml:"content:encoded"`
	Categories  []string   `xml:"category"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssContent struct {
	Value string `xml:",cdata"`
}

// RSS serializes items as an RSS 2.0 channel with full HTML content.
// lastBuildDate is the newest item's date so unchanged input gives identical output.
func (g *Generator) RSS(items []Item) ([]byte, error) {
	if err := g.validateChannel(); err != nil {
		return nil, err
	}
	if err := validate(items); err != nil {
		return nil, err
	}

	ch := rssChannel{
		Title:       g.meta.Title,
		Link:        g.meta.AbsoluteURL("/"),
		Description: g.meta.Description,
		AtomLink:    rssAtomLink{Href: g.meta.AbsoluteURL(g.cfg.Path), Rel: "self", Type: "application/rss+xml"},
		Generator:   "blogbuilder",
		Items:       make([]rssItem, 0, len(items)),
	}
	var newest time.Time
	for _, it := range items {
		if it.Published.After(newest) {
			newest = it.Published
		}
		ch.Items = append(ch.Items, rssItem{
			Title:       it.Title,
			Link:        it.URL,
			GUID:        rssGUID{IsPermaLink: true, Value: it.URL},
			PubDate:     it.Published.UTC().Format(time.RFC1123Z),
			Description: it.Excerpt,
			Content:     rssContent{Value: it.Content},
			Categories:  it.Tags,
		})
	}
	if !newest.IsZero() {
		ch.LastBuildDate = newest.UTC().Format(time.RFC1123Z)
	}

	out, err := encode(rssXML{Version: "2.0", ContentNS: nsContent, AtomNS: nsAtom, Channel: ch})
	if err != nil {
		return nil, &FeedSerializationError{Source: "rss", Err: err}
	}
	return out, nil
}
