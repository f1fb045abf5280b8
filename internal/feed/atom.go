package feed

import (
	"encoding/xml"
	"time"
)

type atomFeed struct {
	XMLName  xml.Name    `xml:"feed"`
	NS       string      `xml:"xmlns,attr"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle,omitempty"`
	ID       string      `xml:"id"`
	Links    []atomLink  `xml:"link"`
	Updated  string      `xml:"updated"`
	Author   *atomPerson `xml:"author,omitempty"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomPerson struct {
	Name string `xml:"name"`
	URI  string `xml:"uri,omitempty"`
}

type atomEntry struct {
	Title      string         `xml:"title"`
	ID         string         `xml:"id"`
	Link       atomLink       `xml:"link"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Summary    string         `xml:"summary,omitempty"`
	Content    atomText       `xml:"content"`
	Categories []atomCategory `xml:"category"`
}

type atomText struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// Atom serializes items as an Atom 1.0 feed. The feed's updated element is the
// newest entry date, or the Unix epoch when there are no entries.
func (g *Generator) Atom(items []Item) ([]byte, error) {
	if err := g.validateChannel(); err != nil {
		return nil, err
	}
	if err := validate(items); err != nil {
		return nil, err
	}

	self := g.cfg.AtomPath
	if self == "" {
		self = "/atom.xml"
	}
	f := atomFeed{
		NS:       nsAtom,
		Title:    g.meta.Title,
		Subtitle: g.meta.Description,
		ID:       g.meta.AbsoluteURL("/"),
		Links: []atomLink{
			{Href: g.meta.AbsoluteURL(self), Rel: "self", Type: "application/atom+xml"},
			{Href: g.meta.AbsoluteURL("/"), Rel: "alternate", Type: "text/html"},
		},
		Entries: make([]atomEntry, 0, len(items)),
	}
	if g.meta.Author != "" {
		f.Author = &atomPerson{Name: g.meta.Author, URI: g.meta.AbsoluteURL("/")}
	}

	newest := time.Unix(0, 0)
	for _, it := range items {
		if it.Published.After(newest) {
			newest = it.Published
		}
		stamp := it.Published.UTC().Format(time.RFC3339)
		e := atomEntry{
			Title:     it.Title,
			ID:        it.AtomID(),
			Link:      atomLink{Href: it.URL, Rel: "alternate", Type: "text/html"},
			Published: stamp,
			Updated:   stamp,
			Summary:   it.Excerpt,
			Content:   atomText{Type: "html", Value: it.Content},
		}
		for _, tag := range it.Tags {
			e.Categories = append(e.Categories, atomCategory{Term: tag})
		}
		f.Entries = append(f.Entries, e)
	}
	f.Updated = newest.UTC().Format(time.RFC3339)

	out, err := encode(f)
	if err != nil {
		return nil, &FeedSerializationError{Source: "atom", Err: err}
	}
	return out, nil
}
