// Package feed serializes published posts as RSS 2.0 and Atom 1.0 documents,
// and produces the sitemap and robots.txt that point crawlers at them.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// Item is the feed projection of one published post.
type Item struct {
	Title     string
	URL       string
	Published time.Time
	Excerpt   string
	Content   string
	Tags      []string
	// Source is the post's content path, used in error reports.
	Source string
}

// AtomID returns a stable urn:uuid identifier derived from the item URL.
func (i Item) AtomID() string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(i.URL)).URN()
}

// FeedSerializationError reports text that cannot be represented in XML.
type FeedSerializationError struct {
	Source string
	Field  string
	// Offset is the byte offset of the offending character within the field.
	Offset int
	Err    error
}

func (e *FeedSerializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feed serialization failed for %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("feed serialization failed for %s: field %s has a character not allowed in XML at byte %d", e.Source, e.Field, e.Offset)
}

func (e *FeedSerializationError) Unwrap() error { return e.Err }

// Generator builds feed documents for one site.
type Generator struct {
	meta config.SiteMetadata
	cfg  config.FeedConfig
}

// NewGenerator creates a feed generator.
func NewGenerator(meta config.SiteMetadata, cfg config.FeedConfig) *Generator {
	return &Generator{meta: meta, cfg: cfg}
}

// Items selects non-draft posts from the graph, newest first with ties in
// graph order, truncated to the configured limit.
func (g *Generator) Items(graph *site.Graph) []Item {
	var docs []*markdown.Document
	for _, p := range graph.Posts() {
		if !p.Doc.Draft() {
			docs = append(docs, p.Doc)
		}
	}
	docs = site.SortByDate(docs)
	if g.cfg.Limit > 0 && len(docs) > g.cfg.Limit {
		docs = docs[:g.cfg.Limit]
	}

	items := make([]Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, Item{
			Title:     d.Title(),
			URL:       g.meta.AbsoluteURL("/" + d.Slug),
			Published: d.Date(),
			Excerpt:   d.Excerpt,
			Content:   d.HTML,
			Tags:      d.Entry.Tags,
			Source:    d.Source(),
		})
	}
	return items
}

// validate rejects every field that would produce a malformed document.
func validate(items []Item) error {
	for _, it := range items {
		fields := []struct{ name, value string }{
			{"title", it.Title},
			{"link", it.URL},
			{"description", it.Excerpt},
			{"content", it.Content},
		}
		for _, tag := range it.Tags {
			fields = append(fields, struct{ name, value string }{"category", tag})
		}
		for _, f := range fields {
			if off := invalidXMLChar(f.value); off >= 0 {
				return &FeedSerializationError{Source: it.Source, Field: f.name, Offset: off}
			}
		}
	}
	return nil
}

func (g *Generator) validateChannel() error {
	fields := []struct{ name, value string }{
		{"site title", g.meta.Title},
		{"site description", g.meta.Description},
		{"author", g.meta.Author},
	}
	for _, f := range fields {
		if off := invalidXMLChar(f.value); off >= 0 {
			return &FeedSerializationError{Source: "site configuration", Field: f.name, Offset: off}
		}
	}
	return nil
}

// invalidXMLChar returns the byte offset of the first rune outside the XML
// 1.0 Char production, or -1.
func invalidXMLChar(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		if !isXMLChar(r) {
			return i
		}
		i += size
	}
	return -1
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
