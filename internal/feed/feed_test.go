package feed

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

var meta = config.SiteMetadata{
	Title:       "Intelligible Babble",
	Description: "Notes & <asides>",
	URL:         "https://blog.example.com/",
	Author:      "Author",
}

func doc(id, slug, date string, draft bool) *markdown.Document {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return &markdown.Document{
		Entry:   &content.Entry{ID: id, Title: "Post " + slug, Date: d, Draft: draft, Slug: slug},
		Slug:    slug,
		HTML:    "<p>Body of " + slug + "</p>\n",
		Excerpt: "Excerpt of " + slug,
	}
}

func graph(t *testing.T, includeDrafts bool, docs ...*markdown.Document) *site.Graph {
	t.Helper()
	g, err := site.NewBuilder(meta, site.Options{IncludeDrafts: includeDrafts}).Build(docs)
	require.NoError(t, err)
	return g
}

func generator() *Generator {
	return NewGenerator(meta, config.FeedConfig{Path: "/rss.xml", AtomPath: "/atom.xml"})
}

type parsedRSS struct {
	Channel struct {
		Title         string `xml:"title"`
		LastBuildDate string `xml:"lastBuildDate"`
		Items         []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			GUID    string `xml:"guid"`
			Content string `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
		} `xml:"item"`
	} `xml:"channel"`
}

func parseRSS(t *testing.T, data []byte) parsedRSS {
	t.Helper()
	var out parsedRSS
	require.NoError(t, xml.Unmarshal(data, &out))
	return out
}

func TestItems_ExcludeDraftsEvenWhenPublished(t *testing.T) {
	g := graph(t, true, doc("a.md", "a", "2020-01-01", false), doc("b.md", "b", "2021-01-01", true))
	items := generator().Items(g)
	require.Len(t, items, 1)
	assert.Equal(t, "https://blog.example.com/a", items[0].URL)
}

func TestItems_DateDescendingStable(t *testing.T) {
	g := graph(t, false,
		doc("1.md", "one", "2020-01-01", false),
		doc("2.md", "two", "2022-01-01", false),
		doc("3.md", "three", "2020-01-01", false),
	)
	var slugs []string
	for _, it := range generator().Items(g) {
		slugs = append(slugs, strings.TrimPrefix(it.URL, "https://blog.example.com/"))
	}
	assert.Equal(t, []string{"two", "one", "three"}, slugs)
}

func TestItems_Limit(t *testing.T) {
	g := graph(t, false, doc("1.md", "one", "2020-01-01", false), doc("2.md", "two", "2021-01-01", false))
	items := NewGenerator(meta, config.FeedConfig{Path: "/rss.xml", Limit: 1}).Items(g)
	require.Len(t, items, 1)
	assert.Equal(t, "Post two", items[0].Title)
}

func TestRSS_WellFormed(t *testing.T) {
	gen := generator()
	g := graph(t, false, doc("hello.md", "hello", "2020-01-01", false), doc("x.md", "x", "2020-02-01", false))
	out, err := gen.RSS(gen.Items(g))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(out), xml.Header))
	assert.Contains(t, string(out), `<description>Notes &amp; &lt;asides&gt;</description>`)
	assert.Contains(t, string(out), `<atom:link href="https://blog.example.com/rss.xml" rel="self" type="application/rss+xml">`)
	assert.Contains(t, string(out), "<![CDATA[<p>Body of hello</p>")

	parsed := parseRSS(t, out)
	require.Len(t, parsed.Channel.Items, 2)
	assert.Equal(t, "https://blog.example.com/x", parsed.Channel.Items[0].Link)
	assert.Equal(t, "https://blog.example.com/x", parsed.Channel.Items[0].GUID)
	assert.Equal(t, "<p>Body of hello</p>\n", parsed.Channel.Items[1].Content)
	assert.Equal(t, "Sat, 01 Feb 2020 00:00:00 +0000", parsed.Channel.LastBuildDate)
}

func TestRSS_EmptyFeedIsValid(t *testing.T) {
	gen := generator()
	out, err := gen.RSS(gen.Items(graph(t, false, doc("d.md", "d", "2020-01-01", true))))
	require.NoError(t, err)

	parsed := parseRSS(t, out)
	assert.Equal(t, "Intelligible Babble", parsed.Channel.Title)
	assert.Empty(t, parsed.Channel.Items)
	assert.NotContains(t, string(out), "<item>")
	assert.NotContains(t, string(out), "lastBuildDate")
}

func TestRSS_EscapesMarkupInTitles(t *testing.T) {
	d := doc("a.md", "a", "2020-01-01", false)
	d.Entry.Title = "Generics <T> & you"
	out, err := generator().RSS(generator().Items(graph(t, false, d)))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title>Generics &lt;T&gt; &amp; you</title>")
}

func TestRSS_InvalidCharacterIsFatal(t *testing.T) {
	d := doc("bad.md", "bad", "2020-01-01", false)
	d.HTML = "<p>bell \x07</p>"
	_, err := generator().RSS(generator().Items(graph(t, false, d)))

	var serr *FeedSerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "bad.md", serr.Source)
	assert.Equal(t, "content", serr.Field)
	assert.Equal(t, 8, serr.Offset)
}

func TestRSS_Deterministic(t *testing.T) {
	gen := generator()
	g := graph(t, false, doc("a.md", "a", "2020-01-01", false))
	first, err := gen.RSS(gen.Items(g))
	require.NoError(t, err)
	second, err := gen.RSS(gen.Items(g))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAtom(t *testing.T) {
	gen := generator()
	out, err := gen.Atom(gen.Items(graph(t, false, doc("a.md", "a", "2020-01-01", false))))
	require.NoError(t, err)

	var parsed struct {
		Updated string `xml:"updated"`
		Entries []struct {
			ID      string `xml:"id"`
			Content string `xml:"content"`
		} `xml:"entry"`
	}
	require.NoError(t, xml.Unmarshal(out, &parsed))
	require.Len(t, parsed.Entries, 1)
	assert.True(t, strings.HasPrefix(parsed.Entries[0].ID, "urn:uuid:"))
	assert.Equal(t, Item{URL: "https://blog.example.com/a"}.AtomID(), parsed.Entries[0].ID)
	assert.Equal(t, "<p>Body of a</p>\n", parsed.Entries[0].Content)
	assert.Equal(t, "2020-01-01T00:00:00Z", parsed.Updated)

	empty, err := gen.Atom(nil)
	require.NoError(t, err)
	assert.Contains(t, string(empty), "<updated>1970-01-01T00:00:00Z</updated>")
}

func TestSitemapAndRobots(t *testing.T) {
	g := graph(t, false, doc("b.md", "b", "2021-05-01", false), doc("a.md", "a", "2020-01-01", false))
	out, err := Sitemap(meta, g)
	require.NoError(t, err)

	var parsed struct {
		URLs []struct {
			Loc     string `xml:"loc"`
			LastMod string `xml:"lastmod"`
		} `xml:"url"`
	}
	require.NoError(t, xml.Unmarshal(out, &parsed))
	require.Len(t, parsed.URLs, 3)
	assert.Equal(t, "https://blog.example.com/", parsed.URLs[0].Loc)
	assert.Equal(t, "2021-05-01", parsed.URLs[0].LastMod)
	assert.Equal(t, "https://blog.example.com/a", parsed.URLs[1].Loc)
	assert.NotContains(t, string(out), "404")

	robots := string(Robots(meta, true))
	assert.Contains(t, robots, "Sitemap: https://blog.example.com/sitemap.xml")
	assert.NotContains(t, string(Robots(meta, false)), "Sitemap")
}
