package site

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

var meta = config.SiteMetadata{Title: "Blog", URL: "https://blog.example.com"}

func doc(id, slug, date string, draft bool, tags ...string) *markdown.Document {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return &markdown.Document{
		Entry: &content.Entry{ID: id, Title: "Title " + slug, Date: d, Draft: draft, Tags: tags, Slug: slug},
		Slug:  slug,
	}
}

func routes(pages []*Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Route)
	}
	return out
}

func TestBuild_PostsAndFixedPages(t *testing.T) {
	docs := []*markdown.Document{
		doc("a.md", "alpha", "2020-01-01", false, "Go"),
		doc("b.md", "beta", "2021-06-01", false, "go", "Web Dev"),
		doc("c.md", "gamma", "2019-03-01", true, "go"),
	}
	g, err := NewBuilder(meta, Options{}).Build(docs)
	require.NoError(t, err)

	assert.Equal(t, []string{"/beta", "/alpha", "/", "/tags", "/tags/go", "/tags/web-dev", "/404.html"}, routes(g.Pages))
	assert.Equal(t, []string{"c.md"}, g.Drafts)

	beta, ok := g.Page("/beta")
	require.True(t, ok)
	assert.Equal(t, KindPost, beta.Kind)
	assert.Nil(t, beta.Newer)
	assert.Equal(t, "a.md", beta.Older.Source())

	home, _ := g.Page("/")
	assert.Equal(t, KindIndex, home.Kind)
	require.Len(t, home.Listing, 2)
	assert.Equal(t, "b.md", home.Listing[0].Source())

	goTag, _ := g.Page("/tags/go")
	assert.Equal(t, "go", goTag.Tag.Name, "first spelling in listing order names the tag")
	assert.Len(t, goTag.Listing, 2)

	notFound, _ := g.Page("/404.html")
	assert.Equal(t, KindStatic, notFound.Kind)
}

func TestBuild_IncludeDrafts(t *testing.T) {
	g, err := NewBuilder(meta, Options{IncludeDrafts: true}).Build([]*markdown.Document{doc("a.md", "a", "2020-01-01", true)})
	require.NoError(t, err)
	assert.Len(t, g.Posts(), 1)
	assert.Empty(t, g.Drafts)
}

func TestBuild_DuplicateRoute(t *testing.T) {
	tests := []struct {
		name    string
		docs    []*markdown.Document
		opts    Options
		route   string
		sources []string
	}{
		{
			name:    "two posts",
			docs:    []*markdown.Document{doc("one/foo.md", "foo", "2020-01-01", false), doc("two/foo.md", "foo", "2020-01-02", false)},
			route:   "/foo",
			sources: []string{"one/foo.md", "two/foo.md"},
		},
		{
			name:    "post shadows tag overview",
			docs:    []*markdown.Document{doc("tags.md", "tags", "2020-01-01", false, "x")},
			route:   "/tags",
			sources: []string{"tags.md", "index page /tags"},
		},
		{
			name:    "post shadows generated feed",
			docs:    []*markdown.Document{doc("rss.md", "rss.xml", "2020-01-01", false)},
			opts:    Options{Reserved: []string{"/rss.xml"}},
			route:   "/rss.xml",
			sources: []string{"rss.md", "generated /rss.xml"},
		},
		{
			name:    "explicit index file shadows home",
			docs:    []*markdown.Document{doc("home.md", "index.html", "2020-01-01", false)},
			route:   "/",
			sources: []string{"home.md", "index page /"},
		},
		{
			name:    "directory and its index file",
			docs:    []*markdown.Document{doc("a.md", "a", "2020-01-01", false), doc("b.md", "a/index.html", "2020-01-02", false)},
			route:   "/a/index.html",
			sources: []string{"a.md", "b.md"},
		},
		{
			name:    "post shadows site stylesheet",
			docs:    []*markdown.Document{doc("css.md", "css/site.css", "2020-01-01", false)},
			opts:    Options{Reserved: []string{"/css/site.css", "/css/highlight.css"}},
			route:   "/css/site.css",
			sources: []string{"css.md", "generated /css/site.css"},
		},
		{
			name:    "post directory over generated file",
			docs:    []*markdown.Document{doc("feed.md", "rss.xml/extra", "2020-01-01", false)},
			opts:    Options{Reserved: []string{"/rss.xml"}},
			route:   "/rss.xml",
			sources: []string{"feed.md", "generated /rss.xml"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(meta, tt.opts).Build(tt.docs)
			var dup *DuplicateRouteError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.route, dup.Route)
			assert.Equal(t, tt.sources, dup.Sources)
			for _, s := range tt.sources {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestBuild_NestedRoutesDoNotCollide(t *testing.T) {
	docs := []*markdown.Document{
		doc("a.md", "2021", "2020-01-01", false),
		doc("b.md", "2021/notes", "2020-01-02", false),
		doc("c.md", "2021/notes.html", "2020-01-03", false),
	}
	_, err := NewBuilder(meta, Options{Reserved: []string{"/css/site.css", "/css/highlight.css"}}).Build(docs)
	require.NoError(t, err)
}

func TestBuild_DraftsDoNotCollide(t *testing.T) {
	docs := []*markdown.Document{doc("a.md", "foo", "2020-01-01", false), doc("b.md", "foo", "2020-01-02", true)}
	_, err := NewBuilder(meta, Options{}).Build(docs)
	require.NoError(t, err)
}

func TestBuild_EmptySite(t *testing.T) {
	g, err := NewBuilder(meta, Options{}).Build(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/404.html"}, routes(g.Pages))
}

func TestSortByDate_StableForTies(t *testing.T) {
	docs := []*markdown.Document{
		doc("1.md", "one", "2020-01-01", false),
		doc("2.md", "two", "2021-01-01", false),
		doc("3.md", "three", "2020-01-01", false),
		doc("4.md", "four", "2021-01-01", false),
	}
	sorted := SortByDate(docs)

	var ids []string
	for _, d := range sorted {
		ids = append(ids, d.Source())
	}
	assert.Equal(t, []string{"2.md", "4.md", "1.md", "3.md"}, ids)
	assert.Equal(t, "1.md", docs[0].Source(), "input untouched")
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "index.html", OutputPath("/"))
	assert.Equal(t, "hello/index.html", OutputPath("/hello"))
	assert.Equal(t, "tags/go/index.html", OutputPath("/tags/go/"))
	assert.Equal(t, "404.html", OutputPath("/404.html"))
}
