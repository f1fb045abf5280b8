package render

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
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
	Title:         "Intelligible Babble",
	URL:           "https://blog.example.com",
	Author:        "Ada",
	AuthorTagline: "Writes things down.",
	Social:        config.Social{Twitter: "ada", GitHub: "ada"},
}

func post(slug, date, html string, tags ...string) *markdown.Document {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return &markdown.Document{
		Entry:       &content.Entry{ID: slug + ".md", Title: "Post " + slug, Date: d, Slug: slug, Tags: tags},
		Slug:        slug,
		HTML:        html,
		Excerpt:     "about " + slug,
		ReadingTime: 1,
	}
}

func buildGraph(t *testing.T, docs ...*markdown.Document) *site.Graph {
	t.Helper()
	g, err := site.NewBuilder(meta, site.Options{}).Build(docs)
	require.NoError(t, err)
	return g
}

func newRenderer(t *testing.T, out string, opts ...Option) *Renderer {
	t.Helper()
	r, err := NewRenderer(meta, config.OutputConfig{Directory: out, MaxImageWidth: 100}, opts...)
	require.NoError(t, err)
	return r
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRender_WritesPagesAndArtifacts(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public")
	g := buildGraph(t,
		post("hello", "2020-01-01", "<h1>Hi</h1>\n<p>world</p>\n", "Go"),
		post("older", "2019-06-01", "<p>old</p>\n"),
	)
	r := newRenderer(t, out, WithFeeds("/rss.xml", ""))

	err := r.Render(context.Background(), g, []Artifact{{Path: "rss.xml", Data: []byte("<rss/>")}})
	require.NoError(t, err)

	hello := readFile(t, filepath.Join(out, "hello", "index.html"))
	assert.Contains(t, hello, "<h1>Hi</h1>")
	assert.Contains(t, hello, "<title>Post hello | Intelligible Babble</title>")
	assert.Contains(t, hello, `<time datetime="2020-01-01">January 1, 2020</time>`)
	assert.Contains(t, hello, `href="/older" rel="next"`)
	assert.Contains(t, hello, `href="/tags/go"`)
	assert.Contains(t, hello, "https://twitter.com/ada")
	assert.Contains(t, hello, "Writes things down.")
	assert.Contains(t, hello, `href="https://blog.example.com/rss.xml"`)
	assert.NotContains(t, hello, "widgets.js")

	index := readFile(t, filepath.Join(out, "index.html"))
	assert.Contains(t, index, `<a href="/hello">Post hello</a>`)
	assert.Less(t, strings.Index(index, "/hello"), strings.Index(index, "/older"))

	assert.Contains(t, readFile(t, filepath.Join(out, "404.html")), "Not Found")
	assert.Contains(t, readFile(t, filepath.Join(out, "tags", "go", "index.html")), "Post hello")
	assert.Contains(t, readFile(t, filepath.Join(out, "tags", "index.html")), "Go</a> (1)")
	assert.Equal(t, "<rss/>", readFile(t, filepath.Join(out, "rss.xml")))
	assert.FileExists(t, filepath.Join(out, "css", "site.css"))

	assert.NoDirExists(t, out+".staging")
	assert.NoDirExists(t, out+".prev")
	assert.Equal(t, Stats{Pages: 6, Artifacts: 1}, r.Stats())
}

func TestRender_TweetScriptOnlyWhenEmbedded(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public")
	tweet := post("tweet", "2020-01-01", "<blockquote class=\"twitter-tweet\"></blockquote>\n")
	tweet.HasTweetEmbeds = true
	require.NoError(t, newRenderer(t, out).Render(context.Background(), buildGraph(t, tweet), nil))

	assert.Contains(t, readFile(t, filepath.Join(out, "tweet", "index.html")), "platform.twitter.com/widgets.js")
	assert.NotContains(t, readFile(t, filepath.Join(out, "index.html")), "widgets.js")
}

func TestRender_ReplacesPreviousOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.html"), []byte("old"), 0o644))

	require.NoError(t, newRenderer(t, out).Render(context.Background(), buildGraph(t, post("a", "2020-01-01", "<p>a</p>")), nil))

	assert.NoFileExists(t, filepath.Join(out, "stale.html"))
	assert.FileExists(t, filepath.Join(out, "a", "index.html"))
	assert.NoDirExists(t, out+".prev")
}

func TestRender_FailureKeepsExistingOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("keep"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newRenderer(t, out).Render(ctx, buildGraph(t, post("a", "2020-01-01", "<p>a</p>")), nil)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, "keep", readFile(t, filepath.Join(out, "index.html")))
	assert.NoDirExists(t, out+".staging")
}

func TestRender_LinkedFilesAreDownscaled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.png")
	writePNG(t, src, 400, 200)

	doc := post("pics", "2020-01-01", "<p>img</p>")
	doc.LinkedFiles = []*markdown.LinkedFile{{Source: src, Route: "/static/abc/wide.png", URL: "/static/abc/wide.png", Width: 400, Height: 200}}
	out := filepath.Join(dir, "public")
	r := newRenderer(t, out)
	require.NoError(t, r.Render(context.Background(), buildGraph(t, doc), nil))

	f, err := os.Open(filepath.Join(out, "static", "abc", "wide.png"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
	assert.Equal(t, 1, r.Stats().LinkedFiles)
}

func TestRender_CopiesStaticDir(t *testing.T) {
	dir := t.TempDir()
	static := filepath.Join(dir, "static")
	require.NoError(t, os.MkdirAll(filepath.Join(static, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(static, "favicon.ico"), []byte("ico"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "img", "avatar.jpg"), []byte("jpg"), 0o644))

	out := filepath.Join(dir, "public")
	r := newRenderer(t, out, WithStaticDir(static))
	require.NoError(t, r.Render(context.Background(), buildGraph(t), nil))

	assert.Equal(t, "ico", readFile(t, filepath.Join(out, "favicon.ico")))
	assert.Equal(t, "jpg", readFile(t, filepath.Join(out, "img", "avatar.jpg")))
	assert.Equal(t, 2, r.Stats().StaticFiles)
	assert.Contains(t, readFile(t, filepath.Join(out, "index.html")), "Nothing published yet.")
}

func TestRender_Deterministic(t *testing.T) {
	dir := t.TempDir()
	g := buildGraph(t, post("a", "2020-01-01", "<p>a</p>", "x", "y"), post("b", "2020-01-01", "<p>b</p>", "y"))

	var pages []string
	for _, name := range []string{"one", "two"} {
		out := filepath.Join(dir, name)
		require.NoError(t, newRenderer(t, out).Render(context.Background(), g, nil))
		pages = append(pages, readFile(t, filepath.Join(out, "index.html"))+readFile(t, filepath.Join(out, "tags", "y", "index.html")))
	}
	assert.Equal(t, pages[0], pages[1])
}

func TestWriteFile_StaysUnderRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "site")
	require.NoError(t, os.MkdirAll(root, 0o755))

	require.NoError(t, writeFile(root, "/posts/a/index.html", []byte("ok")))
	assert.Equal(t, "ok", readFile(t, filepath.Join(root, "posts", "a", "index.html")))

	for _, rel := range []string{"../escaped/index.html", "/a/../../escaped.html", "..", "/"} {
		err := writeFile(root, rel, []byte("nope"))
		assert.Error(t, err, rel)
	}
	_, err := os.Stat(filepath.Join(parent, "escaped"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(parent, "escaped.html"))
	assert.True(t, os.IsNotExist(err))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}
