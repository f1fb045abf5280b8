package markdown

import (
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
	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

func testConfig() config.MarkdownConfig {
	return config.Default().Markdown
}

func entry(body string) *content.Entry {
	return &content.Entry{
		ID:    "hello.md",
		Title: "Hello",
		Date:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Slug:  "hello",
		Body:  []byte(body),
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	fh, err := os.Create(path)
	require.NoError(t, err)
	defer fh.Close()
	require.NoError(t, png.Encode(fh, img))
}

func TestTransform_Heading(t *testing.T) {
	doc, err := NewTransformer(testConfig()).Transform(entry("# Hi\nworld"))
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, "<h1>Hi</h1>")
	assert.Contains(t, doc.HTML, "<p>world</p>")
	assert.Equal(t, "Hi world", doc.PlainText)
	assert.Equal(t, 2, doc.WordCount)
	assert.Equal(t, 1, doc.ReadingTime)
	assert.Equal(t, "hello", doc.Slug)
	assert.Equal(t, "Hi world", doc.Excerpt)
}

func TestTransform_ReadingTime(t *testing.T) {
	tests := []struct {
		words int
		wpm   int
		want  int
	}{
		{words: 400, wpm: 200, want: 2},
		{words: 401, wpm: 200, want: 3},
		{words: 199, wpm: 200, want: 1},
		{words: 400, wpm: 250, want: 2},
	}
	for _, tt := range tests {
		cfg := testConfig()
		cfg.WordsPerMinute = tt.wpm
		body := strings.TrimSpace(strings.Repeat("word ", tt.words))

		doc, err := NewTransformer(cfg).Transform(entry(body))
		require.NoError(t, err)
		assert.Equal(t, tt.words, doc.WordCount)
		assert.Equal(t, tt.want, doc.ReadingTime, "%d words at %d wpm", tt.words, tt.wpm)
	}
}

func TestTransform_ExcerptPrefersDescription(t *testing.T) {
	e := entry(strings.Repeat("lorem ipsum ", 40))
	doc, err := NewTransformer(testConfig(), WithExcerptLength(20)).Transform(e)
	require.NoError(t, err)
	assert.Equal(t, "lorem ipsum lorem…", doc.Excerpt)

	e.Description = "Hand written"
	doc, err = NewTransformer(testConfig()).Transform(e)
	require.NoError(t, err)
	assert.Equal(t, "Hand written", doc.Excerpt)
}

func TestTransform_CodeTitle(t *testing.T) {
	doc, err := NewTransformer(testConfig()).Transform(entry("```js:title=example.js\nconst a = 1;\n```\n"))
	require.NoError(t, err)

	titleAt := strings.Index(doc.HTML, `<div class="remark-code-title">example.js</div>`)
	codeAt := strings.Index(doc.HTML, "<pre")
	require.GreaterOrEqual(t, titleAt, 0, doc.HTML)
	require.Greater(t, codeAt, titleAt)
	assert.NotContains(t, doc.HTML, "title=example.js")
}

func TestTransform_LinkedFilesAndResponsiveImage(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "photo.png"), 800, 400)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "paper.pdf"), []byte("%PDF"), 0o600))

	e := entry("![A photo](./photo.png \"Sunset\")\n\nRead [the paper](paper.pdf) or [elsewhere](https://example.com/x.pdf).\n")
	e.SourcePath = filepath.Join(dir, "index.md")

	doc, err := NewTransformer(testConfig()).Transform(e)
	require.NoError(t, err)

	require.Len(t, doc.LinkedFiles, 2)
	img := doc.LinkedFiles[0]
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, 400, img.Height)
	assert.True(t, strings.HasPrefix(img.Route, StaticPrefix))
	assert.True(t, strings.HasSuffix(img.Route, "/photo.png"))

	assert.Contains(t, doc.HTML, `<figure class="resp-image-figure">`)
	assert.Contains(t, doc.HTML, "max-width: 590px;")
	assert.Contains(t, doc.HTML, "padding-bottom: 50.0000%;")
	assert.Contains(t, doc.HTML, `src="`+img.URL+`"`)
	assert.Contains(t, doc.HTML, `<figcaption class="resp-image-figcaption">Sunset</figcaption>`)
	assert.Contains(t, doc.HTML, `href="`+doc.LinkedFiles[1].URL+`"`)
	assert.Contains(t, doc.HTML, `href="https://example.com/x.pdf"`)
}

func TestTransform_LinkedFilesStayInsideRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "content")
	posts := filepath.Join(root, "posts")
	require.NoError(t, os.MkdirAll(posts, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret.txt"), []byte("token"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "shared.txt"), []byte("shared"), 0o600))
	require.NoError(t, os.Symlink(filepath.Join(base, "secret.txt"), filepath.Join(posts, "alias.txt")))

	body := "[shared](../shared.txt) [secret](../../secret.txt) [alias](alias.txt)\n"
	e := entry(body)
	e.SourcePath = filepath.Join(posts, "a.md")

	doc, err := NewTransformer(testConfig(), WithAssetResolver(NewFileResolver(root))).Transform(e)
	require.NoError(t, err)
	require.Len(t, doc.LinkedFiles, 1)
	assert.Equal(t, filepath.Join(root, "shared.txt"), doc.LinkedFiles[0].Source)
	assert.Contains(t, doc.HTML, `href="../../secret.txt"`)
	assert.Contains(t, doc.HTML, `href="alias.txt"`)

	doc, err = NewTransformer(testConfig()).Transform(e)
	require.NoError(t, err)
	assert.Empty(t, doc.LinkedFiles, "without a root only the document directory is reachable")
}

func TestTransform_MissingImageLeftUnchanged(t *testing.T) {
	e := entry("![gone](missing.png)\n")
	e.SourcePath = filepath.Join(t.TempDir(), "a.md")

	doc, err := NewTransformer(testConfig()).Transform(e)
	require.NoError(t, err)
	assert.Empty(t, doc.LinkedFiles)
	assert.Contains(t, doc.HTML, `<img src="missing.png" alt="gone">`)
	assert.NotContains(t, doc.HTML, "<figure")
}

func TestTransform_TweetEmbed(t *testing.T) {
	doc, err := NewTransformer(testConfig()).Transform(entry("Look:\n\nhttps://x.com/golang/status/123456?s=20\n"))
	require.NoError(t, err)

	assert.True(t, doc.HasTweetEmbeds)
	assert.Contains(t, doc.HTML, `<blockquote class="twitter-tweet" data-align="center" data-theme="dark">`)
	assert.Contains(t, doc.HTML, `href="https://twitter.com/golang/status/123456"`)
}

func TestTransform_ResponsiveIframe(t *testing.T) {
	body := `<iframe width="560" height="315" src="https://www.youtube.com/embed/abc" frameborder="0"></iframe>` + "\n"
	doc, err := NewTransformer(testConfig()).Transform(entry(body))
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, `<div class="resp-iframe-wrapper" style="padding-bottom: 56.2500%; position: relative; height: 0; overflow: hidden; margin-bottom: 1.0725rem">`)
	assert.Contains(t, doc.HTML, `src="https://www.youtube.com/embed/abc"`)
	assert.NotContains(t, doc.HTML, `width="560"`)
}

func TestTransform_Smartypants(t *testing.T) {
	doc, err := NewTransformer(testConfig()).Transform(entry("\"Quoted\" -- it's done...\nnext `\"code\"` line\n"))
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, "“Quoted” — it’s done…\nnext")
	assert.Contains(t, doc.HTML, "<code>&quot;code&quot;</code>")

	doc, err = NewTransformer(testConfig()).Transform(entry("She said \\\"no\\\" \\-\\- \\'really\\' \"yes\"\n"))
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "She said &quot;no&quot; -- 'really' “yes”")
	assert.NotContains(t, doc.HTML, `\`)
}

func TestTransform_TransformErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unterminated fence", body: "intro\n\n```go\nfunc main() {}\n"},
		{name: "invalid utf-8", body: "bad \xff bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransformer(testConfig()).Transform(entry(tt.body))
			var terr *TransformError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, "hello.md", terr.Path)
		})
	}
}

func TestTransform_PanickingPassIsIsolated(t *testing.T) {
	boom := Pass{Name: "boom", Apply: func(gmast.Node, *PassContext) gmast.Node { panic("kaboom") }}
	tr := NewTransformer(testConfig(), WithPasses(boom))

	_, err := tr.Transform(entry("text"))
	var terr *TransformError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "boom", terr.Pass)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestTransform_Deterministic(t *testing.T) {
	body := "# T\n\n\"a\" -- b\n\n```go:title=main.go\npackage main\n```\n"
	first, err := NewTransformer(testConfig()).Transform(entry(body))
	require.NoError(t, err)
	second, err := NewTransformer(testConfig()).Transform(entry(body))
	require.NoError(t, err)
	assert.Equal(t, first.HTML, second.HTML)
}

func TestPassOrder(t *testing.T) {
	var names []string
	for _, p := range NewTransformer(testConfig()).Passes() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"code-titles", "linked-files", "responsive-images", "tweet-embeds", "responsive-iframes", "smartypants"}, names)
}

func TestHighlightCSS(t *testing.T) {
	css, err := HighlightCSS("github")
	require.NoError(t, err)
	assert.Contains(t, string(css), ".chroma")
}
