// Package markdown renders content entries to HTML through goldmark and an
// ordered chain of syntax tree passes, then derives plain text, excerpt and
// reading time from the result.
package markdown

import (
	"bytes"
	"fmt"
	"log/slog"
	"unicode/utf8"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Transformer turns entries into Documents. It is not safe for concurrent use.
type Transformer struct {
	cfg           config.MarkdownConfig
	excerptLength int
	md            goldmark.Markdown
	passes        []Pass
	resolver      AssetResolver
	logger        *slog.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithPasses replaces the pass chain.
func WithPasses(passes ...Pass) Option {
	return func(t *Transformer) { t.passes = passes }
}

// WithAssetResolver sets how linked files are located.
func WithAssetResolver(r AssetResolver) Option {
	return func(t *Transformer) { t.resolver = r }
}

// WithExcerptLength sets the excerpt size in characters.
func WithExcerptLength(n int) Option {
	return func(t *Transformer) { t.excerptLength = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTransformer creates a transformer with the default pass chain.
func NewTransformer(cfg config.MarkdownConfig, opts ...Option) *Transformer {
	t := &Transformer{
		cfg:           cfg,
		excerptLength: 140,
		passes:        DefaultPasses(),
		resolver:      NewFileResolver(""),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(cfg.HighlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.TabWidth(2),
				),
			),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&nodeRenderer{cfg: cfg}, 500)),
		),
	)
	return t
}

// Passes returns the pass chain in execution order.
func (t *Transformer) Passes() []Pass {
	out := make([]Pass, len(t.passes))
	copy(out, t.passes)
	return out
}

// Transform renders one entry. Failures are returned as *TransformError.
func (t *Transformer) Transform(entry *content.Entry) (*Document, error) {
	source := entry.Body
	if !utf8.Valid(source) {
		return nil, &TransformError{Path: entry.ID, Reason: "body is not valid UTF-8"}
	}
	if err := checkFences(source); err != nil {
		return nil, &TransformError{Path: entry.ID, Reason: "unbalanced markup", Err: err}
	}

	root := t.md.Parser().Parse(text.NewReader(source))
	pc := newPassContext(source, entry, t.cfg, t.resolver)
	for _, p := range t.passes {
		var err error
		if root, err = runPass(p, root, pc); err != nil {
			return nil, &TransformError{Path: entry.ID, Pass: p.Name, Reason: "pass failed", Err: err}
		}
	}

	var buf bytes.Buffer
	if err := t.md.Renderer().Render(&buf, source, root); err != nil {
		return nil, &TransformError{Path: entry.ID, Reason: "render failed", Err: err}
	}

	doc := &Document{
		Entry:          entry,
		HTML:           buf.String(),
		Slug:           entry.Slug,
		LinkedFiles:    pc.linkedOrder,
		HasTweetEmbeds: pc.tweets > 0,
	}
	doc.PlainText = plainText(doc.HTML)
	doc.WordCount = wordCount(doc.PlainText)
	doc.ReadingTime = readingTime(doc.WordCount, t.cfg.WordsPerMinute)
	doc.Excerpt = entry.Description
	if doc.Excerpt == "" {
		doc.Excerpt = excerpt(doc.PlainText, t.excerptLength)
	}

	t.logger.Debug("Transformed document",
		logfields.Path(entry.ID),
		logfields.Slug(doc.Slug),
		slog.Int("words", doc.WordCount),
		slog.Int("linked_files", len(doc.LinkedFiles)))
	return doc, nil
}

func runPass(p Pass, root gmast.Node, pc *PassContext) (out gmast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	out = p.Apply(root, pc)
	if out == nil {
		return nil, fmt.Errorf("pass returned no tree")
	}
	return out, nil
}

// HighlightCSS returns the stylesheet for class-based code highlighting.
// Unknown style names fall back to chroma's default style.
func HighlightCSS(style string) ([]byte, error) {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(style)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
