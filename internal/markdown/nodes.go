package markdown

import (
	"fmt"
	"strconv"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

var (
	KindCodeTitle        = gmast.NewNodeKind("CodeTitle")
	KindFigure           = gmast.NewNodeKind("Figure")
	KindTweetEmbed       = gmast.NewNodeKind("TweetEmbed")
	KindResponsiveIframe = gmast.NewNodeKind("ResponsiveIframe")
)

// CodeTitle is a file name shown above a fenced code block.
type CodeTitle struct {
	gmast.BaseBlock
	Title string
}

func (n *CodeTitle) Kind() gmast.NodeKind { return KindCodeTitle }

func (n *CodeTitle) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Title": n.Title}, nil)
}

// Figure is a standalone image with a fixed aspect-ratio wrapper.
type Figure struct {
	gmast.BaseBlock
	Src     string
	Alt     string
	Title   string
	Caption string
	Width   int
	Height  int
}

func (n *Figure) Kind() gmast.NodeKind { return KindFigure }

func (n *Figure) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{
		"Src":  n.Src,
		"Size": fmt.Sprintf("%dx%d", n.Width, n.Height),
	}, nil)
}

// TweetEmbed is a tweet link rendered as a static embed blockquote.
type TweetEmbed struct {
	gmast.BaseBlock
	URL string
}

func (n *TweetEmbed) Kind() gmast.NodeKind { return KindTweetEmbed }

func (n *TweetEmbed) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"URL": n.URL}, nil)
}

// ResponsiveIframe wraps a sized iframe in a padding-ratio container.
type ResponsiveIframe struct {
	gmast.BaseBlock
	// Tag is the rewritten <iframe> start tag.
	Tag   string
	Ratio float64
}

func (n *ResponsiveIframe) Kind() gmast.NodeKind { return KindResponsiveIframe }

func (n *ResponsiveIframe) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Tag": n.Tag}, nil)
}

// nodeRenderer renders the custom block nodes.
type nodeRenderer struct {
	cfg config.MarkdownConfig
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindCodeTitle, r.renderCodeTitle)
	reg.Register(KindFigure, r.renderFigure)
	reg.Register(KindTweetEmbed, r.renderTweet)
	reg.Register(KindResponsiveIframe, r.renderIframe)
}

func (r *nodeRenderer) renderCodeTitle(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*CodeTitle)
	_, _ = fmt.Fprintf(w, "<div class=\"%s\">%s</div>\n", escape(r.cfg.CodeTitleClass), escape(n.Title))
	return gmast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderFigure(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*Figure)
	maxWidth := n.Width
	if r.cfg.ImageMaxWidth > 0 && maxWidth > r.cfg.ImageMaxWidth {
		maxWidth = r.cfg.ImageMaxWidth
	}

	_, _ = w.WriteString("<figure class=\"resp-image-figure\">\n")
	_, _ = fmt.Fprintf(w, "<span class=\"resp-image-wrapper\" style=\"position: relative; display: block; margin-left: auto; margin-right: auto; max-width: %dpx;\">\n", maxWidth)
	_, _ = fmt.Fprintf(w, "<span class=\"resp-image-ratio\" style=\"padding-bottom: %s%%; position: relative; bottom: 0; left: 0; display: block;\"></span>\n", percent(n.Height, n.Width))
	_, _ = fmt.Fprintf(w, "<img class=\"resp-image-image\" src=\"%s\" alt=\"%s\"", escape(n.Src), escape(n.Alt))
	if n.Title != "" {
		_, _ = fmt.Fprintf(w, " title=\"%s\"", escape(n.Title))
	}
	_, _ = fmt.Fprintf(w, " width=\"%d\" height=\"%d\" loading=\"lazy\" style=\"width: 100%%; height: 100%%; margin: 0; vertical-align: middle; position: absolute; top: 0; left: 0;\">\n", n.Width, n.Height)
	_, _ = w.WriteString("</span>\n")
	if n.Caption != "" {
		_, _ = fmt.Fprintf(w, "<figcaption class=\"resp-image-figcaption\">%s</figcaption>\n", escape(n.Caption))
	}
	_, _ = w.WriteString("</figure>\n")
	return gmast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderTweet(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*TweetEmbed)
	tc := r.cfg.Tweet
	_, _ = fmt.Fprintf(w, "<blockquote class=\"twitter-tweet\" data-align=\"%s\" data-theme=\"%s\"", escape(tc.Align), escape(tc.Theme))
	if tc.HideThread {
		_, _ = w.WriteString(" data-conversation=\"none\"")
	}
	_, _ = fmt.Fprintf(w, "><p><a href=\"%[1]s\">%[1]s</a></p></blockquote>\n", escape(n.URL))
	return gmast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderIframe(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*ResponsiveIframe)
	style := "padding-bottom: " + strconv.FormatFloat(n.Ratio*100, 'f', 4, 64) + "%; position: relative; height: 0; overflow: hidden;"
	if r.cfg.IframeWrapperStyle != "" {
		style += " " + r.cfg.IframeWrapperStyle
	}
	_, _ = fmt.Fprintf(w, "<div class=\"resp-iframe-wrapper\" style=\"%s\">\n%s</iframe>\n</div>\n", escape(style), n.Tag)
	return gmast.WalkSkipChildren, nil
}

func escape(s string) string {
	return string(util.EscapeHTML([]byte(s)))
}

func percent(num, den int) string {
	if den == 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(num)/float64(den)*100, 'f', 4, 64)
}
