package markdown

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"golang.org/x/net/html"
)

var tweetURL = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:twitter|x)\.com/([A-Za-z0-9_]{1,15})/status(?:es)?/(\d+)(?:[/?#].*)?$`)

// canonicalTweetURL returns the twitter.com status URL for link, or "".
func canonicalTweetURL(link string) string {
	m := tweetURL.FindStringSubmatch(strings.TrimSpace(link))
	if m == nil {
		return ""
	}
	return "https://twitter.com/" + m[1] + "/status/" + m[2]
}

func tweetEmbeds(root gmast.Node, pc *PassContext) gmast.Node {
	type target struct {
		para *gmast.Paragraph
		url  string
	}
	var targets []target
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		para, ok := n.(*gmast.Paragraph)
		if !entering || !ok {
			return gmast.WalkContinue, nil
		}
		var dest string
		switch link := soleChild(para, pc.Source).(type) {
		case *gmast.AutoLink:
			dest = string(link.URL(pc.Source))
		case *gmast.Link:
			dest = string(link.Destination)
		}
		if u := canonicalTweetURL(dest); u != "" {
			targets = append(targets, target{para: para, url: u})
		}
		return gmast.WalkSkipChildren, nil
	})

	for _, t := range targets {
		t.para.Parent().ReplaceChild(t.para.Parent(), t.para, &TweetEmbed{URL: t.url})
		pc.tweets++
	}
	return root
}

func responsiveIframes(root gmast.Node, pc *PassContext) gmast.Node {
	type target struct {
		block *gmast.HTMLBlock
		node  *ResponsiveIframe
	}
	var targets []target
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		block, ok := n.(*gmast.HTMLBlock)
		if !ok {
			continue
		}
		if node, ok := parseIframe(htmlBlockSource(block, pc.Source)); ok {
			targets = append(targets, target{block: block, node: node})
		}
	}
	for _, t := range targets {
		root.ReplaceChild(root, t.block, t.node)
	}
	return root
}

func htmlBlockSource(block *gmast.HTMLBlock, source []byte) []byte {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	if block.HasClosure() {
		buf.Write(block.ClosureLine.Value(source))
	}
	return buf.Bytes()
}

// parseIframe accepts markup made of exactly one iframe with numeric width
// and height, optionally closed, surrounded by whitespace only.
func parseIframe(raw []byte) (*ResponsiveIframe, bool) {
	z := html.NewTokenizer(bytes.NewReader(raw))
	var start *html.Token
	closed := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if start == nil {
				return nil, false
			}
			return rewriteIframe(*start)
		case html.TextToken:
			if len(bytes.TrimSpace(z.Text())) > 0 {
				return nil, false
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "iframe" || start != nil {
				return nil, false
			}
			start = &tok
		case html.EndTagToken:
			tok := z.Token()
			if tok.Data != "iframe" || start == nil || closed {
				return nil, false
			}
			closed = true
		default:
			return nil, false
		}
	}
}

func rewriteIframe(tok html.Token) (*ResponsiveIframe, bool) {
	var width, height float64
	attrs := make([]html.Attribute, 0, len(tok.Attr)+1)
	for _, a := range tok.Attr {
		switch a.Key {
		case "width", "height":
			v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(a.Val), "px"), 64)
			if err != nil || v <= 0 {
				return nil, false
			}
			if a.Key == "width" {
				width = v
			} else {
				height = v
			}
		case "style":
		default:
			attrs = append(attrs, a)
		}
	}
	if width == 0 || height == 0 {
		return nil, false
	}
	attrs = append(attrs, html.Attribute{Key: "style", Val: "position: absolute; top: 0; left: 0; width: 100%; height: 100%;"})

	out := html.Token{Type: html.StartTagToken, Data: "iframe", Attr: attrs}
	return &ResponsiveIframe{Tag: out.String(), Ratio: height / width}, true
}
