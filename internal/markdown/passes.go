package markdown

import (
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// Pass is one tree transformation in the chain. A pass leaves nodes it cannot
// handle unchanged and returns the (possibly new) root.
type Pass struct {
	Name        string
	Description string
	Apply       func(root gmast.Node, pc *PassContext) gmast.Node
}

// PassContext carries per-document state and options through the chain.
type PassContext struct {
	Source []byte
	Entry  *content.Entry
	Config config.MarkdownConfig

	resolver AssetResolver
	// linked maps rewritten destinations to their files, in first-seen order.
	linked      map[string]*LinkedFile
	linkedOrder []*LinkedFile
	tweets      int
}

func newPassContext(source []byte, entry *content.Entry, cfg config.MarkdownConfig, resolver AssetResolver) *PassContext {
	return &PassContext{
		Source:   source,
		Entry:    entry,
		Config:   cfg,
		resolver: resolver,
		linked:   make(map[string]*LinkedFile),
	}
}

func (pc *PassContext) addLinked(f *LinkedFile) {
	if _, ok := pc.linked[f.URL]; ok {
		return
	}
	pc.linked[f.URL] = f
	pc.linkedOrder = append(pc.linkedOrder, f)
}

// DefaultPasses returns the chain in execution order. The order is part of the
// contract: linked-files rewrites image destinations that responsive-images
// depends on, and code-titles must run before code blocks are emitted.
func DefaultPasses() []Pass {
	return []Pass{
		{Name: "code-titles", Description: "lift lang:title=name from fenced code info into a title block", Apply: codeTitles},
		{Name: "linked-files", Description: "rewrite relative links and images to published /static paths", Apply: linkedFiles},
		{Name: "responsive-images", Description: "wrap standalone linked images in aspect-ratio figures", Apply: responsiveImages},
		{Name: "tweet-embeds", Description: "turn standalone tweet links into embed blockquotes", Apply: tweetEmbeds},
		{Name: "responsive-iframes", Description: "wrap sized iframes in padding-ratio containers", Apply: responsiveIframes},
		{Name: "smartypants", Description: "curly quotes, dashes and ellipses in prose", Apply: smartypants},
	}
}

const titleMarker = ":title="

func codeTitles(root gmast.Node, pc *PassContext) gmast.Node {
	var blocks []*gmast.FencedCodeBlock
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if fcb, ok := n.(*gmast.FencedCodeBlock); ok && entering && fcb.Info != nil {
			blocks = append(blocks, fcb)
		}
		return gmast.WalkContinue, nil
	})

	for _, fcb := range blocks {
		seg := fcb.Info.Segment
		info := string(seg.Value(pc.Source))
		idx := strings.Index(info, titleMarker)
		if idx < 0 {
			continue
		}
		title := strings.TrimSpace(info[idx+len(titleMarker):])
		if title == "" {
			continue
		}

		if idx == 0 {
			fcb.Info = nil
		} else {
			fcb.Info = gmast.NewTextSegment(text.NewSegment(seg.Start, seg.Start+idx))
		}
		fcb.Parent().InsertBefore(fcb.Parent(), fcb, &CodeTitle{Title: title})
	}
	return root
}

func linkedFiles(root gmast.Node, pc *PassContext) gmast.Node {
	if pc.resolver == nil || pc.Entry == nil {
		return root
	}
	dir := pc.Entry.Dir()
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		var dest *[]byte
		switch v := n.(type) {
		case *gmast.Image:
			dest = &v.Destination
		case *gmast.Link:
			dest = &v.Destination
		default:
			return gmast.WalkContinue, nil
		}
		if f, ok := pc.resolver.Resolve(dir, string(*dest)); ok {
			*dest = []byte(f.URL)
			pc.addLinked(f)
		}
		return gmast.WalkContinue, nil
	})
	return root
}

func responsiveImages(root gmast.Node, pc *PassContext) gmast.Node {
	type target struct {
		para *gmast.Paragraph
		img  *gmast.Image
		file *LinkedFile
	}
	var targets []target
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		para, ok := n.(*gmast.Paragraph)
		if !entering || !ok {
			return gmast.WalkContinue, nil
		}
		img, ok := soleChild(para, pc.Source).(*gmast.Image)
		if !ok {
			return gmast.WalkSkipChildren, nil
		}
		if f, ok := pc.linked[string(img.Destination)]; ok && f.IsImage() {
			targets = append(targets, target{para: para, img: img, file: f})
		}
		return gmast.WalkSkipChildren, nil
	})

	for _, t := range targets {
		fig := &Figure{
			Src:    t.file.URL,
			Alt:    nodeText(t.img, pc.Source),
			Title:  string(t.img.Title),
			Width:  t.file.Width,
			Height: t.file.Height,
		}
		if pc.Config.ShowCaptions {
			fig.Caption = fig.Title
			if fig.Caption == "" {
				fig.Caption = fig.Alt
			}
		}
		t.para.Parent().ReplaceChild(t.para.Parent(), t.para, fig)
	}
	return root
}

// soleChild returns the only child of n, ignoring whitespace-only text, or nil.
func soleChild(n gmast.Node, source []byte) gmast.Node {
	var only gmast.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok && strings.TrimSpace(string(t.Segment.Value(source))) == "" {
			continue
		}
		if only != nil {
			return nil
		}
		only = c
	}
	return only
}

// nodeText concatenates the text beneath n.
func nodeText(n gmast.Node, source []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *gmast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(v.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
