package markdown

import (
	"strings"
	"unicode"
	"unicode/utf8"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

func smartypants(root gmast.Node, pc *PassContext) gmast.Node {
	var texts []*gmast.Text
	var converted []string

	prev := rune(0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if n.Type() == gmast.TypeBlock {
			prev = 0
		}
		switch v := n.(type) {
		case *gmast.CodeSpan:
			prev = 'x'
			return gmast.WalkSkipChildren, nil
		case *gmast.RawHTML, *gmast.AutoLink:
			return gmast.WalkSkipChildren, nil
		case *gmast.Text:
			if v.IsRaw() {
				return gmast.WalkContinue, nil
			}
			raw := string(v.Segment.Value(pc.Source))
			out, last := smarten(raw, prev)
			if last != 0 {
				prev = last
			}
			if v.SoftLineBreak() || v.HardLineBreak() {
				prev = ' '
			}
			if out != raw {
				texts = append(texts, v)
				converted = append(converted, out)
			}
		}
		return gmast.WalkContinue, nil
	})

	for i, t := range texts {
		parent := t.Parent()
		s := gmast.NewString([]byte(converted[i]))
		parent.ReplaceChild(parent, t, s)
		if t.SoftLineBreak() || t.HardLineBreak() {
			// An empty text node keeps the line break the original carried.
			brk := gmast.NewTextSegment(text.NewSegment(t.Segment.Stop, t.Segment.Stop))
			brk.SetSoftLineBreak(t.SoftLineBreak())
			brk.SetHardLineBreak(t.HardLineBreak())
			parent.InsertAfter(parent, s, brk)
		}
	}
	return root
}

// smarten converts straight quotes, double hyphens and triple dots in s.
// Backslash-escaped punctuation is copied as is and does not become prev.
// prev is the rune preceding s in the same block; the last rune written is returned.
func smarten(s string, prev rune) (string, rune) {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r == '\\' && i+1 < len(rs) && escapable(rs[i+1]) {
			// Escaped punctuation is literal and left for the renderer to unescape.
			b.WriteRune(r)
			b.WriteRune(rs[i+1])
			i++
			continue
		}
		switch {
		case r == '.' && i+2 < len(rs) && rs[i+1] == '.' && rs[i+2] == '.':
			r = '…'
			i += 2
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			r = '—'
			i++
			if i+1 < len(rs) && rs[i+1] == '-' {
				i++
			}
		case r == '"':
			if opensQuote(prev) {
				r = '“'
			} else {
				r = '”'
			}
		case r == '\'':
			if opensQuote(prev) {
				r = '‘'
			} else {
				r = '’'
			}
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String(), prev
}

func escapable(r rune) bool {
	return r < utf8.RuneSelf && util.IsPunct(byte(r))
}

func opensQuote(prev rune) bool {
	return prev == 0 || unicode.IsSpace(prev) || strings.ContainsRune("([{—–-/“‘", prev)
}
