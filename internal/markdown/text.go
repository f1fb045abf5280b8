package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// checkFences reports a fenced code block that is opened but never closed.
// goldmark would silently run such a block to the end of the document.
func checkFences(body []byte) error {
	var fenceChar byte
	fenceLen, openedAt := 0, 0
	for i, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		indent := len(line) - len(bytes.TrimLeft(line, " "))
		if indent > 3 {
			continue
		}
		trimmed := line[indent:]
		if len(trimmed) < 3 || (trimmed[0] != '`' && trimmed[0] != '~') {
			continue
		}
		ch := trimmed[0]
		n := 0
		for n < len(trimmed) && trimmed[n] == ch {
			n++
		}
		if n < 3 {
			continue
		}
		rest := bytes.TrimSpace(trimmed[n:])

		if fenceLen == 0 {
			if ch == '`' && bytes.IndexByte(rest, '`') >= 0 {
				continue
			}
			fenceChar, fenceLen, openedAt = ch, n, i+1
			continue
		}
		if ch == fenceChar && n >= fenceLen && len(rest) == 0 {
			fenceLen = 0
		}
	}
	if fenceLen > 0 {
		return fmt.Errorf("fenced code block opened at line %d is never closed", openedAt)
	}
	return nil
}

// plainText strips tags from rendered HTML, skipping script and style
// content, and collapses whitespace.
func plainText(rendered string) string {
	z := html.NewTokenizer(strings.NewReader(rendered))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				skip++
			}
			if breaksWords(a) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
			if breaksWords(a) {
				b.WriteByte(' ')
			}
		}
	}
}

func breaksWords(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Hr, atom.Li, atom.Ul, atom.Ol, atom.Pre,
		atom.Blockquote, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Figure, atom.Figcaption, atom.Table, atom.Tr, atom.Td, atom.Th,
		atom.Img, atom.Section, atom.Dd, atom.Dt:
		return true
	}
	return false
}

// wordCount counts whitespace-delimited tokens.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

// readingTime is ceil(words / wordsPerMinute) in whole minutes.
func readingTime(words, wordsPerMinute int) int {
	if wordsPerMinute <= 0 || words <= 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

// excerpt returns the first limit characters of s, cut back to a word
// boundary, with an ellipsis when anything was dropped.
func excerpt(s string, limit int) string {
	rs := []rune(s)
	if limit <= 0 || len(rs) <= limit {
		return s
	}
	cut := rs[:limit]
	if !unicode.IsSpace(rs[limit]) {
		if i := lastSpace(cut); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "…"
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if unicode.IsSpace(rs[i]) {
			return i
		}
	}
	return -1
}
