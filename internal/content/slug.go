package content

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lower-cases s, folds diacritics and collapses every run of
// non-alphanumeric characters into a single hyphen.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// DeriveSlug resolves the slug for a document. An explicit slug is used as
// given, minus surrounding slashes. Otherwise the path relative to the content
// root is slugified after dropping its extension and a trailing index segment.
// When that leaves nothing, the title is slugified instead.
func DeriveSlug(id, title, explicit string) (slug string, fromFrontMatter bool) {
	if s := strings.Trim(strings.TrimSpace(explicit), "/"); s != "" {
		return s, true
	}

	p := strings.TrimSuffix(id, path.Ext(id))
	if p == "index" {
		p = ""
	}
	p = strings.TrimSuffix(p, "/index")
	if s := Slugify(p); s != "" {
		return s, false
	}
	return Slugify(title), false
}

// ValidateSlug reports why an explicit slug cannot be used as a route, or ""
// when it can. Every slash-separated segment must be a plain name.
func ValidateSlug(slug string) string {
	if strings.ContainsRune(slug, '\\') {
		return "must not contain backslashes"
	}
	for _, r := range slug {
		if unicode.IsControl(r) {
			return "must not contain control characters"
		}
	}
	for _, seg := range strings.Split(slug, "/") {
		switch seg {
		case "":
			return "must not contain empty path segments"
		case ".", "..":
			return fmt.Sprintf("must not contain %q segments", seg)
		}
	}
	return ""
}
