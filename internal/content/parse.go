package content

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// dateLayouts are tried in order; layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// Parse builds an Entry from raw file content. id is the path relative to the
// content root and is used in errors and for slug derivation.
func Parse(id, sourcePath string, data []byte) (*Entry, error) {
	if !utf8.Valid(data) {
		return nil, malformed(id, "", "file is not valid UTF-8")
	}

	block, err := frontmatter.Split(data)
	if err != nil {
		return nil, &MalformedFrontMatterError{Path: id, Reason: "unterminated front-matter block", Err: err}
	}
	if !block.Present {
		return nil, malformed(id, "", "missing front-matter block")
	}

	fields, err := frontmatter.ParseYAML(block.Raw)
	if err != nil {
		return nil, &MalformedFrontMatterError{Path: id, Reason: "invalid YAML", Err: err}
	}

	e := &Entry{ID: id, SourcePath: sourcePath, Body: block.Body}

	var bad *MalformedFrontMatterError
	if e.Title, bad = requiredString(fields, "title"); bad != nil {
		return nil, withPath(bad, id)
	}
	if e.Date, bad = requiredDate(fields, "date"); bad != nil {
		return nil, withPath(bad, id)
	}
	if e.Draft, bad = optionalBool(fields, "draft"); bad != nil {
		return nil, withPath(bad, id)
	}
	if e.Tags, bad = optionalTags(fields, "tags"); bad != nil {
		return nil, withPath(bad, id)
	}
	if e.Description, bad = optionalString(fields, "description"); bad != nil {
		return nil, withPath(bad, id)
	}
	explicit, bad := optionalString(fields, "slug")
	if bad != nil {
		return nil, withPath(bad, id)
	}
	e.Slug, e.ExplicitSlug = DeriveSlug(id, e.Title, explicit)
	if e.ExplicitSlug {
		if reason := ValidateSlug(e.Slug); reason != "" {
			return nil, malformed(id, "slug", reason)
		}
	}
	if e.Slug == "" {
		return nil, malformed(id, "slug", "cannot derive a slug from path or title")
	}

	if e.Fingerprint, err = Fingerprint(fields, block.Body); err != nil {
		return nil, &MalformedFrontMatterError{Path: id, Reason: "cannot fingerprint", Err: err}
	}
	return e, nil
}

func withPath(err *MalformedFrontMatterError, path string) *MalformedFrontMatterError {
	err.Path = path
	return err
}

func requiredString(fields map[string]any, key string) (string, *MalformedFrontMatterError) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", malformed("", key, "required field is missing")
	}
	s, ok := raw.(string)
	if !ok {
		return "", malformed("", key, fmt.Sprintf("must be a string, got %T", raw))
	}
	if strings.TrimSpace(s) == "" {
		return "", malformed("", key, "must not be empty")
	}
	return strings.TrimSpace(s), nil
}

func optionalString(fields map[string]any, key string) (string, *MalformedFrontMatterError) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", malformed("", key, fmt.Sprintf("must be a string, got %T", raw))
	}
	return strings.TrimSpace(s), nil
}

func requiredDate(fields map[string]any, key string) (time.Time, *MalformedFrontMatterError) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return time.Time{}, malformed("", key, "required field is missing")
	}
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		if t, ok := ParseDate(v); ok {
			return t, nil
		}
		return time.Time{}, malformed("", key, fmt.Sprintf("unparseable date %q", v))
	default:
		return time.Time{}, malformed("", key, fmt.Sprintf("must be an ISO-8601 date, got %T", raw))
	}
}

// ParseDate accepts the ISO-8601 forms used in front-matter.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func optionalBool(fields map[string]any, key string) (bool, *MalformedFrontMatterError) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, malformed("", key, fmt.Sprintf("must be a boolean, got %T", raw))
	}
	return b, nil
}

// optionalTags accepts a YAML list of strings or a comma-separated string.
func optionalTags(fields map[string]any, key string) ([]string, *MalformedFrontMatterError) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil, nil
	}
	var tags []string
	switch v := raw.(type) {
	case string:
		tags = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, malformed("", key, fmt.Sprintf("entries must be strings, got %T", item))
			}
			tags = append(tags, s)
		}
	default:
		return nil, malformed("", key, fmt.Sprintf("must be a list of strings, got %T", raw))
	}

	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
