// Package frontmatter splits and joins YAML front-matter blocks at the head of
// Markdown documents.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingClosingDelimiter indicates the document opened a front-matter
	// block but never closed it.
	ErrMissingClosingDelimiter = errors.New("front-matter opening delimiter found but closing delimiter is missing")
	// ErrNotMapping indicates the front-matter is valid YAML but not a key/value mapping.
	ErrNotMapping = errors.New("front-matter is not a YAML mapping")
)

// Block is a document split into its front-matter and body.
type Block struct {
	// Raw is the YAML between the delimiters, without them.
	Raw  []byte
	Body []byte
	// Present is false when the document has no front-matter block at all.
	Present bool
	// Newline is the line ending detected in the document ("\n" or "\r\n").
	Newline string
}

// Split separates `---` delimited YAML front-matter from the Markdown body.
// A closing delimiter at end of file without a trailing newline is accepted.
func Split(content []byte) (Block, error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return Block{Body: content, Newline: nl}, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return Block{Raw: []byte{}, Body: rest[len(open):], Present: true, Newline: nl}, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return Block{Raw: []byte{}, Body: []byte{}, Present: true, Newline: nl}, nil
	}

	closing := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closing); idx >= 0 {
		return Block{
			Raw:     rest[:idx+len(nl)],
			Body:    rest[idx+len(closing):],
			Present: true,
			Newline: nl,
		}, nil
	}

	eofClosing := []byte(nl + "---")
	if bytes.HasSuffix(rest, eofClosing) {
		return Block{
			Raw:     rest[:len(rest)-len("---")],
			Body:    []byte{},
			Present: true,
			Newline: nl,
		}, nil
	}
	return Block{}, ErrMissingClosingDelimiter
}

// Join reassembles a document from raw front-matter and body.
func Join(raw, body []byte, newline string) []byte {
	if newline == "" {
		newline = "\n"
	}
	delim := []byte("---" + newline)
	out := make([]byte, 0, 2*len(delim)+len(raw)+len(body))
	out = append(out, delim...)
	out = append(out, raw...)
	out = append(out, delim...)
	return append(out, body...)
}

// ParseYAML parses raw front-matter into a map. Empty input yields an empty map.
func ParseYAML(raw []byte) (map[string]any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return map[string]any{}, nil
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}
	fields := map[string]any{}
	if err := node.Content[0].Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
