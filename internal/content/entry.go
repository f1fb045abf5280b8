// Package content discovers Markdown sources and turns them into immutable entries.
package content

import (
	"path/filepath"
	"time"
)

// Entry is one source document with validated front-matter.
type Entry struct {
	// ID is the slash-separated path relative to the content root.
	ID string
	// SourcePath is the file's location on disk.
	SourcePath string

	Title       string
	Date        time.Time
	Draft       bool
	Tags        []string
	Description string

	// Slug is the resolved URL segment; ExplicitSlug records that it came from front-matter.
	Slug         string
	ExplicitSlug bool

	Body        []byte
	Fingerprint string
}

// Dir returns the directory holding the source file, used to resolve relative links.
func (e *Entry) Dir() string {
	if e.SourcePath == "" {
		return ""
	}
	return filepath.Dir(e.SourcePath)
}
