package markdown

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// Document is the rendered form of one content entry.
type Document struct {
	Entry *content.Entry

	HTML      string
	PlainText string
	// Excerpt is the entry's description, or the leading plain text cut at a word boundary.
	Excerpt     string
	WordCount   int
	ReadingTime int
	Slug        string

	// LinkedFiles are local files referenced by the body that must be published.
	LinkedFiles []*LinkedFile
	// HasTweetEmbeds tells layouts to load the embed script.
	HasTweetEmbeds bool
}

// Title returns the entry title.
func (d *Document) Title() string { return d.Entry.Title }

// Date returns the publish date.
func (d *Document) Date() time.Time { return d.Entry.Date }

// Draft reports whether the entry is a draft.
func (d *Document) Draft() bool { return d.Entry.Draft }

// Source returns the entry's path relative to the content root.
func (d *Document) Source() string { return d.Entry.ID }

// LinkedFile is a file copied into the published site.
type LinkedFile struct {
	// Source is the file on disk.
	Source string
	// Route is the unescaped site path the file is published at.
	Route string
	// URL is Route escaped for use in HTML attributes.
	URL string

	// Width and Height are set for decodable raster images.
	Width  int
	Height int
}

// IsImage reports whether the file decoded as a raster image.
func (f *LinkedFile) IsImage() bool { return f.Width > 0 && f.Height > 0 }

// TransformError reports a document that could not be rendered. The document
// is excluded from the site and the build continues.
type TransformError struct {
	Path string
	// Pass is set when a pass failed.
	Pass   string
	Reason string
	Err    error
}

func (e *TransformError) Error() string {
	msg := "transform " + e.Path
	if e.Pass != "" {
		msg += fmt.Sprintf(" (pass %s)", e.Pass)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransformError) Unwrap() error { return e.Err }
