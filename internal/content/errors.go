package content

import (
	"errors"
	"fmt"
)

// ErrContentRootNotFound is returned when the configured content directory does not exist.
var ErrContentRootNotFound = errors.New("content root not found")

// MalformedFrontMatterError reports a document whose front-matter is missing,
// unparseable or lacks a valid required field. The entry is skipped.
type MalformedFrontMatterError struct {
	Path   string
	Field  string
	Reason string
	Err    error
}

func (e *MalformedFrontMatterError) Error() string {
	msg := "malformed front-matter in " + e.Path
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedFrontMatterError) Unwrap() error { return e.Err }

func malformed(path, field, reason string) *MalformedFrontMatterError {
	return &MalformedFrontMatterError{Path: path, Field: field, Reason: reason}
}
