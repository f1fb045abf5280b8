package eventstore

import (
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Sentinel errors for history store operations. Wrapped failures match them
// with errors.Is.
var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.HistoryError("could not open build history database").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.HistoryError("failed to append event to build history").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.HistoryError("failed to query build history").Build()
)
