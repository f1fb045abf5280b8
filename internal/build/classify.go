package build

import (
	"context"
	stderrors "errors"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/feed"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// classify turns a stage failure into a ClassifiedError. Domain errors get
// their category and sources; errors already classified keep theirs.
func classify(err error) error {
	stage := ""
	var se *StageError
	if stderrors.As(err, &se) {
		stage = string(se.Stage)
		err = se.Err
	}

	var (
		dup     *site.DuplicateRouteError
		feedErr *feed.FeedSerializationError
		b       *ferrors.ErrorBuilder
	)
	switch {
	case stderrors.As(err, &dup):
		b = ferrors.WrapError(err, ferrors.CategoryRoute, "duplicate route").
			WithContext("route", dup.Route).
			WithContext("sources", dup.Sources)
	case stderrors.As(err, &feedErr):
		b = ferrors.WrapError(err, ferrors.CategoryFeed, "feed serialization failed").
			WithContext("source", feedErr.Source)
		if feedErr.Field != "" {
			b = b.WithContext("field", feedErr.Field)
		}
	case stderrors.Is(err, content.ErrContentRootNotFound):
		b = ferrors.WrapError(err, ferrors.CategoryContent, "content root not found")
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		b = ferrors.WrapError(err, ferrors.CategoryRuntime, "build canceled")
	default:
		if classified, ok := ferrors.AsClassified(err); ok {
			if stage == "" {
				return classified
			}
			return classified.WithContext("stage", stage)
		}
		b = ferrors.WrapError(err, ferrors.CategoryInternal, "build failed")
	}
	if stage != "" {
		b = b.WithContext("stage", stage)
	}
	return b.Fatal().Build()
}
