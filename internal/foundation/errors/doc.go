// Package errors provides the classified error primitives used across blogbuilder.
//
// A ClassifiedError carries a category (config, content, route, feed, render, ...),
// a severity and a structured context map. The CLI adapter turns the category into
// a process exit code.
//
// Example usage:
//
//	err := errors.WrapError(dupErr, errors.CategoryRoute, "duplicate route").
//		Fatal().
//		WithContext("route", "/foo").
//		Build()
package errors
