package errors

// ErrorBuilder assembles a ClassifiedError. Call Build once.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category with SeverityError.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: category, severity: SeverityError, message: message}}
}

// WrapError starts an error of category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

// WithContext records a value shown in logs and verbose CLI output.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	return &out
}

// The helpers below start fatal errors of one category.

func ConfigError(message string) *ErrorBuilder     { return NewError(CategoryConfig, message).Fatal() }
func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message).Fatal() }
func RouteError(message string) *ErrorBuilder      { return NewError(CategoryRoute, message).Fatal() }
func FeedError(message string) *ErrorBuilder       { return NewError(CategoryFeed, message).Fatal() }
func RenderError(message string) *ErrorBuilder     { return NewError(CategoryRender, message).Fatal() }
func InternalError(message string) *ErrorBuilder   { return NewError(CategoryInternal, message).Fatal() }
func HistoryError(message string) *ErrorBuilder    { return NewError(CategoryHistory, message).Fatal() }

// FileSystemError wraps a failed read, write or rename of site files.
func FileSystemError(err error, message string) *ErrorBuilder {
	return WrapError(err, CategoryFileSystem, message).Fatal()
}
