package apperror

import "errors"

// Kind classifies an error for callers. Every rejected engine operation carries one.
type Kind string

const (
	Validation        Kind = "validation"
	Conflict          Kind = "conflict"
	NotFound          Kind = "not_found"
	IllegalTransition Kind = "illegal_transition"
)

// AppError is a domain error with a caller-facing message.
type AppError struct {
	Kind    Kind
	Message string
	Err     error // underlying error, if any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap creates an AppError of the given kind wrapping err.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain.
// The second result is false for errors that are not domain errors.
func KindOf(err error) (Kind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
