package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors for propagation and retry decisions.
type ErrorKind string

const (
	KindConfiguration    ErrorKind = "configuration"
	KindValidation       ErrorKind = "validation"
	KindInsufficientData ErrorKind = "insufficient_data"
	KindNotFound         ErrorKind = "not_found"
	KindStorage          ErrorKind = "storage"
	KindUpstream         ErrorKind = "upstream"
)

// Error is a kind-tagged error. Storage and upstream errors are assumed
// transient; configuration and validation errors are not.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the operation may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindStorage || e.Kind == KindUpstream
}

// Is matches errors by kind, so sentinel values like stats.ErrEmptyInput
// compare equal to any error of the same kind carrying the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

// NewError creates a kind-tagged error.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps an underlying error with a kind and context message.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or the empty kind for untagged errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether err is worth retrying. Untagged errors are not.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}
