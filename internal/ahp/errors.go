package ahp

import (
	"errors"
	"fmt"
)

// ErrorKind names a class of rejected input or unavailable computation.
// The string value is sent to callers verbatim as error_kind.
type ErrorKind string

const (
	KindShape              ErrorKind = "ShapeError"
	KindReciprocity        ErrorKind = "ReciprocityError"
	KindRange              ErrorKind = "RangeError"
	KindUnsupportedSize    ErrorKind = "UnsupportedSizeError"
	KindConvergence        ErrorKind = "ConvergenceError"
	KindDimensionMismatch  ErrorKind = "DimensionMismatchError"
	KindServiceUnavailable ErrorKind = "ServiceUnavailable"

	// KindBadRequest marks a request field that is missing or malformed.
	KindBadRequest ErrorKind = "BadRequest"
)

// Error is the error type returned by every validation and computation step.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewError builds an *Error of the given kind.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return newError(kind, format, args...)
}

// KindOf returns the kind carried by err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
