// Package apierr classifies request failures by kind and maps them to HTTP
// status codes.
package apierr

import (
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies why an operation rejected its input.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmptyField
	KindOutOfRange
	KindInvalidEncoding
	KindWrongByteLength
	KindMalformedKeyOrSignature
	KindBuilderFailure
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindEmptyField:
		return "empty_field"
	case KindOutOfRange:
		return "out_of_range"
	case KindInvalidEncoding:
		return "invalid_encoding"
	case KindWrongByteLength:
		return "wrong_byte_length"
	case KindMalformedKeyOrSignature:
		return "malformed_key_or_signature"
	case KindBuilderFailure:
		return "builder_failure"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the error type returned across every component boundary. Message
// is safe to hand back to the caller as-is.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Cause exposes the underlying error to errors.Cause, if there is one.
func (e *Error) Cause() error {
	return e.cause
}

// Unwrap supports the standard library's errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: errors.Errorf(format, args...).Error()}
}

// Wrap attaches a caller facing message and kind to err. The cause is kept for
// logging but never surfaced in Message.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

func EmptyField(message string) *Error {
	return New(KindEmptyField, message)
}

func OutOfRange(message string) *Error {
	return New(KindOutOfRange, message)
}

func InvalidEncoding(message string) *Error {
	return New(KindInvalidEncoding, message)
}

func WrongByteLength(message string) *Error {
	return New(KindWrongByteLength, message)
}

func Malformed(message string) *Error {
	return New(KindMalformedKeyOrSignature, message)
}

func BuilderFailure(message string) *Error {
	return New(KindBuilderFailure, message)
}

// KindOf returns the Kind of err, or KindInternal for anything that isn't an
// *Error.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindInternal
}

// WithMessage rewrites the caller facing message while keeping kind and cause.
// Non *Error values are returned untouched.
func WithMessage(err error, message string) error {
	var typed *Error
	if !errors.As(err, &typed) {
		return err
	}

	return &Error{Kind: typed.Kind, Message: message, cause: typed.cause}
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindEmptyField, KindOutOfRange, KindInvalidEncoding, KindWrongByteLength, KindMalformedKeyOrSignature, KindBuilderFailure:
		return true
	default:
		return false
	}
}

// HTTPStatus maps err onto a status code. Malformed input is always a 400.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if IsClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
