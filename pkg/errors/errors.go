package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrAuth       = New("AUTH_ERROR", http.StatusUnauthorized, "invalid token")
	ErrNotFound   = New("NOT_FOUND", http.StatusBadRequest, "resource does not exist")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrInconsistentState reports a detected mismatch between the expected
	// and actual effect of an operation that should have been atomic. It is
	// a data-integrity emergency, not a routine failure.
	ErrInconsistentState = New("INCONSISTENT_STATE", http.StatusBadRequest, "some folders or pages are not deleted")

	// Capture-side error kinds, surfaced to the UI as capture failure.
	ErrChannelUnreachable = New("CHANNEL_UNREACHABLE", http.StatusBadGateway, "target context unreachable")
	ErrChannelTimeout     = New("CHANNEL_TIMEOUT", http.StatusGatewayTimeout, "channel invocation timed out")
	ErrProtocolMismatch   = New("PROTOCOL_MISMATCH", http.StatusBadRequest, "payload does not match channel protocol")
	ErrCancelled          = New("CANCELLED", http.StatusConflict, "capture cancelled")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same error code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
