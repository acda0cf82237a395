package faults

import (
	"errors"
	"fmt"
)

type ErrorCategory string

const (
	MalformedKeyError   ErrorCategory = "MalformedKeyError"
	UnsupportedKeyError ErrorCategory = "UnsupportedKeyError"
	ValidationError     ErrorCategory = "ValidationError"
	AuthError           ErrorCategory = "AuthError"
	TransportError      ErrorCategory = "TransportError"
	RemoteAPIError      ErrorCategory = "RemoteAPIError"
	AmbiguousMatchError ErrorCategory = "AmbiguousMatchError"
	InternalError       ErrorCategory = "InternalError"
)

type TypedError struct {
	Category ErrorCategory
	Message  string
	Status   int // remote HTTP status when Category is RemoteAPIError or AuthError
	Cause    error
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

func NewTypedErrorf(category ErrorCategory, format string, args ...any) *TypedError {
	return &TypedError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

func NewRemoteAPIError(status int, message string) *TypedError {
	return &TypedError{
		Category: RemoteAPIError,
		Message:  message,
		Status:   status,
	}
}

func IsCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	return typedErr.Category == category
}

// StatusOf returns the remote HTTP status carried by err, or zero when err
// does not wrap a TypedError with a status.
func StatusOf(err error) int {
	if err == nil {
		return 0
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return 0
	}
	return typedErr.Status
}

// Retryable reports whether err represents a transient failure. Transport
// errors are always transient; remote API errors are transient only for 5xx
// statuses. Credential, validation, and auth failures are never retried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	switch typedErr.Category {
	case TransportError:
		return true
	case RemoteAPIError:
		return typedErr.Status >= 500
	}
	return false
}
