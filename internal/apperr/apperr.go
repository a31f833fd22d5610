// Package apperr defines the stable machine-readable error categories the
// core raises, so callers can tell client-correctable problems from
// transient service problems.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category.
type Code string

const (
	CodeValidation  Code = "VALIDATION"
	CodeNotFound    Code = "NOT_FOUND"
	CodeConflict    Code = "CONFLICT"
	CodeUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeRateLimited Code = "RATE_LIMITED"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a client-correctable input error.
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound marks a record as absent or not owned by the caller. The two
// cases are deliberately indistinguishable to avoid leaking existence.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// Conflict marks an operation rejected by the record's current state, such
// as pausing an archived subscription.
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// Unavailable marks a retryable upstream failure with no usable fallback.
func Unavailable(message string) *Error {
	return &Error{Code: CodeUnavailable, Message: message}
}

// RateLimited marks a request rejected by a rate limiter.
func RateLimited(message string) *Error {
	return &Error{Code: CodeRateLimited, Message: message}
}

// CodeOf extracts the category of err, or "" for uncategorized errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to the status the HTTP surface should return.
// Uncategorized errors are server faults.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
