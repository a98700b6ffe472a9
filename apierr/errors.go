package apierr

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Stable machine-readable error codes.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternal           = "INTERNAL_ERROR"
	CodeBadGateway         = "BAD_GATEWAY"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeGatewayTimeout     = "GATEWAY_TIMEOUT"
	CodeTimeout            = "TIMEOUT"
)

// InternalMessage is the only message ever shown to callers for
// unstructured errors. Original error text stays server-side.
const InternalMessage = "Internal server error"

// FieldError is a field-level validation failure. Field paths are
// dot-joined from nested structure (e.g. "address.city").
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a structured, caller-visible API error.
//
// Exactly one Error reaches the caller per failed invocation; anything
// that is not an *Error is sanitized by From before translation.
type Error struct {
	Status  int          `json:"status"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`

	cause error
}

// Error returns the message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is also an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithCause returns a copy carrying the underlying cause for server-side
// logging. The cause is never serialized to callers.
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// New creates an Error with an explicit status and code.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

// NotFound creates a 404 error.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

// Conflict creates a 409 error.
func Conflict(message string) *Error {
	return New(http.StatusConflict, CodeConflict, message)
}

// Validation creates a 422 error listing every failing field.
func Validation(message string, details []FieldError) *Error {
	e := New(http.StatusUnprocessableEntity, CodeValidation, message)
	e.Details = details
	return e
}

// TooManyRequests creates a 429 error.
func TooManyRequests(message string) *Error {
	return New(http.StatusTooManyRequests, CodeTooManyRequests, message)
}

// Internal creates a sanitized 500 error.
func Internal() *Error {
	return New(http.StatusInternalServerError, CodeInternal, InternalMessage)
}

// BadGateway creates a 502 error.
func BadGateway(message string) *Error {
	return New(http.StatusBadGateway, CodeBadGateway, message)
}

// ServiceUnavailable creates a 503 error.
func ServiceUnavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, CodeServiceUnavailable, message)
}

// GatewayTimeout creates a 504 error.
func GatewayTimeout(message string) *Error {
	return New(http.StatusGatewayTimeout, CodeGatewayTimeout, message)
}

// Timeout creates a 408 error with code TIMEOUT, the distinguished
// failure produced by the timeout guard.
func Timeout() *Error {
	return New(http.StatusRequestTimeout, CodeTimeout, "Request timed out")
}

// CodeForStatus derives the default code for an HTTP status
// ("Bad Request" -> "BAD_REQUEST").
func CodeForStatus(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return CodeInternal
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}

// From canonicalizes any error into a structured *Error.
//
// Structured errors pass through unchanged. Context deadline errors become
// the distinguished Timeout error. Everything else becomes a sanitized
// internal error carrying the original as its cause.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout().WithCause(err)
	}
	return Internal().WithCause(err)
}

// StatusOf returns the status of a structured error, or 0 for
// unstructured errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// IsRetryable reports whether err carries a known status code present in
// retryOn. Unstructured errors are never retryable.
func IsRetryable(err error, retryOn []int) bool {
	status := StatusOf(err)
	if status == 0 {
		return false
	}
	for _, s := range retryOn {
		if s == status {
			return true
		}
	}
	return false
}
