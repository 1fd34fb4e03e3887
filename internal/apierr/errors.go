package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Issue is a field-level validation problem reported to the client.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed error carried from services and repositories up to the
// handler boundary, where Status decides the HTTP response code.
type Error struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Issues  []Issue `json:"issues,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Error codes.
const (
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeValidation       = "validation_failed"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeGone             = "gone"
	CodeUpstreamMissing  = "upstream_not_configured"
	CodeUpstream         = "upstream_error"
	CodeInternal         = "internal_error"
)

// Status maps an error code to its HTTP status.
func (e *Error) Status() int {
	switch e.Code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeGone:
		return http.StatusGone
	case CodeUpstreamMissing:
		return http.StatusServiceUnavailable
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Unauthorized builds a 401 error.
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// Forbidden builds a 403 error.
func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

// Validation builds a 400 error carrying field-level issues.
func Validation(message string, issues []Issue) *Error {
	return &Error{Code: CodeValidation, Message: message, Issues: issues}
}

// NotFound builds a 404 error.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// Conflict builds a 409 error.
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// Gone builds a 410 error.
func Gone(message string) *Error {
	return &Error{Code: CodeGone, Message: message}
}

// UpstreamNotConfigured builds a 503 error for a missing orchestrator setup.
func UpstreamNotConfigured(message string) *Error {
	return &Error{Code: CodeUpstreamMissing, Message: message}
}

// Upstream builds a 502 error wrapping a remote failure.
func Upstream(message string, cause error) *Error {
	return &Error{Code: CodeUpstream, Message: message, cause: cause}
}

// Internal builds a 500 error. The cause is logged server-side only; the
// client sees the generic message.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: "internal server error", cause: cause}
}

// From extracts an *Error from err, or wraps it as Internal.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}
