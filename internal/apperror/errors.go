// Package apperror provides domain-specific error types for the divination
// service. These errors carry an HTTP status code and a user-safe message.
// The Echo error handler maps them to appropriate HTTP responses
// automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"fmt"
	"net/http"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 422, 502).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "invalid_datetime").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Generic constructors ---

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "bad_request",
		Message: message,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// --- Divination taxonomy ---
//
// Validation errors (invalid_datetime, invalid_divination_number) are raised
// to the caller before any network call. Remote and mapping failures are
// caught at the query boundary and folded into a code:-1 result instead of
// propagating.

// NewInvalidDateTime creates a 422 error for unparseable or out-of-range
// date/time input.
func NewInvalidDateTime(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    "invalid_datetime",
		Message: message,
	}
}

// NewInvalidDivinationNumber creates a 422 error for a divination number
// that is not an integer in [1,100].
func NewInvalidDivinationNumber(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    "invalid_divination_number",
		Message: message,
	}
}

// NewRemoteUnavailable creates a 502 error for oracle timeouts, transport
// failures, and non-2xx upstream statuses.
func NewRemoteUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:     http.StatusBadGateway,
		Type:     "remote_unavailable",
		Message:  message,
		Internal: err,
	}
}

// NewMalformedResponse creates a 502 error for oracle payloads that cannot
// be decoded or are missing the base-info record.
func NewMalformedResponse(message string, err error) *AppError {
	return &AppError{
		Code:     http.StatusBadGateway,
		Type:     "malformed_response",
		Message:  message,
		Internal: err,
	}
}

// NewStorageFailure creates a 500 error for history serialization or
// persistence failures. Non-fatal on save-after-divine: callers log it and
// still return the divination result.
func NewStorageFailure(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "storage_failure",
		Message:  "Failed to persist history. The divination result is unaffected.",
		Internal: err,
	}
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like table names, query structure, or stack traces.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
