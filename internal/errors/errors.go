// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNoSession indicates the user has no cached result list to select from.
	ErrNoSession = errors.New("no active session")

	// ErrInvalidSelection indicates a digit reply outside the cached list range.
	ErrInvalidSelection = errors.New("selection out of range")

	// ErrNoResults indicates the upstream query succeeded but matched no trains.
	ErrNoResults = errors.New("no matching trains")

	// ErrUpstreamStatus indicates the ticket API answered with a non-success
	// HTTP status or a non-"200" body code.
	ErrUpstreamStatus = errors.New("upstream returned failure status")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// UpstreamError represents ticket API failures with context.
type UpstreamError struct {
	URL        string
	StatusCode int    // HTTP status, 0 when the transport failed before a response
	Code       string // body-level status code reported by the API, if any
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("ticket api error (url=%s, code=%s): %v", e.URL, e.Code, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("ticket api error (url=%s, status=%d): %v", e.URL, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("ticket api error (url=%s): %v", e.URL, e.Err)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new upstream error.
func NewUpstreamError(url string, statusCode int, code string, err error) *UpstreamError {
	return &UpstreamError{
		URL:        url,
		StatusCode: statusCode,
		Code:       code,
		Err:        err,
	}
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
