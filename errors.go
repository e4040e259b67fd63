package campaigner

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for programming and integration mistakes. These are never
// retried and always surface immediately.
var (
	// ErrInvalidStateTransition is returned when an operation is attempted on
	// a run whose status does not permit it (e.g. Advance on an aborted run,
	// Resume on a running run).
	ErrInvalidStateTransition = errors.New("campaigner: invalid state transition")

	// ErrInvalidEdit is returned when an edited state submitted at a
	// checkpoint fails structural validation.
	ErrInvalidEdit = errors.New("campaigner: invalid state edit")

	// ErrCorruptState is returned when a persisted snapshot cannot be
	// restored (unknown schema version or missing required fields).
	ErrCorruptState = errors.New("campaigner: corrupt state snapshot")

	// ErrRateLimitExceeded is returned when a throttled call waited longer
	// than the configured maximum for a token. It is transient.
	ErrRateLimitExceeded = errors.New("campaigner: rate limit wait exceeded")
)

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient indicates the error is temporary and the operation can
	// be retried. Examples: rate limits, network timeouts, server overload.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent indicates the error is not recoverable through retry.
	// Examples: invalid API key, insufficient permissions, blocked URL.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorInput indicates malformed or missing required input that must be
	// corrected before the operation can succeed.
	ErrorInput ErrorCategory = "input"
)

// CategorizedError is an error that carries handling metadata. The engine
// decides retry vs. abort from the category alone, without inspecting call
// internals.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool           // convenience: true if Category == ErrorTransient
	StatusCode() int           // HTTP status code if applicable, 0 otherwise
	RetryAfter() time.Duration // suggested retry delay from server, 0 if not available
}

// Error is a categorized error with metadata for handling decisions.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int           // HTTP status code, 0 if not applicable
	RetryDelay time.Duration // from Retry-After header, 0 if not available
	Cause      error         // underlying error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.Cat
}

// Retryable returns true if the error is transient and can be retried.
func (e *Error) Retryable() bool {
	return e.Cat == ErrorTransient
}

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int {
	return e.Code
}

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *Error) RetryAfter() time.Duration {
	return e.RetryDelay
}

// NewTransientError creates a transient error that can be retried.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{
		Msg:   msg,
		Cat:   ErrorTransient,
		Code:  statusCode,
		Cause: cause,
	}
}

// NewTransientErrorWithRetry creates a transient error with a suggested retry delay.
func NewTransientErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	return &Error{
		Msg:        msg,
		Cat:        ErrorTransient,
		Code:       statusCode,
		RetryDelay: retryAfter,
		Cause:      cause,
	}
}

// NewPermanentError creates a permanent error that should not be retried.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{
		Msg:   msg,
		Cat:   ErrorPermanent,
		Code:  statusCode,
		Cause: cause,
	}
}

// NewInputError creates an error indicating malformed or missing input.
func NewInputError(msg string, cause error) *Error {
	return &Error{
		Msg:   msg,
		Cat:   ErrorInput,
		Cause: cause,
	}
}

// IsTransient returns true if the error is categorized as transient.
// It checks if the error or any wrapped error implements CategorizedError.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsFatal returns true if the error should halt the stage that produced it:
// anything categorized permanent or input, plus the integration sentinels.
// Uncategorized errors are fatal by default; transient errors are not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsTransient(err)
}

// StatusCodeOf returns the HTTP status code from a categorized error, or 0.
func StatusCodeOf(err error) int {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}
