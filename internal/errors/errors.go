// Package errors defines the application error taxonomy for jobrelay.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates an unknown job identifier. Surfaced to the caller, not retried.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates a malformed identifier or missing required field.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeDuplicate indicates an identifier collision on insert. Unreachable
	// with server-generated identifiers; treated as an internal fault, not user error.
	ErrCodeDuplicate ErrorCode = "duplicate"
	// ErrCodePersistence indicates the store was unreachable or rejected a write.
	// Submission is aborted entirely; nothing is enqueued. Retryable by the caller.
	ErrCodePersistence ErrorCode = "persistence"
	// ErrCodeEnqueue indicates the store write succeeded but the queue publish
	// failed. The error carries the already-assigned job identifier so
	// publication can be retried without re-submitting the payload.
	ErrCodeEnqueue ErrorCode = "enqueue"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a backend call exceeded its deadline.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and
// optional cause. It supports error wrapping and unwrapping for use with
// errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// JobID is the already-assigned job identifier (set on enqueue errors so
	// callers and the reconciler can retry publication)
	JobID string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Duplicate creates a new Duplicate error wrapping the store's cause.
func Duplicate(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeDuplicate, Message: message, Cause: cause}
}

// Persistence wraps a store failure.
func Persistence(message string, cause error) *AppError {
	return &AppError{Code: ErrCodePersistence, Message: message, Cause: cause}
}

// Enqueue wraps a publish failure, carrying the already-persisted job identifier.
func Enqueue(jobID string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeEnqueue,
		Message: "job persisted but enqueue failed",
		Cause:   cause,
		JobID:   jobID,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// CodeOf extracts the ErrorCode from err, walking the wrap chain.
// Non-AppError values classify as internal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// JobIDOf extracts the job identifier from an enqueue-class error, if any.
func JobIDOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.JobID
	}
	return ""
}
