package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"

	// ErrCodeConfigIncomplete indicates the CAS server coordinates are not
	// configured; authentication features silently no-op.
	ErrCodeConfigIncomplete ErrorCode = "config_incomplete"
	// ErrCodeDenied indicates a whitelist/blacklist policy rejection. It always
	// resolves to a forced logout, never a hard error page.
	ErrCodeDenied ErrorCode = "denied"
	// ErrCodeCreationFailed indicates local account provisioning failed. The
	// external authentication still stands.
	ErrCodeCreationFailed ErrorCode = "creation_failed"
	// ErrCodeStaleAttempt indicates the authentication attempt marker expired.
	ErrCodeStaleAttempt ErrorCode = "stale_attempt"
	// ErrCodeNotEligible indicates the identity bridge was invoked while its
	// preconditions were unmet; treated as a no-op.
	ErrCodeNotEligible ErrorCode = "not_eligible"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
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

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// ConfigIncomplete creates a new ConfigIncomplete error.
func ConfigIncomplete(message string) *AppError {
	return &AppError{Code: ErrCodeConfigIncomplete, Message: message}
}

// Denied creates a new Denied error.
func Denied(message string) *AppError {
	return &AppError{Code: ErrCodeDenied, Message: message}
}

// Deniedf creates a new Denied error with formatted message.
func Deniedf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeDenied, Message: fmt.Sprintf(format, args...)}
}

// CreationFailed creates a new CreationFailed error.
func CreationFailed(message string) *AppError {
	return &AppError{Code: ErrCodeCreationFailed, Message: message}
}

// StaleAttempt creates a new StaleAttempt error.
func StaleAttempt(message string) *AppError {
	return &AppError{Code: ErrCodeStaleAttempt, Message: message}
}

// NotEligible creates a new NotEligible error.
func NotEligible(message string) *AppError {
	return &AppError{Code: ErrCodeNotEligible, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool { return isCode(err, ErrCodeInternal) }

// IsConfigIncomplete checks if an error is a ConfigIncomplete error.
func IsConfigIncomplete(err error) bool { return isCode(err, ErrCodeConfigIncomplete) }

// IsDenied checks if an error is a Denied error.
func IsDenied(err error) bool { return isCode(err, ErrCodeDenied) }

// IsCreationFailed checks if an error is a CreationFailed error.
func IsCreationFailed(err error) bool { return isCode(err, ErrCodeCreationFailed) }

// IsStaleAttempt checks if an error is a StaleAttempt error.
func IsStaleAttempt(err error) bool { return isCode(err, ErrCodeStaleAttempt) }

// IsNotEligible checks if an error is a NotEligible error.
func IsNotEligible(err error) bool { return isCode(err, ErrCodeNotEligible) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
