package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of ingestion error.
type ErrorCode string

const (
	// ErrCodeValidation indicates a malformed notification or envelope.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodePermanent indicates a failure that redelivery cannot fix (missing table, missing privilege,
	// unmapped key). The operator has to intervene.
	ErrCodePermanent ErrorCode = "permanent"
	// ErrCodeRetryable indicates a transient infrastructure failure; the message is left for redelivery.
	ErrCodeRetryable ErrorCode = "retryable"
	// ErrCodeConflict indicates a uniqueness violation.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeTimeout indicates the invocation budget ran out.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a classified error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
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

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Permanent creates a new Permanent error.
func Permanent(message string) *AppError {
	return &AppError{Code: ErrCodePermanent, Message: message}
}

// Permanentf creates a new Permanent error with formatted message.
func Permanentf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodePermanent, Message: fmt.Sprintf(format, args...)}
}

// Retryable creates a new Retryable error.
func Retryable(message string) *AppError {
	return &AppError{Code: ErrCodeRetryable, Message: message}
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

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsPermanent checks if an error is a Permanent error.
func IsPermanent(err error) bool {
	return isCode(err, ErrCodePermanent)
}

// IsRetryable checks if an error is a Retryable error.
func IsRetryable(err error) bool {
	return isCode(err, ErrCodeRetryable)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// IsTerminal reports whether redelivering the message could never succeed.
// Validation and permanent errors are terminal; everything else, including
// unclassified errors, is treated as retryable.
func IsTerminal(err error) bool {
	switch GetCode(err) {
	case ErrCodeValidation, ErrCodePermanent:
		return true
	default:
		return false
	}
}

// GetCode returns the outermost ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
