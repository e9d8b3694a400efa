package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Common error codes used across all packages
const (
	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"

	// Authentication errors
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountDeactivated ErrorCode = "ACCOUNT_DEACTIVATED"
	ErrCodeAccountDeleted     ErrorCode = "ACCOUNT_DELETED"
	ErrCodeAccountLocked      ErrorCode = "ACCOUNT_LOCKED"

	// Token and session errors
	ErrCodeTokenExpired    ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    ErrorCode = "TOKEN_INVALID"
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Password errors
	ErrCodePasswordPolicy ErrorCode = "PASSWORD_POLICY_VIOLATION"

	// MFA errors
	ErrCodeMfaRequired           ErrorCode = "MFA_REQUIRED"
	ErrCodeMfaVerificationFailed ErrorCode = "MFA_VERIFICATION_FAILED"
	ErrCodeMfaAlreadyEnabled     ErrorCode = "MFA_ALREADY_ENABLED"
	ErrCodeMfaNotEnabled         ErrorCode = "MFA_NOT_ENABLED"

	// Registration errors
	ErrCodeEmailTaken ErrorCode = "EMAIL_TAKEN"

	// Validation errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingRequired  ErrorCode = "MISSING_REQUIRED"
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
// Returns ErrCodeInternal if the error is not a structured Error.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeValidationFailed, ErrCodeMissingRequired,
		ErrCodePasswordPolicy, ErrCodeMfaNotEnabled:
		return http.StatusBadRequest

	case ErrCodeInvalidCredentials, ErrCodeTokenExpired, ErrCodeTokenInvalid,
		ErrCodeSessionNotFound, ErrCodeMfaRequired, ErrCodeMfaVerificationFailed:
		return http.StatusUnauthorized

	case ErrCodeAccountDeactivated, ErrCodeAccountDeleted:
		return http.StatusForbidden

	case ErrCodeNotFound:
		return http.StatusNotFound

	case ErrCodeEmailTaken, ErrCodeMfaAlreadyEnabled:
		return http.StatusConflict

	case ErrCodeAccountLocked:
		return http.StatusTooManyRequests

	case ErrCodeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}
