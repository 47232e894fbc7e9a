package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Chain structure errors
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeNotUniqueID ErrorType = "NOT_UNIQUE_ID"
	ErrorTypeIDExhausted ErrorType = "ID_EXHAUSTED"

	// Input errors
	ErrorTypeValidation ErrorType = "VALIDATION"

	// Raised by the atom content collaborator
	ErrorTypeContent ErrorType = "CONTENT"

	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds a single detail entry
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

// Constructor functions for common error types

// NewNotFoundError creates a not found error for a chain member
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s %q not found in chain", resource, id),
		Details:    map[string]interface{}{"resource": resource, "id": id},
		StackTrace: captureStackTrace(),
	}
}

// NewNotUniqueIDError is returned when a supplied atom id collides with an existing one
func NewNotUniqueIDError(id string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotUniqueID,
		Message:    fmt.Sprintf("atom id %q is already used in chain", id),
		Details:    map[string]interface{}{"id": id},
		StackTrace: captureStackTrace(),
	}
}

// NewIDExhaustedError is returned when the allocator cannot find a free id
func NewIDExhaustedError(scope string, attempts int) *AppError {
	return &AppError{
		Type:       ErrorTypeIDExhausted,
		Message:    fmt.Sprintf("no unique %s id after %d attempts", scope, attempts),
		StackTrace: captureStackTrace(),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StackTrace: captureStackTrace(),
	}
}

// NewContentError wraps a failure of the atom content collaborator.
// Errors that already are content errors are returned unchanged.
func NewContentError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if IsContent(err) {
		return err
	}
	return &AppError{
		Type:       ErrorTypeContent,
		Message:    fmt.Sprintf("atom content operation '%s' failed", operation),
		Cause:      err,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StackTrace: captureStackTrace(),
	}
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsNotUniqueID checks if an error is a duplicate id error
func IsNotUniqueID(err error) bool {
	return IsType(err, ErrorTypeNotUniqueID)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsContent checks if an error came from the atom content collaborator
func IsContent(err error) bool {
	return IsType(err, ErrorTypeContent)
}

// IsIDExhausted checks if id allocation gave up
func IsIDExhausted(err error) bool {
	return IsType(err, ErrorTypeIDExhausted)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to message
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	// Otherwise create a new internal error
	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
