package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeInvalidParams ErrorType = "INVALID_PARAMS"

	// Operator errors
	ErrorTypeOperatorExecution ErrorType = "OPERATOR_EXECUTION"
	ErrorTypeCancelled         ErrorType = "CANCELLED"

	// Infrastructure errors
	ErrorTypeInternal ErrorType = "INTERNAL"
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
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

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// Constructor functions for common error types

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewInvalidParamsError creates an error for operator parameters that fail their schema
func NewInvalidParamsError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidParams,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewOperatorExecutionError creates an error for a failed transform
func NewOperatorExecutionError(operatorID string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeOperatorExecution,
		Message:    fmt.Sprintf("operator '%s' failed", operatorID),
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewCancelledError creates an error for a user-aborted in-flight operation.
// Callers branch on IsCancelled; the UI does not display this as a failure.
func NewCancelledError(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeCancelled,
		Message:    fmt.Sprintf("operation '%s' was cancelled", operation),
		HTTPStatus: 499, // client closed request
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewExternalError creates an external service error
func NewExternalError(service string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    fmt.Sprintf("external service '%s' error", service),
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
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

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsInvalidParams checks if an error is an invalid params error
func IsInvalidParams(err error) bool {
	return IsType(err, ErrorTypeInvalidParams)
}

// IsOperatorExecution checks if an error is an operator execution error
func IsOperatorExecution(err error) bool {
	return IsType(err, ErrorTypeOperatorExecution)
}

// IsCancelled checks if an error is a cancellation
func IsCancelled(err error) bool {
	return IsType(err, ErrorTypeCancelled)
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
