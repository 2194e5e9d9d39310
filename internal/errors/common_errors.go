package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"

	// Data-quality failures that abort a load.
	ErrTypeSchemaViolation    ErrorType = "SCHEMA_VIOLATION"
	ErrTypeTypeCoercion       ErrorType = "TYPE_COERCION"
	ErrTypeRedundancyMismatch ErrorType = "REDUNDANCY_MISMATCH"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError of the same type, so a bare
// &AppError{Type: t} works as a target for errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// AsAppError unwraps err to the first *AppError in its chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == errType
}

// Helper functions for common error types

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewSchemaViolation reports a coded value with no entry in the column's
// label dictionary.
func NewSchemaViolation(column, value string) *AppError {
	return NewAppError(ErrTypeSchemaViolation,
		fmt.Sprintf("column %s: code %q has no label", column, value), nil).
		WithContext("column", column).
		WithContext("value", value)
}

// NewTypeCoercionFailure reports a value that cannot be coerced to its
// column's type, such as a boolean cell outside {0, 1}.
func NewTypeCoercionFailure(column string, cert int64, value string) *AppError {
	return NewAppError(ErrTypeTypeCoercion,
		fmt.Sprintf("column %s, cert %d: cannot coerce %q", column, cert, value), nil).
		WithContext("column", column).
		WithContext("cert", cert).
		WithContext("value", value)
}

// NewRedundancyMismatch reports a row where two columns expected to carry the
// same partition disagree after recoding.
func NewRedundancyMismatch(cert int64, leftColumn, left, rightColumn, right string) *AppError {
	return NewAppError(ErrTypeRedundancyMismatch,
		fmt.Sprintf("cert %d: %s=%q disagrees with %s=%q", cert, leftColumn, left, rightColumn, right), nil).
		WithContext("cert", cert).
		WithContext(leftColumn, left).
		WithContext(rightColumn, right)
}
