package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeInternal    ErrorType = "internal"
	ErrorTypeOpenAPI     ErrorType = "openapi"
	ErrorTypeConformance ErrorType = "conformance"
	ErrorTypeMCP         ErrorType = "mcp"
)

// ConformError is a categorized error carrying structured context
type ConformError struct {
	Type    ErrorType
	Message string
	Context map[string]interface{}
	Cause   error
}

func (e *ConformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

func (e *ConformError) Unwrap() error {
	return e.Cause
}

// Is matches another ConformError of the same type
func (e *ConformError) Is(target error) bool {
	if targetErr, ok := target.(*ConformError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *ConformError) WithContext(key string, value interface{}) *ConformError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func New(errType ErrorType, message string) *ConformError {
	return &ConformError{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a category and message
func Wrap(err error, errType ErrorType, message string) *ConformError {
	return &ConformError{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
		Cause:   err,
	}
}

func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *ConformError {
	return Wrap(err, errType, fmt.Sprintf(format, args...))
}

func Newf(errType ErrorType, format string, args ...interface{}) *ConformError {
	return New(errType, fmt.Sprintf(format, args...))
}

// As finds the outermost ConformError in err's chain
func As(err error) (*ConformError, bool) {
	var cErr *ConformError
	if stderrors.As(err, &cErr) {
		return cErr, true
	}
	return nil, false
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if cErr, ok := As(err); ok {
		return cErr.Type == errType
	}
	return false
}

// GetType returns the error type, or ErrorTypeInternal if err is uncategorized
func GetType(err error) ErrorType {
	if cErr, ok := As(err); ok {
		return cErr.Type
	}
	return ErrorTypeInternal
}

// GetContext returns context information from the error
func GetContext(err error) map[string]interface{} {
	if cErr, ok := As(err); ok {
		return cErr.Context
	}
	return nil
}
