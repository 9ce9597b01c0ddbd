package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError for callers and for the HTTP layer
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeProcessing  ErrorType = "processing"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeUnsupported ErrorType = "unsupported"
	ErrorTypeInternal    ErrorType = "internal"
)

// AppError is the structured error returned by the service and transport layers
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails returns a copy of the error carrying extra detail text
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func newAppError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError reports malformed input such as a bad image reference
func NewValidationError(message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewNetworkError reports a failed fetch from a remote image source
func NewNetworkError(message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewProcessingError reports an image that loaded but could not be sampled
func NewProcessingError(message string, cause error) *AppError {
	return newAppError(ErrorTypeProcessing, http.StatusUnprocessableEntity, message, cause)
}

// NewTimeoutError reports an operation that ran past its deadline
func NewTimeoutError(message string, cause error) *AppError {
	return newAppError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewNotFoundError reports a missing capture session or image
func NewNotFoundError(message string, cause error) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// NewUnsupportedError reports a reference scheme no storage backend is configured for
func NewUnsupportedError(message string, cause error) *AppError {
	return newAppError(ErrorTypeUnsupported, http.StatusNotImplemented, message, cause)
}

// NewInternalError reports an unexpected failure
func NewInternalError(message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// IsType reports whether err wraps an AppError of the given type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error chain
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
