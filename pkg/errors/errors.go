// Package errors provides a structured error system for actuatorprobe with error codes, categories, and context.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a structured error code for actuatorprobe operations.
type ErrorCode string

const (
	// Configuration errors
	ErrCodeInvalidConfig       ErrorCode = "INVALID_CONFIG"
	ErrCodeDumpPathUnavailable ErrorCode = "DUMP_PATH_UNAVAILABLE"
	ErrCodeDumpPathInvalid     ErrorCode = "DUMP_PATH_INVALID"

	// Transport errors
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeUnexpectedStatus ErrorCode = "UNEXPECTED_STATUS"
	ErrCodeEmptyBody        ErrorCode = "EMPTY_BODY"

	// Operation errors
	ErrCodeActuatorClientFailure ErrorCode = "ACTUATOR_CLIENT_FAILURE"
	ErrCodeParseFailure          ErrorCode = "PARSE_FAILURE"
	ErrCodeOperationCanceled     ErrorCode = "OPERATION_CANCELED"
	ErrCodeUploadFailed          ErrorCode = "UPLOAD_FAILED"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryTransport     ErrorCategory = "transport"
	CategoryOperation     ErrorCategory = "operation"
	CategoryStorage       ErrorCategory = "storage"
)

// transientStatuses are the HTTP status codes worth another attempt.
var transientStatuses = map[int]bool{
	408: true, // Request Timeout
	425: true, // Too Early
	429: true, // Too Many Requests
	500: true, // Internal Server Error
	502: true, // Bad Gateway
	503: true, // Service Unavailable
	504: true, // Gateway Timeout
}

// ProbeError represents a structured error with context and metadata.
type ProbeError struct {
	Code     ErrorCode              `json:"code"`
	Category ErrorCategory          `json:"category"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`

	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`

	Component string `json:"component,omitempty"`
	Operation string `json:"operation,omitempty"`

	Retryable  bool `json:"retryable"`
	HTTPStatus int  `json:"http_status,omitempty"`
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	var msg string
	if e.Component != "" {
		if e.Operation != "" {
			msg = fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Code, e.Message)
		} else {
			msg = fmt.Sprintf("[%s] %s: %s", e.Component, e.Code, e.Message)
		}
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error (for errors.Is compatibility).
func (e *ProbeError) Is(target error) bool {
	if probeErr, ok := target.(*ProbeError); ok {
		return e.Code == probeErr.Code
	}
	return false
}

// String returns a detailed string representation for logging.
func (e *ProbeError) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Code=%s", e.Code))
	parts = append(parts, fmt.Sprintf("Category=%s", e.Category))
	parts = append(parts, fmt.Sprintf("Message=%q", e.Message))

	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("Component=%s", e.Component))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation=%s", e.Operation))
	}
	if e.HTTPStatus != 0 {
		parts = append(parts, fmt.Sprintf("HTTPStatus=%d", e.HTTPStatus))
	}
	if e.Retryable {
		parts = append(parts, "Retryable=true")
	}
	if len(e.Details) > 0 {
		details, _ := json.Marshal(e.Details)
		parts = append(parts, fmt.Sprintf("Details=%s", details))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause=%q", e.Cause.Error()))
	}

	return fmt.Sprintf("ProbeError{%s}", strings.Join(parts, ", "))
}

// NewError creates a new error with default values for the code.
func NewError(code ErrorCode, message string) *ProbeError {
	return &ProbeError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
		Details:   make(map[string]interface{}),
		Retryable: IsRetryableByDefault(code),
	}
}

// NewTransportFailure wraps an I/O error raised while talking to a remote endpoint.
func NewTransportFailure(message string, cause error) *ProbeError {
	return NewError(ErrCodeTransportFailure, message).WithCause(cause)
}

// NewUnexpectedStatus reports a non-200 response. It is retryable only for
// the transient status codes.
func NewUnexpectedStatus(statusCode int, statusText string) *ProbeError {
	e := NewError(ErrCodeUnexpectedStatus,
		fmt.Sprintf("unexpected status code (not 200): %d %s", statusCode, statusText))
	e.HTTPStatus = statusCode
	e.Retryable = IsRetryableStatus(statusCode)
	return e
}

// NewActuatorClientFailure reports a failed actuator operation after retries.
func NewActuatorClientFailure(message string, cause error) *ProbeError {
	return NewError(ErrCodeActuatorClientFailure, message).WithCause(cause)
}

// IsRetryableStatus reports whether an HTTP status code is transient.
func IsRetryableStatus(statusCode int) bool {
	return transientStatuses[statusCode]
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	switch code {
	case ErrCodeInvalidConfig, ErrCodeDumpPathUnavailable, ErrCodeDumpPathInvalid:
		return CategoryConfiguration
	case ErrCodeTransportFailure, ErrCodeUnexpectedStatus, ErrCodeEmptyBody:
		return CategoryTransport
	case ErrCodeUploadFailed:
		return CategoryStorage
	default:
		return CategoryOperation
	}
}

// IsRetryableByDefault determines if an error is retryable by default.
// UNEXPECTED_STATUS depends on the status code and is decided by NewUnexpectedStatus.
func IsRetryableByDefault(code ErrorCode) bool {
	return code == ErrCodeTransportFailure
}

// IsFatal reports whether the code must abort the event it occurs in.
func IsFatal(code ErrorCode) bool {
	return code == ErrCodeDumpPathUnavailable || code == ErrCodeDumpPathInvalid
}

// HasCode reports whether err or any error it wraps is a ProbeError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var probeErr *ProbeError
	for err != nil {
		if !stderrors.As(err, &probeErr) {
			return false
		}
		if probeErr.Code == code {
			return true
		}
		err = probeErr.Cause
	}
	return false
}

// IsRetryable reports whether err carries a retryable ProbeError.
func IsRetryable(err error) bool {
	var probeErr *ProbeError
	if stderrors.As(err, &probeErr) {
		return probeErr.Retryable
	}
	return false
}

// WithDetail adds detailed information to an error
func (e *ProbeError) WithDetail(key string, value interface{}) *ProbeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithComponent sets the component for an error
func (e *ProbeError) WithComponent(component string) *ProbeError {
	e.Component = component
	return e
}

// WithOperation sets the operation for an error
func (e *ProbeError) WithOperation(operation string) *ProbeError {
	e.Operation = operation
	return e
}

// WithCause sets the underlying cause
func (e *ProbeError) WithCause(cause error) *ProbeError {
	e.Cause = cause
	return e
}
