package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a namespaced error code carried by every corelib error.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Vertex and relationship error codes
const (
	VERTEX_NOT_FOUND             ErrorCode = "VERTEX_NOT_FOUND"
	VERTEX_VALIDATION_FAILED     ErrorCode = "VERTEX_VALIDATION_FAILED"
	INVALID_IDENTITY             ErrorCode = "INVALID_IDENTITY"
	UNKNOWN_VERTEX_KIND          ErrorCode = "UNKNOWN_VERTEX_KIND"
	UNKNOWN_ATTRIBUTE            ErrorCode = "UNKNOWN_ATTRIBUTE"
	UNKNOWN_RELATIONSHIP         ErrorCode = "UNKNOWN_RELATIONSHIP"
	RELATIONSHIP_TARGET_MISMATCH ErrorCode = "RELATIONSHIP_TARGET_MISMATCH"
)

// Observability error codes
const (
	TRACING_INIT_FAILED     ErrorCode = "TRACING_INIT_FAILED"
	TRACING_SHUTDOWN_FAILED ErrorCode = "TRACING_SHUTDOWN_FAILED"
)

// CorelibError is a structured error with an error code, message, and optional cause.
// Two CorelibErrors are considered equal by errors.Is when their codes match, which
// lets package-level sentinels stand in for whole classes of failures.
type CorelibError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *CorelibError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *CorelibError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a CorelibError with the same Code.
func (e *CorelibError) Is(target error) bool {
	var other *CorelibError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// NewError creates a new non-retryable CorelibError with the given code and message.
func NewError(code ErrorCode, message string) *CorelibError {
	return &CorelibError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable CorelibError.
// Use this for transient failures such as a dropped driver connection.
func NewRetryableError(code ErrorCode, message string) *CorelibError {
	return &CorelibError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable CorelibError that wraps cause.
func WrapError(code ErrorCode, message string, cause error) *CorelibError {
	return &CorelibError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the outermost CorelibError in err's chain,
// or the empty string when err carries none.
func CodeOf(err error) ErrorCode {
	var ce *CorelibError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsRetryable reports whether any CorelibError in err's chain is marked retryable.
func IsRetryable(err error) bool {
	for err != nil {
		var ce *CorelibError
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Retryable {
			return true
		}
		err = ce.Cause
	}
	return false
}
