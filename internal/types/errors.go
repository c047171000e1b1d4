package types

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable machine-readable error taxonomy surfaced to
// callers. Codes never change; messages may.
type ErrorCode string

const (
	ErrCodeInvalidRequest    ErrorCode = "invalid_request"
	ErrCodeModelNotAvailable ErrorCode = "model_not_available"
	ErrCodeGenerationFailed  ErrorCode = "generation_failed"
	ErrCodeTimeout           ErrorCode = "timeout"
	ErrCodeUnknownWorkflow   ErrorCode = "unknown_workflow"
	ErrCodeNotFound          ErrorCode = "not_found"
	ErrCodeInvalidPath       ErrorCode = "invalid_path"
	ErrCodeInternal          ErrorCode = "internal"
)

// CodedError carries a stable code, a human-readable message, the requestId
// for correlation, and (when an agent step failed) the failing agent's
// identity. Callers never see raw stack traces.
type CodedError struct {
	Code      ErrorCode
	Message   string
	RequestID string
	Agent     AgentType
	Err       error
}

func (e *CodedError) Error() string {
	switch {
	case e.Agent != "" && e.Err != nil:
		return fmt.Sprintf("[%s] agent=%s req=%s: %s: %v", e.Code, e.Agent, e.RequestID, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("[%s] req=%s: %s: %v", e.Code, e.RequestID, e.Message, e.Err)
	case e.Agent != "":
		return fmt.Sprintf("[%s] agent=%s req=%s: %s", e.Code, e.Agent, e.RequestID, e.Message)
	default:
		return fmt.Sprintf("[%s] req=%s: %s", e.Code, e.RequestID, e.Message)
	}
}

func (e *CodedError) Unwrap() error { return e.Err }

// Is matches two CodedErrors by code, so errors.Is(err, &CodedError{Code: X})
// works as a taxonomy check.
func (e *CodedError) Is(target error) bool {
	var t *CodedError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewError builds a CodedError without a cause.
func NewError(code ErrorCode, requestID, format string, args ...any) *CodedError {
	return &CodedError{Code: code, RequestID: requestID, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a CodedError around a cause.
func WrapError(code ErrorCode, requestID string, err error, format string, args ...any) *CodedError {
	return &CodedError{Code: code, RequestID: requestID, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithAgent tags the error with the failing agent's identity.
func (e *CodedError) WithAgent(agent AgentType) *CodedError {
	e.Agent = agent
	return e
}

// CodeOf extracts the stable code from err, or ErrCodeInternal for plain
// errors.
func CodeOf(err error) ErrorCode {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
