package command

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrUnknownCommand indicates the command name is not in the registry.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidInvocation indicates an invalid invocation configuration.
	ErrInvalidInvocation = errors.New("invalid invocation")

	// ErrInvalidInput indicates invocation input failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the rate limit was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrDispatcherShutdown indicates the dispatcher has been shut down.
	ErrDispatcherShutdown = errors.New("dispatcher shutdown")

	// ErrRegistryFrozen indicates registration was attempted after freeze.
	ErrRegistryFrozen = errors.New("registry frozen")
)

// ErrorCode provides structured error classification.
type ErrorCode string

const (
	// ErrCodeInvalidInput indicates input validation failure.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeUnknownCommand indicates an unregistered command name.
	ErrCodeUnknownCommand ErrorCode = "UNKNOWN_COMMAND"

	// ErrCodeRateLimited indicates rate limiting.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// ErrCodeHandlerFailed indicates handler failure.
	ErrCodeHandlerFailed ErrorCode = "HANDLER_FAILED"

	// ErrCodeTimeout indicates timeout.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeInternalError indicates internal error.
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// InvocationError provides detailed error information.
type InvocationError struct {
	// Op is the operation that failed.
	Op string

	// Command is the command being invoked.
	Command string

	// Err is the underlying error.
	Err error

	// Code is the structured error code.
	Code ErrorCode

	// Details provides human-readable details.
	Details string

	// Retryable indicates if the invocation can be retried.
	Retryable bool
}

// Error returns the error message.
func (e *InvocationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Command, e.Details)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *InvocationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Error constructors for consistent error creation.

// NewInvalidInputError creates an input validation error.
// The validation error is preserved in the chain so callers can match
// the underlying sentinel, and its message is surfaced verbatim.
func NewInvalidInputError(command string, err error) error {
	return &InvocationError{
		Op:        "validate",
		Command:   command,
		Err:       err,
		Code:      ErrCodeInvalidInput,
		Details:   err.Error(),
		Retryable: false,
	}
}

// NewUnknownCommandError creates an unknown command error.
func NewUnknownCommandError(command string) error {
	return &InvocationError{
		Op:        "dispatch",
		Command:   command,
		Err:       ErrUnknownCommand,
		Code:      ErrCodeUnknownCommand,
		Details:   fmt.Sprintf("command %q is not registered", command),
		Retryable: false,
	}
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(command string) error {
	return &InvocationError{
		Op:        "rate_limit",
		Command:   command,
		Err:       ErrRateLimited,
		Code:      ErrCodeRateLimited,
		Details:   "rate limit exceeded, retry later",
		Retryable: true,
	}
}

// NewHandlerError creates a handler failure error.
func NewHandlerError(command string, err error) error {
	return &InvocationError{
		Op:        "invoke",
		Command:   command,
		Err:       err,
		Code:      ErrCodeHandlerFailed,
		Retryable: false,
	}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(command string, duration string) error {
	return &InvocationError{
		Op:        "invoke",
		Command:   command,
		Err:       context.DeadlineExceeded,
		Code:      ErrCodeTimeout,
		Details:   fmt.Sprintf("invocation exceeded timeout of %s", duration),
		Retryable: true,
	}
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr.Code
	}
	return ErrCodeInternalError
}
