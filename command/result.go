package command

import (
	"time"
)

// Result contains the outcome of a command invocation.
type Result struct {
	// InvocationID uniquely identifies the invocation.
	InvocationID string

	// Command is the invoked command name.
	Command string

	// Value is the handler's return value on success.
	Value string

	// Error is the failure message surfaced to the caller, if any.
	Error string

	// Status classifies the outcome.
	Status Status

	// Duration is the wall-clock invocation time.
	Duration time.Duration
}

// Status represents the outcome of a command invocation.
type Status int

const (
	// StatusSuccess indicates successful invocation.
	StatusSuccess Status = iota
	// StatusError indicates handler failure.
	StatusError
	// StatusInvalidInput indicates input validation failure.
	StatusInvalidInput
	// StatusUnknownCommand indicates the command is not registered.
	StatusUnknownCommand
	// StatusRateLimited indicates rate limit exceeded.
	StatusRateLimited
	// StatusCanceled indicates context was canceled.
	StatusCanceled
	// StatusTimeout indicates invocation timeout.
	StatusTimeout
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusInvalidInput:
		return "invalid_input"
	case StatusUnknownCommand:
		return "unknown_command"
	case StatusRateLimited:
		return "rate_limited"
	case StatusCanceled:
		return "canceled"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// IsSuccess returns true if the invocation succeeded.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsRetryable returns true if the invocation can be retried.
func (s Status) IsRetryable() bool {
	switch s {
	case StatusTimeout, StatusRateLimited:
		return true
	default:
		return false
	}
}

// Success returns true if the result indicates success.
func (r *Result) Success() bool {
	return r.Status == StatusSuccess
}

// Failed returns true if the result indicates failure.
func (r *Result) Failed() bool {
	return !r.Success()
}
