package validation

import "errors"

// Sentinel errors for input validation failures.
// Both are recoverable conditions surfaced verbatim to the caller.
var (
	// ErrLengthExceeded indicates the input character count exceeds the maximum.
	ErrLengthExceeded = errors.New("input exceeds maximum length")

	// ErrEmptyAfterSanitization indicates the input was empty after
	// sanitization, either because it was empty to begin with or because
	// it contained only disallowed characters.
	ErrEmptyAfterSanitization = errors.New("input is empty after sanitization")
)
