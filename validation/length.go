package validation

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// DefaultMaxLength is the maximum input length used when no explicit
// limit is configured.
const DefaultMaxLength = 100

// LengthValidatorConfig configures the length validator.
type LengthValidatorConfig struct {
	// MaxLength is the maximum input length in characters (runes).
	MaxLength int
}

// LengthValidator enforces a maximum input length.
type LengthValidator struct {
	config *LengthValidatorConfig
}

// NewLengthValidator creates a new length validator.
func NewLengthValidator(config *LengthValidatorConfig) *LengthValidator {
	if config == nil {
		config = &LengthValidatorConfig{
			MaxLength: DefaultMaxLength,
		}
	}

	return &LengthValidator{config: config}
}

// Name returns the validator name.
func (v *LengthValidator) Name() string {
	return "length_validator"
}

// Priority returns the execution priority.
func (v *LengthValidator) Priority() int {
	return 10
}

// Validate validates the input length.
func (v *LengthValidator) Validate(ctx context.Context, input string) error {
	return ValidateLength(input, v.config.MaxLength)
}

// ValidateLength fails if the input's character count strictly exceeds
// maxLength. Length is measured in runes, not bytes, so a multi-byte
// character counts once. Pure function, no side effects.
func ValidateLength(input string, maxLength int) error {
	if n := utf8.RuneCountInString(input); n > maxLength {
		return fmt.Errorf("%w of %d characters (got %d)", ErrLengthExceeded, maxLength, n)
	}
	return nil
}
