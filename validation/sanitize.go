package validation

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// SanitizerConfig configures the character sanitizer.
type SanitizerConfig struct {
	// ExtraAllowed are additional runes permitted beyond the base
	// allow-list of letters, digits, whitespace, '-', '_' and '.'.
	ExtraAllowed []rune
}

// Sanitizer filters input down to an allow-list of characters.
type Sanitizer struct {
	config *SanitizerConfig
	extra  map[rune]struct{}
}

// NewSanitizer creates a new sanitizer.
func NewSanitizer(config *SanitizerConfig) *Sanitizer {
	if config == nil {
		config = &SanitizerConfig{}
	}

	s := &Sanitizer{
		config: config,
		extra:  make(map[rune]struct{}, len(config.ExtraAllowed)),
	}

	for _, r := range config.ExtraAllowed {
		s.extra[r] = struct{}{}
	}

	return s
}

// Name returns the validator name.
func (s *Sanitizer) Name() string {
	return "sanitizer"
}

// Priority returns the execution priority.
func (s *Sanitizer) Priority() int {
	return 20
}

// Validate fails if the input would be empty after sanitization.
func (s *Sanitizer) Validate(ctx context.Context, input string) error {
	if strings.TrimSpace(s.Sanitize(input)) == "" {
		return fmt.Errorf("%w: no allowed characters in input", ErrEmptyAfterSanitization)
	}
	return nil
}

// Sanitize returns a copy of input containing only allowed characters.
// Disallowed characters are dropped, not replaced, so the relative order
// and multiplicity of retained characters is preserved. Sanitize is total
// and idempotent: the empty string maps to the empty string, and an
// already-sanitized string is returned unchanged.
func (s *Sanitizer) Sanitize(input string) string {
	var result strings.Builder
	result.Grow(len(input))

	for _, r := range input {
		if s.allowed(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

func (s *Sanitizer) allowed(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return true
	}
	if r == '-' || r == '_' || r == '.' {
		return true
	}
	_, ok := s.extra[r]
	return ok
}

// Sanitize filters input through the default allow-list: letters, digits,
// whitespace, hyphen, underscore and period.
func Sanitize(input string) string {
	return NewSanitizer(nil).Sanitize(input)
}

// ValidateAndSanitize validates the raw input length, sanitizes it, and
// ensures the result is non-empty. The length check runs against the raw,
// unsanitized input. On success the sanitized string is returned; embedding
// it in a message template is the caller's concern.
func ValidateAndSanitize(input string, maxLength int) (string, error) {
	if err := ValidateLength(input, maxLength); err != nil {
		return "", err
	}

	sanitized := Sanitize(input)
	if strings.TrimSpace(sanitized) == "" {
		return "", fmt.Errorf("%w: no allowed characters in input", ErrEmptyAfterSanitization)
	}

	return sanitized, nil
}
