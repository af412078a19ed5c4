package validation

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestValidateLength(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int
		wantErr bool
	}{
		{"short input", "short", 10, false},
		{"exactly at limit", "exactly10!", 10, false},
		{"over limit", "too long string", 5, true},
		{"empty input", "", 0, false},
		{"one over limit", "ab", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLength(tt.input, tt.max)
			if tt.wantErr && !errors.Is(err, ErrLengthExceeded) {
				t.Errorf("ValidateLength(%q, %d) = %v, want ErrLengthExceeded", tt.input, tt.max, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateLength(%q, %d) = %v, want nil", tt.input, tt.max, err)
			}
		})
	}
}

func TestValidateLength_CountsRunes(t *testing.T) {
	// Four characters, twelve bytes
	input := "日本語字"

	if err := ValidateLength(input, 4); err != nil {
		t.Errorf("Expected 4-rune input to pass max 4, got %v", err)
	}
	if err := ValidateLength(input, 3); !errors.Is(err, ErrLengthExceeded) {
		t.Errorf("Expected 4-rune input to fail max 3, got %v", err)
	}
}

func TestValidateLength_Message(t *testing.T) {
	err := ValidateLength(strings.Repeat("a", 101), 100)
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "maximum length") {
		t.Errorf("Expected message to contain 'maximum length', got %q", err.Error())
	}
}

func TestLengthValidator(t *testing.T) {
	v := NewLengthValidator(&LengthValidatorConfig{MaxLength: 5})

	if v.Name() != "length_validator" {
		t.Errorf("Unexpected name %q", v.Name())
	}

	if err := v.Validate(context.Background(), "short"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	err := v.Validate(context.Background(), "too long")
	if !errors.Is(err, ErrLengthExceeded) {
		t.Errorf("Expected ErrLengthExceeded, got %v", err)
	}
}

func TestLengthValidator_Defaults(t *testing.T) {
	v := NewLengthValidator(nil)

	if err := v.Validate(context.Background(), strings.Repeat("a", DefaultMaxLength)); err != nil {
		t.Errorf("Input at default limit should pass, got %v", err)
	}

	err := v.Validate(context.Background(), strings.Repeat("a", DefaultMaxLength+1))
	if !errors.Is(err, ErrLengthExceeded) {
		t.Errorf("Expected ErrLengthExceeded, got %v", err)
	}
}
