// Package commands provides the built-in command handlers exposed to the shell.
package commands

import (
	"context"
	"fmt"

	"github.com/tiptv/bridge/command"
	"github.com/tiptv/bridge/config"
	"github.com/tiptv/bridge/validation"
)

// Greet returns a handler that validates and sanitizes the caller-supplied
// name, then formats it into the configured greeting template.
func Greet(cfg config.GreetingConfig) command.Handler {
	maxLength := cfg.MaxNameLength
	if maxLength <= 0 {
		maxLength = validation.DefaultMaxLength
	}

	template := cfg.Template
	if template == "" {
		template = config.DefaultGreetingTemplate
	}

	return func(ctx context.Context, inv *command.Invocation) (string, error) {
		name, err := inv.RequireArg("name")
		if err != nil {
			return "", command.NewInvalidInputError(CommandGreet, err)
		}

		sanitized, err := validation.ValidateAndSanitize(name, maxLength)
		if err != nil {
			return "", command.NewInvalidInputError(CommandGreet, err)
		}

		return fmt.Sprintf(template, sanitized), nil
	}
}
