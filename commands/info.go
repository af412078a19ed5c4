package commands

import (
	"context"

	"github.com/tiptv/bridge/command"
	"github.com/tiptv/bridge/platform"
	"github.com/tiptv/bridge/version"
)

// PlatformInfo returns a handler that reports the platform identifier.
func PlatformInfo() command.Handler {
	return func(ctx context.Context, inv *command.Invocation) (string, error) {
		return platform.Identifier(), nil
	}
}

// AppVersion returns a handler that reports the build-time version.
func AppVersion() command.Handler {
	return func(ctx context.Context, inv *command.Invocation) (string, error) {
		return version.Get(), nil
	}
}
