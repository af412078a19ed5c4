// Package shell exposes the bridge commands to the desktop shell over the
// Model Context Protocol. The stdio transport keeps the surface identical
// for every shell host that speaks MCP.
package shell

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tiptv/bridge"
	"github.com/tiptv/bridge/platform"
	"github.com/tiptv/bridge/version"
)

// Serve starts the MCP server over stdio. It blocks until the client
// disconnects or the process is signalled.
func Serve(cfg bridge.Config) error {
	// Log to stderr; stdout is reserved for MCP JSON-RPC messages
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	b, err := bridge.NewWithConfig(cfg)
	if err != nil {
		slog.Error("failed to build bridge", "error", err)
		return err
	}
	defer func() {
		_ = b.Shutdown(context.Background())
	}()

	s := server.NewMCPServer(
		"tiptv-bridge",
		version.Get(),
		server.WithToolCapabilities(true),
	)

	registerTools(s, b)

	host := platform.Current()
	slog.Info("bridge MCP server ready",
		"version", version.Get(),
		"transport", "stdio",
		"platform", host.OS,
		"arch", host.Arch,
		"locale", host.Locale,
	)

	err = server.ServeStdio(s)
	if errors.Is(err, context.Canceled) {
		slog.Info("server stopped")
		return nil
	}
	return err
}

// registerTools exposes the built-in commands as MCP tools.
func registerTools(s *server.MCPServer, b *bridge.Bridge) {
	s.AddTool(
		mcp.NewTool(bridge.CommandGreet,
			mcp.WithDescription("Greet a user by name. The name is validated and sanitized before use."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Name to greet, at most 100 characters")),
		),
		greetHandler(b),
	)

	s.AddTool(
		mcp.NewTool(bridge.CommandPlatformInfo,
			mcp.WithDescription("Report the platform identifier for the current build (windows, macos, linux, ios or android)."),
		),
		dispatchHandler(b, bridge.CommandPlatformInfo),
	)

	s.AddTool(
		mcp.NewTool(bridge.CommandAppVersion,
			mcp.WithDescription("Report the build-time application version."),
		),
		dispatchHandler(b, bridge.CommandAppVersion),
	)
}

func greetHandler(b *bridge.Bridge) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError("name is required"), nil //nolint:nilerr
		}

		inv := bridge.NewInvocation(bridge.CommandGreet).WithArg("name", name).MustBuild()
		result, err := b.Dispatch(ctx, inv)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !result.Success() {
			return mcp.NewToolResultError(result.Error), nil
		}

		return mcp.NewToolResultText(result.Value), nil
	}
}

func dispatchHandler(b *bridge.Bridge, name string) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		inv := bridge.NewInvocation(name).MustBuild()
		result, err := b.Dispatch(ctx, inv)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !result.Success() {
			return mcp.NewToolResultError(result.Error), nil
		}

		return mcp.NewToolResultText(result.Value), nil
	}
}
