// Package bridge provides the native backend for the TIPTV desktop shell.
//
// The bridge centralizes all host-shell command invocation behind a minimal
// API. Every invocation passes through a frozen command table, and input
// crossing the trust boundary is validated and sanitized before a handler
// ever sees it.
//
// # Key Features
//
//   - Single invocation abstraction with timeouts and cancellation
//   - Character allow-list sanitization for untrusted shell input
//   - Static command table frozen at startup
//   - YAML configuration with hot reload
//   - OpenTelemetry integration for metrics and tracing
//   - Per-command rate limiting
//
// # Basic Usage
//
//	b, err := bridge.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Shutdown(context.Background())
//
//	greeting, err := b.Greet(ctx, "Test User")
//
// # With Configuration
//
//	loader, _ := bridge.LoadConfig("/etc/tiptv-bridge", "bridge.yaml")
//	cfg, _ := loader.Load(ctx)
//
//	b, _ := bridge.NewWithConfig(*cfg)
//
// # Trust Boundary
//
// Names and other free-form input from the shell are untrusted. Input is
// checked against a configured length limit, then stripped to letters,
// digits, whitespace, hyphens, underscores and periods. Input that
// sanitizes to nothing is rejected.
//
// # File I/O
//
// All file operations use github.com/victoralfred/gowritter/safepath
// for secure path handling. Direct use of os.ReadFile, os.WriteFile,
// os.Open, os.Create, or io/ioutil is prohibited within this library.
//
// # Package Structure
//
//   - bridge: Main entry point and convenience functions
//   - command: Dispatcher, invocation types and the frozen registry
//   - commands: Built-in command handlers
//   - validation: Input sanitization and validation
//   - platform: Platform identification
//   - version: Build-time version information
//   - config: YAML configuration management
//   - resilience: Per-command rate limiting
//   - observability: OpenTelemetry metrics and audit logging
//   - hooks: Extension points for custom behavior
//   - shell: MCP stdio surface for shell integration
package bridge
