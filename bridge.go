// Package bridge provides the native backend for the TIPTV desktop shell.
//
// The bridge centralizes all host-shell command invocation behind a minimal
// API. Input crossing the trust boundary is validated and sanitized before a
// handler ever sees it, and the command table is frozen at startup.
//
// # Quick Start
//
// The simplest way to use the bridge:
//
//	// Create a bridge with default settings
//	b, err := bridge.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Shutdown(context.Background())
//
//	greeting, err := b.Greet(ctx, "Test User")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(greeting)
//
// # With Configuration
//
// For production use, load configuration from a YAML file:
//
//	loader, err := bridge.LoadConfig("/etc/tiptv-bridge", "bridge.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg, err := loader.Load(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	b, err := bridge.NewWithConfig(*cfg)
package bridge

import (
	"context"
	"fmt"

	"github.com/tiptv/bridge/command"
	"github.com/tiptv/bridge/commands"
	"github.com/tiptv/bridge/config"
	"github.com/tiptv/bridge/hooks"
	"github.com/tiptv/bridge/observability"
	"github.com/tiptv/bridge/platform"
	"github.com/tiptv/bridge/resilience"
	"github.com/tiptv/bridge/validation"
	"github.com/tiptv/bridge/version"
)

// =============================================================================
// Core Types
// =============================================================================

// Dispatcher is the primary interface for command invocation.
// All invocations from the shell MUST go through this interface so boundary
// controls are applied consistently.
type Dispatcher = command.Dispatcher

// Invocation represents a command invocation from the shell.
type Invocation = command.Invocation

// InvocationBuilder creates invocations with a fluent interface.
type InvocationBuilder = command.InvocationBuilder

// Result contains the outcome of a command invocation.
type Result = command.Result

// Handler is a command handler function.
type Handler = command.Handler

// Registry is a static command-name to handler table.
type Registry = command.Registry

// Config is the bridge configuration.
type Config = config.Config

// ConfigLoader loads configuration from YAML files.
type ConfigLoader = config.Loader

// =============================================================================
// Error Variables
// =============================================================================

// Common errors returned by the library.
var (
	// ErrLengthExceeded indicates input longer than the configured maximum.
	ErrLengthExceeded = validation.ErrLengthExceeded

	// ErrEmptyAfterSanitization indicates input reduced to nothing by sanitization.
	ErrEmptyAfterSanitization = validation.ErrEmptyAfterSanitization

	// ErrUnknownCommand indicates a command name missing from the table.
	ErrUnknownCommand = command.ErrUnknownCommand

	// ErrInvalidInput indicates input rejected at the trust boundary.
	ErrInvalidInput = command.ErrInvalidInput

	// ErrRateLimited indicates the rate limit was exceeded.
	ErrRateLimited = command.ErrRateLimited

	// ErrDispatcherShutdown indicates the dispatcher has been shut down.
	ErrDispatcherShutdown = command.ErrDispatcherShutdown
)

// =============================================================================
// Status Constants
// =============================================================================

// Invocation status values.
const (
	StatusSuccess        = command.StatusSuccess
	StatusError          = command.StatusError
	StatusInvalidInput   = command.StatusInvalidInput
	StatusUnknownCommand = command.StatusUnknownCommand
	StatusRateLimited    = command.StatusRateLimited
	StatusCanceled       = command.StatusCanceled
	StatusTimeout        = command.StatusTimeout
)

// Command names exposed by the built-in registry.
const (
	CommandGreet        = commands.CommandGreet
	CommandPlatformInfo = commands.CommandPlatformInfo
	CommandAppVersion   = commands.CommandAppVersion
)

// =============================================================================
// Bridge
// =============================================================================

// Bridge wires the built-in commands, validation, rate limiting and
// observability into a single dispatcher. It is safe for concurrent use.
type Bridge struct {
	dispatcher command.Dispatcher
	metrics    *observability.Metrics
	audit      observability.AuditLogger
	cfg        config.Config
}

// New creates a Bridge with default settings.
func New() (*Bridge, error) {
	return NewWithConfig(config.DefaultConfig())
}

// NewWithConfig creates a Bridge from the given configuration.
func NewWithConfig(cfg config.Config) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	b := &Bridge{
		cfg:     cfg,
		metrics: observability.NewMetrics(),
		audit:   observability.NoopAuditLogger(),
	}

	hookReg := hooks.NewRegistry()
	if cfg.Dispatcher.EnableMetrics {
		if err := hookReg.Register(observability.NewMetricsHook(b.metrics)); err != nil {
			return nil, err
		}
	}
	if cfg.Dispatcher.EnableAudit && cfg.Audit.Enabled {
		logger, err := observability.NewFileAuditLogger(cfg.Audit)
		if err != nil {
			return nil, fmt.Errorf("creating audit logger: %w", err)
		}
		b.audit = logger
		if err := hookReg.Register(observability.NewAuditHook(logger)); err != nil {
			return nil, err
		}
	}

	builder := command.NewBuilder().
		WithRegistry(commands.Builtin(cfg)).
		WithRateLimiter(resilience.NewRateLimiter(cfg.RateLimiter)).
		WithHooks(hookReg).
		WithDefaultTimeout(cfg.Dispatcher.DefaultTimeout)

	if cfg.Dispatcher.EnableTracing || cfg.Dispatcher.EnableMetrics {
		telemetry, err := observability.NewTelemetry(cfg.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("creating telemetry: %w", err)
		}
		builder = builder.WithTelemetry(&telemetryAdapter{telemetry})
	}

	dispatcher, err := builder.Build()
	if err != nil {
		return nil, err
	}

	b.dispatcher = dispatcher
	return b, nil
}

// Dispatch runs an invocation through the dispatcher.
func (b *Bridge) Dispatch(ctx context.Context, inv *Invocation) (*Result, error) {
	return b.dispatcher.Dispatch(ctx, inv)
}

// Greet validates, sanitizes and greets the given name.
func (b *Bridge) Greet(ctx context.Context, name string) (string, error) {
	inv := command.NewInvocation(CommandGreet).WithArg("name", name).MustBuild()
	result, err := b.dispatcher.Dispatch(ctx, inv)
	if err != nil {
		return "", err
	}
	return result.Value, nil
}

// PlatformInfo reports the platform identifier for the current build.
func (b *Bridge) PlatformInfo(ctx context.Context) (string, error) {
	inv := command.NewInvocation(CommandPlatformInfo).MustBuild()
	result, err := b.dispatcher.Dispatch(ctx, inv)
	if err != nil {
		return "", err
	}
	return result.Value, nil
}

// AppVersion reports the build-time application version.
func (b *Bridge) AppVersion(ctx context.Context) (string, error) {
	inv := command.NewInvocation(CommandAppVersion).MustBuild()
	result, err := b.dispatcher.Dispatch(ctx, inv)
	if err != nil {
		return "", err
	}
	return result.Value, nil
}

// Metrics returns a snapshot of the in-process invocation metrics.
func (b *Bridge) Metrics() observability.MetricsSnapshot {
	return b.metrics.Snapshot()
}

// Config returns the configuration the bridge was built with.
func (b *Bridge) Config() config.Config {
	return b.cfg
}

// Shutdown gracefully shuts down the bridge, waiting for in-flight
// invocations.
func (b *Bridge) Shutdown(ctx context.Context) error {
	err := b.dispatcher.Shutdown(ctx)
	if cerr := b.audit.Close(); err == nil {
		err = cerr
	}
	return err
}

// telemetryAdapter bridges the observability span options onto the
// dispatcher's narrower telemetry contract.
type telemetryAdapter struct {
	t observability.Telemetry
}

func (a *telemetryAdapter) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	return a.t.StartSpan(ctx, name)
}

func (a *telemetryAdapter) RecordDuration(name string, seconds float64, labels map[string]string) {
	a.t.RecordDuration(name, seconds, labels)
}

func (a *telemetryAdapter) RecordCounter(name string, labels map[string]string) {
	a.t.RecordCounter(name, labels)
}

func (a *telemetryAdapter) SetGauge(name string, value float64, labels map[string]string) {
	a.t.SetGauge(name, value, labels)
}

// =============================================================================
// Factory Functions
// =============================================================================

// NewBuilder creates a dispatcher builder for callers that want to assemble
// their own command table and middleware.
func NewBuilder() *command.Builder {
	return command.NewBuilder()
}

// NewInvocation creates an invocation builder for the named command.
func NewInvocation(name string) *InvocationBuilder {
	return command.NewInvocation(name)
}

// BuiltinRegistry returns the frozen table of built-in commands.
func BuiltinRegistry(cfg Config) *Registry {
	return commands.Builtin(cfg)
}

// =============================================================================
// Configuration Loading
// =============================================================================

// LoadConfig creates a configuration loader for a YAML file.
// The basePath is the directory containing the file; configFile is the
// name of the file relative to basePath.
func LoadConfig(basePath, configFile string) (*ConfigLoader, error) {
	return config.NewLoader(basePath, configFile)
}

// LoadConfigWithValidation creates a configuration loader with custom
// validators.
func LoadConfigWithValidation(basePath, configFile string, opts ...config.LoaderOption) (*ConfigLoader, error) {
	return config.NewLoader(basePath, configFile, opts...)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return config.DefaultConfig()
}

// DevelopmentConfig returns configuration suitable for development.
func DevelopmentConfig() Config {
	return config.DevelopmentConfig()
}

// ProductionConfig returns configuration suitable for production.
func ProductionConfig() Config {
	return config.ProductionConfig()
}

// =============================================================================
// Validation
// =============================================================================

// Sanitize strips disallowed characters from input, keeping letters,
// digits, whitespace, hyphens, underscores and periods.
func Sanitize(input string) string {
	return validation.Sanitize(input)
}

// ValidateLength checks input length in characters against a maximum.
func ValidateLength(input string, maxLength int) error {
	return validation.ValidateLength(input, maxLength)
}

// ValidateAndSanitize validates input length then sanitizes it, rejecting
// input that sanitizes to nothing.
func ValidateAndSanitize(input string, maxLength int) (string, error) {
	return validation.ValidateAndSanitize(input, maxLength)
}

// =============================================================================
// Platform and Version
// =============================================================================

// Platform returns the platform identifier for the current build.
func Platform() string {
	return platform.Identifier()
}

// Version returns the build-time application version.
func Version() string {
	return version.Get()
}
