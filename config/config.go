// Package config provides configuration management for the bridge.
package config

import (
	"time"

	"github.com/tiptv/bridge/observability"
	"github.com/tiptv/bridge/resilience"
)

// DefaultGreetingTemplate is the greeting format applied to sanitized names.
const DefaultGreetingTemplate = "Hello, %s! Welcome to TIPTV."

// Config is the main configuration for the bridge.
type Config struct {
	RateLimiter resilience.RateLimiterConfig
	Telemetry   observability.TelemetryConfig
	Audit       observability.AuditConfig
	Greeting    GreetingConfig
	Dispatcher  DispatcherConfig
}

// GreetingConfig configures the greet command.
type GreetingConfig struct {
	// MaxNameLength is the maximum accepted name length in characters.
	MaxNameLength int

	// Template is the greeting format string with a single %s verb.
	Template string
}

// DispatcherConfig configures the dispatcher.
type DispatcherConfig struct {
	DefaultTimeout time.Duration
	EnableMetrics  bool
	EnableTracing  bool
	EnableAudit    bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Greeting: GreetingConfig{
			MaxNameLength: 100,
			Template:      DefaultGreetingTemplate,
		},
		Dispatcher: DispatcherConfig{
			DefaultTimeout: 5 * time.Second,
			EnableMetrics:  true,
			EnableTracing:  true,
			EnableAudit:    true,
		},
		RateLimiter: resilience.DefaultRateLimiterConfig(),
		Telemetry:   observability.DefaultTelemetryConfig(),
		Audit:       observability.DefaultAuditConfig(),
	}
}

// DevelopmentConfig returns configuration suitable for development.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Dispatcher.DefaultTimeout = 30 * time.Second
	cfg.RateLimiter.DefaultLimit = 1000
	cfg.RateLimiter.DefaultBurst = 2000
	cfg.Audit.LogLevel = observability.AuditLogAll
	cfg.Audit.IncludeInput = true
	cfg.Telemetry.Environment = "development"
	return cfg
}

// ProductionConfig returns configuration suitable for production.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.Dispatcher.DefaultTimeout = 5 * time.Second
	cfg.RateLimiter.DefaultLimit = 100
	cfg.RateLimiter.DefaultBurst = 150
	cfg.Audit.LogLevel = observability.AuditLogFailures
	cfg.Audit.IncludeInput = false
	cfg.Telemetry.Environment = "production"
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Greeting.MaxNameLength <= 0 {
		c.Greeting.MaxNameLength = 100
	}

	if c.Greeting.Template == "" {
		c.Greeting.Template = DefaultGreetingTemplate
	}

	if c.Dispatcher.DefaultTimeout <= 0 {
		c.Dispatcher.DefaultTimeout = 5 * time.Second
	}

	if c.RateLimiter.DefaultBurst < int(c.RateLimiter.DefaultLimit) {
		c.RateLimiter.DefaultBurst = int(c.RateLimiter.DefaultLimit)
	}

	return nil
}
