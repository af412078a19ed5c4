package config

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tiptv/bridge/observability"
	"github.com/victoralfred/gowritter/safepath"
	"gopkg.in/yaml.v3"
)

// Loader loads and manages configuration from YAML files.
type Loader struct {
	path       string
	safePath   *safepath.SafePath
	config     *Config
	mu         sync.RWMutex
	lastHash   []byte
	lastLoad   time.Time
	validators []FileValidator
	onChange   []func(*Config)
	watchStop  chan struct{}
}

// FileValidator validates a configuration file before it is applied.
type FileValidator interface {
	Validate(file *FileConfig) error
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithValidator adds a file validator.
func WithValidator(v FileValidator) LoaderOption {
	return func(l *Loader) {
		l.validators = append(l.validators, v)
	}
}

// WithOnChange adds a callback for configuration changes.
func WithOnChange(fn func(*Config)) LoaderOption {
	return func(l *Loader) {
		l.onChange = append(l.onChange, fn)
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(basePath, configFile string, opts ...LoaderOption) (*Loader, error) {
	sp, err := safepath.New(basePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	l := &Loader{
		path:       configFile,
		safePath:   sp,
		validators: make([]FileValidator, 0),
		onChange:   make([]func(*Config), 0),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Load loads the configuration from the file. File values overlay the
// default configuration.
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Read file using gowritter
	data, err := l.safePath.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Check if file changed
	hash := sha256.Sum256(data)
	if l.config != nil && string(hash[:]) == string(l.lastHash) {
		return l.config, nil
	}

	file, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	for _, v := range l.validators {
		if err := v.Validate(file); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	cfg := DefaultConfig()
	file.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("applying config: %w", err)
	}

	l.config = &cfg
	l.lastHash = hash[:]
	l.lastLoad = time.Now()

	// Notify listeners
	for _, fn := range l.onChange {
		fn(&cfg)
	}

	return &cfg, nil
}

// Get returns the current configuration without reloading.
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// Reload reloads the configuration from the file.
func (l *Loader) Reload(ctx context.Context) error {
	_, err := l.Load(ctx)
	return err
}

// Watch starts watching for configuration file changes. It is a no-op if
// a watcher is already running.
func (l *Loader) Watch(ctx context.Context, interval time.Duration) {
	l.mu.Lock()
	if l.watchStop != nil {
		l.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	l.watchStop = stop
	l.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				if _, err := l.Load(ctx); err != nil {
					// Log error but continue watching
					_ = err
				}
			}
		}
	}()
}

// StopWatch stops the running watcher. Safe to call repeatedly.
func (l *Loader) StopWatch() {
	l.mu.Lock()
	stop := l.watchStop
	l.watchStop = nil
	l.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

// FileConfig is the YAML schema for a configuration file. All fields are
// optional overrides of the defaults.
type FileConfig struct {
	Greeting struct {
		MaxNameLength *int    `yaml:"max_name_length"`
		Template      *string `yaml:"template"`
	} `yaml:"greeting"`
	Dispatcher struct {
		DefaultTimeout *Duration `yaml:"default_timeout"`
		EnableMetrics  *bool     `yaml:"enable_metrics"`
		EnableTracing  *bool     `yaml:"enable_tracing"`
		EnableAudit    *bool     `yaml:"enable_audit"`
	} `yaml:"dispatcher"`
	RateLimiter struct {
		DefaultLimit *float64 `yaml:"default_limit"`
		DefaultBurst *int     `yaml:"default_burst"`
		PerCommand   *bool    `yaml:"per_command"`
	} `yaml:"rate_limiter"`
	Audit struct {
		Enabled      *bool   `yaml:"enabled"`
		LogLevel     *string `yaml:"log_level"`
		BasePath     *string `yaml:"base_path"`
		FilePath     *string `yaml:"file_path"`
		IncludeInput *bool   `yaml:"include_input"`
	} `yaml:"audit"`
	Telemetry struct {
		ServiceName   *string `yaml:"service_name"`
		Environment   *string `yaml:"environment"`
		EnableTracing *bool   `yaml:"enable_tracing"`
		EnableMetrics *bool   `yaml:"enable_metrics"`
	} `yaml:"telemetry"`
}

// ParseYAML parses a YAML configuration file.
func ParseYAML(data []byte) (*FileConfig, error) {
	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *FileConfig) apply(cfg *Config) {
	if f.Greeting.MaxNameLength != nil {
		cfg.Greeting.MaxNameLength = *f.Greeting.MaxNameLength
	}
	if f.Greeting.Template != nil {
		cfg.Greeting.Template = *f.Greeting.Template
	}

	if f.Dispatcher.DefaultTimeout != nil {
		cfg.Dispatcher.DefaultTimeout = f.Dispatcher.DefaultTimeout.Duration
	}
	if f.Dispatcher.EnableMetrics != nil {
		cfg.Dispatcher.EnableMetrics = *f.Dispatcher.EnableMetrics
	}
	if f.Dispatcher.EnableTracing != nil {
		cfg.Dispatcher.EnableTracing = *f.Dispatcher.EnableTracing
	}
	if f.Dispatcher.EnableAudit != nil {
		cfg.Dispatcher.EnableAudit = *f.Dispatcher.EnableAudit
	}

	if f.RateLimiter.DefaultLimit != nil {
		cfg.RateLimiter.DefaultLimit = *f.RateLimiter.DefaultLimit
	}
	if f.RateLimiter.DefaultBurst != nil {
		cfg.RateLimiter.DefaultBurst = *f.RateLimiter.DefaultBurst
	}
	if f.RateLimiter.PerCommand != nil {
		cfg.RateLimiter.PerCommand = *f.RateLimiter.PerCommand
	}

	if f.Audit.Enabled != nil {
		cfg.Audit.Enabled = *f.Audit.Enabled
	}
	if f.Audit.LogLevel != nil {
		cfg.Audit.LogLevel = auditLogLevel(*f.Audit.LogLevel)
	}
	if f.Audit.BasePath != nil {
		cfg.Audit.BasePath = *f.Audit.BasePath
	}
	if f.Audit.FilePath != nil {
		cfg.Audit.FilePath = *f.Audit.FilePath
	}
	if f.Audit.IncludeInput != nil {
		cfg.Audit.IncludeInput = *f.Audit.IncludeInput
	}

	if f.Telemetry.ServiceName != nil {
		cfg.Telemetry.ServiceName = *f.Telemetry.ServiceName
	}
	if f.Telemetry.Environment != nil {
		cfg.Telemetry.Environment = *f.Telemetry.Environment
	}
	if f.Telemetry.EnableTracing != nil {
		cfg.Telemetry.EnableTracing = *f.Telemetry.EnableTracing
	}
	if f.Telemetry.EnableMetrics != nil {
		cfg.Telemetry.EnableMetrics = *f.Telemetry.EnableMetrics
	}
}

// DefaultFileValidator validates a configuration file.
type DefaultFileValidator struct{}

// Validate validates the configuration file.
func (v *DefaultFileValidator) Validate(file *FileConfig) error {
	if file.Greeting.MaxNameLength != nil && *file.Greeting.MaxNameLength <= 0 {
		return fmt.Errorf("greeting.max_name_length must be positive")
	}

	if file.Greeting.Template != nil && !validTemplate(*file.Greeting.Template) {
		return fmt.Errorf("greeting.template must contain exactly one %%s verb")
	}

	if file.RateLimiter.DefaultLimit != nil && *file.RateLimiter.DefaultLimit <= 0 {
		return fmt.Errorf("rate_limiter.default_limit must be positive")
	}

	if file.Audit.LogLevel != nil {
		switch *file.Audit.LogLevel {
		case "all", "failures", "rejections":
		default:
			return fmt.Errorf("audit.log_level must be one of all, failures, rejections")
		}
	}

	return nil
}

func auditLogLevel(s string) observability.AuditLogLevel {
	return observability.AuditLogLevel(s)
}

func validTemplate(tmpl string) bool {
	return strings.Count(tmpl, "%s") == 1 && strings.Count(tmpl, "%") == 1
}

// Duration wraps time.Duration for YAML parsing of values like "5s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}
