package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tiptv/bridge/command"
	"github.com/victoralfred/gowritter/safepath"
)

// AuditLogger provides append-only audit logging of command invocations.
type AuditLogger interface {
	// Log logs an audit event.
	Log(ctx context.Context, event *AuditEvent) error

	// Close closes the audit logger.
	Close() error
}

// AuditEvent represents an audit log entry.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Command   string            `json:"command"`
	Error     string            `json:"error,omitempty"`
	Input     string            `json:"input,omitempty"`
	Type      AuditEventType    `json:"type"`
	Duration  time.Duration     `json:"duration"`
}

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// AuditEventInvocation is a command invocation event.
	AuditEventInvocation AuditEventType = "invocation"

	// AuditEventRejectedInput is a validation rejection event.
	AuditEventRejectedInput AuditEventType = "rejected_input"

	// AuditEventRateLimited is a rate limiting event.
	AuditEventRateLimited AuditEventType = "rate_limited"

	// AuditEventError is an error event.
	AuditEventError AuditEventType = "error"
)

// AuditConfig configures the audit logger.
type AuditConfig struct {
	LogLevel     AuditLogLevel
	BasePath     string
	FilePath     string
	MaxInputSize int
	Enabled      bool
	IncludeInput bool
}

// AuditLogLevel determines what events to log.
type AuditLogLevel string

const (
	// AuditLogAll logs all events.
	AuditLogAll AuditLogLevel = "all"

	// AuditLogFailures logs only failures.
	AuditLogFailures AuditLogLevel = "failures"

	// AuditLogRejections logs only validation rejections.
	AuditLogRejections AuditLogLevel = "rejections"
)

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:      true,
		LogLevel:     AuditLogAll,
		IncludeInput: false,
		MaxInputSize: 256,
		BasePath:     "/var/log",
		FilePath:     "tiptv-bridge/audit.log",
	}
}

// fileAuditLogger implements AuditLogger using gowritter.
type fileAuditLogger struct {
	safePath *safepath.SafePath
	config   AuditConfig
	mu       sync.Mutex
}

// NewFileAuditLogger creates a new file-based audit logger.
func NewFileAuditLogger(config AuditConfig) (AuditLogger, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &fileAuditLogger{
		config:   config,
		safePath: sp,
	}, nil
}

// Log implements AuditLogger.Log.
func (l *fileAuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	if !l.config.Enabled {
		return nil
	}

	// Check log level
	if !l.shouldLog(event) {
		return nil
	}

	// Input is omitted unless explicitly enabled
	if !l.config.IncludeInput {
		event.Input = ""
	} else if len(event.Input) > l.config.MaxInputSize {
		event.Input = event.Input[:l.config.MaxInputSize] + "...(truncated)"
	}

	// Marshal to JSON
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}

	// Append newline
	data = append(data, '\n')

	// Write to file using gowritter
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	return nil
}

// Close implements AuditLogger.Close.
func (l *fileAuditLogger) Close() error {
	return nil
}

func (l *fileAuditLogger) shouldLog(event *AuditEvent) bool {
	switch l.config.LogLevel {
	case AuditLogAll:
		return true
	case AuditLogFailures:
		return event.Status != "success"
	case AuditLogRejections:
		return event.Type == AuditEventRejectedInput
	default:
		return true
	}
}

// CreateAuditEvent creates an audit event from an invocation result.
func CreateAuditEvent(inv *command.Invocation, result *command.Result, invErr error) *AuditEvent {
	event := &AuditEvent{
		ID:        result.InvocationID,
		Timestamp: time.Now(),
		Type:      AuditEventInvocation,
		Command:   result.Command,
		Status:    result.Status.String(),
		Duration:  result.Duration,
	}

	if inv != nil {
		event.Metadata = inv.Metadata
		if v, ok := inv.Arg("name"); ok {
			event.Input = v
		}
	}

	if invErr != nil {
		event.Error = invErr.Error()
		event.Type = AuditEventError
	}

	switch result.Status {
	case command.StatusInvalidInput:
		event.Type = AuditEventRejectedInput
	case command.StatusRateLimited:
		event.Type = AuditEventRateLimited
	}

	return event
}

// AuditHook forwards invocation results to an audit logger. It satisfies
// the dispatcher's post-invoke hook contract.
type AuditHook struct {
	logger AuditLogger
}

// NewAuditHook creates a hook that audits every completed invocation.
func NewAuditHook(logger AuditLogger) *AuditHook {
	return &AuditHook{logger: logger}
}

func (h *AuditHook) Name() string  { return "audit" }
func (h *AuditHook) Priority() int { return 100 }

func (h *AuditHook) PostInvoke(ctx context.Context, inv *command.Invocation, result *command.Result, err error) {
	if result == nil {
		return
	}
	_ = h.logger.Log(ctx, CreateAuditEvent(inv, result, err))
}

// NoopAuditLogger returns a no-op audit logger.
func NoopAuditLogger() AuditLogger {
	return &noopAuditLogger{}
}

type noopAuditLogger struct{}

func (l *noopAuditLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }
func (l *noopAuditLogger) Close() error                                     { return nil }
