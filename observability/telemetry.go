// Package observability provides OpenTelemetry integration and audit logging.
package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry is the span and metric surface the dispatcher records into.
// Counter and gauge names are matched by suffix, so callers may pass either
// the bare instrument name or a prefixed one.
type Telemetry interface {
	// StartSpan starts a trace span. The returned func ends it.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func())

	// RecordDuration records an invocation duration in seconds.
	RecordDuration(name string, seconds float64, labels map[string]string)

	// RecordCounter increments the counter matching name.
	RecordCounter(name string, labels map[string]string)

	// SetGauge adjusts the active-invocations gauge by value.
	SetGauge(name string, value float64, labels map[string]string)
}

// SpanOption configures span creation.
type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes []attribute.KeyValue
	kind       trace.SpanKind
}

// WithAttribute adds an attribute to the span.
func WithAttribute(key string, value interface{}) SpanOption {
	return func(c *spanConfig) {
		switch v := value.(type) {
		case string:
			c.attributes = append(c.attributes, attribute.String(key, v))
		case int:
			c.attributes = append(c.attributes, attribute.Int(key, v))
		case int64:
			c.attributes = append(c.attributes, attribute.Int64(key, v))
		case float64:
			c.attributes = append(c.attributes, attribute.Float64(key, v))
		case bool:
			c.attributes = append(c.attributes, attribute.Bool(key, v))
		}
	}
}

// WithSpanKind sets the span kind.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// TelemetryConfig configures telemetry.
type TelemetryConfig struct {
	// ServiceName is the service name for tracing.
	ServiceName string

	// ServiceVersion is the service version.
	ServiceVersion string

	// Environment is the deployment environment.
	Environment string

	// EnableTracing enables distributed tracing.
	EnableTracing bool

	// EnableMetrics enables metrics collection.
	EnableMetrics bool

	// MetricsPrefix is prepended to every instrument name.
	MetricsPrefix string
}

// DefaultTelemetryConfig returns default configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		ServiceName:    "tiptv-bridge",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
		MetricsPrefix:  "bridge_",
	}
}

type telemetry struct {
	config TelemetryConfig
	tracer trace.Tracer
	meter  metric.Meter

	invocationCounter    metric.Int64Counter
	invocationDuration   metric.Float64Histogram
	activeInvocations    metric.Int64UpDownCounter
	errorCounter         metric.Int64Counter
	rejectedInputCounter metric.Int64Counter
}

// NewTelemetry creates a Telemetry backed by the global OTel providers and
// registers the bridge instrument set on it.
func NewTelemetry(config TelemetryConfig) (Telemetry, error) {
	t := &telemetry{
		config: config,
		tracer: otel.Tracer(config.ServiceName),
		meter:  otel.Meter(config.ServiceName),
	}
	if err := t.initInstruments(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *telemetry) initInstruments() error {
	prefix := t.config.MetricsPrefix
	var err error

	if t.invocationCounter, err = t.meter.Int64Counter(
		prefix+"invocations_total",
		metric.WithDescription("Total number of command invocations"),
	); err != nil {
		return err
	}
	if t.invocationDuration, err = t.meter.Float64Histogram(
		prefix+"invocation_duration_seconds",
		metric.WithDescription("Duration of command invocations in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}
	if t.activeInvocations, err = t.meter.Int64UpDownCounter(
		prefix+"active_invocations",
		metric.WithDescription("Number of invocations currently in flight"),
	); err != nil {
		return err
	}
	if t.errorCounter, err = t.meter.Int64Counter(
		prefix+"errors_total",
		metric.WithDescription("Total number of invocation errors"),
	); err != nil {
		return err
	}
	t.rejectedInputCounter, err = t.meter.Int64Counter(
		prefix+"rejected_input_total",
		metric.WithDescription("Total number of inputs rejected by validation"),
	)
	return err
}

func (t *telemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	if !t.config.EnableTracing {
		return ctx, func() {}
	}

	cfg := &spanConfig{
		kind: trace.SpanKindInternal,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithAttributes(cfg.attributes...),
		trace.WithSpanKind(cfg.kind),
	)

	return ctx, func() {
		span.End()
	}
}

func (t *telemetry) RecordDuration(name string, seconds float64, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}
	t.invocationDuration.Record(context.Background(), seconds,
		metric.WithAttributes(labelsToAttributes(labels)...))
}

func (t *telemetry) RecordCounter(name string, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	counter := t.invocationCounter
	switch {
	case strings.HasSuffix(name, "errors_total"):
		counter = t.errorCounter
	case strings.HasSuffix(name, "rejected_input_total"):
		counter = t.rejectedInputCounter
	}
	counter.Add(context.Background(), 1,
		metric.WithAttributes(labelsToAttributes(labels)...))
}

func (t *telemetry) SetGauge(name string, value float64, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}
	t.activeInvocations.Add(context.Background(), int64(value),
		metric.WithAttributes(labelsToAttributes(labels)...))
}

func labelsToAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// NoopTelemetry returns a telemetry implementation that discards everything.
func NoopTelemetry() Telemetry {
	return &noopTelemetry{}
}

type noopTelemetry struct{}

func (t *noopTelemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	return ctx, func() {}
}

func (t *noopTelemetry) RecordDuration(name string, seconds float64, labels map[string]string) {}
func (t *noopTelemetry) RecordCounter(name string, labels map[string]string)                   {}
func (t *noopTelemetry) SetGauge(name string, value float64, labels map[string]string)         {}
