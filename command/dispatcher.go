package command

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Dispatcher is the single entry point for command invocation from the
// host shell. All invocations MUST go through this interface so boundary
// controls are applied consistently.
type Dispatcher interface {
	// Dispatch runs an invocation synchronously with the given context.
	Dispatch(ctx context.Context, inv *Invocation) (*Result, error)

	// Shutdown gracefully shuts down the dispatcher, waiting for
	// in-flight invocations.
	Shutdown(ctx context.Context) error
}

// RateLimiter controls invocation rate.
type RateLimiter interface {
	// Wait blocks until an invocation is allowed.
	Wait(ctx context.Context, command string) error
}

// Hook defines extension points around invocation.
type Hook interface {
	// PreInvoke is called before the handler runs.
	PreInvoke(ctx context.Context, inv *Invocation) (*Invocation, error)
	// PostInvoke is called after the handler runs.
	PostInvoke(ctx context.Context, inv *Invocation, result *Result, err error)
}

// Telemetry receives the spans and metrics emitted around each dispatch.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string) (context.Context, func())
	// RecordDuration records a duration in seconds.
	RecordDuration(name string, seconds float64, labels map[string]string)
	// RecordCounter increments the named counter.
	RecordCounter(name string, labels map[string]string)
	// SetGauge adjusts the named gauge by value.
	SetGauge(name string, value float64, labels map[string]string)
}

// dispatcher is the default implementation.
type dispatcher struct {
	registry       *Registry
	rateLimiter    RateLimiter
	telemetry      Telemetry
	hooks          []Hook
	wg             sync.WaitGroup
	mu             sync.RWMutex // protects shutdown check and wg.Add
	defaultTimeout time.Duration
	shutdown       int32
}

// Builder creates configured Dispatcher instances.
type Builder struct {
	registry       *Registry
	rateLimiter    RateLimiter
	telemetry      Telemetry
	hooks          []Hook
	defaultTimeout time.Duration
}

// NewBuilder creates a new dispatcher builder.
func NewBuilder() *Builder {
	return &Builder{
		defaultTimeout: 5 * time.Second,
	}
}

// WithRegistry sets the command registry.
func (b *Builder) WithRegistry(registry *Registry) *Builder {
	b.registry = registry
	return b
}

// WithRateLimiter sets the rate limiter.
func (b *Builder) WithRateLimiter(limiter RateLimiter) *Builder {
	b.rateLimiter = limiter
	return b
}

// WithHooks adds invocation hooks.
func (b *Builder) WithHooks(hooks ...Hook) *Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// WithTelemetry sets the telemetry provider.
func (b *Builder) WithTelemetry(telemetry Telemetry) *Builder {
	b.telemetry = telemetry
	return b
}

// WithDefaultTimeout sets the default invocation timeout.
func (b *Builder) WithDefaultTimeout(timeout time.Duration) *Builder {
	b.defaultTimeout = timeout
	return b
}

// Build creates the dispatcher. The registry is frozen on build; the
// command table cannot change once dispatch begins.
func (b *Builder) Build() (Dispatcher, error) {
	registry := b.registry
	if registry == nil {
		registry = NewRegistry()
	}
	registry.Freeze()

	return &dispatcher{
		registry:       registry,
		rateLimiter:    b.rateLimiter,
		telemetry:      b.telemetry,
		hooks:          b.hooks,
		defaultTimeout: b.defaultTimeout,
	}, nil
}

// Dispatch runs an invocation synchronously.
func (d *dispatcher) Dispatch(ctx context.Context, inv *Invocation) (*Result, error) {
	// Use mutex to ensure shutdown check and wg.Add are atomic
	// This prevents a race where Shutdown starts wg.Wait() between our check and Add
	d.mu.RLock()
	if atomic.LoadInt32(&d.shutdown) == 1 {
		d.mu.RUnlock()
		return nil, ErrDispatcherShutdown
	}
	d.wg.Add(1)
	d.mu.RUnlock()

	defer d.wg.Done()

	// Start telemetry span
	if d.telemetry != nil {
		var endSpan func()
		ctx, endSpan = d.telemetry.StartSpan(ctx, "dispatcher.Dispatch")
		defer endSpan()
	}

	// Generate invocation ID
	invocationID := uuid.New().String()

	// Run pre-invoke hooks
	var err error
	inv, err = d.runPreHooks(ctx, inv)
	if err != nil {
		return nil, err
	}

	// Look up the handler in the frozen command table
	handler, ok := d.registry.Get(inv.Command)
	if !ok {
		invErr := NewUnknownCommandError(inv.Command)
		result := d.buildResult(invocationID, inv, "", invErr, 0)
		d.finish(ctx, inv, result, invErr)
		return result, invErr
	}

	// Check rate limiter. A context that died while we waited is a
	// cancellation, not a rate limit.
	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(ctx, inv.Command); err != nil {
			var invErr error = NewRateLimitError(inv.Command)
			if ctxErr := ctx.Err(); ctxErr != nil {
				invErr = ctxErr
			}
			result := d.buildResult(invocationID, inv, "", invErr, 0)
			d.finish(ctx, inv, result, invErr)
			return result, invErr
		}
	}

	// Determine timeout
	timeout := inv.Timeout
	if timeout == 0 {
		timeout = d.defaultTimeout
	}

	invCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Invoke the handler
	if d.telemetry != nil {
		gaugeLabels := map[string]string{"command": inv.Command}
		d.telemetry.SetGauge("active_invocations", 1, gaugeLabels)
		defer d.telemetry.SetGauge("active_invocations", -1, gaugeLabels)
	}

	start := time.Now()
	value, handlerErr := handler(invCtx, inv)
	duration := time.Since(start)

	// Prefer the context error when the handler bailed on cancellation
	if handlerErr != nil && invCtx.Err() != nil && errors.Is(handlerErr, invCtx.Err()) {
		handlerErr = invCtx.Err()
	}

	result := d.buildResult(invocationID, inv, value, handlerErr, duration)
	d.finish(ctx, inv, result, handlerErr)

	return result, handlerErr
}

// Shutdown gracefully shuts down the dispatcher.
func (d *dispatcher) Shutdown(ctx context.Context) error {
	// Acquire write lock to prevent new dispatches from starting
	// Any Dispatch calls will block on RLock until we release
	d.mu.Lock()
	atomic.StoreInt32(&d.shutdown, 1)
	d.mu.Unlock()

	// Now wait for any in-flight invocations to complete
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish records metrics and runs post-invoke hooks.
func (d *dispatcher) finish(ctx context.Context, inv *Invocation, result *Result, invErr error) {
	if d.telemetry != nil {
		labels := map[string]string{
			"command": inv.Command,
			"status":  result.Status.String(),
		}
		d.telemetry.RecordCounter("invocations_total", labels)
		switch {
		case result.Status == StatusInvalidInput:
			d.telemetry.RecordCounter("rejected_input_total", labels)
		case invErr != nil:
			d.telemetry.RecordCounter("errors_total", labels)
		}
		d.telemetry.RecordDuration("invocation_duration_seconds", result.Duration.Seconds(), labels)
	}

	d.runPostHooks(ctx, inv, result, invErr)
}

// runPreHooks runs pre-invoke hooks.
// Hooks are read-only after dispatcher creation, so no lock needed.
func (d *dispatcher) runPreHooks(ctx context.Context, inv *Invocation) (*Invocation, error) {
	if len(d.hooks) == 0 {
		return inv, nil
	}

	current := inv
	for _, hook := range d.hooks {
		modified, err := hook.PreInvoke(ctx, current)
		if err != nil {
			return nil, err
		}
		current = modified
	}
	return current, nil
}

// runPostHooks runs post-invoke hooks.
func (d *dispatcher) runPostHooks(ctx context.Context, inv *Invocation, result *Result, invErr error) {
	for _, hook := range d.hooks {
		hook.PostInvoke(ctx, inv, result, invErr)
	}
}

// buildResult classifies the outcome of an invocation.
func (d *dispatcher) buildResult(invocationID string, inv *Invocation, value string, invErr error, duration time.Duration) *Result {
	result := &Result{
		InvocationID: invocationID,
		Command:      inv.Command,
		Value:        value,
		Duration:     duration,
	}

	switch {
	case invErr == nil:
		result.Status = StatusSuccess
		return result
	case errors.Is(invErr, context.DeadlineExceeded):
		result.Status = StatusTimeout
	case errors.Is(invErr, context.Canceled):
		result.Status = StatusCanceled
	case errors.Is(invErr, ErrInvalidInput) || GetErrorCode(invErr) == ErrCodeInvalidInput:
		result.Status = StatusInvalidInput
	case errors.Is(invErr, ErrUnknownCommand):
		result.Status = StatusUnknownCommand
	case errors.Is(invErr, ErrRateLimited):
		result.Status = StatusRateLimited
	default:
		result.Status = StatusError
	}

	result.Error = invErr.Error()
	return result
}
