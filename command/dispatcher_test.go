package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// mockRateLimiter is a mock rate limiter for testing.
type mockRateLimiter struct {
	waitErr error
	calls   int
	mu      sync.Mutex
}

func (m *mockRateLimiter) Wait(ctx context.Context, command string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.waitErr
}

// mockHook records invocation lifecycle calls.
type mockHook struct {
	preCalls  int
	postCalls int
	preErr    error
	mu        sync.Mutex
}

func (m *mockHook) PreInvoke(ctx context.Context, inv *Invocation) (*Invocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preCalls++
	if m.preErr != nil {
		return nil, m.preErr
	}
	return inv, nil
}

func (m *mockHook) PostInvoke(ctx context.Context, inv *Invocation, result *Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postCalls++
}

func newTestDispatcher(t *testing.T, registry *Registry, opts ...func(*Builder)) Dispatcher {
	t.Helper()

	b := NewBuilder().WithRegistry(registry)
	for _, opt := range opts {
		opt(b)
	}

	d, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build dispatcher: %v", err)
	}
	return d
}

func TestDispatcher_Dispatch_Success(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", func(ctx context.Context, inv *Invocation) (string, error) {
		v, _ := inv.Arg("value")
		return v, nil
	})

	d := newTestDispatcher(t, registry)
	defer d.Shutdown(context.Background())

	inv := NewInvocation("echo").WithArg("value", "hello").MustBuild()
	result, err := d.Dispatch(context.Background(), inv)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if !result.Success() {
		t.Errorf("Expected success, got status %s", result.Status)
	}
	if result.Value != "hello" {
		t.Errorf("Value = %q, want 'hello'", result.Value)
	}
	if result.InvocationID == "" {
		t.Error("Expected non-empty invocation ID")
	}
	if result.Command != "echo" {
		t.Errorf("Command = %q, want 'echo'", result.Command)
	}
}

func TestDispatcher_Dispatch_UnknownCommand(t *testing.T) {
	d := newTestDispatcher(t, NewRegistry())
	defer d.Shutdown(context.Background())

	inv := NewInvocation("nonexistent").MustBuild()
	result, err := d.Dispatch(context.Background(), inv)

	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}
	if result.Status != StatusUnknownCommand {
		t.Errorf("Status = %s, want unknown_command", result.Status)
	}
	if GetErrorCode(err) != ErrCodeUnknownCommand {
		t.Errorf("Code = %s, want UNKNOWN_COMMAND", GetErrorCode(err))
	}
}

func TestDispatcher_Dispatch_HandlerError(t *testing.T) {
	handlerErr := errors.New("boom")
	registry := NewRegistry()
	registry.Register("failing", func(ctx context.Context, inv *Invocation) (string, error) {
		return "", handlerErr
	})

	d := newTestDispatcher(t, registry)
	defer d.Shutdown(context.Background())

	inv := NewInvocation("failing").MustBuild()
	result, err := d.Dispatch(context.Background(), inv)

	if !errors.Is(err, handlerErr) {
		t.Errorf("Expected handler error, got %v", err)
	}
	if result.Status != StatusError {
		t.Errorf("Status = %s, want error", result.Status)
	}
	if result.Error == "" {
		t.Error("Expected error message in result")
	}
}

func TestDispatcher_Dispatch_InvalidInput(t *testing.T) {
	registry := NewRegistry()
	registry.Register("strict", func(ctx context.Context, inv *Invocation) (string, error) {
		return "", NewInvalidInputError("strict", fmt.Errorf("input exceeds maximum length of 10 characters"))
	})

	d := newTestDispatcher(t, registry)
	defer d.Shutdown(context.Background())

	inv := NewInvocation("strict").MustBuild()
	result, err := d.Dispatch(context.Background(), inv)

	if result.Status != StatusInvalidInput {
		t.Errorf("Status = %s, want invalid_input", result.Status)
	}
	if GetErrorCode(err) != ErrCodeInvalidInput {
		t.Errorf("Code = %s, want INVALID_INPUT", GetErrorCode(err))
	}
}

func TestDispatcher_Dispatch_RateLimited(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", nopHandler)

	limiter := &mockRateLimiter{waitErr: errors.New("limit")}
	d := newTestDispatcher(t, registry, func(b *Builder) {
		b.WithRateLimiter(limiter)
	})
	defer d.Shutdown(context.Background())

	inv := NewInvocation("echo").MustBuild()
	result, err := d.Dispatch(context.Background(), inv)

	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
	if result.Status != StatusRateLimited {
		t.Errorf("Status = %s, want rate_limited", result.Status)
	}
	if !IsRetryable(err) {
		t.Error("Rate limit errors should be retryable")
	}
}

func TestDispatcher_Dispatch_Timeout(t *testing.T) {
	registry := NewRegistry()
	registry.Register("slow", func(ctx context.Context, inv *Invocation) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return "done", nil
		}
	})

	d := newTestDispatcher(t, registry, func(b *Builder) {
		b.WithDefaultTimeout(10 * time.Millisecond)
	})
	defer d.Shutdown(context.Background())

	inv := NewInvocation("slow").MustBuild()
	result, err := d.Dispatch(context.Background(), inv)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if result.Status != StatusTimeout {
		t.Errorf("Status = %s, want timeout", result.Status)
	}
}

func TestDispatcher_Dispatch_Hooks(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", nopHandler)

	hook := &mockHook{}
	d := newTestDispatcher(t, registry, func(b *Builder) {
		b.WithHooks(hook)
	})
	defer d.Shutdown(context.Background())

	inv := NewInvocation("echo").MustBuild()
	if _, err := d.Dispatch(context.Background(), inv); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if hook.preCalls != 1 {
		t.Errorf("PreInvoke called %d times, want 1", hook.preCalls)
	}
	if hook.postCalls != 1 {
		t.Errorf("PostInvoke called %d times, want 1", hook.postCalls)
	}
}

func TestDispatcher_Dispatch_PreHookError(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", nopHandler)

	hookErr := errors.New("rejected")
	hook := &mockHook{preErr: hookErr}
	d := newTestDispatcher(t, registry, func(b *Builder) {
		b.WithHooks(hook)
	})
	defer d.Shutdown(context.Background())

	inv := NewInvocation("echo").MustBuild()
	_, err := d.Dispatch(context.Background(), inv)
	if !errors.Is(err, hookErr) {
		t.Errorf("Expected hook error, got %v", err)
	}
}

func TestDispatcher_Shutdown(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", nopHandler)

	d := newTestDispatcher(t, registry)

	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	inv := NewInvocation("echo").MustBuild()
	_, err := d.Dispatch(context.Background(), inv)
	if !errors.Is(err, ErrDispatcherShutdown) {
		t.Errorf("Expected ErrDispatcherShutdown, got %v", err)
	}
}

func TestDispatcher_Shutdown_WaitsForInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	registry := NewRegistry()
	registry.Register("blocking", func(ctx context.Context, inv *Invocation) (string, error) {
		close(started)
		<-release
		return "done", nil
	})

	d := newTestDispatcher(t, registry, func(b *Builder) {
		b.WithDefaultTimeout(5 * time.Second)
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		inv := NewInvocation("blocking").MustBuild()
		_, _ = d.Dispatch(context.Background(), inv)
	}()

	<-started

	shutdownDone := make(chan error, 1)
	go func() {
		shutdownDone <- d.Shutdown(context.Background())
	}()

	select {
	case <-shutdownDone:
		t.Fatal("Shutdown returned before in-flight invocation completed")
	case <-time.After(50 * time.Millisecond):
		// Expected: still waiting
	}

	close(release)
	wg.Wait()

	if err := <-shutdownDone; err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestDispatcher_ConcurrentDispatch(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", func(ctx context.Context, inv *Invocation) (string, error) {
		v, _ := inv.Arg("value")
		return v, nil
	})

	d := newTestDispatcher(t, registry)
	defer d.Shutdown(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			inv := NewInvocation("echo").WithArg("value", fmt.Sprintf("v%d", n)).MustBuild()
			result, err := d.Dispatch(context.Background(), inv)
			if err != nil {
				t.Errorf("Dispatch failed: %v", err)
				return
			}
			if result.Value != fmt.Sprintf("v%d", n) {
				t.Errorf("Value = %q, want v%d", result.Value, n)
			}
		}(i)
	}

	wg.Wait()
}

// mockTelemetry records every span and metric the dispatcher emits.
type mockTelemetry struct {
	mu        sync.Mutex
	spans     []string
	counters  []string
	durations map[string]float64
	gauges    []float64
}

func (m *mockTelemetry) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spans = append(m.spans, name)
	return ctx, func() {}
}

func (m *mockTelemetry) RecordDuration(name string, seconds float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.durations == nil {
		m.durations = make(map[string]float64)
	}
	m.durations[name] = seconds
}

func (m *mockTelemetry) RecordCounter(name string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, name)
}

func (m *mockTelemetry) SetGauge(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges = append(m.gauges, value)
}

func (m *mockTelemetry) counted(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.counters {
		if c == name {
			n++
		}
	}
	return n
}

func TestDispatcher_Telemetry_Success(t *testing.T) {
	registry := NewRegistry()
	registry.Register("slow", func(ctx context.Context, inv *Invocation) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "ok", nil
	})

	tel := &mockTelemetry{}
	d := newTestDispatcher(t, registry, func(b *Builder) {
		b.WithTelemetry(tel)
	})

	inv := NewInvocation("slow").MustBuild()
	if _, err := d.Dispatch(context.Background(), inv); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	d.Shutdown(context.Background())

	if len(tel.spans) != 1 || tel.spans[0] != "dispatcher.Dispatch" {
		t.Errorf("Spans = %v, want [dispatcher.Dispatch]", tel.spans)
	}
	if got := tel.counted("invocations_total"); got != 1 {
		t.Errorf("invocations_total incremented %d times, want 1", got)
	}
	if got := tel.counted("errors_total"); got != 0 {
		t.Errorf("errors_total incremented %d times, want 0", got)
	}

	seconds, ok := tel.durations["invocation_duration_seconds"]
	if !ok {
		t.Fatal("Expected a recorded invocation duration")
	}
	if seconds < 0.02 || seconds >= 1 {
		t.Errorf("Duration = %v, want seconds in [0.02, 1)", seconds)
	}
}

func TestDispatcher_Telemetry_ActiveGauge(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", nopHandler)

	tel := &mockTelemetry{}
	d := newTestDispatcher(t, registry, func(b *Builder) {
		b.WithTelemetry(tel)
	})

	inv := NewInvocation("echo").MustBuild()
	if _, err := d.Dispatch(context.Background(), inv); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	d.Shutdown(context.Background())

	want := []float64{1, -1}
	if len(tel.gauges) != len(want) || tel.gauges[0] != want[0] || tel.gauges[1] != want[1] {
		t.Errorf("Gauge adjustments = %v, want %v", tel.gauges, want)
	}
}

func TestDispatcher_Telemetry_ErrorCounter(t *testing.T) {
	registry := NewRegistry()
	registry.Register("failing", func(ctx context.Context, inv *Invocation) (string, error) {
		return "", errors.New("boom")
	})

	tel := &mockTelemetry{}
	d := newTestDispatcher(t, registry, func(b *Builder) {
		b.WithTelemetry(tel)
	})
	defer d.Shutdown(context.Background())

	inv := NewInvocation("failing").MustBuild()
	d.Dispatch(context.Background(), inv)

	if got := tel.counted("invocations_total"); got != 1 {
		t.Errorf("invocations_total incremented %d times, want 1", got)
	}
	if got := tel.counted("errors_total"); got != 1 {
		t.Errorf("errors_total incremented %d times, want 1", got)
	}
	if got := tel.counted("rejected_input_total"); got != 0 {
		t.Errorf("rejected_input_total incremented %d times, want 0", got)
	}
}

func TestDispatcher_Telemetry_RejectedInputCounter(t *testing.T) {
	registry := NewRegistry()
	registry.Register("strict", func(ctx context.Context, inv *Invocation) (string, error) {
		return "", NewInvalidInputError("strict", fmt.Errorf("input contained only disallowed characters"))
	})

	tel := &mockTelemetry{}
	d := newTestDispatcher(t, registry, func(b *Builder) {
		b.WithTelemetry(tel)
	})
	defer d.Shutdown(context.Background())

	inv := NewInvocation("strict").MustBuild()
	d.Dispatch(context.Background(), inv)

	if got := tel.counted("rejected_input_total"); got != 1 {
		t.Errorf("rejected_input_total incremented %d times, want 1", got)
	}
	if got := tel.counted("errors_total"); got != 0 {
		t.Errorf("errors_total incremented %d times, want 0", got)
	}
}

// blockingRateLimiter waits until the context is done, like a real limiter
// with no tokens available.
type blockingRateLimiter struct{}

func (b *blockingRateLimiter) Wait(ctx context.Context, command string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatcher_Dispatch_CanceledWhileRateLimited(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", nopHandler)

	d := newTestDispatcher(t, registry, func(b *Builder) {
		b.WithRateLimiter(&blockingRateLimiter{})
	})
	defer d.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := NewInvocation("echo").MustBuild()
	result, err := d.Dispatch(ctx, inv)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("Cancellation must not surface as a rate limit error")
	}
	if result.Status != StatusCanceled {
		t.Errorf("Status = %s, want canceled", result.Status)
	}
}
