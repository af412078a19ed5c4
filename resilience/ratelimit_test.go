package resilience

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewRateLimiter(t *testing.T) {
	config := DefaultRateLimiterConfig()
	rl := NewRateLimiter(config)

	if rl == nil {
		t.Fatal("NewRateLimiter returned nil")
	}

	// Should allow requests
	if !rl.Allow("greet") {
		t.Error("Rate limiter should allow initial requests")
	}
}

func TestRateLimiter_GlobalMode(t *testing.T) {
	config := DefaultRateLimiterConfig()
	config.PerCommand = false
	config.DefaultLimit = 10.0
	config.DefaultBurst = 5
	rl := NewRateLimiter(config)

	// All commands should use same limiter
	allowed1 := rl.Allow("greet")
	allowed2 := rl.Allow("platform_info")

	if !allowed1 || !allowed2 {
		t.Error("Should allow initial requests in global mode")
	}
}

func TestRateLimiter_PerCommandMode(t *testing.T) {
	config := DefaultRateLimiterConfig()
	config.PerCommand = true
	config.DefaultLimit = 100.0
	config.DefaultBurst = 10
	rl := NewRateLimiter(config)

	// Each command should have a separate limiter
	if !rl.Allow("greet") {
		t.Error("Should allow request for greet")
	}
	if !rl.Allow("app_version") {
		t.Error("Should allow request for app_version")
	}
}

func TestRateLimiter_BurstExhaustion(t *testing.T) {
	config := DefaultRateLimiterConfig()
	config.DefaultLimit = 0.1 // Very slow refill
	config.DefaultBurst = 2
	rl := NewRateLimiter(config)

	if !rl.Allow("greet") {
		t.Error("First request should be allowed")
	}
	if !rl.Allow("greet") {
		t.Error("Second request should be allowed (burst)")
	}
	if rl.Allow("greet") {
		t.Error("Third request should be denied")
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	config := DefaultRateLimiterConfig()
	config.DefaultLimit = 10.0
	config.DefaultBurst = 2
	rl := NewRateLimiter(config)

	ctx := context.Background()

	// Should wait without error
	if err := rl.Wait(ctx, "greet"); err != nil {
		t.Errorf("Wait should not error initially: %v", err)
	}
}

func TestRateLimiter_Wait_ContextCanceled(t *testing.T) {
	config := DefaultRateLimiterConfig()
	config.DefaultLimit = 0.1 // Very low limit
	config.DefaultBurst = 1
	rl := NewRateLimiter(config)

	ctx, cancel := context.WithCancel(context.Background())

	// Drain the burst
	_ = rl.Allow("greet")

	cancel()

	err := rl.Wait(ctx, "greet")
	if err == nil {
		t.Error("Wait should return error when context is canceled")
	}
}

func TestRateLimiter_SetLimit(t *testing.T) {
	config := DefaultRateLimiterConfig()
	rl := NewRateLimiter(config)

	rl.SetLimit("greet", rate.Limit(1), 1)

	if !rl.Allow("greet") {
		t.Error("First request should be allowed after SetLimit")
	}
	if rl.Allow("greet") {
		t.Error("Second request should be denied with burst 1")
	}
}

func TestRateLimiter_CommandLimits(t *testing.T) {
	config := DefaultRateLimiterConfig()
	config.CommandLimits = map[string]CommandLimit{
		"greet": {Limit: 1, Burst: 1},
	}
	rl := NewRateLimiter(config)

	if !rl.Allow("greet") {
		t.Error("First greet should be allowed")
	}
	if rl.Allow("greet") {
		t.Error("Second greet should be denied (configured burst 1)")
	}

	// Other commands still use the default limit
	if !rl.Allow("platform_info") {
		t.Error("platform_info should use default limits")
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	config := DefaultRateLimiterConfig()
	rl := NewRateLimiter(config)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			command := "cmd" + string(rune('a'+id%5))
			_ = rl.Allow(command)
			rl.SetLimit(command, rate.Limit(50), 50)
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Concurrent access deadlocked")
	}
}
