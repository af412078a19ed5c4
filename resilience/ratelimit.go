// Package resilience provides rate limiting for the command boundary.
package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter controls command invocation rate. It guards the trust
// boundary against a misbehaving host shell hammering a command.
type RateLimiter interface {
	// Allow checks if an invocation is allowed for the given command.
	Allow(command string) bool

	// Wait blocks until an invocation is allowed or the context is canceled.
	Wait(ctx context.Context, command string) error

	// SetLimit updates the rate limit for a command.
	SetLimit(command string, limit rate.Limit, burst int)
}

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// DefaultLimit is the default invocations per second.
	DefaultLimit float64

	// DefaultBurst is the default burst size.
	DefaultBurst int

	// PerCommand enables per-command rate limiting.
	PerCommand bool

	// CommandLimits contains per-command rate limits.
	CommandLimits map[string]CommandLimit
}

// CommandLimit defines the rate limit for a specific command.
type CommandLimit struct {
	Limit float64
	Burst int
}

// DefaultRateLimiterConfig returns default configuration.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		DefaultLimit:  100,
		DefaultBurst:  150,
		PerCommand:    true,
		CommandLimits: make(map[string]CommandLimit),
	}
}

// rateLimiter implements RateLimiter.
type rateLimiter struct {
	config          RateLimiterConfig
	globalLimiter   *rate.Limiter
	commandLimiters map[string]*rate.Limiter
	mu              sync.RWMutex
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) RateLimiter {
	rl := &rateLimiter{
		config:          config,
		globalLimiter:   rate.NewLimiter(rate.Limit(config.DefaultLimit), config.DefaultBurst),
		commandLimiters: make(map[string]*rate.Limiter),
	}

	// Initialize per-command limiters
	for command, limit := range config.CommandLimits {
		rl.commandLimiters[command] = rate.NewLimiter(rate.Limit(limit.Limit), limit.Burst)
	}

	return rl
}

// Allow implements RateLimiter.Allow.
func (rl *rateLimiter) Allow(command string) bool {
	if !rl.config.PerCommand {
		return rl.globalLimiter.Allow()
	}

	limiter := rl.getLimiter(command)
	return limiter.Allow()
}

// Wait implements RateLimiter.Wait.
func (rl *rateLimiter) Wait(ctx context.Context, command string) error {
	if !rl.config.PerCommand {
		return rl.globalLimiter.Wait(ctx)
	}

	limiter := rl.getLimiter(command)
	return limiter.Wait(ctx)
}

// SetLimit implements RateLimiter.SetLimit.
func (rl *rateLimiter) SetLimit(command string, limit rate.Limit, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.commandLimiters[command]; ok {
		limiter.SetLimit(limit)
		limiter.SetBurst(burst)
	} else {
		rl.commandLimiters[command] = rate.NewLimiter(limit, burst)
	}
}

func (rl *rateLimiter) getLimiter(command string) *rate.Limiter {
	rl.mu.RLock()
	limiter, ok := rl.commandLimiters[command]
	rl.mu.RUnlock()

	if ok {
		return limiter
	}

	// Create new limiter with default settings
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if existing, ok := rl.commandLimiters[command]; ok {
		return existing
	}

	newLimiter := rate.NewLimiter(rate.Limit(rl.config.DefaultLimit), rl.config.DefaultBurst)
	rl.commandLimiters[command] = newLimiter
	return newLimiter
}
