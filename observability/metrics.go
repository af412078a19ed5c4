package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tiptv/bridge/command"
)

// Metrics provides in-process invocation metrics.
type Metrics struct {
	commandStats     map[string]*CommandStats
	totalDuration    int64
	minDuration      int64
	timeoutInv       int64
	invalidInput     int64
	unknownCommand   int64
	rateLimited      int64
	failedInv        int64
	durationCount    int64
	totalInvocations int64
	maxDuration      int64
	successfulInv    int64
	mu               sync.RWMutex
}

// CommandStats contains per-command statistics.
type CommandStats struct {
	LastInvokedAt    time.Time
	Command          string
	LastStatus       string
	TotalInvocations int64
	SuccessfulInv    int64
	FailedInv        int64
	TotalDuration    int64
	AvgDuration      int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		commandStats: make(map[string]*CommandStats),
		minDuration:  -1,
	}
}

// RecordInvocation records an invocation result.
func (m *Metrics) RecordInvocation(result *command.Result, err error) {
	atomic.AddInt64(&m.totalInvocations, 1)

	// Record status
	switch result.Status {
	case command.StatusSuccess:
		atomic.AddInt64(&m.successfulInv, 1)
	case command.StatusTimeout:
		atomic.AddInt64(&m.timeoutInv, 1)
		atomic.AddInt64(&m.failedInv, 1)
	case command.StatusInvalidInput:
		atomic.AddInt64(&m.invalidInput, 1)
		atomic.AddInt64(&m.failedInv, 1)
	case command.StatusUnknownCommand:
		atomic.AddInt64(&m.unknownCommand, 1)
		atomic.AddInt64(&m.failedInv, 1)
	case command.StatusRateLimited:
		atomic.AddInt64(&m.rateLimited, 1)
		atomic.AddInt64(&m.failedInv, 1)
	default:
		if err != nil || result.Error != "" {
			atomic.AddInt64(&m.failedInv, 1)
		} else {
			atomic.AddInt64(&m.successfulInv, 1)
		}
	}

	// Record duration
	duration := result.Duration.Nanoseconds()
	atomic.AddInt64(&m.totalDuration, duration)
	atomic.AddInt64(&m.durationCount, 1)

	// Update min/max
	for {
		old := atomic.LoadInt64(&m.minDuration)
		if old >= 0 && duration >= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.minDuration, old, duration) {
			break
		}
	}

	for {
		old := atomic.LoadInt64(&m.maxDuration)
		if duration <= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.maxDuration, old, duration) {
			break
		}
	}

	// Update per-command stats
	m.updateCommandStats(result)
}

func (m *Metrics) updateCommandStats(result *command.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.commandStats[result.Command]
	if !ok {
		stats = &CommandStats{Command: result.Command}
		m.commandStats[result.Command] = stats
	}

	stats.TotalInvocations++
	stats.TotalDuration += result.Duration.Nanoseconds()
	stats.AvgDuration = stats.TotalDuration / stats.TotalInvocations
	stats.LastInvokedAt = time.Now()
	stats.LastStatus = result.Status.String()

	if result.Status == command.StatusSuccess {
		stats.SuccessfulInv++
	} else {
		stats.FailedInv++
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalInvocations: atomic.LoadInt64(&m.totalInvocations),
		SuccessfulInv:    atomic.LoadInt64(&m.successfulInv),
		FailedInv:        atomic.LoadInt64(&m.failedInv),
		TimeoutInv:       atomic.LoadInt64(&m.timeoutInv),
		InvalidInput:     atomic.LoadInt64(&m.invalidInput),
		UnknownCommand:   atomic.LoadInt64(&m.unknownCommand),
		RateLimited:      atomic.LoadInt64(&m.rateLimited),
		AvgDuration:      m.avgDuration(),
		MinDuration:      time.Duration(atomic.LoadInt64(&m.minDuration)),
		MaxDuration:      time.Duration(atomic.LoadInt64(&m.maxDuration)),
		CommandStats:     m.getCommandStats(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	CommandStats     map[string]*CommandStats
	RateLimited      int64
	FailedInv        int64
	TimeoutInv       int64
	InvalidInput     int64
	UnknownCommand   int64
	TotalInvocations int64
	AvgDuration      time.Duration
	MinDuration      time.Duration
	MaxDuration      time.Duration
	SuccessfulInv    int64
}

// SuccessRate returns the success rate as a percentage.
func (s MetricsSnapshot) SuccessRate() float64 {
	if s.TotalInvocations == 0 {
		return 0
	}
	return float64(s.SuccessfulInv) / float64(s.TotalInvocations) * 100
}

// ErrorRate returns the error rate as a percentage.
func (s MetricsSnapshot) ErrorRate() float64 {
	if s.TotalInvocations == 0 {
		return 0
	}
	return float64(s.FailedInv) / float64(s.TotalInvocations) * 100
}

func (m *Metrics) avgDuration() time.Duration {
	count := atomic.LoadInt64(&m.durationCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.totalDuration) / count)
}

func (m *Metrics) getCommandStats() map[string]*CommandStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*CommandStats, len(m.commandStats))
	for k, v := range m.commandStats {
		// Copy stats
		copied := *v
		result[k] = &copied
	}
	return result
}

// MetricsHook records every completed invocation into a Metrics collector.
type MetricsHook struct {
	metrics *Metrics
}

// NewMetricsHook creates a hook that feeds the given collector.
func NewMetricsHook(m *Metrics) *MetricsHook {
	return &MetricsHook{metrics: m}
}

func (h *MetricsHook) Name() string  { return "metrics" }
func (h *MetricsHook) Priority() int { return 90 }

func (h *MetricsHook) PostInvoke(ctx context.Context, inv *command.Invocation, result *command.Result, err error) {
	if result == nil {
		return
	}
	h.metrics.RecordInvocation(result, err)
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.totalInvocations, 0)
	atomic.StoreInt64(&m.successfulInv, 0)
	atomic.StoreInt64(&m.failedInv, 0)
	atomic.StoreInt64(&m.timeoutInv, 0)
	atomic.StoreInt64(&m.invalidInput, 0)
	atomic.StoreInt64(&m.unknownCommand, 0)
	atomic.StoreInt64(&m.rateLimited, 0)
	atomic.StoreInt64(&m.totalDuration, 0)
	atomic.StoreInt64(&m.durationCount, 0)
	atomic.StoreInt64(&m.minDuration, -1)
	atomic.StoreInt64(&m.maxDuration, 0)

	m.mu.Lock()
	m.commandStats = make(map[string]*CommandStats)
	m.mu.Unlock()
}
