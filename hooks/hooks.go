// Package hooks provides extension points for the command invocation lifecycle.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tiptv/bridge/command"
)

// Hook defines extension points for the invocation lifecycle.
type Hook interface {
	// Name returns a unique identifier for the hook.
	Name() string

	// Priority determines execution order (lower = earlier).
	Priority() int
}

// PreInvokeHook is called before a handler runs. It may return a
// modified invocation.
type PreInvokeHook interface {
	Hook
	PreInvoke(ctx context.Context, inv *command.Invocation) (*command.Invocation, error)
}

// PostInvokeHook is called after a handler runs.
type PostInvokeHook interface {
	Hook
	PostInvoke(ctx context.Context, inv *command.Invocation, result *command.Result, err error)
}

// ValidationHook adds custom validation logic ahead of dispatch.
type ValidationHook interface {
	Hook
	Validate(ctx context.Context, inv *command.Invocation) error
}

// Registry manages hook registration and invocation. Registry itself
// implements command.Hook, so it can be handed to the dispatcher builder
// as a single composite hook.
type Registry struct {
	preInvoke  []PreInvokeHook
	postInvoke []PostInvokeHook
	validation []ValidationHook
	mu         sync.RWMutex
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{
		preInvoke:  make([]PreInvokeHook, 0),
		postInvoke: make([]PostInvokeHook, 0),
		validation: make([]ValidationHook, 0),
	}
}

// Register adds a hook to the registry.
func (r *Registry) Register(hook Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Register based on hook type (can implement multiple)
	if h, ok := hook.(PreInvokeHook); ok {
		r.preInvoke = append(r.preInvoke, h)
		sort.Slice(r.preInvoke, func(i, j int) bool {
			return r.preInvoke[i].Priority() < r.preInvoke[j].Priority()
		})
	}

	if h, ok := hook.(PostInvokeHook); ok {
		r.postInvoke = append(r.postInvoke, h)
		sort.Slice(r.postInvoke, func(i, j int) bool {
			return r.postInvoke[i].Priority() < r.postInvoke[j].Priority()
		})
	}

	if h, ok := hook.(ValidationHook); ok {
		r.validation = append(r.validation, h)
		sort.Slice(r.validation, func(i, j int) bool {
			return r.validation[i].Priority() < r.validation[j].Priority()
		})
	}

	return nil
}

// Unregister removes a hook by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.preInvoke = removeByNamePre(r.preInvoke, name)
	r.postInvoke = removeByNamePost(r.postInvoke, name)
	r.validation = removeByNameValidation(r.validation, name)
}

// PreInvoke implements command.Hook. It runs validation hooks first,
// then pre-invoke hooks in priority order.
func (r *Registry) PreInvoke(ctx context.Context, inv *command.Invocation) (*command.Invocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.validation {
		if err := hook.Validate(ctx, inv); err != nil {
			return nil, fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}

	current := inv
	for _, hook := range r.preInvoke {
		modified, err := hook.PreInvoke(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
		current = modified
	}
	return current, nil
}

// PostInvoke implements command.Hook.
func (r *Registry) PostInvoke(ctx context.Context, inv *command.Invocation, result *command.Result, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.postInvoke {
		hook.PostInvoke(ctx, inv, result, err)
	}
}

// Helper functions for removing hooks by name
func removeByNamePre(hooks []PreInvokeHook, name string) []PreInvokeHook {
	result := make([]PreInvokeHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

func removeByNamePost(hooks []PostInvokeHook, name string) []PostInvokeHook {
	result := make([]PostInvokeHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

func removeByNameValidation(hooks []ValidationHook, name string) []ValidationHook {
	result := make([]ValidationHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

// LoggingHook is a built-in hook that logs invocations.
type LoggingHook struct {
	logger func(format string, args ...interface{})
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(logger func(format string, args ...interface{})) *LoggingHook {
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) Name() string  { return "logging" }
func (h *LoggingHook) Priority() int { return 1000 }

func (h *LoggingHook) PreInvoke(ctx context.Context, inv *command.Invocation) (*command.Invocation, error) {
	h.logger("Invoking: %s", inv)
	return inv, nil
}

func (h *LoggingHook) PostInvoke(ctx context.Context, inv *command.Invocation, result *command.Result, err error) {
	if err != nil {
		h.logger("Invocation failed: %s - %v", inv.Command, err)
	} else {
		h.logger("Invocation completed: %s - status=%s duration=%v", inv.Command, result.Status, result.Duration)
	}
}
