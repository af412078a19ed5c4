package command

import (
	"fmt"
	"sync"
)

// Registry is the static mapping from command name to handler. It is
// populated at startup and frozen before dispatch begins; there is no
// runtime mutation of the command table.
type Registry struct {
	handlers map[string]Handler
	order    []string // preserve registration order
	frozen   bool
	mu       sync.RWMutex
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for the named command. Registration happens at
// startup, before dispatch; errors at this stage are programmer mistakes,
// so Register panics on a duplicate name or a frozen registry, following
// the database/sql.Register convention.
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		panic(fmt.Sprintf("command: Register(%q) after Freeze", name))
	}
	if name == "" {
		panic("command: Register with empty name")
	}
	if handler == nil {
		panic(fmt.Sprintf("command: Register(%q) with nil handler", name))
	}
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("command: handler already registered for %q", name))
	}

	r.handlers[name] = handler
	r.order = append(r.order, name)
}

// Freeze marks the registry immutable. Subsequent Register calls panic.
// Freeze is idempotent.
func (r *Registry) Freeze() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frozen = true
	return r
}

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Get returns the handler for the named command, if registered.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	return h, ok
}

// Names returns all registered command names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
