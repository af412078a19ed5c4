// Package command provides the command table and dispatch abstraction
// bridging the host shell to native handlers.
package command

import (
	"context"
	"fmt"
	"time"
)

// Handler processes a single command invocation and returns its value.
// Handlers must be pure with respect to the invocation: they may read
// host state (OS, environment) but never mutate the invocation.
type Handler func(ctx context.Context, inv *Invocation) (string, error)

// Invocation represents a single command call from the host shell.
// Invocations are immutable once built.
type Invocation struct {
	// Command is the registered command name.
	Command string

	// Args are the named string arguments supplied by the caller.
	Args map[string]string

	// Metadata contains arbitrary key-value pairs for tracing/logging.
	Metadata map[string]string

	// Timeout is the maximum invocation time.
	// If zero, the dispatcher default is used.
	Timeout time.Duration
}

// Arg returns the named argument and whether it was supplied.
func (inv *Invocation) Arg(name string) (string, bool) {
	v, ok := inv.Args[name]
	return v, ok
}

// RequireArg returns the named argument, or an error if absent.
func (inv *Invocation) RequireArg(name string) (string, error) {
	v, ok := inv.Args[name]
	if !ok {
		return "", fmt.Errorf("%w: missing required argument %q", ErrInvalidInvocation, name)
	}
	return v, nil
}

// Clone creates a deep copy of the invocation.
func (inv *Invocation) Clone() *Invocation {
	clone := &Invocation{
		Command:  inv.Command,
		Args:     make(map[string]string, len(inv.Args)),
		Metadata: make(map[string]string, len(inv.Metadata)),
		Timeout:  inv.Timeout,
	}

	for k, v := range inv.Args {
		clone.Args[k] = v
	}

	for k, v := range inv.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}

// String returns a string representation of the invocation.
func (inv *Invocation) String() string {
	if len(inv.Args) == 0 {
		return inv.Command
	}
	return fmt.Sprintf("%s %v", inv.Command, inv.Args)
}

// InvocationBuilder provides a fluent API for constructing invocations.
type InvocationBuilder struct {
	inv *Invocation
	err error
}

// NewInvocation creates a new InvocationBuilder for the named command.
func NewInvocation(command string) *InvocationBuilder {
	return &InvocationBuilder{
		inv: &Invocation{
			Command:  command,
			Args:     make(map[string]string),
			Metadata: make(map[string]string),
		},
	}
}

// WithArg adds a named argument.
func (b *InvocationBuilder) WithArg(name, value string) *InvocationBuilder {
	if b.err != nil {
		return b
	}
	b.inv.Args[name] = value
	return b
}

// WithArgs adds multiple named arguments.
func (b *InvocationBuilder) WithArgs(args map[string]string) *InvocationBuilder {
	if b.err != nil {
		return b
	}
	for k, v := range args {
		b.inv.Args[k] = v
	}
	return b
}

// WithMetadata adds metadata for tracing/logging.
func (b *InvocationBuilder) WithMetadata(key, value string) *InvocationBuilder {
	if b.err != nil {
		return b
	}
	b.inv.Metadata[key] = value
	return b
}

// WithTimeout sets the invocation timeout.
func (b *InvocationBuilder) WithTimeout(timeout time.Duration) *InvocationBuilder {
	if b.err != nil {
		return b
	}
	if timeout <= 0 {
		b.err = fmt.Errorf("timeout must be positive")
		return b
	}
	b.inv.Timeout = timeout
	return b
}

// Build validates and returns the invocation.
func (b *InvocationBuilder) Build() (*Invocation, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.inv.Command == "" {
		return nil, fmt.Errorf("%w: command name is required", ErrInvalidInvocation)
	}

	return b.inv, nil
}

// MustBuild validates and returns the invocation, panicking on error.
func (b *InvocationBuilder) MustBuild() *Invocation {
	inv, err := b.Build()
	if err != nil {
		panic(err)
	}
	return inv
}
