// Copyright (c) Microsoft. All rights reserved.

package agentflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Registry maps tool names to their handlers and executes them on behalf of
// the invocation loop. Registration happens during setup; after that the
// registry is read-only and safe to share across concurrent runs.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]Tool
	order      []string
	middleware []ToolMiddleware
}

// RegistryOption configures a [Registry] via [NewRegistry].
type RegistryOption func(*Registry)

// WithToolMiddleware adds middleware to the tool execution pipeline.
// Middleware is applied in the order provided (first = outermost).
func WithToolMiddleware(mws ...ToolMiddleware) RegistryOption {
	return func(r *Registry) { r.middleware = append(r.middleware, mws...) }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool. It returns ErrToolConflict if the name is taken and
// ErrToolConfig if the tool carries an invalid capability tag.
func (r *Registry) Register(tool Tool) error {
	if tool.Name() == "" {
		return fmt.Errorf("%w: empty tool name", ErrToolConfig)
	}
	if !tool.Capability().valid() {
		return fmt.Errorf("%w: unknown capability %q", ErrToolConfig, tool.Capability())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrToolConflict, tool.Name())
	}
	r.tools[tool.Name()] = tool
	r.order = append(r.order, tool.Name())
	return nil
}

// Resolve returns the tool registered under name, or ErrUnknownTool.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return tool, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make([]string, len(r.order))
	copy(cp, r.order)
	return cp
}

// Select returns the tools for the given names, preserving order.
// It fails with ErrUnknownTool on the first unresolvable name.
func (r *Registry) Select(names []string) ([]Tool, error) {
	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		tool, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// Execute resolves a tool by name and invokes it exactly once with the given
// arguments. The registry never retries: a side-effecting tool (sandboxed
// code execution) must observe at most one execution per request. Handler
// failures are wrapped in a [ToolError] carrying ErrToolExecution.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	tool, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, t Tool, a json.RawMessage) (any, error) {
		return t.Invoke(ctx, a)
	}
	result, err := chainToolMiddleware(handler, r.middleware...)(ctx, tool, args)
	if err != nil {
		var te *ToolError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &ToolError{
			ToolName: name,
			Message:  err.Error(),
			Err:      fmt.Errorf("%w: %w", ErrToolExecution, err),
		}
	}
	return result, nil
}
