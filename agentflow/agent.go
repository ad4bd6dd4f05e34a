// Copyright (c) Microsoft. All rights reserved.

package agentflow

// AgentDefinition binds an agent identity to its instructions, backend model
// reference, and the ordered set of tool names it may invoke. Definitions are
// immutable once created; construct them with [NewAgentDefinition].
type AgentDefinition struct {
	name         string
	instructions string
	model        string
	tools        []string
}

// AgentOption configures an [AgentDefinition] via [NewAgentDefinition].
type AgentOption func(*AgentDefinition)

// WithInstructions sets the agent's natural-language instructions.
func WithInstructions(instructions string) AgentOption {
	return func(d *AgentDefinition) { d.instructions = instructions }
}

// WithModel sets the backend model reference.
func WithModel(model string) AgentOption {
	return func(d *AgentDefinition) { d.model = model }
}

// WithAgentTools sets the names of the tools the agent may invoke, in order.
// Names are resolved against a [Registry] at invocation time.
func WithAgentTools(names ...string) AgentOption {
	return func(d *AgentDefinition) { d.tools = append(d.tools, names...) }
}

// NewAgentDefinition creates an immutable AgentDefinition.
func NewAgentDefinition(name string, opts ...AgentOption) *AgentDefinition {
	d := &AgentDefinition{name: name}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the agent's identity.
func (d *AgentDefinition) Name() string { return d.name }

// Instructions returns the agent's system instructions.
func (d *AgentDefinition) Instructions() string { return d.instructions }

// Model returns the backend model reference.
func (d *AgentDefinition) Model() string { return d.model }

// Tools returns a copy of the agent's allowed tool names, in order.
func (d *AgentDefinition) Tools() []string {
	cp := make([]string, len(d.tools))
	copy(cp, d.tools)
	return cp
}
