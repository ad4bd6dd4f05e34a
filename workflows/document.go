// Copyright (c) Microsoft. All rights reserved.

package workflows

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// NodeKind identifies what a workflow node does.
type NodeKind string

const (
	// KindAgent invokes an agent's tool-calling loop.
	KindAgent NodeKind = "agent"

	// KindGate routes by evaluating outgoing edge predicates in order.
	KindGate NodeKind = "gate"

	// KindTerminal stops the run and returns the accumulated result.
	KindTerminal NodeKind = "terminal"
)

// Document is the declarative workflow description consumed by [NewGraph].
// YAML is the primary format; JSON parses through the same path since yaml.v3
// accepts JSON input.
type Document struct {
	Name  string         `yaml:"name"`
	Entry string         `yaml:"entry"`
	Nodes []NodeDocument `yaml:"nodes"`
	Edges []EdgeDocument `yaml:"edges"`
}

// NodeDocument declares one node of the workflow.
type NodeDocument struct {
	ID    string         `yaml:"id"`
	Kind  NodeKind       `yaml:"kind"`
	Agent *AgentDocument `yaml:"agent,omitempty"`

	// Bindings are local variables made visible to the node's predicate
	// context and the agent's seed prompt.
	Bindings map[string]string `yaml:"bindings,omitempty"`
}

// AgentDocument declares the agent bound to an agent node.
type AgentDocument struct {
	Name         string   `yaml:"name"`
	Model        string   `yaml:"model"`
	Instructions string   `yaml:"instructions"`
	Tools        []string `yaml:"tools,omitempty"`
}

// EdgeDocument declares one directed transition. Edges without a condition
// are unconditional. Declaration order is evaluation order at a gate.
type EdgeDocument struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	When string `yaml:"when,omitempty"`
}

// Load parses a workflow document from YAML or JSON bytes.
// It fails with ErrDefinition on malformed input; structural checks happen
// later in [NewGraph].
func Load(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &DefinitionError{
			Message: fmt.Sprintf("parse document: %v", err),
		}
	}
	if doc.Name == "" {
		return nil, &DefinitionError{Message: "missing workflow name"}
	}
	if doc.Entry == "" {
		return nil, &DefinitionError{Workflow: doc.Name, Message: "missing entry node"}
	}
	if len(doc.Nodes) == 0 {
		return nil, &DefinitionError{Workflow: doc.Name, Message: "workflow has no nodes"}
	}
	return &doc, nil
}
