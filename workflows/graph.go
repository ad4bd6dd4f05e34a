// Copyright (c) Microsoft. All rights reserved.

package workflows

import (
	"fmt"
	"strings"

	af "github.com/microsoft/agent-workflows/go/agentflow"
)

// Node is one validated node of a [Graph].
type Node struct {
	ID       string
	Kind     NodeKind
	Agent    *af.AgentDefinition
	Bindings map[string]string
}

// Edge is one validated, compiled transition of a [Graph].
type Edge struct {
	From      string
	To        string
	Predicate *Predicate
}

// Graph is the immutable, validated form of a workflow [Document]: a reusable
// blueprint carrying no execution state. Build one with [NewGraph]; runs are
// executed by a [Runner].
type Graph struct {
	name  string
	entry string
	nodes map[string]*Node
	// edges holds each node's outgoing edges in declaration order.
	edges map[string][]Edge
}

// NewGraph validates doc and compiles it into a Graph. All checks happen
// here, before any execution: unknown node references, unreachable nodes,
// missing agent definitions, and malformed predicates are definition errors.
// Cyclic paths are permitted; the runner bounds them dynamically.
func NewGraph(doc *Document) (*Graph, error) {
	g := &Graph{
		name:  doc.Name,
		entry: doc.Entry,
		nodes: make(map[string]*Node, len(doc.Nodes)),
		edges: make(map[string][]Edge),
	}

	for _, nd := range doc.Nodes {
		if nd.ID == "" {
			return nil, &DefinitionError{Workflow: doc.Name, Message: "node with empty id"}
		}
		if _, dup := g.nodes[nd.ID]; dup {
			return nil, &DefinitionError{Workflow: doc.Name, NodeID: nd.ID, Message: "duplicate node id"}
		}
		node, err := buildNode(doc.Name, nd)
		if err != nil {
			return nil, err
		}
		g.nodes[nd.ID] = node
	}

	if _, ok := g.nodes[doc.Entry]; !ok {
		return nil, &DefinitionError{
			Workflow: doc.Name,
			Message:  fmt.Sprintf("entry node %q does not exist", doc.Entry),
		}
	}

	for _, ed := range doc.Edges {
		if err := g.addEdge(doc.Name, ed); err != nil {
			return nil, err
		}
	}

	if err := g.checkShape(doc.Name); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadGraph is a convenience combining [Load] and [NewGraph].
func LoadGraph(data []byte) (*Graph, error) {
	doc, err := Load(data)
	if err != nil {
		return nil, err
	}
	return NewGraph(doc)
}

// Name returns the workflow name.
func (g *Graph) Name() string { return g.name }

// Entry returns the entry node id.
func (g *Graph) Entry() string { return g.entry }

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node { return g.nodes[id] }

// Edges returns the outgoing edges of a node in declaration order.
func (g *Graph) Edges(from string) []Edge { return g.edges[from] }

func buildNode(workflow string, nd NodeDocument) (*Node, error) {
	node := &Node{ID: nd.ID, Kind: nd.Kind, Bindings: nd.Bindings}

	switch nd.Kind {
	case KindAgent:
		if nd.Agent == nil {
			return nil, &DefinitionError{
				Workflow: workflow, NodeID: nd.ID,
				Message: "agent node without agent definition",
			}
		}
		if nd.Agent.Name == "" || nd.Agent.Model == "" {
			return nil, &DefinitionError{
				Workflow: workflow, NodeID: nd.ID,
				Message: "agent definition requires name and model",
			}
		}
		node.Agent = af.NewAgentDefinition(nd.Agent.Name,
			af.WithInstructions(nd.Agent.Instructions),
			af.WithModel(nd.Agent.Model),
			af.WithAgentTools(nd.Agent.Tools...),
		)
	case KindGate, KindTerminal:
		if nd.Agent != nil {
			return nil, &DefinitionError{
				Workflow: workflow, NodeID: nd.ID,
				Message: fmt.Sprintf("%s node cannot carry an agent definition", nd.Kind),
			}
		}
		if len(nd.Bindings) > 0 {
			return nil, &DefinitionError{
				Workflow: workflow, NodeID: nd.ID,
				Message: fmt.Sprintf("%s node cannot carry bindings", nd.Kind),
			}
		}
	default:
		return nil, &DefinitionError{
			Workflow: workflow, NodeID: nd.ID,
			Message: fmt.Sprintf("unknown node kind %q", nd.Kind),
		}
	}
	return node, nil
}

func (g *Graph) addEdge(workflow string, ed EdgeDocument) error {
	if _, ok := g.nodes[ed.From]; !ok {
		return &DefinitionError{
			Workflow: workflow,
			Message:  fmt.Sprintf("edge references unknown node %q", ed.From),
		}
	}
	if _, ok := g.nodes[ed.To]; !ok {
		return &DefinitionError{
			Workflow: workflow,
			Message:  fmt.Sprintf("edge references unknown node %q", ed.To),
		}
	}

	pred, err := CompilePredicate(ed.When)
	if err != nil {
		return &DefinitionError{Workflow: workflow, NodeID: ed.From, Message: err.Error(), Err: err}
	}
	if ref := pred.Ref(); ref != "" && ref != "input" {
		node, _, _ := strings.Cut(ref, ".")
		if _, ok := g.nodes[node]; !ok {
			return &DefinitionError{
				Workflow: workflow, NodeID: ed.From,
				Message: fmt.Sprintf("predicate %q references undeclared node %q", pred, node),
			}
		}
	}

	g.edges[ed.From] = append(g.edges[ed.From], Edge{From: ed.From, To: ed.To, Predicate: pred})
	return nil
}

// checkShape enforces the structural invariants that hold for every valid
// graph: terminals have no outgoing edges, every other node has at least one,
// and every node is reachable from the entry.
func (g *Graph) checkShape(workflow string) error {
	for id, node := range g.nodes {
		out := g.edges[id]
		switch node.Kind {
		case KindTerminal:
			if len(out) > 0 {
				return &DefinitionError{
					Workflow: workflow, NodeID: id,
					Message: "terminal node has outgoing edges",
				}
			}
		default:
			if len(out) == 0 {
				return &DefinitionError{
					Workflow: workflow, NodeID: id,
					Message: "non-terminal node has no outgoing edge",
				}
			}
		}
	}

	// Reachability from the entry node (BFS).
	visited := map[string]bool{g.entry: true}
	queue := []string{g.entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range g.edges[current] {
			if !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	for id := range g.nodes {
		if !visited[id] {
			return &DefinitionError{
				Workflow: workflow, NodeID: id,
				Message: "node is unreachable from the entry node",
			}
		}
	}
	return nil
}
