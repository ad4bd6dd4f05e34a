// Copyright (c) Microsoft. All rights reserved.

package workflows

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrDefinition indicates a malformed or invalid workflow definition.
	// Definitions are rejected before any execution and never retried.
	ErrDefinition = errors.New("workflow definition error")

	// ErrPredicate indicates a predicate expression that failed to compile.
	ErrPredicate = fmt.Errorf("%w: predicate", ErrDefinition)

	// ErrNoMatchingEdge indicates a gate whose outgoing predicates all
	// evaluated false at runtime. Structural failure, always surfaced.
	ErrNoMatchingEdge = errors.New("no matching edge")

	// ErrStepLimit indicates the run exceeded its configured step bound.
	// Guards against unbounded cycles in the graph.
	ErrStepLimit = errors.New("step limit exceeded")
)

// DefinitionError describes why a workflow document was rejected.
type DefinitionError struct {
	Workflow string
	NodeID   string
	Message  string
	Err      error
}

func (e *DefinitionError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("workflow %q, node %q: %s", e.Workflow, e.NodeID, e.Message)
	}
	return fmt.Sprintf("workflow %q: %s", e.Workflow, e.Message)
}

func (e *DefinitionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrDefinition
}

// RunError carries the failing node id and the partial execution state so a
// failed run remains diagnosable. No failure is ever silently discarded.
type RunError struct {
	RunID     string
	NodeID    string
	Variables map[string]string
	Err       error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s failed at node %q: %v", e.RunID, e.NodeID, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
