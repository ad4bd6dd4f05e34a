// Copyright (c) Microsoft. All rights reserved.

package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"

	"github.com/google/uuid"
	af "github.com/microsoft/agent-workflows/go/agentflow"
)

// RunnerConfig bounds a run and configures the per-node invocation loops.
type RunnerConfig struct {
	// MaxSteps caps the number of node executions per run. Cyclic graphs are
	// legal, so the bound is what guarantees termination. Defaults to 50.
	MaxSteps int

	// Loop is applied to every agent node's invocation loop.
	Loop af.LoopConfig
}

// DefaultRunnerConfig returns the default configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		MaxSteps: 50,
		Loop:     af.DefaultLoopConfig(),
	}
}

// Result is the outcome of a completed workflow run.
type Result struct {
	// RunID uniquely identifies this run.
	RunID string

	// Output is the final text produced by the last agent node executed
	// before the run reached a terminal node.
	Output string

	// Variables holds the run input under "input" and each executed agent
	// node's output under "<id>.output".
	Variables map[string]string

	// Trail lists the node ids visited, in execution order.
	Trail []string

	// Usage is the token usage accumulated across all agent nodes.
	Usage af.UsageDetails
}

// Runner executes a [Graph]. A Runner is stateless between runs and safe for
// concurrent use; each run gets its own variable set and conversation threads.
type Runner struct {
	graph    *Graph
	client   af.ChatClient
	registry *af.Registry
	binder   *af.Binder
	config   RunnerConfig
	logger   *slog.Logger
}

// RunnerOption configures a [Runner] via [NewRunner].
type RunnerOption func(*Runner)

// WithRunnerConfig overrides the default [RunnerConfig].
func WithRunnerConfig(cfg RunnerConfig) RunnerOption {
	return func(r *Runner) { r.config = cfg }
}

// WithRunnerLogger sets the logger for run progress.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithRunnerBinder sets the resource binder used to materialize node
// bindings. Required only when the graph has nodes with bindings.
func WithRunnerBinder(binder *af.Binder) RunnerOption {
	return func(r *Runner) { r.binder = binder }
}

// NewRunner creates a Runner over graph, backed by the given chat client and
// tool registry.
func NewRunner(graph *Graph, client af.ChatClient, registry *af.Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		graph:    graph,
		client:   client,
		registry: registry,
		config:   DefaultRunnerConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.config.MaxSteps <= 0 {
		r.config.MaxSteps = 50
	}
	return r
}

// Run walks the graph from its entry node until a terminal node is reached.
// Agent nodes run a full invocation loop on a fresh thread; gate nodes only
// route. Edge predicates are evaluated in declaration order and the first
// match wins, so routing is deterministic for a given variable set.
//
// Any failure aborts the run with a [RunError] carrying the failing node id
// and the variables accumulated so far.
func (r *Runner) Run(ctx context.Context, input string) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Variables: map[string]string{"input": input},
	}

	logger := r.logger.With("workflow", r.graph.Name(), "run_id", result.RunID)
	logger.InfoContext(ctx, "workflow run starting", "entry", r.graph.Entry())

	current := r.graph.Entry()
	for step := 0; ; step++ {
		if step >= r.config.MaxSteps {
			return nil, r.fail(result, current,
				fmt.Errorf("%w: %d node executions", ErrStepLimit, r.config.MaxSteps))
		}
		if err := ctx.Err(); err != nil {
			return nil, r.fail(result, current, err)
		}

		node := r.graph.Node(current)
		result.Trail = append(result.Trail, current)

		switch node.Kind {
		case KindTerminal:
			logger.InfoContext(ctx, "workflow run finished",
				"terminal", current, "steps", step+1)
			return result, nil
		case KindAgent:
			if err := r.runAgent(ctx, logger, node, result); err != nil {
				return nil, r.fail(result, current, err)
			}
		case KindGate:
			logger.DebugContext(ctx, "evaluating gate", "node", current)
		}

		next, err := r.nextEdge(node, result.Variables)
		if err != nil {
			return nil, r.fail(result, current, err)
		}
		logger.DebugContext(ctx, "following edge", "from", current, "to", next)
		current = next
	}
}

func (r *Runner) runAgent(ctx context.Context, logger *slog.Logger, node *Node, result *Result) error {
	seed, err := r.seedMessage(ctx, node, result)
	if err != nil {
		return err
	}

	thread := af.NewThread()
	if err := thread.Append(seed); err != nil {
		return err
	}

	loop := af.NewLoop(r.client, r.registry,
		af.WithLoopConfig(r.config.Loop),
		af.WithLoopLogger(logger.With("node", node.ID)),
	)
	out, err := loop.Run(ctx, node.Agent, thread)
	if err != nil {
		return err
	}

	result.Variables[node.ID+".output"] = out.Output
	result.Output = out.Output
	result.Usage.Add(out.Usage)
	logger.InfoContext(ctx, "agent node completed",
		"node", node.ID, "agent", node.Agent.Name(), "turns", out.Turns)
	return nil
}

// seedMessage builds the single user turn an agent node starts from: the run
// input, the outputs of previously executed agent nodes in execution order,
// and a hosted reference for each materialized binding.
func (r *Runner) seedMessage(ctx context.Context, node *Node, result *Result) (af.Message, error) {
	var b strings.Builder
	b.WriteString(result.Variables["input"])
	for _, visited := range result.Trail {
		if visited == node.ID {
			continue
		}
		if out, ok := result.Variables[visited+".output"]; ok {
			fmt.Fprintf(&b, "\n\n[%s]\n%s", visited, out)
		}
	}

	msg := af.NewUserMessage(b.String())

	if len(node.Bindings) == 0 {
		return msg, nil
	}
	if r.binder == nil {
		return af.Message{}, &DefinitionError{
			Workflow: r.graph.Name(), NodeID: node.ID,
			Message: "node has bindings but the runner has no binder",
		}
	}
	for _, name := range sortedKeys(node.Bindings) {
		handle, err := r.binder.Materialize(ctx, node.Bindings[name])
		if err != nil {
			return af.Message{}, fmt.Errorf("binding %q: %w", name, err)
		}
		msg.Contents = append(msg.Contents, &af.HostedVectorStoreContent{
			VectorStoreID: handle.ProviderID,
		})
	}
	return msg, nil
}

// nextEdge returns the first outgoing edge whose predicate holds.
func (r *Runner) nextEdge(node *Node, vars map[string]string) (string, error) {
	for _, edge := range r.graph.Edges(node.ID) {
		if edge.Predicate.Eval(vars) {
			return edge.To, nil
		}
	}
	return "", fmt.Errorf("%w: node %q with variables %v", ErrNoMatchingEdge, node.ID, vars)
}

func (r *Runner) fail(result *Result, nodeID string, err error) error {
	return &RunError{
		RunID:     result.RunID,
		NodeID:    nodeID,
		Variables: maps.Clone(result.Variables),
		Err:       err,
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
