// Copyright (c) Microsoft. All rights reserved.

// Package workflows composes agents into a declarative graph: nodes are agent
// invocations, condition gates, or terminals; edges are unconditional or
// predicate-guarded transitions. A workflow is defined once as data (YAML or
// JSON), compiled into a validated immutable [Graph], and executed by a
// [Runner] that walks the graph one node at a time, delegating each agent
// node to an agentflow invocation loop.
//
// # Quick Start
//
//	doc, err := workflows.Load(yamlBytes)
//	graph, err := workflows.NewGraph(doc)
//	runner := workflows.NewRunner(graph, client, registry)
//	result, err := runner.Run(ctx, "candidate: junior developer")
//
// # Execution model
//
// A run is a single logical sequence of node activations: no two nodes of the
// same run execute concurrently, preserving conversational causality.
// Concurrency exists only inside a node's tool fan-out. Distinct runs share
// only the read-only graph and registry, so one graph serves many parallel
// runs.
//
// Gate edges are evaluated in declaration order and the first satisfied
// predicate wins. Cyclic graphs are allowed (retry and loop-back patterns);
// the runner's step bound turns an unbounded cycle into a reported failure
// rather than a hang.
package workflows
