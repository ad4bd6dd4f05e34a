// Copyright (c) Microsoft. All rights reserved.

// Package agentflow provides the core execution engine for tool-calling
// agents in Go: conversation threads, a capability-tagged tool registry,
// external resource binding, and the invocation loop that drives a
// conversation between a reasoning backend and its tools.
//
// # Quick Start
//
// Create a ChatClient (e.g., from the openai package), register tools, and
// run an invocation loop against a thread:
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"), openai.WithModel("gpt-4o"))
//
//	registry := agentflow.NewRegistry()
//	registry.Register(weatherTool)
//
//	def := agentflow.NewAgentDefinition("assistant",
//	    agentflow.WithInstructions("You are helpful."),
//	    agentflow.WithModel("gpt-4o"),
//	    agentflow.WithAgentTools("get_weather"),
//	)
//
//	loop := agentflow.NewLoop(client, registry)
//	thread := agentflow.NewThread()
//	thread.Append(agentflow.NewUserMessage("What's the weather in Oslo?"))
//	out, err := loop.Run(ctx, def, thread)
//
// # Architecture
//
// The package is organized around these key abstractions:
//
//   - [Thread]: the append-only, ordered conversation log plus run status.
//   - [ChatClient]: interface for reasoning backends (implemented by provider
//     packages); the engine never sees provider transport or auth.
//   - [Tool]: a named capability exposed to the model, tagged with a closed
//     [Capability] set (file search, code interpreter, web search, vision,
//     custom function).
//   - [Registry]: resolves and executes tools by name, exactly once per call.
//   - [Binder]: materializes external resources (vector stores, uploaded
//     files) with create-then-poll semantics and bounded waits.
//   - [Loop]: drives one agent's turn cycle until a final answer, converting
//     individual tool failures into recoverable conversation context.
//
// Multi-agent composition lives in the workflows package, which invokes a
// [Loop] per agent node of a declarative graph.
//
// # Tools
//
// Use [NewTypedTool] for type-safe tools with automatic JSON Schema generation:
//
//	type SearchArgs struct {
//	    Query string `json:"query" jsonschema:"description=Search query,required"`
//	}
//
//	tool := agentflow.NewTypedTool("search_docs", "Search project documents",
//	    agentflow.CapabilityFileSearch,
//	    func(ctx context.Context, args SearchArgs) (any, error) {
//	        return store.Search(ctx, args.Query)
//	    },
//	)
package agentflow
