// Copyright (c) Microsoft. All rights reserved.

// Command triage runs a two-agent approval workflow: a screener agent decides
// whether a change request is safe, a gate routes on its verdict, and a
// handler agent with a lookup tool carries the request out.
//
// It works with both direct OpenAI and Azure AI Foundry endpoints.
//
// Usage with OpenAI:
//
//	export OPENAI_API_KEY=sk-...
//	go run . "deploy the billing service to staging"
//
// Usage with Azure AI Foundry:
//
//	export AZURE_FOUNDRY_ENDPOINT=https://<project>.services.ai.azure.com/openai/deployments/<deployment>
//	export AZURE_FOUNDRY_KEY=<your-key>
//	export AZURE_FOUNDRY_MODEL=gpt-4o          # optional, defaults to gpt-4o
//	go run . "deploy the billing service to staging"
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"

	af "github.com/microsoft/agent-workflows/go/agentflow"
	"github.com/microsoft/agent-workflows/go/openai"
	wf "github.com/microsoft/agent-workflows/go/workflows"
)

const triageWorkflow = `
name: change-triage
entry: screen
nodes:
  - id: screen
    kind: agent
    agent:
      name: screener
      model: gpt-4o
      instructions: >
        You screen change requests for a production platform. Reply with a
        one-line verdict that starts with either "approved" or "denied",
        followed by a short reason. Deny anything touching production data
        or credentials.
  - id: route
    kind: gate
  - id: handle
    kind: agent
    agent:
      name: handler
      model: gpt-4o
      instructions: >
        You carry out approved change requests. Use the service_owner tool
        to find who owns the affected service, then summarize the rollout
        plan in a short paragraph.
      tools: [service_owner]
  - id: done
    kind: terminal
  - id: rejected
    kind: terminal
edges:
  - from: screen
    to: route
  - from: route
    to: handle
    when: screen.output contains 'approved'
  - from: route
    to: rejected
  - from: handle
    to: done
`

func main() {
	// Load .env file if present (ignored if missing).
	_ = godotenv.Load()

	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	request := "deploy the billing service to staging"
	if len(os.Args) > 1 {
		request = strings.Join(os.Args[1:], " ")
	}

	client := newChatClient()

	registry := af.NewRegistry(
		af.WithToolMiddleware(af.LoggingToolMiddleware(slog.Default())),
	)
	ownerTool := af.NewTypedTool("service_owner",
		"Look up the owning team for a service.",
		af.CapabilityCustomFunction,
		func(ctx context.Context, args struct {
			Service string `json:"service" jsonschema:"description=Service name,required"`
		}) (any, error) {
			// Simulated service catalog.
			owners := map[string]string{
				"billing":  "payments-team",
				"search":   "discovery-team",
				"identity": "auth-team",
			}
			if owner, ok := owners[args.Service]; ok {
				return map[string]string{"service": args.Service, "owner": owner}, nil
			}
			return map[string]string{"service": args.Service, "owner": "platform-team"}, nil
		},
	)
	if err := registry.Register(ownerTool); err != nil {
		log.Fatalf("register tool: %v", err)
	}

	graph, err := wf.LoadGraph([]byte(triageWorkflow))
	if err != nil {
		log.Fatalf("load workflow: %v", err)
	}

	runner := wf.NewRunner(graph, client, registry)

	fmt.Printf("Request: %s\n\n", request)
	result, err := runner.Run(context.Background(), request)
	if err != nil {
		log.Fatalf("run workflow: %v", err)
	}

	fmt.Printf("Path: %s\n", strings.Join(result.Trail, " -> "))
	fmt.Printf("Verdict: %s\n", result.Variables["screen.output"])
	fmt.Printf("\n%s\n", result.Output)
	if result.Usage.TotalTokens > 0 {
		fmt.Printf("\n[tokens: %d in, %d out]\n",
			result.Usage.InputTokens, result.Usage.OutputTokens)
	}
}

// newChatClient creates an OpenAI-compatible client, choosing between Azure AI
// Foundry and direct OpenAI based on which environment variables are set.
func newChatClient() *openai.Client {
	// Azure AI Foundry uses the OpenAI-compatible endpoint.
	if endpoint := os.Getenv("AZURE_FOUNDRY_ENDPOINT"); endpoint != "" {
		key := os.Getenv("AZURE_FOUNDRY_KEY")
		model := os.Getenv("AZURE_FOUNDRY_MODEL")
		if model == "" {
			model = "gpt-4o"
		}

		fmt.Printf("Using Azure AI Foundry: %s\n", endpoint)

		// No key provided: fall back to Azure AD authentication.
		if key == "" {
			cred, err := azidentity.NewDefaultAzureCredential(nil)
			if err != nil {
				log.Fatalf("create Azure credential: %v", err)
			}
			return openai.New("", // empty key when using Azure AD
				openai.WithBaseURL(endpoint),
				openai.WithModel(model),
				openai.WithAzureCredential(cred),
			)
		}

		return openai.New(key,
			openai.WithBaseURL(endpoint),
			openai.WithModel(model),
			openai.WithHeaders(map[string]string{
				"api-key": key, // Azure uses api-key header instead of Bearer token
			}),
		)
	}

	// Direct OpenAI.
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("Set OPENAI_API_KEY or AZURE_FOUNDRY_ENDPOINT")
	}
	return openai.New(apiKey,
		openai.WithModel("gpt-4o"),
	)
}
