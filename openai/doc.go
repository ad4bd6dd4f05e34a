// Copyright (c) Microsoft. All rights reserved.

// Package openai provides an [agentflow.ChatClient] backed by the OpenAI
// Chat Completions API, usable against both api.openai.com and Azure OpenAI
// deployments.
//
// Create a client with [New] and hand it to an invocation loop or a
// workflow runner:
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	loop := agentflow.NewLoop(client, registry)
//
// For Azure OpenAI, point the client at the deployment endpoint and supply
// a token credential:
//
//	cred, _ := azidentity.NewDefaultAzureCredential(nil)
//	client := openai.New("",
//	    openai.WithBaseURL(endpoint),
//	    openai.WithAzureCredential(cred),
//	)
//
// Service failures are returned as [agentflow.ServiceError] values wrapping
// the matching sentinel (ErrAuth, ErrInvalidRequest, ErrContentFilter, or
// ErrService), so callers can branch with errors.Is.
package openai
