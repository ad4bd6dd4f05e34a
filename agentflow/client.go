// Copyright (c) Microsoft. All rights reserved.

package agentflow

import "context"

// ChatClient is the boundary to a reasoning backend. Given a thread snapshot
// and per-call options, it returns either a final answer or a set of tool-call
// requests inside the response messages. Provider packages (e.g., openai)
// implement this interface; transport and authentication are theirs alone.
type ChatClient interface {
	// Response sends messages to the model and returns a complete response.
	Response(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)
}

// ChatResponse is the complete response from a [ChatClient].
type ChatResponse struct {
	Messages     []Message
	ResponseID   string
	ModelID      string
	FinishReason FinishReason
	Usage        UsageDetails
}

// Text returns the concatenated text of all messages in this response.
func (r *ChatResponse) Text() string {
	var b []byte
	for i := range r.Messages {
		b = append(b, r.Messages[i].Text()...)
	}
	return string(b)
}

// FunctionCalls returns all tool-call requests across the response messages.
func (r *ChatResponse) FunctionCalls() []*FunctionCallContent {
	var calls []*FunctionCallContent
	for _, m := range r.Messages {
		calls = append(calls, m.Contents.FunctionCalls()...)
	}
	return calls
}
