// Copyright (c) Microsoft. All rights reserved.

package agentflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// LoopConfig controls the invocation loop behavior.
type LoopConfig struct {
	// MaxTurns is the maximum number of backend round-trips before the loop
	// fails with ErrTurnLimit. Cycle protection. Default: 25.
	MaxTurns int

	// BackendRetries is the number of additional attempts after a failed
	// backend call, with exponential backoff between attempts. Default: 2.
	BackendRetries int

	// RetryBaseDelay is the backoff delay before the first retry; it doubles
	// per attempt up to RetryMaxDelay. Default: 250ms.
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps the backoff delay. Default: 5s.
	RetryMaxDelay time.Duration

	// BackendTimeout bounds a single backend call. Zero means no bound.
	BackendTimeout time.Duration

	// ToolTimeout bounds a single tool execution. Zero means no bound.
	ToolTimeout time.Duration

	// IncludeDetailedErrors includes full error text in tool results sent
	// back to the model. When false, a generic error message is used.
	IncludeDetailedErrors bool
}

// DefaultLoopConfig returns the default configuration.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxTurns:       25,
		BackendRetries: 2,
		RetryBaseDelay: 250 * time.Millisecond,
		RetryMaxDelay:  5 * time.Second,
	}
}

// LoopOutput is the result of a completed invocation loop.
type LoopOutput struct {
	// Output is the final answer text.
	Output string

	// Messages are the messages appended to the thread during the run.
	Messages []Message

	// Turns is the number of backend round-trips taken.
	Turns int

	// Usage is the accumulated token usage across all turns.
	Usage UsageDetails
}

// Loop drives one agent's turn cycle: send the thread to the reasoning
// backend, execute requested tools, feed results back, repeat until the
// backend produces a final answer.
//
// A single tool's failure is not fatal: it is converted into a tool-role
// message carrying an error payload so the backend can recover on its next
// turn. The loop fails only when the backend is unreachable beyond the retry
// budget or the turn bound is exceeded.
type Loop struct {
	client   ChatClient
	registry *Registry
	config   LoopConfig
	logger   *slog.Logger
}

// LoopOption configures a [Loop] via [NewLoop].
type LoopOption func(*Loop)

// WithLoopConfig overrides the default [LoopConfig].
func WithLoopConfig(cfg LoopConfig) LoopOption {
	return func(l *Loop) { l.config = cfg }
}

// WithLoopLogger sets the logger for turn progress.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// NewLoop creates a Loop over the given backend client and tool registry.
func NewLoop(client ChatClient, registry *Registry, opts ...LoopOption) *Loop {
	l := &Loop{
		client:   client,
		registry: registry,
		config:   DefaultLoopConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.config.MaxTurns <= 0 {
		l.config.MaxTurns = 25
	}
	return l
}

// Run executes the loop for def against thread until a final answer or
// failure. The thread must be Active; on success it is Completed, on fatal
// failure it is Failed. The caller owns the thread for the duration of the
// call; no other loop may mutate it concurrently.
func (l *Loop) Run(ctx context.Context, def *AgentDefinition, thread *Thread) (*LoopOutput, error) {
	tools, err := l.registry.Select(def.Tools())
	if err != nil {
		return nil, err
	}

	opts := &ChatOptions{
		ModelID:      def.Model(),
		Instructions: def.Instructions(),
		Tools:        tools,
	}

	out := &LoopOutput{}
	for turn := 0; turn < l.config.MaxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			_ = thread.Fail()
			return nil, err
		}

		messages := PrependInstructions(thread.Snapshot(), opts.Instructions)
		resp, err := l.callBackend(ctx, messages, opts)
		if err != nil {
			_ = thread.Fail()
			return nil, err
		}
		out.Turns++
		out.Usage.Add(resp.Usage)

		for _, m := range resp.Messages {
			if err := thread.Append(m); err != nil {
				_ = thread.Fail()
				return nil, err
			}
			out.Messages = append(out.Messages, m)
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			if err := thread.Complete(); err != nil {
				return nil, err
			}
			out.Output = resp.Text()
			l.logger.DebugContext(ctx, "loop done",
				"agent", def.Name(),
				"turns", out.Turns,
				"thread_id", thread.ID(),
			)
			return out, nil
		}

		results := l.executeCalls(ctx, def.Name(), calls)
		for _, m := range results {
			if err := thread.Append(m); err != nil {
				_ = thread.Fail()
				return nil, err
			}
			out.Messages = append(out.Messages, m)
		}
	}

	_ = thread.Fail()
	return nil, fmt.Errorf("%w: %d turns", ErrTurnLimit, l.config.MaxTurns)
}

// callBackend performs one backend call with bounded exponential backoff.
// Cancellation and deadline expiry are never retried.
func (l *Loop) callBackend(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
	attempts := l.config.BackendRetries + 1
	delay := l.config.RetryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := l.responseWithTimeout(ctx, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == attempts {
			break
		}
		l.logger.WarnContext(ctx, "backend call failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if l.config.RetryMaxDelay > 0 && delay > l.config.RetryMaxDelay {
			delay = l.config.RetryMaxDelay
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrBackend, lastErr)
}

func (l *Loop) responseWithTimeout(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
	if l.config.BackendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.BackendTimeout)
		defer cancel()
	}
	return l.client.Response(ctx, messages, opts)
}

// executeCalls runs all tool calls from one backend turn. Independent calls
// execute concurrently; the loop joins on all of them before appending any
// result, so no partial progress is exposed to the next turn. Results are
// ordered by request order regardless of completion order.
func (l *Loop) executeCalls(ctx context.Context, agentName string, calls []*FunctionCallContent) []Message {
	results := make([]Message, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = l.executeOne(gctx, agentName, call)
			return nil
		})
	}
	// Workers only record results; the group never returns an error.
	_ = g.Wait()

	return results
}

func (l *Loop) executeOne(ctx context.Context, agentName string, call *FunctionCallContent) Message {
	if l.config.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.ToolTimeout)
		defer cancel()
	}

	result, err := l.registry.Execute(ctx, call.Name, json.RawMessage(call.Arguments))
	if err != nil {
		l.logger.WarnContext(ctx, "tool call failed",
			"agent", agentName,
			"tool", call.Name,
			"call_id", call.CallID,
			"error", err,
		)
		msg := "error invoking tool"
		if l.config.IncludeDetailedErrors {
			msg = err.Error()
		}
		code := "tool_execution_error"
		if errors.Is(err, ErrUnknownTool) {
			code = "unknown_tool"
		}
		return NewToolErrorMessage(call.CallID, msg, code)
	}
	return NewToolMessage(call.CallID, result)
}
