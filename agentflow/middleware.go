// Copyright (c) Microsoft. All rights reserved.

package agentflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// ToolHandler is the function signature for invoking a tool.
type ToolHandler func(ctx context.Context, tool Tool, args json.RawMessage) (any, error)

// ToolMiddleware wraps a [ToolHandler] to add cross-cutting behavior.
// Middleware should call next to continue the chain, or return early to
// short-circuit.
type ToolMiddleware func(next ToolHandler) ToolHandler

// ChatHandler is the function signature for processing a backend request.
type ChatHandler func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

// ChatMiddleware wraps a [ChatHandler] to add cross-cutting behavior.
type ChatMiddleware func(next ChatHandler) ChatHandler

// chainToolMiddleware applies middleware in order (first in list = outermost wrapper).
func chainToolMiddleware(handler ToolHandler, mws ...ToolMiddleware) ToolHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// LoggingToolMiddleware returns a [ToolMiddleware] that logs tool executions
// using slog.
func LoggingToolMiddleware(logger *slog.Logger) ToolMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ToolHandler) ToolHandler {
		return func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
			start := time.Now()
			result, err := next(ctx, tool, args)
			duration := time.Since(start)
			if err != nil {
				logger.WarnContext(ctx, "tool execution failed",
					"tool", tool.Name(),
					"capability", tool.Capability(),
					"duration", duration,
					"error", err,
				)
				return nil, err
			}
			logger.DebugContext(ctx, "tool executed",
				"tool", tool.Name(),
				"capability", tool.Capability(),
				"duration", duration,
			)
			return result, nil
		}
	}
}
