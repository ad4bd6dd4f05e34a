// Copyright (c) Microsoft. All rights reserved.

package agentflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrTool is the base error for tool-related failures.
	ErrTool = errors.New("tool error")

	// ErrUnknownTool indicates a tool name that is not registered.
	ErrUnknownTool = fmt.Errorf("%w: unknown tool", ErrTool)

	// ErrToolExecution indicates a failure during tool invocation.
	ErrToolExecution = fmt.Errorf("%w: execution", ErrTool)

	// ErrToolConflict indicates a duplicate tool name at registration.
	ErrToolConflict = fmt.Errorf("%w: name conflict", ErrTool)

	// ErrToolConfig indicates an invalid capability configuration.
	ErrToolConfig = fmt.Errorf("%w: invalid configuration", ErrTool)

	// ErrThread is the base error for conversation thread failures.
	ErrThread = errors.New("thread error")

	// ErrInvalidTransition indicates an append that violates the thread's
	// status contract. Always fatal and non-retryable.
	ErrInvalidTransition = fmt.Errorf("%w: invalid transition", ErrThread)

	// ErrResource is the base error for external resource failures.
	ErrResource = errors.New("resource error")

	// ErrResourceCreation indicates the provider rejected resource creation.
	ErrResourceCreation = fmt.Errorf("%w: creation", ErrResource)

	// ErrResourceTimeout indicates readiness was not reached within the
	// configured wait bound.
	ErrResourceTimeout = fmt.Errorf("%w: timeout", ErrResource)

	// ErrBackend indicates the reasoning backend was unreachable beyond the
	// retry budget.
	ErrBackend = errors.New("backend communication error")

	// ErrTurnLimit indicates the invocation loop exceeded its maximum turn
	// count. Guards against unbounded tool-call cycles.
	ErrTurnLimit = errors.New("turn limit exceeded")

	// ErrService is the base error for provider service failures.
	ErrService = errors.New("service error")

	// ErrContentFilter indicates the request was rejected by a content filter.
	ErrContentFilter = fmt.Errorf("%w: content filter", ErrService)

	// ErrInvalidRequest indicates the request was malformed or invalid.
	ErrInvalidRequest = fmt.Errorf("%w: invalid request", ErrService)

	// ErrAuth indicates an authentication or authorization failure.
	ErrAuth = fmt.Errorf("%w: authentication", ErrService)
)

// ServiceError provides rich context for backend service failures.
// Use errors.As to extract it from a wrapped error chain.
type ServiceError struct {
	StatusCode int
	Message    string
	Code       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("service error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ToolError provides context for tool invocation failures.
type ToolError struct {
	ToolName string
	Message  string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q: %s", e.ToolName, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Err }

// ResourceError provides context for resource materialization failures.
type ResourceError struct {
	Source  string
	Message string
	Err     error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %q: %s", e.Source, e.Message)
}

func (e *ResourceError) Unwrap() error { return e.Err }
