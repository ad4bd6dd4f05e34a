// Copyright (c) Microsoft. All rights reserved.

package agentflow

import (
	"context"
	"encoding/json"
	"fmt"
)

// Capability is the closed set of tool kinds the engine understands.
// Dispatch is by tag, giving exhaustive-match safety instead of runtime
// duck typing.
type Capability string

const (
	CapabilityFileSearch      Capability = "file_search"
	CapabilityCodeInterpreter Capability = "code_interpreter"
	CapabilityWebSearch       Capability = "web_search"
	CapabilityVision          Capability = "vision"
	CapabilityCustomFunction  Capability = "custom_function"
)

// valid reports whether c is a member of the closed capability set.
func (c Capability) valid() bool {
	switch c {
	case CapabilityFileSearch, CapabilityCodeInterpreter, CapabilityWebSearch,
		CapabilityVision, CapabilityCustomFunction:
		return true
	}
	return false
}

// Tool defines a callable capability that can be exposed to an LLM.
type Tool interface {
	// Name returns the function name as exposed to the model.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Capability returns the tool's capability tag.
	Capability() Capability

	// Parameters returns the JSON Schema describing the function's input.
	Parameters() json.RawMessage

	// Invoke calls the tool with the given JSON arguments. An empty result
	// with a nil error is a valid outcome.
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
}

// FileSearchConfig configures a file-search tool with the vector stores it
// may query. Store ids usually come from a [Binder] materialization.
type FileSearchConfig struct {
	VectorStoreIDs []string
}

// Validate checks the configuration.
func (c FileSearchConfig) Validate() error {
	if len(c.VectorStoreIDs) == 0 {
		return fmt.Errorf("%w: file search requires at least one vector store", ErrToolConfig)
	}
	return nil
}

// CodeInterpreterConfig configures a code-interpreter tool with the files
// available inside the sandbox.
type CodeInterpreterConfig struct {
	FileIDs []string
}

// Validate checks the configuration. An empty file set is valid.
func (c CodeInterpreterConfig) Validate() error { return nil }

// WebSearchConfig configures a web-search tool.
type WebSearchConfig struct {
	// AllowedDomains restricts results to the listed domains when non-empty.
	AllowedDomains []string
}

// Validate checks the configuration.
func (c WebSearchConfig) Validate() error { return nil }

// VisionConfig configures a vision tool.
type VisionConfig struct {
	// MaxImageBytes bounds accepted image payloads. Zero means no bound.
	MaxImageBytes int
}

// Validate checks the configuration.
func (c VisionConfig) Validate() error {
	if c.MaxImageBytes < 0 {
		return fmt.Errorf("%w: negative image size bound", ErrToolConfig)
	}
	return nil
}

// FunctionTool is a concrete [Tool] backed by a Go function.
type FunctionTool struct {
	name        string
	description string
	capability  Capability
	parameters  json.RawMessage
	fn          func(ctx context.Context, args json.RawMessage) (any, error)
}

// ToolOption configures a [FunctionTool].
type ToolOption func(*FunctionTool)

// WithParameters sets an explicit JSON Schema for the tool's input.
func WithParameters(schema json.RawMessage) ToolOption {
	return func(t *FunctionTool) { t.parameters = schema }
}

// NewTool creates a [FunctionTool] with the given capability tag and handler.
func NewTool(name, description string, capability Capability, fn func(ctx context.Context, args json.RawMessage) (any, error), opts ...ToolOption) *FunctionTool {
	t := &FunctionTool{
		name:        name,
		description: description,
		capability:  capability,
		fn:          fn,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTypedTool creates a [FunctionTool] that automatically generates JSON
// Schema from the Args type parameter and handles JSON deserialization.
//
// The Args type should be a struct with json tags. Use the `jsonschema`
// struct tag for additional schema metadata:
//
//	type SearchArgs struct {
//	    Query string `json:"query" jsonschema:"description=Search query,required"`
//	    Scope string `json:"scope" jsonschema:"description=Search scope,enum=all|recent"`
//	}
func NewTypedTool[Args any](name, description string, capability Capability, fn func(ctx context.Context, args Args) (any, error), opts ...ToolOption) *FunctionTool {
	schema := GenerateSchema[Args]()

	wrapped := func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args Args
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, &ToolError{
				ToolName: name,
				Message:  "invalid arguments: " + err.Error(),
				Err:      ErrToolExecution,
			}
		}
		return fn(ctx, args)
	}

	opts = append([]ToolOption{WithParameters(schema)}, opts...)
	return NewTool(name, description, capability, wrapped, opts...)
}

func (t *FunctionTool) Name() string                { return t.name }
func (t *FunctionTool) Description() string         { return t.description }
func (t *FunctionTool) Capability() Capability      { return t.capability }
func (t *FunctionTool) Parameters() json.RawMessage { return t.parameters }

// Invoke calls the tool's backing function.
func (t *FunctionTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	if t.fn == nil {
		return nil, &ToolError{
			ToolName: t.name,
			Message:  "tool has no handler",
			Err:      ErrToolExecution,
		}
	}
	return t.fn(ctx, args)
}
