// Copyright (c) Microsoft. All rights reserved.

package agentflow

// ContentType identifies the kind of content within a message.
type ContentType string

const (
	ContentTypeText              ContentType = "text"
	ContentTypeData              ContentType = "data"
	ContentTypeURI               ContentType = "uri"
	ContentTypeError             ContentType = "error"
	ContentTypeFunctionCall      ContentType = "functionCall"
	ContentTypeFunctionResult    ContentType = "functionResult"
	ContentTypeHostedFile        ContentType = "hostedFile"
	ContentTypeHostedVectorStore ContentType = "hostedVectorStore"
	ContentTypeUsage             ContentType = "usage"
)

// Content is a sealed interface representing a piece of content within a
// [Message]. Each concrete type carries data specific to its [ContentType].
// Use a type switch to inspect the underlying type.
type Content interface {
	// Type returns the discriminator for this content item.
	Type() ContentType

	// sealed prevents external implementations.
	sealed()
}

// Contents is an ordered sequence of [Content] items.
type Contents []Content

// base is embedded by every concrete Content type to satisfy the sealed marker.
type base struct{}

func (base) sealed() {}

// TextContent holds plain text.
type TextContent struct {
	base
	Text string
}

func (c *TextContent) Type() ContentType { return ContentTypeText }

// DataContent holds binary data represented as a data URI
// (e.g. data:image/png;base64,...) with its media type. The vision
// capability consumes image data through this type.
type DataContent struct {
	base
	URI       string
	MediaType string
}

func (c *DataContent) Type() ContentType { return ContentTypeData }

// URIContent holds an external URI reference.
type URIContent struct {
	base
	URI       string
	MediaType string
}

func (c *URIContent) Type() ContentType { return ContentTypeURI }

// ErrorContent carries a tool failure back into the conversation so the
// reasoning backend can recover on its next turn.
type ErrorContent struct {
	base
	Message   string
	ErrorCode string
}

func (c *ErrorContent) Type() ContentType { return ContentTypeError }

// FunctionCallContent represents a tool call requested by the model.
type FunctionCallContent struct {
	base
	CallID    string
	Name      string
	Arguments string // JSON-encoded arguments
}

func (c *FunctionCallContent) Type() ContentType { return ContentTypeFunctionCall }

// FunctionResultContent represents the result of a tool call. CallID must
// reference a [FunctionCallContent] appearing earlier in the same thread.
type FunctionResultContent struct {
	base
	CallID string
	Result any
}

func (c *FunctionResultContent) Type() ContentType { return ContentTypeFunctionResult }

// HostedFileContent references a service-hosted file by its opaque id.
type HostedFileContent struct {
	base
	FileID string
}

func (c *HostedFileContent) Type() ContentType { return ContentTypeHostedFile }

// HostedVectorStoreContent references a service-hosted vector store.
type HostedVectorStoreContent struct {
	base
	VectorStoreID string
}

func (c *HostedVectorStoreContent) Type() ContentType { return ContentTypeHostedVectorStore }

// UsageContent carries token usage information.
type UsageContent struct {
	base
	Usage UsageDetails
}

func (c *UsageContent) Type() ContentType { return ContentTypeUsage }

// FunctionCalls returns all [FunctionCallContent] items in order.
func (cs Contents) FunctionCalls() []*FunctionCallContent {
	var calls []*FunctionCallContent
	for _, c := range cs {
		if fc, ok := c.(*FunctionCallContent); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}
