// Copyright (c) Microsoft. All rights reserved.

package openai_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	af "github.com/microsoft/agent-workflows/go/agentflow"
	"github.com/microsoft/agent-workflows/go/openai"
)

// mockTransportFunc is a RoundTripper that delegates to a function.
type mockTransportFunc func(*http.Request) (*http.Response, error)

func (f mockTransportFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newMockHTTPClient(fn func(*http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: mockTransportFunc(fn)}
}

func jsonResponse(status int, body any) *http.Response {
	b, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}

func TestClient_Response_Basic(t *testing.T) {
	content := "Hello! How can I help?"
	apiResp := map[string]any{
		"id":     "chatcmpl-123",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": content,
			},
		}},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
		},
	}

	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != "POST" {
			t.Errorf("method = %q", req.Method)
		}
		if !strings.HasSuffix(req.URL.Path, "/chat/completions") {
			t.Errorf("path = %q", req.URL.Path)
		}
		if req.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("auth = %q", req.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(req.Body)
		var reqBody map[string]any
		json.Unmarshal(body, &reqBody)
		if reqBody["model"] != "gpt-4o" {
			t.Errorf("request model = %v", reqBody["model"])
		}

		return jsonResponse(200, apiResp), nil
	})

	client := openai.New("test-key",
		openai.WithModel("gpt-4o"),
		openai.WithHTTPClient(httpClient),
	)

	resp, err := client.Response(context.Background(),
		[]af.Message{af.NewUserMessage("hi")},
		nil,
	)
	if err != nil {
		t.Fatalf("Response: %v", err)
	}

	if resp.ResponseID != "chatcmpl-123" {
		t.Errorf("ResponseID = %q", resp.ResponseID)
	}
	if resp.FinishReason != af.FinishReasonStop {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 8 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if resp.Text() != content {
		t.Errorf("Text = %q", resp.Text())
	}
}

func TestClient_Response_ToolCalls(t *testing.T) {
	apiResp := map[string]any{
		"id":    "chatcmpl-456",
		"model": "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "tool_calls",
			"message": map[string]any{
				"role": "assistant",
				"tool_calls": []map[string]any{{
					"id":   "call_1",
					"type": "function",
					"function": map[string]any{
						"name":      "get_weather",
						"arguments": `{"city":"Paris"}`,
					},
				}},
			},
		}},
	}

	var sentTools []any
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		var reqBody struct {
			Tools []any `json:"tools"`
		}
		json.Unmarshal(body, &reqBody)
		sentTools = reqBody.Tools
		return jsonResponse(200, apiResp), nil
	})

	client := openai.New("test-key",
		openai.WithModel("gpt-4o"),
		openai.WithHTTPClient(httpClient),
	)

	weather := af.NewTool("get_weather", "Get the weather.", af.CapabilityCustomFunction,
		func(ctx context.Context, args json.RawMessage) (any, error) { return "sunny", nil },
	)
	resp, err := client.Response(context.Background(),
		[]af.Message{af.NewUserMessage("weather in Paris?")},
		&af.ChatOptions{Tools: []af.Tool{weather}},
	)
	if err != nil {
		t.Fatalf("Response: %v", err)
	}

	if len(sentTools) != 1 {
		t.Fatalf("request tools = %v", sentTools)
	}

	calls := resp.FunctionCalls()
	if len(calls) != 1 {
		t.Fatalf("len(FunctionCalls) = %d", len(calls))
	}
	if calls[0].CallID != "call_1" || calls[0].Name != "get_weather" {
		t.Errorf("call = %+v", calls[0])
	}
	if resp.FinishReason != af.FinishReasonToolCalls {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
}

func TestClient_Response_ToolResultRoundTrip(t *testing.T) {
	var sentMessages []map[string]any
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		var reqBody struct {
			Messages []map[string]any `json:"messages"`
		}
		json.Unmarshal(body, &reqBody)
		sentMessages = reqBody.Messages
		return jsonResponse(200, map[string]any{
			"id":    "chatcmpl-789",
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "It is sunny."},
			}},
		}), nil
	})

	client := openai.New("test-key",
		openai.WithModel("gpt-4o"),
		openai.WithHTTPClient(httpClient),
	)

	assistant := af.Message{
		Role: af.RoleAssistant,
		Contents: af.Contents{&af.FunctionCallContent{
			CallID: "call_1", Name: "get_weather", Arguments: `{"city":"Paris"}`,
		}},
	}
	msgs := []af.Message{
		af.NewUserMessage("weather?"),
		assistant,
		af.NewToolMessage("call_1", "sunny"),
	}

	if _, err := client.Response(context.Background(), msgs, nil); err != nil {
		t.Fatalf("Response: %v", err)
	}

	if len(sentMessages) != 3 {
		t.Fatalf("len(messages) = %d", len(sentMessages))
	}
	if sentMessages[1]["tool_calls"] == nil {
		t.Error("assistant message should carry tool_calls")
	}
	if sentMessages[2]["tool_call_id"] != "call_1" {
		t.Errorf("tool message tool_call_id = %v", sentMessages[2]["tool_call_id"])
	}
	if sentMessages[2]["content"] != "sunny" {
		t.Errorf("tool message content = %v", sentMessages[2]["content"])
	}
}

func TestClient_Response_ImageParts(t *testing.T) {
	var sentMessages []map[string]any
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		var reqBody struct {
			Messages []map[string]any `json:"messages"`
		}
		json.Unmarshal(body, &reqBody)
		sentMessages = reqBody.Messages
		return jsonResponse(200, map[string]any{
			"id":    "chatcmpl-img",
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "A cat."},
			}},
		}), nil
	})

	client := openai.New("test-key",
		openai.WithModel("gpt-4o"),
		openai.WithHTTPClient(httpClient),
	)

	msg := af.Message{
		Role: af.RoleUser,
		Contents: af.Contents{
			&af.TextContent{Text: "What is in this image?"},
			&af.URIContent{URI: "https://example.com/cat.png", MediaType: "image/png"},
		},
	}
	if _, err := client.Response(context.Background(), []af.Message{msg}, nil); err != nil {
		t.Fatalf("Response: %v", err)
	}

	parts, ok := sentMessages[0]["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("content = %v", sentMessages[0]["content"])
	}
	img := parts[1].(map[string]any)
	if img["type"] != "image_url" {
		t.Errorf("part type = %v", img["type"])
	}
}

func TestClient_Response_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		sentinel error
	}{
		{"unauthorized", 401, "", af.ErrAuth},
		{"forbidden", 403, "", af.ErrAuth},
		{"bad request", 400, "", af.ErrInvalidRequest},
		{"content filter", 400, "content_filter", af.ErrContentFilter},
		{"server error", 500, "", af.ErrService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, map[string]any{
					"error": map[string]any{
						"message": "nope",
						"code":    tt.code,
					},
				}), nil
			})

			client := openai.New("test-key",
				openai.WithModel("gpt-4o"),
				openai.WithHTTPClient(httpClient),
			)

			_, err := client.Response(context.Background(),
				[]af.Message{af.NewUserMessage("hi")}, nil)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("err = %v, want %v", err, tt.sentinel)
			}
			var svcErr *af.ServiceError
			if !errors.As(err, &svcErr) {
				t.Fatalf("err = %T, want *ServiceError", err)
			}
			if svcErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", svcErr.StatusCode, tt.status)
			}
		})
	}
}

func TestClient_Response_ModelOverride(t *testing.T) {
	var sentModel string
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		var reqBody map[string]any
		json.Unmarshal(body, &reqBody)
		sentModel, _ = reqBody["model"].(string)
		return jsonResponse(200, map[string]any{
			"id":    "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{{
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "ok"},
			}},
		}), nil
	})

	client := openai.New("test-key",
		openai.WithModel("gpt-4o"),
		openai.WithHTTPClient(httpClient),
	)

	_, err := client.Response(context.Background(),
		[]af.Message{af.NewUserMessage("hi")},
		&af.ChatOptions{ModelID: "gpt-4o-mini"},
	)
	if err != nil {
		t.Fatalf("Response: %v", err)
	}
	if sentModel != "gpt-4o-mini" {
		t.Errorf("request model = %q, want gpt-4o-mini", sentModel)
	}
}

func TestClient_ChatMiddleware(t *testing.T) {
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, map[string]any{
			"id":    "chatcmpl-1",
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "ok"},
			}},
		}), nil
	})

	var order []string
	mw := func(name string) af.ChatMiddleware {
		return func(next af.ChatHandler) af.ChatHandler {
			return func(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
				order = append(order, name)
				return next(ctx, msgs, opts)
			}
		}
	}

	client := openai.New("test-key",
		openai.WithModel("gpt-4o"),
		openai.WithHTTPClient(httpClient),
		openai.WithChatMiddleware(mw("outer"), mw("inner")),
	)

	if _, err := client.Response(context.Background(),
		[]af.Message{af.NewUserMessage("hi")}, nil); err != nil {
		t.Fatalf("Response: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v", order)
	}
}
