// Copyright (c) Microsoft. All rights reserved.

package agentflow_test

import (
	"context"
	"encoding/json"
	"testing"

	af "github.com/microsoft/agent-workflows/go/agentflow"
)

func namedTool(name string) af.Tool {
	return af.NewTool(name, "test tool", af.CapabilityCustomFunction,
		func(ctx context.Context, args json.RawMessage) (any, error) { return nil, nil },
	)
}

func TestMergeChatOptions(t *testing.T) {
	temp := 0.2

	t.Run("nil base and override", func(t *testing.T) {
		merged := af.MergeChatOptions(nil, nil)
		if merged == nil {
			t.Fatal("merged should not be nil")
		}
	})

	t.Run("override wins on scalars", func(t *testing.T) {
		base := &af.ChatOptions{ModelID: "base-model", User: "base-user"}
		override := &af.ChatOptions{ModelID: "override-model", Temperature: &temp}
		merged := af.MergeChatOptions(base, override)

		if merged.ModelID != "override-model" {
			t.Errorf("ModelID = %q", merged.ModelID)
		}
		if merged.User != "base-user" {
			t.Errorf("User = %q, want base value preserved", merged.User)
		}
		if merged.Temperature == nil || *merged.Temperature != temp {
			t.Errorf("Temperature = %v", merged.Temperature)
		}
	})

	t.Run("instructions concatenate", func(t *testing.T) {
		merged := af.MergeChatOptions(
			&af.ChatOptions{Instructions: "Be helpful."},
			&af.ChatOptions{Instructions: "Be brief."},
		)
		if merged.Instructions != "Be helpful.\nBe brief." {
			t.Errorf("Instructions = %q", merged.Instructions)
		}
	})

	t.Run("tools merge by name preserving base order", func(t *testing.T) {
		base := &af.ChatOptions{Tools: []af.Tool{namedTool("a"), namedTool("b")}}
		replacement := namedTool("b")
		override := &af.ChatOptions{Tools: []af.Tool{replacement, namedTool("c")}}

		merged := af.MergeChatOptions(base, override)
		if len(merged.Tools) != 3 {
			t.Fatalf("len(Tools) = %d, want 3", len(merged.Tools))
		}
		names := []string{merged.Tools[0].Name(), merged.Tools[1].Name(), merged.Tools[2].Name()}
		if names[0] != "a" || names[1] != "b" || names[2] != "c" {
			t.Errorf("tool order = %v", names)
		}
		if merged.Tools[1] != af.Tool(replacement) {
			t.Error("same-named tool should be replaced by override")
		}
	})

	t.Run("metadata merges with override priority", func(t *testing.T) {
		merged := af.MergeChatOptions(
			&af.ChatOptions{Metadata: map[string]string{"env": "base", "keep": "yes"}},
			&af.ChatOptions{Metadata: map[string]string{"env": "override"}},
		)
		if merged.Metadata["env"] != "override" || merged.Metadata["keep"] != "yes" {
			t.Errorf("Metadata = %v", merged.Metadata)
		}
	})
}
