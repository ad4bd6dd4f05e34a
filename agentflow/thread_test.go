// Copyright (c) Microsoft. All rights reserved.

package agentflow_test

import (
	"errors"
	"testing"

	af "github.com/microsoft/agent-workflows/go/agentflow"
)

func callMessage(callID, name, args string) af.Message {
	return af.Message{
		Role: af.RoleAssistant,
		Contents: af.Contents{&af.FunctionCallContent{
			CallID:    callID,
			Name:      name,
			Arguments: args,
		}},
	}
}

func TestThread_AppendOrdering(t *testing.T) {
	thread := af.NewThread()
	if thread.ID() == "" {
		t.Error("ID should not be empty")
	}
	if thread.Status() != af.ThreadActive {
		t.Errorf("Status = %q, want active", thread.Status())
	}

	msgs := []af.Message{
		af.NewUserMessage("first"),
		af.NewAssistantMessage("second"),
		af.NewUserMessage("third"),
	}
	for _, m := range msgs {
		if err := thread.Append(m); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	snap := thread.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot has %d messages, want 3", len(snap))
	}
	for i, m := range msgs {
		if snap[i].Text() != m.Text() {
			t.Errorf("snapshot[%d] = %q, want %q", i, snap[i].Text(), m.Text())
		}
	}
}

func TestThread_SnapshotIsDefensiveCopy(t *testing.T) {
	thread := af.NewThread()
	if err := thread.Append(af.NewUserMessage("hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	snap := thread.Snapshot()
	snap[0] = af.NewUserMessage("mutated")

	if got := thread.Snapshot()[0].Text(); got != "hello" {
		t.Errorf("thread message = %q, want %q", got, "hello")
	}
}

func TestThread_ToolCallLifecycle(t *testing.T) {
	thread := af.NewThread()
	if err := thread.Append(af.NewUserMessage("do the thing")); err != nil {
		t.Fatalf("Append user: %v", err)
	}
	if err := thread.Append(callMessage("call-1", "search_docs", `{}`)); err != nil {
		t.Fatalf("Append call: %v", err)
	}
	if thread.Status() != af.ThreadAwaitingTool {
		t.Fatalf("Status = %q, want awaiting_tool", thread.Status())
	}

	// Non-tool append while awaiting results must be rejected.
	err := thread.Append(af.NewUserMessage("impatient"))
	if !errors.Is(err, af.ErrInvalidTransition) {
		t.Errorf("user append while awaiting tool: err = %v, want ErrInvalidTransition", err)
	}

	// Completion with unresolved calls must be rejected.
	if err := thread.Complete(); !errors.Is(err, af.ErrInvalidTransition) {
		t.Errorf("Complete with pending calls: err = %v, want ErrInvalidTransition", err)
	}

	if err := thread.Append(af.NewToolMessage("call-1", "found it")); err != nil {
		t.Fatalf("Append result: %v", err)
	}
	if thread.Status() != af.ThreadActive {
		t.Errorf("Status = %q, want active after results", thread.Status())
	}
	if err := thread.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if thread.Status() != af.ThreadCompleted {
		t.Errorf("Status = %q, want completed", thread.Status())
	}
}

func TestThread_ToolResultReferent(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*af.Thread)
		msg     af.Message
		wantErr bool
	}{
		{
			name:    "result without any prior call",
			prepare: func(*af.Thread) {},
			msg:     af.NewToolMessage("call-9", "orphan"),
			wantErr: true,
		},
		{
			name: "result referencing unknown id",
			prepare: func(th *af.Thread) {
				_ = th.Append(callMessage("call-1", "t", `{}`))
			},
			msg:     af.NewToolMessage("call-2", "wrong id"),
			wantErr: true,
		},
		{
			name: "result referencing known id",
			prepare: func(th *af.Thread) {
				_ = th.Append(callMessage("call-1", "t", `{}`))
			},
			msg:     af.NewToolMessage("call-1", "ok"),
			wantErr: false,
		},
		{
			name: "tool message without function result",
			prepare: func(th *af.Thread) {
				_ = th.Append(callMessage("call-1", "t", `{}`))
			},
			msg:     af.Message{Role: af.RoleTool, Contents: af.Contents{&af.TextContent{Text: "bare"}}},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			thread := af.NewThread()
			tc.prepare(thread)
			err := thread.Append(tc.msg)
			if tc.wantErr && !errors.Is(err, af.ErrInvalidTransition) {
				t.Errorf("err = %v, want ErrInvalidTransition", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
		})
	}
}

func TestThread_TerminalStates(t *testing.T) {
	thread := af.NewThread()
	if err := thread.Append(af.NewUserMessage("hi")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := thread.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if err := thread.Append(af.NewUserMessage("late")); !errors.Is(err, af.ErrInvalidTransition) {
		t.Errorf("append on completed thread: err = %v, want ErrInvalidTransition", err)
	}
	if err := thread.Fail(); !errors.Is(err, af.ErrInvalidTransition) {
		t.Errorf("fail on completed thread: err = %v, want ErrInvalidTransition", err)
	}

	failed := af.NewThread()
	if err := failed.Fail(); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := failed.Complete(); !errors.Is(err, af.ErrInvalidTransition) {
		t.Errorf("complete on failed thread: err = %v, want ErrInvalidTransition", err)
	}
}
