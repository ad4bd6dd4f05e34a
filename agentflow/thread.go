// Copyright (c) Microsoft. All rights reserved.

package agentflow

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ThreadStatus describes where a [Thread] is in its lifecycle.
type ThreadStatus string

const (
	// ThreadActive accepts user, system, and assistant messages.
	ThreadActive ThreadStatus = "active"

	// ThreadAwaitingTool means the last assistant turn requested tool calls
	// whose results have not all been appended yet. Only tool-role messages
	// may be appended in this state.
	ThreadAwaitingTool ThreadStatus = "awaiting_tool"

	// ThreadCompleted means the conversation reached a final answer.
	ThreadCompleted ThreadStatus = "completed"

	// ThreadFailed means the conversation ended in an unrecoverable error.
	ThreadFailed ThreadStatus = "failed"
)

// Thread is an append-only, ordered conversation log plus run status. It is
// the unit of conversational state handed to an invocation [Loop]: exactly one
// in-flight loop owns a thread at a time, and all mutation goes through it.
type Thread struct {
	mu       sync.Mutex
	id       string
	messages []Message
	status   ThreadStatus

	// pendingCalls tracks tool-call request ids awaiting results.
	pendingCalls map[string]bool
	// seenCalls tracks every tool-call request id appended so far, so
	// result referents can be checked against the full history.
	seenCalls map[string]bool
}

// NewThread creates an empty, active Thread with a generated id.
func NewThread() *Thread {
	return &Thread{
		id:           uuid.NewString(),
		status:       ThreadActive,
		pendingCalls: make(map[string]bool),
		seenCalls:    make(map[string]bool),
	}
}

// ID returns the thread's unique identifier.
func (t *Thread) ID() string { return t.id }

// Status returns the thread's current lifecycle status.
func (t *Thread) Status() ThreadStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Len returns the number of messages appended so far.
func (t *Thread) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Append adds a message to the end of the thread, preserving ordering.
//
// It returns ErrInvalidTransition when the append violates the status
// contract: any append on a completed or failed thread, a non-tool message
// while tool results are outstanding, or a tool result that does not
// reference a prior tool-call request in this thread.
func (t *Thread) Append(msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.status {
	case ThreadCompleted, ThreadFailed:
		return fmt.Errorf("%w: append on %s thread", ErrInvalidTransition, t.status)
	case ThreadAwaitingTool:
		if msg.Role != RoleTool {
			return fmt.Errorf("%w: %s message while awaiting tool results", ErrInvalidTransition, msg.Role)
		}
	}

	if msg.Role == RoleTool {
		if err := t.checkToolResult(msg); err != nil {
			return err
		}
	}

	t.messages = append(t.messages, msg)

	// Track tool-call requests issued by this message.
	for _, fc := range msg.Contents.FunctionCalls() {
		t.pendingCalls[fc.CallID] = true
		t.seenCalls[fc.CallID] = true
	}

	if len(t.pendingCalls) > 0 {
		t.status = ThreadAwaitingTool
	} else {
		t.status = ThreadActive
	}
	return nil
}

// checkToolResult validates that every result in msg references a tool-call
// request already present in the thread, and marks those calls resolved.
// Caller holds t.mu.
func (t *Thread) checkToolResult(msg Message) error {
	var resolved []string
	for _, c := range msg.Contents {
		fr, ok := c.(*FunctionResultContent)
		if !ok {
			continue
		}
		if !t.seenCalls[fr.CallID] {
			return fmt.Errorf("%w: tool result references unknown call %q", ErrInvalidTransition, fr.CallID)
		}
		resolved = append(resolved, fr.CallID)
	}
	if len(resolved) == 0 {
		return fmt.Errorf("%w: tool message carries no function result", ErrInvalidTransition)
	}
	for _, id := range resolved {
		delete(t.pendingCalls, id)
	}
	return nil
}

// Snapshot returns a copy of the message sequence safe to hand to an
// in-flight backend call without risking mutation underneath it.
func (t *Thread) Snapshot() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]Message, len(t.messages))
	copy(cp, t.messages)
	return cp
}

// Complete marks the thread completed. No further appends are accepted.
func (t *Thread) Complete() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == ThreadFailed {
		return fmt.Errorf("%w: complete on failed thread", ErrInvalidTransition)
	}
	if len(t.pendingCalls) > 0 {
		return fmt.Errorf("%w: complete with %d unresolved tool calls", ErrInvalidTransition, len(t.pendingCalls))
	}
	t.status = ThreadCompleted
	return nil
}

// Fail marks the thread failed. Valid from any non-completed state.
func (t *Thread) Fail() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == ThreadCompleted {
		return fmt.Errorf("%w: fail on completed thread", ErrInvalidTransition)
	}
	t.status = ThreadFailed
	return nil
}
