// Copyright (c) Microsoft. All rights reserved.

package workflows_test

import (
	"errors"
	"testing"

	wf "github.com/microsoft/agent-workflows/go/workflows"
)

func TestCompilePredicate(t *testing.T) {
	vars := map[string]string{
		"input":         "please review this",
		"screen.output": "the request is approved",
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"true", true},
		{"screen.output contains 'approved'", true},
		{"screen.output contains 'denied'", false},
		{`input contains "review"`, true},
		{"screen.output == 'the request is approved'", true},
		{"screen.output == 'approved'", false},
		{"screen.output != 'approved'", true},
		{"missing.output contains 'x'", false},
		{"missing.output == ''", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			pred, err := wf.CompilePredicate(tt.expr)
			if err != nil {
				t.Fatalf("CompilePredicate(%q): %v", tt.expr, err)
			}
			if got := pred.Eval(vars); got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompilePredicateUnconditional(t *testing.T) {
	pred, err := wf.CompilePredicate("")
	if err != nil {
		t.Fatalf("CompilePredicate: %v", err)
	}
	if !pred.Unconditional() {
		t.Error("empty condition should be unconditional")
	}
	if pred.Ref() != "" {
		t.Errorf("Ref() = %q, want empty", pred.Ref())
	}

	pred, err = wf.CompilePredicate("screen.output contains 'ok'")
	if err != nil {
		t.Fatalf("CompilePredicate: %v", err)
	}
	if pred.Unconditional() {
		t.Error("conditional predicate reported unconditional")
	}
	if pred.Ref() != "screen.output" {
		t.Errorf("Ref() = %q, want screen.output", pred.Ref())
	}
}

func TestCompilePredicateRejections(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"no operator", "screen.output approved"},
		{"unquoted literal", "screen.output contains approved"},
		{"mismatched quotes", `screen.output contains 'approved"`},
		{"bad reference field", "screen.result contains 'x'"},
		{"bare reference", "output contains 'x'"},
		{"empty node", ".output contains 'x'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wf.CompilePredicate(tt.expr)
			if !errors.Is(err, wf.ErrPredicate) {
				t.Fatalf("err = %v, want ErrPredicate", err)
			}
			if !errors.Is(err, wf.ErrDefinition) {
				t.Error("predicate errors should also match ErrDefinition")
			}
		})
	}
}
