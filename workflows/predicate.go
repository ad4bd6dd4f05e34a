// Copyright (c) Microsoft. All rights reserved.

package workflows

import (
	"fmt"
	"strings"
)

// Predicate is a compiled edge condition evaluated against the accumulated
// execution variables. The grammar is deliberately small:
//
//	true
//	<ref> contains <quoted>
//	<ref> == <quoted>
//	<ref> != <quoted>
//
// where <ref> is "input" or "<nodeID>.output", and <quoted> is a single- or
// double-quoted literal. An empty condition compiles to the always-true
// predicate (an unconditional edge).
type Predicate struct {
	expr string
	ref  string
	op   predicateOp
	lit  string
}

type predicateOp int

const (
	opTrue predicateOp = iota
	opContains
	opEquals
	opNotEquals
)

// alwaysTrue is the predicate of an unconditional edge.
var alwaysTrue = &Predicate{expr: "true", op: opTrue}

// CompilePredicate parses expr into a [Predicate]. Compilation happens at
// graph load time so a malformed condition is a definition error, not a
// runtime surprise.
func CompilePredicate(expr string) (*Predicate, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" || trimmed == "true" {
		return alwaysTrue, nil
	}

	for _, tok := range []struct {
		word string
		op   predicateOp
	}{
		{" contains ", opContains},
		{" == ", opEquals},
		{" != ", opNotEquals},
	} {
		ref, rest, found := strings.Cut(trimmed, tok.word)
		if !found {
			continue
		}
		ref = strings.TrimSpace(ref)
		if err := checkRef(ref); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrPredicate, expr, err)
		}
		lit, err := unquote(strings.TrimSpace(rest))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrPredicate, expr, err)
		}
		return &Predicate{expr: trimmed, ref: ref, op: tok.op, lit: lit}, nil
	}

	return nil, fmt.Errorf("%w: %q: no recognized operator", ErrPredicate, expr)
}

// String returns the source expression.
func (p *Predicate) String() string { return p.expr }

// Ref returns the variable reference the predicate reads, or "" for the
// always-true predicate.
func (p *Predicate) Ref() string { return p.ref }

// Unconditional reports whether the predicate is always true.
func (p *Predicate) Unconditional() bool { return p.op == opTrue }

// Eval evaluates the predicate against vars. A reference to a variable that
// has not been produced yet evaluates as the empty string.
func (p *Predicate) Eval(vars map[string]string) bool {
	switch p.op {
	case opTrue:
		return true
	case opContains:
		return strings.Contains(vars[p.ref], p.lit)
	case opEquals:
		return vars[p.ref] == p.lit
	case opNotEquals:
		return vars[p.ref] != p.lit
	}
	return false
}

// checkRef validates a variable reference: "input" or "<nodeID>.output".
func checkRef(ref string) error {
	if ref == "input" {
		return nil
	}
	node, field, found := strings.Cut(ref, ".")
	if !found || node == "" {
		return fmt.Errorf("reference %q must be \"input\" or \"<node>.output\"", ref)
	}
	if field != "output" {
		return fmt.Errorf("unknown field %q in reference %q", field, ref)
	}
	return nil
}

func unquote(s string) (string, error) {
	if len(s) < 2 {
		return "", fmt.Errorf("literal %q is not quoted", s)
	}
	open := s[0]
	if open != '\'' && open != '"' {
		return "", fmt.Errorf("literal %q is not quoted", s)
	}
	if s[len(s)-1] != open {
		return "", fmt.Errorf("literal %q has mismatched quotes", s)
	}
	return s[1 : len(s)-1], nil
}
