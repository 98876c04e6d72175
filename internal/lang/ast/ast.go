// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Package ast defines the ProViso abstract syntax tree: a deep-immutable,
// tagged-variant tree of Statements and Expressions. Every node
// carries a source Span; structural Equal ignores it, and numeric literals
// retain their original text for round-tripping.
package ast

import "github.com/proviso-lang/proviso/internal/lang/token"

// Program is an ordered sequence of top-level Statements. Order only
// matters for human reading; all definitions are mutually visible during
// validation and evaluation.
type Program struct {
	Statements []Statement
}

// Statement is implemented by each of the six top-level statement kinds.
type Statement interface {
	Node
	statementNode()
}

// Expression is implemented by every expression-tree node.
type Expression interface {
	Node
	expressionNode()
}

// Node is the common interface of every AST node: a source location and
// structural equality that disregards it.
type Node interface {
	Span() token.Span
	Equal(other Node) bool
}

// Base embeds the shared Span bookkeeping; statement and expression types
// compose it rather than re-declaring the field.
type Base struct {
	Loc token.Span
}

func (b Base) Span() token.Span { return b.Loc }
