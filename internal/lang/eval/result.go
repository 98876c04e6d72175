// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package eval

import "github.com/proviso-lang/proviso/internal/lang/ast"

// Compliance is the per-covenant outcome: one of four states so that
// an unresolved field or computation fault never gets conflated with an
// actual breach.
type Compliance string

const (
	Compliant        Compliance = "compliant"
	Breach           Compliance = "breach"
	UnknownData      Compliance = "unknown-data"
	ComputationError Compliance = "computation-error"
)

// CovenantResult is the per-covenant outcome of a single Evaluate call.
type CovenantResult struct {
	Name          string
	Compliance    Compliance
	LHS           float64
	Threshold     float64
	Op            ast.CompareOp
	CureAvailable bool
	Err           string
}

// BasketState is the per-basket outcome. Available is always
// clamped to [0, Capacity].
type BasketState struct {
	Name        string
	Capacity    float64
	Utilization float64
	Available   float64
	Err         string
}

// ConditionResult is the per-condition outcome: a boolean value plus a
// short human-readable proof trace of the sub-expressions that produced
// it.
type ConditionResult struct {
	Name  string
	Value bool
	Proof []string
	Err   string
}

// EventResult is the per-event outcome: whether the trigger currently
// holds, and whether any grace period attached to it has elapsed.
type EventResult struct {
	Name         string
	Fired        bool
	GraceElapsed bool
	Err          string
}

// ProhibitDecision is the result of evaluating one proposed action against
// a Prohibit's exceptions. ExceptionIndex is -1 when no exception
// permitted the action.
type ProhibitDecision struct {
	Target         string
	Amount         float64
	Permitted      bool
	ExceptionIndex int
	Err            string
}

// Result is the full-program outcome of Evaluate: every Covenant,
// Basket, Condition, and Event statement in the program evaluated once
// against the same snapshot and overlay. Prohibit statements are not
// included here because their decision procedure additionally requires a
// proposed action amount supplied by the caller of DecideProhibit.
type Result struct {
	RunID      string
	Covenants  map[string]CovenantResult
	Baskets    map[string]BasketState
	Conditions map[string]ConditionResult
	Events     map[string]EventResult
}
