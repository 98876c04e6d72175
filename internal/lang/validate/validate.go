// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Package validate implements the two-pass semantic check: a symbol-table
// pass followed by a reference pass that classifies every identifier use.
// It is plain recursive-descent over the AST using only the standard
// library, which is the correct call here since there is no
// serialization, IO, or concurrency concern for a third-party library to
// own — see DESIGN.md.
package validate

import (
	"fmt"

	"github.com/proviso-lang/proviso/internal/lang/ast"
	"github.com/proviso-lang/proviso/internal/lang/token"
)

// Severity distinguishes blocking errors from advisory warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validator finding: severity, a human message, the
// identifier it concerns (if any), the enclosing statement's name, and
// the symbol kind that was expected at that position.
type Issue struct {
	Severity     Severity
	Message      string
	Reference    string
	Statement    string
	ExpectedKind string
	Span         token.Span
}

// Result is the validator's output: a program is safe to evaluate iff
// len(Result.Errors) == 0.
type Result struct {
	Errors   []Issue
	Warnings []Issue
}

func (r Result) OK() bool { return len(r.Errors) == 0 }

// SymbolKind names one of the five disjoint symbol-table partitions.
type SymbolKind string

const (
	KindDefine    SymbolKind = "define"
	KindCovenant  SymbolKind = "covenant"
	KindBasket    SymbolKind = "basket"
	KindCondition SymbolKind = "condition"
	KindEvent     SymbolKind = "event"
)

// SymbolTable is the five disjoint name->statement maps built by the
// symbol pass. Lookup is always by (kind, name); there is deliberately no
// combined name->anything map, so a basket and a covenant may share a
// name without collision.
type SymbolTable struct {
	Defines    map[string]ast.Define
	Covenants  map[string]ast.Covenant
	Baskets    map[string]ast.Basket
	Conditions map[string]ast.Condition
	Events     map[string]ast.Event
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{
		Defines:    map[string]ast.Define{},
		Covenants:  map[string]ast.Covenant{},
		Baskets:    map[string]ast.Basket{},
		Conditions: map[string]ast.Condition{},
		Events:     map[string]ast.Event{},
	}
}

// predefinedRuntimeStates are the EXISTS(...) labels the evaluator
// answers from its overlay rather than from the symbol table.
var predefinedRuntimeStates = map[string]bool{
	"EventOfDefault":   true,
	"UnmaturedDefault": true,
}

// Validate runs the symbol pass then the reference pass over prog.
func Validate(prog *ast.Program) Result {
	var res Result

	symbols, dupIssues := buildSymbolTable(prog)
	res.Errors = append(res.Errors, dupIssues...)

	v := &visitor{symbols: symbols}
	for _, stmt := range prog.Statements {
		v.visitStatement(stmt)
	}
	res.Errors = append(res.Errors, v.errors...)
	res.Warnings = append(res.Warnings, v.warnings...)
	return res
}

func buildSymbolTable(prog *ast.Program) (*SymbolTable, []Issue) {
	st := newSymbolTable()
	var issues []Issue

	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case ast.Define:
			if _, dup := st.Defines[s.Name]; dup {
				issues = append(issues, dupIssue("define", s.Name, s.Span()))
				continue
			}
			st.Defines[s.Name] = s
		case ast.Covenant:
			if _, dup := st.Covenants[s.Name]; dup {
				issues = append(issues, dupIssue("covenant", s.Name, s.Span()))
				continue
			}
			st.Covenants[s.Name] = s
		case ast.Basket:
			if _, dup := st.Baskets[s.Name]; dup {
				issues = append(issues, dupIssue("basket", s.Name, s.Span()))
				continue
			}
			st.Baskets[s.Name] = s
		case ast.Condition:
			if _, dup := st.Conditions[s.Name]; dup {
				issues = append(issues, dupIssue("condition", s.Name, s.Span()))
				continue
			}
			st.Conditions[s.Name] = s
		case ast.Event:
			if _, dup := st.Events[s.Name]; dup {
				issues = append(issues, dupIssue("event", s.Name, s.Span()))
				continue
			}
			st.Events[s.Name] = s
		}
	}
	return st, issues
}

func dupIssue(kind, name string, span token.Span) Issue {
	return Issue{
		Severity:     SeverityError,
		Message:      fmt.Sprintf("duplicate %s name %q", kind, name),
		Reference:    name,
		ExpectedKind: kind,
		Span:         span,
	}
}

// visitor walks expressions, threading the enclosing statement name and
// whether "amount" is currently in scope (true only inside a Prohibit's
// EXCEPT WHEN clauses).
type visitor struct {
	symbols      *SymbolTable
	statement    string
	amountInScope bool
	errors       []Issue
	warnings     []Issue
}

func (v *visitor) errorf(span token.Span, ref string, format string, args ...any) {
	v.errors = append(v.errors, Issue{
		Severity:  SeverityError,
		Message:   fmt.Sprintf(format, args...),
		Reference: ref,
		Statement: v.statement,
		Span:      span,
	})
}

func (v *visitor) warnf(span token.Span, ref, expectedKind string, format string, args ...any) {
	v.warnings = append(v.warnings, Issue{
		Severity:     SeverityWarning,
		Message:      fmt.Sprintf(format, args...),
		Reference:    ref,
		Statement:    v.statement,
		ExpectedKind: expectedKind,
		Span:         span,
	})
}

func (v *visitor) visitStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case ast.Define:
		v.statement = s.Name
		v.visitExpr(s.Expr)
		if s.Cap != nil {
			v.visitExpr(s.Cap)
		}
	case ast.Covenant:
		v.statement = s.Name
		if s.Requires != nil {
			v.visitExpr(s.Requires)
		}
		if s.Cure != nil && s.Cure.MaxAmount != nil {
			v.visitExpr(s.Cure.MaxAmount)
		}
		if s.Breach != "" {
			if _, ok := v.symbols.Events[s.Breach]; !ok {
				v.warnf(s.Span(), s.Breach, string(KindEvent), "breach target %q is not a declared event", s.Breach)
			}
		}
	case ast.Basket:
		v.statement = s.Name
		switch shape := s.Shape.(type) {
		case ast.FixedBasket:
			v.visitExpr(shape.Capacity)
			for _, extra := range shape.Plus {
				v.visitExpr(extra)
			}
			if shape.Floor != nil {
				v.visitExpr(shape.Floor)
			}
		case ast.BuilderBasket:
			v.visitExpr(shape.BuildsFrom)
			if shape.Starting != nil {
				v.visitExpr(shape.Starting)
			}
			if shape.Maximum != nil {
				v.visitExpr(shape.Maximum)
			}
		}
		for _, name := range s.SubjectTo {
			if _, ok := v.symbols.Conditions[name]; !ok {
				v.errorf(s.Span(), name, "%q in SUBJECT TO must be a declared condition", name)
			}
		}
	case ast.Condition:
		v.statement = s.Name
		v.visitExpr(s.Expr)
	case ast.Prohibit:
		v.statement = s.Target
		v.amountInScope = true
		for _, exc := range s.Exceptions {
			v.visitExpr(exc.When)
		}
		v.amountInScope = false
	case ast.Event:
		v.statement = s.Name
		if s.Triggers != nil {
			v.visitExpr(s.Triggers)
		}
		if s.GracePeriod != nil {
			v.visitExpr(s.GracePeriod)
		}
	}
}

func (v *visitor) visitExpr(e ast.Expression) {
	switch x := e.(type) {
	case ast.Identifier:
		v.classifyIdentifier(x)
	case ast.Binary:
		v.visitExpr(x.Left)
		v.visitExpr(x.Right)
	case ast.Unary:
		v.visitExpr(x.Operand)
	case ast.Comparison:
		v.checkUnitMismatch(x)
		v.visitExpr(x.Left)
		v.visitExpr(x.Right)
	case ast.Logical:
		v.visitExpr(x.Left)
		v.visitExpr(x.Right)
	case ast.FunctionCall:
		v.visitCall(x)
	}
}

// checkUnitMismatch implements Invariant 4: comparing a Ratio directly
// against a Percentage is an error, since one is already a raw multiple
// and the other still needs its ×0.01 scalar conversion.
func (v *visitor) checkUnitMismatch(cmp ast.Comparison) {
	lu, lok := literalUnit(cmp.Left)
	ru, rok := literalUnit(cmp.Right)
	if lok && rok && lu != ru && (lu == unitRatio || ru == unitRatio) && (lu == unitPercentage || ru == unitPercentage) {
		v.errorf(cmp.Span(), "", "cannot compare a ratio directly against a percentage without conversion")
	}
}

type literalUnitKind int

const (
	unitNone literalUnitKind = iota
	unitRatio
	unitPercentage
)

func literalUnit(e ast.Expression) (literalUnitKind, bool) {
	switch e.(type) {
	case ast.RatioLit:
		return unitRatio, true
	case ast.PercentageLit:
		return unitPercentage, true
	default:
		return unitNone, false
	}
}

func (v *visitor) classifyIdentifier(id ast.Identifier) {
	name := id.Name
	if _, ok := v.symbols.Defines[name]; ok {
		return
	}
	if _, ok := v.symbols.Covenants[name]; ok {
		return
	}
	if _, ok := v.symbols.Baskets[name]; ok {
		return
	}
	if _, ok := v.symbols.Conditions[name]; ok {
		return
	}
	if _, ok := v.symbols.Events[name]; ok {
		return
	}
	if name == "amount" && v.amountInScope {
		return
	}
	v.warnf(id.Span(), name, "", "%q is not a declared symbol; treated as a financial data field", name)
}

func (v *visitor) visitCall(call ast.FunctionCall) {
	switch call.Name {
	case "AVAILABLE":
		v.requireArity(call, 1)
		if len(call.Args) == 1 {
			v.requireIdentKind(call.Args[0], string(KindBasket), "basket")
		}
	case "COMPLIANT":
		v.requireArity(call, 1)
		if len(call.Args) == 1 {
			v.requireIdentKind(call.Args[0], string(KindCovenant), "covenant")
		}
	case "EXISTS":
		v.requireArity(call, 1)
		if len(call.Args) == 1 {
			v.requireEventOrRuntimeState(call.Args[0])
		}
	case "GreaterOf", "LesserOf":
		v.requireArity(call, 2)
		for _, a := range call.Args {
			v.visitExpr(a)
		}
	case "NOT":
		v.requireArity(call, 1)
		for _, a := range call.Args {
			v.visitExpr(a)
		}
	case "TRAILING", "PROFORMA", "SUM":
		v.requireArity(call, 1)
		for _, a := range call.Args {
			v.visitExpr(a)
		}
	default:
		// Unknown function names are rejected by the parser; reaching
		// here would mean a caller built an ast.Program by hand rather
		// than through Parse.
		v.errorf(call.Span(), call.Name, "%q is not a recognized function", call.Name)
	}
}

func (v *visitor) requireArity(call ast.FunctionCall, n int) {
	if len(call.Args) != n {
		v.errorf(call.Span(), call.Name, "%s expects %d argument(s), got %d", call.Name, n, len(call.Args))
	}
}

func (v *visitor) requireIdentKind(arg ast.Expression, expectedKind, label string) {
	id, ok := arg.(ast.Identifier)
	if !ok {
		v.errorf(arg.Span(), "", "expected a %s name", label)
		return
	}
	switch expectedKind {
	case string(KindBasket):
		if _, ok := v.symbols.Baskets[id.Name]; !ok {
			v.errorf(id.Span(), id.Name, "undefined basket %q", id.Name)
		}
	case string(KindCovenant):
		if _, ok := v.symbols.Covenants[id.Name]; !ok {
			v.errorf(id.Span(), id.Name, "undefined covenant %q", id.Name)
		}
	}
}

func (v *visitor) requireEventOrRuntimeState(arg ast.Expression) {
	id, ok := arg.(ast.Identifier)
	if !ok {
		v.errorf(arg.Span(), "", "expected an event or runtime-state name")
		return
	}
	if _, ok := v.symbols.Events[id.Name]; ok {
		return
	}
	if predefinedRuntimeStates[id.Name] {
		return
	}
	v.warnf(id.Span(), id.Name, string(KindEvent), "%q is not a declared event or known runtime state", id.Name)
}
