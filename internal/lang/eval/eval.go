// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Package eval walks a validated *ast.Program against a Snapshot and
// Overlay, producing per-entity results so that one unresolved field
// never aborts the whole evaluation. The recursive tree-walking
// interpreter shape and its error-per-node discipline follow general Go
// interpreter practice rather than one specific source file — see
// DESIGN.md.
package eval

import (
	"fmt"
	"math"
	"strings"

	"github.com/proviso-lang/proviso/internal/idgen"
	"github.com/proviso-lang/proviso/internal/lang/ast"
	"github.com/proviso-lang/proviso/internal/lang/grammar"
)

// index is the evaluator's private view of the program's symbol table,
// built fresh per Evaluate call. Validation has already rejected
// duplicate names, so last-write-wins here is never observed in
// practice.
type index struct {
	defines    map[string]ast.Define
	covenants  map[string]ast.Covenant
	baskets    map[string]ast.Basket
	conditions map[string]ast.Condition
	events     map[string]ast.Event
}

func buildIndex(prog *ast.Program) *index {
	idx := &index{
		defines:    map[string]ast.Define{},
		covenants:  map[string]ast.Covenant{},
		baskets:    map[string]ast.Basket{},
		conditions: map[string]ast.Condition{},
		events:     map[string]ast.Event{},
	}
	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case ast.Define:
			idx.defines[s.Name] = s
		case ast.Covenant:
			idx.covenants[s.Name] = s
		case ast.Basket:
			idx.baskets[s.Name] = s
		case ast.Condition:
			idx.conditions[s.Name] = s
		case ast.Event:
			idx.events[s.Name] = s
		}
	}
	return idx
}

// ctx carries per-call evaluation state: the symbol index, data sources,
// and the scoped bindings (amount, TRAILING/SUM view selection, whether
// evaluation is inside PROFORMA(...), the DEFINE/CONDITION recursion
// stack for cycle detection).
type ctx struct {
	idx      *index
	snap     Snapshot
	overlay  *Overlay
	amount   *float64
	trailing bool
	summing  bool
	proforma bool
	stack    []string
}

func newCtx(idx *index, snap Snapshot, overlay *Overlay) *ctx {
	return &ctx{idx: idx, snap: snap, overlay: overlay}
}

// Evaluate runs every Covenant, Basket, Condition, and Event statement in
// prog against snap and overlay, returning one Result with per-entity
// outcomes. overlay may be nil.
func Evaluate(prog *ast.Program, snap Snapshot, overlay *Overlay) *Result {
	idx := buildIndex(prog)
	res := &Result{
		RunID:      idgen.New(),
		Covenants:  map[string]CovenantResult{},
		Baskets:    map[string]BasketState{},
		Conditions: map[string]ConditionResult{},
		Events:     map[string]EventResult{},
	}
	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case ast.Covenant:
			res.Covenants[s.Name] = evalCovenant(idx, snap, overlay, s)
		case ast.Basket:
			res.Baskets[s.Name] = evalBasket(idx, snap, overlay, s)
		case ast.Condition:
			res.Conditions[s.Name] = evalCondition(idx, snap, overlay, s)
		case ast.Event:
			res.Events[s.Name] = evalEvent(idx, snap, overlay, s)
		}
	}
	return res
}

// DecideProhibit evaluates one Prohibit statement's exceptions against a
// proposed action amount. It is a separate
// entry point from Evaluate because the amount is per-call input that a
// whole-program pass does not have.
func DecideProhibit(prog *ast.Program, target string, amount float64, snap Snapshot, overlay *Overlay) ProhibitDecision {
	idx := buildIndex(prog)
	var prohibit *ast.Prohibit
	for _, stmt := range prog.Statements {
		if p, ok := stmt.(ast.Prohibit); ok && p.Target == target {
			prohibit = &p
			break
		}
	}
	if prohibit == nil {
		return ProhibitDecision{Target: target, Amount: amount, ExceptionIndex: -1, Err: fmt.Sprintf("no PROHIBIT statement named %q", target)}
	}
	c := newCtx(idx, snap, overlay)
	c.amount = &amount
	for i, exc := range prohibit.Exceptions {
		v, err := c.eval(exc.When)
		if err != nil {
			continue // an unresolvable exception clause simply does not apply
		}
		ok, err := v.requireBool()
		if err != nil {
			continue
		}
		if ok {
			return ProhibitDecision{Target: target, Amount: amount, Permitted: true, ExceptionIndex: i}
		}
	}
	return ProhibitDecision{Target: target, Amount: amount, Permitted: false, ExceptionIndex: -1}
}

func evalCovenant(idx *index, snap Snapshot, overlay *Overlay, cov ast.Covenant) CovenantResult {
	res := CovenantResult{Name: cov.Name}
	if cov.Cure != nil {
		res.CureAvailable = cureAvailable(overlay, cov)
	}
	if cov.Requires == nil {
		res.Compliance = UnknownData
		res.Err = "covenant has no REQUIRES clause"
		return res
	}
	c := newCtx(idx, snap, overlay)

	if cmp, ok := cov.Requires.(ast.Comparison); ok {
		lhs, err := c.eval(cmp.Left)
		if err != nil {
			res.Compliance = classifyErr(err)
			res.Err = err.Error()
			return res
		}
		rhs, err := c.eval(cmp.Right)
		if err != nil {
			res.Compliance = classifyErr(err)
			res.Err = err.Error()
			return res
		}
		lv, err := lhs.requireNumber()
		if err != nil {
			res.Compliance = ComputationError
			res.Err = err.Error()
			return res
		}
		rv, err := rhs.requireNumber()
		if err != nil {
			res.Compliance = ComputationError
			res.Err = err.Error()
			return res
		}
		res.LHS = roundBankers(lv, 4)
		res.Threshold = roundBankers(rv, 4)
		res.Op = cmp.Op
		if compareNumbers(lv, cmp.Op, rv) {
			res.Compliance = Compliant
		} else {
			res.Compliance = Breach
		}
		return res
	}

	v, err := c.eval(cov.Requires)
	if err != nil {
		res.Compliance = classifyErr(err)
		res.Err = err.Error()
		return res
	}
	b, err := v.requireBool()
	if err != nil {
		res.Compliance = ComputationError
		res.Err = err.Error()
		return res
	}
	if b {
		res.Compliance = Compliant
	} else {
		res.Compliance = Breach
	}
	return res
}

func cureAvailable(overlay *Overlay, cov ast.Covenant) bool {
	if overlay == nil || overlay.CureLedger == nil {
		return true
	}
	remaining, tracked := overlay.CureLedger.UsesRemaining(cov.Name)
	if !tracked {
		return true
	}
	return remaining > 0
}

func compareNumbers(lhs float64, op ast.CompareOp, rhs float64) bool {
	switch op {
	case ast.CmpLE:
		return lhs <= rhs
	case ast.CmpGE:
		return lhs >= rhs
	case ast.CmpLT:
		return lhs < rhs
	case ast.CmpGT:
		return lhs > rhs
	case ast.CmpEQ:
		return lhs == rhs
	case ast.CmpNE:
		return lhs != rhs
	}
	return false
}

// classifyErr maps an internal evaluation error to a Compliance bucket:
// unresolved identifiers are UnknownData, everything else (cycles,
// currency mismatches, divide by zero, type errors) is ComputationError.
func classifyErr(err error) Compliance {
	if _, ok := err.(*unresolvedError); ok {
		return UnknownData
	}
	return ComputationError
}

type unresolvedError struct{ name string }

func (e *unresolvedError) Error() string { return fmt.Sprintf("unresolved identifier %q", e.name) }

func evalBasket(idx *index, snap Snapshot, overlay *Overlay, b ast.Basket) BasketState {
	res := BasketState{Name: b.Name}
	c := newCtx(idx, snap, overlay)

	var capacity, maximum float64
	maximum = math.Inf(1)

	switch shape := b.Shape.(type) {
	case ast.FixedBasket:
		capV, err := c.eval(shape.Capacity)
		if err != nil {
			res.Err = err.Error()
			return res
		}
		cap, err := capV.requireNumber()
		if err != nil {
			res.Err = err.Error()
			return res
		}
		capacity = cap
		for _, extra := range shape.Plus {
			ev, err := c.eval(extra)
			if err != nil {
				res.Err = err.Error()
				return res
			}
			n, err := ev.requireNumber()
			if err != nil {
				res.Err = err.Error()
				return res
			}
			capacity += n
		}
		if shape.Floor != nil {
			fv, err := c.eval(shape.Floor)
			if err != nil {
				res.Err = err.Error()
				return res
			}
			floor, err := fv.requireNumber()
			if err != nil {
				res.Err = err.Error()
				return res
			}
			capacity = math.Max(capacity, floor)
		}
		maximum = capacity
	case ast.BuilderBasket:
		baseV, err := c.eval(shape.BuildsFrom)
		if err != nil {
			res.Err = err.Error()
			return res
		}
		base, err := baseV.requireNumber()
		if err != nil {
			res.Err = err.Error()
			return res
		}
		starting := 0.0
		if shape.Starting != nil {
			sv, err := c.eval(shape.Starting)
			if err != nil {
				res.Err = err.Error()
				return res
			}
			starting, err = sv.requireNumber()
			if err != nil {
				res.Err = err.Error()
				return res
			}
		}
		capacity = starting + base
		if shape.Maximum != nil {
			mv, err := c.eval(shape.Maximum)
			if err != nil {
				res.Err = err.Error()
				return res
			}
			maximum, err = mv.requireNumber()
			if err != nil {
				res.Err = err.Error()
				return res
			}
			capacity = math.Min(capacity, maximum)
		}
	}

	utilization, _ := snap.Utilization(b.Name)
	res.Capacity = roundBankers(capacity, 4)
	res.Utilization = roundBankers(utilization, 4)
	res.Available = roundBankers(clamp(capacity-utilization, 0, maximum), 4)
	return res
}

func evalCondition(idx *index, snap Snapshot, overlay *Overlay, cond ast.Condition) ConditionResult {
	res := ConditionResult{Name: cond.Name}
	c := newCtx(idx, snap, overlay)
	res.Proof = proofTrace(cond.Expr)
	v, err := c.eval(cond.Expr)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	b, err := v.requireBool()
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Value = b
	return res
}

// proofTrace collects the rendered text of each boolean-producing
// sub-expression (comparisons and logical combinations), in evaluation
// order, as a lightweight explanation of how a Condition's value was
// reached.
func proofTrace(e ast.Expression) []string {
	var out []string
	var walk func(ast.Expression)
	walk = func(e ast.Expression) {
		switch x := e.(type) {
		case ast.Logical:
			walk(x.Left)
			walk(x.Right)
			out = append(out, grammar.RenderExpr(x))
		case ast.Comparison:
			out = append(out, grammar.RenderExpr(x))
		case ast.Unary:
			walk(x.Operand)
		case ast.FunctionCall:
			for _, a := range x.Args {
				walk(a)
			}
			out = append(out, grammar.RenderExpr(x))
		}
	}
	walk(e)
	return out
}

func evalEvent(idx *index, snap Snapshot, overlay *Overlay, ev ast.Event) EventResult {
	res := EventResult{Name: ev.Name}
	c := newCtx(idx, snap, overlay)
	if ev.Triggers == nil {
		return res
	}
	v, err := c.eval(ev.Triggers)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	fired, err := v.requireBool()
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Fired = fired
	if !fired || ev.GracePeriod == nil {
		res.GraceElapsed = fired
		return res
	}
	// A grace period is present: firing alone does not mean the grace
	// window has elapsed. Without a clock input, treat the grace period
	// expression itself as a snapshot-resolved boolean ("has the window
	// elapsed" flag) when available, defaulting to not-yet-elapsed.
	gv, err := c.eval(ev.GracePeriod)
	if err != nil {
		res.GraceElapsed = false
		return res
	}
	if b, err := gv.requireBool(); err == nil {
		res.GraceElapsed = b
	}
	return res
}

func (c *ctx) eval(e ast.Expression) (value, error) {
	switch x := e.(type) {
	case ast.NumberLit:
		return numberValue(x.Value), nil
	case ast.CurrencyLit:
		return currencyValue(x.Value, x.Code), nil
	case ast.PercentageLit:
		return numberValue(x.Value * 0.01), nil
	case ast.RatioLit:
		return numberValue(x.Value), nil
	case ast.Identifier:
		return c.resolveIdentifier(x.Name)
	case ast.Binary:
		return c.evalBinary(x)
	case ast.Unary:
		return c.evalUnary(x)
	case ast.Comparison:
		return c.evalComparison(x)
	case ast.Logical:
		return c.evalLogical(x)
	case ast.FunctionCall:
		return c.evalCall(x)
	}
	return value{}, fmt.Errorf("unhandled expression node %T", e)
}

// resolveIdentifier implements the identifier resolution order: symbol
// table, then the "amount" binding in Prohibit scope, then the snapshot,
// then failure.
func (c *ctx) resolveIdentifier(name string) (value, error) {
	if def, ok := c.idx.defines[name]; ok {
		return c.evalDefine(name, def)
	}
	if _, ok := c.idx.covenants[name]; ok {
		cr := evalCovenant(c.idx, c.snap, c.overlay, c.idx.covenants[name])
		return boolValue(cr.Compliance == Compliant), nil
	}
	if cond, ok := c.idx.conditions[name]; ok {
		for _, seen := range c.stack {
			if seen == name {
				return value{}, fmt.Errorf("CONDITION cycle detected: %s -> %s", strings.Join(c.stack, " -> "), name)
			}
		}
		c.stack = append(c.stack, name)
		defer func() { c.stack = c.stack[:len(c.stack)-1] }()
		return c.eval(cond.Expr)
	}
	if name == "amount" && c.amount != nil {
		return numberValue(*c.amount), nil
	}
	if c.trailing {
		if v, ok := c.snap.TrailingField(name); ok {
			return numberValue(v), nil
		}
	} else if c.summing {
		if v, ok := c.snap.SeriesSum(name); ok {
			return numberValue(v), nil
		}
	} else {
		if c.proforma && c.overlay != nil {
			if v, ok := c.overlay.ProForma[name]; ok {
				return numberValue(v), nil
			}
		}
		if v, ok := c.snap.Field(name); ok {
			return numberValue(v), nil
		}
	}
	return value{}, &unresolvedError{name: name}
}

func (c *ctx) evalDefine(name string, def ast.Define) (value, error) {
	for _, seen := range c.stack {
		if seen == name {
			return value{}, fmt.Errorf("DEFINE cycle detected: %s -> %s", strings.Join(c.stack, " -> "), name)
		}
	}
	c.stack = append(c.stack, name)
	defer func() { c.stack = c.stack[:len(c.stack)-1] }()

	v, err := c.eval(def.Expr)
	if err != nil {
		return value{}, err
	}
	if def.Cap != nil {
		capV, err := c.eval(def.Cap)
		if err != nil {
			return value{}, err
		}
		capN, err := capV.requireNumber()
		if err != nil {
			return value{}, err
		}
		n, err := v.requireNumber()
		if err != nil {
			return value{}, err
		}
		v = numberValue(math.Min(n, capN))
	}
	return v, nil
}

func (c *ctx) evalBinary(b ast.Binary) (value, error) {
	l, err := c.eval(b.Left)
	if err != nil {
		return value{}, err
	}
	r, err := c.eval(b.Right)
	if err != nil {
		return value{}, err
	}
	ln, err := l.requireNumber()
	if err != nil {
		return value{}, err
	}
	rn, err := r.requireNumber()
	if err != nil {
		return value{}, err
	}
	code, err := combineCurrency(l, r)
	if err != nil {
		return value{}, err
	}
	var result float64
	switch b.Op {
	case ast.OpAdd:
		result = ln + rn
	case ast.OpSub:
		result = ln - rn
	case ast.OpMul:
		result = ln * rn
	case ast.OpDiv:
		if rn == 0 {
			return value{}, fmt.Errorf("division by zero")
		}
		result = ln / rn
	}
	if code != "" {
		return currencyValue(result, code), nil
	}
	return numberValue(result), nil
}

func (c *ctx) evalUnary(u ast.Unary) (value, error) {
	v, err := c.eval(u.Operand)
	if err != nil {
		return value{}, err
	}
	switch u.Op {
	case ast.OpNeg:
		n, err := v.requireNumber()
		if err != nil {
			return value{}, err
		}
		return currencyValue(-n, v.currency), nil
	default: // OpNot
		b, err := v.requireBool()
		if err != nil {
			return value{}, err
		}
		return boolValue(!b), nil
	}
}

func (c *ctx) evalComparison(cmp ast.Comparison) (value, error) {
	l, err := c.eval(cmp.Left)
	if err != nil {
		return value{}, err
	}
	r, err := c.eval(cmp.Right)
	if err != nil {
		return value{}, err
	}
	ln, err := l.requireNumber()
	if err != nil {
		return value{}, err
	}
	rn, err := r.requireNumber()
	if err != nil {
		return value{}, err
	}
	return boolValue(compareNumbers(ln, cmp.Op, rn)), nil
}

func (c *ctx) evalLogical(lg ast.Logical) (value, error) {
	l, err := c.eval(lg.Left)
	if err != nil {
		return value{}, err
	}
	lb, err := l.requireBool()
	if err != nil {
		return value{}, err
	}
	if lg.Op == ast.OpAnd && !lb {
		return boolValue(false), nil
	}
	if lg.Op == ast.OpOr && lb {
		return boolValue(true), nil
	}
	r, err := c.eval(lg.Right)
	if err != nil {
		return value{}, err
	}
	rb, err := r.requireBool()
	if err != nil {
		return value{}, err
	}
	return boolValue(rb), nil
}

func (c *ctx) evalCall(call ast.FunctionCall) (value, error) {
	switch call.Name {
	case "AVAILABLE":
		id, ok := call.Args[0].(ast.Identifier)
		if !ok {
			return value{}, fmt.Errorf("AVAILABLE expects a basket name")
		}
		b, ok := c.idx.baskets[id.Name]
		if !ok {
			return value{}, &unresolvedError{name: id.Name}
		}
		bs := evalBasket(c.idx, c.snap, c.overlay, b)
		if bs.Err != "" {
			return value{}, fmt.Errorf("%s", bs.Err)
		}
		return numberValue(bs.Available), nil
	case "COMPLIANT":
		id, ok := call.Args[0].(ast.Identifier)
		if !ok {
			return value{}, fmt.Errorf("COMPLIANT expects a covenant name")
		}
		cov, ok := c.idx.covenants[id.Name]
		if !ok {
			return value{}, &unresolvedError{name: id.Name}
		}
		cr := evalCovenant(c.idx, c.snap, c.overlay, cov)
		return boolValue(cr.Compliance == Compliant), nil
	case "EXISTS":
		id, ok := call.Args[0].(ast.Identifier)
		if !ok {
			return value{}, fmt.Errorf("EXISTS expects an event or state name")
		}
		if ev, ok := c.idx.events[id.Name]; ok {
			er := evalEvent(c.idx, c.snap, c.overlay, ev)
			return boolValue(er.Fired), nil
		}
		if c.overlay != nil {
			if v, ok := c.overlay.RuntimeStates[id.Name]; ok {
				return boolValue(v), nil
			}
		}
		return boolValue(false), nil
	case "GreaterOf", "LesserOf":
		a, err := c.eval(call.Args[0])
		if err != nil {
			return value{}, err
		}
		b, err := c.eval(call.Args[1])
		if err != nil {
			return value{}, err
		}
		an, err := a.requireNumber()
		if err != nil {
			return value{}, err
		}
		bn, err := b.requireNumber()
		if err != nil {
			return value{}, err
		}
		code, err := combineCurrency(a, b)
		if err != nil {
			return value{}, err
		}
		var result float64
		if call.Name == "GreaterOf" {
			result = math.Max(an, bn)
		} else {
			result = math.Min(an, bn)
		}
		if code != "" {
			return currencyValue(result, code), nil
		}
		return numberValue(result), nil
	case "NOT":
		v, err := c.eval(call.Args[0])
		if err != nil {
			return value{}, err
		}
		b, err := v.requireBool()
		if err != nil {
			return value{}, err
		}
		return boolValue(!b), nil
	case "TRAILING":
		sub := *c
		sub.trailing, sub.summing = true, false
		return sub.eval(call.Args[0])
	case "PROFORMA":
		sub := *c
		sub.proforma = true
		return sub.eval(call.Args[0])
	case "SUM":
		sub := *c
		sub.trailing, sub.summing = false, true
		return sub.eval(call.Args[0])
	}
	return value{}, fmt.Errorf("unrecognized function %q", call.Name)
}
