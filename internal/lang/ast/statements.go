// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package ast

import "github.com/proviso-lang/proviso/internal/lang/token"

func (Define) statementNode()    {}
func (Covenant) statementNode()  {}
func (Basket) statementNode()    {}
func (Condition) statementNode() {}
func (Prohibit) statementNode()  {}
func (Event) statementNode()     {}

// Define binds Name to Expr. Excluding holds the identifiers listed after
// EXCLUDING in the source; it is kept for rendering and equality, and no
// pass checks Expr against it. Cap, when non-nil, is an upper-bound
// expression applied after Expr is evaluated (e.g. "DEFINE X AS ...
// MAXIMUM ...").
type Define struct {
	Base
	Name      string
	Expr      Expression
	Excluding []string
	Cap       Expression
}

// CureSpec is a covenant's optional cure record: the mechanism
// (e.g. an equity-cure identifier), how many times it may be invoked,
// over what period, and the maximum amount it can contribute.
type CureSpec struct {
	Kind     string
	MaxUses  int
	Period   string
	MaxAmount Expression
}

// Covenant is a financial-maintenance test: a boolean
// Requires expression checked on a Tested frequency ("QUARTERLY",
// "MONTHLY", "ANNUALLY", "SEMI-ANNUALLY"), with an optional cure
// mechanism and an optional breach transition naming the event it fires.
type Covenant struct {
	Base
	Name     string
	Requires Expression
	Tested   string
	Cure     *CureSpec
	Breach   string
}

// BasketShape is implemented by the two mutually exclusive basket bodies
// (Invariant 2: a basket is either fixed-capacity or builder-style, never
// both).
type BasketShape interface {
	basketShapeNode()
}

// FixedBasket is a basket with a flat capacity, optional additive
// components ("PLUS ..."), and an optional floor.
type FixedBasket struct {
	Capacity Expression
	Plus     []Expression
	Floor    Expression
}

// BuilderBasket is a basket whose capacity accrues from a running Base
// ("BUILDS_FROM ..."), a starting balance, and an optional maximum.
type BuilderBasket struct {
	BuildsFrom Expression
	Starting   Expression
	Maximum    Expression
}

func (FixedBasket) basketShapeNode()   {}
func (BuilderBasket) basketShapeNode() {}

// Basket is a capacity tracked against usage. SubjectTo
// names conditions (by name) that gate the basket's availability.
type Basket struct {
	Base
	Name      string
	Shape     BasketShape
	SubjectTo []string
}

// Condition is a named boolean expression usable from other statements.
type Condition struct {
	Base
	Name string
	Expr Expression
}

// Exception is one "EXCEPT WHEN <expr>" clause attached to a Prohibit.
// Multiple clauses are independent escape hatches: the prohibition does
// not apply if any one of them evaluates true.
type Exception struct {
	When Expression
}

// Prohibit is a blanket restriction on Target (an action or category
// named as free text, e.g. "RestrictedPayments") that does not apply
// when any Exceptions clause holds.
type Prohibit struct {
	Base
	Target     string
	Exceptions []Exception
}

// Event is a named trigger condition with an optional grace period and
// consequence label, e.g. a default or acceleration clause.
type Event struct {
	Base
	Name        string
	Triggers    Expression
	GracePeriod Expression
	Consequence string
}

func (n Define) Span() token.Span    { return n.Base.Span() }
func (n Covenant) Span() token.Span  { return n.Base.Span() }
func (n Basket) Span() token.Span    { return n.Base.Span() }
func (n Condition) Span() token.Span { return n.Base.Span() }
func (n Prohibit) Span() token.Span  { return n.Base.Span() }
func (n Event) Span() token.Span     { return n.Base.Span() }

func (n Define) Equal(o Node) bool {
	other, ok := o.(Define)
	if !ok || other.Name != n.Name || !exprEqual(n.Expr, other.Expr) || !exprEqual(n.Cap, other.Cap) {
		return false
	}
	return stringsEqual(n.Excluding, other.Excluding)
}

func (n Covenant) Equal(o Node) bool {
	other, ok := o.(Covenant)
	if !ok || other.Name != n.Name || other.Tested != n.Tested || other.Breach != n.Breach {
		return false
	}
	if !exprEqual(n.Requires, other.Requires) {
		return false
	}
	return cureEqual(n.Cure, other.Cure)
}

func cureEqual(a, b *CureSpec) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind == b.Kind && a.MaxUses == b.MaxUses && a.Period == b.Period && exprEqual(a.MaxAmount, b.MaxAmount)
}

func (n Basket) Equal(o Node) bool {
	other, ok := o.(Basket)
	if !ok || other.Name != n.Name || !stringsEqual(n.SubjectTo, other.SubjectTo) {
		return false
	}
	switch shape := n.Shape.(type) {
	case FixedBasket:
		os, ok := other.Shape.(FixedBasket)
		if !ok || !exprEqual(shape.Capacity, os.Capacity) || !exprEqual(shape.Floor, os.Floor) {
			return false
		}
		if len(shape.Plus) != len(os.Plus) {
			return false
		}
		for i := range shape.Plus {
			if !exprEqual(shape.Plus[i], os.Plus[i]) {
				return false
			}
		}
		return true
	case BuilderBasket:
		os, ok := other.Shape.(BuilderBasket)
		return ok && exprEqual(shape.BuildsFrom, os.BuildsFrom) &&
			exprEqual(shape.Starting, os.Starting) && exprEqual(shape.Maximum, os.Maximum)
	default:
		return false
	}
}

func (n Condition) Equal(o Node) bool {
	other, ok := o.(Condition)
	return ok && other.Name == n.Name && exprEqual(n.Expr, other.Expr)
}

func (n Prohibit) Equal(o Node) bool {
	other, ok := o.(Prohibit)
	if !ok || other.Target != n.Target || len(other.Exceptions) != len(n.Exceptions) {
		return false
	}
	for i := range n.Exceptions {
		if !exprEqual(n.Exceptions[i].When, other.Exceptions[i].When) {
			return false
		}
	}
	return true
}

func (n Event) Equal(o Node) bool {
	other, ok := o.(Event)
	return ok && other.Name == n.Name && other.Consequence == n.Consequence &&
		exprEqual(n.Triggers, other.Triggers) && exprEqual(n.GracePeriod, other.GracePeriod)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
