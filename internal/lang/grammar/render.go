// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/proviso-lang/proviso/internal/lang/ast"
)

// Render deterministically pretty-prints prog back to ProViso source. It
// never consults original Span or Raw text, so parsing its output and
// comparing the resulting AST against prog (ignoring location) is the
// round-trip property this package is tested against.
func Render(prog *ast.Program) string {
	var b strings.Builder
	for i, stmt := range prog.Statements {
		if i > 0 {
			b.WriteString("\n\n")
		}
		renderStatement(&b, stmt)
	}
	b.WriteString("\n")
	return b.String()
}

func renderStatement(b *strings.Builder, stmt ast.Statement) {
	switch s := stmt.(type) {
	case ast.Define:
		fmt.Fprintf(b, "DEFINE %s AS %s", s.Name, renderExpr(s.Expr))
		if len(s.Excluding) > 0 {
			fmt.Fprintf(b, " EXCLUDING %s", strings.Join(s.Excluding, ", "))
		}
		if s.Cap != nil {
			fmt.Fprintf(b, " MAXIMUM %s", renderExpr(s.Cap))
		}
	case ast.Covenant:
		fmt.Fprintf(b, "COVENANT %s", s.Name)
		if s.Requires != nil {
			fmt.Fprintf(b, " REQUIRES %s", renderExpr(s.Requires))
		}
		if s.Tested != "" {
			fmt.Fprintf(b, " TESTED %s", s.Tested)
		}
		if s.Cure != nil {
			b.WriteString(" CURE ")
			b.WriteString(s.Cure.Kind)
			if s.Cure.MaxUses != 0 {
				fmt.Fprintf(b, " CAPACITY %d", s.Cure.MaxUses)
			}
			if s.Cure.Period != "" {
				fmt.Fprintf(b, " TESTED %s", s.Cure.Period)
			}
			if s.Cure.MaxAmount != nil {
				fmt.Fprintf(b, " MAXIMUM %s", renderExpr(s.Cure.MaxAmount))
			}
		}
		if s.Breach != "" {
			fmt.Fprintf(b, " BREACH %s", s.Breach)
		}
	case ast.Basket:
		fmt.Fprintf(b, "BASKET %s", s.Name)
		switch shape := s.Shape.(type) {
		case ast.FixedBasket:
			fmt.Fprintf(b, " CAPACITY %s", renderExpr(shape.Capacity))
			for _, extra := range shape.Plus {
				fmt.Fprintf(b, " PLUS %s", renderExpr(extra))
			}
			if shape.Floor != nil {
				fmt.Fprintf(b, " FLOOR %s", renderExpr(shape.Floor))
			}
		case ast.BuilderBasket:
			fmt.Fprintf(b, " BUILDS_FROM %s", renderExpr(shape.BuildsFrom))
			if shape.Starting != nil {
				fmt.Fprintf(b, " STARTING %s", renderExpr(shape.Starting))
			}
			if shape.Maximum != nil {
				fmt.Fprintf(b, " MAXIMUM %s", renderExpr(shape.Maximum))
			}
		}
		if len(s.SubjectTo) > 0 {
			fmt.Fprintf(b, " SUBJECT TO %s", strings.Join(s.SubjectTo, ", "))
		}
	case ast.Condition:
		fmt.Fprintf(b, "CONDITION %s AS %s", s.Name, renderExpr(s.Expr))
	case ast.Prohibit:
		fmt.Fprintf(b, "PROHIBIT %s", s.Target)
		for _, exc := range s.Exceptions {
			fmt.Fprintf(b, " EXCEPT WHEN %s", renderExpr(exc.When))
		}
	case ast.Event:
		fmt.Fprintf(b, "EVENT %s", s.Name)
		if s.Triggers != nil {
			fmt.Fprintf(b, " TRIGGERS %s", renderExpr(s.Triggers))
		}
		if s.GracePeriod != nil {
			fmt.Fprintf(b, " GRACE_PERIOD %s", renderExpr(s.GracePeriod))
		}
		if s.Consequence != "" {
			fmt.Fprintf(b, " CONSEQUENCE %s", s.Consequence)
		}
	}
}

// RenderExpr renders a single expression using the same deterministic
// rules as Render, without the surrounding statement syntax. Used by the
// evaluator to label proof-trace entries with the sub-expression text.
func RenderExpr(e ast.Expression) string { return renderExpr(e) }

// renderExpr renders an expression with full parenthesization around every
// binary, comparison, and logical node. This sacrifices the terseness a
// human author would use in exchange for a render that is immune to
// precedence-reassociation bugs: parsing it back always reproduces the
// same tree shape regardless of how parsePrimary's '(' handling collapses
// redundant grouping.
func renderExpr(e ast.Expression) string {
	switch v := e.(type) {
	case ast.NumberLit:
		return formatNumber(v.Value)
	case ast.CurrencyLit:
		return fmt.Sprintf("$%s %s", formatNumber(v.Value), v.Code)
	case ast.PercentageLit:
		return fmt.Sprintf("%s%%", formatNumber(v.Value))
	case ast.RatioLit:
		return fmt.Sprintf("%sx", formatNumber(v.Value))
	case ast.Identifier:
		return v.Name
	case ast.Binary:
		return fmt.Sprintf("(%s %s %s)", renderExpr(v.Left), string(v.Op), renderExpr(v.Right))
	case ast.Unary:
		switch v.Op {
		case ast.OpNeg:
			return fmt.Sprintf("-%s", renderExpr(v.Operand))
		default:
			return fmt.Sprintf("!%s", renderExpr(v.Operand))
		}
	case ast.Comparison:
		return fmt.Sprintf("(%s %s %s)", renderExpr(v.Left), string(v.Op), renderExpr(v.Right))
	case ast.Logical:
		return fmt.Sprintf("(%s %s %s)", renderExpr(v.Left), string(v.Op), renderExpr(v.Right))
	case ast.FunctionCall:
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = renderExpr(a)
		}
		return fmt.Sprintf("%s(%s)", v.Name, strings.Join(parts, ", "))
	}
	return ""
}

// formatNumber renders a float64 with thousands-grouping commas and no
// trailing zeroes beyond what the value needs, matching the grouped form
// the lexer accepts back on reparse.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	grouped := groupThousands(intPart)
	out := grouped
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, ",")
}
