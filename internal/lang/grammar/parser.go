// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Package grammar turns ProViso source text into an *ast.Program: a
// hand-rolled lexer (lexer.go) feeding a recursive-descent, precedence
// climbing parser. A parser-generator dependency (participle) was
// deliberately not reused here — see DESIGN.md for why the structured-error
// contract ruled it out — but an ordered, longest-match-first lexer table
// is this package's model.
package grammar

import (
	"fmt"
	"strings"

	"github.com/proviso-lang/proviso/internal/lang/ast"
	"github.com/proviso-lang/proviso/internal/lang/token"
)

// ParseError is the structured failure shape: a message,
// the offending span, the de-duplicated set of grammar items that would
// have been accepted at that point, and the single troublesome token's
// text when available.
type ParseError struct {
	Message  string
	Location *token.Span
	Expected []string
	Found    *string
}

func (e *ParseError) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("%s at %s", e.Message, e.Location)
	}
	return e.Message
}

// Parse lexes and parses src into a Program, or returns a *ParseError.
func Parse(src string) (*ast.Program, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

type parser struct {
	lex  *lexer
	tok  token.Token
	expected []string // accumulated expected-item names since the last successful advance
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		le := err.(*lexError)
		found := le.found
		return &ParseError{
			Message:  "unexpected character",
			Location: &token.Span{Start: le.pos, End: le.pos},
			Found:    &found,
		}
	}
	p.tok = t
	p.expected = nil
	return nil
}

func (p *parser) want(kind token.Kind) {
	name := kind.String()
	for _, e := range p.expected {
		if e == name {
			return
		}
	}
	p.expected = append(p.expected, name)
}

func (p *parser) errorHere(message string) *ParseError {
	found := p.tok.Lit
	if found == "" {
		found = p.tok.Kind.String()
	}
	expected := append([]string(nil), p.expected...)
	return &ParseError{
		Message:  message,
		Location: &p.tok.Span,
		Expected: expected,
		Found:    &found,
	}
}

func (p *parser) expect(kind token.Kind) (token.Token, error) {
	p.want(kind)
	if p.tok.Kind != kind {
		return token.Token{}, p.errorHere(fmt.Sprintf("expected %s", kind))
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return t, nil
}

func (p *parser) at(kind token.Kind) bool {
	p.want(kind)
	return p.tok.Kind == kind
}

func loc(start, end token.Position) token.Span { return token.Span{Start: start, End: end} }

// parseProgram parses zero or more top-level statements until EOF.
func (p *parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.tok.Kind != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

func (p *parser) parseStatement() (ast.Statement, error) {
	switch p.tok.Kind {
	case token.KwDefine:
		return p.parseDefine()
	case token.KwCovenant:
		return p.parseCovenant()
	case token.KwBasket:
		return p.parseBasket()
	case token.KwCondition:
		return p.parseCondition()
	case token.KwProhibit:
		return p.parseProhibit()
	case token.KwEvent:
		return p.parseEvent()
	}
	p.want(token.KwDefine)
	p.want(token.KwCovenant)
	p.want(token.KwBasket)
	p.want(token.KwCondition)
	p.want(token.KwProhibit)
	p.want(token.KwEvent)
	return nil, p.errorHere("expected a top-level statement")
}

// parseName consumes an Ident token and returns its text; identifiers
// serve as every statement's declared name.
func (p *parser) parseName() (string, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return "", err
	}
	return t.Lit, nil
}

func (p *parser) parseDefine() (ast.Statement, error) {
	start := p.tok.Span.Start
	if _, err := p.expect(token.KwDefine); err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KwAs); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	d := ast.Define{Name: name, Expr: expr}
	if p.at(token.KwExcluding) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		names, err := p.parseNameList()
		if err != nil {
			return nil, err
		}
		d.Excluding = names
	}
	if p.at(token.KwMaximum) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cap, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		d.Cap = cap
	}
	d.Loc = loc(start, p.prevEnd())
	return d, nil
}

// prevEnd is an approximation used for closing a statement's span: the
// start of the current (not-yet-consumed) lookahead token, which is the
// end of everything parsed so far.
func (p *parser) prevEnd() token.Position { return p.tok.Span.Start }

func (p *parser) parseNameList() ([]string, error) {
	var names []string
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	names = append(names, name)
	for p.at(token.Comma) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (p *parser) parseCovenant() (ast.Statement, error) {
	start := p.tok.Span.Start
	if _, err := p.expect(token.KwCovenant); err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	c := ast.Covenant{Name: name}
	if p.at(token.KwRequires) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		req, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Requires = req
	}
	if p.at(token.KwTested) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		freq, err := p.parseFrequency()
		if err != nil {
			return nil, err
		}
		c.Tested = freq
	}
	if p.at(token.KwCure) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cure, err := p.parseCureSpec()
		if err != nil {
			return nil, err
		}
		c.Cure = cure
	}
	if p.at(token.KwBreach) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		target, err := p.parseName()
		if err != nil {
			return nil, err
		}
		c.Breach = target
	}
	c.Loc = loc(start, p.prevEnd())
	return c, nil
}

// parseFrequency recognizes the TESTED period words, reconstructing the
// hyphenated "SEMI-ANNUALLY" spelling from its three constituent tokens
// (Ident "SEMI", Minus, Ident "ANNUALLY") since the lexer never produces a
// single token for an identifier containing a hyphen.
func (p *parser) parseFrequency() (string, error) {
	if p.tok.Kind != token.Ident {
		return "", p.errorHere("expected a testing frequency")
	}
	if p.tok.Lit == "SEMI" {
		if err := p.advance(); err != nil {
			return "", err
		}
		if _, err := p.expect(token.Minus); err != nil {
			return "", err
		}
		t, err := p.expect(token.Ident)
		if err != nil {
			return "", err
		}
		word := "SEMI-" + t.Lit
		if !token.Frequencies[word] {
			return "", p.errorHere("unrecognized testing frequency")
		}
		return word, nil
	}
	word := p.tok.Lit
	if !token.Frequencies[word] {
		return "", p.errorHere("unrecognized testing frequency")
	}
	if err := p.advance(); err != nil {
		return "", err
	}
	return word, nil
}

func (p *parser) parseCureSpec() (*ast.CureSpec, error) {
	kind, err := p.parseName()
	if err != nil {
		return nil, err
	}
	spec := &ast.CureSpec{Kind: kind}
	if p.at(token.KwCapacity) {
		// CAPACITY acts as a lead-in to the numeric fields; consume it if
		// present for readability, e.g. "CURE EquityCure CAPACITY 2 ...".
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.Kind == token.Number {
		spec.MaxUses = int(p.tok.NumValue)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.at(token.KwTested) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		freq, err := p.parseFrequency()
		if err != nil {
			return nil, err
		}
		spec.Period = freq
	}
	if p.at(token.KwMaximum) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		amt, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		spec.MaxAmount = amt
	}
	return spec, nil
}

func (p *parser) parseBasket() (ast.Statement, error) {
	start := p.tok.Span.Start
	if _, err := p.expect(token.KwBasket); err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	b := ast.Basket{Name: name}

	switch {
	case p.at(token.KwCapacity):
		if err := p.advance(); err != nil {
			return nil, err
		}
		capExpr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		shape := ast.FixedBasket{Capacity: capExpr}
		for p.at(token.KwPlus) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			extra, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			shape.Plus = append(shape.Plus, extra)
		}
		if p.at(token.KwFloor) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			floor, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			shape.Floor = floor
		}
		b.Shape = shape
	case p.at(token.KwBuildsFrom):
		if err := p.advance(); err != nil {
			return nil, err
		}
		from, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		shape := ast.BuilderBasket{BuildsFrom: from}
		if p.at(token.KwStarting) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			starting, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			shape.Starting = starting
		}
		if p.at(token.KwMaximum) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			max, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			shape.Maximum = max
		}
		b.Shape = shape
	default:
		return nil, p.errorHere("expected CAPACITY or BUILDS_FROM")
	}

	if p.at(token.KwSubject) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.KwTo); err != nil {
			return nil, err
		}
		names, err := p.parseNameList()
		if err != nil {
			return nil, err
		}
		b.SubjectTo = names
	}
	b.Loc = loc(start, p.prevEnd())
	return b, nil
}

func (p *parser) parseCondition() (ast.Statement, error) {
	start := p.tok.Span.Start
	if _, err := p.expect(token.KwCondition); err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KwAs); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.Condition{Name: name, Expr: expr, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
}

func (p *parser) parseProhibit() (ast.Statement, error) {
	start := p.tok.Span.Start
	if _, err := p.expect(token.KwProhibit); err != nil {
		return nil, err
	}
	target, err := p.parseName()
	if err != nil {
		return nil, err
	}
	pr := ast.Prohibit{Target: target}
	for p.at(token.KwExcept) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.KwWhen); err != nil {
			return nil, err
		}
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		pr.Exceptions = append(pr.Exceptions, ast.Exception{When: cond})
	}
	pr.Loc = loc(start, p.prevEnd())
	return pr, nil
}

func (p *parser) parseEvent() (ast.Statement, error) {
	start := p.tok.Span.Start
	if _, err := p.expect(token.KwEvent); err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	ev := ast.Event{Name: name}
	if p.at(token.KwTriggers) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		trig, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		ev.Triggers = trig
	}
	if p.at(token.KwGracePeriod) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		gp, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		ev.GracePeriod = gp
	}
	if p.at(token.KwConsequence) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cons, err := p.parseName()
		if err != nil {
			return nil, err
		}
		ev.Consequence = cons
	}
	ev.Loc = loc(start, p.prevEnd())
	return ev, nil
}

// Expression grammar, precedence low to high:
//
//	expr    := or
//	or      := and (OR and)*
//	and     := not (AND not)*
//	not     := (NOT | '!') not | cmp
//	cmp     := add ((<=|>=|<|>|=|!=) add)?
//	add     := mul ((+|-) mul)*
//	mul     := unary ((*|/) unary)*
//	unary   := '-' unary | '!' unary | primary
//	primary := literal | identifier | call | '(' expr ')'
func (p *parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(token.KwOr) {
		start := left.Span().Start
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Logical{Op: ast.OpOr, Left: left, Right: right, Base: ast.Base{Loc: loc(start, p.prevEnd())}}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.at(token.KwAnd) {
		start := left.Span().Start
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.Logical{Op: ast.OpAnd, Left: left, Right: right, Base: ast.Base{Loc: loc(start, p.prevEnd())}}
	}
	return left, nil
}

func (p *parser) parseNot() (ast.Expression, error) {
	if p.at(token.Bang) || (p.at(token.KwNot) && !p.nextIsLParen()) {
		start := p.tok.Span.Start
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.OpNot, Operand: operand, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
	}
	return p.parseComparison()
}

// nextIsLParen reports whether the token after the current one is "(",
// scanning a copy of the lexer so the parser's position is unchanged.
// It separates the NOT prefix operator from the NOT(x) function call.
func (p *parser) nextIsLParen() bool {
	peek := *p.lex
	t, err := peek.next()
	return err == nil && t.Kind == token.LParen
}

var compareOps = map[token.Kind]ast.CompareOp{
	token.LE: ast.CmpLE,
	token.GE: ast.CmpGE,
	token.LT: ast.CmpLT,
	token.GT: ast.CmpGT,
	token.EQ: ast.CmpEQ,
	token.NE: ast.CmpNE,
}

func (p *parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := compareOps[p.tok.Kind]
	for _, k := range []token.Kind{token.LE, token.GE, token.LT, token.GT, token.EQ, token.NE} {
		p.want(k)
	}
	if !ok {
		return left, nil
	}
	start := left.Span().Start
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return ast.Comparison{Op: op, Left: left, Right: right, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
}

func (p *parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == token.Plus || p.tok.Kind == token.Minus {
		start := left.Span().Start
		op := ast.OpAdd
		if p.tok.Kind == token.Minus {
			op = ast.OpSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right, Base: ast.Base{Loc: loc(start, p.prevEnd())}}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == token.Star || p.tok.Kind == token.Slash {
		start := left.Span().Start
		op := ast.OpMul
		if p.tok.Kind == token.Slash {
			op = ast.OpDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right, Base: ast.Base{Loc: loc(start, p.prevEnd())}}
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Expression, error) {
	if p.at(token.Minus) {
		start := p.tok.Span.Start
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.OpNeg, Operand: operand, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
	}
	if p.at(token.Bang) {
		start := p.tok.Span.Start
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.OpNot, Operand: operand, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	start := p.tok.Span.Start
	switch p.tok.Kind {
	case token.Number:
		t := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NumberLit{Raw: t.Lit, Value: t.NumValue, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
	case token.Currency:
		t := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.CurrencyLit{Raw: t.Lit, Value: t.NumValue, Code: t.CurrCode, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
	case token.Percentage:
		t := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.PercentageLit{Raw: t.Lit, Value: t.NumValue, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
	case token.Ratio:
		t := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.RatioLit{Raw: t.Lit, Value: t.NumValue, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
	case token.LParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	case token.Ident:
		return p.parseIdentOrCall(start)
	case token.KwNot:
		// NOT is a reserved keyword, but in function position ("NOT(x)") it
		// spells the same function as the "!" operator; route it through
		// the same call-parsing path as a plain identifier would take.
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseCallArgs("NOT", start)
	}
	p.want(token.Number)
	p.want(token.Ident)
	p.want(token.LParen)
	return nil, p.errorHere("expected an expression")
}

// parseIdentOrCall distinguishes a bare identifier from a function call by
// lookahead on "(". Names not in token.FunctionNames are rejected here as
// a parse error under the edge policy ("unknown function name is a parse
// error, not a runtime one").
func (p *parser) parseIdentOrCall(start token.Position) (ast.Expression, error) {
	name := p.tok.Lit
	if err := p.advance(); err != nil {
		return nil, err
	}
	if !p.at(token.LParen) {
		return ast.Identifier{Name: name, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
	}
	if !token.FunctionNames[name] {
		return nil, &ParseError{
			Message:  fmt.Sprintf("%q is not a recognized function", name),
			Location: &token.Span{Start: start, End: p.tok.Span.End},
			Expected: []string{strings.Join(sortedFunctionNames(), ", ")},
		}
	}
	return p.parseCallArgs(name, start)
}

// parseCallArgs parses the "(" arg, arg, ... ")" tail of a function call
// whose name has already been consumed and validated.
func (p *parser) parseCallArgs(name string, start token.Position) (ast.Expression, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []ast.Expression
	if !p.at(token.RParen) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.at(token.Comma) {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.at(token.RParen) {
				return nil, p.errorHere("trailing comma in argument list")
			}
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return ast.FunctionCall{Name: name, Args: args, Base: ast.Base{Loc: loc(start, p.prevEnd())}}, nil
}

func sortedFunctionNames() []string {
	names := make([]string, 0, len(token.FunctionNames))
	for n := range token.FunctionNames {
		names = append(names, n)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}
