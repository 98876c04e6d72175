// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Package drift compares a document's prose against the code that is
// supposed to generate it, and flags the places where the two have
// drifted apart: a threshold changed in the prose but never ported back
// to code, a basket capacity edited only in one place, a stray rewording
// that changed nothing material. It also validates the other direction —
// that rendering a statement's code back to prose reproduces the
// original words, modulo a small whitelist of accepted stylistic
// variation.
package drift

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gobwas/glob"

	"github.com/proviso-lang/proviso/internal/idgen"
	"github.com/proviso-lang/proviso/internal/lang/ast"
	"github.com/proviso-lang/proviso/internal/lang/grammar"
)

// ElementKind classifies which kind of defined-term the drifted section
// most likely describes, by phrase heuristic rather than by parsing the
// prose itself.
type ElementKind string

const (
	ElementCovenant   ElementKind = "covenant"
	ElementBasket     ElementKind = "basket"
	ElementDefinition ElementKind = "definition"
	ElementMilestone  ElementKind = "milestone"
	ElementReserve    ElementKind = "reserve"
	ElementWaterfall  ElementKind = "waterfall"
	ElementPhase      ElementKind = "phase"
	ElementCP         ElementKind = "cp"
	ElementOther      ElementKind = "other"
)

// ChangeCategory classifies what kind of change separates the expected
// and actual text of a drifted section.
type ChangeCategory string

const (
	CategoryThreshold  ChangeCategory = "threshold"
	CategoryCapacity   ChangeCategory = "capacity"
	CategoryDefinition ChangeCategory = "definition"
	CategoryTiming     ChangeCategory = "timing"
	CategoryStructure  ChangeCategory = "structure"
	CategoryCure       ChangeCategory = "cure"
	CategoryCondition  ChangeCategory = "condition"
)

// Severity is the operator-facing priority of a drift.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Status describes whether a section exists on only one side of the
// comparison or on both with different text.
type Status string

const (
	StatusAdded    Status = "added"
	StatusDeleted  Status = "deleted"
	StatusModified Status = "modified"
)

// Drift is one detected divergence between a document's prose and the
// prose its code would generate.
type Drift struct {
	Section       string
	Status        Status
	Element       ElementKind
	Category      ChangeCategory
	Severity      Severity
	Expected      string
	Actual        string
	SuggestedCode string
}

// Report is the full output of DetectDrift: every drift found, tagged
// with a run ID so an operator can correlate it against logs.
type Report struct {
	ID     string
	Drifts []Drift
}

// RoundTripResult is the outcome of ValidateRoundTrip: whether rendering
// generatedCode back to prose reproduces originalProse, modulo accepted
// stylistic variation.
type RoundTripResult struct {
	ID         string
	Acceptable bool
	Reason     string
	Expected   string
	Actual     string
}

var sectionPattern = regexp.MustCompile(`(?i)\bsection\s+(\d+(?:\.\d+)?)\s*\(([a-z])\)`)

// splitSections partitions text into sections keyed by "article(letter)".
// Text with no recognizable section markers becomes a single section
// under the empty key, matching the whole document.
func splitSections(text string) map[string]string {
	matches := sectionPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return map[string]string{"": text}
	}
	sections := make(map[string]string, len(matches))
	for i, m := range matches {
		article := text[m[2]:m[3]]
		letter := strings.ToLower(text[m[4]:m[5]])
		key := fmt.Sprintf("%s(%s)", article, letter)
		start := m[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections[key] = strings.TrimSpace(text[start:end])
	}
	return sections
}

var numberPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// extractNumbers returns every numeric token in text, normalized by
// stripping thousands separators, in the order they appear.
func extractNumbers(text string) []string {
	raw := numberPattern.FindAllString(text, -1)
	out := make([]string, len(raw))
	for i, n := range raw {
		out[i] = strings.ReplaceAll(n, ",", "")
	}
	return out
}

func sameNumberSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := append([]string(nil), a...), append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ".,;")
	return s
}

// styleClass is an equivalence class of phrase spellings that should not
// count as material drift: "shall" and "will" mean the same obligation
// in this document's register.
type styleClass struct {
	globs []glob.Glob
}

func compileStyleClasses() []styleClass {
	groups := [][]string{
		{"in accordance with", "pursuant to", "consistent with"},
		{"shall", "will"},
		{"prior written consent", "prior consent in writing"},
		{"notice in writing", "written notice"},
		{"the borrower", "borrower"},
	}
	classes := make([]styleClass, 0, len(groups))
	for _, variants := range groups {
		globs := make([]glob.Glob, 0, len(variants))
		for _, v := range variants {
			g, err := glob.Compile(v)
			if err != nil {
				continue
			}
			globs = append(globs, g)
		}
		classes = append(classes, styleClass{globs: globs})
	}
	return classes
}

var styleClasses = compileStyleClasses()

// matches reports whether phrase is exactly one of the class's variant
// spellings. Glob rather than plain equality so a variant can itself
// carry a wildcard (e.g. a defined-term placeholder) without this
// package needing to know about it.
func (c styleClass) matches(phrase string) bool {
	for _, g := range c.globs {
		if g.Match(phrase) {
			return true
		}
	}
	return false
}

// diffPhrase strips the common leading and trailing words from expected
// and actual, returning whatever differs in the middle. This isolates a
// single swapped phrase ("shall"/"will") from the surrounding text that
// is identical on both sides.
func diffPhrase(expected, actual string) (string, string) {
	ew := strings.Fields(normalizeText(expected))
	aw := strings.Fields(normalizeText(actual))
	lead := 0
	for lead < len(ew) && lead < len(aw) && ew[lead] == aw[lead] {
		lead++
	}
	etail, atail := len(ew), len(aw)
	for etail > lead && atail > lead && ew[etail-1] == aw[atail-1] {
		etail--
		atail--
	}
	return strings.Join(ew[lead:etail], " "), strings.Join(aw[lead:atail], " ")
}

// isStylisticOnly reports whether the only difference between expected
// and actual is a whitelisted phrase substitution.
func isStylisticOnly(expected, actual string) bool {
	if normalizeText(expected) == normalizeText(actual) {
		return true
	}
	ePhrase, aPhrase := diffPhrase(expected, actual)
	if ePhrase == "" && aPhrase == "" {
		return true
	}
	if ePhrase == "" || aPhrase == "" {
		return false
	}
	for _, class := range styleClasses {
		if class.matches(ePhrase) && class.matches(aPhrase) {
			return true
		}
	}
	return false
}

func classifyElement(text string) ElementKind {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "covenant"), strings.Contains(lower, "leverage"),
		strings.Contains(lower, "ratio"), strings.Contains(lower, "shall not exceed"),
		strings.Contains(lower, "tested quarterly"), strings.Contains(lower, "tested monthly"):
		return ElementCovenant
	case strings.Contains(lower, "basket"), strings.Contains(lower, "permits up to"),
		strings.Contains(lower, "permitted amount"):
		return ElementBasket
	case strings.Contains(lower, "milestone"):
		return ElementMilestone
	case strings.Contains(lower, "reserve account"), strings.Contains(lower, "reserve balance"):
		return ElementReserve
	case strings.Contains(lower, "waterfall"), strings.Contains(lower, "order of priority"):
		return ElementWaterfall
	case strings.Contains(lower, "phase"):
		return ElementPhase
	case strings.Contains(lower, "condition precedent"), strings.Contains(lower, "conditions precedent"):
		return ElementCP
	case strings.Contains(lower, "is defined as"), strings.Contains(lower, "means"),
		strings.Contains(lower, "shall mean"):
		return ElementDefinition
	default:
		return ElementOther
	}
}

func classifyCategory(elem ElementKind, expected, actual string, sameNumbers bool) ChangeCategory {
	lower := strings.ToLower(expected + " " + actual)
	switch {
	case elem == ElementCovenant && !sameNumbers:
		return CategoryThreshold
	case elem == ElementBasket && !sameNumbers:
		return CategoryCapacity
	case strings.Contains(lower, "cure"):
		return CategoryCure
	case strings.Contains(lower, "condition"):
		return CategoryCondition
	case strings.Contains(lower, "day") || strings.Contains(lower, "grace period") ||
		strings.Contains(lower, "quarterly") || strings.Contains(lower, "monthly") ||
		strings.Contains(lower, "annually"):
		return CategoryTiming
	case strings.Contains(lower, "waterfall") || strings.Contains(lower, "priority") ||
		strings.Contains(lower, "subordinat"):
		return CategoryStructure
	default:
		return CategoryDefinition
	}
}

func severityOf(category ChangeCategory) Severity {
	switch category {
	case CategoryThreshold, CategoryCapacity:
		return SeverityHigh
	case CategoryCure, CategoryCondition, CategoryTiming, CategoryStructure:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// compareOpPhrase renders the English obligation phrase for a
// Comparison operator.
func compareOpPhrase(op ast.CompareOp) string {
	switch op {
	case ast.CmpLE:
		return "shall not exceed"
	case ast.CmpGE:
		return "shall be at least"
	case ast.CmpLT:
		return "shall be less than"
	case ast.CmpGT:
		return "shall be greater than"
	case ast.CmpEQ:
		return "shall equal"
	case ast.CmpNE:
		return "shall not equal"
	default:
		return "shall satisfy"
	}
}

// thresholdText renders the numeric magnitude of a literal expression
// with thousands grouping. Numbers and ratios carry no unit, percentages
// keep a "%" suffix, and currency amounts get a "$" prefix; any other
// expression is rendered as source text.
func thresholdText(e ast.Expression) string {
	switch v := e.(type) {
	case ast.NumberLit:
		return formatGrouped(v.Value)
	case ast.RatioLit:
		return formatGrouped(v.Value)
	case ast.PercentageLit:
		return formatGrouped(v.Value) + "%"
	case ast.CurrencyLit:
		return "$" + formatGrouped(v.Value)
	default:
		return grammar.RenderExpr(e)
	}
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatGrouped adds thousands-separator commas to a two-decimal amount,
// matching the grouped form an author would write in prose.
func formatGrouped(v float64) string {
	intPart, frac, _ := strings.Cut(formatDecimal(v), ".")
	return groupThousands(intPart) + "." + frac
}

func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

func lhsName(e ast.Expression) string {
	if id, ok := e.(ast.Identifier); ok {
		return id.Name
	}
	return grammar.RenderExpr(e)
}

func renderStatementProse(stmt ast.Statement) (string, string) {
	switch s := stmt.(type) {
	case ast.Covenant:
		if cmp, ok := s.Requires.(ast.Comparison); ok {
			lhs := lhsName(cmp.Left)
			sentence := fmt.Sprintf("%s %s %s to 1.00.", lhs, compareOpPhrase(cmp.Op), thresholdText(cmp.Right))
			return lhs, sentence
		}
		return s.Name, fmt.Sprintf("The %s covenant requires %s.", s.Name, grammar.RenderExpr(s.Requires))
	case ast.Basket:
		switch shape := s.Shape.(type) {
		case ast.FixedBasket:
			return s.Name, fmt.Sprintf("The %s basket permits up to %s.", s.Name, thresholdText(shape.Capacity))
		case ast.BuilderBasket:
			return s.Name, fmt.Sprintf("The %s basket builds from %s.", s.Name, grammar.RenderExpr(shape.BuildsFrom))
		}
	case ast.Define:
		return s.Name, fmt.Sprintf("%s is defined as %s.", s.Name, grammar.RenderExpr(s.Expr))
	case ast.Condition:
		return s.Name, fmt.Sprintf("%s is true when %s.", s.Name, grammar.RenderExpr(s.Expr))
	case ast.Prohibit:
		return s.Target, fmt.Sprintf("%s is prohibited.", s.Target)
	case ast.Event:
		if s.Triggers != nil {
			return s.Name, fmt.Sprintf("%s triggers when %s.", s.Name, grammar.RenderExpr(s.Triggers))
		}
	}
	return "", ""
}

// numberSetDiff returns the multiset difference between expected and
// actual: numbers present only on one side. Shared numbers (like the
// "1.00" in a "to 1.00" ratio phrase) cancel out of both lists.
func numberSetDiff(expected, actual []string) (onlyExpected, onlyActual []string) {
	counts := map[string]int{}
	for _, n := range expected {
		counts[n]++
	}
	for _, n := range actual {
		counts[n]--
	}
	for n, c := range counts {
		switch {
		case c > 0:
			for i := 0; i < c; i++ {
				onlyExpected = append(onlyExpected, n)
			}
		case c < 0:
			for i := 0; i < -c; i++ {
				onlyActual = append(onlyActual, n)
			}
		}
	}
	return onlyExpected, onlyActual
}

// buildSuggestedCode reconstructs a corrected Comparison's text by
// substituting the observed threshold into the original code's
// LHS/operator, when actual contributes exactly one number that expected
// does not already have. Other categories are reported without a
// suggestion.
func buildSuggestedCode(expectedNums, actualNums []string, lhs string, op ast.CompareOp) string {
	_, onlyActual := numberSetDiff(expectedNums, actualNums)
	if len(onlyActual) != 1 {
		return ""
	}
	v, err := strconv.ParseFloat(onlyActual[0], 64)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s %s %s", lhs, op, formatDecimal(v))
}

// DetectDrift renders the prose that currentCode would generate and
// compares it against actualProse: the document's real text as
// currently written. Documents with recognizable "Section N(x)" markers
// are compared section by section; documents without them (a single
// clause, a short excerpt) are compared as one unit, since there is no
// reliable way to attribute an arbitrary sentence to one of several
// statements without those markers.
func DetectDrift(actualProse, currentCode string) Report {
	report := Report{ID: idgen.New()}

	prog, err := grammar.Parse(currentCode)
	if err != nil {
		report.Drifts = append(report.Drifts, Drift{
			Status:   StatusModified,
			Element:  ElementOther,
			Category: CategoryDefinition,
			Severity: SeverityLow,
			Actual:   err.Error(),
		})
		return report
	}

	actualSections := splitSections(actualProse)

	if len(actualSections) == 1 {
		if whole, ok := actualSections[""]; ok {
			report.Drifts = append(report.Drifts, detectWholeDocumentDrift(prog, whole)...)
			return report
		}
	}

	for _, stmt := range prog.Statements {
		name, expected := renderStatementProse(stmt)
		if expected == "" {
			continue
		}
		actual, found := findMatchingSection(actualSections, name)
		if !found {
			report.Drifts = append(report.Drifts, Drift{
				Status:   StatusDeleted,
				Element:  classifyElement(expected),
				Category: CategoryDefinition,
				Severity: SeverityLow,
				Expected: expected,
			})
			continue
		}
		if d, ok := compareOne(stmt, expected, actual); ok {
			d.Section = sectionKeyFor(actualSections, name)
			report.Drifts = append(report.Drifts, d)
		}
	}

	return report
}

// detectWholeDocumentDrift compares the concatenation of every
// statement's expected sentence against a section-marker-free document,
// producing at most one Drift for the whole thing.
func detectWholeDocumentDrift(prog *ast.Program, actual string) []Drift {
	var sentences []string
	for _, stmt := range prog.Statements {
		_, sentence := renderStatementProse(stmt)
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}
	expected := strings.Join(sentences, " ")
	if expected == "" {
		return nil
	}

	var primary ast.Statement
	for _, stmt := range prog.Statements {
		if _, ok := stmt.(ast.Covenant); ok {
			primary = stmt
			break
		}
	}
	if primary == nil && len(prog.Statements) > 0 {
		primary = prog.Statements[0]
	}

	d, ok := compareOne(primary, expected, actual)
	if !ok {
		return nil
	}
	return []Drift{d}
}

// compareOne builds a Drift for a single (expected, actual) prose pair
// attributed to stmt, returning ok=false when the pair shows no material
// difference.
func compareOne(stmt ast.Statement, expected, actual string) (Drift, bool) {
	if isStylisticOnly(expected, actual) {
		return Drift{}, false
	}

	expectedNums := extractNumbers(expected)
	actualNums := extractNumbers(actual)
	elem := classifyElement(expected + " " + actual)
	sameNums := sameNumberSet(expectedNums, actualNums)
	category := classifyCategory(elem, expected, actual, sameNums)

	d := Drift{
		Status:   StatusModified,
		Element:  elem,
		Category: category,
		Severity: severityOf(category),
		Expected: expected,
		Actual:   actual,
	}

	if cov, ok := stmt.(ast.Covenant); ok && !sameNums {
		if cmp, ok := cov.Requires.(ast.Comparison); ok {
			d.SuggestedCode = buildSuggestedCode(expectedNums, actualNums, lhsName(cmp.Left), cmp.Op)
		}
	}

	return d, true
}

// findMatchingSection looks for a marked section of actualProse whose
// text references name. Called only once DetectDrift has established
// that actualProse carries real section markers.
func findMatchingSection(sections map[string]string, name string) (string, bool) {
	for _, text := range sections {
		if strings.Contains(text, name) {
			return text, true
		}
	}
	return "", false
}

func sectionKeyFor(sections map[string]string, name string) string {
	for k, text := range sections {
		if strings.Contains(text, name) {
			return k
		}
	}
	return ""
}

// ValidateRoundTrip renders generatedCode back to prose and checks it
// against originalProse, the prose that code was authored to express,
// under the same stylistic-variation tolerance DetectDrift uses.
func ValidateRoundTrip(originalProse, generatedCode string) RoundTripResult {
	result := RoundTripResult{ID: idgen.New()}

	prog, err := grammar.Parse(generatedCode)
	if err != nil {
		result.Reason = "generated code does not parse: " + err.Error()
		return result
	}

	var rendered []string
	for _, stmt := range prog.Statements {
		_, sentence := renderStatementProse(stmt)
		if sentence != "" {
			rendered = append(rendered, sentence)
		}
	}
	expected := strings.Join(rendered, " ")
	result.Expected = expected
	result.Actual = originalProse

	if isStylisticOnly(expected, originalProse) {
		result.Acceptable = true
		return result
	}

	expectedNums := extractNumbers(expected)
	actualNums := extractNumbers(originalProse)
	if !sameNumberSet(expectedNums, actualNums) {
		result.Reason = fmt.Sprintf("numbers differ: expected %v, found %v", expectedNums, actualNums)
		return result
	}

	result.Reason = "text diverges beyond recognized stylistic variation"
	return result
}
