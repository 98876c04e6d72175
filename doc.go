// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Package proviso re-exports the entry points of ProViso's subpackages
// (lexing/parsing, validation, evaluation, templating, and drift
// detection) so a host program can depend on a single package instead of
// wiring up internal/lang, internal/template, and internal/drift
// separately.
package proviso

import (
	"github.com/proviso-lang/proviso/internal/drift"
	"github.com/proviso-lang/proviso/internal/lang/ast"
	"github.com/proviso-lang/proviso/internal/lang/eval"
	"github.com/proviso-lang/proviso/internal/lang/grammar"
	"github.com/proviso-lang/proviso/internal/lang/validate"
	"github.com/proviso-lang/proviso/internal/template"
)

// Parse lexes and parses source into a Program.
func Parse(source string) (*ast.Program, error) {
	return grammar.Parse(source)
}

// Validate runs semantic validation over a parsed Program.
func Validate(p *ast.Program) validate.Result {
	return validate.Validate(p)
}

// Evaluate resolves every covenant, basket, condition, and event in p
// against a financial-data snapshot and an optional what-if overlay.
func Evaluate(p *ast.Program, snap eval.Snapshot, overlay *eval.Overlay) *eval.Result {
	return eval.Evaluate(p, snap, overlay)
}

// RenderTemplate expands a template string against a value context.
func RenderTemplate(tmpl string, ctx template.Context) (string, error) {
	return template.Render(tmpl, ctx)
}

// GenerateFormOutput fills a library form with submitted values, producing
// both the ProViso source and the prose it stands for.
func GenerateFormOutput(form template.FormDefinition, values map[string]any) (template.FormOutput, error) {
	return template.GenerateFormOutput(form, values)
}

// GenerateFromTemplate looks up a registered template by ID and fills it
// with values.
func GenerateFromTemplate(registry template.Registry, templateID string, values map[string]any) (*template.CodeOutput, error) {
	return registry.GenerateFromTemplate(templateID, values)
}

// DetectDrift compares authored prose against the code that is supposed to
// generate it and reports where the two have diverged.
func DetectDrift(actualProse, currentCode string) drift.Report {
	return drift.DetectDrift(actualProse, currentCode)
}

// ValidateRoundTrip checks that rendering generatedCode back to prose
// reproduces originalProse, modulo accepted stylistic variation.
func ValidateRoundTrip(originalProse, generatedCode string) drift.RoundTripResult {
	return drift.ValidateRoundTrip(originalProse, generatedCode)
}
