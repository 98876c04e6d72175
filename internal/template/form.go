// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package template

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// CoreVersion is the grammar/engine version checked against a
// FormDefinition's MinCoreVersion constraint before rendering.
const CoreVersion = "1.0.0"

// WidgetType is the UI control a Field is presented with; rendering and
// validation do not read it.
type WidgetType string

const (
	WidgetText       WidgetType = "text"
	WidgetNumber     WidgetType = "number"
	WidgetCurrency   WidgetType = "currency"
	WidgetPercentage WidgetType = "percentage"
	WidgetRatio      WidgetType = "ratio"
	WidgetSelect     WidgetType = "select"
	WidgetCheckbox   WidgetType = "checkbox"
	WidgetDate       WidgetType = "date"
)

// FieldOption is one choice of a WidgetSelect field; Display is the
// enrichment-time label shown in place of Value inside templates.
type FieldOption struct {
	Value   string
	Display string
}

// FieldRule is a field's own validation constraints, independent of
// whether the field is required.
type FieldRule struct {
	Min     *float64
	Max     *float64
	Pattern string
}

// Field is one input of a FormDefinition.
type Field struct {
	Name     string
	Label    string
	Widget   WidgetType
	Required bool
	Default  any
	Options  []FieldOption
	// ShowWhen is a small boolean expression over other field values
	// ("name == value", "!name", "name"); an empty ShowWhen always shows.
	// A hidden field's Required flag is not enforced.
	ShowWhen string
	Validate *FieldRule
}

// CrossFieldRule checks a condition across multiple fields; it is evaluated
// after the per-field checks whether or not they passed, and When failing
// to hold produces Message.
type CrossFieldRule struct {
	Name    string
	When    string
	Message string
}

// FormDefinition is a library form: its fields, cross-field rules, and the
// two templates it renders (ProViso source and legal prose).
type FormDefinition struct {
	ID           string
	DisplayName  string
	Category     string
	ElementType  string
	Fields       []Field
	CrossField   []CrossFieldRule
	CodeTemplate string
	WordTemplate string
	// MinCoreVersion gates generateFormOutput against forms authored for a
	// newer engine than the one running; nil means no constraint.
	MinCoreVersion *semver.Constraints
}

// FormOutput is the result of successfully rendering a FormDefinition
// against submitted values.
type FormOutput struct {
	Code        string
	Prose       string
	ElementType string
	ElementName string
	SectionRef  string
}

// CodeOutput is the result of GenerateFromTemplate.
type CodeOutput struct {
	Code         string
	TemplateName string
}

// ValidationError lists the field/cross-field failures found before
// rendering was attempted.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "form validation failed: " + strings.Join(e.Issues, "; ")
}

// GenerateFormOutput validates values against form, enriches them with
// display strings, and renders both the code and prose templates.
func GenerateFormOutput(form FormDefinition, values map[string]any) (FormOutput, error) {
	if form.MinCoreVersion != nil {
		v, err := semver.NewVersion(CoreVersion)
		if err != nil {
			return FormOutput{}, oops.In("template").Hint("invalid core version constant").Wrap(err)
		}
		if !form.MinCoreVersion.Check(v) {
			return FormOutput{}, oops.In("template").With("form", form.ID).
				Errorf("form %q requires a core version satisfying %q, running %s", form.ID, form.MinCoreVersion.String(), CoreVersion)
		}
	}

	if issues := validateFields(form, values); len(issues) > 0 {
		return FormOutput{}, &ValidationError{Issues: issues}
	}

	ctx := enrich(form, values)

	code, err := Render(form.CodeTemplate, ctx)
	if err != nil {
		return FormOutput{}, oops.In("template").With("form", form.ID).Hint("failed to render code template").Wrap(err)
	}
	prose, err := Render(form.WordTemplate, ctx)
	if err != nil {
		return FormOutput{}, oops.In("template").With("form", form.ID).Hint("failed to render word template").Wrap(err)
	}

	elementName, _ := ctx.Lookup("name")
	return FormOutput{
		Code:        code,
		Prose:       prose,
		ElementType: form.ElementType,
		ElementName: stringify(elementName),
		SectionRef:  form.Category,
	}, nil
}

// Registry looks up a FormDefinition by its template ID for
// GenerateFromTemplate. It is a plain map, not a package-level global, so
// a host can own its own library of forms.
type Registry map[string]FormDefinition

// GenerateFromTemplate renders templateID's form against values, returning
// (nil, nil) when the ID is not registered, matching the "code | null"
// shape of the external interface.
func (r Registry) GenerateFromTemplate(templateID string, values map[string]any) (*CodeOutput, error) {
	form, ok := r[templateID]
	if !ok {
		return nil, nil
	}
	out, err := GenerateFormOutput(form, values)
	if err != nil {
		return nil, err
	}
	return &CodeOutput{Code: out.Code, TemplateName: form.DisplayName}, nil
}

func validateFields(form FormDefinition, values map[string]any) []string {
	var issues []string
	for _, f := range form.Fields {
		if f.ShowWhen != "" && !evalShowWhen(f.ShowWhen, values) {
			continue
		}
		v, present := values[f.Name]
		if f.Required && (!present || isEmptyValue(v)) {
			issues = append(issues, fmt.Sprintf("%s is required", f.Name))
			continue
		}
		if !present {
			continue
		}
		if f.Validate != nil {
			issues = append(issues, checkFieldRule(f, v)...)
		}
	}
	for _, rule := range form.CrossField {
		if !evalShowWhen(rule.When, values) {
			issues = append(issues, rule.Message)
		}
	}
	return issues
}

func checkFieldRule(f Field, v any) []string {
	var issues []string
	n, ok := toFloat(v)
	if !ok {
		return issues
	}
	if f.Validate.Min != nil && n < *f.Validate.Min {
		issues = append(issues, fmt.Sprintf("%s must be at least %v", f.Name, *f.Validate.Min))
	}
	if f.Validate.Max != nil && n > *f.Validate.Max {
		issues = append(issues, fmt.Sprintf("%s must be at most %v", f.Name, *f.Validate.Max))
	}
	return issues
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	default:
		return false
	}
}

// enrich builds a render Context from raw form values, adding the
// enumerated-field display strings the templates expect to find already
// resolved (operator words, metric display names) rather than re-deriving
// them inside the template.
func enrich(form FormDefinition, values map[string]any) Context {
	ctx := make(Context, len(values)+len(form.Fields))
	for k, v := range values {
		ctx[k] = v
	}
	for _, f := range form.Fields {
		v, ok := values[f.Name]
		if !ok || len(f.Options) == 0 {
			continue
		}
		raw := stringify(v)
		for _, opt := range f.Options {
			if opt.Value == raw {
				ctx[f.Name+"Display"] = opt.Display
				break
			}
		}
	}
	return ctx
}
