// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Package formschema validates authored form-definition YAML/JSON documents
// against a JSON Schema reflected from FormSpec, before the template engine
// ever sees them. It mirrors the schema-compile-and-cache pattern used
// elsewhere in the pack for manifest validation.
package formschema

import (
	"encoding/json"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/proviso-lang/proviso/internal/template"
)

// FieldOptionSpec is the wire shape of template.FieldOption.
type FieldOptionSpec struct {
	Value   string `yaml:"value" json:"value" jsonschema:"required,minLength=1"`
	Display string `yaml:"display" json:"display" jsonschema:"required,minLength=1"`
}

// FieldRuleSpec is the wire shape of template.FieldRule.
type FieldRuleSpec struct {
	Min     *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// FieldSpec is the wire shape of template.Field.
type FieldSpec struct {
	Name     string            `yaml:"name" json:"name" jsonschema:"required,minLength=1"`
	Label    string            `yaml:"label" json:"label" jsonschema:"required,minLength=1"`
	Widget   string            `yaml:"widget" json:"widget" jsonschema:"required,enum=text,enum=number,enum=currency,enum=percentage,enum=ratio,enum=select,enum=checkbox,enum=date"`
	Required bool              `yaml:"required,omitempty" json:"required,omitempty"`
	Default  any               `yaml:"default,omitempty" json:"default,omitempty"`
	Options  []FieldOptionSpec `yaml:"options,omitempty" json:"options,omitempty"`
	ShowWhen string            `yaml:"showWhen,omitempty" json:"showWhen,omitempty"`
	Validate *FieldRuleSpec    `yaml:"validate,omitempty" json:"validate,omitempty"`
}

// CrossFieldRuleSpec is the wire shape of template.CrossFieldRule.
type CrossFieldRuleSpec struct {
	Name    string `yaml:"name" json:"name" jsonschema:"required,minLength=1"`
	When    string `yaml:"when" json:"when" jsonschema:"required,minLength=1"`
	Message string `yaml:"message" json:"message" jsonschema:"required,minLength=1"`
}

// FormSpec is the on-disk (authored) shape of a template.FormDefinition.
// MinCoreVersion is a semver constraint string ("") here rather than a
// parsed *semver.Constraints, since a schema can only describe JSON-native
// types; ToDomain parses it.
type FormSpec struct {
	ID             string               `yaml:"id" json:"id" jsonschema:"required,minLength=1"`
	DisplayName    string               `yaml:"displayName" json:"displayName" jsonschema:"required,minLength=1"`
	Category       string               `yaml:"category" json:"category" jsonschema:"required,minLength=1"`
	ElementType    string               `yaml:"elementType" json:"elementType" jsonschema:"required,minLength=1"`
	Fields         []FieldSpec          `yaml:"fields" json:"fields" jsonschema:"required"`
	CrossField     []CrossFieldRuleSpec `yaml:"crossField,omitempty" json:"crossField,omitempty"`
	CodeTemplate   string               `yaml:"codeTemplate" json:"codeTemplate" jsonschema:"required,minLength=1"`
	WordTemplate   string               `yaml:"wordTemplate" json:"wordTemplate" jsonschema:"required,minLength=1"`
	MinCoreVersion string               `yaml:"minCoreVersion,omitempty" json:"minCoreVersion,omitempty"`
}

// ToDomain converts a validated FormSpec into a template.FormDefinition.
func (s FormSpec) ToDomain() (template.FormDefinition, error) {
	form := template.FormDefinition{
		ID:           s.ID,
		DisplayName:  s.DisplayName,
		Category:     s.Category,
		ElementType:  s.ElementType,
		CodeTemplate: s.CodeTemplate,
		WordTemplate: s.WordTemplate,
	}
	for _, f := range s.Fields {
		field := template.Field{
			Name:     f.Name,
			Label:    f.Label,
			Widget:   template.WidgetType(f.Widget),
			Required: f.Required,
			Default:  f.Default,
			ShowWhen: f.ShowWhen,
		}
		for _, o := range f.Options {
			field.Options = append(field.Options, template.FieldOption{Value: o.Value, Display: o.Display})
		}
		if f.Validate != nil {
			field.Validate = &template.FieldRule{Min: f.Validate.Min, Max: f.Validate.Max, Pattern: f.Validate.Pattern}
		}
		form.Fields = append(form.Fields, field)
	}
	for _, c := range s.CrossField {
		form.CrossField = append(form.CrossField, template.CrossFieldRule{Name: c.Name, When: c.When, Message: c.Message})
	}
	if s.MinCoreVersion != "" {
		constraint, err := semver.NewConstraint(s.MinCoreVersion)
		if err != nil {
			return template.FormDefinition{}, oops.In("formschema").With("form", s.ID).Hint("invalid minCoreVersion constraint").Wrap(err)
		}
		form.MinCoreVersion = &constraint
	}
	return form, nil
}

type schemaState struct {
	once   sync.Once
	schema *jschema.Schema
	err    error
}

var globalSchemaState = &schemaState{}

// GenerateSchema reflects a JSON Schema from FormSpec.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&FormSpec{})
	schema.ID = jsonschema.ID("https://proviso.dev/schemas/form.schema.json")
	schema.Title = "ProViso Form Definition"
	schema.Description = "Schema for authored library form definitions"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.In("formschema").Hint("failed to marshal schema").Wrap(err)
	}
	return append(data, '\n'), nil
}

func getCompiledSchema() (*jschema.Schema, error) {
	globalSchemaState.once.Do(func() {
		globalSchemaState.schema, globalSchemaState.err = compileSchema()
	})
	return globalSchemaState.schema, globalSchemaState.err
}

func compileSchema() (*jschema.Schema, error) {
	schemaBytes, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	var schemaData any
	if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, oops.In("formschema").Hint("failed to parse schema JSON").Wrap(err)
	}
	c := jschema.NewCompiler()
	if err := c.AddResource("form.json", schemaData); err != nil {
		return nil, oops.In("formschema").Hint("failed to add schema resource").Wrap(err)
	}
	sch, err := c.Compile("form.json")
	if err != nil {
		return nil, oops.In("formschema").Hint("failed to compile schema").Wrap(err)
	}
	return sch, nil
}

// ResetSchemaCache clears the cached compiled schema. Used by tests.
func ResetSchemaCache() {
	globalSchemaState = &schemaState{}
}

// Validate checks raw YAML or JSON form-definition bytes against the
// reflected schema and, if valid, decodes and returns the FormSpec.
func Validate(data []byte) (*FormSpec, error) {
	if len(data) == 0 {
		return nil, oops.In("formschema").New("form definition data is empty")
	}

	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, oops.In("formschema").Hint("invalid YAML/JSON").Wrap(err)
	}
	jsonData := convertToJSONTypes(generic)

	sch, err := getCompiledSchema()
	if err != nil {
		return nil, oops.In("formschema").Hint("failed to compile schema").Wrap(err)
	}
	if err := sch.Validate(jsonData); err != nil {
		return nil, oops.In("formschema").Hint("schema validation failed").Wrap(err)
	}

	var spec FormSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, oops.In("formschema").Hint("failed to decode form definition").Wrap(err)
	}
	return &spec, nil
}

func convertToJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = convertToJSONTypes(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = convertToJSONTypes(v)
		}
		return result
	default:
		return val
	}
}
