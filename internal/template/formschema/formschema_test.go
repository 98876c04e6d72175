// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package formschema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proviso-lang/proviso/internal/template/formschema"
)

const validForm = `
id: fixed-basket
displayName: Fixed Basket
category: baskets
elementType: basket
fields:
  - name: name
    label: Name
    widget: text
    required: true
  - name: capacity
    label: Capacity
    widget: currency
    required: true
codeTemplate: "BASKET {{name}} CAPACITY {{format.currency capacity}}"
wordTemplate: "The {{name}} basket permits up to {{format.currency capacity}}."
`

func TestValidate_Accepts(t *testing.T) {
	formschema.ResetSchemaCache()
	spec, err := formschema.Validate([]byte(validForm))
	require.NoError(t, err)
	require.Equal(t, "fixed-basket", spec.ID)
	require.Len(t, spec.Fields, 2)
}

func TestValidate_RejectsMissingRequiredProperty(t *testing.T) {
	formschema.ResetSchemaCache()
	_, err := formschema.Validate([]byte("id: x\n"))
	require.Error(t, err)
}

func TestValidate_RejectsEmptyInput(t *testing.T) {
	formschema.ResetSchemaCache()
	_, err := formschema.Validate(nil)
	require.Error(t, err)
}

func TestValidate_RejectsUnknownWidget(t *testing.T) {
	formschema.ResetSchemaCache()
	bad := `
id: x
displayName: X
category: c
elementType: basket
fields:
  - name: f
    label: F
    widget: not-a-widget
codeTemplate: "x"
wordTemplate: "y"
`
	_, err := formschema.Validate([]byte(bad))
	require.Error(t, err)
}

func TestFormSpec_ToDomain(t *testing.T) {
	formschema.ResetSchemaCache()
	spec, err := formschema.Validate([]byte(validForm))
	require.NoError(t, err)

	form, err := spec.ToDomain()
	require.NoError(t, err)
	require.Equal(t, "fixed-basket", form.ID)
	require.Len(t, form.Fields, 2)
	require.Equal(t, "capacity", form.Fields[1].Name)
}

func TestFormSpec_ToDomain_InvalidMinCoreVersion(t *testing.T) {
	spec := formschema.FormSpec{ID: "x", MinCoreVersion: "not a constraint either"}
	_, err := spec.ToDomain()
	require.Error(t, err)
}

func TestGenerateSchema_ProducesValidJSON(t *testing.T) {
	data, err := formschema.GenerateSchema()
	require.NoError(t, err)
	require.Contains(t, string(data), `"$id"`)
}
