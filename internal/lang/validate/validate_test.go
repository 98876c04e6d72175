// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proviso-lang/proviso/internal/lang/ast"
	"github.com/proviso-lang/proviso/internal/lang/grammar"
	"github.com/proviso-lang/proviso/internal/lang/validate"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := grammar.Parse(src)
	require.NoError(t, err)
	return prog
}

func TestValidate_UndefinedBasketReference(t *testing.T) {
	src := `CONDITION UsesGhost AS AVAILABLE(GhostBasket) >= 0`
	prog := mustParse(t, src)

	res := validate.Validate(prog)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "GhostBasket", res.Errors[0].Reference)
	assert.Contains(t, res.Errors[0].Message, "undefined basket")
}

func TestValidate_DuplicateNameIsError(t *testing.T) {
	src := `
BASKET Inv CAPACITY 1000
BASKET Inv CAPACITY 2000
`
	prog := mustParse(t, src)

	res := validate.Validate(prog)

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "duplicate basket")
}

func TestValidate_UnknownIdentifierIsWarningNotError(t *testing.T) {
	src := `DEFINE Leverage AS TotalDebt / EBITDA`
	prog := mustParse(t, src)

	res := validate.Validate(prog)

	assert.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 2)
	names := []string{res.Warnings[0].Reference, res.Warnings[1].Reference}
	assert.ElementsMatch(t, []string{"TotalDebt", "EBITDA"}, names)
}

func TestValidate_AmountOnlyPermittedInProhibitScope(t *testing.T) {
	ok := mustParse(t, `PROHIBIT Dividends EXCEPT WHEN amount <= 100`)
	res := validate.Validate(ok)
	for _, w := range res.Warnings {
		assert.NotEqual(t, "amount", w.Reference)
	}

	leaked := mustParse(t, `CONDITION C AS amount <= 100`)
	res2 := validate.Validate(leaked)
	require.Len(t, res2.Warnings, 1)
	assert.Equal(t, "amount", res2.Warnings[0].Reference)
}

func TestValidate_SubjectToMustBeCondition(t *testing.T) {
	src := `BASKET Inv CAPACITY 1000 SUBJECT TO NoDefault`
	prog := mustParse(t, src)

	res := validate.Validate(prog)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "NoDefault", res.Errors[0].Reference)
}

func TestValidate_RatioPercentageMismatchIsError(t *testing.T) {
	src := `CONDITION C AS 4.50x >= 50%`
	prog := mustParse(t, src)

	res := validate.Validate(prog)

	require.Len(t, res.Errors, 1)
}

func TestValidate_FunctionArityChecks(t *testing.T) {
	src := `CONDITION C AS NOT(1, 2)`
	prog := mustParse(t, src)

	res := validate.Validate(prog)

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "expects 1 argument")
}
