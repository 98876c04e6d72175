// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package tmplast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_LiteralAndVariable(t *testing.T) {
	tmpl, err := Parse("Hello, {{borrower.name}}!")
	require.NoError(t, err)
	require.Equal(t, []Node{
		Literal{Text: "Hello, "},
		Variable{Path: "borrower.name"},
		Literal{Text: "!"},
	}, tmpl.Nodes)
}

func TestParse_HelperCall(t *testing.T) {
	tmpl, err := Parse("{{format.currency amount}}")
	require.NoError(t, err)
	require.Equal(t, []Node{
		HelperCall{Name: "format.currency", Args: []string{"amount"}},
	}, tmpl.Nodes)
}

func TestParse_IfElse(t *testing.T) {
	tmpl, err := Parse("{{#if hasGuarantor}}Guaranteed{{else}}Unsecured{{/if}}")
	require.NoError(t, err)
	require.Equal(t, []Node{
		IfBlock{
			Cond: "hasGuarantor",
			Then: []Node{Literal{Text: "Guaranteed"}},
			Else: []Node{Literal{Text: "Unsecured"}},
		},
	}, tmpl.Nodes)
}

func TestParse_IfWithoutElse(t *testing.T) {
	tmpl, err := Parse("{{#if x}}Y{{/if}}")
	require.NoError(t, err)
	require.Equal(t, []Node{
		IfBlock{Cond: "x", Then: []Node{Literal{Text: "Y"}}},
	}, tmpl.Nodes)
}

func TestParse_Unless(t *testing.T) {
	tmpl, err := Parse("{{#unless isDefault}}current{{/unless}}")
	require.NoError(t, err)
	require.Equal(t, []Node{
		UnlessBlock{Cond: "isDefault", Body: []Node{Literal{Text: "current"}}},
	}, tmpl.Nodes)
}

func TestParse_NestedEach(t *testing.T) {
	tmpl, err := Parse("{{#each lenders}}{{name}}: {{format.currency share}}\n{{/each}}")
	require.NoError(t, err)
	each, ok := tmpl.Nodes[0].(EachBlock)
	require.True(t, ok)
	require.Equal(t, "lenders", each.List)
	require.Equal(t, []Node{
		Variable{Path: "name"},
		Literal{Text: ": "},
		HelperCall{Name: "format.currency", Args: []string{"share"}},
		Literal{Text: "\n"},
	}, each.Body)
}

func TestParse_UnmatchedCloseTag(t *testing.T) {
	_, err := Parse("{{/if}}")
	require.Error(t, err)
}

func TestParse_UnclosedIf(t *testing.T) {
	_, err := Parse("{{#if x}}Y")
	require.Error(t, err)
}

func TestParse_UnterminatedTag(t *testing.T) {
	_, err := Parse("{{borrower.name")
	require.Error(t, err)
}

func TestParse_EmptyTag(t *testing.T) {
	_, err := Parse("{{}}")
	require.Error(t, err)
}
