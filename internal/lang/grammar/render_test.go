// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proviso-lang/proviso/internal/lang/grammar"
)

func TestRender_RoundTripsThroughReparse(t *testing.T) {
	sources := []string{
		`DEFINE Leverage AS TotalDebt / EBITDA`,
		`COVENANT MaxLeverage REQUIRES Leverage <= 4.50 TESTED QUARTERLY`,
		`COVENANT MaxLeverage REQUIRES Leverage <= 4.50 TESTED QUARTERLY CURE Equity CAPACITY 2 TESTED ANNUALLY MAXIMUM $10,000,000`,
		`BASKET Inv CAPACITY $25,000,000 PLUS 15% * EBITDA FLOOR $5,000,000`,
		`BASKET G BUILDS_FROM 15% * EBITDA STARTING $1,000,000 MAXIMUM $15,000,000`,
		`CONDITION NoDefault AS !EXISTS(EventOfDefault)`,
		`PROHIBIT Dividends EXCEPT WHEN amount <= AVAILABLE(RP) AND NoDefault`,
		`EVENT Default TRIGGERS Leverage > 6.00 GRACE_PERIOD 30 CONSEQUENCE Acceleration`,
	}

	for _, src := range sources {
		prog, err := grammar.Parse(src)
		require.NoError(t, err, src)

		rendered := grammar.Render(prog)
		reparsed, err := grammar.Parse(rendered)
		require.NoError(t, err, rendered)

		require.Len(t, reparsed.Statements, len(prog.Statements))
		for i := range prog.Statements {
			assert.True(t, prog.Statements[i].Equal(reparsed.Statements[i]),
				"statement %d did not round-trip: %s -> %s", i, src, rendered)
		}
	}
}

func TestRender_GroupsThousandsInFormattedNumbers(t *testing.T) {
	prog, err := grammar.Parse(`BASKET Inv CAPACITY $25,000,000`)
	require.NoError(t, err)
	out := grammar.Render(prog)
	assert.Contains(t, out, "25,000,000")
}

func TestRender_MultipleStatementsSeparatedByBlankLine(t *testing.T) {
	prog, err := grammar.Parse(`DEFINE A AS 1
DEFINE B AS 2`)
	require.NoError(t, err)
	out := grammar.Render(prog)
	assert.Contains(t, out, "\n\n")
}

func TestRenderExpr_FullyParenthesizesBinaryTrees(t *testing.T) {
	prog, err := grammar.Parse(`DEFINE X AS A + B * C`)
	require.NoError(t, err)
	rendered := grammar.Render(prog)
	assert.Contains(t, rendered, "(A + (B * C))")
}
