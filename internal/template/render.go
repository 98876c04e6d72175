// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/proviso-lang/proviso/internal/template/tmplast"
)

// Render parses tmpl and applies ctx to it, producing output text; the
// parse is not cached between calls. Block removal can leave consecutive blank
// lines behind; a trailing cleanup pass collapses runs of 3+ newlines
// down to 2, matching the single-blank-line convention of the prose
// output.
func Render(tmpl string, ctx Context) (string, error) {
	t, err := tmplast.Parse(tmpl)
	if err != nil {
		return "", oops.In("template").Hint("failed to parse template").Wrap(err)
	}
	var b strings.Builder
	if err := renderNodes(&b, t.Nodes, ctx); err != nil {
		return "", err
	}
	return collapseBlankRuns(b.String()), nil
}

func renderNodes(b *strings.Builder, nodes []tmplast.Node, ctx Context) error {
	for _, n := range nodes {
		if err := renderNode(b, n, ctx); err != nil {
			return err
		}
	}
	return nil
}

func renderNode(b *strings.Builder, n tmplast.Node, ctx Context) error {
	switch x := n.(type) {
	case tmplast.EachBlock:
		return renderEach(b, x, ctx)
	case tmplast.IfBlock:
		return renderIf(b, x, ctx)
	case tmplast.UnlessBlock:
		return renderUnless(b, x, ctx)
	case tmplast.Variable:
		v, _ := ctx.Lookup(x.Path)
		b.WriteString(stringify(v))
		return nil
	case tmplast.HelperCall:
		out, err := callHelper(x, ctx)
		if err != nil {
			return err
		}
		b.WriteString(out)
		return nil
	case tmplast.Literal:
		b.WriteString(x.Text)
		return nil
	}
	return oops.In("template").Errorf("unhandled node type %T", n)
}

func renderEach(b *strings.Builder, blk tmplast.EachBlock, ctx Context) error {
	v, ok := ctx.Lookup(blk.List)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	for i, item := range items {
		scope := make(Context, len(ctx)+4)
		for k, v := range ctx {
			scope[k] = v
		}
		scope["@index"] = i
		scope["@first"] = i == 0
		scope["@last"] = i == len(items)-1
		if rec, ok := item.(map[string]any); ok {
			for k, v := range rec {
				scope[k] = v
			}
		} else {
			scope["."] = item
		}
		if err := renderNodes(b, blk.Body, scope); err != nil {
			return err
		}
	}
	return nil
}

func renderIf(b *strings.Builder, blk tmplast.IfBlock, ctx Context) error {
	v, _ := ctx.Lookup(blk.Cond)
	if truthy(v) {
		return renderNodes(b, blk.Then, ctx)
	}
	return renderNodes(b, blk.Else, ctx)
}

func renderUnless(b *strings.Builder, blk tmplast.UnlessBlock, ctx Context) error {
	v, _ := ctx.Lookup(blk.Cond)
	if !truthy(v) {
		return renderNodes(b, blk.Body, ctx)
	}
	return nil
}

func callHelper(call tmplast.HelperCall, ctx Context) (string, error) {
	if len(call.Args) != 1 {
		return "", oops.In("template").Errorf("%s expects exactly one argument", call.Name)
	}
	v, _ := ctx.Lookup(call.Args[0])
	switch call.Name {
	case "format.currency":
		return formatCurrency(v), nil
	case "format.percentage":
		return formatPercentage(v), nil
	case "format.ratio":
		return formatRatio(v), nil
	case "format.date":
		return formatDate(v), nil
	}
	return "", oops.In("template").Errorf("%q is not a recognized helper", call.Name)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func formatCurrency(v any) string {
	n, ok := toFloat(v)
	if !ok {
		return ""
	}
	return "$" + groupThousands(n)
}

// formatPercentage renders an integer-percent template value as a
// percentage string; the evaluator's own fractional representation is a
// separate concern handled at evaluation time, not here.
func formatPercentage(v any) string {
	n, ok := toFloat(v)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(n, 'f', -1, 64) + "%"
}

func formatRatio(v any) string {
	n, ok := toFloat(v)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(n, 'f', -1, 64) + "x"
}

func formatDate(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.Format("January 2, 2006")
	case string:
		return x
	}
	return stringify(v)
}

func groupThousands(n float64) string {
	s := strconv.FormatFloat(n, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	var parts []string
	for len(intPart) > 3 {
		parts = append([]string{intPart[len(intPart)-3:]}, parts...)
		intPart = intPart[:len(intPart)-3]
	}
	parts = append([]string{intPart}, parts...)
	out := strings.Join(parts, ",")
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

var blankRunPattern = regexp.MustCompile(`\n{3,}`)

func collapseBlankRuns(s string) string {
	return blankRunPattern.ReplaceAllString(s, "\n\n")
}
