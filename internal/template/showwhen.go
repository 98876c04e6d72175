// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package template

import "strings"

// evalShowWhen evaluates a Field.ShowWhen or CrossFieldRule.When expression
// against submitted form values. The grammar is deliberately tiny: a bare
// name (truthy test), a negated name ("!name"), or an equality/inequality
// comparison against a quoted or bare literal ("name == value",
// "name != value"). An empty expression is always true.
func evalShowWhen(expr string, values map[string]any) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true
	}
	if idx := strings.Index(expr, "!="); idx >= 0 {
		name := strings.TrimSpace(expr[:idx])
		want := unquote(strings.TrimSpace(expr[idx+2:]))
		return stringify(values[name]) != want
	}
	if idx := strings.Index(expr, "=="); idx >= 0 {
		name := strings.TrimSpace(expr[:idx])
		want := unquote(strings.TrimSpace(expr[idx+2:]))
		return stringify(values[name]) == want
	}
	if strings.HasPrefix(expr, "!") {
		return !truthy(values[strings.TrimSpace(expr[1:])])
	}
	return truthy(values[expr])
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
