// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package tmplast

import (
	"strings"

	"github.com/samber/oops"
)

// Parse compiles raw template text into a Template once. The scanner finds
// `{{...}}` tags by literal delimiter search (no backtracking grammar is
// needed: tags never nest their own delimiters), and a small recursive
// stack-based pass turns the flat tag sequence into nested if/unless/each
// blocks.
func Parse(src string) (*Template, error) {
	tags, err := scan(src)
	if err != nil {
		return nil, err
	}
	nodes, rest, err := parseNodes(tags)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, oops.In("tmplast").Errorf("unmatched closing tag %q", rest[0].raw)
	}
	return &Template{Nodes: nodes}, nil
}

type tagKind int

const (
	tagLiteral tagKind = iota
	tagVariable
	tagHelper
	tagIf
	tagElse
	tagEndIf
	tagUnless
	tagEndUnless
	tagEach
	tagEndEach
)

type rawTag struct {
	kind tagKind
	raw  string
	text string // literal text, or the tag body with "{{"/"}}" stripped and trimmed
}

func scan(src string) ([]rawTag, error) {
	var tags []rawTag
	for {
		start := strings.Index(src, "{{")
		if start < 0 {
			if len(src) > 0 {
				tags = append(tags, rawTag{kind: tagLiteral, text: src})
			}
			return tags, nil
		}
		if start > 0 {
			tags = append(tags, rawTag{kind: tagLiteral, text: src[:start]})
		}
		end := strings.Index(src[start:], "}}")
		if end < 0 {
			return nil, oops.In("tmplast").Errorf("unterminated tag starting at byte %d", start)
		}
		end += start
		body := strings.TrimSpace(src[start+2 : end])
		raw := src[start : end+2]
		tag, err := classify(body, raw)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
		src = src[end+2:]
	}
}

func classify(body, raw string) (rawTag, error) {
	switch {
	case body == "else":
		return rawTag{kind: tagElse, raw: raw}, nil
	case body == "/if":
		return rawTag{kind: tagEndIf, raw: raw}, nil
	case body == "/unless":
		return rawTag{kind: tagEndUnless, raw: raw}, nil
	case body == "/each":
		return rawTag{kind: tagEndEach, raw: raw}, nil
	case strings.HasPrefix(body, "#if "):
		return rawTag{kind: tagIf, raw: raw, text: strings.TrimSpace(body[len("#if "):])}, nil
	case strings.HasPrefix(body, "#unless "):
		return rawTag{kind: tagUnless, raw: raw, text: strings.TrimSpace(body[len("#unless "):])}, nil
	case strings.HasPrefix(body, "#each "):
		return rawTag{kind: tagEach, raw: raw, text: strings.TrimSpace(body[len("#each "):])}, nil
	case strings.HasPrefix(body, "format."):
		return rawTag{kind: tagHelper, raw: raw, text: body}, nil
	case body == "":
		return rawTag{}, oops.In("tmplast").Errorf("empty tag %q", raw)
	default:
		return rawTag{kind: tagVariable, raw: raw, text: body}, nil
	}
}

// parseNodes consumes tags until a close/else tag terminates the current
// scope (or the slice is exhausted at the top level), returning the
// built nodes and the unconsumed remainder.
func parseNodes(tags []rawTag) ([]Node, []rawTag, error) {
	var nodes []Node
	for len(tags) > 0 {
		t := tags[0]
		switch t.kind {
		case tagLiteral:
			nodes = append(nodes, Literal{Text: t.text})
			tags = tags[1:]
		case tagVariable:
			nodes = append(nodes, Variable{Path: t.text})
			tags = tags[1:]
		case tagHelper:
			name, args := parseHelper(t.text)
			nodes = append(nodes, HelperCall{Name: name, Args: args})
			tags = tags[1:]
		case tagIf:
			thenNodes, rest, err := parseNodes(tags[1:])
			if err != nil {
				return nil, nil, err
			}
			var elseNodes []Node
			if len(rest) > 0 && rest[0].kind == tagElse {
				elseNodes, rest, err = parseNodes(rest[1:])
				if err != nil {
					return nil, nil, err
				}
			}
			if len(rest) == 0 || rest[0].kind != tagEndIf {
				return nil, nil, oops.In("tmplast").Errorf("unclosed {{#if %s}}", t.text)
			}
			nodes = append(nodes, IfBlock{Cond: t.text, Then: thenNodes, Else: elseNodes})
			tags = rest[1:]
		case tagUnless:
			body, rest, err := parseNodes(tags[1:])
			if err != nil {
				return nil, nil, err
			}
			if len(rest) == 0 || rest[0].kind != tagEndUnless {
				return nil, nil, oops.In("tmplast").Errorf("unclosed {{#unless %s}}", t.text)
			}
			nodes = append(nodes, UnlessBlock{Cond: t.text, Body: body})
			tags = rest[1:]
		case tagEach:
			body, rest, err := parseNodes(tags[1:])
			if err != nil {
				return nil, nil, err
			}
			if len(rest) == 0 || rest[0].kind != tagEndEach {
				return nil, nil, oops.In("tmplast").Errorf("unclosed {{#each %s}}", t.text)
			}
			nodes = append(nodes, EachBlock{List: t.text, Body: body})
			tags = rest[1:]
		case tagElse, tagEndIf, tagEndUnless, tagEndEach:
			return nodes, tags, nil
		}
	}
	return nodes, tags, nil
}

func parseHelper(body string) (name string, args []string) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
