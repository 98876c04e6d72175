// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/proviso-lang/proviso/internal/template"
)

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <template-file> <context.json>",
		Short: "Render a template against a JSON context",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe("render", func() error {
				tmplBytes, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read template: %w", err)
				}
				ctxBytes, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("read context: %w", err)
				}

				var values map[string]any
				if err := json.Unmarshal(ctxBytes, &values); err != nil {
					return fmt.Errorf("parse context JSON: %w", err)
				}

				out, err := template.Render(string(tmplBytes), template.Context(values))
				if err != nil {
					return fmt.Errorf("render: %w", err)
				}
				cmd.Println(out)
				return nil
			})
		},
	}
}
