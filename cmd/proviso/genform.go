// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/proviso-lang/proviso/internal/template"
	"github.com/proviso-lang/proviso/internal/template/formschema"
)

func newGenFormCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-form <form-definition.yaml> <values.json>",
		Short: "Generate ProViso code and prose from a library form and submitted values",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe("gen-form", func() error {
				specBytes, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read form definition: %w", err)
				}
				spec, err := formschema.Validate(specBytes)
				if err != nil {
					return fmt.Errorf("invalid form definition: %w", err)
				}
				form, err := spec.ToDomain()
				if err != nil {
					return fmt.Errorf("convert form definition: %w", err)
				}

				valuesBytes, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("read values: %w", err)
				}
				var values map[string]any
				if err := json.Unmarshal(valuesBytes, &values); err != nil {
					return fmt.Errorf("parse values JSON: %w", err)
				}

				output, err := template.GenerateFormOutput(form, values)
				if err != nil {
					return fmt.Errorf("generate form output: %w", err)
				}

				out, err := json.MarshalIndent(output, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal output: %w", err)
				}
				cmd.Println(string(out))
				return nil
			})
		},
	}
}
