// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/proviso-lang/proviso/internal/template/formschema"
)

func newGenSchemaCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "gen-schema",
		Short: "Generate the form-definition JSON Schema file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := formschema.GenerateSchema()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			if err := os.WriteFile(outPath, schema, 0o600); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
			cmd.Printf("Generated %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", filepath.Join("schemas", "form.schema.json"), "output path for the generated schema")
	return cmd
}
