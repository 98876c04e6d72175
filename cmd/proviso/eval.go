// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/proviso-lang/proviso/internal/lang/eval"
	"github.com/proviso-lang/proviso/internal/lang/grammar"
	"github.com/proviso-lang/proviso/internal/lang/validate"
	"github.com/proviso-lang/proviso/internal/snapshot"
)

func newEvalCmd() *cobra.Command {
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "eval <file>",
		Short: "Parse, validate, and evaluate a ProViso source file against a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe("eval", func() error {
				src, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read source: %w", err)
				}
				prog, err := grammar.Parse(string(src))
				if err != nil {
					return fmt.Errorf("parse: %w", err)
				}
				if result := validate.Validate(prog); !result.OK() {
					return fmt.Errorf("%d validation error(s), run `proviso validate` for detail", len(result.Errors))
				}

				if snapshotPath == "" {
					return fmt.Errorf("--snapshot is required")
				}
				snap, err := snapshot.Load(snapshotPath)
				if err != nil {
					return fmt.Errorf("load snapshot: %w", err)
				}

				res := eval.Evaluate(prog, snap, &eval.Overlay{})
				out, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal result: %w", err)
				}
				cmd.Println(string(out))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "path to a JSON or YAML financial-data snapshot")
	return cmd
}
