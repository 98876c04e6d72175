// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/proviso-lang/proviso/internal/drift"
)

func newDriftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drift <actual-prose-file> <code-file>",
		Short: "Compare authored prose against the code that should generate it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe("drift", func() error {
				prose, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read prose: %w", err)
				}
				code, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("read code: %w", err)
				}

				report := drift.DetectDrift(string(prose), string(code))
				out, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal report: %w", err)
				}
				cmd.Println(string(out))
				if len(report.Drifts) > 0 {
					return fmt.Errorf("%d drift(s) detected", len(report.Drifts))
				}
				return nil
			})
		},
	}
}
