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

func newRoundtripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip <original-prose-file> <generated-code-file>",
		Short: "Check that rendering generated code back to prose reproduces the original",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe("roundtrip", func() error {
				prose, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read original prose: %w", err)
				}
				code, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("read generated code: %w", err)
				}

				result := drift.ValidateRoundTrip(string(prose), string(code))
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal result: %w", err)
				}
				cmd.Println(string(out))
				if !result.Acceptable {
					return fmt.Errorf("round trip rejected: %s", result.Reason)
				}
				return nil
			})
		},
	}
}
