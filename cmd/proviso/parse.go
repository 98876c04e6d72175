// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/proviso-lang/proviso/internal/lang/grammar"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a ProViso source file and print its canonical rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe("parse", func() error {
				src, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read source: %w", err)
				}
				prog, err := grammar.Parse(string(src))
				if err != nil {
					return fmt.Errorf("parse: %w", err)
				}
				cmd.Print(grammar.Render(prog))
				return nil
			})
		},
	}
}
