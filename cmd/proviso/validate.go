// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/proviso-lang/proviso/internal/lang/grammar"
	"github.com/proviso-lang/proviso/internal/lang/validate"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse and semantically validate a ProViso source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe("validate", func() error {
				src, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read source: %w", err)
				}
				prog, err := grammar.Parse(string(src))
				if err != nil {
					return fmt.Errorf("parse: %w", err)
				}

				result := validate.Validate(prog)
				for _, issue := range result.Warnings {
					cmd.PrintErrf("warning: %s: %s\n", issue.Statement, issue.Message)
				}
				for _, issue := range result.Errors {
					cmd.PrintErrf("error: %s: %s\n", issue.Statement, issue.Message)
				}
				if !result.OK() {
					return fmt.Errorf("%d validation error(s)", len(result.Errors))
				}
				cmd.Println("ok")
				return nil
			})
		},
	}
}
