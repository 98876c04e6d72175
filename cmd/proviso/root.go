// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the ProViso CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proviso",
		Short: "ProViso - a DSL for commercial credit agreement terms",
		Long: `ProViso parses, validates, and evaluates covenants, baskets,
conditions, and events written in the ProViso language, and renders them
back to the prose a credit agreement is drafted in.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newEvalCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newGenFormCmd())
	cmd.AddCommand(newDriftCmd())
	cmd.AddCommand(newRoundtripCmd())
	cmd.AddCommand(newGenSchemaCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
