// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/proviso-lang/proviso/internal/config"
	"github.com/proviso-lang/proviso/internal/logging"
	"github.com/proviso-lang/proviso/internal/observability"
)

func newServeCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the metrics and health endpoints as a long-running process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}

			logging.SetDefault("proviso", "dev", cfg.LogFormat)
			slog.Info("starting proviso serve", "metrics_addr", cfg.MetricsAddr)

			srv := observability.NewServer(cfg.MetricsAddr, func() bool { return true })
			errChan, err := srv.Start()
			if err != nil {
				return fmt.Errorf("start observability server: %w", err)
			}
			slog.Info("observability server listening", "addr", srv.Addr())

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case sig := <-sigChan:
				slog.Info("received shutdown signal", "signal", sig)
			case err := <-errChan:
				if err != nil {
					slog.Error("observability server error", "error", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				slog.Warn("error stopping observability server", "error", err)
			}
			slog.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics/health HTTP address (overrides config)")
	return cmd
}
