// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/proviso-lang/proviso/internal/config"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "USD", cfg.DefaultCurrency)
	require.Equal(t, 12, cfg.TrailingWindowMonths)
	require.Equal(t, "127.0.0.1:9090", cfg.MetricsAddr)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proviso.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_currency: EUR\nlog_format: text\n"), 0o600))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "EUR", cfg.DefaultCurrency)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, 12, cfg.TrailingWindowMonths)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proviso.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_format: text\n"), 0o600))

	fs := pflag.NewFlagSet("proviso", pflag.ContinueOnError)
	fs.String("log_format", "json", "log format")
	require.NoError(t, fs.Parse([]string{"--log_format=json"}))

	cfg, err := config.Load(path, fs)
	require.NoError(t, err)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := config.Load("/nonexistent/proviso.yaml", nil)
	require.Error(t, err)
}
