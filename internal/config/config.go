// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Package config loads cmd/proviso's CLI configuration by layering
// defaults, an optional YAML file, and command-line flags, using koanf.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the CLI's resolved configuration after the defaults < file <
// flags layering.
type Config struct {
	// DefaultCurrency is the configured ISO currency code, "USD" unless
	// overridden. It is loaded but not read elsewhere in the module; the
	// lexer assigns currency codes to literals on its own.
	DefaultCurrency string `koanf:"default_currency"`
	// TrailingWindowMonths is the configured trailing-window width in
	// months, 12 unless overridden. It is loaded but not read elsewhere in
	// the module; eval.Overlay has no window setting.
	TrailingWindowMonths int `koanf:"trailing_window_months"`
	// MetricsAddr is the listen address for `proviso serve`'s
	// internal/observability server.
	MetricsAddr string `koanf:"metrics_addr"`
	// LogFormat is "json" or "text", passed to internal/logging.Setup.
	LogFormat string `koanf:"log_format"`
}

func defaults() map[string]any {
	return map[string]any{
		"default_currency":       "USD",
		"trailing_window_months": 12,
		"metrics_addr":           "127.0.0.1:9090",
		"log_format":             "json",
	}
}

// Load resolves configuration from, in increasing priority: built-in
// defaults, the YAML file at configPath (skipped if configPath is empty; a
// file that cannot be loaded is an error), and flags already parsed onto fs.
func Load(configPath string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.In("config").Hint("failed to load defaults").Wrap(err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, oops.In("config").With("path", configPath).Hint("failed to load config file").Wrap(err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.In("config").Hint("failed to load flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.In("config").Hint("failed to unmarshal configuration").Wrap(err)
	}
	return &cfg, nil
}
