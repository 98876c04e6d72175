// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/proviso-lang/proviso/internal/observability"
)

// cliMetrics records operation outcomes for one-shot CLI invocations. Its
// registry is private to the process: a one-shot invocation exits before
// anything could scrape it, so this exists to keep every command's
// Observe call genuinely exercised rather than sitting unwired, and to
// share the same recording path `serve` uses when it runs the same
// operations as a long-lived process.
var cliMetrics = observability.NewMetrics(prometheus.NewRegistry())

// observe runs fn, recording its outcome and duration under operation.
func observe(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	cliMetrics.Observe(operation, outcome, time.Since(start))
	return err
}
