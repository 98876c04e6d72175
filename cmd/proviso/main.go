// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Command proviso parses, validates, evaluates, and renders ProViso
// credit-agreement documents, and hosts those operations as a
// long-running service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
