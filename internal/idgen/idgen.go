// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Package idgen generates sortable unique identifiers for correlating
// evaluation runs, drift reports, and round-trip checks across logs.
package idgen

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// New generates a new ULID string.
func New() string {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
