// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proviso-lang/proviso/internal/snapshot"
)

func TestParse_YAML(t *testing.T) {
	doc := []byte(`
values:
  TotalDebt: 400
  EBITDA: 100
trailing:
  EBITDA: 95
series:
  Capex: [10, 20, 30]
utilizations:
  RP: 5000000
`)
	snap, err := snapshot.Parse(doc, ".yaml")
	require.NoError(t, err)

	v, ok := snap.Field("TotalDebt")
	require.True(t, ok)
	require.Equal(t, 400.0, v)

	tv, ok := snap.TrailingField("EBITDA")
	require.True(t, ok)
	require.Equal(t, 95.0, tv)

	sum, ok := snap.SeriesSum("Capex")
	require.True(t, ok)
	require.Equal(t, 60.0, sum)

	util, ok := snap.Utilization("RP")
	require.True(t, ok)
	require.Equal(t, 5000000.0, util)
}

func TestParse_JSON(t *testing.T) {
	doc := []byte(`{"values": {"EBITDA": 50000000}}`)
	snap, err := snapshot.Parse(doc, ".json")
	require.NoError(t, err)

	v, ok := snap.Field("EBITDA")
	require.True(t, ok)
	require.Equal(t, 50000000.0, v)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := snapshot.Parse([]byte("not: valid: yaml: :"), ".yaml")
	require.Error(t, err)
}

func TestLoad_ReadsFileByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "period.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"values": {"TotalDebt": 400}}`), 0o600))

	snap, err := snapshot.Load(path)
	require.NoError(t, err)
	v, ok := snap.Field("TotalDebt")
	require.True(t, ok)
	require.Equal(t, 400.0, v)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := snapshot.Load("/nonexistent/path/snapshot.yaml")
	require.Error(t, err)
}
