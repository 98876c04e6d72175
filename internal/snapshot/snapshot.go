// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

// Package snapshot loads a financial-data snapshot from a JSON or YAML file
// on disk. This is the only package in the module that performs file I/O on
// behalf of the core; internal/lang/eval only ever sees the eval.Snapshot
// interface.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/proviso-lang/proviso/internal/lang/eval"
)

// document is the on-disk shape, decoded through its yaml/json tags and
// then copied map by map into an eval.MapSnapshot.
type document struct {
	Values       map[string]float64   `yaml:"values" json:"values"`
	Trailing     map[string]float64   `yaml:"trailing" json:"trailing"`
	Series       map[string][]float64 `yaml:"series" json:"series"`
	Utilizations map[string]float64   `yaml:"utilizations" json:"utilizations"`
}

// Load reads a financial snapshot from path. Format is chosen by file
// extension: ".json" decodes as JSON, anything else (".yaml", ".yml", or no
// extension) decodes as YAML.
func Load(path string) (*eval.MapSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.In("snapshot").With("path", path).Hint("failed to read snapshot file").Wrap(err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes raw snapshot bytes. ext is a file extension (".json",
// ".yaml", ...); any value other than ".json" is treated as YAML, since
// YAML is a superset of JSON and is the format library financial extracts
// are usually authored in.
func Parse(data []byte, ext string) (*eval.MapSnapshot, error) {
	var doc document
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, oops.In("snapshot").Hint("invalid snapshot document").Wrap(err)
	}

	snap := eval.NewMapSnapshot()
	for k, v := range doc.Values {
		snap.Values[k] = v
	}
	for k, v := range doc.Trailing {
		snap.Trailing[k] = v
	}
	for k, v := range doc.Series {
		snap.Series[k] = v
	}
	for k, v := range doc.Utilizations {
		snap.Utilizations[k] = v
	}
	return snap, nil
}
