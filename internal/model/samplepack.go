package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SampleEntry is one weighted sample variant for a role.
type SampleEntry struct {
	RelPath string  `json:"path"`
	GainDB  float64 `json:"gain_db"`
	Weight  float64 `json:"weight"`
}

// SamplePack is a set of roles mapped to weighted sample entries rooted at
// a filesystem directory.
type SamplePack struct {
	ID     string                   `json:"id"`
	Root   string                   `json:"root"`
	GainDB float64                  `json:"gain_db"`
	Roles  map[string][]SampleEntry `json:"roles"`
}

// SelectVariant deterministically picks one of role's weighted entries
// using rnd01, a caller-supplied value in [0,1) from a seeded PRNG —
// SamplePack never owns randomness itself (spec §5 PRNG discipline).
func (p *SamplePack) SelectVariant(role string, rnd01 float64) (SampleEntry, bool) {
	entries := p.Roles[role]
	if len(entries) == 0 {
		return SampleEntry{}, false
	}

	total := 0.0
	for _, e := range entries {
		w := e.Weight
		if w <= 0 {
			w = 1
		}
		total += w
	}
	if total <= 0 {
		return entries[0], true
	}

	target := rnd01 * total
	acc := 0.0
	for _, e := range entries {
		w := e.Weight
		if w <= 0 {
			w = 1
		}
		acc += w
		if target < acc {
			return e, true
		}
	}
	return entries[len(entries)-1], true
}

// LoadSamplePack reads a sample-pack manifest (spec §6.4-adjacent preset
// shape) from path. Root defaults to the manifest's own directory so packs
// are relocatable as a unit.
func LoadSamplePack(path string) (*SamplePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sample pack %s: %w", path, err)
	}
	var pack SamplePack
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse sample pack %s: %w", path, err)
	}
	if pack.Root == "" {
		pack.Root = filepath.Dir(path)
	}
	return &pack, nil
}
