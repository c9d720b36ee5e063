package generator

import "math/rand"

// VariationSpec picks one of a handful of pre-built variants per part,
// each in [0,3] (grounded on genre_packs/variation.py's VariationSpec).
type VariationSpec struct {
	DrumVariant    int
	BassVariant    int
	HarmonyVariant int
	LeadVariant    int
}

// VariationEngine derives a deterministic VariationSpec per attempt from a
// base seed: a given (seed, attempt) pair always yields the same draw, and
// different attempts at the same prompt usually, though not always, land
// on different combinations.
type VariationEngine struct {
	seed int64
}

// NewVariationEngine builds an engine rooted at seed.
func NewVariationEngine(seed int64) VariationEngine {
	return VariationEngine{seed: seed}
}

// Spec derives the variation for a given attempt number, matching
// genre_packs/variation.py's Random((seed+1)*1_000_003 + attempt*97) then
// four sequential randrange(0,4) draws in drum/bass/harmony/lead order.
func (e VariationEngine) Spec(attempt int) VariationSpec {
	key := (e.seed+1)*1_000_003 + int64(attempt)*97
	r := rand.New(rand.NewSource(key))
	return VariationSpec{
		DrumVariant:    r.Intn(4),
		BassVariant:    r.Intn(4),
		HarmonyVariant: r.Intn(4),
		LeadVariant:    r.Intn(4),
	}
}
