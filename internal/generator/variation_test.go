package generator

import "testing"

func TestVariationEngineDeterministic(t *testing.T) {
	e := NewVariationEngine(7)
	a := e.Spec(3)
	b := e.Spec(3)
	if a != b {
		t.Fatalf("Spec(3) not stable across calls: %+v vs %+v", a, b)
	}
	for _, v := range []int{a.DrumVariant, a.BassVariant, a.HarmonyVariant, a.LeadVariant} {
		if v < 0 || v > 3 {
			t.Fatalf("variant out of [0,3] range: %d", v)
		}
	}
}

func TestVariationEngineDiffersByAttempt(t *testing.T) {
	e := NewVariationEngine(7)
	specs := map[VariationSpec]bool{}
	for attempt := 0; attempt < 8; attempt++ {
		specs[e.Spec(attempt)] = true
	}
	if len(specs) < 2 {
		t.Fatal("expected attempts to explore more than one distinct variation")
	}
}
