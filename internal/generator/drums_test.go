package generator

import (
	"testing"

	"github.com/clawdaw/clawdaw/internal/model"
)

func TestGenerateDrumBarsHouseKickIsUnconditional(t *testing.T) {
	for _, seed := range []int64{0, 1, 99} {
		notes := GenerateDrumBars(DrumStyleHouse, 2, 480, 0.82, seed)
		for _, step := range []int{0, 4, 8, 12, 16, 20, 24, 28} {
			if !hasNoteAtStep(notes, kickPitch, step, 480) {
				t.Fatalf("seed %d: expected house kick at step %d", seed, step)
			}
		}
	}
}

func TestGenerateDrumBarsTrapSnareBackbeat(t *testing.T) {
	notes := GenerateDrumBars(DrumStyleTrap, 2, 480, 0.8, 7)
	for _, step := range []int{8, 24} {
		if !hasNoteAtStep(notes, snarePitch, step, 480) {
			t.Fatalf("expected trap snare at step %d", step)
		}
	}
}

func TestGenerateDrumBarsDeterministic(t *testing.T) {
	a := GenerateDrumBars(DrumStyleBoomBap, 4, 480, 0.7, 42)
	b := GenerateDrumBars(DrumStyleBoomBap, 4, 480, 0.7, 42)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic note count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Start != b[i].Start || a[i].Pitch != b[i].Pitch || a[i].Velocity != b[i].Velocity {
			t.Fatalf("note %d differs between identical-seed runs", i)
		}
	}
}

func hasNoteAtStep(notes []*model.Note, pitch, step, ppq int) bool {
	stepTicks := ppq / 4
	for _, n := range notes {
		if n.Pitch == pitch && n.Start/stepTicks == step {
			return true
		}
	}
	return false
}
