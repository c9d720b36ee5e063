package sampler

import (
	"testing"

	"github.com/clawdaw/clawdaw/internal/flatten"
	"github.com/clawdaw/clawdaw/internal/model"
)

func TestDbToLinearZeroIsUnity(t *testing.T) {
	if got := dbToLinear(0); got != 1.0 {
		t.Errorf("dbToLinear(0) = %f, want 1.0", got)
	}
}

func TestCapPolyphonyLimitsConcurrentVoices(t *testing.T) {
	notes := make([]flatten.FlatNote, 0, 20)
	for i := 0; i < 20; i++ {
		notes = append(notes, flatten.FlatNote{Start: 0, Duration: 1000, Pitch: 36, Velocity: 100, Chance: 1, Accent: 1})
	}
	out := capPolyphony(notes, 16)
	if len(out) != 16 {
		t.Errorf("capPolyphony kept %d, want 16", len(out))
	}
}

func TestRenderMissingRoleProducesSilence(t *testing.T) {
	pack := &model.SamplePack{ID: "test", Root: "/nonexistent", Roles: map[string][]model.SampleEntry{}}
	notes := []flatten.FlatNote{{Start: 0, Duration: 100, Pitch: 36, Velocity: 100, Chance: 1, Accent: 1}}

	buf, err := Render(pack, notes, 44100, 4410, 1, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.Peak() != 0 {
		t.Errorf("expected silent buffer for unmapped role, got peak %f", buf.Peak())
	}
}
