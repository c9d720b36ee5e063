package synth

import (
	"testing"

	"github.com/clawdaw/clawdaw/internal/flatten"
)

func TestRenderDrumsPeakWithinLimit(t *testing.T) {
	notes := []flatten.FlatNote{
		{Start: 0, Duration: 100, Pitch: 36, Velocity: 127, Chance: 1, Accent: 1},
		{Start: 0, Duration: 100, Pitch: 38, Velocity: 127, Chance: 1, Accent: 1},
	}
	buf := RenderDrums(notes, 44100, 44100)
	// Samples are float32, so the limiter's ceiling is float32(0.98).
	if buf.Peak() > float64(float32(0.98)) {
		t.Errorf("peak = %f, want <= 0.98", buf.Peak())
	}
}

func TestPluginRegistryHasBuiltins(t *testing.T) {
	for _, id := range []string{"synth.basic", "pluck.karplus", "noise.pad"} {
		if _, ok := Registry[id]; !ok {
			t.Errorf("missing built-in instrument %q", id)
		}
	}
}

func TestSynthBasicIsDeterministic(t *testing.T) {
	notes := []flatten.FlatNote{{Start: 0, Duration: 2000, Pitch: 60, Velocity: 100, Chance: 1, Accent: 1}}
	inst := Registry["synth.basic"]
	params := inst.Presets()["default"]

	b1, err := inst.Render(notes, params, 44100, 2000, 42)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b2, err := inst.Render(notes, params, 44100, 2000, 42)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i := range b1.Samples {
		if b1.Samples[i] != b2.Samples[i] {
			t.Fatalf("synth.basic not deterministic at sample %d", i)
		}
	}
}

func TestCapPolyphonyDropsExcessVoices(t *testing.T) {
	notes := make([]flatten.FlatNote, 0, 20)
	for i := 0; i < 20; i++ {
		notes = append(notes, flatten.FlatNote{Start: 0, Duration: 1000, Pitch: 60 + i, Velocity: 100, Chance: 1, Accent: 1})
	}
	out := capPolyphony(notes, 8)
	if len(out) != 8 {
		t.Errorf("capPolyphony kept %d voices, want 8", len(out))
	}
}
