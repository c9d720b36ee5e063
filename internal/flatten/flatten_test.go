package flatten

import (
	"testing"

	"github.com/clawdaw/clawdaw/internal/model"
)

func TestSwungMatchesSwingScenario(t *testing.T) {
	p := model.NewProject("demo", 120)
	p.PPQ = 480
	p.SwingPercent = 50

	in := []int{0, 120, 240, 360}
	want := []int{0, 180, 240, 420}
	for i, tick := range in {
		if got := swung(p, tick); got != want[i] {
			t.Errorf("swung(%d) = %d, want %d", tick, got, want[i])
		}
	}
}

func TestResolvePatternNameAppliesVariationWithinSection(t *testing.T) {
	sections := []*model.Section{{Name: "chorus", Start: 1920, Length: 1920}}
	variations := []*model.Variation{
		{Section: "chorus", TrackIndex: 0, SrcPattern: "verse_beat", DstPattern: "chorus_beat"},
	}

	got := ResolvePatternName("verse_beat", 0, 2000, sections, variations)
	if got != "chorus_beat" {
		t.Errorf("ResolvePatternName = %q, want chorus_beat", got)
	}

	got = ResolvePatternName("verse_beat", 0, 100, sections, variations)
	if got != "verse_beat" {
		t.Errorf("outside section, ResolvePatternName = %q, want verse_beat (unchanged)", got)
	}
}

func TestExpandDrumRolesTrapHardSnare(t *testing.T) {
	tr := model.NewTrack("Drums", 0)
	tr.DrumKit = "trap_hard"

	notes := []FlatNote{{Start: 0, Duration: 10, Velocity: 100, role: "snare"}}
	out := expandDrumRoles(notes, tr)

	if len(out) != 2 {
		t.Fatalf("expected 2 expanded layers, got %d", len(out))
	}
	if out[0].Pitch != 38 || out[0].Velocity != 100 {
		t.Errorf("layer0 = pitch %d vel %d, want 38/100", out[0].Pitch, out[0].Velocity)
	}
	if out[1].Pitch != 40 || out[1].Velocity != 65 {
		t.Errorf("layer1 = pitch %d vel %d, want 40/65", out[1].Pitch, out[1].Velocity)
	}
}

func TestExpandDrumRolesUnknownRoleFallsBackToPitch(t *testing.T) {
	tr := model.NewTrack("Drums", 0)
	notes := []FlatNote{{Start: 0, Duration: 10, Pitch: 77, Velocity: 90, role: "cowbell"}}
	out := expandDrumRoles(notes, tr)
	if len(out) != 1 || out[0].Pitch != 77 {
		t.Fatalf("expected fallback to original pitch 77, got %+v", out)
	}
}

func TestGateChanceIsDeterministic(t *testing.T) {
	tr := model.NewTrack("Perc", 0)
	tr.Humanize.Seed = 42

	notes := []FlatNote{{Start: 240, Pitch: 56, Velocity: 90, Chance: 0.5}}

	out1 := gateChance(notes, tr, 0)
	out2 := gateChance(notes, tr, 0)

	if len(out1) != len(out2) {
		t.Fatalf("gateChance not deterministic across runs: %d vs %d", len(out1), len(out2))
	}
}

func TestGateChanceDropsMutedNotes(t *testing.T) {
	tr := model.NewTrack("Perc", 0)
	notes := []FlatNote{{Start: 0, Pitch: 60, Velocity: 100, Chance: 1.0, Mute: true}}
	out := gateChance(notes, tr, 0)
	if len(out) != 0 {
		t.Errorf("expected muted note to be dropped, got %d notes", len(out))
	}
}

func TestFlattenArrangementSkipsMissingPattern(t *testing.T) {
	p := model.NewProject("demo", 120)
	tr := model.NewTrack("Drums", 0)
	tr.Clips = []*model.Clip{{Pattern: "missing", Start: 0, Repeats: 1}}
	p.Tracks = append(p.Tracks, tr)

	notes := Flatten(p, 0)
	if len(notes) != 0 {
		t.Errorf("expected no notes for a clip referencing a missing pattern, got %d", len(notes))
	}
}

func TestFlattenLegacyOrdersNotesByStart(t *testing.T) {
	p := model.NewProject("demo", 120)
	tr := model.NewTrack("Lead", 0)
	tr.Notes = []*model.Note{
		model.NewNote(480, 120, 64, 100),
		model.NewNote(0, 120, 60, 100),
	}
	p.Tracks = append(p.Tracks, tr)

	notes := Flatten(p, 0)
	if len(notes) != 2 || notes[0].Start != 0 || notes[1].Start != 480 {
		t.Fatalf("expected notes sorted by start, got %+v", notes)
	}
}
