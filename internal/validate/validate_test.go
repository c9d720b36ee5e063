package validate

import (
	"testing"

	"github.com/clawdaw/clawdaw/internal/model"
)

func TestMigrateIdempotent(t *testing.T) {
	p := model.NewProject("demo", 128)
	p.Tracks = append(p.Tracks, model.NewTrack("Drums", 0))

	Migrate(p)
	if !Idempotent(p) {
		t.Fatalf("Migrate(Migrate(p)) != Migrate(p)")
	}
}

func TestClampTempoAndPPQ(t *testing.T) {
	p := model.NewProject("demo", 9999)
	p.PPQ = 1
	Migrate(p)

	if p.TempoBPM != 400 {
		t.Errorf("tempo = %d, want clamped to 400", p.TempoBPM)
	}
	if p.PPQ != 24 {
		t.Errorf("ppq = %d, want clamped to 24", p.PPQ)
	}
}

func TestLoopRegionClearedWhenEndNotAfterStart(t *testing.T) {
	p := model.NewProject("demo", 120)
	start, end := 100, 100
	p.LoopStart, p.LoopEnd = &start, &end

	Migrate(p)

	if p.LoopStart != nil || p.LoopEnd != nil {
		t.Errorf("expected loop region to be cleared, got [%v, %v]", p.LoopStart, p.LoopEnd)
	}
}

func TestChannelsForcedUnique(t *testing.T) {
	p := model.NewProject("demo", 120)
	a := model.NewTrack("A", 0)
	b := model.NewTrack("B", 0)
	p.Tracks = append(p.Tracks, a, b)

	Migrate(p)

	if !CheckChannelsUnique(p) {
		t.Errorf("channels not unique after migration: %d, %d", a.Channel, b.Channel)
	}
}

func TestPatternLengthZeroRejected(t *testing.T) {
	p := model.NewProject("demo", 120)
	tr := model.NewTrack("Drums", 0)
	tr.Patterns["bad"] = &model.Pattern{Length: 0}
	p.Tracks = append(p.Tracks, tr)

	Migrate(p)

	if _, ok := tr.Patterns["bad"]; ok {
		t.Errorf("expected zero-length pattern to be dropped")
	}
}

func TestNoteVelocityAlwaysInRange(t *testing.T) {
	p := model.NewProject("demo", 120)
	tr := model.NewTrack("Lead", 0)
	tr.Notes = append(tr.Notes, &model.Note{Start: -5, Duration: 0, Pitch: 200, Velocity: 999})
	p.Tracks = append(p.Tracks, tr)

	Migrate(p)

	n := tr.Notes[0]
	if n.Start < 0 {
		t.Errorf("start = %d, want >= 0", n.Start)
	}
	if n.Duration < 1 {
		t.Errorf("duration = %d, want >= 1", n.Duration)
	}
	if n.Pitch < 0 || n.Pitch > 127 {
		t.Errorf("pitch = %d, out of range", n.Pitch)
	}
	if n.Velocity < 1 || n.Velocity > 127 {
		t.Errorf("velocity = %d, out of range", n.Velocity)
	}
}

func TestTickAboveBoundSnaps(t *testing.T) {
	if got := clampTick(20_000_000); got != maxTick {
		t.Errorf("clampTick overflow = %d, want %d", got, maxTick)
	}
}
