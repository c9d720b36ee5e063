package generator

import (
	"testing"

	"github.com/clawdaw/clawdaw/internal/model"
)

// buildHouseProject mirrors what gen_drum_macros would leave behind for the
// "house" stylepack: a project whose drums track has a 2-bar "d" pattern
// with kicks on every 4th 16th-step.
func buildHouseProject() *model.Project {
	p := model.NewProject("house demo", 124)
	p.SwingPercent = 0
	for _, name := range []string{"drums", "bass", "keys"} {
		p.Tracks = append(p.Tracks, model.NewTrack(name, len(p.Tracks)))
	}
	drums := p.Tracks[0]
	pat := &model.Pattern{Name: "d", Length: p.PPQ * 4 * 2}
	pat.Notes = GenerateDrumBars(DrumStyleHouse, 2, p.PPQ, 0.82, 0)
	drums.Patterns["d"] = pat

	bass := p.Tracks[1]
	bassPat := &model.Pattern{Name: "b", Length: p.PPQ * 4 * 2}
	bassPat.Notes = GenerateBassFollow([]int{36, 36}, p.PPQ, 0.25, 0)
	bass.Patterns["b"] = bassPat

	return p
}

func TestHouseGenrePackAccepts(t *testing.T) {
	pack, ok := GetGenrePack(PackHouse)
	if !ok {
		t.Fatal("expected house genre pack to be registered")
	}
	p := buildHouseProject()
	if err := pack.Accept(p); err != nil {
		t.Fatalf("expected house acceptance to pass, got: %v", err)
	}
}

func TestHouseGenrePackRejectsMissingKick(t *testing.T) {
	pack, _ := GetGenrePack(PackHouse)
	p := buildHouseProject()
	p.Tracks[0].Patterns["d"].Notes = nil
	if err := pack.Accept(p); err == nil {
		t.Fatal("expected acceptance to fail with an empty drums pattern")
	}
}
