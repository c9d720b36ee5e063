package script

import (
	"log/slog"
	"testing"

	"github.com/clawdaw/clawdaw/internal/config"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	cfg := config.Config{DataDir: t.TempDir(), SampleRate: 44100, MediaTool: "ffmpeg", SFRenderer: "fluidsynth"}
	return NewRuntime(cfg, slog.Default())
}

func TestTokenizeHandlesQuotedSegments(t *testing.T) {
	toks := tokenize(`add_track "lead synth" extra`)
	want := []string{"add_track", "lead synth", "extra"}
	if len(toks) != len(want) {
		t.Fatalf("tokenize() = %v, want %v", toks, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Fatalf("token %d = %q, want %q", i, toks[i], want[i])
		}
	}
}

func TestRunLinesBuildsProjectAndTrack(t *testing.T) {
	rt := newTestRuntime(t)
	err := rt.RunLines([]string{
		`new_project "Test Song" 120`,
		`add_track "Drums"`,
		`set_volume 0 90`,
		`new_pattern 0 d 2:0`,
		`gen_drums 0 d 2:0 house seed=0 density=0.8`,
		`place_pattern 0 d 0:0 1`,
	}, ".")
	if err != nil {
		t.Fatalf("RunLines failed: %v", err)
	}
	if rt.Project == nil {
		t.Fatal("expected a project to be built")
	}
	if len(rt.Project.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(rt.Project.Tracks))
	}
	if rt.Project.Tracks[0].Volume != 90 {
		t.Fatalf("volume = %d, want 90", rt.Project.Tracks[0].Volume)
	}
	pat := rt.Project.Tracks[0].Patterns["d"]
	if pat == nil || len(pat.Notes) == 0 {
		t.Fatal("expected gen_drums to populate pattern \"d\"")
	}
	if len(rt.Project.Tracks[0].Clips) != 1 {
		t.Fatalf("expected 1 clip from place_pattern, got %d", len(rt.Project.Tracks[0].Clips))
	}
}

func TestRunLinesStrictModeAbortsOnUnknownCommand(t *testing.T) {
	rt := newTestRuntime(t)
	err := rt.RunLines([]string{`new_project "X" 120`, `not_a_real_command`}, ".")
	if err == nil {
		t.Fatal("expected strict mode to abort on an unknown command")
	}
}

func TestRunLinesLenientModeCollectsWarnings(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Strict = false
	err := rt.RunLines([]string{`new_project "X" 120`, `not_a_real_command`}, ".")
	if err != nil {
		t.Fatalf("lenient mode should not return an error, got: %v", err)
	}
	if len(rt.Warnings) == 0 {
		t.Fatal("expected the unknown command to be recorded as a warning")
	}
}

func TestSelectNotesAndApplySelected(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.RunLines([]string{
		`new_project "X" 120`,
		`add_track "Lead"`,
		`new_pattern 0 m 1:0`,
		`add_note_pat 0 m 0:0 0:120 60 100`,
		`add_note_pat 0 m 0:120 0:120 64 40`,
		`select_notes 0 m velocity>=80`,
		`apply_selected mute`,
	}, "."); err != nil {
		t.Fatalf("RunLines failed: %v", err)
	}
	notes := rt.Project.Tracks[0].Patterns["m"].Notes
	if !notes[0].Mute {
		t.Error("expected the high-velocity note to be muted")
	}
	if notes[1].Mute {
		t.Error("expected the low-velocity note to remain unmuted")
	}
}
