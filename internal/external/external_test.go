package external

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestSoundFontRendererPropagatesRunnerError(t *testing.T) {
	r := &SoundFontRenderer{Bin: "fluidsynth", Logger: slog.Default(), Run: func(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
		return nil, []byte("boom"), errors.New("exit status 1")
	}}

	err := r.Render(context.Background(), "in.mid", "kit.sf2", "out.wav", 44100)
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
}

func TestMediaToolInvokeBuildsExpectedArgs(t *testing.T) {
	var gotArgs []string
	m := &MediaTool{Bin: "ffmpeg", Logger: slog.Default(), Run: func(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
		gotArgs = args
		return []byte("ok"), nil, nil
	}}

	if err := m.MixInputs(context.Background(), []string{"a.wav", "b.wav"}, "[0:a][1:a]amix[out]", "out", "mix.wav"); err != nil {
		t.Fatalf("MixInputs: %v", err)
	}
	if len(gotArgs) == 0 {
		t.Fatalf("expected non-empty args")
	}
}

func TestMediaToolMixInputsMultiMapsEachLabelSorted(t *testing.T) {
	var gotArgs []string
	m := &MediaTool{Bin: "ffmpeg", Logger: slog.Default(), Run: func(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
		gotArgs = args
		return nil, nil, nil
	}}

	err := m.MixInputsMulti(context.Background(), []string{"a.wav"}, "[0:a]anull[out];[0:a]anull[drums]",
		map[string]string{"out": "master.wav", "drums": "drums.wav"})
	if err != nil {
		t.Fatalf("MixInputsMulti: %v", err)
	}

	var mapIdx []int
	for i, a := range gotArgs {
		if a == "-map" {
			mapIdx = append(mapIdx, i)
		}
	}
	if len(mapIdx) != 2 {
		t.Fatalf("expected 2 -map flags, got %d in %v", len(mapIdx), gotArgs)
	}
	if gotArgs[mapIdx[0]+1] != "[drums]" || gotArgs[mapIdx[0]+2] != "drums.wav" {
		t.Errorf("expected drums mapped first (sorted), got %v", gotArgs)
	}
	if gotArgs[mapIdx[1]+1] != "[out]" || gotArgs[mapIdx[1]+2] != "master.wav" {
		t.Errorf("expected out mapped second (sorted), got %v", gotArgs)
	}
}
