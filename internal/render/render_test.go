package render

import (
	"context"
	"strings"
	"testing"

	"github.com/clawdaw/clawdaw/internal/external"
	"github.com/clawdaw/clawdaw/internal/mixgraph"
	"github.com/clawdaw/clawdaw/internal/model"
	"github.com/clawdaw/clawdaw/internal/wavio"
)

func intPtr(v int) *int { return &v }

func TestClassify(t *testing.T) {
	cases := []struct {
		track *model.Track
		want  Category
	}{
		{&model.Track{Sampler: model.SamplerDrums}, CategorySamplerDrums},
		{&model.Track{Sampler: model.Sampler808}, CategorySampler808},
		{&model.Track{Instrument: &model.InstrumentSpec{ID: "synth.basic"}}, CategoryInstrument},
		{&model.Track{SamplePack: &model.SamplePackSpec{Path: "x"}}, CategorySamplePack},
		{&model.Track{}, CategorySynthless},
	}
	for _, c := range cases {
		if got := Classify(c.track); got != c.want {
			t.Errorf("Classify(%+v) = %v, want %v", c.track, got, c.want)
		}
	}
}

func TestRenderRegionPrefersLoopOverRenderRegion(t *testing.T) {
	p := &model.Project{
		LoopStart: intPtr(100), LoopEnd: intPtr(200),
		RenderStart: intPtr(0), RenderEnd: intPtr(1000),
	}
	s, e := RenderRegion(p)
	if s != 100 || e != 200 {
		t.Errorf("RenderRegion = (%d,%d), want (100,200)", s, e)
	}
}

func TestRenderRegionFallsBackToSongEnd(t *testing.T) {
	p := model.NewProject("x", 120)
	p.Tracks = append(p.Tracks, &model.Track{Notes: []*model.Note{{Start: 10, Duration: 20}}})
	s, e := RenderRegion(p)
	if s != 0 || e != 30 {
		t.Errorf("RenderRegion = (%d,%d), want (0,30)", s, e)
	}
}

func TestSliceProjectClampsAndShifts(t *testing.T) {
	p := model.NewProject("x", 120)
	tr := model.NewTrack("lead", 0)
	tr.Notes = []*model.Note{
		{Start: 50, Duration: 100, Pitch: 60, Velocity: 100, Chance: 1, Accent: 1}, // spans the window edge
		{Start: 500, Duration: 10, Pitch: 62, Velocity: 100, Chance: 1, Accent: 1}, // outside window
	}
	p.Tracks = append(p.Tracks, tr)

	out := SliceProject(p, 100, 300)
	if len(out.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(out.Tracks))
	}
	notes := out.Tracks[0].Notes
	if len(notes) != 1 {
		t.Fatalf("expected 1 note surviving the window, got %d", len(notes))
	}
	if notes[0].Start != 0 || notes[0].Duration != 50 {
		t.Errorf("clamped/shifted note = start=%d dur=%d, want start=0 dur=50", notes[0].Start, notes[0].Duration)
	}
}

func TestConvertSamplerDrumsToGMSetsChannel10(t *testing.T) {
	p := model.NewProject("x", 120)
	tr := model.NewTrack("drums", 0)
	tr.Sampler = model.SamplerDrums
	tr.DrumKit = "trap_hard"
	tr.Notes = []*model.Note{{Start: 0, Duration: 10, Velocity: 100, Role: "kick", Chance: 1, Accent: 1}}
	p.Tracks = append(p.Tracks, tr)

	out := ConvertSamplerDrumsToGM(p)
	got := out.Tracks[0]
	if got.Sampler != model.SamplerNone || got.Channel != 9 || got.DrumKit != "gm_basic" {
		t.Fatalf("unexpected converted track: %+v", got)
	}
	if len(got.Notes) == 0 {
		t.Fatalf("expected expanded notes, got none")
	}
}

func TestTransientShapeClampsToUnitRange(t *testing.T) {
	buf := wavio.NewStereo(1000, 50)
	for i := range buf.Samples {
		buf.Samples[i] = 0.9
	}
	TransientShape(buf, 5.0, 0.0, 1000)
	for _, s := range buf.Samples {
		if s > 1 || s < -1 {
			t.Fatalf("sample out of range: %v", s)
		}
	}
}

func TestMixViaGraphWithBusesWritesEachMappedOutput(t *testing.T) {
	media := &external.MediaTool{Bin: "ffmpeg", Run: func(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
		for i, a := range args {
			if a == "-map" && i+2 < len(args) {
				path := args[i+2]
				buf := wavio.NewStereo(44100, 10)
				if err := wavio.WriteFile(path, buf); err != nil {
					return nil, nil, err
				}
			}
		}
		return nil, nil, nil
	}}
	opts := Options{Media: media, WorkDir: t.TempDir()}

	spec := &model.MixSpec{
		Tracks: map[int]*model.TrackFX{},
		Busses: map[string]*model.BusFX{"drums": {}},
	}
	tracks := []mixgraph.TrackMeta{{Index: 0, Name: "kick", Bus: "drums"}}

	mixPath, busPaths, err := mixViaGraph(context.Background(), opts, spec,
		tracks, map[int]string{0: "stem0.wav"}, true)
	if err != nil {
		t.Fatalf("mixViaGraph: %v", err)
	}
	if mixPath == "" {
		t.Fatalf("expected non-empty mix path")
	}
	if len(busPaths) != 1 || busPaths["drums"] == "" {
		t.Fatalf("expected a bus path for drums, got %v", busPaths)
	}
}

func TestMixAmixBuildsAmixFilterOverOrderedStems(t *testing.T) {
	var gotArgs []string
	media := &external.MediaTool{Bin: "ffmpeg", Run: func(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
		gotArgs = args
		return nil, nil, nil
	}}
	opts := Options{Media: media, WorkDir: t.TempDir()}

	_, err := mixAmix(context.Background(), opts, map[int]string{1: "b.wav", 0: "a.wav"})
	if err != nil {
		t.Fatalf("mixAmix: %v", err)
	}
	found := false
	for _, a := range gotArgs {
		if strings.Contains(a, "amix=inputs=2:normalize=0,alimiter=limit=0.98[out]") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected amix filter in args, got %v", gotArgs)
	}
}
