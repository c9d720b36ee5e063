package mixgraph

import (
	"strings"
	"testing"

	"github.com/clawdaw/clawdaw/internal/model"
)

func TestCompileEmptySpecStillProducesMaster(t *testing.T) {
	tracks := []TrackMeta{{Index: 0, Name: "Drums"}, {Index: 1, Name: "Bass"}}
	stems := map[int]string{0: "0:a", 1: "1:a"}

	g, err := Compile(&model.MixSpec{Tracks: map[int]*model.TrackFX{}, Busses: map[string]*model.BusFX{}}, tracks, stems, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if g.MasterLabel == "" {
		t.Errorf("expected a non-empty master label")
	}
	if !strings.Contains(g.FilterComplex, "alimiter=limit=0.98") {
		t.Errorf("expected safety limiter in graph, got %q", g.FilterComplex)
	}
}

func TestInferBusHeuristic(t *testing.T) {
	cases := map[string]string{
		"Drums":     "drums",
		"Perc Loop": "drums",
		"808 Bass":  "bass",
		"Sub Bass":  "bass",
		"Lead Synth": "music",
	}
	for name, want := range cases {
		if got := inferBus(name); got != want {
			t.Errorf("inferBus(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestCompileAppliesSidechain(t *testing.T) {
	tracks := []TrackMeta{{Index: 0, Name: "Drums"}, {Index: 1, Name: "Bass"}}
	stems := map[int]string{0: "0:a", 1: "1:a"}

	spec := &model.MixSpec{
		Tracks: map[int]*model.TrackFX{},
		Busses: map[string]*model.BusFX{},
		Sidechain: []model.SidechainRule{
			{Src: 0, Dst: 1, ThresholdDB: -24, Ratio: 4, AttackMs: 5, ReleaseMs: 120},
		},
	}

	g, err := Compile(spec, tracks, stems, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(g.FilterComplex, "sidechaincompress") {
		t.Errorf("expected sidechaincompress filter in graph, got %q", g.FilterComplex)
	}
}

func TestCompileAllLabelsUnique(t *testing.T) {
	tracks := []TrackMeta{{Index: 0, Name: "Drums"}, {Index: 1, Name: "Bass"}, {Index: 2, Name: "Lead"}}
	stems := map[int]string{0: "0:a", 1: "1:a", 2: "2:a"}
	gdb := -3.0
	spec := &model.MixSpec{
		Tracks: map[int]*model.TrackFX{
			0: {GainDB: &gdb},
			2: {Sends: model.SendsFX{Reverb: 0.2}},
		},
		Busses: map[string]*model.BusFX{},
		Returns: model.ReturnsSpec{
			Reverb: model.ReverbReturn{PredelayMs: 20, Decay: 0.4},
		},
	}

	g, err := Compile(spec, tracks, stems, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if g.FilterComplex == "" {
		t.Fatalf("expected non-empty filter graph")
	}
	seen := map[string]bool{}
	for _, line := range strings.Split(g.FilterComplex, ";") {
		for strings.HasSuffix(line, "]") {
			open := strings.LastIndex(line, "[")
			if open < 0 {
				break
			}
			label := line[open+1 : len(line)-1]
			if seen[label] {
				t.Errorf("output label %q emitted more than once in %q", label, g.FilterComplex)
			}
			seen[label] = true
			line = line[:open]
		}
	}
}
