package quality

import (
	"testing"

	"github.com/clawdaw/clawdaw/internal/meter"
	"github.com/clawdaw/clawdaw/internal/model"
)

func float64p(v float64) *float64 { return &v }

func TestClassifyTrackRecognizesCoreRoles(t *testing.T) {
	cases := []struct {
		name     string
		wantRole string
		wantBus  string
	}{
		{"Kick 1", "drums", "drums"},
		{"Sub Bass", "bass", "bass"},
		{"Lead Vox", "vox", "vox"},
		{"Pluck Arp", "pluck", "music"},
		{"Warm Pad", "pad", "music"},
		{"Riser FX", "fx", "music"},
		{"Mystery Synth", "keys", "music"},
		{"Untitled", "music", "music"},
	}
	for _, c := range cases {
		role := ClassifyTrack(c.name)
		if role.Role != c.wantRole || role.Bus != c.wantBus {
			t.Errorf("ClassifyTrack(%q) = %+v, want role=%s bus=%s", c.name, role, c.wantRole, c.wantBus)
		}
	}
}

func TestPickKickSourceIndexPrefersDrumCapableKick(t *testing.T) {
	tracks := []*model.Track{
		{Name: "Pad"},
		{Name: "Kick", Sampler: model.SamplerDrums},
		{Name: "Snare", Sampler: model.SamplerDrums},
	}
	idx, ok := PickKickSourceIndex(tracks)
	if !ok || idx != 1 {
		t.Fatalf("PickKickSourceIndex = (%d,%v), want (1,true)", idx, ok)
	}
}

func TestPickKickSourceIndexFallsBackToAnyKickNamedTrack(t *testing.T) {
	tracks := []*model.Track{{Name: "Pad"}, {Name: "kick_one_shot"}}
	idx, ok := PickKickSourceIndex(tracks)
	if !ok || idx != 1 {
		t.Fatalf("PickKickSourceIndex = (%d,%v), want (1,true)", idx, ok)
	}
}

func newTestProject() *model.Project {
	p := model.NewProject("test", 120)
	kick := model.NewTrack("Kick", 0)
	kick.Sampler = model.SamplerDrums
	kick.DrumKit = "trap_hard"
	kick.Notes = []*model.Note{{Start: 0, Duration: 10, Velocity: 100, Role: "kick", Chance: 1, Accent: 1}}

	bass := model.NewTrack("Sub Bass", 1)
	bass.Notes = []*model.Note{{Start: 0, Duration: 480, Pitch: 36, Velocity: 100, Chance: 1, Accent: 1}}

	lead := model.NewTrack("Lead Synth", 2)
	lead.Notes = []*model.Note{{Start: 0, Duration: 240, Pitch: 60, Velocity: 90, Chance: 1, Accent: 1}}

	p.Tracks = []*model.Track{kick, bass, lead}
	return p
}

func TestBuildMixSpecAddsKickToBassSidechain(t *testing.T) {
	presets, err := DefaultPresets()
	if err != nil {
		t.Fatalf("DefaultPresets: %v", err)
	}
	preset := presets["edm_streaming"]

	p := newTestProject()
	raw := BuildMixSpec(p, preset)
	spec := raw.Normalize()

	if len(spec.Sidechain) != 1 {
		t.Fatalf("expected exactly 1 sidechain rule, got %d: %+v", len(spec.Sidechain), spec.Sidechain)
	}
	rule := spec.Sidechain[0]
	if rule.Src != 0 || rule.Dst != 1 || rule.SrcRole != "kick" {
		t.Errorf("unexpected sidechain rule: %+v", rule)
	}
}

func TestPrepareMixSpecAssignsTrackBusses(t *testing.T) {
	presets, _ := DefaultPresets()
	preset := presets["edm_streaming"]
	p := newTestProject()

	PrepareMixSpec(p, preset)

	if p.Tracks[0].Bus != "drums" || p.Tracks[1].Bus != "bass" || p.Tracks[2].Bus != "music" {
		t.Fatalf("unexpected bus assignment: %s %s %s", p.Tracks[0].Bus, p.Tracks[1].Bus, p.Tracks[2].Bus)
	}
}

func TestValidateMixSpecPassesOnPreparedSpec(t *testing.T) {
	presets, _ := DefaultPresets()
	preset := presets["edm_streaming"]
	p := newTestProject()

	raw := PrepareMixSpec(p, preset)
	p.Mix = raw
	spec := raw.Normalize()

	ok, checks := ValidateMixSpec(p, spec)
	if !ok {
		t.Fatalf("expected prepared edm_streaming spec to validate, checks=%v", checks)
	}
}

func TestValidateMixSpecFailsWithoutSidechain(t *testing.T) {
	p := newTestProject()
	spec := &model.MixSpec{
		Tracks: map[int]*model.TrackFX{},
		Busses: map[string]*model.BusFX{
			"bass":  {MonoBelowHz: float64p(140)},
			"music": {Comp: &model.CompFX{ThresholdDB: -16, Ratio: 2}},
		},
		Master: &model.MasterFX{MonoBelowHz: float64p(120)},
	}
	ok, checks := ValidateMixSpec(p, spec)
	if ok {
		t.Fatalf("expected validation to fail without a kick->bass sidechain rule, checks=%v", checks)
	}
}

func TestApplySectionGainScalesVelocityInMatchedSection(t *testing.T) {
	p := newTestProject()
	p.Sections = []*model.Section{{Name: "Breakdown 1", Start: 0, Length: 480}}

	ApplySectionGain(p, false, false)

	lead := p.Tracks[2]
	if lead.Notes[0].Velocity != scaleVelocity(90, 0.75) {
		t.Errorf("lead velocity = %d, want %d", lead.Notes[0].Velocity, scaleVelocity(90, 0.75))
	}
	kick := p.Tracks[0]
	if kick.Notes[0].Velocity != 100 {
		t.Errorf("expected drums excluded from section gain by default, velocity=%d", kick.Notes[0].Velocity)
	}
}

func TestGateMasterPassesWithinDefaultThresholds(t *testing.T) {
	presets, _ := DefaultPresets()
	preset := presets["edm_streaming"]
	rep := &meter.Report{
		IntegratedLUFS:    float64p(-14.0),
		TruePeakDBTP:      float64p(-1.5),
		CrestFactorDB:     float64p(9.0),
		StereoCorrelation: float64p(0.5),
		StereoBalanceDB:   float64p(0.1),
		DCOffset:          float64p(0.001),
	}
	ok, checks := GateMaster(rep, preset, 6.0)
	if !ok {
		t.Fatalf("expected master gate to pass, checks=%v", checks)
	}
}

func TestGateMasterFailsOnHotTruePeak(t *testing.T) {
	presets, _ := DefaultPresets()
	preset := presets["edm_streaming"]
	rep := &meter.Report{
		IntegratedLUFS:    float64p(-14.0),
		TruePeakDBTP:      float64p(-0.2),
		CrestFactorDB:     float64p(9.0),
		StereoCorrelation: float64p(0.5),
		StereoBalanceDB:   float64p(0.1),
		DCOffset:          float64p(0.001),
	}
	ok, checks := GateMaster(rep, preset, 6.0)
	if ok {
		t.Fatalf("expected master gate to fail on a hot true peak, checks=%v", checks)
	}
}

func TestGateStemsFlagsExcessiveStereoBalance(t *testing.T) {
	presets, _ := DefaultPresets()
	preset := presets["edm_streaming"]
	reports := map[string]*meter.Report{
		"kick.wav": {
			TruePeakDBTP:      float64p(-6.0),
			PeakDBFS:          float64p(-6.0),
			CrestFactorDB:     float64p(8.0),
			StereoCorrelation: float64p(0.9),
			StereoBalanceDB:   float64p(10.0),
			DCOffset:          float64p(0.0),
		},
	}
	ok, checks := GateStems(reports, preset, false)
	if ok {
		t.Fatalf("expected stem gate to fail on excessive stereo balance, checks=%v", checks)
	}
}

func TestRoleFromFilenameStripsDirAndExtension(t *testing.T) {
	if got := RoleFromFilename("stems/Sub Bass.wav"); got != "bass" {
		t.Errorf("RoleFromFilename = %q, want bass", got)
	}
}
