package generator

import "strings"

// TrackSound is how a role is realized: either a built-in sampler mode or
// a GM program, never both (grounded on prompt/palette.py's TrackSound).
type TrackSound struct {
	Sampler       string // "drums" | "808" | ""
	SamplerPreset string
	Program       int
	HasProgram    bool
}

// TrackMix is a role's default mixer routing.
type TrackMix struct {
	Volume int
	Pan    int
	Reverb int
	Chorus int
}

var defaultRoleSounds = map[string]TrackSound{
	"drums": {Sampler: "drums", SamplerPreset: "tight"},
	"bass":  {Sampler: "808", SamplerPreset: "round"},
	"keys":  {Program: parseProgram("electric_piano_1"), HasProgram: true},
	"pad":   {Program: parseProgram("warm_pad"), HasProgram: true},
	"lead":  {Program: parseProgram("square_lead"), HasProgram: true},
}

var defaultRoleMix = map[string]TrackMix{
	"drums": {112, 64, 10, 0},
	"bass":  {104, 64, 0, 0},
	"keys":  {92, 62, 30, 10},
	"pad":   {86, 66, 48, 18},
	"lead":  {94, 70, 22, 6},
}

func prog(name string) TrackSound { return TrackSound{Program: parseProgram(name), HasProgram: true} }

var styleRoleSounds = map[StyleName]map[string]TrackSound{
	"trap": {
		"bass": {Sampler: "808", SamplerPreset: "round"},
		"keys": prog("piano"),
		"lead": prog("saw_lead"),
	},
	"boom_bap": {
		"bass": prog("acoustic_bass"),
		"keys": prog("electric_piano_2"),
	},
	StyleLofi: {
		"bass": prog("acoustic_bass"),
		"keys": prog("electric_piano_1"),
		"pad":  prog("synth_strings"),
	},
	StyleHouse: {
		"bass": prog("synth_bass_1"),
		"keys": prog("drawbar_organ"),
		"lead": prog("saw_lead"),
	},
	StyleTechno: {
		"bass": prog("synth_bass_2"),
		"keys": prog("organ"),
		"lead": prog("saw_lead"),
	},
	StyleAmbient: {
		"bass": prog("synth_bass_1"),
		"pad":  prog("warm_pad"),
		"keys": prog("electric_piano_2"),
	},
	StyleHipHop: {
		"bass": prog("synth_bass_1"),
		"keys": prog("electric_piano_2"),
	},
}

var styleRoleMix = map[StyleName]map[string]TrackMix{
	"trap": {
		"drums": {114, 64, 6, 0},
		"bass":  {108, 64, 0, 0},
		"keys":  {88, 60, 20, 6},
		"lead":  {92, 70, 18, 6},
	},
	StyleHouse: {
		"drums": {112, 64, 10, 0},
		"bass":  {102, 64, 0, 0},
		"keys":  {92, 60, 34, 12},
	},
	"boom_bap": {
		"drums": {110, 64, 14, 0},
		"bass":  {100, 64, 4, 0},
		"keys":  {90, 62, 26, 10},
	},
}

// SelectTrackSound picks a role's sound: style override wins over the
// base default; a "dark" mood forces piano for keys (spec §4.L palette).
func SelectTrackSound(role string, style StyleName, mood string) TrackSound {
	roleKey := strings.ToLower(strings.TrimSpace(role))
	base, ok := defaultRoleSounds[roleKey]
	if !ok {
		base = prog("piano")
	}
	out := base
	if styled, ok := styleRoleSounds[style][roleKey]; ok {
		out = styled
	}
	if roleKey == "keys" && strings.Contains(strings.ToLower(mood), "dark") {
		return prog("piano")
	}
	return out
}

// SelectTrackMix picks a role's mixer defaults, style override over base.
func SelectTrackMix(role string, style StyleName) TrackMix {
	roleKey := strings.ToLower(strings.TrimSpace(role))
	mix, ok := defaultRoleMix[roleKey]
	if !ok {
		mix = TrackMix{Volume: 100, Pan: 64}
	}
	if styled, ok := styleRoleMix[style][roleKey]; ok {
		return styled
	}
	return mix
}
