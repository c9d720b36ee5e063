package generator

import (
	"fmt"
	"strings"
)

// GeneratedScript is a headless script ready to be fed to the script
// runtime, plus the mastering preset the brief resolved to (grounded on
// prompt/script.py's GeneratedScript/brief_to_script).
type GeneratedScript struct {
	Script          string
	MasteringPreset string
}

var rolePitch = map[string]int{
	"bass": 36,
	"keys": 60,
	"pad":  60,
	"lead": 72,
}

// BriefToScript synthesizes a headless script for a Brief: one track per
// requested role with its palette-selected sound/mix, a drums pattern
// from GenerateDrumBars, a bass-follow line for "bass", and a sustained
// chord/lead pattern for the remaining melodic roles. seed roots every
// deterministic draw (drum generator, variation knobs); outPrefix, when
// non-empty, appends save/export lines the way brief_to_script does.
func BriefToScript(b Brief, seed int64, outPrefix string) GeneratedScript {
	preset := PresetFor(b.Style)
	bpm := b.BPM
	if bpm == 0 {
		bpm = preset.BPMDefault
	}
	swing := preset.SwingPercent

	var lines []string
	emit := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	emit("new_project %q %d", b.Title, bpm)
	emit("set_swing %d", swing)

	bars := b.LengthBars
	if bars <= 0 {
		bars = 24
	}
	patternBars := 2

	drumStyle := string(b.Style)
	if b.Style == StyleUnknown {
		drumStyle = "hiphop"
	}

	ve := NewVariationEngine(seed)
	variant := ve.Spec(0)
	_ = variant

	for ti, role := range b.Roles {
		sound := SelectTrackSound(role, b.Style, b.Mood)
		mix := SelectTrackMix(role, b.Style)

		emit("add_track %q", role)
		switch {
		case sound.Sampler == "drums":
			emit("set_sampler %d drums", ti)
		case sound.Sampler == "808":
			emit("set_sampler %d 808", ti)
		case sound.HasProgram:
			emit("set_program %d %d", ti, sound.Program)
		}
		if mix.Volume > 0 {
			emit("set_volume %d %d", ti, mix.Volume)
		}
		if mix.Pan > 0 {
			emit("set_pan %d %d", ti, mix.Pan)
		}
		if mix.Reverb > 0 {
			emit("set_reverb %d %d", ti, mix.Reverb)
		}
		if mix.Chorus > 0 {
			emit("set_chorus %d %d", ti, mix.Chorus)
		}

		patLenBars := patternBars
		if role == "pad" {
			patLenBars = 4
		}
		switch role {
		case "drums":
			emit("new_pattern %d d %d:0", ti, patLenBars)
			emit("gen_drums %d d %d:0 %s seed=%d density=%.2f", ti, patLenBars, drumStyle, seed, preset.DrumDensity)
		case "bass":
			emit("new_pattern %d b %d:0", ti, patLenBars)
			emit("gen_bass_follow %d b %d:0 seed=%d", ti, patLenBars, seed)
		default:
			pitch := rolePitch[role]
			emit("new_pattern %d m %d:0", ti, patLenBars)
			emit("add_note_pat %d m 0:0 %d:0 %d 80", ti, patLenBars, pitch)
		}
		emit("place_pattern %d %s 0:0 %d", ti, patternKeyFor(role), bars/patLenBars)
	}

	if outPrefix != "" {
		emit("save_project %s.json", outPrefix)
		emit("export_midi %s.mid", outPrefix)
		emit("export_preview_mp3 %s.preview.mp3", outPrefix)
		emit("export_mp3 %s.mp3", outPrefix)
	}

	return GeneratedScript{Script: strings.Join(lines, "\n") + "\n", MasteringPreset: preset.MasteringPreset}
}

func patternKeyFor(role string) string {
	switch role {
	case "drums":
		return "d"
	case "bass":
		return "b"
	default:
		return "m"
	}
}
