package synth

import (
	"math"
	"sort"

	"github.com/clawdaw/clawdaw/internal/flatten"
	"github.com/clawdaw/clawdaw/internal/model"
	"github.com/clawdaw/clawdaw/internal/wavio"
)

// bass808Preset selects (harm2, harm3, drive) for the monophonic 808
// voice, grounded on original_source/claw_daw/audio/sampler.py's preset
// table.
type bass808Preset struct {
	Harm2, Harm3, Drive float64
}

var bass808Presets = map[string]bass808Preset{
	"clean":   {Harm2: 0.0, Harm3: 0.0, Drive: 1.0},
	"dist":    {Harm2: 0.12, Harm3: 0.06, Drive: 3.5},
	"growl":   {Harm2: 0.22, Harm3: 0.14, Drive: 6.0},
	"default": {Harm2: 0.08, Harm3: 0.03, Drive: 2.0},
}

func resolveBass808Preset(name string) bass808Preset {
	if p, ok := bass808Presets[name]; ok {
		return p
	}
	return bass808Presets["default"]
}

// Render808 synthesizes one monophonic continuous-phase bass voice from
// t's notes (already converted to absolute sample frames), per spec §4.F.
// ticksPerSecond is (bpm/60)*ppq, used to convert per-note glide_ticks into
// a frame count.
func Render808(t *model.Track, notes []flatten.FlatNote, sampleRate, totalFrames int, ticksPerSecond float64) *wavio.Buffer {
	buf := wavio.NewStereo(sampleRate, totalFrames)
	if len(notes) == 0 {
		buf.Limit()
		return buf
	}
	if ticksPerSecond <= 0 {
		ticksPerSecond = 1
	}

	preset := resolveBass808Preset(t.SamplerPreset)

	sorted := make([]flatten.FlatNote, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	phase := 0.0
	prevFreq := midiToFreq(sorted[0].Pitch)

	for i, n := range sorted {
		if n.Mute {
			continue
		}
		freq := midiToFreq(n.Pitch)
		glideSeconds := float64(n.GlideTicks) / ticksPerSecond
		glideFrames := int(glideSeconds * float64(sampleRate))
		dur := n.Duration
		if i+1 < len(sorted) {
			next := sorted[i+1].Start
			if next-n.Start < dur {
				dur = next - n.Start
			}
		}

		attack := int(0.005 * float64(sampleRate))
		release := int(0.008 * float64(sampleRate))
		vel := float64(n.EffectiveVelocity()) / 127.0

		for f := 0; f < dur; f++ {
			frame := n.Start + f
			if frame < 0 || frame >= totalFrames {
				phase += 2 * math.Pi * freq / float64(sampleRate)
				continue
			}

			curFreq := freq
			if glideFrames > 0 && f < glideFrames {
				w := float64(f) / float64(glideFrames)
				curFreq = prevFreq + (freq-prevFreq)*w
			}
			phase += 2 * math.Pi * curFreq / float64(sampleRate)

			env := 1.0
			switch {
			case f < attack:
				env = float64(f) / float64(max1(attack))
			case dur-f < release:
				env = float64(dur-f) / float64(max1(release))
			default:
				decayT := float64(f-attack) / float64(sampleRate)
				env = math.Exp(-1.7 * decayT)
			}

			x := math.Sin(phase)
			x += preset.Harm2 * math.Sin(2*phase)
			x += preset.Harm3 * math.Sin(3*phase)
			x = math.Tanh(preset.Drive * x)

			s := float32(x * env * vel)
			addSample(buf, frame, s, s)
		}

		prevFreq = freq
	}

	buf.Limit()
	return buf
}

func midiToFreq(pitch int) float64 {
	return 440.0 * math.Pow(2, float64(pitch-69)/12.0)
}

// max1 keeps an envelope segment length at least one frame, so it can be
// used as a divisor.
func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

