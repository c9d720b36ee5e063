package synth

import (
	"math"
	"math/rand"

	"github.com/clawdaw/clawdaw/internal/flatten"
	"github.com/clawdaw/clawdaw/internal/wavio"
)

// Instrument is the plugin-instrument capability interface (spec §9
// "Plugin instrument polymorphism → capability interface"). Implementations
// are registered by id in Registry at package init.
type Instrument interface {
	ID() string
	Presets() map[string]map[string]float64
	Render(notes []flatten.FlatNote, params map[string]float64, outSampleRate, totalFrames int, seed int64) (*wavio.Buffer, error)
}

// Registry is the process-local instrument registry, populated at init —
// resolution is always by string id, never by concrete type.
var Registry = map[string]Instrument{}

func register(i Instrument) { Registry[i.ID()] = i }

func init() {
	register(synthBasic{})
	register(pluckKarplus{})
	register(noisePad{})
}

const defaultPolyphony = 8

// capPolyphony discards events that would exceed the active-voice count at
// their start tick, per spec §4.F.
func capPolyphony(notes []flatten.FlatNote, cap int) []flatten.FlatNote {
	if cap <= 0 {
		cap = defaultPolyphony
	}
	type active struct {
		end int
	}
	var voices []active
	out := make([]flatten.FlatNote, 0, len(notes))
	for _, n := range notes {
		live := voices[:0]
		for _, v := range voices {
			if v.end > n.Start {
				live = append(live, v)
			}
		}
		voices = live
		if len(voices) >= cap {
			continue
		}
		voices = append(voices, active{end: n.End()})
		out = append(out, n)
	}
	return out
}

// --- synth.basic: saw/square/sine with ADSR + LPF + softclip + detune ---

type synthBasic struct{}

func (synthBasic) ID() string { return "synth.basic" }

func (synthBasic) Presets() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"default": {"wave": 0, "attack": 0.01, "decay": 0.1, "sustain": 0.7, "release": 0.1, "cutoff_hz": 4000, "detune": 0, "drive": 1.0},
		"pluck":   {"wave": 0, "attack": 0.002, "decay": 0.25, "sustain": 0.0, "release": 0.05, "cutoff_hz": 2500, "detune": 0, "drive": 1.2},
	}
}

func (synthBasic) Render(notes []flatten.FlatNote, params map[string]float64, sr, totalFrames int, seed int64) (*wavio.Buffer, error) {
	notes = capPolyphony(notes, int(paramOr(params, "polyphony", defaultPolyphony)))
	buf := wavio.NewStereo(sr, totalFrames)

	waveKind := int(paramOr(params, "wave", 0))
	attack := paramOr(params, "attack", 0.01)
	decay := paramOr(params, "decay", 0.1)
	sustain := paramOr(params, "sustain", 0.7)
	release := paramOr(params, "release", 0.1)
	cutoff := paramOr(params, "cutoff_hz", 4000)
	detune := paramOr(params, "detune", 0)
	drive := paramOr(params, "drive", 1.0)

	for _, n := range notes {
		freq := midiToFreq(n.Pitch)
		vel := float64(n.EffectiveVelocity()) / 127.0
		lpState := 0.0
		alpha := lpAlpha(cutoff, sr)

		phase1, phase2 := 0.0, 0.0
		df := freq * math.Pow(2, detune/1200.0)
		for f := 0; f < n.Duration; f++ {
			frame := n.Start + f
			phase1 += 2 * math.Pi * freq / float64(sr)
			phase2 += 2 * math.Pi * df / float64(sr)

			x := waveform(waveKind, phase1)*0.5 + waveform(waveKind, phase2)*0.5
			lpState += alpha * (x - lpState)
			x = lpState

			env := adsr(f, n.Duration, attack, decay, sustain, release, sr)
			s := float32(math.Tanh(drive*x) * env * vel)
			addSample(buf, frame, s, s)
		}
	}

	buf.Limit()
	return buf, nil
}

func waveform(kind int, phase float64) float64 {
	switch kind {
	case 1: // square
		if math.Sin(phase) >= 0 {
			return 1
		}
		return -1
	case 2: // saw
		p := math.Mod(phase/(2*math.Pi), 1.0)
		return 2*p - 1
	default: // sine
		return math.Sin(phase)
	}
}

func lpAlpha(cutoffHz float64, sr int) float64 {
	if cutoffHz <= 0 {
		cutoffHz = 4000
	}
	rc := 1.0 / (2 * math.Pi * cutoffHz)
	dt := 1.0 / float64(sr)
	return dt / (rc + dt)
}

func adsr(f, total int, attack, decay, sustain, release float64, sr int) float64 {
	af := int(attack * float64(sr))
	df := int(decay * float64(sr))
	rf := int(release * float64(sr))
	switch {
	case f < af:
		return float64(f) / float64(max1(af))
	case f < af+df:
		w := float64(f-af) / float64(max1(df))
		return 1 - w*(1-sustain)
	case total-f < rf:
		return sustain * float64(total-f) / float64(max1(rf))
	default:
		return sustain
	}
}

func paramOr(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}

// --- pluck.karplus: noise-seeded Karplus-Strong pluck ---

type pluckKarplus struct{}

func (pluckKarplus) ID() string { return "pluck.karplus" }

func (pluckKarplus) Presets() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"default": {"damping": 0.5, "decay": 0.996},
	}
}

func (pluckKarplus) Render(notes []flatten.FlatNote, params map[string]float64, sr, totalFrames int, seed int64) (*wavio.Buffer, error) {
	notes = capPolyphony(notes, int(paramOr(params, "polyphony", defaultPolyphony)))
	buf := wavio.NewStereo(sr, totalFrames)

	damping := paramOr(params, "damping", 0.5)
	decay := paramOr(params, "decay", 0.996)

	for idx, n := range notes {
		freq := midiToFreq(n.Pitch)
		vel := float64(n.EffectiveVelocity()) / 127.0
		period := int(float64(sr) / freq)
		if period < 2 {
			period = 2
		}

		rng := rand.New(rand.NewSource(seed + int64(idx)*7919))
		ring := make([]float64, period)
		for i := range ring {
			ring[i] = rng.Float64()*2 - 1
		}

		pos := 0
		for f := 0; f < n.Duration; f++ {
			frame := n.Start + f
			cur := ring[pos]
			next := ring[(pos+1)%period]
			avg := (cur + next) * 0.5 * decay
			ring[pos] = cur*(1-damping) + avg*damping
			pos = (pos + 1) % period

			s := float32(cur * vel)
			addSample(buf, frame, s, s)
		}
	}

	buf.Limit()
	return buf, nil
}

// --- noise.pad: stereo-decorrelated noise through an LP with ADSR ---

type noisePad struct{}

func (noisePad) ID() string { return "noise.pad" }

func (noisePad) Presets() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"default": {"cutoff_hz": 1200, "attack": 0.3, "decay": 0.2, "sustain": 0.8, "release": 0.4},
	}
}

func (noisePad) Render(notes []flatten.FlatNote, params map[string]float64, sr, totalFrames int, seed int64) (*wavio.Buffer, error) {
	notes = capPolyphony(notes, int(paramOr(params, "polyphony", defaultPolyphony)))
	buf := wavio.NewStereo(sr, totalFrames)

	cutoff := paramOr(params, "cutoff_hz", 1200)
	attack := paramOr(params, "attack", 0.3)
	decay := paramOr(params, "decay", 0.2)
	sustain := paramOr(params, "sustain", 0.8)
	release := paramOr(params, "release", 0.4)
	alpha := lpAlpha(cutoff, sr)

	for idx, n := range notes {
		vel := float64(n.EffectiveVelocity()) / 127.0
		rngL := rand.New(rand.NewSource(seed + int64(idx)*104729))
		rngR := rand.New(rand.NewSource(seed + int64(idx)*104729 + 1))
		lpL, lpR := 0.0, 0.0

		for f := 0; f < n.Duration; f++ {
			frame := n.Start + f
			xl := rngL.Float64()*2 - 1
			xr := rngR.Float64()*2 - 1
			lpL += alpha * (xl - lpL)
			lpR += alpha * (xr - lpR)

			env := adsr(f, n.Duration, attack, decay, sustain, release, sr)
			addSample(buf, frame, float32(lpL*env*vel), float32(lpR*env*vel))
		}
	}

	buf.Limit()
	return buf, nil
}
