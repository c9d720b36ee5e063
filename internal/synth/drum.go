// Package synth implements the built-in, in-process synthesis engine (spec
// §4.F): drum synthesis, monophonic 808 bass, and a small registry of
// plugin instruments. Every path is pure offline math at the project
// sample rate, finished with the shared final-limiter pass in
// internal/wavio.
package synth

import (
	"math"

	"github.com/clawdaw/clawdaw/internal/flatten"
	"github.com/clawdaw/clawdaw/internal/wavio"
)

// RenderDrums synthesizes one stereo WAV buffer for a sampler="drums" track
// from its already-role-expanded note stream, by pitch-specific formulas
// grounded on original_source/claw_daw/audio/sampler.py.
func RenderDrums(notes []flatten.FlatNote, sampleRate int, totalFrames int) *wavio.Buffer {
	buf := wavio.NewStereo(sampleRate, totalFrames)
	for _, n := range notes {
		if n.Mute {
			continue
		}
		drawDrumVoice(buf, n, sampleRate)
	}
	buf.Limit()
	return buf
}

func drawDrumVoice(buf *wavio.Buffer, n flatten.FlatNote, sr int) {
	vel := float64(n.EffectiveVelocity()) / 127.0
	startFrame := n.Start // caller has already converted ticks to frames before invoking

	switch n.Pitch {
	case 36:
		drawKick(buf, startFrame, vel, sr)
	case 38:
		drawSnare(buf, startFrame, vel, sr)
	case 42, 44, 46:
		drawHat(buf, startFrame, vel, sr, n.Pitch == 46)
	default:
		drawClick(buf, startFrame, vel, sr)
	}
}

// drawKick: decaying sine sweeping 90→40 Hz, envelope e^-16t over 0.20s.
func drawKick(buf *wavio.Buffer, start int, vel float64, sr int) {
	const dur = 0.20
	n := int(dur * float64(sr))
	phase := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		freq := 90 - (90-40)*(t/dur)
		phase += 2 * math.Pi * freq / float64(sr)
		env := math.Exp(-16 * t)
		s := float32(math.Sin(phase) * env * vel)
		addSample(buf, start+i, s, s)
	}
}

// drawSnare: two tones (1800,3300 Hz)*0.15 + a 220 Hz tone*0.2, envelope
// e^-22t over 0.18s.
func drawSnare(buf *wavio.Buffer, start int, vel float64, sr int) {
	const dur = 0.18
	n := int(dur * float64(sr))
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		env := math.Exp(-22 * t)
		tone := (math.Sin(2*math.Pi*1800*t) + math.Sin(2*math.Pi*3300*t)) * 0.15
		tone += math.Sin(2*math.Pi*220*t) * 0.2
		s := float32(tone * env * vel)
		addSample(buf, start+i, s, s)
	}
}

// drawHat: 8kHz sine*0.15 with envelope e^-55t (closed) / e^-25t (open),
// over 0.07s.
func drawHat(buf *wavio.Buffer, start int, vel float64, sr int, open bool) {
	const dur = 0.07
	n := int(dur * float64(sr))
	decay := 55.0
	if open {
		decay = 25.0
	}
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		env := math.Exp(-decay * t)
		s := float32(math.Sin(2*math.Pi*8000*t) * 0.15 * env * vel)
		addSample(buf, start+i, s, s)
	}
}

// drawClick: tiny velocity-scaled click for an unknown drum pitch.
func drawClick(buf *wavio.Buffer, start int, vel float64, sr int) {
	const dur = 0.01
	n := int(dur * float64(sr))
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		env := math.Exp(-200 * t)
		s := float32(0.3 * vel * env)
		addSample(buf, start+i, s, s)
	}
}

func addSample(buf *wavio.Buffer, frame int, l, r float32) {
	if frame < 0 || frame >= buf.Frames() {
		return
	}
	buf.Samples[frame*2] += l
	buf.Samples[frame*2+1] += r
}
