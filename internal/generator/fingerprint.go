package generator

import (
	"math"

	"github.com/clawdaw/clawdaw/internal/flatten"
	"github.com/clawdaw/clawdaw/internal/model"
)

// ProjectFingerprint is six L2-normalized histograms summarizing a
// project's note content, used to measure how similar two generated
// attempts are (grounded on prompt/similarity.py's ProjectFingerprint).
type ProjectFingerprint struct {
	PitchClass     [12]float64
	Step           [16]float64
	Interval       [25]float64 // index = interval+12, interval in [-12,12]
	Velocity       [8]float64
	EventHash      [64]float64
	TrackEventHash [64]float64
}

func normalize(v []float64) {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	if sum <= 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}

func bigramHash(a, b int) int {
	h := (int64(a)*1315423911 + int64(b)*2654435761) & 63
	return int(h)
}

// FingerprintProject builds a fingerprint from every track's expanded
// note stream (clip-based arrangement when present, else legacy notes).
func FingerprintProject(p *model.Project) ProjectFingerprint {
	var fp ProjectFingerprint
	sixteenth := p.PPQ / 4
	if sixteenth <= 0 {
		sixteenth = 1
	}

	var prevPitch *int
	var prevEvent *int
	for ti, t := range p.Tracks {
		var notes []flatten.FlatNote
		if len(t.Patterns) > 0 || len(t.Clips) > 0 {
			notes = flatten.Flatten(p, ti)
		} else {
			for _, n := range t.Notes {
				notes = append(notes, flatten.FlatNote{Start: n.Start, Duration: n.Duration, Pitch: n.Pitch, Velocity: n.Velocity})
			}
		}

		for _, n := range notes {
			pc := ((n.Pitch % 12) + 12) % 12
			fp.PitchClass[pc]++

			step := (n.Start / sixteenth) % 16
			if step < 0 {
				step += 16
			}
			fp.Step[step]++

			velBucket := n.Velocity / 16
			if velBucket > 7 {
				velBucket = 7
			}
			if velBucket < 0 {
				velBucket = 0
			}
			fp.Velocity[velBucket]++

			a := step*12 + pc
			if prevEvent != nil {
				fp.EventHash[bigramHash(*prevEvent, a)]++
			}
			event := a
			prevEvent = &event

			teh := (int64(ti)*1315423911 + int64(step*12+pc)) & 63
			fp.TrackEventHash[teh]++

			if prevPitch != nil {
				interval := n.Pitch - *prevPitch
				if interval < -12 {
					interval = -12
				}
				if interval > 12 {
					interval = 12
				}
				fp.Interval[interval+12]++
			}
			pitch := n.Pitch
			prevPitch = &pitch
		}
	}

	normalize(fp.PitchClass[:])
	normalize(fp.Step[:])
	normalize(fp.Interval[:])
	normalize(fp.Velocity[:])
	normalize(fp.EventHash[:])
	normalize(fp.TrackEventHash[:])
	return fp
}

func cosine(a, b []float64) float64 {
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	if dot < 0 {
		dot = 0
	}
	if dot > 1 {
		dot = 1
	}
	return dot
}

// ProjectSimilarity is the mean of the six histogram cosine similarities,
// clamped to [0,1] (grounded on prompt/similarity.py's project_similarity).
func ProjectSimilarity(a, b ProjectFingerprint) float64 {
	sims := []float64{
		cosine(a.PitchClass[:], b.PitchClass[:]),
		cosine(a.Step[:], b.Step[:]),
		cosine(a.Interval[:], b.Interval[:]),
		cosine(a.Velocity[:], b.Velocity[:]),
		cosine(a.EventHash[:], b.EventHash[:]),
		cosine(a.TrackEventHash[:], b.TrackEventHash[:]),
	}
	sum := 0.0
	for _, s := range sims {
		sum += s
	}
	mean := sum / float64(len(sims))
	if mean < 0 {
		mean = 0
	}
	if mean > 1 {
		mean = 1
	}
	return mean
}
