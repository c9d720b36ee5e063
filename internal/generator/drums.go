package generator

import (
	"math/rand"

	"github.com/clawdaw/clawdaw/internal/model"
)

// GenDrumStyle is one of the density-gated per-style drum grammars (spec
// §4.L "drum generator"): a redesign of headless.py's gen_drums that adds
// trap and boom_bap alongside house, with exact per-step formulas.
type GenDrumStyle string

const (
	DrumStyleHouse   GenDrumStyle = "house"
	DrumStyleTrap    GenDrumStyle = "trap"
	DrumStyleBoomBap GenDrumStyle = "boom_bap"
	DrumStyleHipHop  GenDrumStyle = "hiphop"
	DrumStyleLofi    GenDrumStyle = "lofi"
)

const (
	kickPitch  = 36
	snarePitch = 38
	hatPitch   = 42
)

func hit(start, dur, pitch, vel int) *model.Note {
	n := model.NewNote(start, dur, pitch, vel)
	return n
}

// GenerateDrumBars builds a deterministic drum pattern spanning bars bars
// at the given ppq, following the per-style step grammar named by style.
// density in [0,1] thins or thickens the hat/kick gating; seed roots the
// single PRNG draw stream so the same (style, bars, ppq, density, seed)
// always yields byte-identical output.
func GenerateDrumBars(style GenDrumStyle, bars, ppq int, density float64, seed int64) []*model.Note {
	step := ppq / 4
	if step <= 0 {
		step = 1
	}
	stepsPerBar := 16
	total := bars * stepsPerBar
	rng := rand.New(rand.NewSource(seed))

	var notes []*model.Note
	switch style {
	case DrumStyleHouse:
		for s := 0; s < total; s++ {
			start := s * step
			if s%4 == 0 {
				notes = append(notes, hit(start, step, kickPitch, 110))
			}
			if s%8 == 4 {
				notes = append(notes, hit(start, step, snarePitch, 105))
			}
			if rng.Float64() < density {
				notes = append(notes, hit(start, step, hatPitch, 65))
			}
		}
	case DrumStyleTrap:
		kickSteps := map[int]bool{0: true, 3: true, 7: true, 10: true, 13: true, 16: true, 19: true, 23: true, 27: true, 31: true}
		kickProb := 0.35 + 0.55*density
		hatProb := density + 0.1
		rollProb := 0.12 * max64(0.4, density)
		for s := 0; s < total; s++ {
			start := s * step
			mod := s % 32
			if kickSteps[mod] && rng.Float64() < kickProb {
				notes = append(notes, hit(start, step, kickPitch, 115))
			}
			if mod == 8 || mod == 24 {
				notes = append(notes, hit(start, step, snarePitch, 105))
			}
			if rng.Float64() < hatProb {
				notes = append(notes, hit(start, step, hatPitch, 70))
			}
			if rng.Float64() < rollProb {
				third := step / 3
				if third < 1 {
					third = 1
				}
				notes = append(notes, hit(start+third, third, hatPitch, 55))
				notes = append(notes, hit(start+2*third, third, hatPitch, 50))
			}
		}
	case DrumStyleBoomBap:
		kickSteps := map[int]bool{0: true, 6: true, 10: true, 14: true, 16: true, 22: true, 26: true, 30: true}
		for s := 0; s < total; s++ {
			start := s * step
			mod := s % 32
			if kickSteps[mod] && rng.Float64() < density {
				notes = append(notes, hit(start, step, kickPitch, 112))
			}
			if mod == 4 || mod == 12 || mod == 20 || mod == 28 {
				notes = append(notes, hit(start, step, snarePitch, 105))
			}
			if s%2 == 0 {
				notes = append(notes, hit(start, step, hatPitch, 60))
			}
		}
	case DrumStyleHipHop:
		hipHopSteps := map[int]bool{0: true, 6: true, 8: true, 14: true}
		for s := 0; s < total; s++ {
			start := s * step
			mod := s % 16
			if hipHopSteps[mod] && rng.Float64() < density {
				notes = append(notes, hit(start, step, kickPitch, 115))
			}
			if mod%8 == 4 {
				notes = append(notes, hit(start, step, snarePitch, 105))
			}
			if rng.Float64() < density {
				notes = append(notes, hit(start, step, hatPitch, 65))
			}
		}
	case DrumStyleLofi:
		lofiSteps := map[int]bool{0: true, 7: true, 10: true, 14: true}
		for s := 0; s < total; s++ {
			start := s * step
			mod := s % 16
			if lofiSteps[mod] {
				notes = append(notes, hit(start, step, kickPitch, 100))
			}
			if mod%8 == 4 {
				notes = append(notes, hit(start, step, snarePitch, 105))
			}
			if rng.Float64() < density {
				notes = append(notes, hit(start, step, hatPitch, 65))
			}
		}
	}
	return notes
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
