package generator

import (
	"math/rand"
	"sort"

	"github.com/clawdaw/clawdaw/internal/model"
)

// bassTemplates are the small set of per-bar rhythmic shapes a bass-follow
// line is built from, expressed as 16th-step offsets within a 16-step bar.
// One is picked per bar, deterministically, from the seeded RNG.
var bassTemplates = [][]int{
	{0, 8},
	{0, 6, 8, 12},
	{0, 4, 8, 10},
	{0, 3, 6, 8, 11},
}

// GenerateBassFollow builds a bass line that tracks one root pitch per
// bar (spec §4.L "bass-follow"): a template is chosen per bar, the
// downbeat is always kept, remaining steps are thinned by gapProb,
// cadence boundaries (the last bar before a root change) get a chromatic
// approach note, the final bar gets a turnaround run, and every note's
// duration is capped so it never overlaps the next.
func GenerateBassFollow(roots []int, ppq int, gapProb float64, seed int64) []*model.Note {
	if len(roots) == 0 {
		return nil
	}
	step := ppq / 4
	if step <= 0 {
		step = 1
	}
	barTicks := step * 16
	rng := rand.New(rand.NewSource(seed))

	type placed struct {
		start int
		pitch int
	}
	var raw []placed

	for bar, root := range roots {
		base := bar * barTicks
		tmpl := bassTemplates[rng.Intn(len(bassTemplates))]
		for _, s := range tmpl {
			if s != 0 && rng.Float64() < gapProb {
				continue
			}
			raw = append(raw, placed{start: base + s*step, pitch: root})
		}

		isCadence := bar+1 < len(roots) && roots[bar+1] != root
		if isCadence {
			approachStart := base + barTicks - step
			approachPitch := roots[bar+1] - 1
			raw = append(raw, placed{start: approachStart, pitch: approachPitch})
		}

		isFinal := bar == len(roots)-1
		if isFinal {
			turn := []int{12, 13, 14, 15}
			for i, s := range turn {
				raw = append(raw, placed{start: base + s*step, pitch: root + []int{0, 2, 3, 5}[i%4]})
			}
		}
	}

	sort.Slice(raw, func(i, j int) bool { return raw[i].start < raw[j].start })

	notes := make([]*model.Note, 0, len(raw))
	for i, pl := range raw {
		dur := barTicks
		for j := i + 1; j < len(raw); j++ {
			gap := raw[j].start - pl.start
			if gap > 0 {
				if gap < dur {
					dur = gap
				}
				break
			}
		}
		if dur < 1 {
			dur = 1
		}
		notes = append(notes, model.NewNote(pl.start, dur, pl.pitch, 100))
	}
	return notes
}
