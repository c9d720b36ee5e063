// Package flatten implements the clip→pattern flattening pipeline (spec
// §4.D): resolving section/variation pattern substitution, applying swing,
// expanding drum roles, humanizing, and chance-gating, to produce an
// ordered list of absolute-tick note events per track. Every function here
// is a pure transformation — inputs are never mutated, results are fresh
// allocations, matching the "chance + mute + accent per note → pure
// transformation" design note.
package flatten

import (
	"math/rand"
	"sort"

	"github.com/clawdaw/clawdaw/internal/model"
)

// FlatNote is an absolute-tick note ready for MIDI emission or synthesis.
// role carries the original (possibly empty) drum role through to
// expandDrumRoles; it is always cleared by the time Flatten returns.
type FlatNote struct {
	Start      int
	Duration   int
	Pitch      int
	Velocity   int
	Mute       bool
	Chance     float64
	Accent     float64
	GlideTicks int

	role string
}

func (f *FlatNote) End() int { return f.Start + f.Duration }

// Role returns the drum role the note carried before role expansion, or
// "" once expanded (FlattenRaw preserves it; Flatten clears it).
func (f *FlatNote) Role() string { return f.role }

// EffectiveVelocity mirrors model.Note.EffectiveVelocity for a flattened
// note.
func (f *FlatNote) EffectiveVelocity() int {
	n := model.Note{Velocity: f.Velocity, Accent: f.Accent}
	return n.EffectiveVelocity()
}

// ResolvePatternName finds the effective pattern name for a clip repetition
// at absolute tick, applying the first matching Variation within the
// Section containing tick — a pure lookup, no hidden state (design note
// §9).
func ResolvePatternName(base string, trackIndex, tick int, sections []*model.Section, variations []*model.Variation) string {
	var sec *model.Section
	for _, s := range sections {
		if s.Contains(tick) {
			sec = s
			break
		}
	}
	if sec == nil {
		return base
	}
	for _, v := range variations {
		if v.Section == sec.Name && v.TrackIndex == trackIndex && v.SrcPattern == base {
			return v.DstPattern
		}
	}
	return base
}

// Flatten produces the ordered, absolute-tick note stream for one track,
// with drum roles expanded to concrete pitch layers — the stream an
// in-process drum synth or MIDI emitter consumes.
func Flatten(p *model.Project, trackIndex int) []FlatNote {
	notes := FlattenRaw(p, trackIndex)
	t := p.Tracks[trackIndex]
	notes = expandDrumRoles(notes, t)
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Start < notes[j].Start })
	return notes
}

// FlattenRaw produces the same ordered, absolute-tick note stream but
// without drum-role expansion — the stream the sample-pack player
// consumes, since it maps roles directly to sample variants rather than
// pitch layers (spec §4.G).
func FlattenRaw(p *model.Project, trackIndex int) []FlatNote {
	t := p.Tracks[trackIndex]

	var notes []FlatNote
	if len(t.Patterns) > 0 && len(t.Clips) > 0 {
		notes = flattenArrangement(p, t, trackIndex)
	} else {
		notes = flattenLegacy(p, t)
	}

	notes = humanize(notes, t)
	notes = gateChance(notes, t, trackIndex)

	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Start < notes[j].Start })
	return notes
}

func flattenArrangement(p *model.Project, t *model.Track, trackIndex int) []FlatNote {
	var out []FlatNote
	for _, clip := range t.Clips {
		patLen := patternLength(t, clip.Pattern)
		for r := 0; r < clip.Repeats; r++ {
			baseTick := clip.Start + r*patLen
			effName := ResolvePatternName(clip.Pattern, trackIndex, baseTick, p.Sections, p.Variations)
			pat := t.Patterns[effName]
			if pat == nil {
				continue // missing pattern reference: skipped for this clip (spec §7)
			}
			for _, n := range pat.Notes {
				abs := swung(p, baseTick+n.Start)
				out = append(out, fromModelNote(n, abs))
			}
		}
	}
	return out
}

func flattenLegacy(p *model.Project, t *model.Track) []FlatNote {
	var out []FlatNote
	for _, n := range t.Notes {
		abs := swung(p, n.Start)
		out = append(out, fromModelNote(n, abs))
	}
	return out
}

func patternLength(t *model.Track, name string) int {
	if pat := t.Patterns[name]; pat != nil {
		return pat.Length
	}
	return 0
}

func swung(p *model.Project, tick int) int {
	step := p.PPQ / 4
	if step <= 0 {
		return tick
	}
	if (tick/step)%2 == 0 {
		return tick
	}
	return tick + (step*p.SwingPercent)/100
}

func fromModelNote(n *model.Note, absStart int) FlatNote {
	chance := n.Chance
	if chance == 0 {
		chance = 1.0
	}
	accent := n.Accent
	if accent == 0 {
		accent = 1.0
	}
	return FlatNote{
		Start: absStart, Duration: n.Duration, Pitch: n.Pitch, Velocity: n.Velocity,
		Mute: n.Mute, Chance: chance, Accent: accent, GlideTicks: n.GlideTicks,
		role: n.Role,
	}
}

// expandDrumRoles expands role-tagged notes into one or more pitch layers
// via the track's drum kit, per spec §4.D step 3.
func expandDrumRoles(notes []FlatNote, t *model.Track) []FlatNote {
	kit := model.GetDrumKit(t.DrumKit)
	out := make([]FlatNote, 0, len(notes))
	for _, n := range notes {
		role := model.NormalizeRole(n.role)
		if role == "" {
			n.role = ""
			out = append(out, n)
			continue
		}

		layers, ok := kit.Roles[role]
		if !ok {
			// Unknown role: fall back to the note's pitch, or closed hat if
			// pitch is 0.
			if n.Pitch != 0 {
				n.role = ""
				out = append(out, n)
				continue
			}
			layers = kit.Roles["hat_closed"]
		}

		for _, layer := range layers {
			v := clampVel(roundHalf(float64(n.Velocity) * layer.VelMul))
			out = append(out, FlatNote{
				Start: n.Start, Duration: n.Duration, Pitch: layer.Pitch, Velocity: v,
				Mute: n.Mute, Chance: n.Chance, Accent: n.Accent, GlideTicks: n.GlideTicks,
			})
		}
	}
	return out
}

func roundHalf(x float64) int {
	if x >= 0 {
		return int(x + 0.5)
	}
	return int(x - 0.5)
}

func clampVel(v int) int {
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}

// humanize adds deterministic timing/velocity jitter seeded from the
// track's humanize seed, per spec §4.D step 4.
func humanize(notes []FlatNote, t *model.Track) []FlatNote {
	timing, vel := t.Humanize.Timing, t.Humanize.Velocity
	if timing == 0 && vel == 0 {
		return notes
	}

	out := make([]FlatNote, len(notes))
	rng := rand.New(rand.NewSource(t.Humanize.Seed))
	for i, n := range notes {
		out[i] = n
		if timing != 0 {
			delta := rng.Intn(2*timing+1) - timing
			out[i].Start += delta
			if out[i].Start < 0 {
				out[i].Start = 0
			}
		}
		if vel != 0 {
			delta := rng.Intn(2*vel+1) - vel
			out[i].Velocity = clampVel(out[i].Velocity + delta)
		}
	}
	return out
}

// gateChance drops notes below a stable per-note RNG draw, per spec §4.D
// step 5. Muted notes are unconditionally dropped.
func gateChance(notes []FlatNote, t *model.Track, trackIndex int) []FlatNote {
	seedBase := t.Humanize.Seed*1_000_003 + int64(trackIndex)*9176

	out := notes[:0:0]
	for _, n := range notes {
		if n.Mute {
			continue
		}
		if n.Chance < 1.0 {
			key := (seedBase + int64(n.Start)*31 + int64(n.Pitch)*131) & 0x7FFFFFFF
			r := rand.New(rand.NewSource(key)).Float64()
			if r > n.Chance {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
