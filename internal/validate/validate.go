// Package validate implements schema migration and range clamping for a
// loaded Project, per spec §4.C: a monotone schema version is produced,
// missing fields get safe defaults in a fixed sequence, and out-of-range
// values snap to their documented bounds rather than erroring.
package validate

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/clawdaw/clawdaw/internal/clawerr"
	"github.com/clawdaw/clawdaw/internal/model"
)

const maxTick = 10_000_000

// Max per-track pattern/clip counts before deterministic truncation kicks
// in (sorted-key order, per spec §4.C).
const (
	MaxPatternsPerTrack = 256
	MaxClipsPerTrack    = 4096
)

// Warning is a non-fatal migration/clamp note.
type Warning struct {
	Message string
}

// Result carries the migrated/clamped project plus any warnings raised
// along the way.
type Result struct {
	Project  *model.Project
	Warnings []Warning
}

type migrationStep struct {
	version int
	apply   func(*model.Project) []Warning
}

// steps runs in increasing version order, mirroring the teacher's
// db.migrate() pattern of "apply every pending step in order" generalized
// from SQL files to in-memory JSON-document upgrades.
var steps = []migrationStep{
	{version: 1, apply: migrateV1},
	{version: 2, apply: migrateV2},
	{version: 3, apply: migrateV3},
}

func migrateV1(p *model.Project) []Warning {
	if p.PPQ == 0 {
		p.PPQ = 480
	}
	if p.TempoBPM == 0 {
		p.TempoBPM = 120
	}
	for _, t := range p.Tracks {
		if t.Patterns == nil {
			t.Patterns = map[string]*model.Pattern{}
		}
		if t.Sampler == "" {
			t.Sampler = model.SamplerNone
		}
	}
	return nil
}

func migrateV2(p *model.Project) []Warning {
	for _, t := range p.Tracks {
		if t.Volume == 0 {
			t.Volume = 100
		}
		if t.Pan == 0 {
			t.Pan = 64
		}
	}
	return nil
}

func migrateV3(p *model.Project) []Warning {
	var warnings []Warning
	for _, t := range p.Tracks {
		t.NormalizeSamplerMode()
		for name, pat := range t.Patterns {
			if pat.Name == "" {
				pat.Name = name
			}
		}
	}
	return warnings
}

// Migrate runs every pending migration step in order, then clamps all
// documented ranges. Loading an unknown future version still clamps (with
// a warning) rather than erroring — only corrupted JSON is fatal, and that
// fails earlier at the json.Unmarshal boundary.
func Migrate(p *model.Project) *Result {
	res := &Result{Project: p}

	from := p.SchemaVersion
	if from > model.CurrentSchemaVersion {
		res.Warnings = append(res.Warnings, Warning{
			Message: "project schema version is newer than this build supports; proceeding with clamping only",
		})
	}

	for _, step := range steps {
		if step.version <= from {
			continue
		}
		res.Warnings = append(res.Warnings, step.apply(p)...)
	}
	if from < model.CurrentSchemaVersion {
		p.SchemaVersion = model.CurrentSchemaVersion
	}

	res.Warnings = append(res.Warnings, clamp(p)...)
	return res
}

// Idempotent reports whether re-running Migrate on an already-migrated
// project is a no-op — Migrate(Migrate(p)) == Migrate(p), per spec §8.
func Idempotent(p *model.Project) bool {
	before, _ := model.Marshal(p)
	Migrate(p)
	after, _ := model.Marshal(p)
	return string(before) == string(after)
}

func clamp(p *model.Project) []Warning {
	var warnings []Warning

	p.TempoBPM = clampInt(p.TempoBPM, 20, 400)
	p.PPQ = clampInt(p.PPQ, 24, 1920)
	p.SwingPercent = clampInt(p.SwingPercent, 0, 75)

	p.LoopStart, p.LoopEnd = clampRegion(p.LoopStart, p.LoopEnd)
	p.RenderStart, p.RenderEnd = clampRegion(p.RenderStart, p.RenderEnd)

	seenChannels := mapset.NewSet[int]()
	for i, t := range p.Tracks {
		if t.Channel < 0 || t.Channel > 15 || seenChannels.Contains(t.Channel) {
			t.Channel = firstFreeChannel(seenChannels)
			warnings = append(warnings, Warning{Message: "track channel reassigned to keep channels unique"})
		}
		seenChannels.Add(t.Channel)

		t.Program = clampInt(t.Program, 0, 127)
		t.Volume = clampInt(t.Volume, 0, 127)
		t.Pan = clampInt(t.Pan, 0, 127)
		t.Reverb = clampInt(t.Reverb, 0, 127)
		t.Chorus = clampInt(t.Chorus, 0, 127)
		t.NormalizeSamplerMode()

		for name, pat := range t.Patterns {
			pat.Name = name
			if pat.Length <= 0 {
				warnings = append(warnings, Warning{Message: "pattern " + name + " has non-positive length and was dropped"})
				delete(t.Patterns, name)
				continue
			}
			for _, n := range pat.Notes {
				clampNote(n)
			}
		}

		for _, c := range t.Clips {
			if c.Repeats < 1 {
				c.Repeats = 1
			}
			c.Start = clampTick(c.Start)
		}

		for _, n := range t.Notes {
			clampNote(n)
		}

		if len(t.Patterns) > MaxPatternsPerTrack {
			truncatePatterns(t)
		}
		if len(t.Clips) > MaxClipsPerTrack {
			t.Clips = t.Clips[:MaxClipsPerTrack]
		}

		_ = i
	}

	return warnings
}

func clampNote(n *model.Note) {
	n.Start = clampTick(n.Start)
	if n.Duration <= 0 {
		n.Duration = 1
	}
	n.Pitch = clampInt(n.Pitch, 0, 127)
	n.Normalize()
}

func clampTick(t int) int {
	if t < 0 {
		return 0
	}
	if t > maxTick {
		return maxTick
	}
	return t
}

func clampRegion(start, end *int) (*int, *int) {
	if start == nil || end == nil {
		return nil, nil
	}
	s, e := *start, *end
	if e <= s {
		return nil, nil
	}
	cs, ce := clampTick(s), clampTick(e)
	return &cs, &ce
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func firstFreeChannel(used mapset.Set[int]) int {
	for c := 0; c <= 15; c++ {
		if !used.Contains(c) {
			return c
		}
	}
	return 0
}

// truncatePatterns deterministically drops the highest-sorted-key patterns
// once the per-track limit is exceeded, also removing any clips that now
// reference a missing pattern.
func truncatePatterns(t *model.Track) {
	names := make([]string, 0, len(t.Patterns))
	for n := range t.Patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names[MaxPatternsPerTrack:] {
		delete(t.Patterns, n)
	}
	kept := t.Clips[:0]
	for _, c := range t.Clips {
		if _, ok := t.Patterns[c.Pattern]; ok {
			kept = append(kept, c)
		}
	}
	t.Clips = kept
}

// CheckChannelsUnique reports whether track channel assignments are
// unique, per the Project invariant in spec §3 — used by tests exercising
// the "for all tracks" property.
func CheckChannelsUnique(p *model.Project) bool {
	seen := mapset.NewSet[int]()
	for _, t := range p.Tracks {
		if seen.Contains(t.Channel) {
			return false
		}
		seen.Add(t.Channel)
	}
	return true
}

// ErrNoSuchPattern reports a clip referencing a pattern the track doesn't
// have — a ReferenceError per spec §7, reported but not fatal during
// editing.
func ErrNoSuchPattern(trackName, pattern string) error {
	return clawerr.Newf(clawerr.KindReferenceError, "track %q: clip references missing pattern %q", trackName, pattern)
}
