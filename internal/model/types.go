// Package model holds the claw-daw project data model: Project, Track,
// Pattern, Clip, Note, Section, Variation, MixSpec and the built-in
// DrumKit/SamplePack registries. Types here are plain structs; pure
// transformations (flatten, validate, mix-graph compile) live in sibling
// packages so nothing in this package mutates a Project in place beyond
// the trivial field-level edits the headless script runtime performs.
package model

// SamplerMode selects a track's built-in synthesis behavior.
type SamplerMode string

const (
	SamplerNone  SamplerMode = "none"
	SamplerDrums SamplerMode = "drums"
	Sampler808   SamplerMode = "808"
)

const CurrentSchemaVersion = 3

// Project is the root entity of the data model.
type Project struct {
	SchemaVersion int    `json:"schema_version"`
	Name          string `json:"name"`
	TempoBPM      int    `json:"tempo_bpm"`
	PPQ           int    `json:"ppq"`
	SwingPercent  int    `json:"swing_percent"`

	LoopStart   *int `json:"loop_start,omitempty"`
	LoopEnd     *int `json:"loop_end,omitempty"`
	RenderStart *int `json:"render_start,omitempty"`
	RenderEnd   *int `json:"render_end,omitempty"`

	Tracks     []*Track    `json:"tracks"`
	Sections   []*Section  `json:"sections,omitempty"`
	Variations []*Variation `json:"variations,omitempty"`
	Mix        MixSpecRaw  `json:"mix,omitempty"`
}

// NewProject builds an empty project with sane defaults.
func NewProject(name string, bpm int) *Project {
	if bpm <= 0 {
		bpm = 120
	}
	return &Project{
		SchemaVersion: CurrentSchemaVersion,
		Name:          name,
		TempoBPM:      bpm,
		PPQ:           480,
		SwingPercent:  0,
		Tracks:        []*Track{},
		Sections:      []*Section{},
		Variations:    []*Variation{},
		Mix:           MixSpecRaw{},
	}
}

// SongEndTick is the tick one past the last scheduled event across all
// tracks: the end of the last clip repetition, or the end of the last
// legacy note, whichever is greater.
func (p *Project) SongEndTick() int {
	end := 0
	for _, tr := range p.Tracks {
		for _, c := range tr.Clips {
			pat := tr.Patterns[c.Pattern]
			if pat == nil {
				continue
			}
			e := c.Start + c.Repeats*pat.Length
			if e > end {
				end = e
			}
		}
		for _, n := range tr.Notes {
			e := n.Start + n.Duration
			if e > end {
				end = e
			}
		}
	}
	return end
}

// Humanize describes per-track timing/velocity jitter.
type Humanize struct {
	Timing   int   `json:"timing"`
	Velocity int   `json:"velocity"`
	Seed     int64 `json:"seed"`
}

// InstrumentSpec selects a plugin instrument (§4.F) for a track.
type InstrumentSpec struct {
	ID     string         `json:"id"`
	Preset string         `json:"preset,omitempty"`
	Params map[string]float64 `json:"params,omitempty"`
	Seed   int64          `json:"seed,omitempty"`
}

// SamplePackSpec selects a sample pack (§4.G) for a track.
type SamplePackSpec struct {
	ID     string  `json:"id,omitempty"`
	Path   string  `json:"path,omitempty"`
	Seed   int64   `json:"seed,omitempty"`
	GainDB float64 `json:"gain_db,omitempty"`
}

// Track is an ordered child of Project.
type Track struct {
	Name    string `json:"name"`
	Channel int    `json:"channel"`
	Program int    `json:"program"`

	Volume int `json:"volume"`
	Pan    int `json:"pan"`
	Reverb int `json:"reverb"`
	Chorus int `json:"chorus"`

	Sampler       SamplerMode     `json:"sampler,omitempty"`
	SamplerPreset string          `json:"sampler_preset,omitempty"`
	DrumKit       string          `json:"drum_kit,omitempty"`
	Instrument    *InstrumentSpec `json:"instrument,omitempty"`
	SamplePack    *SamplePackSpec `json:"sample_pack,omitempty"`

	GlideTicks int      `json:"glide_ticks"`
	Humanize   Humanize `json:"humanize"`
	Bus        string   `json:"bus,omitempty"`

	Mute bool `json:"mute"`
	Solo bool `json:"solo"`

	Patterns map[string]*Pattern `json:"patterns,omitempty"`
	Clips    []*Clip             `json:"clips,omitempty"`
	Notes    []*Note             `json:"notes,omitempty"`
}

// NewTrack builds a track with the documented field defaults.
func NewTrack(name string, index int) *Track {
	return &Track{
		Name:     name,
		Channel:  index,
		Program:  0,
		Volume:   100,
		Pan:      64,
		Reverb:   0,
		Chorus:   0,
		Sampler:  SamplerNone,
		Patterns: map[string]*Pattern{},
		Clips:    []*Clip{},
		Notes:    []*Note{},
	}
}

// NormalizeSamplerMode enforces the "at most one of sampler/instrument/
// sample_pack is active" invariant: a set sample_pack forces sampler=drums.
func (t *Track) NormalizeSamplerMode() {
	if t.SamplePack != nil {
		t.Sampler = SamplerDrums
	}
}

// Pattern is named, owned by a track.
type Pattern struct {
	Name   string  `json:"-"`
	Length int     `json:"length"`
	Notes  []*Note `json:"notes"`
}

// Clip places a Pattern on a track timeline.
type Clip struct {
	Pattern string `json:"pattern"`
	Start   int    `json:"start"`
	Repeats int    `json:"repeats"`
}

// Note is an atomic event. Pitch or Role is set; when Role is non-empty,
// Pitch is only a fallback used when the role is unknown to the kit.
type Note struct {
	Start      int     `json:"start"`
	Duration   int     `json:"duration"`
	Pitch      int     `json:"pitch"`
	Velocity   int     `json:"velocity"`
	Role       string  `json:"role,omitempty"`
	Mute       bool    `json:"mute,omitempty"`
	Chance     float64 `json:"chance,omitempty"`
	Accent     float64 `json:"accent,omitempty"`
	GlideTicks int     `json:"glide_ticks,omitempty"`
}

// NewNote normalizes expression fields to their defaults (chance=1,
// accent=1) the way the headless runtime constructs notes.
func NewNote(start, duration, pitch, velocity int) *Note {
	return &Note{
		Start: start, Duration: duration, Pitch: pitch, Velocity: velocity,
		Chance: 1.0, Accent: 1.0,
	}
}

// Normalize clamps expression fields to their documented ranges: chance in
// [0,1], accent positive, velocity in [1,127].
func (n *Note) Normalize() {
	if n.Chance == 0 {
		n.Chance = 1.0
	}
	if n.Chance < 0 {
		n.Chance = 0
	}
	if n.Chance > 1 {
		n.Chance = 1
	}
	if n.Accent <= 0 {
		n.Accent = 1.0
	}
	if n.Velocity < 1 {
		n.Velocity = 1
	}
	if n.Velocity > 127 {
		n.Velocity = 127
	}
}

// EffectiveVelocity is clamp(round(velocity*accent), 1, 127).
func (n *Note) EffectiveVelocity() int {
	accent := n.Accent
	if accent <= 0 {
		accent = 1.0
	}
	v := int(roundHalfAwayFromZero(float64(n.Velocity) * accent))
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	return v
}

// End is the exclusive end tick of the note.
func (n *Note) End() int { return n.Start + n.Duration }

func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return float64(int64(x + 0.5))
	}
	return float64(int64(x - 0.5))
}

// Section is a named time span over the song.
type Section struct {
	Name   string `json:"name"`
	Start  int    `json:"start"`
	Length int    `json:"length"`
}

// End is the exclusive end tick of the section.
func (s *Section) End() int { return s.Start + s.Length }

// Contains reports whether tick falls within [Start, End).
func (s *Section) Contains(tick int) bool { return tick >= s.Start && tick < s.End() }

// Variation substitutes pattern dst for src on a given track within a
// section.
type Variation struct {
	Section     string `json:"section"`
	TrackIndex  int    `json:"track_index"`
	SrcPattern  string `json:"src_pattern"`
	DstPattern  string `json:"dst_pattern"`
}
