package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// jsonProject/jsonTrack/jsonPattern mirror the persisted shapes from spec
// §6.1 (notes are encoded directly from *Note); Patterns is a map so it
// round-trips the track's named-pattern ownership, and Clips is an ordered
// slice.
type jsonProject struct {
	SchemaVersion int          `json:"schema_version"`
	Name          string       `json:"name"`
	TempoBPM      int          `json:"tempo_bpm"`
	PPQ           int          `json:"ppq"`
	SwingPercent  int          `json:"swing_percent"`
	LoopStart     *int         `json:"loop_start"`
	LoopEnd       *int         `json:"loop_end"`
	RenderStart   *int         `json:"render_start"`
	RenderEnd     *int         `json:"render_end"`
	Mix           MixSpecRaw   `json:"mix"`
	Arrangement   jsonArrange  `json:"arrangement"`
	Tracks        []jsonTrack  `json:"tracks"`
}

type jsonArrange struct {
	Sections   []*Section   `json:"sections"`
	Variations []*Variation `json:"variations"`
}

type jsonTrack struct {
	Name          string                  `json:"name"`
	Channel       int                     `json:"channel"`
	Program       int                     `json:"program"`
	Volume        int                     `json:"volume"`
	Pan           int                     `json:"pan"`
	Reverb        int                     `json:"reverb"`
	Chorus        int                     `json:"chorus"`
	Sampler       SamplerMode             `json:"sampler,omitempty"`
	SamplerPreset string                  `json:"sampler_preset,omitempty"`
	DrumKit       string                  `json:"drum_kit,omitempty"`
	GlideTicks    int                     `json:"glide_ticks"`
	Humanize      Humanize                `json:"humanize"`
	Bus           string                  `json:"bus,omitempty"`
	Mute          bool                    `json:"mute"`
	Solo          bool                    `json:"solo"`
	Notes         []*Note                 `json:"notes"`
	Patterns      map[string]jsonPattern  `json:"patterns"`
	Clips         []*Clip                 `json:"clips"`
	Instrument    *InstrumentSpec         `json:"instrument,omitempty"`
	SamplePack    *SamplePackSpec         `json:"sample_pack,omitempty"`
}

type jsonPattern struct {
	Length int     `json:"length"`
	Notes  []*Note `json:"notes"`
}

// Save writes the project as key-sorted, two-space-indented JSON with a
// trailing newline, per spec §6.1.
func Save(p *Project, path string) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Marshal produces the canonical persisted-project bytes.
func Marshal(p *Project) ([]byte, error) {
	jp := jsonProject{
		SchemaVersion: p.SchemaVersion,
		Name:          p.Name,
		TempoBPM:      p.TempoBPM,
		PPQ:           p.PPQ,
		SwingPercent:  p.SwingPercent,
		LoopStart:     p.LoopStart,
		LoopEnd:       p.LoopEnd,
		RenderStart:   p.RenderStart,
		RenderEnd:     p.RenderEnd,
		Mix:           p.Mix,
		Arrangement: jsonArrange{
			Sections:   orEmptySections(p.Sections),
			Variations: orEmptyVariations(p.Variations),
		},
	}
	for _, t := range p.Tracks {
		jp.Tracks = append(jp.Tracks, toJSONTrack(t))
	}

	raw, err := json.Marshal(jp)
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}

	sorted, err := sortJSONKeys(raw)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, sorted, "", "  "); err != nil {
		return nil, fmt.Errorf("indent project json: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func toJSONTrack(t *Track) jsonTrack {
	jt := jsonTrack{
		Name: t.Name, Channel: t.Channel, Program: t.Program,
		Volume: t.Volume, Pan: t.Pan, Reverb: t.Reverb, Chorus: t.Chorus,
		Sampler: t.Sampler, SamplerPreset: t.SamplerPreset, DrumKit: t.DrumKit,
		GlideTicks: t.GlideTicks, Humanize: t.Humanize, Bus: t.Bus,
		Mute: t.Mute, Solo: t.Solo, Notes: orEmptyNotes(t.Notes),
		Clips: orEmptyClips(t.Clips), Instrument: t.Instrument, SamplePack: t.SamplePack,
	}
	jt.Patterns = map[string]jsonPattern{}
	for name, pat := range t.Patterns {
		jt.Patterns[name] = jsonPattern{Length: pat.Length, Notes: orEmptyNotes(pat.Notes)}
	}
	return jt
}

func orEmptyNotes(n []*Note) []*Note {
	if n == nil {
		return []*Note{}
	}
	return n
}
func orEmptyClips(c []*Clip) []*Clip {
	if c == nil {
		return []*Clip{}
	}
	return c
}
func orEmptySections(s []*Section) []*Section {
	if s == nil {
		return []*Section{}
	}
	return s
}
func orEmptyVariations(v []*Variation) []*Variation {
	if v == nil {
		return []*Variation{}
	}
	return v
}

// Load reads and parses a persisted project file. It does not migrate or
// clamp; callers (internal/validate) apply that pass.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project %s: %w", path, err)
	}
	return Unmarshal(data)
}

// Unmarshal parses persisted-project bytes into a Project.
func Unmarshal(data []byte) (*Project, error) {
	var jp jsonProject
	if err := json.Unmarshal(data, &jp); err != nil {
		return nil, fmt.Errorf("parse project json: %w", err)
	}

	p := &Project{
		SchemaVersion: jp.SchemaVersion,
		Name:          jp.Name,
		TempoBPM:      jp.TempoBPM,
		PPQ:           jp.PPQ,
		SwingPercent:  jp.SwingPercent,
		LoopStart:     jp.LoopStart,
		LoopEnd:       jp.LoopEnd,
		RenderStart:   jp.RenderStart,
		RenderEnd:     jp.RenderEnd,
		Mix:           jp.Mix,
		Sections:      jp.Arrangement.Sections,
		Variations:    jp.Arrangement.Variations,
	}

	for _, jt := range jp.Tracks {
		tr := &Track{
			Name: jt.Name, Channel: jt.Channel, Program: jt.Program,
			Volume: jt.Volume, Pan: jt.Pan, Reverb: jt.Reverb, Chorus: jt.Chorus,
			Sampler: jt.Sampler, SamplerPreset: jt.SamplerPreset, DrumKit: jt.DrumKit,
			GlideTicks: jt.GlideTicks, Humanize: jt.Humanize, Bus: jt.Bus,
			Mute: jt.Mute, Solo: jt.Solo, Notes: jt.Notes,
			Clips: jt.Clips, Instrument: jt.Instrument, SamplePack: jt.SamplePack,
			Patterns: map[string]*Pattern{},
		}
		for name, jpat := range jt.Patterns {
			tr.Patterns[name] = &Pattern{Name: name, Length: jpat.Length, Notes: jpat.Notes}
		}
		p.Tracks = append(p.Tracks, tr)
	}

	return p, nil
}

// sortJSONKeys re-marshals arbitrary JSON with object keys sorted, since
// encoding/json already sorts Go map keys on marshal but we want the same
// guarantee for the loose MixSpecRaw payload embedded inside.
func sortJSONKeys(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(sortValue(v))
}

func sortValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = sortValue(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = sortValue(e)
		}
		return out
	default:
		return v
	}
}
