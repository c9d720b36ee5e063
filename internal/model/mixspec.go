package model

import (
	"sort"
	"strconv"
)

// MixSpecRaw is the schema-loose, JSON/YAML-friendly surface described in
// spec §3/§6.3. Unknown keys are ignored; numeric parsing is tolerant.
// Normalize turns it into the typed MixSpec the mix graph compiler
// consumes — per the "dynamic configuration mappings → explicit enums +
// typed records" design note, the loose map never leaks past this package.
type MixSpecRaw map[string]any

// EQBand is a peaking EQ band.
type EQBand struct {
	F float64
	Q float64
	G float64
}

// GateFX is a noise gate.
type GateFX struct {
	ThresholdDB float64
	ReleaseMs   float64
}

// ExpanderFX approximates a downward expander via a two-point dB curve.
type ExpanderFX struct {
	ThresholdDB float64
	Ratio       float64
}

// CompFX is a compressor (used for track/bus/master and sidechain).
type CompFX struct {
	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
}

// SatFX is saturation, either a simple drive+softclip or a dry/wet/tone
// form that requires splitting the graph.
type SatFX struct {
	Type   string
	Drive  float64
	Mix    *float64
	ToneHz *float64
}

// StereoFX controls mid/side width.
type StereoFX struct {
	Width float64
}

// SendsFX is the reverb/delay send amounts for a track.
type SendsFX struct {
	Reverb float64
	Delay  float64
}

// TransientFX shapes attack/sustain.
type TransientFX struct {
	Attack  float64
	Sustain float64
}

// LimiterFX is a brick-wall limiter.
type LimiterFX struct {
	Limit float64
}

// TrackFX is the per-track processing chain, in the fixed chain order
// defined in spec §4.H.
type TrackFX struct {
	GainDB     *float64
	EQ         []EQBand
	HighpassHz *float64
	LowpassHz  *float64
	Gate       *GateFX
	Expander   *ExpanderFX
	Comp       *CompFX
	Sat        *SatFX
	Stereo     *StereoFX
	Sends      SendsFX
	Transient  *TransientFX
}

// BusFX is the FX subset available on a bus, plus mono-below collapse.
type BusFX struct {
	GainDB      *float64
	EQ          []EQBand
	HighpassHz  *float64
	LowpassHz   *float64
	Comp        *CompFX
	Sat         *SatFX
	MonoBelowHz *float64
}

// ReverbReturn is a multi-tap echo approximation of a reverb.
type ReverbReturn struct {
	PredelayMs float64
	Decay      float64
}

// DelayReturn is a single-tap echo.
type DelayReturn struct {
	Ms    float64
	Decay float64
}

// ReturnsSpec holds the shared reverb/delay return busses.
type ReturnsSpec struct {
	Reverb ReverbReturn
	Delay  DelayReturn
}

// SidechainRule ducks Dst using Src (or Src's SrcRole-tagged notes) as the
// compressor key.
type SidechainRule struct {
	Src         int
	Dst         int
	SrcRole     string
	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
}

// MasterFX is the final bus chain.
type MasterFX struct {
	EQ          []EQBand
	Comp        *CompFX
	Limiter     *LimiterFX
	Transient   *TransientFX
	MonoBelowHz *float64
}

// MixSpec is the normalized, typed mix specification.
type MixSpec struct {
	Tracks    map[int]*TrackFX
	Busses    map[string]*BusFX
	Returns   ReturnsSpec
	Sidechain []SidechainRule
	Master    *MasterFX
}

// IsEmpty reports whether the spec has no recognized content at all — the
// renderer uses this to decide between the simple amix path and the full
// mix graph compiler (spec §4.I step 5).
func (m *MixSpec) IsEmpty() bool {
	if m == nil {
		return true
	}
	return len(m.Tracks) == 0 && len(m.Busses) == 0 && len(m.Sidechain) == 0 && m.Master == nil
}

// SortedBusNames returns bus names in the stable sorted order the mix graph
// compiler iterates in (spec §5 ordering guarantees).
func (m *MixSpec) SortedBusNames() []string {
	names := make([]string, 0, len(m.Busses))
	for n := range m.Busses {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Normalize converts the loose map into a typed MixSpec, tolerating
// missing/unparseable numeric fields by falling back to each field's
// default (e.g. sidechain threshold -24 dB, ratio 4; reverb decay 0.35).
// Optional blocks that are absent stay nil.
func (raw MixSpecRaw) Normalize() *MixSpec {
	spec := &MixSpec{
		Tracks: map[int]*TrackFX{},
		Busses: map[string]*BusFX{},
	}

	if tracks, ok := asMap(raw["tracks"]); ok {
		keys := make([]string, 0, len(tracks))
		for k := range tracks {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			idx, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			if m, ok := asMap(tracks[k]); ok {
				spec.Tracks[idx] = normalizeTrackFX(m)
			}
		}
	}

	if busses, ok := asMap(raw["busses"]); ok {
		for name, v := range busses {
			if m, ok := asMap(v); ok {
				spec.Busses[name] = normalizeBusFX(m)
			}
		}
	}

	if returns, ok := asMap(raw["returns"]); ok {
		if rv, ok := asMap(returns["reverb"]); ok {
			spec.Returns.Reverb = ReverbReturn{
				PredelayMs: flt(rv["predelay_ms"], 0),
				Decay:      flt(rv["decay"], 0.35),
			}
		} else {
			spec.Returns.Reverb = ReverbReturn{Decay: 0.35}
		}
		if dv, ok := asMap(returns["delay"]); ok {
			spec.Returns.Delay = DelayReturn{
				Ms:    flt(dv["ms"], 240),
				Decay: flt(dv["decay"], 0.25),
			}
		} else {
			spec.Returns.Delay = DelayReturn{Ms: 240, Decay: 0.25}
		}
	} else {
		spec.Returns = ReturnsSpec{
			Reverb: ReverbReturn{Decay: 0.35},
			Delay:  DelayReturn{Ms: 240, Decay: 0.25},
		}
	}

	if sc, ok := asSlice(raw["sidechain"]); ok {
		for _, v := range sc {
			if m, ok := asMap(v); ok {
				spec.Sidechain = append(spec.Sidechain, SidechainRule{
					Src:         int(flt(m["src"], -1)),
					Dst:         int(flt(m["dst"], -1)),
					SrcRole:     str(m["src_role"]),
					ThresholdDB: flt(m["threshold_db"], -24),
					Ratio:       flt(m["ratio"], 4),
					AttackMs:    flt(m["attack_ms"], 5),
					ReleaseMs:   flt(m["release_ms"], 120),
				})
			}
		}
	}

	if master, ok := asMap(raw["master"]); ok {
		spec.Master = normalizeMasterFX(master)
	}

	return spec
}

func normalizeTrackFX(m map[string]any) *TrackFX {
	fx := &TrackFX{}
	if v, ok := m["gain_db"]; ok {
		f := flt(v, 0)
		fx.GainDB = &f
	}
	fx.EQ = normalizeEQ(m["eq"])
	if v, ok := m["highpass_hz"]; ok {
		f := flt(v, 30)
		fx.HighpassHz = &f
	}
	if v, ok := m["lowpass_hz"]; ok {
		f := flt(v, 18000)
		fx.LowpassHz = &f
	}
	if g, ok := asMap(m["gate"]); ok {
		fx.Gate = &GateFX{ThresholdDB: flt(g["threshold_db"], -45), ReleaseMs: flt(g["release_ms"], 20)}
	}
	if e, ok := asMap(m["expander"]); ok {
		fx.Expander = &ExpanderFX{ThresholdDB: flt(e["threshold_db"], -45), Ratio: maxf(1, flt(e["ratio"], 2))}
	}
	if c, ok := asMap(m["comp"]); ok {
		fx.Comp = normalizeComp(c)
	}
	if s, ok := asMap(m["sat"]); ok {
		fx.Sat = normalizeSat(s)
	}
	if s, ok := asMap(m["stereo"]); ok {
		fx.Stereo = &StereoFX{Width: flt(s["width"], 1.0)}
	}
	if s, ok := asMap(m["sends"]); ok {
		fx.Sends = SendsFX{Reverb: flt(s["reverb"], 0), Delay: flt(s["delay"], 0)}
	}
	if t, ok := asMap(m["transient"]); ok {
		fx.Transient = &TransientFX{Attack: flt(t["attack"], 0), Sustain: flt(t["sustain"], 0)}
	}
	return fx
}

func normalizeBusFX(m map[string]any) *BusFX {
	fx := &BusFX{}
	if v, ok := m["gain_db"]; ok {
		f := flt(v, 0)
		fx.GainDB = &f
	}
	fx.EQ = normalizeEQ(m["eq"])
	if v, ok := m["highpass_hz"]; ok {
		f := flt(v, 30)
		fx.HighpassHz = &f
	}
	if v, ok := m["lowpass_hz"]; ok {
		f := flt(v, 18000)
		fx.LowpassHz = &f
	}
	if c, ok := asMap(m["comp"]); ok {
		fx.Comp = normalizeComp(c)
	}
	if s, ok := asMap(m["sat"]); ok {
		fx.Sat = normalizeSat(s)
	}
	if v, ok := m["mono_below_hz"]; ok {
		f := flt(v, 0)
		fx.MonoBelowHz = &f
	}
	return fx
}

func normalizeMasterFX(m map[string]any) *MasterFX {
	fx := &MasterFX{EQ: normalizeEQ(m["eq"])}
	if c, ok := asMap(m["comp"]); ok {
		fx.Comp = normalizeComp(c)
	}
	if l, ok := asMap(m["limiter"]); ok {
		fx.Limiter = &LimiterFX{Limit: flt(l["limit"], 0.98)}
	} else {
		fx.Limiter = &LimiterFX{Limit: 0.98}
	}
	if t, ok := asMap(m["transient"]); ok {
		fx.Transient = &TransientFX{Attack: flt(t["attack"], 0), Sustain: flt(t["sustain"], 0)}
	}
	if v, ok := m["mono_below_hz"]; ok {
		f := flt(v, 0)
		fx.MonoBelowHz = &f
	}
	return fx
}

func normalizeComp(c map[string]any) *CompFX {
	return &CompFX{
		ThresholdDB: flt(c["threshold_db"], -18),
		Ratio:       flt(c["ratio"], 2),
		AttackMs:    flt(c["attack_ms"], 5),
		ReleaseMs:   flt(c["release_ms"], 50),
	}
}

func normalizeSat(s map[string]any) *SatFX {
	typ := str(s["type"])
	switch typ {
	case "tanh", "atan", "cubic", "clip":
	default:
		typ = "tanh"
	}
	fx := &SatFX{Type: typ, Drive: flt(s["drive"], 1.0)}
	if v, ok := s["mix"]; ok {
		f := flt(v, 1.0)
		fx.Mix = &f
	}
	if v, ok := s["tone_hz"]; ok {
		f := flt(v, 8000)
		fx.ToneHz = &f
	}
	return fx
}

func normalizeEQ(v any) []EQBand {
	slice, ok := asSlice(v)
	if !ok {
		return nil
	}
	bands := make([]EQBand, 0, len(slice))
	for _, item := range slice {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		bands = append(bands, EQBand{
			F: flt(m["f"], 1000),
			Q: flt(m["q"], 1.0),
			G: flt(m["g"], 0.0),
		})
	}
	return bands
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func flt(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return def
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
