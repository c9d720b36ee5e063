package quality

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/clawdaw/clawdaw/internal/model"
)

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func floatParam(params map[string]any, key string, def float64) float64 {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// BuildMixSpec assembles a MixSpecRaw from a preset: every track gets its
// classified role's FX chain (falling back to the "music" role when the
// preset has no entry for it), busses/returns/master come straight from
// the preset, and a sidechain rule ducks every preset-targeted role's
// tracks from the picked kick source.
func BuildMixSpec(p *model.Project, preset Preset) model.MixSpecRaw {
	musicFX := preset.Mix.Roles["music"]

	tracks := map[string]any{}
	for i, t := range p.Tracks {
		role := ClassifyTrack(t.Name).Role
		fx, ok := preset.Mix.Roles[role]
		if !ok {
			fx = musicFX
		}
		tracks[strconv.Itoa(i)] = cloneAnyMap(fx)
	}

	busses := map[string]any{}
	for name, fx := range preset.Mix.Busses {
		busses[name] = cloneAnyMap(fx)
	}

	raw := model.MixSpecRaw{
		"tracks": tracks,
		"busses": busses,
	}
	if preset.Mix.Returns != nil {
		raw["returns"] = cloneAnyMap(preset.Mix.Returns)
	}
	if preset.Mix.Master != nil {
		raw["master"] = cloneAnyMap(preset.Mix.Master)
	}

	targets := preset.Mix.Sidechain.Targets
	if len(targets) == 0 {
		targets = []string{"bass"}
	}
	params := preset.Mix.Sidechain.Params
	thresholdDB := floatParam(params, "threshold_db", -24)
	ratio := floatParam(params, "ratio", 6)
	attackMs := floatParam(params, "attack_ms", 5)
	releaseMs := floatParam(params, "release_ms", 120)

	var sidechain []any
	if kickIdx, ok := PickKickSourceIndex(p.Tracks); ok {
		isTarget := func(role string) bool {
			for _, want := range targets {
				if role == want {
					return true
				}
			}
			return false
		}
		for ti, t := range p.Tracks {
			if ti == kickIdx {
				continue
			}
			role := ClassifyTrack(t.Name).Role
			if !isTarget(role) {
				continue
			}
			rule := map[string]any{
				"src":          kickIdx,
				"dst":          ti,
				"threshold_db": thresholdDB,
				"ratio":        ratio,
				"attack_ms":    attackMs,
				"release_ms":   releaseMs,
			}
			if TrackIsDrumRoleCapable(p.Tracks[kickIdx]) {
				rule["src_role"] = "kick"
			}
			sidechain = append(sidechain, rule)
		}
	}
	raw["sidechain"] = sidechain

	return raw
}

// PrepareMixSpec assigns every track's Bus from its classified role, then
// builds the MixSpecRaw over that routing (spec §4.K "prepare_mix_spec").
func PrepareMixSpec(p *model.Project, preset Preset) model.MixSpecRaw {
	for _, t := range p.Tracks {
		t.Bus = ClassifyTrack(t.Name).Bus
	}
	return BuildMixSpec(p, preset)
}

var sectionGainRules = []struct {
	re    *regexp.Regexp
	scale float64
}{
	{regexp.MustCompile(`(?i)breakdown|break`), 0.75},
	{regexp.MustCompile(`(?i)intro|outro`), 0.85},
	{regexp.MustCompile(`(?i)build|rise`), 0.90},
	{regexp.MustCompile(`(?i)verse`), 0.90},
	{regexp.MustCompile(`(?i)drop|chorus|hook`), 1.0},
}

func scaleVelocity(v int, scale float64) int {
	nv := int(math.Round(float64(v) * scale))
	if nv < 1 {
		nv = 1
	}
	if nv > 127 {
		nv = 127
	}
	return nv
}

// ApplySectionGain scales note velocities by section-name pattern, per
// spec §4.K "apply_section_gain". Drums and bass are excluded by default
// since they typically carry the sidechain/transient backbone across
// section boundaries.
func ApplySectionGain(p *model.Project, includeDrums, includeBass bool) {
	for _, sec := range p.Sections {
		scale := -1.0
		for _, rule := range sectionGainRules {
			if rule.re.MatchString(sec.Name) {
				scale = rule.scale
				break
			}
		}
		if scale < 0 {
			continue
		}
		for _, t := range p.Tracks {
			role := ClassifyTrack(t.Name)
			if role.IsDrums && !includeDrums {
				continue
			}
			if role.IsBass && !includeBass {
				continue
			}
			for _, n := range t.Notes {
				if n.Start >= sec.Start && n.Start < sec.End() {
					n.Velocity = scaleVelocity(n.Velocity, scale)
				}
			}
		}
	}
}

const (
	minTrackHighpassHz = 100.0
	monoBelowMinHz     = 100.0
	monoBelowMaxHz     = 180.0
)

// ValidateMixSpec checks the six structural rules a prepared mix spec must
// satisfy before anything gets rendered (spec §4.K "validate_mix_spec").
func ValidateMixSpec(p *model.Project, spec *model.MixSpec) (bool, []string) {
	var checks []string
	ok := true
	pass := func(msg string) { checks = append(checks, "PASS: "+msg) }
	fail := func(msg string) { ok = false; checks = append(checks, "FAIL: "+msg) }

	hasKickToBass := false
	for _, rule := range spec.Sidechain {
		if rule.SrcRole != "kick" {
			continue
		}
		if rule.Dst >= 0 && rule.Dst < len(p.Tracks) && ClassifyTrack(p.Tracks[rule.Dst].Name).IsBass {
			hasKickToBass = true
		}
	}
	if hasKickToBass {
		pass("sidechain kick->bass present")
	} else {
		fail("no sidechain rule ducking bass from the kick")
	}

	sendsOK := true
	for i, t := range p.Tracks {
		role := ClassifyTrack(t.Name)
		if !role.IsDrums && !role.IsBass {
			continue
		}
		if fx := spec.Tracks[i]; fx != nil && (fx.Sends.Reverb > 0 || fx.Sends.Delay > 0) {
			sendsOK = false
		}
	}
	if sendsOK {
		pass("no reverb/delay sends on drums/bass")
	} else {
		fail("drums/bass tracks carry reverb/delay sends")
	}

	hpOK := true
	for i, t := range p.Tracks {
		role := ClassifyTrack(t.Name)
		if role.IsDrums || role.IsBass {
			continue
		}
		fx := spec.Tracks[i]
		if fx == nil || fx.HighpassHz == nil || *fx.HighpassHz < minTrackHighpassHz {
			hpOK = false
		}
	}
	if hpOK {
		pass(fmt.Sprintf("non-drum/bass tracks highpassed >= %.0fHz", minTrackHighpassHz))
	} else {
		fail(fmt.Sprintf("some non-drum/bass tracks lack a >= %.0fHz highpass", minTrackHighpassHz))
	}

	if bus, ok := spec.Busses["bass"]; ok && bus.MonoBelowHz != nil &&
		*bus.MonoBelowHz >= monoBelowMinHz && *bus.MonoBelowHz <= monoBelowMaxHz {
		pass("bass bus mono-below in range")
	} else {
		fail(fmt.Sprintf("bass bus mono-below not set within %.0f..%.0fHz", monoBelowMinHz, monoBelowMaxHz))
	}

	if spec.Master != nil && spec.Master.MonoBelowHz != nil &&
		*spec.Master.MonoBelowHz >= monoBelowMinHz && *spec.Master.MonoBelowHz <= monoBelowMaxHz {
		pass("master mono-below in range")
	} else {
		fail(fmt.Sprintf("master mono-below not set within %.0f..%.0fHz", monoBelowMinHz, monoBelowMaxHz))
	}

	if bus, ok := spec.Busses["music"]; ok && bus.Comp != nil {
		pass("music bus has a compressor")
	} else {
		fail("music bus missing a compressor")
	}

	return ok, checks
}
