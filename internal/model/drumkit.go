package model

import "strings"

// DrumLayer is one (pitch, velocity multiplier) layer a role expands into.
type DrumLayer struct {
	Pitch  int
	VelMul float64
}

// DrumKit maps canonical roles to one or more layers.
type DrumKit struct {
	Name  string
	Roles map[string][]DrumLayer
}

// CanonicalRoles lists the stable v1 drum role names.
var CanonicalRoles = []string{
	"kick", "snare", "clap", "rim",
	"hat_closed", "hat_open", "hat_pedal",
	"tom_low", "tom_mid", "tom_high",
	"crash", "ride", "perc", "shaker",
}

var roleAliases = map[string]string{
	"bd": "kick", "k": "kick",
	"sd": "snare", "s": "snare",
	"hh": "hat_closed", "ch": "hat_closed",
	"oh": "hat_open", "ph": "hat_pedal",
	"rc": "ride", "cr": "crash",
	"tomlo": "tom_low", "tomm": "tom_mid", "tomhi": "tom_high",
	"hat": "hat_closed", "hihat": "hat_closed",
}

var kitAliases = map[string]string{
	"default": "trap_hard",
	"gm":      "gm_basic",
	"basic":   "gm_basic",
}

func layers(pairs ...DrumLayer) []DrumLayer { return pairs }

func l(pitch int, mul float64) DrumLayer { return DrumLayer{Pitch: pitch, VelMul: mul} }

// BuiltinKits holds the registry of built-in drum kits, keyed by name.
// Layer tables are grounded on the original Python drumkit module.
var BuiltinKits = map[string]*DrumKit{
	"trap_hard": {
		Name: "trap_hard",
		Roles: map[string][]DrumLayer{
			"kick":       layers(l(36, 1.0), l(35, 0.55)),
			"snare":      layers(l(38, 1.0), l(40, 0.65)),
			"clap":       layers(l(39, 1.0), l(38, 0.35)),
			"rim":        layers(l(37, 1.0)),
			"hat_closed": layers(l(42, 1.0)),
			"hat_open":   layers(l(46, 1.0)),
			"hat_pedal":  layers(l(44, 1.0)),
			"tom_low":    layers(l(45, 1.0)),
			"tom_mid":    layers(l(47, 1.0)),
			"tom_high":   layers(l(50, 1.0)),
			"crash":      layers(l(49, 1.0)),
			"ride":       layers(l(51, 1.0)),
			"perc":       layers(l(56, 1.0)),
			"shaker":     layers(l(82, 1.0)),
		},
	},
	"house_clean": {
		Name: "house_clean",
		Roles: map[string][]DrumLayer{
			"kick":       layers(l(36, 1.0), l(35, 0.35)),
			"snare":      layers(l(39, 0.85), l(38, 0.55)),
			"clap":       layers(l(39, 1.0)),
			"rim":        layers(l(37, 1.0)),
			"hat_closed": layers(l(42, 1.0)),
			"hat_open":   layers(l(46, 1.0)),
			"hat_pedal":  layers(l(44, 1.0)),
			"tom_low":    layers(l(45, 1.0)),
			"tom_mid":    layers(l(47, 1.0)),
			"tom_high":   layers(l(50, 1.0)),
			"crash":      layers(l(57, 1.0)),
			"ride":       layers(l(51, 1.0)),
			"perc":       layers(l(75, 1.0)),
			"shaker":     layers(l(70, 1.0)),
		},
	},
	"boombap_dusty": {
		Name: "boombap_dusty",
		Roles: map[string][]DrumLayer{
			"kick":       layers(l(36, 1.0), l(35, 0.70)),
			"snare":      layers(l(38, 1.0), l(54, 0.40)),
			"clap":       layers(l(39, 0.75), l(38, 0.30)),
			"rim":        layers(l(37, 1.0)),
			"hat_closed": layers(l(42, 1.0)),
			"hat_open":   layers(l(46, 1.0)),
			"hat_pedal":  layers(l(44, 1.0)),
			"tom_low":    layers(l(45, 1.0)),
			"tom_mid":    layers(l(47, 1.0)),
			"tom_high":   layers(l(50, 1.0)),
			"crash":      layers(l(49, 1.0)),
			"ride":       layers(l(51, 1.0)),
			"perc":       layers(l(58, 1.0)),
			"shaker":     layers(l(82, 1.0)),
		},
	},
	"gm_basic": {
		Name: "gm_basic",
		Roles: map[string][]DrumLayer{
			"kick":       layers(l(36, 1.0)),
			"snare":      layers(l(38, 1.0)),
			"clap":       layers(l(39, 1.0)),
			"rim":        layers(l(37, 1.0)),
			"hat_closed": layers(l(42, 1.0)),
			"hat_open":   layers(l(46, 1.0)),
			"hat_pedal":  layers(l(44, 1.0)),
			"tom_low":    layers(l(45, 1.0)),
			"tom_mid":    layers(l(47, 1.0)),
			"tom_high":   layers(l(50, 1.0)),
			"crash":      layers(l(49, 1.0)),
			"ride":       layers(l(51, 1.0)),
			"perc":       layers(l(56, 1.0)),
			"shaker":     layers(l(82, 1.0)),
		},
	},
}

// NormalizeRole lowercases, maps separators and resolves aliases.
func NormalizeRole(role string) string {
	if role == "" {
		return ""
	}
	r := strings.ToLower(strings.TrimSpace(role))
	r = strings.ReplaceAll(r, "-", "_")
	r = strings.ReplaceAll(r, " ", "_")
	if alias, ok := roleAliases[r]; ok {
		return alias
	}
	return r
}

// NormalizeKitName lowercases, maps separators and resolves kit aliases.
func NormalizeKitName(name string) string {
	if name == "" {
		return ""
	}
	k := strings.ToLower(strings.TrimSpace(name))
	k = strings.ReplaceAll(k, "-", "_")
	k = strings.ReplaceAll(k, " ", "_")
	if alias, ok := kitAliases[k]; ok {
		return alias
	}
	return k
}

// GetDrumKit resolves a (possibly empty/aliased) kit name to a built-in
// kit, falling back to trap_hard for unknown names — this stays
// deterministic even when a project references a kit we don't ship.
func GetDrumKit(name string) *DrumKit {
	k := NormalizeKitName(name)
	if k == "" {
		k = "trap_hard"
	}
	if alias, ok := kitAliases[k]; ok {
		k = alias
	}
	if kit, ok := BuiltinKits[k]; ok {
		return kit
	}
	return BuiltinKits["trap_hard"]
}

// ListDrumKits returns the public (non-internal) kit names, sorted.
func ListDrumKits() []string {
	return []string{"boombap_dusty", "house_clean", "trap_hard"}
}
