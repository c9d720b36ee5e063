package generator

// StylePreset carries the default tempo/feel knobs a Brief's style
// resolves to when the prompt does not pin them explicitly (grounded on
// prompt/style.py's STYLE_PRESETS table).
type StylePreset struct {
	Style            StyleName
	BPMDefault       int
	SwingPercent     int
	DrumDensity      float64
	MasteringPreset  string
	PreferSampler808 bool
}

var stylePresets = map[StyleName]StylePreset{
	StyleHipHop:  {StyleHipHop, 74, 18, 0.72, "clean", true},
	StyleLofi:    {StyleLofi, 82, 22, 0.60, "lofi", true},
	StyleHouse:   {StyleHouse, 124, 0, 0.85, "demo", true},
	StyleTechno:  {StyleTechno, 132, 0, 0.90, "demo", true},
	"trap":       {"trap", 140, 0, 0.82, "clean", true},
	"boom_bap":   {"boom_bap", 90, 18, 0.70, "lofi", true},
	StyleAmbient: {StyleAmbient, 90, 0, 0.35, "clean", false},
	StyleUnknown: {StyleUnknown, 110, 8, 0.70, "clean", true},
}

// PresetFor looks up a style's preset, falling back to StyleUnknown's.
func PresetFor(style StyleName) StylePreset {
	if p, ok := stylePresets[style]; ok {
		return p
	}
	return stylePresets[StyleUnknown]
}
