package generator

import "strconv"

// gmPrograms is a General MIDI program-name table (0-based, matching MIDI
// program_change), grounded on util/gm.py's GM_PROGRAMS. The palette below
// reaches for a few named voices util/gm.py's filtered copy doesn't carry
// (electric_piano_1/2, warm_pad, square_lead, saw_lead, synth_bass_1/2,
// drawbar_organ); those are filled in here using their standard GM program
// numbers rather than left to guesswork.
var gmPrograms = map[string]int{
	"piano":               0,
	"acoustic_grand_piano": 0,
	"bright_piano":        1,
	"electric_piano":      4,
	"electric_piano_1":    4,
	"electric_piano_2":    5,
	"harpsichord":         6,
	"clav":                7,
	"celesta":             8,
	"glockenspiel":        9,
	"music_box":           10,
	"vibraphone":          11,
	"marimba":             12,
	"xylophone":           13,
	"drawbar_organ":       16,
	"organ":               16,
	"church_organ":        19,
	"accordion":           21,
	"guitar":              24,
	"acoustic_guitar":     24,
	"electric_guitar":     27,
	"bass":                32,
	"acoustic_bass":       32,
	"electric_bass":       33,
	"synth_bass_1":        38,
	"synth_bass_2":        39,
	"violin":              40,
	"strings":             48,
	"string_ensemble":     48,
	"synth_strings":       50,
	"choir":               52,
	"trumpet":             56,
	"trombone":            57,
	"tuba":                58,
	"sax":                 64,
	"alto_sax":            65,
	"tenor_sax":           66,
	"oboe":                68,
	"clarinet":            71,
	"flute":               73,
	"lead":                80,
	"synth_lead":          80,
	"square_lead":         80,
	"saw_lead":            81,
	"pad":                 88,
	"synth_pad":           88,
	"warm_pad":            89,
	"fx":                  96,
	"drums":               0,
}

// parseProgram resolves a GM program token: a name key, or an integer.
// Integers in [0,127] are taken as 0-based; 128 is taken as 1-based and
// maps to 127. Anything else resolves to 0.
func parseProgram(token string) int {
	if n, ok := gmPrograms[token]; ok {
		return n
	}
	if v, err := strconv.Atoi(token); err == nil {
		if v >= 0 && v <= 127 {
			return v
		}
		if v >= 1 && v <= 128 {
			return v - 1
		}
	}
	return 0
}
