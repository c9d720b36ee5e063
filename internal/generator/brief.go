// Package generator implements the prompt-to-project pipeline (spec
// §4.L): parsing a natural-language brief, selecting a style preset or
// named stylepack, synthesizing a headless script, and iterating toward
// a novel result via the fingerprint/similarity check.
package generator

import (
	"regexp"
	"strconv"
	"strings"
)

// StyleName is one of the recognized style buckets a Brief resolves to.
type StyleName string

const (
	StyleHipHop  StyleName = "hiphop"
	StyleLofi    StyleName = "lofi"
	StyleHouse   StyleName = "house"
	StyleTechno  StyleName = "techno"
	StyleAmbient StyleName = "ambient"
	StyleUnknown StyleName = "unknown"
)

// NoveltyConstraints bounds how similar a generated project may be to the
// previous attempt before the pipeline accepts it (spec §4.L "novelty").
type NoveltyConstraints struct {
	MaxSimilarity float64
}

// Brief is the structured result of parsing a free-text prompt.
type Brief struct {
	Prompt     string
	Title      string
	Style      StyleName
	BPM        int // 0 means unset; StylePreset default applies
	Key        string
	Mood       string
	LengthBars int
	Roles      []string
	Novelty    NoveltyConstraints
}

var defaultRoles = []string{"drums", "bass", "keys", "pad", "lead"}

var styleWords = []struct {
	style StyleName
	words []string
}{
	{StyleHipHop, []string{"hiphop", "hip-hop", "trap", "boom bap", "boom-bap"}},
	{StyleLofi, []string{"lofi", "lo-fi", "lo fi", "chillhop", "chill-hop"}},
	{StyleHouse, []string{"house", "deep house", "garage"}},
	{StyleTechno, []string{"techno", "industrial", "rave"}},
	{StyleAmbient, []string{"ambient", "drone"}},
}

func guessStyle(p string) StyleName {
	s := strings.ToLower(p)
	for _, sw := range styleWords {
		for _, w := range sw.words {
			if strings.Contains(s, w) {
				return sw.style
			}
		}
	}
	return StyleUnknown
}

var bpmRe1 = regexp.MustCompile(`(?i)\b(bpm|tempo)\s*[:=]?\s*(\d{2,3})\b`)
var bpmRe2 = regexp.MustCompile(`(?i)\b(\d{2,3})\s*bpm\b`)

func guessBPM(p string) int {
	if m := bpmRe1.FindStringSubmatch(p); m != nil {
		v, _ := strconv.Atoi(m[2])
		return v
	}
	if m := bpmRe2.FindStringSubmatch(p); m != nil {
		v, _ := strconv.Atoi(m[1])
		return v
	}
	return 0
}

var keyRe = regexp.MustCompile(`\bkey\s*[:=]?\s*([A-Ga-g])\s*(#|b)?\s*(major|minor|maj|min)?\b`)

func guessKey(p string) string {
	m := keyRe.FindStringSubmatch(p)
	if m == nil {
		return ""
	}
	note := strings.ToUpper(m[1])
	accidental := m[2]
	mode := strings.ToLower(m[3])
	switch mode {
	case "min", "minor":
		mode = "minor"
	case "maj", "major":
		mode = "major"
	}
	return strings.TrimSpace(note + accidental + " " + mode)
}

var moodWords = []string{"dark", "bright", "moody", "chill", "aggressive", "uplifting", "sad", "happy"}

func guessMood(p string) string {
	pl := strings.ToLower(p)
	for _, w := range moodWords {
		if strings.Contains(pl, w) {
			return w
		}
	}
	return ""
}

var barsRe = regexp.MustCompile(`(?i)\b(total\s*)?(\d{1,3})\s*bars\b`)

func guessLengthBars(p string) int {
	m := barsRe.FindStringSubmatch(p)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[2])
	if n >= 4 && n <= 256 {
		return n
	}
	return 0
}

// ParsePrompt parses free-text into a Brief using offline heuristics:
// stable, cheap, and tuned for reasonable defaults over precision (spec
// §4.L "brief extraction").
func ParsePrompt(prompt string, title string) Brief {
	p := strings.TrimSpace(prompt)
	b := Brief{
		Prompt:     p,
		LengthBars: 24,
		Roles:      append([]string(nil), defaultRoles...),
		Novelty:    NoveltyConstraints{MaxSimilarity: 0.92},
	}

	if title != "" {
		b.Title = title
	} else {
		first := p
		if idx := strings.IndexByte(p, '\n'); idx >= 0 {
			first = p[:idx]
		}
		first = strings.TrimSpace(first)
		if len(first) > 80 {
			first = first[:80]
		}
		if first == "" {
			first = "untitled"
		}
		b.Title = first
	}

	b.Style = guessStyle(p)
	b.BPM = guessBPM(p)
	b.Key = guessKey(p)
	b.Mood = guessMood(p)
	if lb := guessLengthBars(p); lb > 0 {
		b.LengthBars = lb
	}
	return b
}
