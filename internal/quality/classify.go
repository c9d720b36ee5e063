// Package quality implements the mix-preparation and quality-gate workflow
// (spec §4.K): track-role classification, preset-driven MixSpec
// construction, section-aware gain automation, mix-spec structural
// validation, and the meter-threshold gates applied to the master bus and
// to individual stems/busses.
package quality

import (
	"strings"

	"github.com/clawdaw/clawdaw/internal/model"
)

// TrackRole is the result of classifying a track by name: a fine-grained
// role used for FX/gate lookups, plus the coarser bus it routes to.
type TrackRole struct {
	Role    string
	Bus     string
	IsDrums bool
	IsBass  bool
	IsKick  bool
}

var (
	drumTokens  = []string{"drum", "perc", "kick", "snare", "clap", "hat", "hh", "ride", "cym", "tom", "shaker", "rim"}
	bassTokens  = []string{"bass", "sub", "808"}
	vocalTokens = []string{"vocal", "vox", "voice", "choir"}
	leadTokens  = []string{"lead", "hook"}
	pluckTokens = []string{"pluck", "arp", "seq"}
	padTokens   = []string{"pad", "string", "strings", "wash", "atmo", "atmos"}
	keysTokens  = []string{"key", "keys", "chord", "piano", "organ", "synth", "stab"}
	fxTokens    = []string{"fx", "rise", "riser", "impact", "sweep", "noise", "down", "uplifter", "drop"}
)

func containsToken(name string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(name, tok) {
			return true
		}
	}
	return false
}

// ClassifyTrack maps a track name to its role and bus. Drums and bass get
// their own busses; vocals get a dedicated bus for vocal-specific
// treatment; everything else (lead/pluck/pad/keys/fx and the unclassified
// default) shares the "music" bus.
func ClassifyTrack(name string) TrackRole {
	lower := strings.ToLower(name)
	switch {
	case containsToken(lower, drumTokens):
		return TrackRole{Role: "drums", Bus: "drums", IsDrums: true, IsKick: strings.Contains(lower, "kick")}
	case containsToken(lower, bassTokens):
		return TrackRole{Role: "bass", Bus: "bass", IsBass: true}
	case containsToken(lower, vocalTokens):
		return TrackRole{Role: "vox", Bus: "vox"}
	case containsToken(lower, leadTokens):
		return TrackRole{Role: "lead", Bus: "music"}
	case containsToken(lower, pluckTokens):
		return TrackRole{Role: "pluck", Bus: "music"}
	case containsToken(lower, padTokens):
		return TrackRole{Role: "pad", Bus: "music"}
	case containsToken(lower, keysTokens):
		return TrackRole{Role: "keys", Bus: "music"}
	case containsToken(lower, fxTokens):
		return TrackRole{Role: "fx", Bus: "music"}
	default:
		return TrackRole{Role: "music", Bus: "music"}
	}
}

// TrackIsDrumRoleCapable reports whether a track can plausibly carry the
// sidechain "kick" role tag: it renders on the GM drum channel, through the
// built-in drum sampler, or through a sample pack/kit that supplies one.
func TrackIsDrumRoleCapable(t *model.Track) bool {
	if t == nil {
		return false
	}
	return t.Channel == 9 || t.Sampler == model.SamplerDrums || t.SamplePack != nil || t.DrumKit != ""
}

// PickKickSourceIndex picks the track that should drive the kick→bass
// sidechain key: a drum-role-capable track whose name reads as a kick,
// else any drum-role-capable drum track, else any track that merely reads
// as a kick by name.
func PickKickSourceIndex(tracks []*model.Track) (int, bool) {
	for i, t := range tracks {
		role := ClassifyTrack(t.Name)
		if role.IsKick && TrackIsDrumRoleCapable(t) {
			return i, true
		}
	}
	for i, t := range tracks {
		role := ClassifyTrack(t.Name)
		if role.IsDrums && TrackIsDrumRoleCapable(t) {
			return i, true
		}
	}
	for i, t := range tracks {
		if ClassifyTrack(t.Name).IsKick {
			return i, true
		}
	}
	return -1, false
}
