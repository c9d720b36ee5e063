package generator

import (
	"fmt"
	"strings"

	"github.com/clawdaw/clawdaw/internal/model"
)

// AcceptanceError collects every failed rule a GenrePack.Accept run found,
// mirroring genre_packs/acceptance.py's AcceptanceFailure: partial credit
// is useless here, so all checks run before reporting.
type AcceptanceError struct {
	Errors []string
}

func (e *AcceptanceError) Error() string {
	return fmt.Sprintf("stylepack acceptance failed: %s", strings.Join(e.Errors, "; "))
}

func trackIndexByName(p *model.Project, nameLower string) (int, bool) {
	for i, t := range p.Tracks {
		if strings.ToLower(t.Name) == nameLower {
			return i, true
		}
	}
	return -1, false
}

func patternNoteCount(p *model.Project, trackIndex int, pattern string) int {
	if trackIndex < 0 || trackIndex >= len(p.Tracks) {
		return 0
	}
	pat := p.Tracks[trackIndex].Patterns[pattern]
	if pat == nil {
		return 0
	}
	return len(pat.Notes)
}

// patternHasPitchNearStep reports whether pattern on trackIndex has a note
// of the given pitch whose step (start/stepTicks) falls within tolSteps of
// stepIndex, modulo stepCount (spec's "drum generator" acceptance check,
// grounded on genre_packs/acceptance.py's pattern_has_pitch_near_step).
func patternHasPitchNearStep(p *model.Project, trackIndex int, pattern string, pitch, stepIndex, stepCount, tolSteps int) bool {
	if trackIndex < 0 || trackIndex >= len(p.Tracks) {
		return false
	}
	pat := p.Tracks[trackIndex].Patterns[pattern]
	if pat == nil {
		return false
	}
	step := p.PPQ / 4
	if step <= 0 {
		step = 1
	}
	want := ((stepIndex % stepCount) + stepCount) % stepCount
	for _, n := range pat.Notes {
		if n.Pitch != pitch {
			continue
		}
		s := (n.Start / step) % stepCount
		diff := s - want
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolSteps || stepCount-diff <= tolSteps {
			return true
		}
	}
	return false
}

func require(cond bool, msg string, errs *[]string) {
	if !cond {
		*errs = append(*errs, msg)
	}
}

// Accept runs the genre pack's acceptance gate against a generated project
// (spec §4.L "stylepack acceptance"): BPM range, exact swing, required
// roles present as track names, non-empty drums/bass, and the pack's
// signature kick/snare step placement on pattern "d".
func (g GenrePack) Accept(p *model.Project) error {
	var errs []string

	require(p.TempoBPM >= g.BPMMin && p.TempoBPM <= g.BPMMax, "bpm out of range", &errs)
	require(p.SwingPercent == g.SwingPercent, "swing_percent mismatch", &errs)

	for _, role := range g.Roles {
		if _, ok := trackIndexByName(p, role); !ok {
			errs = append(errs, fmt.Sprintf("missing required track %q", role))
		}
	}

	drumsIdx, hasDrums := trackIndexByName(p, "drums")
	require(hasDrums && patternNoteCount(p, drumsIdx, "d") > 0, "drums pattern \"d\" is empty or missing", &errs)

	bassIdx, hasBass := trackIndexByName(p, "bass")
	require(hasBass && patternNoteCount(p, bassIdx, "b") > 0, "bass pattern \"b\" is empty or missing", &errs)

	if hasDrums {
		switch g.Name {
		case PackHouse:
			for _, step := range []int{0, 4, 8, 12, 16, 20, 24, 28} {
				if !patternHasPitchNearStep(p, drumsIdx, "d", kickPitch, step, 32, 0) {
					errs = append(errs, fmt.Sprintf("house kick missing at step %d", step))
				}
			}
		case PackTrap:
			for _, step := range []int{8, 24} {
				if !patternHasPitchNearStep(p, drumsIdx, "d", snarePitch, step, 32, 0) {
					errs = append(errs, fmt.Sprintf("trap snare missing at step %d", step))
				}
			}
		case PackBoomBap:
			for _, step := range []int{4, 12, 20, 28} {
				if !patternHasPitchNearStep(p, drumsIdx, "d", snarePitch, step, 32, 0) {
					errs = append(errs, fmt.Sprintf("boom_bap snare missing at step %d", step))
				}
			}
		}
	}

	if len(errs) > 0 {
		return &AcceptanceError{Errors: errs}
	}
	return nil
}
