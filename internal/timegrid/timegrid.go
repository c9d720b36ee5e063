// Package timegrid implements tick arithmetic, timecode parsing and swing
// offsets. A bar is always 4 beats (4/4 time is assumed throughout the
// pipeline); PPQ (pulses per quarter note) is the project's time quantum.
package timegrid

import (
	"strconv"
	"strings"

	"github.com/clawdaw/clawdaw/internal/clawerr"
)

// TicksPerBar returns the number of ticks in one 4/4 bar at the given PPQ.
func TicksPerBar(ppq int) int {
	return 4 * ppq
}

// ParseTimecode accepts a bare integer (ticks), "bar:beat" or
// "bar:beat:subtick" (bars and beats are 0-indexed). Negative components or
// malformed strings are rejected.
func ParseTimecode(ppq int, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, clawerr.New(clawerr.KindInvalidInput, "empty timecode")
	}

	if !strings.Contains(s, ":") {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return 0, clawerr.Newf(clawerr.KindInvalidInput, "invalid timecode %q", s)
		}
		return v, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, clawerr.Newf(clawerr.KindInvalidInput, "invalid timecode %q", s)
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, clawerr.Newf(clawerr.KindInvalidInput, "invalid timecode %q", s)
		}
		nums[i] = v
	}

	bar, beat := nums[0], nums[1]
	subtick := 0
	if len(nums) == 3 {
		subtick = nums[2]
	}

	ticksPerBeat := ppq
	return bar*TicksPerBar(ppq) + beat*ticksPerBeat + subtick, nil
}

// ApplySwing delays odd 16th-step positions by a fraction of the step
// length. step = ppq/4; if tick is on an odd step, add
// floor(step * swingPercent/100); swing is applied once, never composed.
func ApplySwing(tick, ppq, swingPercent int) int {
	step := ppq / 4
	if step <= 0 {
		return tick
	}
	stepIndex := tick / step
	if stepIndex%2 == 0 {
		return tick
	}
	return tick + (step*swingPercent)/100
}
