package script

import (
	"strconv"
	"strings"

	"github.com/clawdaw/clawdaw/internal/clawerr"
	"github.com/clawdaw/clawdaw/internal/model"
)

func cmdNewPattern(rt *Runtime, args []string) error {
	if err := needArgs(args, 3, "new_pattern <index> <name> <length>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	length, err := timecode(p, args[2])
	if err != nil {
		return err
	}
	t.Patterns[args[1]] = &model.Pattern{Name: args[1], Length: length, Notes: []*model.Note{}}
	return nil
}

func cmdRenamePattern(rt *Runtime, args []string) error {
	if err := needArgs(args, 3, "rename_pattern <index> <old> <new>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	pat, err := patternAt(t, args[1])
	if err != nil {
		return err
	}
	delete(t.Patterns, args[1])
	pat.Name = args[2]
	t.Patterns[args[2]] = pat
	return nil
}

func cmdDeletePattern(rt *Runtime, args []string) error {
	if err := needArgs(args, 2, "delete_pattern <index> <name>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	if _, err := patternAt(t, args[1]); err != nil {
		return err
	}
	delete(t.Patterns, args[1])
	return nil
}

func cmdDuplicatePattern(rt *Runtime, args []string) error {
	if err := needArgs(args, 3, "duplicate_pattern <index> <src> <dst>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	src, err := patternAt(t, args[1])
	if err != nil {
		return err
	}
	notes := make([]*model.Note, len(src.Notes))
	for i, n := range src.Notes {
		cp := *n
		notes[i] = &cp
	}
	t.Patterns[args[2]] = &model.Pattern{Name: args[2], Length: src.Length, Notes: notes}
	return nil
}

func withPattern(rt *Runtime, args []string, minArgs int, usage string, fn func(t *model.Track, pat *model.Pattern, rest []string) error) error {
	if err := needArgs(args, minArgs, usage); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	pat, err := patternAt(t, args[1])
	if err != nil {
		return err
	}
	return fn(t, pat, args[2:])
}

func cmdPatternTranspose(rt *Runtime, args []string) error {
	return withPattern(rt, args, 3, "pattern_transpose <index> <name> <semitones>", func(t *model.Track, pat *model.Pattern, rest []string) error {
		semi, err := parseInt(rest[0])
		if err != nil {
			return err
		}
		for _, n := range pat.Notes {
			n.Pitch += semi
		}
		return nil
	})
}

func cmdPatternShift(rt *Runtime, args []string) error {
	return withPattern(rt, args, 3, "pattern_shift <index> <name> <ticks>", func(t *model.Track, pat *model.Pattern, rest []string) error {
		ticks, err := parseInt(rest[0])
		if err != nil {
			return err
		}
		for _, n := range pat.Notes {
			n.Start += ticks
		}
		return nil
	})
}

func cmdPatternStretch(rt *Runtime, args []string) error {
	return withPattern(rt, args, 3, "pattern_stretch <index> <name> <factor>", func(t *model.Track, pat *model.Pattern, rest []string) error {
		factor, err := parseFloat(rest[0])
		if err != nil {
			return err
		}
		for _, n := range pat.Notes {
			n.Start = int(float64(n.Start) * factor)
			n.Duration = int(float64(n.Duration) * factor)
			if n.Duration < 1 {
				n.Duration = 1
			}
		}
		pat.Length = int(float64(pat.Length) * factor)
		return nil
	})
}

func cmdPatternReverse(rt *Runtime, args []string) error {
	return withPattern(rt, args, 2, "pattern_reverse <index> <name>", func(t *model.Track, pat *model.Pattern, rest []string) error {
		for _, n := range pat.Notes {
			n.Start = pat.Length - n.Start - n.Duration
			if n.Start < 0 {
				n.Start = 0
			}
		}
		return nil
	})
}

func cmdPatternVel(rt *Runtime, args []string) error {
	return withPattern(rt, args, 3, "pattern_vel <index> <name> <delta>", func(t *model.Track, pat *model.Pattern, rest []string) error {
		delta, err := parseInt(rest[0])
		if err != nil {
			return err
		}
		for _, n := range pat.Notes {
			v := n.Velocity + delta
			if v < 1 {
				v = 1
			}
			if v > 127 {
				v = 127
			}
			n.Velocity = v
		}
		return nil
	})
}

func cmdAddNotePat(rt *Runtime, args []string) error {
	return withPattern(rt, args, 6, "add_note_pat <index> <pattern> <start> <dur> <pitch> <vel>", func(t *model.Track, pat *model.Pattern, rest []string) error {
		p := rt.Project
		start, err := timecode(p, rest[0])
		if err != nil {
			return err
		}
		dur, err := timecode(p, rest[1])
		if err != nil {
			return err
		}
		pitch, err := parseInt(rest[2])
		if err != nil {
			return err
		}
		vel, err := parseInt(rest[3])
		if err != nil {
			return err
		}
		pat.Notes = append(pat.Notes, model.NewNote(start, dur, pitch, vel))
		return nil
	})
}

func cmdPlacePattern(rt *Runtime, args []string) error {
	if err := needArgs(args, 4, "place_pattern <index> <pattern> <start> <repeats>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	if _, err := patternAt(t, args[1]); err != nil {
		return err
	}
	start, err := timecode(p, args[2])
	if err != nil {
		return err
	}
	repeats, err := parseInt(args[3])
	if err != nil {
		return err
	}
	t.Clips = append(t.Clips, &model.Clip{Pattern: args[1], Start: start, Repeats: repeats})
	return nil
}

func cmdMoveClip(rt *Runtime, args []string) error {
	if err := needArgs(args, 3, "move_clip <index> <clip_index> <new_start>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	ci, err := parseInt(args[1])
	if err != nil {
		return err
	}
	if ci < 0 || ci >= len(t.Clips) {
		return clawerr.Newf(clawerr.KindReferenceError, "no clip at index %d", ci)
	}
	start, err := timecode(p, args[2])
	if err != nil {
		return err
	}
	t.Clips[ci].Start = start
	return nil
}

func cmdDeleteClip(rt *Runtime, args []string) error {
	if err := needArgs(args, 2, "delete_clip <index> <clip_index>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	ci, err := parseInt(args[1])
	if err != nil {
		return err
	}
	if ci < 0 || ci >= len(t.Clips) {
		return clawerr.Newf(clawerr.KindReferenceError, "no clip at index %d", ci)
	}
	t.Clips = append(t.Clips[:ci], t.Clips[ci+1:]...)
	return nil
}

func cmdCopyBars(rt *Runtime, args []string) error {
	if err := needArgs(args, 4, "copy_bars <index> <src_start> <src_end> <dst_start>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	srcStart, err := timecode(p, args[1])
	if err != nil {
		return err
	}
	srcEnd, err := timecode(p, args[2])
	if err != nil {
		return err
	}
	dstStart, err := timecode(p, args[3])
	if err != nil {
		return err
	}
	shift := dstStart - srcStart
	var added []*model.Clip
	for _, c := range t.Clips {
		if c.Start >= srcStart && c.Start < srcEnd {
			added = append(added, &model.Clip{Pattern: c.Pattern, Start: c.Start + shift, Repeats: c.Repeats})
		}
	}
	t.Clips = append(t.Clips, added...)
	return nil
}

func cmdClearClips(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "clear_clips <index>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	t.Clips = nil
	return nil
}

func cmdAddSection(rt *Runtime, args []string) error {
	if err := needArgs(args, 3, "add_section <name> <start> <length>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	start, err := timecode(p, args[1])
	if err != nil {
		return err
	}
	length, err := timecode(p, args[2])
	if err != nil {
		return err
	}
	p.Sections = append(p.Sections, &model.Section{Name: args[0], Start: start, Length: length})
	return nil
}

func cmdAddVariation(rt *Runtime, args []string) error {
	if err := needArgs(args, 4, "add_variation <section> <track_index> <src_pattern> <dst_pattern>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[1])
	if err != nil {
		return err
	}
	if _, err := trackAt(p, idx); err != nil {
		return err
	}
	p.Variations = append(p.Variations, &model.Variation{
		Section: args[0], TrackIndex: idx, SrcPattern: args[2], DstPattern: args[3],
	})
	return nil
}

func cmdQuantizeTrack(rt *Runtime, args []string) error {
	if err := needArgs(args, 2, "quantize_track <index> <grid>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	grid, err := timecode(p, args[1])
	if err != nil {
		return err
	}
	if grid <= 0 {
		return clawerr.New(clawerr.KindInvalidInput, "quantize grid must be positive")
	}
	quantizeNotes := func(notes []*model.Note) {
		for _, n := range notes {
			n.Start = ((n.Start + grid/2) / grid) * grid
		}
	}
	quantizeNotes(t.Notes)
	for _, pat := range t.Patterns {
		quantizeNotes(pat.Notes)
	}
	return nil
}

func cmdSelectNotes(rt *Runtime, args []string) error {
	if err := needArgs(args, 2, "select_notes <index> <pattern> [field<op>value ...]"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	t, err := trackAt(p, idx)
	if err != nil {
		return err
	}
	pat, err := patternAt(t, args[1])
	if err != nil {
		return err
	}
	preds, err := parsePredicates(args[2:])
	if err != nil {
		return err
	}
	var matched []*model.Note
	for _, n := range pat.Notes {
		if matchesAll(n, preds) {
			matched = append(matched, n)
		}
	}
	rt.Selection = &Selection{TrackIndex: idx, Pattern: args[1], Notes: matched}
	return nil
}

type predicate struct {
	field string
	op    string
	value float64
}

var predicateOps = []string{">=", "<=", "!=", "=", ">", "<"}

func parsePredicates(args []string) ([]predicate, error) {
	var preds []predicate
	for _, a := range args {
		var found string
		for _, op := range predicateOps {
			if strings.Contains(a, op) {
				found = op
				break
			}
		}
		if found == "" {
			return nil, clawerr.Newf(clawerr.KindInvalidInput, "invalid predicate %q", a)
		}
		parts := strings.SplitN(a, found, 2)
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, clawerr.Newf(clawerr.KindInvalidInput, "invalid predicate value in %q", a)
		}
		preds = append(preds, predicate{field: parts[0], op: found, value: v})
	}
	return preds, nil
}

func noteField(n *model.Note, field string) (float64, bool) {
	switch field {
	case "pitch":
		return float64(n.Pitch), true
	case "velocity", "vel":
		return float64(n.Velocity), true
	case "start":
		return float64(n.Start), true
	case "dur", "duration":
		return float64(n.Duration), true
	case "chance":
		return n.Chance, true
	case "accent":
		return n.Accent, true
	}
	return 0, false
}

func matchesAll(n *model.Note, preds []predicate) bool {
	for _, pr := range preds {
		v, ok := noteField(n, pr.field)
		if !ok {
			return false
		}
		switch pr.op {
		case "=":
			if v != pr.value {
				return false
			}
		case "!=":
			if v == pr.value {
				return false
			}
		case ">=":
			if v < pr.value {
				return false
			}
		case "<=":
			if v > pr.value {
				return false
			}
		case ">":
			if v <= pr.value {
				return false
			}
		case "<":
			if v >= pr.value {
				return false
			}
		}
	}
	return true
}

func cmdApplySelected(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "apply_selected mute|unmute|set <field> <value>|shift <ticks>|scale_vel <factor>"); err != nil {
		return err
	}
	if rt.Selection == nil {
		return clawerr.New(clawerr.KindInvalidState, "no active selection; call select_notes first")
	}
	op := args[0]
	switch op {
	case "mute":
		for _, n := range rt.Selection.Notes {
			n.Mute = true
		}
		return nil
	case "unmute":
		for _, n := range rt.Selection.Notes {
			n.Mute = false
		}
		return nil
	case "set":
		if err := needArgs(args, 3, "apply_selected set <field> <value>"); err != nil {
			return err
		}
		return applySelectedSet(rt.Selection.Notes, args[1], args[2])
	case "shift":
		if err := needArgs(args, 2, "apply_selected shift <ticks>"); err != nil {
			return err
		}
		delta, err := parseInt(args[1])
		if err != nil {
			return err
		}
		for _, n := range rt.Selection.Notes {
			n.Start += delta
		}
		return nil
	case "scale_vel":
		if err := needArgs(args, 2, "apply_selected scale_vel <factor>"); err != nil {
			return err
		}
		factor, err := parseFloat(args[1])
		if err != nil {
			return err
		}
		for _, n := range rt.Selection.Notes {
			v := int(float64(n.Velocity)*factor + 0.5)
			if v < 1 {
				v = 1
			}
			if v > 127 {
				v = 127
			}
			n.Velocity = v
		}
		return nil
	}
	return clawerr.Newf(clawerr.KindInvalidInput, "unknown apply_selected op %q", op)
}

func applySelectedSet(notes []*model.Note, field, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return clawerr.Newf(clawerr.KindInvalidInput, "invalid value %q", value)
	}
	for _, n := range notes {
		switch field {
		case "pitch":
			n.Pitch = int(v)
		case "velocity", "vel":
			n.Velocity = int(v)
		case "start":
			n.Start = int(v)
		case "dur", "duration":
			n.Duration = int(v)
		case "chance":
			n.Chance = v
		case "accent":
			n.Accent = v
		default:
			return clawerr.Newf(clawerr.KindInvalidInput, "unknown note field %q", field)
		}
	}
	return nil
}
