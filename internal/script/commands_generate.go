package script

import (
	"strconv"
	"strings"

	"github.com/clawdaw/clawdaw/internal/clawerr"
	"github.com/clawdaw/clawdaw/internal/generator"
	"github.com/clawdaw/clawdaw/internal/model"
)

func cmdGenDrums(rt *Runtime, args []string) error {
	if err := needArgs(args, 4, "gen_drums <index> <pattern> <length> <style> [seed=] [density=]"); err != nil {
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
	bars := pat.Length / (p.PPQ * 4)
	if bars <= 0 {
		bars = 1
	}
	kv := parseKV(args[3:])
	seed := kvInt64(kv, "seed", 0)
	density := kvFloat(kv, "density", 0.8)

	notes := generator.GenerateDrumBars(generator.GenDrumStyle(args[3]), bars, p.PPQ, density, seed)
	pat.Notes = append(pat.Notes, notes...)
	return nil
}

// cmdGenDrumMacros resolves a named stylepack's genre pack and drum
// density and drives gen_drums from them, then applies the pack's swing to
// the whole project (spec §4.M gen_drum_macros: a one-shot shortcut over
// gen_drums for the built-in stylepack table). The stylepack's Kit is not
// applied to the track.
func cmdGenDrumMacros(rt *Runtime, args []string) error {
	if err := needArgs(args, 4, "gen_drum_macros <index> <pattern> <length> <stylepack> [seed=]"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	sp, ok := generator.GetStylepack(args[3])
	if !ok {
		return clawerr.Newf(clawerr.KindInvalidInput, "unknown stylepack %q", args[3])
	}
	pack, ok := generator.GetGenrePack(sp.Pack)
	if !ok {
		return clawerr.Newf(clawerr.KindInvalidState, "stylepack %q has no backing genre pack", sp.Name)
	}

	kv := parseKV(args[4:])
	genArgs := append(append([]string{}, args[:3]...), string(pack.Name),
		"seed="+strconv.FormatInt(kvInt64(kv, "seed", 0), 10),
		"density="+strconv.FormatFloat(sp.DrumDensity, 'f', -1, 64))
	if err := cmdGenDrums(rt, genArgs); err != nil {
		return err
	}
	p.SwingPercent = sp.SwingPercent
	return nil
}

// cmdGenBassFollow drives GenerateBassFollow into the named pattern. A
// `roots=` comma-separated MIDI-pitch list picks the per-bar root
// progression; without one it repeats the track's existing lowest note
// (or MIDI 36) for every bar.
func cmdGenBassFollow(rt *Runtime, args []string) error {
	if err := needArgs(args, 3, "gen_bass_follow <index> <pattern> <length> [seed=] [roots=] [gap_prob=]"); err != nil {
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
	bars := pat.Length / (p.PPQ * 4)
	if bars <= 0 {
		bars = 1
	}
	kv := parseKV(args[2:])
	seed := kvInt64(kv, "seed", 0)
	gapProb := kvFloat(kv, "gap_prob", 0.25)

	var roots []int
	if rootsRaw, ok := kv["roots"]; ok {
		for _, tok := range strings.Split(rootsRaw, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				return clawerr.Newf(clawerr.KindInvalidInput, "invalid roots value %q", tok)
			}
			roots = append(roots, v)
		}
	}
	if len(roots) == 0 {
		root := lowestPitch(t, 36)
		roots = make([]int, bars)
		for i := range roots {
			roots[i] = root
		}
	}
	for len(roots) < bars {
		roots = append(roots, roots[len(roots)-1])
	}

	notes := generator.GenerateBassFollow(roots[:bars], p.PPQ, gapProb, seed)
	pat.Notes = append(pat.Notes, notes...)
	return nil
}

func lowestPitch(t *model.Track, def int) int {
	lowest := def
	found := false
	scan := func(notes []*model.Note) {
		for _, n := range notes {
			if !found || n.Pitch < lowest {
				lowest = n.Pitch
				found = true
			}
		}
	}
	scan(t.Notes)
	for _, pat := range t.Patterns {
		scan(pat.Notes)
	}
	return lowest
}
