package script

import "strconv"

// mixTrackEntry returns (creating as needed) the raw per-track FX map for
// trackIndex inside the project's loose MixSpecRaw (spec §6.3's
// schema-loose mix JSON; spec §4.M eq/sidechain/transient write directly
// into it the way a hand-edited mix spec file would).
func mixTrackEntry(rt *Runtime, idx int) map[string]any {
	p := rt.Project
	if p.Mix == nil {
		p.Mix = map[string]any{}
	}
	tracks, ok := p.Mix["tracks"].(map[string]any)
	if !ok {
		tracks = map[string]any{}
		p.Mix["tracks"] = tracks
	}
	key := strconv.Itoa(idx)
	entry, ok := tracks[key].(map[string]any)
	if !ok {
		entry = map[string]any{}
		tracks[key] = entry
	}
	return entry
}

// cmdEQ appends a peaking band to a track's FX chain (spec §4.M "eq").
func cmdEQ(rt *Runtime, args []string) error {
	if err := needArgs(args, 4, "eq <index> <hz> <q> <gain_db>"); err != nil {
		return err
	}
	if _, err := rt.requireProject(); err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	if _, err := trackAt(rt.Project, idx); err != nil {
		return err
	}
	hz, err := parseFloat(args[1])
	if err != nil {
		return err
	}
	q, err := parseFloat(args[2])
	if err != nil {
		return err
	}
	gain, err := parseFloat(args[3])
	if err != nil {
		return err
	}

	entry := mixTrackEntry(rt, idx)
	bands, _ := entry["eq"].([]any)
	entry["eq"] = append(bands, map[string]any{"f": hz, "q": q, "g": gain})
	return nil
}

// cmdSidechain appends a ducking rule keyed by srcIdx, ducking dstIdx
// (spec §4.M "sidechain").
func cmdSidechain(rt *Runtime, args []string) error {
	if err := needArgs(args, 2, "sidechain <src_index> <dst_index> [threshold_db=] [ratio=] [attack_ms=] [release_ms=]"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	src, err := parseInt(args[0])
	if err != nil {
		return err
	}
	dst, err := parseInt(args[1])
	if err != nil {
		return err
	}
	if _, err := trackAt(p, src); err != nil {
		return err
	}
	if _, err := trackAt(p, dst); err != nil {
		return err
	}
	kv := parseKV(args[2:])

	if p.Mix == nil {
		p.Mix = map[string]any{}
	}
	rules, _ := p.Mix["sidechain"].([]any)
	rule := map[string]any{
		"src":          src,
		"dst":          dst,
		"threshold_db": kvFloat(kv, "threshold_db", -24),
		"ratio":        kvFloat(kv, "ratio", 6),
		"attack_ms":    kvFloat(kv, "attack_ms", 5),
		"release_ms":   kvFloat(kv, "release_ms", 120),
	}
	if role, ok := kv["src_role"]; ok {
		rule["src_role"] = role
	}
	p.Mix["sidechain"] = append(rules, rule)
	return nil
}

// cmdTransient sets a track's attack/sustain shaping amounts (spec §4.M
// "transient").
func cmdTransient(rt *Runtime, args []string) error {
	if err := needArgs(args, 3, "transient <index> <attack> <sustain>"); err != nil {
		return err
	}
	if _, err := rt.requireProject(); err != nil {
		return err
	}
	idx, err := parseInt(args[0])
	if err != nil {
		return err
	}
	if _, err := trackAt(rt.Project, idx); err != nil {
		return err
	}
	attack, err := parseFloat(args[1])
	if err != nil {
		return err
	}
	sustain, err := parseFloat(args[2])
	if err != nil {
		return err
	}
	entry := mixTrackEntry(rt, idx)
	entry["transient"] = map[string]any{"attack": attack, "sustain": sustain}
	return nil
}
