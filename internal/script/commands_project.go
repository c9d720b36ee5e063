package script

import (
	"fmt"

	"github.com/clawdaw/clawdaw/internal/clawerr"
	"github.com/clawdaw/clawdaw/internal/generator"
	"github.com/clawdaw/clawdaw/internal/model"
	"github.com/clawdaw/clawdaw/internal/validate"
)

func cmdNewProject(rt *Runtime, args []string) error {
	if err := needArgs(args, 2, "new_project <name> <bpm>"); err != nil {
		return err
	}
	bpm, err := parseInt(args[1])
	if err != nil {
		return err
	}
	rt.Project = model.NewProject(args[0], bpm)
	return nil
}

// runTemplate builds a demo project for a named style by delegating to
// the generator's brief-to-script synthesis, then running the result
// in-place (spec §4.M template_house/template_lofi/template_hiphop,
// grounded on headless.py's template_* commands delegating to
// render_demo).
func (rt *Runtime) runTemplate(style string) error {
	brief := generator.ParsePrompt(style+" demo", "")
	brief.Style = generator.StyleName(style)
	gs := generator.BriefToScript(brief, 0, "")
	return rt.RunLines(splitLines(gs.Script), ".")
}

func splitLines(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == '\n' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func cmdTemplateHouse(rt *Runtime, args []string) error  { return rt.runTemplate("house") }
func cmdTemplateLofi(rt *Runtime, args []string) error   { return rt.runTemplate("lofi") }
func cmdTemplateHipHop(rt *Runtime, args []string) error { return rt.runTemplate("hiphop") }

func cmdRenderDemo(rt *Runtime, args []string) error {
	style := "hiphop"
	if len(args) > 0 {
		style = args[0]
	}
	return rt.runTemplate(style)
}

func cmdOpenProject(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "open_project <path>"); err != nil {
		return err
	}
	p, err := model.Load(args[0])
	if err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "open_project")
	}
	rt.Project = p
	return nil
}

func cmdSaveProject(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "save_project <path>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	if rt.DryRun {
		return nil
	}
	return model.Save(p, args[0])
}

func cmdAddTrack(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "add_track <name>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	t := model.NewTrack(args[0], len(p.Tracks))
	p.Tracks = append(p.Tracks, t)
	return nil
}

func cmdDeleteTrack(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "delete_track <index>"); err != nil {
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
	if _, err := trackAt(p, idx); err != nil {
		return err
	}
	p.Tracks = append(p.Tracks[:idx], p.Tracks[idx+1:]...)
	return nil
}

func trackSetter(args []string, set func(t *model.Track, v int) error) commandFunc {
	return func(rt *Runtime, a []string) error {
		if err := needArgs(a, 2, "<index> <value>"); err != nil {
			return err
		}
		p, err := rt.requireProject()
		if err != nil {
			return err
		}
		idx, err := parseInt(a[0])
		if err != nil {
			return err
		}
		t, err := trackAt(p, idx)
		if err != nil {
			return err
		}
		v, err := parseInt(a[1])
		if err != nil {
			return err
		}
		return set(t, v)
	}
}

func cmdSetProgram(rt *Runtime, args []string) error {
	return trackSetter(args, func(t *model.Track, v int) error { t.Program = v; return nil })(rt, args)
}
func cmdSetVolume(rt *Runtime, args []string) error {
	return trackSetter(args, func(t *model.Track, v int) error { t.Volume = v; return nil })(rt, args)
}
func cmdSetPan(rt *Runtime, args []string) error {
	return trackSetter(args, func(t *model.Track, v int) error { t.Pan = v; return nil })(rt, args)
}
func cmdSetReverb(rt *Runtime, args []string) error {
	return trackSetter(args, func(t *model.Track, v int) error { t.Reverb = v; return nil })(rt, args)
}
func cmdSetChorus(rt *Runtime, args []string) error {
	return trackSetter(args, func(t *model.Track, v int) error { t.Chorus = v; return nil })(rt, args)
}
func cmdSetGlide(rt *Runtime, args []string) error {
	return trackSetter(args, func(t *model.Track, v int) error { t.GlideTicks = v; return nil })(rt, args)
}

func cmdSetSampler(rt *Runtime, args []string) error {
	if err := needArgs(args, 2, "set_sampler <index> drums|808|none"); err != nil {
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
	switch args[1] {
	case "drums":
		t.Sampler = model.SamplerDrums
	case "808":
		t.Sampler = model.Sampler808
	case "none":
		t.Sampler = model.SamplerNone
	default:
		return clawerr.Newf(clawerr.KindInvalidInput, "unknown sampler mode %q", args[1])
	}
	t.NormalizeSamplerMode()
	return nil
}

func cmdSetHumanize(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "set_humanize <index> [timing=] [velocity=] [seed=]"); err != nil {
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
	kv := parseKV(args[1:])
	t.Humanize.Timing = kvInt(kv, "timing", t.Humanize.Timing)
	t.Humanize.Velocity = kvInt(kv, "velocity", t.Humanize.Velocity)
	t.Humanize.Seed = kvInt64(kv, "seed", t.Humanize.Seed)
	return nil
}

func cmdSetSwing(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "set_swing <percent>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	v, err := parseInt(args[0])
	if err != nil {
		return err
	}
	p.SwingPercent = v
	return nil
}

func cmdSetLoop(rt *Runtime, args []string) error {
	if err := needArgs(args, 2, "set_loop <start> <end>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	start, err := timecode(p, args[0])
	if err != nil {
		return err
	}
	end, err := timecode(p, args[1])
	if err != nil {
		return err
	}
	p.LoopStart, p.LoopEnd = &start, &end
	return nil
}

func cmdClearLoop(rt *Runtime, args []string) error {
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	p.LoopStart, p.LoopEnd = nil, nil
	return nil
}

func cmdSetRenderRegion(rt *Runtime, args []string) error {
	if err := needArgs(args, 2, "set_render_region <start> <end>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	start, err := timecode(p, args[0])
	if err != nil {
		return err
	}
	end, err := timecode(p, args[1])
	if err != nil {
		return err
	}
	p.RenderStart, p.RenderEnd = &start, &end
	return nil
}

func cmdClearRenderRegion(rt *Runtime, args []string) error {
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	p.RenderStart, p.RenderEnd = nil, nil
	return nil
}

func cmdInsertNote(rt *Runtime, args []string) error {
	if err := needArgs(args, 5, "insert_note <index> <start> <dur> <pitch> <vel>"); err != nil {
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
	start, err := timecode(p, args[1])
	if err != nil {
		return err
	}
	dur, err := timecode(p, args[2])
	if err != nil {
		return err
	}
	pitch, err := parseInt(args[3])
	if err != nil {
		return err
	}
	vel, err := parseInt(args[4])
	if err != nil {
		return err
	}
	t.Notes = append(t.Notes, model.NewNote(start, dur, pitch, vel))
	return nil
}

func cmdValidateProject(rt *Runtime, args []string) error {
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	res := validate.Migrate(p)
	rt.Project = res.Project
	for _, w := range res.Warnings {
		rt.Warnings = append(rt.Warnings, w.Message)
	}
	return nil
}

func cmdDiffProjects(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "diff_projects <path>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	other, err := model.Load(args[0])
	if err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "diff_projects")
	}
	if len(p.Tracks) != len(other.Tracks) {
		rt.Warnings = append(rt.Warnings, fmt.Sprintf("diff_projects: track count %d vs %d", len(p.Tracks), len(other.Tracks)))
	}
	if p.TempoBPM != other.TempoBPM {
		rt.Warnings = append(rt.Warnings, fmt.Sprintf("diff_projects: tempo %d vs %d", p.TempoBPM, other.TempoBPM))
	}
	return nil
}

func cmdDumpState(rt *Runtime, args []string) error {
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	data, err := model.Marshal(p)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
