package script

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/clawdaw/clawdaw/internal/clawerr"
	"github.com/clawdaw/clawdaw/internal/meter"
	"github.com/clawdaw/clawdaw/internal/midiemit"
	"github.com/clawdaw/clawdaw/internal/quality"
	"github.com/clawdaw/clawdaw/internal/render"
	"github.com/clawdaw/clawdaw/internal/wavio"
)

func cmdExportMIDI(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "export_midi <path>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	if rt.DryRun {
		return nil
	}
	return os.WriteFile(args[0], midiemit.Emit(p), 0o644)
}

func (rt *Runtime) renderFull(ctx context.Context) (*render.Result, error) {
	p, err := rt.requireProject()
	if err != nil {
		return nil, err
	}
	return render.Render(ctx, p, rt.RenderOptions(""))
}

func cmdExportWAV(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "export_wav <path>"); err != nil {
		return err
	}
	if rt.DryRun {
		if _, err := rt.requireProject(); err != nil {
			return err
		}
		return nil
	}
	res, err := rt.renderFull(context.Background())
	if err != nil {
		return clawerr.Wrap(clawerr.KindExternalTool, err, "export_wav render")
	}
	return wavio.WriteFile(args[0], res.Buffer)
}

func (rt *Runtime) encodeVia(wavPath, outPath string) error {
	if rt.Media == nil {
		return clawerr.New(clawerr.KindExternalTool, "no media tool configured")
	}
	_, _, err := rt.Media.Invoke(context.Background(), []string{"-y", "-i", wavPath, outPath})
	return err
}

func (rt *Runtime) exportEncoded(outPath string) error {
	if rt.DryRun {
		_, err := rt.requireProject()
		return err
	}
	res, err := rt.renderFull(context.Background())
	if err != nil {
		return clawerr.Wrap(clawerr.KindExternalTool, err, "render")
	}
	tmp, cleanup, err := writeAutoTuneWAVLike(rt.RenderOptions(""), res)
	if err != nil {
		return err
	}
	defer cleanup()
	return rt.encodeVia(tmp, outPath)
}

func cmdExportMP3(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "export_mp3 <path>"); err != nil {
		return err
	}
	return rt.exportEncoded(args[0])
}

func cmdExportM4A(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "export_m4a <path>"); err != nil {
		return err
	}
	return rt.exportEncoded(args[0])
}

func cmdExportPreviewMP3(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "export_preview_mp3 <path>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	if rt.DryRun {
		return nil
	}
	start, end := render.RenderRegion(p)
	ticks := end - start
	previewTicks := p.PPQ * 4 * 16
	if previewTicks < ticks {
		ticks = previewTicks
	}
	preview := render.SliceProject(p, start, start+ticks)
	res, err := render.Render(context.Background(), preview, rt.RenderOptions(""))
	if err != nil {
		return clawerr.Wrap(clawerr.KindExternalTool, err, "export_preview_mp3 render")
	}
	tmp, cleanup, err := writeAutoTuneWAVLike(rt.RenderOptions(""), res)
	if err != nil {
		return err
	}
	defer cleanup()
	return rt.encodeVia(tmp, args[0])
}

func writeAutoTuneWAVLike(opts render.Options, res *render.Result) (string, func(), error) {
	dir := opts.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "clawdaw-*.wav")
	if err != nil {
		return "", nil, clawerr.Wrap(clawerr.KindIO, err, "reserve temp wav")
	}
	path := f.Name()
	f.Close()
	os.Remove(path)
	if err := wavio.WriteFile(path, res.Buffer); err != nil {
		return "", nil, clawerr.Wrap(clawerr.KindIO, err, "write temp wav")
	}
	return path, func() { os.Remove(path) }, nil
}

func cmdExportStems(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "export_stems <dir>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	if rt.DryRun {
		return nil
	}
	_, artifacts, err := render.RenderPackage(context.Background(), p, rt.RenderOptions(""))
	if err != nil {
		return clawerr.Wrap(clawerr.KindExternalTool, err, "export_stems render")
	}
	if err := os.MkdirAll(args[0], 0o755); err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "export_stems mkdir")
	}
	names := sortedKeys(artifacts.Stems)
	for i, name := range names {
		path := filepath.Join(args[0], fmt.Sprintf("%02d_%s.wav", i, name))
		if err := wavio.WriteFile(path, artifacts.Stems[name]); err != nil {
			return clawerr.Wrap(clawerr.KindIO, err, "export_stems write "+path)
		}
	}
	return nil
}

func cmdExportBusses(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "export_busses <dir>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	if rt.DryRun {
		return nil
	}
	_, artifacts, err := render.RenderPackage(context.Background(), p, rt.RenderOptions(""))
	if err != nil {
		return clawerr.Wrap(clawerr.KindExternalTool, err, "export_busses render")
	}
	if err := os.MkdirAll(args[0], 0o755); err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "export_busses mkdir")
	}
	for _, name := range sortedKeys(artifacts.Buses) {
		path := filepath.Join(args[0], "bus_"+name+".wav")
		if err := wavio.WriteFile(path, artifacts.Buses[name]); err != nil {
			return clawerr.Wrap(clawerr.KindIO, err, "export_busses write "+path)
		}
	}
	return nil
}

func sortedKeys(m map[string]*wavio.Buffer) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cmdExportPackage renders the full artifact set for a project name into
// out/<name>.{json,mid,wav,mp3}, out/<name>_stems/, out/<name>_busses/
// (spec §6 "output artifact naming").
func cmdExportPackage(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "export_package <out_prefix>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	prefix := args[0]
	if rt.DryRun {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(prefix), 0o755); err != nil && filepath.Dir(prefix) != "." {
		return clawerr.Wrap(clawerr.KindIO, err, "export_package mkdir")
	}

	if err := cmdSaveProject(rt, []string{prefix + ".json"}); err != nil {
		return err
	}
	if err := cmdExportMIDI(rt, []string{prefix + ".mid"}); err != nil {
		return err
	}

	res, artifacts, err := render.RenderPackage(context.Background(), p, rt.RenderOptions(""))
	if err != nil {
		return clawerr.Wrap(clawerr.KindExternalTool, err, "export_package render")
	}
	if err := wavio.WriteFile(prefix+".wav", res.Buffer); err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "export_package write wav")
	}
	if err := rt.encodeVia(prefix+".wav", prefix+".mp3"); err != nil {
		return err
	}

	stemDir := prefix + "_stems"
	if err := os.MkdirAll(stemDir, 0o755); err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "export_package mkdir stems")
	}
	for i, name := range sortedKeys(artifacts.Stems) {
		path := filepath.Join(stemDir, fmt.Sprintf("%02d_%s.wav", i, name))
		if err := wavio.WriteFile(path, artifacts.Stems[name]); err != nil {
			return clawerr.Wrap(clawerr.KindIO, err, "export_package write stem")
		}
	}

	busDir := prefix + "_busses"
	if len(artifacts.Buses) > 0 {
		if err := os.MkdirAll(busDir, 0o755); err != nil {
			return clawerr.Wrap(clawerr.KindIO, err, "export_package mkdir busses")
		}
		for _, name := range sortedKeys(artifacts.Buses) {
			path := filepath.Join(busDir, "bus_"+name+".wav")
			if err := wavio.WriteFile(path, artifacts.Buses[name]); err != nil {
				return clawerr.Wrap(clawerr.KindIO, err, "export_package write bus")
			}
		}
	}
	return nil
}

func cmdSpectrogram(rt *Runtime, args []string) error {
	if err := needArgs(args, 2, "spectrogram_audio <wav> <png>"); err != nil {
		return err
	}
	if rt.Media == nil {
		return clawerr.New(clawerr.KindExternalTool, "no media tool configured")
	}
	if rt.DryRun {
		return nil
	}
	filter := "showspectrumpic=s=1024x512"
	_, _, err := rt.Media.Invoke(context.Background(), []string{"-y", "-i", args[0], "-lavfi", filter, args[1]})
	return err
}

func cmdExportSpectrogram(rt *Runtime, args []string) error { return cmdSpectrogram(rt, args) }

func cmdAnalyzeRefs(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "analyze_refs <dir>"); err != nil {
		return err
	}
	if rt.DryRun {
		return nil
	}
	entries, err := os.ReadDir(args[0])
	if err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "analyze_refs read dir")
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(args[0], e.Name())
		rep, err := meter.Analyze(context.Background(), rt.Media, path)
		if err != nil {
			rt.Warnings = append(rt.Warnings, fmt.Sprintf("analyze_refs: %s: %s", path, err))
			continue
		}
		data, _ := json.Marshal(rep)
		rt.Logger.Info("analyze_refs", "file", e.Name(), "report", string(data))
	}
	return nil
}

func cmdMeterAudio(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "meter_audio <path>"); err != nil {
		return err
	}
	if rt.DryRun {
		return nil
	}
	rep, err := meter.Analyze(context.Background(), rt.Media, args[0])
	if err != nil {
		return clawerr.Wrap(clawerr.KindExternalTool, err, "meter_audio")
	}
	data, _ := json.MarshalIndent(rep, "", "  ")
	fmt.Println(string(data))
	return nil
}

func cmdAnalyzeAudio(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "analyze_audio <path>"); err != nil {
		return err
	}
	if rt.DryRun {
		return nil
	}
	rep, err := meter.Analyze(context.Background(), rt.Media, args[0])
	if err != nil {
		return clawerr.Wrap(clawerr.KindExternalTool, err, "analyze_audio")
	}
	band, err := meter.MeasureBandEnergy(context.Background(), rt.Media, args[0])
	if err != nil {
		return clawerr.Wrap(clawerr.KindExternalTool, err, "analyze_audio band energy")
	}
	out := map[string]any{"report": rep, "band_energy": band}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
	return nil
}

func cmdRunQualityWorkflow(rt *Runtime, args []string) error {
	if err := needArgs(args, 1, "run_quality_workflow <preset>"); err != nil {
		return err
	}
	p, err := rt.requireProject()
	if err != nil {
		return err
	}
	if rt.DryRun {
		return nil
	}
	report, err := quality.RunQualityWorkflow(context.Background(), p, quality.WorkflowOptions{
		Preset:  args[0],
		Presets: rt.Presets,
		Render:  rt.RenderOptions(""),
	})
	if err != nil {
		return clawerr.Wrap(clawerr.KindMixSpecFailure, err, "run_quality_workflow")
	}
	data, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(data))
	if !report.OK {
		return clawerr.New(clawerr.KindGateFailure, report.Error)
	}
	return nil
}
