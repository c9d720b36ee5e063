package quality

import (
	"context"
	"fmt"
	"os"

	"github.com/clawdaw/clawdaw/internal/meter"
	"github.com/clawdaw/clawdaw/internal/model"
	"github.com/clawdaw/clawdaw/internal/render"
	"github.com/clawdaw/clawdaw/internal/wavio"
)

// WorkflowOptions configures RunQualityWorkflow.
type WorkflowOptions struct {
	Preset  string
	Presets map[string]Preset // nil uses DefaultPresets()

	SkipSectionGain         bool
	SectionGainIncludeDrums bool
	SectionGainIncludeBass  bool

	CrestMin     float64 // master gate crest-factor floor; 0 means 6.0
	LUFSGuidance bool    // annotate stem gate with per-role LUFS guidance

	Render render.Options
}

func (o WorkflowOptions) crestMin() float64 {
	if o.CrestMin > 0 {
		return o.CrestMin
	}
	return 6.0
}

// StepReport is one stage of the quality workflow's fail-fast pipeline.
type StepReport struct {
	Step   string   `json:"step"`
	OK     bool     `json:"ok"`
	Detail string   `json:"detail,omitempty"`
	Checks []string `json:"checks,omitempty"`
}

// WorkflowReport is the full run: every step attempted up to the first
// failure, plus the overall outcome.
type WorkflowReport struct {
	OK     bool         `json:"ok"`
	Preset string       `json:"preset"`
	Steps  []StepReport `json:"steps"`
	Error  string       `json:"error,omitempty"`
}

func writeTempWAV(opts render.Options, buf *wavio.Buffer, prefix string) (string, func(), error) {
	dir := opts.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, prefix+"-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("quality: reserve temp path: %w", err)
	}
	path := f.Name()
	f.Close()
	os.Remove(path)
	if err := wavio.WriteFile(path, buf); err != nil {
		return "", nil, fmt.Errorf("quality: write %s: %w", prefix, err)
	}
	return path, func() { os.Remove(path) }, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RunQualityWorkflow runs the full fail-fast mix-preparation and gating
// pipeline (spec §4.K "run_quality_workflow"): prepare the mix spec,
// optionally apply section gain, validate the spec structurally, render
// and gate a short preview, then render the full package (master + stems +
// busses) and gate both the master and every stem/bus. Each step's result
// is recorded even when it causes the run to stop early.
func RunQualityWorkflow(ctx context.Context, p *model.Project, opts WorkflowOptions) (*WorkflowReport, error) {
	presets := opts.Presets
	if presets == nil {
		var err error
		presets, err = DefaultPresets()
		if err != nil {
			return nil, err
		}
	}
	preset, ok := presets[opts.Preset]
	if !ok {
		return nil, fmt.Errorf("quality: unknown preset %q", opts.Preset)
	}

	report := &WorkflowReport{Preset: opts.Preset}

	stopWith := func(step, detail string) *WorkflowReport {
		report.Steps = append(report.Steps, StepReport{Step: step, OK: false, Detail: detail})
		report.OK = false
		report.Error = detail
		return report
	}

	p.Mix = PrepareMixSpec(p, preset)
	report.Steps = append(report.Steps, StepReport{Step: "mix_prepare", OK: true})

	if !opts.SkipSectionGain {
		ApplySectionGain(p, opts.SectionGainIncludeDrums, opts.SectionGainIncludeBass)
		report.Steps = append(report.Steps, StepReport{Step: "section_gain", OK: true})
	}

	spec := p.Mix.Normalize()
	validOK, validChecks := ValidateMixSpec(p, spec)
	report.Steps = append(report.Steps, StepReport{Step: "mix_spec_validate", OK: validOK, Checks: validChecks})
	if !validOK {
		report.OK = false
		report.Error = "mix spec validation failed"
		return report, nil
	}

	start, end := render.RenderRegion(p)
	previewTicks := minInt(end-start, p.PPQ*4*16)
	preview := render.SliceProject(p, start, start+previewTicks)

	previewRes, err := render.Render(ctx, preview, opts.Render)
	if err != nil {
		return stopWith("preview_render", err.Error()), nil
	}
	report.Steps = append(report.Steps, StepReport{Step: "preview_render", OK: true})

	previewPath, previewCleanup, err := writeTempWAV(opts.Render, previewRes.Buffer, "qpreview")
	if err != nil {
		return stopWith("preview_gate", err.Error()), nil
	}
	previewRep, err := meter.Analyze(ctx, opts.Render.Media, previewPath)
	previewCleanup()
	if err != nil {
		return stopWith("preview_gate", err.Error()), nil
	}
	previewGateOK, previewGateChecks := GateMaster(previewRep, preset, opts.crestMin())
	report.Steps = append(report.Steps, StepReport{Step: "preview_gate", OK: previewGateOK, Checks: previewGateChecks})
	if !previewGateOK {
		report.OK = false
		report.Error = "preview gate failed"
		return report, nil
	}

	result, artifacts, err := render.RenderPackage(ctx, p, opts.Render)
	if err != nil {
		return stopWith("export_package", err.Error()), nil
	}
	report.Steps = append(report.Steps, StepReport{Step: "export_package", OK: true})

	masterPath, masterCleanup, err := writeTempWAV(opts.Render, result.Buffer, "qmaster")
	if err != nil {
		return stopWith("mix_gate", err.Error()), nil
	}
	masterRep, err := meter.Analyze(ctx, opts.Render.Media, masterPath)
	masterCleanup()
	if err != nil {
		return stopWith("mix_gate", err.Error()), nil
	}
	masterGateOK, masterGateChecks := GateMaster(masterRep, preset, opts.crestMin())
	report.Steps = append(report.Steps, StepReport{Step: "mix_gate", OK: masterGateOK, Checks: masterGateChecks})
	if !masterGateOK {
		report.OK = false
		report.Error = "master gate failed"
		return report, nil
	}

	stemReports := map[string]*meter.Report{}
	for name, buf := range artifacts.Stems {
		path, cleanup, werr := writeTempWAV(opts.Render, buf, "qstem")
		if werr != nil {
			return stopWith("mix_gate_stems", werr.Error()), nil
		}
		rep, aerr := meter.Analyze(ctx, opts.Render.Media, path)
		cleanup()
		if aerr != nil {
			return stopWith("mix_gate_stems", aerr.Error()), nil
		}
		stemReports[name] = rep
	}
	for name, buf := range artifacts.Buses {
		path, cleanup, werr := writeTempWAV(opts.Render, buf, "qbus")
		if werr != nil {
			return stopWith("mix_gate_stems", werr.Error()), nil
		}
		rep, aerr := meter.Analyze(ctx, opts.Render.Media, path)
		cleanup()
		if aerr != nil {
			return stopWith("mix_gate_stems", aerr.Error()), nil
		}
		stemReports["bus:"+name] = rep
	}
	stemsOK, stemChecks := GateStems(stemReports, preset, opts.LUFSGuidance)
	report.Steps = append(report.Steps, StepReport{Step: "mix_gate_stems", OK: stemsOK, Checks: stemChecks})
	report.OK = stemsOK
	if !stemsOK {
		report.Error = "stem gate failed"
	}
	return report, nil
}
