package generator

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/clawdaw/clawdaw/internal/meter"
	"github.com/clawdaw/clawdaw/internal/model"
	"github.com/clawdaw/clawdaw/internal/quality"
	"github.com/clawdaw/clawdaw/internal/render"
	"github.com/clawdaw/clawdaw/internal/wavio"
)

// ScriptRunner executes a headless script and returns the resulting
// project; the script runtime supplies this (generator never imports the
// script package, to avoid a cycle — script imports generator for
// gen_drums/gen_bass_follow).
type ScriptRunner func(scriptText string) (*model.Project, error)

// GenerateOptions configures GenerateFromPrompt (grounded on
// prompt/pipeline.py's generate_from_prompt).
type GenerateOptions struct {
	OutPrefix     string
	MaxIters      int // 0 means 3
	Seed          int64
	MaxSimilarity float64 // 0 means use the brief's NoveltyConstraints
	Run           ScriptRunner

	AutoTune    bool
	Render      render.Options
	PreviewBars int
}

// GenerationResult is the outcome of a prompt-to-project generation run.
type GenerationResult struct {
	RunID           string // a stable handle for logs/artifacts, one per generation run
	BriefTitle      string
	OutPrefix       string
	Script          string
	Iterations      int
	Similarities    []float64
	Project         *model.Project
	MasteringPreset string
}

// GenerateFromPrompt parses prompt into a Brief, then repeatedly
// synthesizes and runs a script with an incrementing seed until either
// max_iters is exhausted or the project's similarity to the previous
// attempt drops at or below the brief's novelty ceiling. When AutoTune is
// set it renders a short preview of the final attempt and nudges the mix
// (bass volume down if sub-heavy, mastering preset to "demo" if too
// quiet) the way pipeline.py's closed loop does.
func GenerateFromPrompt(ctx context.Context, prompt string, opts GenerateOptions) (*GenerationResult, error) {
	if opts.Run == nil {
		return nil, fmt.Errorf("generator: GenerateOptions.Run is required")
	}
	maxIters := opts.MaxIters
	if maxIters <= 0 {
		maxIters = 3
	}

	brief := ParsePrompt(prompt, "")
	maxSim := opts.MaxSimilarity
	if maxSim <= 0 {
		maxSim = brief.Novelty.MaxSimilarity
	}

	res := &GenerationResult{RunID: uuid.New().String(), BriefTitle: brief.Title, OutPrefix: opts.OutPrefix}

	var prevFp *ProjectFingerprint
	var lastScript GeneratedScript
	var lastProj *model.Project

	for attempt := 0; attempt < maxIters; attempt++ {
		seed := opts.Seed + int64(attempt)
		gs := BriefToScript(brief, seed, "")
		proj, err := opts.Run(gs.Script)
		if err != nil {
			return nil, fmt.Errorf("generator: attempt %d: %w", attempt, err)
		}

		fp := FingerprintProject(proj)
		lastScript = gs
		lastProj = proj
		res.Iterations = attempt + 1

		if prevFp != nil {
			sim := ProjectSimilarity(*prevFp, fp)
			res.Similarities = append(res.Similarities, sim)
			if sim <= maxSim {
				break
			}
		}
		prevFp = &fp
	}

	res.Project = lastProj
	res.Script = lastScript.Script
	res.MasteringPreset = lastScript.MasteringPreset

	if opts.AutoTune && lastProj != nil {
		if err := autoTune(ctx, lastProj, res, opts); err != nil {
			return res, err
		}
	}

	return res, nil
}

// autoTune renders a short preview and nudges the mix based on band
// energy / loudness, matching pipeline.py's two heuristics: a sub-heavy
// preview pulls bass track volume down; an overly quiet preview switches
// the mastering preset to "demo" (more headroom recovery).
func autoTune(ctx context.Context, p *model.Project, res *GenerationResult, opts GenerateOptions) error {
	bars := opts.PreviewBars
	if bars <= 0 {
		bars = 8
	}
	start, end := render.RenderRegion(p)
	previewTicks := end - start
	barTicks := p.PPQ * 4 * bars
	if barTicks < previewTicks {
		previewTicks = barTicks
	}
	preview := render.SliceProject(p, start, start+previewTicks)

	result, err := render.Render(ctx, preview, opts.Render)
	if err != nil {
		return fmt.Errorf("generator: auto-tune preview render: %w", err)
	}

	if opts.Render.Media != nil {
		path, cleanup, werr := writeAutoTuneWAV(opts.Render, result)
		if werr == nil {
			defer cleanup()
			if band, berr := meter.MeasureBandEnergy(ctx, opts.Render.Media, path); berr == nil {
				subHeavy := band.SubLT90.MeanVolume > band.Full.MeanVolume-6
				if subHeavy {
					for _, t := range p.Tracks {
						if quality.ClassifyTrack(t.Name).IsBass {
							t.Volume = scaleInt(t.Volume, 0.85)
						}
					}
				}
			}
			if rep, aerr := meter.Analyze(ctx, opts.Render.Media, path); aerr == nil {
				if rep.IntegratedLUFS != nil && *rep.IntegratedLUFS < -20 {
					res.MasteringPreset = "demo"
				}
			}
		}
	}
	return nil
}

func writeAutoTuneWAV(opts render.Options, result *render.Result) (string, func(), error) {
	dir := opts.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "autotune-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("generator: reserve temp path: %w", err)
	}
	path := f.Name()
	f.Close()
	os.Remove(path)
	if err := wavio.WriteFile(path, result.Buffer); err != nil {
		return "", nil, fmt.Errorf("generator: write preview wav: %w", err)
	}
	return path, func() { os.Remove(path) }, nil
}

func scaleInt(v int, scale float64) int {
	nv := int(float64(v)*scale + 0.5)
	if nv < 1 {
		nv = 1
	}
	if nv > 127 {
		nv = 127
	}
	return nv
}
