// Command clawdaw is the offline, deterministic music-production CLI:
// a headless script runtime (internal/script), a prompt-to-project
// generator (internal/generator), and the quality-gate workflow
// (internal/quality), wired together the way cmd/engine wired the
// gRPC service it replaces.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/clawdaw/clawdaw/internal/clawerr"
	"github.com/clawdaw/clawdaw/internal/config"
	"github.com/clawdaw/clawdaw/internal/generator"
	"github.com/clawdaw/clawdaw/internal/model"
	"github.com/clawdaw/clawdaw/internal/quality"
	"github.com/clawdaw/clawdaw/internal/script"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	sub, rest := os.Args[1], os.Args[2:]
	var err error
	switch sub {
	case "run":
		err = runScript(rest)
	case "generate":
		err = runGenerate(rest)
	case "quality":
		err = runQuality(rest)
	case "version":
		fmt.Println("clawdaw 0.1.0")
		return
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "clawdaw: unknown command %q\n", sub)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "clawdaw:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: clawdaw <command> [flags]

commands:
  run <script>        run a headless command script against a project
  generate <prompt>    synthesize a project from a one-line style prompt
  quality <project>    run the mix-preparation and gating workflow
  version              print the build version`)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func runScript(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	strict := fs.Bool("strict", true, "abort on the first command error")
	lenient := fs.Bool("lenient", false, "collect command errors as warnings instead of aborting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Parse(fs, fs.Args())
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "create data dir")
	}

	var scriptPath string
	if fs.NArg() > 0 {
		scriptPath = fs.Arg(0)
	}
	lines, baseDir, err := script.ReadLinesFromPathOrStdin(scriptPath)
	if err != nil {
		return err
	}

	rt := script.NewRuntime(*cfg, logger)
	rt.Strict = *strict && !*lenient

	if err := rt.RunLines(lines, baseDir); err != nil {
		return err
	}
	for _, w := range rt.Warnings {
		logger.Warn("script warning", "detail", w)
	}
	logger.Info("script run complete", "commands", rt.CommandsExecuted, "warnings", len(rt.Warnings))
	return nil
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	out := fs.String("out", "out/generated", "output file prefix for the generated package")
	seed := fs.Int64("seed", 0, "base PRNG seed")
	maxIters := fs.Int("max-iters", 3, "maximum regeneration attempts before accepting the result")
	maxSim := fs.Float64("max-similarity", 0, "novelty ceiling (0 uses the brief's default)")
	autoTune := fs.Bool("auto-tune", true, "render a short preview and nudge bass/mastering")
	export := fs.Bool("export", true, "export the full artifact package once generation settles")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Parse(fs, fs.Args())
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "create data dir")
	}

	prompt := fs.Arg(0)
	if prompt == "" {
		return clawerr.New(clawerr.KindInvalidInput, "generate requires a prompt argument")
	}

	runner := func(scriptText string) (*model.Project, error) {
		rt := script.NewRuntime(*cfg, logger)
		rt.DryRun = true
		if err := rt.RunLines(splitScriptLines(scriptText), "."); err != nil {
			return nil, err
		}
		return rt.Project, nil
	}

	renderRT := script.NewRuntime(*cfg, logger)
	result, err := generator.GenerateFromPrompt(context.Background(), prompt, generator.GenerateOptions{
		OutPrefix:     *out,
		MaxIters:      *maxIters,
		Seed:          *seed,
		MaxSimilarity: *maxSim,
		Run:           runner,
		AutoTune:      *autoTune,
		Render:        renderRT.RenderOptions(cfg.DataDir),
		PreviewBars:   8,
	})
	if err != nil {
		return err
	}
	logger.Info("generated project", "run_id", result.RunID, "title", result.BriefTitle, "iterations", result.Iterations,
		"similarities", result.Similarities, "mastering_preset", result.MasteringPreset)

	if *export && result.Project != nil {
		rt := script.NewRuntime(*cfg, logger)
		rt.Project = result.Project
		if err := cmdExportPackageStandalone(rt, *out); err != nil {
			return err
		}
		logger.Info("exported package", "prefix", *out)
	}
	return nil
}

// cmdExportPackageStandalone drives the same package export a script's
// export_package command would, for the generate sub-command's
// non-interactive path.
func cmdExportPackageStandalone(rt *script.Runtime, prefix string) error {
	return rt.RunLines([]string{"export_package " + prefix}, ".")
}

func runQuality(args []string) error {
	fs := flag.NewFlagSet("quality", flag.ExitOnError)
	preset := fs.String("preset", "edm_streaming", "mastering/gate preset name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Parse(fs, fs.Args())
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	projectPath := fs.Arg(0)
	if projectPath == "" {
		return clawerr.New(clawerr.KindInvalidInput, "quality requires a project path argument")
	}
	p, err := model.Load(projectPath)
	if err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "load project")
	}

	presets, err := quality.DefaultPresets()
	if err != nil {
		return err
	}
	rt := script.NewRuntime(*cfg, logger)
	report, err := quality.RunQualityWorkflow(context.Background(), p, quality.WorkflowOptions{
		Preset:  *preset,
		Presets: presets,
		Render:  rt.RenderOptions(cfg.DataDir),
	})
	if err != nil {
		return err
	}
	for _, step := range report.Steps {
		logger.Info("quality step", "step", step.Step, "ok", step.OK, "detail", step.Detail)
	}
	if !report.OK {
		return clawerr.New(clawerr.KindGateFailure, report.Error)
	}
	logger.Info("quality workflow passed", "preset", *preset)
	return nil
}

func splitScriptLines(s string) []string {
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
