// Package script implements the headless command interpreter (spec
// §4.M): a line-oriented format that builds and edits a Project exactly
// the way the TUI does, so scripted sessions and interactive sessions
// share one code path. Grounded on cli/headless.py's HeadlessRunner,
// extended with the commands spec.md's command table adds that
// headless.py never had (gen_bass_follow, select_notes/apply_selected,
// the mix-helper and export/meter commands).
package script

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/clawdaw/clawdaw/internal/clawerr"
	"github.com/clawdaw/clawdaw/internal/config"
	"github.com/clawdaw/clawdaw/internal/external"
	"github.com/clawdaw/clawdaw/internal/model"
	"github.com/clawdaw/clawdaw/internal/quality"
	"github.com/clawdaw/clawdaw/internal/render"
)

// maxIncludeDepth bounds recursive `include` nesting (spec §9 Open
// Question: hard-fail past this depth, and also hard-fail a cycle).
const maxIncludeDepth = 32

// commandFunc executes one parsed command line.
type commandFunc func(rt *Runtime, args []string) error

// Selection is the note set `select_notes` built for a later
// `apply_selected` to mutate (spec §4.M select_notes/apply_selected).
type Selection struct {
	TrackIndex int
	Pattern    string
	Notes      []*model.Note
}

// Runtime is a headless interpreter session: a live Project plus the
// engine/tool wiring its export and render commands need.
type Runtime struct {
	Project *model.Project

	Cfg    config.Config
	Logger *slog.Logger

	SoundFont *external.SoundFontRenderer
	Media     *external.MediaTool

	Presets map[string]quality.Preset

	// Strict mode raises on the first error (matches headless.py's
	// strict=True); otherwise errors are collected as warnings and the
	// run continues at the next line.
	Strict bool
	// DryRun skips commands whose only effect is an external-tool
	// invocation (renders/exports), for fast project-only runs such as
	// the generator's novelty-check loop.
	DryRun bool

	Warnings         []string
	CommandsExecuted int

	Selection *Selection

	includeDepth int
	includeSeen  mapset.Set[string]
}

// NewRuntime builds an interpreter using cfg to construct its external
// tool wrappers.
func NewRuntime(cfg config.Config, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	presets, err := quality.DefaultPresets()
	if err != nil {
		presets = map[string]quality.Preset{}
	}
	return &Runtime{
		Cfg:         cfg,
		Logger:      logger,
		SoundFont:   external.NewSoundFontRenderer(cfg.SFRenderer, logger),
		Media:       external.NewMediaTool(cfg.MediaTool, logger),
		Presets:     presets,
		Strict:      true,
		includeSeen: mapset.NewSet[string](),
	}
}

// RenderOptions builds a render.Options from the runtime's configured
// tools, for any command that renders or exports audio.
func (rt *Runtime) RenderOptions(workDir string) render.Options {
	return render.Options{
		SampleRate:    rt.Cfg.SampleRate,
		SoundFontPath: rt.Cfg.SoundFont,
		DrumMode:      "auto",
		WorkDir:       workDir,
		SoundFont:     rt.SoundFont,
		Media:         rt.Media,
		Logger:        rt.Logger,
	}
}

func (rt *Runtime) requireProject() (*model.Project, error) {
	if rt.Project == nil {
		return nil, clawerr.New(clawerr.KindInvalidState, "no project is open")
	}
	return rt.Project, nil
}

// tokenize splits a command line on whitespace, treating "double quoted
// segments" as single tokens so track/project names may contain spaces.
func tokenize(line string) []string {
	var toks []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case (r == ' ' || r == '\t') && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

// RunLines interprets a script, one command per line, resolving `include`
// relative to baseDir. Blank lines and lines starting with `#` are
// skipped. In strict mode the first error aborts with its 1-indexed
// source line attached; otherwise it is recorded in Warnings and the run
// continues (spec §7 propagation policy, grounded on headless.py's
// run_lines try/except).
func (rt *Runtime) RunLines(lines []string, baseDir string) error {
	for i, raw := range lines {
		lineno := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if rest, ok := strings.CutPrefix(line, "include "); ok {
			if err := rt.runInclude(strings.TrimSpace(rest), baseDir); err != nil {
				if rt.Strict {
					return clawerr.AtLine(lineno, err)
				}
				rt.Warnings = append(rt.Warnings, fmt.Sprintf("line %d: %s", lineno, err))
			}
			continue
		}

		if err := rt.runCommand(line); err != nil {
			if rt.Strict {
				return clawerr.AtLine(lineno, fmt.Errorf("%s (%w)", line, err))
			}
			rt.Warnings = append(rt.Warnings, fmt.Sprintf("line %d: %s (%s)", lineno, line, err))
			continue
		}
		rt.CommandsExecuted++
	}
	return nil
}

func (rt *Runtime) runInclude(relPath, baseDir string) error {
	if rt.includeDepth >= maxIncludeDepth {
		return clawerr.New(clawerr.KindInvalidState, "include recursion exceeds the depth limit")
	}
	incPath := relPath
	if !filepath.IsAbs(incPath) {
		incPath = filepath.Join(baseDir, relPath)
	}
	abs, err := filepath.Abs(incPath)
	if err != nil {
		return err
	}
	if rt.includeSeen.Contains(abs) {
		return clawerr.Newf(clawerr.KindInvalidState, "include cycle detected at %s", abs)
	}

	data, err := os.ReadFile(incPath)
	if err != nil {
		return clawerr.Wrap(clawerr.KindIO, err, "include not found: "+incPath)
	}

	rt.includeDepth++
	rt.includeSeen.Add(abs)
	defer func() {
		rt.includeDepth--
		rt.includeSeen.Remove(abs)
	}()

	return rt.RunLines(strings.Split(string(data), "\n"), filepath.Dir(incPath))
}

func (rt *Runtime) runCommand(line string) error {
	toks := tokenize(line)
	if len(toks) == 0 {
		return nil
	}
	name, args := toks[0], toks[1:]

	fn, ok := commands[name]
	if !ok {
		return clawerr.Newf(clawerr.KindInvalidInput, "unknown command %q", name)
	}
	return fn(rt, args)
}

// ReadLinesFromPathOrStdin reads a script from path, or from stdin when
// path is "-" or empty.
func ReadLinesFromPathOrStdin(path string) ([]string, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", clawerr.Wrap(clawerr.KindIO, err, "read script from stdin")
		}
		return strings.Split(string(data), "\n"), ".", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", clawerr.Wrap(clawerr.KindIO, err, "read script "+path)
	}
	return strings.Split(string(data), "\n"), filepath.Dir(path), nil
}
