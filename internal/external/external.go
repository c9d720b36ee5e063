// Package external owns every subprocess invocation claw-daw makes (spec
// §6.5, §9 "external-tool integration → narrow boundary"): the SoundFont
// renderer and the media tool. Both accept a pre-built argument list and
// go through an injectable Runner so tests never spawn a real process.
package external

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
)

// Runner executes name with args and returns stdout, stderr and any error
// — the seam that lets tests substitute a fake process.
type Runner func(ctx context.Context, name string, args []string) (stdout []byte, stderr []byte, err error)

// ExecRunner is the default Runner, shelling out via os/exec.
func ExecRunner(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// SoundFontRenderer wraps the external SoundFont renderer: MIDI + sf2 +
// sample rate → WAV, invoked as a blocking subprocess (spec §6.5).
type SoundFontRenderer struct {
	Bin    string
	Run    Runner
	Logger *slog.Logger
}

// NewSoundFontRenderer builds a renderer using ExecRunner by default.
func NewSoundFontRenderer(bin string, logger *slog.Logger) *SoundFontRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SoundFontRenderer{Bin: bin, Run: ExecRunner, Logger: logger}
}

// Render invokes the SoundFont renderer, producing outWav from midiPath
// and sf2Path at sampleRate.
func (r *SoundFontRenderer) Render(ctx context.Context, midiPath, sf2Path, outWav string, sampleRate int) error {
	args := []string{"-ni", "-F", outWav, "-r", fmt.Sprint(sampleRate), sf2Path, midiPath}
	r.Logger.Debug("invoking soundfont renderer", "bin", r.Bin, "args", args)

	_, stderr, err := r.Run(ctx, r.Bin, args)
	if err != nil {
		return fmt.Errorf("external: soundfont renderer failed: %w (stderr: %s)", err, stderr)
	}
	return nil
}

// MediaTool wraps the media-processing tool: filter_complex graphs,
// metering analysis, and encoding, grounded on
// original_source/claw_daw/audio/mix_engine.py's argument construction.
type MediaTool struct {
	Bin    string
	Run    Runner
	Logger *slog.Logger
}

// NewMediaTool builds a media tool wrapper using ExecRunner by default.
func NewMediaTool(bin string, logger *slog.Logger) *MediaTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaTool{Bin: bin, Run: ExecRunner, Logger: logger}
}

// Invoke runs the media tool with a pre-built argument list, returning
// stdout/stderr for callers that parse tool output (internal/meter).
func (m *MediaTool) Invoke(ctx context.Context, args []string) ([]byte, []byte, error) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("invoking media tool", "bin", m.Bin, "args", args)
	stdout, stderr, err := m.Run(ctx, m.Bin, args)
	if err != nil {
		return stdout, stderr, fmt.Errorf("external: media tool failed: %w (stderr: %s)", err, stderr)
	}
	return stdout, stderr, nil
}

// MixInputs runs the media tool over a set of input files with a
// filter_complex script, mapping the named output label to outPath.
func (m *MediaTool) MixInputs(ctx context.Context, inputs []string, filterComplex, outputLabel, outPath string) error {
	return m.MixInputsMulti(ctx, inputs, filterComplex, map[string]string{outputLabel: outPath})
}

// MixInputsMulti runs the media tool once over a set of input files with a
// single filter_complex script, mapping several labeled outputs to their
// own files in one invocation (spec §4.M export_package: master + stems +
// busses from a single compiled graph).
func (m *MediaTool) MixInputsMulti(ctx context.Context, inputs []string, filterComplex string, outputs map[string]string) error {
	var args []string
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	args = append(args, "-filter_complex", filterComplex)

	labels := make([]string, 0, len(outputs))
	for label := range outputs {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		args = append(args, "-map", "["+label+"]", outputs[label])
	}

	_, _, err := m.Invoke(ctx, args)
	return err
}
