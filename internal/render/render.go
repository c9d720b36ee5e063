// Package render implements the offline renderer (spec §4.I): render-region
// selection, project slicing, per-track synthesis dispatch across the
// built-in synth/sampler packages and the external SoundFont renderer, the
// mix-graph/amix mixdown choice, the drum-mode policy, and the pure-math
// transient shaper.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/clawdaw/clawdaw/internal/external"
	"github.com/clawdaw/clawdaw/internal/flatten"
	"github.com/clawdaw/clawdaw/internal/meter"
	"github.com/clawdaw/clawdaw/internal/midiemit"
	"github.com/clawdaw/clawdaw/internal/mixgraph"
	"github.com/clawdaw/clawdaw/internal/model"
	"github.com/clawdaw/clawdaw/internal/sampler"
	"github.com/clawdaw/clawdaw/internal/synth"
	"github.com/clawdaw/clawdaw/internal/wavio"
)

// Category is a track's render-time classification (spec §4.I step 3).
type Category string

const (
	CategorySamplerDrums Category = "sampler-drums"
	CategorySampler808   Category = "sampler-808"
	CategoryInstrument   Category = "instrument"
	CategorySamplePack   Category = "sample-pack"
	CategorySynthless    Category = "synthless"
)

// Classify resolves a track's render category. SamplePack takes priority
// since Track.NormalizeSamplerMode forces Sampler=drums alongside it.
func Classify(t *model.Track) Category {
	switch {
	case t.SamplePack != nil:
		return CategorySamplePack
	case t.Sampler == model.SamplerDrums:
		return CategorySamplerDrums
	case t.Sampler == model.Sampler808:
		return CategorySampler808
	case t.Instrument != nil:
		return CategoryInstrument
	default:
		return CategorySynthless
	}
}

// RenderRegion picks [start,end) per spec §4.I step 1: loop, else the
// explicit render region, else the full song.
func RenderRegion(p *model.Project) (start, end int) {
	if p.LoopStart != nil && p.LoopEnd != nil && *p.LoopEnd > *p.LoopStart {
		return *p.LoopStart, *p.LoopEnd
	}
	if p.RenderStart != nil && p.RenderEnd != nil && *p.RenderEnd > *p.RenderStart {
		return *p.RenderStart, *p.RenderEnd
	}
	return 0, p.SongEndTick()
}

// SliceProject flattens every track's arrangement into [start,end), clamps
// note edges to the window and shifts starts so the window's start maps to
// tick 0 (spec §4.I step 2). It uses flatten.FlattenRaw so role tags survive
// for sample-pack tracks.
func SliceProject(p *model.Project, start, end int) *model.Project {
	out := &model.Project{
		SchemaVersion: p.SchemaVersion,
		Name:          p.Name,
		TempoBPM:      p.TempoBPM,
		PPQ:           p.PPQ,
		Mix:           p.Mix,
	}
	for i, t := range p.Tracks {
		notes := flatten.FlattenRaw(p, i)
		nt := &model.Track{
			Name: t.Name, Channel: t.Channel, Program: t.Program,
			Volume: t.Volume, Pan: t.Pan, Reverb: t.Reverb, Chorus: t.Chorus,
			Sampler: t.Sampler, SamplerPreset: t.SamplerPreset, DrumKit: t.DrumKit,
			Instrument: t.Instrument, SamplePack: t.SamplePack,
			Bus: t.Bus, Mute: t.Mute, Solo: t.Solo,
			Patterns: map[string]*model.Pattern{},
		}
		for _, n := range notes {
			s, e := n.Start, n.End()
			if e <= start || s >= end {
				continue
			}
			ns := maxInt(s, start) - start
			ne := minInt(e, end) - start
			if ne <= ns {
				continue
			}
			nt.Notes = append(nt.Notes, &model.Note{
				Start: ns, Duration: ne - ns, Pitch: n.Pitch,
				Velocity: n.EffectiveVelocity(), Role: n.Role(),
				Chance: 1, Accent: 1,
			})
		}
		out.Tracks = append(out.Tracks, nt)
	}
	return out
}

// clampProjectTicks trims an already-sliced (start=0) project's notes to
// [0,ticks) — used to build drum-mode-policy preview windows.
func clampProjectTicks(p *model.Project, ticks int) *model.Project {
	out := &model.Project{SchemaVersion: p.SchemaVersion, Name: p.Name, TempoBPM: p.TempoBPM, PPQ: p.PPQ, Mix: p.Mix}
	for _, t := range p.Tracks {
		cp := *t
		cp.Patterns = map[string]*model.Pattern{}
		cp.Notes = nil
		for _, n := range t.Notes {
			if n.Start >= ticks {
				continue
			}
			dur := n.Duration
			if n.Start+dur > ticks {
				dur = ticks - n.Start
			}
			if dur <= 0 {
				continue
			}
			nn := *n
			nn.Duration = dur
			cp.Notes = append(cp.Notes, &nn)
		}
		out.Tracks = append(out.Tracks, &cp)
	}
	return out
}

// TicksPerSecond is beats-per-second * PPQ.
func TicksPerSecond(ppq, bpm int) float64 {
	return float64(ppq) * float64(bpm) / 60.0
}

// TicksToFrames converts a tick duration to a frame count at sampleRate.
func TicksToFrames(ticks, ppq, bpm, sampleRate int) int {
	tps := TicksPerSecond(ppq, bpm)
	if tps <= 0 {
		return 0
	}
	return int(math.Round(float64(ticks) / tps * float64(sampleRate)))
}

// ConvertSamplerDrumsToGM rewrites every sampler-drums track into a plain
// MIDI channel-10 GM-drum track: roles are expanded to explicit pitches via
// flatten.Flatten, (start,pitch) collisions keep the louder layer, and the
// sampler is disabled (spec §4.I step 6 "gm" mode).
func ConvertSamplerDrumsToGM(p *model.Project) *model.Project {
	tracks := make([]*model.Track, len(p.Tracks))
	used := map[int]bool{}
	for i, t := range p.Tracks {
		cp := *t
		tracks[i] = &cp
		used[t.Channel] = true
	}

	if used[9] {
		for _, t := range tracks {
			if t.Channel == 9 && t.Sampler != model.SamplerDrums {
				for ch := 0; ch < 16; ch++ {
					if ch != 9 && !used[ch] {
						used[ch] = true
						t.Channel = ch
						break
					}
				}
				break
			}
		}
	}

	out := &model.Project{SchemaVersion: p.SchemaVersion, Name: p.Name, TempoBPM: p.TempoBPM, PPQ: p.PPQ, Mix: p.Mix}
	for i, t := range tracks {
		if t.Sampler != model.SamplerDrums {
			out.Tracks = append(out.Tracks, t)
			continue
		}

		notes := flatten.Flatten(p, i)
		type key struct{ start, pitch int }
		best := map[key]flatten.FlatNote{}
		for _, n := range notes {
			k := key{n.Start, n.Pitch}
			if cur, ok := best[k]; !ok || n.EffectiveVelocity() > cur.EffectiveVelocity() {
				best[k] = n
			}
		}
		expanded := make([]flatten.FlatNote, 0, len(best))
		for _, n := range best {
			expanded = append(expanded, n)
		}
		sort.Slice(expanded, func(a, b int) bool {
			if expanded[a].Start != expanded[b].Start {
				return expanded[a].Start < expanded[b].Start
			}
			if expanded[a].Pitch != expanded[b].Pitch {
				return expanded[a].Pitch < expanded[b].Pitch
			}
			return expanded[a].EffectiveVelocity() > expanded[b].EffectiveVelocity()
		})

		nt := &model.Track{
			Name: t.Name, Channel: 9, Program: 0,
			Volume: t.Volume, Pan: t.Pan, Reverb: 0, Chorus: 0,
			Sampler: model.SamplerNone, SamplerPreset: "default", DrumKit: "gm_basic",
			Bus: t.Bus, Mute: t.Mute, Solo: t.Solo,
			Patterns: map[string]*model.Pattern{},
		}
		for _, n := range expanded {
			nt.Notes = append(nt.Notes, &model.Note{
				Start: n.Start, Duration: n.Duration, Pitch: n.Pitch,
				Velocity: n.EffectiveVelocity(), Chance: 1, Accent: 1,
			})
		}
		out.Tracks = append(out.Tracks, nt)
	}
	return out
}

// Options configures a render.
type Options struct {
	SampleRate    int
	SoundFontPath string
	DrumMode      string // "gm" (default) | "sampler" | "auto"
	WorkDir       string // scratch directory for intermediate files; os.TempDir() if empty

	SoundFont *external.SoundFontRenderer
	Media     *external.MediaTool
	Logger    *slog.Logger

	// SamplePacks supplies the loaded sample pack for each sample-pack
	// track, keyed by track index.
	SamplePacks map[int]*model.SamplePack
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) sampleRate() int {
	if o.SampleRate > 0 {
		return o.SampleRate
	}
	return 44100
}

// Result is a completed render.
type Result struct {
	Buffer   *wavio.Buffer
	DrumMode string
	Debug    map[string]any
}

// Artifacts holds the per-track stem and per-bus buffers produced
// alongside a master mixdown, for export_package/mix_gate_stems (spec
// §4.K steps 6/8). Bus buffers are only populated when the project's
// MixSpec is non-empty (the simple amix path has no bus concept).
type Artifacts struct {
	Stems map[string]*wavio.Buffer // keyed by track name
	Buses map[string]*wavio.Buffer // keyed by bus name
}

// Render runs the full pipeline described in spec §4.I steps 1-6.
func Render(ctx context.Context, p *model.Project, opts Options) (*Result, error) {
	res, _, err := render(ctx, p, opts, false)
	return res, err
}

// RenderPackage runs the same pipeline but additionally keeps the
// per-track stem and per-bus intermediate buffers, for the quality
// workflow's export_package/mix_gate_stems steps.
func RenderPackage(ctx context.Context, p *model.Project, opts Options) (*Result, *Artifacts, error) {
	return render(ctx, p, opts, true)
}

func render(ctx context.Context, p *model.Project, opts Options, withArtifacts bool) (*Result, *Artifacts, error) {
	sr := opts.sampleRate()
	start, end := RenderRegion(p)
	sliced := SliceProject(p, start, end)
	totalFrames := TicksToFrames(end-start, p.PPQ, p.TempoBPM, sr)

	mode := opts.DrumMode
	if mode == "" {
		mode = "gm"
	}

	debug := map[string]any{}
	var working *model.Project
	switch mode {
	case "sampler":
		working = sliced
	case "auto":
		chosen, d := chooseDrumMode(ctx, sliced, opts, sr)
		debug = d
		mode = chosen
		if chosen == "gm" {
			working = ConvertSamplerDrumsToGM(sliced)
		} else {
			working = sliced
		}
	default:
		mode = "gm"
		working = ConvertSamplerDrumsToGM(sliced)
	}

	buf, artifacts, err := renderProject(ctx, working, totalFrames, sr, opts, withArtifacts)
	if err != nil {
		return nil, nil, err
	}
	return &Result{Buffer: buf, DrumMode: mode, Debug: debug}, artifacts, nil
}

// chooseDrumMode implements the "auto" drum-mode policy (spec §4.I step 6):
// render an 8-bar preview in both candidate modes and pick by a band-energy
// heuristic, defaulting to the safer choice if either preview fails.
func chooseDrumMode(ctx context.Context, p *model.Project, opts Options, sr int) (string, map[string]any) {
	const previewBars = 8
	const thresholdDB = 6.0
	debug := map[string]any{"preview_bars": previewBars, "threshold_db": thresholdDB}

	hasSamplerDrums := false
	for _, t := range p.Tracks {
		if t.Sampler == model.SamplerDrums {
			hasSamplerDrums = true
			break
		}
	}
	if !hasSamplerDrums {
		debug["reason"] = "no sampler drums"
		return "sampler", debug
	}

	previewTicks := p.PPQ * 4 * previewBars
	previewFrames := TicksToFrames(previewTicks, p.PPQ, p.TempoBPM, sr)
	preview := clampProjectTicks(p, previewTicks)

	sBuf, _, sErr := renderProject(ctx, preview, previewFrames, sr, opts, false)
	if sErr != nil {
		debug["sampler_error"] = sErr.Error()
		return "gm", debug
	}
	gBuf, _, gErr := renderProject(ctx, ConvertSamplerDrumsToGM(preview), previewFrames, sr, opts, false)
	if gErr != nil {
		debug["gm_error"] = gErr.Error()
		return "sampler", debug
	}

	repS, err := bandReportFor(ctx, opts, sBuf)
	if err != nil {
		debug["sampler_error"] = err.Error()
		return "gm", debug
	}
	repG, err := bandReportFor(ctx, opts, gBuf)
	if err != nil {
		debug["gm_error"] = err.Error()
		return "sampler", debug
	}

	scoreS := meter.DrumRenderScore(repS)
	scoreG := meter.DrumRenderScore(repG)
	debug["sampler_score"] = scoreS
	debug["gm_score"] = scoreG

	if scoreG > scoreS+thresholdDB {
		debug["reason"] = "gm better by threshold"
		return "gm", debug
	}
	debug["reason"] = "sampler ok"
	return "sampler", debug
}

func bandReportFor(ctx context.Context, opts Options, buf *wavio.Buffer) (*meter.BandEnergyReport, error) {
	path, cleanup, err := writeTempWAV(opts, buf, "drumpreview")
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return meter.MeasureBandEnergy(ctx, opts.Media, path)
}

// renderProject synthesizes every in-process track, renders any synthless
// group through the external SoundFont renderer, and mixes the stems down
// to a single stereo buffer (spec §4.I steps 4-5). When withArtifacts is
// set it additionally returns every stem and (when the mix graph is used)
// every bus as in-memory buffers, for export_package/mix_gate_stems.
func renderProject(ctx context.Context, p *model.Project, totalFrames, sr int, opts Options, withArtifacts bool) (*wavio.Buffer, *Artifacts, error) {
	stemPaths := map[int]string{}
	stemNames := map[int]string{}
	var cleanups []func()
	defer func() {
		for _, c := range cleanups {
			c()
		}
	}()

	cache := sampler.NewCache(sr)
	var synthlessIdx []int

	// flatten yields absolute ticks; the in-process synth and sampler place
	// notes by sample frame.
	toFrames := func(notes []flatten.FlatNote) []flatten.FlatNote {
		for k := range notes {
			notes[k].Start = TicksToFrames(notes[k].Start, p.PPQ, p.TempoBPM, sr)
			notes[k].Duration = TicksToFrames(notes[k].Duration, p.PPQ, p.TempoBPM, sr)
		}
		return notes
	}

	for i, t := range p.Tracks {
		cat := Classify(t)
		if cat == CategorySynthless {
			synthlessIdx = append(synthlessIdx, i)
			continue
		}

		var buf *wavio.Buffer
		var err error
		switch cat {
		case CategorySamplerDrums:
			buf = synth.RenderDrums(toFrames(flatten.Flatten(p, i)), sr, totalFrames)
		case CategorySampler808:
			tps := TicksPerSecond(p.PPQ, p.TempoBPM)
			buf = synth.Render808(t, toFrames(flatten.Flatten(p, i)), sr, totalFrames, tps)
		case CategoryInstrument:
			inst, ok := synth.Registry[t.Instrument.ID]
			if !ok {
				return nil, nil, fmt.Errorf("render: track %d (%s): unknown instrument %q", i, t.Name, t.Instrument.ID)
			}
			buf, err = inst.Render(toFrames(flatten.Flatten(p, i)), presetParams(inst, t.Instrument), sr, totalFrames, t.Instrument.Seed)
		case CategorySamplePack:
			pack := opts.SamplePacks[i]
			if pack == nil {
				return nil, nil, fmt.Errorf("render: track %d (%s): no sample pack loaded", i, t.Name)
			}
			buf, err = sampler.Render(pack, toFrames(flatten.FlattenRaw(p, i)), sr, totalFrames, t.SamplePack.Seed, cache)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("render: track %d (%s): %w", i, t.Name, err)
		}

		path, cleanup, werr := writeTempWAV(opts, buf, fmt.Sprintf("stem%d", i))
		if werr != nil {
			return nil, nil, werr
		}
		cleanups = append(cleanups, cleanup)
		stemPaths[i] = path
		stemNames[i] = t.Name
	}

	var busMeta mixgraph.TrackMeta
	haveSynthless := len(synthlessIdx) > 0
	if haveSynthless {
		path, cleanup, err := renderSynthlessStem(ctx, p, synthlessIdx, sr, opts)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, cleanup)
		stemPaths[-1] = path

		names := make([]string, len(synthlessIdx))
		bus := ""
		for j, idx := range synthlessIdx {
			names[j] = p.Tracks[idx].Name
			if bus == "" {
				bus = p.Tracks[idx].Bus
			}
		}
		combinedName := strings.Join(names, "+")
		stemNames[-1] = combinedName
		busMeta = mixgraph.TrackMeta{Index: -1, Name: combinedName, Bus: bus}
	}

	tracks := make([]mixgraph.TrackMeta, 0, len(stemPaths))
	for i, t := range p.Tracks {
		if _, ok := stemPaths[i]; ok {
			tracks = append(tracks, mixgraph.TrackMeta{Index: i, Name: t.Name, Bus: t.Bus})
		}
	}
	if haveSynthless {
		tracks = append(tracks, busMeta)
	}

	spec := p.Mix.Normalize()
	var mixPath string
	var busPaths map[string]string
	var err error
	if spec.IsEmpty() {
		mixPath, err = mixAmix(ctx, opts, stemPaths)
	} else {
		mixPath, busPaths, err = mixViaGraph(ctx, opts, spec, tracks, stemPaths, withArtifacts)
	}
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, func() { os.Remove(mixPath) })

	out, err := wavio.ReadFile(mixPath)
	if err != nil {
		return nil, nil, fmt.Errorf("render: read mixdown: %w", err)
	}
	result := wavio.Resample(out, sr)

	var artifacts *Artifacts
	if withArtifacts {
		artifacts = &Artifacts{Stems: map[string]*wavio.Buffer{}, Buses: map[string]*wavio.Buffer{}}
		for i, path := range stemPaths {
			buf, rerr := wavio.ReadFile(path)
			if rerr != nil {
				return nil, nil, fmt.Errorf("render: read stem %s: %w", stemNames[i], rerr)
			}
			artifacts.Stems[stemNames[i]] = wavio.Resample(buf, sr)
		}
		for name, path := range busPaths {
			buf, rerr := wavio.ReadFile(path)
			if rerr != nil {
				return nil, nil, fmt.Errorf("render: read bus %s: %w", name, rerr)
			}
			artifacts.Buses[name] = wavio.Resample(buf, sr)
			cleanups = append(cleanups, func(p string) func() { return func() { os.Remove(p) } }(path))
		}
	}

	return result, artifacts, nil
}

func presetParams(inst synth.Instrument, spec *model.InstrumentSpec) map[string]float64 {
	params := map[string]float64{}
	preset := spec.Preset
	if preset == "" {
		preset = "default"
	}
	if p, ok := inst.Presets()[preset]; ok {
		for k, v := range p {
			params[k] = v
		}
	}
	for k, v := range spec.Params {
		params[k] = v
	}
	return params
}

func renderSynthlessStem(ctx context.Context, p *model.Project, indices []int, sr int, opts Options) (string, func(), error) {
	sub := &model.Project{SchemaVersion: p.SchemaVersion, Name: p.Name, TempoBPM: p.TempoBPM, PPQ: p.PPQ}
	for _, i := range indices {
		sub.Tracks = append(sub.Tracks, p.Tracks[i])
	}

	midiPath, err := newTempPath(opts, "synthless", "mid")
	if err != nil {
		return "", nil, err
	}
	defer os.Remove(midiPath)
	if err := os.WriteFile(midiPath, midiemit.Emit(sub), 0o644); err != nil {
		return "", nil, fmt.Errorf("render: write synthless midi: %w", err)
	}

	wavPath, err := newTempPath(opts, "synthless", "wav")
	if err != nil {
		return "", nil, err
	}
	if err := opts.SoundFont.Render(ctx, midiPath, opts.SoundFontPath, wavPath, sr); err != nil {
		return "", nil, err
	}
	return wavPath, func() { os.Remove(wavPath) }, nil
}

func mixAmix(ctx context.Context, opts Options, stemPaths map[int]string) (string, error) {
	idxs := orderedStemIndices(stemPaths)
	inputs := make([]string, len(idxs))
	var sb strings.Builder
	for pos, idx := range idxs {
		inputs[pos] = stemPaths[idx]
		fmt.Fprintf(&sb, "[%d:a]", pos)
	}
	fmt.Fprintf(&sb, "amix=inputs=%d:normalize=0,alimiter=limit=0.98[out]", len(idxs))

	outPath, err := newTempPath(opts, "mixdown", "wav")
	if err != nil {
		return "", err
	}
	if err := opts.Media.MixInputs(ctx, inputs, sb.String(), "out", outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

func mixViaGraph(ctx context.Context, opts Options, spec *model.MixSpec, tracks []mixgraph.TrackMeta, stemPaths map[int]string, withBuses bool) (string, map[string]string, error) {
	idxs := orderedStemIndices(stemPaths)
	inputs := make([]string, len(idxs))
	stemInputLabel := map[int]string{}
	for pos, idx := range idxs {
		inputs[pos] = stemPaths[idx]
		stemInputLabel[idx] = fmt.Sprintf("%d:a", pos)
	}

	graph, err := mixgraph.Compile(spec, tracks, stemInputLabel, nil)
	if err != nil {
		return "", nil, fmt.Errorf("render: compile mix graph: %w", err)
	}

	outPath, err := newTempPath(opts, "mixdown", "wav")
	if err != nil {
		return "", nil, err
	}

	outputs := map[string]string{graph.MasterLabel: outPath}
	busPaths := map[string]string{}
	if withBuses {
		for name, label := range graph.BusLabels {
			busPath, perr := newTempPath(opts, "bus-"+name, "wav")
			if perr != nil {
				return "", nil, perr
			}
			outputs[label] = busPath
			busPaths[name] = busPath
		}
	}

	if err := opts.Media.MixInputsMulti(ctx, inputs, graph.FilterComplex, outputs); err != nil {
		return "", nil, err
	}
	return outPath, busPaths, nil
}

func orderedStemIndices(stemPaths map[int]string) []int {
	idxs := make([]int, 0, len(stemPaths))
	for i := range stemPaths {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	return idxs
}

func newTempPath(opts Options, prefix, ext string) (string, error) {
	dir := opts.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, prefix+"-*."+ext)
	if err != nil {
		return "", fmt.Errorf("render: reserve temp path: %w", err)
	}
	path := f.Name()
	f.Close()
	os.Remove(path)
	return path, nil
}

func writeTempWAV(opts Options, buf *wavio.Buffer, prefix string) (string, func(), error) {
	path, err := newTempPath(opts, prefix, "wav")
	if err != nil {
		return "", nil, err
	}
	if err := wavio.WriteFile(path, buf); err != nil {
		return "", nil, fmt.Errorf("render: write %s: %w", prefix, err)
	}
	return path, func() { os.Remove(path) }, nil
}

// TransientShape applies the offline transient-shaping pass (spec §4.I
// step 7): fast (2ms) and slow (30ms) moving-average envelopes of |x| drive
// a per-sample gain, and the result is clamped to [-1,1].
func TransientShape(buf *wavio.Buffer, attack, sustain float64, sampleRate int) {
	if buf == nil || len(buf.Samples) == 0 {
		return
	}
	ch := buf.Channels
	frames := buf.Frames()
	fastWin := maxInt(1, int(0.002*float64(sampleRate)))
	slowWin := maxInt(1, int(0.030*float64(sampleRate)))

	mag := make([]float64, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += math.Abs(float64(buf.Samples[f*ch+c]))
		}
		mag[f] = sum / float64(ch)
	}

	fast := movingAverage(mag, fastWin)
	slow := movingAverage(mag, slowWin)

	maxSlow := 0.0
	for _, v := range slow {
		if v > maxSlow {
			maxSlow = v
		}
	}
	if maxSlow <= 0 {
		maxSlow = 1
	}

	const eps = 1e-6
	for f := 0; f < frames; f++ {
		transient := fast[f] - slow[f]
		if transient < 0 {
			transient = 0
		}
		gain := (1 + attack*(transient/(slow[f]+eps))) * (1 + sustain*(slow[f]/maxSlow))
		for c := 0; c < ch; c++ {
			idx := f*ch + c
			v := float64(buf.Samples[idx]) * gain
			if v > 1 {
				v = 1
			}
			if v < -1 {
				v = -1
			}
			buf.Samples[idx] = float32(v)
		}
	}
}

func movingAverage(x []float64, win int) []float64 {
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= win {
			sum -= x[i-win]
		}
		denom := win
		if i+1 < win {
			denom = i + 1
		}
		out[i] = sum / float64(denom)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
