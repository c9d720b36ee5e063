// Package mixgraph compiles a typed model.MixSpec plus a set of per-track
// stem files into a labeled ffmpeg-shaped filter_complex graph (spec
// §4.H): per-track FX chain, sidechain routing, sends/returns, bus
// summation and a master chain. The graph is represented as an ordered
// list of filter-chain strings built by a single walk over the typed
// spec — "no string concatenation scattered through the code" (spec §9).
package mixgraph

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/clawdaw/clawdaw/internal/model"
)

// TrackMeta is the per-track metadata the compiler needs beyond the
// MixSpec itself.
type TrackMeta struct {
	Index int
	Name  string
	Bus   string // explicit Track.Bus; "" triggers name-based inference.
}

// Graph is a compiled mix: the ordered input file list (index-aligned with
// ffmpeg's -i flags), the filter_complex script, and the label of the
// final master output stream.
type Graph struct {
	Inputs        []string
	FilterComplex string
	MasterLabel   string
	// BusLabels maps each bus name to its post-chain output label, so a
	// caller can additionally -map a per-bus file in the same ffmpeg
	// invocation (spec §4.M export_busses) without recompiling the graph.
	BusLabels map[string]string
}

// builder accumulates filter-chain lines and guarantees every label is
// emitted exactly once — the golang-set/v2 membership check generalizes
// the teacher's ad-hoc map[string]bool dedup idiom into a reusable set.
type builder struct {
	lines  []string
	used   mapset.Set[string]
	serial int
}

func newBuilder() *builder {
	return &builder{used: mapset.NewSet[string]()}
}

func (b *builder) label(prefix string) string {
	for {
		b.serial++
		l := fmt.Sprintf("%s%d", prefix, b.serial)
		if !b.used.Contains(l) {
			b.used.Add(l)
			return l
		}
	}
}

func (b *builder) emit(inLabels []string, filter string, outLabel string) {
	var ins strings.Builder
	for _, l := range inLabels {
		ins.WriteString("[" + l + "]")
	}
	b.lines = append(b.lines, fmt.Sprintf("%s%s[%s]", ins.String(), filter, outLabel))
}

// Compile builds the full mix graph. stemInputLabel maps a track index to
// the ffmpeg input-stream label for its stem (e.g. "0:a"); keySourceLabel
// optionally maps a track index to a pre-rendered role-filtered key
// source, used by sidechain rules with src_role set.
func Compile(spec *model.MixSpec, tracks []TrackMeta, stemInputLabel map[int]string, keySourceLabel map[int]string) (*Graph, error) {
	if spec == nil {
		spec = &model.MixSpec{Tracks: map[int]*model.TrackFX{}, Busses: map[string]*model.BusFX{}}
	}
	b := newBuilder()

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Index < tracks[j].Index })

	dry := map[int]string{}
	for _, t := range tracks {
		in, ok := stemInputLabel[t.Index]
		if !ok {
			continue
		}
		dry[t.Index] = b.chainTrack(in, spec.Tracks[t.Index], t.Index)
	}

	// Sidechain: duck dst's dry stream using src (or a role-filtered key
	// source) as the compressor key, spec §4.H.
	for _, rule := range spec.Sidechain {
		dstLabel, ok := dry[rule.Dst]
		if !ok {
			continue
		}

		var keyLabel string
		if rule.SrcRole != "" {
			if kl, ok := keySourceLabel[rule.Src]; ok {
				keyLabel = kl
			} else {
				// permissive fallback per Open Question #3: use the dry signal.
				keyLabel = dry[rule.Src]
			}
		} else {
			srcLabel, ok := dry[rule.Src]
			if !ok {
				continue
			}
			dryTap := b.label("scdry")
			keyTap := b.label("sckey")
			b.emit([]string{srcLabel}, "asplit=2", dryTap+"]["+keyTap)
			dry[rule.Src] = dryTap
			keyLabel = keyTap
		}
		if keyLabel == "" {
			continue
		}

		out := b.label("sc")
		b.emit([]string{dstLabel, keyLabel},
			fmt.Sprintf("sidechaincompress=threshold=%sdB:ratio=%g:attack=%g:release=%g",
				fmtDB(rule.ThresholdDB), rule.Ratio, rule.AttackMs, rule.ReleaseMs),
			out)
		dry[rule.Dst] = out
	}

	// Sends/returns: split each track's post-FX stream into dry + reverb/
	// delay taps (reverb before delay, per spec §5 ordering guarantees).
	var reverbTaps, delayTaps []string
	for _, t := range tracks {
		fx := spec.Tracks[t.Index]
		if fx == nil || (fx.Sends.Reverb <= 0 && fx.Sends.Delay <= 0) {
			continue
		}
		d, ok := dry[t.Index]
		if !ok {
			continue
		}
		nTaps := 1
		if fx.Sends.Reverb > 0 {
			nTaps++
		}
		if fx.Sends.Delay > 0 {
			nTaps++
		}
		outs := make([]string, nTaps)
		for i := range outs {
			outs[i] = b.label("send")
		}
		b.emitSplit(d, nTaps, outs)
		dry[t.Index] = outs[0]
		idx := 1
		if fx.Sends.Reverb > 0 {
			tap := b.label("reverbtap")
			b.emit([]string{outs[idx]}, fmt.Sprintf("volume=%g", fx.Sends.Reverb), tap)
			reverbTaps = append(reverbTaps, tap)
			idx++
		}
		if fx.Sends.Delay > 0 {
			tap := b.label("delaytap")
			b.emit([]string{outs[idx]}, fmt.Sprintf("volume=%g", fx.Sends.Delay), tap)
			delayTaps = append(delayTaps, tap)
		}
	}

	var returns []string
	if len(reverbTaps) > 0 {
		mixed := b.sumLabels(reverbTaps)
		out := b.label("reverbret")
		b.emit([]string{mixed}, fmt.Sprintf("aecho=0.8:0.7:%g:%g", spec.Returns.Reverb.PredelayMs, spec.Returns.Reverb.Decay), out)
		returns = append(returns, out)
	}
	if len(delayTaps) > 0 {
		mixed := b.sumLabels(delayTaps)
		out := b.label("delayret")
		b.emit([]string{mixed}, fmt.Sprintf("aecho=0.8:0.7:%g:%g", spec.Returns.Delay.Ms, spec.Returns.Delay.Decay), out)
		returns = append(returns, out)
	}

	// Busses: group dry streams by (explicit or inferred) bus name.
	busMembers := map[string][]string{}
	for _, t := range tracks {
		label, ok := dry[t.Index]
		if !ok {
			continue
		}
		bus := t.Bus
		if bus == "" {
			bus = inferBus(t.Name)
		}
		busMembers[bus] = append(busMembers[bus], label)
	}

	busNames := make([]string, 0, len(busMembers))
	for n := range busMembers {
		busNames = append(busNames, n)
	}
	sort.Strings(busNames)

	// Each bus output is split so it can both feed the master sum and be
	// exposed standalone for export_busses, without ffmpeg's "pad reused"
	// restriction on consuming a label twice.
	var busOutputs []string
	busLabels := map[string]string{}
	for _, name := range busNames {
		members := busMembers[name]
		sum := b.sumLabels(members)
		chained := b.chainBus(sum, spec.Busses[name])
		toMaster := b.label("bustomaster")
		toExport := b.label("busexport")
		b.emit([]string{chained}, "asplit=2", toMaster+"]["+toExport)
		busOutputs = append(busOutputs, toMaster)
		busLabels[name] = toExport
	}

	all := append(append([]string{}, busOutputs...), returns...)
	masterSum := b.sumLabels(all)
	masterOut := b.chainMaster(masterSum, spec.Master)

	return &Graph{FilterComplex: strings.Join(b.lines, ";"), MasterLabel: masterOut, BusLabels: busLabels}, nil
}

func (b *builder) emitSplit(in string, n int, outs []string) {
	var outStr strings.Builder
	for _, o := range outs {
		outStr.WriteString("[" + o + "]")
	}
	b.lines = append(b.lines, fmt.Sprintf("[%s]asplit=%d%s", in, n, outStr.String()))
}

func (b *builder) sumLabels(labels []string) string {
	if len(labels) == 0 {
		out := b.label("silence")
		b.lines = append(b.lines, fmt.Sprintf("anullsrc[%s]", out))
		return out
	}
	if len(labels) == 1 {
		return labels[0]
	}
	out := b.label("sum")
	b.emit(labels, fmt.Sprintf("amix=inputs=%d:normalize=0", len(labels)), out)
	return out
}

// chainTrack applies the fixed per-track chain order from spec §4.H.
func (b *builder) chainTrack(in string, fx *model.TrackFX, trackIndex int) string {
	cur := in
	if fx == nil {
		return cur
	}
	if fx.GainDB != nil {
		cur = b.step(cur, fmt.Sprintf("volume=%sdB", fmtDB(*fx.GainDB)), "gain")
	}
	for _, band := range fx.EQ {
		cur = b.step(cur, fmt.Sprintf("equalizer=f=%g:width_type=q:w=%g:g=%g", band.F, band.Q, band.G), "eq")
	}
	if fx.HighpassHz != nil {
		cur = b.step(cur, fmt.Sprintf("highpass=f=%g", *fx.HighpassHz), "hp")
	}
	if fx.LowpassHz != nil {
		cur = b.step(cur, fmt.Sprintf("lowpass=f=%g", *fx.LowpassHz), "lp")
	}
	if fx.Gate != nil {
		cur = b.step(cur, fmt.Sprintf("agate=threshold=%sdB:release=%g", fmtDB(fx.Gate.ThresholdDB), fx.Gate.ReleaseMs), "gate")
	}
	if fx.Expander != nil {
		cur = b.step(cur, fmt.Sprintf("compand=points=%s/-90|%sdB/%sdB:attacks=0:decays=0.1",
			fmtDB(fx.Expander.ThresholdDB), fmtDB(fx.Expander.ThresholdDB), fmtDB(fx.Expander.ThresholdDB/fx.Expander.Ratio)), "expand")
	}
	if fx.Comp != nil {
		cur = b.step(cur, compFilter(fx.Comp), "comp")
	}
	if fx.Sat != nil {
		cur = b.saturate(cur, fx.Sat)
	}
	if fx.Stereo != nil {
		cur = b.step(cur, fmt.Sprintf("stereotools=slev=%g", fx.Stereo.Width), "stereo")
	}
	if fx.Transient != nil {
		cur = b.step(cur, fmt.Sprintf("transient=attack=%g:sustain=%g", fx.Transient.Attack, fx.Transient.Sustain), "transient")
	}
	return cur
}

func (b *builder) chainBus(in string, fx *model.BusFX) string {
	cur := in
	if fx == nil {
		return cur
	}
	if fx.GainDB != nil {
		cur = b.step(cur, fmt.Sprintf("volume=%sdB", fmtDB(*fx.GainDB)), "busgain")
	}
	for _, band := range fx.EQ {
		cur = b.step(cur, fmt.Sprintf("equalizer=f=%g:width_type=q:w=%g:g=%g", band.F, band.Q, band.G), "buseq")
	}
	if fx.HighpassHz != nil {
		cur = b.step(cur, fmt.Sprintf("highpass=f=%g", *fx.HighpassHz), "bushp")
	}
	if fx.LowpassHz != nil {
		cur = b.step(cur, fmt.Sprintf("lowpass=f=%g", *fx.LowpassHz), "buslp")
	}
	if fx.Comp != nil {
		cur = b.step(cur, compFilter(fx.Comp), "buscomp")
	}
	if fx.Sat != nil {
		cur = b.saturate(cur, fx.Sat)
	}
	if fx.MonoBelowHz != nil {
		cur = b.monoBelow(cur, *fx.MonoBelowHz)
	}
	return cur
}

func (b *builder) chainMaster(in string, fx *model.MasterFX) string {
	cur := in
	if fx == nil {
		return b.step(cur, "alimiter=limit=0.98", "safetylimiter")
	}
	if fx.MonoBelowHz != nil {
		cur = b.monoBelow(cur, *fx.MonoBelowHz)
	}
	for _, band := range fx.EQ {
		cur = b.step(cur, fmt.Sprintf("equalizer=f=%g:width_type=q:w=%g:g=%g", band.F, band.Q, band.G), "mastereq")
	}
	if fx.Comp != nil {
		cur = b.step(cur, compFilter(fx.Comp), "mastercomp")
	}
	if fx.Transient != nil {
		cur = b.step(cur, fmt.Sprintf("transient=attack=%g:sustain=%g", fx.Transient.Attack, fx.Transient.Sustain), "mastertransient")
	}
	limit := 0.98
	if fx.Limiter != nil && fx.Limiter.Limit > 0 {
		limit = fx.Limiter.Limit
	}
	cur = b.step(cur, fmt.Sprintf("alimiter=limit=%g", limit), "limiter")
	return b.step(cur, "alimiter=limit=0.98", "safetylimiter")
}

func (b *builder) step(in, filter, prefix string) string {
	out := b.label(prefix)
	b.emit([]string{in}, filter, out)
	return out
}

// saturate implements both the simple drive+softclip form and the
// dry/wet/tone form requiring an asplit + sum (spec §4.H).
func (b *builder) saturate(in string, sat *model.SatFX) string {
	if sat.Mix == nil {
		return b.step(in, saturationFilter(sat.Type, sat.Drive), "sat")
	}

	dryTap := b.label("satdry")
	wetTapIn := b.label("satwetin")
	b.emit([]string{in}, "asplit=2", dryTap+"]["+wetTapIn)

	wet := wetTapIn
	if sat.ToneHz != nil {
		wet = b.step(wet, fmt.Sprintf("lowpass=f=%g", *sat.ToneHz), "sattone")
	}
	wet = b.step(wet, saturationFilter(sat.Type, sat.Drive), "satwet")

	dryScaled := b.step(dryTap, fmt.Sprintf("volume=%g", 1-*sat.Mix), "satdryvol")
	wetScaled := b.step(wet, fmt.Sprintf("volume=%g", *sat.Mix), "satwetvol")

	out := b.label("satmix")
	b.emit([]string{dryScaled, wetScaled}, "amix=inputs=2:normalize=0", out)
	return out
}

func saturationFilter(kind string, drive float64) string {
	switch kind {
	case "atan":
		return fmt.Sprintf("asoftclip=type=atan:param=%g", drive)
	case "cubic":
		return fmt.Sprintf("asoftclip=type=cubic:param=%g", drive)
	case "clip":
		return fmt.Sprintf("asoftclip=type=hard:param=%g", drive)
	default:
		return fmt.Sprintf("asoftclip=type=tanh:param=%g", drive)
	}
}

// monoBelow splits around hz, collapses the low band to mono, and sums
// back (spec §4.H).
func (b *builder) monoBelow(in string, hz float64) string {
	lowIn := b.label("monosplitlo")
	highIn := b.label("monosplithi")
	b.emit([]string{in}, "asplit=2", lowIn+"]["+highIn)

	low := b.step(lowIn, fmt.Sprintf("lowpass=f=%g", hz), "monolow")
	low = b.step(low, "pan=mono|c0=0.5*c0+0.5*c1", "monocollapse")
	high := b.step(highIn, fmt.Sprintf("highpass=f=%g", hz), "monohigh")

	out := b.label("monosum")
	b.emit([]string{low, high}, "amix=inputs=2:normalize=0", out)
	return out
}

func compFilter(c *model.CompFX) string {
	return fmt.Sprintf("acompressor=threshold=%sdB:ratio=%g:attack=%g:release=%g", fmtDB(c.ThresholdDB), c.Ratio, c.AttackMs, c.ReleaseMs)
}

func fmtDB(v float64) string {
	return fmt.Sprintf("%g", v)
}

// inferBus applies the name heuristic from spec §4.H: drum/perc tokens →
// "drums", bass/808 tokens → "bass", else "music".
func inferBus(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "drum") || strings.Contains(n, "perc"):
		return "drums"
	case strings.Contains(n, "bass") || strings.Contains(n, "808"):
		return "bass"
	default:
		return "music"
	}
}
