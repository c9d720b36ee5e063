// Package meter parses ffmpeg/ffprobe diagnostic output into structured
// metrics and turns those metrics into the mix-sanity and spectral-balance
// scores used by the quality workflow (spec §4.J). Every measurement goes
// through internal/external so callers can substitute a fake Runner in
// tests — nothing here spawns a process directly.
package meter

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/clawdaw/clawdaw/internal/external"
)

// Loudnorm holds the EBU R128 input stats ffmpeg's loudnorm filter reports
// in analysis-only (first) pass mode.
type Loudnorm struct {
	IntegratedLUFS  *float64
	LoudnessRangeLU *float64
	TruePeakDBTP    *float64
}

var loudnormJSONRe = regexp.MustCompile(`(?s)\{\s*"input_i".*?\}\s*`)

// ParseLoudnorm extracts the JSON blob loudnorm writes to stderr and lifts
// out the input_* fields.
func ParseLoudnorm(stderr []byte) *Loudnorm {
	m := loudnormJSONRe.FindString(string(stderr))
	if m == "" {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(m), &data); err != nil {
		return nil
	}
	f := func(key string) *float64 {
		v, ok := data[key]
		if !ok {
			return nil
		}
		s, ok := v.(string)
		if ok {
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil
			}
			return &n
		}
		if n, ok := v.(float64); ok {
			return &n
		}
		return nil
	}
	out := &Loudnorm{
		IntegratedLUFS:  f("input_i"),
		LoudnessRangeLU: f("input_lra"),
		TruePeakDBTP:    f("input_tp"),
	}
	if out.IntegratedLUFS == nil && out.LoudnessRangeLU == nil && out.TruePeakDBTP == nil {
		return nil
	}
	return out
}

// Astats holds the ffmpeg astats "Overall" section.
type Astats struct {
	DCOffset           *float64
	PeakDBFS           *float64
	RMSDBFS            *float64
	CrestFactorLinear  *float64
	CrestFactorDB      *float64
}

// ParseAstats walks the astats Overall block (the per-channel sections that
// precede it are skipped).
func ParseAstats(stderr []byte) *Astats {
	out := &Astats{}
	overall := false
	found := false

	grab := func(s, prefix string) *float64 {
		idx := strings.Index(s, prefix)
		if idx < 0 {
			return nil
		}
		rest := strings.TrimSpace(s[idx+len(prefix):])
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return nil
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil
		}
		return &v
	}

	for _, line := range strings.Split(string(stderr), "\n") {
		s := strings.TrimSpace(line)
		if strings.HasSuffix(s, "] Overall") || strings.HasSuffix(s, "] Overall:") {
			overall = true
			continue
		}
		if overall && strings.Contains(s, "] Channel:") {
			overall = false
		}
		if !overall {
			continue
		}
		if v := grab(s, "DC offset:"); v != nil {
			out.DCOffset = v
			found = true
		}
		if v := grab(s, "Peak level dB:"); v != nil {
			out.PeakDBFS = v
			found = true
		}
		if v := grab(s, "RMS level dB:"); v != nil {
			out.RMSDBFS = v
			found = true
		}
		if v := grab(s, "Crest factor:"); v != nil {
			out.CrestFactorLinear = v
			found = true
		}
	}
	if !found {
		return nil
	}
	if out.PeakDBFS != nil && out.RMSDBFS != nil {
		db := *out.PeakDBFS - *out.RMSDBFS
		out.CrestFactorDB = &db
	} else if out.CrestFactorLinear != nil && *out.CrestFactorLinear > 0 {
		db := 20.0 * math.Log10(math.Max(1e-12, *out.CrestFactorLinear))
		out.CrestFactorDB = &db
	}
	return out
}

// SilenceFraction walks silencedetect's silence_start/silence_end markers
// and returns the fraction of durationSeconds considered silent, clamped
// to [0,1].
func SilenceFraction(stderr []byte, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}

	var silentTotal float64
	var curStart *float64
	haveStart := false

	for _, line := range strings.Split(string(stderr), "\n") {
		s := strings.TrimSpace(line)
		if idx := strings.Index(s, "silence_start:"); idx >= 0 {
			rest := strings.TrimSpace(s[idx+len("silence_start:"):])
			fields := strings.Fields(rest)
			if len(fields) > 0 {
				if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
					curStart = &v
					haveStart = true
				}
			}
		}
		if idx := strings.Index(s, "silence_end:"); idx >= 0 {
			rest := strings.TrimSpace(s[idx+len("silence_end:"):])
			head := rest
			if pipe := strings.Index(rest, "|"); pipe >= 0 {
				head = rest[:pipe]
			}
			end, err := strconv.ParseFloat(strings.TrimSpace(head), 64)
			if err == nil && haveStart && curStart != nil {
				if d := end - *curStart; d > 0 {
					silentTotal += d
				}
			}
			curStart = nil
			haveStart = false
		}
	}
	if haveStart && curStart != nil {
		if d := durationSeconds - *curStart; d > 0 {
			silentTotal += d
		}
	}

	frac := silentTotal / durationSeconds
	return math.Max(0, math.Min(1, frac))
}

// BandVolume is one volumedetect measurement.
type BandVolume struct {
	MeanVolume float64
	MaxVolume  float64
}

var (
	meanVolumeRe = regexp.MustCompile(`mean_volume:\s*(-?[0-9.]+)\s*dB`)
	maxVolumeRe  = regexp.MustCompile(`max_volume:\s*(-?[0-9.]+)\s*dB`)
)

// ParseVolumeDetect pulls mean_volume/max_volume out of a single
// volumedetect invocation's stderr.
func ParseVolumeDetect(stderr []byte) BandVolume {
	var out BandVolume
	s := string(stderr)
	if m := meanVolumeRe.FindStringSubmatch(s); m != nil {
		out.MeanVolume, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := maxVolumeRe.FindStringSubmatch(s); m != nil {
		out.MaxVolume, _ = strconv.ParseFloat(m[1], 64)
	}
	return out
}

// BandEnergyReport is the six-band volumedetect sweep used for the mix
// sanity gate and spectral balance score.
type BandEnergyReport struct {
	Full      BandVolume
	SubLT90   BandVolume
	RestGE90  BandVolume
	Low90200  BandVolume
	Mid200_4k BandVolume
	HighGE4k  BandVolume
}

var bandFilters = map[string]string{
	"full":     "anull",
	"sub":      "lowpass=f=90",
	"rest":     "highpass=f=90",
	"low":      "highpass=f=90,lowpass=f=200",
	"mid":      "highpass=f=200,lowpass=f=4000",
	"high":     "highpass=f=4000",
}

// MeasureBandEnergy runs volumedetect across the six bands via tool.
func MeasureBandEnergy(ctx context.Context, tool *external.MediaTool, inAudio string) (*BandEnergyReport, error) {
	measure := func(filtergraph string) (BandVolume, error) {
		args := []string{"-hide_banner", "-nostats", "-i", inAudio, "-af", filtergraph + ",volumedetect", "-f", "null", "-"}
		_, stderr, err := tool.Invoke(ctx, args)
		if err != nil {
			return BandVolume{}, err
		}
		return ParseVolumeDetect(stderr), nil
	}

	var rep BandEnergyReport
	var err error
	if rep.Full, err = measure(bandFilters["full"]); err != nil {
		return nil, fmt.Errorf("meter: band full: %w", err)
	}
	if rep.SubLT90, err = measure(bandFilters["sub"]); err != nil {
		return nil, fmt.Errorf("meter: band sub: %w", err)
	}
	if rep.RestGE90, err = measure(bandFilters["rest"]); err != nil {
		return nil, fmt.Errorf("meter: band rest: %w", err)
	}
	if rep.Low90200, err = measure(bandFilters["low"]); err != nil {
		return nil, fmt.Errorf("meter: band low: %w", err)
	}
	if rep.Mid200_4k, err = measure(bandFilters["mid"]); err != nil {
		return nil, fmt.Errorf("meter: band mid: %w", err)
	}
	if rep.HighGE4k, err = measure(bandFilters["high"]); err != nil {
		return nil, fmt.Errorf("meter: band high: %w", err)
	}
	return &rep, nil
}

// decodeStereoF32 splits interleaved little-endian float32 PCM (as produced
// by `ffmpeg -f f32le -ac 2`) into separate L/R sample slices.
func decodeStereoF32(pcm []byte) (l, r []float32, ok bool) {
	usable := len(pcm) - (len(pcm) % 4)
	if usable < 16 {
		return nil, nil, false
	}
	samples := make([]float32, usable/4)
	for i := range samples {
		bits := uint32(pcm[i*4]) | uint32(pcm[i*4+1])<<8 | uint32(pcm[i*4+2])<<16 | uint32(pcm[i*4+3])<<24
		samples[i] = math.Float32frombits(bits)
	}
	nFrames := len(samples) / 2
	if nFrames <= 1 {
		return nil, nil, false
	}
	l = make([]float32, nFrames)
	r = make([]float32, nFrames)
	for i := 0; i < nFrames; i++ {
		l[i] = samples[2*i]
		r[i] = samples[2*i+1]
	}
	return l, r, true
}

// StereoCorrelation computes the Pearson correlation between interleaved
// stereo float32 PCM (as produced by `ffmpeg -f f32le -ac 2`). Returns nil
// for mono or degenerate (near-silent) inputs.
func StereoCorrelation(pcm []byte) *float64 {
	l, r, ok := decodeStereoF32(pcm)
	if !ok {
		return nil
	}
	n := len(l)

	var sumL, sumR float64
	for i := 0; i < n; i++ {
		sumL += float64(l[i])
		sumR += float64(r[i])
	}
	meanL := sumL / float64(n)
	meanR := sumR / float64(n)

	var cov, varL, varR float64
	for i := 0; i < n; i++ {
		dl := float64(l[i]) - meanL
		dr := float64(r[i]) - meanR
		cov += dl * dr
		varL += dl * dl
		varR += dr * dr
	}
	if varL <= 0 || varR <= 0 {
		return nil
	}
	corr := cov / math.Sqrt(varL*varR)
	return &corr
}

// StereoBalanceDB is the RMS(R)/RMS(L) ratio in dB — positive means the
// right channel carries more energy. Returns nil for mono/degenerate PCM.
func StereoBalanceDB(pcm []byte) *float64 {
	l, r, ok := decodeStereoF32(pcm)
	if !ok {
		return nil
	}
	var sqL, sqR float64
	for i := range l {
		sqL += float64(l[i]) * float64(l[i])
		sqR += float64(r[i]) * float64(r[i])
	}
	rmsL := math.Sqrt(sqL / float64(len(l)))
	rmsR := math.Sqrt(sqR / float64(len(r)))
	if rmsL <= 1e-9 || rmsR <= 1e-9 {
		return nil
	}
	bal := 20.0 * math.Log10(rmsR/rmsL)
	return &bal
}

// Sanity is the mix sanity gate's result (spec §4.J "mix sanity score").
type Sanity struct {
	Score   float64
	Reasons []string
	Metrics map[string]float64
	Bands   *BandEnergyReport
}

// OK reports whether the sanity score clears the 0.60 pass threshold.
func (s *Sanity) OK() bool { return s.Score >= 0.60 }

// MixSanityScore applies the penalty stack: clipping risk, silence,
// loudness proxy, and coarse low/mid/high balance.
func MixSanityScore(rep *BandEnergyReport, silenceFrac float64) *Sanity {
	meanDB := rep.Full.MeanVolume
	maxDB := rep.Full.MaxVolume
	low := rep.Low90200.MeanVolume
	mid := rep.Mid200_4k.MeanVolume
	high := rep.HighGE4k.MeanVolume

	var penalty float64
	var reasons []string
	add := func(p float64, reason string) {
		penalty += p
		reasons = append(reasons, reason)
	}

	switch {
	case maxDB >= -0.2:
		add(0.35, fmt.Sprintf("peaks too hot (max=%.1fdBFS)", maxDB))
	case maxDB >= -1.0:
		add(0.20, fmt.Sprintf("peaks near 0dBFS (max=%.1fdBFS)", maxDB))
	}

	switch {
	case silenceFrac >= 0.85:
		add(0.60, fmt.Sprintf("mostly silent (silence~%.0f%%)", silenceFrac*100))
	case silenceFrac >= 0.50:
		add(0.30, fmt.Sprintf("too much silence (silence~%.0f%%)", silenceFrac*100))
	}

	if meanDB < -40.0 {
		add(0.30, fmt.Sprintf("very quiet (mean=%.1fdBFS)", meanDB))
	} else if meanDB < -32.0 {
		add(0.15, fmt.Sprintf("quiet (mean=%.1fdBFS)", meanDB))
	}
	if meanDB > -10.0 {
		add(0.20, fmt.Sprintf("very loud (mean=%.1fdBFS)", meanDB))
	}

	if mid != 0 && high != 0 {
		if d := high - mid; d > 6.0 {
			add(0.15, fmt.Sprintf("highs dominate mids (high-mid=%.1fdB)", d))
		}
	}
	if mid != 0 && low != 0 {
		d := low - mid
		if d > 7.0 {
			add(0.15, fmt.Sprintf("lows dominate mids (low-mid=%.1fdB)", d))
		}
		if d < -10.0 {
			add(0.10, fmt.Sprintf("thin low end (low-mid=%.1fdB)", d))
		}
	}

	score := math.Max(0, math.Min(1, 1.0-penalty))
	return &Sanity{
		Score:   score,
		Reasons: reasons,
		Metrics: map[string]float64{
			"mean_dbfs":        meanDB,
			"max_dbfs":         maxDB,
			"silence_fraction": silenceFrac,
			"low_mean_dbfs":    low,
			"mid_mean_dbfs":    mid,
			"high_mean_dbfs":   high,
		},
		Bands: rep,
	}
}

// SpectralBalance is the spectral-balance gate's result.
type SpectralBalance struct {
	Score   float64
	Reasons []string
	Bands   *BandEnergyReport
}

// OK reports whether the balance score clears the 0.60 pass threshold.
func (s *SpectralBalance) OK() bool { return s.Score >= 0.60 }

// SpectralScore penalizes sub/rest and high/mid imbalance plus overall
// loudness extremes.
func SpectralScore(rep *BandEnergyReport) *SpectralBalance {
	full := rep.Full.MeanVolume
	sub := rep.SubLT90.MeanVolume
	rest := rep.RestGE90.MeanVolume
	mid := rep.Mid200_4k.MeanVolume
	high := rep.HighGE4k.MeanVolume

	var penalty float64
	var reasons []string
	add := func(p float64, reason string) {
		penalty += p
		reasons = append(reasons, reason)
	}

	subMinusRest := sub - rest
	if subMinusRest > 6.0 {
		add(math.Min(0.35, (subMinusRest-6.0)/20.0), fmt.Sprintf("too much low end (sub-rest=%.1fdB)", subMinusRest))
	}
	if subMinusRest < -6.0 {
		add(math.Min(0.25, (-6.0-subMinusRest)/24.0), fmt.Sprintf("too little low end (sub-rest=%.1fdB)", subMinusRest))
	}

	if mid != 0 && high != 0 {
		if d := high - mid; d > 4.0 {
			add(math.Min(0.25, (d-4.0)/18.0), fmt.Sprintf("too much high end (high-mid=%.1fdB)", d))
		}
	}

	if full < -33.0 {
		add(0.15, fmt.Sprintf("overall too quiet (mean=%.1fdB)", full))
	}
	if full > -10.0 {
		add(0.15, fmt.Sprintf("overall too hot (mean=%.1fdB)", full))
	}

	score := math.Max(0, math.Min(1, 1.0-penalty))
	return &SpectralBalance{Score: score, Reasons: reasons, Bands: rep}
}

// LUFSWindow is a preview-gate loudness guidance range (min/max LUFS).
type LUFSWindow struct {
	Min, Max float64
}

// CheckLUFS reports whether the integrated loudness falls inside window.
func CheckLUFS(integratedLUFS *float64, window LUFSWindow) (ok bool, detail string) {
	if integratedLUFS == nil {
		return false, "missing"
	}
	lufs := *integratedLUFS
	ok = lufs >= window.Min && lufs <= window.Max
	return ok, fmt.Sprintf("%.2f (target %.1f..%.1f)", lufs, window.Min, window.Max)
}

// Report is the full diagnostic set the `meter_audio` command writes to a
// meter JSON file and the quality gates read back (spec §6.3 meter JSON,
// grounded on original_source's audio/metering.py AudioMetering).
type Report struct {
	IntegratedLUFS    *float64 `json:"integrated_lufs"`
	LoudnessRangeLU   *float64 `json:"loudness_range_lu"`
	TruePeakDBTP      *float64 `json:"true_peak_dbtp"`
	PeakDBFS          *float64 `json:"peak_dbfs"`
	RMSDBFS           *float64 `json:"rms_dbfs"`
	CrestFactorDB     *float64 `json:"crest_factor_db"`
	DCOffset          *float64 `json:"dc_offset"`
	StereoCorrelation *float64 `json:"stereo_correlation"`
	StereoBalanceDB   *float64 `json:"stereo_balance_db"`
	SpectralTiltDB    *float64 `json:"spectral_tilt_db,omitempty"`
}

// Analyze runs the loudnorm/astats/raw-PCM sweep over a rendered WAV and
// assembles the full Report (spec §4.K "meter_audio"). Spectral tilt is
// left nil: no component in this repo computes it (see DESIGN.md).
func Analyze(ctx context.Context, tool *external.MediaTool, inAudio string) (*Report, error) {
	rep := &Report{}

	_, loudStderr, err := tool.Invoke(ctx, []string{
		"-hide_banner", "-nostats", "-i", inAudio,
		"-af", "loudnorm=I=-16:TP=-1.5:LRA=11:print_format=json",
		"-f", "null", "-",
	})
	if err != nil {
		return nil, fmt.Errorf("meter: loudnorm: %w", err)
	}
	if ln := ParseLoudnorm(loudStderr); ln != nil {
		rep.IntegratedLUFS = ln.IntegratedLUFS
		rep.LoudnessRangeLU = ln.LoudnessRangeLU
		rep.TruePeakDBTP = ln.TruePeakDBTP
	}

	_, astStderr, err := tool.Invoke(ctx, []string{
		"-hide_banner", "-nostats", "-i", inAudio,
		"-af", "astats=metadata=0:reset=0",
		"-f", "null", "-",
	})
	if err != nil {
		return nil, fmt.Errorf("meter: astats: %w", err)
	}
	if as := ParseAstats(astStderr); as != nil {
		rep.PeakDBFS = as.PeakDBFS
		rep.RMSDBFS = as.RMSDBFS
		rep.CrestFactorDB = as.CrestFactorDB
		rep.DCOffset = as.DCOffset
	}

	pcm, _, err := tool.Invoke(ctx, []string{
		"-hide_banner", "-loglevel", "error", "-i", inAudio,
		"-t", "10", "-ac", "2", "-f", "f32le", "-",
	})
	if err != nil {
		return nil, fmt.Errorf("meter: stereo pcm: %w", err)
	}
	rep.StereoCorrelation = StereoCorrelation(pcm)
	rep.StereoBalanceDB = StereoBalanceDB(pcm)

	return rep, nil
}

// DrumRenderScore is the coarse "punch vs harshness" heuristic used to
// auto-pick between sampler and GM drum rendering (spec §4.I drum-mode
// policy).
func DrumRenderScore(rep *BandEnergyReport) float64 {
	sub := rep.SubLT90.MeanVolume
	high := rep.HighGE4k.MeanVolume
	fullMax := rep.Full.MaxVolume

	rel := sub - high

	var clipPenalty float64
	if fullMax > -1.0 {
		clipPenalty = (fullMax + 1.0) * 3.0
	}

	return rel - clipPenalty
}
