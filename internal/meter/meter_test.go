package meter

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/clawdaw/clawdaw/internal/external"
)

func TestParseLoudnormExtractsInputFields(t *testing.T) {
	stderr := []byte(`[Parsed_loudnorm_0 @ 0x0]
{
	"input_i" : "-14.00",
	"input_tp" : "-1.20",
	"input_lra" : "3.00",
	"input_thresh" : "-24.10",
	"output_i" : "-16.00"
}
`)
	ln := ParseLoudnorm(stderr)
	if ln == nil || ln.IntegratedLUFS == nil {
		t.Fatalf("expected parsed loudnorm, got %+v", ln)
	}
	if *ln.IntegratedLUFS != -14.0 {
		t.Errorf("integrated lufs = %v, want -14.0", *ln.IntegratedLUFS)
	}
	if *ln.TruePeakDBTP != -1.2 {
		t.Errorf("true peak = %v, want -1.2", *ln.TruePeakDBTP)
	}
}

func TestParseAstatsOverallSection(t *testing.T) {
	stderr := []byte(`[Parsed_astats_0 @ 0x1] Channel: 1
[Parsed_astats_0 @ 0x1] DC offset: 0.001000
[Parsed_astats_0 @ 0x1] Peak level dB: -6.000000
[Parsed_astats_0 @ 0x1] Overall
[Parsed_astats_0 @ 0x1] DC offset: 0.000000
[Parsed_astats_0 @ 0x1] Peak level dB: -0.000002
[Parsed_astats_0 @ 0x1] RMS level dB: -3.010300
[Parsed_astats_0 @ 0x1] Crest factor: 1.414213
`)
	a := ParseAstats(stderr)
	if a == nil {
		t.Fatalf("expected parsed astats")
	}
	if a.PeakDBFS == nil || *a.PeakDBFS > 0 || *a.PeakDBFS < -0.00001 {
		t.Errorf("peak dbfs = %v", a.PeakDBFS)
	}
	if a.CrestFactorDB == nil {
		t.Fatalf("expected derived crest factor db")
	}
	want := *a.PeakDBFS - *a.RMSDBFS
	if math.Abs(*a.CrestFactorDB-want) > 1e-9 {
		t.Errorf("crest factor db = %v, want %v", *a.CrestFactorDB, want)
	}
}

func TestSilenceFractionSumsIntervalsAndCapsAtDuration(t *testing.T) {
	stderr := []byte(`[silencedetect @ 0x0] silence_start: 0
[silencedetect @ 0x0] silence_end: 2 | silence_duration: 2
[silencedetect @ 0x0] silence_start: 8
`)
	frac := SilenceFraction(stderr, 10.0)
	if frac < 0.39 || frac > 0.41 {
		t.Errorf("silence fraction = %v, want ~0.4", frac)
	}
}

func TestParseVolumeDetect(t *testing.T) {
	stderr := []byte("[Parsed_volumedetect_0 @ 0x0] mean_volume: -18.3 dB\n[Parsed_volumedetect_0 @ 0x0] max_volume: -0.5 dB\n")
	bv := ParseVolumeDetect(stderr)
	if bv.MeanVolume != -18.3 || bv.MaxVolume != -0.5 {
		t.Errorf("got %+v", bv)
	}
}

func TestMixSanityScorePenalizesHotPeaks(t *testing.T) {
	rep := &BandEnergyReport{
		Full:      BandVolume{MeanVolume: -18, MaxVolume: -0.1},
		Low90200:  BandVolume{MeanVolume: -20},
		Mid200_4k: BandVolume{MeanVolume: -20},
		HighGE4k:  BandVolume{MeanVolume: -20},
	}
	s := MixSanityScore(rep, 0.0)
	if math.Abs(s.Score-0.65) > 1e-9 || len(s.Reasons) != 1 {
		t.Errorf("expected a single 0.35 hot-peak penalty (score 0.65), got score=%v reasons=%v", s.Score, s.Reasons)
	}
}

func TestMixSanityScoreCleanMixPasses(t *testing.T) {
	rep := &BandEnergyReport{
		Full:      BandVolume{MeanVolume: -18, MaxVolume: -3},
		Low90200:  BandVolume{MeanVolume: -20},
		Mid200_4k: BandVolume{MeanVolume: -20},
		HighGE4k:  BandVolume{MeanVolume: -22},
	}
	s := MixSanityScore(rep, 0.05)
	if !s.OK() {
		t.Errorf("expected clean mix to pass sanity, score=%v reasons=%v", s.Score, s.Reasons)
	}
}

func TestCheckLUFSWithinWindowPasses(t *testing.T) {
	lufs := -14.0
	ok, _ := CheckLUFS(&lufs, LUFSWindow{Min: -15.5, Max: -12.5})
	if !ok {
		t.Errorf("expected -14.0 within [-15.5,-12.5] to pass")
	}
}

func TestCheckLUFSOutsideWindowFails(t *testing.T) {
	lufs := -11.0
	ok, detail := CheckLUFS(&lufs, LUFSWindow{Min: -15.5, Max: -12.5})
	if ok {
		t.Errorf("expected -11.0 outside [-15.5,-12.5] to fail, detail=%s", detail)
	}
}

func TestCheckLUFSMissingFails(t *testing.T) {
	ok, detail := CheckLUFS(nil, LUFSWindow{Min: -15.5, Max: -12.5})
	if ok || detail != "missing" {
		t.Errorf("expected missing LUFS to fail with 'missing', got ok=%v detail=%s", ok, detail)
	}
}

func TestStereoCorrelationPerfectlyCorrelated(t *testing.T) {
	buf := make([]byte, 0, 8*4)
	put := func(v float32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf = append(buf, b[:]...)
	}
	for i := 0; i < 8; i++ {
		v := float32(i) - 3.5
		put(v)
		put(v)
	}
	corr := StereoCorrelation(buf)
	if corr == nil || *corr < 0.99 {
		t.Fatalf("expected near +1 correlation, got %v", corr)
	}
}

func TestStereoCorrelationTooShortReturnsNil(t *testing.T) {
	if corr := StereoCorrelation([]byte{0, 1, 2}); corr != nil {
		t.Errorf("expected nil for degenerate input, got %v", *corr)
	}
}

func TestDrumRenderScorePenalizesClipping(t *testing.T) {
	clean := &BandEnergyReport{
		Full:    BandVolume{MaxVolume: -6},
		SubLT90: BandVolume{MeanVolume: -14},
		HighGE4k: BandVolume{MeanVolume: -22},
	}
	clipped := &BandEnergyReport{
		Full:    BandVolume{MaxVolume: -0.1},
		SubLT90: BandVolume{MeanVolume: -14},
		HighGE4k: BandVolume{MeanVolume: -22},
	}
	if DrumRenderScore(clipped) >= DrumRenderScore(clean) {
		t.Errorf("expected clipping to reduce drum render score")
	}
}

func TestStereoBalanceDBLouderRightIsPositive(t *testing.T) {
	buf := make([]byte, 0, 8*4)
	put := func(v float32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf = append(buf, b[:]...)
	}
	for i := 0; i < 8; i++ {
		v := float32(i%2)*2 - 1
		put(v * 0.1)
		put(v * 0.5)
	}
	bal := StereoBalanceDB(buf)
	if bal == nil || *bal <= 0 {
		t.Fatalf("expected positive (right-louder) balance, got %v", bal)
	}
}

func TestAnalyzeAssemblesReportFromFakeTool(t *testing.T) {
	loudnorm := []byte(`{"input_i":"-14.00","input_tp":"-1.20","input_lra":"3.00"}`)
	astats := []byte("[Parsed_astats_0 @ 0x1] Overall\n[Parsed_astats_0 @ 0x1] DC offset: 0.001000\n[Parsed_astats_0 @ 0x1] Peak level dB: -1.000000\n[Parsed_astats_0 @ 0x1] RMS level dB: -12.000000\n")

	pcm := make([]byte, 0, 8*4)
	put := func(v float32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		pcm = append(pcm, b[:]...)
	}
	for i := 0; i < 8; i++ {
		v := float32(i) - 3.5
		put(v)
		put(v)
	}

	calls := 0
	media := &external.MediaTool{Bin: "ffmpeg", Run: func(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
		calls++
		switch calls {
		case 1:
			return nil, loudnorm, nil
		case 2:
			return nil, astats, nil
		default:
			return pcm, nil, nil
		}
	}}

	rep, err := Analyze(context.Background(), media, "in.wav")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.IntegratedLUFS == nil || *rep.IntegratedLUFS != -14.0 {
		t.Errorf("integrated lufs = %v", rep.IntegratedLUFS)
	}
	if rep.CrestFactorDB == nil || *rep.CrestFactorDB != 11.0 {
		t.Errorf("crest factor db = %v, want 11.0", rep.CrestFactorDB)
	}
	if rep.StereoCorrelation == nil || *rep.StereoCorrelation < 0.99 {
		t.Errorf("stereo correlation = %v", rep.StereoCorrelation)
	}
}
