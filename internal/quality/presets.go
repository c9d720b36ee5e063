package quality

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/clawdaw/clawdaw/internal/meter"
)

//go:embed presets.json
var defaultPresetsRaw []byte

// MixDef is the per-preset description of how BuildMixSpec assembles a
// MixSpecRaw: per-role track FX (falling back to the "music" role when a
// classified role has no explicit entry), shared returns, per-bus FX, the
// master chain, and the sidechain rule template.
type MixDef struct {
	Roles     map[string]map[string]any `json:"roles"`
	Returns   map[string]any            `json:"returns,omitempty"`
	Busses    map[string]map[string]any `json:"busses,omitempty"`
	Master    map[string]any            `json:"master,omitempty"`
	Sidechain SidechainDef              `json:"sidechain"`
}

// SidechainDef is the preset's sidechain template: which roles get ducked
// by the picked kick source, and with what compressor parameters.
type SidechainDef struct {
	Targets []string       `json:"targets"`
	Params  map[string]any `json:"params"`
}

// GateMasterThresholds are the master-bus gate thresholds (spec §4.K
// gate_master_meter); SpectralTiltMin/Max are nil unless a preset opts in,
// since no meter component computes spectral tilt by default.
type GateMasterThresholds struct {
	LUFSMin          float64  `json:"lufs_min"`
	LUFSMax          float64  `json:"lufs_max"`
	TruePeakMax      float64  `json:"true_peak_max"`
	StereoCorrMin    float64  `json:"stereo_corr_min"`
	StereoBalanceMax float64  `json:"stereo_balance_max"`
	DCOffsetMax      float64  `json:"dc_offset_max"`
	SpectralTiltMin  *float64 `json:"spectral_tilt_min,omitempty"`
	SpectralTiltMax  *float64 `json:"spectral_tilt_max,omitempty"`
}

// GateStemThresholds are the per-stem/per-bus gate thresholds (spec §4.K
// gate_stems), plus advisory per-role LUFS guidance windows.
type GateStemThresholds struct {
	TruePeakMax      float64                     `json:"true_peak_max"`
	PeakMax          float64                     `json:"peak_max"`
	CrestMin         float64                     `json:"crest_min"`
	StereoCorrMin    float64                     `json:"stereo_corr_min"`
	StereoBalanceMax float64                     `json:"stereo_balance_max"`
	DCOffsetMax      float64                     `json:"dc_offset_max"`
	LUFSGuidance     map[string]meter.LUFSWindow `json:"lufs_guidance,omitempty"`
}

// Gates bundles the master and stem gate thresholds.
type Gates struct {
	Master GateMasterThresholds `json:"master"`
	Stems  GateStemThresholds   `json:"stems"`
}

// Preset is a named mix-preparation + gating profile (e.g. "edm_streaming",
// "clean").
type Preset struct {
	Mix   MixDef `json:"mix"`
	Gates Gates  `json:"gates"`
}

// DefaultPresets parses the built-in preset table embedded at build time.
func DefaultPresets() (map[string]Preset, error) {
	var presets map[string]Preset
	if err := json.Unmarshal(defaultPresetsRaw, &presets); err != nil {
		return nil, fmt.Errorf("quality: parse embedded presets: %w", err)
	}
	return presets, nil
}

// LoadPresets reads a preset table from an external JSON file, for
// deployments that want to override the built-in "edm_streaming"/"clean"
// profiles. An empty path returns the built-in defaults.
func LoadPresets(path string) (map[string]Preset, error) {
	if path == "" {
		return DefaultPresets()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("quality: read presets %s: %w", path, err)
	}
	var presets map[string]Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("quality: parse presets %s: %w", path, err)
	}
	return presets, nil
}
