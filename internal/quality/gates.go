package quality

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clawdaw/clawdaw/internal/meter"
)

// RoleFromFilename classifies a stem/bus filename by reusing ClassifyTrack
// on its basename (extension and directory stripped), for gate_stems'
// per-role LUFS guidance lookup (spec §4.K "_role_from_filename").
func RoleFromFilename(name string) string {
	base := strings.ToLower(filepath.Base(name))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return ClassifyTrack(base).Role
}

func gateCheck(checks *[]string, ok *bool, label string, cond bool, detail string) {
	status := "PASS"
	if !cond {
		*ok = false
		status = "FAIL"
	}
	*checks = append(*checks, fmt.Sprintf("%s: %s (%s)", status, label, detail))
}

// GateMaster applies the master-bus meter thresholds to a diagnostic
// report (spec §4.K "gate_master_meter"). crestMin is a caller parameter,
// not part of the preset, matching the original's hardcoded default.
func GateMaster(rep *meter.Report, preset Preset, crestMin float64) (bool, []string) {
	g := preset.Gates.Master
	ok := true
	var checks []string

	if rep.IntegratedLUFS != nil {
		lufs := *rep.IntegratedLUFS
		gateCheck(&checks, &ok, "lufs", lufs >= g.LUFSMin && lufs <= g.LUFSMax,
			fmt.Sprintf("%.2f target %.1f..%.1f", lufs, g.LUFSMin, g.LUFSMax))
	} else {
		gateCheck(&checks, &ok, "lufs", false, "missing")
	}

	if rep.TruePeakDBTP != nil {
		tp := *rep.TruePeakDBTP
		gateCheck(&checks, &ok, "true_peak", tp <= g.TruePeakMax, fmt.Sprintf("%.2f max %.1f", tp, g.TruePeakMax))
	} else {
		gateCheck(&checks, &ok, "true_peak", false, "missing")
	}

	if rep.CrestFactorDB != nil {
		gateCheck(&checks, &ok, "crest_factor", *rep.CrestFactorDB >= crestMin,
			fmt.Sprintf("%.2f min %.1f", *rep.CrestFactorDB, crestMin))
	} else {
		gateCheck(&checks, &ok, "crest_factor", false, "missing")
	}

	if rep.StereoCorrelation != nil {
		gateCheck(&checks, &ok, "stereo_correlation", *rep.StereoCorrelation >= g.StereoCorrMin,
			fmt.Sprintf("%.2f min %.2f", *rep.StereoCorrelation, g.StereoCorrMin))
	} else {
		checks = append(checks, "PASS: stereo_correlation (n/a, mono)")
	}

	if rep.StereoBalanceDB != nil {
		gateCheck(&checks, &ok, "stereo_balance", math.Abs(*rep.StereoBalanceDB) <= g.StereoBalanceMax,
			fmt.Sprintf("%.2f max %.1f", *rep.StereoBalanceDB, g.StereoBalanceMax))
	} else {
		checks = append(checks, "PASS: stereo_balance (n/a, mono)")
	}

	if rep.DCOffset != nil {
		gateCheck(&checks, &ok, "dc_offset", math.Abs(*rep.DCOffset) <= g.DCOffsetMax,
			fmt.Sprintf("%.4f max %.3f", *rep.DCOffset, g.DCOffsetMax))
	} else {
		gateCheck(&checks, &ok, "dc_offset", false, "missing")
	}

	if g.SpectralTiltMin != nil && g.SpectralTiltMax != nil && rep.SpectralTiltDB != nil {
		tilt := *rep.SpectralTiltDB
		gateCheck(&checks, &ok, "spectral_tilt", tilt >= *g.SpectralTiltMin && tilt <= *g.SpectralTiltMax,
			fmt.Sprintf("%.2f target %.1f..%.1f", tilt, *g.SpectralTiltMin, *g.SpectralTiltMax))
	}

	return ok, checks
}

// GateStems applies the per-stem/per-bus meter thresholds across a named
// set of reports (spec §4.K "gate_stems"). LUFS guidance is advisory: it
// never flips the overall pass/fail, only annotates the checks.
func GateStems(reports map[string]*meter.Report, preset Preset, lufsGuidance bool) (bool, []string) {
	g := preset.Gates.Stems
	names := make([]string, 0, len(reports))
	for n := range reports {
		names = append(names, n)
	}
	sort.Strings(names)

	ok := true
	var checks []string
	for _, name := range names {
		rep := reports[name]
		prefix := name + " "

		if rep.TruePeakDBTP != nil {
			gateCheck(&checks, &ok, prefix+"true_peak", *rep.TruePeakDBTP <= g.TruePeakMax,
				fmt.Sprintf("%.2f max %.1f", *rep.TruePeakDBTP, g.TruePeakMax))
		}
		if rep.PeakDBFS != nil {
			gateCheck(&checks, &ok, prefix+"peak", *rep.PeakDBFS <= g.PeakMax,
				fmt.Sprintf("%.2f max %.1f", *rep.PeakDBFS, g.PeakMax))
		}
		if rep.CrestFactorDB != nil {
			gateCheck(&checks, &ok, prefix+"crest_factor", *rep.CrestFactorDB >= g.CrestMin,
				fmt.Sprintf("%.2f min %.1f", *rep.CrestFactorDB, g.CrestMin))
		}
		if rep.StereoCorrelation != nil {
			gateCheck(&checks, &ok, prefix+"stereo_correlation", *rep.StereoCorrelation >= g.StereoCorrMin,
				fmt.Sprintf("%.2f min %.2f", *rep.StereoCorrelation, g.StereoCorrMin))
		}
		if rep.StereoBalanceDB != nil {
			gateCheck(&checks, &ok, prefix+"stereo_balance", math.Abs(*rep.StereoBalanceDB) <= g.StereoBalanceMax,
				fmt.Sprintf("%.2f max %.1f", *rep.StereoBalanceDB, g.StereoBalanceMax))
		}
		if rep.DCOffset != nil {
			gateCheck(&checks, &ok, prefix+"dc_offset", math.Abs(*rep.DCOffset) <= g.DCOffsetMax,
				fmt.Sprintf("%.4f max %.3f", *rep.DCOffset, g.DCOffsetMax))
		}

		if lufsGuidance {
			role := RoleFromFilename(name)
			if window, ok2 := g.LUFSGuidance[role]; ok2 {
				guideOK, detail := meter.CheckLUFS(rep.IntegratedLUFS, window)
				status := "PASS"
				if !guideOK {
					status = "INFO"
				}
				checks = append(checks, fmt.Sprintf("%s: %slufs_guidance (%s)", status, prefix, detail))
			}
		}
	}
	return ok, checks
}
