package script

import (
	"strconv"
	"strings"

	"github.com/clawdaw/clawdaw/internal/clawerr"
	"github.com/clawdaw/clawdaw/internal/model"
	"github.com/clawdaw/clawdaw/internal/timegrid"
)

func needArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return clawerr.Newf(clawerr.KindInvalidInput, "usage: %s", usage)
	}
	return nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, clawerr.Newf(clawerr.KindInvalidInput, "invalid integer %q", s)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, clawerr.Newf(clawerr.KindInvalidInput, "invalid number %q", s)
	}
	return v, nil
}

// parseKV pulls trailing key=value tokens (e.g. "seed=0 density=0.82")
// into a map, the way gen_drums/set_humanize accept named parameters.
func parseKV(args []string) map[string]string {
	kv := map[string]string{}
	for _, a := range args {
		if idx := strings.IndexByte(a, '='); idx > 0 {
			kv[a[:idx]] = a[idx+1:]
		}
	}
	return kv
}

func kvInt(kv map[string]string, key string, def int) int {
	if v, ok := kv[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func kvInt64(kv map[string]string, key string, def int64) int64 {
	if v, ok := kv[key]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func kvFloat(kv map[string]string, key string, def float64) float64 {
	if v, ok := kv[key]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func trackAt(p *model.Project, idx int) (*model.Track, error) {
	if idx < 0 || idx >= len(p.Tracks) {
		return nil, clawerr.Newf(clawerr.KindReferenceError, "no track at index %d", idx)
	}
	return p.Tracks[idx], nil
}

func timecode(p *model.Project, s string) (int, error) {
	return timegrid.ParseTimecode(p.PPQ, s)
}

func patternAt(t *model.Track, name string) (*model.Pattern, error) {
	pat, ok := t.Patterns[name]
	if !ok {
		return nil, clawerr.Newf(clawerr.KindReferenceError, "no pattern %q on track %q", name, t.Name)
	}
	return pat, nil
}
