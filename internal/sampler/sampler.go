// Package sampler implements the sample-pack player (spec §4.G):
// role→pitch mapping through weighted variant selection, linear
// resampling, a per-render path cache, polyphony enforcement, short
// fades, and a final peak limiter.
package sampler

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/clawdaw/clawdaw/internal/flatten"
	"github.com/clawdaw/clawdaw/internal/model"
	"github.com/clawdaw/clawdaw/internal/wavio"
)

const (
	polyphonyCap = 16
	fadeSeconds  = 0.004
)

// Cache holds decoded, resampled sample buffers keyed by absolute path,
// scoped to a single render and discarded after (spec §5 "shared
// resources").
type Cache struct {
	targetRate int
	entries    map[string]*wavio.Buffer
}

// NewCache builds an empty cache for the given project sample rate.
func NewCache(targetRate int) *Cache {
	return &Cache{targetRate: targetRate, entries: map[string]*wavio.Buffer{}}
}

func (c *Cache) load(path string) (*wavio.Buffer, error) {
	if b, ok := c.entries[path]; ok {
		return b, nil
	}
	b, err := wavio.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b = wavio.Resample(b, c.targetRate)
	c.entries[path] = b
	return b, nil
}

// Render synthesizes one stereo WAV buffer for a sample-pack track. Notes
// must already be absolute-frame and role-tagged (flatten.FlattenRaw, not
// flatten.Flatten — role expansion would have discarded the role). seed
// drives the weighted-variant selection PRNG (deterministic across runs).
func Render(pack *model.SamplePack, notes []flatten.FlatNote, sampleRate, totalFrames int, seed int64, cache *Cache) (*wavio.Buffer, error) {
	buf := wavio.NewStereo(sampleRate, totalFrames)
	if cache == nil {
		cache = NewCache(sampleRate)
	}

	sorted := make([]flatten.FlatNote, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	kept := capPolyphony(sorted, polyphonyCap)

	for idx, n := range kept {
		if n.Mute {
			continue
		}
		role := model.NormalizeRole(n.Role())
		if role == "" {
			continue
		}

		rng := rand.New(rand.NewSource(seed + int64(idx)*65537))
		entry, ok := pack.SelectVariant(role, rng.Float64())
		if !ok {
			continue
		}

		src, err := cache.load(filepath.Join(pack.Root, entry.RelPath))
		if err != nil {
			return nil, fmt.Errorf("sampler: load %s: %w", entry.RelPath, err)
		}

		gain := (float64(n.EffectiveVelocity()) / 127.0) * dbToLinear(pack.GainDB) * dbToLinear(entry.GainDB)
		placeWithFade(buf, src, n.Start, sampleRate, gain)
	}

	buf.Limit()
	return buf, nil
}

func capPolyphony(notes []flatten.FlatNote, cap int) []flatten.FlatNote {
	type active struct{ end int }
	var voices []active
	out := make([]flatten.FlatNote, 0, len(notes))
	for _, n := range notes {
		live := voices[:0]
		for _, v := range voices {
			if v.end > n.Start {
				live = append(live, v)
			}
		}
		voices = live
		if len(voices) >= cap {
			continue
		}
		voices = append(voices, active{end: n.End()})
		out = append(out, n)
	}
	return out
}

func placeWithFade(dst *wavio.Buffer, src *wavio.Buffer, startFrame, sampleRate int, gain float64) {
	fadeFrames := int(fadeSeconds * float64(sampleRate))
	srcFrames := src.Frames()
	srcCh := src.Channels

	for f := 0; f < srcFrames; f++ {
		frame := startFrame + f
		if frame < 0 || frame >= dst.Frames() {
			continue
		}

		env := 1.0
		if f < fadeFrames {
			env = float64(f) / float64(maxi(fadeFrames, 1))
		}
		if tail := srcFrames - f; tail < fadeFrames {
			w := float64(tail) / float64(maxi(fadeFrames, 1))
			if w < env {
				env = w
			}
		}

		var l, r float32
		if srcCh >= 2 {
			l = src.Samples[f*srcCh]
			r = src.Samples[f*srcCh+1]
		} else {
			l = src.Samples[f*srcCh]
			r = l
		}

		dst.Samples[frame*2] += float32(float64(l) * gain * env)
		dst.Samples[frame*2+1] += float32(float64(r) * gain * env)
	}
}

func dbToLinear(db float64) float64 {
	if db == 0 {
		return 1
	}
	return math.Pow(10, db/20.0)
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}
