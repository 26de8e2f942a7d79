// Package sampler draws unique, validated trait combinations from an
// edition config.
//
// Sampling is rejection sampling: each draw picks one trait per layer from
// its cumulative distribution, and the whole tuple is redrawn when a
// validation rule rejects it or when it duplicates an accepted tuple.
// Feasibility is checked up front against the size of the combinatorial
// space, so the loop terminates in expectation. It can still spin for a
// long time when rules forbid most of the space, which is what the retry
// ceiling (WithMaxRetries) bounds.
package sampler

import (
	"io"
	"log/slog"
	"math/rand"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

const opSample = "sampler.sample"

// Sampler draws AssetRecords for one EditionConfig. It holds no state
// between Sample calls; the set of accepted tuples is rebuilt from the
// records passed in.
type Sampler struct {
	cfg        types.EditionConfig
	rules      []Rule
	rng        *rand.Rand
	ext        string
	maxRetries int
	log        *slog.Logger
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithRules installs compiled validation rules.
func WithRules(rules []Rule) Option {
	return func(s *Sampler) { s.rules = rules }
}

// WithRand sets the random source. Tests pass a seeded one.
func WithRand(r *rand.Rand) Option {
	return func(s *Sampler) { s.rng = r }
}

// WithExt sets the asset file extension used in references.
func WithExt(ext string) Option {
	return func(s *Sampler) { s.ext = ext }
}

// WithMaxRetries bounds consecutive rejected draws. Zero means unbounded.
func WithMaxRetries(n int) Option {
	return func(s *Sampler) { s.maxRetries = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) { s.log = l }
}

// New returns a Sampler for cfg.
func New(cfg types.EditionConfig, opts ...Option) *Sampler {
	s := &Sampler{
		cfg: cfg,
		rng: rand.New(rand.NewSource(1)),
		ext: types.DefaultAssetExt,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectIndex returns the first index i with cum[i-1] <= u <= cum[i],
// taking cum[-1] as 0.
//
// Both bounds are inclusive. When a zero-weight trait shares a boundary
// with its predecessor, a draw on that boundary resolves to the lower
// index, so the zero-weight trait is never selected. The one exception is a
// zero-weight trait in first position, which a draw of exactly 0 selects.
func SelectIndex(cum []float64, u float64) int {
	lower := 0.0
	for i, upper := range cum {
		if u >= lower && u <= upper {
			return i
		}
		lower = upper
	}
	// Unreachable for u in [0, 1) because cum ends at 1.
	return len(cum) - 1
}

// Draw picks one trait per layer and resolves the asset references. It
// applies no validation.
func (s *Sampler) Draw() types.AssetRecord {
	rec := types.AssetRecord{
		Traits: make([]string, len(s.cfg.Layers)),
		Assets: make([]string, 0, len(s.cfg.Layers)),
	}
	for i, l := range s.cfg.Layers {
		trait := l.Traits[SelectIndex(l.Cumulative, s.rng.Float64())]
		rec.Traits[i] = trait
		if trait != types.NoneTrait {
			rec.Assets = append(rec.Assets, types.AssetRef(l.Name, trait, s.ext))
		}
	}
	return rec
}

// Check returns the name of the first rule that rejects tuple, or "" when
// the tuple is valid.
func (s *Sampler) Check(tuple []string) string {
	for _, r := range s.rules {
		if r.Rejects(tuple) {
			return r.Name
		}
	}
	return ""
}

// Sample returns existing followed by newly drawn records until the result
// holds target records. Existing records keep their positions.
//
// A target larger than the number of distinct combinations fails before any
// draw. If the retry ceiling is hit mid-run, the records accepted so far
// are returned together with the capacity error; they are valid and safe to
// persist.
func (s *Sampler) Sample(target int, existing []types.AssetRecord) ([]types.AssetRecord, error) {
	if len(s.cfg.Layers) == 0 {
		return nil, types.ConfigErrorf(opSample, "edition config has no layers")
	}

	total := s.cfg.TotalCombinations()
	if int64(target) > total {
		return nil, types.CapacityErrorf(opSample,
			"requested %d unique records but only %d distinct combinations exist (%d already generated, %d remaining)",
			target, total, len(existing), total-int64(len(existing)))
	}

	seen := make(map[string]struct{}, target)
	result := make([]types.AssetRecord, 0, max(target, len(existing)))
	for i, rec := range existing {
		if len(rec.Traits) != len(s.cfg.Layers) {
			return nil, types.StateErrorf(opSample, "existing record %d has %d traits, config has %d layers",
				i+1, len(rec.Traits), len(s.cfg.Layers))
		}
		key := rec.Key()
		if _, dup := seen[key]; dup {
			return nil, types.StateErrorf(opSample, "existing record %d duplicates an earlier record", i+1)
		}
		seen[key] = struct{}{}
		result = append(result, rec)
	}

	if target <= len(result) {
		s.log.Info("edition already at target", "existing", len(result), "target", target)
		return result, nil
	}

	var rejectedRule, rejectedDup, streak int
	for len(result) < target {
		rec := s.Draw()

		if rule := s.Check(rec.Traits); rule != "" {
			rejectedRule++
			streak++
			s.log.Debug("draw rejected", "rule", rule, "traits", rec.Traits)
		} else if _, dup := seen[rec.Key()]; dup {
			rejectedDup++
			streak++
		} else {
			seen[rec.Key()] = struct{}{}
			result = append(result, rec)
			streak = 0
			continue
		}

		if s.maxRetries > 0 && streak >= s.maxRetries {
			s.log.Warn("retry ceiling reached",
				"accepted", len(result)-len(existing), "target", target, "max_retries", s.maxRetries)
			return result, types.CapacityErrorf(opSample,
				"%d consecutive draws rejected after %d of %d records; the validation rules may exclude the remaining combinations",
				streak, len(result), target)
		}
	}

	s.log.Info("sampling complete",
		"generated", len(result)-len(existing),
		"total", len(result),
		"rejected_by_rule", rejectedRule,
		"rejected_duplicate", rejectedDup)
	return result, nil
}
