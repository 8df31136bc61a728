package document

import "math/rand"

// LevelBranchSample is one observation of "this element at this level had N
// children" gathered during the ingest pre-pass, before any GID is assigned.
type LevelBranchSample struct {
	Level      int
	ChildCount uint64
}

// InferConfig controls order-table inference (D3).
type InferConfig struct {
	// SampleSize caps the reservoir kept per level (default 1000).
	SampleSize int
	// Seed makes reservoir sampling deterministic.
	Seed int64
	// Slack is the fractional widening applied to the maximum observed
	// branching factor at each level (default 0.25).
	Slack float64
}

// DefaultInferConfig returns the documented defaults.
func DefaultInferConfig() InferConfig {
	return InferConfig{SampleSize: 1000, Slack: 0.25}
}

// InferOrderTable reservoir-samples observations per level and widens the
// maximum observed branching factor by cfg.Slack, producing the order[]
// table C3 freezes for the rest of a document's lifetime. order[0] is
// always 1 (exactly one document root).
func InferOrderTable(observations []LevelBranchSample, cfg InferConfig) []uint64 {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 1000
	}
	if cfg.Slack <= 0 {
		cfg.Slack = 0.25
	}

	reservoirs := make(map[int][]uint64)
	counts := make(map[int]int)
	rng := rand.New(rand.NewSource(cfg.Seed))

	maxLevel := 0
	for _, obs := range observations {
		if obs.Level > maxLevel {
			maxLevel = obs.Level
		}
		counts[obs.Level]++
		r := reservoirs[obs.Level]
		if len(r) < cfg.SampleSize {
			reservoirs[obs.Level] = append(r, obs.ChildCount)
			continue
		}
		j := rng.Intn(counts[obs.Level])
		if j < cfg.SampleSize {
			r[j] = obs.ChildCount
		}
	}

	order := make([]uint64, maxLevel+2)
	order[0] = 1
	for level := 0; level <= maxLevel; level++ {
		sample := reservoirs[level]
		var max uint64
		for _, v := range sample {
			if v > max {
				max = v
			}
		}
		widened := max + uint64(float64(max)*cfg.Slack+0.999999)
		if widened == 0 {
			widened = 1
		}
		order[level+1] = widened
	}
	return order
}
