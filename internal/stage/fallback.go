package stage

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Fallback is the shared synthetic-data policy. All random values drawn
// for mock results go through one seeded generator so degraded behavior
// is reproducible in tests.
type Fallback struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallback creates a fallback policy seeded for reproducibility.
func NewFallback(seed uint64) *Fallback {
	return &Fallback{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Score draws a score in [lo, hi) rounded to one decimal.
func (f *Fallback) Score(lo, hi float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := lo + f.rng.Float64()*(hi-lo)
	return math.Round(v*10) / 10
}
