package forecasting

import (
	"math"
	"math/rand"
	"sync"
)

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// lockedSource makes a *rand.Rand safe for concurrent batch workers.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a goroutine-safe source seeded with seed.
func NewRandomSource(seed int64) RandomSource {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// jitterSpread is the +/-5% band applied per day.
const jitterSpread = 0.05

// ApplyJitter perturbs each day's expected demand by an independent uniform
// factor in [0.95, 1.05) and re-derives the stock projections. It is a
// separate post-processing step so the deterministic breakdown stays testable.
func ApplyJitter(b Breakdown, product Product, src RandomSource) Breakdown {
	if src == nil {
		return b
	}
	daily := make([]DailyPrediction, len(b.Daily))
	for i, d := range b.Daily {
		factor := 1 - jitterSpread + src.Float64()*2*jitterSpread
		d.PredictedSales = roundNonNegative(math.Max(0, d.Expected*factor))
		daily[i] = d
	}
	b.Daily = daily
	b.JitterApplied = true
	b.settle(product)
	return b
}
