package engine

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/oddslens/engine/internal/domain"
)

const (
	// syntheticPoints is the length of a reconstructed series; the market
	// correlation matrix consumes exactly this many points.
	syntheticPoints = 7
	// syntheticStep is the spacing between reconstructed points.
	syntheticStep = 4 * time.Hour
	// syntheticNoise bounds the per-step random shock in probability points.
	syntheticNoise = 3.0
	// syntheticPull is the per-step mean-reversion strength toward the
	// current probability.
	syntheticPull = 0.3
)

// SynthesizeHistory reconstructs a plausible price path for a market that has
// no history API. The walk is seeded from a hash of the market id, so the
// same id always produces the same path: correlation output and sparklines
// stay stable across repeated calls. It starts near probability − change24h,
// adds bounded noise each step while drifting toward the current probability,
// and forces the final point to equal the current probability exactly.
//
// anchor fixes the timestamp of the final point; the series must be labeled
// synthetic by the caller and never mistaken for observed data.
func SynthesizeHistory(id string, probability, change24h float64, anchor time.Time) []domain.PricePoint {
	rng := rand.New(rand.NewSource(seedFromID(id)))

	start := domain.ClampProbability(probability - change24h)
	end := anchor.UnixMilli()
	stepMs := syntheticStep.Milliseconds()

	points := make([]domain.PricePoint, syntheticPoints)
	value := start
	for i := 0; i < syntheticPoints; i++ {
		ts := end - int64(syntheticPoints-1-i)*stepMs
		if i == syntheticPoints-1 {
			points[i] = domain.PricePoint{Timestamp: ts, Probability: probability}
			break
		}
		points[i] = domain.PricePoint{Timestamp: ts, Probability: value}

		noise := (rng.Float64()*2 - 1) * syntheticNoise
		value = domain.ClampProbability(value + noise + syntheticPull*(probability-value))
	}
	return points
}

// seedFromID hashes a market id into a stable RNG seed (FNV-1a 64).
func seedFromID(id string) int64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return int64(h.Sum64())
}
