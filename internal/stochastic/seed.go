// Package stochastic provides the pure, seedable generators behind the
// simulation: price paths, mean-reverting rates, shocks, synthetic order books
// and volumes, plus the return statistics computed over finished series.
//
// Nothing in this package holds state between calls. Functions that need
// randomness either take a seed or an explicit *rand.Rand so callers control
// which stream each draw comes from.
package stochastic

import (
	"hash/fnv"
	"math/rand"
)

// DeriveSeed returns a seed for the named stream. Streams derived from the same
// base are independent of one another, so adding draws to one stream never
// shifts another.
func DeriveSeed(base int64, stream string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(stream))
	return base + int64(h.Sum64()%1_000_000)
}

// NewRand returns a source seeded for the named stream.
func NewRand(base int64, stream string) *rand.Rand {
	return rand.New(rand.NewSource(DeriveSeed(base, stream)))
}

// Uniform draws from [lo, hi).
func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
