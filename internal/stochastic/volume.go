package stochastic

import (
	"math"
	"math/rand"
)

// TradingVolume returns a synthetic volume per price step. Volume grows with
// the absolute percentage change at that step and carries N(1, randomFactor)
// multiplicative noise. The first step has no change. Negative draws are
// floored at zero.
func TradingVolume(rng *rand.Rand, prices []float64, baseVolume, sensitivity, randomFactor float64) []int64 {
	out := make([]int64, len(prices))
	for i := range prices {
		change := 0.0
		if i > 0 && prices[i-1] != 0 {
			change = (prices[i] - prices[i-1]) / prices[i-1]
		}
		noise := 1 + randomFactor*rng.NormFloat64()
		v := math.Round(baseVolume * (1 + math.Abs(change)*sensitivity) * noise)
		out[i] = max(int64(v), 0)
	}
	return out
}
