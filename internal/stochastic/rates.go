package stochastic

import (
	"fmt"
	"math/rand"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// SimulateInterestRate returns a discrete mean-reverting rate path of length
// days. rates[0] is initialRate; each later rate moves by
// speed*(longTermMean-prev) + volatility*N(0,1) and is floored at
// domain.MinInterestRate.
func SimulateInterestRate(initialRate float64, days int, volatility, speed, longTermMean float64, seed int64) ([]float64, error) {
	if days < 1 {
		return nil, fmt.Errorf("stochastic: interest rate days %d: %w", days, domain.ErrInvalidConfiguration)
	}
	if volatility < 0 {
		return nil, fmt.Errorf("stochastic: negative volatility %g: %w", volatility, domain.ErrInvalidConfiguration)
	}

	rng := rand.New(rand.NewSource(seed))
	rates := make([]float64, days)
	rates[0] = initialRate
	for i := 1; i < days; i++ {
		dr := speed*(longTermMean-rates[i-1]) + volatility*rng.NormFloat64()
		rates[i] = max(domain.MinInterestRate, rates[i-1]+dr)
	}
	return rates, nil
}
