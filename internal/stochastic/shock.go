package stochastic

import (
	"fmt"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// SimulateMarketShock returns a copy of prices with a multiplicative shock
// applied recoveryDays before the end of the series. The residual effect
// fades linearly: recoveryStrength 1 removes it exactly over recoveryDays,
// larger values recover faster.
func SimulateMarketShock(prices []float64, magnitude float64, recoveryDays int, recoveryStrength float64) ([]float64, error) {
	if recoveryDays < 1 {
		return nil, fmt.Errorf("stochastic: recovery days %d: %w", recoveryDays, domain.ErrInvalidConfiguration)
	}
	if recoveryStrength <= 0 {
		return nil, fmt.Errorf("stochastic: recovery strength %g: %w", recoveryStrength, domain.ErrInvalidConfiguration)
	}

	out := make([]float64, len(prices))
	copy(out, prices)
	if len(out) == 0 {
		return out, nil
	}

	shock := max(len(out)-1-recoveryDays, 0)
	out[shock] = prices[shock] * (1 + magnitude)
	for i := shock + 1; i < len(out); i++ {
		factor := min(1, float64(i-shock)/float64(recoveryDays)*recoveryStrength)
		out[i] = prices[i] * (1 + magnitude*(1-factor))
	}
	return out, nil
}
