// Package market evolves the shared macro state of a simulation: daily
// noise, random events and the regulator's cadence and rate policy.
package market

import (
	"math/rand"

	"github.com/alanyoungcy/marketsim/internal/config"
	"github.com/alanyoungcy/marketsim/internal/domain"
)

// StateController applies the daily random walk to every indicator.
type StateController struct {
	rng   *rand.Rand
	noise config.NoiseConfig
}

// NewStateController draws from rng with per-indicator standard deviations
// taken from noise.
func NewStateController(rng *rand.Rand, noise config.NoiseConfig) *StateController {
	return &StateController{rng: rng, noise: noise}
}

// Step adds independent zero-mean normal noise to each indicator and clamps
// the result.
func (c *StateController) Step(s *domain.MarketState) {
	s.InterestRate += c.draw(c.noise.InterestRate)
	s.InflationRate += c.draw(c.noise.InflationRate)
	s.MarketVolatility += c.draw(c.noise.Volatility)
	s.LiquidityFactor += c.draw(c.noise.LiquidityFactor)
	s.MarketSentiment += c.draw(c.noise.Sentiment)
	s.EconomicGrowth += c.draw(c.noise.EconomicGrowth)
	s.UnemploymentRate += c.draw(c.noise.UnemploymentRate)
	s.Clamp()
}

func (c *StateController) draw(sigma float64) float64 {
	return c.rng.NormFloat64() * sigma
}
