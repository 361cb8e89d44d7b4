package domain

// Bounds enforced on MarketState after every mutation. EconomicGrowth is
// intentionally unbounded.
const (
	MinInterestRate     = 0.001
	MinInflationRate    = 0.0
	MinMarketVolatility = 0.01
	MinLiquidityFactor  = 0.5
	MaxLiquidityFactor  = 2.0
	MinMarketSentiment  = -1.0
	MaxMarketSentiment  = 1.0
	MinUnemploymentRate = 0.01
	MaxUnemploymentRate = 0.2
)

// MarketState is the vector of macro indicators shared by every component of
// a running simulation.
type MarketState struct {
	InterestRate     float64 `json:"interest_rate"`
	InflationRate    float64 `json:"inflation_rate"`
	MarketVolatility float64 `json:"market_volatility"`
	LiquidityFactor  float64 `json:"liquidity_factor"`
	MarketSentiment  float64 `json:"market_sentiment"`
	EconomicGrowth   float64 `json:"economic_growth"`
	UnemploymentRate float64 `json:"unemployment_rate"`
}

// Clamp forces every bounded indicator back inside its range.
func (s *MarketState) Clamp() {
	s.InterestRate = max(s.InterestRate, MinInterestRate)
	s.InflationRate = max(s.InflationRate, MinInflationRate)
	s.MarketVolatility = max(s.MarketVolatility, MinMarketVolatility)
	s.LiquidityFactor = clamp(s.LiquidityFactor, MinLiquidityFactor, MaxLiquidityFactor)
	s.MarketSentiment = clamp(s.MarketSentiment, MinMarketSentiment, MaxMarketSentiment)
	s.UnemploymentRate = clamp(s.UnemploymentRate, MinUnemploymentRate, MaxUnemploymentRate)
}

// InBounds reports whether every bounded indicator lies inside its range.
func (s MarketState) InBounds() bool {
	return s.InterestRate >= MinInterestRate &&
		s.InflationRate >= MinInflationRate &&
		s.MarketVolatility >= MinMarketVolatility &&
		s.LiquidityFactor >= MinLiquidityFactor && s.LiquidityFactor <= MaxLiquidityFactor &&
		s.MarketSentiment >= MinMarketSentiment && s.MarketSentiment <= MaxMarketSentiment &&
		s.UnemploymentRate >= MinUnemploymentRate && s.UnemploymentRate <= MaxUnemploymentRate
}

// Indicators returns the state keyed by indicator name, matching the JSON
// field names.
func (s MarketState) Indicators() map[string]float64 {
	return map[string]float64{
		"interest_rate":     s.InterestRate,
		"inflation_rate":    s.InflationRate,
		"market_volatility": s.MarketVolatility,
		"liquidity_factor":  s.LiquidityFactor,
		"market_sentiment":  s.MarketSentiment,
		"economic_growth":   s.EconomicGrowth,
		"unemployment_rate": s.UnemploymentRate,
	}
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
