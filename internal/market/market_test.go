package market

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/config"
	"github.com/alanyoungcy/marketsim/internal/domain"
)

func baseline() domain.MarketState {
	return config.Defaults().Market.InitialState()
}

func TestStateControllerKeepsBounds(t *testing.T) {
	noise := config.Defaults().Market.Noise
	// Exaggerated noise pushes every indicator into its clamps.
	wild := config.NoiseConfig{
		InterestRate: 0.05, InflationRate: 0.05, Volatility: 0.5, LiquidityFactor: 1,
		Sentiment: 2, EconomicGrowth: 0.05, UnemploymentRate: 0.2,
	}
	for name, n := range map[string]config.NoiseConfig{"default": noise, "wild": wild} {
		t.Run(name, func(t *testing.T) {
			c := NewStateController(rand.New(rand.NewSource(11)), n)
			s := baseline()
			for day := 0; day < 5000; day++ {
				c.Step(&s)
				require.True(t, s.InBounds(), "day %d: %+v", day, s)
			}
		})
	}
}

func TestStateControllerDeterministic(t *testing.T) {
	noise := config.Defaults().Market.Noise
	run := func() domain.MarketState {
		c := NewStateController(rand.New(rand.NewSource(5)), noise)
		s := baseline()
		for i := 0; i < 100; i++ {
			c.Step(&s)
		}
		return s
	}
	assert.Equal(t, run(), run())
}

func TestEventEngine(t *testing.T) {
	date := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("never fires at zero probability", func(t *testing.T) {
		e := NewEventEngine(rand.New(rand.NewSource(1)), 0)
		s := baseline()
		for day := 0; day < 1000; day++ {
			_, fired := e.Step(day, date, &s)
			require.False(t, fired)
		}
		assert.Equal(t, baseline(), s)
	})

	t.Run("magnitude and state stay bounded", func(t *testing.T) {
		e := NewEventEngine(rand.New(rand.NewSource(2)), 1)
		s := baseline()
		seen := map[domain.EventCategory]bool{}
		for day := 0; day < 2000; day++ {
			ev, fired := e.Step(day, date, &s)
			require.True(t, fired)
			assert.Equal(t, day, ev.Day)
			assert.LessOrEqual(t, math.Abs(ev.Magnitude), domain.MaxEventMagnitude)
			assert.Contains(t, ev.Description, string(ev.Category))
			require.True(t, s.InBounds())
			seen[ev.Category] = true
		}
		assert.Len(t, seen, len(domain.EventCategories))
	})
}

func TestApplyEvent(t *testing.T) {
	cases := []struct {
		category      domain.EventCategory
		magnitude     float64
		sentimentDiff float64
		growthDiff    float64
		volDiff       float64
	}{
		{domain.EventEconomicNews, 0.05, 0.1, 0.0005, 0},
		{domain.EventEconomicNews, -0.05, -0.1, -0.0005, 0},
		{domain.EventPoliticalEvent, -0.1, -0.1, 0, 0.005},
		{domain.EventNaturalDisaster, 0.08, -0.04, -0.0004, 0},
		{domain.EventNaturalDisaster, -0.08, -0.04, -0.0004, 0},
		{domain.EventTechnologyBreakthrough, -0.05, 0.05, 0.0001, 0},
		{domain.EventRegulatoryChange, 0.1, 0, 0, 0.002},
		{domain.EventRegulatoryChange, -0.1, 0, 0, -0.002},
	}
	for _, tc := range cases {
		t.Run(string(tc.category), func(t *testing.T) {
			s := baseline()
			ApplyEvent(&s, tc.category, tc.magnitude)
			b := baseline()
			assert.InDelta(t, tc.sentimentDiff, s.MarketSentiment-b.MarketSentiment, 1e-12)
			assert.InDelta(t, tc.growthDiff, s.EconomicGrowth-b.EconomicGrowth, 1e-12)
			assert.InDelta(t, tc.volDiff, s.MarketVolatility-b.MarketVolatility, 1e-12)
		})
	}

	t.Run("clamps sentiment", func(t *testing.T) {
		s := baseline()
		s.MarketSentiment = 0.95
		ApplyEvent(&s, domain.EventEconomicNews, 0.1)
		assert.Equal(t, 1.0, s.MarketSentiment)
	})

	t.Run("clamps volatility", func(t *testing.T) {
		s := baseline()
		s.MarketVolatility = 0.011
		ApplyEvent(&s, domain.EventRegulatoryChange, -0.1)
		assert.Equal(t, domain.MinMarketVolatility, s.MarketVolatility)
	})
}

func TestRegulator(t *testing.T) {
	cfg := config.Defaults().Regulatory

	t.Run("inflation branch raises rate", func(t *testing.T) {
		r := NewRegulator(cfg, true)
		s := baseline()
		s.InflationRate = 0.05
		s.EconomicGrowth = 0.02
		actions := r.Step(30, &s)

		require.Len(t, actions, 2)
		assert.Equal(t, domain.ActionStressTest, actions[0].Kind)
		rate := actions[1]
		assert.Equal(t, domain.ActionRateChange, rate.Kind)
		assert.Equal(t, "raise", rate.Direction())
		assert.InDelta(t, 0.02+0.0025, s.InterestRate, 1e-12)
		assert.InDelta(t, 0.0025, rate.After-rate.Before, 1e-12)
	})

	t.Run("inflation takes priority over growth", func(t *testing.T) {
		r := NewRegulator(cfg, true)
		s := baseline()
		s.InflationRate = 0.045
		s.EconomicGrowth = -0.05
		r.Step(0, &s)
		assert.InDelta(t, 0.02+0.0025, s.InterestRate, 1e-12)
	})

	t.Run("small inflation gap gives proportional raise", func(t *testing.T) {
		r := NewRegulator(cfg, true)
		s := baseline()
		s.InflationRate = 0.041
		r.Step(0, &s)
		assert.InDelta(t, 0.02+0.0021, s.InterestRate, 1e-12)
	})

	t.Run("growth branch lowers rate with floor", func(t *testing.T) {
		r := NewRegulator(cfg, true)
		s := baseline()
		s.InflationRate = 0.02
		s.EconomicGrowth = 0.0
		s.InterestRate = 0.002
		actions := r.Step(60, &s)
		require.NotEmpty(t, actions)
		assert.Equal(t, domain.MinInterestRate, s.InterestRate)
		assert.Equal(t, "lower", actions[len(actions)-1].Direction())
	})

	t.Run("no change inside thresholds", func(t *testing.T) {
		r := NewRegulator(cfg, true)
		s := baseline()
		actions := r.Step(30, &s)
		assert.Equal(t, []domain.RegulatoryAction{{Day: 30, Kind: domain.ActionStressTest}}, actions)
		assert.Equal(t, 0.02, s.InterestRate)
	})

	t.Run("policy only on interval days", func(t *testing.T) {
		r := NewRegulator(cfg, true)
		s := baseline()
		s.InflationRate = 0.06
		assert.Empty(t, r.Step(31, &s))
		assert.Equal(t, 0.02, s.InterestRate)
	})

	t.Run("cadences", func(t *testing.T) {
		r := NewRegulator(cfg, false)
		s := baseline()
		s.InflationRate = 0.06
		kinds := func(day int) []domain.ActionKind {
			var out []domain.ActionKind
			for _, a := range r.Step(day, &s) {
				out = append(out, a.Kind)
			}
			return out
		}
		assert.Equal(t, []domain.ActionKind{domain.ActionStressTest, domain.ActionReport}, kinds(0))
		assert.Equal(t, []domain.ActionKind{domain.ActionStressTest}, kinds(60))
		assert.Equal(t, []domain.ActionKind{domain.ActionStressTest, domain.ActionReport}, kinds(90))
		assert.Nil(t, kinds(45))
		assert.Equal(t, 0.02, s.InterestRate, "policy disabled")
	})
}
