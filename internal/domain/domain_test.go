package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	s := MarketState{
		InterestRate:     -0.5,
		InflationRate:    -0.1,
		MarketVolatility: 0,
		LiquidityFactor:  3,
		MarketSentiment:  -4,
		EconomicGrowth:   -0.3,
		UnemploymentRate: 0.9,
	}
	require.False(t, s.InBounds())

	s.Clamp()
	assert.True(t, s.InBounds())
	assert.Equal(t, MinInterestRate, s.InterestRate)
	assert.Equal(t, MinInflationRate, s.InflationRate)
	assert.Equal(t, MinMarketVolatility, s.MarketVolatility)
	assert.Equal(t, MaxLiquidityFactor, s.LiquidityFactor)
	assert.Equal(t, MinMarketSentiment, s.MarketSentiment)
	assert.Equal(t, MaxUnemploymentRate, s.UnemploymentRate)
	assert.Equal(t, -0.3, s.EconomicGrowth, "growth is unbounded")
}

func TestIndicatorsMatchJSON(t *testing.T) {
	s := MarketState{InterestRate: 0.02, MarketSentiment: 0.5}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var fields map[string]float64
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, fields, s.Indicators())
}

func TestRatioJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Ratio{
		"finite": 2.5,
		"inf":    Ratio(math.Inf(1)),
		"nan":    Ratio(math.NaN()),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"finite":2.5,"inf":null,"nan":null}`, string(data))
}

func TestOrderBookHelpers(t *testing.T) {
	var empty OrderBook
	assert.Zero(t, empty.BestBid())
	assert.True(t, math.IsInf(empty.BestAsk(), 1))
	assert.Zero(t, empty.TotalVolume())

	book := OrderBook{
		Bids: []PriceLevel{{Price: 99, Volume: 10}, {Price: 98, Volume: 5}},
		Asks: []PriceLevel{{Price: 101, Volume: 7}},
	}
	assert.Equal(t, 99.0, book.BestBid())
	assert.Equal(t, 101.0, book.BestAsk())
	assert.Equal(t, int64(22), book.TotalVolume())
}

func TestCorrelationMatrixAt(t *testing.T) {
	m := CorrelationMatrix{
		Assets: []string{"bonds", "stocks"},
		Values: [][]float64{{1, -0.4}, {-0.4, 1}},
	}
	v, ok := m.At("stocks", "bonds")
	require.True(t, ok)
	assert.Equal(t, -0.4, v)

	_, ok = m.At("stocks", "forex")
	assert.False(t, ok)
}

func TestSimStatusText(t *testing.T) {
	data, err := json.Marshal(struct {
		S SimStatus `json:"s"`
	}{StatusCompleted})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"completed"}`, string(data))
	assert.Equal(t, "status(9)", SimStatus(9).String())
}
