package domain

import (
	"math"
	"strconv"
	"time"
)

// Ratio is a float64 that encodes non-finite values as JSON null. Liquidity
// is +Inf for a crossed or locked book.
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// DaySnapshot is recorded at the end of every simulated day.
type DaySnapshot struct {
	RunID        string             `json:"run_id"`
	Day          int                `json:"day"`
	Date         time.Time          `json:"date"`
	State        MarketState        `json:"market_state"`
	Prices       map[string]float64 `json:"prices"`
	Liquidity    map[string]Ratio   `json:"liquidity"`
	Event        *Event             `json:"event,omitempty"`
	Actions      []RegulatoryAction `json:"regulatory_actions,omitempty"`
	Transactions []Transaction      `json:"transactions,omitempty"`
	Messages     int                `json:"messages"`
	Failed       int                `json:"failed_transfers"`
}

// AssetAnalytics summarizes one asset's price path.
type AssetAnalytics struct {
	InitialPrice      float64   `json:"initial_price"`
	FinalPrice        float64   `json:"final_price"`
	TotalReturn       float64   `json:"total_return"`
	Returns           []float64 `json:"returns"`
	RollingVolatility []float64 `json:"rolling_volatility"`
	SharpeRatio       float64   `json:"sharpe_ratio"`
	Volume            []int64   `json:"volume"`
}

// CorrelationMatrix is a symmetric matrix indexed by Assets.
type CorrelationMatrix struct {
	Assets []string    `json:"assets"`
	Values [][]float64 `json:"values"`
}

// At returns the correlation between assets a and b, or false when either is
// unknown.
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, name := range m.Assets {
		if name == a {
			i = k
		}
		if name == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// Analytics is computed from the completed price series.
type Analytics struct {
	Assets      map[string]AssetAnalytics `json:"assets"`
	Correlation CorrelationMatrix         `json:"correlation"`
}

// Results is the full output of a simulation run.
type Results struct {
	RunID         string               `json:"run_id"`
	Status        SimStatus            `json:"status"`
	Seed          int64                `json:"seed"`
	StartDate     time.Time            `json:"start_date"`
	Days          int                  `json:"days"`
	DaysCompleted int                  `json:"days_completed"`
	FinalState    MarketState          `json:"market_state"`
	Prices        map[string][]float64 `json:"asset_prices"`
	Entities      []EntityView         `json:"entities"`
	Ledger        []Transaction        `json:"transactions"`
	Events        []Event              `json:"events"`
	Actions       []RegulatoryAction   `json:"regulatory_actions"`
	Analytics     *Analytics           `json:"analytics,omitempty"`
}
