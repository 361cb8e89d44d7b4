package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncDay()
		m.IncEvent(domain.EventEconomicNews)
		m.IncInteraction("message")
		m.IncTransfer("settled")
		m.IncRateChange("raise")
		m.IncRecorderError("redis")
		m.ObserveState(domain.MarketState{}, map[string]float64{"stocks": 1})
	})
}

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncDay()
	m.IncDay()
	m.IncEvent(domain.EventNaturalDisaster)
	m.IncTransfer("settled")
	m.IncTransfer("insufficient_funds")
	m.ObserveState(domain.MarketState{InterestRate: 0.025}, map[string]float64{"stocks": 101.5})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Days))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("natural_disaster")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transfers.WithLabelValues("settled")))
	assert.Equal(t, 0.025, testutil.ToFloat64(m.MarketState.WithLabelValues("interest_rate")))
	assert.Equal(t, 101.5, testutil.ToFloat64(m.AssetPrice.WithLabelValues("stocks")))
}
