// Package metrics exposes Prometheus instruments for a running simulation.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// Metrics provides observability for the simulation engine.
type Metrics struct {
	// Simulated days completed
	Days prometheus.Counter

	// Fired events by category
	Events *prometheus.CounterVec

	// Interaction attempts by outcome kind
	Interactions *prometheus.CounterVec

	// Transfers by outcome: settled, invalid_amount, insufficient_funds
	Transfers *prometheus.CounterVec

	// Policy rate changes by direction
	RateChanges *prometheus.CounterVec

	// Recorder failures by sink
	RecorderErrors *prometheus.CounterVec

	// Latest market indicators and asset prices
	MarketState *prometheus.GaugeVec
	AssetPrice  *prometheus.GaugeVec
}

// New registers every instrument with reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Days: f.NewCounter(prometheus.CounterOpts{
			Name: "marketsim_days_total",
			Help: "Total simulated days completed",
		}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsim_events_total",
			Help: "Total random market events by category",
		}, []string{"category"}),
		Interactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsim_interactions_total",
			Help: "Total interaction attempts by kind",
		}, []string{"kind"}), // kind: "skipped", "no_funds", "message", "transaction"
		Transfers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsim_transfers_total",
			Help: "Total transfers by outcome",
		}, []string{"outcome"}),
		RateChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsim_rate_changes_total",
			Help: "Total policy interest rate changes by direction",
		}, []string{"direction"}),
		RecorderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marketsim_recorder_errors_total",
			Help: "Total snapshot recorder failures by sink",
		}, []string{"sink"}),
		MarketState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "marketsim_market_state",
			Help: "Latest value of each market indicator",
		}, []string{"indicator"}),
		AssetPrice: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "marketsim_asset_price",
			Help: "Latest simulated price per asset class",
		}, []string{"asset"}),
	}
}

// IncDay records a completed day.
func (m *Metrics) IncDay() {
	if m != nil {
		m.Days.Inc()
	}
}

// IncEvent records a fired event.
func (m *Metrics) IncEvent(category domain.EventCategory) {
	if m != nil {
		m.Events.WithLabelValues(string(category)).Inc()
	}
}

// IncInteraction records an interaction attempt.
func (m *Metrics) IncInteraction(kind string) {
	if m != nil {
		m.Interactions.WithLabelValues(kind).Inc()
	}
}

// IncTransfer records a transfer outcome.
func (m *Metrics) IncTransfer(outcome string) {
	if m != nil {
		m.Transfers.WithLabelValues(outcome).Inc()
	}
}

// IncRateChange records a policy rate change.
func (m *Metrics) IncRateChange(direction string) {
	if m != nil {
		m.RateChanges.WithLabelValues(direction).Inc()
	}
}

// IncRecorderError records a failed snapshot write.
func (m *Metrics) IncRecorderError(sink string) {
	if m != nil {
		m.RecorderErrors.WithLabelValues(sink).Inc()
	}
}

// ObserveState publishes the latest indicators and prices.
func (m *Metrics) ObserveState(s domain.MarketState, prices map[string]float64) {
	if m == nil {
		return
	}
	for name, v := range s.Indicators() {
		m.MarketState.WithLabelValues(name).Set(v)
	}
	for asset, p := range prices {
		m.AssetPrice.WithLabelValues(asset).Set(p)
	}
}
