package simulation

import (
	"fmt"
	"math/rand"

	"github.com/alanyoungcy/marketsim/internal/domain"
	"github.com/alanyoungcy/marketsim/internal/stochastic"
)

// RunID identifies this run.
func (s *Simulation) RunID() string { return s.runID }

// Seed is the global seed every stream is derived from.
func (s *Simulation) Seed() int64 { return s.cfg.Simulation.Seed }

// Assets returns the asset classes in sorted order.
func (s *Simulation) Assets() []string {
	out := make([]string, len(s.assets))
	copy(out, s.assets)
	return out
}

// Status returns the lifecycle state and the number of completed days.
func (s *Simulation) Status() (domain.SimStatus, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.days
}

// State returns the current market state.
func (s *Simulation) State() domain.MarketState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the latest day snapshot, if any day has completed.
func (s *Simulation) Snapshot() (domain.DaySnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return domain.DaySnapshot{}, false
	}
	return *s.last, true
}

// PriceSeries returns a copy of the full series for asset.
func (s *Simulation) PriceSeries(asset string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.prices[asset]
	if !ok {
		return nil, fmt.Errorf("simulation: asset %q: %w", asset, domain.ErrNotFound)
	}
	out := make([]float64, len(series))
	copy(out, series)
	return out, nil
}

// Entities returns the entity registry view.
func (s *Simulation) Entities() []domain.EntityView {
	return s.registry.Views(s.graph)
}

// Entity returns the view of one entity.
func (s *Simulation) Entity(id string) (domain.EntityView, error) {
	for _, v := range s.registry.Views(s.graph) {
		if v.ID == id {
			return v, nil
		}
	}
	return domain.EntityView{}, fmt.Errorf("simulation: entity %s: %w", id, domain.ErrNotFound)
}

// EntityHistory returns the transactions involving id.
func (s *Simulation) EntityHistory(id string) ([]domain.Transaction, error) {
	return s.registry.History(id)
}

// Transactions returns a page of the ledger and its total length.
func (s *Simulation) Transactions(opts domain.ListOpts) ([]domain.Transaction, int) {
	ledger := s.registry.Ledger()
	total := len(ledger)
	lo := min(max(opts.Offset, 0), total)
	hi := total
	if opts.Limit > 0 {
		hi = min(lo+opts.Limit, total)
	}
	return ledger[lo:hi], total
}

// Events returns the event log.
func (s *Simulation) Events() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Event, len(s.eventLog))
	copy(out, s.eventLog)
	return out
}

// Actions returns the regulatory action log.
func (s *Simulation) Actions() []domain.RegulatoryAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RegulatoryAction, len(s.actions))
	copy(out, s.actions)
	return out
}

// Analytics returns the statistics computed at completion, or nil while the
// run is incomplete.
func (s *Simulation) Analytics() *domain.Analytics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis
}

// OrderBook synthesizes a book around the asset's latest adjusted price. The
// book is seeded from the asset and day, so repeated queries on the same day
// return the same book and never disturb the run's own streams.
func (s *Simulation) OrderBook(asset string) (domain.OrderBook, error) {
	s.mu.RLock()
	series, ok := s.prices[asset]
	day := max(s.days-1, 0)
	var price float64
	if ok {
		price = series[day]
	}
	s.mu.RUnlock()
	if !ok {
		return domain.OrderBook{}, fmt.Errorf("simulation: asset %q: %w", asset, domain.ErrNotFound)
	}

	ob := s.cfg.OrderBook
	rng := rand.New(rand.NewSource(stochastic.DeriveSeed(s.cfg.Simulation.Seed, fmt.Sprintf("orderbook/%s/%d", asset, day))))
	book := stochastic.GenerateOrderBook(rng, price, max(ob.Depth, 1), ob.SpreadPercent, ob.BaseVolume, ob.PriceStep)
	book.Asset = asset
	return book, nil
}

// Results returns a deep copy of everything the run has produced so far.
// Entities and the ledger are read under the same lock as the market state,
// so all of them describe the same completed day.
func (s *Simulation) Results() domain.Results {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := domain.Results{
		RunID:         s.runID,
		Status:        s.status,
		Seed:          s.cfg.Simulation.Seed,
		StartDate:     s.start,
		Days:          s.cfg.Simulation.Days,
		DaysCompleted: s.days,
		FinalState:    s.state,
		Prices:        make(map[string][]float64, len(s.prices)),
		Events:        make([]domain.Event, len(s.eventLog)),
		Actions:       make([]domain.RegulatoryAction, len(s.actions)),
		Analytics:     s.analysis,
	}
	for name, series := range s.prices {
		cp := make([]float64, len(series))
		copy(cp, series)
		res.Prices[name] = cp
	}
	copy(res.Events, s.eventLog)
	copy(res.Actions, s.actions)
	res.Entities = s.registry.Views(s.graph)
	res.Ledger = s.registry.Ledger()
	return res
}

// computeAnalytics derives return statistics from the finished series.
// Statistics stop at the first non-positive price, where returns are no
// longer defined.
func (s *Simulation) computeAnalytics() domain.Analytics {
	s.mu.RLock()
	prices := make(map[string][]float64, len(s.prices))
	for name, series := range s.prices {
		cp := make([]float64, len(series))
		copy(cp, series)
		prices[name] = cp
	}
	s.mu.RUnlock()

	ac := s.cfg.Analytics
	rng := stochastic.NewRand(s.cfg.Simulation.Seed, streamVolume)
	out := domain.Analytics{Assets: make(map[string]domain.AssetAnalytics, len(s.assets))}
	returnsByAsset := make(map[string][]float64, len(s.assets))

	for _, name := range s.assets {
		series := prices[name]
		valid := series
		if i := stochastic.FirstNonPositive(series); i >= 0 {
			valid = series[:i]
		}
		returns := stochastic.Returns(valid)
		returnsByAsset[name] = returns

		initial := s.cfg.Assets[name].InitialPrice
		final := series[len(series)-1]
		out.Assets[name] = domain.AssetAnalytics{
			InitialPrice:      initial,
			FinalPrice:        final,
			TotalReturn:       final/initial - 1,
			Returns:           returns,
			RollingVolatility: stochastic.RollingVolatility(returns, ac.VolatilityWindow),
			SharpeRatio:       stochastic.SharpeRatio(returns, ac.RiskFreeRate),
			Volume:            stochastic.TradingVolume(rng, valid, ac.BaseVolume, ac.PriceSensitivity, ac.RandomFactor),
		}
	}
	out.Correlation = stochastic.CorrelationMatrix(returnsByAsset)
	return out
}
