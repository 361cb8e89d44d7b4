package market

import (
	"fmt"

	"github.com/alanyoungcy/marketsim/internal/config"
	"github.com/alanyoungcy/marketsim/internal/domain"
)

// Regulator runs the stress-test and reporting cadences and the periodic
// interest rate policy.
type Regulator struct {
	cfg    config.RegulatoryConfig
	policy bool
}

// NewRegulator builds a regulator. When policyEnabled is false the rate rule
// never fires; cadence markers are still produced.
func NewRegulator(cfg config.RegulatoryConfig, policyEnabled bool) *Regulator {
	return &Regulator{cfg: cfg, policy: policyEnabled}
}

// PolicyEnabled reports whether the rate rule is active.
func (r *Regulator) PolicyEnabled() bool { return r.policy }

// Step returns the actions taken on day, mutating s when the rate changes.
func (r *Regulator) Step(day int, s *domain.MarketState) []domain.RegulatoryAction {
	var actions []domain.RegulatoryAction
	if day%r.cfg.StressTestFrequency == 0 {
		actions = append(actions, domain.RegulatoryAction{Day: day, Kind: domain.ActionStressTest})
	}
	if day%r.cfg.ReportingFrequency == 0 {
		actions = append(actions, domain.RegulatoryAction{Day: day, Kind: domain.ActionReport})
	}
	if r.policy && day%r.cfg.PolicyInterval == 0 {
		if a, ok := r.adjustRate(day, s); ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// adjustRate raises the rate when inflation is above the ceiling, otherwise
// lowers it when growth is below the floor. Only one branch applies.
func (r *Regulator) adjustRate(day int, s *domain.MarketState) (domain.RegulatoryAction, bool) {
	before := s.InterestRate
	var reason string
	switch {
	case s.InflationRate > r.cfg.InflationCeiling:
		step := min(r.cfg.MaxRateStep, (s.InflationRate-r.cfg.InflationTarget)*r.cfg.Sensitivity)
		s.InterestRate += step
		reason = fmt.Sprintf("inflation %.4f above %.4f", s.InflationRate, r.cfg.InflationCeiling)
	case s.EconomicGrowth < r.cfg.GrowthFloor:
		step := min(r.cfg.MaxRateStep, (r.cfg.GrowthTarget-s.EconomicGrowth)*r.cfg.Sensitivity)
		s.InterestRate = max(domain.MinInterestRate, s.InterestRate-step)
		reason = fmt.Sprintf("growth %.4f below %.4f", s.EconomicGrowth, r.cfg.GrowthFloor)
	default:
		return domain.RegulatoryAction{}, false
	}
	return domain.RegulatoryAction{
		Day:    day,
		Kind:   domain.ActionRateChange,
		Before: before,
		After:  s.InterestRate,
		Reason: reason,
	}, true
}
