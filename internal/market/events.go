package market

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/alanyoungcy/marketsim/internal/domain"
	"github.com/alanyoungcy/marketsim/internal/stochastic"
)

// EventEngine fires at most one random event per day.
type EventEngine struct {
	rng         *rand.Rand
	probability float64
}

// NewEventEngine fires an event with the given daily probability.
func NewEventEngine(rng *rand.Rand, probability float64) *EventEngine {
	return &EventEngine{rng: rng, probability: probability}
}

// Step draws whether an event fires today and, if so, applies it to s.
func (e *EventEngine) Step(day int, date time.Time, s *domain.MarketState) (domain.Event, bool) {
	if e.rng.Float64() >= e.probability {
		return domain.Event{}, false
	}

	category := domain.EventCategories[e.rng.Intn(len(domain.EventCategories))]
	magnitude := stochastic.Uniform(e.rng, -domain.MaxEventMagnitude, domain.MaxEventMagnitude)
	ApplyEvent(s, category, magnitude)

	return domain.Event{
		Day:         day,
		Date:        date,
		Category:    category,
		Magnitude:   magnitude,
		Description: fmt.Sprintf("%s (magnitude: %.2f)", category, magnitude),
	}, true
}

// ApplyEvent applies the linear effect of an event to s and re-clamps it.
func ApplyEvent(s *domain.MarketState, category domain.EventCategory, m float64) {
	abs := math.Abs(m)
	switch category {
	case domain.EventEconomicNews:
		s.MarketSentiment += 2 * m
		s.EconomicGrowth += 0.01 * m
	case domain.EventPoliticalEvent:
		s.MarketVolatility += 0.05 * abs
		s.MarketSentiment += m
	case domain.EventNaturalDisaster:
		s.MarketSentiment -= 0.5 * abs
		s.EconomicGrowth -= 0.005 * abs
	case domain.EventTechnologyBreakthrough:
		s.MarketSentiment += abs
		s.EconomicGrowth += 0.002 * abs
	case domain.EventRegulatoryChange:
		s.MarketVolatility += 0.02 * m
	}
	s.Clamp()
}
