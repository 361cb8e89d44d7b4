package entity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/marketsim/internal/config"
	"github.com/alanyoungcy/marketsim/internal/domain"
)

// Namespace returns the ID namespace for a run seeded with seed.
func Namespace(seed int64) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("marketsim/seed/%d", seed)))
}

// Build creates a registry from the entity catalogue and a graph from the
// connection rules. Entities are registered in catalogue order.
func Build(namespace uuid.UUID, catalogue []config.EntityConfig, rules []config.ConnectionRule) (*Registry, *Graph, error) {
	reg := NewRegistry(namespace)
	for _, ec := range catalogue {
		e, err := FromConfig(ec)
		if err != nil {
			return nil, nil, err
		}
		if _, err := reg.Add(e); err != nil {
			return nil, nil, err
		}
	}

	g := NewGraph()
	for _, rule := range rules {
		hub, err := reg.ByName(rule.Hub)
		if err != nil {
			return nil, nil, fmt.Errorf("entity: connection hub %q: %w", rule.Hub, domain.ErrInvalidConfiguration)
		}
		for _, cat := range rule.Categories {
			for _, id := range reg.ByCategory(domain.EntityCategory(cat)) {
				if id == hub.ID {
					continue
				}
				if err := g.Connect(hub.ID, id); err != nil {
					return nil, nil, err
				}
			}
		}
	}
	return reg, g, nil
}

// FromConfig converts a catalogue entry into an entity with the profile
// variant selected by its category.
func FromConfig(ec config.EntityConfig) (domain.Entity, error) {
	cat := domain.EntityCategory(ec.Category)
	profile, err := newProfile(cat, ec)
	if err != nil {
		return domain.Entity{}, err
	}
	return domain.Entity{
		Name:             ec.Name,
		Description:      ec.Description,
		Category:         cat,
		Balance:          decimal.NewFromFloat(ec.InitialBalance),
		Assets:           toAmounts(ec.Assets),
		Liabilities:      toAmounts(ec.Liabilities),
		RegulatoryStatus: ec.RegulatoryStatus,
		Profile:          profile,
	}, nil
}

func newProfile(cat domain.EntityCategory, ec config.EntityConfig) (domain.Profile, error) {
	switch cat {
	case domain.CategoryRegulator:
		return domain.RegulatorProfile{PolicyTools: ec.PolicyTools}, nil
	case domain.CategoryFinancialInstitution:
		return domain.InstitutionProfile{Services: ec.Services, RiskProfile: ec.RiskProfile}, nil
	case domain.CategoryInfrastructure:
		return domain.InfrastructureProfile{Services: ec.Services}, nil
	case domain.CategoryAuxiliaryService:
		return domain.ServiceProfile{Services: ec.Services}, nil
	case domain.CategoryDirectParticipant:
		return domain.ParticipantProfile{
			Sector:            ec.Sector,
			CreditRating:      ec.CreditRating,
			RiskPreference:    ec.RiskPreference,
			InvestmentHorizon: ec.InvestmentHorizon,
			Markets:           ec.Markets,
			TradingStrategy:   ec.TradingStrategy,
		}, nil
	case domain.CategoryInternational:
		return domain.InternationalProfile{Functions: ec.Functions}, nil
	default:
		return nil, fmt.Errorf("entity: %q has unknown category %q: %w", ec.Name, ec.Category, domain.ErrInvalidConfiguration)
	}
}

func toAmounts(m map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = decimal.NewFromFloat(v)
	}
	return out
}
