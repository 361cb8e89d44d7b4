package domain

import "github.com/shopspring/decimal"

// EntityCategory is the tag selecting an entity's profile variant.
type EntityCategory string

const (
	CategoryRegulator            EntityCategory = "regulator"
	CategoryFinancialInstitution EntityCategory = "financial_institution"
	CategoryInfrastructure       EntityCategory = "market_infrastructure"
	CategoryAuxiliaryService     EntityCategory = "auxiliary_service"
	CategoryDirectParticipant    EntityCategory = "direct_participant"
	CategoryInternational        EntityCategory = "international_organization"
)

// Valid reports whether c is one of the known categories.
func (c EntityCategory) Valid() bool {
	switch c {
	case CategoryRegulator, CategoryFinancialInstitution, CategoryInfrastructure,
		CategoryAuxiliaryService, CategoryDirectParticipant, CategoryInternational:
		return true
	}
	return false
}

// Profile is the category-specific payload of an entity.
type Profile interface {
	Category() EntityCategory
}

type RegulatorProfile struct {
	PolicyTools []string `json:"policy_tools,omitempty"`
}

func (RegulatorProfile) Category() EntityCategory { return CategoryRegulator }

type InstitutionProfile struct {
	Services    []string `json:"services,omitempty"`
	RiskProfile string   `json:"risk_profile,omitempty"`
}

func (InstitutionProfile) Category() EntityCategory { return CategoryFinancialInstitution }

type InfrastructureProfile struct {
	Services []string `json:"services,omitempty"`
}

func (InfrastructureProfile) Category() EntityCategory { return CategoryInfrastructure }

type ServiceProfile struct {
	Services []string `json:"services,omitempty"`
}

func (ServiceProfile) Category() EntityCategory { return CategoryAuxiliaryService }

// ParticipantProfile covers corporates, investors and trading firms. Which
// fields are set depends on the kind of participant.
type ParticipantProfile struct {
	Sector            string   `json:"sector,omitempty"`
	CreditRating      string   `json:"credit_rating,omitempty"`
	RiskPreference    string   `json:"risk_preference,omitempty"`
	InvestmentHorizon string   `json:"investment_horizon,omitempty"`
	Markets           []string `json:"markets,omitempty"`
	TradingStrategy   string   `json:"trading_strategy,omitempty"`
}

func (ParticipantProfile) Category() EntityCategory { return CategoryDirectParticipant }

type InternationalProfile struct {
	Functions []string `json:"functions,omitempty"`
}

func (InternationalProfile) Category() EntityCategory { return CategoryInternational }

// Entity is a financial market participant. Balance and History are owned by
// the entity registry; callers receive copies.
type Entity struct {
	ID               string                     `json:"id"`
	Name             string                     `json:"name"`
	Description      string                     `json:"description"`
	Category         EntityCategory             `json:"category"`
	Balance          decimal.Decimal            `json:"balance"`
	Assets           map[string]decimal.Decimal `json:"assets"`
	Liabilities      map[string]decimal.Decimal `json:"liabilities"`
	RegulatoryStatus string                     `json:"regulatory_status"`
	Profile          Profile                    `json:"profile,omitempty"`
	History          []Transaction              `json:"-"`
}

// EntityView is the read-only projection of an entity returned in results.
type EntityView struct {
	ID               string                     `json:"id"`
	Name             string                     `json:"name"`
	Category         EntityCategory             `json:"category"`
	Description      string                     `json:"description"`
	Balance          decimal.Decimal            `json:"balance"`
	Assets           map[string]decimal.Decimal `json:"assets"`
	Liabilities      map[string]decimal.Decimal `json:"liabilities"`
	Connections      []string                   `json:"connections"`
	RegulatoryStatus string                     `json:"regulatory_status"`
	Profile          Profile                    `json:"profile,omitempty"`
	TransactionCount int                        `json:"transaction_count"`
}
