package domain

import "time"

// EventCategory classifies a random market event.
type EventCategory string

const (
	EventEconomicNews           EventCategory = "economic_news"
	EventPoliticalEvent         EventCategory = "political_event"
	EventNaturalDisaster        EventCategory = "natural_disaster"
	EventTechnologyBreakthrough EventCategory = "technology_breakthrough"
	EventRegulatoryChange       EventCategory = "regulatory_change"
)

// EventCategories lists every category in draw order.
var EventCategories = []EventCategory{
	EventEconomicNews,
	EventPoliticalEvent,
	EventNaturalDisaster,
	EventTechnologyBreakthrough,
	EventRegulatoryChange,
}

// MaxEventMagnitude bounds |Event.Magnitude|.
const MaxEventMagnitude = 0.1

// Event is an immutable record of a fired market event.
type Event struct {
	Day         int           `json:"day"`
	Date        time.Time     `json:"date"`
	Category    EventCategory `json:"type"`
	Magnitude   float64       `json:"magnitude"`
	Description string        `json:"description"`
}
