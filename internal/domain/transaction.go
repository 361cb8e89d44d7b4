package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable record of a settled transfer between two
// entities. Amount is always positive.
type Transaction struct {
	ID          string          `json:"id"`
	Day         int             `json:"day"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	FromName    string          `json:"from_name"`
	ToName      string          `json:"to_name"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
}
