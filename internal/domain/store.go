package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// RunRecord is the persisted summary of one simulation run.
type RunRecord struct {
	ID            string       `json:"id"`
	Seed          int64        `json:"seed"`
	StartDate     time.Time    `json:"start_date"`
	Days          int          `json:"days"`
	DaysCompleted int          `json:"days_completed"`
	Status        string       `json:"status"`
	FinalState    *MarketState `json:"market_state,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
}

// RunStore persists simulation runs, their day snapshots and final results.
type RunStore interface {
	CreateRun(ctx context.Context, run RunRecord) error
	SaveSnapshot(ctx context.Context, snap DaySnapshot) error
	SaveResults(ctx context.Context, res Results) error
	GetRun(ctx context.Context, id string) (RunRecord, error)
	ListRuns(ctx context.Context, opts ListOpts) ([]RunRecord, error)
}
