package simulation

import (
	"context"
	"time"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// Settler runs after the day's prices are adjusted, before the snapshot is
// recorded.
type Settler interface {
	Settle(ctx context.Context, day int, date time.Time) error
}

// Recorder receives the snapshot of every completed day.
type Recorder interface {
	Record(ctx context.Context, snap domain.DaySnapshot) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, snap domain.DaySnapshot) error

func (f RecorderFunc) Record(ctx context.Context, snap domain.DaySnapshot) error {
	return f(ctx, snap)
}

type nopSettler struct{}

func (nopSettler) Settle(context.Context, int, time.Time) error { return nil }

type namedRecorder struct {
	name string
	rec  Recorder
}
