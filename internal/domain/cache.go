package domain

import (
	"context"
	"time"
)

// StateCache holds the latest market state and asset prices of the active run.
type StateCache interface {
	SetState(ctx context.Context, snap DaySnapshot) error
	GetState(ctx context.Context) (MarketState, int, error)
	GetPrices(ctx context.Context) (map[string]float64, error)
}

// StreamMessage represents a single entry from a Redis stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// RateLimiter admits at most limit requests per key within a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RunLease guarantees at most one run publishes to the shared state keys.
// The returned release func is safe to call more than once.
type RunLease interface {
	Acquire(ctx context.Context, runID string) (release func(), err error)
	Holder(ctx context.Context) (string, error)
}
