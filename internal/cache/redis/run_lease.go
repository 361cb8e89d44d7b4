package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

const keyRunLease = "sim:lease"

// DefaultLeaseTTL is how long a lease survives without a refresh.
const DefaultLeaseTTL = 30 * time.Second

// releaseLua deletes the lease only if it still belongs to the caller.
const releaseLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// refreshLua extends the lease only if it still belongs to the caller.
const refreshLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`

// RunLease implements domain.RunLease with SETNX and a background refresh.
type RunLease struct {
	rdb       *redis.Client
	ttl       time.Duration
	releaseSc *redis.Script
	refreshSc *redis.Script
	logger    *slog.Logger
}

// NewRunLease creates a lease manager. A non-positive ttl uses
// DefaultLeaseTTL.
func NewRunLease(c *Client, ttl time.Duration, logger *slog.Logger) *RunLease {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &RunLease{
		rdb:       c.Underlying(),
		ttl:       ttl,
		releaseSc: redis.NewScript(releaseLua),
		refreshSc: redis.NewScript(refreshLua),
		logger:    logger.With(slog.String("component", "run_lease")),
	}
}

// Acquire takes the lease for runID and keeps it alive until release is
// called or ctx ends. It returns domain.ErrRunActive when another run holds
// it.
func (l *RunLease) Acquire(ctx context.Context, runID string) (func(), error) {
	ok, err := l.rdb.SetNX(ctx, keyRunLease, runID, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lease: %w", err)
	}
	if !ok {
		return nil, domain.ErrRunActive
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.keepAlive(ctx, runID, stop)
	}()

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		close(stop)
		<-done

		// The caller's context may already be cancelled.
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.releaseSc.Run(relCtx, l.rdb, []string{keyRunLease}, runID).Err(); err != nil {
			l.logger.Warn("release lease failed", slog.String("run_id", runID), slog.String("error", err.Error()))
		}
	}
	return release, nil
}

func (l *RunLease) keepAlive(ctx context.Context, runID string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := l.refreshSc.Run(ctx, l.rdb, []string{keyRunLease}, runID, l.ttl.Milliseconds()).Int()
			if err != nil {
				l.logger.Warn("refresh lease failed", slog.String("run_id", runID), slog.String("error", err.Error()))
				continue
			}
			if n == 0 {
				l.logger.Error("lease lost", slog.String("run_id", runID))
				return
			}
		}
	}
}

// Holder returns the run ID holding the lease, or domain.ErrNotFound.
func (l *RunLease) Holder(ctx context.Context) (string, error) {
	id, err := l.rdb.Get(ctx, keyRunLease).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis: lease holder: %w", err)
	}
	return id, nil
}

var _ domain.RunLease = (*RunLease)(nil)
