package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// DayPublisher records each day snapshot into the state cache, publishes it
// on domain.ChannelDay and appends it to domain.StreamDays.
type DayPublisher struct {
	cache *StateCache
	bus   *SignalBus
}

// NewDayPublisher combines a cache and a bus. Either may be nil.
func NewDayPublisher(cache *StateCache, bus *SignalBus) *DayPublisher {
	return &DayPublisher{cache: cache, bus: bus}
}

// Record implements simulation.Recorder. Every sink is attempted; failures
// are joined.
func (p *DayPublisher) Record(ctx context.Context, snap domain.DaySnapshot) error {
	var errs []error
	if p.cache != nil {
		if err := p.cache.SetState(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	if p.bus != nil {
		payload, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("redis: marshal day %d: %w", snap.Day, err)
		}
		if err := p.bus.Publish(ctx, domain.ChannelDay, payload); err != nil {
			errs = append(errs, err)
		}
		if err := p.bus.StreamAppend(ctx, domain.StreamDays, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// statusMessage is published on domain.ChannelStatus when a run changes state.
type statusMessage struct {
	RunID         string           `json:"run_id"`
	Status        domain.SimStatus `json:"status"`
	DaysCompleted int              `json:"days_completed"`
}

// PublishStatus announces a run status change.
func (p *DayPublisher) PublishStatus(ctx context.Context, runID string, status domain.SimStatus, days int) error {
	if p.bus == nil {
		return nil
	}
	payload, err := json.Marshal(statusMessage{RunID: runID, Status: status, DaysCompleted: days})
	if err != nil {
		return fmt.Errorf("redis: marshal status: %w", err)
	}
	return p.bus.Publish(ctx, domain.ChannelStatus, payload)
}
