package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

const (
	stateKey  = "sim:state"
	pricesKey = "sim:prices"
	dayField  = "day"
)

var _ domain.StateCache = (*StateCache)(nil)

// StateCache implements domain.StateCache with two Redis hashes: sim:state
// holds the indicators plus the day, sim:prices the adjusted asset prices.
type StateCache struct {
	rdb *redis.Client
}

// NewStateCache creates a StateCache backed by the given Client.
func NewStateCache(c *Client) *StateCache {
	return &StateCache{rdb: c.Underlying()}
}

// stateFields flattens a snapshot into the sim:state hash fields.
func stateFields(snap domain.DaySnapshot) map[string]any {
	fields := make(map[string]any, 8)
	for name, v := range snap.State.Indicators() {
		fields[name] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	fields[dayField] = strconv.Itoa(snap.Day)
	return fields
}

func priceFields(prices map[string]float64) map[string]any {
	fields := make(map[string]any, len(prices))
	for name, p := range prices {
		fields[name] = strconv.FormatFloat(p, 'f', -1, 64)
	}
	return fields
}

// parseState rebuilds the state and day from sim:state hash values.
func parseState(vals map[string]string) (domain.MarketState, int, error) {
	var s domain.MarketState
	targets := map[string]*float64{
		"interest_rate":     &s.InterestRate,
		"inflation_rate":    &s.InflationRate,
		"market_volatility": &s.MarketVolatility,
		"liquidity_factor":  &s.LiquidityFactor,
		"market_sentiment":  &s.MarketSentiment,
		"economic_growth":   &s.EconomicGrowth,
		"unemployment_rate": &s.UnemploymentRate,
	}
	for name, dst := range targets {
		raw, ok := vals[name]
		if !ok {
			return domain.MarketState{}, 0, fmt.Errorf("missing field %s: %w", name, domain.ErrNotFound)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.MarketState{}, 0, fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = v
	}
	day, err := strconv.Atoi(vals[dayField])
	if err != nil {
		return domain.MarketState{}, 0, fmt.Errorf("parse day: %w", err)
	}
	return s, day, nil
}

// SetState writes the state and prices of snap atomically.
func (c *StateCache) SetState(ctx context.Context, snap domain.DaySnapshot) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, stateKey, stateFields(snap))
		if len(snap.Prices) > 0 {
			pipe.HSet(ctx, pricesKey, priceFields(snap.Prices))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: set state day %d: %w", snap.Day, err)
	}
	return nil
}

// GetState returns the cached state and its day. It returns
// domain.ErrNotFound when nothing has been cached yet.
func (c *StateCache) GetState(ctx context.Context) (domain.MarketState, int, error) {
	vals, err := c.rdb.HGetAll(ctx, stateKey).Result()
	if err != nil {
		return domain.MarketState{}, 0, fmt.Errorf("redis: get state: %w", err)
	}
	if len(vals) == 0 {
		return domain.MarketState{}, 0, domain.ErrNotFound
	}
	s, day, err := parseState(vals)
	if err != nil {
		return domain.MarketState{}, 0, fmt.Errorf("redis: get state: %w", err)
	}
	return s, day, nil
}

// GetPrices returns the cached asset prices.
func (c *StateCache) GetPrices(ctx context.Context) (map[string]float64, error) {
	vals, err := c.rdb.HGetAll(ctx, pricesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get prices: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrNotFound
	}
	out := make(map[string]float64, len(vals))
	for name, raw := range vals {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("redis: parse price %s: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}
