// Package interaction samples the daily encounters between connected
// entities and settles the transfers they agree on.
package interaction

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/marketsim/internal/domain"
	"github.com/alanyoungcy/marketsim/internal/entity"
	"github.com/alanyoungcy/marketsim/internal/metrics"
	"github.com/alanyoungcy/marketsim/internal/stochastic"
)

// Kind is the outcome of one interaction attempt.
type Kind string

const (
	KindSkipped     Kind = "skipped"
	KindNoFunds     Kind = "no_funds"
	KindMessage     Kind = "message"
	KindTransaction Kind = "transaction"
)

// Config bounds the daily interactions.
type Config struct {
	MaxInteractions  int
	TransferFraction float64
	Description      string
}

// Summary counts what happened during one day.
type Summary struct {
	Attempts     int
	Skipped      int
	Messages     int
	Failed       int
	Transactions []domain.Transaction
}

// Engine draws interaction pairs from its own random stream.
type Engine struct {
	rng      *rand.Rand
	registry *entity.Registry
	graph    *entity.Graph
	cfg      Config
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewEngine builds an engine over registry and graph. m may be nil.
func NewEngine(rng *rand.Rand, registry *entity.Registry, graph *entity.Graph, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		rng:      rng,
		registry: registry,
		graph:    graph,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.With(slog.String("component", "interaction")),
	}
}

// Attempts returns the number of pairs drawn per day: min(MaxInteractions, n/2).
func (e *Engine) Attempts() int {
	return min(e.cfg.MaxInteractions, e.registry.Len()/2)
}

// Step runs one day of interactions. Failed transfers are logged and skipped;
// they never abort the day.
func (e *Engine) Step(day int, at time.Time) Summary {
	ids := e.registry.IDs()
	var sum Summary
	if len(ids) < 2 {
		return sum
	}

	sum.Attempts = e.Attempts()
	for i := 0; i < sum.Attempts; i++ {
		a, b := e.pick(ids)
		kind, tx, err := e.interact(day, at, a, b)
		switch {
		case err != nil:
			sum.Failed++
			e.metrics.IncTransfer(outcome(err))
			e.logger.Debug("transfer failed",
				slog.Int("day", day),
				slog.String("from", a),
				slog.String("to", b),
				slog.String("error", err.Error()),
			)
		case kind == KindSkipped, kind == KindNoFunds:
			sum.Skipped++
		case kind == KindMessage:
			sum.Messages++
		case kind == KindTransaction:
			sum.Transactions = append(sum.Transactions, tx)
			e.metrics.IncTransfer("settled")
		}
		e.metrics.IncInteraction(string(kind))
	}
	return sum
}

// pick draws an initiator uniformly and a distinct counterparty uniformly
// among the rest.
func (e *Engine) pick(ids []string) (string, string) {
	i := e.rng.Intn(len(ids))
	j := e.rng.Intn(len(ids) - 1)
	if j >= i {
		j++
	}
	return ids[i], ids[j]
}

func (e *Engine) interact(day int, at time.Time, a, b string) (Kind, domain.Transaction, error) {
	if !e.graph.Connected(a, b) {
		return KindSkipped, domain.Transaction{}, nil
	}
	if e.rng.Intn(2) == 0 {
		return KindMessage, domain.Transaction{}, nil
	}

	balance, err := e.registry.Balance(a)
	if err != nil {
		return KindTransaction, domain.Transaction{}, err
	}
	if !balance.IsPositive() {
		return KindNoFunds, domain.Transaction{}, nil
	}

	limit := balance.InexactFloat64() * e.cfg.TransferFraction
	amount := decimal.NewFromFloat(stochastic.Uniform(e.rng, 0, limit)).Round(2)
	tx, err := e.registry.Transfer(a, b, amount, e.cfg.Description, day, at)
	return KindTransaction, tx, err
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "error"
	}
}
