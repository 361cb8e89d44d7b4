// Package simulation drives the day loop. Each simulated day runs, in this
// order: market state noise, random events, regulation, entity interactions,
// price adjustment, the settlement hook and the snapshot recorders.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/marketsim/internal/config"
	"github.com/alanyoungcy/marketsim/internal/domain"
	"github.com/alanyoungcy/marketsim/internal/entity"
	"github.com/alanyoungcy/marketsim/internal/interaction"
	"github.com/alanyoungcy/marketsim/internal/market"
	"github.com/alanyoungcy/marketsim/internal/metrics"
	"github.com/alanyoungcy/marketsim/internal/stochastic"
)

// Random stream names. Each logical consumer owns one stream so that adding
// draws to one never shifts another.
const (
	streamMarketState  = "market-state"
	streamEvents       = "events"
	streamInteractions = "interactions"
	streamOrderBook    = "orderbook"
	streamVolume       = "volume"
)

type stateStepper interface {
	Step(s *domain.MarketState)
}

type eventStepper interface {
	Step(day int, date time.Time, s *domain.MarketState) (domain.Event, bool)
}

type regulatorStepper interface {
	Step(day int, s *domain.MarketState) []domain.RegulatoryAction
}

type interactor interface {
	Step(day int, at time.Time) interaction.Summary
}

// Simulation owns the market state, price series, entities and logs of one
// run. Run is the single writer; the query methods may be called from other
// goroutines while it is in progress.
type Simulation struct {
	mu sync.RWMutex

	cfg      config.Config
	runID    string
	start    time.Time
	assets   []string
	status   domain.SimStatus
	days     int
	state    domain.MarketState
	prices   map[string][]float64
	eventLog []domain.Event
	actions  []domain.RegulatoryAction
	last     *domain.DaySnapshot
	analysis *domain.Analytics

	registry *entity.Registry
	graph    *entity.Graph

	stateCtl     stateStepper
	events       eventStepper
	regulator    regulatorStepper
	interactions interactor
	bookRng      *rand.Rand

	settler   Settler
	recorders []namedRecorder
	pace      time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New validates cfg and builds a simulation ready to Run. Price series for
// every asset class are generated concurrently here, and configured shocks
// are applied to them. Configuration errors wrap
// domain.ErrInvalidConfiguration.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start, err := cfg.Simulation.Start()
	if err != nil {
		return nil, fmt.Errorf("simulation: start date: %w", domain.ErrInvalidConfiguration)
	}

	s := &Simulation{
		cfg:     *cfg,
		runID:   uuid.NewString(),
		start:   start,
		assets:  cfg.AssetNames(),
		state:   cfg.Market.InitialState(),
		settler: nopSettler{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "simulation"), slog.String("run_id", s.runID))
	s.state.Clamp()

	seed := cfg.Simulation.Seed
	s.registry, s.graph, err = entity.Build(entity.Namespace(seed), cfg.Entities, cfg.Connections)
	if err != nil {
		return nil, fmt.Errorf("simulation: build entities: %w", err)
	}

	if s.prices, err = s.generatePrices(ctx); err != nil {
		return nil, err
	}

	policy := true
	if _, err := s.registry.ByName(cfg.Regulatory.CentralBank); err != nil {
		policy = false
		s.logger.Warn("central bank not found, interest rate policy disabled",
			slog.String("central_bank", cfg.Regulatory.CentralBank),
		)
	}

	s.stateCtl = market.NewStateController(stochastic.NewRand(seed, streamMarketState), cfg.Market.Noise)
	s.events = market.NewEventEngine(stochastic.NewRand(seed, streamEvents), cfg.Events.Probability)
	s.regulator = market.NewRegulator(cfg.Regulatory, policy)
	s.interactions = interaction.NewEngine(
		stochastic.NewRand(seed, streamInteractions),
		s.registry,
		s.graph,
		interaction.Config{
			MaxInteractions:  cfg.Interaction.MaxInteractions,
			TransferFraction: cfg.Interaction.TransferFraction,
			Description:      cfg.Interaction.Description,
		},
		s.metrics,
		s.logger,
	)
	s.bookRng = stochastic.NewRand(seed, streamOrderBook)

	s.logger.Info("simulation initialized",
		slog.Int("days", cfg.Simulation.Days),
		slog.Int64("seed", seed),
		slog.Int("entities", s.registry.Len()),
		slog.Int("connections", s.graph.Edges()),
		slog.Int("assets", len(s.assets)),
	)
	return s, nil
}

func (s *Simulation) generatePrices(ctx context.Context) (map[string][]float64, error) {
	specs := make([]stochastic.SeriesSpec, 0, len(s.assets))
	for _, name := range s.assets {
		a := s.cfg.Assets[name]
		specs = append(specs, stochastic.SeriesSpec{
			Name:         name,
			InitialPrice: a.InitialPrice,
			Days:         s.cfg.Simulation.Days,
			Volatility:   a.Volatility,
			Drift:        a.ExpectedReturn / stochastic.TradingDaysPerYear,
			Seed:         stochastic.DeriveSeed(s.cfg.Simulation.Seed, "asset/"+name),
		})
	}
	prices, err := stochastic.GeneratePriceSeriesSet(ctx, specs)
	if err != nil {
		return nil, fmt.Errorf("simulation: generate prices: %w", err)
	}

	for _, shock := range s.cfg.Shocks {
		shocked, err := stochastic.SimulateMarketShock(prices[shock.Asset], shock.Magnitude, shock.RecoveryDays, shock.RecoveryStrength)
		if err != nil {
			return nil, fmt.Errorf("simulation: shock %s: %w", shock.Asset, err)
		}
		prices[shock.Asset] = shocked
	}

	for _, name := range s.assets {
		if i := stochastic.FirstNonPositive(prices[name]); i >= 0 {
			s.logger.Warn("price series reaches a non-positive value",
				slog.String("asset", name),
				slog.Int("day", i),
				slog.Float64("price", prices[name][i]),
			)
		}
	}
	return prices, nil
}

// Run executes every configured day. It fails with domain.ErrAlreadyStarted
// if the simulation has already been run. The context is checked between
// days; a cancelled run returns the context error and stays Running.
func (s *Simulation) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.status != domain.StatusNotStarted {
		s.mu.Unlock()
		return fmt.Errorf("simulation: run %s: %w", s.runID, domain.ErrAlreadyStarted)
	}
	s.status = domain.StatusRunning
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "simulation started", slog.Int("days", s.cfg.Simulation.Days))
	began := time.Now()

	for day := 0; day < s.cfg.Simulation.Days; day++ {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("simulation cancelled", slog.Int("day", day))
			return err
		}
		s.step(ctx, day)
		if s.pace > 0 && day < s.cfg.Simulation.Days-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pace):
			}
		}
	}

	analysis := s.computeAnalytics()

	s.mu.Lock()
	s.analysis = &analysis
	s.status = domain.StatusCompleted
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "simulation completed",
		slog.Int("days", s.cfg.Simulation.Days),
		slog.Int("transactions", s.registry.LedgerLen()),
		slog.Int("events", len(s.eventLog)),
		slog.Duration("elapsed", time.Since(began)),
	)
	return nil
}

// step runs one simulated day.
func (s *Simulation) step(ctx context.Context, day int) {
	date := s.start.AddDate(0, 0, day)

	s.mu.Lock()
	// 1. market state noise
	s.stateCtl.Step(&s.state)

	// 2. random event
	event, fired := s.events.Step(day, date, &s.state)
	if fired {
		s.eventLog = append(s.eventLog, event)
		s.metrics.IncEvent(event.Category)
		s.logger.Info("market event",
			slog.Int("day", day),
			slog.String("type", string(event.Category)),
			slog.Float64("magnitude", event.Magnitude),
		)
	}

	// 3. regulation
	actions := s.regulator.Step(day, &s.state)
	for _, a := range actions {
		s.logAction(a)
	}
	s.actions = append(s.actions, actions...)

	// 4. interactions
	summary := s.interactions.Step(day, date)

	// 5. price adjustment
	sentimentFactor := 1 + s.state.MarketSentiment*s.cfg.Pricing.SentimentWeight
	volatilityFactor := 1 + (s.state.MarketVolatility-s.cfg.Pricing.VolatilityAnchor)*s.cfg.Pricing.VolatilityWeight
	for _, name := range s.assets {
		s.prices[name][day] *= sentimentFactor * volatilityFactor
	}
	s.days = day + 1
	s.mu.Unlock()

	// 6. settlement hook
	if err := s.settler.Settle(ctx, day, date); err != nil {
		s.logger.Warn("settlement hook failed", slog.Int("day", day), slog.String("error", err.Error()))
	}

	// 7. snapshot recorders
	snap := s.snapshot(day, date, event, fired, actions, summary)

	s.metrics.IncDay()
	s.metrics.ObserveState(snap.State, snap.Prices)
	for _, r := range s.recorders {
		if err := r.rec.Record(ctx, snap); err != nil {
			s.metrics.IncRecorderError(r.name)
			s.logger.Warn("snapshot recorder failed",
				slog.String("recorder", r.name),
				slog.Int("day", day),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Debug("day completed",
		slog.Int("day", day),
		slog.Float64("interest_rate", snap.State.InterestRate),
		slog.Float64("sentiment", snap.State.MarketSentiment),
		slog.Int("transactions", len(summary.Transactions)),
		slog.Int("skipped", summary.Skipped),
	)
}

func (s *Simulation) logAction(a domain.RegulatoryAction) {
	switch a.Kind {
	case domain.ActionRateChange:
		s.metrics.IncRateChange(a.Direction())
		s.logger.Info("interest rate adjusted",
			slog.Int("day", a.Day),
			slog.Float64("before", a.Before),
			slog.Float64("after", a.After),
			slog.String("reason", a.Reason),
		)
	default:
		s.logger.Info("regulatory cadence", slog.Int("day", a.Day), slog.String("kind", string(a.Kind)))
	}
}

// snapshot builds the day's snapshot and stores it as the latest one. The
// synthetic order book draws advance bookRng, so it takes the write lock.
func (s *Simulation) snapshot(day int, date time.Time, event domain.Event, fired bool, actions []domain.RegulatoryAction, sum interaction.Summary) domain.DaySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.DaySnapshot{
		RunID:        s.runID,
		Day:          day,
		Date:         date,
		State:        s.state,
		Prices:       make(map[string]float64, len(s.assets)),
		Liquidity:    make(map[string]domain.Ratio, len(s.assets)),
		Actions:      actions,
		Transactions: sum.Transactions,
		Messages:     sum.Messages,
		Failed:       sum.Failed,
	}
	if fired {
		ev := event
		snap.Event = &ev
	}
	ob := s.cfg.OrderBook
	for _, name := range s.assets {
		price := s.prices[name][day]
		snap.Prices[name] = price
		if ob.Enabled {
			book := stochastic.GenerateOrderBook(s.bookRng, price, ob.Depth, ob.SpreadPercent, ob.BaseVolume, ob.PriceStep)
			snap.Liquidity[name] = domain.Ratio(stochastic.MarketLiquidity(book))
		}
	}
	s.last = &snap
	return snap
}
