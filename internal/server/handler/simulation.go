package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// SimulationView is the read side of a running simulation.
type SimulationView interface {
	RunID() string
	Seed() int64
	Assets() []string
	Status() (domain.SimStatus, int)
	State() domain.MarketState
	Snapshot() (domain.DaySnapshot, bool)
	PriceSeries(asset string) ([]float64, error)
	Entities() []domain.EntityView
	Entity(id string) (domain.EntityView, error)
	EntityHistory(id string) ([]domain.Transaction, error)
	Transactions(opts domain.ListOpts) ([]domain.Transaction, int)
	Events() []domain.Event
	Actions() []domain.RegulatoryAction
	Analytics() *domain.Analytics
	OrderBook(asset string) (domain.OrderBook, error)
	Results() domain.Results
}

// SimulationHandler serves the state of the active run.
type SimulationHandler struct {
	sim    SimulationView
	days   int
	mode   string
	logger *slog.Logger
}

// NewSimulationHandler creates a handler over sim. days is the configured run
// length.
func NewSimulationHandler(sim SimulationView, days int, mode string, logger *slog.Logger) *SimulationHandler {
	return &SimulationHandler{
		sim:    sim,
		days:   days,
		mode:   mode,
		logger: logger.With(slog.String("handler", "simulation")),
	}
}

// StatusBody is the payload of GET /api/status and the WebSocket greeting.
type StatusBody struct {
	RunID         string           `json:"run_id"`
	Mode          string           `json:"mode"`
	Status        domain.SimStatus `json:"status"`
	Seed          int64            `json:"seed"`
	Days          int              `json:"days"`
	DaysCompleted int              `json:"days_completed"`
}

// StatusBody returns the current run status.
func (h *SimulationHandler) StatusBody() StatusBody {
	status, done := h.sim.Status()
	return StatusBody{
		RunID:         h.sim.RunID(),
		Mode:          h.mode,
		Status:        status,
		Seed:          h.sim.Seed(),
		Days:          h.days,
		DaysCompleted: done,
	}
}

// GetStatus GET /api/status
func (h *SimulationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.StatusBody())
}

// GetResults returns the full results document, including partial results
// while the run is in progress.
// GET /api/results
func (h *SimulationHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sim.Results())
}

// GetMarketState GET /api/market-state
func (h *SimulationHandler) GetMarketState(w http.ResponseWriter, r *http.Request) {
	_, done := h.sim.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"days_completed": done,
		"market_state":   h.sim.State(),
	})
}

// GetLatest returns the most recent day snapshot.
// GET /api/snapshot
func (h *SimulationHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.sim.Snapshot()
	if !ok {
		writeError(w, http.StatusNotFound, "no day has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListPrices returns every asset's series.
// GET /api/prices
func (h *SimulationHandler) ListPrices(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]float64)
	for _, name := range h.sim.Assets() {
		series, err := h.sim.PriceSeries(name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out[name] = series
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPrices GET /api/prices/{asset}
func (h *SimulationHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("asset")
	series, err := h.sim.PriceSeries(asset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"asset": asset, "prices": series})
}

// ListEntities GET /api/entities[?category=...]
func (h *SimulationHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	views := h.sim.Entities()
	if cat := domain.EntityCategory(r.URL.Query().Get("category")); cat != "" {
		if !cat.Valid() {
			writeError(w, http.StatusBadRequest, "unknown category "+string(cat))
			return
		}
		filtered := views[:0]
		for _, v := range views {
			if v.Category == cat {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}
	writeJSON(w, http.StatusOK, views)
}

// GetEntity GET /api/entities/{id}
func (h *SimulationHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	v, err := h.sim.Entity(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GetEntityTransactions GET /api/entities/{id}/transactions
func (h *SimulationHandler) GetEntityTransactions(w http.ResponseWriter, r *http.Request) {
	hist, err := h.sim.EntityHistory(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// ListTransactions GET /api/transactions?limit=&offset=
func (h *SimulationHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	txs, total := h.sim.Transactions(opts)
	writeJSON(w, http.StatusOK, map[string]any{
		"total":        total,
		"limit":        opts.Limit,
		"offset":       opts.Offset,
		"transactions": txs,
	})
}

// ListEvents GET /api/events
func (h *SimulationHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sim.Events())
}

// ListRegulatoryActions GET /api/regulatory[?kind=rate_change]
func (h *SimulationHandler) ListRegulatoryActions(w http.ResponseWriter, r *http.Request) {
	actions := h.sim.Actions()
	if kind := domain.ActionKind(r.URL.Query().Get("kind")); kind != "" {
		filtered := actions[:0]
		for _, a := range actions {
			if a.Kind == kind {
				filtered = append(filtered, a)
			}
		}
		actions = filtered
	}
	writeJSON(w, http.StatusOK, actions)
}

// GetAnalytics returns 409 until the run has completed.
// GET /api/analytics
func (h *SimulationHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	a := h.sim.Analytics()
	if a == nil {
		writeError(w, http.StatusConflict, "analytics are available once the run completes")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GetOrderBook GET /api/orderbook/{asset}
func (h *SimulationHandler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.sim.OrderBook(r.PathValue("asset"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}
