package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// LiveHandler serves the state cached in redis by whichever run holds the
// active lease, which may belong to another process.
type LiveHandler struct {
	cache  domain.StateCache
	lease  domain.RunLease
	logger *slog.Logger
}

// NewLiveHandler creates a LiveHandler. A nil cache answers 503; lease may
// be nil.
func NewLiveHandler(cache domain.StateCache, lease domain.RunLease, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{cache: cache, lease: lease, logger: logger.With(slog.String("handler", "live"))}
}

type liveBody struct {
	ActiveRun   string             `json:"active_run,omitempty"`
	Day         int                `json:"day"`
	MarketState domain.MarketState `json:"market_state"`
	Prices      map[string]float64 `json:"prices"`
}

// GetLive GET /api/live
func (h *LiveHandler) GetLive(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "live cache is not configured")
		return
	}
	ctx := r.Context()

	state, day, err := h.cache.GetState(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.ErrorContext(ctx, "read cached state failed", slog.String("error", err.Error()))
		}
		writeDomainError(w, err)
		return
	}
	prices, err := h.cache.GetPrices(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.ErrorContext(ctx, "read cached prices failed", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	if prices == nil {
		prices = map[string]float64{}
	}

	body := liveBody{Day: day, MarketState: state, Prices: prices}
	if h.lease != nil {
		if id, err := h.lease.Holder(ctx); err == nil {
			body.ActiveRun = id
		}
	}
	writeJSON(w, http.StatusOK, body)
}
