package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// RunsHandler lists persisted runs.
type RunsHandler struct {
	store  domain.RunStore
	logger *slog.Logger
}

// NewRunsHandler creates a RunsHandler. A nil store answers 503.
func NewRunsHandler(store domain.RunStore, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{store: store, logger: logger.With(slog.String("handler", "runs"))}
}

// ListRuns GET /api/runs?limit=&offset=
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	runs, err := h.store.ListRuns(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list runs failed", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	run, err := h.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
