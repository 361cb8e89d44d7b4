package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/config"
	"github.com/alanyoungcy/marketsim/internal/domain"
	"github.com/alanyoungcy/marketsim/internal/metrics"
	"github.com/alanyoungcy/marketsim/internal/server/handler"
	"github.com/alanyoungcy/marketsim/internal/simulation"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeRuns struct {
	runs []domain.RunRecord
}

func (f *fakeRuns) CreateRun(context.Context, domain.RunRecord) error      { return nil }
func (f *fakeRuns) SaveSnapshot(context.Context, domain.DaySnapshot) error { return nil }
func (f *fakeRuns) SaveResults(context.Context, domain.Results) error      { return nil }

func (f *fakeRuns) GetRun(_ context.Context, id string) (domain.RunRecord, error) {
	for _, r := range f.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.RunRecord{}, domain.ErrNotFound
}

func (f *fakeRuns) ListRuns(context.Context, domain.ListOpts) ([]domain.RunRecord, error) {
	return f.runs, nil
}

func newTestServer(t *testing.T, run bool, cfgFn func(*Config)) (*simulation.Simulation, http.Handler) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Simulation.Days = 30

	reg := prometheus.NewRegistry()
	sim, err := simulation.New(context.Background(), &cfg,
		simulation.WithLogger(testLogger),
		simulation.WithMetrics(metrics.New(reg)),
		simulation.WithRunID("run-1"),
	)
	require.NoError(t, err)
	if run {
		require.NoError(t, sim.Run(context.Background()))
	}

	sc := Config{Port: 0}
	if cfgFn != nil {
		cfgFn(&sc)
	}
	srv := NewServer(sc, Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"simulation": func(context.Context) error { return nil },
		}),
		Simulation: handler.NewSimulationHandler(sim, cfg.Simulation.Days, "server", testLogger),
		Runs:       handler.NewRunsHandler(&fakeRuns{runs: []domain.RunRecord{{ID: "run-1", Days: 30}}}, testLogger),
		Archive:    handler.NewArchiveHandler(nil, testLogger),
		Live:       handler.NewLiveHandler(nil, nil, testLogger),
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, nil, testLogger)
	return sim, srv.Handler()
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestStatusBeforeAndAfterRun(t *testing.T) {
	_, h := newTestServer(t, false, nil)
	var body map[string]any
	require.Equal(t, http.StatusOK, get(t, h, "/api/status", &body))
	assert.Equal(t, "not_started", body["status"])
	assert.Equal(t, "run-1", body["run_id"])

	assert.Equal(t, http.StatusConflict, get(t, h, "/api/analytics", nil))
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/snapshot", nil))

	_, h = newTestServer(t, true, nil)
	require.Equal(t, http.StatusOK, get(t, h, "/api/status", &body))
	assert.Equal(t, "completed", body["status"])
	assert.InDelta(t, 30, body["days_completed"], 0)
}

func TestResultsEndpoints(t *testing.T) {
	sim, h := newTestServer(t, true, nil)

	var res map[string]any
	require.Equal(t, http.StatusOK, get(t, h, "/api/results", &res))
	for _, key := range []string{"market_state", "asset_prices", "entities", "transactions", "events", "regulatory_actions", "analytics"} {
		assert.Contains(t, res, key)
	}

	var prices map[string][]float64
	require.Equal(t, http.StatusOK, get(t, h, "/api/prices", &prices))
	assert.Len(t, prices, 5)
	assert.Len(t, prices["stocks"], 30)

	var one struct {
		Asset  string    `json:"asset"`
		Prices []float64 `json:"prices"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/api/prices/bonds", &one))
	assert.Equal(t, "bonds", one.Asset)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/prices/tulips", nil))

	var state map[string]any
	require.Equal(t, http.StatusOK, get(t, h, "/api/market-state", &state))
	assert.Contains(t, state, "market_state")

	var actions []domain.RegulatoryAction
	require.Equal(t, http.StatusOK, get(t, h, "/api/regulatory?kind=stress_test", &actions))
	require.NotEmpty(t, actions)
	for _, a := range actions {
		assert.Equal(t, domain.ActionStressTest, a.Kind)
	}

	var page struct {
		Total        int                  `json:"total"`
		Transactions []domain.Transaction `json:"transactions"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/api/transactions?limit=2", &page))
	_, total := sim.Transactions(domain.ListOpts{})
	assert.Equal(t, total, page.Total)
	assert.LessOrEqual(t, len(page.Transactions), 2)

	var analytics domain.Analytics
	require.Equal(t, http.StatusOK, get(t, h, "/api/analytics", &analytics))
	assert.Len(t, analytics.Assets, 5)

	var book domain.OrderBook
	require.Equal(t, http.StatusOK, get(t, h, "/api/orderbook/stocks", &book))
	assert.Len(t, book.Bids, 10)
}

func TestEntityEndpoints(t *testing.T) {
	sim, h := newTestServer(t, true, nil)

	var views []map[string]any
	require.Equal(t, http.StatusOK, get(t, h, "/api/entities?category=regulator", &views))
	require.NotEmpty(t, views)
	for _, v := range views {
		assert.Equal(t, "regulator", v["category"])
	}
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/entities?category=wizard", nil))

	id := sim.Entities()[0].ID
	var one map[string]any
	require.Equal(t, http.StatusOK, get(t, h, "/api/entities/"+id, &one))
	assert.Equal(t, id, one["id"])

	var hist []domain.Transaction
	require.Equal(t, http.StatusOK, get(t, h, "/api/entities/"+id+"/transactions", &hist))
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/entities/missing", nil))
}

func TestRunsAndMetrics(t *testing.T) {
	_, h := newTestServer(t, true, nil)

	var runs []domain.RunRecord
	require.Equal(t, http.StatusOK, get(t, h, "/api/runs", &runs))
	assert.Len(t, runs, 1)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/runs/other", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketsim_days_total 30")
}

func TestDisabledAdaptersAnswerUnavailable(t *testing.T) {
	_, h := newTestServer(t, false, nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/archive", nil))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/archive/run-1/results.json", nil))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/live", nil))
}

func TestAuthProtectsAPI(t *testing.T) {
	_, h := newTestServer(t, false, func(c *Config) { c.APIKey = "k" })
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/status", nil))
	assert.Equal(t, http.StatusOK, get(t, h, "/api/health", nil))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-API-Key", "k")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthDegraded(t *testing.T) {
	h := handler.NewHealthHandler(map[string]handler.Pinger{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}
