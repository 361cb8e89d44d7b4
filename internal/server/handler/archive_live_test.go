package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

type fakeArchive struct {
	files map[string]string // "run/name" -> body
}

func (f *fakeArchive) ListRuns(context.Context) ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	for k := range f.files {
		id, _, _ := strings.Cut(k, "/")
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeArchive) Open(_ context.Context, runID, name string) (io.ReadCloser, error) {
	body, ok := f.files[runID+"/"+name]
	if !ok {
		return nil, fmt.Errorf("archive %s/%s: %w", runID, name, domain.ErrNotFound)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type fakeCache struct {
	state  domain.MarketState
	day    int
	prices map[string]float64
	empty  bool
}

func (f *fakeCache) SetState(context.Context, domain.DaySnapshot) error { return nil }

func (f *fakeCache) GetState(context.Context) (domain.MarketState, int, error) {
	if f.empty {
		return domain.MarketState{}, 0, domain.ErrNotFound
	}
	return f.state, f.day, nil
}

func (f *fakeCache) GetPrices(context.Context) (map[string]float64, error) {
	return f.prices, nil
}

type fakeLease struct{ holder string }

func (f fakeLease) Acquire(context.Context, string) (func(), error) { return func() {}, nil }
func (f fakeLease) Holder(context.Context) (string, error) { return f.holder, nil }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func archiveMux(a RunArchive) *http.ServeMux {
	h := NewArchiveHandler(a, discard())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/archive", h.ListArchived)
	mux.HandleFunc("GET /api/archive/{id}/{file}", h.GetArchived)
	return mux
}

func TestArchiveHandler(t *testing.T) {
	mux := archiveMux(&fakeArchive{files: map[string]string{
		"r1/results.json": `{"run_id":"r1"}`,
		"r1/events.jsonl": "{\"day\":1}\n{\"day\":4}\n",
	}})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/archive", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Runs []string `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []string{"r1"}, list.Runs)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/archive/r1/results.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"run_id":"r1"}`, w.Body.String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/archive/r1/events.jsonl", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(w.Body.String(), "\n"))

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/archive/r2/results.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArchiveHandlerDisabled(t *testing.T) {
	mux := archiveMux(nil)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/archive", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/archive/r1/results.json", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLiveHandler(t *testing.T) {
	cache := &fakeCache{
		state:  domain.MarketState{InterestRate: 0.03, MarketSentiment: 0.2},
		day:    7,
		prices: map[string]float64{"stocks": 101.5},
	}
	h := NewLiveHandler(cache, fakeLease{holder: "run-1"}, discard())

	w := httptest.NewRecorder()
	h.GetLive(w, httptest.NewRequest(http.MethodGet, "/api/live", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body liveBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.ActiveRun)
	assert.Equal(t, 7, body.Day)
	assert.InDelta(t, 0.03, body.MarketState.InterestRate, 1e-12)
	assert.InDelta(t, 101.5, body.Prices["stocks"], 1e-12)

	cache.empty = true
	w = httptest.NewRecorder()
	h.GetLive(w, httptest.NewRequest(http.MethodGet, "/api/live", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	NewLiveHandler(nil, nil, discard()).GetLive(w, httptest.NewRequest(http.MethodGet, "/api/live", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
