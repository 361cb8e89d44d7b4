package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type captureSender struct {
	name   string
	titles []string
	err    error
}

func (c *captureSender) Send(_ context.Context, title, _ string) error {
	c.titles = append(c.titles, title)
	return c.err
}

func (c *captureSender) Name() string { return c.name }

func TestNotifierFilter(t *testing.T) {
	s := &captureSender{name: "cap"}
	n := NewNotifier([]Sender{s}, []string{EventRateChange, " "}, testLogger)

	require.NoError(t, n.Notify(context.Background(), EventMarketEvent, "ignored", ""))
	require.NoError(t, n.Notify(context.Background(), EventRateChange, "sent", ""))
	assert.Equal(t, []string{"sent"}, s.titles)

	open := NewNotifier([]Sender{s}, nil, testLogger)
	assert.True(t, open.Allows("anything"))
}

func TestNotifierContinuesAfterFailure(t *testing.T) {
	bad := &captureSender{name: "bad", err: errors.New("down")}
	good := &captureSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger)

	err := n.Notify(context.Background(), EventRunCompleted, "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: down")
	assert.Len(t, good.titles, 1)
}

func TestAlertsRecord(t *testing.T) {
	s := &captureSender{name: "cap"}
	a := NewAlerts(NewNotifier([]Sender{s}, nil, testLogger))

	snap := domain.DaySnapshot{
		Day:   30,
		Event: &domain.Event{Category: domain.EventEconomicNews, Description: "economic_news (magnitude: 0.05)"},
		Actions: []domain.RegulatoryAction{
			{Day: 30, Kind: domain.ActionStressTest},
			{Day: 30, Kind: domain.ActionRateChange, Before: 0.02, After: 0.0225, Reason: "inflation"},
		},
	}
	require.NoError(t, a.Record(context.Background(), snap))
	assert.Equal(t, []string{"Market event on day 30", "Interest rate raise on day 30"}, s.titles)

	require.NoError(t, a.Record(context.Background(), domain.DaySnapshot{Day: 31}))
	assert.Len(t, s.titles, 2)
}

func TestRunCompletedSummary(t *testing.T) {
	msg := summarize(domain.Results{RunID: "r1", DaysCompleted: 252, FinalState: domain.MarketState{InterestRate: 0.03}})
	assert.Contains(t, msg, "run r1: 252 days, 0 transactions")
	assert.Contains(t, msg, "interest rate 0.0300")
}

func TestDiscordSender(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewDiscordSender(srv.URL).Send(context.Background(), "Title", "body"))
	assert.Equal(t, "**Title**\nbody", got["content"])
}

func TestTelegramSender(t *testing.T) {
	var path string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender("tok", "chat")
	s.apiBase = srv.URL
	require.NoError(t, s.Send(context.Background(), "Title", "body"))
	assert.Equal(t, "/bottok/sendMessage", path)
	assert.Equal(t, "chat", got["chat_id"])
	assert.Equal(t, "*Title*\nbody", got["text"])
}

func TestSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}
