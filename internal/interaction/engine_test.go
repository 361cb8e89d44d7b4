package interaction

import (
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/config"
	"github.com/alanyoungcy/marketsim/internal/entity"
	"github.com/alanyoungcy/marketsim/internal/metrics"
)

var (
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	day0       = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
)

func defaultEngine(t *testing.T, seed int64, m *metrics.Metrics) (*Engine, *entity.Registry) {
	t.Helper()
	cfg := config.Defaults()
	reg, g, err := entity.Build(entity.Namespace(seed), cfg.Entities, cfg.Connections)
	require.NoError(t, err)
	e := NewEngine(rand.New(rand.NewSource(seed)), reg, g, Config{
		MaxInteractions:  cfg.Interaction.MaxInteractions,
		TransferFraction: cfg.Interaction.TransferFraction,
		Description:      cfg.Interaction.Description,
	}, m, testLogger)
	return e, reg
}

func TestAttempts(t *testing.T) {
	e, _ := defaultEngine(t, 1, nil)
	assert.Equal(t, 10, e.Attempts())

	cfg := config.Defaults()
	reg, g, err := entity.Build(entity.Namespace(1), cfg.Entities[:5], nil)
	require.NoError(t, err)
	small := NewEngine(rand.New(rand.NewSource(1)), reg, g, Config{MaxInteractions: 10}, nil, testLogger)
	assert.Equal(t, 2, small.Attempts())
}

func TestStepConservesBalances(t *testing.T) {
	e, reg := defaultEngine(t, 42, nil)
	before := reg.TotalBalance()

	settled := 0
	for day := 0; day < 200; day++ {
		sum := e.Step(day, day0.AddDate(0, 0, day))
		assert.Equal(t, sum.Attempts, sum.Skipped+sum.Messages+sum.Failed+len(sum.Transactions))
		for _, tx := range sum.Transactions {
			assert.True(t, tx.Amount.IsPositive())
			assert.Equal(t, day, tx.Day)
			assert.Equal(t, "random trade", tx.Description)
			assert.True(t, tx.Amount.Equal(tx.Amount.Round(2)), "amount rounded to cents")
		}
		settled += len(sum.Transactions)
	}

	assert.True(t, reg.TotalBalance().Equal(before), "total balance must be conserved")
	assert.Equal(t, settled, reg.LedgerLen())
	assert.Greater(t, settled, 0)
}

func TestStepOnlyConnectedPairsTransact(t *testing.T) {
	cfg := config.Defaults()
	reg, g, err := entity.Build(entity.Namespace(3), cfg.Entities, cfg.Connections)
	require.NoError(t, err)
	e := NewEngine(rand.New(rand.NewSource(3)), reg, g, Config{MaxInteractions: 10, TransferFraction: 0.01, Description: "x"}, nil, testLogger)

	for day := 0; day < 100; day++ {
		e.Step(day, day0)
	}
	for _, tx := range reg.Ledger() {
		assert.True(t, g.Connected(tx.From, tx.To))
	}
}

func TestStepUnconnectedGraphNeverTransacts(t *testing.T) {
	cfg := config.Defaults()
	reg, g, err := entity.Build(entity.Namespace(3), cfg.Entities, nil)
	require.NoError(t, err)
	e := NewEngine(rand.New(rand.NewSource(3)), reg, g, Config{MaxInteractions: 10, TransferFraction: 0.01}, nil, testLogger)

	sum := e.Step(0, day0)
	assert.Equal(t, sum.Attempts, sum.Skipped)
	assert.Zero(t, reg.LedgerLen())
}

func TestStepDeterministic(t *testing.T) {
	a, regA := defaultEngine(t, 9, nil)
	b, regB := defaultEngine(t, 9, nil)
	for day := 0; day < 50; day++ {
		a.Step(day, day0)
		b.Step(day, day0)
	}
	assert.Equal(t, regA.Ledger(), regB.Ledger())
}

func TestStepRecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e, _ := defaultEngine(t, 5, m)
	e.Step(0, day0)

	total := 0.0
	for _, kind := range []Kind{KindSkipped, KindNoFunds, KindMessage, KindTransaction} {
		total += testutil.ToFloat64(m.Interactions.WithLabelValues(string(kind)))
	}
	assert.Equal(t, 10.0, total)
}
