package postgres

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/config"
)

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"postgres://sim:pw@db.local:5432/runs?sslmode=disable",
		DSN(ClientConfig{Host: "db.local", Database: "runs", User: "sim", Password: "pw"}),
	)
	assert.Equal(t,
		"postgres://x@y/z",
		DSN(ClientConfig{DSN: "postgres://x@y/z", Host: "ignored"}),
	)
}

func TestFromConfig(t *testing.T) {
	cc := FromConfig(config.Defaults().Supabase)
	assert.Equal(t, "localhost", cc.Host)
	assert.Equal(t, 5432, cc.Port)
	assert.Equal(t, 10, cc.MaxConns)
	assert.Equal(t, 2, cc.MinConns)
}

func TestMigrationFilesAreEmbedded(t *testing.T) {
	names, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])

	data, err := migrationsFS.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	for _, table := range []string{"sim_runs", "sim_days", "sim_transactions"} {
		assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestTransactionsKeyedByRun(t *testing.T) {
	names, err := migrationFiles()
	require.NoError(t, err)
	require.Contains(t, names, "002_transactions_run_key.sql")
	assert.Greater(t, slices.Index(names, "002_transactions_run_key.sql"), slices.Index(names, "001_init.sql"))

	data, err := migrationsFS.ReadFile("migrations/002_transactions_run_key.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "PRIMARY KEY (run_id, id)")

	assert.Contains(t, insertTransactionSQL, "ON CONFLICT (run_id, id) DO NOTHING")
	assert.NotContains(t, insertTransactionSQL, "ON CONFLICT (id)")
}
