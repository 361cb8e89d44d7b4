package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 252, cfg.Simulation.Days)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, []string{"bonds", "commodities", "crypto", "real_estate", "stocks"}, cfg.AssetNames())
	assert.Len(t, cfg.Entities, 30)

	state := cfg.Market.InitialState()
	assert.True(t, state.InBounds())
	assert.Equal(t, 0.02, state.InterestRate)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero days", func(c *Config) { c.Simulation.Days = 0 }, "days must be >= 1"},
		{"bad start date", func(c *Config) { c.Simulation.StartDate = "01/01/2023" }, "start_date"},
		{"negative asset volatility", func(c *Config) {
			c.Assets["stocks"] = AssetConfig{Volatility: -0.1, ExpectedReturn: 0.08, InitialPrice: 100}
		}, "assets.stocks: volatility"},
		{"shock on unknown asset", func(c *Config) {
			c.Shocks = []ShockConfig{{Asset: "tulips", Magnitude: -0.1, RecoveryDays: 5, RecoveryStrength: 1}}
		}, `unknown asset class "tulips"`},
		{"unknown entity category", func(c *Config) { c.Entities[0].Category = "wizard" }, `unknown category "wizard"`},
		{"duplicate entity", func(c *Config) { c.Entities[1].Name = c.Entities[0].Name }, "duplicate name"},
		{"unknown hub", func(c *Config) { c.Connections[0].Hub = "Nobody" }, `unknown hub entity "Nobody"`},
		{"event probability above one", func(c *Config) { c.Events.Probability = 1.5 }, "events: probability"},
		{"unknown mode", func(c *Config) { c.Mode = "trade" }, `unknown mode "trade"`},
		{"bad trusted proxy", func(c *Config) {
			c.Mode = "server"
			c.Server.TrustedProxies = []string{"proxy.local"}
		}, `trusted proxy "proxy.local"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestTrustedProxyPrefixes(t *testing.T) {
	sc := ServerConfig{TrustedProxies: []string{"10.0.0.0/8", " 192.168.1.7 ", "::ffff:172.16.0.1", "fd00::/8"}}
	got, err := sc.TrustedProxyPrefixes()
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "10.0.0.0/8", got[0].String())
	assert.Equal(t, "192.168.1.7/32", got[1].String())
	assert.Equal(t, "172.16.0.1/32", got[2].String())
	assert.Equal(t, "fd00::/8", got[3].String())

	none, err := ServerConfig{}.TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLoad(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		assert.Len(t, cfg.Assets, 5)
		assert.Equal(t, "compliant", cfg.Entities[0].RegulatoryStatus)
	})

	t.Run("file replaces catalogue tables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sim.toml")
		content := `
mode = "simulate"

[simulation]
days = 30
seed = 7

[assets.gold]
volatility = 0.1
expected_return = 0.04
initial_price = 1800

[[entities]]
category = "regulator"
name = "Central Bank"
initial_balance = 1000

[[entities]]
category = "financial_institution"
name = "Bank"
initial_balance = 500

[[connections]]
hub = "Central Bank"
categories = ["financial_institution"]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, 30, cfg.Simulation.Days)
		assert.Equal(t, int64(7), cfg.Simulation.Seed)
		assert.Equal(t, "2023-01-01", cfg.Simulation.StartDate, "unset keys keep defaults")
		assert.Equal(t, []string{"gold"}, cfg.AssetNames())
		assert.Len(t, cfg.Entities, 2)
		assert.Len(t, cfg.Connections, 1)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("MARKETSIM_SIMULATION_DAYS", "10")
		t.Setenv("MARKETSIM_SIMULATION_SEED", "1234")
		t.Setenv("MARKETSIM_EVENTS_PROBABILITY", "0.5")
		t.Setenv("MARKETSIM_SERVER_CORS_ORIGINS", "http://a, http://b")
		t.Setenv("MARKETSIM_MODE", "server")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 10, cfg.Simulation.Days)
		assert.Equal(t, int64(1234), cfg.Simulation.Seed)
		assert.Equal(t, 0.5, cfg.Events.Probability)
		assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.CORSOrigins)
		assert.Equal(t, "server", cfg.Mode)
	})
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Supabase.Password = "hunter2"
	cfg.S3.SecretKey = "s3cret"
	cfg.Notify.TelegramToken = "token"

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Supabase.Password)
	assert.Equal(t, "***", out.S3.SecretKey)
	assert.Equal(t, "***", out.Notify.TelegramToken)
	assert.Equal(t, "", out.Redis.Password, "empty secrets stay empty")
	assert.Equal(t, "hunter2", cfg.Supabase.Password, "original untouched")

	out.Entities[0].Name = "changed"
	out.Assets["stocks"] = AssetConfig{}
	out.Server.CORSOrigins[0] = "changed"
	assert.NotEqual(t, "changed", cfg.Entities[0].Name)
	assert.NotZero(t, cfg.Assets["stocks"].InitialPrice)
	assert.NotEqual(t, "changed", cfg.Server.CORSOrigins[0])
}
