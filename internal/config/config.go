// Package config defines the top-level configuration for the market
// simulator and provides validation helpers.
package config

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETSIM_* environment variables.
// A Config is treated as immutable once a simulation has been built from it.
type Config struct {
	Simulation  SimulationConfig       `toml:"simulation"`
	Market      MarketConfig           `toml:"market"`
	Assets      map[string]AssetConfig `toml:"assets"`
	Shocks      []ShockConfig          `toml:"shocks"`
	Events      EventsConfig           `toml:"events"`
	Regulatory  RegulatoryConfig       `toml:"regulatory"`
	Interaction InteractionConfig      `toml:"interaction"`
	Pricing     PricingConfig          `toml:"pricing"`
	OrderBook   OrderBookConfig        `toml:"orderbook"`
	Analytics   AnalyticsConfig        `toml:"analytics"`
	Entities    []EntityConfig         `toml:"entities"`
	Connections []ConnectionRule       `toml:"connections"`
	Supabase    SupabaseConfig         `toml:"supabase"`
	Redis       RedisConfig            `toml:"redis"`
	S3          S3Config               `toml:"s3"`
	Server      ServerConfig           `toml:"server"`
	Notify      NotifyConfig           `toml:"notify"`
	Mode        string                 `toml:"mode"`
	LogLevel    string                 `toml:"log_level"`
}

// SimulationConfig holds the run length, calendar and seed.
type SimulationConfig struct {
	Days      int    `toml:"days"`
	StartDate string `toml:"start_date"`
	Seed      int64  `toml:"seed"`
	OutputDir string `toml:"output_dir"`
}

// Start parses StartDate as YYYY-MM-DD in UTC.
func (s SimulationConfig) Start() (time.Time, error) {
	return time.Parse(time.DateOnly, s.StartDate)
}

// MarketConfig holds the baseline macro indicators and the daily noise applied
// to each of them.
type MarketConfig struct {
	InterestRate     float64     `toml:"interest_rate"`
	InflationRate    float64     `toml:"inflation_rate"`
	Volatility       float64     `toml:"volatility"`
	LiquidityFactor  float64     `toml:"liquidity_factor"`
	Sentiment        float64     `toml:"sentiment"`
	EconomicGrowth   float64     `toml:"economic_growth"`
	UnemploymentRate float64     `toml:"unemployment_rate"`
	Noise            NoiseConfig `toml:"noise"`
}

// InitialState returns the day-zero market state.
func (m MarketConfig) InitialState() domain.MarketState {
	return domain.MarketState{
		InterestRate:     m.InterestRate,
		InflationRate:    m.InflationRate,
		MarketVolatility: m.Volatility,
		LiquidityFactor:  m.LiquidityFactor,
		MarketSentiment:  m.Sentiment,
		EconomicGrowth:   m.EconomicGrowth,
		UnemploymentRate: m.UnemploymentRate,
	}
}

// NoiseConfig is the standard deviation of the daily perturbation per
// indicator.
type NoiseConfig struct {
	InterestRate     float64 `toml:"interest_rate"`
	InflationRate    float64 `toml:"inflation_rate"`
	Volatility       float64 `toml:"volatility"`
	LiquidityFactor  float64 `toml:"liquidity_factor"`
	Sentiment        float64 `toml:"sentiment"`
	EconomicGrowth   float64 `toml:"economic_growth"`
	UnemploymentRate float64 `toml:"unemployment_rate"`
}

// AssetConfig describes one asset class. ExpectedReturn is annual.
type AssetConfig struct {
	Volatility     float64 `toml:"volatility"`
	ExpectedReturn float64 `toml:"expected_return"`
	InitialPrice   float64 `toml:"initial_price"`
}

// ShockConfig schedules a shock on an asset's initial price path.
type ShockConfig struct {
	Asset            string  `toml:"asset"`
	Magnitude        float64 `toml:"magnitude"`
	RecoveryDays     int     `toml:"recovery_days"`
	RecoveryStrength float64 `toml:"recovery_strength"`
}

// EventsConfig holds the daily random event probability.
type EventsConfig struct {
	Probability float64 `toml:"probability"`
}

// RegulatoryConfig holds cadences and the interest rate policy rule.
type RegulatoryConfig struct {
	StressTestFrequency int     `toml:"stress_test_frequency"`
	ReportingFrequency  int     `toml:"reporting_frequency"`
	PolicyInterval      int     `toml:"policy_interval"`
	CentralBank         string  `toml:"central_bank"`
	InflationCeiling    float64 `toml:"inflation_ceiling"`
	InflationTarget     float64 `toml:"inflation_target"`
	GrowthFloor         float64 `toml:"growth_floor"`
	GrowthTarget        float64 `toml:"growth_target"`
	Sensitivity         float64 `toml:"sensitivity"`
	MaxRateStep         float64 `toml:"max_rate_step"`
}

// InteractionConfig bounds the daily entity interactions.
type InteractionConfig struct {
	MaxInteractions  int     `toml:"max_interactions"`
	TransferFraction float64 `toml:"transfer_fraction"`
	Description      string  `toml:"description"`
}

// PricingConfig holds the weights of the daily price adjustment
// p *= (1 + sentiment*SentimentWeight) * (1 + (volatility-VolatilityAnchor)*VolatilityWeight).
type PricingConfig struct {
	SentimentWeight  float64 `toml:"sentiment_weight"`
	VolatilityWeight float64 `toml:"volatility_weight"`
	VolatilityAnchor float64 `toml:"volatility_anchor"`
}

// OrderBookConfig parameterizes the synthetic book used for daily liquidity.
type OrderBookConfig struct {
	Enabled       bool    `toml:"enabled"`
	Depth         int     `toml:"depth"`
	SpreadPercent float64 `toml:"spread_percent"`
	BaseVolume    int64   `toml:"base_volume"`
	PriceStep     float64 `toml:"price_step"`
}

// AnalyticsConfig parameterizes the statistics computed over finished series.
type AnalyticsConfig struct {
	RiskFreeRate     float64 `toml:"risk_free_rate"`
	VolatilityWindow int     `toml:"volatility_window"`
	BaseVolume       float64 `toml:"base_volume"`
	PriceSensitivity float64 `toml:"price_sensitivity"`
	RandomFactor     float64 `toml:"random_factor"`
}

// EntityConfig declares one entity. Which profile fields apply depends on
// Category.
type EntityConfig struct {
	Category          string             `toml:"category"`
	Name              string             `toml:"name"`
	Description       string             `toml:"description"`
	InitialBalance    float64            `toml:"initial_balance"`
	RegulatoryStatus  string             `toml:"regulatory_status"`
	Assets            map[string]float64 `toml:"assets"`
	Liabilities       map[string]float64 `toml:"liabilities"`
	PolicyTools       []string           `toml:"policy_tools"`
	Services          []string           `toml:"services"`
	RiskProfile       string             `toml:"risk_profile"`
	Sector            string             `toml:"sector"`
	CreditRating      string             `toml:"credit_rating"`
	RiskPreference    string             `toml:"risk_preference"`
	InvestmentHorizon string             `toml:"investment_horizon"`
	Markets           []string           `toml:"markets"`
	TradingStrategy   string             `toml:"trading_strategy"`
	Functions         []string           `toml:"functions"`
}

// ConnectionRule connects the Hub entity to every entity in Categories.
type ConnectionRule struct {
	Hub        string   `toml:"hub"`
	Categories []string `toml:"categories"`
}

// SupabaseConfig holds PostgreSQL / Supabase connection parameters.
type SupabaseConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled      bool   `toml:"enabled"`
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"pool_size"`
	MaxRetries   int    `toml:"max_retries"`
	TLSEnabled   bool   `toml:"tls_enabled"`
	StreamMaxLen int64  `toml:"stream_max_len"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	Prefix         string `toml:"prefix"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
	DayInterval     duration `toml:"day_interval"`
	APIKey          string   `toml:"api_key"`    // empty disables auth
	RateLimit       int      `toml:"rate_limit"` // requests per minute per client; needs redis

	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty keys clients by RemoteAddr only.
	TrustedProxies []string `toml:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare IP becomes a single
// address prefix.
func (c ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q is neither an IP nor a CIDR", raw)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with the built-in simulation
// parameters, entity catalogue and connection rules.
func Defaults() Config {
	return Config{
		Simulation: SimulationConfig{
			Days:      252,
			StartDate: "2023-01-01",
			Seed:      42,
			OutputDir: "results",
		},
		Market: MarketConfig{
			InterestRate:     0.02,
			InflationRate:    0.03,
			Volatility:       0.15,
			LiquidityFactor:  1.0,
			Sentiment:        0.0,
			EconomicGrowth:   0.02,
			UnemploymentRate: 0.05,
			Noise: NoiseConfig{
				InterestRate:     0.0005,
				InflationRate:    0.0003,
				Volatility:       0.001,
				LiquidityFactor:  0.01,
				Sentiment:        0.05,
				EconomicGrowth:   0.0002,
				UnemploymentRate: 0.0005,
			},
		},
		Assets: DefaultAssets(),
		Events: EventsConfig{Probability: 0.05},
		Regulatory: RegulatoryConfig{
			StressTestFrequency: 30,
			ReportingFrequency:  90,
			PolicyInterval:      30,
			CentralBank:         "Central Bank",
			InflationCeiling:    0.04,
			InflationTarget:     0.02,
			GrowthFloor:         0.01,
			GrowthTarget:        0.02,
			Sensitivity:         0.1,
			MaxRateStep:         0.0025,
		},
		Interaction: InteractionConfig{
			MaxInteractions:  10,
			TransferFraction: 0.01,
			Description:      "random trade",
		},
		Pricing: PricingConfig{
			SentimentWeight:  0.01,
			VolatilityWeight: 0.1,
			VolatilityAnchor: 0.15,
		},
		OrderBook: OrderBookConfig{
			Enabled:       true,
			Depth:         10,
			SpreadPercent: 0.1,
			BaseVolume:    100,
			PriceStep:     0.01,
		},
		Analytics: AnalyticsConfig{
			RiskFreeRate:     0.02,
			VolatilityWindow: 20,
			BaseVolume:       1_000_000,
			PriceSensitivity: 0.5,
			RandomFactor:     0.3,
		},
		Entities:    DefaultEntities(),
		Connections: DefaultConnections(),
		Supabase: SupabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     20,
			MaxRetries:   3,
			StreamMaxLen: 10_000,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "marketsim-runs",
			ForcePathStyle: true,
			Prefix:         "runs",
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			ShutdownTimeout: duration{10 * time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"market_event", "rate_change", "run_completed"},
		},
		Mode:     "simulate",
		LogLevel: "info",
	}
}

// AssetNames returns the configured asset classes in sorted order.
func (c *Config) AssetNames() []string {
	names := make([]string, 0, len(c.Assets))
	for name := range c.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"simulate": true,
	"server":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for invalid or missing values and returns a combined
// error describing every problem found. The error wraps
// domain.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: simulate, server)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Simulation
	if c.Simulation.Days < 1 {
		errs = append(errs, fmt.Sprintf("simulation: days must be >= 1, got %d", c.Simulation.Days))
	}
	if _, err := c.Simulation.Start(); err != nil {
		errs = append(errs, fmt.Sprintf("simulation: start_date %q must be YYYY-MM-DD", c.Simulation.StartDate))
	}

	// Market
	if c.Market.Volatility < 0 {
		errs = append(errs, "market: volatility must be >= 0")
	}
	n := c.Market.Noise
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"interest_rate", n.InterestRate},
		{"inflation_rate", n.InflationRate},
		{"volatility", n.Volatility},
		{"liquidity_factor", n.LiquidityFactor},
		{"sentiment", n.Sentiment},
		{"economic_growth", n.EconomicGrowth},
		{"unemployment_rate", n.UnemploymentRate},
	} {
		if f.v < 0 {
			errs = append(errs, fmt.Sprintf("market.noise: %s must be >= 0", f.name))
		}
	}

	// Assets
	if len(c.Assets) == 0 {
		errs = append(errs, "assets: at least one asset class is required")
	}
	for _, name := range c.AssetNames() {
		a := c.Assets[name]
		if a.Volatility < 0 {
			errs = append(errs, fmt.Sprintf("assets.%s: volatility must be >= 0", name))
		}
		if a.InitialPrice <= 0 {
			errs = append(errs, fmt.Sprintf("assets.%s: initial_price must be > 0", name))
		}
	}
	for i, s := range c.Shocks {
		if _, ok := c.Assets[s.Asset]; !ok {
			errs = append(errs, fmt.Sprintf("shocks[%d]: unknown asset class %q", i, s.Asset))
		}
		if s.RecoveryDays < 1 {
			errs = append(errs, fmt.Sprintf("shocks[%d]: recovery_days must be >= 1", i))
		}
		if s.RecoveryStrength <= 0 {
			errs = append(errs, fmt.Sprintf("shocks[%d]: recovery_strength must be > 0", i))
		}
	}

	// Events
	if c.Events.Probability < 0 || c.Events.Probability > 1 {
		errs = append(errs, fmt.Sprintf("events: probability must be in [0, 1], got %g", c.Events.Probability))
	}

	// Regulatory
	if c.Regulatory.StressTestFrequency < 1 {
		errs = append(errs, "regulatory: stress_test_frequency must be >= 1")
	}
	if c.Regulatory.ReportingFrequency < 1 {
		errs = append(errs, "regulatory: reporting_frequency must be >= 1")
	}
	if c.Regulatory.PolicyInterval < 1 {
		errs = append(errs, "regulatory: policy_interval must be >= 1")
	}

	// Interaction
	if c.Interaction.MaxInteractions < 0 {
		errs = append(errs, "interaction: max_interactions must be >= 0")
	}
	if c.Interaction.TransferFraction < 0 || c.Interaction.TransferFraction > 1 {
		errs = append(errs, "interaction: transfer_fraction must be in [0, 1]")
	}

	// Order book
	if c.OrderBook.Enabled {
		if c.OrderBook.Depth < 1 {
			errs = append(errs, "orderbook: depth must be >= 1")
		}
		if c.OrderBook.SpreadPercent <= 0 {
			errs = append(errs, "orderbook: spread_percent must be > 0")
		}
	}

	// Analytics
	if c.Analytics.VolatilityWindow < 2 {
		errs = append(errs, "analytics: volatility_window must be >= 2")
	}

	// Entities
	seen := make(map[string]bool, len(c.Entities))
	for i, e := range c.Entities {
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Sprintf("entities[%d]: name must not be empty", i))
		}
		if seen[e.Name] {
			errs = append(errs, fmt.Sprintf("entities[%d]: duplicate name %q", i, e.Name))
		}
		seen[e.Name] = true
		if !domain.EntityCategory(e.Category).Valid() {
			errs = append(errs, fmt.Sprintf("entities[%d]: unknown category %q", i, e.Category))
		}
		if e.InitialBalance < 0 {
			errs = append(errs, fmt.Sprintf("entities[%d]: initial_balance must be >= 0", i))
		}
	}
	for i, r := range c.Connections {
		if !seen[r.Hub] {
			errs = append(errs, fmt.Sprintf("connections[%d]: unknown hub entity %q", i, r.Hub))
		}
		for _, cat := range r.Categories {
			if !domain.EntityCategory(cat).Valid() {
				errs = append(errs, fmt.Sprintf("connections[%d]: unknown category %q", i, cat))
			}
		}
	}

	// Supabase
	if c.Supabase.Enabled {
		if strings.TrimSpace(c.Supabase.DSN) == "" {
			if c.Supabase.Host == "" {
				errs = append(errs, "supabase: host must not be empty (or set supabase.dsn)")
			}
			if c.Supabase.Port <= 0 || c.Supabase.Port > 65535 {
				errs = append(errs, fmt.Sprintf("supabase: port must be 1-65535, got %d", c.Supabase.Port))
			}
			if c.Supabase.Database == "" {
				errs = append(errs, "supabase: database must not be empty")
			}
		}
		if c.Supabase.PoolMaxConns < 1 {
			errs = append(errs, "supabase: pool_max_conns must be >= 1")
		}
		if c.Supabase.PoolMinConns > c.Supabase.PoolMaxConns {
			errs = append(errs, "supabase: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Server
	if c.Server.Enabled || strings.ToLower(c.Mode) == "server" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
			errs = append(errs, "server: "+err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", domain.ErrInvalidConfiguration, strings.Join(errs, "\n  - "))
	}
	return nil
}
