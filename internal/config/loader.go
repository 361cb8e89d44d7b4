package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETSIM_* environment variable overrides, and
// returns the final Config. An empty path loads defaults only. The returned
// Config has NOT been validated; the caller should invoke Config.Validate()
// after Load.
//
// The catalogue tables (assets, entities, connections) are replaced as a
// whole when the file declares them rather than merged entry by entry.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	assets, entities, connections := cfg.Assets, cfg.Entities, cfg.Connections
	cfg.Assets, cfg.Entities, cfg.Connections = nil, nil, nil

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.Assets) == 0 {
		cfg.Assets = assets
	}
	if len(cfg.Entities) == 0 {
		cfg.Entities = entities
	}
	if len(cfg.Connections) == 0 {
		cfg.Connections = connections
	}
	for i := range cfg.Entities {
		if cfg.Entities[i].RegulatoryStatus == "" {
			cfg.Entities[i].RegulatoryStatus = "compliant"
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETSIM_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets and tweak a run at deploy time
// without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Simulation ──
	setInt(&cfg.Simulation.Days, "MARKETSIM_SIMULATION_DAYS")
	setStr(&cfg.Simulation.StartDate, "MARKETSIM_SIMULATION_START_DATE")
	setInt64(&cfg.Simulation.Seed, "MARKETSIM_SIMULATION_SEED")
	setStr(&cfg.Simulation.OutputDir, "MARKETSIM_SIMULATION_OUTPUT_DIR")

	// ── Market ──
	setFloat64(&cfg.Market.InterestRate, "MARKETSIM_MARKET_INTEREST_RATE")
	setFloat64(&cfg.Market.InflationRate, "MARKETSIM_MARKET_INFLATION_RATE")
	setFloat64(&cfg.Market.Volatility, "MARKETSIM_MARKET_VOLATILITY")
	setFloat64(&cfg.Market.LiquidityFactor, "MARKETSIM_MARKET_LIQUIDITY_FACTOR")

	// ── Events / Regulatory ──
	setFloat64(&cfg.Events.Probability, "MARKETSIM_EVENTS_PROBABILITY")
	setInt(&cfg.Regulatory.StressTestFrequency, "MARKETSIM_REGULATORY_STRESS_TEST_FREQUENCY")
	setInt(&cfg.Regulatory.ReportingFrequency, "MARKETSIM_REGULATORY_REPORTING_FREQUENCY")
	setStr(&cfg.Regulatory.CentralBank, "MARKETSIM_REGULATORY_CENTRAL_BANK")

	// ── Supabase ──
	setBool(&cfg.Supabase.Enabled, "MARKETSIM_SUPABASE_ENABLED")
	setStr(&cfg.Supabase.DSN, "MARKETSIM_SUPABASE_DSN")
	setStr(&cfg.Supabase.DSN, "MARKETSIM_SUPABASE_URL") // compatibility alias
	setStr(&cfg.Supabase.Host, "MARKETSIM_SUPABASE_HOST")
	setInt(&cfg.Supabase.Port, "MARKETSIM_SUPABASE_PORT")
	setStr(&cfg.Supabase.Database, "MARKETSIM_SUPABASE_DATABASE")
	setStr(&cfg.Supabase.User, "MARKETSIM_SUPABASE_USER")
	setStr(&cfg.Supabase.Password, "MARKETSIM_SUPABASE_PASSWORD")
	setStr(&cfg.Supabase.SSLMode, "MARKETSIM_SUPABASE_SSL_MODE")
	setInt(&cfg.Supabase.PoolMaxConns, "MARKETSIM_SUPABASE_POOL_MAX_CONNS")
	setInt(&cfg.Supabase.PoolMinConns, "MARKETSIM_SUPABASE_POOL_MIN_CONNS")
	setBool(&cfg.Supabase.RunMigrations, "MARKETSIM_SUPABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MARKETSIM_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MARKETSIM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETSIM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETSIM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETSIM_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "MARKETSIM_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "MARKETSIM_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "MARKETSIM_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETSIM_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETSIM_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETSIM_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETSIM_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "MARKETSIM_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "MARKETSIM_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "MARKETSIM_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETSIM_SERVER_CORS_ORIGINS")
	setDuration(&cfg.Server.DayInterval, "MARKETSIM_SERVER_DAY_INTERVAL")
	setStr(&cfg.Server.APIKey, "MARKETSIM_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "MARKETSIM_SERVER_RATE_LIMIT")
	setStringSlice(&cfg.Server.TrustedProxies, "MARKETSIM_SERVER_TRUSTED_PROXIES")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MARKETSIM_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MARKETSIM_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MARKETSIM_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MARKETSIM_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MARKETSIM_MODE")
	setStr(&cfg.LogLevel, "MARKETSIM_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
