package config

import (
	"maps"
	"slices"
)

const redacted = "***"

// RedactedConfig returns a copy of cfg that is safe to log: credentials are
// replaced by "***" and the catalogue tables and string lists are cloned.
// Per-entity asset and liability maps are still shared with cfg.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Supabase.DSN)
	redact(&out.Supabase.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Server.APIKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	out.Assets = maps.Clone(cfg.Assets)
	out.Shocks = slices.Clone(cfg.Shocks)
	out.Entities = slices.Clone(cfg.Entities)
	out.Connections = slices.Clone(cfg.Connections)
	for i := range out.Connections {
		out.Connections[i].Categories = slices.Clone(out.Connections[i].Categories)
	}
	out.Server.CORSOrigins = slices.Clone(cfg.Server.CORSOrigins)
	out.Server.TrustedProxies = slices.Clone(cfg.Server.TrustedProxies)
	out.Notify.Events = slices.Clone(cfg.Notify.Events)
	return out
}

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
