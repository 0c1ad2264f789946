package config

import "strings"

// applyEnv overlays environment variables on cfg. Unset or unparsable
// values leave the current setting alone.
func applyEnv(cfg *Config) {
	setStringFromEnv("PORT", func(v string) { cfg.Server.Port = v })
	setStringFromEnv("BASE_PATH", func(v string) { cfg.Server.BasePath = v })

	setStringFromEnv("GROQ_BASE_URL", func(v string) { cfg.Upstream.BaseURL = v })
	setStringFromEnv("TRANSCRIPTION_MODEL", func(v string) { cfg.Upstream.TranscriptionModel = v })
	setStringFromEnv("GENERATION_MODEL", func(v string) { cfg.Upstream.GenerationModel = v })
	setStringFromEnv("TRANSCRIPTION_LANGUAGE", func(v string) { cfg.Upstream.Language = v })
	setFloatFromEnv("NOTES_TEMPERATURE", func(v float32) { cfg.Upstream.NotesTemperature = v })
	setFloatFromEnv("QA_TEMPERATURE", func(v float32) { cfg.Upstream.QuestionsTemperature = v })
	setStringFromEnv("PROXY_URL", func(v string) { cfg.Upstream.ProxyURL = v })
	setIntFromEnv("UPSTREAM_TIMEOUT_SEC", func(v int) { cfg.Upstream.TimeoutSec = v })
	setIntFromEnv("DIAL_TIMEOUT_SEC", func(v int) { cfg.Upstream.DialTimeoutSec = v })
	setIntFromEnv("TLS_HANDSHAKE_TIMEOUT_SEC", func(v int) { cfg.Upstream.TLSHandshakeTimeoutSec = v })
	setIntFromEnv("RESPONSE_HEADER_TIMEOUT_SEC", func(v int) { cfg.Upstream.ResponseHeaderTimeoutSec = v })

	setStringFromEnv("CREDENTIAL_ENV_PREFIX", func(v string) { cfg.Credentials.EnvPrefix = v })
	setStringFromEnv("GROQ_KEYS_FILE", func(v string) { cfg.Credentials.KeysFile = v })
	setIntFromEnv("MAX_RETRIES", func(v int) { cfg.Credentials.MaxRetries = v })

	setIntFromEnv("MAX_UPLOAD_MB", func(v int) { cfg.Limits.MaxUploadBytes = int64(v) << 20 })

	setToggleFromEnv("RATE_LIMIT_ENABLED", func(v bool) { cfg.RateLimit.Enabled = v })
	setIntFromEnv("RATE_LIMIT_RPS", func(v int) { cfg.RateLimit.RPS = v })
	setIntFromEnv("RATE_LIMIT_BURST", func(v int) { cfg.RateLimit.Burst = v })

	setStringFromEnv("MANAGEMENT_KEY", func(v string) { cfg.Security.ManagementKey = v })
	setStringFromEnv("MANAGEMENT_KEY_HASH", func(v string) { cfg.Security.ManagementKeyHash = v })
	setStringFromEnv("CORS_ORIGINS", func(v string) { cfg.Security.CORSOrigins = splitAndTrim(v, ",") })
	setToggleFromEnv("DEBUG", func(v bool) { cfg.Security.Debug = v })
	setStringFromEnv("LOG_FILE", func(v string) { cfg.Security.LogFile = v })

	setStringFromEnv("STATS_BACKEND", func(v string) { cfg.Stats.Backend = strings.ToLower(v) })
	setStringFromEnv("REDIS_ADDR", func(v string) { cfg.Stats.RedisAddr = v })
	setStringFromEnv("REDIS_PASSWORD", func(v string) { cfg.Stats.RedisPassword = v })
	setIntFromEnv("REDIS_DB", func(v int) { cfg.Stats.RedisDB = v })
	setStringFromEnv("REDIS_PREFIX", func(v string) { cfg.Stats.RedisPrefix = v })
}
