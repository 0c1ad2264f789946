package config

import "classecho-go/internal/constants"

const (
	DefaultPort               = "8000"
	DefaultBaseURL            = "https://api.groq.com/openai/v1"
	DefaultTranscriptionModel = "whisper-large-v3-turbo"
	DefaultGenerationModel    = "llama-3.3-70b-versatile"
	DefaultLanguage           = "en"
	DefaultEnvPrefix          = "GROQ_API_KEY"
	DefaultStatsBackend       = "memory"
	DefaultRedisAddr          = "localhost:6379"
	DefaultRedisPrefix        = "classecho:"
)

// Defaults returns a fully populated configuration without consulting the
// environment or any file.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: DefaultPort},
		Upstream: UpstreamConfig{
			BaseURL:              DefaultBaseURL,
			TranscriptionModel:   DefaultTranscriptionModel,
			GenerationModel:      DefaultGenerationModel,
			Language:             DefaultLanguage,
			NotesTemperature:     0.2,
			QuestionsTemperature: 0.3,
			TimeoutSec:           int(constants.UpstreamCallTimeout.Seconds()),
		},
		Credentials: CredentialsConfig{EnvPrefix: DefaultEnvPrefix},
		Limits:      LimitsConfig{MaxUploadBytes: constants.DefaultMaxUploadBytes},
		RateLimit:   RateLimitConfig{Enabled: false, RPS: 5, Burst: 10},
		Security:    SecurityConfig{CORSOrigins: []string{"*"}},
		Stats: StatsConfig{
			Backend:     DefaultStatsBackend,
			RedisAddr:   DefaultRedisAddr,
			RedisPrefix: DefaultRedisPrefix,
		},
	}
}
