package config

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Port     string `yaml:"port" json:"port"`
	BasePath string `yaml:"base_path" json:"base_path"`
}

// UpstreamConfig describes the OpenAI-compatible provider.
type UpstreamConfig struct {
	BaseURL                  string  `yaml:"base_url" json:"base_url"`
	TranscriptionModel       string  `yaml:"transcription_model" json:"transcription_model"`
	GenerationModel          string  `yaml:"generation_model" json:"generation_model"`
	Language                 string  `yaml:"language" json:"language"`
	NotesTemperature         float32 `yaml:"notes_temperature" json:"notes_temperature"`
	QuestionsTemperature     float32 `yaml:"questions_temperature" json:"questions_temperature"`
	ProxyURL                 string  `yaml:"proxy_url" json:"proxy_url"`
	TimeoutSec               int     `yaml:"timeout_sec" json:"timeout_sec"`
	DialTimeoutSec           int     `yaml:"dial_timeout_sec" json:"dial_timeout_sec"`
	TLSHandshakeTimeoutSec   int     `yaml:"tls_handshake_timeout_sec" json:"tls_handshake_timeout_sec"`
	ResponseHeaderTimeoutSec int     `yaml:"response_header_timeout_sec" json:"response_header_timeout_sec"`
}

// CredentialsConfig controls where API keys come from and how many
// attempts an operation may spend on them.
type CredentialsConfig struct {
	EnvPrefix string `yaml:"env_prefix" json:"env_prefix"`
	KeysFile  string `yaml:"keys_file" json:"keys_file"`
	// MaxRetries caps attempts per operation; 0 means one per key.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// LimitsConfig bounds inbound uploads.
type LimitsConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes" json:"max_upload_bytes"`
}

// RateLimitConfig is the inbound per-client limiter.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	RPS     int  `yaml:"rps" json:"rps"`
	Burst   int  `yaml:"burst" json:"burst"`
}

// SecurityConfig 安全和日志配置
type SecurityConfig struct {
	ManagementKey     string   `yaml:"management_key" json:"management_key"`
	ManagementKeyHash string   `yaml:"management_key_hash" json:"management_key_hash"`
	CORSOrigins       []string `yaml:"cors_origins" json:"cors_origins"`
	Debug             bool     `yaml:"debug" json:"debug"`
	LogFile           string   `yaml:"log_file" json:"log_file"`
}

// StatsConfig selects the per-key usage backend.
type StatsConfig struct {
	Backend       string `yaml:"backend" json:"backend"` // memory, redis
	RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix" json:"redis_prefix"`
}
