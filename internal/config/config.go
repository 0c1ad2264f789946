package config

import (
	"time"

	"classecho-go/internal/constants"
)

// Config 主配置结构体，按功能域划分
type Config struct {
	Server      ServerConfig      `yaml:"server" json:"server"`
	Upstream    UpstreamConfig    `yaml:"upstream" json:"upstream"`
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`
	Limits      LimitsConfig      `yaml:"limits" json:"limits"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" json:"rate_limit"`
	Security    SecurityConfig    `yaml:"security" json:"security"`
	Stats       StatsConfig       `yaml:"stats" json:"stats"`
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// UpstreamTimeout is the overall deadline of one remote call.
func (c *Config) UpstreamTimeout() time.Duration {
	return DurationOrDefault(c.Upstream.TimeoutSec, constants.UpstreamCallTimeout)
}

// DurationOrDefault converts a seconds setting, falling back when unset.
func DurationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
