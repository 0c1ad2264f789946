package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s=%s]: %s", e.Field, e.Value, e.Message)
}

// ValidationResult holds the results of configuration validation
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
	Valid    bool
}

func (r *ValidationResult) AddError(field, value, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
	r.Valid = false
}

func (r *ValidationResult) AddWarning(field, value, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Value: value, Message: message})
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() ValidationResult {
	result := ValidationResult{Valid: true}

	if _, err := parsePort(c.Server.Port); err != nil {
		result.AddError("port", c.Server.Port, err.Error())
	}

	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		result.AddError("upstream.base_url", c.Upstream.BaseURL, "must be an absolute URL")
	}
	if c.Upstream.ProxyURL != "" {
		if _, err := url.Parse(c.Upstream.ProxyURL); err != nil {
			result.AddError("upstream.proxy_url", c.Upstream.ProxyURL, err.Error())
		}
	}
	if strings.TrimSpace(c.Upstream.TranscriptionModel) == "" {
		result.AddError("upstream.transcription_model", "", "must not be empty")
	}
	if strings.TrimSpace(c.Upstream.GenerationModel) == "" {
		result.AddError("upstream.generation_model", "", "must not be empty")
	}
	if c.Upstream.TimeoutSec < 0 {
		result.AddError("upstream.timeout_sec", strconv.Itoa(c.Upstream.TimeoutSec), "must not be negative")
	}

	if strings.TrimSpace(c.Credentials.EnvPrefix) == "" && c.Credentials.KeysFile == "" {
		result.AddError("credentials.env_prefix", "", "an env prefix or a keys file is required")
	}
	if c.Credentials.MaxRetries < 0 {
		result.AddError("credentials.max_retries", strconv.Itoa(c.Credentials.MaxRetries), "must not be negative")
	}

	if c.Limits.MaxUploadBytes <= 0 {
		result.AddError("limits.max_upload_bytes", strconv.FormatInt(c.Limits.MaxUploadBytes, 10), "must be positive")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			result.AddError("rate_limit.rps", strconv.Itoa(c.RateLimit.RPS), "must be positive when enabled")
		}
		if c.RateLimit.Burst < c.RateLimit.RPS {
			result.AddWarning("rate_limit.burst", strconv.Itoa(c.RateLimit.Burst), "burst below rps")
		}
	}

	switch c.Stats.Backend {
	case "memory":
	case "redis":
		if c.Stats.RedisAddr == "" {
			result.AddError("stats.redis_addr", "", "required when using redis backend")
		}
	default:
		result.AddError("stats.backend", c.Stats.Backend, "must be one of: memory, redis")
	}

	if c.Security.ManagementKey == "" && c.Security.ManagementKeyHash == "" {
		result.AddWarning("security.management_key", "", "manual key rotation is unauthenticated")
	}

	return result
}

// parsePort converts a numeric string into a TCP port (1-65535).
func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port: %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port number: %d", port)
	}
	return port, nil
}
