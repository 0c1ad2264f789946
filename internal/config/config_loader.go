package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration from defaults, the optional file at path
// and then the environment, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	cfg.normalize()

	result := cfg.Validate()
	for _, w := range result.Warnings {
		log.Warn(w.Error())
	}
	if !result.Valid {
		return nil, result.Errors[0]
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	log.WithField("path", path).Info("configuration loaded")
	return nil
}

func (c *Config) normalize() {
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	c.Server.BasePath = normalizeBasePath(c.Server.BasePath)
	c.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(c.Upstream.BaseURL), "/")
	c.Stats.Backend = strings.ToLower(strings.TrimSpace(c.Stats.Backend))
	if c.Security.LogFile != "" {
		c.Security.LogFile = expandHome(c.Security.LogFile)
	}
	if c.Credentials.KeysFile != "" {
		c.Credentials.KeysFile = expandHome(c.Credentials.KeysFile)
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
