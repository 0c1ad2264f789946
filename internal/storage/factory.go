package storage

import (
	"context"
	"fmt"
	"strings"

	"classecho-go/internal/config"
	log "github.com/sirupsen/logrus"
)

// FromConfig builds and initializes the configured usage backend, wrapped
// with instrumentation.
func FromConfig(ctx context.Context, cfg config.StatsConfig) (Backend, error) {
	var backend Backend
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		backend = NewMemoryBackend()
	case "redis":
		rb, err := NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		backend = rb
	default:
		return nil, fmt.Errorf("unknown stats backend %q", cfg.Backend)
	}

	if err := backend.Initialize(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}
	label := Label(backend)
	log.WithField("backend", label).Info("usage stats backend ready")
	return WithInstrumentation(backend, label), nil
}
