package storage

import "context"

// Backend stores per-key usage counters as flat field → count maps.
type Backend interface {
	// Initialize verifies the backend is reachable.
	Initialize(ctx context.Context) error
	Close() error
	Health(ctx context.Context) error

	IncrementUsage(ctx context.Context, key string, field string, delta int64) error
	GetUsage(ctx context.Context, key string) (map[string]int64, error)
	ResetUsage(ctx context.Context, key string) error
	ListUsage(ctx context.Context) (map[string]map[string]int64, error)
}

// ErrNotFound is returned when a key is not found
type ErrNotFound struct {
	Key string
}

func (e *ErrNotFound) Error() string {
	return "key not found: " + e.Key
}

// Label names a backend for metrics and logs.
func Label(b Backend) string {
	switch v := b.(type) {
	case *instrumentedBackend:
		return v.label
	case *RedisBackend:
		return "redis"
	case *MemoryBackend:
		return "memory"
	default:
		return "unknown"
	}
}
