package storage

import (
	"context"
	"time"

	"classecho-go/internal/monitoring"
)

// WithInstrumentation wraps a backend with latency and error metrics.
func WithInstrumentation(inner Backend, label string) Backend {
	if inner == nil {
		return nil
	}
	if label == "" {
		label = Label(inner)
	}
	return &instrumentedBackend{Backend: inner, label: label}
}

type instrumentedBackend struct {
	Backend
	label string
}

func (i *instrumentedBackend) IncrementUsage(ctx context.Context, key string, field string, delta int64) error {
	return i.instrument("increment_usage", func() error {
		return i.Backend.IncrementUsage(ctx, key, field, delta)
	})
}

func (i *instrumentedBackend) GetUsage(ctx context.Context, key string) (map[string]int64, error) {
	var result map[string]int64
	err := i.instrument("get_usage", func() error {
		var innerErr error
		result, innerErr = i.Backend.GetUsage(ctx, key)
		return innerErr
	})
	return result, err
}

func (i *instrumentedBackend) ResetUsage(ctx context.Context, key string) error {
	return i.instrument("reset_usage", func() error {
		return i.Backend.ResetUsage(ctx, key)
	})
}

func (i *instrumentedBackend) ListUsage(ctx context.Context) (map[string]map[string]int64, error) {
	var result map[string]map[string]int64
	err := i.instrument("list_usage", func() error {
		var innerErr error
		result, innerErr = i.Backend.ListUsage(ctx)
		return innerErr
	})
	return result, err
}

func (i *instrumentedBackend) instrument(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	monitoring.StorageOperationDuration.WithLabelValues(i.label, op).Observe(time.Since(start).Seconds())
	if err != nil {
		if _, notFound := err.(*ErrNotFound); !notFound {
			monitoring.StorageOperationErrorsTotal.WithLabelValues(i.label, op).Inc()
		}
	}
	return err
}
