package stats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"classecho-go/internal/constants"
	"classecho-go/internal/credential"
	"classecho-go/internal/events"
	"classecho-go/internal/middleware"
	"classecho-go/internal/monitoring"
	"classecho-go/internal/storage"
	"classecho-go/internal/upstream"
	log "github.com/sirupsen/logrus"
)

// Usage counter fields.
const (
	FieldAttempts    = "attempts"
	FieldSuccesses   = "successes"
	FieldRateLimited = "rate_limited"
	FieldFatal       = "fatal"
	FieldRotations   = "rotations"
)

// KeyUsage is the per-credential view served on /api-status.
type KeyUsage struct {
	Key         int        `json:"key"`
	Name        string     `json:"name"`
	Source      string     `json:"source"`
	Masked      string     `json:"masked"`
	Attempts    int64      `json:"attempts"`
	Successes   int64      `json:"successes"`
	RateLimited int64      `json:"rate_limited"`
	Fatal       int64      `json:"fatal"`
	Rotations   int64      `json:"rotations"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}

// Tracker counts upstream attempts per credential. It implements
// upstream.Recorder. Counter updates are queued and written by a single
// background goroutine, so a slow backend never delays a request; when the
// queue is full updates are dropped. Backend failures are logged and never
// surface.
type Tracker struct {
	backend storage.Backend
	timeout time.Duration

	mu       sync.RWMutex
	lastUsed map[int]time.Time
	now      func() time.Time

	qmu    sync.RWMutex
	closed bool
	queue  chan []usageWrite
	done   chan struct{}
}

type usageWrite struct {
	key   string
	field string
}

// NewTracker creates a new usage tracker and starts its writer. Call Close
// to flush pending updates.
func NewTracker(backend storage.Backend) *Tracker {
	if backend == nil {
		backend = storage.NewMemoryBackend()
	}
	t := &Tracker{
		backend:  backend,
		timeout:  constants.StatsBackendTimeout,
		lastUsed: make(map[int]time.Time),
		now:      time.Now,
		queue:    make(chan []usageWrite, constants.UsageQueueSize),
		done:     make(chan struct{}),
	}
	middleware.SafeGo("usage-writer", t.drain)
	return t
}

// Backend returns the underlying storage backend.
func (t *Tracker) Backend() storage.Backend { return t.backend }

func usageKey(index int) string { return "key-" + strconv.Itoa(index+1) }

// RecordAttempt queues an attempt and its classified outcome.
func (t *Tracker) RecordAttempt(_ context.Context, a upstream.Attempt) {
	if t == nil {
		return
	}
	key := usageKey(a.Credential.Index)
	writes := []usageWrite{{key: key, field: FieldAttempts}}
	switch a.Outcome {
	case upstream.OutcomeSuccess:
		writes = append(writes, usageWrite{key: key, field: FieldSuccesses})
	case upstream.OutcomeRateLimited:
		writes = append(writes, usageWrite{key: key, field: FieldRateLimited})
	case upstream.OutcomeFatal:
		writes = append(writes, usageWrite{key: key, field: FieldFatal})
	}

	t.mu.Lock()
	t.lastUsed[a.Credential.Index] = t.now()
	t.mu.Unlock()

	t.enqueue(writes)
}

// Subscribe counts rotations away from each credential.
func (t *Tracker) Subscribe(sub events.Subscriber) func() {
	return sub.Subscribe(events.TopicCredentialRotated, func(_ context.Context, ev events.Event) {
		p, ok := ev.Payload.(events.RotationPayload)
		if !ok {
			return
		}
		t.enqueue([]usageWrite{{key: usageKey(p.From), field: FieldRotations}})
	})
}

// Close stops accepting updates and waits until the queued ones are written
// or ctx is done.
func (t *Tracker) Close(ctx context.Context) error {
	t.qmu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.qmu.Unlock()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush usage: %w", ctx.Err())
	}
}

func (t *Tracker) enqueue(writes []usageWrite) {
	t.qmu.RLock()
	defer t.qmu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- writes:
	default:
		monitoring.UsageWritesDroppedTotal.Inc()
		log.WithField("usage_key", writes[0].key).Debug("usage queue full, update dropped")
	}
}

func (t *Tracker) drain() {
	defer close(t.done)
	for writes := range t.queue {
		t.write(writes)
	}
}

// write applies one batch; a failed attempts counter skips the outcome field.
func (t *Tracker) write(writes []usageWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	for _, w := range writes {
		if err := t.backend.IncrementUsage(ctx, w.key, w.field, 1); err != nil {
			t.warn(err, w.key, w.field)
			return
		}
	}
}

// Usage returns counters for every credential of pool, in pool order.
// Credentials without recorded activity report zeros.
func (t *Tracker) Usage(ctx context.Context, pool *credential.Pool) ([]KeyUsage, error) {
	if pool == nil {
		return nil, nil
	}
	all, err := t.backend.ListUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]KeyUsage, 0, pool.Len())
	for _, cred := range pool.All() {
		fields := all[usageKey(cred.Index)]
		var lastUsed *time.Time
		if ts, ok := t.lastUsed[cred.Index]; ok {
			lastUsed = &ts
		}
		out = append(out, KeyUsage{
			Key:         cred.Index + 1,
			Name:        cred.Name,
			Source:      cred.Source,
			Masked:      cred.Masked(),
			Attempts:    fields[FieldAttempts],
			Successes:   fields[FieldSuccesses],
			RateLimited: fields[FieldRateLimited],
			Fatal:       fields[FieldFatal],
			Rotations:   fields[FieldRotations],
			LastUsed:    lastUsed,
		})
	}
	return out, nil
}

// Reset clears the counters of one credential and returns the values it
// held.
func (t *Tracker) Reset(ctx context.Context, index int) (map[string]int64, error) {
	key := usageKey(index)
	prev, err := t.backend.GetUsage(ctx, key)
	var notFound *storage.ErrNotFound
	switch {
	case errors.As(err, &notFound):
		prev = map[string]int64{}
	case err != nil:
		return nil, fmt.Errorf("get usage %s: %w", key, err)
	}
	if err := t.backend.ResetUsage(ctx, key); err != nil {
		return nil, fmt.Errorf("reset usage %s: %w", key, err)
	}

	t.mu.Lock()
	delete(t.lastUsed, index)
	t.mu.Unlock()
	return prev, nil
}

func (t *Tracker) warn(err error, key, field string) {
	entry := log.WithError(err).WithFields(log.Fields{"usage_key": key, "field": field})
	if errors.Is(err, context.DeadlineExceeded) {
		entry.Warn("usage backend timed out")
		return
	}
	entry.Warn("failed to record usage")
}
