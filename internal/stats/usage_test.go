package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"classecho-go/internal/constants"
	"classecho-go/internal/credential"
	"classecho-go/internal/events"
	"classecho-go/internal/storage"
	"classecho-go/internal/upstream"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(t *testing.T, n int) *credential.Pool {
	t.Helper()
	creds := make([]credential.Credential, 0, n)
	for i := 0; i < n; i++ {
		creds = append(creds, credential.Credential{
			Name:   "GROQ_API_KEY" + string(rune('1'+i)),
			Source: "env",
			Token:  "gsk_test_token_" + string(rune('a'+i)),
		})
	}
	pool, err := credential.NewPool(creds)
	require.NoError(t, err)
	return pool
}

func attempt(pool *credential.Pool, idx int, kind upstream.OutcomeKind) upstream.Attempt {
	return upstream.Attempt{Operation: "transcription", Credential: pool.At(idx), Outcome: kind, Duration: time.Millisecond}
}

func TestTrackerCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t, 3)
	tr := NewTracker(nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	tr.RecordAttempt(ctx, attempt(pool, 0, upstream.OutcomeRateLimited))
	tr.RecordAttempt(ctx, attempt(pool, 1, upstream.OutcomeSuccess))
	tr.RecordAttempt(ctx, attempt(pool, 1, upstream.OutcomeFatal))
	require.NoError(t, tr.Close(ctx))

	usage, err := tr.Usage(ctx, pool)
	require.NoError(t, err)
	require.Len(t, usage, 3)

	assert.Equal(t, 1, usage[0].Key)
	assert.Equal(t, int64(1), usage[0].Attempts)
	assert.Equal(t, int64(1), usage[0].RateLimited)

	assert.Equal(t, int64(2), usage[1].Attempts)
	assert.Equal(t, int64(1), usage[1].Successes)
	assert.Equal(t, int64(1), usage[1].Fatal)
	require.NotNil(t, usage[1].LastUsed)
	assert.Equal(t, fixed, *usage[1].LastUsed)

	assert.Zero(t, usage[2].Attempts)
	assert.Nil(t, usage[2].LastUsed)
	assert.NotContains(t, usage[2].Masked, "gsk_test_token_c")
}

func TestTrackerCountsRotations(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t, 2)
	hub := events.NewHub()
	tr := NewTracker(storage.NewMemoryBackend())
	unsubscribe := tr.Subscribe(hub)

	cursor := credential.NewCursor(pool)
	cursor.SetEventPublisher(hub)
	_, err := cursor.Advance(ctx, "rate_limited")
	require.NoError(t, err)
	_, err = cursor.Advance(ctx, "manual")
	require.NoError(t, err)

	unsubscribe()
	_, err = cursor.Advance(ctx, "manual")
	require.NoError(t, err)
	require.NoError(t, tr.Close(ctx))

	usage, err := tr.Usage(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, int64(1), usage[0].Rotations)
	assert.Equal(t, int64(1), usage[1].Rotations)
}

func TestTrackerSurvivesCanceledRequest(t *testing.T) {
	pool := testPool(t, 1)
	tr := NewTracker(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr.RecordAttempt(ctx, attempt(pool, 0, upstream.OutcomeSuccess))
	require.NoError(t, tr.Close(context.Background()))

	usage, err := tr.Usage(context.Background(), pool)
	require.NoError(t, err)
	assert.Equal(t, int64(1), usage[0].Successes)
}

func TestTrackerRedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)

	rb, err := storage.NewRedisBackend(mr.Addr(), "", 0, "classecho:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rb.Close() })

	ctx := context.Background()
	pool := testPool(t, 2)
	tr := NewTracker(rb)
	tr.RecordAttempt(ctx, attempt(pool, 1, upstream.OutcomeRateLimited))
	require.NoError(t, tr.Close(ctx))

	v := mr.HGet("classecho:usage:key-2", FieldRateLimited)
	assert.Equal(t, "1", v)

	prev, err := tr.Reset(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{FieldAttempts: 1, FieldRateLimited: 1}, prev)
	usage, err := tr.Usage(ctx, pool)
	require.NoError(t, err)
	assert.Zero(t, usage[1].Attempts)
	assert.False(t, mr.Exists("classecho:usage:key-2"))

	prev, err = tr.Reset(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, prev)
}

type failingBackend struct{ storage.Backend }

func (failingBackend) IncrementUsage(context.Context, string, string, int64) error {
	return errors.New("backend down")
}

func (failingBackend) ListUsage(context.Context) (map[string]map[string]int64, error) {
	return nil, errors.New("backend down")
}

func TestTrackerBackendErrors(t *testing.T) {
	pool := testPool(t, 1)
	tr := NewTracker(failingBackend{})
	assert.NotPanics(t, func() {
		tr.RecordAttempt(context.Background(), attempt(pool, 0, upstream.OutcomeSuccess))
	})
	require.NoError(t, tr.Close(context.Background()))
	_, err := tr.Usage(context.Background(), pool)
	assert.Error(t, err)

	var nilTracker *Tracker
	assert.NotPanics(t, func() {
		nilTracker.RecordAttempt(context.Background(), attempt(pool, 0, upstream.OutcomeSuccess))
	})
}

// blockingBackend holds every write until released.
type blockingBackend struct {
	storage.Backend
	release chan struct{}
}

func (b blockingBackend) IncrementUsage(ctx context.Context, _, _ string, _ int64) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSlowBackendDoesNotDelayExecute(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t, 3)
	backend := blockingBackend{Backend: storage.NewMemoryBackend(), release: make(chan struct{})}
	tr := NewTracker(backend)
	t.Cleanup(func() {
		close(backend.release)
		_ = tr.Close(ctx)
	})

	hub := events.NewHub()
	tr.Subscribe(hub)
	cursor := credential.NewCursor(pool)
	cursor.SetEventPublisher(hub)
	orch := upstream.NewOrchestrator(cursor, upstream.Options{Recorder: tr})

	start := time.Now()
	_, err := upstream.Execute(ctx, orch, upstream.Operation[string]{
		Name: "generation",
		Call: func(context.Context, credential.Credential) upstream.Outcome[string] {
			return upstream.RateLimited[string]("rate_limit_exceeded", errors.New("429"))
		},
	})
	require.Error(t, err)
	assert.True(t, upstream.IsExhausted(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFullQueueDropsUpdates(t *testing.T) {
	pool := testPool(t, 1)
	backend := blockingBackend{Backend: storage.NewMemoryBackend(), release: make(chan struct{})}
	tr := NewTracker(backend)

	start := time.Now()
	for i := 0; i < 3*constants.UsageQueueSize; i++ {
		tr.RecordAttempt(context.Background(), attempt(pool, 0, upstream.OutcomeSuccess))
	}
	assert.Less(t, time.Since(start), time.Second)

	close(backend.release)
	require.NoError(t, tr.Close(context.Background()))
	assert.NotPanics(t, func() {
		tr.RecordAttempt(context.Background(), attempt(pool, 0, upstream.OutcomeSuccess))
	})
}
