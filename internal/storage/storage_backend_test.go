package storage

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

// exercise runs the same contract against every backend.
func exercise(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Initialize(ctx))
	require.NoError(t, b.Health(ctx))

	_, err := b.GetUsage(ctx, "key-1")
	var nf *ErrNotFound
	require.ErrorAs(t, err, &nf)

	require.NoError(t, b.IncrementUsage(ctx, "key-1", "attempts", 1))
	require.NoError(t, b.IncrementUsage(ctx, "key-1", "attempts", 2))
	require.NoError(t, b.IncrementUsage(ctx, "key-1", "rate_limited", 1))
	require.NoError(t, b.IncrementUsage(ctx, "key-2", "successes", 5))

	got, err := b.GetUsage(ctx, "key-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), got["attempts"])
	require.Equal(t, int64(1), got["rate_limited"])

	all, err := b.ListUsage(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, int64(5), all["key-2"]["successes"])

	require.NoError(t, b.ResetUsage(ctx, "key-1"))
	all, err = b.ListUsage(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NoError(t, b.Close())
}

func TestMemoryBackend(t *testing.T) {
	t.Parallel()
	exercise(t, NewMemoryBackend())
}

func TestRedisBackend(t *testing.T) {
	t.Parallel()
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)

	rb, err := NewRedisBackend(mr.Addr(), "", 0, "test:")
	require.NoError(t, err)
	exercise(t, rb)
	require.True(t, mr.Exists("test:usage:key-2"))
}

func TestRedisBackendRequiresAddr(t *testing.T) {
	_, err := NewRedisBackend(" ", "", 0, "")
	require.Error(t, err)
}

func TestInstrumentedBackendDelegates(t *testing.T) {
	t.Parallel()
	inner := NewMemoryBackend()
	b := WithInstrumentation(inner, "")
	require.Equal(t, "memory", Label(b))
	exercise(t, b)
	require.Nil(t, WithInstrumentation(nil, "x"))
}
