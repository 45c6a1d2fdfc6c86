package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-assistant/internal/common/logger"
)

func newUsageTracker(t *testing.T, ttlDays int) (*RedisUsageTracker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	tracker := NewRedisUsageTracker(client, logger.NewTestLogger(t), ttlDays)
	tracker.now = func() time.Time { return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC) }
	return tracker, mr
}

func TestRedisUsageTracker_Track(t *testing.T) {
	tracker, mr := newUsageTracker(t, 90)
	ctx := context.Background()

	require.NoError(t, tracker.Track(ctx, "user-1", 120))
	require.NoError(t, tracker.Track(ctx, "user-1", 80))

	requests, tokens, err := tracker.Today(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), requests)
	assert.Equal(t, int64(200), tokens)

	assert.Equal(t, 90*24*time.Hour, mr.TTL("usage:user-1:2024-06-15"))
}

func TestRedisUsageTracker_DaysAndUsersAreIsolated(t *testing.T) {
	tracker, _ := newUsageTracker(t, 90)
	ctx := context.Background()

	require.NoError(t, tracker.Track(ctx, "user-1", 100))

	requests, tokens, err := tracker.Today(ctx, "user-2")
	require.NoError(t, err)
	assert.Zero(t, requests)
	assert.Zero(t, tokens)

	tracker.now = func() time.Time { return time.Date(2024, time.June, 16, 0, 0, 1, 0, time.UTC) }
	requests, tokens, err = tracker.Today(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, requests, "counters roll over at midnight")
	assert.Zero(t, tokens)
}

func TestRedisUsageTracker_DefaultTTL(t *testing.T) {
	tracker, mr := newUsageTracker(t, 0)
	require.NoError(t, tracker.Track(context.Background(), "user-1", 10))
	assert.Equal(t, 90*24*time.Hour, mr.TTL("usage:user-1:2024-06-15"))
}
