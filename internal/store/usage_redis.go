package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ledger-assistant/internal/common/logger"
)

// RedisUsageTracker records per-user per-day request and token counters
// in a Redis hash. Keys expire so the set stays bounded.
type RedisUsageTracker struct {
	client *redis.Client
	logger logger.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisUsageTracker(client *redis.Client, log logger.Logger, ttlDays int) *RedisUsageTracker {
	if ttlDays <= 0 {
		ttlDays = 90
	}
	return &RedisUsageTracker{
		client: client,
		logger: log.With(map[string]interface{}{
			"component": "usage-tracker",
		}),
		ttl: time.Duration(ttlDays) * 24 * time.Hour,
		now: time.Now,
	}
}

func usageKey(userID string, day time.Time) string {
	return fmt.Sprintf("usage:%s:%s", userID, day.Format("2006-01-02"))
}

func (t *RedisUsageTracker) Track(ctx context.Context, userID string, tokens int) error {
	key := usageKey(userID, t.now())

	pipe := t.client.TxPipeline()
	pipe.HIncrBy(ctx, key, "requests", 1)
	pipe.HIncrBy(ctx, key, "tokens", int64(tokens))
	pipe.Expire(ctx, key, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("track usage: %w", err)
	}
	return nil
}

func (t *RedisUsageTracker) Today(ctx context.Context, userID string) (int64, int64, error) {
	key := usageKey(userID, t.now())

	fields, err := t.client.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read usage: %w", err)
	}

	var requests, tokens int64
	if v, ok := fields["requests"]; ok {
		requests, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := fields["tokens"]; ok {
		tokens, _ = strconv.ParseInt(v, 10, 64)
	}
	return requests, tokens, nil
}
