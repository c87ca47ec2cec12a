package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the limiter with a Redis sorted set per key. The whole
// add-prune-count-expire sequence runs in one MULTI/EXEC pipeline, so two
// concurrent callers cannot interleave in a way that undercounts.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:  client,
		timeout: 800 * time.Millisecond,
	}
}

func (s *RedisStore) Slide(ctx context.Context, key, member string, now time.Time, window time.Duration) (int64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	nowMillis := now.UnixMilli()
	cutoff := nowMillis - window.Milliseconds()

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMillis), Member: member})
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, key)
	pipe.PExpire(ctx, key, window)
	pttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	return card.Val(), pttl.Val(), nil
}

// Ping verifies the Redis connection, used by readiness checks and startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}
