package throttle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// historyTTL is how long a strategy's order-timestamp sorted set is kept,
// matching the reference checker's 24-hour retention on its Redis key.
const historyTTL = 24 * time.Hour

// RedisStore is the production Store, backed by one Redis sorted set per
// strategy (score = submission unix timestamp) so CountSince is a single
// ZCOUNT and Record is a single ZADD.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(strategyID string) string {
	return fmt.Sprintf("throttle:%s:orders", strategyID)
}

func (r *RedisStore) CountSince(ctx context.Context, strategyID string, since time.Time) (int, error) {
	k := key(strategyID)
	cutoff := strconv.FormatFloat(float64(since.UnixNano())/1e9, 'f', -1, 64)
	n, err := r.client.ZCount(ctx, k, cutoff, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("throttle: zcount failed: %w", err)
	}
	return int(n), nil
}

func (r *RedisStore) Record(ctx context.Context, strategyID string, at time.Time) error {
	k := key(strategyID)
	score := float64(at.UnixNano()) / 1e9
	member := strconv.FormatFloat(score, 'f', -1, 64)

	if err := r.client.ZAdd(ctx, k, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("throttle: zadd failed: %w", err)
	}
	if err := r.client.Expire(ctx, k, historyTTL).Err(); err != nil {
		return fmt.Errorf("throttle: expire failed: %w", err)
	}
	return nil
}
