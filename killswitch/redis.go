package killswitch

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyActive        = "kill_switch:active"
	keyReason        = "kill_switch:reason"
	keyActivatedAt   = "kill_switch:activated_at"
	keyDeactivatedAt = "kill_switch:deactivated_at"
)

// RedisStore is the production Store, backed by plain string keys the same
// way the reference implementation lays out kill switch state in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) IsActive(ctx context.Context) (bool, error) {
	val, err := r.client.Get(ctx, keyActive).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("killswitch: get active failed: %w", err)
	}
	return val == "1", nil
}

func (r *RedisStore) Activate(ctx context.Context, reason string, at time.Time) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, keyActive, "1", 0)
	pipe.Set(ctx, keyReason, reason, 0)
	pipe.Set(ctx, keyActivatedAt, at.UTC().Format(time.RFC3339), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("killswitch: activate pipeline failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Deactivate(ctx context.Context, reason string, at time.Time) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, keyActive, "0", 0)
	pipe.Set(ctx, keyDeactivatedAt, at.UTC().Format(time.RFC3339), 0)
	pipe.Set(ctx, keyReason, reason, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("killswitch: deactivate pipeline failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Status(ctx context.Context) (Status, error) {
	active, err := r.IsActive(ctx)
	if err != nil {
		return Status{}, err
	}

	reason, err := r.client.Get(ctx, keyReason).Result()
	if err != nil && err != redis.Nil {
		return Status{}, fmt.Errorf("killswitch: get reason failed: %w", err)
	}
	if reason == "" {
		reason = "Unknown"
	}

	st := Status{Active: active, Reason: reason}

	if activatedAtStr, err := r.client.Get(ctx, keyActivatedAt).Result(); err == nil {
		if parsed, perr := time.Parse(time.RFC3339, activatedAtStr); perr == nil {
			st.ActivatedAt = &parsed
		}
	}
	if deactivatedAtStr, err := r.client.Get(ctx, keyDeactivatedAt).Result(); err == nil {
		if parsed, perr := time.Parse(time.RFC3339, deactivatedAtStr); perr == nil {
			st.DeactivatedAt = &parsed
		}
	}

	return st, nil
}
