// Package throttle implements per-strategy order-rate limiting backed by
// externalized, sorted-set state, mirroring the reference ThrottleChecker.
package throttle

import (
	"context"
	"fmt"
	"time"

	"tradecore/metrics"
	"tradecore/risklimits"
)

// Store is the externalized sliding-window order history for a strategy.
// Implementations must support efficient range-since queries, the same
// shape a Redis sorted set gives for free.
type Store interface {
	// CountSince returns the number of orders recorded for strategyID at
	// or after since.
	CountSince(ctx context.Context, strategyID string, since time.Time) (int, error)

	// Record appends an order submission timestamp for strategyID.
	Record(ctx context.Context, strategyID string, at time.Time) error
}

// Checker evaluates per-strategy rate limits against a Store.
type Checker struct {
	store Store
}

// NewChecker builds a Checker backed by store.
func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// CheckRateLimit evaluates the per-minute then per-hour order-rate limits
// for strategyID as of now. On pass it records the order against the store
// so the submission counts toward future checks; on failure nothing is
// recorded, exactly as the reference checker only records once both
// windows clear.
func (c *Checker) CheckRateLimit(ctx context.Context, strategyID string, now time.Time, limits risklimits.RiskLimits) (bool, string, error) {
	minuteCount, err := c.store.CountSince(ctx, strategyID, now.Add(-1*time.Minute))
	if err != nil {
		return false, "", fmt.Errorf("throttle: minute window query failed: %w", err)
	}
	if minuteCount >= limits.MaxOrdersPerStrategyPerMinute {
		metrics.ThrottleRejectionTotal.WithLabelValues(strategyID, "minute").Inc()
		return false, fmt.Sprintf(
			"Rate limit exceeded: %d orders in last minute (max: %d)",
			minuteCount, limits.MaxOrdersPerStrategyPerMinute,
		), nil
	}

	hourCount, err := c.store.CountSince(ctx, strategyID, now.Add(-60*time.Minute))
	if err != nil {
		return false, "", fmt.Errorf("throttle: hour window query failed: %w", err)
	}
	if hourCount >= limits.MaxOrdersPerStrategyPerHour {
		metrics.ThrottleRejectionTotal.WithLabelValues(strategyID, "hour").Inc()
		return false, fmt.Sprintf(
			"Rate limit exceeded: %d orders in last hour (max: %d)",
			hourCount, limits.MaxOrdersPerStrategyPerHour,
		), nil
	}

	if err := c.store.Record(ctx, strategyID, now); err != nil {
		return false, "", fmt.Errorf("throttle: failed to record order: %w", err)
	}
	return true, "", nil
}
