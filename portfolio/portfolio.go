// Package portfolio defines the read-only client interface to externalized
// position, exposure, and P&L state. The core never mutates portfolio
// state; it is a collaborator owned elsewhere (spec.md §1, §6).
package portfolio

import (
	"context"
	"time"
)

// Client is the read-only interface to the externalized portfolio service.
type Client interface {
	// Position returns the current position for a symbol in USD
	// (positive for long, negative for short).
	Position(ctx context.Context, symbol string) (float64, error)

	// AllPositions returns every open position keyed by symbol, in USD.
	AllPositions(ctx context.Context) (map[string]float64, error)

	// PortfolioValue returns total portfolio value in USD, or nil if
	// unavailable (the single-asset concentration check must then skip
	// silently per spec.md §4.1 step 5).
	PortfolioValue(ctx context.Context) (*float64, error)

	// StrategyDailyPnL returns a strategy's realized+unrealized P&L in USD
	// since the given timestamp (negative for losses).
	StrategyDailyPnL(ctx context.Context, strategyID string, since time.Time) (float64, error)

	// TotalDailyPnL returns portfolio-wide P&L in USD since the given
	// timestamp (negative for losses).
	TotalDailyPnL(ctx context.Context, since time.Time) (float64, error)
}

// StartOfUTCDay truncates t to 00:00:00 UTC of its calendar day, the cutoff
// used by every daily-loss check in spec.md §4.1.
func StartOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
