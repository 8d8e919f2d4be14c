package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecore/portfolio"
	"tradecore/risklimits"
	"tradecore/signal"
	"tradecore/throttle"
)

func newEngine() (*Engine, *portfolio.MemoryClient, *throttle.MemoryStore) {
	p := portfolio.NewMemoryClient()
	store := throttle.NewMemoryStore()
	e := NewEngine(p, throttle.NewChecker(store))
	return e, p, store
}

func mustSignal(t *testing.T, strategyID, symbol string, side signal.Side, targetExposure float64) signal.TradingSignal {
	t.Helper()
	sig, err := signal.New(strategyID, symbol, side, 0.8, targetExposure, signal.Intraday, signal.Constraints{MaxSlippageBps: 10})
	require.NoError(t, err)
	return sig
}

func TestRunAllChecks_HappyPathPasses(t *testing.T) {
	e, _, _ := newEngine()
	limits := risklimits.Default()
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	sig := mustSignal(t, "alpha", "AAPL", signal.Buy, 50_000.0)

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Len(t, report.Results, 8)
	for name, r := range report.Results {
		assert.True(t, r.Valid, "check %s unexpectedly failed: %s", name, r.Error)
	}
}

func TestRunAllChecks_OrderNotionalTooLarge(t *testing.T) {
	e, _, _ := newEngine()
	limits := risklimits.Default()
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	sig := mustSignal(t, "alpha", "AAPL", signal.Buy, 600_000.0)

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.False(t, report.Results[CheckOrderNotional].Valid)
	assert.Contains(t, report.Results[CheckOrderNotional].Error, "Order notional exceeds limit")
}

func TestRunAllChecks_OrderNotionalTooSmall(t *testing.T) {
	e, _, _ := newEngine()
	limits := risklimits.Default()
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	sig := mustSignal(t, "alpha", "AAPL", signal.Buy, 100.0)

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Contains(t, report.Results[CheckOrderNotional].Error, "Order notional below minimum")
}

func TestRunAllChecks_SlippageExceeded(t *testing.T) {
	e, _, _ := newEngine()
	limits := risklimits.Default()
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	sig, err := signal.New("alpha", "AAPL", signal.Buy, 0.8, 50_000.0, signal.Intraday, signal.Constraints{MaxSlippageBps: 999})
	require.NoError(t, err)

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Contains(t, report.Results[CheckSlippage].Error, "Slippage limit exceeded")
}

func TestRunAllChecks_PositionLimitExceeded(t *testing.T) {
	e, p, _ := newEngine()
	limits := risklimits.Default()
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	p.SetMockPosition("AAPL", 950_000.0)
	sig := mustSignal(t, "alpha", "AAPL", signal.Buy, 100_000.0)

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Contains(t, report.Results[CheckPositionLimit].Error, "Position limit exceeded")
}

func TestRunAllChecks_SingleAssetExposureSkippedWithoutPortfolioValue(t *testing.T) {
	e, _, _ := newEngine()
	limits := risklimits.Default()
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	sig := mustSignal(t, "alpha", "AAPL", signal.Buy, 50_000.0)

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.True(t, report.Results[CheckSingleAssetExposure].Valid)
}

func TestRunAllChecks_SingleAssetExposureExceeded(t *testing.T) {
	e, p, _ := newEngine()
	limits := risklimits.Default()
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	value := 100_000.0
	p.SetMockPortfolioValue(&value)
	sig := mustSignal(t, "alpha", "AAPL", signal.Buy, 30_000.0) // 30% > 20% limit

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Contains(t, report.Results[CheckSingleAssetExposure].Error, "Single asset exposure limit exceeded")
}

func TestRunAllChecks_StrategyDailyLossExceeded(t *testing.T) {
	e, p, _ := newEngine()
	limits := risklimits.Default()
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	dayStart := portfolio.StartOfUTCDay(now)
	p.AddMockPnL("alpha", -150_000.0, dayStart.Add(time.Hour))
	sig := mustSignal(t, "alpha", "AAPL", signal.Buy, 50_000.0)

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Contains(t, report.Results[CheckStrategyDailyLoss].Error, "Daily loss limit exceeded")
}

func TestRunAllChecks_TotalDailyLossExceeded(t *testing.T) {
	e, p, _ := newEngine()
	limits := risklimits.Default()
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	dayStart := portfolio.StartOfUTCDay(now)
	p.AddMockPnL("beta", -80_000.0, dayStart.Add(time.Hour))
	p.AddMockPnL("gamma", -80_000.0, dayStart.Add(time.Hour))
	sig := mustSignal(t, "alpha", "AAPL", signal.Buy, 50_000.0)

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Contains(t, report.Results[CheckTotalDailyLoss].Error, "Total daily loss limit exceeded")
}

func TestRunAllChecks_RateLimitExceeded(t *testing.T) {
	e, _, store := newEngine()
	limits := risklimits.Default()
	limits.MaxOrdersPerStrategyPerMinute = 1
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(context.Background(), "alpha", now.Add(-time.Second)))
	sig := mustSignal(t, "alpha", "AAPL", signal.Buy, 50_000.0)

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Contains(t, report.Results[CheckRateLimit].Error, "Rate limit exceeded")
}

func TestRunAllChecks_NeverShortCircuits(t *testing.T) {
	e, p, store := newEngine()
	limits := risklimits.Default()
	limits.MaxOrdersPerStrategyPerMinute = 1
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)

	// Fail the very first check (order notional) AND the last check (rate limit).
	require.NoError(t, store.Record(context.Background(), "alpha", now.Add(-time.Second)))
	p.SetMockPosition("AAPL", 0)
	sig := mustSignal(t, "alpha", "AAPL", signal.Buy, 600_000.0)

	report, err := e.RunAllChecks(context.Background(), sig, limits, now)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.False(t, report.Results[CheckOrderNotional].Valid)
	assert.False(t, report.Results[CheckRateLimit].Valid, "a failure early in the order must not prevent the rate limit check from running")
	assert.Len(t, report.Errors, 2)
	assert.Len(t, report.Results, 8, "all eight checks must always run and be reported regardless of earlier failures")
}
