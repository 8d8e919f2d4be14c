package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_Position(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()

	pos, err := c.Position(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 0.0, pos)

	c.SetMockPosition("AAPL", 50_000.0)
	pos, err = c.Position(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 50_000.0, pos)
}

func TestMemoryClient_AllPositions_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	c.SetMockPosition("AAPL", 50_000.0)
	c.SetMockPosition("MSFT", -10_000.0)

	all, err := c.AllPositions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 50_000.0, "MSFT": -10_000.0}, all)

	all["AAPL"] = 0 // mutating the returned map must not affect internal state
	pos, _ := c.Position(ctx, "AAPL")
	assert.Equal(t, 50_000.0, pos)
}

func TestMemoryClient_PortfolioValue_UnsetIsNil(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()

	v, err := c.PortfolioValue(ctx)
	require.NoError(t, err)
	assert.Nil(t, v)

	val := 2_000_000.0
	c.SetMockPortfolioValue(&val)
	v, err = c.PortfolioValue(ctx)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 2_000_000.0, *v)

	c.SetMockPortfolioValue(nil)
	v, err = c.PortfolioValue(ctx)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestMemoryClient_DailyPnL_FiltersBySinceAndStrategy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()

	dayStart := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	before := dayStart.Add(-time.Hour)
	during := dayStart.Add(2 * time.Hour)

	c.AddMockPnL("alpha", -5_000.0, before)
	c.AddMockPnL("alpha", -2_000.0, during)
	c.AddMockPnL("beta", 1_000.0, during)

	alphaPnL, err := c.StrategyDailyPnL(ctx, "alpha", dayStart)
	require.NoError(t, err)
	assert.Equal(t, -2_000.0, alphaPnL, "entry before the cutoff must not count")

	total, err := c.TotalDailyPnL(ctx, dayStart)
	require.NoError(t, err)
	assert.Equal(t, -1_000.0, total, "sums alpha+beta since cutoff, excluding the earlier alpha loss")
}

func TestMemoryClient_Reset(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	val := 100.0
	c.SetMockPosition("AAPL", 1.0)
	c.SetMockPortfolioValue(&val)
	c.AddMockPnL("alpha", -1.0, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))

	c.Reset()

	pos, _ := c.Position(ctx, "AAPL")
	assert.Equal(t, 0.0, pos)
	v, _ := c.PortfolioValue(ctx)
	assert.Nil(t, v)
	pnl, _ := c.TotalDailyPnL(ctx, time.Time{})
	assert.Equal(t, 0.0, pnl)
}
