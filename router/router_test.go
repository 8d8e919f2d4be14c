package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecore/broker"
	"tradecore/option"
	"tradecore/order"
	"tradecore/signal"
)

func mustSignal(t *testing.T) signal.TradingSignal {
	t.Helper()
	sig, err := signal.New("alpha", "AAPL", signal.Buy, 0.8, 50_000.0, signal.Intraday, signal.Constraints{MaxSlippageBps: 10})
	require.NoError(t, err)
	return sig
}

func TestEquityRouter_SubmitOrder_Success(t *testing.T) {
	ctx := context.Background()
	r := NewEquityRouter(broker.NewPaperBroker(5))
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	ord := order.New("alpha", "AAPL", signal.Buy, 100, 17550, now)

	applied, err := r.SubmitOrder(ctx, ord, mustSignal(t), now)
	require.NoError(t, err)
	assert.Equal(t, order.Filled, ord.Status)
	assert.NotEmpty(t, ord.BrokerOrderID)
	require.Len(t, applied, 1, "the paper broker fills every order fully and synchronously")
	assert.Equal(t, order.Filled, applied[0].Status)
	assert.Equal(t, 100.0, applied[0].TotalFilledQuantity)
}

func TestEquityRouter_CancelOrder_RejectsAlreadyTerminal(t *testing.T) {
	ctx := context.Background()
	r := NewEquityRouter(broker.NewPaperBroker(0))
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	ord := order.New("alpha", "AAPL", signal.Buy, 100, 17550, now)
	require.NoError(t, ord.UpdateStatus(order.Rejected, now, "risk"))

	err := r.CancelOrder(ctx, ord, now)
	assert.Error(t, err)
}

func TestOptionRouter_SubmitOptionOrder_RejectsInvalidLegWithoutCallingBroker(t *testing.T) {
	ctx := context.Background()
	r := NewOptionRouter(broker.NewPaperBroker(0))
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	pastLeg := option.NewLeg("AAPL", option.Call, 180.0, "2020-01-01", signal.Buy, 1)
	ord := option.NewOrder("alpha", pastLeg, nil, now)

	err := r.SubmitOptionOrder(ctx, ord, now)
	require.Error(t, err)
	assert.Equal(t, order.Rejected, ord.Status)
	assert.Empty(t, ord.BrokerOrderID, "a rejected order must never reach the broker")
}

func TestOptionRouter_SubmitOptionOrder_Success(t *testing.T) {
	ctx := context.Background()
	r := NewOptionRouter(broker.NewPaperBroker(0))
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	leg := option.NewLeg("AAPL", option.Call, 180.0, "2027-01-15", signal.Buy, 1)
	ord := option.NewOrder("alpha", leg, nil, now)

	require.NoError(t, r.SubmitOptionOrder(ctx, ord, now))
	assert.Equal(t, order.Filled, ord.Status, "the paper broker fills every option order fully and synchronously")
}

func TestOptionRouter_SubmitSpreadOrder_RejectsMismatchedUnderlying(t *testing.T) {
	ctx := context.Background()
	r := NewOptionRouter(broker.NewPaperBroker(0))
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	legs := []option.Leg{
		option.NewLeg("AAPL", option.Call, 180.0, "2027-01-15", signal.Buy, 1),
		option.NewLeg("MSFT", option.Call, 380.0, "2027-01-15", signal.Sell, 1),
	}
	spread, err := option.NewSpreadOrder("alpha", legs, nil, now)
	require.NoError(t, err)

	err = r.SubmitSpreadOrder(ctx, spread, now)
	require.Error(t, err)
	assert.Equal(t, order.Rejected, spread.Status)
}

func TestOptionRouter_SubmitSpreadOrder_Success(t *testing.T) {
	ctx := context.Background()
	r := NewOptionRouter(broker.NewPaperBroker(0))
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	legs := []option.Leg{
		option.NewLeg("AAPL", option.Call, 180.0, "2027-01-15", signal.Buy, 1),
		option.NewLeg("AAPL", option.Call, 190.0, "2027-01-15", signal.Sell, 1),
	}
	spread, err := option.NewSpreadOrder("alpha", legs, nil, now)
	require.NoError(t, err)

	require.NoError(t, r.SubmitSpreadOrder(ctx, spread, now))
	assert.Equal(t, order.Filled, spread.Status, "the paper broker fills every leg fully and synchronously")
	assert.NotEmpty(t, spread.BrokerOrderID)
}
