package broker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"tradecore/option"
	"tradecore/order"
	"tradecore/signal"
)

var mockPrices = map[string]float64{
	"AAPL":  175.50,
	"MSFT":  380.25,
	"GOOGL": 140.75,
	"TSLA":  250.00,
}

const mockPriceFallback = 100.0

func mockPrice(symbol string) float64 {
	if p, ok := mockPrices[symbol]; ok {
		return p
	}
	return mockPriceFallback
}

type paperOrderRecord struct {
	symbol    string
	side      signal.Side
	quantity  float64
	status    string
	legs      []option.Leg
	isSpread  bool
}

// PaperBroker is the reference execution simulator: it fills every
// submitted order immediately at a deterministic mock price plus
// configured slippage, with no real capital at risk. It is the default
// Adapter for development and for every pipeline test scenario.
type PaperBroker struct {
	slippageBps int

	mu           sync.Mutex
	orders       map[string]*paperOrderRecord
	fills        map[string][]order.Fill
	optionOrders map[string]*paperOrderRecord
	optionFills  map[string][]option.Fill
}

// NewPaperBroker builds a PaperBroker with the given slippage in basis
// points applied symmetrically (worse for the order's side).
func NewPaperBroker(slippageBps int) *PaperBroker {
	return &PaperBroker{
		slippageBps:  slippageBps,
		orders:       make(map[string]*paperOrderRecord),
		fills:        make(map[string][]order.Fill),
		optionOrders: make(map[string]*paperOrderRecord),
		optionFills:  make(map[string][]option.Fill),
	}
}

func (p *PaperBroker) Name() string { return "PAPER" }

func (p *PaperBroker) SubmitOrder(_ context.Context, symbol string, side signal.Side, quantity float64) (string, error) {
	brokerOrderID := "PAPER_" + shortID()

	p.mu.Lock()
	p.orders[brokerOrderID] = &paperOrderRecord{symbol: symbol, side: side, quantity: quantity, status: "SUBMITTED"}
	p.mu.Unlock()

	now := time.Now()
	basePrice := mockPrice(symbol)
	slippageMultiplier := 1 + (float64(p.slippageBps)/10000)*sideSign(side)
	fillPrice := basePrice * slippageMultiplier

	fill := order.NewFill("fill_"+shortID(), brokerOrderID, symbol, quantity, fillPrice, now)

	p.mu.Lock()
	p.fills[brokerOrderID] = append(p.fills[brokerOrderID], fill)
	p.orders[brokerOrderID].status = "FILLED"
	p.mu.Unlock()

	return brokerOrderID, nil
}

// CancelOrder cancels the order if it is still open. An order already
// FILLED or CANCELLED is reported as (false, nil): paper orders fill
// synchronously, so "too late to cancel" is an ordinary outcome, not a
// broker failure.
func (p *PaperBroker) CancelOrder(_ context.Context, brokerOrderID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.orders[brokerOrderID]
	if !ok {
		rec, ok = p.optionOrders[brokerOrderID]
	}
	if !ok {
		return false, NewOrderError(p.Name(), fmt.Sprintf("order not found: %s", brokerOrderID))
	}
	if rec.status == "FILLED" || rec.status == "CANCELLED" {
		return false, nil
	}
	rec.status = "CANCELLED"
	return true, nil
}

func (p *PaperBroker) GetOrderStatus(_ context.Context, brokerOrderID string) (OrderStatusInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if rec, ok := p.orders[brokerOrderID]; ok {
		return OrderStatusInfo{BrokerOrderID: brokerOrderID, Status: rec.status, Symbol: rec.symbol}, nil
	}
	if rec, ok := p.optionOrders[brokerOrderID]; ok {
		return OrderStatusInfo{BrokerOrderID: brokerOrderID, Status: rec.status}, nil
	}
	return OrderStatusInfo{}, NewOrderError(p.Name(), fmt.Sprintf("order not found: %s", brokerOrderID))
}

func (p *PaperBroker) GetFills(_ context.Context, brokerOrderID string) ([]order.Fill, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]order.Fill, len(p.fills[brokerOrderID]))
	copy(out, p.fills[brokerOrderID])
	return out, nil
}

func mockOptionPremium(leg option.Leg) float64 {
	base := mockPrice(leg.Symbol)
	var intrinsic float64
	if leg.OptionType == option.Call {
		intrinsic = math.Max(0, base-leg.Strike)
	} else {
		intrinsic = math.Max(0, leg.Strike-base)
	}
	timeValue := base * 0.02
	return math.Max(0.01, intrinsic+timeValue)
}

func (p *PaperBroker) SubmitOptionOrder(_ context.Context, leg option.Leg, limitPrice *float64) (string, error) {
	brokerOrderID := "PAPER_OPT_" + shortID()

	p.mu.Lock()
	p.optionOrders[brokerOrderID] = &paperOrderRecord{legs: []option.Leg{leg}, status: "SUBMITTED"}
	p.mu.Unlock()

	fillPrice := mockOptionPremium(leg)
	if limitPrice != nil {
		fillPrice = *limitPrice
	}

	fill := option.NewFill("option_fill_"+shortID(), brokerOrderID, leg.ContractSymbol(), leg.Quantity, fillPrice, time.Now())

	p.mu.Lock()
	p.optionFills[brokerOrderID] = append(p.optionFills[brokerOrderID], fill)
	p.optionOrders[brokerOrderID].status = "FILLED"
	p.mu.Unlock()

	return brokerOrderID, nil
}

func (p *PaperBroker) SubmitOptionSpread(_ context.Context, legs []option.Leg, limitPrice *float64) (string, error) {
	brokerOrderID := "PAPER_SPREAD_" + shortID()

	p.mu.Lock()
	p.optionOrders[brokerOrderID] = &paperOrderRecord{legs: legs, status: "SUBMITTED", isSpread: true}
	p.mu.Unlock()

	now := time.Now()
	var fills []option.Fill
	if limitPrice != nil {
		perLeg := *limitPrice / float64(len(legs))
		for _, leg := range legs {
			fills = append(fills, option.NewFill("spread_fill_"+shortID(), brokerOrderID, leg.ContractSymbol(), leg.Quantity, perLeg, now))
		}
	} else {
		for _, leg := range legs {
			fills = append(fills, option.NewFill("spread_fill_"+shortID(), brokerOrderID, leg.ContractSymbol(), leg.Quantity, mockOptionPremium(leg), now))
		}
	}

	p.mu.Lock()
	p.optionFills[brokerOrderID] = fills
	p.optionOrders[brokerOrderID].status = "FILLED"
	p.mu.Unlock()

	return brokerOrderID, nil
}

func (p *PaperBroker) GetOptionFills(_ context.Context, brokerOrderID string) ([]option.Fill, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]option.Fill, len(p.optionFills[brokerOrderID]))
	copy(out, p.optionFills[brokerOrderID])
	return out, nil
}

func sideSign(side signal.Side) float64 {
	if side == signal.Buy {
		return 1
	}
	return -1
}

func shortID() string {
	return uuid.NewString()[:8]
}
