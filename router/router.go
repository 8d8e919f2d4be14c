// Package router routes validated orders to a broker.Adapter and applies
// the resulting broker response back onto the order state machine.
package router

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"tradecore/broker"
	"tradecore/logger"
	"tradecore/metrics"
	"tradecore/option"
	"tradecore/order"
	"tradecore/signal"
)

// EquityRouter submits and cancels equity orders against a single default
// broker. Broker selection is deterministic; multi-broker routing logic
// would hang off registerBroker-style extension points, not implemented
// here because no multi-broker scenario is in scope.
type EquityRouter struct {
	defaultBroker broker.Adapter
	log           *logrus.Entry
}

// NewEquityRouter builds an EquityRouter against defaultBroker.
func NewEquityRouter(defaultBroker broker.Adapter) *EquityRouter {
	return &EquityRouter{defaultBroker: defaultBroker, log: logger.Component("router")}
}

// SubmitOrder submits ord to the broker. A connection/order-level broker
// failure transitions ord to FAILED (distinct from REJECTED, which is
// reserved for pre-trade validation and risk rejections upstream of the
// router) and the error is returned alongside the mutated order so callers
// can audit both.
//
// On success it also retrieves and applies every fill the broker already
// has on record for the order (the paper broker fills synchronously, so
// this is normally the order's single, full fill) and returns them so the
// caller can audit each one. Fill retrieval/application failures are
// logged but never fail the submission itself: the order has already been
// accepted by the broker by that point.
func (r *EquityRouter) SubmitOrder(ctx context.Context, ord *order.Order, _ signal.TradingSignal, now time.Time) ([]order.AppliedFill, error) {
	start := now
	brokerOrderID, err := r.defaultBroker.SubmitOrder(ctx, ord.Symbol, ord.Side, ord.Quantity)
	r.observeBrokerCall("SubmitOrder", start, err)
	if err != nil {
		_ = ord.UpdateStatus(order.Failed, now, err.Error())
		return nil, err
	}
	ord.BrokerOrderID = brokerOrderID

	fromStatus := ord.Status
	if err := ord.UpdateStatus(order.Submitted, now, ""); err != nil {
		return nil, err
	}
	metrics.OrderTransitionTotal.WithLabelValues(string(fromStatus), string(order.Submitted)).Inc()

	return r.applyFills(ctx, ord, brokerOrderID, now), nil
}

// applyFills retrieves every fill the broker holds for brokerOrderID and
// applies each to ord in order, clamping at the order's own quantity per
// invariant I1. It never returns an error: a fill-processing failure is an
// operational concern to log, not a reason to unwind an already-accepted
// broker submission.
func (r *EquityRouter) applyFills(ctx context.Context, ord *order.Order, brokerOrderID string, now time.Time) []order.AppliedFill {
	fills, err := r.defaultBroker.GetFills(ctx, brokerOrderID)
	r.observeBrokerCall("GetFills", now, err)
	if err != nil {
		r.log.Errorf("router: fetching fills for %s failed: %v", brokerOrderID, err)
		return nil
	}

	applied := make([]order.AppliedFill, 0, len(fills))
	for _, fill := range fills {
		if valid, msg := order.ValidateFill(fill, ord); !valid {
			r.log.Errorf("router: fill rejected for %s: %s", brokerOrderID, msg)
			continue
		}
		if err := order.ApplyFillToOrder(ord, fill, now); err != nil {
			r.log.Errorf("router: applying fill for %s failed: %v", brokerOrderID, err)
			continue
		}
		metrics.FillNotional.Observe(fill.Notional)
		applied = append(applied, order.AppliedFill{
			Fill:                fill,
			Status:              ord.Status,
			TotalFilledQuantity: ord.FilledQuantity,
			TotalFilledNotional: ord.FilledNotional,
			AverageFillPrice:    ord.AverageFillPrice,
		})
	}
	return applied
}

func (r *EquityRouter) observeBrokerCall(method string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.BrokerCallDuration.WithLabelValues(r.defaultBroker.Name(), method, outcome).Observe(time.Since(start).Seconds())
}

// CancelOrder cancels ord if it is not already terminal and has been
// submitted to the broker.
func (r *EquityRouter) CancelOrder(ctx context.Context, ord *order.Order, now time.Time) error {
	if ord.IsTerminal() {
		return broker.NewOrderError(r.defaultBroker.Name(), "cannot cancel order in terminal state: "+string(ord.Status))
	}
	if ord.BrokerOrderID == "" {
		return broker.NewOrderError(r.defaultBroker.Name(), "order not yet submitted to broker")
	}
	ok, err := r.defaultBroker.CancelOrder(ctx, ord.BrokerOrderID)
	if err != nil {
		return err
	}
	if !ok {
		return broker.NewOrderError(r.defaultBroker.Name(), "broker reports order already in a terminal state")
	}
	return ord.UpdateStatus(order.Cancelled, now, "")
}

// OptionRouter submits and cancels single-leg and spread option orders,
// validating contracts before every submission.
type OptionRouter struct {
	defaultBroker broker.Adapter
	log           *logrus.Entry
}

// NewOptionRouter builds an OptionRouter against defaultBroker.
func NewOptionRouter(defaultBroker broker.Adapter) *OptionRouter {
	return &OptionRouter{defaultBroker: defaultBroker, log: logger.Component("router")}
}

// SubmitOptionOrder validates then submits a single-leg option order. A
// validation failure rejects the order without ever reaching the broker; a
// broker-level failure marks it FAILED instead. On success it retrieves
// and applies any fills the broker already has on record, same as
// EquityRouter.SubmitOrder.
func (r *OptionRouter) SubmitOptionOrder(ctx context.Context, ord *option.Order, now time.Time) error {
	if valid, msg := option.ValidateOrder(ord, now); !valid {
		_ = ord.UpdateStatus(order.Rejected, now, msg)
		return broker.NewOrderError(r.defaultBroker.Name(), msg)
	}

	brokerOrderID, err := r.defaultBroker.SubmitOptionOrder(ctx, ord.Leg, ord.LimitPrice)
	if err != nil {
		_ = ord.UpdateStatus(order.Failed, now, err.Error())
		return err
	}
	ord.BrokerOrderID = brokerOrderID
	if err := ord.UpdateStatus(order.Submitted, now, ""); err != nil {
		return err
	}

	fills, err := r.defaultBroker.GetOptionFills(ctx, brokerOrderID)
	if err != nil {
		r.log.Errorf("router: fetching option fills for %s failed: %v", brokerOrderID, err)
		return nil
	}
	for _, fill := range fills {
		if valid, msg := option.ValidateFill(fill, ord); !valid {
			r.log.Errorf("router: option fill rejected for %s: %s", brokerOrderID, msg)
			continue
		}
		if err := option.ApplyFillToOrder(ord, fill, now); err != nil {
			r.log.Errorf("router: applying option fill for %s failed: %v", brokerOrderID, err)
			continue
		}
		metrics.FillNotional.Observe(fill.Notional(ord.Leg.ContractMultiplier))
	}
	return nil
}

// SubmitSpreadOrder validates then submits a multi-leg spread atomically,
// then applies any fills the broker already has on record to their
// matching legs.
func (r *OptionRouter) SubmitSpreadOrder(ctx context.Context, ord *option.SpreadOrder, now time.Time) error {
	if valid, msg := option.ValidateSpreadOrder(ord, now); !valid {
		_ = ord.UpdateStatus(order.Rejected, now, msg)
		return broker.NewOrderError(r.defaultBroker.Name(), msg)
	}

	brokerOrderID, err := r.defaultBroker.SubmitOptionSpread(ctx, ord.Legs, ord.LimitPrice)
	if err != nil {
		_ = ord.UpdateStatus(order.Failed, now, err.Error())
		return err
	}
	ord.BrokerOrderID = brokerOrderID
	if err := ord.UpdateStatus(order.Submitted, now, ""); err != nil {
		return err
	}

	legsBySymbol := make(map[string]option.Leg, len(ord.Legs))
	for _, leg := range ord.Legs {
		legsBySymbol[leg.ContractSymbol()] = leg
	}

	fills, err := r.defaultBroker.GetOptionFills(ctx, brokerOrderID)
	if err != nil {
		r.log.Errorf("router: fetching spread fills for %s failed: %v", brokerOrderID, err)
		return nil
	}
	for _, fill := range fills {
		leg, ok := legsBySymbol[fill.ContractSymbol]
		if !ok {
			r.log.Errorf("router: fill %s for %s matches no leg of spread %s", fill.FillID, fill.ContractSymbol, brokerOrderID)
			continue
		}
		if err := option.ApplyFillToSpread(ord, fill, leg, now); err != nil {
			r.log.Errorf("router: applying spread fill for %s failed: %v", brokerOrderID, err)
			continue
		}
		metrics.FillNotional.Observe(fill.Notional(leg.ContractMultiplier))
	}
	return nil
}

// terminalAndSubmitted is the minimal shape option.Order and
// option.SpreadOrder share, letting cancelCommon accept either.
type terminalAndSubmitted interface {
	IsTerminal() bool
}

func (r *OptionRouter) cancelCommon(ctx context.Context, t terminalAndSubmitted, brokerOrderID string) error {
	if t.IsTerminal() {
		return broker.NewOrderError(r.defaultBroker.Name(), "cannot cancel order in terminal state")
	}
	if brokerOrderID == "" {
		return broker.NewOrderError(r.defaultBroker.Name(), "order not yet submitted to broker")
	}
	ok, err := r.defaultBroker.CancelOrder(ctx, brokerOrderID)
	if err != nil {
		return err
	}
	if !ok {
		return broker.NewOrderError(r.defaultBroker.Name(), "broker reports order already in a terminal state")
	}
	return nil
}

// CancelOptionOrder cancels a single-leg option order.
func (r *OptionRouter) CancelOptionOrder(ctx context.Context, ord *option.Order, now time.Time) error {
	if err := r.cancelCommon(ctx, ord, ord.BrokerOrderID); err != nil {
		return err
	}
	return ord.UpdateStatus(order.Cancelled, now, "")
}

// CancelSpreadOrder cancels a spread order.
func (r *OptionRouter) CancelSpreadOrder(ctx context.Context, ord *option.SpreadOrder, now time.Time) error {
	if err := r.cancelCommon(ctx, ord, ord.BrokerOrderID); err != nil {
		return err
	}
	return ord.UpdateStatus(order.Cancelled, now, "")
}
