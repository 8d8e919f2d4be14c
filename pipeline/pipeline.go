// Package pipeline orchestrates a trading signal end-to-end: kill switch,
// pre-trade risk checks, order creation, broker submission, and the audit
// trail tying every step together. It is the single entry point the HTTP
// API and any other inbound transport call into.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tradecore/audit"
	"tradecore/killswitch"
	"tradecore/logger"
	"tradecore/metrics"
	"tradecore/order"
	"tradecore/risk"
	"tradecore/risklimits"
	"tradecore/signal"
)

// Decision is the terminal outcome of a processed signal, mirroring the
// SignalResponse wire contract of the reference implementation.
type Decision string

const (
	Approved Decision = "APPROVED"
	Rejected Decision = "REJECTED"
)

// Response is returned from ProcessSignal for every inbound signal,
// approved or not.
type Response struct {
	SignalID string
	OrderID  string
	Status   Decision
	Message  string
	Errors   []string
}

// EquityRouter is the subset of router.EquityRouter that Pipeline depends
// on, narrowed for testability.
type EquityRouter interface {
	SubmitOrder(ctx context.Context, ord *order.Order, sig signal.TradingSignal, now time.Time) ([]order.AppliedFill, error)
}

// Pipeline wires the kill switch, risk engine, order creation, router
// submission, and audit trail into the single ingestion path every signal
// passes through.
type Pipeline struct {
	killSwitch *killswitch.KillSwitch
	riskEngine *risk.Engine
	router     EquityRouter
	sink       audit.Sink
	limits     risklimits.RiskLimits

	log *logrus.Entry

	// orderLocks guards per-strategy-symbol sequential processing so two
	// concurrently ingested signals for the same strategy+symbol can
	// never race on the same exposure/position numbers.
	mu         sync.Mutex
	orderLocks map[string]*sync.Mutex
}

// New builds a Pipeline from its collaborators.
func New(ks *killswitch.KillSwitch, re *risk.Engine, r EquityRouter, sink audit.Sink, limits risklimits.RiskLimits) *Pipeline {
	return &Pipeline{
		killSwitch: ks,
		riskEngine: re,
		router:     r,
		sink:       sink,
		limits:     limits,
		log:        logger.Component("pipeline"),
		orderLocks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing processing for a given
// strategy+symbol pair, creating it on first use.
func (p *Pipeline) lockFor(key string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.orderLocks[key]
	if !ok {
		l = &sync.Mutex{}
		p.orderLocks[key] = l
	}
	return l
}

// ProcessSignal runs sig through the full pipeline: kill switch, the eight
// pre-trade risk checks, order creation, and broker submission, auditing
// every step. It never short-circuits the audit trail: a rejection at any
// stage is always logged before returning.
func (p *Pipeline) ProcessSignal(ctx context.Context, sig signal.TradingSignal, now time.Time) Response {
	start := now
	signalID := uuid.NewString()

	lockKey := sig.StrategyID + ":" + sig.Symbol
	lock := p.lockFor(lockKey)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		metrics.PipelineLatency.Observe(time.Since(start).Seconds())
	}()

	// 1. Kill switch, highest priority: checked before any risk evaluation
	// or portfolio lookup so a halted system never even queries state.
	if p.killSwitch.IsActive(ctx) {
		const msg = "Kill switch is active - trading halted"
		p.audit(ctx, audit.Event{
			Timestamp:  now,
			Type:       audit.EventRiskDecision,
			SignalID:   signalID,
			StrategyID: sig.StrategyID,
			Symbol:     sig.Symbol,
			Decision:   string(Rejected),
			CheckResults: map[string]any{
				"kill_switch": map[string]any{"valid": false, "error": msg},
			},
			Errors: []string{msg},
		})
		metrics.SignalDecisionTotal.WithLabelValues(sig.StrategyID, string(Rejected)).Inc()
		return Response{SignalID: signalID, Status: Rejected, Message: msg, Errors: []string{msg}}
	}

	// 2. Pre-trade risk checks.
	report, err := p.riskEngine.RunAllChecks(ctx, sig, p.limits, now)
	if err != nil {
		msg := fmt.Sprintf("risk evaluation failed: %v", err)
		p.log.Errorf("pipeline: %s", msg)
		p.audit(ctx, audit.Event{
			Timestamp:  now,
			Type:       audit.EventRiskDecision,
			SignalID:   signalID,
			StrategyID: sig.StrategyID,
			Symbol:     sig.Symbol,
			Decision:   string(Rejected),
			Errors:     []string{msg},
		})
		return Response{SignalID: signalID, Status: Rejected, Message: msg, Errors: []string{msg}}
	}
	for name, result := range report.Results {
		outcome := "pass"
		if !result.Valid {
			outcome = "fail"
		}
		metrics.RiskCheckTotal.WithLabelValues(string(name), outcome).Inc()
	}

	// 3. Log the risk decision regardless of outcome.
	decision := Approved
	if !report.Valid {
		decision = Rejected
	}
	p.audit(ctx, audit.Event{
		Timestamp:    now,
		Type:         audit.EventRiskDecision,
		SignalID:     signalID,
		StrategyID:   sig.StrategyID,
		Symbol:       sig.Symbol,
		Decision:     string(decision),
		CheckResults: resultsToMap(report.Results),
		Errors:       report.Errors,
	})
	metrics.SignalDecisionTotal.WithLabelValues(sig.StrategyID, string(decision)).Inc()

	if !report.Valid {
		return Response{
			SignalID: signalID,
			Status:   Rejected,
			Message:  "Signal rejected by risk checks",
			Errors:   report.Errors,
		}
	}

	// 4. Create the order.
	ord := order.New(sig.StrategyID, sig.Symbol, sig.Side, sig.TargetExposure, sig.OrderNotional(), now)
	p.audit(ctx, audit.Event{
		Timestamp:  now,
		Type:       audit.EventOrderCreated,
		SignalID:   signalID,
		OrderID:    ord.OrderID,
		StrategyID: ord.StrategyID,
		Symbol:     ord.Symbol,
		Side:       string(ord.Side),
		Quantity:   ord.Quantity,
		Notional:   ord.Notional,
		Status:     string(ord.Status),
	})

	// 5. Submit to the broker via the router.
	applied, err := p.router.SubmitOrder(ctx, ord, sig, now)
	if err != nil {
		p.audit(ctx, audit.Event{
			Timestamp:  now,
			Type:       audit.EventOrderRejected,
			SignalID:   signalID,
			OrderID:    ord.OrderID,
			StrategyID: ord.StrategyID,
			Symbol:     ord.Symbol,
			Status:     string(ord.Status),
			Reason:     err.Error(),
		})
		return Response{
			SignalID: signalID,
			OrderID:  ord.OrderID,
			Status:   Rejected,
			Message:  fmt.Sprintf("Order submission failed: %v", err),
			Errors:   []string{err.Error()},
		}
	}

	p.audit(ctx, audit.Event{
		Timestamp:     now,
		Type:          audit.EventOrderSubmitted,
		SignalID:      signalID,
		OrderID:       ord.OrderID,
		BrokerOrderID: ord.BrokerOrderID,
		StrategyID:    ord.StrategyID,
		Symbol:        ord.Symbol,
		Status:        string(ord.Status),
	})

	// 6. Audit each fill the router already applied during submission (the
	// paper broker fills synchronously, so this is normally the order's
	// single, full fill).
	for _, af := range applied {
		p.audit(ctx, audit.Event{
			Timestamp:           now,
			Type:                audit.EventOrderFilled,
			SignalID:            signalID,
			OrderID:             ord.OrderID,
			BrokerOrderID:       ord.BrokerOrderID,
			StrategyID:          ord.StrategyID,
			Symbol:              ord.Symbol,
			Status:              string(af.Status),
			FillQuantity:        af.Fill.Quantity,
			FillPrice:           af.Fill.Price,
			FillNotional:        af.Fill.Notional,
			TotalFilledQuantity: af.TotalFilledQuantity,
			TotalFilledNotional: af.TotalFilledNotional,
			AverageFillPrice:    af.AverageFillPrice,
		})
	}

	return Response{
		SignalID: signalID,
		OrderID:  ord.OrderID,
		Status:   Approved,
		Message:  "Signal processed and order submitted",
	}
}

func (p *Pipeline) audit(ctx context.Context, event audit.Event) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Write(ctx, event); err != nil {
		p.log.Errorf("pipeline: audit write failed: %v", err)
	}
}

func resultsToMap(results map[risk.CheckName]risk.Result) map[string]any {
	out := make(map[string]any, len(results))
	for name, r := range results {
		out[string(name)] = map[string]any{"valid": r.Valid, "error": r.Error}
	}
	return out
}
