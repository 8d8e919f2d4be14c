// Package audit implements the immutable decision and trade event stream.
// Every risk decision and order lifecycle transition is emitted here; it is
// the system's source of truth for "why did this order happen".
package audit

import (
	"context"
	"time"
)

// EventType names one of the fixed audit event kinds.
type EventType string

const (
	EventRiskDecision  EventType = "RISK_DECISION"
	EventOrderCreated  EventType = "ORDER_CREATED"
	EventOrderSubmitted EventType = "ORDER_SUBMITTED"
	EventOrderFilled   EventType = "ORDER_FILLED"
	EventOrderCancelled EventType = "ORDER_CANCELLED"
	EventOrderRejected EventType = "ORDER_REJECTED"
)

// Event is a single immutable audit record. Field population depends on
// Type: e.g. CheckResults/Errors/Decision only apply to RISK_DECISION,
// FillQuantity/FillPrice only to ORDER_FILLED.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Type      EventType              `json:"event"`
	SignalID  string                 `json:"signal_id,omitempty"`
	OrderID   string                 `json:"order_id,omitempty"`
	BrokerOrderID string             `json:"broker_order_id,omitempty"`
	StrategyID string                `json:"strategy_id"`
	Symbol    string                 `json:"symbol,omitempty"`
	Side      string                 `json:"side,omitempty"`

	// Risk decision fields.
	Decision     string         `json:"decision,omitempty"`
	CheckResults map[string]any `json:"check_results,omitempty"`
	Errors       []string       `json:"errors,omitempty"`

	// Order fields.
	Quantity float64 `json:"quantity,omitempty"`
	Notional float64 `json:"notional,omitempty"`
	Status   string  `json:"status,omitempty"`

	// Fill fields.
	FillQuantity        float64  `json:"fill_quantity,omitempty"`
	FillPrice           float64  `json:"fill_price,omitempty"`
	FillNotional        float64  `json:"fill_notional,omitempty"`
	TotalFilledQuantity float64  `json:"total_filled_quantity,omitempty"`
	TotalFilledNotional float64  `json:"total_filled_notional,omitempty"`
	AverageFillPrice    *float64 `json:"average_fill_price,omitempty"`

	Reason string `json:"reason,omitempty"`
}

// Sink receives audit events. Implementations must be safe for concurrent
// use and must not block the caller indefinitely — a slow sink (e.g. a
// disconnected websocket client) must degrade gracefully rather than stall
// the pipeline.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// MultiSink fans an event out to every underlying sink. A failing sink's
// error is collected but does not stop delivery to the others, so a
// durable archive failure never silently drops the live stream.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink builds a MultiSink over sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Write delivers event to every sink, returning the first error encountered
// (if any) after all sinks have been attempted.
func (m *MultiSink) Write(ctx context.Context, event Event) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Write(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
