// Package broker defines the broker-agnostic execution interface and its
// typed error taxonomy. All broker-specific logic — real or simulated —
// lives behind Adapter so the rest of the engine never branches on which
// broker it's talking to.
package broker

import (
	"context"
	"fmt"

	"tradecore/option"
	"tradecore/order"
	"tradecore/signal"
)

// OrderStatusInfo is the broker's view of an order, independent of the
// engine's own Order/option.Order records.
type OrderStatusInfo struct {
	BrokerOrderID string
	Status        string
	Symbol        string
}

// Adapter is the broker-agnostic execution interface. Implementations
// submit and cancel orders, and report status/fills, for both equities and
// options; option support is optional (Unsupported-wrapped) for brokers
// that only handle equities.
type Adapter interface {
	Name() string

	SubmitOrder(ctx context.Context, symbol string, side signal.Side, quantity float64) (brokerOrderID string, err error)
	// CancelOrder cancels an open order. It reports false (not an error)
	// when the order is already in a terminal state at the broker: that is
	// an outcome, not a failure, and callers must not treat it as one.
	CancelOrder(ctx context.Context, brokerOrderID string) (bool, error)
	GetOrderStatus(ctx context.Context, brokerOrderID string) (OrderStatusInfo, error)
	GetFills(ctx context.Context, brokerOrderID string) ([]order.Fill, error)

	SubmitOptionOrder(ctx context.Context, leg option.Leg, limitPrice *float64) (brokerOrderID string, err error)
	SubmitOptionSpread(ctx context.Context, legs []option.Leg, limitPrice *float64) (brokerOrderID string, err error)
	GetOptionFills(ctx context.Context, brokerOrderID string) ([]option.Fill, error)
}

// ErrorKind classifies a broker failure the way the rest of the engine
// needs to branch on it (e.g. router FAILED vs REJECTED decisions).
type ErrorKind string

const (
	KindConnection   ErrorKind = "CONNECTION"
	KindOrder        ErrorKind = "ORDER"
	KindUnsupported  ErrorKind = "UNSUPPORTED"
	KindFillMismatch ErrorKind = "FILL_MISMATCH"
)

// Error is the common broker error type. Callers branch on Kind via
// errors.As, never on string matching.
type Error struct {
	Kind    ErrorKind
	Broker  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("broker %s: %s: %s", e.Broker, e.Kind, e.Message)
}

// NewConnectionError reports a failure to reach the broker at all.
func NewConnectionError(broker, message string) error {
	return &Error{Kind: KindConnection, Broker: broker, Message: message}
}

// NewOrderError reports a broker-side rejection of an order or cancel.
func NewOrderError(broker, message string) error {
	return &Error{Kind: KindOrder, Broker: broker, Message: message}
}

// NewUnsupportedError reports a capability the broker does not implement,
// e.g. a spot-equities-only broker asked to submit an option order.
func NewUnsupportedError(broker, message string) error {
	return &Error{Kind: KindUnsupported, Broker: broker, Message: message}
}

// NewFillMismatchError reports a fill that does not correspond to any
// order the broker believes it is tracking.
func NewFillMismatchError(broker, message string) error {
	return &Error{Kind: KindFillMismatch, Broker: broker, Message: message}
}
