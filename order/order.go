// Package order implements the equity order state machine: creation,
// validated status transitions, and fill application with clamping and
// weighted-average price recomputation.
package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tradecore/signal"
)

// Status is an order's position in its lifecycle.
type Status string

const (
	Pending         Status = "PENDING"
	Submitted       Status = "SUBMITTED"
	PartiallyFilled Status = "PARTIALLY_FILLED"
	Filled          Status = "FILLED"
	Cancelled       Status = "CANCELLED"
	Rejected        Status = "REJECTED"
	Failed          Status = "FAILED"
)

// validTransitions enumerates every allowed next-status set for a given
// current status. Statuses absent from this map (the four terminal ones)
// allow no further transitions: once an order reaches FILLED, CANCELLED,
// REJECTED, or FAILED it is permanently absorbed, unlike the reference
// implementation which left terminal states transitionable by omission.
var validTransitions = map[Status][]Status{
	Pending:   {Submitted, Rejected, Cancelled},
	Submitted: {PartiallyFilled, Filled, Cancelled, Failed},
	// PARTIALLY_FILLED -> PARTIALLY_FILLED is explicitly allowed: a second
	// partial fill on the same order is the common case, not a no-op to
	// special-case away.
	PartiallyFilled: {PartiallyFilled, Filled, Cancelled, Failed},
}

// IllegalTransitionError reports an attempted order status change that
// violates the state machine.
type IllegalTransitionError struct {
	From, To Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal order transition: %s -> %s", e.From, e.To)
}

// Order is an equity order with full lifecycle tracking.
type Order struct {
	OrderID          string
	StrategyID       string
	Symbol           string
	Side             signal.Side
	Quantity         float64
	Notional         float64
	Status           Status
	BrokerOrderID    string
	FilledQuantity   float64
	FilledNotional   float64
	AverageFillPrice *float64
	CreatedAt        time.Time
	SubmittedAt      *time.Time
	FilledAt         *time.Time
	CancelledAt      *time.Time
	RejectionReason  string
}

// New creates a PENDING order for the given signal-derived parameters.
func New(strategyID, symbol string, side signal.Side, quantity, notional float64, now time.Time) *Order {
	return &Order{
		OrderID:    uuid.NewString(),
		StrategyID: strategyID,
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		Notional:   notional,
		Status:     Pending,
		CreatedAt:  now,
	}
}

// IsTerminal reports whether the order can no longer transition.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case Filled, Cancelled, Rejected, Failed:
		return true
	default:
		return false
	}
}

// UpdateStatus validates and applies a status transition, stamping the
// relevant lifecycle timestamp. rejectionReason, when non-empty, is
// recorded regardless of the target status (mirroring how the reference
// implementation always accepted kwargs alongside the transition).
func (o *Order) UpdateStatus(newStatus Status, now time.Time, rejectionReason string) error {
	allowed, hasRule := validTransitions[o.Status]
	if !hasRule || !contains(allowed, newStatus) {
		return &IllegalTransitionError{From: o.Status, To: newStatus}
	}

	o.Status = newStatus

	switch newStatus {
	case Submitted:
		o.SubmittedAt = &now
	case Filled:
		o.FilledAt = &now
	case Cancelled:
		o.CancelledAt = &now
	}

	if rejectionReason != "" {
		o.RejectionReason = rejectionReason
	}

	return nil
}

func contains(statuses []Status, target Status) bool {
	for _, s := range statuses {
		if s == target {
			return true
		}
	}
	return false
}
