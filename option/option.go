// Package option implements option-specific order types and their
// lifecycle: single-leg orders, atomic multi-leg spreads, fills, and
// contract validation. No Greeks, pricing models, or strategy logic live
// here — pure execution models.
package option

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradecore/order"
	"tradecore/signal"
)

// Type is the option right: CALL or PUT.
type Type string

const (
	Call Type = "CALL"
	Put  Type = "PUT"
)

// Leg is a single option leg in a spread or standalone order.
type Leg struct {
	Symbol             string
	OptionType         Type
	Strike             float64
	Expiration         string // YYYY-MM-DD
	Side               signal.Side
	Quantity           int
	ContractMultiplier int
}

// NewLeg builds a Leg, defaulting ContractMultiplier to 100 (the standard
// US equity option multiplier) when unset.
func NewLeg(symbol string, optionType Type, strike float64, expiration string, side signal.Side, quantity int) Leg {
	return Leg{
		Symbol:             symbol,
		OptionType:         optionType,
		Strike:             strike,
		Expiration:         expiration,
		Side:               side,
		Quantity:           quantity,
		ContractMultiplier: 100,
	}
}

// ContractSymbol generates the canonical contract symbol in the format
// UNDERLYING_YYMMDD_{C|P}_{strike*1000}, e.g. "AAPL_260116_C_175000".
func (l Leg) ContractSymbol() string {
	code := "P"
	if l.OptionType == Call {
		code = "C"
	}
	expShort := strings.ReplaceAll(l.Expiration, "-", "")
	if len(expShort) >= 8 {
		expShort = expShort[2:] // drop century: YYYYMMDD -> YYMMDD
	}
	return fmt.Sprintf("%s_%s_%s_%d", l.Symbol, expShort, code, int(l.Strike*1000))
}

// ParseContractSymbol parses a canonical contract symbol back into its
// underlying, option type, and strike. It is the inverse of
// Leg.ContractSymbol for the parts that symbol preserves (it cannot
// recover contract_multiplier, side, or quantity, which aren't encoded).
func ParseContractSymbol(symbol string) (underlying string, optType Type, strike float64, expShort string, err error) {
	parts := strings.Split(symbol, "_")
	if len(parts) != 4 {
		return "", "", 0, "", fmt.Errorf("invalid contract symbol format: %s", symbol)
	}
	underlying, expShort, code, strikeStr := parts[0], parts[1], parts[2], parts[3]
	switch code {
	case "C":
		optType = Call
	case "P":
		optType = Put
	default:
		return "", "", 0, "", fmt.Errorf("invalid option code in contract symbol: %s", symbol)
	}
	strikeThousandths, convErr := strconv.Atoi(strikeStr)
	if convErr != nil {
		return "", "", 0, "", fmt.Errorf("invalid strike in contract symbol: %s", symbol)
	}
	strike = float64(strikeThousandths) / 1000.0
	return underlying, optType, strike, expShort, nil
}

// Notional returns the total premium notional for pricePerContract.
func (l Leg) Notional(pricePerContract float64) float64 {
	return pricePerContract * float64(l.Quantity) * float64(l.ContractMultiplier)
}

// Order is a single-leg option order.
type Order struct {
	OrderID         string
	StrategyID      string
	Leg             Leg
	LimitPrice      *float64
	Status          order.Status
	BrokerOrderID   string
	FilledQuantity  int
	FilledPrice     *float64
	CreatedAt       time.Time
	SubmittedAt     *time.Time
	FilledAt        *time.Time
	CancelledAt     *time.Time
	RejectionReason string
}

// NewOrder creates a PENDING single-leg option order.
func NewOrder(strategyID string, leg Leg, limitPrice *float64, now time.Time) *Order {
	return &Order{
		OrderID:    uuid.NewString(),
		StrategyID: strategyID,
		Leg:        leg,
		LimitPrice: limitPrice,
		Status:     order.Pending,
		CreatedAt:  now,
	}
}

func (o *Order) IsTerminal() bool {
	switch o.Status {
	case order.Filled, order.Cancelled, order.Rejected, order.Failed:
		return true
	default:
		return false
	}
}

// UpdateStatus applies the same fixed transition table as equity orders.
func (o *Order) UpdateStatus(newStatus order.Status, now time.Time, rejectionReason string) error {
	if err := checkTransition(o.Status, newStatus); err != nil {
		return err
	}
	o.Status = newStatus
	switch newStatus {
	case order.Submitted:
		o.SubmittedAt = &now
	case order.Filled:
		o.FilledAt = &now
	case order.Cancelled:
		o.CancelledAt = &now
	}
	if rejectionReason != "" {
		o.RejectionReason = rejectionReason
	}
	return nil
}

// Notional returns the order's notional using priceOverride when given,
// else the order's limit price, else zero.
func (o *Order) Notional(priceOverride *float64) float64 {
	price := 0.0
	if priceOverride != nil {
		price = *priceOverride
	} else if o.LimitPrice != nil {
		price = *o.LimitPrice
	}
	return o.Leg.Notional(price)
}

// SpreadOrder is a multi-leg option spread order executed atomically:
// either all legs fill or none do.
type SpreadOrder struct {
	OrderID         string
	StrategyID      string
	Legs            []Leg
	LimitPrice      *float64
	Status          order.Status
	BrokerOrderID   string
	LegFills        map[string]int     // contract symbol -> filled quantity
	LegFillPrices   map[string]float64 // contract symbol -> fill price
	CreatedAt       time.Time
	SubmittedAt     *time.Time
	FilledAt        *time.Time
	CancelledAt     *time.Time
	RejectionReason string
}

// NewSpreadOrder creates a PENDING spread order. legs must have 2-4
// elements; the constructor is the only place the leg count is checked
// (ValidateSpreadOrder does not re-check it), so malformed spreads are
// never built.
func NewSpreadOrder(strategyID string, legs []Leg, limitPrice *float64, now time.Time) (*SpreadOrder, error) {
	if len(legs) < 2 {
		return nil, fmt.Errorf("spread must have at least 2 legs")
	}
	if len(legs) > 4 {
		return nil, fmt.Errorf("spread cannot have more than 4 legs")
	}
	return &SpreadOrder{
		OrderID:       uuid.NewString(),
		StrategyID:    strategyID,
		Legs:          legs,
		LimitPrice:    limitPrice,
		Status:        order.Pending,
		LegFills:      make(map[string]int),
		LegFillPrices: make(map[string]float64),
		CreatedAt:     now,
	}, nil
}

func (o *SpreadOrder) IsTerminal() bool {
	switch o.Status {
	case order.Filled, order.Cancelled, order.Rejected, order.Failed:
		return true
	default:
		return false
	}
}

// IsFullyFilled reports whether every leg has reached its full quantity.
func (o *SpreadOrder) IsFullyFilled() bool {
	for _, leg := range o.Legs {
		if o.LegFills[leg.ContractSymbol()] < leg.Quantity {
			return false
		}
	}
	return true
}

func (o *SpreadOrder) UpdateStatus(newStatus order.Status, now time.Time, rejectionReason string) error {
	if err := checkTransition(o.Status, newStatus); err != nil {
		return err
	}
	o.Status = newStatus
	switch newStatus {
	case order.Submitted:
		o.SubmittedAt = &now
	case order.Filled:
		o.FilledAt = &now
	case order.Cancelled:
		o.CancelledAt = &now
	}
	if rejectionReason != "" {
		o.RejectionReason = rejectionReason
	}
	return nil
}

// GetNetNotional sums each leg's notional, using its recorded fill price
// when available, else an even split of the spread's limit price as an
// estimate before any fills have landed.
func (o *SpreadOrder) GetNetNotional() float64 {
	var total float64
	for _, leg := range o.Legs {
		symbol := leg.ContractSymbol()
		fillPrice := o.LegFillPrices[symbol]
		if fillPrice == 0 && o.LimitPrice != nil {
			fillPrice = *o.LimitPrice / float64(len(o.Legs))
		}
		total += leg.Notional(fillPrice)
	}
	return total
}

// transitions mirrors order.validTransitions; option orders and spreads
// share the equity order state machine exactly, just over a different
// payload shape, so the two packages cannot share the table directly
// without an import cycle (order does not know about option).
var transitions = map[order.Status][]order.Status{
	order.Pending:         {order.Submitted, order.Rejected, order.Cancelled},
	order.Submitted:       {order.PartiallyFilled, order.Filled, order.Cancelled, order.Failed},
	order.PartiallyFilled: {order.PartiallyFilled, order.Filled, order.Cancelled, order.Failed},
}

func checkTransition(from, to order.Status) error {
	allowed, ok := transitions[from]
	if !ok {
		return &order.IllegalTransitionError{From: from, To: to}
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return &order.IllegalTransitionError{From: from, To: to}
}
