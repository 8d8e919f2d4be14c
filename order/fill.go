package order

import (
	"fmt"
	"time"
)

// Fill represents a single trade execution reported by a broker.
type Fill struct {
	FillID        string
	BrokerOrderID string
	Symbol        string
	Quantity      float64
	Price         float64
	Notional      float64
	Timestamp     time.Time
}

// NewFill builds a Fill, deriving notional from quantity and price.
func NewFill(fillID, brokerOrderID, symbol string, quantity, price float64, timestamp time.Time) Fill {
	return Fill{
		FillID:        fillID,
		BrokerOrderID: brokerOrderID,
		Symbol:        symbol,
		Quantity:      quantity,
		Price:         price,
		Notional:      quantity * price,
		Timestamp:     timestamp,
	}
}

// AppliedFill pairs a Fill with the order's running totals immediately
// after that fill was applied, so a caller can audit each fill with the
// order state it produced rather than only the order's final state.
type AppliedFill struct {
	Fill                Fill
	Status              Status
	TotalFilledQuantity float64
	TotalFilledNotional float64
	AverageFillPrice    *float64
}

// ValidateFill checks that fill is legitimate for order before it is
// applied: matching identity, bounded quantity, and a sane price.
func ValidateFill(fill Fill, ord *Order) (bool, string) {
	if fill.Symbol != ord.Symbol {
		return false, fmt.Sprintf("Symbol mismatch: %s != %s", fill.Symbol, ord.Symbol)
	}
	if fill.BrokerOrderID != ord.BrokerOrderID {
		return false, "Broker order ID mismatch"
	}
	if ord.FilledQuantity+fill.Quantity > ord.Quantity {
		return false, "Fill quantity exceeds remaining order quantity"
	}
	if fill.Price <= 0 {
		return false, "Fill price must be positive"
	}
	return true, ""
}

// ApplyFillToOrder applies fill to ord, transitioning it to FILLED or
// PARTIALLY_FILLED and recomputing the weighted-average fill price.
// Filled quantity/notional are clamped at the order's quantity/notional
// (invariant I1) so an over-reporting broker can never push an order past
// what it actually requested.
func ApplyFillToOrder(ord *Order, fill Fill, now time.Time) error {
	if fill.Symbol != ord.Symbol {
		return fmt.Errorf("fill symbol %s doesn't match order %s", fill.Symbol, ord.Symbol)
	}
	if fill.BrokerOrderID != ord.BrokerOrderID {
		return fmt.Errorf("fill broker_order_id %s doesn't match order", fill.BrokerOrderID)
	}

	newFilledQuantity := ord.FilledQuantity + fill.Quantity
	newFilledNotional := ord.FilledNotional + fill.Notional

	if newFilledQuantity >= ord.Quantity {
		if err := ord.UpdateStatus(Filled, now, ""); err != nil {
			return err
		}
		ord.FilledQuantity = ord.Quantity
		ord.FilledNotional = ord.Notional
	} else {
		if err := ord.UpdateStatus(PartiallyFilled, now, ""); err != nil {
			return err
		}
		ord.FilledQuantity = newFilledQuantity
		ord.FilledNotional = newFilledNotional
	}

	if ord.FilledQuantity > 0 {
		avg := ord.FilledNotional / ord.FilledQuantity
		ord.AverageFillPrice = &avg
	}

	return nil
}
