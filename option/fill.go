package option

import (
	"fmt"
	"time"

	"tradecore/order"
)

// Fill represents a single option contract execution from a broker.
type Fill struct {
	FillID           string
	BrokerOrderID    string
	ContractSymbol   string
	Quantity         int
	PricePerContract float64
	Timestamp        time.Time
}

// NewFill builds an option Fill.
func NewFill(fillID, brokerOrderID, contractSymbol string, quantity int, pricePerContract float64, timestamp time.Time) Fill {
	return Fill{
		FillID:           fillID,
		BrokerOrderID:    brokerOrderID,
		ContractSymbol:   contractSymbol,
		Quantity:         quantity,
		PricePerContract: pricePerContract,
		Timestamp:        timestamp,
	}
}

// Notional returns the fill's total premium notional.
func (f Fill) Notional(contractMultiplier int) float64 {
	return f.PricePerContract * float64(f.Quantity) * float64(contractMultiplier)
}

// ValidateFill checks fill against a single-leg Order before it is applied.
func ValidateFill(fill Fill, ord *Order) (bool, string) {
	contractSymbol := ord.Leg.ContractSymbol()
	if fill.ContractSymbol != contractSymbol {
		return false, fmt.Sprintf("Contract symbol mismatch: %s != %s", fill.ContractSymbol, contractSymbol)
	}
	if fill.BrokerOrderID != ord.BrokerOrderID {
		return false, "Broker order ID mismatch"
	}
	if fill.Quantity <= 0 {
		return false, "Fill quantity must be positive"
	}
	if ord.FilledQuantity+fill.Quantity > ord.Leg.Quantity {
		return false, "Fill quantity exceeds remaining order quantity"
	}
	if fill.PricePerContract <= 0 {
		return false, "Fill price must be positive"
	}
	return true, ""
}

// ApplyFillToOrder applies fill to a single-leg option order, transitioning
// it to FILLED or PARTIALLY_FILLED and recomputing the weighted-average
// fill price per contract.
func ApplyFillToOrder(ord *Order, fill Fill, now time.Time) error {
	contractSymbol := ord.Leg.ContractSymbol()
	if fill.ContractSymbol != contractSymbol {
		return fmt.Errorf("fill contract %s doesn't match order %s", fill.ContractSymbol, contractSymbol)
	}
	if fill.BrokerOrderID != ord.BrokerOrderID {
		return fmt.Errorf("fill broker_order_id %s doesn't match order", fill.BrokerOrderID)
	}

	newFilledQuantity := ord.FilledQuantity + fill.Quantity

	if newFilledQuantity >= ord.Leg.Quantity {
		if err := ord.UpdateStatus(order.Filled, now, ""); err != nil {
			return err
		}
		ord.FilledQuantity = ord.Leg.Quantity
	} else {
		if err := ord.UpdateStatus(order.PartiallyFilled, now, ""); err != nil {
			return err
		}
		ord.FilledQuantity = newFilledQuantity
	}

	if ord.FilledQuantity > 0 {
		if ord.FilledPrice == nil {
			price := fill.PricePerContract
			ord.FilledPrice = &price
		} else {
			totalCost := *ord.FilledPrice*float64(ord.FilledQuantity-fill.Quantity) + fill.PricePerContract*float64(fill.Quantity)
			avg := totalCost / float64(ord.FilledQuantity)
			ord.FilledPrice = &avg
		}
	}

	return nil
}

// ApplyFillToSpread applies fill to one leg of a spread order. Quantity is
// clamped at the leg's own quantity so a broker over-report on one leg
// cannot corrupt IsFullyFilled for the rest of the spread. The spread
// transitions to FILLED only once every leg independently reaches its full
// quantity (atomic execution), and to PARTIALLY_FILLED as soon as any leg
// has a nonzero fill.
func ApplyFillToSpread(ord *SpreadOrder, fill Fill, leg Leg, now time.Time) error {
	contractSymbol := leg.ContractSymbol()
	if fill.ContractSymbol != contractSymbol {
		return fmt.Errorf("fill contract %s doesn't match leg %s", fill.ContractSymbol, contractSymbol)
	}

	currentFilled := ord.LegFills[contractSymbol]
	newFilled := currentFilled + fill.Quantity
	if newFilled > leg.Quantity {
		newFilled = leg.Quantity
	}

	ord.LegFills[contractSymbol] = newFilled
	ord.LegFillPrices[contractSymbol] = fill.PricePerContract

	if ord.IsFullyFilled() {
		return ord.UpdateStatus(order.Filled, now, "")
	}
	if newFilled > 0 {
		return ord.UpdateStatus(order.PartiallyFilled, now, "")
	}
	return nil
}
