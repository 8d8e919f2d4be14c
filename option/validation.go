package option

import (
	"fmt"
	"time"
)

// ValidateLeg checks a single option leg's static invariants: expiration
// format and futurity, positive strike/quantity/multiplier, and valid
// side/type enums.
func ValidateLeg(leg Leg, now time.Time) (bool, string) {
	expDate, err := time.Parse("2006-01-02", leg.Expiration)
	if err != nil {
		return false, fmt.Sprintf("Invalid expiration format: %s", leg.Expiration)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !expDate.After(today) {
		return false, fmt.Sprintf("Expiration %s must be in the future", leg.Expiration)
	}
	if leg.Strike <= 0 {
		return false, fmt.Sprintf("Strike price must be positive: %v", leg.Strike)
	}
	if leg.Quantity <= 0 {
		return false, fmt.Sprintf("Quantity must be positive: %d", leg.Quantity)
	}
	if leg.ContractMultiplier <= 0 {
		return false, fmt.Sprintf("Contract multiplier must be positive: %d", leg.ContractMultiplier)
	}
	switch leg.Side {
	case "BUY", "SELL":
	default:
		return false, fmt.Sprintf("Side must be BUY or SELL: %s", leg.Side)
	}
	switch leg.OptionType {
	case Call, Put:
	default:
		return false, fmt.Sprintf("Option type must be CALL or PUT: %s", leg.OptionType)
	}
	return true, ""
}

// ValidateOrder validates a single-leg option order.
func ValidateOrder(ord *Order, now time.Time) (bool, string) {
	if valid, errMsg := ValidateLeg(ord.Leg, now); !valid {
		return false, fmt.Sprintf("Leg validation failed: %s", errMsg)
	}
	if ord.LimitPrice != nil && *ord.LimitPrice <= 0 {
		return false, fmt.Sprintf("Limit price must be positive: %v", *ord.LimitPrice)
	}
	return true, ""
}

// ValidateSpreadOrder validates a multi-leg spread order: every leg must
// pass ValidateLeg, share the same underlying and expiration, and the
// spread's own limit price (if set) must be nonzero.
func ValidateSpreadOrder(ord *SpreadOrder, now time.Time) (bool, string) {
	for i, leg := range ord.Legs {
		if valid, errMsg := ValidateLeg(leg, now); !valid {
			return false, fmt.Sprintf("Leg %d validation failed: %s", i+1, errMsg)
		}
	}

	underlying := ord.Legs[0].Symbol
	for _, leg := range ord.Legs[1:] {
		if leg.Symbol != underlying {
			return false, fmt.Sprintf("All legs must have same underlying: %s != %s", leg.Symbol, underlying)
		}
	}

	expiration := ord.Legs[0].Expiration
	for _, leg := range ord.Legs[1:] {
		if leg.Expiration != expiration {
			return false, fmt.Sprintf("All legs must have same expiration: %s != %s", leg.Expiration, expiration)
		}
	}

	if ord.LimitPrice != nil && *ord.LimitPrice == 0 {
		return false, "Limit price cannot be zero"
	}

	return true, ""
}

// ValidateContractSymbol performs a basic shape check on a contract symbol
// without attempting full re-derivation.
func ValidateContractSymbol(contractSymbol string) (bool, string) {
	if contractSymbol == "" {
		return false, "Contract symbol cannot be empty"
	}
	_, _, _, _, err := ParseContractSymbol(contractSymbol)
	if err != nil {
		return false, fmt.Sprintf("Invalid contract symbol format: %s", contractSymbol)
	}
	return true, ""
}
