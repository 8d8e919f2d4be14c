// Package signal defines the inbound trading signal contract: the strict,
// immutable value a strategy submits describing intent to take exposure.
package signal

import (
	"fmt"
	"regexp"
	"strings"
)

// Side is the direction of a signal or order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// TimeHorizon is the strategy's intended holding period.
type TimeHorizon string

const (
	Intraday TimeHorizon = "INTRADAY"
	Swing    TimeHorizon = "SWING"
	Long     TimeHorizon = "LONG"
)

// Constraints bounds execution tolerance for a signal.
type Constraints struct {
	MaxSlippageBps int      `json:"max_slippage_bps"`
	MaxNotional    *float64 `json:"max_notional,omitempty"`
}

// TradingSignal is a strategy's validated request to take or adjust exposure.
// Once constructed via New, it is immutable.
type TradingSignal struct {
	StrategyID     string      `json:"strategy_id"`
	Symbol         string      `json:"symbol"`
	Side           Side        `json:"side"`
	Confidence     float64     `json:"confidence"`
	TargetExposure float64     `json:"target_exposure"`
	TimeHorizon    TimeHorizon `json:"time_horizon"`
	Constraints    Constraints `json:"constraints"`
}

var symbolRe = regexp.MustCompile(`^[A-Za-z0-9.]+$`)

// New validates the raw fields of a signal and returns an immutable
// TradingSignal with the symbol upper-cased per the wire contract.
func New(strategyID, symbol string, side Side, confidence, targetExposure float64, horizon TimeHorizon, constraints Constraints) (TradingSignal, error) {
	if strings.TrimSpace(strategyID) == "" {
		return TradingSignal{}, fmt.Errorf("strategy_id must be non-empty")
	}
	if symbol == "" || !symbolRe.MatchString(symbol) {
		return TradingSignal{}, fmt.Errorf("symbol must be alphanumeric (dots allowed): %q", symbol)
	}
	if side != Buy && side != Sell {
		return TradingSignal{}, fmt.Errorf("side must be BUY or SELL: %q", side)
	}
	if confidence < 0 || confidence > 1 {
		return TradingSignal{}, fmt.Errorf("confidence must be in [0,1]: %v", confidence)
	}
	if targetExposure <= 0 {
		return TradingSignal{}, fmt.Errorf("target_exposure must be > 0: %v", targetExposure)
	}
	switch horizon {
	case Intraday, Swing, Long:
	default:
		return TradingSignal{}, fmt.Errorf("time_horizon must be INTRADAY, SWING, or LONG: %q", horizon)
	}
	if constraints.MaxSlippageBps < 0 || constraints.MaxSlippageBps > 1000 {
		return TradingSignal{}, fmt.Errorf("max_slippage_bps must be in [0,1000]: %v", constraints.MaxSlippageBps)
	}
	if constraints.MaxNotional != nil && *constraints.MaxNotional <= 0 {
		return TradingSignal{}, fmt.Errorf("max_notional must be > 0 when set: %v", *constraints.MaxNotional)
	}

	return TradingSignal{
		StrategyID:     strategyID,
		Symbol:         strings.ToUpper(symbol),
		Side:           side,
		Confidence:     confidence,
		TargetExposure: targetExposure,
		TimeHorizon:    horizon,
		Constraints:    constraints,
	}, nil
}

// OrderNotional implements invariant I7: the signal notional used for limits
// is min(target_exposure, constraints.max_notional) when the latter is set,
// else target_exposure.
func (s TradingSignal) OrderNotional() float64 {
	if s.Constraints.MaxNotional != nil && *s.Constraints.MaxNotional < s.TargetExposure {
		return *s.Constraints.MaxNotional
	}
	return s.TargetExposure
}
