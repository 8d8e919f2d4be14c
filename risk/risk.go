// Package risk implements the pre-trade risk engine: eight fixed-order,
// non-short-circuiting checks every signal must clear before an order is
// created.
package risk

import (
	"context"
	"fmt"
	"time"

	"tradecore/portfolio"
	"tradecore/risklimits"
	"tradecore/signal"
	"tradecore/throttle"
)

// CheckName identifies one of the eight fixed checks, in the order they
// run and are reported.
type CheckName string

const (
	CheckOrderNotional       CheckName = "order_notional"
	CheckSlippage            CheckName = "slippage"
	CheckPositionLimit       CheckName = "position_limit"
	CheckTotalExposure       CheckName = "total_exposure"
	CheckSingleAssetExposure CheckName = "single_asset_exposure"
	CheckStrategyDailyLoss   CheckName = "strategy_daily_loss"
	CheckTotalDailyLoss      CheckName = "total_daily_loss"
	CheckRateLimit           CheckName = "rate_limit"
)

// checkOrder is the fixed evaluation and audit order for all eight checks.
var checkOrder = []CheckName{
	CheckOrderNotional,
	CheckSlippage,
	CheckPositionLimit,
	CheckTotalExposure,
	CheckSingleAssetExposure,
	CheckStrategyDailyLoss,
	CheckTotalDailyLoss,
	CheckRateLimit,
}

// Result is the outcome of a single named check.
type Result struct {
	Valid bool
	Error string
}

// Report is the full outcome of RunAllChecks: whether the signal passed
// every check, the ordered list of failure messages, and the per-check
// results keyed by name for audit logging.
type Report struct {
	Valid   bool
	Errors  []string
	Results map[CheckName]Result
}

// Engine orchestrates the eight pre-trade checks against a portfolio
// client and throttle checker.
type Engine struct {
	portfolio portfolio.Client
	throttle  *throttle.Checker
}

// NewEngine builds an Engine from its collaborators.
func NewEngine(p portfolio.Client, t *throttle.Checker) *Engine {
	return &Engine{portfolio: p, throttle: t}
}

// RunAllChecks evaluates every check in fixed order, never short-circuiting,
// so a single signal's full audit trail always contains all eight results.
func (e *Engine) RunAllChecks(ctx context.Context, sig signal.TradingSignal, limits risklimits.RiskLimits, now time.Time) (Report, error) {
	results := make(map[CheckName]Result, len(checkOrder))
	var errs []string

	record := func(name CheckName, valid bool, msg string) {
		results[name] = Result{Valid: valid, Error: msg}
		if !valid {
			errs = append(errs, msg)
		}
	}

	// 1. Order notional check.
	valid, msg := checkOrderNotional(sig, limits)
	record(CheckOrderNotional, valid, msg)

	// 2. Slippage limit check.
	valid, msg = checkSlippageLimit(sig, limits)
	record(CheckSlippage, valid, msg)

	currentPosition, err := e.portfolio.Position(ctx, sig.Symbol)
	if err != nil {
		return Report{}, fmt.Errorf("risk: fetching position for %s failed: %w", sig.Symbol, err)
	}
	newExposure := calculateNewExposure(sig, currentPosition)

	// 3. Position size limit.
	valid, msg = checkPositionLimit(newExposure, limits)
	record(CheckPositionLimit, valid, msg)

	allPositions, err := e.portfolio.AllPositions(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("risk: fetching all positions failed: %w", err)
	}
	currentTotal := totalExposure(allPositions)
	currentAsset := abs(currentPosition)
	newTotal := currentTotal - currentAsset + newExposure

	// 4. Total exposure limit.
	valid, msg = checkTotalExposureLimit(newTotal, limits)
	record(CheckTotalExposure, valid, msg)

	portfolioValue, err := e.portfolio.PortfolioValue(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("risk: fetching portfolio value failed: %w", err)
	}

	// 5. Single asset concentration limit.
	valid, msg = checkSingleAssetExposureLimit(newExposure, portfolioValue, limits)
	record(CheckSingleAssetExposure, valid, msg)

	dayStart := portfolio.StartOfUTCDay(now)

	strategyPnL, err := e.portfolio.StrategyDailyPnL(ctx, sig.StrategyID, dayStart)
	if err != nil {
		return Report{}, fmt.Errorf("risk: fetching strategy daily pnl failed: %w", err)
	}

	// 6. Strategy daily loss limit (absolute and, when portfolio value is
	// known, percentage).
	valid, msg = checkDailyLossLimit("Daily loss limit exceeded", strategyPnL, portfolioValue, limits)
	record(CheckStrategyDailyLoss, valid, msg)

	totalPnL, err := e.portfolio.TotalDailyPnL(ctx, dayStart)
	if err != nil {
		return Report{}, fmt.Errorf("risk: fetching total daily pnl failed: %w", err)
	}

	// 7. Total portfolio daily loss limit (absolute only).
	valid, msg = checkTotalDailyLossLimit(totalPnL, limits)
	record(CheckTotalDailyLoss, valid, msg)

	// 8. Rate limiting. Only recorded against the throttle store on pass.
	valid, msg, err = e.throttle.CheckRateLimit(ctx, sig.StrategyID, now, limits)
	if err != nil {
		return Report{}, fmt.Errorf("risk: rate limit check failed: %w", err)
	}
	record(CheckRateLimit, valid, msg)

	return Report{Valid: len(errs) == 0, Errors: errs, Results: results}, nil
}

func checkOrderNotional(sig signal.TradingSignal, limits risklimits.RiskLimits) (bool, string) {
	notional := sig.OrderNotional()
	if notional > limits.MaxOrderNotionalUSD {
		return false, fmt.Sprintf("Order notional exceeds limit: $%.2f > $%.2f", notional, limits.MaxOrderNotionalUSD)
	}
	if notional < limits.MinOrderNotionalUSD {
		return false, fmt.Sprintf("Order notional below minimum: $%.2f < $%.2f", notional, limits.MinOrderNotionalUSD)
	}
	return true, ""
}

func checkSlippageLimit(sig signal.TradingSignal, limits risklimits.RiskLimits) (bool, string) {
	if sig.Constraints.MaxSlippageBps > limits.MaxSlippageBps {
		return false, fmt.Sprintf("Slippage limit exceeded: %d bps > %d bps", sig.Constraints.MaxSlippageBps, limits.MaxSlippageBps)
	}
	return true, ""
}

func calculateNewExposure(sig signal.TradingSignal, currentPosition float64) float64 {
	var newPosition float64
	if sig.Side == signal.Buy {
		newPosition = currentPosition + sig.TargetExposure
	} else {
		newPosition = currentPosition - sig.TargetExposure
	}
	return abs(newPosition)
}

func checkPositionLimit(newExposure float64, limits risklimits.RiskLimits) (bool, string) {
	if newExposure > limits.MaxPositionSizeUSD {
		return false, fmt.Sprintf("Position limit exceeded: %.2f > %.2f", newExposure, limits.MaxPositionSizeUSD)
	}
	return true, ""
}

func totalExposure(positions map[string]float64) float64 {
	var total float64
	for _, pos := range positions {
		total += abs(pos)
	}
	return total
}

func checkTotalExposureLimit(newTotal float64, limits risklimits.RiskLimits) (bool, string) {
	if newTotal > limits.MaxTotalExposureUSD {
		return false, fmt.Sprintf("Total exposure limit exceeded: %.2f > %.2f", newTotal, limits.MaxTotalExposureUSD)
	}
	return true, ""
}

func checkSingleAssetExposureLimit(newExposure float64, portfolioValue *float64, limits risklimits.RiskLimits) (bool, string) {
	if portfolioValue == nil || *portfolioValue <= 0 {
		return true, "" // skip: portfolio value unknown
	}
	exposurePct := newExposure / *portfolioValue
	if exposurePct > limits.MaxSingleAssetExposurePct {
		return false, fmt.Sprintf("Single asset exposure limit exceeded: %.2f%% > %.2f%%", exposurePct*100, limits.MaxSingleAssetExposurePct*100)
	}
	return true, ""
}

func checkDailyLossLimit(label string, dailyPnL float64, portfolioValue *float64, limits risklimits.RiskLimits) (bool, string) {
	if dailyPnL < -limits.MaxDailyLossUSD {
		return false, fmt.Sprintf("%s: $%.2f > $%.2f", label, abs(dailyPnL), limits.MaxDailyLossUSD)
	}
	if portfolioValue != nil && *portfolioValue > 0 {
		lossPct := abs(dailyPnL) / *portfolioValue
		if lossPct > limits.MaxDailyLossPct {
			return false, fmt.Sprintf("Daily loss percentage limit exceeded: %.2f%% > %.2f%%", lossPct*100, limits.MaxDailyLossPct*100)
		}
	}
	return true, ""
}

func checkTotalDailyLossLimit(totalPnL float64, limits risklimits.RiskLimits) (bool, string) {
	if totalPnL < -limits.MaxDailyLossUSD {
		return false, fmt.Sprintf("Total daily loss limit exceeded: $%.2f > $%.2f", abs(totalPnL), limits.MaxDailyLossUSD)
	}
	return true, ""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
