package audit

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NDJSONSink appends one JSON object per line to an underlying writer,
// typically a rotated log file. It is the durable, append-only record of
// every audit event and mirrors the original decision_log/trade_log
// behavior of writing one record per call with no batching.
type NDJSONSink struct {
	log zerolog.Logger
}

// NewNDJSONSink builds a sink writing newline-delimited JSON to w.
func NewNDJSONSink(w io.Writer) *NDJSONSink {
	return &NDJSONSink{log: zerolog.New(w).With().Logger()}
}

// NewNDJSONFileSink opens (or creates/appends to) path and returns a sink
// writing to it, along with the underlying *os.File so callers can close it
// on shutdown.
func NewNDJSONFileSink(path string) (*NDJSONSink, *os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return NewNDJSONSink(f), f, nil
}

// Write appends event as a single JSON line.
func (s *NDJSONSink) Write(_ context.Context, event Event) error {
	s.log.Log().
		Time("timestamp", event.Timestamp).
		Str("event", string(event.Type)).
		Str("signal_id", event.SignalID).
		Str("order_id", event.OrderID).
		Str("broker_order_id", event.BrokerOrderID).
		Str("strategy_id", event.StrategyID).
		Str("symbol", event.Symbol).
		Str("side", event.Side).
		Str("decision", event.Decision).
		Interface("check_results", event.CheckResults).
		Strs("errors", event.Errors).
		Float64("quantity", event.Quantity).
		Float64("notional", event.Notional).
		Str("status", event.Status).
		Float64("fill_quantity", event.FillQuantity).
		Float64("fill_price", event.FillPrice).
		Float64("fill_notional", event.FillNotional).
		Float64("total_filled_quantity", event.TotalFilledQuantity).
		Float64("total_filled_notional", event.TotalFilledNotional).
		Str("reason", event.Reason).
		Send()
	return nil
}
