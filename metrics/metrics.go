// Package metrics exposes the Prometheus collectors for the trade engine.
// It mirrors the teacher's pattern of a private registry populated through
// promauto.With(Registry) so the core never depends on the global default
// registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom Prometheus registry for tradecore metrics.
var Registry = prometheus.NewRegistry()

var (
	// RiskCheckTotal counts each pre-trade risk check outcome by check name and result.
	RiskCheckTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradecore",
			Subsystem: "risk",
			Name:      "check_total",
			Help:      "Pre-trade risk check outcomes by check name and result",
		},
		[]string{"check", "result"},
	)

	// SignalDecisionTotal counts pipeline decisions (APPROVED/REJECTED) by strategy.
	SignalDecisionTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradecore",
			Subsystem: "pipeline",
			Name:      "signal_decision_total",
			Help:      "Signal pipeline decisions by strategy and decision",
		},
		[]string{"strategy_id", "decision"},
	)

	// PipelineLatency tracks end-to-end signal processing latency.
	PipelineLatency = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tradecore",
			Subsystem: "pipeline",
			Name:      "latency_seconds",
			Help:      "Signal pipeline processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// OrderTransitionTotal counts order state machine transitions.
	OrderTransitionTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradecore",
			Subsystem: "order",
			Name:      "transition_total",
			Help:      "Order state machine transitions by from/to status",
		},
		[]string{"from", "to"},
	)

	// FillNotional tracks individual fill notional size.
	FillNotional = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tradecore",
			Subsystem: "order",
			Name:      "fill_notional_usd",
			Help:      "Notional value of individual fills in USD",
			Buckets:   prometheus.ExponentialBuckets(100, 2, 12),
		},
	)

	// KillSwitchActive reports the current kill switch state (1 = active, 0 = inactive).
	KillSwitchActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tradecore",
			Subsystem: "killswitch",
			Name:      "active",
			Help:      "1 if the global kill switch is active, 0 otherwise",
		},
	)

	// ThrottleRejectionTotal counts rate-limit rejections per strategy and window.
	ThrottleRejectionTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradecore",
			Subsystem: "throttle",
			Name:      "rejection_total",
			Help:      "Throttle rejections by strategy and window (minute/hour)",
		},
		[]string{"strategy_id", "window"},
	)

	// BrokerCallDuration tracks broker adapter call latency by method and broker name.
	BrokerCallDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tradecore",
			Subsystem: "broker",
			Name:      "call_duration_seconds",
			Help:      "Broker adapter call latency by method",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"broker", "method", "outcome"},
	)
)

func init() {
	Registry.MustRegister(prometheus.NewGoCollector())
	Registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
}
