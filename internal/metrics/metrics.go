// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Discovery scheduler metrics.
var (
	DiscoveryQuotaUnitsUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "discovery_quota_units_used",
			Help: "Quota units consumed on the current Pacific-time day",
		},
	)

	DiscoveryQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_queries_total",
			Help: "Total discovery queries executed",
		},
		[]string{"kind", "outcome"}, // kind: keyword|channel_scan|fresh_content, outcome: success|failed|skipped
	)

	DiscoveryVideosFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_videos_found_total",
			Help: "Videos observed by discovery, by classification",
		},
		[]string{"classification"}, // new|rediscovered|already_triggered
	)

	DiscoveryRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_run_duration_seconds",
			Help:    "Duration of a full discovery run",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Risk engine metrics.
var (
	RiskRescoreTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "risk_rescore_total",
			Help: "Total number of video risk rescoring operations",
		},
	)

	RiskTierGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_videos_by_tier",
			Help: "Number of unscanned videos currently in each priority tier",
		},
		[]string{"tier"},
	)
)

// Vision dispatcher metrics.
var (
	VisionBudgetSpentEUR = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vision_budget_spent_eur",
			Help: "Total EUR spent on vision analysis for the current UTC day",
		},
	)

	VisionDispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vision_dispatch_duration_seconds",
			Help:    "Duration of a single video's vision analysis attempt",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		},
	)

	VisionRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_retries_total",
			Help: "Total retry attempts against the external vision model",
		},
		[]string{"reason"}, // rate_limit|validation
	)

	VisionDispatchOutcome = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_dispatch_outcome_total",
			Help: "Terminal outcome of vision dispatch attempts",
		},
		[]string{"outcome"}, // analyzed|failed|skipped_low_priority|budget_exhausted
	)
)

// Result processor metrics.
var (
	ResultProcessorReclassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_processor_reclassifications_total",
			Help: "Aggregate counter adjustments made by the result processor",
		},
		[]string{"direction"}, // increment|decrement
	)
)

// Resilience metrics.
var (
	RecoverySweepRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resilience_recovery_sweep_records_total",
			Help: "Scan-history records reclassified by a startup recovery sweep",
		},
	)
)

// Circuit breaker metrics, set by the discovery scheduler's gobreaker
// around the search API call (the only gobreaker-wrapped outbound call).
var (
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through a circuit breaker",
		},
		[]string{"name", "result"}, // result: success|failure|rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)
