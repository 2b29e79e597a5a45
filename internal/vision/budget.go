// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package vision

import (
	"context"
	"time"

	"github.com/tomtom215/vigilnet/internal/store/rollup"
)

// Budget is the §4.6 budget-manager semantics layered on top of the
// rollup ledger's atomic increment. The ledger owns storage and
// rollover-by-date-key; Budget owns only the gating arithmetic
// (canAfford/getRemaining/getUtilization/getStats) the dispatcher needs.
type Budget struct {
	db            *rollup.DB
	dailyLimitUSD float64
	now           func() time.Time
}

// NewBudget returns a ready Budget against dailyLimitUSD.
func NewBudget(db *rollup.DB, dailyLimitUSD float64) *Budget {
	return &Budget{db: db, dailyLimitUSD: dailyLimitUSD, now: time.Now}
}

// Stats mirrors the source budget manager's get_stats() dict.
type Stats struct {
	UTCDate            string
	DailyLimitUSD      float64
	TotalSpentUSD      float64
	RemainingUSD       float64
	UtilizationPercent float64
	VideosAnalyzed     int64
	AvgCostPerVideo    float64
}

// CanAfford reports whether spending estimatedCostUSD would keep today's
// total at or under the daily limit.
func (b *Budget) CanAfford(ctx context.Context, estimatedCostUSD float64) (bool, error) {
	status, err := b.db.GetBudget(ctx, b.now(), b.dailyLimitUSD)
	if err != nil {
		return false, err
	}
	return status.TotalSpentEUR+estimatedCostUSD <= b.dailyLimitUSD, nil
}

// RecordUsage commits a completed analysis's actual cost and token
// counts to today's ledger row. The authority is always the store: this
// method carries no process-local cache, unlike the source's
// best-effort in-memory total (§4.6: "the authority is the store").
func (b *Budget) RecordUsage(ctx context.Context, costUSD float64, inputTokens, outputTokens int64) error {
	return b.db.RecordUsage(ctx, b.now(), costUSD, inputTokens, outputTokens)
}

// Remaining returns today's unspent balance, floored at 0.
func (b *Budget) Remaining(ctx context.Context) (float64, error) {
	status, err := b.db.GetBudget(ctx, b.now(), b.dailyLimitUSD)
	if err != nil {
		return 0, err
	}
	return status.Remaining(), nil
}

// EnforceRateLimit is a deliberate no-op: the vision model's backend
// uses dynamic shared quota rather than a fixed per-second rate limit,
// so there is nothing to throttle here (§4.6).
func (b *Budget) EnforceRateLimit(ctx context.Context) error {
	return nil
}

// GetStats returns a full snapshot for monitoring/admin surfaces.
func (b *Budget) GetStats(ctx context.Context) (Stats, error) {
	status, err := b.db.GetBudget(ctx, b.now(), b.dailyLimitUSD)
	if err != nil {
		return Stats{}, err
	}

	avgCost := 0.0
	if status.VideoCount > 0 {
		avgCost = status.TotalSpentEUR / float64(status.VideoCount)
	}

	return Stats{
		UTCDate:            status.UTCDate,
		DailyLimitUSD:       status.DailyLimitEUR,
		TotalSpentUSD:      status.TotalSpentEUR,
		RemainingUSD:       status.Remaining(),
		UtilizationPercent: status.Utilization() * 100,
		VideosAnalyzed:     status.VideoCount,
		AvgCostPerVideo:    avgCost,
	}, nil
}
