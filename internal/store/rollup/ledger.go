// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package rollup

import (
	"context"
	"fmt"
	"time"
)

var pacific = func() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		// Fixed PST offset as a last resort; DST drift is immaterial to a
		// daily quota bucket that rolls over once per calendar day anyway.
		return time.FixedZone("PT", -8*60*60)
	}
	return loc
}()

// PacificDateKey returns the date key (YYYY-MM-DD in America/Los_Angeles)
// the quota ledger is bucketed by.
func PacificDateKey(t time.Time) string {
	return t.In(pacific).Format("2006-01-02")
}

// UTCDateKey returns the date key (YYYY-MM-DD UTC) the budget ledger is
// bucketed by. Deliberately distinct from PacificDateKey — conflating the
// two would silently misattribute spend or quota to the wrong day.
func UTCDateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// QuotaStatus is a read of the current day's search-quota ledger.
type QuotaStatus struct {
	PacificDate string
	UnitsUsed   int64
	DailyQuota  int64
}

// Remaining returns the unreserved unit balance for the day, floored at 0.
func (q QuotaStatus) Remaining() int64 {
	if r := q.DailyQuota - q.UnitsUsed; r > 0 {
		return r
	}
	return 0
}

// GetQuota returns today's (Pacific) quota status, seeding a fresh row at
// dailyQuota if none exists yet.
func (db *DB) GetQuota(ctx context.Context, now time.Time, dailyQuota int64) (QuotaStatus, error) {
	date := PacificDateKey(now)
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO quota_ledger (pacific_date, units_used, daily_quota) VALUES (?, 0, ?)
		 ON CONFLICT (pacific_date) DO NOTHING`, date, dailyQuota)
	if err != nil {
		return QuotaStatus{}, fmt.Errorf("seed quota ledger %s: %w", date, err)
	}

	var q QuotaStatus
	q.PacificDate = date
	row := db.conn.QueryRowContext(ctx, `SELECT units_used, daily_quota FROM quota_ledger WHERE pacific_date = ?`, date)
	if err := row.Scan(&q.UnitsUsed, &q.DailyQuota); err != nil {
		return QuotaStatus{}, fmt.Errorf("read quota ledger %s: %w", date, err)
	}
	return q, nil
}

// RecordQuotaUsage atomically increments today's units_used. Quota
// recording is unconditional on units attempted, never on results
// returned (§4.1) — callers pass the units the query actually consumed
// regardless of outcome.
func (db *DB) RecordQuotaUsage(ctx context.Context, now time.Time, units int64) error {
	date := PacificDateKey(now)
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO quota_ledger (pacific_date, units_used, daily_quota) VALUES (?, ?, 0)
		 ON CONFLICT (pacific_date) DO UPDATE SET units_used = units_used + excluded.units_used`,
		date, units)
	if err != nil {
		return fmt.Errorf("record quota usage %s: %w", date, err)
	}
	return nil
}

// BudgetStatus is a read of the current day's vision-spend ledger.
type BudgetStatus struct {
	UTCDate       string
	TotalSpentEUR float64
	VideoCount    int64
	InputTokens   int64
	OutputTokens  int64
	DailyLimitEUR float64
}

// Remaining returns the unspent EUR balance for the day, floored at 0.
func (b BudgetStatus) Remaining() float64 {
	if r := b.DailyLimitEUR - b.TotalSpentEUR; r > 0 {
		return r
	}
	return 0
}

// Utilization returns the fraction of the daily limit already spent, in [0,1].
func (b BudgetStatus) Utilization() float64 {
	if b.DailyLimitEUR <= 0 {
		return 1
	}
	u := b.TotalSpentEUR / b.DailyLimitEUR
	if u > 1 {
		return 1
	}
	return u
}

// GetBudget returns today's (UTC) budget status.
func (db *DB) GetBudget(ctx context.Context, now time.Time, dailyLimitEUR float64) (BudgetStatus, error) {
	date := UTCDateKey(now)
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO budget_ledger (utc_date) VALUES (?) ON CONFLICT (utc_date) DO NOTHING`, date)
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("seed budget ledger %s: %w", date, err)
	}

	var b BudgetStatus
	b.UTCDate = date
	b.DailyLimitEUR = dailyLimitEUR
	row := db.conn.QueryRowContext(ctx,
		`SELECT total_spent_eur, video_count, input_tokens, output_tokens FROM budget_ledger WHERE utc_date = ?`, date)
	if err := row.Scan(&b.TotalSpentEUR, &b.VideoCount, &b.InputTokens, &b.OutputTokens); err != nil {
		return BudgetStatus{}, fmt.Errorf("read budget ledger %s: %w", date, err)
	}
	return b, nil
}

// RecordUsage atomically records a completed vision-model analysis's
// actual cost against today's budget ledger (§4.6's recordUsage).
func (db *DB) RecordUsage(ctx context.Context, now time.Time, costEUR float64, inputTokens, outputTokens int64) error {
	date := UTCDateKey(now)
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO budget_ledger (utc_date, total_spent_eur, video_count, input_tokens, output_tokens)
		 VALUES (?, ?, 1, ?, ?)
		 ON CONFLICT (utc_date) DO UPDATE SET
			total_spent_eur = total_spent_eur + excluded.total_spent_eur,
			video_count = video_count + 1,
			input_tokens = input_tokens + excluded.input_tokens,
			output_tokens = output_tokens + excluded.output_tokens`,
		date, costEUR, inputTokens, outputTokens)
	if err != nil {
		return fmt.Errorf("record budget usage %s: %w", date, err)
	}
	return nil
}
