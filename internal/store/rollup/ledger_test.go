// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package rollup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "rollup.duckdb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestQuotaLedger_SeedsAndAccumulates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	q, err := db.GetQuota(ctx, now, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.UnitsUsed)
	assert.Equal(t, int64(10000), q.Remaining())

	require.NoError(t, db.RecordQuotaUsage(ctx, now, 100))
	require.NoError(t, db.RecordQuotaUsage(ctx, now, 250))

	q, err = db.GetQuota(ctx, now, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(350), q.UnitsUsed)
	assert.Equal(t, int64(9650), q.Remaining())
}

func TestQuotaLedger_KeyedByPacificDateNotUTC(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	// 01:00 UTC on Aug 1 is still July 31 in Los Angeles (UTC-7 in summer).
	lateUTC := time.Date(2026, 8, 1, 1, 0, 0, 0, time.UTC)
	require.NoError(t, db.RecordQuotaUsage(ctx, lateUTC, 500))

	assert.Equal(t, "2026-07-31", PacificDateKey(lateUTC))
}

func TestBudgetLedger_KeyedByUTCNotPacific(t *testing.T) {
	now := time.Date(2026, 8, 1, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-01", UTCDateKey(now))
	assert.NotEqual(t, UTCDateKey(now), PacificDateKey(now), "budget and quota ledgers must never share a date key derivation")
}

func TestBudgetLedger_RecordUsageAccumulates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)

	require.NoError(t, db.RecordUsage(ctx, now, 1.25, 10000, 1000))
	require.NoError(t, db.RecordUsage(ctx, now, 0.75, 5000, 1000))

	b, err := db.GetBudget(ctx, now, 260)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, b.TotalSpentEUR, 0.0001)
	assert.Equal(t, int64(2), b.VideoCount)
	assert.Equal(t, int64(15000), b.InputTokens)
	assert.InDelta(t, 258.0, b.Remaining(), 0.0001)
}

func TestBudgetStatus_UtilizationClampedAtOne(t *testing.T) {
	b := BudgetStatus{TotalSpentEUR: 500, DailyLimitEUR: 260}
	assert.Equal(t, 1.0, b.Utilization())
	assert.Equal(t, 0.0, b.Remaining())
}
