// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package vision

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/vigilnet/internal/store/rollup"
)

func newTestBudget(t *testing.T, dailyLimitUSD float64) *Budget {
	t.Helper()
	ctx := context.Background()
	db, err := rollup.Open(ctx, filepath.Join(t.TempDir(), "rollup.duckdb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b := NewBudget(db, dailyLimitUSD)
	b.now = func() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) }
	return b
}

func TestBudget_CanAfford_WithinLimit(t *testing.T) {
	ctx := context.Background()
	b := newTestBudget(t, 10)

	ok, err := b.CanAfford(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBudget_CanAfford_RejectsWhenWouldExceed(t *testing.T) {
	ctx := context.Background()
	b := newTestBudget(t, 1)

	require.NoError(t, b.RecordUsage(ctx, 0.9, 1000, 100))

	ok, err := b.CanAfford(ctx, 0.5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBudget_RecordUsage_Accumulates(t *testing.T) {
	ctx := context.Background()
	b := newTestBudget(t, 10)

	require.NoError(t, b.RecordUsage(ctx, 0.5, 1000, 200))
	require.NoError(t, b.RecordUsage(ctx, 0.25, 500, 100))

	stats, err := b.GetStats(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, stats.TotalSpentUSD, 0.0001)
	assert.Equal(t, int64(2), stats.VideosAnalyzed)
	assert.InDelta(t, 0.375, stats.AvgCostPerVideo, 0.0001)
}

func TestBudget_Remaining_FlooredAtZero(t *testing.T) {
	ctx := context.Background()
	b := newTestBudget(t, 1)

	require.NoError(t, b.RecordUsage(ctx, 5, 1000, 100))

	remaining, err := b.Remaining(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, remaining)
}

func TestBudget_EnforceRateLimit_IsNoOp(t *testing.T) {
	b := newTestBudget(t, 10)
	assert.NoError(t, b.EnforceRateLimit(context.Background()))
}
