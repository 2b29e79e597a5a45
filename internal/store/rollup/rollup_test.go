// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package rollup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourlyRollup_AccumulatesWithinSameHour(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Date(2026, 7, 31, 14, 5, 0, 0, time.UTC)
	later := time.Date(2026, 7, 31, 14, 55, 0, 0, time.UTC)

	require.NoError(t, db.IncrementHourly(ctx, now, 1, 1, 0.5, 1200))
	require.NoError(t, db.IncrementHourly(ctx, later, 1, 0, 0.3, 900))

	r, err := db.GetHourly(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.Analyses)
	assert.Equal(t, int64(1), r.Infringements)
	assert.InDelta(t, 0.8, r.TotalCostEUR, 0.0001)
}

func TestHourlyRollup_EmptyHourReadsZero(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	r, err := db.GetHourly(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.Analyses)
}

func TestSystemRollup_Accumulates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.IncrementSystem(ctx, 1, 1))
	require.NoError(t, db.IncrementSystem(ctx, 1, 0))

	s, err := db.GetSystem(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.TotalAnalyzed)
	assert.Equal(t, int64(1), s.TotalInfringements)
}
