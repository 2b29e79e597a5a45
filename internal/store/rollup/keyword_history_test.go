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

func TestKeywordTier_DefaultsToThreeWhenNeverSearched(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	tier, err := db.KeywordTier(ctx, "never-searched", "relevance")
	require.NoError(t, err)
	assert.Equal(t, 3, tier)
}

func TestHasAllTimeSearch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	has, err := db.HasAllTimeSearch(ctx, "kw", "date")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, db.RecordKeywordSearch(ctx, KeywordSearchRecord{
		Keyword: "kw", Ordering: "date", SearchedAt: time.Now(), ResultsCount: 40, Efficiency: 0.2, Tier: 2,
	}))

	has, err = db.HasAllTimeSearch(ctx, "kw", "date")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRecentSearches_OrderedNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.RecordKeywordSearch(ctx, KeywordSearchRecord{
			Keyword: "kw", Ordering: "date", SearchedAt: base.AddDate(0, 0, i), ResultsCount: 30, Efficiency: 0.1, Tier: 2,
		}))
	}

	records, err := db.RecentSearches(ctx, "kw", "date", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].SearchedAt.After(records[1].SearchedAt))
}

func TestViewVelocity_ComputesViewsPerHour(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.RecordViewSnapshot(ctx, "v1", t0, 1000))
	require.NoError(t, db.RecordViewSnapshot(ctx, "v1", t0.Add(2*time.Hour), 1200))

	velocity, err := db.ViewVelocity(ctx, "v1")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, velocity, 0.0001)
}

func TestViewVelocity_SingleSnapshotIsZero(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.RecordViewSnapshot(ctx, "v1", time.Now(), 500))

	velocity, err := db.ViewVelocity(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, velocity)
}
