// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVideoStore(t *testing.T) *VideoStore {
	t.Helper()
	db, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewVideoStore(db)
}

func TestVideoStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestVideoStore(t)

	v := &Video{ID: "vid-1", ChannelID: "chan-1", PriorityTier: TierHigh, CurrentRisk: 70}
	require.NoError(t, s.Upsert(ctx, v))

	got, err := s.Get(ctx, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, "chan-1", got.ChannelID)
	assert.Equal(t, TierHigh, got.PriorityTier)
}

func TestVideoStore_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestVideoStore(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVideoStore_Exists(t *testing.T) {
	ctx := context.Background()
	s := newTestVideoStore(t)

	exists, err := s.Exists(ctx, "vid-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Upsert(ctx, &Video{ID: "vid-1", ChannelID: "chan-1"}))

	exists, err = s.Exists(ctx, "vid-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestVideoStore_ListByChannel(t *testing.T) {
	ctx := context.Background()
	s := newTestVideoStore(t)

	require.NoError(t, s.Upsert(ctx, &Video{ID: "vid-1", ChannelID: "chan-1"}))
	require.NoError(t, s.Upsert(ctx, &Video{ID: "vid-2", ChannelID: "chan-1"}))
	require.NoError(t, s.Upsert(ctx, &Video{ID: "vid-3", ChannelID: "chan-2"}))

	videos, err := s.ListByChannel(ctx, "chan-1")
	require.NoError(t, err)
	assert.Len(t, videos, 2)
}

func TestVideoStore_ListByTier_ExcludesDeletedAndReindexesOnTierChange(t *testing.T) {
	ctx := context.Background()
	s := newTestVideoStore(t)

	require.NoError(t, s.Upsert(ctx, &Video{ID: "vid-1", ChannelID: "chan-1", PriorityTier: TierCritical}))
	require.NoError(t, s.Upsert(ctx, &Video{ID: "vid-2", ChannelID: "chan-1", PriorityTier: TierCritical, Deleted: true}))

	critical, err := s.ListByTier(ctx, TierCritical, 0)
	require.NoError(t, err)
	assert.Len(t, critical, 1, "soft-deleted videos must not surface in tier reads")

	// Rescoring moves vid-1 from CRITICAL to LOW; the old tier index entry
	// must be cleaned up so it doesn't leak a stale duplicate.
	require.NoError(t, s.Upsert(ctx, &Video{ID: "vid-1", ChannelID: "chan-1", PriorityTier: TierLow}))

	critical, err = s.ListByTier(ctx, TierCritical, 0)
	require.NoError(t, err)
	assert.Len(t, critical, 0)

	low, err := s.ListByTier(ctx, TierLow, 0)
	require.NoError(t, err)
	assert.Len(t, low, 1)
}
