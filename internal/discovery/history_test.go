// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package discovery

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/vigilnet/internal/store/rollup"
)

func newTestRollupDB(t *testing.T) *rollup.DB {
	t.Helper()
	ctx := context.Background()
	db, err := rollup.Open(ctx, filepath.Join(t.TempDir(), "rollup.duckdb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestHistory_ShouldSearch_FirstTimeIsAllTime(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(newTestRollupDB(t), 1)

	should, window, err := h.ShouldSearch(ctx, "kw", OrderDate)
	require.NoError(t, err)
	assert.True(t, should)
	assert.Nil(t, window)
}

func TestHistory_ShouldSearch_AfterAllTimeAlwaysReturnsWindow(t *testing.T) {
	ctx := context.Background()
	db := newTestRollupDB(t)
	h := NewHistory(db, 1)

	require.NoError(t, h.RecordSearch(ctx, "kw", OrderDate, 40, nil, 2))

	should, window, err := h.ShouldSearch(ctx, "kw", OrderDate)
	require.NoError(t, err)
	assert.True(t, should)
	require.NotNil(t, window)
	assert.True(t, window.PublishedBefore.After(window.PublishedAfter))
}

func TestEstimateUploadFrequency_DefaultsToOneWhenNoHistory(t *testing.T) {
	assert.Equal(t, 1.0, estimateUploadFrequency(nil))
}

func TestEstimateUploadFrequency_FloorsAtPoint01(t *testing.T) {
	freq := estimateUploadFrequency([]rollup.KeywordSearchRecord{
		{ResultsCount: 0, WindowDays: intPtr(30)},
	})
	assert.Equal(t, 0.01, freq)
}

func intPtr(i int) *int { return &i }
