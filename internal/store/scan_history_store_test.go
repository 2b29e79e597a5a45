// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScanHistoryStore(t *testing.T) *ScanHistoryStore {
	t.Helper()
	db, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewScanHistoryStore(db)
}

func TestScanHistoryStore_ListRunning(t *testing.T) {
	ctx := context.Background()
	s := newTestScanHistoryStore(t)

	require.NoError(t, s.Put(ctx, &ScanHistoryRecord{ScanID: "s1", VideoID: "v1", Status: ScanRunning, StartedAt: time.Now()}))
	require.NoError(t, s.Put(ctx, &ScanHistoryRecord{ScanID: "s2", VideoID: "v2", Status: ScanCompleted, StartedAt: time.Now()}))
	require.NoError(t, s.Put(ctx, &ScanHistoryRecord{ScanID: "s3", VideoID: "v3", Status: ScanRunning, StartedAt: time.Now()}))

	running, err := s.ListRunning(ctx)
	require.NoError(t, err)
	assert.Len(t, running, 2)
}

func TestScanHistoryStore_Put_OverwritesByScanID(t *testing.T) {
	ctx := context.Background()
	s := newTestScanHistoryStore(t)

	require.NoError(t, s.Put(ctx, &ScanHistoryRecord{ScanID: "s1", VideoID: "v1", Status: ScanRunning}))
	require.NoError(t, s.Put(ctx, &ScanHistoryRecord{ScanID: "s1", VideoID: "v1", Status: ScanCompleted, CompletedAt: time.Now()}))

	r, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, ScanCompleted, r.Status)
}
