// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/vigilnet/internal/store"
)

func TestService_Serve_RunsSweepThenBlocksUntilCancel(t *testing.T) {
	s, videos, scans := newTestSweeper(t)
	ctx := context.Background()
	require.NoError(t, videos.Upsert(ctx, &store.Video{ID: "v1", ChannelID: "c1", Status: store.StatusProcessing}))
	require.NoError(t, scans.Put(ctx, &store.ScanHistoryRecord{ScanID: "s1", VideoID: "v1", Status: store.ScanRunning}))

	svc := NewService(s)
	assert.Equal(t, "resilience-startup-sweep", svc.String())

	runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := svc.Serve(runCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	v1, err := videos.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusDiscovered, v1.Status)
}
