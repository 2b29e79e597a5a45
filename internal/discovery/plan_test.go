// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/vigilnet/internal/store"
)

func TestPlanBuilder_Build_RespectsQuotaBudget(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(newTestRollupDB(t), 7)
	pb := NewPlanBuilder(h, 7)

	plan, err := pb.Build(ctx, []string{"kw1", "kw2", "kw3"}, nil, CostSearchPage*2, 0, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(plan.Queries), 2)
}

func TestPlanBuilder_Build_ReservesChannelScansFirst(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(newTestRollupDB(t), 7)
	pb := NewPlanBuilder(h, 7)

	plan, err := pb.Build(ctx, nil, []string{"c1", "c2", "c3"}, CostChannelScan*2, 5, 0)
	require.NoError(t, err)
	assert.Len(t, plan.Scans, 2)
}

func TestPlanBuilder_Build_NeverDuplicatesKeywordOrderPair(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(newTestRollupDB(t), 3)
	pb := NewPlanBuilder(h, 3)

	plan, err := pb.Build(ctx, []string{"only-keyword"}, nil, CostSearchPage*10, 0, 10)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, q := range plan.Queries {
		key := q.Keyword + "|" + string(q.Order)
		assert.False(t, seen[key], "duplicate plan entry %s", key)
		seen[key] = true
	}
}

func TestPlanBuilder_Build_StepsCombineScansAndQueriesIntoOneSequence(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(newTestRollupDB(t), 11)
	pb := NewPlanBuilder(h, 11)

	plan, err := pb.Build(ctx, []string{"kw1", "kw2", "kw3", "kw4"}, []string{"c1", "c2", "c3", "c4"}, CostSearchPage*4+CostChannelScan*4, 4, 10)
	require.NoError(t, err)
	require.Len(t, plan.Steps, len(plan.Queries)+len(plan.Scans))

	var scans, queries int
	for _, step := range plan.Steps {
		switch step.Kind {
		case StepScan:
			scans++
		case StepQuery:
			queries++
		}
	}
	assert.Equal(t, len(plan.Scans), scans)
	assert.Equal(t, len(plan.Queries), queries)
}

func TestEligibleChannels_ExcludesCooldownAndSortsDescending(t *testing.T) {
	now := time.Now()
	channels := []*store.Channel{
		{ID: "recent", TotalVideosFound: 100, LastScannedAt: now.Add(-1 * time.Hour)},
		{ID: "old-big", TotalVideosFound: 50, LastScannedAt: now.Add(-30 * 24 * time.Hour)},
		{ID: "old-small", TotalVideosFound: 10, LastScannedAt: now.Add(-30 * 24 * time.Hour)},
	}

	eligible := EligibleChannels(context.Background(), channels, 7*24*time.Hour, now)
	require.Equal(t, []string{"old-big", "old-small"}, eligible)
}
