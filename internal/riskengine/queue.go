// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package riskengine

import (
	"context"
	"sort"

	"github.com/tomtom215/vigilnet/internal/store"
)

// tierPrecedence orders priority tiers CRITICAL-first, matching §4.8's
// "descending priority_tier precedence" tie-break.
var tierPrecedence = map[store.PriorityTier]int{
	store.TierCritical: 0,
	store.TierHigh:     1,
	store.TierMedium:   2,
	store.TierLow:      3,
	store.TierVeryLow:  4,
}

// Queue is a pure ordering service over already-discovered videos: no
// time-based "next_scan_at" scheduling, just exhaust-budget-top-down by
// scan_priority (§4.8 — the source's time-based ScanScheduler is
// explicitly out of scope for this core).
type Queue struct {
	videos *store.VideoStore
}

// NewQueue returns a ready Queue.
func NewQueue(videos *store.VideoStore) *Queue {
	return &Queue{videos: videos}
}

// Top returns up to n unscanned (status=discovered) videos ordered by
// descending scan_priority, ties broken by descending priority_tier
// precedence.
func (q *Queue) Top(ctx context.Context, n int) ([]*store.Video, error) {
	tiers := []store.PriorityTier{store.TierCritical, store.TierHigh, store.TierMedium, store.TierLow, store.TierVeryLow}

	var candidates []*store.Video
	for _, tier := range tiers {
		vs, err := q.videos.ListByTier(ctx, tier, 0)
		if err != nil {
			return nil, err
		}
		for _, v := range vs {
			if v.Status == store.StatusDiscovered {
				candidates = append(candidates, v)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CurrentRisk != candidates[j].CurrentRisk {
			return candidates[i].CurrentRisk > candidates[j].CurrentRisk
		}
		return tierPrecedence[candidates[i].PriorityTier] < tierPrecedence[candidates[j].PriorityTier]
	})

	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}
