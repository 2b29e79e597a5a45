// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package riskengine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vigilnet/internal/store"
)

// RescoreStats summarizes one Rescorer sweep.
type RescoreStats struct {
	Considered int
	Updated    int
	Duration   time.Duration
}

// Rescorer periodically recomputes scan_priority for already-analyzed
// videos: view counts, engagement, and channel reputation all keep
// moving after the first scan, so a video that looked safe a week ago
// can become the pipeline's next CRITICAL candidate (the "video
// rescanning" supplement to §4.3). A rescore writes only when current_risk
// changes, updating priority_tier with it; the video keeps its analyzed
// status, so the scan-priority queue does not pick it up again.
type Rescorer struct {
	engine   *Engine
	videos   *store.VideoStore
	channels *store.ChannelStore
	logger   zerolog.Logger
}

// NewRescorer returns a ready Rescorer.
func NewRescorer(engine *Engine, videos *store.VideoStore, channels *store.ChannelStore, logger zerolog.Logger) *Rescorer {
	return &Rescorer{engine: engine, videos: videos, channels: channels, logger: logger}
}

// Sweep rescoring every analyzed video (§"video rescanning"). A video
// whose recomputed priority differs from its stored current_risk is
// written back with an updated priority_tier; unchanged videos are left
// alone, matching §4.3's "otherwise no write occurs" rule.
func (r *Rescorer) Sweep(ctx context.Context) (RescoreStats, error) {
	start := time.Now()
	var stats RescoreStats

	videos, err := r.videos.ListByStatus(ctx, store.StatusAnalyzed)
	if err != nil {
		return stats, err
	}

	for _, v := range videos {
		stats.Considered++

		ch, err := r.channels.Get(ctx, v.ChannelID)
		if err != nil && err != store.ErrNotFound {
			r.logger.Warn().Err(err).Str("video_id", v.ID).Msg("rescore: channel lookup failed")
			continue
		}

		priority, tier, _, _ := r.engine.Rescore(v, ch)
		if priority == v.CurrentRisk {
			continue
		}

		v.CurrentRisk = priority
		v.PriorityTier = tier
		v.UpdatedAt = time.Now()
		if err := r.videos.Upsert(ctx, v); err != nil {
			r.logger.Warn().Err(err).Str("video_id", v.ID).Msg("rescore: persist failed")
			continue
		}
		stats.Updated++
	}

	stats.Duration = time.Since(start)
	return stats, nil
}
