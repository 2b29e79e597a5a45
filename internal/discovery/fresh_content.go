// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package discovery

import (
	"context"
	"time"
)

// RunFreshContentScan re-queries channels whose last channel scan fell
// within window (default 48h) regardless of the normal 7-day channel-scan
// cooldown, so a known-infringing channel's newest upload doesn't sit
// behind that cooldown. It consumes its own quota carve-out, separate
// from the keyword/channel-scan plan (a supplemented feature grounded on
// the source pipeline's fresh_content_scanner.py).
func (s *Scheduler) RunFreshContentScan(ctx context.Context, window time.Duration, maxQuotaUnits int) (Stats, error) {
	start := time.Now()
	var stats Stats

	channelIDs, err := s.channels.RecentlyUploading(ctx, window, start)
	if err != nil {
		return stats, err
	}

	remaining := maxQuotaUnits
	touched := make(map[string]struct{})
	for _, id := range channelIDs {
		if remaining < CostChannelScan {
			break
		}
		if err := s.runChannelScan(ctx, id, &stats); err != nil {
			s.logger.Warn().Err(err).Str("channel_id", id).Msg("fresh-content scan failed")
			continue
		}
		touched[id] = struct{}{}
		remaining -= CostChannelScan
	}

	stats.UniqueChannels = len(touched)
	stats.Duration = time.Since(start)
	return stats, nil
}
