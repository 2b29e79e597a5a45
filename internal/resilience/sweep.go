// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package resilience recovers video state left inconsistent by an
// instance termination mid-scan (deployment, crash, autoscale-down):
// without it, a video killed between "processing" and "analyzed" would
// sit stuck forever, since nothing re-enqueues it (§4.9).
package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vigilnet/internal/store"
)

// Sweeper finds scan-history records left in status=running by a crash
// mid-analysis, marks each failed, and resets the video each one
// references back to discovered so the scheduler picks it up again.
type Sweeper struct {
	videos *store.VideoStore
	scans  *store.ScanHistoryStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewSweeper returns a ready Sweeper.
func NewSweeper(videos *store.VideoStore, scans *store.ScanHistoryStore, logger zerolog.Logger) *Sweeper {
	return &Sweeper{videos: videos, scans: scans, logger: logger, now: time.Now}
}

// Run lists every scan-history record in status=running, marks each
// failed, and — for the ones whose video is still sitting in
// processing — resets that video to discovered. It is idempotent:
// running it twice in a row with no new crashes finds nothing to reset
// the second time, since the first pass already flipped every running
// record to failed. A failure handling one record is logged and does
// not stop the sweep from reaching the rest — one bad record must not
// block recovery of the others.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	running, err := s.scans.ListRunning(ctx)
	if err != nil {
		return 0, fmt.Errorf("resilience sweep: list running scans: %w", err)
	}

	if len(running) == 0 {
		s.logger.Info().Msg("resilience sweep: no running scan-history records found")
		return 0, nil
	}

	reset := 0
	for _, rec := range running {
		rec.Status = store.ScanFailed
		rec.CompletedAt = s.now()
		rec.Error = "interrupted by process restart"
		if err := s.scans.Put(ctx, rec); err != nil {
			s.logger.Warn().Err(err).Str("scan_id", rec.ScanID).Msg("resilience sweep: failed to mark scan-history record failed")
			continue
		}

		v, err := s.videos.Get(ctx, rec.VideoID)
		if err != nil {
			s.logger.Warn().Err(err).Str("video_id", rec.VideoID).Msg("resilience sweep: failed to load video referenced by running scan")
			continue
		}
		if v.Status != store.StatusProcessing {
			continue
		}
		v.Status = store.StatusDiscovered
		v.UpdatedAt = s.now()
		if err := s.videos.Upsert(ctx, v); err != nil {
			s.logger.Warn().Err(err).Str("video_id", v.ID).Msg("resilience sweep: failed to reset stuck video")
			continue
		}
		reset++
		s.logger.Info().Str("video_id", v.ID).Str("scan_id", rec.ScanID).Msg("resilience sweep: reset stuck video to discovered")
	}

	s.logger.Info().Int("reset", reset).Int("found", len(running)).Msg("resilience sweep: complete")
	return reset, nil
}
