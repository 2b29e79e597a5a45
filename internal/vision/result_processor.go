// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vigilnet/internal/eventbus"
	"github.com/tomtom215/vigilnet/internal/store"
	"github.com/tomtom215/vigilnet/internal/store/rollup"
)

// FeedbackPublisher is the subset of the event bus the result processor
// needs.
type FeedbackPublisher interface {
	PublishVisionFeedback(ctx context.Context, evt eventbus.VisionFeedbackEvent) error
}

// ResultProcessor implements §4.7's "subtract-old, add-new" protocol:
// whatever the video's previous analysis said (if any) is unwound before
// the new one is folded in, so every counter stays an exact function of
// the video's *current* classification rather than an append-only tally
// that double-counts re-scans.
type ResultProcessor struct {
	videos   *store.VideoStore
	channels *store.ChannelStore
	rollup   *rollup.DB
	bus      FeedbackPublisher
	logger   zerolog.Logger
	now      func() time.Time
}

// NewResultProcessor returns a ready ResultProcessor.
func NewResultProcessor(videos *store.VideoStore, channels *store.ChannelStore, rdb *rollup.DB, bus FeedbackPublisher, logger zerolog.Logger) *ResultProcessor {
	return &ResultProcessor{videos: videos, channels: channels, rollup: rdb, bus: bus, logger: logger, now: time.Now}
}

// Outcome summarizes one Process call, mostly for tests and logging.
type Outcome struct {
	WasRescan       bool
	HasInfringement bool
	Actionable      bool
}

// Process folds a finished vision-model analysis of videoID into the
// video record, the video's channel's reputation counters, the system
// rollup, and the hourly activity rollup, then publishes a
// vision-feedback event to the risk engine (§4.7).
func (p *ResultProcessor) Process(ctx context.Context, videoID string, result AnalysisResult, metrics Metrics) (Outcome, error) {
	v, err := p.videos.Get(ctx, videoID)
	if err != nil {
		return Outcome{}, fmt.Errorf("result processor: load video %s: %w", videoID, err)
	}

	now := p.now()
	wasRescan := v.LastAnalysis != nil
	var previousActionable, previousHasInfringement bool
	if wasRescan {
		previousActionable = v.LastAnalysis.Actionable()
		previousHasInfringement = v.LastAnalysis.ContainsInfringement
	}

	hasInfringement := result.ContainsInfringement()
	actionable := result.Actionable()

	breakdown := make([]store.IPBreakdown, 0, len(result.IPResults))
	for _, ip := range result.IPResults {
		names := make([]string, 0, len(ip.CharactersDetected))
		for _, c := range ip.CharactersDetected {
			names = append(names, c.Name)
		}
		breakdown = append(breakdown, store.IPBreakdown{
			IPConfigID:       ip.IPID,
			Matched:          ip.ContainsInfringement,
			ConfidenceScore:  ip.InfringementLikelihood,
			InfringementType: ip.ContentType,
			CharactersFound:  names,
		})
	}

	v.LastAnalysis = &store.AnalysisSummary{
		ContainsInfringement:  hasInfringement,
		OverallRecommendation: result.OverallRecommendation,
		PerIPBreakdown:        breakdown,
		CostUSD:               metrics.CostUSD,
		InputTokens:           int(metrics.InputTokens),
		OutputTokens:          int(metrics.OutputTokens),
		AnalyzedAt:            now,
	}
	v.Status = store.StatusAnalyzed
	v.ScanCount++
	v.UpdatedAt = now

	if err := p.videos.Upsert(ctx, v); err != nil {
		return Outcome{}, fmt.Errorf("result processor: persist video %s: %w", videoID, err)
	}

	if _, err := p.channels.Mutate(ctx, v.ChannelID, v.ChannelTitle, func(c *store.Channel) {
		applyChannelReclassification(c, wasRescan, previousActionable, actionable, v.ViewCount)
		c.LastScannedAt = now
	}); err != nil {
		p.logger.Warn().Err(err).Str("video_id", videoID).Msg("result processor: channel reclassification failed")
	}

	sysAnalyzedDelta, sysInfringementDelta := systemCounterDeltas(wasRescan, previousHasInfringement, hasInfringement)
	if err := p.rollup.IncrementSystem(ctx, sysAnalyzedDelta, sysInfringementDelta); err != nil {
		p.logger.Warn().Err(err).Str("video_id", videoID).Msg("result processor: system rollup failed")
	}

	hourlyAnalysesDelta, hourlyInfringementsDelta := hourlyCounterDeltas(wasRescan, previousHasInfringement, hasInfringement)
	if err := p.rollup.IncrementHourly(ctx, now, hourlyAnalysesDelta, hourlyInfringementsDelta, metrics.CostUSD, metrics.ProcessingTime.Milliseconds()); err != nil {
		p.logger.Warn().Err(err).Str("video_id", videoID).Msg("result processor: hourly rollup failed")
	}

	contentType := "none"
	if len(result.IPResults) > 0 {
		contentType = result.IPResults[0].ContentType
	}
	if err := p.bus.PublishVisionFeedback(ctx, eventbus.VisionFeedbackEvent{
		VideoID:              videoID,
		ChannelID:            v.ChannelID,
		ContainsInfringement: hasInfringement,
		ConfidenceScore:      result.MaxLikelihood(),
		InfringementType:     contentType,
		CharactersFound:      result.CharacterNames(),
		AnalysisCostUSD:      metrics.CostUSD,
		AnalyzedAt:           now,
	}); err != nil {
		p.logger.Warn().Err(err).Str("video_id", videoID).Msg("result processor: feedback publish failed")
	}

	return Outcome{WasRescan: wasRescan, HasInfringement: hasInfringement, Actionable: actionable}, nil
}

// applyChannelReclassification is §4.7 step 2/3 restricted to the
// channel-scoped counters. On a first-time scan it increments exactly
// one of confirmed/cleared and, iff actionable, the infringing-count and
// infringing-views totals. On a re-scan it decrements whichever side the
// prior classification was on and increments the new side — a no-op when
// the classification didn't change. The same view count is used on both
// sides of a re-scan's infringing-views adjustment (the video store
// carries only the current view count), an accepted approximation §4.7
// calls out explicitly.
func applyChannelReclassification(c *store.Channel, wasRescan, previousActionable, actionable bool, viewCount int64) {
	if !wasRescan {
		c.VideosScanned++
		if actionable {
			c.ConfirmedInfringements++
			c.InfringingVideosCount++
			c.TotalInfringingViews += viewCount
		} else {
			c.VideosCleared++
		}
		return
	}

	switch {
	case previousActionable && !actionable:
		c.ConfirmedInfringements--
		c.VideosCleared++
		c.InfringingVideosCount--
		c.TotalInfringingViews -= viewCount
	case !previousActionable && actionable:
		c.VideosCleared--
		c.ConfirmedInfringements++
		c.InfringingVideosCount++
		c.TotalInfringingViews += viewCount
	}
}

// systemCounterDeltas returns the (total_analyzed, total_infringements)
// adjustments for one Process call (§4.7).
func systemCounterDeltas(wasRescan, previousHasInfringement, hasInfringement bool) (analyzed, infringements int64) {
	if !wasRescan {
		analyzed = 1
		if hasInfringement {
			infringements = 1
		}
		return
	}
	infringements = infringementFlipDelta(previousHasInfringement, hasInfringement)
	return
}

// hourlyCounterDeltas returns the (analyses, infringements) adjustments
// for the current UTC hour bucket. First-time analyses always count;
// re-scans only move the infringements counter, and only on a flip of
// the contains_infringement boolean (§4.7).
func hourlyCounterDeltas(wasRescan, previousHasInfringement, hasInfringement bool) (analyses, infringements int64) {
	if !wasRescan {
		analyses = 1
		if hasInfringement {
			infringements = 1
		}
		return
	}
	infringements = infringementFlipDelta(previousHasInfringement, hasInfringement)
	return
}

func infringementFlipDelta(previous, current bool) int64 {
	switch {
	case previous && !current:
		return -1
	case !previous && current:
		return 1
	default:
		return 0
	}
}
