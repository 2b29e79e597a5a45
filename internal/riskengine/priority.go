// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package riskengine

import (
	"github.com/tomtom215/vigilnet/internal/store"
)

const (
	channelWeight = 0.40
	videoWeight   = 0.60
)

// Engine combines the video and channel calculators into the final
// scan_priority and satisfies internal/discovery's RiskScorer interface
// for the discovery pipeline's initial-risk assignment.
type Engine struct {
	video   *VideoCalculator
	channel *ChannelCalculator
}

// NewEngine returns a ready Engine.
func NewEngine() *Engine {
	return &Engine{video: NewVideoCalculator(), channel: NewChannelCalculator()}
}

// Tier maps a scan_priority score to its priority_tier bucket (§4.3).
func Tier(scanPriority int) store.PriorityTier {
	switch {
	case scanPriority >= 90:
		return store.TierCritical
	case scanPriority >= 70:
		return store.TierHigh
	case scanPriority >= 50:
		return store.TierMedium
	case scanPriority >= 30:
		return store.TierLow
	default:
		return store.TierVeryLow
	}
}

// Combine blends a video risk score and a channel risk score into the
// final scan_priority (§4.3: 60% video, 40% channel).
func Combine(videoRisk, channelRisk int) int {
	priority := int(float64(videoRisk)*videoWeight + float64(channelRisk)*channelWeight)
	return clamp(priority, 0, 100)
}

// VideoRisk computes a newly-discovered video's initial risk and tier,
// satisfying discovery.RiskScorer. The channel risk component uses
// whatever reputation the channel has accrued so far — usually zero for
// a channel's first sighting, which is why scan_priority here is
// video-risk-dominated until the channel has scan history.
func (e *Engine) VideoRisk(v *store.Video, matchedIPs []string, viaHighPriority bool, ch *store.Channel) (int, store.PriorityTier) {
	videoScore, _ := e.video.Calculate(videoInputFrom(v, matchedIPs, viaHighPriority))

	var channelScore int
	if ch != nil {
		channelScore, _ = e.channel.Calculate(channelInputFrom(ch))
	}

	priority := Combine(videoScore, channelScore)
	return priority, Tier(priority)
}

// Rescore recomputes scan_priority from the current state of a video and
// its channel, for use by both the batch rescorer sweep and any
// on-demand recompute after a fresh vision result lands.
func (e *Engine) Rescore(v *store.Video, ch *store.Channel) (priority int, tier store.PriorityTier, videoFactors VideoFactors, channelFactors ChannelFactors) {
	videoScore, videoFactors := e.video.Calculate(videoInputFrom(v, v.MatchedIPConfigIDs, v.MatchedHighPriority))
	var channelScore int
	if ch != nil {
		channelScore, channelFactors = e.channel.Calculate(channelInputFrom(ch))
	}
	priority = Combine(videoScore, channelScore)
	tier = Tier(priority)
	return
}

func videoInputFrom(v *store.Video, matchedIPs []string, viaHighPriority bool) VideoRiskInput {
	in := VideoRiskInput{
		Title:                      v.Title,
		Description:                v.Description,
		MatchedIPIDs:               matchedIPs,
		MatchedHighPriorityKeyword: viaHighPriority,
		ViewCount:                  v.ViewCount,
		ViewVelocityPerHour:        v.ViewVelocity,
		PublishedAt:                v.DiscoveredAt,
		LikeCount:                  v.LikeCount,
		CommentCount:               v.CommentCount,
		DurationSeconds:            v.DurationSeconds,
		ScanCount:                  v.ScanCount,
	}
	if v.LastAnalysis != nil {
		in.HasLastAnalysis = true
		in.LastAnalysisActionable = v.LastAnalysis.Actionable()
	}
	return in
}

func channelInputFrom(ch *store.Channel) ChannelRiskInput {
	return ChannelRiskInput{
		ConfirmedInfringements: ch.ConfirmedInfringements,
		VideosScanned:          ch.VideosScanned,
		SubscriberCount:        ch.SubscriberCount,
		TotalViews:             ch.TotalViews,
	}
}
