// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package riskengine computes the two coupled scores that drive the
// whole pipeline's priority ordering: per-video risk (content and
// engagement signals) and per-channel risk (business impact), combined
// into the final scan priority and tier (§4.3).
package riskengine

import (
	"strings"
	"time"
)

// aiToolKeywords are the AI-generation terms whose presence in a title
// or description contributes the IP-match-quality bonus.
var aiToolKeywords = []string{
	"ai generated", "sora", "runway", "kling", "pika",
	"ai movie", "ai video", "luma", "minimax",
}

// VideoFactors is the factor-by-factor breakdown behind a VideoRisk score.
type VideoFactors struct {
	IPMatchQuality int
	ViewCount      int
	ViewVelocity   int
	AgeVsViews     int
	Engagement     int
	Duration       int
	ScanHistory    int
}

// Sum adds every factor, clamped to [0,100].
func (f VideoFactors) Sum() int {
	total := f.IPMatchQuality + f.ViewCount + f.ViewVelocity + f.AgeVsViews + f.Engagement + f.Duration + f.ScanHistory
	return clamp(total, 0, 100)
}

// VideoRiskInput is the subset of video state the 7-factor scorer reads.
// Kept independent of store.Video so the calculator has no storage
// dependency and is trivially unit-testable.
type VideoRiskInput struct {
	Title                      string
	Description                string
	MatchedIPIDs               []string
	MatchedHighPriorityKeyword bool
	ViewCount                  int64
	ViewVelocityPerHour        float64
	PublishedAt                time.Time
	LikeCount                  int64
	CommentCount               int64
	DurationSeconds            int
	ScanCount                  int
	LastAnalysisActionable     bool
	HasLastAnalysis            bool
}

// VideoCalculator computes the 7-factor video risk score (§4.3).
type VideoCalculator struct {
	now func() time.Time
}

// NewVideoCalculator returns a ready VideoCalculator.
func NewVideoCalculator() *VideoCalculator {
	return &VideoCalculator{now: time.Now}
}

// Calculate returns the clamped 0-100 score and its factor breakdown.
func (c *VideoCalculator) Calculate(in VideoRiskInput) (int, VideoFactors) {
	factors := VideoFactors{
		IPMatchQuality: ipMatchScore(in),
		ViewCount:      viewCountScore(in.ViewCount),
		ViewVelocity:   viewVelocityScore(in.ViewVelocityPerHour),
		AgeVsViews:     ageVsViewsScore(in.PublishedAt, in.ViewCount, c.now()),
		Engagement:     engagementScore(in.LikeCount, in.CommentCount, in.ViewCount),
		Duration:       durationScore(in.DurationSeconds),
		ScanHistory:    scanHistoryScore(in.ScanCount, in.HasLastAnalysis, in.LastAnalysisActionable),
	}
	return factors.Sum(), factors
}

// ipMatchScore implements factor 1 (0-25 pts): 0/15/20 for 0/1/2+
// matches, +5 if the match came from one of the matched IP's configured
// high-priority keywords, +5 for any AI-tool keyword in the title or
// description.
func ipMatchScore(in VideoRiskInput) int {
	var base int
	switch len(in.MatchedIPIDs) {
	case 0:
		base = 0
	case 1:
		base = 15
	default:
		base = 20
	}

	priorityBonus := 0
	if in.MatchedHighPriorityKeyword {
		priorityBonus = 5
	}

	text := strings.ToLower(in.Title + " " + in.Description)
	aiBonus := 0
	for _, kw := range aiToolKeywords {
		if strings.Contains(text, kw) {
			aiBonus = 5
			break
		}
	}

	return clamp(base+priorityBonus+aiBonus, 0, 25)
}

// viewCountScore implements factor 2 (0-20 pts).
func viewCountScore(views int64) int {
	switch {
	case views < 1_000:
		return 2
	case views < 10_000:
		return 5
	case views < 100_000:
		return 10
	case views < 1_000_000:
		return 15
	case views < 10_000_000:
		return 18
	default:
		return 20
	}
}

// viewVelocityScore implements factor 3 (0-20 pts): views/hour thresholds.
func viewVelocityScore(velocity float64) int {
	switch {
	case velocity > 10_000:
		return 20
	case velocity > 1_000:
		return 15
	case velocity > 100:
		return 10
	case velocity > 10:
		return 5
	default:
		return 0
	}
}

// ageVsViewsScore implements factor 4 (0-15 pts), the "survivor bias"
// table: videos <30 days old always score 0; older videos with high
// views score higher, rewarding content that slipped past moderation.
func ageVsViewsScore(publishedAt time.Time, views int64, now time.Time) int {
	if publishedAt.IsZero() {
		return 0
	}
	ageDays := int(now.Sub(publishedAt).Hours() / 24)
	if ageDays <= 30 {
		return 0
	}

	switch {
	case ageDays > 180:
		switch {
		case views > 100_000:
			return 15
		case views > 10_000:
			return 5
		default:
			return 0
		}
	case ageDays > 90:
		switch {
		case views > 50_000:
			return 10
		case views > 10_000:
			return 3
		default:
			return 0
		}
	default: // 31-90 days
		if views > 10_000 {
			return 5
		}
		return 0
	}
}

// engagementScore implements factor 5 (0-10 pts).
func engagementScore(likes, comments, views int64) int {
	if views == 0 {
		return 0
	}
	rate := float64(likes+comments) / float64(views)
	switch {
	case rate > 0.05:
		return 10
	case rate > 0.02:
		return 5
	default:
		return 0
	}
}

// durationScore implements factor 6 (0-5 pts): longer videos carry more
// substantial content and so score higher.
func durationScore(seconds int) int {
	switch {
	case seconds > 600:
		return 5
	case seconds > 120:
		return 3
	case seconds > 60:
		return 1
	default:
		return 0
	}
}

// scanHistoryScore implements factor 7 (0-5 pts): a video never scanned
// is as suspicious as one with a confirmed infringement; repeated clean
// scans lower it toward 0.
func scanHistoryScore(scanCount int, hasLastAnalysis, actionable bool) int {
	if hasLastAnalysis && actionable {
		return 5
	}
	switch scanCount {
	case 0:
		return 5
	case 1:
		return 3
	case 2:
		return 1
	default:
		return 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
