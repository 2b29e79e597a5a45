// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package store

import "time"

// VideoStatus is the lifecycle state of a discovered video (§3).
type VideoStatus string

const (
	StatusDiscovered       VideoStatus = "discovered"
	StatusProcessing       VideoStatus = "processing"
	StatusAnalyzed         VideoStatus = "analyzed"
	StatusFailed           VideoStatus = "failed"
	StatusSkippedLowPriority VideoStatus = "skipped_low_priority"
)

// PriorityTier is the ordinal bucket scan_priority maps to (§4.3).
type PriorityTier string

const (
	TierCritical PriorityTier = "CRITICAL"
	TierHigh     PriorityTier = "HIGH"
	TierMedium   PriorityTier = "MEDIUM"
	TierLow      PriorityTier = "LOW"
	TierVeryLow  PriorityTier = "VERY_LOW"
)

// IPBreakdown is one protected-property's verdict within an analysis.
type IPBreakdown struct {
	IPConfigID       string   `json:"ip_config_id"`
	Matched          bool     `json:"matched"`
	ConfidenceScore  int      `json:"confidence_score"`
	InfringementType string   `json:"infringement_type"`
	CharactersFound  []string `json:"characters_found"`
}

// AnalysisSummary is the last vision-model result folded onto a Video.
type AnalysisSummary struct {
	ContainsInfringement  bool          `json:"contains_infringement"`
	OverallRecommendation string        `json:"overall_recommendation"`
	PerIPBreakdown        []IPBreakdown `json:"per_ip_breakdown"`
	CostUSD               float64       `json:"cost_usd"`
	InputTokens           int           `json:"input_tokens"`
	OutputTokens          int           `json:"output_tokens"`
	AnalyzedAt            time.Time     `json:"analyzed_at"`
}

// Actionable reports whether this analysis requires a takedown action.
// Deliberately narrower than "contains_infringement": only the model's
// immediate_takedown recommendation counts (§4.7).
func (a *AnalysisSummary) Actionable() bool {
	return a != nil && a.OverallRecommendation == "immediate_takedown"
}

// Video is the primary entity, keyed by external video id (§3).
type Video struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Tags               []string         `json:"tags"`
	ChannelID          string           `json:"channel_id"`
	ChannelTitle       string           `json:"channel_title"`
	DurationSeconds    int              `json:"duration_seconds"`
	ViewCount          int64            `json:"view_count"`
	LikeCount          int64            `json:"like_count"`
	CommentCount       int64            `json:"comment_count"`
	DiscoveredAt       time.Time        `json:"discovered_at"`
	MatchedIPConfigIDs []string         `json:"matched_ip_config_ids"`
	MatchedHighPriority bool            `json:"matched_high_priority"`
	Status             VideoStatus      `json:"status"`
	InitialRisk        int              `json:"initial_risk"`
	CurrentRisk        int              `json:"current_risk"`
	PriorityTier       PriorityTier     `json:"priority_tier"`
	ScanCount          int              `json:"scan_count"`
	LastAnalysis       *AnalysisSummary `json:"last_analysis,omitempty"`
	ViewVelocity       float64          `json:"view_velocity"`
	Deleted            bool             `json:"deleted"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Channel is per-uploader reputation (§3).
type Channel struct {
	ID                      string    `json:"id"`
	Title                   string    `json:"title"`
	TotalVideosFound        int       `json:"total_videos_found"`
	VideosScanned           int       `json:"videos_scanned"`
	ConfirmedInfringements  int       `json:"confirmed_infringements"`
	VideosCleared           int       `json:"videos_cleared"`
	InfringingVideosCount   int       `json:"infringing_videos_count"`
	TotalInfringingViews    int64     `json:"total_infringing_views"`
	TotalViews              int64     `json:"total_views"`
	SubscriberCount         int64     `json:"subscriber_count"`
	FirstSeenAt             time.Time `json:"first_seen_at"`
	LastScannedAt           time.Time `json:"last_scanned_at"`
	ChannelRisk             int       `json:"channel_risk"`
}

// Reconciled reports whether the invariant videos_scanned ==
// confirmed_infringements + videos_cleared holds.
func (c *Channel) Reconciled() bool {
	return c.VideosScanned == c.ConfirmedInfringements+c.VideosCleared
}

// ScanStatus is the lifecycle state of a single dispatched analysis attempt.
type ScanStatus string

const (
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// ScanHistoryRecord is one dispatched analysis attempt (§3, §4.9).
type ScanHistoryRecord struct {
	ScanID      string     `json:"scan_id"`
	VideoID     string     `json:"video_id"`
	Status      ScanStatus `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at"`
	Error       string     `json:"error,omitempty"`
}
