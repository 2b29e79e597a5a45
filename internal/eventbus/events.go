// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package eventbus

import "time"

// Topic names for the three event streams (§6).
const (
	TopicVideoDiscovered = "video-discovered"
	TopicScanReady       = "scan-ready"
	TopicVisionFeedback  = "vision-feedback"
)

// PriorityTier is the ordinal bucket derived from scan_priority.
type PriorityTier string

const (
	TierCritical PriorityTier = "CRITICAL"
	TierHigh     PriorityTier = "HIGH"
	TierMedium   PriorityTier = "MEDIUM"
	TierLow      PriorityTier = "LOW"
	TierVeryLow  PriorityTier = "VERY_LOW"
)

// VideoMetadata is the snapshot carried by video-discovered/scan-ready
// messages — enough for the vision dispatcher to build a prompt without
// a synchronous store read.
type VideoMetadata struct {
	VideoID         string       `json:"video_id" validate:"required"`
	URL             string       `json:"url" validate:"required,url"`
	Title           string       `json:"title"`
	DurationSeconds int          `json:"duration_seconds" validate:"min=0"`
	ViewCount       int64        `json:"view_count" validate:"min=0"`
	ChannelID       string       `json:"channel_id" validate:"required"`
	ChannelTitle    string       `json:"channel_title"`
	RiskScore       int          `json:"risk_score" validate:"min=0,max=100"`
	RiskTier        PriorityTier `json:"risk_tier" validate:"required"`
	MatchedIPs      []string     `json:"matched_ips"`
	DiscoveredAt    time.Time    `json:"discovered_at"`
	ScanPriority    int          `json:"scan_priority" validate:"min=0,max=100"`
}

// VideoDiscoveredEvent describes a newly discovered video; no handler
// subscribes to its topic.
type VideoDiscoveredEvent struct {
	VideoID  string        `json:"video_id" validate:"required"`
	Priority int           `json:"priority" validate:"min=0,max=100"`
	Metadata VideoMetadata `json:"metadata" validate:"required"`
}

// ScanReadyEvent is published by the discovery dispatch trigger and
// consumed by the vision dispatcher. Same envelope shape as
// VideoDiscoveredEvent.
type ScanReadyEvent struct {
	VideoID  string        `json:"video_id" validate:"required"`
	Priority int           `json:"priority" validate:"min=0,max=100"`
	Metadata VideoMetadata `json:"metadata" validate:"required"`
}

// VisionFeedbackEvent is published by the result processor; no handler
// subscribes to its topic, so the risk engine does not receive it.
type VisionFeedbackEvent struct {
	VideoID             string    `json:"video_id" validate:"required"`
	ChannelID           string    `json:"channel_id" validate:"required"`
	ContainsInfringement bool     `json:"contains_infringement"`
	ConfidenceScore     int       `json:"confidence_score" validate:"min=0,max=100"`
	InfringementType    string    `json:"infringement_type"`
	CharactersFound     []string  `json:"characters_found"`
	AnalysisCostUSD     float64   `json:"analysis_cost_usd" validate:"min=0"`
	AnalyzedAt          time.Time `json:"analyzed_at"`
}
