// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package discovery implements the scan-priority pipeline's first stage:
// a budget-bounded search plan, search-history deduplication, the
// text-only video processor, and the fresh-content/channel-scan
// supplements (§4.1, §4.2, §4.4).
package discovery

import (
	"context"
	"time"
)

// SearchOrder is one of the external search API's result orderings.
// Querying the same keyword under a different order surfaces a
// different top-N result set (§4.1's rationale for varying it).
type SearchOrder string

const (
	OrderDate      SearchOrder = "date"
	OrderViewCount SearchOrder = "viewCount"
	OrderRating    SearchOrder = "rating"
	OrderRelevance SearchOrder = "relevance"
)

// AllOrders lists every ordering a keyword can be queried under.
var AllOrders = []SearchOrder{OrderDate, OrderViewCount, OrderRating, OrderRelevance}

// TimeWindow bounds a search by publish date, inclusive.
type TimeWindow struct {
	PublishedAfter  time.Time
	PublishedBefore time.Time
}

// RawVideo is the external API's video representation, in either its
// search-result or details-fetch shape — both are normalized by
// ExtractMetadata (§4.4 step 1).
type RawVideo struct {
	VideoID         string
	Title           string
	Description     string
	Tags            []string
	ChannelID       string
	ChannelTitle    string
	PublishedAt     string // RFC3339; parse failures fall back to now
	DurationISO8601 string // e.g. "PT4M13S"; parse failures fall back to 0
	ViewCount       int64
	LikeCount       int64
	CommentCount    int64
	ThumbnailHigh   string
	ThumbnailMedium string
	ThumbnailDefault string
}

// RawChannel is the external API's channel representation.
type RawChannel struct {
	ChannelID        string
	Title            string
	VideoCount       int
	SubscriberCount  int64
	UploadsPlaylistID string
}

// SearchPage is one page of keyword-search results.
type SearchPage struct {
	Videos      []RawVideo
	NextPageToken string
}

// Client abstracts the external video-platform search API. Keyword
// searches cost 100 units/page, channel-upload pagination and details
// fetches cost 1 unit per call, matching §4.1's quota accounting.
type Client interface {
	// SearchVideos runs one page of a keyword search under the given
	// ordering and optional time window.
	SearchVideos(ctx context.Context, keyword string, order SearchOrder, window *TimeWindow, pageToken string) (SearchPage, error)

	// VideoDetails fetches full metadata for up to 50 video ids in one call.
	VideoDetails(ctx context.Context, videoIDs []string) ([]RawVideo, error)

	// ChannelDetails fetches one channel's metadata and upload-playlist id.
	ChannelDetails(ctx context.Context, channelID string) (RawChannel, error)

	// ChannelUploads lists a page of a channel's uploaded video ids.
	ChannelUploads(ctx context.Context, uploadsPlaylistID string, pageToken string) (ids []string, nextPageToken string, err error)
}

// OperationCost is the external API's per-operation unit cost, mirroring
// the source pipeline's YouTube Data API v3 quota table.
const (
	CostSearchPage     = 100
	CostVideoDetails   = 1
	CostChannelDetails = 1
	CostPlaylistPage   = 1
	CostChannelScan    = 2
)
