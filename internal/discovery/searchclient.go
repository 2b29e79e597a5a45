// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

/*
searchclient.go - video platform search API client

This file implements the Client interface against the platform's REST
search API. It provides keyword search, video details, channel details,
and channel-uploads pagination.
*/

package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Ensure SearchClient implements Client.
var _ Client = (*SearchClient)(nil)

// SearchClient is a REST client for the external video-platform search
// API. The scheduler wraps it in its own circuit breaker, so this type
// stays a plain HTTP client with no resilience logic of its own.
type SearchClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSearchClient returns a ready SearchClient.
func NewSearchClient(baseURL, apiKey string) *SearchClient {
	return &SearchClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *SearchClient) doRequest(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	query.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	return c.httpClient.Do(req)
}

func readError(endpoint string, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body)", endpoint, resp.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, string(body))
}

type searchListResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet videoSnippet `json:"snippet"`
	} `json:"items"`
}

type videoSnippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Tags         []string `json:"tags"`
	Thumbnails   struct {
		Default struct{ URL string } `json:"default"`
		Medium  struct{ URL string } `json:"medium"`
		High    struct{ URL string } `json:"high"`
	} `json:"thumbnails"`
}

// SearchVideos runs one page of a keyword search (§4.1).
func (c *SearchClient) SearchVideos(ctx context.Context, keyword string, order SearchOrder, window *TimeWindow, pageToken string) (SearchPage, error) {
	query := url.Values{
		"part":       {"snippet"},
		"q":          {keyword},
		"type":       {"video"},
		"order":      {string(order)},
		"maxResults": {"50"},
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}
	if window != nil {
		if !window.PublishedAfter.IsZero() {
			query.Set("publishedAfter", window.PublishedAfter.UTC().Format(time.RFC3339))
		}
		if !window.PublishedBefore.IsZero() {
			query.Set("publishedBefore", window.PublishedBefore.UTC().Format(time.RFC3339))
		}
	}

	resp, err := c.doRequest(ctx, "/search", query)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return SearchPage{}, readError("search", resp)
	}

	var parsed searchListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return SearchPage{}, fmt.Errorf("decode search response: %w", err)
	}

	page := SearchPage{NextPageToken: parsed.NextPageToken}
	for _, item := range parsed.Items {
		page.Videos = append(page.Videos, RawVideo{
			VideoID:          item.ID.VideoID,
			Title:            item.Snippet.Title,
			Description:      item.Snippet.Description,
			Tags:             item.Snippet.Tags,
			ChannelID:        item.Snippet.ChannelID,
			ChannelTitle:     item.Snippet.ChannelTitle,
			PublishedAt:      item.Snippet.PublishedAt,
			ThumbnailDefault: item.Snippet.Thumbnails.Default.URL,
			ThumbnailMedium:  item.Snippet.Thumbnails.Medium.URL,
			ThumbnailHigh:    item.Snippet.Thumbnails.High.URL,
		})
	}
	return page, nil
}

type videoListResponse struct {
	Items []struct {
		ID      string       `json:"id"`
		Snippet videoSnippet `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// VideoDetails fetches full metadata for up to 50 video ids in one call (§4.1).
func (c *SearchClient) VideoDetails(ctx context.Context, videoIDs []string) ([]RawVideo, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	query := url.Values{
		"part": {"snippet,statistics,contentDetails"},
		"id":   {strings.Join(videoIDs, ",")},
	}

	resp, err := c.doRequest(ctx, "/videos", query)
	if err != nil {
		return nil, fmt.Errorf("video details request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, readError("video details", resp)
	}

	var parsed videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode video details response: %w", err)
	}

	videos := make([]RawVideo, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		videos = append(videos, RawVideo{
			VideoID:          item.ID,
			Title:            item.Snippet.Title,
			Description:      item.Snippet.Description,
			Tags:             item.Snippet.Tags,
			ChannelID:        item.Snippet.ChannelID,
			ChannelTitle:     item.Snippet.ChannelTitle,
			PublishedAt:      item.Snippet.PublishedAt,
			DurationISO8601:  item.ContentDetails.Duration,
			ViewCount:        parseCount(item.Statistics.ViewCount),
			LikeCount:        parseCount(item.Statistics.LikeCount),
			CommentCount:     parseCount(item.Statistics.CommentCount),
			ThumbnailDefault: item.Snippet.Thumbnails.Default.URL,
			ThumbnailMedium:  item.Snippet.Thumbnails.Medium.URL,
			ThumbnailHigh:    item.Snippet.Thumbnails.High.URL,
		})
	}
	return videos, nil
}

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		Statistics struct {
			VideoCount      string `json:"videoCount"`
			SubscriberCount string `json:"subscriberCount"`
		} `json:"statistics"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// ChannelDetails fetches one channel's metadata and upload-playlist id (§4.1).
func (c *SearchClient) ChannelDetails(ctx context.Context, channelID string) (RawChannel, error) {
	query := url.Values{
		"part": {"snippet,statistics,contentDetails"},
		"id":   {channelID},
	}

	resp, err := c.doRequest(ctx, "/channels", query)
	if err != nil {
		return RawChannel{}, fmt.Errorf("channel details request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return RawChannel{}, readError("channel details", resp)
	}

	var parsed channelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return RawChannel{}, fmt.Errorf("decode channel details response: %w", err)
	}
	if len(parsed.Items) == 0 {
		return RawChannel{}, fmt.Errorf("channel details: channel %s not found", channelID)
	}

	item := parsed.Items[0]
	return RawChannel{
		ChannelID:         item.ID,
		Title:             item.Snippet.Title,
		VideoCount:        int(parseCount(item.Statistics.VideoCount)),
		SubscriberCount:   parseCount(item.Statistics.SubscriberCount),
		UploadsPlaylistID: item.ContentDetails.RelatedPlaylists.Uploads,
	}, nil
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// ChannelUploads lists a page of a channel's uploaded video ids (§4.1).
func (c *SearchClient) ChannelUploads(ctx context.Context, uploadsPlaylistID string, pageToken string) ([]string, string, error) {
	query := url.Values{
		"part":       {"contentDetails"},
		"playlistId": {uploadsPlaylistID},
		"maxResults": {"50"},
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	resp, err := c.doRequest(ctx, "/playlistItems", query)
	if err != nil {
		return nil, "", fmt.Errorf("channel uploads request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", readError("channel uploads", resp)
	}

	var parsed playlistItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, "", fmt.Errorf("decode channel uploads response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		ids = append(ids, item.ContentDetails.VideoID)
	}
	return ids, parsed.NextPageToken, nil
}

func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
