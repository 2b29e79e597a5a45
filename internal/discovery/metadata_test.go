// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseISO8601Duration(t *testing.T) {
	cases := map[string]int{
		"PT4M13S":  4*60 + 13,
		"PT1H2M3S": 3600 + 2*60 + 3,
		"PT45S":    45,
		"PT2H":     7200,
		"garbage":  0,
		"":         0,
	}
	for input, want := range cases {
		assert.Equal(t, want, parseISO8601Duration(input), "input=%s", input)
	}
}

func TestParsePublishedAt_FallsBackToNowOnParseFailure(t *testing.T) {
	before := time.Now()
	got := parsePublishedAt("not-a-timestamp")
	assert.False(t, got.Before(before))
}

func TestParsePublishedAt_ParsesValidRFC3339(t *testing.T) {
	got := parsePublishedAt("2026-01-02T03:04:05Z")
	assert.Equal(t, 2026, got.Year())
}

func TestPreferredThumbnail_PrefersHighOverMediumOverDefault(t *testing.T) {
	assert.Equal(t, "high", preferredThumbnail(RawVideo{ThumbnailHigh: "high", ThumbnailMedium: "medium", ThumbnailDefault: "default"}))
	assert.Equal(t, "medium", preferredThumbnail(RawVideo{ThumbnailMedium: "medium", ThumbnailDefault: "default"}))
	assert.Equal(t, "default", preferredThumbnail(RawVideo{ThumbnailDefault: "default"}))
}
