// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package discovery

import (
	"regexp"
	"strconv"
	"time"
)

var iso8601Duration = regexp.MustCompile(`^P(?:\d+D)?T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISO8601Duration parses a "PT[h]H[m]M[s]S" duration string into
// whole seconds, falling back to 0 on any parse failure (§4.4 step 1).
func parseISO8601Duration(s string) int {
	m := iso8601Duration.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return hours*3600 + minutes*60 + seconds
}

// parsePublishedAt parses an RFC3339 publish timestamp, falling back to
// now on parse failure (§4.4 step 1).
func parsePublishedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now()
	}
	return t
}

// preferredThumbnail returns the best available thumbnail URL, preferring
// high over medium over default (§4.4 step 1).
func preferredThumbnail(v RawVideo) string {
	switch {
	case v.ThumbnailHigh != "":
		return v.ThumbnailHigh
	case v.ThumbnailMedium != "":
		return v.ThumbnailMedium
	default:
		return v.ThumbnailDefault
	}
}
