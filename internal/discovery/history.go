// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package discovery

import (
	"context"
	"math/rand"
	"time"

	"github.com/tomtom215/vigilnet/internal/store/rollup"
)

// frequencyBand is one entry of §4.2's uploads-per-day → window-size table.
type frequencyBand struct {
	minUploadsPerDay float64
	windowChoices    []int
}

var frequencyBands = []frequencyBand{
	{minUploadsPerDay: 5, windowChoices: []int{7, 10, 14, 21}},
	{minUploadsPerDay: 1, windowChoices: []int{21, 30, 45, 60}},
	{minUploadsPerDay: 0.1, windowChoices: []int{60, 90, 120, 180}},
	{minUploadsPerDay: 0, windowChoices: []int{180, 270, 365}},
}

// History decides whether a (keyword, ordering) pair should be searched
// and, if so, what time window to apply — §4.2's shouldSearch contract.
type History struct {
	db  *rollup.DB
	rng *rand.Rand
}

// NewHistory returns a History backed by db. seed is a deterministic
// source so tests can control window-size/offset selection.
func NewHistory(db *rollup.DB, seed int64) *History {
	return &History{db: db, rng: rand.New(rand.NewSource(seed))}
}

// ShouldSearch implements §4.2's contract: true is always returned (a
// combination is never permanently excluded), but the returned window is
// nil exactly once per (keyword, ordering) — the first, all-time search.
func (h *History) ShouldSearch(ctx context.Context, keyword string, order SearchOrder) (bool, *TimeWindow, error) {
	hasAllTime, err := h.db.HasAllTimeSearch(ctx, keyword, string(order))
	if err != nil {
		return false, nil, err
	}
	if !hasAllTime {
		return true, nil, nil
	}

	recent, err := h.db.RecentSearches(ctx, keyword, string(order), 5)
	if err != nil {
		return false, nil, err
	}
	window := h.generateTimeWindow(recent)
	return true, &window, nil
}

// RecordSearch appends a search-history entry. window is nil for an
// all-time search.
func (h *History) RecordSearch(ctx context.Context, keyword string, order SearchOrder, resultsCount int, window *TimeWindow, tier int) error {
	rec := rollup.KeywordSearchRecord{
		Keyword:      keyword,
		Ordering:     string(order),
		SearchedAt:   time.Now(),
		ResultsCount: resultsCount,
		Efficiency:   efficiency(resultsCount),
		Tier:         tier,
	}
	if window != nil {
		days := int(window.PublishedBefore.Sub(window.PublishedAfter).Hours() / 24)
		rec.WindowDays = &days
	}
	return h.db.RecordKeywordSearch(ctx, rec)
}

func efficiency(resultsCount int) float64 {
	if resultsCount <= 0 {
		return 0
	}
	if resultsCount >= 50 {
		return 1
	}
	return float64(resultsCount) / 50
}

// estimateUploadFrequency derives uploads/day from up to the last five
// search-history records, treating an all-time search as a 365-day window.
func estimateUploadFrequency(recent []rollup.KeywordSearchRecord) float64 {
	var totalResults, totalDays int
	limit := len(recent)
	if limit > 5 {
		limit = 5
	}
	for _, r := range recent[:limit] {
		days := 365
		if r.WindowDays != nil {
			days = *r.WindowDays
		}
		if days <= 0 {
			continue
		}
		totalResults += r.ResultsCount
		totalDays += days
	}
	if totalDays == 0 {
		return 1.0
	}
	avg := float64(totalResults) / float64(totalDays)
	if avg < 0.01 {
		return 0.01
	}
	return avg
}

func (h *History) generateTimeWindow(recent []rollup.KeywordSearchRecord) TimeWindow {
	now := time.Now()
	avgPerDay := estimateUploadFrequency(recent)

	var windowDays int
	for _, band := range frequencyBands {
		if avgPerDay > band.minUploadsPerDay {
			windowDays = band.windowChoices[h.rng.Intn(len(band.windowChoices))]
			break
		}
	}
	if windowDays == 0 {
		windowDays = frequencyBands[len(frequencyBands)-1].windowChoices[0]
	}

	daysSinceLast := 999
	if len(recent) > 0 {
		daysSinceLast = int(now.Sub(recent[0].SearchedAt).Hours() / 24)
	}
	expectedNew := avgPerDay * float64(daysSinceLast)

	var daysBack int
	roll := h.rng.Float64()
	switch {
	case expectedNew >= 15 && daysSinceLast <= 30:
		maxBack := daysSinceLast
		if maxBack < 1 {
			maxBack = 1
		}
		daysBack = h.rng.Intn(maxBack + 1)
		if daysSinceLast+1 < windowDays {
			windowDays = daysSinceLast + 1
		}
	case roll < 0.50:
		daysBack = h.rng.Intn(61)
	case roll < 0.80:
		daysBack = 30 + h.rng.Intn(336)
	default:
		daysBack = 365 + h.rng.Intn(365*4)
	}

	end := now.AddDate(0, 0, -daysBack)
	start := end.AddDate(0, 0, -windowDays)
	return TimeWindow{PublishedAfter: start, PublishedBefore: end}
}
