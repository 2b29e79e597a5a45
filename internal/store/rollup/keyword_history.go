// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package rollup

import (
	"context"
	"fmt"
	"time"
)

// KeywordSearchRecord is one append-only entry of the search-history
// generator's (§4.2) record of a (keyword, ordering) query.
type KeywordSearchRecord struct {
	Keyword      string
	Ordering     string
	SearchedAt   time.Time
	ResultsCount int
	WindowDays   *int // nil means an all-time search
	Efficiency   float64
	Tier         int
}

// RecordKeywordSearch appends one search-history entry.
func (db *DB) RecordKeywordSearch(ctx context.Context, r KeywordSearchRecord) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO keyword_search_history (keyword, ordering, searched_at, results_count, window_days, efficiency, tier)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Keyword, r.Ordering, r.SearchedAt.UTC(), r.ResultsCount, r.WindowDays, r.Efficiency, r.Tier)
	if err != nil {
		return fmt.Errorf("record keyword search %s/%s: %w", r.Keyword, r.Ordering, err)
	}
	return nil
}

// LastSearch returns the most recent search-history record for
// (keyword, ordering), or (nil, nil) if the pair has never been searched.
func (db *DB) LastSearch(ctx context.Context, keyword, ordering string) (*KeywordSearchRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT keyword, ordering, searched_at, results_count, window_days, efficiency, tier
		 FROM keyword_search_history
		 WHERE keyword = ? AND ordering = ?
		 ORDER BY searched_at DESC LIMIT 1`, keyword, ordering)

	var r KeywordSearchRecord
	if err := row.Scan(&r.Keyword, &r.Ordering, &r.SearchedAt, &r.ResultsCount, &r.WindowDays, &r.Efficiency, &r.Tier); err != nil {
		return nil, nil //nolint:nilerr // no prior search is a valid, non-error state
	}
	return &r, nil
}

// HasAllTimeSearch reports whether an all-time (WindowDays == nil) search
// has already been performed for (keyword, ordering) — the signal that
// drives shouldSearch's branch to windowed-only queries (§4.2).
func (db *DB) HasAllTimeSearch(ctx context.Context, keyword, ordering string) (bool, error) {
	var count int
	row := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM keyword_search_history WHERE keyword = ? AND ordering = ? AND window_days IS NULL`,
		keyword, ordering)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check all-time search %s/%s: %w", keyword, ordering, err)
	}
	return count > 0, nil
}

// RecentSearches returns up to limit most recent records for
// (keyword, ordering), newest first — the window used to estimate
// uploads-per-day (§4.2 uses the last five).
func (db *DB) RecentSearches(ctx context.Context, keyword, ordering string, limit int) ([]KeywordSearchRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT keyword, ordering, searched_at, results_count, window_days, efficiency, tier
		 FROM keyword_search_history
		 WHERE keyword = ? AND ordering = ?
		 ORDER BY searched_at DESC LIMIT ?`, keyword, ordering, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent searches %s/%s: %w", keyword, ordering, err)
	}
	defer rows.Close()

	var records []KeywordSearchRecord
	for rows.Next() {
		var r KeywordSearchRecord
		if err := rows.Scan(&r.Keyword, &r.Ordering, &r.SearchedAt, &r.ResultsCount, &r.WindowDays, &r.Efficiency, &r.Tier); err != nil {
			return nil, fmt.Errorf("scan search history row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// KeywordTier returns the most recently recorded tier for (keyword,
// ordering), or 3 (the default for a never-searched pair) per §4.1.
func (db *DB) KeywordTier(ctx context.Context, keyword, ordering string) (int, error) {
	last, err := db.LastSearch(ctx, keyword, ordering)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 3, nil
	}
	return last.Tier, nil
}

// RecordViewSnapshot appends a (video_id, timestamp, view_count) sample.
func (db *DB) RecordViewSnapshot(ctx context.Context, videoID string, at time.Time, viewCount int64) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO view_snapshots (video_id, snapshot_at, view_count) VALUES (?, ?, ?)`,
		videoID, at.UTC(), viewCount)
	if err != nil {
		return fmt.Errorf("record view snapshot for %s: %w", videoID, err)
	}
	return nil
}

// ViewVelocity computes views/hour between the two most recent snapshots
// for videoID. Returns 0 if fewer than two snapshots exist.
func (db *DB) ViewVelocity(ctx context.Context, videoID string) (float64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT snapshot_at, view_count FROM view_snapshots WHERE video_id = ? ORDER BY snapshot_at DESC LIMIT 2`, videoID)
	if err != nil {
		return 0, fmt.Errorf("list view snapshots for %s: %w", videoID, err)
	}
	defer rows.Close()

	type sample struct {
		at    time.Time
		views int64
	}
	var samples []sample
	for rows.Next() {
		var s sample
		if err := rows.Scan(&s.at, &s.views); err != nil {
			return 0, fmt.Errorf("scan view snapshot row: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(samples) < 2 {
		return 0, nil
	}

	hours := samples[0].at.Sub(samples[1].at).Hours()
	if hours <= 0 {
		return 0, nil
	}
	deltaViews := samples[0].views - samples[1].views
	if deltaViews < 0 {
		return 0, nil
	}
	return float64(deltaViews) / hours, nil
}
