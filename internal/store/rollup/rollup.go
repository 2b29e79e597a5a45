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

// HourKey returns the UTC hour bucket (YYYY-MM-DDTHH) hourly_rollups is keyed by.
func HourKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15")
}

// IncrementHourly folds one analysis outcome into the hour bucket
// containing now. Per §4.7, analyses counts only first-time analyses, and
// infringements counts only a first-time analysis or a flip of the
// contains_infringement boolean — callers decide which increments apply
// and pass 0 for the ones that don't.
func (db *DB) IncrementHourly(ctx context.Context, now time.Time, analyses, infringements int64, costEUR float64, procMs int64) error {
	hour := HourKey(now)
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO hourly_rollups (hour_utc, analyses, infringements, total_cost_eur, total_proc_ms)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (hour_utc) DO UPDATE SET
			analyses = analyses + excluded.analyses,
			infringements = infringements + excluded.infringements,
			total_cost_eur = total_cost_eur + excluded.total_cost_eur,
			total_proc_ms = total_proc_ms + excluded.total_proc_ms`,
		hour, analyses, infringements, costEUR, procMs)
	if err != nil {
		return fmt.Errorf("increment hourly rollup %s: %w", hour, err)
	}
	return nil
}

// HourlyRollup is one hour's worth of aggregate analysis activity.
type HourlyRollup struct {
	HourUTC       string
	Analyses      int64
	Infringements int64
	TotalCostEUR  float64
	TotalProcMs   int64
}

// GetHourly returns the rollup for the UTC hour containing t, or a zero
// value if nothing has been recorded for that hour.
func (db *DB) GetHourly(ctx context.Context, t time.Time) (HourlyRollup, error) {
	hour := HourKey(t)
	var r HourlyRollup
	r.HourUTC = hour
	row := db.conn.QueryRowContext(ctx,
		`SELECT analyses, infringements, total_cost_eur, total_proc_ms FROM hourly_rollups WHERE hour_utc = ?`, hour)
	err := row.Scan(&r.Analyses, &r.Infringements, &r.TotalCostEUR, &r.TotalProcMs)
	if err != nil {
		// No row yet is not an error — an hour with zero activity reads as zero.
		return HourlyRollup{HourUTC: hour}, nil //nolint:nilerr
	}
	return r, nil
}

// SystemRollup is the single dashboard-facing O(1) read of lifetime totals.
type SystemRollup struct {
	TotalAnalyzed     int64
	TotalInfringements int64
}

// IncrementSystem folds one analysis outcome into the single system-wide
// rollup row, seeding it on first use.
func (db *DB) IncrementSystem(ctx context.Context, analyzed, infringements int64) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO system_rollup (id, total_analyzed, total_infringements) VALUES (TRUE, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			total_analyzed = total_analyzed + excluded.total_analyzed,
			total_infringements = total_infringements + excluded.total_infringements`,
		analyzed, infringements)
	if err != nil {
		return fmt.Errorf("increment system rollup: %w", err)
	}
	return nil
}

// GetSystem returns the lifetime system rollup, or a zero value before the
// first analysis completes.
func (db *DB) GetSystem(ctx context.Context) (SystemRollup, error) {
	var s SystemRollup
	row := db.conn.QueryRowContext(ctx, `SELECT total_analyzed, total_infringements FROM system_rollup WHERE id = TRUE`)
	if err := row.Scan(&s.TotalAnalyzed, &s.TotalInfringements); err != nil {
		return SystemRollup{}, nil //nolint:nilerr
	}
	return s, nil
}
