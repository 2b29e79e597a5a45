// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package store persists the pipeline's data model (§3): per-video and
// per-channel truth in BadgerDB, keyed by prefix and transaction per the
// teacher's session store, plus write-heavy rollups and ledgers in DuckDB.
//
// BadgerDB holds the entities read and written on the hot path — Video,
// Channel, ScanHistory — where point lookups by id dominate. DuckDB holds
// append-only and counter-aggregate data — keyword-search history, view
// snapshots, hourly/system rollups, the daily quota and budget ledgers —
// where the access pattern is bulk append plus periodic scan, not point
// lookup.
package store
