// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

// Package rollup persists the pipeline's write-heavy, append-or-increment
// data in DuckDB: the daily quota ledger (Pacific-time keyed), the daily
// budget ledger (UTC keyed), hourly and system analysis rollups, the
// keyword-search history the discovery scheduler reads back, and a
// view-snapshot table (RecordViewSnapshot/ViewVelocity) that no pipeline
// stage writes or reads.
//
// None of these are point-lookup-by-id hot paths — they are append-only
// or atomic-increment aggregates read in bulk — which is why they live in
// DuckDB rather than alongside store.VideoStore/ChannelStore in BadgerDB.
package rollup
