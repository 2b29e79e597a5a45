// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package rollup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DB wraps a DuckDB connection holding the pipeline's ledgers and rollups.
type DB struct {
	conn *sql.DB
}

// Open creates the parent directory for path if needed, opens (or
// creates) the DuckDB file, and ensures the schema exists.
func Open(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create rollup database directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, runtime.NumCPU())

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open rollup database: %w", err)
	}
	conn.SetMaxOpenConns(1) // DuckDB single-writer-process model

	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate rollup database: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS quota_ledger (
	pacific_date TEXT PRIMARY KEY,
	units_used   BIGINT NOT NULL DEFAULT 0,
	daily_quota  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS budget_ledger (
	utc_date          TEXT PRIMARY KEY,
	total_spent_eur   DOUBLE NOT NULL DEFAULT 0,
	video_count       BIGINT NOT NULL DEFAULT 0,
	input_tokens      BIGINT NOT NULL DEFAULT 0,
	output_tokens     BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS hourly_rollups (
	hour_utc       TEXT PRIMARY KEY,
	analyses       BIGINT NOT NULL DEFAULT 0,
	infringements  BIGINT NOT NULL DEFAULT 0,
	total_cost_eur DOUBLE NOT NULL DEFAULT 0,
	total_proc_ms  BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS system_rollup (
	id                BOOLEAN PRIMARY KEY DEFAULT TRUE,
	total_analyzed    BIGINT NOT NULL DEFAULT 0,
	total_infringements BIGINT NOT NULL DEFAULT 0,
	CHECK (id)
);

CREATE TABLE IF NOT EXISTS keyword_search_history (
	keyword        TEXT NOT NULL,
	ordering       TEXT NOT NULL,
	searched_at    TIMESTAMP NOT NULL,
	results_count  BIGINT NOT NULL,
	window_days    BIGINT,
	efficiency     DOUBLE NOT NULL,
	tier           SMALLINT NOT NULL
);

CREATE TABLE IF NOT EXISTS view_snapshots (
	video_id    TEXT NOT NULL,
	snapshot_at TIMESTAMP NOT NULL,
	view_count  BIGINT NOT NULL
);
`

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, schema)
	return err
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
