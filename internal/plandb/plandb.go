// Package plandb persists schedule runs in sqlite: one row per run plus one
// row per (layer, part) assignment. It also exposes the admin debug surface
// (live SQL browser, downloadable backups) for operating a scheduler
// deployment.
package plandb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Schema creates the run store tables. Kept in sync with the migrations in
// migrations/; NewDB applies it directly so tests and fresh databases work
// without running the migrate CLI.
const Schema = `
	CREATE TABLE IF NOT EXISTS schedule_runs (
		run_id        TEXT PRIMARY KEY,
		created_at    BIGINT NOT NULL,
		ordering      TEXT NOT NULL,
		tolerance_mm  DOUBLE NOT NULL,
		pitch_deg     DOUBLE NOT NULL,
		yaw_deg       DOUBLE NOT NULL,
		roll_deg      DOUBLE NOT NULL,
		part_count    BIGINT NOT NULL,
		layer_count   BIGINT NOT NULL,
		source        TEXT NOT NULL DEFAULT '',
		notes         TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS schedule_layers (
		run_id        TEXT NOT NULL,
		layer_index   BIGINT NOT NULL,
		part_id       TEXT NOT NULL,
		part_name     TEXT NOT NULL,
		step_index    BIGINT NOT NULL,
		distance_mm   DOUBLE NOT NULL,
		PRIMARY KEY (run_id, layer_index, part_id),
		FOREIGN KEY (run_id) REFERENCES schedule_runs(run_id)
	);
	CREATE INDEX IF NOT EXISTS idx_schedule_layers_run
		ON schedule_layers (run_id, layer_index);
`

type DB struct {
	*sql.DB
	path string
}

// NewDB opens the run store at path and ensures the schema exists.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// OpenDB opens the run store at path without touching the schema. The
// migrate subcommand uses this so migrations fully own schema changes.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DB{DB: db, path: path}, nil
}

// Path returns the filesystem path the store was opened with.
func (db *DB) Path() string { return db.path }
