// Package qrevdb persists computed measurements and their per-transect
// discharge breakdowns in sqlite.
package qrevdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sqlite connection.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the measurement database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("qrevdb: open %s: %w", path, err)
	}

	// Single writer; avoids SQLITE_BUSY from concurrent API reads.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("qrevdb: set pragmas: %w", err)
	}

	d := &DB{db}
	if err := d.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// ensureSchema bootstraps the baseline tables. Schema evolution beyond the
// baseline goes through migrations (see migrate.go).
func (db *DB) ensureSchema() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS measurements (
			measurement_id    TEXT PRIMARY KEY,
			station_name      TEXT,
			mean_total_cms    DOUBLE,
			cov               DOUBLE,
			valid_transects   BIGINT,
			total_transects   BIGINT,
			created_at        TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS transects (
			transect_id       INTEGER PRIMARY KEY AUTOINCREMENT,
			measurement_id    TEXT NOT NULL,
			filename          TEXT,
			start_time        DOUBLE,
			end_time          DOUBLE,
			top_cms           DOUBLE,
			middle_cms        DOUBLE,
			bottom_cms        DOUBLE,
			left_cms          DOUBLE,
			right_cms         DOUBLE,
			total_cms         DOUBLE,
			pct_invalid_cells DOUBLE,
			pct_invalid_ens   DOUBLE,
			nav_reference     TEXT,
			valid             BOOLEAN,
			failure           TEXT,
			FOREIGN KEY(measurement_id) REFERENCES measurements(measurement_id)
		);
		CREATE INDEX IF NOT EXISTS idx_transects_measurement
			ON transects(measurement_id);
	`)
	if err != nil {
		return fmt.Errorf("qrevdb: create schema: %w", err)
	}
	return nil
}
