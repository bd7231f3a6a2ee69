package db

import (
	"database/sql"
	"fmt"
)

// All contains the ordered list of migrations to apply.
var All = []string{
	`CREATE TABLE runs (
		id         INTEGER PRIMARY KEY,
		run_id     TEXT UNIQUE NOT NULL,
		mode       TEXT NOT NULL,
		selector   TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL
	)`,
	`CREATE TABLE conversions (
		id           INTEGER PRIMARY KEY,
		run_id       TEXT NOT NULL REFERENCES runs(run_id),
		file_path    TEXT NOT NULL,
		status       TEXT NOT NULL,
		scenarios    INTEGER NOT NULL DEFAULT 0,
		externalized INTEGER NOT NULL DEFAULT 0,
		message      TEXT NOT NULL DEFAULT '',
		converted_at TEXT NOT NULL
	)`,
	`CREATE INDEX conversions_file_path ON conversions(file_path)`,
	`CREATE TABLE scenarios (
		id            INTEGER PRIMARY KEY,
		conversion_id INTEGER NOT NULL REFERENCES conversions(id),
		name          TEXT NOT NULL,
		line          INTEGER NOT NULL
	)`,
	`CREATE TABLE database_tests (
		id                INTEGER PRIMARY KEY,
		conversion_id     INTEGER NOT NULL REFERENCES conversions(id),
		connection_string TEXT NOT NULL,
		location          TEXT NOT NULL,
		query             TEXT NOT NULL,
		validation        TEXT NOT NULL
	)`,
}

// Migrate brings the schema up to date. Each migration runs in its own
// transaction together with the version bump.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("checking schema_version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("initializing schema version: %w", err)
		}
	}

	var current int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(All); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(All[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}

		if _, err := tx.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("updating schema version to %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}

	return nil
}
