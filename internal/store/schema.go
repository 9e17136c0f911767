package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 mirrors the experiment database layout: coordinate vectors,
// interval maps and matrices are stored as JSON text.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS module (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    round_to INTEGER NOT NULL DEFAULT 2,
    dynamic_diversities_intervals TEXT,  -- JSON {"version": [{"min":..,"max":..}]}
    const_diversities_count INTEGER NOT NULL DEFAULT 0,
    dynamic_diversities_count INTEGER NOT NULL DEFAULT 0,
    min_out_val REAL NOT NULL DEFAULT 100,
    max_out_val REAL NOT NULL DEFAULT 1000,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS version (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    const_diversities_coordinates TEXT NOT NULL,    -- JSON array
    dynamic_diversities_coordinates TEXT NOT NULL,  -- JSON array
    reliability REAL NOT NULL CHECK (reliability >= 0 AND reliability <= 1),
    module_id INTEGER NOT NULL REFERENCES module(id) ON DELETE CASCADE,
    position INTEGER NOT NULL DEFAULT 0,
    UNIQUE (module_id, name)
);
CREATE INDEX IF NOT EXISTS idx_version_module ON version(module_id, position);

CREATE TABLE IF NOT EXISTS experiment_data (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    version_id INTEGER REFERENCES version(id) ON DELETE SET NULL,
    version_name TEXT NOT NULL,
    version_reliability REAL NOT NULL,
    version_common_coordinates TEXT NOT NULL,   -- JSON {"version_coordinates": [...]}
    version_answer REAL NOT NULL,
    correct_answer REAL NOT NULL,
    module_id INTEGER NOT NULL REFERENCES module(id) ON DELETE CASCADE,
    module_name TEXT NOT NULL,
    module_connectivity_matrix TEXT NOT NULL,   -- JSON {"connectivity_matrix": [[...]]}
    module_iteration_num INTEGER NOT NULL,
    experiment_name TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_experiment_lookup
    ON experiment_data(module_id, experiment_name, module_iteration_num);

CREATE TABLE IF NOT EXISTS algorithm (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    description TEXT
);

CREATE TABLE IF NOT EXISTS vote_result (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    algorithm_id INTEGER NOT NULL REFERENCES algorithm(id) ON DELETE CASCADE,
    experiment_data_id INTEGER NOT NULL REFERENCES experiment_data(id) ON DELETE CASCADE,
    vote_answer REAL,
    UNIQUE (algorithm_id, experiment_data_id) ON CONFLICT REPLACE
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema creates the schema on a fresh database and validates integrity
// on an existing one before applying migrations.
func InitSchema(ctx context.Context, db *sql.DB) error {
	currentVersion, err := getSchemaVersion(ctx, db)
	if err != nil {
		if err := createSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}

	if err := ValidateIntegrity(ctx, db); err != nil {
		return fmt.Errorf("database integrity check failed: %w", err)
	}

	if currentVersion < SchemaVersion {
		if err := migrateSchema(ctx, db, currentVersion); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

// migrateSchema upgrades from currentVersion. Version 1 is the only version
// so far.
func migrateSchema(ctx context.Context, db *sql.DB, currentVersion int) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to record schema version after v%d: %w", currentVersion, err)
	}
	return nil
}

// ValidateIntegrity runs PRAGMA integrity_check and PRAGMA foreign_key_check.
func ValidateIntegrity(ctx context.Context, db *sql.DB) error {
	if err := integrityCheck(ctx, db); err != nil {
		return err
	}

	// The store runs on a single connection, so the previous rows must be
	// closed before the next query.
	fkRows, err := db.QueryContext(ctx, `PRAGMA foreign_key_check`)
	if err != nil {
		return fmt.Errorf("failed to run foreign_key_check: %w", err)
	}
	defer fkRows.Close()

	var fkErrors []string
	for fkRows.Next() {
		var table, parent string
		var rowid, fkid sql.NullInt64
		if err := fkRows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("failed to scan foreign_key_check result: %w", err)
		}
		fkErrors = append(fkErrors, fmt.Sprintf("table=%s rowid=%d parent=%s", table, rowid.Int64, parent))
	}
	if len(fkErrors) > 0 {
		return fmt.Errorf("foreign_key_check failed: %v", fkErrors)
	}
	return fkRows.Err()
}

func integrityCheck(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `PRAGMA integrity_check`)
	if err != nil {
		return fmt.Errorf("failed to run integrity_check: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return fmt.Errorf("failed to scan integrity_check result: %w", err)
		}
		if result != "ok" {
			return fmt.Errorf("integrity_check failed: %s", result)
		}
	}
	return rows.Err()
}
