// Package ledger records every run in a local SQLite database so past runs
// can be audited and listed.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBPath returns the path of the run ledger under the work directory
func DBPath(workDir string) string {
	return filepath.Join(workDir, "data", "wind-wave.db")
}

// EnsureSchema creates the ledger tables if they do not exist yet
func EnsureSchema(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database to ensure schema: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			input_date TEXT NOT NULL,
			output_date TEXT NOT NULL,
			product TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS variant_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			variant TEXT NOT NULL,
			status TEXT NOT NULL,
			stage TEXT,
			error TEXT,
			row_count INTEGER NOT NULL DEFAULT 0,
			output_dir TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_variant_runs_run ON variant_runs(run_id);

		CREATE TABLE IF NOT EXISTS uploads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			variant_run_id INTEGER NOT NULL REFERENCES variant_runs(id),
			endpoint TEXT NOT NULL,
			remote_path TEXT NOT NULL,
			bytes INTEGER NOT NULL DEFAULT 0,
			error TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_uploads_variant_run ON uploads(variant_run_id);
	`)
	if err != nil {
		return fmt.Errorf("creating ledger tables: %w", err)
	}

	return nil
}
