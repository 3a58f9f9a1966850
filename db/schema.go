// ABOUTME: History database schema: bulk import runs, their row errors and sync state
// ABOUTME: Tables are created idempotently on every open
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS import_runs (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	template_id TEXT,
	total_rows INTEGER NOT NULL DEFAULT 0,
	success_count INTEGER NOT NULL DEFAULT 0,
	error_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_import_runs_created_at ON import_runs(created_at);

CREATE TABLE IF NOT EXISTS import_row_errors (
	run_id TEXT NOT NULL,
	row_number INTEGER NOT NULL,
	message TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES import_runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_import_row_errors_run ON import_row_errors(run_id);

CREATE TABLE IF NOT EXISTS sync_state (
	resource TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
