package graph

import (
	"database/sql"
	"fmt"
)

const symbolSchemaVersion = 1

// migrateSymbolSchema creates the types and scans tables.
func migrateSymbolSchema(db *sql.DB) error {
	var version int
	_ = db.QueryRow(`PRAGMA user_version`).Scan(&version)
	if version >= symbolSchemaVersion {
		return nil
	}

	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS types (
  project_key    TEXT    NOT NULL,
  file_path      TEXT    NOT NULL,
  unique_name    TEXT    NOT NULL,
  simple_name    TEXT    NOT NULL,
  declaring_type TEXT    NOT NULL DEFAULT '',
  start_line     INTEGER NOT NULL,
  end_line       INTEGER NOT NULL,
  is_interface   INTEGER NOT NULL DEFAULT 0,
  generics       TEXT    NOT NULL DEFAULT '[]',
  PRIMARY KEY (project_key, file_path, unique_name)
);
CREATE INDEX IF NOT EXISTS idx_types_project_name ON types(project_key, unique_name);
CREATE INDEX IF NOT EXISTS idx_types_project_declaring ON types(project_key, declaring_type);

CREATE TABLE IF NOT EXISTS scans (
  id           TEXT    PRIMARY KEY,
  project_key  TEXT    NOT NULL,
  started_at   INTEGER NOT NULL,
  duration_ms  INTEGER NOT NULL DEFAULT 0,
  files        INTEGER NOT NULL DEFAULT 0,
  types        INTEGER NOT NULL DEFAULT 0,
  failures     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_scans_project_started ON scans(project_key, started_at);
`)
	if err != nil {
		return fmt.Errorf("migrate symbol schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, symbolSchemaVersion)); err != nil {
		return fmt.Errorf("set symbol schema version: %w", err)
	}
	return nil
}
