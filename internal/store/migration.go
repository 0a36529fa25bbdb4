package store

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 3

// RunMigrations applies any pending database migrations. A database
// without a commits table is empty and gets the current schema directly.
func (s *Store) RunMigrations() error {
	if !s.tableExists("commits") {
		return s.Initialize()
	}

	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version < 2 {
		if err := s.migrateToV2(); err != nil {
			return fmt.Errorf("migration to v2 failed: %w", err)
		}
	}
	if version < 3 {
		if err := s.migrateToV3(); err != nil {
			return fmt.Errorf("migration to v3 failed: %w", err)
		}
	}

	return nil
}

// getSchemaVersion returns the current schema version, 1 if not set
func (s *Store) getSchemaVersion() (int, error) {
	// Check if version table exists
	var tableName string
	err := s.db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		// Table doesn't exist, this is v1
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 1) FROM schema_version").Scan(&version)
	if err != nil {
		return 1, nil
	}

	return version, nil
}

// migrateToV2 adds workplace string tracking, the stash owner index and
// the commit hash column
func (s *Store) migrateToV2() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)`,

		`CREATE TABLE IF NOT EXISTS workplace_strings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			workplaceid TEXT NOT NULL,
			component TEXT NOT NULL,
			string_id TEXT NOT NULL,
			UNIQUE (component, string_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_stashes_owner ON stashes(owner_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	// Version 1 databases predate imported commit hashes
	if !s.columnExists("commits", "commit_hash") {
		if _, err := s.db.Exec(`ALTER TABLE commits ADD COLUMN commit_hash TEXT`); err != nil {
			return err
		}
	}

	// Record migration version
	_, err := s.db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", 2)
	return err
}

// migrateToV3 adds contributions
func (s *Store) migrateToV3() error {
	if _, err := s.db.Exec(contributionsTable); err != nil {
		return err
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_contributions_lang ON contributions(lang, state)`); err != nil {
		return err
	}
	_, err := s.db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", 3)
	return err
}

// tableExists checks if a table exists in the database
func (s *Store) tableExists(table string) bool {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?
	`, table).Scan(&count)
	return err == nil && count > 0
}

// columnExists checks if a column exists in a table
func (s *Store) columnExists(table, column string) bool {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?)
		WHERE name = ?
	`, table, column).Scan(&count)
	return err == nil && count > 0
}
