package store

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
)

// Initialize creates the database schema.
func (s *SQLiteStore) Initialize() error {
	if err := s.createSchema(); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	logger.Debug("database schema ready")
	return nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
	-- Identities and credentials used for commits and remote operations
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,                -- display name, unique by convention only
		email TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL DEFAULT '', -- HTTPS password or token
		private_key_path TEXT NOT NULL DEFAULT '',
		signing_key TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_profiles_name ON profiles(name);

	-- Local clones, keyed by absolute path
	CREATE TABLE IF NOT EXISTS repositories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		profile_id TEXT REFERENCES profiles(id) ON DELETE SET NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_opened_at TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}
