package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	logger.WithField("path", dbPath).Debug("opened database")
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// AddRepository registers a local clone. Paths are unique.
func (s *SQLiteStore) AddRepository(repo *Repository) error {
	query := `
		INSERT INTO repositories (id, name, path, profile_id, created_at, updated_at, last_opened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		repo.ID,
		repo.Name,
		repo.Path,
		ToNullString(repo.ProfileID),
		repo.CreatedAt,
		repo.UpdatedAt,
		ToNullTime(repo.LastOpenedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRepositoryExists
		}
		return fmt.Errorf("insert repository: %w", err)
	}
	return nil
}

// GetRepository retrieves a repository by ID.
func (s *SQLiteStore) GetRepository(id string) (*Repository, error) {
	query := `
		SELECT id, name, path, profile_id, created_at, updated_at, last_opened_at
		FROM repositories
		WHERE id = ?
	`
	return s.scanRepository(s.db.QueryRow(query, id))
}

// GetRepositoryByPath retrieves a repository by its absolute path.
func (s *SQLiteStore) GetRepositoryByPath(path string) (*Repository, error) {
	query := `
		SELECT id, name, path, profile_id, created_at, updated_at, last_opened_at
		FROM repositories
		WHERE path = ?
	`
	return s.scanRepository(s.db.QueryRow(query, path))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanRepository(row rowScanner) (*Repository, error) {
	var repo Repository
	var profileID sql.NullString
	var lastOpenedAt sql.NullTime

	err := row.Scan(
		&repo.ID,
		&repo.Name,
		&repo.Path,
		&profileID,
		&repo.CreatedAt,
		&repo.UpdatedAt,
		&lastOpenedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan repository: %w", err)
	}

	repo.ProfileID = FromNullString(profileID)
	repo.LastOpenedAt = FromNullTime(lastOpenedAt)

	return &repo, nil
}

// ListRepositories lists repositories with cursor-based pagination.
func (s *SQLiteStore) ListRepositories(cursor string, limit int) ([]Repository, error) {
	query := `
		SELECT id, name, path, profile_id, created_at, updated_at, last_opened_at
		FROM repositories
		WHERE id > ?
		ORDER BY id
		LIMIT ?
	`

	rows, err := s.db.Query(query, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("query repositories: %w", err)
	}
	defer rows.Close()

	var repos []Repository
	for rows.Next() {
		repo, err := s.scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, *repo)
	}

	return repos, rows.Err()
}

// SetRepositoryProfile assigns a profile to a repository, or clears it
// when profileID is nil.
func (s *SQLiteStore) SetRepositoryProfile(repoID string, profileID *string) error {
	result, err := s.db.Exec(`
		UPDATE repositories
		SET profile_id = ?, updated_at = ?
		WHERE id = ?
	`, ToNullString(profileID), time.Now(), repoID)
	if err != nil {
		return fmt.Errorf("update repository profile: %w", err)
	}

	return requireAffected(result)
}

// TouchRepository records when a repository was last opened.
func (s *SQLiteStore) TouchRepository(id string, openedAt time.Time) error {
	_, err := s.db.Exec("UPDATE repositories SET last_opened_at = ? WHERE id = ?", openedAt, id)
	if err != nil {
		return fmt.Errorf("update repository last_opened_at: %w", err)
	}
	return nil
}

// DeleteRepository forgets a repository. Files on disk are untouched.
func (s *SQLiteStore) DeleteRepository(id string) error {
	result, err := s.db.Exec("DELETE FROM repositories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}

	return requireAffected(result)
}

// CreateProfile creates a new profile.
func (s *SQLiteStore) CreateProfile(profile *Profile) error {
	query := `
		INSERT INTO profiles (
			id, name, email, username, password,
			private_key_path, signing_key, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		profile.ID,
		profile.Name,
		profile.Email,
		profile.Username,
		profile.Password,
		profile.PrivateKeyPath,
		profile.SigningKey,
		profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by ID.
func (s *SQLiteStore) GetProfile(id string) (*Profile, error) {
	query := `
		SELECT id, name, email, username, password,
			   private_key_path, signing_key, created_at
		FROM profiles
		WHERE id = ?
	`
	return s.scanProfile(s.db.QueryRow(query, id))
}

func (s *SQLiteStore) scanProfile(row rowScanner) (*Profile, error) {
	var p Profile

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Username,
		&p.Password,
		&p.PrivateKeyPath,
		&p.SigningKey,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	return &p, nil
}

// ListProfiles returns every profile ordered by name.
func (s *SQLiteStore) ListProfiles() ([]Profile, error) {
	rows, err := s.db.Query(`
		SELECT id, name, email, username, password,
			   private_key_path, signing_key, created_at
		FROM profiles
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := s.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}

	return profiles, rows.Err()
}

// UpdateProfile updates a profile's mutable fields.
func (s *SQLiteStore) UpdateProfile(profile *Profile) error {
	result, err := s.db.Exec(`
		UPDATE profiles
		SET name = ?, email = ?, username = ?, password = ?,
			private_key_path = ?, signing_key = ?
		WHERE id = ?
	`,
		profile.Name,
		profile.Email,
		profile.Username,
		profile.Password,
		profile.PrivateKeyPath,
		profile.SigningKey,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return requireAffected(result)
}

// DeleteProfile deletes a profile. Repositories using it fall back to
// no profile via ON DELETE SET NULL.
func (s *SQLiteStore) DeleteProfile(id string) error {
	result, err := s.db.Exec("DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	return requireAffected(result)
}

// CountProfilesWithName counts profiles named name, ignoring excludingID.
func (s *SQLiteStore) CountProfilesWithName(name, excludingID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM profiles WHERE name = ? AND id != ?",
		name, excludingID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
