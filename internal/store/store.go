package store

import (
	"database/sql"
	"time"
)

// Store defines the database interface.
type Store interface {
	Initialize() error

	// Repository operations
	AddRepository(repo *Repository) error
	GetRepository(id string) (*Repository, error)
	GetRepositoryByPath(path string) (*Repository, error)
	ListRepositories(cursor string, limit int) ([]Repository, error)
	SetRepositoryProfile(repoID string, profileID *string) error
	TouchRepository(id string, openedAt time.Time) error
	DeleteRepository(id string) error

	// Profile operations
	CreateProfile(profile *Profile) error
	GetProfile(id string) (*Profile, error)
	ListProfiles() ([]Profile, error)
	UpdateProfile(profile *Profile) error
	DeleteProfile(id string) error
	CountProfilesWithName(name, excludingID string) (int, error)

	Close() error
}

// Repository is a local clone known to gitdesk.
type Repository struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	ProfileID    *string    `json:"profile_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastOpenedAt *time.Time `json:"last_opened_at,omitempty"`
}

// Profile is a git identity plus the credentials used for remote
// operations. Password, PrivateKeyPath and SigningKey are optional.
type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	Password       string    `json:"-"`
	PrivateKeyPath string    `json:"private_key_path,omitempty"`
	SigningKey     string    `json:"signing_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func FromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func ToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func FromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}
