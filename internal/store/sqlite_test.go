/*
Package store tests.

These tests are smoke tests for the repository and profile tables using an
in-memory SQLite database. They cover happy paths, uniqueness and the
profile foreign key behavior the engine relies on.
*/
package store

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err, "create store")
	require.NoError(t, s.Initialize(), "initialize store")
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestRepository(t *testing.T, s *SQLiteStore, name string) *Repository {
	t.Helper()
	repo := &Repository{
		ID:        "repo-" + name,
		Name:      name,
		Path:      "/work/" + name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, s.AddRepository(repo))
	return repo
}

func createTestProfile(t *testing.T, s *SQLiteStore, id, name string) *Profile {
	t.Helper()
	profile := &Profile{
		ID:        id,
		Name:      name,
		Email:     name + "@example.com",
		Username:  name,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.CreateProfile(profile))
	return profile
}

func TestStore_RepositoryLifecycle(t *testing.T) {
	s := newTestStore(t)
	repo := createTestRepository(t, s, "alpha")

	t.Run("get by path", func(t *testing.T) {
		got, err := s.GetRepositoryByPath("/work/alpha")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, repo.ID, got.ID)
		assert.Nil(t, got.ProfileID)
	})

	t.Run("unknown path returns nil", func(t *testing.T) {
		got, err := s.GetRepositoryByPath("/work/missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate path rejected", func(t *testing.T) {
		dup := &Repository{ID: "other", Name: "alpha", Path: "/work/alpha", CreatedAt: time.Now(), UpdatedAt: time.Now()}
		assert.ErrorIs(t, s.AddRepository(dup), ErrRepositoryExists)
	})

	t.Run("touch", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, s.TouchRepository(repo.ID, now))
		got, err := s.GetRepository(repo.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastOpenedAt)
		assert.WithinDuration(t, now, *got.LastOpenedAt, time.Second)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteRepository(repo.ID))
		assert.ErrorIs(t, s.DeleteRepository(repo.ID), sql.ErrNoRows)
	})
}

func TestStore_ListRepositoriesPagination(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		createTestRepository(t, s, fmt.Sprintf("r%d", i))
	}

	first, err := s.ListRepositories("", 3)
	require.NoError(t, err)
	require.Len(t, first, 3)

	rest, err := s.ListRepositories(first[2].ID, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestStore_RepositoryProfile(t *testing.T) {
	s := newTestStore(t)
	repo := createTestRepository(t, s, "beta")
	profile := createTestProfile(t, s, "p1", "work")

	require.NoError(t, s.SetRepositoryProfile(repo.ID, &profile.ID))
	got, err := s.GetRepository(repo.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ProfileID)
	assert.Equal(t, "p1", *got.ProfileID)

	t.Run("deleting profile clears assignment", func(t *testing.T) {
		require.NoError(t, s.DeleteProfile(profile.ID))
		got, err := s.GetRepository(repo.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ProfileID)
	})

	t.Run("unknown repository", func(t *testing.T) {
		assert.ErrorIs(t, s.SetRepositoryProfile("nope", nil), sql.ErrNoRows)
	})
}

func TestStore_ProfileLifecycle(t *testing.T) {
	s := newTestStore(t)
	p := createTestProfile(t, s, "p1", "personal")

	p.Password = "token"
	p.PrivateKeyPath = "/home/me/.ssh/id_ed25519"
	require.NoError(t, s.UpdateProfile(p))

	got, err := s.GetProfile("p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "token", got.Password)
	assert.Equal(t, "/home/me/.ssh/id_ed25519", got.PrivateKeyPath)

	missing, err := s.GetProfile("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	createTestProfile(t, s, "p0", "another")
	profiles, err := s.ListProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "another", profiles[0].Name)
}

func TestUniqueProfileName(t *testing.T) {
	s := newTestStore(t)

	name, renamed, err := UniqueProfileName(s, "work", "")
	require.NoError(t, err)
	assert.Equal(t, "work", name)
	assert.False(t, renamed)

	createTestProfile(t, s, "p1", "work")

	t.Run("conflict appends suffix", func(t *testing.T) {
		name, renamed, err := UniqueProfileName(s, "work", "")
		require.NoError(t, err)
		assert.Equal(t, "work (2)", name)
		assert.True(t, renamed)
	})

	t.Run("own name is not a conflict", func(t *testing.T) {
		name, renamed, err := UniqueProfileName(s, "work", "p1")
		require.NoError(t, err)
		assert.Equal(t, "work", name)
		assert.False(t, renamed)
	})

	t.Run("skips taken suffixes", func(t *testing.T) {
		createTestProfile(t, s, "p2", "work (2)")
		name, _, err := UniqueProfileName(s, "work", "")
		require.NoError(t, err)
		assert.Equal(t, "work (3)", name)
	})
}
