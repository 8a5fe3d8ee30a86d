package gitops

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/store"
)

func TestFolderName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/a.git", "a"},
		{"git@example.com:team/b.git", "b"},
		{"git@example.com:c.git", "c"},
		{"  https://example.com/d.git  ", "d"},
		{"https://example.com/e/", "e"},
		{"/srv/git/f", "f"},
		{"https://example.com/", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, FolderName(tt.url))
		})
	}
}

func TestClone(t *testing.T) {
	bareDir, _ := newRemote(t)

	t.Run("success applies profile", func(t *testing.T) {
		parent := t.TempDir()
		profile := &store.Profile{Name: "Dev", Email: "dev@example.com", SigningKey: "ABCD1234"}

		repo, dir, err := Client{}.Clone(t.Context(), CloneRequest{URL: bareDir, ParentDir: parent, Profile: profile})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(parent, "remote"), dir)

		cfg, err := repo.Config()
		require.NoError(t, err)
		assert.Equal(t, "Dev", cfg.User.Name)
		assert.Equal(t, "dev@example.com", cfg.User.Email)
		assert.Equal(t, "ABCD1234", cfg.Raw.Section("user").Option("signingkey"))
	})

	t.Run("existing folder", func(t *testing.T) {
		parent := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(parent, "remote"), 0755))

		_, _, err := Client{}.Clone(t.Context(), CloneRequest{URL: bareDir, ParentDir: parent})
		require.Error(t, err)
		assert.Equal(t, KindIo, KindOf(err))
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("failure removes folder", func(t *testing.T) {
		parent := t.TempDir()
		missing := filepath.Join(t.TempDir(), "missing.git")

		_, dir, err := Client{}.Clone(t.Context(), CloneRequest{URL: missing, ParentDir: parent})
		require.Error(t, err)
		assert.Equal(t, KindProtocol, KindOf(err))
		assert.NoDirExists(t, dir)
	})

	t.Run("provider failure removes folder", func(t *testing.T) {
		parent := t.TempDir()
		provider := auth.Resolver{}.Build(auth.SSH, "", "", "", "")

		_, dir, err := Client{}.Clone(t.Context(), CloneRequest{URL: bareDir, ParentDir: parent, Provider: provider})
		require.Error(t, err)
		assert.Equal(t, KindAuth, KindOf(err))
		assert.NoDirExists(t, dir)
	})
}

func TestClone_AuthRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Basic realm="git"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	parent := t.TempDir()
	_, dir, err := Client{}.Clone(t.Context(), CloneRequest{URL: srv.URL + "/a.git", ParentDir: parent})
	require.Error(t, err)

	transport, ok := IsAuth(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, TransportHTTP, transport)
	assert.Equal(t, auth.HTTPS, transport.Mode())
	assert.Equal(t, filepath.Join(parent, "a"), dir)
	assert.NoDirExists(t, dir)
}

func TestFetchPullPush(t *testing.T) {
	bareDir, seed := newRemote(t)
	repo := cloneRemote(t, bareDir)
	c := Client{}

	t.Run("fetch counts incoming", func(t *testing.T) {
		commitFile(t, seed, "a.txt", "a", "upstream change")
		pushSeed(t, seed, "master")

		res, err := c.Fetch(t.Context(), repo, nil)
		require.NoError(t, err)
		assert.Equal(t, FetchResult{CommitsToPush: 0, CommitsToPull: 1}, res)
	})

	t.Run("fetch up to date", func(t *testing.T) {
		res, err := c.Fetch(t.Context(), repo, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.CommitsToPull)
	})

	t.Run("pull fast-forwards", func(t *testing.T) {
		res, err := c.Pull(t.Context(), repo, nil)
		require.NoError(t, err)
		assert.Equal(t, FetchResult{}, res)
		assert.Equal(t, headHash(t, seed), headHash(t, repo))
	})

	t.Run("push sends local commits", func(t *testing.T) {
		local := commitFile(t, repo, "b.txt", "b", "local change")

		res, err := AheadBehind(repo)
		require.NoError(t, err)
		assert.Equal(t, 1, res.CommitsToPush)

		res, err = c.Push(t.Context(), repo, nil)
		require.NoError(t, err)
		assert.Equal(t, FetchResult{}, res)

		bare, err := git.PlainOpen(bareDir)
		require.NoError(t, err)
		ref, err := bare.Reference(plumbing.NewBranchReferenceName("master"), true)
		require.NoError(t, err)
		assert.Equal(t, local, ref.Hash())
	})

	t.Run("diverged branch is counted and not pulled", func(t *testing.T) {
		commitOnRemote(t, bareDir, repo, headHash(t, repo), "upstream again")
		local := commitFile(t, repo, "d.txt", "d", "local again")

		res, err := AheadBehind(repo)
		require.NoError(t, err)
		assert.Equal(t, FetchResult{CommitsToPush: 1, CommitsToPull: 1}, res)

		res, err = c.Fetch(t.Context(), repo, nil)
		require.NoError(t, err)
		assert.Equal(t, FetchResult{CommitsToPush: 1, CommitsToPull: 1}, res)

		_, err = c.Pull(t.Context(), repo, nil)
		require.Error(t, err)
		assert.Equal(t, KindProtocol, KindOf(err))
		assert.ErrorIs(t, err, ErrDiverged)
		assert.Equal(t, local, headHash(t, repo), "nothing merged")
	})
}

func TestDeleteRemoteBranch(t *testing.T) {
	bareDir, _ := newRemote(t)
	repo := cloneRemote(t, bareDir)
	c := Client{}

	_, err := CreateBranch(repo, "feature")
	require.NoError(t, err)
	require.NoError(t, Checkout(repo, "feature", false))
	_, err = c.Push(t.Context(), repo, nil)
	require.NoError(t, err)

	bare, err := git.PlainOpen(bareDir)
	require.NoError(t, err)
	_, err = bare.Reference(plumbing.NewBranchReferenceName("feature"), false)
	require.NoError(t, err, "feature pushed")

	require.NoError(t, c.DeleteRemoteBranch(t.Context(), repo, "origin/feature", nil))

	_, err = bare.Reference(plumbing.NewBranchReferenceName("feature"), false)
	assert.True(t, errors.Is(err, plumbing.ErrReferenceNotFound))
	_, err = repo.Reference(plumbing.NewRemoteReferenceName("origin", "feature"), false)
	assert.True(t, errors.Is(err, plumbing.ErrReferenceNotFound))
}

func TestRemoteOperations_NoRemote(t *testing.T) {
	repo, err := git.PlainInit(t.TempDir(), false)
	require.NoError(t, err)
	commitFile(t, repo, "a.txt", "a", "first")

	_, err = Client{}.Fetch(t.Context(), repo, nil)
	require.Error(t, err)
	assert.Equal(t, KindPrecondition, KindOf(err))
	assert.ErrorIs(t, err, ErrNoRemote)

	res, err := AheadBehind(repo)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{CommitsToPush: 1}, res)
}

func TestRemoteURL(t *testing.T) {
	bare, _ := newRemote(t)
	repo := cloneRemote(t, bare)

	url, err := RemoteURL(repo)
	require.NoError(t, err)
	assert.Equal(t, bare, url)

	local, err := git.PlainInit(t.TempDir(), false)
	require.NoError(t, err)
	commitFile(t, local, "a.txt", "a", "init")
	_, err = RemoteURL(local)
	assert.Equal(t, KindPrecondition, KindOf(err))
}
