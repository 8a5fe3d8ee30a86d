package gitops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/go-git/go-git/v5/storage"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Serve file:// remotes in-process so tests do not need a git binary.
	client.InstallProtocol("file", server.DefaultServer)
	os.Exit(m.Run())
}

func testSignature() *object.Signature {
	return &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()}
}

func writeFile(t *testing.T, repo *git.Repository, name, content string) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	full := filepath.Join(wt.Filesystem.Root(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func commitFile(t *testing.T, repo *git.Repository, name, content, msg string) plumbing.Hash {
	t.Helper()
	writeFile(t, repo, name, content)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: testSignature()})
	require.NoError(t, err)
	return hash
}

// newRemote creates a bare remote plus a seed clone that can push to it.
func newRemote(t *testing.T) (string, *git.Repository) {
	t.Helper()
	root := t.TempDir()
	bareDir := filepath.Join(root, "remote.git")
	_, err := git.PlainInit(bareDir, true)
	require.NoError(t, err)

	seed, err := git.PlainInit(filepath.Join(root, "seed"), false)
	require.NoError(t, err)
	_, err = seed.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{bareDir}})
	require.NoError(t, err)

	commitFile(t, seed, "README.md", "hello", "initial commit")
	pushSeed(t, seed, "master")
	return bareDir, seed
}

func pushSeed(t *testing.T, seed *git.Repository, branch string) {
	t.Helper()
	refspec := config.RefSpec("refs/heads/" + branch + ":refs/heads/" + branch)
	err := seed.Push(&git.PushOptions{RemoteName: "origin", RefSpecs: []config.RefSpec{refspec}})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		require.NoError(t, err)
	}
}

func cloneRemote(t *testing.T, bareDir string) *git.Repository {
	t.Helper()
	repo, _, err := Client{}.Clone(t.Context(), CloneRequest{URL: bareDir, ParentDir: t.TempDir()})
	require.NoError(t, err)
	return repo
}

func headHash(t *testing.T, repo *git.Repository) plumbing.Hash {
	t.Helper()
	head, err := repo.Head()
	require.NoError(t, err)
	return head.Hash()
}

// commitOnRemote writes a commit on top of base straight into the bare
// remote and moves its master there. The object is copied into repo as if
// an earlier fetch had brought it in, and origin/master points at it, so
// later fetches have nothing to negotiate.
func commitOnRemote(t *testing.T, bareDir string, repo *git.Repository, base plumbing.Hash, msg string) plumbing.Hash {
	t.Helper()
	parent, err := repo.CommitObject(base)
	require.NoError(t, err)
	commit := &object.Commit{
		Author:       *testSignature(),
		Committer:    *testSignature(),
		Message:      msg,
		TreeHash:     parent.TreeHash,
		ParentHashes: []plumbing.Hash{base},
	}

	bare, err := git.PlainOpen(bareDir)
	require.NoError(t, err)

	var hash plumbing.Hash
	for _, s := range []storage.Storer{bare.Storer, repo.Storer} {
		obj := s.NewEncodedObject()
		require.NoError(t, commit.Encode(obj))
		hash, err = s.SetEncodedObject(obj)
		require.NoError(t, err)
	}

	require.NoError(t, bare.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("master"), hash)))
	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "master"), hash)))
	return hash
}
