package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/store"
)

func openLocal(t *testing.T, e *Engine) string {
	t.Helper()
	dir := localWithRemote(t, "/nowhere")
	_, err := e.Open(dir)
	require.NoError(t, err)
	return dir
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestOpen(t *testing.T) {
	e := newTestEngine(t, gitops.Client{})
	events, cancel := e.Subscribe()
	defer cancel()

	dir := openLocal(t, e)

	opened := waitFor[RepositoryOpened](t, events)
	assert.Equal(t, filepath.Base(dir), opened.Repository.Name)
	assert.NotNil(t, opened.Repository.LastOpenedAt)

	page := waitFor[CommitPageLoaded](t, events)
	require.Len(t, page.Entries, 1)
	assert.True(t, page.Reset)
	assert.False(t, page.Entries[0].Pushed)

	// Opening the same path again reuses the record.
	again, err := e.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, opened.Repository.ID, again.ID)

	repos, err := e.Repositories("", 10)
	require.NoError(t, err)
	assert.Len(t, repos, 1)
}

func TestOpen_NotARepository(t *testing.T) {
	e := newTestEngine(t, gitops.Client{})
	_, err := e.Open(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, gitops.KindNotARepository, gitops.KindOf(err))
}

func TestChanges_SelectionSurvivesRefresh(t *testing.T) {
	e := newTestEngine(t, gitops.Client{})
	dir := openLocal(t, e)

	write(t, dir, "src/a.go", "a")
	write(t, dir, "src/b.go", "b")
	write(t, dir, "top.txt", "t")
	require.NoError(t, e.Refresh())

	selected, total := e.ChangeCounts()
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, selected)

	require.NoError(t, e.SelectFolder("src", false))
	assert.False(t, e.FolderSelected("src"))
	assert.False(t, e.AllSelected())
	require.NoError(t, e.ExpandFolder("src", false))

	before := e.Changes()
	require.NoError(t, e.Refresh())
	require.NoError(t, e.Refresh())
	assert.Equal(t, before, e.Changes())

	require.NoError(t, e.SelectFile("src/a.go", true))
	require.NoError(t, e.SelectFile("src/b.go", true))
	assert.True(t, e.FolderSelected("src"))
	assert.True(t, e.AllSelected())

	assert.ErrorIs(t, e.SelectFile("missing.txt", true), ErrUnknownPath)
	assert.ErrorIs(t, e.SelectFolder("nope", true), ErrUnknownPath)

	e.SelectAll(false)
	selected, _ = e.ChangeCounts()
	assert.Zero(t, selected)
}

func TestRefresh_ViewedFileGone(t *testing.T) {
	e := newTestEngine(t, gitops.Client{})
	dir := openLocal(t, e)

	write(t, dir, "notes.txt", "n")
	require.NoError(t, e.Refresh())
	require.NoError(t, e.ViewFile("notes.txt"))
	assert.ErrorIs(t, e.ViewFile("other.txt"), ErrUnknownPath)

	var viewed []string
	for _, f := range e.Changes().Files {
		if f.Opened {
			viewed = append(viewed, f.Path())
		}
	}
	assert.Equal(t, []string{"notes.txt"}, viewed, "a failed ViewFile keeps the current file")

	events, cancel := e.Subscribe()
	defer cancel()

	require.NoError(t, os.Remove(filepath.Join(dir, "notes.txt")))
	require.NoError(t, e.Refresh())

	gone := waitFor[ViewedFileGone](t, events)
	assert.Equal(t, "notes.txt", gone.Path)
	assert.NoError(t, e.ViewFile(""))
}

func TestCommit(t *testing.T) {
	e := newTestEngine(t, gitops.Client{})
	dir := openLocal(t, e)

	profile, _, err := e.SaveProfile(store.Profile{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	require.NoError(t, e.AssignProfile(&profile.ID))

	_, err = e.Commit(CommitInput{Title: "nothing"})
	assert.ErrorIs(t, err, ErrNothingToCommit)

	write(t, dir, "keep.txt", "k")
	write(t, dir, "skip.txt", "s")
	require.NoError(t, e.Refresh())
	require.NoError(t, e.SelectFile("skip.txt", false))

	hash, err := e.Commit(CommitInput{Title: "Add keep", Description: "Only one file."})
	require.NoError(t, err)

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	commit, err := repo.CommitObject(hash)
	require.NoError(t, err)
	assert.Equal(t, "Add keep\n\nOnly one file.", commit.Message)
	assert.Equal(t, "Ada", commit.Author.Name)
	assert.Equal(t, "ada@example.com", commit.Author.Email)

	_, total := e.ChangeCounts()
	assert.Equal(t, 1, total, "unselected file stays pending")

	page, err := e.LoadCommits("")
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, hash.String(), page.Entries[0].ID)
}

func TestCommit_SignedWithoutSigner(t *testing.T) {
	e := newTestEngine(t, gitops.Client{})
	dir := openLocal(t, e)

	profile, _, err := e.SaveProfile(store.Profile{Name: "Ada", Email: "ada@example.com", SigningKey: "ABCD"})
	require.NoError(t, err)
	require.NoError(t, e.AssignProfile(&profile.ID))

	write(t, dir, "a.txt", "a")
	require.NoError(t, e.Refresh())

	_, err = e.Commit(CommitInput{Title: "signed"})
	assert.Equal(t, gitops.KindPrecondition, gitops.KindOf(err))
}

func TestLoadCommits_Pagination(t *testing.T) {
	e := New(newTestStore(t), gitops.Client{}, auth.Resolver{}, nil, Options{PageSize: 2})
	dir := localWithRemote(t, "/nowhere")
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c"} {
		commitFile(t, repo, name+".txt", name, "add "+name)
	}

	_, err = e.Open(dir)
	require.NoError(t, err)

	first, err := e.LoadCommits("")
	require.NoError(t, err)
	require.Len(t, first.Entries, 2)
	assert.True(t, first.HasMore)

	second, err := e.MoreCommits()
	require.NoError(t, err)
	require.Len(t, second.Entries, 2)
	assert.False(t, second.HasMore)
	assert.NotEqual(t, first.Cursor, second.Entries[0].ID)

	done, err := e.MoreCommits()
	require.NoError(t, err)
	assert.Empty(t, done.Entries)

	_, err = e.LoadCommits("not-a-commit")
	assert.Equal(t, gitops.KindInvalidCursor, gitops.KindOf(err))
}

func TestBranches(t *testing.T) {
	e := newTestEngine(t, gitops.Client{})
	openLocal(t, e)

	_, err := e.CreateBranch("bad..name")
	assert.Equal(t, gitops.KindPrecondition, gitops.KindOf(err))

	b, err := e.CreateBranch("topic")
	require.NoError(t, err)
	assert.Equal(t, "topic", b.Name)

	require.NoError(t, e.Checkout("topic", false))
	branches, err := e.Branches()
	require.NoError(t, err)

	current := ""
	for _, br := range branches {
		if br.Current {
			current = br.Name
		}
	}
	assert.Equal(t, "topic", current)

	require.NoError(t, e.Checkout("master", false))
	require.NoError(t, e.DeleteBranch("topic"))
}

func TestSaveProfile_UniqueNames(t *testing.T) {
	e := newTestEngine(t, gitops.Client{})

	first, renamed, err := e.SaveProfile(store.Profile{Name: " Work "})
	require.NoError(t, err)
	assert.False(t, renamed)
	assert.Equal(t, "Work", first.Name)
	assert.NotEmpty(t, first.ID)

	second, renamed, err := e.SaveProfile(store.Profile{Name: "Work"})
	require.NoError(t, err)
	assert.True(t, renamed)
	assert.Equal(t, "Work (2)", second.Name)

	// Saving a profile under its own name is not a collision.
	first.Email = "new@example.com"
	updated, renamed, err := e.SaveProfile(first)
	require.NoError(t, err)
	assert.False(t, renamed)
	assert.Equal(t, "Work", updated.Name)

	_, _, err = e.SaveProfile(store.Profile{Name: ""})
	assert.Error(t, err)

	_, _, err = e.SaveProfile(store.Profile{ID: "missing", Name: "Ghost"})
	assert.ErrorIs(t, err, store.ErrProfileNotFound)

	require.NoError(t, e.DeleteProfile(second.ID))
	assert.ErrorIs(t, e.DeleteProfile(second.ID), store.ErrProfileNotFound)
}

func TestWatcher_RefreshesOnFileChange(t *testing.T) {
	e := New(newTestStore(t), gitops.Client{}, auth.Resolver{}, nil, Options{PageSize: 10, SelectNewFiles: true, Watch: true})
	dir := localWithRemote(t, "/nowhere")
	_, err := e.Open(dir)
	require.NoError(t, err)
	defer e.Close()

	write(t, dir, "new.txt", "n")

	require.Eventually(t, func() bool {
		_, total := e.ChangeCounts()
		return total == 1
	}, 5*time.Second, 20*time.Millisecond)
}
