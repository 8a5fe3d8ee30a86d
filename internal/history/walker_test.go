package history

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantamhq/gitdesk/internal/gitops"
)

type testRepo struct {
	t    *testing.T
	repo *git.Repository
	wt   *git.Worktree
	when time.Time
}

func newTestRepo(t *testing.T, withRemote bool) *testRepo {
	t.Helper()
	repo, err := git.PlainInit(t.TempDir(), false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	if withRemote {
		_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"/nowhere"}})
		require.NoError(t, err)
	}
	return &testRepo{t: t, repo: repo, wt: wt, when: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *testRepo) commit(msg string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	r.when = r.when.Add(time.Minute)
	hash, err := r.wt.Commit(msg, &git.CommitOptions{
		Author:            &object.Signature{Name: "Ada", Email: "ada@example.com", When: r.when},
		AllowEmptyCommits: true,
		Parents:           parents,
	})
	require.NoError(r.t, err)
	return hash
}

func (r *testRepo) setUpstream(h plumbing.Hash) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "master"), h)
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func pushedFlags(entries []Entry) []bool {
	out := make([]bool, len(entries))
	for i, e := range entries {
		out[i] = e.Pushed
	}
	return out
}

// linear builds c1..c5 with the upstream at c3.
func linear(t *testing.T) (*testRepo, []plumbing.Hash) {
	r := newTestRepo(t, true)
	var hashes []plumbing.Hash
	for _, msg := range []string{"c1", "c2", "c3", "c4", "c5"} {
		hashes = append(hashes, r.commit(msg))
	}
	r.setUpstream(hashes[2])
	return r, hashes
}

func TestPage_ClassifiesPushed(t *testing.T) {
	r, h := linear(t)

	page, err := NewWalker(r.repo).Page("", 10)
	require.NoError(t, err)

	assert.Equal(t, []string{h[4].String(), h[3].String(), h[2].String(), h[1].String(), h[0].String()}, ids(page.Entries))
	assert.Equal(t, []bool{false, false, true, true, true}, pushedFlags(page.Entries))
	assert.False(t, page.HasMore)
	assert.Equal(t, h[0].String(), page.Cursor)
}

func TestPage_Pagination(t *testing.T) {
	r, h := linear(t)
	w := NewWalker(r.repo)

	first, err := w.Page("", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{h[4].String(), h[3].String()}, ids(first.Entries))
	assert.True(t, first.HasMore)

	second, err := w.Page(first.Cursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{h[2].String(), h[1].String()}, ids(second.Entries))
	assert.NotContains(t, ids(second.Entries), first.Cursor)
	assert.Equal(t, []bool{true, true}, pushedFlags(second.Entries))

	third, err := w.Page(second.Cursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{h[0].String()}, ids(third.Entries))
	assert.False(t, third.HasMore)

	t.Run("past the end is empty, not an error", func(t *testing.T) {
		empty, err := w.Page(third.Cursor, 2)
		require.NoError(t, err)
		assert.Empty(t, empty.Entries)
		assert.False(t, empty.HasMore)
	})

	t.Run("empty cursor restarts at the tip", func(t *testing.T) {
		again, err := w.Page("", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{h[4].String()}, ids(again.Entries))
	})
}

func TestPage_ResumeFromArbitraryCursor(t *testing.T) {
	r, h := linear(t)

	page, err := NewWalker(r.repo).Page(h[3].String(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{h[2].String(), h[1].String(), h[0].String()}, ids(page.Entries))
	assert.Equal(t, []bool{true, true, true}, pushedFlags(page.Entries))
}

func TestPage_InvalidCursor(t *testing.T) {
	r, _ := linear(t)
	w := NewWalker(r.repo)

	tests := []string{"not-a-hash", "0123456789012345678901234567890123456789"}
	for _, cursor := range tests {
		t.Run(cursor, func(t *testing.T) {
			_, err := w.Page(cursor, 5)
			require.Error(t, err)
			assert.Equal(t, gitops.KindInvalidCursor, gitops.KindOf(err))
		})
	}
}

func TestPage_EmptyRepository(t *testing.T) {
	r := newTestRepo(t, true)

	page, err := NewWalker(r.repo).Page("", 5)
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.False(t, page.HasMore)
}

func TestPage_NoUpstream(t *testing.T) {
	r := newTestRepo(t, false)
	r.commit("one")
	r.commit("two")

	page, err := NewWalker(r.repo).Page("", 5)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, pushedFlags(page.Entries))
}

func TestPage_UpstreamAhead(t *testing.T) {
	// Upstream has a commit the local branch lacks; local is behind.
	r := newTestRepo(t, true)
	c1 := r.commit("c1")
	c2 := r.commit("c2")
	remoteOnly := r.commit("remote only", c2)
	require.NoError(t, r.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("master"), c2)))
	r.setUpstream(remoteOnly)

	page, err := NewWalker(r.repo).Page("", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{c2.String(), c1.String()}, ids(page.Entries))
	assert.Equal(t, []bool{true, true}, pushedFlags(page.Entries))
}

func TestPage_MergeHistory(t *testing.T) {
	r := newTestRepo(t, true)
	c1 := r.commit("c1")
	c2 := r.commit("c2", c1)
	s1 := r.commit("side", c1)
	m := r.commit("merge", c2, s1)
	r.setUpstream(c2)

	page, err := NewWalker(r.repo).Page("", 10)
	require.NoError(t, err)
	require.Len(t, page.Entries, 4)

	pos := map[string]int{}
	pushed := map[string]bool{}
	for i, e := range page.Entries {
		pos[e.ID] = i
		pushed[e.ID] = e.Pushed
	}

	assert.Less(t, pos[m.String()], pos[s1.String()], "children before parents")
	assert.Less(t, pos[m.String()], pos[c2.String()])
	assert.Less(t, pos[c2.String()], pos[c1.String()])
	assert.Less(t, pos[s1.String()], pos[c1.String()])

	assert.Equal(t, map[string]bool{
		m.String():  false,
		s1.String(): false,
		c2.String(): true,
		c1.String(): true,
	}, pushed)
}

func TestEntryFields(t *testing.T) {
	r := newTestRepo(t, false)
	r.commit("Fix parser\n\nHandles empty input.\n")

	page, err := NewWalker(r.repo).Page("", 1)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)

	e := page.Entries[0]
	assert.Equal(t, "Fix parser", e.Title)
	assert.Equal(t, "Handles empty input.", e.Description)
	assert.Equal(t, "Ada, Jan 1, 2024 12:01", e.Subtitle)
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		msg, title, desc string
	}{
		{"one line", "one line", ""},
		{"title\n\nbody\nmore", "title", "body\nmore"},
		{"\n  padded  \n", "padded", ""},
	}
	for _, tt := range tests {
		title, desc := SplitMessage(tt.msg)
		assert.Equal(t, tt.title, title)
		assert.Equal(t, tt.desc, desc)
	}
}
