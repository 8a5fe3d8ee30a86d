// Package history pages through the commit log of the checked-out branch
// and marks which commits already exist on its upstream.
package history

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object/commitgraph"

	"github.com/bantamhq/gitdesk/internal/gitops"
)

// Entry is one commit in the log.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Subtitle    string    `json:"subtitle"`
	Author      string    `json:"author"`
	When        time.Time `json:"when"`
	Pushed      bool      `json:"pushed"`
}

// Page is a slice of the log. Cursor is the ID of the last entry and is
// passed back to fetch the following page.
type Page struct {
	Entries []Entry `json:"entries"`
	Cursor  string  `json:"cursor,omitempty"`
	HasMore bool    `json:"has_more"`
}

// DateLayout formats the date part of Entry.Subtitle.
const DateLayout = "Jan 2, 2006 15:04"

// Walker holds two topological walks, one over the local branch and one
// over its upstream. The upstream walk only moves forward; every commit
// it passes is remembered, so each local commit is classified with at
// most one pass over the upstream history.
type Walker struct {
	repo  *git.Repository
	index commitgraph.CommitNodeIndex

	local    commitgraph.CommitNodeIter
	upstream commitgraph.CommitNodeIter
	seen     map[plumbing.Hash]struct{}

	// pending is the next local commit, read ahead to compute HasMore.
	pending commitgraph.CommitNode
	last    string
}

// NewWalker returns a walker over repo.
func NewWalker(repo *git.Repository) *Walker {
	return &Walker{
		repo:  repo,
		index: commitgraph.NewObjectCommitNodeIndex(repo.Storer),
	}
}

// Reset drops the walk state. The next Page call starts from the tip.
func (w *Walker) Reset() {
	if w.local != nil {
		w.local.Close()
	}
	if w.upstream != nil {
		w.upstream.Close()
	}
	w.local = nil
	w.upstream = nil
	w.seen = nil
	w.pending = nil
	w.last = ""
}

// Page returns up to size entries after cursor. An empty cursor starts at
// the branch tip. The cursor commit itself is never part of the page. A
// cursor that is not a known commit fails with KindInvalidCursor.
func (w *Walker) Page(cursor string, size int) (Page, error) {
	if size <= 0 {
		return Page{}, gitops.NewError(gitops.KindInvalidCursor, "load commits", fmt.Errorf("invalid page size %d", size))
	}

	if cursor == "" || cursor != w.last || w.local == nil {
		if err := w.start(cursor); err != nil {
			return Page{}, err
		}
		if w.local == nil {
			return Page{}, nil
		}
	}

	page := Page{Entries: make([]Entry, 0, size)}
	for len(page.Entries) < size {
		node, err := w.nextLocal()
		if err != nil {
			return Page{}, err
		}
		if node == nil {
			break
		}

		pushed, err := w.isPushed(node.ID())
		if err != nil {
			return Page{}, err
		}

		entry, err := w.entry(node, pushed)
		if err != nil {
			return Page{}, err
		}
		page.Entries = append(page.Entries, entry)
	}

	if len(page.Entries) > 0 {
		page.Cursor = page.Entries[len(page.Entries)-1].ID
		w.last = page.Cursor
	} else {
		page.Cursor = cursor
	}

	next, err := w.nextLocal()
	if err != nil {
		return Page{}, err
	}
	w.pending = next
	page.HasMore = next != nil

	return page, nil
}

// start positions both walks. For a cursor the local walk begins at the
// cursor commit, which is consumed here so it is not returned again.
func (w *Walker) start(cursor string) error {
	w.Reset()

	var from plumbing.Hash
	if cursor == "" {
		head, err := w.repo.Head()
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil
		}
		if err != nil {
			return gitops.NewError(gitops.KindProtocol, "load commits", err)
		}
		from = head.Hash()
	} else {
		if !plumbing.IsHash(cursor) {
			return gitops.NewError(gitops.KindInvalidCursor, "load commits", fmt.Errorf("malformed commit id %q", cursor))
		}
		from = plumbing.NewHash(cursor)
	}

	node, err := w.index.Get(from)
	if err != nil {
		if cursor != "" {
			return gitops.NewError(gitops.KindInvalidCursor, "load commits", fmt.Errorf("unknown commit %s: %w", cursor, err))
		}
		return gitops.NewError(gitops.KindProtocol, "load commits", err)
	}

	w.local = commitgraph.NewCommitNodeIterTopoOrder(node, nil, nil)
	w.seen = make(map[plumbing.Hash]struct{})

	if cursor != "" {
		if _, err := w.local.Next(); err != nil {
			return gitops.NewError(gitops.KindProtocol, "load commits", err)
		}
		w.last = cursor
	}

	tip, err := gitops.UpstreamTip(w.repo)
	if err != nil {
		return err
	}
	if !tip.IsZero() {
		upNode, err := w.index.Get(tip)
		if err != nil {
			return gitops.NewError(gitops.KindProtocol, "load commits", err)
		}
		w.upstream = commitgraph.NewCommitNodeIterTopoOrder(upNode, nil, nil)
	}

	return nil
}

func (w *Walker) nextLocal() (commitgraph.CommitNode, error) {
	if w.pending != nil {
		node := w.pending
		w.pending = nil
		return node, nil
	}

	node, err := w.local.Next()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, gitops.NewError(gitops.KindProtocol, "load commits", err)
	}
	return node, nil
}

// isPushed advances the upstream walk until it reaches id or ends.
func (w *Walker) isPushed(id plumbing.Hash) (bool, error) {
	if _, ok := w.seen[id]; ok {
		return true, nil
	}

	for w.upstream != nil {
		node, err := w.upstream.Next()
		if errors.Is(err, io.EOF) {
			w.upstream.Close()
			w.upstream = nil
			break
		}
		if err != nil {
			return false, gitops.NewError(gitops.KindProtocol, "load commits", err)
		}

		w.seen[node.ID()] = struct{}{}
		if node.ID() == id {
			return true, nil
		}
	}

	return false, nil
}

func (w *Walker) entry(node commitgraph.CommitNode, pushed bool) (Entry, error) {
	c, err := node.Commit()
	if err != nil {
		return Entry{}, gitops.NewError(gitops.KindProtocol, "load commits", err)
	}

	title, desc := SplitMessage(c.Message)
	return Entry{
		ID:          c.Hash.String(),
		Title:       title,
		Description: desc,
		Subtitle:    fmt.Sprintf("%s, %s", c.Author.Name, c.Author.When.Format(DateLayout)),
		Author:      c.Author.Name,
		When:        c.Author.When,
		Pushed:      pushed,
	}, nil
}

// SplitMessage returns the first line of a commit message and the rest
// with surrounding blank lines removed.
func SplitMessage(msg string) (string, string) {
	title, rest, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	return strings.TrimSpace(title), strings.TrimSpace(rest)
}
