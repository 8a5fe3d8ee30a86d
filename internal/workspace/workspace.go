// Package workspace binds a persisted repository record to a live go-git
// handle.
package workspace

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/bantamhq/gitdesk/internal/changes"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/store"
)

// ErrNoRepository is returned when no repository is selected.
var ErrNoRepository = errors.New("no repository selected")

// Selected is the repository the user is working in. The handle is nil
// when the path could not be opened, for example after the folder was
// deleted; Repo retries the open on every call until it succeeds.
type Selected struct {
	Record store.Repository
	repo   *git.Repository
}

// Open binds record to its on-disk repository. It never fails: an
// unopenable path leaves the handle empty.
func Open(record store.Repository) *Selected {
	s := &Selected{Record: record}
	s.repo, _ = open(record.Path)
	return s
}

// Attach binds record to an already open handle, as after a clone.
func Attach(record store.Repository, repo *git.Repository) *Selected {
	return &Selected{Record: record, repo: repo}
}

// Repo returns the live handle, reopening it if needed. A path that is
// not a repository fails with KindNotARepository.
func (s *Selected) Repo() (*git.Repository, error) {
	if s == nil {
		return nil, gitops.NewError(gitops.KindNotARepository, "open", ErrNoRepository)
	}
	if s.repo != nil {
		return s.repo, nil
	}

	repo, err := open(s.Record.Path)
	if err != nil {
		return nil, err
	}
	s.repo = repo
	return repo, nil
}

// Fork opens a second handle on the same path for a worker goroutine.
// go-git handles are not safe for concurrent use, so a long operation
// must not share the handle that serves reads.
func (s *Selected) Fork() (*git.Repository, error) {
	if s == nil {
		return nil, gitops.NewError(gitops.KindNotARepository, "open", ErrNoRepository)
	}
	return open(s.Record.Path)
}

// Adopt replaces the handle with one returned by Fork once its worker is
// done. The forked handle has already seen any objects the worker wrote.
func (s *Selected) Adopt(repo *git.Repository) {
	if s != nil && repo != nil {
		s.repo = repo
	}
}

// Valid reports whether a handle is currently held.
func (s *Selected) Valid() bool {
	return s != nil && s.repo != nil
}

// Invalidate drops the handle so the next Repo call reopens the path.
func (s *Selected) Invalidate() {
	if s != nil {
		s.repo = nil
	}
}

// Status returns the status source for the working tree.
func (s *Selected) Status() (changes.StatusSource, error) {
	repo, err := s.Repo()
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, gitops.NewError(gitops.KindNotARepository, "status", err)
	}
	src := changes.WorktreeStatus{Worktree: wt}
	if idx, err := repo.Storer.Index(); err == nil {
		src.Index = idx
	}
	return src, nil
}

func open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return nil, gitops.NewError(gitops.KindNotARepository, "open", fmt.Errorf("%s: %w", path, err))
	}
	return repo, nil
}
