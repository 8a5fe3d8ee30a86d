package changes

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// StatusSource produces the current working-tree status listing.
type StatusSource interface {
	Entries() ([]StatusEntry, error)
}

// WorktreeStatus adapts a go-git worktree. Files excluded by .gitignore
// never reach the listing.
type WorktreeStatus struct {
	Worktree *git.Worktree
	// Index is optional. go-git has no status code for a type change and
	// reports it as Modified; with the index at hand such entries are
	// reported as TypeChanged.
	Index *index.Index
}

func (w WorktreeStatus) Entries() ([]StatusEntry, error) {
	status, err := w.Worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}
	entries := FromGitStatus(status)
	if w.Index == nil {
		return entries, nil
	}
	for i := range entries {
		if entries[i].Status == Modified && w.typeChanged(entries[i].Path) {
			entries[i].Status = TypeChanged
		}
	}
	return entries, nil
}

// typeChanged reports whether the file on disk is a different kind of
// object (regular file, symlink, submodule) than its index entry.
func (w WorktreeStatus) typeChanged(path string) bool {
	entry, err := w.Index.Entry(path)
	if err != nil {
		return false
	}
	fi, err := w.Worktree.Filesystem.Lstat(path)
	if err != nil {
		return false
	}
	mode, err := filemode.NewFromOSFileMode(fi.Mode())
	if err != nil {
		return false
	}
	return objectKind(entry.Mode) != objectKind(mode)
}

// objectKind folds the executable bit away; only the object type counts.
func objectKind(m filemode.FileMode) filemode.FileMode {
	if m == filemode.Executable || m == filemode.Deprecated {
		return filemode.Regular
	}
	return m
}

// FromGitStatus converts a go-git status map, dropping unmodified paths.
func FromGitStatus(status git.Status) []StatusEntry {
	entries := make([]StatusEntry, 0, len(status))
	for path, fs := range status {
		s, ok := classify(fs.Staging, fs.Worktree)
		if !ok {
			continue
		}
		entries = append(entries, StatusEntry{Path: path, Status: s})
	}
	return entries
}

// classify maps go-git status codes. TypeChanged never comes from here;
// see WorktreeStatus.
func classify(staging, worktree git.StatusCode) (Status, bool) {
	switch {
	case staging == git.Deleted || worktree == git.Deleted:
		return Deleted, true
	case staging == git.Renamed || worktree == git.Renamed:
		return Renamed, true
	case staging == git.Added || staging == git.Copied || worktree == git.Untracked:
		return Added, true
	case staging == git.Modified || worktree == git.Modified || staging == git.UpdatedButUnmerged || worktree == git.UpdatedButUnmerged:
		return Modified, true
	}
	return 0, false
}
