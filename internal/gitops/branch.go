package gitops

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const defaultRemote = "origin"

// Branch is a local or remote-tracking branch.
type Branch struct {
	Name     string `json:"name"`
	Hash     string `json:"hash"`
	Remote   bool   `json:"remote"`
	Current  bool   `json:"current"`
	Upstream string `json:"upstream,omitempty"`
}

// Tracking describes where a local branch pushes and pulls.
type Tracking struct {
	Branch string
	Remote string
	// Merge is the branch ref on the remote side, e.g. refs/heads/main.
	Merge plumbing.ReferenceName
}

// RemoteRef is the local remote-tracking ref for the upstream.
func (t Tracking) RemoteRef() plumbing.ReferenceName {
	return plumbing.NewRemoteReferenceName(t.Remote, t.Merge.Short())
}

// FetchResult is the ahead/behind state after talking to the remote.
type FetchResult struct {
	CommitsToPush int `json:"commits_to_push"`
	CommitsToPull int `json:"commits_to_pull"`
}

// CurrentBranch returns the short name of the checked-out branch.
func CurrentBranch(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", NewError(KindPrecondition, "current branch", errors.New("repository has no commits"))
		}
		return "", classify("current branch", nil, err)
	}
	if !head.Name().IsBranch() {
		return "", NewError(KindPrecondition, "current branch", ErrDetachedHead)
	}
	return head.Name().Short(), nil
}

// Upstream resolves the tracking configuration of branch. Branches without
// config fall back to the same name on origin, or the only remote.
func Upstream(repo *git.Repository, branch string) (Tracking, error) {
	cfg, err := repo.Config()
	if err != nil {
		return Tracking{}, classify("read config", nil, err)
	}

	if bc, ok := cfg.Branches[branch]; ok && bc.Remote != "" && bc.Merge != "" {
		return Tracking{Branch: branch, Remote: bc.Remote, Merge: bc.Merge}, nil
	}

	remote := ""
	if _, ok := cfg.Remotes[defaultRemote]; ok {
		remote = defaultRemote
	} else if len(cfg.Remotes) == 1 {
		for name := range cfg.Remotes {
			remote = name
		}
	}
	if remote == "" {
		return Tracking{}, NewError(KindPrecondition, "resolve upstream", ErrNoRemote)
	}

	return Tracking{Branch: branch, Remote: remote, Merge: plumbing.NewBranchReferenceName(branch)}, nil
}

// UpstreamTip returns the commit the upstream of the checked-out branch
// points at locally, or plumbing.ZeroHash when there is none.
func UpstreamTip(repo *git.Repository) (plumbing.Hash, error) {
	branch, err := CurrentBranch(repo)
	if err != nil {
		if KindOf(err) == KindPrecondition {
			return plumbing.ZeroHash, nil
		}
		return plumbing.ZeroHash, err
	}
	tracking, err := Upstream(repo, branch)
	if err != nil {
		if KindOf(err) == KindPrecondition {
			return plumbing.ZeroHash, nil
		}
		return plumbing.ZeroHash, err
	}

	ref, err := repo.Reference(tracking.RemoteRef(), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, classify("resolve upstream", nil, err)
	}
	return ref.Hash(), nil
}

// AheadBehind counts commits reachable from HEAD but not the upstream and
// the reverse. Without an upstream every local commit is ahead.
func AheadBehind(repo *git.Repository) (FetchResult, error) {
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return FetchResult{}, nil
		}
		return FetchResult{}, classify("ahead/behind", nil, err)
	}

	upstream, err := UpstreamTip(repo)
	if err != nil {
		return FetchResult{}, err
	}

	local, err := reachable(repo, head.Hash())
	if err != nil {
		return FetchResult{}, err
	}
	if upstream.IsZero() {
		return FetchResult{CommitsToPush: len(local)}, nil
	}
	remote, err := reachable(repo, upstream)
	if err != nil {
		return FetchResult{}, err
	}

	var res FetchResult
	for h := range local {
		if _, ok := remote[h]; !ok {
			res.CommitsToPush++
		}
	}
	for h := range remote {
		if _, ok := local[h]; !ok {
			res.CommitsToPull++
		}
	}
	return res, nil
}

func reachable(repo *git.Repository, from plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	iter, err := repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return nil, classify("walk history", nil, err)
	}
	defer iter.Close()

	set := make(map[plumbing.Hash]struct{})
	err = iter.ForEach(func(c *object.Commit) error {
		set[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, classify("walk history", nil, err)
	}
	return set, nil
}

// ListBranches returns local branches followed by remote-tracking ones,
// each group sorted by name.
func ListBranches(repo *git.Repository) ([]Branch, error) {
	current := ""
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		current = head.Name().Short()
	}

	cfg, err := repo.Config()
	if err != nil {
		return nil, classify("list branches", nil, err)
	}

	refs, err := repo.References()
	if err != nil {
		return nil, classify("list branches", nil, err)
	}
	defer refs.Close()

	var local, remote []Branch
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsBranch():
			b := Branch{Name: name.Short(), Hash: ref.Hash().String(), Current: name.Short() == current}
			if bc, ok := cfg.Branches[b.Name]; ok && bc.Remote != "" && bc.Merge != "" {
				b.Upstream = bc.Remote + "/" + bc.Merge.Short()
			}
			local = append(local, b)
		case name.IsRemote():
			remote = append(remote, Branch{Name: name.Short(), Hash: ref.Hash().String(), Remote: true})
		}
		return nil
	})
	if err != nil {
		return nil, classify("list branches", nil, err)
	}

	sort.Slice(local, func(i, j int) bool { return local[i].Name < local[j].Name })
	sort.Slice(remote, func(i, j int) bool { return remote[i].Name < remote[j].Name })
	return append(local, remote...), nil
}

// CreateBranch creates name at HEAD without switching to it.
func CreateBranch(repo *git.Repository, name string) (Branch, error) {
	const op = "create branch"

	refName := plumbing.NewBranchReferenceName(name)
	if err := refName.Validate(); err != nil || strings.TrimSpace(name) == "" {
		return Branch{}, NewError(KindPrecondition, op, fmt.Errorf("invalid branch name %q", name))
	}

	head, err := repo.Head()
	if err != nil {
		return Branch{}, NewError(KindPrecondition, op, errors.New("repository has no commits"))
	}

	if _, err := repo.Reference(refName, false); err == nil {
		return Branch{}, NewError(KindPrecondition, op, git.ErrBranchExists)
	}

	if err := repo.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash())); err != nil {
		return Branch{}, classify(op, nil, err)
	}

	return Branch{Name: name, Hash: head.Hash().String()}, nil
}

// Checkout switches to a branch. For a remote-tracking branch such as
// "origin/feature" the local branch "feature" is created if missing and
// configured to track it. Uncommitted changes are not stashed.
func Checkout(repo *git.Repository, name string, isRemote bool) error {
	const op = "checkout"

	wt, err := repo.Worktree()
	if err != nil {
		return classify(op, nil, err)
	}

	local := name
	if isRemote {
		remoteName, branch, ok := strings.Cut(name, "/")
		if !ok || branch == "" {
			return NewError(KindPrecondition, op, fmt.Errorf("%q is not a remote branch", name))
		}
		local = branch

		remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
		if err != nil {
			return classify(op, nil, fmt.Errorf("resolve %s: %w", name, err))
		}

		localRef := plumbing.NewBranchReferenceName(branch)
		if _, err := repo.Reference(localRef, false); errors.Is(err, plumbing.ErrReferenceNotFound) {
			if err := repo.Storer.SetReference(plumbing.NewHashReference(localRef, remoteRef.Hash())); err != nil {
				return classify(op, nil, err)
			}
		}

		if err := setTracking(repo, branch, remoteName); err != nil {
			return err
		}
	}

	err = wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(local)})
	return classify(op, nil, err)
}

func setTracking(repo *git.Repository, branch, remote string) error {
	cfg, err := repo.Config()
	if err != nil {
		return classify("configure branch", nil, err)
	}
	cfg.Branches[branch] = &config.Branch{
		Name:   branch,
		Remote: remote,
		Merge:  plumbing.NewBranchReferenceName(branch),
	}
	return classify("configure branch", nil, repo.SetConfig(cfg))
}

// DeleteLocalBranch removes a local branch and its config. The checked-out
// branch cannot be deleted.
func DeleteLocalBranch(repo *git.Repository, name string) error {
	const op = "delete branch"

	if current, err := CurrentBranch(repo); err == nil && current == name {
		return NewError(KindPrecondition, op, fmt.Errorf("%q is checked out", name))
	}

	refName := plumbing.NewBranchReferenceName(name)
	if _, err := repo.Reference(refName, false); err != nil {
		return classify(op, nil, fmt.Errorf("resolve %s: %w", name, err))
	}
	if err := repo.Storer.RemoveReference(refName); err != nil {
		return classify(op, nil, err)
	}

	if err := repo.DeleteBranch(name); err != nil && !errors.Is(err, git.ErrBranchNotFound) {
		return classify(op, nil, err)
	}
	return nil
}
