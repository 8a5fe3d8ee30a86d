// Package gitops performs the git operations behind gitdesk: cloning,
// talking to remotes, branch management and committing. Every error it
// returns is an *Error carrying a Kind.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/store"
)

// Client runs remote operations with shared transport settings.
type Client struct {
	InsecureSkipTLS bool
	CABundle        []byte
}

// FolderName derives the clone directory from a remote URL: the last
// "/" or ":" separated segment, without a trailing ".git".
func FolderName(url string) string {
	name := strings.TrimRight(strings.TrimSpace(url), "/")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".git")
	return strings.TrimSpace(name)
}

// CloneRequest describes a clone. Profile, when set, overrides the new
// repository's user.name, user.email and user.signingkey.
type CloneRequest struct {
	URL       string
	ParentDir string
	Provider  auth.Provider
	Profile   *store.Profile
}

// Clone clones into ParentDir/FolderName(URL). The folder must not exist.
// When the clone fails the folder is removed again; if that removal fails
// too the error wraps ErrCleanupFailed.
func (c Client) Clone(ctx context.Context, req CloneRequest) (*git.Repository, string, error) {
	const op = "clone"

	name := FolderName(req.URL)
	if name == "" {
		return nil, "", NewError(KindPrecondition, op, fmt.Errorf("cannot derive folder name from %q", req.URL))
	}
	dir := filepath.Join(req.ParentDir, name)

	if err := os.Mkdir(dir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, dir, NewError(KindIo, op, fmt.Errorf("%w: %s", ErrAlreadyExists, dir))
		}
		return nil, dir, NewError(KindIo, op, err)
	}

	repo, err := c.clone(ctx, dir, req)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			return nil, dir, NewError(KindIo, op, fmt.Errorf("%w %s: %v (clone failed: %w)", ErrCleanupFailed, dir, rmErr, err))
		}
		return nil, dir, err
	}

	if req.Profile != nil {
		if err := ApplyProfile(repo, *req.Profile); err != nil {
			return repo, dir, err
		}
	}

	return repo, dir, nil
}

func (c Client) clone(ctx context.Context, dir string, req CloneRequest) (*git.Repository, error) {
	const op = "clone"

	ep, err := transport.NewEndpoint(strings.TrimSpace(req.URL))
	if err != nil {
		return nil, NewError(KindProtocol, op, err)
	}

	method, err := providerOrAnonymous(req.Provider)(ep)
	if err != nil {
		return nil, classify(op, ep, err)
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:             strings.TrimSpace(req.URL),
		Auth:            method,
		InsecureSkipTLS: c.InsecureSkipTLS,
		CABundle:        c.CABundle,
	})
	if err != nil {
		return nil, classify(op, ep, err)
	}
	return repo, nil
}

// ApplyProfile writes the profile identity into the repository's local
// config.
func ApplyProfile(repo *git.Repository, profile store.Profile) error {
	cfg, err := repo.Config()
	if err != nil {
		return classify("apply profile", nil, err)
	}

	cfg.User.Name = profile.Name
	cfg.User.Email = profile.Email
	if profile.SigningKey != "" {
		cfg.Raw.Section("user").SetOption("signingkey", profile.SigningKey)
	}

	return classify("apply profile", nil, repo.SetConfig(cfg))
}

// Fetch updates the remote-tracking ref of the checked-out branch and
// reports ahead/behind against it.
func (c Client) Fetch(ctx context.Context, repo *git.Repository, provider auth.Provider) (FetchResult, error) {
	const op = "fetch"

	tracking, err := currentTracking(repo, op)
	if err != nil {
		return FetchResult{}, err
	}

	ep, method, err := resolveAuth(repo, tracking.Remote, provider, op)
	if err != nil {
		return FetchResult{}, err
	}

	refspec := config.RefSpec(fmt.Sprintf("+%s:%s", tracking.Merge, tracking.RemoteRef()))
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName:      tracking.Remote,
		RefSpecs:        []config.RefSpec{refspec},
		Auth:            method,
		InsecureSkipTLS: c.InsecureSkipTLS,
		CABundle:        c.CABundle,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return FetchResult{}, classify(op, ep, err)
	}

	return AheadBehind(repo)
}

// Pull fetches and fast-forwards the checked-out branch. Diverged
// branches are not merged.
func (c Client) Pull(ctx context.Context, repo *git.Repository, provider auth.Provider) (FetchResult, error) {
	const op = "pull"

	tracking, err := currentTracking(repo, op)
	if err != nil {
		return FetchResult{}, err
	}

	ep, method, err := resolveAuth(repo, tracking.Remote, provider, op)
	if err != nil {
		return FetchResult{}, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return FetchResult{}, classify(op, nil, err)
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:      tracking.Remote,
		ReferenceName:   tracking.Merge,
		Auth:            method,
		InsecureSkipTLS: c.InsecureSkipTLS,
		CABundle:        c.CABundle,
	})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		// Also returned when HEAD is only ahead and other refs moved.
		res, abErr := AheadBehind(repo)
		if abErr == nil && res.CommitsToPull == 0 {
			return res, nil
		}
		return res, NewError(KindProtocol, op, ErrDiverged)
	case errors.Is(err, git.ErrUnstagedChanges):
		return FetchResult{}, NewError(KindPrecondition, op, ErrUncommittedChanges)
	default:
		return FetchResult{}, classify(op, ep, err)
	}

	return AheadBehind(repo)
}

// Push pushes the checked-out branch to its upstream, configuring the
// upstream when the branch had none.
func (c Client) Push(ctx context.Context, repo *git.Repository, provider auth.Provider) (FetchResult, error) {
	const op = "push"

	tracking, err := currentTracking(repo, op)
	if err != nil {
		return FetchResult{}, err
	}

	ep, method, err := resolveAuth(repo, tracking.Remote, provider, op)
	if err != nil {
		return FetchResult{}, err
	}

	refspec := config.RefSpec(fmt.Sprintf("%s:%s", plumbing.NewBranchReferenceName(tracking.Branch), tracking.Merge))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName:      tracking.Remote,
		RefSpecs:        []config.RefSpec{refspec},
		Auth:            method,
		InsecureSkipTLS: c.InsecureSkipTLS,
		CABundle:        c.CABundle,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return FetchResult{}, classify(op, ep, err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return FetchResult{}, classify(op, nil, err)
	}
	if _, ok := cfg.Branches[tracking.Branch]; !ok {
		if err := setTracking(repo, tracking.Branch, tracking.Remote); err != nil {
			return FetchResult{}, err
		}
	}

	return AheadBehind(repo)
}

// DeleteRemoteBranch deletes a branch on the remote. name may be given as
// "remote/branch" or as a bare branch on the current upstream remote.
func (c Client) DeleteRemoteBranch(ctx context.Context, repo *git.Repository, name string, provider auth.Provider) error {
	const op = "delete remote branch"

	remoteName, branch, err := splitRemoteBranch(repo, name)
	if err != nil {
		return NewError(KindPrecondition, op, err)
	}

	ep, method, err := resolveAuth(repo, remoteName, provider, op)
	if err != nil {
		return err
	}

	refspec := config.RefSpec(":" + plumbing.NewBranchReferenceName(branch).String())
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName:      remoteName,
		RefSpecs:        []config.RefSpec{refspec},
		Auth:            method,
		InsecureSkipTLS: c.InsecureSkipTLS,
		CABundle:        c.CABundle,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return classify(op, ep, err)
	}

	// The tracking ref normally goes with the push; drop any leftover.
	trackingRef := plumbing.NewRemoteReferenceName(remoteName, branch)
	if _, err := repo.Reference(trackingRef, false); err == nil {
		if err := repo.Storer.RemoveReference(trackingRef); err != nil {
			return classify(op, nil, err)
		}
	}
	return nil
}

func splitRemoteBranch(repo *git.Repository, name string) (string, string, error) {
	remotes, err := repo.Remotes()
	if err != nil {
		return "", "", err
	}
	for _, r := range remotes {
		prefix := r.Config().Name + "/"
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return r.Config().Name, strings.TrimPrefix(name, prefix), nil
		}
	}

	if len(remotes) == 0 {
		return "", "", ErrNoRemote
	}
	remote := remotes[0].Config().Name
	if branch, err := CurrentBranch(repo); err == nil {
		if tracking, err := Upstream(repo, branch); err == nil {
			remote = tracking.Remote
		}
	}
	return remote, name, nil
}

// RemoteURL returns the first URL of the remote the checked-out branch
// tracks.
func RemoteURL(repo *git.Repository) (string, error) {
	const op = "remote url"

	tracking, err := currentTracking(repo, op)
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote(tracking.Remote)
	if err != nil {
		return "", NewError(KindPrecondition, op, fmt.Errorf("%w: %s", ErrNoRemote, tracking.Remote))
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", NewError(KindPrecondition, op, fmt.Errorf("remote %s has no URL", tracking.Remote))
	}
	return urls[0], nil
}

func currentTracking(repo *git.Repository, op string) (Tracking, error) {
	branch, err := CurrentBranch(repo)
	if err != nil {
		return Tracking{}, relabel(err, op)
	}
	tracking, err := Upstream(repo, branch)
	if err != nil {
		return Tracking{}, relabel(err, op)
	}
	return tracking, nil
}

func relabel(err error, op string) error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return &Error{Kind: gerr.Kind, Transport: gerr.Transport, Op: op, Err: gerr.Err}
	}
	return err
}

func resolveAuth(repo *git.Repository, remoteName string, provider auth.Provider, op string) (*transport.Endpoint, transport.AuthMethod, error) {
	remote, err := repo.Remote(remoteName)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return nil, nil, NewError(KindPrecondition, op, fmt.Errorf("%w: %s", ErrNoRemote, remoteName))
		}
		return nil, nil, classify(op, nil, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil, nil, NewError(KindPrecondition, op, fmt.Errorf("remote %s has no URL", remoteName))
	}

	ep, err := transport.NewEndpoint(urls[0])
	if err != nil {
		return nil, nil, NewError(KindProtocol, op, err)
	}

	method, err := providerOrAnonymous(provider)(ep)
	if err != nil {
		return ep, nil, classify(op, ep, err)
	}
	return ep, method, nil
}

func providerOrAnonymous(p auth.Provider) auth.Provider {
	if p == nil {
		return auth.Anonymous
	}
	return p
}
