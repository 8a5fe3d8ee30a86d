package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	logger "github.com/sirupsen/logrus"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/store"
	"github.com/bantamhq/gitdesk/internal/workspace"
)

// Start validates req, marks the engine busy and runs the action on its
// own goroutine. The returned channel receives exactly one Result, which
// the caller must hand to Complete. A second Start before Complete fails
// with ErrBusy.
//
// A pull with pending changes is rejected here, before any network call.
func (e *Engine) Start(ctx context.Context, req Request) (<-chan Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkIdleLocked(); err != nil {
		return nil, err
	}

	res := Result{Request: req}
	var err error

	switch req.Action {
	case ActionClone:
		if strings.TrimSpace(req.URL) == "" {
			return nil, gitops.NewError(gitops.KindPrecondition, "clone", errors.New("missing URL"))
		}
		if req.ParentDir == "" {
			res.Request.ParentDir = e.opts.CloneDir
		}
		res.mode = auth.Classify(strings.TrimSpace(req.URL))
		if res.profile, err = e.resolveProfileLocked(req.Profile); err != nil {
			return nil, err
		}
	case ActionCheckout:
		if req.Branch == "" {
			return nil, gitops.NewError(gitops.KindPrecondition, "checkout", errors.New("missing branch"))
		}
		if err := e.forkLocked(&res); err != nil {
			return nil, err
		}
	case ActionFetch, ActionPull, ActionPush, ActionDeleteRemoteBranch:
		if err := e.forkLocked(&res); err != nil {
			return nil, err
		}
		if req.Action == ActionPull && e.tracker.CountTotal() > 0 {
			return nil, gitops.NewError(gitops.KindPrecondition, "pull", gitops.ErrUncommittedChanges)
		}
		if req.Action == ActionDeleteRemoteBranch && req.Branch == "" {
			return nil, gitops.NewError(gitops.KindPrecondition, "delete remote branch", errors.New("missing branch"))
		}
		res.mode = remoteMode(res.repo)
		res.profile = e.repositoryProfileLocked()
	default:
		return nil, fmt.Errorf("unknown action %s", req.Action)
	}

	var provider auth.Provider
	var shortCircuit error
	if req.Action != ActionCheckout {
		provider, shortCircuit = e.providerLocked(&res)
	}

	e.busy = true
	e.running = req.Action
	e.log.WithFields(logger.Fields{"action": req.Action, "authenticated": res.authenticated}).Info("operation started")
	e.publish(OperationStarted{Action: req.Action})

	out := make(chan Result, 1)
	if shortCircuit != nil {
		res.Err = shortCircuit
		out <- res
		return out, nil
	}

	go func() {
		out <- work(ctx, e.client, res, provider)
	}()
	return out, nil
}

// forkLocked gives res a handle of its own on the selected repository.
// Reads keep using the selection's handle while the worker runs.
func (e *Engine) forkLocked(res *Result) error {
	if e.selected == nil {
		return workspaceError()
	}
	repo, err := e.selected.Fork()
	if err != nil {
		return err
	}
	res.repo, res.sel = repo, e.selected
	return nil
}

// providerLocked picks the credential provider for res. A non-nil error
// means the profile cannot satisfy the remote and no attempt should be
// made.
func (e *Engine) providerLocked(res *Result) (auth.Provider, error) {
	req := res.Request
	switch {
	case req.Credentials != nil:
		c := req.Credentials
		res.authenticated = true
		res.mode = c.Mode
		secret := c.Secret
		if c.Mode == auth.SSH && c.KeyPath == "" {
			// The dialog puts the key path in the secret field for SSH.
			return e.resolver.Build(c.Mode, c.Username, "", secret, c.Passphrase), nil
		}
		return e.resolver.Build(c.Mode, c.Username, secret, c.KeyPath, c.Passphrase), nil
	case req.UseProfile:
		if res.profile == nil || auth.MissingAuth(*res.profile, res.mode) {
			return nil, &gitops.Error{
				Kind:      gitops.KindAuth,
				Transport: gitops.TransportFor(res.mode),
				Op:        req.Action.String(),
				Err:       auth.ErrNoCredentials,
			}
		}
		res.authenticated = true
		return e.resolver.ForProfile(*res.profile, res.mode, ""), nil
	}
	return auth.Anonymous, nil
}

// remoteMode classifies the URL of the remote the current branch tracks.
func remoteMode(repo *git.Repository) auth.CloneMode {
	url, err := gitops.RemoteURL(repo)
	if err != nil {
		return auth.SSH
	}
	return auth.Classify(url)
}

// work performs the blocking call for one action. It touches no engine
// state and no handle but res.repo.
func work(ctx context.Context, c gitops.Client, res Result, provider auth.Provider) Result {
	switch res.Request.Action {
	case ActionFetch:
		res.Fetch, res.Err = c.Fetch(ctx, res.repo, provider)
	case ActionPull:
		res.Fetch, res.Err = c.Pull(ctx, res.repo, provider)
	case ActionPush:
		res.Fetch, res.Err = c.Push(ctx, res.repo, provider)
	case ActionDeleteRemoteBranch:
		res.Err = c.DeleteRemoteBranch(ctx, res.repo, res.Request.Branch, provider)
	case ActionCheckout:
		res.Err = gitops.Checkout(res.repo, res.Request.Branch, res.Request.Remote)
	case ActionClone:
		res.repo, res.Dir, res.Err = c.Clone(ctx, gitops.CloneRequest{
			URL:       res.Request.URL,
			ParentDir: res.Request.ParentDir,
			Provider:  provider,
			Profile:   res.profile,
		})
	}
	return res
}

// Complete consumes a Result from Start and clears the busy flag. An
// authentication failure of an anonymous attempt is not an error: the
// Outcome carries the AuthRequired request the caller answers with
// credentials. Every other failure is returned as is.
func (e *Engine) Complete(res Result) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.busy = false
	action := res.Request.Action
	out := Outcome{Action: action, Fetch: res.Fetch}
	log := e.log.WithField("action", action)

	if t, ok := gitops.IsAuth(res.Err); ok && !res.authenticated {
		req := e.authRequiredLocked(res, t)
		out.Auth = &req
		log.WithField("mode", req.ModeName).Info("credentials required")
		e.publish(req)
		e.publish(OperationFinished{Action: action, AuthRequired: true})
		if action == ActionClone {
			e.publish(CloneFinished{Error: res.Err.Error()})
		}
		return out, nil
	}

	if action == ActionClone {
		return e.completeCloneLocked(res, out)
	}

	if e.selected != nil {
		if res.sel == e.selected {
			e.selected.Adopt(res.repo)
		}
		e.afterHistoryChangeLocked()
	}

	finished := OperationFinished{Action: action, Fetch: res.Fetch}
	if res.Err != nil {
		log.WithError(res.Err).Warn("operation failed")
		finished.Err, finished.Error = res.Err, res.Err.Error()
	} else {
		log.WithFields(logger.Fields{"ahead": res.Fetch.CommitsToPush, "behind": res.Fetch.CommitsToPull}).Info("operation finished")
	}
	e.publish(finished)
	return out, res.Err
}

func (e *Engine) completeCloneLocked(res Result, out Outcome) (Outcome, error) {
	fail := func(err error) (Outcome, error) {
		e.log.WithError(err).WithField("url", res.Request.URL).Warn("clone failed")
		e.publish(CloneFinished{Error: err.Error()})
		e.publish(OperationFinished{Action: ActionClone, Err: err, Error: err.Error()})
		return out, err
	}

	if res.Err != nil {
		return fail(res.Err)
	}

	rec, err := e.registerCloneLocked(res)
	if err != nil {
		return fail(err)
	}

	e.selectLocked(workspace.Attach(rec, res.repo))
	out.Repository = &rec

	e.publish(CloneFinished{Repository: &rec})
	e.publish(OperationFinished{Action: ActionClone})
	return out, nil
}

func (e *Engine) registerCloneLocked(res Result) (store.Repository, error) {
	var profileID *string
	if res.profile != nil {
		id := res.profile.ID
		profileID = &id
	}

	existing, err := e.store.GetRepositoryByPath(res.Dir)
	if err != nil {
		return store.Repository{}, err
	}
	if existing != nil {
		if err := e.store.SetRepositoryProfile(existing.ID, profileID); err != nil {
			return store.Repository{}, err
		}
		existing.ProfileID = profileID
		return *existing, nil
	}

	rec := newRecord(gitops.FolderName(res.Request.URL), res.Dir, profileID)
	if err := e.store.AddRepository(&rec); err != nil {
		return store.Repository{}, err
	}
	return rec, nil
}

func (e *Engine) authRequiredLocked(res Result, t gitops.Transport) AuthRequired {
	mode := res.mode
	if t != gitops.TransportNone {
		mode = t.Mode()
	}

	req := AuthRequired{
		Mode:     mode,
		ModeName: mode.String(),
		Action:   res.Request.Action,
		Branch:   res.Request.Branch,
		URL:      res.Request.URL,
	}
	if res.Request.Action == ActionClone {
		req.ParentDir = res.Request.ParentDir
	}
	if p := res.profile; p != nil {
		req.ProfileID = p.ID
		req.Username = p.Username
		if mode == auth.HTTPS {
			req.Secret = p.Password
		} else {
			req.Secret = p.PrivateKeyPath
		}
	}
	return req
}

// Run is Start followed by Complete for callers that can block.
func (e *Engine) Run(ctx context.Context, req Request) (Outcome, error) {
	ch, err := e.Start(ctx, req)
	if err != nil {
		return Outcome{Action: req.Action}, err
	}
	return e.Complete(<-ch)
}

// Retry re-issues the action behind an AuthRequired request with the
// given credentials. A clone keeps the profile chosen for the first
// attempt.
func (e *Engine) Retry(ctx context.Context, ar AuthRequired, creds Credentials) (<-chan Result, error) {
	creds.Mode = ar.Mode
	req := Request{
		Action:      ar.Action,
		Branch:      ar.Branch,
		URL:         ar.URL,
		ParentDir:   ar.ParentDir,
		Credentials: &creds,
	}
	if ar.ProfileID != "" {
		req.Profile = SelectedProfile{ID: ar.ProfileID}
	}
	return e.Start(ctx, req)
}
