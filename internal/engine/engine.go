// Package engine owns the state of the selected repository: its change
// list, its commit history and the single remote operation that may be
// running against it. Front ends drive it through method calls and
// observe it through Subscribe.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/changes"
	"github.com/bantamhq/gitdesk/internal/core"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/history"
	"github.com/bantamhq/gitdesk/internal/store"
	"github.com/bantamhq/gitdesk/internal/watch"
	"github.com/bantamhq/gitdesk/internal/workspace"
)

var (
	ErrBusy            = errors.New("another operation is running")
	ErrUnknownPath     = errors.New("path is not in the change list")
	ErrNothingToCommit = errors.New("no files selected")
)

// Options tunes an Engine.
type Options struct {
	CloneDir       string
	PageSize       int
	SelectNewFiles bool
	// Watch enables the filesystem watcher for the open repository.
	Watch bool
}

// Engine coordinates one selected repository. All methods are safe for
// concurrent use; remote operations run on their own goroutine between
// Start and Complete.
type Engine struct {
	store    store.Store
	client   gitops.Client
	resolver auth.Resolver
	signer   gitops.Signer
	opts     Options
	log      *logger.Entry

	mu       sync.Mutex
	selected *workspace.Selected
	tracker  *changes.Tracker
	walker   *history.Walker
	cursor   string
	busy     bool
	running  Action
	watcher  *watch.Watcher

	events bus
}

// New returns an engine with nothing selected. signer may be nil, in
// which case signed commits fail.
func New(st store.Store, client gitops.Client, resolver auth.Resolver, signer gitops.Signer, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	return &Engine{
		store:    st,
		client:   client,
		resolver: resolver,
		signer:   signer,
		opts:     opts,
		log:      logger.WithField("component", "engine"),
		tracker:  changes.NewTracker(opts.SelectNewFiles),
	}
}

// Subscribe returns a stream of events and a function that ends the
// subscription.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.events.subscribe()
}

func (e *Engine) publish(ev Event) {
	e.events.publish(ev)
}

// Busy reports whether a remote operation is running.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Running returns the running action, if any.
func (e *Engine) Running() (Action, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running, e.busy
}

func (e *Engine) checkIdleLocked() error {
	if e.busy {
		return fmt.Errorf("%w: %s", ErrBusy, e.running)
	}
	return nil
}

// Selected returns the record of the open repository.
func (e *Engine) Selected() (store.Repository, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil {
		return store.Repository{}, false
	}
	return e.selected.Record, true
}

// Repositories lists registered repositories.
func (e *Engine) Repositories(cursor string, limit int) ([]store.Repository, error) {
	return e.store.ListRepositories(cursor, limit)
}

// AddRepository registers an existing clone at path. The path must be a
// repository.
func (e *Engine) AddRepository(path string, profileID *string) (store.Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return store.Repository{}, err
	}

	if existing, err := e.store.GetRepositoryByPath(abs); err != nil {
		return store.Repository{}, err
	} else if existing != nil {
		return *existing, nil
	}

	if _, err := workspace.Open(store.Repository{Path: abs}).Repo(); err != nil {
		return store.Repository{}, err
	}

	rec := newRecord(filepath.Base(abs), abs, profileID)
	if err := e.store.AddRepository(&rec); err != nil {
		return store.Repository{}, err
	}
	return rec, nil
}

func newRecord(name, path string, profileID *string) store.Repository {
	now := time.Now().UTC()
	return store.Repository{
		ID:        uuid.New().String(),
		Name:      name,
		Path:      path,
		ProfileID: profileID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Open selects the repository at path, registering it first if needed.
func (e *Engine) Open(path string) (store.Repository, error) {
	rec, err := e.AddRepository(path, nil)
	if err != nil {
		return store.Repository{}, err
	}
	return e.OpenRepository(rec.ID)
}

// OpenRepository selects a registered repository by ID.
func (e *Engine) OpenRepository(id string) (store.Repository, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkIdleLocked(); err != nil {
		return store.Repository{}, err
	}

	rec, err := e.store.GetRepository(id)
	if err != nil {
		return store.Repository{}, err
	}
	if rec == nil {
		return store.Repository{}, fmt.Errorf("repository %s not registered", id)
	}

	sel := workspace.Open(*rec)
	if _, err := sel.Repo(); err != nil {
		return store.Repository{}, err
	}

	e.selectLocked(sel)
	return sel.Record, nil
}

// selectLocked makes sel the current repository and loads its state.
func (e *Engine) selectLocked(sel *workspace.Selected) {
	e.stopWatcherLocked()

	now := time.Now().UTC()
	if err := e.store.TouchRepository(sel.Record.ID, now); err != nil {
		e.log.WithError(err).Warn("could not record repository open time")
	} else {
		sel.Record.LastOpenedAt = &now
	}

	e.selected = sel
	e.tracker.Reset()
	e.walker = nil
	e.cursor = ""

	e.log.WithFields(logger.Fields{"repository": sel.Record.Name, "path": sel.Record.Path}).Info("repository opened")
	e.publish(RepositoryOpened{Repository: sel.Record})

	if err := e.refreshLocked(); err != nil {
		e.log.WithError(err).Warn("initial refresh failed")
	}
	if _, err := e.reloadCommitsLocked(); err != nil {
		e.log.WithError(err).Warn("initial history load failed")
	}

	if e.opts.Watch {
		e.startWatcherLocked(sel.Record.Path)
	}
}

// Close stops the watcher and deselects the repository.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopWatcherLocked()
	if e.walker != nil {
		e.walker.Reset()
	}
	e.selected = nil
	e.walker = nil
	e.tracker.Reset()
}

// Refresh re-reads the working-tree status.
func (e *Engine) Refresh() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshLocked()
}

func (e *Engine) refreshLocked() error {
	if e.selected == nil {
		return workspaceError()
	}

	src, err := e.selected.Status()
	if err != nil {
		e.selected.Invalidate()
		return err
	}
	entries, err := src.Entries()
	if err != nil {
		return gitops.NewError(gitops.KindIo, "status", err)
	}

	viewed, hadViewed := e.tracker.Opened()
	e.tracker.Refresh(entries)

	if hadViewed {
		// A status change keeps the file in view; only a file that is no
		// longer changed is dropped.
		if !e.tracker.SetOpened(viewed.Path()) {
			e.publish(ViewedFileGone{Path: viewed.Path()})
		}
	}

	e.publish(ChangeListUpdated{Total: e.tracker.CountTotal(), Selected: e.tracker.CountSelected()})
	return nil
}

func workspaceError() error {
	return gitops.NewError(gitops.KindNotARepository, "open", workspace.ErrNoRepository)
}

// Changes returns a snapshot of the change list.
func (e *Engine) Changes() changes.FileTree {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Tree()
}

// ChangeCounts returns the number of selected and total changed files.
func (e *Engine) ChangeCounts() (selected, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.CountSelected(), e.tracker.CountTotal()
}

// AllSelected reports the global checkbox state.
func (e *Engine) AllSelected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.AllSelected()
}

// FolderSelected reports whether every file in folder is selected.
func (e *Engine) FolderSelected(folder string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.AllSelectedInFolder(folder)
}

func (e *Engine) changed(ok bool) error {
	if !ok {
		return ErrUnknownPath
	}
	e.publish(ChangeListUpdated{Total: e.tracker.CountTotal(), Selected: e.tracker.CountSelected()})
	return nil
}

// SelectFile toggles one file's checkbox.
func (e *Engine) SelectFile(path string, selected bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changed(e.tracker.SetFileSelected(path, selected))
}

// SelectFolder toggles every file under folder.
func (e *Engine) SelectFolder(folder string, selected bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changed(e.tracker.SetFolderSelected(folder, selected))
}

// SelectAll toggles every file.
func (e *Engine) SelectAll(selected bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracker.SetAllSelected(selected)
	_ = e.changed(true)
}

// ExpandFolder sets a folder's expansion state.
func (e *Engine) ExpandFolder(folder string, expanded bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changed(e.tracker.SetFolderExpanded(folder, expanded))
}

// ViewFile marks path as the file being viewed. An empty path clears it.
func (e *Engine) ViewFile(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.tracker.SetOpened(path) && path != "" {
		return ErrUnknownPath
	}
	return nil
}

// LoadCommits returns the page after cursor. An empty cursor starts at
// the branch tip.
func (e *Engine) LoadCommits(cursor string) (history.Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadCommitsLocked(cursor, e.opts.PageSize)
}

// LoadCommitsLimit is LoadCommits with an explicit page size.
func (e *Engine) LoadCommitsLimit(cursor string, limit int) (history.Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadCommitsLocked(cursor, limit)
}

// MoreCommits continues from the last page handed out.
func (e *Engine) MoreCommits() (history.Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cursor == "" {
		return history.Page{}, nil
	}
	return e.loadCommitsLocked(e.cursor, e.opts.PageSize)
}

func (e *Engine) reloadCommitsLocked() (history.Page, error) {
	if e.walker != nil {
		e.walker.Reset()
	}
	e.walker = nil
	e.cursor = ""
	return e.loadCommitsLocked("", e.opts.PageSize)
}

func (e *Engine) loadCommitsLocked(cursor string, size int) (history.Page, error) {
	if e.selected == nil {
		return history.Page{}, workspaceError()
	}
	if e.walker == nil {
		repo, err := e.selected.Repo()
		if err != nil {
			return history.Page{}, err
		}
		e.walker = history.NewWalker(repo)
	}

	page, err := e.walker.Page(cursor, size)
	if err != nil {
		return history.Page{}, err
	}

	if page.HasMore {
		e.cursor = page.Cursor
	} else {
		e.cursor = ""
	}
	e.publish(CommitPageLoaded{Entries: page.Entries, HasMore: page.HasMore, Reset: cursor == ""})
	return page, nil
}

// CommitInput is the message and passphrase from the commit form.
type CommitInput struct {
	Title       string
	Description string
	Passphrase  string
}

// Commit commits the selected files with the identity of the
// repository's profile, falling back to the git config.
func (e *Engine) Commit(in CommitInput) (plumbing.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkIdleLocked(); err != nil {
		return plumbing.ZeroHash, err
	}
	if e.selected == nil {
		return plumbing.ZeroHash, workspaceError()
	}
	repo, err := e.selected.Repo()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	files := e.tracker.SelectedPaths()
	if len(files) == 0 {
		return plumbing.ZeroHash, gitops.NewError(gitops.KindPrecondition, "commit", ErrNothingToCommit)
	}

	req := gitops.CommitRequest{
		Files:       files,
		Title:       in.Title,
		Description: in.Description,
		Passphrase:  in.Passphrase,
	}
	if p := e.repositoryProfileLocked(); p != nil {
		req.AuthorName, req.AuthorEmail, req.SigningKey = p.Name, p.Email, p.SigningKey
	}
	fillIdentity(repo, &req)

	hash, err := gitops.Commit(repo, req, e.signer)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	e.log.WithFields(logger.Fields{"commit": hash.String(), "files": len(files)}).Info("committed")
	e.afterHistoryChangeLocked()
	return hash, nil
}

// fillIdentity completes missing author fields from the merged git
// config. A configured signing key is only used when commit.gpgsign is
// set.
func fillIdentity(repo *git.Repository, req *gitops.CommitRequest) {
	cfg, err := repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return
	}
	if req.AuthorName == "" {
		req.AuthorName = cfg.User.Name
	}
	if req.AuthorEmail == "" {
		req.AuthorEmail = cfg.User.Email
	}
	if req.SigningKey == "" && cfg.Raw.Section("commit").Option("gpgsign") == "true" {
		req.SigningKey = cfg.Raw.Section("user").Option("signingkey")
	}
}

func (e *Engine) afterHistoryChangeLocked() {
	if err := e.refreshLocked(); err != nil {
		e.log.WithError(err).Warn("refresh failed")
	}
	if _, err := e.reloadCommitsLocked(); err != nil {
		e.log.WithError(err).Warn("history reload failed")
	}
}

// Branches lists local and remote-tracking branches.
func (e *Engine) Branches() ([]gitops.Branch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil {
		return nil, workspaceError()
	}
	repo, err := e.selected.Repo()
	if err != nil {
		return nil, err
	}
	return gitops.ListBranches(repo)
}

// CreateBranch creates a branch at HEAD without switching to it.
func (e *Engine) CreateBranch(name string) (gitops.Branch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := core.ValidateBranchName(name); err != nil {
		return gitops.Branch{}, gitops.NewError(gitops.KindPrecondition, "create branch", fmt.Errorf("%w: %q", err, name))
	}
	repo, err := e.idleRepoLocked()
	if err != nil {
		return gitops.Branch{}, err
	}
	return gitops.CreateBranch(repo, name)
}

// Checkout switches branches on a worker, like a remote action, and
// waits for it. Uncommitted changes are not stashed; the caller decides
// whether to allow the switch.
func (e *Engine) Checkout(name string, isRemote bool) error {
	_, err := e.Run(context.Background(), Request{Action: ActionCheckout, Branch: name, Remote: isRemote})
	return err
}

// DeleteBranch deletes a local branch.
func (e *Engine) DeleteBranch(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	repo, err := e.idleRepoLocked()
	if err != nil {
		return err
	}
	return gitops.DeleteLocalBranch(repo, name)
}

func (e *Engine) idleRepoLocked() (*git.Repository, error) {
	if err := e.checkIdleLocked(); err != nil {
		return nil, err
	}
	if e.selected == nil {
		return nil, workspaceError()
	}
	return e.selected.Repo()
}

// Status reports ahead/behind against the upstream without fetching.
func (e *Engine) Status() (gitops.FetchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil {
		return gitops.FetchResult{}, workspaceError()
	}
	repo, err := e.selected.Repo()
	if err != nil {
		return gitops.FetchResult{}, err
	}
	return gitops.AheadBehind(repo)
}
