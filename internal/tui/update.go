package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/engine"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderDetail()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		model, cmd := m.handleEvent(msg.event)
		return model, tea.Batch(cmd, waitForEvent(m.events))

	case eventsClosedMsg:
		return m, nil

	case resultMsg:
		return m.handleResult(msg.result)

	case DialogSubmitMsg:
		return m.handleDialogSubmit(msg)

	case DialogCancelMsg:
		m.modal = modalNone
		m.pendingAuth = nil
		return m, nil

	case BranchPickerCancelMsg:
		m.modal = modalNone
		return m, nil

	case BranchSelectedMsg:
		m.modal = modalNone
		if msg.Branch.Current {
			return m, nil
		}
		return m, m.checkout(msg.Branch.Name, msg.Branch.Remote)

	case BranchDeleteMsg:
		return m.openDeleteBranch(msg)

	case branchesLoadedMsg:
		m.branchPicker = NewBranchPicker(msg.branches)
		m.modal = modalBranches
		return m, nil

	case branchChangedMsg:
		return m.setStatus(msg.status, m.loadStatus())

	case statusLoadedMsg:
		m.branch, m.fetch = msg.branch, msg.fetch
		return m, nil

	case committedMsg:
		return m.setStatus("Committed "+shortSHA(msg.hash.String()), m.loadStatus())

	case ActionErrorMsg:
		return m.handleActionError(msg)
	}

	return m, nil
}

func (m Model) setStatus(status string, cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	m.status = status
	return m, tea.Batch(cmds...)
}

func (m Model) handleActionError(msg ActionErrorMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.Err, engine.ErrBusy) {
		m.status = "Wait for " + m.running.String() + " to finish"
		return m, nil
	}
	m.status = msg.Operation + " failed: " + msg.Err.Error()
	return m, nil
}

func (m Model) handleEvent(ev engine.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case engine.RepositoryOpened:
		m.repo, m.hasRepo = ev.Repository, true
		m.changeCursor, m.changeScroll = 0, 0
		m.commits, m.commitCursor, m.commitScroll = nil, 0, 0
		return m, m.loadStatus()

	case engine.ChangeListUpdated:
		m.syncChanges()

	case engine.CommitPageLoaded:
		m.loadingMore = false
		if ev.Reset {
			m.commits = ev.Entries
			m.commitCursor, m.commitScroll = 0, 0
		} else {
			m.commits = append(m.commits, ev.Entries...)
		}
		m.commitsHasMore = ev.HasMore
		m.renderDetail()

	case engine.OperationStarted:
		m.busy, m.running = true, ev.Action
		m.status = ""
		return m, m.spinner.Tick

	case engine.OperationFinished:
		m.busy = false
		m.fetch = ev.Fetch
		switch {
		case ev.AuthRequired:
		case ev.Error != "":
			m.status = ev.Action.String() + " failed: " + ev.Error
		default:
			m.status = finishedStatus(ev)
		}
		return m, m.loadStatus()

	case engine.ViewedFileGone:
		m.status = ev.Path + " has no more changes"

	case engine.CloneFinished:
		if ev.Repository != nil {
			m.status = "Cloned " + ev.Repository.Name
		}
	}
	return m, nil
}

func finishedStatus(ev engine.OperationFinished) string {
	status := ev.Action.String() + " finished"
	if ev.Action == engine.ActionFetch {
		status += fmt.Sprintf(": %d to push, %d to pull", ev.Fetch.CommitsToPush, ev.Fetch.CommitsToPull)
	}
	return status
}

// handleResult hands the worker result back to the engine. An
// authentication failure opens the credentials dialog.
func (m Model) handleResult(res engine.Result) (tea.Model, tea.Cmd) {
	out, err := m.engine.Complete(res)
	if out.Auth != nil {
		return m.openAuth(*out.Auth)
	}
	if err != nil {
		m.status = res.Request.Action.String() + " failed: " + err.Error()
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalNone:
		return m.handleKey(msg)
	case modalHelp:
		switch msg.String() {
		case "esc", "q", "?":
			m.modal = modalNone
		}
		return m, nil
	case modalBranches:
		var cmd tea.Cmd
		m.branchPicker, cmd = m.branchPicker.Update(msg)
		return m, cmd
	default:
		var cmd tea.Cmd
		m.dialog, cmd = m.dialog.Update(msg)
		return m, cmd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.modal = modalHelp
		return m, nil

	case key.Matches(msg, m.keys.Clone):
		return m.openClone()
	}

	if !m.hasRepo {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.SwitchPane):
		if m.focused == paneChanges {
			m.focused = paneCommits
		} else {
			m.focused = paneChanges
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(1)

	case key.Matches(msg, m.keys.Toggle):
		return m.toggleSelection()

	case key.Matches(msg, m.keys.Expand):
		return m.openRow()

	case key.Matches(msg, m.keys.SelectAll):
		m.engine.SelectAll(!m.engine.AllSelected())
		return m, nil

	case key.Matches(msg, m.keys.Commit):
		return m.openCommit()

	case key.Matches(msg, m.keys.Fetch):
		return m, m.startAction(m.remoteRequest(engine.ActionFetch))

	case key.Matches(msg, m.keys.Pull):
		return m, m.startAction(m.remoteRequest(engine.ActionPull))

	case key.Matches(msg, m.keys.Push):
		return m, m.startAction(m.remoteRequest(engine.ActionPush))

	case key.Matches(msg, m.keys.Branches):
		return m, m.loadBranches()

	case key.Matches(msg, m.keys.NewBranch):
		return m.openNewBranch()

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.refresh(), m.loadStatus())
	}

	return m, nil
}

// remoteRequest uses the repository's profile when one is assigned and
// tries anonymously otherwise.
func (m Model) remoteRequest(action engine.Action) engine.Request {
	return engine.Request{
		Action:     action,
		UseProfile: m.repo.ProfileID != nil,
	}
}

func (m Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	height := listViewportHeight(m.mainHeight())

	if m.focused == paneChanges {
		m.changeCursor = min(max(m.changeCursor+delta, 0), max(len(m.rows)-1, 0))
		m.changeScroll = clampScroll(m.changeCursor, m.changeScroll, height)
		return m, nil
	}

	m.commitCursor = min(max(m.commitCursor+delta, 0), max(len(m.commits)-1, 0))
	m.commitScroll = clampScroll(m.commitCursor, m.commitScroll, m.commitListHeight())
	m.renderDetail()
	cmd := m.maybeLoadMoreCommits()
	return m, cmd
}

func (m *Model) maybeLoadMoreCommits() tea.Cmd {
	if !m.commitsHasMore || m.loadingMore {
		return nil
	}
	if len(m.commits)-m.commitCursor > commitLoadMoreThreshold {
		return nil
	}
	m.loadingMore = true
	return m.loadMoreCommits()
}

func (m Model) currentRow() (TreeNode, bool) {
	if m.changeCursor < 0 || m.changeCursor >= len(m.rows) {
		return TreeNode{}, false
	}
	return m.rows[m.changeCursor], true
}

func (m Model) toggleSelection() (tea.Model, tea.Cmd) {
	if m.focused != paneChanges {
		return m, nil
	}
	row, ok := m.currentRow()
	if !ok {
		return m, nil
	}

	var err error
	if row.Kind == NodeFolder {
		err = m.engine.SelectFolder(row.Folder.Path, !row.Folder.Selected)
	} else {
		err = m.engine.SelectFile(row.File.Path(), !row.File.Selected)
	}
	if err != nil {
		m.status = err.Error()
	}
	return m, nil
}

// openRow expands or collapses a folder, or marks a file as viewed.
func (m Model) openRow() (tea.Model, tea.Cmd) {
	if m.focused != paneChanges {
		return m, nil
	}
	row, ok := m.currentRow()
	if !ok {
		return m, nil
	}

	var err error
	if row.Kind == NodeFolder {
		err = m.engine.ExpandFolder(row.Folder.Path, !row.Folder.Expanded)
	} else {
		err = m.engine.ViewFile(row.File.Path())
	}
	if err != nil {
		m.status = err.Error()
	}
	return m, nil
}

func (m Model) openCommit() (tea.Model, tea.Cmd) {
	if m.selectedCount == 0 {
		m.status = "Select files to commit"
		return m, nil
	}
	m.dialog = NewInputDialog("Commit", "",
		DialogField{Label: "Title", Placeholder: "Summary", CharLimit: titleMaxLength},
		DialogField{Label: "Description", Placeholder: "Optional"},
		DialogField{Label: "Signing passphrase", Placeholder: "Only for signed commits", Secret: true},
	)
	m.modal = modalCommit
	return m, m.dialog.Init()
}

func (m Model) openNewBranch() (tea.Model, tea.Cmd) {
	m.dialog = NewInputDialog("New branch", "Created from the current commit.",
		DialogField{Placeholder: "feature/name", CharLimit: branchNameMaxLength, BranchName: true},
	)
	m.modal = modalNewBranch
	return m, m.dialog.Init()
}

func (m Model) openClone() (tea.Model, tea.Cmd) {
	m.dialog = NewInputDialog("Clone repository", "",
		DialogField{Label: "URL", Placeholder: "https://host/owner/repo.git"},
		DialogField{Label: "Parent directory", Placeholder: "Default clone directory"},
	)
	m.modal = modalClone
	return m, m.dialog.Init()
}

func (m Model) openDeleteBranch(msg BranchDeleteMsg) (tea.Model, tea.Cmd) {
	if msg.Branch.Current || msg.Branch.Remote {
		m.modal = modalNone
		m.status = "Only local branches other than the current one can be deleted"
		return m, nil
	}
	m.pendingDelete = msg.Branch.Name
	m.dialog = NewConfirmDialog("Delete branch", "Delete "+msg.Branch.Name+"?")
	m.modal = modalDeleteBranch
	return m, nil
}

// openAuth asks for the credentials the failed operation needs. HTTPS
// takes a username and password; SSH takes a username, key path and
// passphrase.
func (m Model) openAuth(ar engine.AuthRequired) (tea.Model, tea.Cmd) {
	m.pendingAuth = &ar
	message := "The remote rejected the " + ar.Action.String() + " request."

	if ar.Mode == auth.SSH {
		username := ar.Username
		if username == "" {
			username = "git"
		}
		m.dialog = NewInputDialog("SSH credentials", message,
			DialogField{Label: "Username", Value: username},
			DialogField{Label: "Private key", Placeholder: "~/.ssh/id_ed25519", Value: ar.Secret},
			DialogField{Label: "Passphrase", Secret: true},
		)
	} else {
		m.dialog = NewInputDialog("HTTPS credentials", message,
			DialogField{Label: "Username", Value: ar.Username},
			DialogField{Label: "Password or token", Value: ar.Secret, Secret: true},
		)
	}
	m.modal = modalAuth
	return m, m.dialog.Init()
}

func (m Model) handleDialogSubmit(msg DialogSubmitMsg) (tea.Model, tea.Cmd) {
	modal := m.modal
	m.modal = modalNone

	switch modal {
	case modalCommit:
		title := strings.TrimSpace(msg.Values[0])
		if title == "" {
			m.status = "Commit title is required"
			return m, nil
		}
		return m, m.commit(engine.CommitInput{
			Title:       title,
			Description: strings.TrimSpace(msg.Values[1]),
			Passphrase:  msg.Values[2],
		})

	case modalNewBranch:
		return m, m.createBranch(strings.TrimSpace(msg.Values[0]))

	case modalClone:
		url := strings.TrimSpace(msg.Values[0])
		if url == "" {
			m.status = "Clone URL is required"
			return m, nil
		}
		return m, m.startAction(engine.Request{
			Action:    engine.ActionClone,
			URL:       url,
			ParentDir: strings.TrimSpace(msg.Values[1]),
		})

	case modalDeleteBranch:
		name := m.pendingDelete
		m.pendingDelete = ""
		return m, m.deleteBranch(name)

	case modalAuth:
		if m.pendingAuth == nil {
			return m, nil
		}
		ar := *m.pendingAuth
		m.pendingAuth = nil
		creds := engine.Credentials{Username: strings.TrimSpace(msg.Values[0])}
		if ar.Mode == auth.SSH {
			creds.KeyPath = strings.TrimSpace(msg.Values[1])
			creds.Passphrase = msg.Values[2]
		} else {
			creds.Secret = msg.Values[1]
		}
		return m, m.retryAction(ar, creds)
	}

	return m, nil
}
