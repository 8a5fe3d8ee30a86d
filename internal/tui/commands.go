package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bantamhq/gitdesk/internal/engine"
)

func waitForEvent(events <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func waitForResult(results <-chan engine.Result) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{result: <-results}
	}
}

// startAction claims the engine synchronously so a second key press is
// rejected with ErrBusy, then waits for the worker off the update loop.
func (m Model) startAction(req engine.Request) tea.Cmd {
	results, err := m.engine.Start(context.Background(), req)
	if err != nil {
		return func() tea.Msg {
			return ActionErrorMsg{Operation: req.Action.String(), Err: err}
		}
	}
	return waitForResult(results)
}

func (m Model) retryAction(ar engine.AuthRequired, creds engine.Credentials) tea.Cmd {
	results, err := m.engine.Retry(context.Background(), ar, creds)
	if err != nil {
		return func() tea.Msg {
			return ActionErrorMsg{Operation: ar.Action.String(), Err: err}
		}
	}
	return waitForResult(results)
}

func (m Model) commit(in engine.CommitInput) tea.Cmd {
	return func() tea.Msg {
		hash, err := m.engine.Commit(in)
		if err != nil {
			return ActionErrorMsg{Operation: "commit", Err: err}
		}
		return committedMsg{hash: hash}
	}
}

// loadMoreCommits appends through the CommitPageLoaded event.
func (m Model) loadMoreCommits() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.engine.MoreCommits(); err != nil {
			return ActionErrorMsg{Operation: "load commits", Err: err}
		}
		return nil
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.Refresh(); err != nil {
			return ActionErrorMsg{Operation: "refresh", Err: err}
		}
		return nil
	}
}

// loadStatus reads the current branch and its distance to upstream. A
// branch without upstream reports zero counts.
func (m Model) loadStatus() tea.Cmd {
	return func() tea.Msg {
		var msg statusLoadedMsg
		if branches, err := m.engine.Branches(); err == nil {
			for _, b := range branches {
				if b.Current {
					msg.branch = b.Name
				}
			}
		}
		if fetch, err := m.engine.Status(); err == nil {
			msg.fetch = fetch
		}
		return msg
	}
}

func (m Model) loadBranches() tea.Cmd {
	return func() tea.Msg {
		branches, err := m.engine.Branches()
		if err != nil {
			return ActionErrorMsg{Operation: "list branches", Err: err}
		}
		return branchesLoadedMsg{branches: branches}
	}
}

func (m Model) checkout(name string, remote bool) tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.Checkout(name, remote); err != nil {
			return ActionErrorMsg{Operation: "checkout", Err: err}
		}
		return branchChangedMsg{status: "Switched to " + name}
	}
}

func (m Model) createBranch(name string) tea.Cmd {
	return func() tea.Msg {
		branch, err := m.engine.CreateBranch(name)
		if err != nil {
			return ActionErrorMsg{Operation: "create branch", Err: err}
		}
		return branchChangedMsg{status: "Created " + branch.Name}
	}
}

func (m Model) deleteBranch(name string) tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.DeleteBranch(name); err != nil {
			return ActionErrorMsg{Operation: "delete branch", Err: err}
		}
		return branchChangedMsg{status: "Deleted " + name}
	}
}
