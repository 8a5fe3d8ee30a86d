// Package tui is the terminal front end of gitdesk. It renders the change
// list and commit log of the selected repository and drives the engine's
// remote operations from key bindings.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bantamhq/gitdesk/internal/changes"
	"github.com/bantamhq/gitdesk/internal/engine"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/history"
	"github.com/bantamhq/gitdesk/internal/store"
)

type pane int

const (
	paneChanges pane = iota
	paneCommits
)

type modalKind int

const (
	modalNone modalKind = iota
	modalHelp
	modalCommit
	modalAuth
	modalClone
	modalNewBranch
	modalBranches
	modalDeleteBranch
)

type Model struct {
	engine      *engine.Engine
	events      <-chan engine.Event
	unsubscribe func()

	repo    store.Repository
	hasRepo bool
	branch  string
	fetch   gitops.FetchResult

	tree          changes.FileTree
	rows          []TreeNode
	changeCursor  int
	changeScroll  int
	selectedCount int
	totalCount    int

	commits        []history.Entry
	commitsHasMore bool
	loadingMore    bool
	commitCursor   int
	commitScroll   int
	detail         string

	busy    bool
	running engine.Action
	status  string

	modal         modalKind
	dialog        DialogModel
	branchPicker  BranchPickerModel
	pendingAuth   *engine.AuthRequired
	pendingDelete string

	focused pane
	spinner spinner.Model
	width   int
	height  int
	keys    KeyMap
}

// NewModel subscribes to eng. The subscription is released when the
// program exits.
func NewModel(eng *engine.Engine) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	events, unsubscribe := eng.Subscribe()

	m := Model{
		engine:      eng,
		events:      events,
		unsubscribe: unsubscribe,
		spinner:     s,
		keys:        DefaultKeyMap,
	}
	if repo, ok := eng.Selected(); ok {
		m.repo, m.hasRepo = repo, true
		m.syncChanges()
	}
	if action, ok := eng.Running(); ok {
		m.busy, m.running = true, action
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, waitForEvent(m.events)}
	if m.hasRepo {
		cmds = append(cmds, m.reloadCommits(), m.loadStatus())
	}
	return tea.Batch(cmds...)
}

// reloadCommits loads the first page; entries arrive as an event.
func (m Model) reloadCommits() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.engine.LoadCommits(""); err != nil {
			return ActionErrorMsg{Operation: "load commits", Err: err}
		}
		return nil
	}
}

// syncChanges copies the engine's change list into the model.
func (m *Model) syncChanges() {
	m.tree = m.engine.Changes()
	m.rows = FlattenTree(m.tree)
	m.selectedCount, m.totalCount = m.engine.ChangeCounts()
	if m.changeCursor >= len(m.rows) {
		m.changeCursor = max(len(m.rows)-1, 0)
	}
	m.changeScroll = clampScroll(m.changeCursor, m.changeScroll, listViewportHeight(m.mainHeight()))
}

// Run starts the interactive UI on eng.
func Run(eng *engine.Engine) error {
	m := NewModel(eng)
	defer m.unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
