package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	Expand     key.Binding
	SelectAll  key.Binding
	SwitchPane key.Binding
	Commit     key.Binding
	Fetch      key.Binding
	Pull       key.Binding
	Push       key.Binding
	Branches   key.Binding
	NewBranch  key.Binding
	Clone      key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("k/up", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j/down", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "select"),
	),
	Expand: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open/expand"),
	),
	SelectAll: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "select all"),
	),
	SwitchPane: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch pane"),
	),
	Commit: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "commit"),
	),
	Fetch: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fetch"),
	),
	Pull: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pull"),
	),
	Push: key.NewBinding(
		key.WithKeys("P"),
		key.WithHelp("P", "push"),
	),
	Branches: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "branches"),
	),
	NewBranch: key.NewBinding(
		key.WithKeys("B"),
		key.WithHelp("B", "new branch"),
	),
	Clone: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "clone"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k KeyMap) ShortHelp() string {
	return "q quit  tab pane  space select  c commit  f/p/P fetch/pull/push  ? help"
}

// FullHelp lists every binding for the help modal.
func (k KeyMap) FullHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Toggle, k.Expand, k.SelectAll, k.SwitchPane,
		k.Commit, k.Fetch, k.Pull, k.Push, k.Branches, k.NewBranch,
		k.Clone, k.Refresh, k.Help, k.Quit,
	}
}
