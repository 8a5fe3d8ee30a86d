package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bantamhq/gitdesk/internal/gitops"
)

type BranchSelectedMsg struct {
	Branch gitops.Branch
}

type BranchDeleteMsg struct {
	Branch gitops.Branch
}

type BranchPickerCancelMsg struct{}

// BranchPickerModel lists local branches first, then remote ones.
type BranchPickerModel struct {
	branches []gitops.Branch
	cursor   int
	scroll   int
	width    int
}

func NewBranchPicker(branches []gitops.Branch) BranchPickerModel {
	m := BranchPickerModel{branches: branches, width: branchPickerWidth}
	for i, b := range branches {
		if b.Current {
			m.cursor = i
			m.scroll = clampScroll(i, 0, pickerMaxItems)
			break
		}
	}
	return m
}

func (m BranchPickerModel) Init() tea.Cmd {
	return nil
}

func (m BranchPickerModel) Update(msg tea.Msg) (BranchPickerModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc", "q":
		return m, func() tea.Msg { return BranchPickerCancelMsg{} }

	case "enter":
		if len(m.branches) == 0 {
			return m, nil
		}
		selected := m.branches[m.cursor]
		return m, func() tea.Msg { return BranchSelectedMsg{Branch: selected} }

	case "d", "x":
		if len(m.branches) == 0 {
			return m, nil
		}
		selected := m.branches[m.cursor]
		return m, func() tea.Msg { return BranchDeleteMsg{Branch: selected} }

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.branches)-1 {
			m.cursor++
		}
	}

	m.scroll = clampScroll(m.cursor, m.scroll, pickerMaxItems)
	return m, nil
}

func (m BranchPickerModel) View() string {
	var content strings.Builder

	content.WriteString(StyleDialogTitle.Render("Branches"))
	content.WriteString("\n\n")

	if len(m.branches) == 0 {
		content.WriteString(StyleMetaText.Render("No branches"))
		content.WriteString("\n")
	}

	end := min(m.scroll+pickerMaxItems, len(m.branches))
	for i := m.scroll; i < end; i++ {
		b := m.branches[i]

		icon := "  "
		switch {
		case b.Current:
			icon = "* "
		case b.Remote:
			icon = "⇣ "
		}

		line := truncateWithEllipsis(icon+b.Name, m.width-8)
		if i == m.cursor {
			content.WriteString(StylePickerSelected.Render("> " + line))
		} else {
			content.WriteString("  " + line)
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(StyleDialogHint.Render("j/k navigate • enter checkout • d delete • esc close"))

	return StyleDialogBox.Width(m.width).Render(content.String())
}
