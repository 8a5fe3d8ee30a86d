package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	base := lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.mainContentView(m.mainHeight()),
		m.footerView(),
	)

	if m.modal != modalNone {
		return m.overlayModal(base)
	}
	return base
}

func (m Model) overlayModal(background string) string {
	var modalView string
	switch m.modal {
	case modalHelp:
		modalView = m.helpModalView()
	case modalBranches:
		modalView = m.branchPicker.View()
	default:
		modalView = m.dialog.View()
	}
	return overlay.Composite(modalView, background, overlay.Center, overlay.Center, 0, 0)
}

func (m Model) headerView() string {
	title := "gitdesk"
	if m.hasRepo {
		title += " · " + m.repo.Name
	}

	var right string
	if m.hasRepo {
		right = fmt.Sprintf("%d/%d selected ", m.selectedCount, m.totalCount)
	}

	return StyleHeader.Width(m.width).Render(rightAlignInWidth(" "+title, right, m.width))
}

func (m Model) mainContentView(height int) string {
	if !m.hasRepo {
		empty := StyleMetaText.Render("No repository open. Press C to clone one.")
		background := lipgloss.NewStyle().Width(m.width).Height(height).Render("")
		return overlay.Composite(empty, background, overlay.Center, overlay.Center, 0, 0)
	}

	layout := m.layoutSizes()
	gap := strings.Repeat(" ", columnGapWidth)
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderChangesPane(layout.changesWidth, height),
		gap,
		m.renderCommitsPane(layout.commitsWidth, height),
	)
	return lipgloss.NewStyle().Padding(0, 1).Height(height).Render(content)
}

func (m Model) paneTitle(title string, p pane, width int) string {
	style := StylePaneTitle
	if m.focused == p {
		style = StylePaneTitleActive
	}
	return style.Width(width).Render(" " + title)
}

func (m Model) renderChangesPane(width, height int) string {
	var b strings.Builder

	b.WriteString(m.paneTitle(fmt.Sprintf("Changes (%d)", m.totalCount), paneChanges, width))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(StyleMetaText.Render(" No local changes"))
		return lipgloss.NewStyle().Width(width).Height(height).Render(b.String())
	}

	viewport := listViewportHeight(height)
	end := min(m.changeScroll+viewport, len(m.rows))
	for i := m.changeScroll; i < end; i++ {
		line := m.renderRow(m.rows[i], width)
		if i == m.changeCursor && m.focused == paneChanges {
			line = StyleCursor.Width(width).Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(b.String())
}

func (m Model) renderRow(row TreeNode, width int) string {
	indent := strings.Repeat("  ", row.Depth)

	if row.Kind == NodeFolder {
		arrow := "▸"
		if row.Folder.Expanded {
			arrow = "▾"
		}
		name := truncateWithEllipsis(row.Folder.Path+"/", width-len(indent)-7)
		return indent + checkbox(row.Folder.Selected) + " " + arrow + " " + StyleFolder.Render(name)
	}

	f := row.File
	name := f.Name
	if row.Depth == 0 {
		name = f.Path()
	}
	name = truncateWithEllipsis(name, width-len(indent)-8)
	if f.Opened {
		name = lipgloss.NewStyle().Underline(true).Render(name)
	}
	return indent + checkbox(f.Selected) + " " + statusGlyph(f.Status) + " " + name
}

func (m Model) commitListHeight() int {
	return max(listViewportHeight(m.mainHeight())-m.detailHeight(), 1)
}

func (m Model) detailHeight() int {
	return m.mainHeight() / 3
}

func (m Model) renderCommitsPane(width, height int) string {
	var b strings.Builder

	b.WriteString(m.paneTitle("History", paneCommits, width))
	b.WriteString("\n\n")

	listHeight := m.commitListHeight()
	var lines []string
	end := min(m.commitScroll+listHeight, len(m.commits))
	for i := m.commitScroll; i < end; i++ {
		c := m.commits[i]

		marker := " "
		if !c.Pushed {
			marker = StyleUnpushed.Render("↑")
		}
		left := marker + " " + StyleMetaText.Render(shortSHA(c.ID)) + " " +
			truncateWithEllipsis(c.Title, max(width-shortSHAWidth-18, 8))
		line := rightAlignInWidth(left, StyleMetaText.Render(formatRelativeTime(c.When)), width)
		if i == m.commitCursor && m.focused == paneCommits {
			line = StyleCursor.Width(width).Render(line)
		}
		lines = append(lines, line)
	}
	if m.loadingMore {
		lines = append(lines, StyleMetaText.Render(" loading…"))
	}
	if len(m.commits) == 0 {
		lines = append(lines, StyleMetaText.Render(" No commits"))
	}

	list := lipgloss.NewStyle().Height(listHeight).Render(strings.Join(lines, "\n"))
	b.WriteString(list)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Height(m.detailHeight()).Render(m.detail))

	return lipgloss.NewStyle().Width(width).Height(height).Render(b.String())
}

// renderDetail renders the commit under the cursor. The message is
// treated as markdown.
func (m *Model) renderDetail() {
	if m.commitCursor >= len(m.commits) || m.width == 0 {
		m.detail = ""
		return
	}
	c := m.commits[m.commitCursor]
	width := max(m.layoutSizes().commitsWidth-2, 10)

	header := StyleMetaText.Render(c.ID) + "\n" + StyleMetaText.Render(c.Subtitle)

	body := "# " + c.Title
	if c.Description != "" {
		body += "\n\n" + c.Description
	}
	m.detail = header + "\n" + renderMarkdown(body, width)
}

func renderMarkdown(content string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(rendered)
}

func (m Model) footerView() string {
	branch := "no repository"
	if m.hasRepo {
		branch = m.branch
		if branch == "" {
			branch = "detached"
		}
		if m.fetch.CommitsToPush > 0 || m.fetch.CommitsToPull > 0 {
			branch += fmt.Sprintf(" ↑%d ↓%d", m.fetch.CommitsToPush, m.fetch.CommitsToPull)
		}
	}
	left := StyleFooterBranch.Render(branch)

	remaining := max(m.width-lipgloss.Width(left), 1)

	help := m.keys.ShortHelp()
	switch {
	case m.busy:
		help = m.spinner.View() + " " + truncateWithEllipsis(m.running.String()+"…", remaining-4)
	case m.status != "":
		help = StyleStatusMsg.Render(truncateWithEllipsis(m.status, remaining-2))
	default:
		help = truncateWithEllipsis(help, remaining-2)
	}

	return left + StyleFooterHelp.Width(remaining).Render(help)
}

func (m Model) helpModalView() string {
	var b strings.Builder
	b.WriteString(StyleDialogTitle.Render("Keys"))
	b.WriteString("\n\n")
	for _, binding := range m.keys.FullHelp() {
		h := binding.Help()
		b.WriteString(fmt.Sprintf("%-10s %s\n", h.Key, StyleMetaText.Render(h.Desc)))
	}
	b.WriteString("\n")
	b.WriteString(StyleDialogHint.Render("esc close"))
	return StyleDialogBox.Width(helpDialogWidth).Render(b.String())
}
