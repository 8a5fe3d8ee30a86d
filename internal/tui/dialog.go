package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bantamhq/gitdesk/internal/core"
)

type DialogMode int

const (
	DialogInput DialogMode = iota
	DialogConfirm
)

// DialogField configures one input of a dialog.
type DialogField struct {
	Label       string
	Placeholder string
	Value       string
	Secret      bool
	CharLimit   int
	// BranchName restricts typed runes to valid branch name characters.
	BranchName bool
}

type DialogSubmitMsg struct {
	Values []string
}

type DialogCancelMsg struct{}

type DialogModel struct {
	mode        DialogMode
	title       string
	message     string
	fields      []DialogField
	inputs      []textinput.Model
	focused     int
	confirmText string
	cancelText  string
	width       int
}

func NewInputDialog(title, message string, fields ...DialogField) DialogModel {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = f.CharLimit
		ti.Width = dialogInputWidth
		ti.SetValue(f.Value)
		if f.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		inputs[i] = ti
	}
	if len(inputs) > 0 {
		inputs[0].Focus()
	}

	return DialogModel{
		mode:    DialogInput,
		title:   title,
		message: message,
		fields:  fields,
		inputs:  inputs,
		width:   dialogWidth,
	}
}

func NewConfirmDialog(title, message string) DialogModel {
	return DialogModel{
		mode:        DialogConfirm,
		title:       title,
		message:     message,
		confirmText: "Confirm",
		cancelText:  "Cancel",
		focused:     1,
		width:       dialogWidth,
	}
}

func (d DialogModel) Init() tea.Cmd {
	if d.mode == DialogInput {
		return textinput.Blink
	}
	return nil
}

func (d DialogModel) Update(msg tea.Msg) (DialogModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return d, func() tea.Msg { return DialogCancelMsg{} }

		case "enter":
			if d.mode == DialogConfirm {
				if d.focused == 0 {
					return d, func() tea.Msg { return DialogSubmitMsg{} }
				}
				return d, func() tea.Msg { return DialogCancelMsg{} }
			}
			if d.focused < len(d.inputs)-1 {
				d.focus(d.focused + 1)
				return d, nil
			}
			values := d.Values()
			return d, func() tea.Msg { return DialogSubmitMsg{Values: values} }

		case "tab", "down":
			if d.mode == DialogConfirm {
				d.focused = 1 - d.focused
				return d, nil
			}
			d.focus((d.focused + 1) % len(d.inputs))
			return d, nil

		case "shift+tab", "up":
			if d.mode == DialogConfirm {
				d.focused = 1 - d.focused
				return d, nil
			}
			d.focus((d.focused + len(d.inputs) - 1) % len(d.inputs))
			return d, nil

		case "left", "right":
			if d.mode == DialogConfirm {
				d.focused = 1 - d.focused
				return d, nil
			}
		}

		if d.mode == DialogInput && d.fields[d.focused].BranchName && len(keyMsg.Runes) > 0 {
			if !core.ValidateBranchInput(keyMsg.Runes, d.inputs[d.focused].Value()) {
				return d, nil
			}
		}
	}

	if d.mode == DialogInput && len(d.inputs) > 0 {
		var cmd tea.Cmd
		d.inputs[d.focused], cmd = d.inputs[d.focused].Update(msg)
		return d, cmd
	}

	return d, nil
}

func (d *DialogModel) focus(i int) {
	d.inputs[d.focused].Blur()
	d.focused = i
	d.inputs[i].Focus()
}

// Values returns the current input values in field order.
func (d DialogModel) Values() []string {
	values := make([]string, len(d.inputs))
	for i, in := range d.inputs {
		values[i] = in.Value()
	}
	return values
}

func (d DialogModel) View() string {
	var content strings.Builder

	content.WriteString(StyleDialogTitle.Render(d.title))
	content.WriteString("\n\n")

	if d.message != "" {
		content.WriteString(lipgloss.NewStyle().Width(d.width - 6).Render(d.message))
		content.WriteString("\n\n")
	}

	if d.mode == DialogInput {
		for i, in := range d.inputs {
			if label := d.fields[i].Label; label != "" {
				content.WriteString(StyleMetaText.Render(label))
				content.WriteString("\n")
			}
			content.WriteString(in.View())
			content.WriteString("\n\n")
		}
		content.WriteString(StyleDialogHint.Render("tab next • enter submit • esc cancel"))
	} else {
		confirmStyle := StyleDialogButton
		cancelStyle := StyleDialogButton
		if d.focused == 0 {
			confirmStyle = StyleDialogButtonFocused
		} else {
			cancelStyle = StyleDialogButtonFocused
		}

		buttons := lipgloss.JoinHorizontal(
			lipgloss.Center,
			confirmStyle.Render(d.confirmText),
			"  ",
			cancelStyle.Render(d.cancelText),
		)
		content.WriteString(buttons)
	}

	return StyleDialogBox.Width(d.width).Render(content.String())
}
