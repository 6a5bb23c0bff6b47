package chooser

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type dialogKeys struct {
	Confirm key.Binding
	Switch  key.Binding
	Cancel  key.Binding
}

func defaultDialogKeys() dialogKeys {
	return dialogKeys{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Switch: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "files/name"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

type focusArea int

const (
	focusPicker focusArea = iota
	focusName
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8787"))
	labelStyle  = lipgloss.NewStyle().Faint(true)
)

// dialogModel is the Bubble Tea program behind TeaPrompter. Open and
// directory dialogs are a plain file picker; the save dialog adds a name
// field and Tab moves between the two.
type dialogModel struct {
	dialog Dialog
	keys   dialogKeys
	help   help.Model
	picker filepicker.Model
	name   textinput.Model
	focus  focusArea
	status string

	result    string
	done      bool
	cancelled bool
}

func newDialogModel(d Dialog) dialogModel {
	fp := filepicker.New()
	fp.CurrentDirectory = d.InitialDir
	fp.AllowedTypes = d.Extensions
	fp.ShowPermissions = false
	switch d.Mode {
	case ModeDirectory:
		fp.DirAllowed = true
		fp.FileAllowed = false
	default:
		fp.DirAllowed = false
		fp.FileAllowed = true
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "file name"
	ti.Width = 40
	ti.SetValue(d.InitialName)

	m := dialogModel{
		dialog: d,
		keys:   defaultDialogKeys(),
		help:   help.New(),
		picker: fp,
		name:   ti,
	}
	if d.Mode == ModeSave {
		m.focus = focusName
		m.name.Focus()
	}
	return m
}

func (m dialogModel) Init() tea.Cmd {
	if m.dialog.Mode == ModeSave {
		return tea.Batch(m.picker.Init(), textinput.Blink)
	}
	return m.picker.Init()
}

func (m dialogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.cancelled = true
			return m, tea.Quit
		case m.dialog.Mode == ModeSave && key.Matches(msg, m.keys.Switch):
			return m.toggleFocus(), nil
		case m.focus == focusName && key.Matches(msg, m.keys.Confirm):
			name := strings.TrimSpace(m.name.Value())
			if name == "" {
				m.status = "enter a file name"
				return m, nil
			}
			m.result = filepath.Join(m.picker.CurrentDirectory, name)
			m.done = true
			return m, tea.Quit
		case m.focus == focusName:
			var cmd tea.Cmd
			m.name, cmd = m.name.Update(msg)
			m.status = ""
			return m, cmd
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	cmds = append(cmds, cmd)
	if m.focus == focusName {
		m.name, cmd = m.name.Update(msg)
		cmds = append(cmds, cmd)
	}

	if ok, p := m.picker.DidSelectFile(msg); ok {
		if m.dialog.Mode == ModeSave {
			m.name.SetValue(filepath.Base(p))
			m = m.focusOn(focusName)
			return m, tea.Batch(cmds...)
		}
		m.result = p
		m.done = true
		return m, tea.Quit
	}
	if ok, p := m.picker.DidSelectDisabledFile(msg); ok {
		m.status = filepath.Base(p) + " is not an allowed file type"
	}

	return m, tea.Batch(cmds...)
}

func (m dialogModel) toggleFocus() dialogModel {
	if m.focus == focusName {
		return m.focusOn(focusPicker)
	}
	return m.focusOn(focusName)
}

func (m dialogModel) focusOn(f focusArea) dialogModel {
	m.focus = f
	if f == focusName {
		m.name.Focus()
	} else {
		m.name.Blur()
	}
	return m
}

func (m dialogModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.dialog.Title))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(m.picker.CurrentDirectory))
	b.WriteString("\n")
	b.WriteString(m.picker.View())
	b.WriteString("\n")

	if m.dialog.Mode == ModeSave {
		b.WriteString(labelStyle.Render("Name: "))
		b.WriteString(m.name.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	bindings := []key.Binding{m.keys.Confirm, m.keys.Cancel}
	if m.dialog.Mode == ModeSave {
		bindings = append(bindings, m.keys.Switch)
	}
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}

// Result returns the selected path, or false when the dialog was cancelled
// or is still open.
func (m dialogModel) Result() (string, bool) {
	if !m.done || m.cancelled {
		return "", false
	}
	return m.result, true
}
