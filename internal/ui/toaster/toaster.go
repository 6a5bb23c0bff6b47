// Package toaster shows short notifications over the displayed view.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/stagehand/internal/ui"
	"github.com/zjrosen/stagehand/internal/ui/overlay"
)

// Level selects the toast's class: "info" or "error".
type Level int

const (
	Info Level = iota
	Error
)

func (l Level) String() string {
	if l == Error {
		return "error"
	}
	return "info"
}

// Model holds the toast state. Each Show starts a new generation so that a
// dismissal scheduled for an older toast leaves a newer one alone.
type Model struct {
	message string
	level   Level
	visible bool
	gen     int
}

// New creates a hidden toaster.
func New() Model {
	return Model{}
}

// Show replaces any visible toast.
func (m Model) Show(message string, level Level) Model {
	m.message = message
	m.level = level
	m.visible = message != ""
	m.gen++
	return m
}

func (m Model) Hide() Model {
	m.visible = false
	m.message = ""
	return m
}

func (m Model) Visible() bool   { return m.visible }
func (m Model) Message() string { return m.message }
func (m Model) Level() Level    { return m.level }

// DismissMsg hides the toast it was scheduled for.
type DismissMsg struct {
	gen int
}

// Dismiss returns a command that hides the current toast after d.
func (m Model) Dismiss(d time.Duration) tea.Cmd {
	gen := m.gen
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DismissMsg{gen: gen}
	})
}

// Update handles DismissMsg.
func (m Model) Update(msg tea.Msg) Model {
	if d, ok := msg.(DismissMsg); ok && d.gen == m.gen {
		return m.Hide()
	}
	return m
}

// toast is what stylesheets see: kind "toast" with the level as its class.
type toast struct{ level Level }

func (toast) ID() string          { return "" }
func (toast) Kind() string        { return "toast" }
func (t toast) Classes() []string { return []string{t.level.String()} }

// View renders the toast with the rules s has for "toast", ".info" and
// ".error". Without a border or padding rule it is a padded rounded box.
func (m Model) View(s ui.Styler) string {
	if !m.visible {
		return ""
	}
	st := lipgloss.NewStyle()
	if s != nil {
		st = s.Style(toast{level: m.level})
	}
	if st.GetBorderStyle() == (lipgloss.Border{}) {
		st = st.Border(lipgloss.RoundedBorder())
	}
	if st.GetHorizontalPadding() == 0 {
		st = st.Padding(0, 1)
	}
	return st.Render(m.message)
}

// Overlay draws the toast near the bottom edge of bg.
func (m Model) Overlay(s ui.Styler, bg string, width, height int) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.Bottom,
		Margin:   1,
	}, m.View(s), bg)
}
