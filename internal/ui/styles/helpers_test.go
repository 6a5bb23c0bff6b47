package styles

import "github.com/charmbracelet/lipgloss"

func colorOf(st lipgloss.Style) string {
	if c, ok := st.GetForeground().(lipgloss.Color); ok {
		return string(c)
	}
	return ""
}

func backgroundOf(st lipgloss.Style) string {
	if c, ok := st.GetBackground().(lipgloss.Color); ok {
		return string(c)
	}
	return ""
}
