package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/stagehand/internal/ui"
)

// Cascade resolves styles across several sheets in attach order; a later
// sheet overrides the properties an earlier one set.
type Cascade []*Sheet

var _ ui.Styler = Cascade(nil)

func (c Cascade) Style(el ui.Styled) lipgloss.Style {
	st := lipgloss.NewStyle()
	for _, s := range c {
		if s == nil {
			continue
		}
		st = s.apply(st, el)
	}
	return st
}
