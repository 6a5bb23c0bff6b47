package chooser

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// TeaPrompter runs each dialog as its own Bubble Tea program. It takes over
// the terminal, so it must not run while another program owns it.
type TeaPrompter struct {
	options []tea.ProgramOption
}

var _ Prompter = (*TeaPrompter)(nil)

// NewTeaPrompter creates a prompter. Options are passed to every program,
// after the defaults (alt screen, context).
func NewTeaPrompter(opts ...tea.ProgramOption) *TeaPrompter {
	return &TeaPrompter{options: opts}
}

// Prompt shows d and blocks until the user selects or cancels.
func (p *TeaPrompter) Prompt(ctx context.Context, d Dialog) (string, bool, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, p.options...)
	final, err := tea.NewProgram(newDialogModel(d), opts...).Run()
	if err != nil {
		return "", false, fmt.Errorf("run %s dialog: %w", d.Mode, err)
	}
	m, ok := final.(dialogModel)
	if !ok {
		return "", false, fmt.Errorf("run %s dialog: unexpected model %T", d.Mode, final)
	}
	path, ok := m.Result()
	return path, ok, nil
}
