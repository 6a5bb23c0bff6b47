package stage

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/stagehand/internal/fade"
	"github.com/zjrosen/stagehand/internal/loader"
	"github.com/zjrosen/stagehand/internal/log"
	"github.com/zjrosen/stagehand/internal/resource"
	"github.com/zjrosen/stagehand/internal/ui"
	"github.com/zjrosen/stagehand/internal/ui/styles"
)

// SheetSource resolves stylesheet names for rendering.
type SheetSource interface {
	Stylesheet(name string) (*styles.Sheet, bool)
}

// Window is the display surface: a Bubble Tea model that shows one scene at
// a time. Messages it does not handle itself go to the controller of the
// displayed scene.
type Window struct {
	title    string
	content  *Scene
	visible  bool
	width    int
	height   int
	sheets   SheetSource
	animator *fade.Animator
}

var (
	_ tea.Model               = (*Window)(nil)
	_ resource.Binder[*Scene] = (*Window)(nil)
)

// NewWindow creates a hidden, empty window. A nil animator runs fades at
// the default frame rate.
func NewWindow(title string, animator *fade.Animator) *Window {
	if animator == nil {
		animator = fade.NewAnimator(fade.DefaultFPS)
	}
	return &Window{title: title, animator: animator}
}

func (w *Window) Title() string             { return w.title }
func (w *Window) Content() *Scene           { return w.content }
func (w *Window) Visible() bool             { return w.visible }
func (w *Window) Size() (width, height int) { return w.width, w.height }
func (w *Window) Animator() *fade.Animator  { return w.animator }

// SetContent replaces the displayed scene and fits it to the window.
func (w *Window) SetContent(s *Scene) {
	w.content = s
	w.fit()
}

func (w *Window) Show() { w.visible = true }
func (w *Window) Hide() { w.visible = false }

// setSheets is called by the manager that owns the window.
func (w *Window) setSheets(src SheetSource) { w.sheets = src }

func (w *Window) fit() {
	if w.content == nil || w.width == 0 {
		return
	}
	if p, ok := w.content.Pane(); ok {
		p.SetSize(w.width, w.height)
	}
}

func (w *Window) Init() tea.Cmd {
	if w.title == "" {
		return nil
	}
	return tea.SetWindowTitle(w.title)
}

func (w *Window) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width, w.height = msg.Width, msg.Height
		w.fit()
		log.Debug(log.CatView, "window resized", "width", w.width, "height", w.height)
	case fade.FrameMsg:
		return w, w.animator.Update(msg)
	}

	if w.content == nil {
		return w, nil
	}
	if u, ok := w.content.Controller().(loader.Updater); ok {
		return w, u.Update(msg)
	}
	return w, nil
}

func (w *Window) View() string {
	if !w.visible || w.content == nil {
		return ""
	}
	return w.content.Render(w.cascade())
}

// Styler returns the stylesheets of the displayed scene for drawing things
// over it. It is nil when nothing is displayed.
func (w *Window) Styler() ui.Styler {
	if w.content == nil {
		return nil
	}
	return w.cascade()
}

// cascade resolves the attached sheets of the current scene. Names that no
// longer resolve are skipped.
func (w *Window) cascade() styles.Cascade {
	if w.sheets == nil {
		return styles.Cascade{}
	}
	names := w.content.Stylesheets()
	c := make(styles.Cascade, 0, len(names))
	for _, name := range names {
		if s, ok := w.sheets.Stylesheet(name); ok {
			c = append(c, s)
		}
	}
	return c
}
