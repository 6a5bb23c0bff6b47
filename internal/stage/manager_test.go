package stage

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/stagehand/internal/fade"
	"github.com/zjrosen/stagehand/internal/loader"
	"github.com/zjrosen/stagehand/internal/nodes"
	"github.com/zjrosen/stagehand/internal/ui"
	"github.com/zjrosen/stagehand/internal/ui/styles"
)

const homeView = `
controller: home
root:
  kind: box
  id: root
  children:
    - kind: text
      id: title
      class: [title]
      text: Welcome
`

const settingsView = `
root:
  kind: box
  id: settings
  children:
    - kind: text
      text: Settings
`

const footerNode = `
controller: footer
root:
  kind: text
  id: footer
  text: bye
`

type homeController struct {
	root ui.Element
}

func (c *homeController) Init(root ui.Element) { c.root = root }

type footerController struct{}

func (footerController) Init(ui.Element) {}

type countingLoader struct {
	loader.Loader
	calls int
}

func (l *countingLoader) Load(ctx context.Context, path string) (*loader.Result, error) {
	l.calls++
	return l.Loader.Load(ctx, path)
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"views/home.yaml":     {Data: []byte(homeView)},
		"views/settings.yaml": {Data: []byte(settingsView)},
		"views/bad.yaml":      {Data: []byte("root: [")},
		"nodes/footer.yaml":   {Data: []byte(footerNode)},
		"css/theme.yaml":      {Data: []byte("rules:\n  .title:\n    bold: true\n")},
		"css/dark.yaml":       {Data: []byte("rules:\n  text:\n    foreground: \"#FFFFFF\"\n")},
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	l := loader.NewFSLoader(testFS(),
		loader.WithController("home", func() loader.Controller { return &homeController{} }),
		loader.WithController("footer", func() loader.Controller { return footerController{} }),
	)
	return New(WithLoader(l), WithWindow(NewWindow("test", nil)))
}

func TestShow_RegisteredViewIsDisplayed(t *testing.T) {
	m := newTestManager(t)
	home, err := m.RegisterView(context.Background(), "home", "views/home.yaml")
	require.NoError(t, err)

	require.NoError(t, m.Show("home"))

	require.Same(t, home, m.Window().Content())
	require.True(t, m.Window().Visible())
	require.Contains(t, m.Window().View(), "Welcome")
}

func TestShow_MissingViewLeavesWindowUnchanged(t *testing.T) {
	m := newTestManager(t)
	home, err := m.RegisterView(context.Background(), "home", "views/home.yaml")
	require.NoError(t, err)
	require.NoError(t, m.Show("home"))

	err = m.Show("missing")

	require.ErrorIs(t, err, ErrNotFound)
	require.Same(t, home, m.Window().Content())
}

func TestShow_MissingViewOnFreshWindow(t *testing.T) {
	m := newTestManager(t)

	require.ErrorIs(t, m.Show("missing"), ErrNotFound)
	require.Nil(t, m.Window().Content())
	require.False(t, m.Window().Visible())
}

func TestShowOn_OtherWindowUsesAttachedStylesheets(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, err := m.RegisterView(ctx, "home", "views/home.yaml")
	require.NoError(t, err)
	_, err = m.AddStylesheet(ctx, "theme", "css/theme.yaml")
	require.NoError(t, err)
	require.NoError(t, m.AttachStylesheet("home", "theme"))

	other := NewWindow("other", nil)
	require.NoError(t, m.ShowOn(other, "home"))

	require.Len(t, other.cascade(), 1)
	require.NoError(t, m.Show("home"))
	require.Len(t, m.Window().cascade(), 1)
}

func TestShowOn_OtherWindowAndRepeatedShow(t *testing.T) {
	m := newTestManager(t)
	_, err := m.RegisterView(context.Background(), "home", "views/home.yaml")
	require.NoError(t, err)
	other := NewWindow("other", nil)

	require.NoError(t, m.ShowOn(other, "home"))
	require.NoError(t, m.ShowOn(other, "home"))

	require.True(t, other.Visible())
	require.Nil(t, m.Window().Content(), "primary window untouched")
	require.ErrorIs(t, m.ShowOn(nil, "home"), ErrInvalidArgument)
}

func TestRegisterView_FirstWriterWins(t *testing.T) {
	l := &countingLoader{Loader: loader.NewFSLoader(testFS(),
		loader.WithController("home", func() loader.Controller { return &homeController{} }),
	)}
	m := New(WithLoader(l))

	first, err := m.RegisterView(context.Background(), "home", "views/home.yaml")
	require.NoError(t, err)
	second, err := m.RegisterView(context.Background(), "home", "views/settings.yaml")
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, 1, l.calls, "resident views are not reloaded")
}

func TestRegisterView_Errors(t *testing.T) {
	m := newTestManager(t)

	_, err := m.RegisterView(context.Background(), "", "views/home.yaml")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = m.RegisterView(context.Background(), "home", "")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = m.RegisterView(context.Background(), "bad", "views/bad.yaml")
	require.ErrorIs(t, err, ErrLoadFailure)
	require.ErrorIs(t, err, loader.ErrMalformed)

	_, err = m.RegisterView(context.Background(), "gone", "views/gone.yaml")
	require.ErrorIs(t, err, ErrLoadFailure)
	require.ErrorIs(t, err, loader.ErrResourceNotFound)

	require.Empty(t, m.Views())
}

func TestRegisterView_NoLoader(t *testing.T) {
	m := New()
	_, err := m.RegisterView(context.Background(), "home", "views/home.yaml")
	require.ErrorIs(t, err, ErrLoadFailure)
}

func TestController(t *testing.T) {
	m := newTestManager(t)
	_, err := m.RegisterView(context.Background(), "home", "views/home.yaml")
	require.NoError(t, err)
	_, err = m.RegisterView(context.Background(), "settings", "views/settings.yaml")
	require.NoError(t, err)
	_, err = m.RegisterViewRoot("raw", ui.NewText("raw", "raw"))
	require.NoError(t, err)

	ctrl, err := m.Controller("home")
	require.NoError(t, err)
	hc, ok := ctrl.(*homeController)
	require.True(t, ok)
	home, _ := m.View("home")
	require.Same(t, home.Root(), hc.root)

	_, err = m.Controller("settings")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.Controller("raw")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.Controller("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestActiveController(t *testing.T) {
	m := newTestManager(t)
	_, ok := m.ActiveController()
	require.False(t, ok)

	_, err := m.RegisterView(context.Background(), "home", "views/home.yaml")
	require.NoError(t, err)
	require.NoError(t, m.Show("home"))

	ctrl, ok := m.ActiveController()
	require.True(t, ok)
	require.IsType(t, &homeController{}, ctrl)
}

func TestRegisterViewRoot(t *testing.T) {
	m := newTestManager(t)

	_, err := m.RegisterViewRoot("x", nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = m.RegisterViewRoot("", ui.NewText("a", "a"))
	require.ErrorIs(t, err, ErrInvalidArgument)

	first, err := m.RegisterViewRoot("x", ui.NewText("a", "a"))
	require.NoError(t, err)
	second, err := m.RegisterViewRoot("x", ui.NewText("b", "b"))
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, []string{"x"}, m.Views())
}

func TestStylesheets_AttachDetach(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, err := m.RegisterView(ctx, "home", "views/home.yaml")
	require.NoError(t, err)
	_, err = m.AddStylesheet(ctx, "theme", "css/theme.yaml")
	require.NoError(t, err)
	_, err = m.AddStylesheet(ctx, "dark", "/css/dark.yaml")
	require.NoError(t, err)

	require.NoError(t, m.AttachStylesheet("home", "theme"))
	require.NoError(t, m.AttachStylesheet("home", "dark"))
	require.NoError(t, m.AttachStylesheet("home", "theme"))

	home, _ := m.View("home")
	require.Equal(t, []string{"theme", "dark"}, home.Stylesheets())

	removed, err := m.DetachStylesheet("home", "theme")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = m.DetachStylesheet("home", "theme")
	require.NoError(t, err)
	require.False(t, removed, "detaching twice reports false without error")
	require.Equal(t, []string{"dark"}, home.Stylesheets())
}

func TestStylesheets_UnknownNames(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, err := m.RegisterView(ctx, "home", "views/home.yaml")
	require.NoError(t, err)
	_, err = m.AddStylesheet(ctx, "theme", "css/theme.yaml")
	require.NoError(t, err)

	require.ErrorIs(t, m.AttachStylesheet("missing", "theme"), ErrNotFound)
	require.ErrorIs(t, m.AttachStylesheet("home", "missing"), ErrNotFound)

	_, err = m.DetachStylesheet("missing", "theme")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.DetachStylesheet("home", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddStylesheet_FirstWriterWinsAndErrors(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.AddStylesheet(ctx, "theme", "css/theme.yaml")
	require.NoError(t, err)
	second, err := m.AddStylesheet(ctx, "theme", "css/dark.yaml")
	require.NoError(t, err)
	require.Same(t, first, second)

	_, err = m.AddStylesheet(ctx, "gone", "css/gone.yaml")
	require.ErrorIs(t, err, ErrLoadFailure)
	_, err = m.AddStylesheet(ctx, "", "css/theme.yaml")
	require.ErrorIs(t, err, ErrInvalidArgument)

	sheet, err := styles.NewSheet("inline", nil)
	require.NoError(t, err)
	got, err := m.AddStylesheetSheet("inline", sheet)
	require.NoError(t, err)
	require.Same(t, sheet, got)
	_, err = m.AddStylesheetSheet("nil", nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	require.Equal(t, []string{"inline", "theme"}, m.Stylesheets())
}

func TestAttachIsIdempotent_Property(t *testing.T) {
	names := []string{"a", "b", "c"}
	rapid.Check(t, func(rt *rapid.T) {
		m := New()
		_, err := m.RegisterViewRoot("v", ui.NewText("t", "t"))
		require.NoError(rt, err)
		for _, n := range names {
			sheet, err := styles.NewSheet(n, nil)
			require.NoError(rt, err)
			_, err = m.AddStylesheetSheet(n, sheet)
			require.NoError(rt, err)
		}

		ops := rapid.SliceOf(rapid.SampledFrom(names)).Draw(rt, "attach")
		want := map[string]bool{}
		for _, n := range ops {
			require.NoError(rt, m.AttachStylesheet("v", n))
			want[n] = true
		}

		v, _ := m.View("v")
		got := v.Stylesheets()
		require.Len(rt, got, len(want))
		for _, n := range got {
			require.True(rt, want[n])
		}
	})
}

func TestAddNode_TypedLookupAndController(t *testing.T) {
	m := newTestManager(t)

	node, err := m.AddNode(context.Background(), "footer", "nodes/footer.yaml")
	require.NoError(t, err)

	text, ok := nodes.Get[*ui.Text](m.Nodes(), "footer")
	require.True(t, ok)
	require.Same(t, node, text)

	_, ok = nodes.Get[*ui.Box](m.Nodes(), "footer")
	require.False(t, ok, "a different type never matches")

	ctrl, err := NodeController[*ui.Text](m, "footer")
	require.NoError(t, err)
	require.IsType(t, footerController{}, ctrl)

	_, err = NodeController[*ui.Box](m, "footer")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddNode_RepeatedNameLoadsButKeepsFirst(t *testing.T) {
	base := loader.NewFSLoader(testFS(),
		loader.WithController("footer", func() loader.Controller { return footerController{} }),
	)
	counting := &countingLoader{Loader: base}
	m := New(WithLoader(counting), WithWindow(NewWindow("test", nil)))
	ctx := context.Background()

	first, err := m.AddNode(ctx, "footer", "nodes/footer.yaml")
	require.NoError(t, err)
	again, err := m.AddNode(ctx, "footer", "nodes/footer.yaml")
	require.NoError(t, err)

	require.Equal(t, 2, counting.calls)
	require.Same(t, first, again)
	text, ok := nodes.Get[*ui.Text](m.Nodes(), "footer")
	require.True(t, ok)
	require.Same(t, first, text)
}

func TestAddNode_Errors(t *testing.T) {
	m := newTestManager(t)

	_, err := m.AddNode(context.Background(), "", "nodes/footer.yaml")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = m.AddNode(context.Background(), "footer", "nodes/missing.yaml")
	require.ErrorIs(t, err, ErrLoadFailure)
}

func TestAddNodeElement(t *testing.T) {
	m := newTestManager(t)
	a := ui.NewText("a", "a")

	got, err := m.AddNodeElement("label", a)
	require.NoError(t, err)
	require.Same(t, a, got)

	got, err = m.AddNodeElement("label", ui.NewText("b", "b"))
	require.NoError(t, err)
	require.Same(t, a, got)

	_, err = m.AddNodeElement("raw", nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NodeController[*ui.Text](m, "label")
	require.ErrorIs(t, err, ErrNotFound)

	require.True(t, nodes.SetVisible[*ui.Text](m.Nodes(), "label", false))
	require.False(t, a.Visible())
}

func TestSetWindow(t *testing.T) {
	m := newTestManager(t)
	require.ErrorIs(t, m.SetWindow(nil), ErrInvalidArgument)

	w := NewWindow("second", nil)
	require.NoError(t, m.SetWindow(w))
	require.Same(t, w, m.Window())
	require.NotNil(t, m.Chooser())
}

func TestTransition_FadesRootIn(t *testing.T) {
	m := newTestManager(t)
	home, err := m.RegisterView(context.Background(), "home", "views/home.yaml")
	require.NoError(t, err)

	cmd, err := m.Transition("home", fade.Left, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, cmd)

	pane, ok := home.Pane()
	require.True(t, ok)
	require.Equal(t, 0.0, pane.Opacity())
	require.True(t, m.Window().Animator().Fading(pane))

	_, err = m.Transition("missing", fade.Left, time.Second)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransition_NonPaneRootShowsWithoutFade(t *testing.T) {
	m := newTestManager(t)
	_, err := m.RegisterViewRoot("plain", ui.NewText("p", "plain"))
	require.NoError(t, err)

	cmd, err := m.Transition("plain", fade.Up, time.Second)
	require.NoError(t, err)
	require.Nil(t, cmd)
	require.True(t, m.Window().Visible())
}

func TestReset(t *testing.T) {
	m := newTestManager(t)
	_, err := m.RegisterView(context.Background(), "home", "views/home.yaml")
	require.NoError(t, err)
	_, err = m.AddNode(context.Background(), "footer", "nodes/footer.yaml")
	require.NoError(t, err)

	m.Reset()

	require.Empty(t, m.Views())
	require.Zero(t, m.Nodes().Len())
	_, err = NodeController[*ui.Text](m, "footer")
	require.True(t, errors.Is(err, ErrNotFound))
}
