package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/stagehand/internal/config"
	"github.com/zjrosen/stagehand/internal/loader"
	"github.com/zjrosen/stagehand/internal/stage"
	"github.com/zjrosen/stagehand/internal/tracing"
	"github.com/zjrosen/stagehand/internal/ui"
)

const testManifest = `
initial_view: home
views:
  - name: home
    path: views/home.yaml
  - name: settings
    path: views/settings.yaml
nodes:
  - name: footer
    path: nodes/footer.yaml
stylesheets:
  - name: theme
    path: css/theme.yaml
attach:
  home: [theme]
`

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

type recordingController struct {
	msgs []tea.Msg
	next tea.Cmd
}

func (c *recordingController) Init(ui.Element) {}

func (c *recordingController) Update(msg tea.Msg) tea.Cmd {
	c.msgs = append(c.msgs, msg)
	return c.next
}

type pingMsg struct{}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"app.yaml":            {Data: []byte(testManifest)},
		"views/home.yaml":     {Data: []byte(homeView)},
		"views/settings.yaml": {Data: []byte(settingsView)},
		"nodes/footer.yaml":   {Data: []byte("root:\n  kind: text\n  id: footer\n  text: bye\n")},
		"css/theme.yaml":      {Data: []byte("rules:\n  .title:\n    bold: true\n")},
	}
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Fade.Enabled = false
	return cfg
}

func newTestModel(t *testing.T, cfg config.Config, opts ...Option) (Model, *recordingController) {
	t.Helper()
	ctrl := &recordingController{}
	opts = append([]Option{
		WithFS(testFS()),
		WithControllers(map[string]loader.Factory{
			"home": func() loader.Controller { return ctrl },
		}),
	}, opts...)
	m, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	return m, ctrl
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestNew_RegistersManifest(t *testing.T) {
	m, _ := newTestModel(t, testConfig())
	mgr := m.Manager()

	require.Equal(t, []string{"home", "settings"}, mgr.Views())
	require.Equal(t, []string{PaletteSheet, "theme"}, mgr.Stylesheets())
	require.Equal(t, 1, mgr.Nodes().Len())
	require.Equal(t, "home", m.Current())

	home, ok := mgr.View("home")
	require.True(t, ok)
	require.Equal(t, []string{PaletteSheet, "theme"}, home.Stylesheets(), "palette comes first")

	settings, _ := mgr.View("settings")
	require.Equal(t, []string{PaletteSheet}, settings.Stylesheets())

	require.Same(t, home, mgr.Window().Content())
	require.True(t, mgr.Window().Visible())
}

func TestNew_NoTheme(t *testing.T) {
	cfg := testConfig()
	cfg.Theme = ""
	m, _ := newTestModel(t, cfg)

	require.Equal(t, []string{"theme"}, m.Manager().Stylesheets())
}

func TestNew_InitialViewOverride(t *testing.T) {
	cfg := testConfig()
	cfg.InitialView = "settings"
	m, _ := newTestModel(t, cfg)

	require.Equal(t, "settings", m.Current())
}

func TestNew_Errors(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		cfg := testConfig()
		cfg.Manifest = "nope.yaml"
		_, err := New(context.Background(), cfg, WithFS(testFS()))
		require.Error(t, err)
	})

	t.Run("broken view", func(t *testing.T) {
		fsys := testFS()
		fsys["views/settings.yaml"] = &fstest.MapFile{Data: []byte("root: [")}
		_, err := New(context.Background(), testConfig(), WithFS(fsys))
		require.ErrorIs(t, err, stage.ErrLoadFailure)
	})

	t.Run("unknown initial view override", func(t *testing.T) {
		cfg := testConfig()
		cfg.InitialView = "missing"
		_, err := New(context.Background(), cfg, WithFS(testFS()))
		require.ErrorIs(t, err, stage.ErrNotFound)
	})
}

func TestNew_StartHook(t *testing.T) {
	var seen *stage.Manager
	m, _ := newTestModel(t, testConfig(), WithHooks(Hooks{
		Start: func(mgr *stage.Manager) error {
			seen = mgr
			_, err := mgr.RegisterViewRoot("extra", ui.NewText("x", "extra"))
			return err
		},
	}))
	require.Same(t, m.Manager(), seen)
	require.Contains(t, m.Manager().Views(), "extra")

	boom := errors.New("boom")
	_, err := New(context.Background(), testConfig(), WithFS(testFS()), WithHooks(Hooks{
		Start: func(*stage.Manager) error { return boom },
	}))
	require.ErrorIs(t, err, boom)
}

func TestUpdate_StepWraps(t *testing.T) {
	m, _ := newTestModel(t, testConfig())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, "settings", m.Current())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, "home", m.Current(), "wraps to the first view")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, "settings", m.Current(), "wraps to the last view")
}

func TestUpdate_Navigate(t *testing.T) {
	m, _ := newTestModel(t, testConfig())

	m, _ = update(t, m, NavigateMsg{View: "settings"})
	require.Equal(t, "settings", m.Current())
	require.Contains(t, ansi.Strip(m.View()), "Settings")

	m, _ = update(t, m, NavigateMsg{View: "missing"})
	require.Equal(t, "settings", m.Current(), "unknown view keeps the current one")
	require.Contains(t, m.Status(), "missing")
}

func TestUpdate_NavigateFades(t *testing.T) {
	cfg := testConfig()
	cfg.Fade.Enabled = true
	m, _ := newTestModel(t, cfg)

	m, cmd := update(t, m, NavigateMsg{View: "settings"})
	require.NotNil(t, cmd)

	s, _ := m.Manager().View("settings")
	pane, ok := s.Pane()
	require.True(t, ok)
	require.Zero(t, pane.Opacity())
	require.True(t, m.Manager().Window().Animator().Fading(pane))
}

func TestUpdate_ControllerNavigates(t *testing.T) {
	m, ctrl := newTestModel(t, testConfig())
	ctrl.next = Navigate("settings")

	_, cmd := update(t, m, pingMsg{})
	require.Len(t, ctrl.msgs, 1)
	require.IsType(t, pingMsg{}, ctrl.msgs[0])
	require.Equal(t, NavigateMsg{View: "settings"}, cmd())
}

func TestUpdate_KeysReachController(t *testing.T) {
	m, ctrl := newTestModel(t, testConfig())

	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	require.Len(t, ctrl.msgs, 1)
}

func TestUpdate_Quit(t *testing.T) {
	m, _ := newTestModel(t, testConfig())

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_ToggleHelp(t *testing.T) {
	m, _ := newTestModel(t, testConfig())
	short := ansi.Strip(m.View())
	require.Contains(t, short, "quit")
	require.NotContains(t, short, "reload styles")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	require.Contains(t, ansi.Strip(m.View()), "reload styles")
}

func TestUpdate_ResizeLeavesRoomForFooter(t *testing.T) {
	m, _ := newTestModel(t, testConfig())

	_, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 12})
	w, h := m.Manager().Window().Size()
	require.Equal(t, 40, w)
	require.Equal(t, 11, h)
}

func TestUpdate_SheetsChangedReloads(t *testing.T) {
	fsys := testFS()
	m, err := New(context.Background(), testConfig(), WithFS(fsys))
	require.NoError(t, err)

	sheet, ok := m.Manager().Stylesheet("theme")
	require.True(t, ok)

	fsys["css/theme.yaml"] = &fstest.MapFile{Data: []byte("rules:\n  .title:\n    italic: true\n")}
	m, _ = update(t, m, SheetsChangedMsg{Names: []string{"theme"}})

	after, _ := m.Manager().Stylesheet("theme")
	require.Same(t, sheet, after, "the registered sheet keeps its identity")
	r, ok := after.Rule(".title")
	require.True(t, ok)
	require.Nil(t, r.Bold)
	require.NotNil(t, r.Italic)
	require.Equal(t, "reloaded theme", m.Status())
}

func TestUpdate_ReloadKeepsSheetOnError(t *testing.T) {
	fsys := testFS()
	m, err := New(context.Background(), testConfig(), WithFS(fsys))
	require.NoError(t, err)

	fsys["css/theme.yaml"] = &fstest.MapFile{Data: []byte("rules:\n  text:\n    foreground: red\n")}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

	r, ok := m.Manager().Stylesheet("theme")
	require.True(t, ok)
	_, ok = r.Rule(".title")
	require.True(t, ok, "old rules stay when the new file is invalid")
	require.Equal(t, "reload failed: theme", m.Status())
}

func TestReload_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	fsys := testFS()
	m, err := New(context.Background(), testConfig(), WithFS(fsys), WithTracer(tp.Tracer("test")))
	require.NoError(t, err)
	exporter.Reset()

	_, _ = update(t, m, SheetsChangedMsg{Names: []string{"theme"}})

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	require.Contains(t, names, tracing.SpanReloadSheet)
	require.Contains(t, names, tracing.SpanLoadSheet)
}

func TestClose_RemembersView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("# start here\ninitial_view: home\n"), 0o600))

	cfg := testConfig()
	cfg.RememberView = true
	m, _ := newTestModel(t, cfg, WithConfigPath(path))
	m, _ = update(t, m, NavigateMsg{View: "settings"})

	require.NoError(t, m.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "initial_view: settings")
	require.Contains(t, string(data), "# start here")
}

func TestClose_WithoutRememberView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, _ := newTestModel(t, testConfig(), WithConfigPath(path))

	require.NoError(t, m.Close())
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestModel_Program(t *testing.T) {
	m, _ := newTestModel(t, testConfig())

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(60, 12))
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return contains(b, "Welcome")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return contains(b, "Settings")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	require.Equal(t, "settings", final.Current())
}

func contains(b []byte, s string) bool {
	return strings.Contains(ansi.Strip(string(b)), s)
}

func TestView_ToastOverWindow(t *testing.T) {
	prev := toastDuration
	toastDuration = time.Millisecond
	t.Cleanup(func() { toastDuration = prev })

	fsys := testFS()
	m, err := New(context.Background(), testConfig(), WithFS(fsys))
	require.NoError(t, err)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})

	m, cmd := update(t, m, SheetsChangedMsg{Names: []string{"theme"}})
	require.NotNil(t, cmd, "toast dismissal is scheduled")

	view := ansi.Strip(m.View())
	require.Contains(t, view, "reloaded theme")
	require.Contains(t, view, "Welcome")
	require.Len(t, strings.Split(view, "\n"), 10)

	m, _ = update(t, m, cmd())
	require.Empty(t, m.Status())
	require.NotContains(t, ansi.Strip(m.View()), "reloaded theme")
}
