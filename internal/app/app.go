// Package app implements the root Bubble Tea model. It loads the manifest
// into a stage.Manager, shows the initial view and handles navigation,
// help and stylesheet reloads.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/stagehand/internal/config"
	"github.com/zjrosen/stagehand/internal/fade"
	"github.com/zjrosen/stagehand/internal/keys"
	"github.com/zjrosen/stagehand/internal/loader"
	"github.com/zjrosen/stagehand/internal/log"
	"github.com/zjrosen/stagehand/internal/stage"
	"github.com/zjrosen/stagehand/internal/tracing"
	"github.com/zjrosen/stagehand/internal/ui/styles"
	"github.com/zjrosen/stagehand/internal/ui/toaster"
	"github.com/zjrosen/stagehand/internal/watcher"
)

// PaletteSheet is the name the configured theme is registered under. It is
// attached to every view before the manifest's own sheets.
const PaletteSheet = "palette"

// toastDuration is how long notifications stay up.
var toastDuration = 3 * time.Second

// NavigateMsg asks the model to show a view.
type NavigateMsg struct {
	View string
}

// Navigate returns a command that shows view. Controllers use it to move
// between views.
func Navigate(view string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{View: view} }
}

// SheetsChangedMsg reports stylesheets whose files changed on disk.
type SheetsChangedMsg struct {
	Names []string
}

// Hooks run at fixed points during setup.
type Hooks struct {
	// Start runs after the manifest is registered and before the initial
	// view is shown. An error aborts setup.
	Start func(m *stage.Manager) error
}

// Option configures a Model.
type Option func(*options)

type options struct {
	fsys        fs.FS
	controllers map[string]loader.Factory
	hooks       Hooks
	tracer      trace.Tracer
	configPath  string
}

// WithFS reads resources from fsys instead of the configured resource root.
// Stylesheet watching is only available for the resource root on disk.
func WithFS(fsys fs.FS) Option {
	return func(o *options) { o.fsys = fsys }
}

// WithControllers registers controller factories by name.
func WithControllers(factories map[string]loader.Factory) Option {
	return func(o *options) {
		if o.controllers == nil {
			o.controllers = make(map[string]loader.Factory, len(factories))
		}
		for name, f := range factories {
			o.controllers[name] = f
		}
	}
}

// WithHooks sets the setup hooks.
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = h }
}

// WithTracer records spans for loading, display and reloads.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithConfigPath is the file remember_view writes to.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// Model is the root application model.
type Model struct {
	cfg        config.Config
	manifest   *Manifest
	manager    *stage.Manager
	loader     *loader.FSLoader
	tracer     trace.Tracer
	configPath string

	keys     keys.KeyMap
	help     help.Model
	showHelp bool
	toast    toaster.Model

	order   []string
	current string
	width   int
	height  int

	watcher    *watcher.Watcher
	changes    <-chan watcher.Event
	sheetPaths map[string]string
}

// New loads the manifest and registers everything it lists. The returned
// model shows the initial view once the program starts.
func New(ctx context.Context, cfg config.Config, opts ...Option) (Model, error) {
	o := options{configPath: config.DefaultConfigPath}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("app")
	}

	watchable := o.fsys == nil
	if o.fsys == nil {
		o.fsys = os.DirFS(cfg.ResourceRoot)
	}

	manifest, err := LoadManifest(o.fsys, cfg.Manifest)
	if err != nil {
		return Model{}, err
	}

	ld := loader.NewFSLoader(o.fsys,
		loader.WithControllers(o.controllers),
		loader.WithMarkdownStyle(cfg.Window.MarkdownStyle),
		loader.WithTracer(o.tracer),
	)
	win := stage.NewWindow(cfg.Window.Title, fade.NewAnimator(cfg.Fade.FPS))
	mgr := stage.New(
		stage.WithLoader(ld),
		stage.WithWindow(win),
		stage.WithTracer(o.tracer),
	)

	m := Model{
		cfg:        cfg,
		manifest:   manifest,
		manager:    mgr,
		loader:     ld,
		tracer:     o.tracer,
		configPath: o.configPath,
		keys:       keys.DefaultKeyMap(),
		help:       help.New(),
		order:      manifest.ViewNames(),
		sheetPaths: make(map[string]string, len(manifest.Stylesheets)),
	}

	if err := m.setup(ctx, o.hooks); err != nil {
		return Model{}, err
	}

	if watchable && cfg.WatchStyles && len(m.sheetPaths) > 0 {
		m.startWatcher()
	}
	return m, nil
}

func (m *Model) setup(ctx context.Context, hooks Hooks) error {
	for _, r := range m.manifest.Stylesheets {
		if _, err := m.manager.AddStylesheet(ctx, r.Name, r.Path); err != nil {
			return err
		}
		m.sheetPaths[r.Name] = r.Path
	}

	attach := make(map[string][]string, len(m.manifest.Views))
	if m.cfg.Theme != "" {
		sheet, ok := styles.BuiltIn(m.cfg.Theme)
		if !ok {
			return fmt.Errorf("unknown theme %q", m.cfg.Theme)
		}
		if _, err := m.manager.AddStylesheetSheet(PaletteSheet, sheet); err != nil {
			return err
		}
		for _, v := range m.manifest.Views {
			attach[v.Name] = append(attach[v.Name], PaletteSheet)
		}
	}
	for view, names := range m.manifest.Attach {
		attach[view] = append(attach[view], names...)
	}

	for _, r := range m.manifest.Views {
		if _, err := m.manager.RegisterView(ctx, r.Name, r.Path); err != nil {
			return err
		}
	}
	for _, r := range m.manifest.Nodes {
		if _, err := m.manager.AddNode(ctx, r.Name, r.Path); err != nil {
			return err
		}
	}
	for _, v := range m.manifest.Views {
		for _, sheet := range attach[v.Name] {
			if err := m.manager.AttachStylesheet(v.Name, sheet); err != nil {
				return err
			}
		}
	}

	if hooks.Start != nil {
		if err := hooks.Start(m.manager); err != nil {
			return fmt.Errorf("start hook: %w", err)
		}
	}

	initial := m.manifest.Initial(m.cfg.InitialView)
	if err := m.manager.Show(initial); err != nil {
		return err
	}
	m.current = initial
	log.Info(log.CatApp, "application ready",
		"views", len(m.manifest.Views),
		"nodes", len(m.manifest.Nodes),
		"stylesheets", len(m.manifest.Stylesheets),
		"initial", initial)
	return nil
}

func (m *Model) startWatcher() {
	files := make(map[string]string, len(m.sheetPaths))
	for name, p := range m.sheetPaths {
		resolved, err := loader.Resolve(p)
		if err != nil {
			continue
		}
		files[filepath.Join(m.cfg.ResourceRoot, filepath.FromSlash(resolved))] = name
	}

	w, err := watcher.New(watcher.DefaultConfig(files))
	if err != nil {
		// The app works without live reload.
		log.Warn(log.CatWatcher, "stylesheet watcher unavailable", "error", err)
		return
	}
	ch, err := w.Start()
	if err != nil {
		log.Warn(log.CatWatcher, "stylesheet watcher failed to start", "error", err)
		_ = w.Stop()
		return
	}
	m.watcher = w
	m.changes = ch
}

// Manager returns the stage manager.
func (m Model) Manager() *stage.Manager { return m.manager }

// Current returns the name of the displayed view.
func (m Model) Current() string { return m.current }

// Status returns the message of the visible toast.
func (m Model) Status() string { return m.toast.Message() }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.manager.Window().Init()}
	if m.changes != nil {
		cmds = append(cmds, listen(m.changes))
	}
	if m.cfg.Fade.Enabled {
		if s, ok := m.manager.View(m.current); ok {
			if pane, ok := s.Pane(); ok {
				pane.SetOpacity(0)
				cmds = append(cmds, m.manager.Fade(pane, m.cfg.FadeDirection(), fade.In, m.cfg.Fade.Duration, nil))
			}
		}
	}
	return tea.Batch(cmds...)
}

func listen(ch <-chan watcher.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return SheetsChangedMsg{Names: ev.Names}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		_, cmd := m.manager.Window().Update(tea.WindowSizeMsg{
			Width:  msg.Width,
			Height: max(0, msg.Height-m.footerHeight()),
		})
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.NextView):
			return m.step(1)
		case key.Matches(msg, m.keys.PrevView):
			return m.step(-1)
		case key.Matches(msg, m.keys.Reload):
			return m.reload(slices.Sorted(maps.Keys(m.sheetPaths)))
		}

	case NavigateMsg:
		return m.navigate(msg.View, m.cfg.FadeDirection())

	case SheetsChangedMsg:
		var cmd tea.Cmd
		m, cmd = m.reload(msg.Names)
		if m.changes != nil {
			cmd = tea.Batch(cmd, listen(m.changes))
		}
		return m, cmd

	case toaster.DismissMsg:
		m.toast = m.toast.Update(msg)
		return m, nil
	}

	_, cmd := m.manager.Window().Update(msg)
	return m, cmd
}

// step moves through the manifest's views, wrapping at either end. Going
// back fades in from the opposite side.
func (m Model) step(delta int) (tea.Model, tea.Cmd) {
	if len(m.order) < 2 {
		return m, nil
	}
	i := slices.Index(m.order, m.current)
	next := m.order[((i+delta)%len(m.order)+len(m.order))%len(m.order)]
	dir := m.cfg.FadeDirection()
	if delta < 0 {
		dir = opposite(dir)
	}
	return m.navigate(next, dir)
}

func (m Model) navigate(view string, dir fade.Direction) (tea.Model, tea.Cmd) {
	if view == m.current {
		return m, nil
	}
	var (
		cmd tea.Cmd
		err error
	)
	if m.cfg.Fade.Enabled {
		cmd, err = m.manager.Transition(view, dir, m.cfg.Fade.Duration)
	} else {
		err = m.manager.Show(view)
	}
	if err != nil {
		log.ErrorErr(log.CatApp, "navigation failed", err, "view", view)
		m.toast = m.toast.Show(err.Error(), toaster.Error)
		return m, m.toast.Dismiss(toastDuration)
	}
	log.Debug(log.CatApp, "navigated", "from", m.current, "to", view)
	m.current = view
	m.toast = m.toast.Hide()

	// A view shown for the first time has not been sized yet.
	if m.width > 0 {
		_, sizeCmd := m.manager.Window().Update(tea.WindowSizeMsg{
			Width:  m.width,
			Height: max(0, m.height-m.footerHeight()),
		})
		cmd = tea.Batch(cmd, sizeCmd)
	}
	return m, cmd
}

// reload re-reads the named stylesheets and swaps their rules into the
// registered sheets so attached views pick them up on the next render.
func (m Model) reload(names []string) (Model, tea.Cmd) {
	var reloaded, failed []string
	for _, name := range names {
		if err := m.reloadSheet(name); err != nil {
			log.ErrorErr(log.CatStyle, "stylesheet reload failed", err, "name", name)
			failed = append(failed, name)
			continue
		}
		reloaded = append(reloaded, name)
	}
	switch {
	case len(failed) > 0:
		m.toast = m.toast.Show("reload failed: "+strings.Join(failed, ", "), toaster.Error)
	case len(reloaded) > 0:
		m.toast = m.toast.Show("reloaded "+strings.Join(reloaded, ", "), toaster.Info)
	default:
		return m, nil
	}
	return m, m.toast.Dismiss(toastDuration)
}

func (m Model) reloadSheet(name string) error {
	p, ok := m.sheetPaths[name]
	if !ok {
		return fmt.Errorf("%w: stylesheet %q", stage.ErrNotFound, name)
	}
	ctx, span := m.tracer.Start(context.Background(), tracing.SpanReloadSheet, trace.WithAttributes(
		attribute.String(tracing.AttrSheetName, name),
		attribute.String(tracing.AttrResourcePath, p),
	))
	defer span.End()

	fresh, err := m.loader.LoadSheet(ctx, name, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	sheet, ok := m.manager.Stylesheet(name)
	if !ok {
		return fmt.Errorf("%w: stylesheet %q", stage.ErrNotFound, name)
	}
	sheet.Replace(fresh)
	log.Info(log.CatStyle, "stylesheet reloaded", "name", name)
	return nil
}

func (m Model) footerHeight() int {
	return lipgloss.Height(m.footer())
}

func (m Model) footer() string {
	return m.help.View(m.keys)
}

// View implements tea.Model. Toasts are drawn over the bottom of the window
// once its size is known.
func (m Model) View() string {
	win := m.manager.Window()
	body := win.View()
	if m.width > 0 && m.height > 0 {
		body = m.toast.Overlay(win.Styler(), body, m.width, max(0, m.height-m.footerHeight()))
	} else if m.toast.Visible() {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.toast.View(win.Styler()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.footer())
}

// Close stops the watcher and, when remember_view is set, saves the
// displayed view as the next initial view.
func (m Model) Close() error {
	if m.watcher != nil {
		_ = m.watcher.Stop()
	}
	if !m.cfg.RememberView || m.current == "" || m.configPath == "" {
		return nil
	}
	if err := config.SaveInitialView(m.configPath, m.current); err != nil {
		return fmt.Errorf("saving initial view: %w", err)
	}
	log.Info(log.CatConfig, "saved initial view", "view", m.current, "path", m.configPath)
	return nil
}

func opposite(d fade.Direction) fade.Direction {
	switch d {
	case fade.Left:
		return fade.Right
	case fade.Right:
		return fade.Left
	case fade.Up:
		return fade.Down
	default:
		return fade.Up
	}
}
