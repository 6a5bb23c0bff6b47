// Package stage owns the display window and the named registries of views,
// fragments and stylesheets an application navigates between.
package stage

import (
	"context"
	"fmt"
	"reflect"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/stagehand/internal/chooser"
	"github.com/zjrosen/stagehand/internal/fade"
	"github.com/zjrosen/stagehand/internal/loader"
	"github.com/zjrosen/stagehand/internal/log"
	"github.com/zjrosen/stagehand/internal/nodes"
	"github.com/zjrosen/stagehand/internal/resource"
	"github.com/zjrosen/stagehand/internal/tracing"
	"github.com/zjrosen/stagehand/internal/ui"
	"github.com/zjrosen/stagehand/internal/ui/styles"
)

type nodeKey struct {
	typ  reflect.Type
	name string
}

// Manager is the application context: it holds the registries and the
// primary window. All methods must be called from the Bubble Tea update
// loop (or before the program starts); nothing here locks.
type Manager struct {
	loader      loader.Loader
	sheetLoader loader.SheetLoader
	chooser     *chooser.Chooser
	tracer      trace.Tracer
	window      *Window

	views       *resource.Cache[*Scene]
	stylesheets *resource.Cache[*styles.Sheet]
	nodes       *nodes.Registry
	nodeResults map[nodeKey]*loader.Result
}

var _ SheetSource = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithLoader sets the loader for views and fragments. If it also implements
// loader.SheetLoader it is used for stylesheets.
func WithLoader(l loader.Loader) Option {
	return func(m *Manager) {
		m.loader = l
		if sl, ok := l.(loader.SheetLoader); ok && m.sheetLoader == nil {
			m.sheetLoader = sl
		}
	}
}

// WithSheetLoader sets the stylesheet loader.
func WithSheetLoader(l loader.SheetLoader) Option {
	return func(m *Manager) {
		m.sheetLoader = l
	}
}

// WithChooser sets the file chooser.
func WithChooser(c *chooser.Chooser) Option {
	return func(m *Manager) {
		m.chooser = c
	}
}

// WithTracer records spans for registration and display.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithWindow sets the primary window.
func WithWindow(w *Window) Option {
	return func(m *Manager) {
		m.window = w
	}
}

// New creates a manager with empty registries. Without WithWindow it owns an
// untitled window; without WithChooser it uses a terminal chooser.
func New(opts ...Option) *Manager {
	m := &Manager{
		tracer:      noop.NewTracerProvider().Tracer("stage"),
		views:       resource.NewCache[*Scene]("views"),
		stylesheets: resource.NewCache[*styles.Sheet]("stylesheets"),
		nodes:       nodes.NewRegistry(),
		nodeResults: make(map[nodeKey]*loader.Result),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.window == nil {
		m.window = NewWindow("", nil)
	}
	if m.chooser == nil {
		m.chooser = chooser.New(nil)
	}
	m.window.setSheets(m)
	return m
}

// RegisterView loads the description at path and caches it as a scene under
// name. If name is already registered the resident scene is returned and
// nothing is loaded.
func (m *Manager) RegisterView(ctx context.Context, name, path string) (*Scene, error) {
	ctx, span := m.tracer.Start(ctx, tracing.SpanRegisterView, trace.WithAttributes(
		attribute.String(tracing.AttrViewName, name),
		attribute.String(tracing.AttrResourcePath, path),
	))
	defer span.End()

	s, err := m.registerView(ctx, name, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return s, nil
}

func (m *Manager) registerView(ctx context.Context, name, path string) (*Scene, error) {
	if name == "" || path == "" {
		return nil, fmt.Errorf("register view %q: %w: name and path are required", name, ErrInvalidArgument)
	}
	if m.loader == nil {
		return nil, fmt.Errorf("register view %q: %w: no loader configured", name, ErrLoadFailure)
	}

	s, err := m.views.Ensure(ctx, name, func(ctx context.Context) (resource.Entry[*Scene], error) {
		res, err := m.loader.Load(ctx, path)
		if err != nil {
			return resource.Entry[*Scene]{}, err
		}
		if res == nil || res.Root == nil {
			return resource.Entry[*Scene]{}, fmt.Errorf("%s: loader returned no root", path)
		}
		log.Info(log.CatView, "view registered", "name", name, "path", res.Path)
		return resource.Entry[*Scene]{Artifact: NewScene(res.Root, res.Controller), Loader: res}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("register view %q: %w: %w", name, ErrLoadFailure, err)
	}
	return s, nil
}

// RegisterViewRoot caches an already-built root under name. Views registered
// this way have no controller.
func (m *Manager) RegisterViewRoot(name string, root ui.Element) (*Scene, error) {
	if root == nil {
		return nil, fmt.Errorf("register view %q: %w: root is required", name, ErrInvalidArgument)
	}
	s, inserted, err := m.views.Add(name, NewScene(root, nil), nil)
	if err != nil {
		return nil, fmt.Errorf("register view: %w", err)
	}
	if inserted {
		log.Info(log.CatView, "view registered", "name", name)
	}
	return s, nil
}

// View returns the scene registered under name.
func (m *Manager) View(name string) (*Scene, bool) {
	return m.views.Get(name)
}

// Views returns the registered view names in sorted order.
func (m *Manager) Views() []string { return m.views.Names() }

// Show displays the named view on the primary window.
func (m *Manager) Show(name string) error {
	return m.ShowOn(m.window, name)
}

// ShowOn displays the named view on win. An unknown name leaves win as it was.
// win renders with the stylesheets attached to the view in this manager.
func (m *Manager) ShowOn(win *Window, name string) error {
	_, span := m.tracer.Start(context.Background(), tracing.SpanShow, trace.WithAttributes(
		attribute.String(tracing.AttrViewName, name),
	))
	defer span.End()

	if win == nil {
		err := fmt.Errorf("show %q: %w: window is required", name, ErrInvalidArgument)
		span.RecordError(err)
		return err
	}
	win.setSheets(m)
	if err := m.views.Bind(win, name); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("show: %w", err)
	}
	log.Debug(log.CatView, "showing view", "name", name)
	return nil
}

// Transition shows the named view and fades its root in from direction. The
// returned command drives the animation; it is nil when the root cannot
// fade.
func (m *Manager) Transition(name string, direction fade.Direction, duration time.Duration) (tea.Cmd, error) {
	if err := m.Show(name); err != nil {
		return nil, err
	}
	s, _ := m.views.Get(name)
	pane, ok := s.Pane()
	if !ok {
		return nil, nil
	}
	pane.SetOpacity(0)
	return m.window.Animator().Start(pane, direction, fade.In, duration, nil), nil
}

// Fade starts a fade on pane using the primary window's animator. onDone,
// when not nil, is delivered as a message once the fade ends.
func (m *Manager) Fade(pane ui.Pane, direction fade.Direction, phase fade.Phase, duration time.Duration, onDone tea.Msg) tea.Cmd {
	return m.window.Animator().Start(pane, direction, phase, duration, onDone)
}

// Controller returns the controller of the named view.
func (m *Manager) Controller(view string) (loader.Controller, error) {
	if _, ok := m.views.Get(view); !ok {
		return nil, fmt.Errorf("controller for %q: %w", view, ErrNotFound)
	}
	res, ok := m.views.Loader(view)
	if !ok || res.Controller == nil {
		return nil, fmt.Errorf("controller for %q: %w: view has no controller", view, ErrNotFound)
	}
	return res.Controller, nil
}

// ActiveController returns the controller of the scene on the primary
// window, if there is one.
func (m *Manager) ActiveController() (loader.Controller, bool) {
	s := m.window.Content()
	if s == nil || s.Controller() == nil {
		return nil, false
	}
	return s.Controller(), true
}

// AddNode loads a fragment from path and registers it under name in the
// bucket for its concrete type. Its controller, if any, is kept for
// NodeController.
//
// The bucket is only known once the fragment is built, so AddNode always
// loads, and the loaded controller's Init runs, before first writer wins is
// applied. When name is already taken for that type the resident node is
// returned and the fresh load is dropped.
func (m *Manager) AddNode(ctx context.Context, name, path string) (ui.Element, error) {
	if name == "" || path == "" {
		return nil, fmt.Errorf("add node %q: %w: name and path are required", name, ErrInvalidArgument)
	}
	if m.loader == nil {
		return nil, fmt.Errorf("add node %q: %w: no loader configured", name, ErrLoadFailure)
	}
	res, err := m.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("add node %q: %w: %w", name, ErrLoadFailure, err)
	}
	if res == nil || res.Root == nil {
		return nil, fmt.Errorf("add node %q: %w: %s produced no root", name, ErrLoadFailure, path)
	}

	node, inserted, err := m.nodes.Add(name, res.Root)
	if err != nil {
		return nil, err
	}
	if inserted {
		m.nodeResults[nodeKey{typ: reflect.TypeOf(node), name: name}] = res
	}
	return node, nil
}

// AddNodeElement registers an already-built fragment.
func (m *Manager) AddNodeElement(name string, el ui.Element) (ui.Element, error) {
	node, _, err := m.nodes.Add(name, el)
	return node, err
}

// Nodes returns the fragment registry.
func (m *Manager) Nodes() *nodes.Registry { return m.nodes }

// NodeController returns the controller of the fragment of type T
// registered under name.
func NodeController[T ui.Element](m *Manager, name string) (loader.Controller, error) {
	if _, ok := nodes.Get[T](m.nodes, name); !ok {
		return nil, fmt.Errorf("node controller for %q: %w", name, ErrNotFound)
	}
	res, ok := m.nodeResults[nodeKey{typ: reflect.TypeFor[T](), name: name}]
	if !ok || res.Controller == nil {
		return nil, fmt.Errorf("node controller for %q: %w: node has no controller", name, ErrNotFound)
	}
	return res.Controller, nil
}

// AddStylesheet loads a stylesheet from path and caches it under name.
func (m *Manager) AddStylesheet(ctx context.Context, name, path string) (*styles.Sheet, error) {
	if name == "" || path == "" {
		return nil, fmt.Errorf("add stylesheet %q: %w: name and path are required", name, ErrInvalidArgument)
	}
	if m.sheetLoader == nil {
		return nil, fmt.Errorf("add stylesheet %q: %w: no stylesheet loader configured", name, ErrLoadFailure)
	}
	sheet, err := m.stylesheets.Ensure(ctx, name, func(ctx context.Context) (resource.Entry[*styles.Sheet], error) {
		sheet, err := m.sheetLoader.LoadSheet(ctx, name, path)
		if err != nil {
			return resource.Entry[*styles.Sheet]{}, err
		}
		log.Info(log.CatStyle, "stylesheet registered", "name", name, "path", path)
		return resource.Entry[*styles.Sheet]{Artifact: sheet}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("add stylesheet %q: %w: %w", name, ErrLoadFailure, err)
	}
	return sheet, nil
}

// AddStylesheetSheet caches an already-built sheet under name.
func (m *Manager) AddStylesheetSheet(name string, sheet *styles.Sheet) (*styles.Sheet, error) {
	s, _, err := m.stylesheets.Add(name, sheet, nil)
	if err != nil {
		return nil, fmt.Errorf("add stylesheet: %w", err)
	}
	return s, nil
}

// Stylesheet returns the sheet registered under name.
func (m *Manager) Stylesheet(name string) (*styles.Sheet, bool) {
	return m.stylesheets.Get(name)
}

// Stylesheets returns the registered stylesheet names in sorted order.
func (m *Manager) Stylesheets() []string { return m.stylesheets.Names() }

// AttachStylesheet adds sheet to the view's stylesheets. Attaching a sheet
// that is already attached changes nothing.
func (m *Manager) AttachStylesheet(view, sheet string) error {
	s, err := m.sceneAndSheet("attach", view, sheet)
	if err != nil {
		return err
	}
	if s.attach(sheet) {
		log.Debug(log.CatStyle, "stylesheet attached", "view", view, "sheet", sheet)
	}
	return nil
}

// DetachStylesheet removes sheet from the view's stylesheets. It reports
// false when the sheet was not attached.
func (m *Manager) DetachStylesheet(view, sheet string) (bool, error) {
	s, err := m.sceneAndSheet("detach", view, sheet)
	if err != nil {
		return false, err
	}
	if !s.detach(sheet) {
		log.Debug(log.CatStyle, "stylesheet was not attached", "view", view, "sheet", sheet)
		return false, nil
	}
	log.Debug(log.CatStyle, "stylesheet detached", "view", view, "sheet", sheet)
	return true, nil
}

func (m *Manager) sceneAndSheet(op, view, sheet string) (*Scene, error) {
	s, ok := m.views.Get(view)
	if !ok {
		return nil, fmt.Errorf("%s stylesheet %q: %w: view %q", op, sheet, ErrNotFound, view)
	}
	if !m.stylesheets.Has(sheet) {
		return nil, fmt.Errorf("%s stylesheet %q: %w: stylesheet %q", op, sheet, ErrNotFound, sheet)
	}
	return s, nil
}

// Window returns the primary window.
func (m *Manager) Window() *Window { return m.window }

// SetWindow replaces the primary window.
func (m *Manager) SetWindow(w *Window) error {
	if w == nil {
		return fmt.Errorf("set window: %w: window is required", ErrInvalidArgument)
	}
	w.setSheets(m)
	m.window = w
	return nil
}

// Chooser returns the file chooser.
func (m *Manager) Chooser() *chooser.Chooser { return m.chooser }

// Reset drops every registered view, fragment and stylesheet. The window
// keeps whatever it is showing.
func (m *Manager) Reset() {
	m.views.Reset()
	m.stylesheets.Reset()
	m.nodes.Reset()
	clear(m.nodeResults)
}
