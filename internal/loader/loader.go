// Package loader builds element trees from YAML view descriptions stored
// under a resource root, together with the controller each description names.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/stagehand/internal/log"
	"github.com/zjrosen/stagehand/internal/tracing"
	"github.com/zjrosen/stagehand/internal/ui"
	"github.com/zjrosen/stagehand/internal/ui/styles"
)

var (
	// ErrResourceNotFound means the path does not name a file under the
	// resource root.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrMalformed means the file exists but is not a valid description.
	ErrMalformed = errors.New("malformed description")
	// ErrInvalidPath means the path is empty or escapes the resource root.
	ErrInvalidPath = errors.New("invalid resource path")
)

// Controller holds application logic bound to a loaded tree. Init runs once,
// after the whole tree has been built.
type Controller interface {
	Init(root ui.Element)
}

// Updater is implemented by controllers that want the messages the window
// receives while their view is displayed.
type Updater interface {
	Update(msg tea.Msg) tea.Cmd
}

// Factory creates a fresh controller for each load.
type Factory func() Controller

// Result pairs a loaded root with its controller. Both are fixed after load.
type Result struct {
	Root       ui.Element
	Controller Controller
	Path       string
}

// Lookup finds a descendant of the root by id.
func (r *Result) Lookup(id string) (ui.Element, bool) {
	return ui.Find(r.Root, id)
}

// Loader produces element trees from resource paths.
type Loader interface {
	Load(ctx context.Context, path string) (*Result, error)
}

// SheetLoader produces stylesheets from resource paths.
type SheetLoader interface {
	LoadSheet(ctx context.Context, name, path string) (*styles.Sheet, error)
}

// FSLoader loads descriptions and stylesheets from an fs.FS.
type FSLoader struct {
	fsys          fs.FS
	controllers   map[string]Factory
	markdownStyle string
	tracer        trace.Tracer
}

var (
	_ Loader      = (*FSLoader)(nil)
	_ SheetLoader = (*FSLoader)(nil)
)

// Option configures an FSLoader.
type Option func(*FSLoader)

// WithController registers a controller factory under name.
func WithController(name string, f Factory) Option {
	return func(l *FSLoader) {
		l.controllers[name] = f
	}
}

// WithControllers registers several controller factories.
func WithControllers(factories map[string]Factory) Option {
	return func(l *FSLoader) {
		for name, f := range factories {
			l.controllers[name] = f
		}
	}
}

// WithMarkdownStyle sets the glamour style used by markdown elements.
func WithMarkdownStyle(style string) Option {
	return func(l *FSLoader) {
		l.markdownStyle = style
	}
}

// WithTracer records a span per load.
func WithTracer(t trace.Tracer) Option {
	return func(l *FSLoader) {
		if t != nil {
			l.tracer = t
		}
	}
}

// NewFSLoader creates a loader rooted at fsys.
func NewFSLoader(fsys fs.FS, opts ...Option) *FSLoader {
	l := &FSLoader{
		fsys:        fsys,
		controllers: make(map[string]Factory),
		tracer:      noop.NewTracerProvider().Tracer("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve maps a resource path to its location under the root. Every path is
// relative to the resource root: a leading "/" is dropped and the result is
// cleaned, so "/views/home.yaml" and "views/home.yaml" name the same file.
// Paths that leave the root are rejected.
func Resolve(p string) (string, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(p), "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean := path.Clean(trimmed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q leaves the resource root", ErrInvalidPath, p)
	}
	return clean, nil
}

func (l *FSLoader) read(ctx context.Context, p string) (string, []byte, error) {
	resolved, err := Resolve(p)
	if err != nil {
		return "", nil, err
	}
	data, err := fs.ReadFile(l.fsys, resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return resolved, nil, fmt.Errorf("%w: %s", ErrResourceNotFound, resolved)
		}
		return resolved, nil, fmt.Errorf("read %s: %w", resolved, err)
	}
	return resolved, data, nil
}

// Load parses the description at p, builds its tree and initializes its
// controller.
func (l *FSLoader) Load(ctx context.Context, p string) (*Result, error) {
	_, span := l.tracer.Start(ctx, tracing.SpanLoad, trace.WithAttributes(attribute.String(tracing.AttrResourcePath, p)))
	defer span.End()

	res, err := l.load(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatLoader, "load failed", err, "path", p)
		return nil, err
	}
	log.Debug(log.CatLoader, "loaded description", "path", res.Path)
	return res, nil
}

func (l *FSLoader) load(ctx context.Context, p string) (*Result, error) {
	resolved, data, err := l.read(ctx, p)
	if err != nil {
		return nil, err
	}

	desc, err := parseDescription(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", resolved, err)
	}

	root, err := l.build(desc.Root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", resolved, err)
	}

	var ctrl Controller
	if desc.Controller != "" {
		factory, ok := l.controllers[desc.Controller]
		if !ok {
			return nil, fmt.Errorf("%s: %w: unknown controller %q", resolved, ErrMalformed, desc.Controller)
		}
		ctrl = factory()
		if ctrl == nil {
			return nil, fmt.Errorf("%s: %w: controller %q factory returned nil", resolved, ErrMalformed, desc.Controller)
		}
		ctrl.Init(root)
	}

	return &Result{Root: root, Controller: ctrl, Path: resolved}, nil
}

// LoadSheet reads a stylesheet.
func (l *FSLoader) LoadSheet(ctx context.Context, name, p string) (*styles.Sheet, error) {
	_, span := l.tracer.Start(ctx, tracing.SpanLoadSheet, trace.WithAttributes(attribute.String(tracing.AttrResourcePath, p)))
	defer span.End()

	resolved, data, err := l.read(ctx, p)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	sheet, err := styles.Parse(name, data)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s: %w: %w", resolved, ErrMalformed, err)
	}
	return sheet, nil
}
