package stage

import (
	"slices"

	"github.com/zjrosen/stagehand/internal/loader"
	"github.com/zjrosen/stagehand/internal/ui"
)

// Scene wraps a view root for display and tracks the stylesheets attached
// to it, in attach order.
type Scene struct {
	root       ui.Element
	controller loader.Controller
	sheets     []string
}

var _ ui.Element = (*Scene)(nil)

// NewScene wraps root. controller may be nil.
func NewScene(root ui.Element, controller loader.Controller) *Scene {
	return &Scene{root: root, controller: controller}
}

func (s *Scene) Root() ui.Element              { return s.root }
func (s *Scene) Controller() loader.Controller { return s.controller }

// Pane returns the root when it supports sizing and effects.
func (s *Scene) Pane() (ui.Pane, bool) {
	p, ok := s.root.(ui.Pane)
	return p, ok
}

// Stylesheets returns the attached stylesheet names in attach order.
func (s *Scene) Stylesheets() []string { return slices.Clone(s.sheets) }

// HasStylesheet reports whether name is attached.
func (s *Scene) HasStylesheet(name string) bool { return slices.Contains(s.sheets, name) }

func (s *Scene) attach(name string) bool {
	if s.HasStylesheet(name) {
		return false
	}
	s.sheets = append(s.sheets, name)
	return true
}

func (s *Scene) detach(name string) bool {
	i := slices.Index(s.sheets, name)
	if i < 0 {
		return false
	}
	s.sheets = slices.Delete(s.sheets, i, i+1)
	return true
}

func (s *Scene) Render(st ui.Styler) string {
	if s.root == nil {
		return ""
	}
	return s.root.Render(st)
}

func (s *Scene) Visible() bool { return s.root != nil && s.root.Visible() }

func (s *Scene) SetVisible(visible bool) {
	if s.root != nil {
		s.root.SetVisible(visible)
	}
}
