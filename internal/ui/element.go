// Package ui contains the terminal toolkit primitives that the registries
// hold by handle: elements, panes and the styling hook used to render them.
package ui

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Element is a constructed UI object that can be cached and displayed.
type Element interface {
	// Render draws the element using styles resolved by s. A nil Styler
	// renders without any stylesheet.
	Render(s Styler) string
	Visible() bool
	SetVisible(visible bool)
}

// Styled exposes the selectors a stylesheet matches against.
type Styled interface {
	ID() string
	Kind() string
	Classes() []string
}

// Container is an element with children.
type Container interface {
	Element
	Children() []Element
}

// Pane is a sized element that supports opacity and translation effects.
// Width and Height report the current layout size, which may change
// between frames.
type Pane interface {
	Element
	Width() int
	Height() int
	SetSize(width, height int)
	Opacity() float64
	SetOpacity(opacity float64)
	Translate() (x, y float64)
	SetTranslate(x, y float64)
}

// Styler resolves the lipgloss style for a styled element.
type Styler interface {
	Style(el Styled) lipgloss.Style
}

// View renders el without stylesheets.
func View(el Element) string {
	if el == nil {
		return ""
	}
	return el.Render(nil)
}

func styleFor(s Styler, el Styled) lipgloss.Style {
	if s == nil {
		return lipgloss.NewStyle()
	}
	return s.Style(el)
}

// Base carries the selector and visibility state shared by all elements.
type Base struct {
	id      string
	kind    string
	classes []string
	hidden  bool
}

// NewBase creates the shared element state.
func NewBase(kind, id string, classes ...string) Base {
	return Base{kind: kind, id: id, classes: slices.Clone(classes)}
}

func (b *Base) ID() string             { return b.id }
func (b *Base) Kind() string           { return b.kind }
func (b *Base) Classes() []string      { return slices.Clone(b.classes) }
func (b *Base) Visible() bool          { return !b.hidden }
func (b *Base) SetVisible(v bool)      { b.hidden = !v }
func (b *Base) HasClass(c string) bool { return slices.Contains(b.classes, c) }

// SetClasses replaces the selector classes.
func (b *Base) SetClasses(classes ...string) {
	b.classes = slices.Clone(classes)
}

// Find returns the first element in the tree rooted at root whose id is id.
func Find(root Element, id string) (Element, bool) {
	var found Element
	Walk(root, func(el Element) bool {
		if s, ok := el.(Styled); ok && s.ID() == id {
			found = el
			return false
		}
		return true
	})
	return found, found != nil
}

// Walk visits root and its descendants depth first until fn returns false.
func Walk(root Element, fn func(Element) bool) {
	walk(root, fn)
}

func walk(el Element, fn func(Element) bool) bool {
	if el == nil {
		return true
	}
	if !fn(el) {
		return false
	}
	if c, ok := el.(Container); ok {
		for _, child := range c.Children() {
			if !walk(child, fn) {
				return false
			}
		}
	}
	return true
}
