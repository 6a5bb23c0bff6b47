package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Layout controls how a Box arranges its children.
type Layout int

const (
	// Vertical stacks children top to bottom.
	Vertical Layout = iota
	// Horizontal places children left to right.
	Horizontal
)

// Box is a pane that lays out child elements. It is the root kind for
// loaded views and the target of fade animations.
type Box struct {
	Base
	layout   Layout
	children []Element
	width    int
	height   int
	opacity  float64
	tx, ty   float64
}

var _ Pane = (*Box)(nil)

// NewBox creates an opaque, untranslated box.
func NewBox(id string, layout Layout, children ...Element) *Box {
	kind := "box"
	if layout == Horizontal {
		kind = "row"
	}
	return &Box{
		Base:     NewBase(kind, id),
		layout:   layout,
		children: children,
		opacity:  1,
	}
}

// Append adds children to the box.
func (b *Box) Append(children ...Element) {
	b.children = append(b.children, children...)
}

func (b *Box) Children() []Element { return b.children }
func (b *Box) Layout() Layout      { return b.layout }

func (b *Box) Width() int  { return b.width }
func (b *Box) Height() int { return b.height }

// SetSize sets the layout size. Zero means the box takes its natural size.
func (b *Box) SetSize(width, height int) {
	b.width = max(0, width)
	b.height = max(0, height)
}

func (b *Box) Opacity() float64 { return b.opacity }

// SetOpacity clamps opacity to [0,1].
func (b *Box) SetOpacity(opacity float64) {
	b.opacity = min(1, max(0, opacity))
}

func (b *Box) Translate() (x, y float64) { return b.tx, b.ty }

func (b *Box) SetTranslate(x, y float64) {
	b.tx, b.ty = x, y
}

// Render draws the visible children, applies the box style and then the
// opacity and translation effects.
func (b *Box) Render(s Styler) string {
	if !b.Visible() {
		return ""
	}

	parts := make([]string, 0, len(b.children))
	for _, child := range b.children {
		if child == nil || !child.Visible() {
			continue
		}
		parts = append(parts, child.Render(s))
	}

	var content string
	if b.layout == Horizontal {
		content = lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	} else {
		content = lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	out := styleFor(s, b).Render(content)
	if b.width > 0 {
		out = lipgloss.NewStyle().Width(b.width).MaxWidth(b.width).Render(out)
	}
	if b.height > 0 {
		out = lipgloss.NewStyle().Height(b.height).MaxHeight(b.height).Render(out)
	}

	out = applyOpacity(out, b.opacity)
	return applyTranslate(out, b.tx, b.ty, b.width)
}
