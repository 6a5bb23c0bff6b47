package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
)

// Text is a single block of plain text, word wrapped when it has a width.
type Text struct {
	Base
	text  string
	width int
}

// NewText creates a text element.
func NewText(id, text string) *Text {
	return &Text{Base: NewBase("text", id), text: text}
}

func (t *Text) Text() string        { return t.text }
func (t *Text) SetText(text string) { t.text = text }

// SetWrap wraps the text at width columns. Zero turns wrapping off.
func (t *Text) SetWrap(width int) { t.width = max(0, width) }

func (t *Text) Render(s Styler) string {
	if !t.Visible() {
		return ""
	}
	text := t.text
	if t.width > 0 {
		text = wordwrap.String(text, t.width)
	}
	return styleFor(s, t).Render(text)
}

// Spacer renders a fixed number of empty lines.
type Spacer struct {
	Base
	lines int
}

// NewSpacer creates a spacer of at least one line.
func NewSpacer(id string, lines int) *Spacer {
	return &Spacer{Base: NewBase("spacer", id), lines: max(1, lines)}
}

func (sp *Spacer) Render(Styler) string {
	if !sp.Visible() {
		return ""
	}
	return strings.Repeat("\n", sp.lines-1)
}

// Markdown renders its source through glamour. Output is cached until the
// source changes.
type Markdown struct {
	Base
	source   string
	width    int
	style    string
	rendered string
	dirty    bool
}

// NewMarkdown creates a markdown element wrapped at width (80 when zero).
// style is a glamour standard style name, "dark" when empty.
func NewMarkdown(id, source string, width int, style string) *Markdown {
	if width <= 0 {
		width = 80
	}
	if style == "" {
		style = "dark"
	}
	return &Markdown{
		Base:   NewBase("markdown", id),
		source: source,
		width:  width,
		style:  style,
		dirty:  true,
	}
}

func (m *Markdown) Source() string { return m.source }

func (m *Markdown) SetSource(source string) {
	m.source = source
	m.dirty = true
}

func (m *Markdown) Render(s Styler) string {
	if !m.Visible() {
		return ""
	}
	if m.dirty {
		m.rendered = m.render()
		m.dirty = false
	}
	return styleFor(s, m).Render(m.rendered)
}

// render falls back to the raw source if glamour cannot build a renderer.
func (m *Markdown) render() string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(m.width),
	)
	if err != nil {
		return m.source
	}
	out, err := r.Render(m.source)
	if err != nil {
		return m.source
	}
	return strings.Trim(out, "\n")
}
