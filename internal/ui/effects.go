package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
)

// Colors used to simulate opacity on a terminal: partially transparent
// content is drawn in a blend of FadeForeground over FadeBackground.
var (
	FadeForeground = "#CCCCCC"
	FadeBackground = "#000000"
)

// BlendColor returns the hex color opacity of the way from FadeBackground
// to FadeForeground.
func BlendColor(opacity float64) string {
	fg, err := colorful.Hex(FadeForeground)
	if err != nil {
		fg = colorful.Color{R: 0.8, G: 0.8, B: 0.8}
	}
	bg, err := colorful.Hex(FadeBackground)
	if err != nil {
		bg = colorful.Color{}
	}
	return bg.BlendRgb(fg, min(1, max(0, opacity))).Clamped().Hex()
}

func applyOpacity(s string, opacity float64) string {
	if opacity >= 1 || s == "" {
		return s
	}

	lines := strings.Split(s, "\n")
	if opacity <= 0 {
		for i, line := range lines {
			lines[i] = strings.Repeat(" ", ansi.StringWidth(line))
		}
		return strings.Join(lines, "\n")
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(BlendColor(opacity)))
	for i, line := range lines {
		lines[i] = style.Render(ansi.Strip(line))
	}
	return strings.Join(lines, "\n")
}

// applyTranslate shifts s by whole cells. Positive x moves right, positive y
// moves down. The line count never changes, and a sized pane clips shifted
// content to its width.
func applyTranslate(s string, x, y float64, width int) string {
	dx := int(math.Round(x))
	dy := int(math.Round(y))
	if dx == 0 && dy == 0 {
		return s
	}

	lines := strings.Split(s, "\n")
	n := len(lines)

	if dx != 0 {
		for i, line := range lines {
			if dx > 0 {
				line = strings.Repeat(" ", dx) + line
				if width > 0 {
					line = ansi.Truncate(line, width, "")
				}
			} else {
				line = ansi.TruncateLeft(line, -dx, "")
			}
			lines[i] = line
		}
	}

	switch {
	case dy > 0:
		shifted := make([]string, 0, n+dy)
		for range dy {
			shifted = append(shifted, "")
		}
		lines = append(shifted, lines...)[:n]
	case dy < 0:
		drop := min(-dy, len(lines))
		lines = lines[drop:]
		for len(lines) < n {
			lines = append(lines, "")
		}
	}

	return strings.Join(lines, "\n")
}
