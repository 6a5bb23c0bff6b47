// Package overlay draws one block of text over another without clearing the
// cells around it.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position is where the foreground block is anchored.
type Position int

const (
	Center Position = iota
	Top
	Bottom
)

// Config describes the area the foreground is placed in.
type Config struct {
	Width    int
	Height   int
	Position Position
	// Margin keeps Top and Bottom blocks this many lines from the edge.
	Margin int
}

// Place draws fg over bg. bg is padded to Height lines first, and styling
// on both sides of the foreground is kept.
func Place(cfg Config, fg, bg string) string {
	if fg == "" {
		return bg
	}
	rows := strings.Split(bg, "\n")
	for len(rows) < cfg.Height {
		rows = append(rows, strings.Repeat(" ", cfg.Width))
	}

	block := strings.Split(fg, "\n")
	x, y := origin(cfg, lipgloss.Width(fg), len(block))

	for i, line := range block {
		row := y + i
		if row >= len(rows) {
			break
		}
		rows[row] = splice(rows[row], line, x)
	}
	return strings.Join(rows, "\n")
}

// splice replaces the cells of row starting at column x with line.
func splice(row, line string, x int) string {
	left := ansi.Truncate(row, x, "")
	if w := ansi.StringWidth(left); w < x {
		left += strings.Repeat(" ", x-w)
	}
	end := x + ansi.StringWidth(line)
	var right string
	if end < ansi.StringWidth(row) {
		right = ansi.TruncateLeft(row, end, "")
	}
	return left + line + right
}

func origin(cfg Config, w, h int) (x, y int) {
	x = (cfg.Width - w) / 2
	switch cfg.Position {
	case Top:
		y = cfg.Margin
	case Bottom:
		y = cfg.Height - h - cfg.Margin
	default:
		y = (cfg.Height - h) / 2
	}
	return max(0, x), max(0, y)
}
