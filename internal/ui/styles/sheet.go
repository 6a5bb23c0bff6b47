// Package styles implements named stylesheets: selector rules that resolve
// to Lip Gloss styles for the elements of a view.
package styles

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/stagehand/internal/ui"
)

// ErrInvalidRule is returned when a stylesheet rule cannot be parsed.
var ErrInvalidRule = errors.New("invalid stylesheet rule")

// Rule holds the properties a selector sets. Nil fields are left untouched so
// that later rules only override what they name.
type Rule struct {
	Foreground       string `yaml:"foreground"`
	Background       string `yaml:"background"`
	Bold             *bool  `yaml:"bold"`
	Italic           *bool  `yaml:"italic"`
	Faint            *bool  `yaml:"faint"`
	Underline        *bool  `yaml:"underline"`
	Padding          []int  `yaml:"padding"`
	Border           string `yaml:"border"`
	BorderForeground string `yaml:"border_foreground"`
	Width            int    `yaml:"width"`
	Align            string `yaml:"align"`
}

// sheetFile is the YAML layout of a stylesheet file.
type sheetFile struct {
	Rules map[string]Rule `yaml:"rules"`
}

// Sheet is a named set of selector rules. Selectors are "#id", ".class" or a
// bare element kind ("box", "text", ...).
type Sheet struct {
	name  string
	rules map[string]Rule
}

// NewSheet validates rules and builds a sheet.
func NewSheet(name string, rules map[string]Rule) (*Sheet, error) {
	for sel, r := range rules {
		if err := validateRule(sel, r); err != nil {
			return nil, fmt.Errorf("stylesheet %s: %w", name, err)
		}
	}
	return &Sheet{name: name, rules: maps.Clone(rules)}, nil
}

// Parse reads a stylesheet from YAML.
func Parse(name string, data []byte) (*Sheet, error) {
	var f sheetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("stylesheet %s: %w: %w", name, ErrInvalidRule, err)
	}
	return NewSheet(name, f.Rules)
}

func (s *Sheet) Name() string { return s.name }

// Selectors returns the sheet's selectors in sorted order.
func (s *Sheet) Selectors() []string {
	return slices.Sorted(maps.Keys(s.rules))
}

// Rule returns the rule for a selector.
func (s *Sheet) Rule(selector string) (Rule, bool) {
	r, ok := s.rules[selector]
	return r, ok
}

// Replace swaps in the rules of other while keeping this sheet's identity,
// so views that hold the sheet pick up the new rules on the next render.
func (s *Sheet) Replace(other *Sheet) {
	if other == nil {
		return
	}
	s.rules = maps.Clone(other.rules)
}

// Style resolves el against this sheet alone.
func (s *Sheet) Style(el ui.Styled) lipgloss.Style {
	return s.apply(lipgloss.NewStyle(), el)
}

// apply layers kind, class and id rules onto st, in that order.
func (s *Sheet) apply(st lipgloss.Style, el ui.Styled) lipgloss.Style {
	if r, ok := s.rules[el.Kind()]; ok {
		st = r.apply(st)
	}
	for _, c := range el.Classes() {
		if r, ok := s.rules["."+c]; ok {
			st = r.apply(st)
		}
	}
	if id := el.ID(); id != "" {
		if r, ok := s.rules["#"+id]; ok {
			st = r.apply(st)
		}
	}
	return st
}

func (r Rule) apply(st lipgloss.Style) lipgloss.Style {
	if r.Foreground != "" {
		st = st.Foreground(lipgloss.Color(r.Foreground))
	}
	if r.Background != "" {
		st = st.Background(lipgloss.Color(r.Background))
	}
	if r.Bold != nil {
		st = st.Bold(*r.Bold)
	}
	if r.Italic != nil {
		st = st.Italic(*r.Italic)
	}
	if r.Faint != nil {
		st = st.Faint(*r.Faint)
	}
	if r.Underline != nil {
		st = st.Underline(*r.Underline)
	}
	if len(r.Padding) > 0 {
		st = st.Padding(r.Padding...)
	}
	if r.Border != "" {
		b, _ := borderByName(r.Border)
		st = st.Border(b)
	}
	if r.BorderForeground != "" {
		st = st.BorderForeground(lipgloss.Color(r.BorderForeground))
	}
	if r.Width > 0 {
		st = st.Width(r.Width)
	}
	if r.Align != "" {
		pos, _ := alignByName(r.Align)
		st = st.Align(pos)
	}
	return st
}

func validateRule(sel string, r Rule) error {
	if strings.TrimLeft(sel, "#.") == "" {
		return fmt.Errorf("%w: empty selector %q", ErrInvalidRule, sel)
	}
	for field, c := range map[string]string{
		"foreground":        r.Foreground,
		"background":        r.Background,
		"border_foreground": r.BorderForeground,
	} {
		if c != "" && !isValidHexColor(c) {
			return fmt.Errorf("%w: %s: invalid hex color for %s: %s", ErrInvalidRule, sel, field, c)
		}
	}
	switch len(r.Padding) {
	case 0, 1, 2, 4:
	default:
		return fmt.Errorf("%w: %s: padding takes 1, 2 or 4 values, got %d", ErrInvalidRule, sel, len(r.Padding))
	}
	if r.Border != "" {
		if _, ok := borderByName(r.Border); !ok {
			return fmt.Errorf("%w: %s: unknown border %q", ErrInvalidRule, sel, r.Border)
		}
	}
	if r.Align != "" {
		if _, ok := alignByName(r.Align); !ok {
			return fmt.Errorf("%w: %s: unknown align %q", ErrInvalidRule, sel, r.Align)
		}
	}
	if r.Width < 0 {
		return fmt.Errorf("%w: %s: negative width", ErrInvalidRule, sel)
	}
	return nil
}

func borderByName(name string) (lipgloss.Border, bool) {
	switch name {
	case "normal":
		return lipgloss.NormalBorder(), true
	case "rounded":
		return lipgloss.RoundedBorder(), true
	case "thick":
		return lipgloss.ThickBorder(), true
	case "double":
		return lipgloss.DoubleBorder(), true
	case "hidden":
		return lipgloss.HiddenBorder(), true
	default:
		return lipgloss.Border{}, false
	}
}

func alignByName(name string) (lipgloss.Position, bool) {
	switch name {
	case "left":
		return lipgloss.Left, true
	case "center":
		return lipgloss.Center, true
	case "right":
		return lipgloss.Right, true
	default:
		return 0, false
	}
}

func isValidHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 64)
	return err == nil
}
