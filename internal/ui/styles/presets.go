package styles

import (
	"maps"
	"slices"
)

// Palette is the small set of colors a built-in stylesheet is generated from.
type Palette struct {
	Name        string
	Description string
	Text        string
	Muted       string
	Accent      string
	Border      string
	Success     string
	Error       string
}

// Palettes contains the built-in palettes, keyed by name.
var Palettes = map[string]Palette{
	"default":       DefaultPalette,
	"dracula":       DraculaPalette,
	"nord":          NordPalette,
	"high-contrast": HighContrastPalette,
}

var DefaultPalette = Palette{
	Name:        "default",
	Description: "Default stagehand theme",
	Text:        "#CCCCCC",
	Muted:       "#696969",
	Accent:      "#54A0FF",
	Border:      "#696969",
	Success:     "#73F59F",
	Error:       "#FF8787",
}

var DraculaPalette = Palette{
	Name:        "dracula",
	Description: "Dracula dark theme",
	Text:        "#F8F8F2",
	Muted:       "#6272A4",
	Accent:      "#BD93F9",
	Border:      "#6272A4",
	Success:     "#50FA7B",
	Error:       "#FF5555",
}

var NordPalette = Palette{
	Name:        "nord",
	Description: "Arctic, north-bluish palette",
	Text:        "#ECEFF4",
	Muted:       "#4C566A",
	Accent:      "#88C0D0",
	Border:      "#4C566A",
	Success:     "#A3BE8C",
	Error:       "#BF616A",
}

// HighContrastPalette uses no muted colors.
var HighContrastPalette = Palette{
	Name:        "high-contrast",
	Description: "High contrast for accessibility",
	Text:        "#FFFFFF",
	Muted:       "#FFFFFF",
	Accent:      "#FFFF00",
	Border:      "#FFFFFF",
	Success:     "#00FF00",
	Error:       "#FF0000",
}

// PaletteNames returns the built-in palette names in sorted order.
func PaletteNames() []string {
	return slices.Sorted(maps.Keys(Palettes))
}

// BuiltIn generates the stylesheet for a named palette.
func BuiltIn(name string) (*Sheet, bool) {
	p, ok := Palettes[name]
	if !ok {
		return nil, false
	}
	return p.Sheet(), true
}

// Sheet generates a stylesheet covering the element kinds and the common
// classes "title", "muted", "accent", "success", "error" and "panel".
func (p Palette) Sheet() *Sheet {
	yes := true
	return &Sheet{
		name: p.Name,
		rules: map[string]Rule{
			"text":     {Foreground: p.Text},
			"markdown": {},
			".title":   {Foreground: p.Accent, Bold: &yes},
			".muted":   {Foreground: p.Muted},
			".accent":  {Foreground: p.Accent},
			".success": {Foreground: p.Success},
			".error":   {Foreground: p.Error},
			".panel":   {Border: "rounded", BorderForeground: p.Border, Padding: []int{0, 1}},
		},
	}
}
