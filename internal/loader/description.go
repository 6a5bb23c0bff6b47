package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/stagehand/internal/ui"
)

// Description is the root structure of a view description file.
type Description struct {
	Controller string      `yaml:"controller"` // Controller factory name (optional)
	Root       ElementSpec `yaml:"root"`
}

// ElementSpec describes one element and its children.
type ElementSpec struct {
	Kind     string        `yaml:"kind"`     // box, row, text, markdown, spacer
	ID       string        `yaml:"id"`       // Lookup id, also the "#id" selector
	Class    []string      `yaml:"class"`    // ".class" selectors
	Text     string        `yaml:"text"`     // text kind
	Markdown string        `yaml:"markdown"` // markdown kind
	Width    int           `yaml:"width"`    // box/row size, text and markdown wrap width
	Height   int           `yaml:"height"`   // box/row size
	Lines    int           `yaml:"lines"`    // spacer height
	Hidden   bool          `yaml:"hidden"`   // starts invisible
	Children []ElementSpec `yaml:"children"` // box and row only
}

func parseDescription(data []byte) (Description, error) {
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Description{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if d.Root.Kind == "" {
		return Description{}, fmt.Errorf("%w: root element is required", ErrMalformed)
	}
	return d, nil
}

func (l *FSLoader) build(spec ElementSpec) (ui.Element, error) {
	var el ui.Element

	switch spec.Kind {
	case "box", "row":
		layout := ui.Vertical
		if spec.Kind == "row" {
			layout = ui.Horizontal
		}
		box := ui.NewBox(spec.ID, layout)
		box.SetClasses(spec.Class...)
		box.SetSize(spec.Width, spec.Height)
		for i, childSpec := range spec.Children {
			child, err := l.build(childSpec)
			if err != nil {
				return nil, fmt.Errorf("%s child %d: %w", spec.Kind, i, err)
			}
			box.Append(child)
		}
		el = box
	case "text":
		t := ui.NewText(spec.ID, spec.Text)
		t.SetClasses(spec.Class...)
		t.SetWrap(spec.Width)
		el = t
	case "markdown":
		m := ui.NewMarkdown(spec.ID, spec.Markdown, spec.Width, l.markdownStyle)
		m.SetClasses(spec.Class...)
		el = m
	case "spacer":
		sp := ui.NewSpacer(spec.ID, spec.Lines)
		sp.SetClasses(spec.Class...)
		el = sp
	case "":
		return nil, fmt.Errorf("%w: element kind is required", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: unknown element kind %q", ErrMalformed, spec.Kind)
	}

	if spec.Kind != "box" && spec.Kind != "row" && len(spec.Children) > 0 {
		return nil, fmt.Errorf("%w: %s elements cannot have children", ErrMalformed, spec.Kind)
	}
	if spec.Hidden {
		el.SetVisible(false)
	}
	return el, nil
}
