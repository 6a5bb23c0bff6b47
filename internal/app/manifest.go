package app

import (
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/stagehand/internal/loader"
)

// ErrInvalidManifest is returned for manifests that parse but do not
// describe a usable application.
var ErrInvalidManifest = errors.New("invalid manifest")

// Resource names a file under the resource root.
type Resource struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Manifest lists what an application registers at startup. Views are
// navigated in the order listed.
type Manifest struct {
	InitialView string              `yaml:"initial_view"`
	Views       []Resource          `yaml:"views"`
	Nodes       []Resource          `yaml:"nodes"`
	Stylesheets []Resource          `yaml:"stylesheets"`
	Attach      map[string][]string `yaml:"attach"` // view name -> stylesheet names
}

// ParseManifest reads and validates a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads the manifest at path under fsys. Paths follow the
// loader's resolution rule.
func LoadManifest(fsys fs.FS, path string) (*Manifest, error) {
	resolved, err := loader.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, resolved)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", resolved, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", resolved, err)
	}
	return m, nil
}

// Validate checks names, paths and cross references.
func (m *Manifest) Validate() error {
	if len(m.Views) == 0 {
		return fmt.Errorf("%w: at least one view is required", ErrInvalidManifest)
	}
	views, err := checkResources("views", m.Views)
	if err != nil {
		return err
	}
	if _, err := checkResources("nodes", m.Nodes); err != nil {
		return err
	}
	sheets, err := checkResources("stylesheets", m.Stylesheets)
	if err != nil {
		return err
	}

	if m.InitialView != "" && !views[m.InitialView] {
		return fmt.Errorf("%w: initial_view %q is not a listed view", ErrInvalidManifest, m.InitialView)
	}
	for view, names := range m.Attach {
		if !views[view] {
			return fmt.Errorf("%w: attach: unknown view %q", ErrInvalidManifest, view)
		}
		for _, name := range names {
			if !sheets[name] {
				return fmt.Errorf("%w: attach %q: unknown stylesheet %q", ErrInvalidManifest, view, name)
			}
		}
	}
	return nil
}

// Initial returns the view to show first: the configured override, then
// the manifest's initial view, then the first listed view.
func (m *Manifest) Initial(override string) string {
	if override != "" {
		return override
	}
	if m.InitialView != "" {
		return m.InitialView
	}
	return m.Views[0].Name
}

// ViewNames returns the view names in manifest order.
func (m *Manifest) ViewNames() []string {
	names := make([]string, len(m.Views))
	for i, v := range m.Views {
		names[i] = v.Name
	}
	return names
}

func checkResources(section string, rs []Resource) (map[string]bool, error) {
	seen := make(map[string]bool, len(rs))
	for i, r := range rs {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: %s[%d]: name is required", ErrInvalidManifest, section, i)
		}
		if r.Path == "" {
			return nil, fmt.Errorf("%w: %s[%d] %q: path is required", ErrInvalidManifest, section, i, r.Name)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: %s: duplicate name %q", ErrInvalidManifest, section, r.Name)
		}
		seen[r.Name] = true
	}
	return seen, nil
}
