package app

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(testManifest))
	require.NoError(t, err)
	require.Equal(t, "home", m.InitialView)
	require.Equal(t, []string{"home", "settings"}, m.ViewNames())
	require.Len(t, m.Nodes, 1)
	require.Equal(t, []string{"theme"}, m.Attach["home"])
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "views: ["},
		{"no views", "views: []\n"},
		{"missing name", "views:\n  - path: a.yaml\n"},
		{"missing path", "views:\n  - name: a\n"},
		{"duplicate view", "views:\n  - {name: a, path: a.yaml}\n  - {name: a, path: b.yaml}\n"},
		{"duplicate sheet", "views:\n  - {name: a, path: a.yaml}\nstylesheets:\n  - {name: s, path: s.yaml}\n  - {name: s, path: t.yaml}\n"},
		{"unknown initial", "initial_view: b\nviews:\n  - {name: a, path: a.yaml}\n"},
		{"attach unknown view", "views:\n  - {name: a, path: a.yaml}\nattach:\n  b: []\n"},
		{"attach unknown sheet", "views:\n  - {name: a, path: a.yaml}\nattach:\n  a: [nope]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			require.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestLoadManifest(t *testing.T) {
	fsys := fstest.MapFS{"app.yaml": {Data: []byte(testManifest)}}

	m, err := LoadManifest(fsys, "/app.yaml")
	require.NoError(t, err)
	require.Equal(t, "home", m.Initial(""))

	_, err = LoadManifest(fsys, "missing.yaml")
	require.Error(t, err)

	_, err = LoadManifest(fsys, "../app.yaml")
	require.Error(t, err)
}

func TestManifest_Initial(t *testing.T) {
	m := &Manifest{Views: []Resource{{Name: "a", Path: "a"}, {Name: "b", Path: "b"}}}
	require.Equal(t, "a", m.Initial(""), "first view when nothing is named")

	m.InitialView = "b"
	require.Equal(t, "b", m.Initial(""))
	require.Equal(t, "a", m.Initial("a"), "override wins")
}
