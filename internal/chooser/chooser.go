// Package chooser wraps file, directory and save pickers behind a small API
// that never fails: a cancelled dialog or an unusable selection is simply
// "no file".
package chooser

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/stagehand/internal/log"
)

// Default dialog titles.
const (
	TitleOpen      = "Select File"
	TitleDirectory = "Select Directory"
	TitleSave      = "Save File"
)

// Filter restricts the files a dialog offers. Patterns are shell globs such
// as "*.yaml".
type Filter struct {
	Description string
	Patterns    []string
}

// Options configure a single dialog. The zero value is valid: it opens in the
// user's home directory with the default title.
type Options struct {
	InitialDir  string
	Title       string
	InitialName string
	Filters     []Filter
}

// Mode selects the kind of dialog.
type Mode int

const (
	ModeOpen Mode = iota
	ModeDirectory
	ModeSave
)

func (m Mode) String() string {
	switch m {
	case ModeOpen:
		return "open"
	case ModeDirectory:
		return "directory"
	case ModeSave:
		return "save"
	default:
		return "unknown"
	}
}

// Dialog is a fully resolved dialog request handed to a Prompter.
type Dialog struct {
	Mode        Mode
	Title       string
	InitialDir  string
	InitialName string
	// Extensions lists the allowed file suffixes, e.g. ".yaml". Empty
	// allows every file.
	Extensions []string
}

// Prompter shows a dialog and returns the raw selection. ok is false when the
// user cancelled.
type Prompter interface {
	Prompt(ctx context.Context, d Dialog) (path string, ok bool, err error)
}

// Chooser resolves defaults, runs dialogs and validates what comes back.
type Chooser struct {
	prompter Prompter
	home     func() (string, error)
	stat     func(string) (os.FileInfo, error)
}

// New creates a chooser. A nil prompter uses a TeaPrompter.
func New(p Prompter) *Chooser {
	if p == nil {
		p = NewTeaPrompter()
	}
	return &Chooser{
		prompter: p,
		home:     os.UserHomeDir,
		stat:     os.Stat,
	}
}

// ChooseFile asks for an existing regular file.
func (c *Chooser) ChooseFile(ctx context.Context, opts Options) (string, bool) {
	d := c.dialog(ModeOpen, TitleOpen, opts)
	p, ok := c.run(ctx, d)
	if !ok {
		return "", false
	}
	info, err := c.stat(p)
	if err != nil || !info.Mode().IsRegular() {
		log.Warn(log.CatChooser, "selection is not a regular file", "path", p)
		return "", false
	}
	return p, true
}

// ChooseDirectory asks for an existing directory.
func (c *Chooser) ChooseDirectory(ctx context.Context, opts Options) (string, bool) {
	d := c.dialog(ModeDirectory, TitleDirectory, opts)
	p, ok := c.run(ctx, d)
	if !ok {
		return "", false
	}
	info, err := c.stat(p)
	if err != nil || !info.IsDir() {
		log.Warn(log.CatChooser, "selection is not a directory", "path", p)
		return "", false
	}
	return p, true
}

// SaveFile asks for a file name to write. The file need not exist, but its
// directory must. When the name has no extension, the first filter's
// extension is appended.
func (c *Chooser) SaveFile(ctx context.Context, opts Options) (string, bool) {
	d := c.dialog(ModeSave, TitleSave, opts)
	p, ok := c.run(ctx, d)
	if !ok {
		return "", false
	}
	if filepath.Ext(p) == "" && len(d.Extensions) > 0 {
		p += d.Extensions[0]
	}
	info, err := c.stat(filepath.Dir(p))
	if err != nil || !info.IsDir() {
		log.Warn(log.CatChooser, "save location has no parent directory", "path", p)
		return "", false
	}
	if info, err := c.stat(p); err == nil && info.IsDir() {
		log.Warn(log.CatChooser, "save target is a directory", "path", p)
		return "", false
	}
	return p, true
}

func (c *Chooser) dialog(mode Mode, title string, opts Options) Dialog {
	d := Dialog{
		Mode:        mode,
		Title:       opts.Title,
		InitialDir:  opts.InitialDir,
		InitialName: opts.InitialName,
	}
	if d.Title == "" {
		d.Title = title
	}
	if d.InitialDir == "" {
		home, err := c.home()
		if err != nil {
			log.Warn(log.CatChooser, "no home directory, using working directory", "error", err)
			home = "."
		}
		d.InitialDir = home
	}
	if mode != ModeDirectory {
		d.Extensions = Extensions(opts.Filters)
	}
	return d
}

func (c *Chooser) run(ctx context.Context, d Dialog) (string, bool) {
	log.Debug(log.CatChooser, "opening dialog", "mode", d.Mode, "title", d.Title, "dir", d.InitialDir)
	p, ok, err := c.prompter.Prompt(ctx, d)
	if err != nil {
		log.ErrorErr(log.CatChooser, "dialog failed", err, "mode", d.Mode)
		return "", false
	}
	if !ok || p == "" {
		log.Debug(log.CatChooser, "dialog cancelled", "mode", d.Mode)
		return "", false
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(d.InitialDir, p)
	}
	return filepath.Clean(p), true
}

// Extensions returns the file suffixes named by filter patterns, in order
// and without duplicates. "*.yaml" yields ".yaml"; patterns that are not a
// plain extension glob ("*", "data-*.csv") are ignored.
func Extensions(filters []Filter) []string {
	var exts []string
	seen := make(map[string]bool)
	for _, f := range filters {
		for _, pat := range f.Patterns {
			ext, ok := strings.CutPrefix(pat, "*")
			if !ok || !strings.HasPrefix(ext, ".") || len(ext) < 2 || strings.ContainsAny(ext, "*?[") {
				continue
			}
			if !seen[ext] {
				seen[ext] = true
				exts = append(exts, ext)
			}
		}
	}
	return exts
}
