// Package watcher watches stylesheet files and reports, debounced, which
// named sheets changed.
package watcher

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/stagehand/internal/log"
)

// Event lists the sheets whose files changed, sorted by name.
type Event struct {
	Names []string
}

// Config holds watcher configuration options.
type Config struct {
	// Files maps a file path to the sheet name reported for it.
	Files       map[string]string
	DebounceDur time.Duration
}

// DefaultConfig returns a config with a 200ms debounce.
func DefaultConfig(files map[string]string) Config {
	return Config{
		Files:       files,
		DebounceDur: 200 * time.Millisecond,
	}
}

// Watcher monitors stylesheet files for changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	files     map[string]string
	debounce  time.Duration
	onChange  chan Event
	done      chan struct{}
	stopOnce  sync.Once
	stopErr   error
}

// New creates a watcher. Paths are made absolute so fsnotify event names
// can be matched against them.
func New(cfg Config) (*Watcher, error) {
	files := make(map[string]string, len(cfg.Files))
	for p, name := range cfg.Files {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		files[abs] = name
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsWatcher: fsw,
		files:     files,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan Event, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches the directories holding the configured files. Directories
// are watched instead of files so editors that replace a file on save are
// still seen.
func (w *Watcher) Start() (<-chan Event, error) {
	dirs := make(map[string]bool)
	for p := range w.files {
		dirs[filepath.Dir(p)] = true
	}
	for _, dir := range slices.Sorted(maps.Keys(dirs)) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}
	log.Debug(log.CatWatcher, "watching stylesheets", "files", len(w.files), "dirs", len(dirs))

	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources. Later calls return
// the result of the first.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
		w.stopErr = w.fsWatcher.Close()
	})
	return w.stopErr
}

func (w *Watcher) loop() {
	var timer *time.Timer
	pending := make(map[string]bool)

	for {
		var fire <-chan time.Time
		if timer != nil {
			fire = timer.C
		}

		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			name, ok := w.relevant(event)
			if !ok {
				continue
			}
			pending[name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-fire:
			timer = nil
			if len(pending) == 0 {
				continue
			}
			w.send(pending)
			clear(pending)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatcher, "fsnotify error", "error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// send delivers the pending names. An event the receiver has not read yet
// is taken back and merged, so the buffered event always holds every
// unread change. loop is the only sender, so the send never blocks.
func (w *Watcher) send(pending map[string]bool) {
	select {
	case prev := <-w.onChange:
		for _, name := range prev.Names {
			pending[name] = true
		}
	default:
	}
	w.onChange <- Event{Names: slices.Sorted(maps.Keys(pending))}
}

// relevant reports the sheet name for writes, creates and renames of a
// watched file.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return "", false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return "", false
	}
	name, ok := w.files[abs]
	return name, ok
}
