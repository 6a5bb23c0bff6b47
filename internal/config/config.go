// Package config provides configuration types, defaults and validation for
// stagehand.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/stagehand/internal/fade"
	"github.com/zjrosen/stagehand/internal/log"
	"github.com/zjrosen/stagehand/internal/tracing"
	"github.com/zjrosen/stagehand/internal/ui/styles"
)

// Config holds all configuration options for stagehand.
type Config struct {
	// ResourceRoot is the directory view descriptions and stylesheets are
	// resolved against.
	ResourceRoot string `mapstructure:"resource_root"`

	// Manifest is the application manifest, relative to ResourceRoot.
	Manifest string `mapstructure:"manifest"`

	// InitialView overrides the manifest's initial view.
	InitialView string `mapstructure:"initial_view"`

	// RememberView writes the last shown view back to InitialView on exit.
	RememberView bool `mapstructure:"remember_view"`

	// Theme is a built-in palette attached to every view ("" for none).
	Theme string `mapstructure:"theme"`

	// WatchStyles reloads stylesheets when their files change.
	WatchStyles bool `mapstructure:"watch_styles"`

	Debug   bool   `mapstructure:"debug"`
	LogFile string `mapstructure:"log_file"`

	Window  WindowConfig   `mapstructure:"window"`
	Fade    FadeConfig     `mapstructure:"fade"`
	Chooser ChooserConfig  `mapstructure:"chooser"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// WindowConfig holds display options.
type WindowConfig struct {
	Title         string `mapstructure:"title"`
	MarkdownStyle string `mapstructure:"markdown_style"` // glamour style: "dark" (default), "light", "notty"
	AltScreen     bool   `mapstructure:"alt_screen"`
}

// FadeConfig holds view transition options.
type FadeConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Duration  time.Duration `mapstructure:"duration"`
	FPS       int           `mapstructure:"fps"`
	Direction string        `mapstructure:"direction"` // left, right, up, down
}

// ChooserConfig holds file dialog options.
type ChooserConfig struct {
	// InitialDir is where dialogs open. Empty means the home directory.
	InitialDir string `mapstructure:"initial_dir"`
}

// DefaultConfigPath is where a config file is created when none exists.
const DefaultConfigPath = ".stagehand/config.yaml"

// DefaultLogFile is the debug log written when debug is on.
const DefaultLogFile = "debug.log"

// DefaultTracesFilePath returns ~/.config/stagehand/traces/traces.jsonl, or
// an empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "stagehand", "traces", "traces.jsonl")
}

// Defaults returns a Config with default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		ResourceRoot: ".",
		Manifest:     "app.yaml",
		Theme:        "default",
		WatchStyles:  true,
		LogFile:      DefaultLogFile,
		Window: WindowConfig{
			Title:         "stagehand",
			MarkdownStyle: "dark",
			AltScreen:     true,
		},
		Fade: FadeConfig{
			Enabled:   true,
			Duration:  fade.DefaultDuration,
			FPS:       fade.DefaultFPS,
			Direction: "left",
		},
		Tracing: tc,
	}
}

// Validate checks the configuration for errors.
func Validate(c Config) error {
	if c.ResourceRoot == "" {
		return fmt.Errorf("resource_root is required")
	}
	if c.Manifest == "" {
		return fmt.Errorf("manifest is required")
	}
	if c.Theme != "" {
		if _, ok := styles.BuiltIn(c.Theme); !ok {
			return fmt.Errorf("theme must be one of %v, got %q", styles.PaletteNames(), c.Theme)
		}
	}
	if err := ValidateFade(c.Fade); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateFade checks transition settings.
func ValidateFade(f FadeConfig) error {
	if f.Duration <= 0 {
		return fmt.Errorf("fade.duration must be positive, got %v", f.Duration)
	}
	if f.FPS <= 0 || f.FPS > 240 {
		return fmt.Errorf("fade.fps must be between 1 and 240, got %d", f.FPS)
	}
	if _, ok := fade.ParseDirection(f.Direction); !ok {
		return fmt.Errorf("fade.direction must be \"left\", \"right\", \"up\" or \"down\", got %q", f.Direction)
	}
	return nil
}

// ValidateTracing checks tracing settings. Path requirements only apply when
// tracing is enabled.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}
	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}
	if t.Enabled {
		if t.Exporter == "file" && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == "otlp" && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// FadeDirection returns the configured direction, left if it does not parse.
func (c Config) FadeDirection() fade.Direction {
	d, ok := fade.ParseDirection(c.Fade.Direction)
	if !ok {
		return fade.Left
	}
	return d
}

// DefaultConfigTemplate returns the default config file with comments.
func DefaultConfigTemplate() string {
	return `# Stagehand Configuration

# Directory that view descriptions and stylesheets are resolved against
resource_root: .

# Application manifest (views, nodes, stylesheets), relative to resource_root
manifest: app.yaml

# Start on this view instead of the manifest's initial view
# initial_view: home

# Remember the last shown view as initial_view on exit
remember_view: false

# Built-in palette attached to every view: default, dracula, nord, high-contrast
theme: default

# Reload stylesheets when their files change
watch_styles: true

window:
  title: stagehand
  markdown_style: dark   # glamour style: dark, light, notty
  alt_screen: true

fade:
  enabled: true
  duration: 500ms
  fps: 60
  direction: left        # left, right, up, down

chooser:
  # initial_dir: ~/projects

# Debug logging (also enabled by STAGEHAND_DEBUG=1)
debug: false
log_file: debug.log

# Tracing
# tracing:
#   enabled: true
#   exporter: file       # none, file, stdout, otlp
#   file_path: ~/.config/stagehand/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at configPath with default
// settings and comments, creating the parent directory if needed.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "created default config", "path", configPath)
	return nil
}
