package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/stagehand/internal/app"
	"github.com/zjrosen/stagehand/internal/config"
	"github.com/zjrosen/stagehand/internal/log"
	"github.com/zjrosen/stagehand/internal/tracing"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Run a terminal application described by views and stylesheets",
	Long: `Stagehand loads the views, nodes and stylesheets listed in an application
manifest and displays them in the terminal, with fades between views and
live stylesheet reloading.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .stagehand/config.yaml or ~/.config/stagehand/config.yaml)")
	rootCmd.PersistentFlags().StringP("root", "r", "",
		"directory that resources are resolved against")
	rootCmd.PersistentFlags().StringP("manifest", "m", "",
		"application manifest, relative to the resource root")
	rootCmd.Flags().String("view", "", "view to show first")
	rootCmd.Flags().String("theme", "", "built-in palette attached to every view")
	rootCmd.Flags().Bool("no-watch", false, "do not reload stylesheets when their files change")
	rootCmd.Flags().Bool("no-fade", false, "switch views without fading")

	_ = viper.BindPFlag("resource_root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("manifest", rootCmd.PersistentFlags().Lookup("manifest"))
	_ = viper.BindPFlag("initial_view", rootCmd.Flags().Lookup("view"))
	_ = viper.BindPFlag("theme", rootCmd.Flags().Lookup("theme"))
}

func initConfig() {
	setDefaults(viper.GetViper(), config.Defaults())
	viper.SetEnvPrefix("STAGEHAND")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .stagehand/config.yaml (current directory)
		// 2. ~/.config/stagehand/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			viper.SetConfigFile(config.DefaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "stagehand"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(config.DefaultConfigPath); writeErr == nil {
				viper.SetConfigFile(config.DefaultConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// setDefaults registers every key so that flags, the environment and the
// config file can all override it.
func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("resource_root", d.ResourceRoot)
	v.SetDefault("manifest", d.Manifest)
	v.SetDefault("initial_view", d.InitialView)
	v.SetDefault("remember_view", d.RememberView)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("watch_styles", d.WatchStyles)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("window.markdown_style", d.Window.MarkdownStyle)
	v.SetDefault("window.alt_screen", d.Window.AltScreen)
	v.SetDefault("fade.enabled", d.Fade.Enabled)
	v.SetDefault("fade.duration", d.Fade.Duration)
	v.SetDefault("fade.fps", d.Fade.FPS)
	v.SetDefault("fade.direction", d.Fade.Direction)
	v.SetDefault("chooser.initial_dir", d.Chooser.InitialDir)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// startLogging opens the debug log when debug is on in the config or
// through the environment.
func startLogging() (func(), error) {
	if !cfg.Debug && !log.EnabledFromEnv() {
		return func() {}, nil
	}
	cleanup, err := log.Init(cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	log.Info(log.CatConfig, "configuration loaded", "file", viper.ConfigFileUsed(), "root", cfg.ResourceRoot)
	return cleanup, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		cfg.WatchStyles = false
	}
	if noFade, _ := cmd.Flags().GetBool("no-fade"); noFade {
		cfg.Fade.Enabled = false
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	closeLog, err := startLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	// Store the config file path for remember_view
	configFilePath := viper.ConfigFileUsed()
	if configFilePath == "" {
		configFilePath = config.DefaultConfigPath
	}

	model, err := app.New(cmd.Context(), cfg,
		app.WithTracer(provider.Tracer()),
		app.WithConfigPath(configFilePath),
	)
	if err != nil {
		return fmt.Errorf("loading application: %w", err)
	}

	opts := []tea.ProgramOption{tea.WithContext(cmd.Context())}
	if cfg.Window.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, opts...)

	final, err := p.Run()
	if m, ok := final.(app.Model); ok {
		model = m
	}

	// Stop the watcher and save the displayed view
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
