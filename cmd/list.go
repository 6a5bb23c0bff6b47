package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/stagehand/internal/app"
	"github.com/zjrosen/stagehand/internal/stage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the views, nodes and stylesheets an application registers",
	Long: `Load the application manifest without starting the display and print
every registered resource.

Examples:
  stagehand list
  stagehand list --root ./examples/demo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateForList(); err != nil {
			return err
		}
		// A filesystem passed explicitly keeps the watcher off.
		model, err := app.New(cmd.Context(), cfg, app.WithFS(os.DirFS(cfg.ResourceRoot)))
		if err != nil {
			return fmt.Errorf("loading application: %w", err)
		}
		return writeInventory(cmd.OutOrStdout(), model.Manager())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func validateForList() error {
	if cfg.ResourceRoot == "" || cfg.Manifest == "" {
		return fmt.Errorf("resource_root and manifest are required")
	}
	return nil
}

// writeInventory prints one row per view, node and stylesheet.
func writeInventory(w io.Writer, mgr *stage.Manager) error {
	rows := make([][]string, 0)
	for _, name := range mgr.Views() {
		s, _ := mgr.View(name)
		detail := "sheets: " + strings.Join(s.Stylesheets(), ", ")
		if _, err := mgr.Controller(name); err == nil {
			detail += "; controller"
		}
		rows = append(rows, []string{"view", name, detail})
	}
	for _, typ := range mgr.Nodes().Types() {
		for _, name := range mgr.Nodes().Names(typ) {
			rows = append(rows, []string{"node", name, typ.String()})
		}
	}
	for _, name := range mgr.Stylesheets() {
		sheet, _ := mgr.Stylesheet(name)
		rows = append(rows, []string{"stylesheet", name, fmt.Sprintf("%d rules", len(sheet.Selectors()))})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KIND", "NAME", "DETAIL").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
