package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/stagehand/internal/chooser"
)

var (
	chooseDir    bool
	chooseSave   bool
	chooseName   string
	chooseFilter []string
)

var chooseCmd = &cobra.Command{
	Use:   "choose",
	Short: "Pick a file or directory in the terminal and print its path",
	Long: `Open a file dialog and print the chosen path. Nothing is printed and the
command exits non-zero when the dialog is cancelled.

Examples:
  stagehand choose
  stagehand choose --dir
  stagehand choose --save --name notes.md --filter "*.md"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if chooseDir && chooseSave {
			return fmt.Errorf("--dir and --save cannot be combined")
		}
		opts := chooser.Options{
			InitialDir:  cfg.Chooser.InitialDir,
			InitialName: chooseName,
		}
		if len(chooseFilter) > 0 {
			opts.Filters = []chooser.Filter{{Description: "filter", Patterns: chooseFilter}}
		}
		return runChoose(cmd, chooser.New(nil), opts)
	},
}

func init() {
	chooseCmd.Flags().BoolVar(&chooseDir, "dir", false, "choose a directory")
	chooseCmd.Flags().BoolVar(&chooseSave, "save", false, "choose a file to save to")
	chooseCmd.Flags().StringVar(&chooseName, "name", "", "initial file name for --save")
	chooseCmd.Flags().StringArrayVar(&chooseFilter, "filter", nil, `file pattern such as "*.md" (repeatable)`)
	rootCmd.AddCommand(chooseCmd)
}

func runChoose(cmd *cobra.Command, c *chooser.Chooser, opts chooser.Options) error {
	var (
		path string
		ok   bool
	)
	switch {
	case chooseDir:
		path, ok = c.ChooseDirectory(cmd.Context(), opts)
	case chooseSave:
		path, ok = c.SaveFile(cmd.Context(), opts)
	default:
		path, ok = c.ChooseFile(cmd.Context(), opts)
	}
	if !ok {
		return fmt.Errorf("no path chosen")
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}
