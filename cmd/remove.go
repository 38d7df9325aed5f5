package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove PATH...",
	Aliases: []string{"rm"},
	Short:   "Remove distributions from the repository",
	Long: `Remove distributions by repository path, e.g. A/AL/ALICE/Foo-1.00.tar.gz.

The metadata record goes first, then the archive file.

Examples:
  darkpan remove A/AL/ALICE/Foo-1.00.tar.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	feed := newChangeFeed(a.events, cmd.OutOrStdout())
	defer feed.Close()

	for _, distPath := range args {
		if _, err := a.coord.Remove(cmd.Context(), distPath); err != nil {
			return fmt.Errorf("removing %s: %w", distPath, err)
		}
		feed.flush()
	}
	return nil
}
