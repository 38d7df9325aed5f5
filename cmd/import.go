package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/darkpan/internal/repository/domain"
)

var importCmd = &cobra.Command{
	Use:   "import URL...",
	Short: "Import distributions from an upstream repository",
	Long: `Fetch archives from upstream and record them under the source they came from.

The URL must contain an /authors/id/X/XY/AUTHOR/ segment; the part before
it becomes the distribution's source. http(s) and file URLs are accepted.
A URL whose path is already in the repository is rejected without
downloading anything.

Examples:
  darkpan import https://www.cpan.org/authors/id/E/ET/ETHER/Moose-2.2207.tar.gz
  darkpan import file:///srv/minicpan/authors/id/B/BO/BOB/Bar-1.0.tar.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	feed := newChangeFeed(a.events, cmd.OutOrStdout())
	defer feed.Close()

	for _, rawURL := range args {
		if _, err := a.coord.Import(cmd.Context(), rawURL); err != nil {
			return fmt.Errorf("importing %s: %w", domain.RedactURL(rawURL), err)
		}
		feed.flush()
	}
	return nil
}
