package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addAuthor string

var addCmd = &cobra.Command{
	Use:   "add ARCHIVE...",
	Short: "Add local distribution archives",
	Long: `Add one or more local distribution archives under the author's directory.

The archive keeps its file name and is stored at X/XY/AUTHOR/<name>. An
archive is rejected when that path is taken or when it provides a local
package currently owned by another author. Archives are processed in
order; the first failure stops the command.

Examples:
  darkpan add --author ALICE Foo-1.00.tar.gz
  darkpan add -a alice dist/*.tar.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addAuthor, "author", "a", "", "author identifier (required)")
	_ = addCmd.MarkFlagRequired("author")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	feed := newChangeFeed(a.events, cmd.OutOrStdout())
	defer feed.Close()

	for _, archive := range args {
		if _, err := a.coord.Add(cmd.Context(), archive, addAuthor); err != nil {
			return fmt.Errorf("adding %s: %w", archive, err)
		}
		feed.flush()
	}
	return nil
}
