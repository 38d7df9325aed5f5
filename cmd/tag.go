package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag NAME",
	Short: "Tag the current repository state",
	Long: `Create an annotated tag named NAME in the git store and print the
tagged commit.

With the file store this does nothing.

Examples:
  darkpan tag release-2026-10`,
	Args: cobra.ExactArgs(1),
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)
}

func runTag(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	commit, err := a.coord.Tag(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if commit == "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tagged %s\n", args[0])
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tagged %s at %s\n", args[0], shortHash(commit))
	return nil
}

func shortHash(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
