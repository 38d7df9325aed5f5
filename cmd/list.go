package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/darkpan/internal/presentation"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List distributions in the repository",
	Long: `List every distribution ordered by path, with the packages it provides.

Examples:
  darkpan list
  darkpan list --json | jq '.[].path'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	dists, err := a.coord.List(cmd.Context())
	if err != nil {
		return err
	}

	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	if listJSON {
		return formatter.FormatDistributions(presentation.FromDomainDistributions(dists))
	}
	return formatter.Table(dists)
}
