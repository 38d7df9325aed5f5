package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/darkpan/internal/config"
	"github.com/zjrosen/darkpan/internal/paths"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a repository in the root directory",
	Long: `Create the darkpan control directory, a default config file, the
metadata database and the authors/id archive tree.

Running init on an existing repository is safe: the config file is left
alone and pending database migrations are applied.

Examples:
  darkpan init
  darkpan --root /srv/darkpan init`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	layout, err := paths.NewLayout(cfg.Root)
	if err != nil {
		return err
	}

	if _, err := os.Stat(layout.ConfigPath()); os.IsNotExist(err) {
		if err := config.WriteDefaultConfig(layout.ConfigPath()); err != nil {
			return err
		}
	}

	a, err := openApp(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.store.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("initializing archive store: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Initialized darkpan repository in %s (%s store)\n", layout.Root(), cfg.StoreType())
	return nil
}
