package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/darkpan/internal/config"
	"github.com/zjrosen/darkpan/internal/paths"
)

var mirrorsCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "Show or edit the upstream mirrors used by locate",
	Long: `Print the configured mirrors, in lookup order.

Examples:
  darkpan mirrors
  darkpan mirrors add https://cpan.metacpan.org
  darkpan mirrors remove https://www.cpan.org`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, m := range cfg.MirrorList() {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	},
}

var mirrorsAddCmd = &cobra.Command{
	Use:   "add URL",
	Short: "Append a mirror to the repository config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mirror := strings.TrimRight(args[0], "/")
		mirrors := cfg.MirrorList()
		if slices.Contains(mirrors, mirror) {
			return fmt.Errorf("mirror %s is already configured", mirror)
		}
		return saveMirrors(cmd, append(slices.Clone(mirrors), mirror))
	},
}

var mirrorsRemoveCmd = &cobra.Command{
	Use:     "remove URL",
	Aliases: []string{"rm"},
	Short:   "Remove a mirror from the repository config",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mirror := strings.TrimRight(args[0], "/")
		mirrors := slices.DeleteFunc(slices.Clone(cfg.MirrorList()), func(m string) bool {
			return strings.TrimRight(m, "/") == mirror
		})
		if len(mirrors) == len(cfg.MirrorList()) {
			return fmt.Errorf("mirror %s is not configured", mirror)
		}
		return saveMirrors(cmd, mirrors)
	},
}

func init() {
	mirrorsCmd.AddCommand(mirrorsAddCmd, mirrorsRemoveCmd)
	rootCmd.AddCommand(mirrorsCmd)
}

// saveMirrors writes mirrors to the repository-local config file.
func saveMirrors(cmd *cobra.Command, mirrors []string) error {
	layout, err := paths.NewLayout(cfg.Root)
	if err != nil {
		return err
	}
	if !layout.IsInitialized() {
		return errNotInitialized
	}
	if err := config.SaveMirrors(layout.ConfigPath(), mirrors); err != nil {
		return err
	}
	for _, m := range mirrors {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), m)
	}
	return nil
}
