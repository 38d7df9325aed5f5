package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/darkpan/internal/presentation"
	"github.com/zjrosen/darkpan/internal/repository/domain"
)

// errNotLocated makes locate exit non-zero when no mirror has the package.
var errNotLocated = errors.New("package not found on any mirror")

var (
	locateVersion string
	locateImport  bool
	locateRefresh bool
	locateJSON    bool
)

var locateCmd = &cobra.Command{
	Use:   "locate PACKAGE",
	Short: "Find a package on the configured upstream mirrors",
	Long: `Look a package up in the mirrors' 02packages index and print where the
highest satisfying version can be fetched from.

Mirror indexes are downloaded into .darkpan/cache and reused for cache.ttl.

Examples:
  darkpan locate Moose
  darkpan locate Moose --version 2.2
  darkpan locate Moose --import     # import the located archive
  darkpan locate Moose --refresh    # re-download mirror indexes first`,
	Args: cobra.ExactArgs(1),
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().StringVarP(&locateVersion, "version", "V", "", "minimum acceptable version")
	locateCmd.Flags().BoolVar(&locateImport, "import", false, "import the located distribution")
	locateCmd.Flags().BoolVar(&locateRefresh, "refresh", false, "refresh mirror indexes before looking up")
	locateCmd.Flags().BoolVar(&locateJSON, "json", false, "print JSON")
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if locateRefresh {
		if err := a.locator.Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("refreshing mirror indexes: %w", err)
		}
	}

	loc, err := a.coord.Locate(cmd.Context(), domain.Criteria{Name: args[0], Version: locateVersion})
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("%s: %w", args[0], errNotLocated)
	}

	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	if locateJSON {
		if err := formatter.FormatLocation(presentation.FromDomainLocation(loc)); err != nil {
			return err
		}
	} else {
		formatter.Location(loc)
	}

	if !locateImport {
		return nil
	}
	feed := newChangeFeed(a.events, cmd.ErrOrStderr())
	defer feed.Close()
	if _, err := a.coord.Import(cmd.Context(), loc.URL); err != nil {
		return fmt.Errorf("importing %s: %w", domain.RedactURL(loc.URL), err)
	}
	return nil
}
