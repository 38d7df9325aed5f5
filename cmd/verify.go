package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/darkpan/internal/repository/domain"
)

// errInconsistent makes verify exit non-zero when problems are found.
var errInconsistent = errors.New("repository is inconsistent")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that metadata and archives agree",
	Long: `Compare the metadata index with the archive tree and report:

  missing archive   a distribution whose archive file is gone
  orphaned archive  an archive file no distribution refers to
  corrupt archive   an archive whose digest changed since it was recorded

Nothing is modified. Exits non-zero when any problem is found.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	report, err := a.coord.Verify(cmd.Context())
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), report)
}

func printReport(w io.Writer, report *domain.VerifyReport) error {
	if report.OK() {
		_, _ = fmt.Fprintln(w, "ok")
		return nil
	}
	_, _ = io.WriteString(w, report.String())
	return fmt.Errorf("%w: %d missing, %d orphaned, %d corrupt", errInconsistent,
		len(report.Missing), len(report.Orphaned), len(report.Corrupt))
}
