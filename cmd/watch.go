package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Verify the repository whenever the archive tree changes",
	Long: `Watch authors/id and run verify after changes settle.

Runs until interrupted. Problems are printed but do not stop the watch.
With --debug, warnings and errors from the log are echoed to stderr.

Examples:
  darkpan watch
  darkpan watch --debounce 5s`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", time.Second, "quiet period before verifying")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchRepository(ctx, cmd)
}

func watchRepository(ctx context.Context, cmd *cobra.Command) error {
	a, err := openApp(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	wcfg := watcher.DefaultConfig(a.layout.AuthorsDir())
	if watchDebounce > 0 {
		wcfg.DebounceDur = watchDebounce
	}
	w, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "watching %s\n", a.layout.AuthorsDir())

	echoCtx, stopEcho := context.WithCancel(ctx)
	echoed := echoLogProblems(echoCtx, cmd.ErrOrStderr())
	defer func() {
		stopEcho()
		<-echoed
	}()
	verify := func() {
		report, err := a.coord.Verify(ctx)
		if err != nil {
			log.ErrorErr(log.CatWatcher, "verify failed", err)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "verify: %v\n", err)
			return
		}
		_ = printReport(out, report)
	}

	verify()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			verify()
		}
	}
}
