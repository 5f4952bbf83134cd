package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirrorlab/reflcheck/internal/runlog"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Log   string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded harness runs",
		Long: `List runs recorded with "reflcheck check --log", newest first.

Examples:
  reflcheck history --log runs.db
  reflcheck history --log runs.db --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Log, "log", "", "run log database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")
	cmd.MarkFlagRequired("log")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if _, err := os.Stat(opts.Log); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run log not found: %s", opts.Log))
	}

	store, err := runlog.Open(opts.Log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	w := cmd.OutOrStdout()

	if opts.Format == "json" {
		return writeJSON(w, CLIResponse{
			Status: "ok",
			Data:   map[string]any{"runs": runs, "total": len(runs)},
		})
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	for _, run := range runs {
		status := "PASS"
		if !run.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			run.ID, run.StartedAt.Format(time.RFC3339), status, run.Suite)
		if run.Failure != "" {
			fmt.Fprintf(w, "  %s\n", run.Failure)
		}
	}
	return nil
}
