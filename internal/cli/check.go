package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mirrorlab/reflcheck/internal/harness"
	"github.com/mirrorlab/reflcheck/internal/optics"
	"github.com/mirrorlab/reflcheck/internal/runlog"
)

// okStyle renders the bright-green OK marker, matching the upstream
// pipeline scripts.
var okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	DB      string // sample database path; empty selects the builtin fixture
	Section string // mirror section override
	Log     string // run log database path; empty disables recording
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [suite.yaml]",
		Short: "Run a reflectivity acceptance suite",
		Long: `Run golden-value reflectivity checks against a mirror sample table.

Without a suite file the embedded reference suite is used; without --db the
builtin reference fixture answers the queries. Checks run in order and stop
at the first mismatch.

Exit codes:
  0 - All checks passed
  1 - A check mismatched its golden value
  2 - Command error (bad suite file, unreadable database, failed query)

Examples:
  reflcheck check
  reflcheck check suites/xmm.yaml --db samples.db --section xmm
  reflcheck check --log runs.db
  reflcheck check --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			suitePath := ""
			if len(args) == 1 {
				suitePath = args[0]
			}
			return runCheck(opts, suitePath, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "mirror sample database (builtin fixture if omitted)")
	cmd.Flags().StringVar(&opts.Section, "section", "", "mirror section (overrides the suite)")
	cmd.Flags().StringVar(&opts.Log, "log", "", "record the run in this run log database")

	return cmd
}

func runCheck(opts *CheckOptions, suitePath string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	var suite *harness.Suite
	var err error
	if suitePath != "" {
		suite, err = harness.LoadSuite(suitePath)
	} else {
		suite, err = harness.DefaultSuite()
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load suite", err)
	}

	mirror, closeMirror, err := openMirror(opts.DB, sectionFor(opts.Section, suite))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open mirror", err)
	}
	defer closeMirror()

	report, err := harness.RunWithLogger(cmd.Context(), mirror, suite, logger)
	if err != nil {
		// Collaborator failure: no verdict, distinct from a golden mismatch.
		return WrapExitError(ExitCommandError, "check run aborted", err)
	}

	if opts.Log != "" {
		run, err := recordRun(cmd, opts.Log, report)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		logger.Info("run recorded", "run_id", run.ID, "log", opts.Log)
	}

	if opts.Format == "json" {
		return outputCheckJSON(cmd.OutOrStdout(), report)
	}
	return outputCheckText(cmd.OutOrStdout(), report)
}

// sectionFor resolves the mirror section: flag beats suite beats "default".
func sectionFor(flag string, suite *harness.Suite) string {
	if flag != "" {
		return flag
	}
	if suite.Section != "" {
		return suite.Section
	}
	return "default"
}

// openMirror selects the sample table or the builtin fixture. The returned
// closer is a no-op for the fixture.
func openMirror(db, section string) (optics.Mirror, func() error, error) {
	if db == "" {
		if section != "default" {
			return nil, nil, fmt.Errorf("section %q requires a sample database (--db)", section)
		}
		return optics.ReferenceFixture(), func() error { return nil }, nil
	}

	table, err := optics.Open(db, section)
	if err != nil {
		return nil, nil, err
	}
	return table, table.Close, nil
}

func recordRun(cmd *cobra.Command, path string, report *harness.Report) (runlog.Run, error) {
	store, err := runlog.Open(path)
	if err != nil {
		return runlog.Run{}, err
	}
	defer store.Close()
	return store.WriteReport(cmd.Context(), report)
}

// outputCheckText reproduces the upstream pipeline's console format: one
// status line per executed check, an error block on the first mismatch,
// a summary line on full success.
func outputCheckText(w io.Writer, report *harness.Report) error {
	for _, res := range report.Checks {
		fmt.Fprintf(w, "%s: %d", res.Label, res.Scaled)
		if res.Pass {
			fmt.Fprintf(w, " [%s]\n", okStyle.Render(" OK "))
		} else {
			fmt.Fprintf(w, "\nError! %s should be %s!\n", res.Label, report.Failure.ExpectedDecimal)
		}
	}

	if !report.Pass {
		// Output already names the failure; signal the code silently.
		return &ExitError{Code: ExitFailure}
	}

	fmt.Fprintln(w, "All tests passed!")
	return nil
}

// outputCheckJSON emits the full report in the JSON envelope.
func outputCheckJSON(w io.Writer, report *harness.Report) error {
	response := CLIResponse{
		Status: "ok",
		Data:   report,
	}
	if !report.Pass {
		response.Status = "error"
		response.Error = &CLIError{
			Code: "E_CHECK_FAILED",
			Message: fmt.Sprintf("%s: got %d, expected %s",
				report.Failure.Label, report.Failure.Scaled, report.Failure.ExpectedDecimal),
		}
	}

	if err := writeJSON(w, response); err != nil {
		return err
	}
	if !report.Pass {
		return &ExitError{Code: ExitFailure}
	}
	return nil
}
