package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	DB      string
	Section string
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print mirror metadata for a section",
		Long: `Print the human-readable metadata dump for a mirror section.

Examples:
  reflcheck describe
  reflcheck describe --db samples.db --section xmm`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "mirror sample database (builtin fixture if omitted)")
	cmd.Flags().StringVar(&opts.Section, "section", "default", "mirror section")

	return cmd
}

func runDescribe(opts *DescribeOptions, cmd *cobra.Command) error {
	mirror, closeMirror, err := openMirror(opts.DB, opts.Section)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open mirror", err)
	}
	defer closeMirror()

	description := mirror.Describe()

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{
			Status: "ok",
			Data:   map[string]string{"description": description},
		})
	}

	fmt.Fprint(cmd.OutOrStdout(), description)
	return nil
}
