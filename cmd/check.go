package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"covhook.dev/pkg/covhook/internal/domain"
)

// checkCmd represents the check command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <coverage.json>...",
		Short: "Check coverage reports against the configured thresholds",
		Long: `Merge one or more istanbul coverage reports, print a per-file summary and
fail when a configured global or per-file threshold is not met.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coverage, err := domain.MergeCoverage(cmd.Context(), coverageStore, parsePaths(args), viper.GetInt(parallelKey))
			if err != nil {
				return err
			}

			return reportCoverage(cmd.Context(), cmd, coverage)
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
