package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"covhook.dev/pkg/covhook/internal/domain"
	m "covhook.dev/pkg/covhook/internal/model"
)

// mergeCmd represents the merge command.
var mergeCmd = newMergeCmd()

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <out> <in>...",
		Short: "Merge coverage reports into one",
		Long: `Merge istanbul coverage reports, summing the hit counters of files that
appear in more than one report, and write the result to out.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := parsePaths(args[1:])

			coverage, err := domain.MergeCoverage(cmd.Context(), coverageStore, inputs, viper.GetInt(parallelKey))
			if err != nil {
				return err
			}

			if err := coverageStore.Save(m.Path(args[0]), coverage); err != nil {
				return err
			}

			newUI(cmd).DisplayText(cmd.Context(),
				fmt.Sprintf("Merged %d report(s) covering %d file(s) into %s\n", len(inputs), coverage.Len(), args[0]))

			return nil
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
