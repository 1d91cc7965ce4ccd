package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"covhook.dev/pkg/covhook/internal/domain"
	"covhook.dev/pkg/covhook/internal/engine"
)

const diffFlagName = "diff"

var instrumentDiffFlag bool

// instrumentCmd represents the instrument command.
var instrumentCmd = newInstrumentCmd()

func newInstrumentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instrument <file>",
		Short: "Print the instrumented form of a script or page",
		Long: `Instrument a single script or HTML page the way serve does and print the
result, or a unified diff against the original with --diff.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := parsePaths(args)[0]

			file, err := fsAdapter.ReadSource(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			instrumenter := domain.NewInstrumenter(fsAdapter, engine.NewEngine(), domain.NewCache())
			output := domain.RewriteNamespace(instrumenter.InstrumentFile(cmd.Context(), string(path), path, isHTMLFile(string(path))))

			if !instrumentDiffFlag {
				newUI(cmd).DisplayText(cmd.Context(), output)
				return nil
			}

			diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(file.Content)),
				B:        difflib.SplitLines(output),
				FromFile: string(path),
				ToFile:   string(path) + " (instrumented)",
				Context:  3,
			})
			if err != nil {
				return fmt.Errorf("failed to diff %s: %w", path, err)
			}

			newUI(cmd).DisplayText(cmd.Context(), diff)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&instrumentDiffFlag, diffFlagName, "d", false, "print a unified diff instead of the instrumented text")

	return cmd
}

func init() {
	rootCmd.AddCommand(instrumentCmd)
}

func isHTMLFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".htm", ".html":
		return true
	}

	return false
}
