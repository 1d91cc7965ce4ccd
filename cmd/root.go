// Package cmd provides the root command and CLI setup for covhook.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"covhook.dev/pkg/covhook/internal/adapter"
	"covhook.dev/pkg/covhook/internal/controller"
	"covhook.dev/pkg/covhook/internal/domain"
	m "covhook.dev/pkg/covhook/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var manifestAdapter adapter.ManifestAdapter
var coverageStore adapter.CoverageStore

// outputDirFlag is a root-level flag shared by commands that write reports.
var outputDirFlag string

// verboseFlag switches logging to debug.
var verboseFlag bool

// Source selection flags shared by serve and instrument.
var npmFlag bool
var packageNameFlag string
var includeFlag []string
var excludeFlag []string

// parallelFlag bounds how many reports are loaded at once.
var parallelFlag int

func init() {
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	manifestAdapter = adapter.NewLocalManifestAdapter()
	coverageStore = adapter.NewCoverageStore(fsAdapter)
}

const rootLongDescription = `covhook serves a web component's sources with istanbul coverage
counters injected, collects the coverage browsers report back, and checks
it against configured thresholds.

Configuration is read from covhook.yaml in the working directory and from
COVHOOK_* environment variables.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "covhook",
		Short:        "Coverage instrumentation for web component test servers",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger("", viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&outputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for coverage reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	addSourceFlags(cmd)
	addParallelFlag(cmd)
}

// addSourceFlags registers the flags describing which sources to instrument.
func addSourceFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&npmFlag, npmFlagName, viper.GetBool(npmKey), "use package.json and node_modules")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(npmFlagName), npmKey)

	cmd.PersistentFlags().StringVar(&packageNameFlag, packageNameFlagName, viper.GetString(packageNameKey), "override the package name read from the manifest")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(packageNameFlagName), packageNameKey)

	cmd.PersistentFlags().StringSliceVarP(&includeFlag, includeFlagName, "i", nil, "glob of sources to instrument (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(includeFlagName), includeKey)

	cmd.PersistentFlags().StringSliceVarP(&excludeFlag, excludeFlagName, "x", nil, "glob of sources to leave untouched (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeKey)
}

func addParallelFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().IntVarP(&parallelFlag, parallelFlagName, "p", viper.GetInt(parallelKey), "number of reports loaded concurrently")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(parallelFlagName), parallelKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newUI(cmd *cobra.Command) controller.UI {
	return controller.NewUI(cmd, controller.IsTTY(os.Stdout))
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

// reportCoverage prints the table, writes threshold diagnostics and returns
// an error when a threshold is not met.
func reportCoverage(ctx context.Context, cmd *cobra.Command, coverage *m.CoverageMap) error {
	thresholds, err := loadThresholds()
	if err != nil {
		return err
	}

	ui := newUI(cmd)
	if err := ui.DisplayCoverage(ctx, coverage); err != nil {
		return err
	}

	validator := domain.NewValidator(thresholds, cmd.OutOrStdout())
	passed := validator.Validate(coverage)
	ui.DisplayVerdict(ctx, validator.Evaluate(coverage))

	if !passed {
		return errThresholdsNotMet
	}

	return nil
}

var errThresholdsNotMet = errors.New("coverage thresholds not met")
