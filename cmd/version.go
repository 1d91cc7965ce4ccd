package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the covhook build version, its module path and the Go version used to build it.",
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()
			if !ok {
				cmd.Println("covhook version unknown")
				return
			}

			cmd.Printf("covhook %s\n", buildVersion(info))
			cmd.Printf("module\t%s\n", info.Main.Path)
			cmd.Printf("go\t%s\n", info.GoVersion)
		},
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// buildVersion prefers the module version and falls back to the VCS revision.
func buildVersion(info *debug.BuildInfo) string {
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
			return "devel+" + setting.Value[:12]
		}
	}

	return "devel"
}
