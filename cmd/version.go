package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build metadata, set by Execute from ldflags.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		versionRun()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionRun() {
	fmt.Fprintf(ui.Out, "checkin %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
}
