package version

import (
	"fmt"

	"github.com/hepkit/hepkit/logger"
	"github.com/hepkit/hepkit/version"
	"github.com/spf13/cobra"
)

// Cmd represents the "version" command
var Cmd = &cobra.Command{
	Use: "version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

// Log logs build and version information to the given logger.
func Log(l *logger.Logger) {
	l.Info("Version", version.LogFields()...)
}
