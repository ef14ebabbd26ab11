package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Generate shell completion code",
}

var bash = &cobra.Command{
	Use:   "bash",
	Short: "Generate bash completion code",
	Long: `This command generates bash CLI completion code.
Add "source <(hepkit completion bash)" to your bash profile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := RootCmd.GenBashCompletion(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("generating bash completion: %w", err)
		}
		return nil
	},
}

func init() {
	completionCmd.AddCommand(bash)
}
