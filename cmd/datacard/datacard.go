// Package datacard contains the commands writing combine datacards.
package datacard

import (
	"fmt"

	"github.com/hepkit/hepkit/datacard"
	"github.com/spf13/cobra"
)

// NewCommand returns the "datacard" subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datacard",
		Short: "Write combine datacards from YAML or JSON models.",
	}

	var input, output string
	write := &cobra.Command{
		Use:   "write",
		Short: "Write the datacard of a model, to stdout unless --output is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := datacard.LoadModel(input)
			if err != nil {
				return err
			}
			if output == "" {
				return m.Write(cmd.OutOrStdout())
			}
			if err := m.WriteFile(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	f := write.Flags()
	f.StringVarP(&input, "input", "i", "", "Model file, YAML or JSON")
	f.StringVarP(&output, "output", "o", "", "Datacard path")
	write.MarkFlagRequired("input")

	validate := &cobra.Command{
		Use:   "validate <model> [model ...]",
		Short: "Check models, reporting every problem found.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				m, err := datacard.LoadModel(p)
				if err != nil {
					return err
				}
				if err := m.Validate(); err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", p)
			}
			return nil
		},
	}

	cmd.AddCommand(write, validate)
	return cmd
}
