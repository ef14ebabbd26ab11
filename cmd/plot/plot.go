// Package plot contains the comparison plot command.
package plot

import (
	"fmt"

	"github.com/hepkit/hepkit/plot"
	"github.com/spf13/cobra"
)

// NewCommand returns the "plot" subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Draw histogram comparisons.",
	}

	var input, outputDir string
	var targets []string
	compare := &cobra.Command{
		Use:   "compare",
		Short: "Draw the comparison plots, with ratio panels, described by a JSON file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := plot.LoadSpec(input)
			if err != nil {
				return err
			}
			if len(targets) > 0 {
				selected := map[string]*plot.Target{}
				for _, name := range targets {
					t, ok := spec.Targets[name]
					if !ok {
						return fmt.Errorf("no target named %s in %s", name, input)
					}
					selected[name] = t
				}
				spec.Targets = selected
			}
			c := &plot.Comparer{OutputDir: outputDir}
			files, err := c.Run(spec)
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return err
		},
	}
	f := compare.Flags()
	f.StringVarP(&input, "input", "i", "", "JSON file describing the plots")
	f.StringVarP(&outputDir, "output-dir", "o", ".", "Directory the output paths are relative to")
	f.StringSliceVarP(&targets, "target", "t", nil, "Only draw these targets")
	compare.MarkFlagRequired("input")

	cmd.AddCommand(compare)
	return cmd
}
