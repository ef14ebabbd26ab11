// Package hepdata contains the HEPData table command.
package hepdata

import (
	"fmt"

	"github.com/hepkit/hepkit/hepdata"
	"github.com/spf13/cobra"
)

// NewCommand returns the "hepdata" command.
func NewCommand() *cobra.Command {
	var (
		input, output          string
		independent, dependent []string
	)
	cmd := &cobra.Command{
		Use:   "hepdata",
		Short: "Write a HEPData YAML table from variables in a JSON file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hepdata.Load(input)
			if err != nil {
				return err
			}
			doc, err := hepdata.Build(data, independent, dependent)
			if err != nil {
				return err
			}
			if err := hepdata.Save(output, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "JSON file with the variables")
	f.StringSliceVar(&independent, "independent", nil, "Independent variables, in column order")
	f.StringSliceVar(&dependent, "dependent", nil, "Dependent variables, in column order")
	f.StringVarP(&output, "output", "o", "", "YAML table path")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	return cmd
}
