package examples

import (
	"fmt"

	ex "github.com/hepkit/hepkit/examples"
	"github.com/spf13/cobra"
)

// Cmd represents the examples command
var Cmd = &cobra.Command{
	Use:     "examples [name]",
	Aliases: []string{"example"},
	Short:   "Print example inputs: datacard models, plot specs, job lists and a config.",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()

		// Print a list of example names and exit
		if len(args) == 0 || args[0] == "list" {
			for _, n := range ex.Names() {
				fmt.Fprintln(w, n)
			}
			return nil
		}

		data, ok := ex.Examples()[args[0]]
		if !ok {
			return fmt.Errorf("No example by the name of %s", args[0])
		}
		fmt.Fprintln(w, data)
		return nil
	},
}
