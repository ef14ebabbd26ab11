// Package lumi contains the brilcalc commands.
package lumi

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/lumi"
	"github.com/spf13/cobra"
)

// NewCommand returns the "lumi" subcommands.
func NewCommand(s *cmdutil.Setup) *cobra.Command {
	var jsonOutput bool

	client := func() (*lumi.Client, error) {
		c := &lumi.Client{Runner: s.Runner, Path: s.Conf.Brilcalc.Path}
		if _, ok := s.Runner.(command.ExecRunner); ok {
			if err := c.Check(); err != nil {
				return nil, err
			}
		}
		return c, nil
	}

	cmd := &cobra.Command{
		Use:   "lumi",
		Short: "Query luminosity and prescales with brilcalc.",
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")

	byls := &cobra.Command{
		Use:   "byls <run>",
		Short: "Print the recorded luminosity and pile-up of each lumisection of a run.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid run number %q", args[0])
			}
			c, err := client()
			if err != nil {
				return err
			}
			table, err := c.ByLumisection(cmd.Context(), run)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), table)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LS\tRECORDED\tPU")
			for _, ls := range table.Sections() {
				fmt.Fprintf(tw, "%d\t%g\t%g\n", ls, table[ls].Recorded, table[ls].PileUp)
			}
			fmt.Fprintf(tw, "total\t%g\n", table.Total())
			return tw.Flush()
		},
	}

	prescale := &cobra.Command{
		Use:   "prescale <run> <hlt path>",
		Short: "Print the prescale changes of an HLT path in a run.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid run number %q", args[0])
			}
			c, err := client()
			if err != nil {
				return err
			}
			ps, err := c.Prescales(cmd.Context(), run, args[1])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), ps)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LS\tINDEX\tTOTAL\tHLT PATH\tHLT\tLOGIC\tL1")
			for _, p := range ps {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
					p.Lumisection, p.Index, p.Total, p.HLTPath, p.HLTPrescale, p.Logic, p.L1BitPrescale)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(byls, prescale)
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
