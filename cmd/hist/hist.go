// Package hist contains the histogram inspection commands.
package hist

import (
	"fmt"
	"strconv"

	"github.com/hepkit/hepkit/hist"
	"github.com/spf13/cobra"
)

// NewCommand returns the "hist" subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hist",
		Short: "Inspect ROOT histograms.",
	}

	opts := hist.DefaultExtractOptions()
	var all bool
	extract := &cobra.Command{
		Use:   "extract <file.root> <histogram>",
		Short: "Print the bin contents of a 2D histogram as text columns.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := hist.LoadH2D(args[0], args[1])
			if err != nil {
				return err
			}
			opts.OnlyNonzero = !all
			return hist.ExtractH2D(h, cmd.OutOrStdout(), opts)
		},
	}
	f := extract.Flags()
	f.StringVar(&opts.XTitle, "x-title", opts.XTitle, "Title of the x column")
	f.StringVar(&opts.YTitle, "y-title", opts.YTitle, "Title of the y column")
	f.StringVar(&opts.Quantity, "quantity", opts.Quantity, "Title of the content column")
	f.StringVar(&opts.Formats[0], "x-format", opts.Formats[0], "printf verb of the x values")
	f.StringVar(&opts.Formats[1], "y-format", opts.Formats[1], "printf verb of the y values")
	f.StringVar(&opts.Formats[2], "format", opts.Formats[2], "printf verb of the contents")
	f.BoolVar(&all, "all", false, "Also print empty bins")
	f.BoolVar(&opts.PrintRangeX, "range-x", false, "Print the x bin edges instead of the center")
	f.BoolVar(&opts.PrintRangeY, "range-y", false, "Print the y bin edges instead of the center")

	var strict bool
	content := &cobra.Command{
		Use:   "content <file.root> <histogram> <x> <y>",
		Short: "Print the content and uncertainty of the 2D bin containing a point.",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid x %q", args[2])
			}
			y, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("invalid y %q", args[3])
			}
			h, err := hist.LoadH2D(args[0], args[1])
			if err != nil {
				return err
			}
			c, e, err := hist.ContentAt(h, x, y, strict)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g +- %g\n", c, e)
			return nil
		},
	}
	content.Flags().BoolVar(&strict, "strict", false, "Fail for points outside the axes instead of printing 0")

	var cl float64
	poisson := &cobra.Command{
		Use:   "poisson <n> [n ...]",
		Short: "Print the Poisson confidence interval of observed counts.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				n, err := strconv.Atoi(a)
				if err != nil || n < 0 {
					return fmt.Errorf("invalid count %q", a)
				}
				lo, hi := hist.PoissonInterval(cl, n)
				fmt.Fprintf(cmd.OutOrStdout(), "%d: [%.4f, %.4f]\n", n, lo, hi)
			}
			return nil
		},
	}
	poisson.Flags().Float64Var(&cl, "cl", hist.OneSigma, "Confidence level")

	cmd.AddCommand(extract, content, poisson)
	return cmd
}
