// Package xsec contains the cross section command.
package xsec

import (
	"fmt"
	"time"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/das"
	"github.com/hepkit/hepkit/util"
	"github.com/hepkit/hepkit/xsec"
	"github.com/spf13/cobra"
)

// NewCommand returns the "xsec" command.
func NewCommand(s *cmdutil.Setup) *cobra.Command {
	var output, dir string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "xsec <dataset> [dataset ...]",
		Short: "Compute generator cross sections of simulated datasets with GenXSecAnalyzer.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := &das.Client{
				Runner:  s.Runner,
				Path:    s.Conf.DAS.Client,
				Retrier: cmdutil.NewRetrier(s.Conf.Retry),
			}
			if s.Conf.DAS.CachePath != "" {
				cache, err := das.NewCache(s.Conf.DAS.CachePath, time.Duration(s.Conf.DAS.CacheTTL))
				if err != nil {
					return err
				}
				defer cache.Close()
				catalog.Cache = cache
			}
			calc := &xsec.Calculator{
				Runner:  s.Runner,
				Catalog: catalog,
				Conf:    s.Conf.XSec,
				Dir:     dir,
			}

			results, err := calc.ComputeAll(cmd.Context(), args)
			w := cmd.OutOrStdout()
			for _, r := range results {
				fmt.Fprintf(w, "%s: %g +- %g pb\n", r.Dataset, r.CrossSection.Value, r.CrossSection.Error)
				if verbose {
					m, order := details(r)
					if err := util.PrettyPrintMap(w, m, "", order); err != nil {
						return err
					}
				}
			}
			if err != nil {
				return err
			}
			if output == "" {
				return nil
			}
			return xsec.WriteJSON(output, results)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "Write the results as JSON to this file")
	f.StringVar(&dir, "dir", "", "Working directory of the analyzer, usually $CMSSW_BASE/src")
	f.BoolVarP(&verbose, "verbose", "v", false, "Print every number reported by the analyzer")
	return cmd
}

// details returns the measurements of r by name, in report order.
func details(r *xsec.Result) (map[string]interface{}, []string) {
	m := map[string]interface{}{}
	var order []string
	add := func(name string, v *xsec.Measurement, unit string) {
		if v == nil {
			return
		}
		m[name] = fmt.Sprintf("%g +- %g%s", v.Value, v.Error, unit)
		order = append(order, name)
	}
	m["prep id"] = r.PrepID
	order = append(order, "prep id")
	add("before matching", r.BeforeMatching, " pb")
	add("after matching", r.AfterMatching, " pb")
	add("after filter", &r.CrossSection, " pb")
	add("negative weights", r.NegativeFraction, "")
	add("lumi for 1M events", r.EquivalentLumi, " /fb")
	return m, order
}
