// Package cmd contains the hepkit CLI commands.
package cmd

import (
	"github.com/hepkit/hepkit/cmd/bib"
	"github.com/hepkit/hepkit/cmd/das"
	"github.com/hepkit/hepkit/cmd/datacard"
	"github.com/hepkit/hepkit/cmd/eos"
	"github.com/hepkit/hepkit/cmd/examples"
	"github.com/hepkit/hepkit/cmd/hepdata"
	"github.com/hepkit/hepkit/cmd/hist"
	"github.com/hepkit/hepkit/cmd/launch"
	"github.com/hepkit/hepkit/cmd/lumi"
	"github.com/hepkit/hepkit/cmd/matrix"
	"github.com/hepkit/hepkit/cmd/plot"
	"github.com/hepkit/hepkit/cmd/submit"
	"github.com/hepkit/hepkit/cmd/transfer"
	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/cmd/version"
	"github.com/hepkit/hepkit/cmd/xsec"
	"github.com/spf13/cobra"
)

var setup = cmdutil.NewSetup()

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:           "hepkit",
	Short:         "Analysis chores for CMS: HTCondor jobs, datasets, luminosity, transfers, datacards and plots.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup.Load()
	},
}

func init() {
	setup.Register(RootCmd)

	RootCmd.AddCommand(bib.NewCommand(setup))
	RootCmd.AddCommand(completionCmd)
	RootCmd.AddCommand(das.NewCommand(setup))
	RootCmd.AddCommand(datacard.NewCommand())
	RootCmd.AddCommand(eos.NewCommand(setup))
	RootCmd.AddCommand(examples.Cmd)
	RootCmd.AddCommand(genBashCompletionCmd)
	RootCmd.AddCommand(genMarkdownCmd)
	RootCmd.AddCommand(hepdata.NewCommand())
	RootCmd.AddCommand(hist.NewCommand())
	RootCmd.AddCommand(launch.NewCommand(setup))
	RootCmd.AddCommand(lumi.NewCommand(setup))
	RootCmd.AddCommand(matrix.NewCommand(setup))
	RootCmd.AddCommand(plot.NewCommand())
	RootCmd.AddCommand(submit.NewCommand(setup))
	RootCmd.AddCommand(submit.NewSimulateCommand(setup))
	RootCmd.AddCommand(transfer.NewCommand(setup))
	RootCmd.AddCommand(version.Cmd)
	RootCmd.AddCommand(xsec.NewCommand(setup))
}
