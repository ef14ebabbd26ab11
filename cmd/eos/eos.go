// Package eos contains the EOS listing command.
package eos

import (
	"fmt"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/eos"
	"github.com/spf13/cobra"
)

// NewCommand returns the "eos" subcommands.
func NewCommand(s *cmdutil.Setup) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eos",
		Short: "Work with files on EOS.",
	}

	opts := eos.ListOptions{}
	ls := &cobra.Command{
		Use:   "ls <path>",
		Short: "Recursively list the ROOT files under a path.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := eos.NewClient(s.Runner, s.Conf.EOS).ListROOTFiles(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
	f := ls.Flags()
	f.BoolVarP(&opts.AppendPrefix, "append-prefix", "p", false, "Prefix the paths with the MGM url")
	f.StringVar(&opts.Veto, "veto", "", "Skip paths containing this string")

	cmd.AddCommand(ls)
	return cmd
}
