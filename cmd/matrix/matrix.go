// Package matrix contains the CMSSW matrix test submission command.
package matrix

import (
	"context"
	"fmt"
	"io"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/cmssw"
	"github.com/hepkit/hepkit/matrix"
	"github.com/hepkit/hepkit/metrics"
	"github.com/hepkit/hepkit/util"
	"github.com/spf13/cobra"
)

type hooks struct {
	Submit func(ctx context.Context, sub *matrix.Submitter, opts matrix.Options) (*matrix.Submission, error)
}

// NewCommand returns the "matrix-tests" command.
func NewCommand(s *cmdutil.Setup) *cobra.Command {
	cmd, _ := newCommandHooks(s)
	return cmd
}

func newCommandHooks(s *cmdutil.Setup) (*cobra.Command, *hooks) {
	h := &hooks{
		Submit: func(ctx context.Context, sub *matrix.Submitter, opts matrix.Options) (*matrix.Submission, error) {
			return sub.Submit(ctx, opts)
		},
	}
	opts := matrix.Options{}

	cmd := &cobra.Command{
		Use:   "matrix-tests",
		Short: "Package the CMSSW release area and submit one HTCondor job per runTheMatrix.py workflow.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmssw.EnvFromConfig(s.Conf.CMSSW)
			if err != nil {
				return err
			}
			if opts.Identifier == "" {
				opts.Identifier = "matrix_" + util.GenID()
			}
			if opts.OutputDir == "" {
				opts.OutputDir = s.Conf.Condor.OutputDir
			}
			if opts.OutputDir == "" {
				opts.OutputDir = "."
			}
			sub := &matrix.Submitter{Runner: s.Runner, Env: env, Condor: s.Conf.Condor}
			res, err := h.Submit(cmd.Context(), sub, opts)
			if res != nil {
				report(cmd.OutOrStdout(), res)
				metrics.CondorJobsSubmitted(len(res.Clusters))
			}
			if err != nil {
				return err
			}
			return metrics.WriteTextfile(s.Conf.Metrics.TextfilePath)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.Identifier, "id", "i", "", "Identifier of the tarball and wrapper script. Defaults to a generated id")
	f.StringVarP(&opts.List, "list", "l", "limited", "runTheMatrix.py workflow list")
	f.StringVarP(&opts.OutputDir, "output-dir", "o", "", "Directory for the tarball, script and job descriptions. Defaults to Condor.OutputDir")
	f.StringVarP(&opts.ReturnDir, "return-dir", "r", "", "Directory receiving the job outputs. Defaults to the current directory")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Write the job descriptions without submitting them")
	return cmd, h
}

func report(w io.Writer, res *matrix.Submission) {
	for i, wf := range res.Workflows {
		if i >= len(res.JDLs) {
			break
		}
		line := fmt.Sprintf("%s %s: %s", wf.Number, wf.Name, res.JDLs[i])
		if i < len(res.Clusters) {
			line += " (cluster " + res.Clusters[i] + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d workflows, %d submitted\n", len(res.Workflows), len(res.Clusters))
}
