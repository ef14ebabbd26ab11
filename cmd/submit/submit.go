// Package submit contains the commands writing and submitting HTCondor jobs.
package submit

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/cmssw"
	"github.com/hepkit/hepkit/condor"
	"github.com/hepkit/hepkit/metrics"
	"github.com/hepkit/hepkit/util"
	"github.com/spf13/cobra"
)

// Options are the flags of the submit command.
type Options struct {
	Name      string
	Script    string
	OutputDir string
	Arguments []string
	Files     []string
	Flavor    string
	Cpus      int
	Memory    string
	// Bundle packages the CMSSW release area and ships it with the job.
	Bundle bool
	DryRun bool
}

// NewCommand returns the "submit" command.
func NewCommand(s *cmdutil.Setup) *cobra.Command {
	opts := Options{}
	cmd := &cobra.Command{
		Use:   "submit <executable>",
		Short: "Write a job description for an executable and submit it to HTCondor.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Script = args[0]
			return Submit(cmd.Context(), s, opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.Name, "name", "n", "", "Job name, used for the description and log files. Defaults to a generated id")
	f.StringVarP(&opts.OutputDir, "output-dir", "o", "", "Directory for the job description and logs. Defaults to Condor.OutputDir")
	f.StringArrayVarP(&opts.Arguments, "arg", "a", nil, "Argument passed to the executable, repeatable")
	f.StringArrayVarP(&opts.Files, "file", "f", nil, "Input file shipped with the job, repeatable")
	f.StringVar(&opts.Flavor, "flavor", "", "Job flavour, overrides Condor.Flavor")
	f.IntVar(&opts.Cpus, "cpus", 0, "Requested CPUs")
	f.StringVar(&opts.Memory, "memory", "", "Requested memory, e.g. 2GB")
	f.BoolVar(&opts.Bundle, "cmssw", false, "Ship a tarball of the CMSSW release area")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Write the job description without submitting it")
	return cmd
}

// Submit writes the job description and submits it unless opts.DryRun.
func Submit(ctx context.Context, s *cmdutil.Setup, opts Options, w io.Writer) error {
	conf := s.Conf.Condor
	if opts.Name == "" {
		opts.Name = "job_" + util.GenID()
	}
	outdir := opts.OutputDir
	if outdir == "" {
		outdir = conf.OutputDir
	}
	if outdir == "" {
		outdir = "."
	}
	jdl, err := condor.NewJDL(opts.Name, opts.Script, outdir, conf)
	if err != nil {
		return err
	}
	if opts.Flavor != "" {
		if err := jdl.SetFlavor(opts.Flavor); err != nil {
			return err
		}
	}
	jdl.Cpus = opts.Cpus
	jdl.Memory = opts.Memory
	jdl.AddArguments(opts.Arguments...)
	if err := jdl.AddFiles(opts.Files...); err != nil {
		return err
	}
	if opts.Bundle {
		env, err := cmssw.EnvFromConfig(s.Conf.CMSSW)
		if err != nil {
			return err
		}
		tarball, err := cmssw.Bundle(ctx, env, opts.Name, outdir)
		if err != nil {
			return err
		}
		if err := jdl.AddFile(tarball); err != nil {
			return err
		}
	}

	path, err := jdl.WriteFile()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Job description: %s\n", path)
	if opts.DryRun {
		return nil
	}

	id, err := condor.NewSubmitter(conf, s.Runner).Submit(ctx, path)
	if err != nil {
		return err
	}
	metrics.CondorJobsSubmitted(1)
	fmt.Fprintf(w, "Submitted to cluster %s\n", id)
	return metrics.WriteTextfile(s.Conf.Metrics.TextfilePath)
}

// NewSimulateCommand returns the "simulate-submit" command.
func NewSimulateCommand(s *cmdutil.Setup) *cobra.Command {
	opts := condor.SimulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate-submit <jdl>",
		Short: "Run a job description locally the way HTCondor would.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.CondorDir == "" {
				opts.CondorDir = filepath.Dir(args[0])
			}
			opts.JDLName = filepath.Base(args[0])
			opts.Confirm = cmdutil.Confirm(cmd.InOrStdin(), cmd.OutOrStdout())
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			return condor.Simulate(cmd.Context(), s.Runner, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.CondorDir, "condor-dir", "", "Directory condor_submit would run from. Defaults to the directory of the job description")
	f.StringVarP(&opts.WorkDir, "work-dir", "w", "condor_scratch", "Scratch directory the job runs in")
	return cmd
}
