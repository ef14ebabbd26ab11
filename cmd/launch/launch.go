// Package launch contains the command running shell command chains in
// parallel with periodic reports.
package launch

import (
	"fmt"
	"strings"
	"syscall"
	"time"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/launcher"
	"github.com/hepkit/hepkit/metrics"
	"github.com/hepkit/hepkit/util"
	"github.com/spf13/cobra"
)

// ParseJob parses a --job value of the form "name=command".
func ParseJob(s string) (launcher.Job, error) {
	name, cmds, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.TrimSpace(cmds) == "" {
		return launcher.Job{}, fmt.Errorf("invalid job %q, expected name=command", s)
	}
	return launcher.Job{Name: name, Commands: []string{cmds}}, nil
}

// NewCommand returns the "launch" command.
func NewCommand(s *cmdutil.Setup) *cobra.Command {
	var (
		jobFlags []string
		jobsFile string
		logDir   string
		rate     time.Duration
		failFast bool
	)

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Run shell command chains in parallel, each logging to a file, and report on them until they finish.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var jobs []launcher.Job
			if jobsFile != "" {
				fromFile, err := launcher.LoadJobs(jobsFile)
				if err != nil {
					return err
				}
				jobs = append(jobs, fromFile...)
			}
			for _, f := range jobFlags {
				j, err := ParseJob(f)
				if err != nil {
					return err
				}
				jobs = append(jobs, j)
			}
			if len(jobs) == 0 {
				return fmt.Errorf("%w, use --job or --jobs-file", launcher.ErrNoJobs)
			}

			l := launcher.New(s.Conf.Launcher)
			l.FailFast = failFast
			if logDir != "" {
				l.LogDir = logDir
			}
			if rate > 0 {
				l.MonitorRate = rate
			}

			ctx, cancel := util.SignalContext(cmd.Context(), 0, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := l.SpawnAll(jobs); err != nil {
				l.KillAll()
				return err
			}
			err := l.Monitor(ctx, cmd.OutOrStdout())
			if werr := metrics.WriteTextfile(s.Conf.Metrics.TextfilePath); werr != nil && err == nil {
				err = werr
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringArrayVarP(&jobFlags, "job", "j", nil, `Job as "logname=command", repeatable`)
	f.StringVarP(&jobsFile, "jobs-file", "f", "", "YAML file listing jobs")
	f.StringVar(&logDir, "log-dir", "", "Directory of the log files. Defaults to Launcher.LogDir")
	f.DurationVar(&rate, "rate", 0, "Time between reports. Defaults to Launcher.MonitorRate")
	f.BoolVar(&failFast, "fail-fast", false, "Kill all processes when one fails")
	return cmd
}
