// Package launcher runs a set of shell command chains in parallel, each
// logging to its own file, and reports on them until all have finished.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/units"
	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/logger"
	"github.com/hepkit/hepkit/metrics"
	"github.com/hepkit/hepkit/util"
	"github.com/hepkit/hepkit/util/fsutil"
	"golang.org/x/sync/errgroup"
)

var log = logger.NewSubLogger("launcher")

// Launcher spawns and monitors processes. The zero value is not usable,
// use New.
type Launcher struct {
	LogDir string
	Shell  string
	// MonitorRate is the time between two reports.
	MonitorRate time.Duration
	// FinishedTailLines are printed once when a process finishes,
	// RunningTailLines on every report while it runs.
	FinishedTailLines int
	RunningTailLines  int
	// FailFast kills all processes when one of them fails.
	FailFast bool

	mtx  sync.Mutex
	jobs []*job
}

// New returns a Launcher configured by conf.
func New(conf config.Launcher) *Launcher {
	l := &Launcher{
		LogDir:            conf.LogDir,
		Shell:             conf.Shell,
		MonitorRate:       time.Duration(conf.MonitorRate),
		FinishedTailLines: conf.FinishedTailLines,
		RunningTailLines:  conf.RunningTailLines,
	}
	if l.Shell == "" {
		l.Shell = "/bin/bash"
	}
	if l.MonitorRate <= 0 {
		l.MonitorRate = 10 * time.Second
	}
	if l.FinishedTailLines <= 0 {
		l.FinishedTailLines = 20
	}
	if l.RunningTailLines <= 0 {
		l.RunningTailLines = 2
	}
	return l
}

// ExitError is returned by Monitor in fail-fast mode for the first
// process that failed.
type ExitError struct {
	Name     string
	ExitCode int
	Err      error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process %s exited with code %d: %s", e.Name, e.ExitCode, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

type job struct {
	name   string
	path   string
	cmd    *exec.Cmd
	logf   *os.File
	tail   *tail
	done   chan struct{}
	err     error
	killed  bool
	counted bool
	mtx     sync.Mutex
}

func (j *job) finished() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

func (j *job) kill() {
	j.mtx.Lock()
	j.killed = true
	j.mtx.Unlock()
	if err := killProcessGroup(j.cmd); err != nil {
		log.Warn("Failed to kill process", "name", j.name, "error", err)
	}
}

// record adds the finished job to the metrics, once.
func (j *job) record() string {
	j.mtx.Lock()
	counted := j.counted
	j.counted = true
	j.mtx.Unlock()
	status := j.status()
	if !counted {
		metrics.LauncherProcess(status)
		metrics.LauncherRSS(j.name, -1)
	}
	return status
}

func (j *job) status() string {
	j.mtx.Lock()
	defer j.mtx.Unlock()
	switch {
	case j.killed:
		return "killed"
	case j.err != nil:
		return "failed"
	default:
		return "succeeded"
	}
}

// Spawn starts commands, joined with " && ", in a shell. Output and errors
// go to the file name in LogDir, which must be unique among the spawned
// processes. A duplicate name kills every spawned process.
func (l *Launcher) Spawn(name string, commands ...string) error {
	if name == "" || len(commands) == 0 {
		return fmt.Errorf("both commands to launch and log file name must be specified, got commands=%q, name=%q", commands, name)
	}
	for _, c := range commands {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("empty command in %q", commands)
		}
	}

	l.mtx.Lock()
	for _, j := range l.jobs {
		if j.name == name {
			l.mtx.Unlock()
			l.KillAll()
			return fmt.Errorf("duplicate log file name: %s", name)
		}
	}
	l.mtx.Unlock()

	dir := l.LogDir
	if dir == "" {
		dir = "."
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	logf, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}

	shell := strings.Join(commands, " && ")
	cmd := exec.Command(l.Shell, "-c", shell)
	t := newTail()
	out := io.MultiWriter(logf, t)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = time.Second
	setProcessGroup(cmd)

	log.Debug("Spawning process", "name", name, "cmd", command.Cmd{Name: l.Shell, Args: cmd.Args[1:]}.Cmdline())
	if err := cmd.Start(); err != nil {
		logf.Close()
		return fmt.Errorf("starting %s: %w", name, err)
	}

	j := &job{
		name: name,
		path: path,
		cmd:  cmd,
		logf: logf,
		tail: t,
		done: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		logf.Close()
		j.mtx.Lock()
		j.err = err
		j.mtx.Unlock()
		close(j.done)
	}()

	l.mtx.Lock()
	l.jobs = append(l.jobs, j)
	l.mtx.Unlock()
	return nil
}

// Running returns the names of the processes spawned and not yet
// collected by Monitor, in spawn order.
func (l *Launcher) Running() []string {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	var names []string
	for _, j := range l.jobs {
		names = append(names, j.name)
	}
	return names
}

// KillAll kills every spawned process and forgets them.
func (l *Launcher) KillAll() {
	l.mtx.Lock()
	jobs := l.jobs
	l.jobs = nil
	l.mtx.Unlock()

	for _, j := range jobs {
		if !j.finished() {
			j.kill()
		}
	}
	for _, j := range jobs {
		<-j.done
		j.record()
	}
}

// Monitor writes a report on the spawned processes to w every MonitorRate
// until all of them have finished. Finished processes are forgotten, so
// their names can be spawned again.
//
// With FailFast the first failure kills the other processes and is
// returned as an *ExitError. Canceling ctx kills all processes.
func (l *Launcher) Monitor(ctx context.Context, w io.Writer) error {
	l.mtx.Lock()
	jobs := append([]*job(nil), l.jobs...)
	l.mtx.Unlock()

	fmt.Fprintf(w, "Starting to monitor %d processes:\n", len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			select {
			case <-j.done:
			case <-gctx.Done():
				j.kill()
				<-j.done
				return nil
			}
			if j.err != nil && l.FailFast {
				return &ExitError{Name: j.name, ExitCode: command.ExitCode(j.err), Err: j.err}
			}
			return nil
		})
	}
	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
	}()

	tctx, stop := context.WithCancel(ctx)
	defer stop()
	ticks := util.Ticker(tctx, l.MonitorRate)

	pending := jobs
	var err error
	for done := false; !done; {
		select {
		case <-ticks:
		case err = <-waitErr:
			done = true
		}
		pending = l.report(w, pending)
	}

	l.mtx.Lock()
	l.jobs = remove(l.jobs, jobs)
	l.mtx.Unlock()

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Error("Monitoring stopped", "error", err)
		return err
	}
	fmt.Fprintln(w, "All processes finished!")
	return nil
}

// report prints the state of every pending job and returns those still running.
func (l *Launcher) report(w io.Writer, pending []*job) []*job {
	var running []*job
	fmt.Fprintln(w)
	for _, j := range pending {
		if j.finished() {
			status := j.record()
			fmt.Fprintf(w, "Process finished: %s (%s)\n", j.path, status)
			fmt.Fprintf(w, "Last %d lines of output:\n", l.FinishedTailLines)
			writeLines(w, j.tail.Lines(l.FinishedTailLines))
			log.Info("Process finished", "name", j.name, "status", status)
		} else {
			fmt.Fprintf(w, "Output of %s:\n", j.path)
			if u, err := usage(j.cmd.Process.Pid); err == nil {
				fmt.Fprintf(w, "[rss: %s, cpu: %.1f%%]\n", units.Base2Bytes(u.RSS), u.CPU)
				metrics.LauncherRSS(j.name, int64(u.RSS))
			}
			writeLines(w, j.tail.Lines(l.RunningTailLines))
			running = append(running, j)
		}
		fmt.Fprintln(w)
	}
	return running
}

func writeLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

func remove(all, drop []*job) []*job {
	var out []*job
outer:
	for _, j := range all {
		for _, d := range drop {
			if j == d {
				continue outer
			}
		}
		out = append(out, j)
	}
	return out
}

// ErrNoJobs is returned by LoadJobs for a file without jobs.
var ErrNoJobs = errors.New("no jobs found")
