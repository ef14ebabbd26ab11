package condor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/util/fsutil"
	"github.com/kballard/go-shellquote"
)

// SimulateOptions describes a local run of a job description.
type SimulateOptions struct {
	// CondorDir is the directory condor_submit would be called from.
	CondorDir string
	// JDLName is the job description file name inside CondorDir.
	JDLName string
	// WorkDir is the scratch directory the job runs in.
	WorkDir string
	// Confirm is asked before cleaning a non-empty WorkDir.
	// A nil Confirm refuses.
	Confirm func(prompt string) (bool, error)
	Stdout  io.Writer
	Stderr  io.Writer
}

var requiredKeys = []string{"executable", "transfer_input_files", "arguments"}

// Simulate runs a job locally as condor would: the executable and input
// files are copied into an empty scratch directory and the executable is
// run there with _CONDOR_SCRATCH_DIR set.
func Simulate(ctx context.Context, r command.Runner, opts SimulateOptions) error {
	jdlPath := filepath.Join(opts.CondorDir, opts.JDLName)
	f, err := os.Open(jdlPath)
	if err != nil {
		return fmt.Errorf("opening job description: %w", err)
	}
	settings, err := ParseJDL(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("reading job description: %w", err)
	}

	for _, k := range requiredKeys {
		v, ok := settings[k]
		if !ok {
			return fmt.Errorf("value for %q not found in %s", k, jdlPath)
		}
		log.Info("Found job setting", k, v)
	}

	wd, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return err
	}
	if err := fsutil.EnsureDir(wd); err != nil {
		return err
	}
	if err := cleanWorkDir(wd, opts.Confirm); err != nil {
		return err
	}

	exe := settings["executable"]
	if err := fsutil.CopyFile(ctx, resolve(opts.CondorDir, exe), filepath.Join(wd, filepath.Base(exe))); err != nil {
		return err
	}
	for _, name := range strings.Split(settings["transfer_input_files"], ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		src := resolve(opts.CondorDir, name)
		if err := fsutil.CopyFile(ctx, src, filepath.Join(wd, filepath.Base(name))); err != nil {
			return err
		}
	}

	args, err := shellquote.Split(settings["arguments"])
	if err != nil {
		return fmt.Errorf("parsing arguments %q: %w", settings["arguments"], err)
	}

	cmd := command.Cmd{
		Name:   "./" + filepath.Base(exe),
		Args:   args,
		Dir:    wd,
		Env:    []string{"_CONDOR_SCRATCH_DIR=" + wd},
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	}
	log.Info("Running job", "cmd", cmd.Cmdline(), "workdir", wd)
	if _, err := r.Run(ctx, cmd); err != nil {
		return err
	}
	log.Info("All done!")
	return nil
}

func cleanWorkDir(wd string, confirm func(string) (bool, error)) error {
	empty, err := fsutil.IsEmptyDir(wd)
	if err != nil || empty {
		return err
	}
	ok := false
	if confirm != nil {
		prompt := fmt.Sprintf("target directory %s is not empty. Do you want to clean it?", wd)
		ok, err = confirm(prompt)
		if err != nil {
			return err
		}
	}
	if !ok {
		return fmt.Errorf("working directory %s is not empty", wd)
	}
	entries, err := os.ReadDir(wd)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(wd, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// resolve interprets relative paths against the submit directory.
func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
