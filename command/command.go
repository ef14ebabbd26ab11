// Package command runs the external tools hepkit wraps (condor_submit,
// dasgoclient, brilcalc, eos, xrdfs, ...). Packages take a Runner so tests
// can replace the tools with canned output.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"

	"github.com/kballard/go-shellquote"
)

// UnknownExitCode is reported when a process exit status is unavailable.
const UnknownExitCode = -999

// Cmd describes an external command invocation.
type Cmd struct {
	Name string
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is appended to the current environment.
	Env   []string
	Stdin io.Reader
	// Stdout and Stderr, when set, receive output as it is produced
	// in addition to the captured copy in Result.
	Stdout io.Writer
	Stderr io.Writer
}

// Cmdline returns the command line, shell quoted.
func (c Cmd) Cmdline() string {
	return shellquote.Join(append([]string{c.Name}, c.Args...)...)
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner runs external commands.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (*Result, error)
}

// Error is returned when an external command fails.
type Error struct {
	Cmdline  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %d", e.Cmdline, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code carried by err, 0 for a nil error and
// UnknownExitCode when it cannot be determined.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.ExitCode
	}
	var exiterr *exec.ExitError
	if errors.As(err, &exiterr) {
		if status, ok := exiterr.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
	}
	return UnknownExitCode
}

// Output runs name with args and returns its stdout.
func Output(ctx context.Context, r Runner, name string, args ...string) (string, error) {
	res, err := r.Run(ctx, Cmd{Name: name, Args: args})
	if err != nil {
		return "", err
	}
	return string(res.Stdout), nil
}

// Lines splits output into trimmed, non-empty lines.
func Lines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// LookPath checks that name is an executable on PATH (or an executable
// path), returning an error naming the tool and a hint.
func LookPath(name, hint string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		msg := fmt.Sprintf("%s executable not found", name)
		if hint != "" {
			msg += ", " + hint
		}
		return "", fmt.Errorf("%s: %w", msg, err)
	}
	return p, nil
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run runs the command, waiting for it to finish. A non-zero exit status
// results in an *Error, the Result is returned in both cases.
func (ExecRunner) Run(ctx context.Context, c Cmd) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, c.Stdout)
	cmd.Stderr = tee(&stderr, c.Stderr)

	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: ExitCode(err),
	}
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return res, &Error{
			Cmdline:  c.Cmdline(),
			ExitCode: res.ExitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return res, nil
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
