package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmdline(t *testing.T) {
	c := Cmd{Name: "dasgoclient", Args: []string{"-query", "dataset dataset=/A/B*/NANOAOD"}}
	assert.Equal(t, `dasgoclient -query 'dataset dataset=/A/B*/NANOAOD'`, c.Cmdline())
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var live bytes.Buffer
	res, err := ExecRunner{}.Run(context.Background(), Cmd{
		Name:   "sh",
		Args:   []string{"-c", "echo out; echo err 1>&2; echo $FOO"},
		Env:    []string{"FOO=bar"},
		Stdout: &live,
	})
	require.NoError(t, err)
	assert.Equal(t, "out\nbar\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.Equal(t, "out\nbar\n", live.String())
}

func TestExecRunnerFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	res, err := ExecRunner{}.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", "echo broken 1>&2; exit 3"},
	})
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, 3, ExitCode(err))

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "broken\n", cerr.Stderr)
	assert.True(t, strings.Contains(err.Error(), "exit code 3: broken"))
}

func TestExitCodeUnknown(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, UnknownExitCode, ExitCode(errors.New("x")))
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, Lines("a\n\n  b c  \n"))
	assert.Nil(t, Lines("\n"))
}

func TestFakeRunner(t *testing.T) {
	f := NewFakeRunner()
	f.Set("hello\n", "echo", "hello")
	f.SetResponse(FakeResponse{Stderr: "nope", ExitCode: 2}, "false")

	out, err := Output(context.Background(), f, "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	_, err = Output(context.Background(), f, "false")
	assert.Equal(t, 2, ExitCode(err))

	_, err = Output(context.Background(), f, "unknown")
	assert.Error(t, err)

	assert.Equal(t, []string{"echo hello", "false", "unknown"}, f.Calls())
}
