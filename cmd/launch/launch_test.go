package launch

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestParseJob(t *testing.T) {
	j, err := ParseJob("fit.log=echo a && echo b=c")
	require.NoError(t, err)
	assert.Equal(t, launcher.Job{Name: "fit.log", Commands: []string{"echo a && echo b=c"}}, j)

	for _, bad := range []string{"fit.log", "=echo", "fit.log=  "} {
		_, err := ParseJob(bad)
		assert.Error(t, err, bad)
	}
}

func TestLaunch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	jobsFile := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(jobsFile, []byte(`jobs:
- name: a.log
  commands: ["echo first", "echo second"]
`), 0644))

	s := cmdutil.NewSetup()
	cmd := NewCommand(s)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-f", jobsFile, "-j", "b.log=echo other", "--log-dir", filepath.Join(dir, "logs"), "--rate", "50ms"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Starting to monitor 2 processes:")
	assert.Contains(t, out.String(), "All processes finished!")
	b, err := os.ReadFile(filepath.Join(dir, "logs", "a.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(b))
}

func TestLaunchFailFast(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := cmdutil.NewSetup()
	cmd := NewCommand(s)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-j", "bad.log=exit 4", "-j", "slow.log=sleep 30", "--log-dir", t.TempDir(), "--rate", "50ms", "--fail-fast"})
	err := cmd.Execute()

	var exit *launcher.ExitError
	require.True(t, errors.As(err, &exit), "%v", err)
	assert.Equal(t, "bad.log", exit.Name)
	assert.Equal(t, 4, exit.ExitCode)
}

func TestLaunchNoJobs(t *testing.T) {
	cmd := NewCommand(cmdutil.NewSetup())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.ErrorIs(t, cmd.Execute(), launcher.ErrNoJobs)
}
