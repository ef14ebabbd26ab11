package launcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hepkit/hepkit/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestLauncher(t *testing.T) *Launcher {
	l := New(config.Launcher{
		LogDir:      t.TempDir(),
		MonitorRate: config.Duration(10 * time.Millisecond),
	})
	return l
}

func TestSpawnValidation(t *testing.T) {
	l := newTestLauncher(t)
	assert.Error(t, l.Spawn("a.log"))
	assert.Error(t, l.Spawn("", "echo hi"))
	assert.Error(t, l.Spawn("a.log", "echo hi", " "))
	assert.Empty(t, l.Running())
}

func TestMonitorToCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := newTestLauncher(t)

	require.NoError(t, l.Spawn("chain.log", "echo hello", "echo world"))
	require.NoError(t, l.Spawn("err.log", "echo oops >&2", "exit 2"))
	assert.Equal(t, []string{"chain.log", "err.log"}, l.Running())

	var out bytes.Buffer
	require.NoError(t, l.Monitor(context.Background(), &out))
	assert.Empty(t, l.Running())

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "Starting to monitor 2 processes:\n"))
	assert.Contains(t, s, "Process finished: "+filepath.Join(l.LogDir, "chain.log")+" (succeeded)\nLast 20 lines of output:\nhello\nworld\n")
	assert.Contains(t, s, "Process finished: "+filepath.Join(l.LogDir, "err.log")+" (failed)\nLast 20 lines of output:\noops\n")
	assert.True(t, strings.HasSuffix(s, "All processes finished!\n"))

	b, err := os.ReadFile(filepath.Join(l.LogDir, "chain.log"))
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", string(b))

	// names can be reused once collected
	require.NoError(t, l.Spawn("chain.log", "true"))
	require.NoError(t, l.Monitor(context.Background(), &out))
}

func TestDuplicateName(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := newTestLauncher(t)

	require.NoError(t, l.Spawn("a.log", "sleep 30"))
	require.NoError(t, l.Spawn("b.log", "sleep 30"))
	err := l.Spawn("a.log", "echo again")
	assert.EqualError(t, err, "duplicate log file name: a.log")
	assert.Empty(t, l.Running())
}

func TestFailFast(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := newTestLauncher(t)
	l.FailFast = true

	require.NoError(t, l.Spawn("slow.log", "echo started", "sleep 30"))
	require.NoError(t, l.Spawn("fail.log", "sleep 0.1", "exit 3"))

	start := time.Now()
	var out bytes.Buffer
	err := l.Monitor(context.Background(), &out)
	assert.Less(t, time.Since(start), 10*time.Second)

	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, "fail.log", exit.Name)
	assert.Equal(t, 3, exit.ExitCode)
	assert.Contains(t, out.String(), "slow.log (killed)")
	assert.Empty(t, l.Running())
}

func TestMonitorCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := newTestLauncher(t)
	require.NoError(t, l.Spawn("slow.log", "sleep 30"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := l.Monitor(ctx, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func processesTotal(t *testing.T) float64 {
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	var sum float64
	for _, mf := range mfs {
		if mf.GetName() != "hepkit_launcher_processes_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

func TestKillAllDuringMonitorCountsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := newTestLauncher(t)
	require.NoError(t, l.Spawn("slow.log", "sleep 30"))
	before := processesTotal(t)

	done := make(chan error, 1)
	go func() {
		done <- l.Monitor(context.Background(), &bytes.Buffer{})
	}()
	time.Sleep(50 * time.Millisecond)
	l.KillAll()
	require.NoError(t, <-done)

	assert.Equal(t, before+1, processesTotal(t))
}

func TestTailLines(t *testing.T) {
	tl := newTail()
	tl.Write([]byte("a\nb\nc"))
	assert.Equal(t, []string{"b", "c"}, tl.Lines(2))
	assert.Equal(t, []string{"a", "b", "c"}, tl.Lines(20))
	assert.Nil(t, tl.Lines(0))

	big := newTail()
	big.Write([]byte("partial" + strings.Repeat("x", tailSize) + "\nlast\n"))
	assert.Equal(t, []string{"last"}, big.Lines(5))
}

func TestLoadJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`jobs:
- name: sleeper_5.log
  commands: ["echo sleeping 5", "sleep 5"]
- name: echo.log
  commands:
  - echo hi
`), 0644))
	jobs, err := LoadJobs(path)
	require.NoError(t, err)
	assert.Equal(t, []Job{
		{Name: "sleeper_5.log", Commands: []string{"echo sleeping 5", "sleep 5"}},
		{Name: "echo.log", Commands: []string{"echo hi"}},
	}, jobs)

	require.NoError(t, os.WriteFile(path, []byte("jobs: []\n"), 0644))
	_, err = LoadJobs(path)
	assert.ErrorIs(t, err, ErrNoJobs)
}
