package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferFile(t *testing.T) {
	copied := testutil.ToFloat64(transferFiles.WithLabelValues("copied"))
	bytes := testutil.ToFloat64(transferBytes)

	TransferFile("copied", 1024)
	TransferFile("skipped", 2048)

	assert.Equal(t, copied+1, testutil.ToFloat64(transferFiles.WithLabelValues("copied")))
	assert.Equal(t, bytes+1024, testutil.ToFloat64(transferBytes))
}

func TestWriteTextfile(t *testing.T) {
	require.NoError(t, WriteTextfile(""))

	CondorJobsSubmitted(3)
	LauncherRSS("job.log", 1<<20)
	p := filepath.Join(t.TempDir(), "hepkit.prom")
	require.NoError(t, WriteTextfile(p))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "hepkit_condor_jobs_submitted_total")
	assert.Contains(t, string(b), `hepkit_launcher_process_rss_bytes{name="job.log"} 1.048576e+06`)
	assert.Contains(t, string(b), `hepkit_transfer_files_total{result="failed"}`)

	LauncherRSS("job.log", -1)
	assert.Equal(t, 0, testutil.CollectAndCount(launcherRSS))
}
