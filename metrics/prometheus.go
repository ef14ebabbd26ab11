// Package metrics counts what hepkit commands did (files transferred,
// processes launched, jobs submitted) and exports the counters in the
// prometheus textfile format, for node_exporter's textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.MustRegister(transferFiles)
	prometheus.MustRegister(transferBytes)
	prometheus.MustRegister(launcherProcesses)
	prometheus.MustRegister(launcherRSS)
	prometheus.MustRegister(condorJobs)
}

var transferFiles = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hepkit",
		Subsystem: "transfer",
		Name:      "files_total",
		Help:      "Number of files handled by directory clones, by result.",
	},
	[]string{"result"},
)

var transferBytes = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "hepkit",
	Subsystem: "transfer",
	Name:      "bytes_total",
	Help:      "Bytes copied by directory clones.",
})

var launcherProcesses = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hepkit",
		Subsystem: "launcher",
		Name:      "processes_total",
		Help:      "Number of launched processes, by final status.",
	},
	[]string{"status"},
)

var launcherRSS = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "hepkit",
		Subsystem: "launcher",
		Name:      "process_rss_bytes",
		Help:      "Resident memory of running launched processes, in bytes.",
	},
	[]string{"name"},
)

var condorJobs = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "hepkit",
	Subsystem: "condor",
	Name:      "jobs_submitted_total",
	Help:      "Number of HTCondor jobs submitted.",
})

func init() {
	for _, r := range []string{"copied", "skipped", "failed"} {
		transferFiles.WithLabelValues(r).Add(0)
	}
	for _, s := range []string{"succeeded", "failed", "killed"} {
		launcherProcesses.WithLabelValues(s).Add(0)
	}
}

// TransferFile records a file handled by a clone. result is one of
// "copied", "skipped" or "failed"; bytes counts only for copied files.
func TransferFile(result string, bytes int64) {
	transferFiles.WithLabelValues(result).Inc()
	if result == "copied" {
		transferBytes.Add(float64(bytes))
	}
}

// LauncherProcess records a finished launched process.
func LauncherProcess(status string) {
	launcherProcesses.WithLabelValues(status).Inc()
}

// LauncherRSS records the resident memory of a running process.
// Finished processes are removed with a negative value.
func LauncherRSS(name string, rss int64) {
	if rss < 0 {
		launcherRSS.DeleteLabelValues(name)
		return
	}
	launcherRSS.WithLabelValues(name).Set(float64(rss))
}

// CondorJobsSubmitted records submitted jobs.
func CondorJobsSubmitted(n int) {
	condorJobs.Add(float64(n))
}

// WriteTextfile writes all registered metrics to path.
// An empty path disables the export.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
