// Package config holds the hepkit configuration: paths to the external
// tools each utility drives, site settings and ambient settings like
// logging and retries.
package config

import (
	"time"

	"github.com/hepkit/hepkit/logger"
)

// Config describes configuration for hepkit.
type Config struct {
	Logger   logger.Config
	Condor   Condor
	CMSSW    CMSSW
	DAS      DAS
	Brilcalc Brilcalc
	XSec     XSec
	EOS      EOS
	XRootD   XRootD
	S3       S3
	Transfer Transfer
	Inspire  Inspire
	Launcher Launcher
	Metrics  Metrics
	Retry    Retry
}

// Condor describes configuration for HTCondor job submission.
type Condor struct {
	// Template is a text/template used to render job description files.
	Template  string
	SubmitCmd string
	RmCmd     string
	// Flavor sets +JobFlavour. Required on lxplus.
	Flavor     string
	NotifyUser string
	Proxy      string
	// Habitat is one of "lxplus", "fnal" or "unknown".
	// Detected from HOSTNAME when empty.
	Habitat   string
	OutputDir string
}

// CMSSW describes the CMSSW release area used for job bundles.
type CMSSW struct {
	Base         string
	ScramArch    string
	CmsSetScript string
}

// DAS describes configuration for the dasgoclient wrapper.
type DAS struct {
	Client string
	// CachePath is a boltdb file caching query results. Empty disables caching.
	CachePath string
	CacheTTL  Duration
}

// Brilcalc describes configuration for the brilcalc wrapper.
type Brilcalc struct {
	Path string
}

// XSec describes configuration for the cross-section wrapper.
type XSec struct {
	// Command is a text/template for the analyzer command line.
	// Available fields: .File, .MaxEvents, .Dataset.
	Command   string
	MaxEvents int
}

// EOS describes configuration for the eos CLI wrapper.
type EOS struct {
	Path   string
	Prefix string
}

// XRootD describes configuration for the xrootd CLI tools.
type XRootD struct {
	Xrdfs   string
	Xrdcp   string
	Streams int
}

// S3 describes configuration for S3 compatible object storage.
type S3 struct {
	Disabled bool
	Endpoint string
	Key      string
	Secret   string
	Insecure bool
}

// Transfer describes configuration for directory cloning.
type Transfer struct {
	Workers int
}

// Inspire describes configuration for the INSPIRE-HEP client.
type Inspire struct {
	URL string
	// RateLimit is the maximum number of requests per second.
	RateLimit float64
	Timeout   Duration
}

// Launcher describes configuration for the multi-process launcher.
type Launcher struct {
	LogDir            string
	Shell             string
	MonitorRate       Duration
	FinishedTailLines int
	RunningTailLines  int
}

// Metrics describes configuration for the prometheus textfile export.
type Metrics struct {
	// TextfilePath is written at the end of a command. Empty disables export.
	TextfilePath string
}

// Retry describes how transient failures of external tools are retried.
type Retry struct {
	MaxTries        int
	InitialInterval Duration
	MaxInterval     Duration
}

// Duration is a wrapper type for time.Duration which provides human-friendly
// text (un)marshaling, e.g. "10s" in YAML files and flags.
type Duration time.Duration

// String returns the string representation of the duration.
func (d *Duration) String() string {
	return time.Duration(*d).String()
}

// UnmarshalText parses text into a duration value.
// Empty text leaves the value unchanged.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return nil
	}
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText converts a duration to text.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Set implements the pflag.Value interface.
func (d *Duration) Set(raw string) error {
	return d.UnmarshalText([]byte(raw))
}

// Type implements the pflag.Value interface.
func (d *Duration) Type() string {
	return "duration"
}
