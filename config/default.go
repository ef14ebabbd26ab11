package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hepkit/hepkit/logger"
)

// DefaultConfig returns configuration with simple defaults.
// Site dependent values are read from the environment.
func DefaultConfig() Config {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()

	cachePath := ""
	if home != "" {
		cachePath = filepath.Join(home, ".cache", "hepkit", "das.db")
	}

	return Config{
		Logger: logger.DefaultConfig(),
		Condor: Condor{
			Template:   CondorTemplate,
			SubmitCmd:  "condor_submit",
			RmCmd:      "condor_rm",
			Flavor:     "",
			NotifyUser: "$ENV(LOGNAME)@cern.ch",
			Proxy:      "$ENV(X509_USER_PROXY)",
			Habitat:    "",
			OutputDir:  filepath.Join(cwd, "condor_files"),
		},
		CMSSW: CMSSW{
			Base:         os.Getenv("CMSSW_BASE"),
			ScramArch:    os.Getenv("SCRAM_ARCH"),
			CmsSetScript: "/cvmfs/cms.cern.ch/cmsset_default.sh",
		},
		DAS: DAS{
			Client:    "dasgoclient",
			CachePath: cachePath,
			CacheTTL:  Duration(time.Hour * 6),
		},
		Brilcalc: Brilcalc{
			Path: "brilcalc",
		},
		XSec: XSec{
			Command:   XSecCommandTemplate,
			MaxEvents: 1000000,
		},
		EOS: EOS{
			Path:   "eos",
			Prefix: os.Getenv("EOSPREFIX"),
		},
		XRootD: XRootD{
			Xrdfs:   "xrdfs",
			Xrdcp:   "xrdcp",
			Streams: 15,
		},
		S3: S3{
			Endpoint: "s3.cern.ch",
			Key:      os.Getenv("AWS_ACCESS_KEY_ID"),
			Secret:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		Transfer: Transfer{
			Workers: 1,
		},
		Inspire: Inspire{
			URL:       "https://inspirehep.net/api",
			RateLimit: 2,
			Timeout:   Duration(time.Second * 30),
		},
		Launcher: Launcher{
			LogDir:            filepath.Join(cwd, "logs"),
			Shell:             "/bin/bash",
			MonitorRate:       Duration(time.Second * 10),
			FinishedTailLines: 20,
			RunningTailLines:  2,
		},
		Retry: Retry{
			MaxTries:        5,
			InitialInterval: Duration(time.Second),
			MaxInterval:     Duration(time.Minute),
		},
	}
}

// CondorTemplate is the default template for HTCondor job description files.
var CondorTemplate = `universe = vanilla
Executable = {{.Executable}}
Should_Transfer_Files = YES
WhenToTransferOutput = ON_EXIT
{{- if .Files}}
Transfer_Input_Files = {{join .Files ", "}}
{{- end}}
Output = log_{{.Name}}.stdout
Error = log_{{.Name}}.stderr
Log = log_{{.Name}}.log
notify_user = {{.NotifyUser}}
x509userproxy = {{.Proxy}}
{{- if .Arguments}}
Arguments = {{join .Arguments " "}}
{{- end}}
{{- if .Flavor}}
+JobFlavour = "{{.Flavor}}"
{{- end}}
{{- if .Cpus}}
request_cpus = {{.Cpus}}
{{- end}}
{{- if .Memory}}
request_memory = {{.Memory}}
{{- end}}
Queue 1
`

// XSecCommandTemplate is the default GenXSecAnalyzer command line.
var XSecCommandTemplate = `cmsRun genXsec_cfg.py inputFiles="{{.File}}" maxEvents={{.MaxEvents}}`
