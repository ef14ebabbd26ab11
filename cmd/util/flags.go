package util

import (
	"github.com/hepkit/hepkit/config"
	"github.com/spf13/pflag"
)

// ConfigFlags returns a new flag set for every configurable field,
// named Section.Field, e.g. --DAS.Client.
func ConfigFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.AddFlagSet(loggerFlags(flagConf))
	f.AddFlagSet(jobFlags(flagConf))
	f.AddFlagSet(toolFlags(flagConf))
	f.AddFlagSet(storageFlags(flagConf))
	f.AddFlagSet(miscFlags(flagConf))

	return f
}

func loggerFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Logger.Level, "Logger.Level", flagConf.Logger.Level, "Level of logging: debug, info, warn or error")
	f.StringVar(&flagConf.Logger.Formatter, "Logger.Formatter", flagConf.Logger.Formatter, "Logs formatter: text or json")
	f.StringVar(&flagConf.Logger.OutputFile, "Logger.OutputFile", flagConf.Logger.OutputFile, "File path to write logs to")

	return f
}

func jobFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Condor.SubmitCmd, "Condor.SubmitCmd", flagConf.Condor.SubmitCmd, "condor_submit executable")
	f.StringVar(&flagConf.Condor.Flavor, "Condor.Flavor", flagConf.Condor.Flavor, "Job flavour, e.g. espresso or workday")
	f.StringVar(&flagConf.Condor.NotifyUser, "Condor.NotifyUser", flagConf.Condor.NotifyUser, "Address to notify about job completion")
	f.StringVar(&flagConf.Condor.Proxy, "Condor.Proxy", flagConf.Condor.Proxy, "X509 proxy to ship with jobs")
	f.StringVar(&flagConf.Condor.Habitat, "Condor.Habitat", flagConf.Condor.Habitat, "Submission site: lxplus, fnal or unknown")
	f.StringVar(&flagConf.Condor.OutputDir, "Condor.OutputDir", flagConf.Condor.OutputDir, "Directory for job descriptions and logs")
	f.StringVar(&flagConf.CMSSW.Base, "CMSSW.Base", flagConf.CMSSW.Base, "CMSSW release area")
	f.StringVar(&flagConf.CMSSW.ScramArch, "CMSSW.ScramArch", flagConf.CMSSW.ScramArch, "SCRAM architecture")
	f.StringVar(&flagConf.CMSSW.CmsSetScript, "CMSSW.CmsSetScript", flagConf.CMSSW.CmsSetScript, "Script sourced to set up the CMS environment on the worker")

	return f
}

func toolFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.DAS.Client, "DAS.Client", flagConf.DAS.Client, "dasgoclient executable")
	f.StringVar(&flagConf.DAS.CachePath, "DAS.CachePath", flagConf.DAS.CachePath, "Query cache database, empty disables caching")
	f.Var(&flagConf.DAS.CacheTTL, "DAS.CacheTTL", "Maximum age of cached query results")
	f.StringVar(&flagConf.Brilcalc.Path, "Brilcalc.Path", flagConf.Brilcalc.Path, "brilcalc executable")
	f.StringVar(&flagConf.XSec.Command, "XSec.Command", flagConf.XSec.Command, "Template of the cross section analyzer command")
	f.IntVar(&flagConf.XSec.MaxEvents, "XSec.MaxEvents", flagConf.XSec.MaxEvents, "Events analyzed per dataset")

	return f
}

func storageFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.EOS.Path, "EOS.Path", flagConf.EOS.Path, "eos executable")
	f.StringVar(&flagConf.EOS.Prefix, "EOS.Prefix", flagConf.EOS.Prefix, "EOS MGM url, e.g. root://cmseos.fnal.gov")
	f.StringVar(&flagConf.XRootD.Xrdfs, "XRootD.Xrdfs", flagConf.XRootD.Xrdfs, "xrdfs executable, empty disables xrootd")
	f.StringVar(&flagConf.XRootD.Xrdcp, "XRootD.Xrdcp", flagConf.XRootD.Xrdcp, "xrdcp executable")
	f.IntVar(&flagConf.XRootD.Streams, "XRootD.Streams", flagConf.XRootD.Streams, "Parallel streams per xrdcp copy")
	f.BoolVar(&flagConf.S3.Disabled, "S3.Disabled", flagConf.S3.Disabled, "Disable the S3 backend")
	f.StringVar(&flagConf.S3.Endpoint, "S3.Endpoint", flagConf.S3.Endpoint, "S3 endpoint")
	f.IntVar(&flagConf.Transfer.Workers, "Transfer.Workers", flagConf.Transfer.Workers, "Concurrent copies")

	return f
}

func miscFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Inspire.URL, "Inspire.URL", flagConf.Inspire.URL, "INSPIRE REST API")
	f.Float64Var(&flagConf.Inspire.RateLimit, "Inspire.RateLimit", flagConf.Inspire.RateLimit, "INSPIRE requests per second")
	f.StringVar(&flagConf.Launcher.LogDir, "Launcher.LogDir", flagConf.Launcher.LogDir, "Directory of launched process logs")
	f.Var(&flagConf.Launcher.MonitorRate, "Launcher.MonitorRate", "Time between launcher reports")
	f.StringVar(&flagConf.Metrics.TextfilePath, "Metrics.TextfilePath", flagConf.Metrics.TextfilePath, "Prometheus textfile written at the end of a command")
	f.IntVar(&flagConf.Retry.MaxTries, "Retry.MaxTries", flagConf.Retry.MaxTries, "Attempts for network backed tools")
	f.Var(&flagConf.Retry.InitialInterval, "Retry.InitialInterval", "First retry delay")

	return f
}
