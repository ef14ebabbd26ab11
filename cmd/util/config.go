package util

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/util"
	"github.com/imdario/mergo"
	"github.com/spf13/pflag"
)

func normalize(name string) string {
	from := []string{"-", "_"}
	to := "."
	for _, sep := range from {
		name = strings.Replace(name, sep, to, -1)
	}
	return strings.ToLower(name)
}

// NormalizeFlags allows for flags to be case and separator insensitive.
// Use it by passing it to cobra.Command.SetGlobalNormalizationFunc
func NormalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	lookup := map[string]string{"help": "help", normalize(name): name}

	f.VisitAll(func(f *pflag.Flag) {
		lookup[normalize(f.Name)] = f.Name
	})

	return pflag.NormalizedName(lookup[normalize(name)])
}

// MergeConfigFileWithFlags builds the configuration of a command: defaults,
// overridden by the config file when given, overridden by flag values.
func MergeConfigFileWithFlags(file string, flagConf config.Config) (config.Config, error) {
	conf := config.DefaultConfig()
	err := config.ParseFile(file, &conf)
	if err != nil {
		return conf, err
	}

	// file vals <- cli val
	err = mergo.MergeWithOverwrite(&conf, flagConf)
	if err != nil {
		return conf, err
	}
	return conf, config.Validate(conf)
}

// TempConfigFile writes the configuration to a temporary file.
// Returns:
// - "path" is the path of the file.
// - "cleanup" can be called to remove the temporary file.
func TempConfigFile(c config.Config, name string) (path string, cleanup func()) {
	tmpdir, err := os.MkdirTemp("", "")
	if err != nil {
		panic(err)
	}

	cleanup = func() {
		os.RemoveAll(tmpdir)
	}

	p := filepath.Join(tmpdir, name)
	err = config.ToYamlFile(c, p)
	if err != nil {
		panic(err)
	}
	return p, cleanup
}

// NewRetrier returns a retrier for external tools using the retry settings of conf.
func NewRetrier(conf config.Retry) *util.Retrier {
	r := util.NewRetrier()
	if conf.MaxTries > 0 {
		r.MaxTries = conf.MaxTries
	}
	if conf.InitialInterval > 0 {
		r.InitialInterval = time.Duration(conf.InitialInterval)
	}
	if conf.MaxInterval > 0 {
		r.MaxInterval = time.Duration(conf.MaxInterval)
	}
	return r
}
