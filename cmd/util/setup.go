package util

import (
	"fmt"

	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/logger"
	"github.com/spf13/cobra"
)

// Setup is shared by all hepkit commands. The root command registers the
// config flags and loads the configuration before any subcommand runs.
type Setup struct {
	ConfigFile string
	Flags      config.Config
	Conf       config.Config
	// Runner runs external tools. Tests replace it with a command.FakeRunner.
	Runner command.Runner
}

// NewSetup returns a Setup with the default configuration and a Runner
// executing real commands.
func NewSetup() *Setup {
	return &Setup{
		Conf:   config.DefaultConfig(),
		Runner: command.ExecRunner{},
	}
}

// Register adds --config and the Section.Field flags to cmd and its subcommands.
func (s *Setup) Register(cmd *cobra.Command) {
	cmd.SetGlobalNormalizationFunc(NormalizeFlags)
	f := cmd.PersistentFlags()
	f.StringVarP(&s.ConfigFile, "config", "c", s.ConfigFile, "Config File")
	f.AddFlagSet(ConfigFlags(&s.Flags))
}

// Load merges the config file with the flags and configures logging.
func (s *Setup) Load() error {
	conf, err := MergeConfigFileWithFlags(s.ConfigFile, s.Flags)
	if err != nil {
		return fmt.Errorf("processing config: %w", err)
	}
	s.Conf = conf
	logger.Configure(conf.Logger)
	if s.Runner == nil {
		s.Runner = command.ExecRunner{}
	}
	return nil
}
