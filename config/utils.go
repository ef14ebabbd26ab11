package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
)

// ToYaml formats the configuration into YAML and returns the bytes.
func ToYaml(c Config) ([]byte, error) {
	return yaml.Marshal(c)
}

// ToYamlFile writes the configuration to a YAML file.
func ToYamlFile(c Config, path string) error {
	b, err := ToYaml(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// Parse parses a YAML doc into the given Config instance.
func Parse(raw []byte, conf *Config) error {
	if err := yaml.Unmarshal(raw, conf); err != nil {
		return err
	}
	return Validate(*conf)
}

// ParseFile parses a hepkit config file, which is formatted in YAML,
// into the given Config instance. An empty path is a no-op.
func ParseFile(relpath string, conf *Config) error {
	if relpath == "" {
		return nil
	}

	path, abserr := filepath.Abs(relpath)
	if abserr != nil {
		path = relpath
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config at path %s: %w", path, err)
	}

	if err := Parse(source, conf); err != nil {
		return fmt.Errorf("failed to parse config at path %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail late and obscurely.
func Validate(c Config) error {
	switch c.Condor.Habitat {
	case "", "lxplus", "fnal", "unknown":
	default:
		return fmt.Errorf("Condor.Habitat must be one of lxplus, fnal, unknown; got %q", c.Condor.Habitat)
	}
	if c.XRootD.Streams < 0 {
		return fmt.Errorf("XRootD.Streams must be >= 0")
	}
	if c.Transfer.Workers < 0 {
		return fmt.Errorf("Transfer.Workers must be >= 0")
	}
	if c.Inspire.RateLimit < 0 {
		return fmt.Errorf("Inspire.RateLimit must be >= 0")
	}
	return nil
}
