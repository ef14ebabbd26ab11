package launcher

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
)

// Job is a process description read from a jobs file.
type Job struct {
	// Name is the log file name.
	Name     string   `json:"name"`
	Commands []string `json:"commands"`
}

// LoadJobs reads a YAML file of the form
//
//	jobs:
//	- name: sleeper.log
//	  commands: ["echo sleeping", "sleep 5"]
func LoadJobs(path string) ([]Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f struct {
		Jobs []Job `json:"jobs"`
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing jobs file %s: %w", path, err)
	}
	if len(f.Jobs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoJobs)
	}
	return f.Jobs, nil
}

// SpawnAll spawns every job, stopping at the first error.
func (l *Launcher) SpawnAll(jobs []Job) error {
	for _, j := range jobs {
		if err := l.Spawn(j.Name, j.Commands...); err != nil {
			return err
		}
	}
	return nil
}
