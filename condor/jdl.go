// Package condor writes HTCondor job description files, submits them and
// simulates a job locally for debugging.
package condor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/logger"
	"github.com/hepkit/hepkit/util/fsutil"
)

var log = logger.NewSubLogger("condor")

// Site habitats with different batch conventions.
const (
	Lxplus  = "lxplus"
	FNAL    = "fnal"
	Unknown = "unknown"
)

// Flavors are the valid +JobFlavour values on lxplus, shortest first.
var Flavors = []string{
	"espresso", "microcentury", "longlunch", "workday", "tomorrow", "testmatch", "nextweek",
}

// DetectHabitat guesses the site from a hostname.
func DetectHabitat(hostname string) string {
	switch {
	case strings.Contains(hostname, "lxplus"):
		return Lxplus
	case strings.Contains(hostname, "fnal"):
		return FNAL
	}
	return Unknown
}

// HabitatFromConfig returns the configured habitat, detecting it from
// $HOSTNAME (or os.Hostname) when unset.
func HabitatFromConfig(conf config.Condor) string {
	if conf.Habitat != "" {
		return conf.Habitat
	}
	host := os.Getenv("HOSTNAME")
	if host == "" {
		host, _ = os.Hostname()
	}
	return DetectHabitat(host)
}

// JDL builds a job description for a single job.
type JDL struct {
	Name       string
	Executable string
	OutputDir  string
	Arguments  []string
	Files      []string
	Flavor     string
	Cpus       int
	Memory     string
	NotifyUser string
	Proxy      string
	Habitat    string
	// Template is a text/template for the file contents.
	Template string
}

// NewJDL returns a job description for processName running scriptPath,
// written into outputDir, which is created if it doesn't exist.
func NewJDL(processName, scriptPath, outputDir string, conf config.Condor) (*JDL, error) {
	if processName == "" {
		return nil, fmt.Errorf("job name is required")
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("executable is required")
	}
	// condor_submit runs from outputDir, so every path in the description
	// must be absolute or relative to it.
	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}
	if !fsutil.Exists(outputDir) {
		log.Warn("Output directory does not exist, creating", "dir", outputDir)
	}
	if err := fsutil.EnsureDir(outputDir); err != nil {
		return nil, err
	}
	exe, err := executablePath(outputDir, scriptPath)
	if err != nil {
		return nil, err
	}
	return &JDL{
		Name:       processName,
		Executable: exe,
		OutputDir:  outputDir,
		NotifyUser: conf.NotifyUser,
		Proxy:      conf.Proxy,
		Habitat:    HabitatFromConfig(conf),
		Flavor:     conf.Flavor,
		Template:   conf.Template,
	}, nil
}

// executablePath keeps scriptPath when it names a file in outputDir and
// otherwise makes it absolute.
func executablePath(outputDir, scriptPath string) (string, error) {
	if filepath.IsAbs(scriptPath) || fsutil.Exists(filepath.Join(outputDir, scriptPath)) {
		return scriptPath, nil
	}
	return filepath.Abs(scriptPath)
}

// AddArgument appends a script argument.
func (j *JDL) AddArgument(arg string) {
	j.Arguments = append(j.Arguments, arg)
}

// AddArguments appends script arguments.
func (j *JDL) AddArguments(args ...string) {
	j.Arguments = append(j.Arguments, args...)
}

// AddFile adds a file to transfer with the job. The file must exist and
// is recorded with its absolute path.
func (j *JDL) AddFile(path string) error {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return fmt.Errorf("file to transfer %s does not exist", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	j.Files = append(j.Files, abs)
	return nil
}

// AddFiles adds files to transfer, stopping at the first missing one.
func (j *JDL) AddFiles(paths ...string) error {
	for _, p := range paths {
		if err := j.AddFile(p); err != nil {
			return err
		}
	}
	return nil
}

// SetFlavor sets the job flavour. Flavours only exist on lxplus.
func (j *JDL) SetFlavor(flavor string) error {
	if flavor == "" {
		j.Flavor = ""
		return nil
	}
	known := false
	for _, f := range Flavors {
		if f == flavor {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown job flavour %q, expected one of %s", flavor, strings.Join(Flavors, ", "))
	}
	if j.Habitat != Lxplus {
		return fmt.Errorf("job flavours are only supported on lxplus, not %s", j.Habitat)
	}
	j.Flavor = flavor
	return nil
}

// Path returns the path of the job description file.
func (j *JDL) Path() string {
	return filepath.Join(j.OutputDir, j.Name+".jdl")
}

// Render returns the job description text.
func (j *JDL) Render() (string, error) {
	flavor := j.Flavor
	switch {
	case j.Habitat == Lxplus && flavor == "":
		return "", fmt.Errorf("a job flavour is required on lxplus, set one of %s", strings.Join(Flavors, ", "))
	case j.Habitat != Lxplus && flavor != "":
		log.Debug("Ignoring job flavour outside lxplus", "flavor", flavor, "habitat", j.Habitat)
		flavor = ""
	}

	text := j.Template
	if text == "" {
		text = config.CondorTemplate
	}
	tpl, err := template.New(j.Name).Funcs(template.FuncMap{"join": strings.Join}).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing job description template: %w", err)
	}

	var b bytes.Buffer
	err = tpl.Execute(&b, map[string]interface{}{
		"Name":       j.Name,
		"Executable": j.Executable,
		"Files":      j.Files,
		"Arguments":  j.Arguments,
		"NotifyUser": j.NotifyUser,
		"Proxy":      j.Proxy,
		"Flavor":     flavor,
		"Cpus":       j.Cpus,
		"Memory":     j.Memory,
	})
	if err != nil {
		return "", fmt.Errorf("rendering job description: %w", err)
	}
	return b.String(), nil
}

// WriteFile writes the job description to Path(), replacing an existing file.
func (j *JDL) WriteFile() (string, error) {
	text, err := j.Render()
	if err != nil {
		return "", err
	}
	p := j.Path()
	if fsutil.Exists(p) {
		log.Info("Job description already exists, recreating", "path", p)
		if err := os.Remove(p); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(p, []byte(text), 0644); err != nil {
		return "", err
	}
	return p, nil
}
