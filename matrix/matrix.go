// Package matrix submits one batch job per runTheMatrix.py workflow.
package matrix

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/hepkit/hepkit/cmssw"
	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/condor"
	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/logger"
)

var log = logger.NewSubLogger("matrix")

// Workflow is a runTheMatrix.py workflow.
type Workflow struct {
	Number string
	Name   string
}

// ID returns the workflow number with "." replaced by "pt", usable in file names.
func (w Workflow) ID() string {
	return strings.ReplaceAll(w.Number, ".", "pt")
}

var (
	selectedRE = regexp.MustCompile(`the\s+following\s+([0-9]+)\s+were\s+selected`)
	workflowRE = regexp.MustCompile(`^([0-9]+\.[0-9]+)\s+(\S+)$`)
)

// ParseWorkflows parses the output of "runTheMatrix.py --showMatrix".
// The number of workflows found must match the announced count.
func ParseWorkflows(out string) ([]Workflow, error) {
	expected := -1
	var wfs []Workflow

	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if expected < 0 {
			if m := selectedRE.FindStringSubmatch(line); m != nil {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					return nil, err
				}
				expected = n
				log.Debug("Found number of selected workflows", "expected", n)
			}
		}
		if m := workflowRE.FindStringSubmatch(line); m != nil {
			wfs = append(wfs, Workflow{Number: m[1], Name: m[2]})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if expected < 0 {
		return nil, fmt.Errorf("number of selected workflows not found in runTheMatrix.py output")
	}
	if len(wfs) != expected {
		return nil, fmt.Errorf("expected %d workflows, found %d", expected, len(wfs))
	}
	return wfs, nil
}

// Options configures a matrix test submission.
type Options struct {
	Identifier string
	// List is the runTheMatrix.py workflow list, e.g. "limited".
	List string
	// OutputDir holds the tarball, wrapper script and job descriptions.
	OutputDir string
	// ReturnDir receives the job outputs. Defaults to the working directory.
	ReturnDir string
	DryRun    bool
}

// Submission is the outcome of a matrix test submission.
type Submission struct {
	Workflows []Workflow
	JDLs      []string
	Clusters  []string
}

// Submitter builds and submits matrix test jobs.
type Submitter struct {
	Runner command.Runner
	Env    cmssw.Env
	Condor config.Condor
}

// Submit packages CMSSW, writes the wrapper script and submits one job
// per selected workflow.
func (s *Submitter) Submit(ctx context.Context, opts Options) (*Submission, error) {
	list := opts.List
	if list == "" {
		list = "limited"
	}

	res, err := s.Runner.Run(ctx, command.Cmd{
		Name: "runTheMatrix.py",
		Args: []string{"--showMatrix", "-l", list},
	})
	if err != nil {
		return nil, fmt.Errorf("listing workflows: %w", err)
	}
	// runTheMatrix.py prints part of the listing on stderr.
	wfs, err := ParseWorkflows(string(res.Stdout) + "\n" + string(res.Stderr))
	if err != nil {
		return nil, err
	}

	if opts.ReturnDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts.ReturnDir = wd
	}

	tarball, err := cmssw.Bundle(ctx, s.Env, opts.Identifier, opts.OutputDir)
	if err != nil {
		return nil, err
	}

	script := cmssw.NewWrapperScript(s.Env, opts.Identifier, "runTheMatrix.py -l ${1} -i all --ibeos")
	script.ReturnDir = opts.ReturnDir
	script.ReturnGlob = "${1}*"
	scriptName := "runMatrixScript.sh"
	if err := script.WriteScript(filepath.Join(opts.OutputDir, scriptName)); err != nil {
		return nil, err
	}

	sub := &Submission{Workflows: wfs}
	submitter := condor.NewSubmitter(s.Condor, s.Runner)
	log.Info("Submitting jobs", "workflows", len(wfs), "dryRun", opts.DryRun)

	for _, wf := range wfs {
		jdl, err := condor.NewJDL("runMatrix_"+wf.ID(), scriptName, opts.OutputDir, s.Condor)
		if err != nil {
			return sub, err
		}
		if err := jdl.AddFile(tarball); err != nil {
			return sub, err
		}
		jdl.AddArgument(wf.Number)
		if jdl.Habitat == condor.Lxplus {
			if err := jdl.SetFlavor("longlunch"); err != nil {
				return sub, err
			}
		}
		p, err := jdl.WriteFile()
		if err != nil {
			return sub, err
		}
		sub.JDLs = append(sub.JDLs, p)
		log.Info("Wrote job description", "workflow", wf.Number, "name", wf.Name, "path", p)

		if opts.DryRun {
			continue
		}
		id, err := submitter.Submit(ctx, p)
		if err != nil {
			return sub, err
		}
		sub.Clusters = append(sub.Clusters, id)
	}
	return sub, nil
}
