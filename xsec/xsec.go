// Package xsec computes generator-level cross sections of simulated
// datasets by running GenXSecAnalyzer on one of their files.
package xsec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"text/template"

	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/logger"
	"github.com/kballard/go-shellquote"
)

var log = logger.NewSubLogger("xsec")

// Measurement is a value with its uncertainty.
type Measurement struct {
	Value float64 `json:"value"`
	Error float64 `json:"error"`
}

// Result holds the numbers reported by GenXSecAnalyzer. Cross sections are
// in pb.
type Result struct {
	Dataset          string       `json:"dataset,omitempty"`
	PrepID           string       `json:"prepid,omitempty"`
	BeforeMatching   *Measurement `json:"before_matching,omitempty"`
	AfterMatching    *Measurement `json:"after_matching,omitempty"`
	CrossSection     Measurement  `json:"cross_section"`
	NegativeFraction *Measurement `json:"negative_weight_fraction,omitempty"`
	EquivalentLumi   *Measurement `json:"equivalent_lumi_1M,omitempty"`
}

const number = `([-+0-9.eE]+)\s*\+-\s*([-+0-9.eE]+)`

var (
	beforeMatchingRE = regexp.MustCompile(`Before matching: total cross section = ` + number + ` pb`)
	afterMatchingRE  = regexp.MustCompile(`After matching: total cross section = ` + number + ` pb`)
	finalRE          = regexp.MustCompile(`After filter: final cross section = ` + number + ` pb`)
	negativeRE       = regexp.MustCompile(`After filter: final fraction of events with negative weights = ` + number)
	lumiRE           = regexp.MustCompile(`After filter: final equivalent lumi for 1M events \(1/fb\) = ` + number)
)

// Parse extracts the cross sections from GenXSecAnalyzer output. The final
// cross section is required.
func Parse(output string) (*Result, error) {
	final, err := find(finalRE, output)
	if err != nil {
		return nil, err
	}
	if final == nil {
		return nil, fmt.Errorf("final cross section not found in analyzer output")
	}
	res := &Result{CrossSection: *final}
	for re, dst := range map[*regexp.Regexp]**Measurement{
		beforeMatchingRE: &res.BeforeMatching,
		afterMatchingRE:  &res.AfterMatching,
		negativeRE:       &res.NegativeFraction,
		lumiRE:           &res.EquivalentLumi,
	} {
		if *dst, err = find(re, output); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func find(re *regexp.Regexp, output string) (*Measurement, error) {
	m := re.FindAllStringSubmatch(output, -1)
	if len(m) == 0 {
		return nil, nil
	}
	// the analyzer may print intermediate results, the last one is final
	last := m[len(m)-1]
	v, err := strconv.ParseFloat(last[1], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", last[0], err)
	}
	e, err := strconv.ParseFloat(last[2], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", last[0], err)
	}
	return &Measurement{Value: v, Error: e}, nil
}

// Catalog resolves datasets. It is implemented by *das.Client.
type Catalog interface {
	MCMPrepID(ctx context.Context, dataset string) (string, error)
	Files(ctx context.Context, dataset string) ([]string, error)
}

// Calculator runs the analyzer for datasets.
type Calculator struct {
	Runner  command.Runner
	Catalog Catalog
	Conf    config.XSec
	// Dir is the working directory of the analyzer, usually a CMSSW src area.
	Dir string
}

type commandArgs struct {
	Dataset   string
	File      string
	MaxEvents int
}

// Command renders the analyzer command line for a dataset file.
func (c *Calculator) Command(dataset, file string) ([]string, error) {
	tpl, err := template.New("xsec").Parse(c.Conf.Command)
	if err != nil {
		return nil, fmt.Errorf("parsing analyzer command template: %w", err)
	}
	var buf bytes.Buffer
	err = tpl.Execute(&buf, commandArgs{Dataset: dataset, File: file, MaxEvents: c.Conf.MaxEvents})
	if err != nil {
		return nil, fmt.Errorf("rendering analyzer command: %w", err)
	}
	args, err := shellquote.Split(buf.String())
	if err != nil {
		return nil, fmt.Errorf("splitting analyzer command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty analyzer command")
	}
	return args, nil
}

// Compute returns the cross section of a dataset.
func (c *Calculator) Compute(ctx context.Context, dataset string) (*Result, error) {
	prepID, err := c.Catalog.MCMPrepID(ctx, dataset)
	if err != nil {
		return nil, err
	}
	files, err := c.Catalog.Files(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found for dataset %s", dataset)
	}

	args, err := c.Command(dataset, files[0])
	if err != nil {
		return nil, err
	}
	log.Info("Running cross section analyzer", "dataset", dataset, "prepid", prepID, "file", files[0])
	res, err := c.Runner.Run(ctx, command.Cmd{Name: args[0], Args: args[1:], Dir: c.Dir})
	if err != nil {
		return nil, fmt.Errorf("computing cross section of %s: %w", dataset, err)
	}

	// GenXSecAnalyzer reports on stderr through the message logger
	out := string(res.Stdout) + "\n" + string(res.Stderr)
	r, err := Parse(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dataset, err)
	}
	r.Dataset = dataset
	r.PrepID = prepID
	return r, nil
}

// ComputeAll computes the cross sections of several datasets, in order.
func (c *Calculator) ComputeAll(ctx context.Context, datasets []string) ([]*Result, error) {
	var out []*Result
	for _, d := range datasets {
		r, err := c.Compute(ctx, d)
		if err != nil {
			return out, err
		}
		log.Info("Cross section", "dataset", d, "xsec_pb", r.CrossSection.Value, "error_pb", r.CrossSection.Error)
		out = append(out, r)
	}
	return out, nil
}

// WriteJSON writes an indented JSON object mapping dataset to result.
func WriteJSON(path string, results []*Result) error {
	m := make(map[string]*Result, len(results))
	for _, r := range results {
		m[r.Dataset] = r
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(b, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Info("Wrote cross sections", "path", path, "datasets", len(m))
	return nil
}
