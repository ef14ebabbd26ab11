// Package lumi wraps brilcalc to read per-lumisection luminosity and
// trigger prescales of a run.
package lumi

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/logger"
)

var log = logger.NewSubLogger("lumi")

const pathHint = "check that your PATH contains the location of the brilcalc executable, usually: ~/.local/bin"

// Client runs brilcalc.
type Client struct {
	Runner command.Runner
	// Path to the brilcalc executable.
	Path string
}

// Check verifies brilcalc can be found.
func (c *Client) Check() error {
	_, err := command.LookPath(c.Path, pathHint)
	return err
}

// Section is the luminosity of a single lumisection.
type Section struct {
	// Recorded luminosity, in /ub by default.
	Recorded float64 `json:"lumi"`
	PileUp   float64 `json:"PU"`
}

// Table maps lumisection number to its luminosity.
type Table map[int]Section

// Sections returns the lumisection numbers in increasing order.
func (t Table) Sections() []int {
	out := make([]int, 0, len(t))
	for ls := range t {
		out = append(out, ls)
	}
	sort.Ints(out)
	return out
}

// Total returns the sum of the recorded luminosity.
func (t Table) Total() float64 {
	var total float64
	for _, ls := range t.Sections() {
		total += t[ls].Recorded
	}
	return total
}

var lumiColumns = []string{"run_fill", "ls1_ls2", "time", "beamstatus", "E_GeV", "delivered", "recorded", "avgpu", "source"}

// ByLumisection returns the recorded luminosity and pile-up of each
// lumisection of a run.
func (c *Client) ByLumisection(ctx context.Context, run int) (Table, error) {
	if run < 0 {
		return nil, fmt.Errorf("run needs to be a valid CMS run, got %d", run)
	}
	log.Debug("Running brilcalc", "run", run)
	out, err := command.Output(ctx, c.Runner, c.Path,
		"lumi", "--byls", "-r", strconv.Itoa(run), "--output-style", "csv")
	if err != nil {
		return nil, fmt.Errorf("brilcalc lumi: %w", err)
	}
	return ParseByLumisection(strings.NewReader(out))
}

// ParseByLumisection parses "brilcalc lumi --byls" CSV output.
// Lines starting with "#" are comments.
func ParseByLumisection(r io.Reader) (Table, error) {
	records, err := readCSV(r, len(lumiColumns))
	if err != nil {
		return nil, err
	}

	t := Table{}
	for _, rec := range records {
		row := toRow(lumiColumns, rec)
		parts := strings.Split(row["ls1_ls2"], ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected lumisection info in format \"LS1:LS2\"; found: %s", row["ls1_ls2"])
		}
		ls1, err1 := strconv.Atoi(parts[0])
		ls2, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("invalid lumisection numbers %q", row["ls1_ls2"])
		}
		if ls1 != ls2 {
			return nil, fmt.Errorf("unexpected format for the lumisection numbers: %q", row["ls1_ls2"])
		}
		recorded, err := strconv.ParseFloat(row["recorded"], 64)
		if err != nil {
			return nil, fmt.Errorf("lumisection %d: invalid recorded luminosity %q", ls1, row["recorded"])
		}
		pu, err := strconv.ParseFloat(row["avgpu"], 64)
		if err != nil {
			return nil, fmt.Errorf("lumisection %d: invalid pile-up %q", ls1, row["avgpu"])
		}
		t[ls1] = Section{Recorded: recorded, PileUp: pu}
	}
	return t, nil
}

// Prescale is the prescale of an HLT path from a lumisection onwards.
type Prescale struct {
	Run           int    `json:"run"`
	Lumisection   int    `json:"cmsls"`
	Index         int    `json:"prescidx"`
	Total         string `json:"totprescval"`
	HLTPath       string `json:"hltpath"`
	HLTPrescale   string `json:"hltprescval"`
	Logic         string `json:"logic"`
	L1BitPrescale string `json:"l1bitprescval"`
}

var prescaleColumns = []string{"run", "cmsls", "prescidx", "totprescval", "hltpath/prescval", "logic", "l1bit/prescval"}

// Prescales returns the prescale changes of hltPath in a run.
func (c *Client) Prescales(ctx context.Context, run int, hltPath string) ([]Prescale, error) {
	if run < 0 {
		return nil, fmt.Errorf("run needs to be a valid CMS run, got %d", run)
	}
	out, err := command.Output(ctx, c.Runner, c.Path,
		"trg", "--prescale", "-r", strconv.Itoa(run), "--hltpath", hltPath, "--output-style", "csv")
	if err != nil {
		return nil, fmt.Errorf("brilcalc trg: %w", err)
	}
	return ParsePrescales(strings.NewReader(out))
}

// ParsePrescales parses "brilcalc trg --prescale" CSV output.
func ParsePrescales(r io.Reader) ([]Prescale, error) {
	records, err := readCSV(r, len(prescaleColumns))
	if err != nil {
		return nil, err
	}
	var out []Prescale
	for _, rec := range records {
		row := toRow(prescaleColumns, rec)
		p := Prescale{
			Total:         row["totprescval"],
			Logic:         row["logic"],
			L1BitPrescale: row["l1bit/prescval"],
		}
		if p.Run, err = strconv.Atoi(row["run"]); err != nil {
			return nil, fmt.Errorf("invalid run %q", row["run"])
		}
		if p.Lumisection, err = strconv.Atoi(row["cmsls"]); err != nil {
			return nil, fmt.Errorf("invalid lumisection %q", row["cmsls"])
		}
		if p.Index, err = strconv.Atoi(row["prescidx"]); err != nil {
			return nil, fmt.Errorf("invalid prescale index %q", row["prescidx"])
		}
		hlt := row["hltpath/prescval"]
		i := strings.LastIndex(hlt, "/")
		if i < 0 {
			return nil, fmt.Errorf("expected \"path/prescale\", found %q", hlt)
		}
		p.HLTPath, p.HLTPrescale = hlt[:i], hlt[i+1:]
		out = append(out, p)
	}
	return out, nil
}

func readCSV(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = fields
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing brilcalc output: %w", err)
	}
	return records, nil
}

func toRow(columns, rec []string) map[string]string {
	row := make(map[string]string, len(columns))
	for i, c := range columns {
		row[c] = strings.TrimSpace(rec[i])
	}
	return row
}
