package datacard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hepkit/hepkit/logger"
	"github.com/hepkit/hepkit/util/fsutil"
)

const (
	headerComment = "# Auto-generated by combine datacard interface"
	separator     = "------------"
	headerWidth   = 10
)

var log = logger.NewSubLogger("datacard")

// Write validates the model and writes it to w in datacard format.
func (m *Model) Write(w io.Writer) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid datacard model: %w", err)
	}

	bw := bufio.NewWriter(w)
	lines := m.lines()
	for _, l := range lines {
		bw.WriteString(l)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// String returns the datacard text, or an empty string if the model is invalid.
func (m *Model) String() string {
	var b strings.Builder
	if err := m.Write(&b); err != nil {
		return ""
	}
	return b.String()
}

// WriteFile writes the datacard to path, replacing any existing file.
func (m *Model) WriteFile(path string) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid datacard model: %w", err)
	}
	if fsutil.Exists(path) {
		log.Info("Datacard already exists, recreating", "path", path)
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	if err := fsutil.EnsurePath(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *Model) lines() []string {
	var out []string
	out = append(out, m.header()...)
	out = append(out, separator)

	if len(m.Shapes) > 0 {
		for _, r := range m.Shapes {
			out = append(out, r.line())
		}
		out = append(out, separator)
	}

	obs := &table{}
	row := []string{"bin"}
	vals := []string{"observation"}
	for _, c := range m.Channels {
		row = append(row, c)
		vals = append(vals, formatFloat(m.Observations[c]))
	}
	obs.add(row...)
	obs.add(vals...)
	out = append(out, obs.render()...)
	out = append(out, separator)

	// Expectations and systematics share column widths.
	exp := &table{}
	bins := []string{"bin"}
	names := []string{"process"}
	ids := []string{"process"}
	rates := []string{"rate"}
	type column struct{ channel, process string }
	var columns []column
	for _, c := range m.Channels {
		for _, p := range m.Processes() {
			id, _ := m.ProcessID(p)
			columns = append(columns, column{c, p})
			bins = append(bins, c)
			names = append(names, p)
			ids = append(ids, strconv.Itoa(id))
			rates = append(rates, formatFloat(m.Rates[c][p]))
		}
	}
	exp.add(bins...)
	exp.add(names...)
	exp.add(ids...)
	exp.add(rates...)

	exp.separator()
	for _, s := range m.Systematics {
		row := []string{s.label()}
		for _, col := range columns {
			v, ok := s.Values[col.channel][col.process]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, v.String())
		}
		exp.add(row...)
	}
	out = append(out, exp.render()...)

	for _, r := range m.RateParams {
		out = append(out, r.line())
	}
	if a := m.AutoMCStats; a != nil {
		out = append(out, a.line())
	}
	return out
}

func (m *Model) header() []string {
	return []string{
		headerComment,
		alignLeft(fmt.Sprintf("imax %d", len(m.Channels)), headerWidth) + " number of channels",
		alignLeft(fmt.Sprintf("jmax %d", len(m.Processes())-1), headerWidth) + " number of backgrounds",
		alignLeft(fmt.Sprintf("kmax %d", len(m.Systematics)), headerWidth) + " number of nuisance parameters (sources of systematic uncertainties)",
	}
}

func (s Systematic) label() string {
	if s.Type == Gamma {
		return fmt.Sprintf("%s %s %d", s.Name, s.Type, s.N)
	}
	return fmt.Sprintf("%s %s", s.Name, s.Type)
}

func (r ShapeRule) line() string {
	parts := []string{"shapes", r.Process, r.Channel, r.File, r.Histogram}
	if r.SystHistogram != "" {
		parts = append(parts, r.SystHistogram)
	}
	return strings.Join(parts, " ")
}

func (r RateParam) line() string {
	parts := []string{r.Name, "rateParam", r.Channel, r.Process, formatFloat(r.Initial)}
	if r.Min != nil && r.Max != nil {
		parts = append(parts, fmt.Sprintf("[%s,%s]", formatFloat(*r.Min), formatFloat(*r.Max)))
	}
	return strings.Join(parts, " ")
}

func (a AutoMCStats) line() string {
	ch := a.Channel
	if ch == "" {
		ch = "*"
	}
	include := 0
	if a.IncludeSignal {
		include = 1
	}
	return fmt.Sprintf("%s autoMCStats %s %d %d", ch, formatFloat(a.Threshold), include, a.HistMode)
}

// alignLeft pads s with spaces to width. Longer strings are returned as is.
func alignLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// table lays out rows in fixed-width columns. Every column is as wide as
// its widest cell plus one space, trailing whitespace is trimmed.
type table struct {
	rows [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

// separator adds a separator line that doesn't affect column widths.
func (t *table) separator() {
	t.rows = append(t.rows, nil)
}

func (t *table) render() []string {
	var widths []int
	for _, row := range t.rows {
		for i, c := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	out := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		if row == nil {
			out = append(out, separator)
			continue
		}
		var b strings.Builder
		for i, c := range row {
			b.WriteString(alignLeft(c, widths[i]+1))
		}
		out = append(out, strings.TrimRight(b.String(), " "))
	}
	return out
}
