// Package plot draws comparisons of ROOT histograms, with a ratio panel,
// from a declarative JSON description.
package plot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"sort"
	"strconv"

	"github.com/hashicorp/go-multierror"
)

// Colors maps the color names accepted in sources to their values.
var Colors = map[string]color.Color{
	"red":   color.RGBA{R: 153, A: 255},
	"blue":  color.RGBA{B: 153, A: 255},
	"green": color.RGBA{G: 153, A: 255},
	"black": color.Black,
}

// Spec is a set of comparison plots, keyed by target name.
type Spec struct {
	Targets map[string]*Target `json:"targets"`
}

// Target describes a single comparison plot.
type Target struct {
	OutputPath  string  `json:"outputPath"`
	Title       string  `json:"title"`
	XLabel      string  `json:"xLabel"`
	YLabel      string  `json:"yLabel"`
	LogY        Bool    `json:"logY"`
	DrawCMSLumi Bool    `json:"drawCMSLumi"`
	Legend      Legend  `json:"legend"`
	NormX       Number  `json:"normX"`
	PlotXMin    *Number `json:"plotXMin,omitempty"`
	PlotXMax    *Number `json:"plotXMax,omitempty"`
	PlotYMin    *Number `json:"plotYMin,omitempty"`
	PlotYMax    *Number `json:"plotYMax,omitempty"`
	// RatioDenominator is the label of the source all others are divided by.
	RatioDenominator string             `json:"ratioDenominatorLabel"`
	RatioYMin        *Number            `json:"ratioYMin,omitempty"`
	RatioYMax        *Number            `json:"ratioYMax,omitempty"`
	Sources          map[string]*Source `json:"sources"`
}

// Legend placement. Edges are fractions of the upper panel.
type Legend struct {
	NColumns   Number  `json:"nColumns"`
	EdgeLeft   *Number `json:"edgeLeft,omitempty"`
	EdgeBottom *Number `json:"edgeBottom,omitempty"`
	EdgeRight  *Number `json:"edgeRight,omitempty"`
	EdgeTop    *Number `json:"edgeTop,omitempty"`
}

// Source is a histogram in a ROOT file.
type Source struct {
	FilePath      string `json:"filePath"`
	HistogramName string `json:"histogramName"`
	Color         string `json:"color"`
	// Label is the legend entry, defaults to the source key.
	Label string `json:"label"`
}

// Number is a float64 that can be written as a JSON number or string.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// Bool is a bool that can be written as a JSON bool or "true"/"false".
type Bool bool

// UnmarshalJSON implements json.Unmarshaler.
func (v *Bool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		p, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", s)
		}
		*v = Bool(p)
		return nil
	}
	var p bool
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*v = Bool(p)
	return nil
}

// LoadSpec reads a JSON spec file.
func LoadSpec(path string) (*Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSpec(b)
}

// ParseSpec parses and validates a JSON spec.
func ParseSpec(b []byte) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parsing plot spec: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every target, reporting all problems at once.
func (s *Spec) Validate() error {
	var errs *multierror.Error
	if len(s.Targets) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("no targets"))
	}
	for _, name := range s.TargetNames() {
		t := s.Targets[name]
		if t == nil {
			errs = multierror.Append(errs, fmt.Errorf("target %s: empty", name))
			continue
		}
		if t.OutputPath == "" {
			errs = multierror.Append(errs, fmt.Errorf("target %s: outputPath is required", name))
		}
		if len(t.Sources) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("target %s: at least one source is required", name))
		}
		if _, ok := t.Sources[t.RatioDenominator]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("target %s: ratio denominator %q is not a source", name, t.RatioDenominator))
		}
		for _, label := range t.SourceLabels() {
			src := t.Sources[label]
			if src == nil {
				errs = multierror.Append(errs, fmt.Errorf("target %s: source %s: empty", name, label))
				continue
			}
			if src.FilePath == "" || src.HistogramName == "" {
				errs = multierror.Append(errs, fmt.Errorf("target %s: source %s: filePath and histogramName are required", name, label))
			}
			if _, ok := Colors[src.Color]; !ok {
				errs = multierror.Append(errs, fmt.Errorf("target %s: source %s: unknown color %q", name, label, src.Color))
			}
		}
		if t.PlotXMin != nil && t.PlotXMax != nil && *t.PlotXMin >= *t.PlotXMax {
			errs = multierror.Append(errs, fmt.Errorf("target %s: plotXMin must be smaller than plotXMax", name))
		}
		if t.PlotYMin != nil && t.PlotYMax != nil && *t.PlotYMin >= *t.PlotYMax {
			errs = multierror.Append(errs, fmt.Errorf("target %s: plotYMin must be smaller than plotYMax", name))
		}
		if t.LogY {
			if t.PlotYMin != nil && *t.PlotYMin <= 0 {
				errs = multierror.Append(errs, fmt.Errorf("target %s: plotYMin must be positive with logY, got %g", name, float64(*t.PlotYMin)))
			}
			if t.PlotYMax != nil && *t.PlotYMax <= 0 {
				errs = multierror.Append(errs, fmt.Errorf("target %s: plotYMax must be positive with logY, got %g", name, float64(*t.PlotYMax)))
			}
		}
	}
	return errs.ErrorOrNil()
}

// TargetNames returns the target names in sorted order.
func (s *Spec) TargetNames() []string {
	names := make([]string, 0, len(s.Targets))
	for n := range s.Targets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SourceLabels returns the source labels in sorted order.
func (t *Target) SourceLabels() []string {
	labels := make([]string, 0, len(t.Sources))
	for l := range t.Sources {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
