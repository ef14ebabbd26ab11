package datacard

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Validate checks the model is consistent. All problems are reported
// together in a *multierror.Error.
func (m *Model) Validate() error {
	var errs *multierror.Error
	add := func(format string, args ...interface{}) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}

	channels := map[string]bool{}
	if len(m.Channels) == 0 {
		add("no channels")
	}
	for _, c := range m.Channels {
		if !validName(c) {
			add("invalid channel name %q", c)
		}
		if channels[c] {
			add("duplicate channel %q", c)
		}
		channels[c] = true
	}

	if err := checkSameKeys(m.Channels, m.Observations); err != nil {
		errs = multierror.Append(errs, err)
	}
	for _, c := range m.Channels {
		obs, ok := m.Observations[c]
		switch {
		case !ok:
		case !finite(obs):
			add("observation %v in channel %q is not a finite number", obs, c)
		case obs < 0:
			add("negative observation %v in channel %q", obs, c)
		}
	}

	if len(m.Signals) == 0 {
		add("at least one signal process is required")
	}
	processes := map[string]bool{}
	for _, p := range m.Processes() {
		if !validName(p) {
			add("invalid process name %q", p)
		}
		if processes[p] {
			add("duplicate process %q", p)
		}
		processes[p] = true
	}

	for _, c := range sortedKeys(m.Rates) {
		if !channels[c] {
			add("rates given for unknown channel %q", c)
		}
	}
	for _, c := range m.Channels {
		rates, ok := m.Rates[c]
		if !ok {
			add("no rates for channel %q", c)
			continue
		}
		for _, p := range m.Processes() {
			r, ok := rates[p]
			switch {
			case !ok:
				add("no rate for process %q in channel %q", p, c)
			case !finite(r):
				add("rate %v for process %q in channel %q is not a finite number", r, p, c)
			case r < 0:
				add("negative rate %v for process %q in channel %q", r, p, c)
			}
		}
		for _, p := range sortedKeys(rates) {
			if !processes[p] {
				add("rate given for unknown process %q in channel %q", p, c)
			}
		}
	}

	names := map[string]bool{}
	for _, s := range m.Systematics {
		if !validName(s.Name) {
			add("invalid systematic name %q", s.Name)
		}
		if names[s.Name] {
			add("duplicate systematic %q", s.Name)
		}
		names[s.Name] = true
		if !s.Type.valid() {
			add("systematic %q has unknown type %q", s.Name, s.Type)
			continue
		}
		if s.Type == Gamma && s.N < 0 {
			add("systematic %q: gmN requires N >= 0", s.Name)
		}
		for _, c := range sortedKeys(s.Values) {
			if !channels[c] {
				add("systematic %q references unknown channel %q", s.Name, c)
				continue
			}
			for _, p := range sortedKeys(s.Values[c]) {
				if !processes[p] {
					add("systematic %q references unknown process %q in channel %q", s.Name, p, c)
					continue
				}
				if err := checkValue(s, s.Values[c][p]); err != nil {
					add("systematic %q, channel %q, process %q: %v", s.Name, c, p, err)
				}
			}
		}
	}

	for _, r := range m.Shapes {
		if r.Process != "*" && !processes[r.Process] {
			add("shapes line references unknown process %q", r.Process)
		}
		if r.Channel != "*" && !channels[r.Channel] {
			add("shapes line references unknown channel %q", r.Channel)
		}
		if r.File == "" || r.Histogram == "" {
			add("shapes line for %s/%s needs a file and a histogram pattern", r.Channel, r.Process)
		}
	}

	for _, r := range m.RateParams {
		if !validName(r.Name) {
			add("invalid rateParam name %q", r.Name)
		}
		if r.Channel != "*" && !channels[r.Channel] {
			add("rateParam %q references unknown channel %q", r.Name, r.Channel)
		}
		if r.Process != "*" && !processes[r.Process] {
			add("rateParam %q references unknown process %q", r.Name, r.Process)
		}
		if (r.Min == nil) != (r.Max == nil) {
			add("rateParam %q needs both a minimum and a maximum", r.Name)
		} else if r.Min != nil && *r.Min >= *r.Max {
			add("rateParam %q range [%v,%v] is empty", r.Name, *r.Min, *r.Max)
		}
	}

	if a := m.AutoMCStats; a != nil {
		if a.Channel != "" && a.Channel != "*" && !channels[a.Channel] {
			add("autoMCStats references unknown channel %q", a.Channel)
		}
		if a.Threshold < 0 {
			add("autoMCStats threshold must be >= 0")
		}
	}

	return errs.ErrorOrNil()
}

func checkValue(s Systematic, v Value) error {
	if !finite(v.Down) || !finite(v.Up) {
		return fmt.Errorf("values must be finite numbers, got %s", v)
	}
	switch s.Type {
	case LogNormal, LogUniform:
		if v.Up <= 0 || v.Down < 0 {
			return fmt.Errorf("%s values must be positive, got %s", s.Type, v)
		}
	case Gamma:
		if v.IsAsymmetric() {
			return fmt.Errorf("gmN values cannot be asymmetric")
		}
		if v.Up < 0 {
			return fmt.Errorf("gmN values must be >= 0, got %s", v)
		}
	case Shape, ShapeN2:
		if v.IsAsymmetric() || v.Up <= 0 {
			return fmt.Errorf("shape values must be a positive scale, got %s", v)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// checkSameKeys returns an error unless the keys of m are exactly channels.
func checkSameKeys(channels []string, m map[string]float64) error {
	want := map[string]bool{}
	for _, c := range channels {
		want[c] = true
	}
	same := len(want) == len(m)
	if same {
		for k := range m {
			if !want[k] {
				same = false
				break
			}
		}
	}
	if same {
		return nil
	}
	return fmt.Errorf(
		"observations must be given for exactly the channels: channels [%s], observations [%s]",
		strings.Join(channels, ", "), strings.Join(sortedKeys(m), ", "),
	)
}

func validName(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n") && !strings.HasPrefix(s, "#")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
