// Package datacard writes statistical model descriptions in the text
// datacard format read by the combine fitting tool.
package datacard

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ghodss/yaml"
)

// SystematicType is the pdf of a nuisance parameter.
type SystematicType string

// Nuisance parameter types understood by combine.
const (
	LogNormal  SystematicType = "lnN"
	LogUniform SystematicType = "lnU"
	Gamma      SystematicType = "gmN"
	Shape      SystematicType = "shape"
	ShapeN2    SystematicType = "shapeN2"
)

func (t SystematicType) valid() bool {
	switch t {
	case LogNormal, LogUniform, Gamma, Shape, ShapeN2:
		return true
	}
	return false
}

// Model is an in-memory counting experiment: channels with observed
// counts, expected yields per process and nuisance parameters.
type Model struct {
	// Channels are the signal bin labels, in output order.
	Channels     []string           `json:"channels"`
	Observations map[string]float64 `json:"observations"`
	// Signals get process ids 0, -1, -2, ... and Backgrounds 1, 2, ...
	Signals     []string                      `json:"signals"`
	Backgrounds []string                      `json:"backgrounds"`
	Rates       map[string]map[string]float64 `json:"rates"`
	Systematics []Systematic                  `json:"systematics,omitempty"`
	Shapes      []ShapeRule                   `json:"shapes,omitempty"`
	RateParams  []RateParam                   `json:"rateParams,omitempty"`
	AutoMCStats *AutoMCStats                  `json:"autoMCStats,omitempty"`
}

// Systematic is one nuisance parameter row.
type Systematic struct {
	Name string         `json:"name"`
	Type SystematicType `json:"type"`
	// N is the number of events in the control region, gmN only.
	N int `json:"n,omitempty"`
	// Values maps channel -> process -> effect. Missing entries are
	// written as "-".
	Values map[string]map[string]Value `json:"values"`
}

// Value is the effect of a nuisance on one process in one channel.
// Down is zero for a symmetric effect.
type Value struct {
	Down float64
	Up   float64
}

// Symmetric returns a symmetric Value.
func Symmetric(v float64) Value {
	return Value{Up: v}
}

// Asymmetric returns a Value with separate down and up effects.
func Asymmetric(down, up float64) Value {
	return Value{Down: down, Up: up}
}

// IsAsymmetric reports whether v has a separate down effect.
func (v Value) IsAsymmetric() bool {
	return v.Down != 0
}

func (v Value) String() string {
	if v.IsAsymmetric() {
		return formatFloat(v.Down) + "/" + formatFloat(v.Up)
	}
	return formatFloat(v.Up)
}

// MarshalJSON writes the value in its datacard form, e.g. 1.05 or "0.95/1.05".
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsAsymmetric() {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Up)
}

// UnmarshalJSON accepts a number, a "down/up" string or {"down": d, "up": u}.
func (v *Value) UnmarshalJSON(b []byte) error {
	var num float64
	if err := json.Unmarshal(b, &num); err == nil {
		*v = Symmetric(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := ParseValue(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}

	var obj struct {
		Down float64 `json:"down"`
		Up   float64 `json:"up"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("invalid systematic value %s", string(b))
	}
	*v = Value{Down: obj.Down, Up: obj.Up}
	return nil
}

// ParseValue parses "1.05" or "0.95/1.05".
func ParseValue(s string) (Value, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	switch len(parts) {
	case 1:
		up, err := strconv.ParseFloat(parts[0], 64)
		if err != nil || !finite(up) {
			return Value{}, fmt.Errorf("invalid systematic value %q", s)
		}
		return Symmetric(up), nil
	case 2:
		down, err1 := strconv.ParseFloat(parts[0], 64)
		up, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || !finite(down) || !finite(up) {
			return Value{}, fmt.Errorf("invalid systematic value %q", s)
		}
		return Asymmetric(down, up), nil
	}
	return Value{}, fmt.Errorf("invalid systematic value %q", s)
}

// ShapeRule maps a process and channel to histograms in a ROOT file.
// "*" matches any process or channel.
type ShapeRule struct {
	Process       string `json:"process"`
	Channel       string `json:"channel"`
	File          string `json:"file"`
	Histogram     string `json:"histogram"`
	SystHistogram string `json:"systHistogram,omitempty"`
}

// RateParam adds a freely floating normalization for a process.
type RateParam struct {
	Name    string   `json:"name"`
	Channel string   `json:"channel"`
	Process string   `json:"process"`
	Initial float64  `json:"initial"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// AutoMCStats enables bin-by-bin statistical uncertainties for shape analyses.
type AutoMCStats struct {
	// Channel defaults to "*".
	Channel       string  `json:"channel,omitempty"`
	Threshold     float64 `json:"threshold"`
	IncludeSignal bool    `json:"includeSignal,omitempty"`
	HistMode      int     `json:"histMode,omitempty"`
}

// NewModel returns a Model for the given channels. The keys of observed
// must be exactly the channels.
func NewModel(channels []string, observed map[string]float64) (*Model, error) {
	if err := checkSameKeys(channels, observed); err != nil {
		return nil, err
	}
	m := &Model{
		Channels:     append([]string(nil), channels...),
		Observations: map[string]float64{},
		Rates:        map[string]map[string]float64{},
	}
	for k, v := range observed {
		m.Observations[k] = v
	}
	return m, nil
}

// AddSignal appends a signal process.
func (m *Model) AddSignal(name string) {
	m.Signals = append(m.Signals, name)
}

// AddBackground appends a background process.
func (m *Model) AddBackground(name string) {
	m.Backgrounds = append(m.Backgrounds, name)
}

// SetRate sets the expected yield of process in channel.
func (m *Model) SetRate(channel, process string, rate float64) {
	if m.Rates == nil {
		m.Rates = map[string]map[string]float64{}
	}
	if m.Rates[channel] == nil {
		m.Rates[channel] = map[string]float64{}
	}
	m.Rates[channel][process] = rate
}

// AddSystematic appends a nuisance parameter.
func (m *Model) AddSystematic(s Systematic) {
	m.Systematics = append(m.Systematics, s)
}

// SetEffect sets the effect of the named nuisance on process in channel,
// adding an lnN nuisance if it doesn't exist yet.
func (m *Model) SetEffect(name, channel, process string, v Value) {
	var s *Systematic
	for i := range m.Systematics {
		if m.Systematics[i].Name == name {
			s = &m.Systematics[i]
			break
		}
	}
	if s == nil {
		m.Systematics = append(m.Systematics, Systematic{Name: name, Type: LogNormal})
		s = &m.Systematics[len(m.Systematics)-1]
	}
	if s.Values == nil {
		s.Values = map[string]map[string]Value{}
	}
	if s.Values[channel] == nil {
		s.Values[channel] = map[string]Value{}
	}
	s.Values[channel][process] = v
}

// Processes returns signals followed by backgrounds.
func (m *Model) Processes() []string {
	out := make([]string, 0, len(m.Signals)+len(m.Backgrounds))
	out = append(out, m.Signals...)
	return append(out, m.Backgrounds...)
}

// ProcessID returns the combine process index: 0, -1, -2, ... for
// signals and 1, 2, ... for backgrounds.
func (m *Model) ProcessID(process string) (int, bool) {
	for i, s := range m.Signals {
		if s == process {
			return -i, true
		}
	}
	for i, b := range m.Backgrounds {
		if b == process {
			return i + 1, true
		}
	}
	return 0, false
}

// LoadModel reads a Model from a YAML or JSON file.
func LoadModel(path string) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	m := &Model{}
	if err := yaml.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("parsing model %s: %w", path, err)
	}
	return m, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
