package datacard

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/go-test/deep"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleModel(t *testing.T) *Model {
	m, err := NewModel([]string{"ch1", "ch2"}, map[string]float64{"ch1": 10, "ch2": 12})
	require.NoError(t, err)
	m.AddSignal("sig")
	m.AddBackground("bkg")
	m.SetRate("ch1", "sig", 1.2)
	m.SetRate("ch1", "bkg", 8.3)
	m.SetRate("ch2", "sig", 0.9)
	m.SetRate("ch2", "bkg", 7.1)
	for _, c := range m.Channels {
		for _, p := range m.Processes() {
			m.SetEffect("lumi", c, p, Symmetric(1.025))
		}
	}
	m.AddSystematic(Systematic{
		Name: "stat",
		Type: Gamma,
		N:    15,
		Values: map[string]map[string]Value{
			"ch1": {"bkg": Symmetric(0.55)},
		},
	})
	m.SetEffect("jes", "ch2", "sig", Asymmetric(0.95, 1.05))
	return m
}

const exampleCard = `# Auto-generated by combine datacard interface
imax 2     number of channels
jmax 1     number of backgrounds
kmax 3     number of nuisance parameters (sources of systematic uncertainties)
------------
bin         ch1 ch2
observation 10  12
------------
bin         ch1   ch1   ch2       ch2
process     sig   bkg   sig       bkg
process     0     1     0         1
rate        1.2   8.3   0.9       7.1
------------
lumi lnN    1.025 1.025 1.025     1.025
stat gmN 15 -     0.55  -         -
jes lnN     -     -     0.95/1.05 -
`

func TestWriteCountingCard(t *testing.T) {
	m := exampleModel(t)

	var b strings.Builder
	require.NoError(t, m.Write(&b))
	if b.String() != exampleCard {
		t.Errorf("unexpected datacard:\n%v", diff.LineDiff(exampleCard, b.String()))
	}
}

func TestWriteShapesAndExtras(t *testing.T) {
	lo, hi := 0.0, 5.0
	m := &Model{
		Channels:     []string{"SR"},
		Observations: map[string]float64{"SR": 0},
		Signals:      []string{"ggH", "qqH"},
		Backgrounds:  []string{"DY"},
		Rates: map[string]map[string]float64{
			"SR": {"ggH": 0, "qqH": 0.25, "DY": 1000000},
		},
		Systematics: []Systematic{{
			Name:   "pdf",
			Type:   Shape,
			Values: map[string]map[string]Value{"SR": {"DY": Symmetric(1)}},
		}},
		Shapes: []ShapeRule{{
			Process: "*", Channel: "*", File: "shapes.root",
			Histogram: "$CHANNEL/$PROCESS", SystHistogram: "$CHANNEL/$PROCESS_$SYSTEMATIC",
		}},
		RateParams:  []RateParam{{Name: "dynorm", Channel: "SR", Process: "DY", Initial: 1, Min: &lo, Max: &hi}},
		AutoMCStats: &AutoMCStats{Threshold: 10},
	}

	expect := `# Auto-generated by combine datacard interface
imax 1     number of channels
jmax 2     number of backgrounds
kmax 1     number of nuisance parameters (sources of systematic uncertainties)
------------
shapes * * shapes.root $CHANNEL/$PROCESS $CHANNEL/$PROCESS_$SYSTEMATIC
------------
bin         SR
observation 0
------------
bin       SR  SR   SR
process   ggH qqH  DY
process   0   -1   1
rate      0   0.25 1e+06
------------
pdf shape -   -    1
dynorm rateParam SR DY 1 [0,5]
* autoMCStats 10 0 0
`
	var b strings.Builder
	require.NoError(t, m.Write(&b))
	if b.String() != expect {
		t.Errorf("unexpected datacard:\n%v", diff.LineDiff(expect, b.String()))
	}
}

func TestWriteWithoutSystematics(t *testing.T) {
	m, err := NewModel([]string{"ch1"}, map[string]float64{"ch1": 3})
	require.NoError(t, err)
	m.AddSignal("sig")
	m.AddBackground("bkg")
	m.SetRate("ch1", "sig", 1.5)
	m.SetRate("ch1", "bkg", 7)
	m.AutoMCStats = &AutoMCStats{Threshold: 0}

	expect := `# Auto-generated by combine datacard interface
imax 1     number of channels
jmax 1     number of backgrounds
kmax 0     number of nuisance parameters (sources of systematic uncertainties)
------------
bin         ch1
observation 3
------------
bin     ch1 ch1
process sig bkg
process 0   1
rate    1.5 7
------------
* autoMCStats 0 0 0
`
	var b strings.Builder
	require.NoError(t, m.Write(&b))
	if b.String() != expect {
		t.Errorf("unexpected datacard:\n%v", diff.LineDiff(expect, b.String()))
	}
}

func TestNewModelChecksObservationKeys(t *testing.T) {
	_, err := NewModel([]string{"a", "b"}, map[string]float64{"a": 1, "c": 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channels [a, b], observations [a, c]")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	m := &Model{
		Channels:     []string{"ch1", "ch1", "bad name"},
		Observations: map[string]float64{"ch1": -1, "bad name": 0},
		Backgrounds:  []string{"bkg"},
		Rates: map[string]map[string]float64{
			"ch1": {"bkg": -2, "ghost": 1},
		},
		Systematics: []Systematic{
			{Name: "lumi", Type: LogNormal, Values: map[string]map[string]Value{"ch1": {"bkg": Symmetric(0)}}},
			{Name: "lumi", Type: "weird"},
		},
	}

	err := m.Validate()
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)

	msgs := []string{}
	for _, e := range merr.Errors {
		msgs = append(msgs, e.Error())
	}
	for _, want := range []string{
		`duplicate channel "ch1"`,
		`invalid channel name "bad name"`,
		`negative observation -1 in channel "ch1"`,
		"at least one signal process is required",
		`negative rate -2 for process "bkg" in channel "ch1"`,
		`rate given for unknown process "ghost" in channel "ch1"`,
		`no rates for channel "bad name"`,
		`duplicate systematic "lumi"`,
		`systematic "lumi" has unknown type "weird"`,
		`systematic "lumi", channel "ch1", process "bkg": lnN values must be positive, got 0`,
	} {
		assert.Contains(t, msgs, want)
	}

	var b strings.Builder
	assert.Error(t, m.Write(&b))
	assert.Empty(t, b.String())
}

func TestValidateRejectsNonFinite(t *testing.T) {
	m, err := NewModel([]string{"ch1"}, map[string]float64{"ch1": math.NaN()})
	require.NoError(t, err)
	m.AddSignal("sig")
	m.AddBackground("bkg")
	m.SetRate("ch1", "sig", math.NaN())
	m.SetRate("ch1", "bkg", math.Inf(1))
	m.AddSystematic(Systematic{Name: "lumi", Type: LogNormal})
	m.SetEffect("lumi", "ch1", "sig", Symmetric(math.NaN()))

	err = m.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`observation NaN in channel "ch1" is not a finite number`,
		`rate NaN for process "sig" in channel "ch1" is not a finite number`,
		`rate +Inf for process "bkg" in channel "ch1" is not a finite number`,
		`systematic "lumi", channel "ch1", process "sig": values must be finite numbers, got NaN`,
	} {
		assert.Contains(t, err.Error(), want)
	}

	var b strings.Builder
	assert.Error(t, m.Write(&b))
	assert.Empty(t, b.String())
}

func TestProcessIDs(t *testing.T) {
	m := &Model{Signals: []string{"a", "b", "c"}, Backgrounds: []string{"x", "y"}}
	got := map[string]int{}
	for _, p := range m.Processes() {
		id, ok := m.ProcessID(p)
		require.True(t, ok)
		got[p] = id
	}
	expect := map[string]int{"a": 0, "b": -1, "c": -2, "x": 1, "y": 2}
	if d := deep.Equal(got, expect); d != nil {
		t.Error(d)
	}
	_, ok := m.ProcessID("z")
	assert.False(t, ok)
}

func TestWriteFileRecreates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cards", "card.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than the card itself"+strings.Repeat("x", 2000)), 0644))

	m := exampleModel(t)
	require.NoError(t, m.WriteFile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, exampleCard, string(b))
}

func TestLoadModel(t *testing.T) {
	src := `
channels: [ch1, ch2]
observations: {ch1: 10, ch2: 12}
signals: [sig]
backgrounds: [bkg]
rates:
  ch1: {sig: 1.2, bkg: 8.3}
  ch2: {sig: 0.9, bkg: 7.1}
systematics:
  - name: lumi
    type: lnN
    values:
      ch1: {sig: 1.025, bkg: 1.025}
      ch2: {sig: 1.025, bkg: 1.025}
  - name: stat
    type: gmN
    n: 15
    values:
      ch1: {bkg: 0.55}
  - name: jes
    type: lnN
    values:
      ch2: {sig: 0.95/1.05}
`
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	m, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, exampleCard, m.String())
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("0.9/1.1")
	require.NoError(t, err)
	assert.Equal(t, Asymmetric(0.9, 1.1), v)

	v, err = ParseValue("1.05")
	require.NoError(t, err)
	assert.Equal(t, Symmetric(1.05), v)

	for _, bad := range []string{"", "a", "1/2/3", "1/b", "NaN", "Inf", "0.9/+Inf", "nan/1.1"} {
		_, err := ParseValue(bad)
		assert.Error(t, err, bad)
	}
}
