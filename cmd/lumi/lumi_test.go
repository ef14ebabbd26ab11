package lumi

import (
	"bytes"
	"testing"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const byls = `#run:fill,ls,time,beamstatus,E(GeV),delivered(/ub),recorded(/ub),avgpu,source
316000:6613,1:1,05/29/18 21:19:44,STABLE BEAMS,6500,1403.52,1376.5,38.1,HFOC
316000:6613,2:2,05/29/18 21:20:07,STABLE BEAMS,6500,1402.11,1390.5,38,HFOC
`

func run(s *cmdutil.Setup, args ...string) (string, error) {
	cmd := NewCommand(s)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testSetup() *cmdutil.Setup {
	s := cmdutil.NewSetup()
	r := command.NewFakeRunner()
	r.Set(byls, "brilcalc", "lumi", "--byls", "-r", "316000", "--output-style", "csv")
	s.Runner = r
	return s
}

func TestByLumisection(t *testing.T) {
	out, err := run(testSetup(), "byls", "316000")
	require.NoError(t, err)
	assert.Equal(t, `LS     RECORDED  PU
1      1376.5    38.1
2      1390.5    38
total  2767
`, out)
}

func TestByLumisectionJSON(t *testing.T) {
	out, err := run(testSetup(), "byls", "316000", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1": {"lumi": 1376.5, "PU": 38.1}, "2": {"lumi": 1390.5, "PU": 38}}`, out)
}

func TestInvalidRun(t *testing.T) {
	_, err := run(testSetup(), "byls", "abc")
	assert.EqualError(t, err, `invalid run number "abc"`)
}
