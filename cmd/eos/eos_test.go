package eos

import (
	"bytes"
	"testing"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	s := cmdutil.NewSetup()
	s.Conf.EOS.Prefix = "root://cmseos.fnal.gov"
	r := command.NewFakeRunner()
	r.Set(`drwxr-xr-x   1 user  zh  4.0k Mar 12 10:01 skim
-rw-r--r--   2 user  zh  100M Mar 12 10:01 signal.root
`, "eos", "root://cmseos.fnal.gov", "ls", "-a", "-lh", "/store/user/sel")
	r.Set(`-rw-r--r--   2 user  zh  12M Mar 12 10:01 control.root
-rw-r--r--   2 user  zh  12M Mar 12 10:01 control_old.root
`, "eos", "root://cmseos.fnal.gov", "ls", "-a", "-lh", "/store/user/sel/skim")
	s.Runner = r

	cmd := NewCommand(s)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"ls", "/store/user/sel", "-p", "--veto", "_old"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "root://cmseos.fnal.gov/store/user/sel/skim/control.root\nroot://cmseos.fnal.gov/store/user/sel/signal.root\n", out.String())
}
