package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range RootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, n := range []string{
		"bib", "das", "datacard", "eos", "examples", "hepdata", "hist", "launch",
		"lumi", "matrix-tests", "plot", "simulate-submit", "submit", "transfer", "version", "xsec",
	} {
		assert.Contains(t, names, n)
	}
}

func TestConfigFileAndFlags(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "hepkit.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("DAS:\n  Client: /opt/dasgoclient\nTransfer:\n  Workers: 3\n"), 0644))

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"hist", "poisson", "1", "--config", conf, "--transfer-workers", "5"})
	require.NoError(t, RootCmd.Execute())

	assert.Equal(t, "/opt/dasgoclient", setup.Conf.DAS.Client)
	assert.Equal(t, 5, setup.Conf.Transfer.Workers)
	assert.Contains(t, out.String(), "1: [")
}
