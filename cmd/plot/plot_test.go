package plot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
)

func writeROOT(t *testing.T, path string, scale float64) {
	h := hbook.NewH1D(10, 0, 10)
	for i := 0; i < 10; i++ {
		h.Fill(float64(i)+0.5, scale*float64(20-i))
	}
	f, err := groot.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Put("h_st", rhist.NewH1DFrom(h)))
	require.NoError(t, f.Close())
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	writeROOT(t, filepath.Join(dir, "signal.root"), 1)
	writeROOT(t, filepath.Join(dir, "control.root"), 2)

	spec := fmt.Sprintf(`{"targets": {
  "st": {
    "outputPath": "st.png",
    "normX": 1.5,
    "ratioDenominatorLabel": "signal",
    "sources": {
      "signal": {"filePath": %q, "histogramName": "h_st", "color": "blue"},
      "control": {"filePath": %q, "histogramName": "h_st", "color": "red"}
    }
  },
  "other": {
    "outputPath": "other.png",
    "normX": 1.5,
    "ratioDenominatorLabel": "signal",
    "sources": {"signal": {"filePath": %q, "histogramName": "h_st", "color": "black"}}
  }
}}`, filepath.Join(dir, "signal.root"), filepath.Join(dir, "control.root"), filepath.Join(dir, "signal.root"))
	input := filepath.Join(dir, "plot.json")
	require.NoError(t, os.WriteFile(input, []byte(spec), 0644))

	out := filepath.Join(dir, "plots")
	cmd := NewCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"compare", "-i", input, "-o", out, "-t", "st"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, filepath.Join(out, "st.png")+"\n", stdout.String())
	assert.FileExists(t, filepath.Join(out, "st.png"))
	assert.NoFileExists(t, filepath.Join(out, "other.png"))

	cmd = NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"compare", "-i", input, "-t", "missing"})
	assert.EqualError(t, cmd.Execute(), "no target named missing in "+input)
}
