package hepdata

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/hepkit/hepkit/examples"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHEPData(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "limits.json")
	require.NoError(t, os.WriteFile(input, []byte(examples.Examples()["hepdata"]), 0644))
	output := filepath.Join(dir, "out", "table.yaml")

	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-i", input, "-o", output,
		"--independent", "gluinoMass,neutralinoMass", "--dependent", "crossSectionLimit"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Wrote "+output+"\n", out.String())

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	var doc struct {
		Independent []struct {
			Header struct{ Name string } `json:"header"`
		} `json:"independent_variables"`
		Dependent []struct {
			Values []map[string]interface{} `json:"values"`
		} `json:"dependent_variables"`
	}
	require.NoError(t, yaml.Unmarshal(b, &doc))
	require.Len(t, doc.Independent, 2)
	assert.Equal(t, "neutralinoMass", doc.Independent[1].Header.Name)
	require.Len(t, doc.Dependent, 1)
	assert.Len(t, doc.Dependent[0].Values, 2)
}

func TestHEPDataMissingVariable(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "limits.json")
	require.NoError(t, os.WriteFile(input, []byte(examples.Examples()["hepdata"]), 0644))

	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-i", input, "-o", filepath.Join(dir, "t.yaml"), "--dependent", "y"})
	assert.ErrorContains(t, cmd.Execute(), `variable "y" not found in input`)
}
