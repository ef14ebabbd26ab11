package hepdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const input = `{
  "x": {"units": "GeV", "data": [[1000, 1050, []], [1050, 1100, []]]},
  "z1": {"units": null, "data": [[0.01, []], [0.02, []]]},
  "z2": {"units": "pbinv", "data": [
    [0.01, [["unc1", 0.005, 0.005]]],
    [0.02, [["unc1", 0.005, 0.004], ["unc2", 0.01, 0.01]]]
  ]}
}`

func load(t *testing.T) map[string]Variable {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(input), 0644))
	data, err := Load(path)
	require.NoError(t, err)
	return data
}

func TestLoad(t *testing.T) {
	data := load(t)
	require.Len(t, data, 3)
	assert.Nil(t, data["z1"].Units)
	assert.Equal(t, "GeV", *data["x"].Units)
	assert.Equal(t, Row{Binned: true, Low: 1000, High: 1050, Errors: []Error{}}, data["x"].Rows[0])
	assert.Equal(t, []Error{{"unc1", 0.005, 0.004}, {"unc2", 0.01, 0.01}}, data["z2"].Rows[1].Errors)
}

func TestLoadBadRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x": {"data": [[1]]}}`), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "expected [low, high, errors] or [value, errors]")
}

func TestSave(t *testing.T) {
	doc, err := Build(load(t), []string{"x"}, []string{"z1", "z2"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "table.yaml")
	require.NoError(t, Save(path, doc))
	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, yaml.Unmarshal(b, &got))
	expected := map[string]interface{}{
		"independent_variables": []interface{}{
			map[string]interface{}{
				"header": map[string]interface{}{"name": "x", "units": "GeV"},
				"values": []interface{}{
					map[string]interface{}{"low": 1000.0, "high": 1050.0},
					map[string]interface{}{"low": 1050.0, "high": 1100.0},
				},
			},
		},
		"dependent_variables": []interface{}{
			map[string]interface{}{
				"header": map[string]interface{}{"name": "z1"},
				"values": []interface{}{
					map[string]interface{}{"value": 0.01},
					map[string]interface{}{"value": 0.02},
				},
			},
			map[string]interface{}{
				"header": map[string]interface{}{"name": "z2", "units": "pbinv"},
				"values": []interface{}{
					map[string]interface{}{
						"value": 0.01,
						"errors": []interface{}{
							map[string]interface{}{"asymerror": map[string]interface{}{"plus": 0.005, "minus": 0.005}, "label": "unc1"},
						},
					},
					map[string]interface{}{
						"value": 0.02,
						"errors": []interface{}{
							map[string]interface{}{"asymerror": map[string]interface{}{"plus": 0.005, "minus": 0.004}, "label": "unc1"},
							map[string]interface{}{"asymerror": map[string]interface{}{"plus": 0.01, "minus": 0.01}, "label": "unc2"},
						},
					},
				},
			},
		},
	}
	if diff := deep.Equal(got, expected); diff != nil {
		t.Error(diff)
	}
}

func TestBuildMissing(t *testing.T) {
	_, err := Build(load(t), []string{"x", "y"}, []string{"w"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `variable "y" not found in input`)
	assert.Contains(t, err.Error(), `variable "w" not found in input`)
}
