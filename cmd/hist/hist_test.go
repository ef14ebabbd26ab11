package hist

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
)

func run(args ...string) (string, error) {
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeH2(t *testing.T) string {
	h := hbook.NewH2D(2, 0, 2, 2, 0, 20)
	h.Fill(0.5, 5, 3)
	h.Fill(1.5, 5, 1)
	p := filepath.Join(t.TempDir(), "eff.root")
	f, err := groot.Create(p)
	require.NoError(t, err)
	require.NoError(t, f.Put("eff", rhist.NewH2DFrom(h)))
	require.NoError(t, f.Close())
	return p
}

func TestExtract(t *testing.T) {
	p := writeH2(t)
	out, err := run("extract", p, "eff", "--x-title", "mass", "--y-title", "ctau", "--format", "%.1f")
	require.NoError(t, err)
	assert.Equal(t, `# mass    ctau    Quantity
0.5    5.0    3.0
1.5    5.0    1.0
`, out)

	_, err = run("extract", p, "missing")
	assert.Error(t, err)
}

func TestContent(t *testing.T) {
	p := writeH2(t)
	out, err := run("content", p, "eff", "0.2", "9")
	require.NoError(t, err)
	assert.Equal(t, "3 +- 3\n", out)

	out, err = run("content", p, "eff", "5", "9")
	require.NoError(t, err)
	assert.Equal(t, "0 +- 0\n", out)

	_, err = run("content", p, "eff", "5", "9", "--strict")
	assert.ErrorContains(t, err, "not inside the 2D range")
}

func TestPoisson(t *testing.T) {
	out, err := run("poisson", "0", "10")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "0: [0.0000, 1.8410]\n10: [6.89"), out)
	assert.Contains(t, out, ", 14.26")

	_, err = run("poisson", "x")
	assert.Error(t, err)
}
