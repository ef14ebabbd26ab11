package hist

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
)

func h1(contents ...float64) *hbook.H1D {
	h := hbook.NewH1D(len(contents), 0, float64(len(contents)))
	for i, c := range contents {
		if c != 0 {
			h.Fill(float64(i)+0.5, c)
		}
	}
	return h
}

func TestMaxMin(t *testing.T) {
	a := h1(1, 5, 3)
	b := h1(2, 7, 4)
	assert.Equal(t, 7.0, MaxOf(a, b))
	assert.Equal(t, 1.0, MinOf(a, b))

	lo, hi := CommonYRange(a, b)
	assert.Equal(t, 0.0, lo)
	assert.InDelta(t, 7.7, hi, 1e-12)

	// zero is "unset": an empty minimum bin is skipped by the next histogram
	assert.Equal(t, 2.0, MinOf(h1(0, 1), h1(2, 3)))
}

func TestRatio(t *testing.T) {
	num := h1(4, 9, 1)
	den := h1(2, 3, 0)
	r, err := Ratio(num, den)
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())

	x, y := r.XY(0)
	assert.Equal(t, 0.5, x)
	assert.Equal(t, 2.0, y)
	// single fills: en = 4, ed = 2
	assert.InDelta(t, math.Sqrt(16+4*4)/2, r.Point(0).ErrY.Max, 1e-12)
	assert.Equal(t, 0.5, r.Point(0).ErrX.Min)

	_, y = r.XY(2)
	assert.Equal(t, 0.0, y)

	_, err = Ratio(h1(1, 2), den)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	h := hbook.NewH1D(4, 0, 2)
	h.Fill(0.1, 3)
	h.Fill(1.9, 1)
	require.NoError(t, Normalize(h))
	assert.InDelta(t, 1.0, IntegralWidth(h), 1e-12)

	assert.Error(t, Normalize(hbook.NewH1D(4, 0, 2)))
}

func TestSumOfBinContents(t *testing.T) {
	h := h1(1, 2)
	h.Fill(-1, 10)
	h.Fill(5, 100)
	assert.Equal(t, 113.0, SumOfBinContents(h))
}

func TestPoissonInterval(t *testing.T) {
	lo, hi := PoissonInterval(OneSigma, 0)
	assert.Equal(t, 0.0, lo)
	assert.InDelta(t, 1.841, hi, 1e-3)

	lo, hi = PoissonInterval(OneSigma, 10)
	assert.InDelta(t, 6.891, lo, 1e-3)
	assert.InDelta(t, 14.267, hi, 1e-3)
}

func h2() *hbook.H2D {
	h := hbook.NewH2D(2, 0, 2, 2, 0, 20)
	h.Fill(0.5, 5, 3)
	h.Fill(1.5, 15, 4e-7)
	h.Fill(1.5, 5, 1)
	return h
}

func TestExtractH2D(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultExtractOptions()
	opts.XTitle = "mass"
	opts.YTitle = "ctau"
	require.NoError(t, ExtractH2D(h2(), &buf, opts))
	assert.Equal(t, `# mass    ctau    Quantity
0.5    5.0    3.000e+00
1.5    5.0    1.000e+00
`, buf.String())

	buf.Reset()
	opts.OnlyNonzero = false
	opts.PrintRangeX = true
	opts.Formats = [3]string{"%.0f", "%.0f", "%.1f"}
	require.NoError(t, ExtractH2D(h2(), &buf, opts))
	assert.Equal(t, `# mass    ctau    Quantity
0    1    5    3.0
0    1    15    0.0
1    2    5    1.0
1    2    15    0.0
`, buf.String())
}

func TestContentAt(t *testing.T) {
	c, e, err := ContentAt(h2(), 0.2, 9, true)
	require.NoError(t, err)
	assert.Equal(t, 3.0, c)
	assert.Equal(t, 3.0, e)

	_, _, err = ContentAt(h2(), 3, 9, true)
	assert.EqualError(t, err, "given coordinates: (3, 9) are not inside the 2D range of the histogram axes: (0, 0) ---> (2, 20)")

	c, _, err = ContentAt(h2(), 3, 9, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, c)
}
