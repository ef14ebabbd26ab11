// Package hist holds helpers over go-hep histograms: loading them from
// ROOT files, common ranges, ratios, normalization, dumping 2D contents
// and Poisson confidence intervals.
package hist

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
	"gonum.org/v1/gonum/stat/distuv"
)

// OneSigma is the probability content of a one sigma gaussian interval.
const OneSigma = 0.682689492

// LoadH1D reads the 1D histogram name from a ROOT file.
// name may contain directories, e.g. "plots/h_pt".
func LoadH1D(path, name string) (*hbook.H1D, error) {
	obj, err := get(path, name)
	if err != nil {
		return nil, err
	}
	h, ok := obj.(rhist.H1)
	if !ok {
		return nil, fmt.Errorf("%s:%s is a %T, not a 1D histogram", path, name, obj)
	}
	return rootcnv.H1D(h), nil
}

// LoadH2D reads the 2D histogram name from a ROOT file.
func LoadH2D(path, name string) (*hbook.H2D, error) {
	obj, err := get(path, name)
	if err != nil {
		return nil, err
	}
	h, ok := obj.(rhist.H2)
	if !ok {
		return nil, fmt.Errorf("%s:%s is a %T, not a 2D histogram", path, name, obj)
	}
	return rootcnv.H2D(h), nil
}

func get(path, name string) (interface{}, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	obj, err := riofs.Dir(f).Get(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", name, path, err)
	}
	return obj, nil
}

// MaxOf returns the largest bin content of the histograms. A running value
// of zero counts as unset.
func MaxOf(hs ...*hbook.H1D) float64 {
	var max float64
	for _, h := range hs {
		v := maxBin(h)
		if max == 0 || v > max {
			max = v
		}
	}
	return max
}

// MinOf returns the smallest bin content of the histograms. A running value
// of zero counts as unset.
func MinOf(hs ...*hbook.H1D) float64 {
	var min float64
	for _, h := range hs {
		v := minBin(h)
		if min == 0 || v < min {
			min = v
		}
	}
	return min
}

// CommonYRange returns the y range showing all the histograms: [0, 1.1*max].
func CommonYRange(hs ...*hbook.H1D) (float64, float64) {
	return 0, 1.1 * MaxOf(hs...)
}

func maxBin(h *hbook.H1D) float64 {
	bins := h.Binning.Bins
	if len(bins) == 0 {
		return 0
	}
	max := bins[0].SumW()
	for _, b := range bins[1:] {
		max = math.Max(max, b.SumW())
	}
	return max
}

func minBin(h *hbook.H1D) float64 {
	bins := h.Binning.Bins
	if len(bins) == 0 {
		return 0
	}
	min := bins[0].SumW()
	for _, b := range bins[1:] {
		min = math.Min(min, b.SumW())
	}
	return min
}

// Ratio returns num/den bin by bin. Bins with an empty denominator have a
// ratio of 0. The y error is sqrt(en^2 + (ed*r)^2)/den and the x error spans
// the bin.
func Ratio(num, den *hbook.H1D) (*hbook.S2D, error) {
	if num.Len() != den.Len() {
		return nil, fmt.Errorf("ratio of histograms with different binnings: %d and %d bins", num.Len(), den.Len())
	}
	pts := make([]hbook.Point2D, num.Len())
	for i, nb := range num.Binning.Bins {
		db := den.Binning.Bins[i]
		half := 0.5 * nb.XWidth()
		p := hbook.Point2D{
			X:    nb.XMid(),
			ErrX: hbook.Range{Min: half, Max: half},
		}
		if d := db.SumW(); d > 0 {
			r := nb.SumW() / d
			e := math.Sqrt(math.Pow(nb.ErrW(), 2)+math.Pow(db.ErrW()*r, 2)) / d
			p.Y = r
			p.ErrY = hbook.Range{Min: e, Max: e}
		}
		pts[i] = p
	}
	return hbook.NewS2D(pts...), nil
}

// IntegralWidth returns the sum of bin contents times bin widths.
func IntegralWidth(h *hbook.H1D) float64 {
	var sum float64
	for _, b := range h.Binning.Bins {
		sum += b.SumW() * b.XWidth()
	}
	return sum
}

// Normalize scales h to unit area.
func Normalize(h *hbook.H1D) error {
	norm := IntegralWidth(h)
	if norm == 0 {
		return fmt.Errorf("no entries in histogram %q to normalize", h.Name())
	}
	h.Scale(1 / norm)
	return nil
}

// SumOfBinContents returns the sum of all bin contents, including the
// underflow and overflow.
func SumOfBinContents(h *hbook.H1D) float64 {
	sum := h.Binning.Outflows[0].SumW() + h.Binning.Outflows[1].SumW()
	for _, b := range h.Binning.Bins {
		sum += b.SumW()
	}
	return sum
}

// PoissonInterval returns the central confidence interval, with
// probability content cl, on the mean of a Poisson distribution from which
// n events were observed.
func PoissonInterval(cl float64, n int) (lower, upper float64) {
	alpha := 1 - cl
	if n > 0 {
		lower = distuv.Gamma{Alpha: float64(n), Beta: 1}.Quantile(alpha / 2)
	}
	upper = distuv.Gamma{Alpha: float64(n + 1), Beta: 1}.Quantile(1 - alpha/2)
	return lower, upper
}
