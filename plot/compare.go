package plot

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/hepkit/hepkit/hist"
	"github.com/hepkit/hepkit/logger"
	"github.com/hepkit/hepkit/util/fsutil"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var log = logger.NewSubLogger("plot")

// Lumi is the annotation drawn with the CMS label.
const Lumi = "137.2 fb^{-1} (13 TeV)"

// Canvas size.
var (
	Width  = 20 * vg.Centimeter
	Height = 15 * vg.Centimeter
)

// Loader reads a 1D histogram from a file.
type Loader func(path, name string) (*hbook.H1D, error)

// Comparer draws the targets of a spec.
type Comparer struct {
	// Load defaults to hist.LoadH1D.
	Load      Loader
	OutputDir string
}

// Run draws every target, in sorted order, and returns the written files.
func (c *Comparer) Run(s *Spec) ([]string, error) {
	if err := fsutil.EnsureDir(c.OutputDir); err != nil {
		return nil, err
	}
	var out []string
	for _, name := range s.TargetNames() {
		p, err := c.Target(name, s.Targets[name])
		if err != nil {
			return out, fmt.Errorf("target %s: %w", name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Target draws a single comparison and returns the written file.
func (c *Comparer) Target(name string, t *Target) (string, error) {
	log.Info("Saving comparisons", "target", name)
	load := c.Load
	if load == nil {
		load = hist.LoadH1D
	}

	scaled := map[string]*hbook.H1D{}
	for _, label := range t.SourceLabels() {
		src := t.Sources[label]
		log.Debug("Fetching histogram", "label", label, "file", src.FilePath, "name", src.HistogramName)
		h, err := load(src.FilePath, src.HistogramName)
		if err != nil {
			return "", err
		}
		if err := ScaleAt(h, float64(t.NormX)); err != nil {
			return "", fmt.Errorf("source %s: %w", label, err)
		}
		scaled[label] = h
	}

	top := hplot.New()
	top.Title.Text = t.Title
	if t.DrawCMSLumi {
		top.Title.Text = "CMS    " + Lumi
		if t.Title != "" {
			top.Title.Text = t.Title + "    " + top.Title.Text
		}
	}
	top.Y.Label.Text = t.YLabel
	if top.Y.Label.Text == "" {
		top.Y.Label.Text = "A.U."
	}
	if t.LogY {
		top.Y.Scale = plot.LogScale{}
		top.Y.Tick.Marker = plot.LogTicks{}
	}
	top.Legend.Top = true

	bottom := hplot.New()
	bottom.X.Label.Text = t.XLabel
	bottom.Y.Label.Text = "ratio"
	bottom.Y.Min, bottom.Y.Max = 0, 5
	if t.RatioYMin != nil {
		bottom.Y.Min = float64(*t.RatioYMin)
	}
	if t.RatioYMax != nil {
		bottom.Y.Max = float64(*t.RatioYMax)
	}

	den := scaled[t.RatioDenominator]
	for _, label := range t.SourceLabels() {
		src := t.Sources[label]
		col := Colors[src.Color]

		h := hplot.NewH1D(scaled[label], hplot.WithYErrBars(true), hplot.WithLogY(bool(t.LogY)))
		h.LineStyle.Color = col
		h.LineStyle.Width = vg.Points(2)
		top.Add(h)
		legend := src.Label
		if legend == "" {
			legend = label
		}
		top.Legend.Add(legend, h)

		if label == t.RatioDenominator {
			continue
		}
		r, err := RatioPoints(scaled[label], den)
		if err != nil {
			return "", err
		}
		rp := hplot.NewS2D(r, hplot.WithYErrBars(true))
		rp.GlyphStyle.Color = col
		if rp.YErrs != nil {
			rp.YErrs.LineStyle.Color = col
		}
		bottom.Add(rp)
	}

	one := plotter.NewFunction(func(float64) float64 { return 1 })
	one.LineStyle.Color = Colors[t.Sources[t.RatioDenominator].Color]
	one.LineStyle.Width = vg.Points(2)
	bottom.Add(one)

	xmin, xmax := den.XMin(), den.XMax()
	if t.PlotXMin != nil {
		xmin = float64(*t.PlotXMin)
	}
	if t.PlotXMax != nil {
		xmax = float64(*t.PlotXMax)
	}
	top.X.Min, top.X.Max = xmin, xmax
	bottom.X.Min, bottom.X.Max = xmin, xmax
	if t.PlotYMin != nil {
		top.Y.Min = float64(*t.PlotYMin)
	}
	if t.PlotYMax != nil {
		top.Y.Max = float64(*t.PlotYMax)
	}

	rp := &hplot.RatioPlot{
		Ratio:  0.25,
		Top:    top,
		Bottom: bottom,
	}
	path := filepath.Join(c.OutputDir, t.OutputPath)
	if err := fsutil.EnsurePath(path); err != nil {
		return "", err
	}
	if err := hplot.Save(rp, Width, Height, path); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	log.Info("Saved comparison", "path", path)
	return path, nil
}

// ScaleAt scales h so the bin containing x has content 1.
func ScaleAt(h *hbook.H1D, x float64) error {
	for _, b := range h.Binning.Bins {
		if x >= b.XMin() && x < b.XMax() {
			if b.SumW() == 0 {
				return fmt.Errorf("normalization bin at x=%g of %q is empty", x, h.Name())
			}
			h.Scale(1 / b.SumW())
			return nil
		}
	}
	return fmt.Errorf("normalization point x=%g is outside the range of %q: [%g, %g)", x, h.Name(), h.XMin(), h.XMax())
}

// RatioPoints returns num/den per bin with relative errors added in
// quadrature. Bins where either content is zero are 1 ± 0.
func RatioPoints(num, den *hbook.H1D) (*hbook.S2D, error) {
	if num.Len() != den.Len() {
		return nil, fmt.Errorf("ratio of histograms with different binnings: %d and %d bins", num.Len(), den.Len())
	}
	pts := make([]hbook.Point2D, num.Len())
	for i, nb := range num.Binning.Bins {
		db := den.Binning.Bins[i]
		half := 0.5 * nb.XWidth()
		p := hbook.Point2D{X: nb.XMid(), Y: 1, ErrX: hbook.Range{Min: half, Max: half}}
		n, d := nb.SumW(), db.SumW()
		if n != 0 && d != 0 {
			r := n / d
			e := r * math.Sqrt(math.Pow(nb.ErrW()/n, 2)+math.Pow(db.ErrW()/d, 2))
			p.Y = r
			p.ErrY = hbook.Range{Min: e, Max: e}
		}
		pts[i] = p
	}
	return hbook.NewS2D(pts...), nil
}
