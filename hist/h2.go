package hist

import (
	"fmt"
	"io"
	"math"
	"sort"

	"go-hep.org/x/hep/hbook"
)

// ExtractOptions control ExtractH2D.
type ExtractOptions struct {
	XTitle, YTitle string
	// Quantity names the bin content column. Defaults to "Quantity".
	Quantity string
	// Formats are the printf verbs for x, y and the content.
	// Defaults to "%.1f", "%.1f", "%.3e".
	Formats [3]string
	// OnlyNonzero skips bins with content below 1e-6 of the maximum.
	OnlyNonzero bool
	// PrintRangeX prints the bin edges instead of the bin center.
	PrintRangeX bool
	PrintRangeY bool
}

// DefaultExtractOptions returns the options used by the hist extract command.
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		XTitle:      "x",
		YTitle:      "y",
		Quantity:    "Quantity",
		Formats:     [3]string{"%.1f", "%.1f", "%.3e"},
		OnlyNonzero: true,
	}
}

// ExtractH2D writes the contents of h as text, one line per bin, x major.
// The first line holds the column titles.
func ExtractH2D(h *hbook.H2D, w io.Writer, opts ExtractOptions) error {
	defaults := DefaultExtractOptions()
	for i, f := range opts.Formats {
		if f == "" {
			opts.Formats[i] = defaults.Formats[i]
		}
	}
	if opts.Quantity == "" {
		opts.Quantity = defaults.Quantity
	}

	bins := sortedBins(h)
	var max float64
	for i, b := range bins {
		if i == 0 || b.SumW() > max {
			max = b.SumW()
		}
	}
	tolerance := 1e-6 * max

	if _, err := fmt.Fprintf(w, "# %s    %s    %s\n", opts.XTitle, opts.YTitle, opts.Quantity); err != nil {
		return err
	}
	fx, fy, fq := opts.Formats[0], opts.Formats[1], opts.Formats[2]
	for _, b := range bins {
		content := b.SumW()
		if opts.OnlyNonzero && !(content > tolerance) {
			continue
		}
		var line string
		if opts.PrintRangeX {
			line = fmt.Sprintf(fx+"    "+fx+"    ", b.XMin(), b.XMax())
		} else {
			line = fmt.Sprintf(fx+"    ", b.XMid())
		}
		if opts.PrintRangeY {
			line += fmt.Sprintf(fy+"    "+fy+"    "+fq+"\n", b.YMin(), b.YMax(), content)
		} else {
			line += fmt.Sprintf(fy+"    "+fq+"\n", b.YMid(), content)
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

func sortedBins(h *hbook.H2D) []hbook.Bin2D {
	bins := append([]hbook.Bin2D(nil), h.Binning.Bins...)
	sort.SliceStable(bins, func(i, j int) bool {
		if bins[i].XMid() != bins[j].XMid() {
			return bins[i].XMid() < bins[j].XMid()
		}
		return bins[i].YMid() < bins[j].YMid()
	})
	return bins
}

// OutOfRangeError is returned by ContentAt for coordinates outside the
// histogram axes.
type OutOfRangeError struct {
	X, Y                   float64
	XMin, XMax, YMin, YMax float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("given coordinates: (%g, %g) are not inside the 2D range of the histogram axes: (%g, %g) ---> (%g, %g)",
		e.X, e.Y, e.XMin, e.YMin, e.XMax, e.YMax)
}

// ContentAt returns the content and uncertainty of the bin containing (x, y).
// Outside the axes the result is 0 unless strict is set, in which case an
// *OutOfRangeError is returned.
func ContentAt(h *hbook.H2D, x, y float64, strict bool) (content, uncertainty float64, err error) {
	for _, b := range h.Binning.Bins {
		if x >= b.XMin() && x < b.XMax() && y >= b.YMin() && y < b.YMax() {
			return b.SumW(), math.Sqrt(b.SumW2()), nil
		}
	}
	if strict {
		return 0, 0, &OutOfRangeError{
			X: x, Y: y,
			XMin: h.XMin(), XMax: h.XMax(),
			YMin: h.YMin(), YMax: h.YMax(),
		}
	}
	return 0, 0, nil
}
