// Package stats finds zeros and minima of one dimensional functions.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
)

// ToleranceCoefficient scales the automatic zero tolerance and the slope step.
const ToleranceCoefficient = 0.001

// MaxIterations bounds the number of bisections.
const MaxIterations = 200

var (
	// ErrInvalidRange is returned when xmax is not strictly above xmin.
	ErrInvalidRange = errors.New("range needs to have min strictly less than max")
	// ErrFlat is returned when the function has the same value at both ends of the range.
	ErrFlat = errors.New("function has the same value at either endpoint of the range")
	// ErrNotMonotonic is returned when the midpoint is not between the endpoints.
	ErrNotMonotonic = errors.New("function does not appear to be monotonic in range")
	// ErrNoTolerance is returned when neither a tolerance nor automatic tolerance is given.
	ErrNoTolerance = errors.New("zero tolerance is not set and automatic tolerance is disabled")
	// ErrNoConvergence is returned after MaxIterations bisections.
	ErrNoConvergence = errors.New("no zero found within the maximum number of iterations")
)

// Func is a real function of one variable.
type Func func(x float64) float64

// RangeError adds the range being searched to an error.
type RangeError struct {
	Err        error
	XMin, XMax float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: [%g, %g]", e.Err, e.XMin, e.XMax)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}

// MonotonicZero bisects [xmin, xmax] until |f(mid)| is below tol. With auto
// set, tol is ToleranceCoefficient times |f(xmax) - f(xmin)|.
func MonotonicZero(f Func, xmin, xmax, tol float64, auto bool) (float64, error) {
	if !(xmax > xmin) {
		return 0, &RangeError{ErrInvalidRange, xmin, xmax}
	}
	fmin, fmax := f(xmin), f(xmax)
	if fmin == fmax {
		return 0, &RangeError{ErrFlat, xmin, xmax}
	}
	if auto {
		tol = ToleranceCoefficient * math.Abs(fmax-fmin)
	} else if tol <= 0 {
		return 0, ErrNoTolerance
	}

	for i := 0; i < MaxIterations; i++ {
		xmid := (xmin + xmax) / 2
		fmid := f(xmid)
		up1, up2 := fmid > fmin, fmax > fmid
		if up1 != up2 {
			return 0, &RangeError{ErrNotMonotonic, xmin, xmax}
		}
		if math.Abs(fmid) < tol {
			return xmid, nil
		}
		if up1 == (fmid > 0) {
			xmax, fmax = xmid, fmid
		} else {
			xmin, fmin = xmid, fmid
		}
	}
	return 0, ErrNoConvergence
}

// ConvexMinimum finds the minimum of a strictly convex function as the zero
// of its central difference slope.
func ConvexMinimum(f Func, xmin, xmax, tol float64, auto bool) (float64, error) {
	if !(xmax > xmin) {
		return 0, &RangeError{ErrInvalidRange, xmin, xmax}
	}
	settings := &fd.Settings{
		Formula: fd.Central,
		Step:    ToleranceCoefficient * (xmax - xmin),
	}
	slope := func(x float64) float64 {
		return fd.Derivative(f, x, settings)
	}
	return MonotonicZero(slope, xmin, xmax, tol, auto)
}

// GlobalMinimum scans 101 equidistant points and refines the best one with
// ConvexMinimum over 5% of the range around it.
func GlobalMinimum(f Func, xmin, xmax, tol float64, auto bool) (float64, error) {
	if !(xmax > xmin) {
		return 0, &RangeError{ErrInvalidRange, xmin, xmax}
	}
	best, bestX := math.Inf(1), xmin
	for i := 0; i <= 100; i++ {
		x := xmin + float64(i)/100*(xmax-xmin)
		if v := f(x); v < best {
			best, bestX = v, x
		}
	}
	half := 0.025 * (xmax - xmin)
	return ConvexMinimum(f, bestX-half, bestX+half, tol, auto)
}
