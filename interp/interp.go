// Package interp provides piecewise-linear interpolation onto arbitrary
// wavelength grids.
//
// Two endpoint policies are offered: Clamp holds the boundary sample values
// outside the source grid, Extrapolate continues the boundary segments
// linearly. Both require a strictly increasing source grid.
package interp

import "errors"

// Errors returned by interpolation.
var (
	ErrEmptyGrid      = errors.New("interp: source grid is empty")
	ErrLengthMismatch = errors.New("interp: grid and sample lengths differ")
	ErrUnsortedGrid   = errors.New("interp: source grid must be strictly increasing")
)

// Boundary selects how evaluation points outside the source grid are handled.
type Boundary int

const (
	// Clamp holds the first/last sample value beyond the grid ends.
	Clamp Boundary = iota

	// Extrapolate continues the first/last grid segment linearly.
	Extrapolate
)

// Linear evaluates the piecewise-linear interpolant of (xs, ys) at every
// point of targets and returns the results in target order. targets need not
// be sorted.
func Linear(xs, ys, targets []float64, boundary Boundary) ([]float64, error) {
	if len(xs) == 0 {
		return nil, ErrEmptyGrid
	}
	if len(xs) != len(ys) {
		return nil, ErrLengthMismatch
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, ErrUnsortedGrid
		}
	}

	out := make([]float64, len(targets))
	for i, x := range targets {
		out[i] = at(xs, ys, x, boundary)
	}
	return out, nil
}

// at evaluates the interpolant at a single point.
func at(xs, ys []float64, x float64, boundary Boundary) float64 {
	n := len(xs)
	if n == 1 {
		return ys[0]
	}

	// Segment search: first index with xs[k] >= x.
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if xs[mid] < x {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	switch {
	case lo == 0:
		if boundary == Clamp || x == xs[0] {
			return ys[0]
		}
		lo = 1
	case lo == n:
		if boundary == Clamp {
			return ys[n-1]
		}
		lo = n - 1
	}

	x0, x1 := xs[lo-1], xs[lo]
	y0, y1 := ys[lo-1], ys[lo]
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}
