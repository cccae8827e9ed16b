// Package wavegrid generates and manipulates instrument wavelength grids.
//
// Grids are built at fixed resolving power R = lambda/dlambda with a chosen
// number of pixels per resolution element, giving logarithmically spaced
// pixels. The package also provides nearest-pixel search and relativistic
// Doppler shifting of sampled spectra.
package wavegrid

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-crlb/interp"
)

// Errors returned by grid construction and resampling.
var (
	ErrNonPositive  = errors.New("wavegrid: quantities must be > 0")
	ErrRangeOrder   = errors.New("wavegrid: start wavelength must not exceed end wavelength")
	ErrEmptyArray   = errors.New("wavegrid: empty array")
	ErrUnsortedGrid = errors.New("wavegrid: wavelength grid must be strictly increasing")
	ErrNegativeRV   = errors.New("wavegrid: radial velocity must be >= 0")
	ErrLengthMatch  = errors.New("wavegrid: wavelength and flux lengths differ")
)

// SpeedOfLight is c in km/s.
const SpeedOfLight = 2.99792458e5

// Template returns a wavelength grid spanning [start, end] at resolving
// power resolution with sampling pixels per resolution element. Pixel
// spacing grows geometrically:
//
//	lambda[i+1] = lambda[i] * (1 + 1/(R*sampling))
//
// The final pixel exceeds end unless truncate is set, in which case it is
// dropped.
func Template(start, end, resolution, sampling float64, truncate bool) ([]float64, error) {
	if start <= 0 || end <= 0 || resolution <= 0 || sampling <= 0 {
		return nil, ErrNonPositive
	}
	if start > end {
		return nil, ErrRangeOrder
	}

	grid := []float64{start}
	now := start
	for now < end {
		now += now / (resolution * sampling)
		grid = append(grid, now)
	}

	if truncate {
		grid = grid[:len(grid)-1]
	}
	return grid, nil
}

// Nearest returns the entry of array closest to value.
func Nearest(array []float64, value float64) (float64, error) {
	i, err := NearestIndex(array, value)
	if err != nil {
		return 0, err
	}
	return array[i], nil
}

// NearestIndex returns the index of the entry of array closest to value.
// Ties resolve to the lower index.
func NearestIndex(array []float64, value float64) (int, error) {
	if len(array) == 0 {
		return 0, ErrEmptyArray
	}

	best := 0
	bestDist := math.Abs(array[0] - value)
	for i := 1; i < len(array); i++ {
		if d := math.Abs(array[i] - value); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, nil
}

// DopplerShift applies a radial-velocity shift of rv km/s to a spectrum and
// resamples it onto its original wavelength grid. The relativistic Doppler
// factor sqrt((1-rv/c)/(1+rv/c)) shifts the grid; flux is then linearly
// interpolated back, holding the boundary samples at the grid ends.
func DopplerShift(wave, flux []float64, rv float64) ([]float64, error) {
	if len(wave) == 0 {
		return nil, ErrEmptyArray
	}
	if len(wave) != len(flux) {
		return nil, ErrLengthMatch
	}
	for i := 1; i < len(wave); i++ {
		if wave[i] <= wave[i-1] {
			return nil, ErrUnsortedGrid
		}
	}
	if rv < 0 {
		return nil, ErrNegativeRV
	}

	factor := math.Sqrt((1 - rv/SpeedOfLight) / (1 + rv/SpeedOfLight))
	shifted := make([]float64, len(wave))
	for i, w := range wave {
		shifted[i] = w * factor
	}

	return interp.Linear(wave, flux, shifted, interp.Clamp)
}
