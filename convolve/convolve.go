// Package convolve degrades spectra to a target spectral resolution.
//
// Spectra are resampled onto a power-of-two logarithmic wavelength grid,
// where constant resolving power corresponds to a shift-invariant Gaussian
// kernel. The convolution is then a single FFT round trip with the Gaussian
// taper
//
//	T(s) = exp(-2 pi^2 sigma^2 s^2)
//
// applied in the frequency domain, after which the result is interpolated
// onto the requested output grid.
package convolve

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-crlb/interp"
)

// Errors returned by resolution convolution.
var (
	ErrEmptyInput      = errors.New("convolve: empty input")
	ErrLengthMismatch  = errors.New("convolve: wavelength and flux lengths differ")
	ErrNonPositive     = errors.New("convolve: resolution must be > 0")
	ErrUnsortedGrid    = errors.New("convolve: wavelength grids must be strictly increasing")
	ErrGridOutOfRange  = errors.New("convolve: output grid extends beyond input grid")
	ErrResolutionOrder = errors.New("convolve: cannot convolve to a higher resolution")
)

// sigmaToFWHM converts a Gaussian sigma to its full width at half maximum.
const sigmaToFWHM = 2.355

// padSigma is the kernel width multiple retained beyond the output grid when
// trimming the input, so boundary pixels see the full kernel support.
const padSigma = 20.0

// Config holds convolution settings.
type Config struct {
	// InputResolution is the resolving power the input spectrum already
	// has. Zero means the input is treated as infinitely sharp.
	InputResolution float64
}

// Option mutates a Config.
type Option func(*Config)

// WithInputResolution declares the resolving power of the input spectrum so
// only the residual broadening sqrt(out^-2 - in^-2) is applied.
func WithInputResolution(resolution float64) Option {
	return func(cfg *Config) {
		cfg.InputResolution = resolution
	}
}

// ToResolution convolves one spectrum down to the given resolving power and
// samples it onto outwave. The output grid must lie strictly inside the
// input grid.
func ToResolution(wave, flux []float64, resolution float64, outwave []float64, opts ...Option) ([]float64, error) {
	out, err := StackToResolution(wave, [][]float64{flux}, resolution, outwave, opts...)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// StackToResolution convolves a stack of spectra sharing one wavelength grid
// down to the given resolving power, reusing a single FFT plan and
// log-wavelength grid across the stack.
func StackToResolution(wave []float64, fluxes [][]float64, resolution float64, outwave []float64, opts ...Option) ([][]float64, error) {
	cfg := Config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if len(wave) == 0 || len(fluxes) == 0 || len(outwave) == 0 {
		return nil, ErrEmptyInput
	}
	for _, flux := range fluxes {
		if len(flux) != len(wave) {
			return nil, ErrLengthMismatch
		}
	}
	if resolution <= 0 {
		return nil, ErrNonPositive
	}
	if err := checkSorted(wave); err != nil {
		return nil, err
	}
	if err := checkSorted(outwave); err != nil {
		return nil, err
	}
	if wave[0] >= outwave[0] || wave[len(wave)-1] <= outwave[len(outwave)-1] {
		return nil, ErrGridOutOfRange
	}

	sigmaOut := 1 / (resolution * sigmaToFWHM)
	sigmaIn := 0.0
	if cfg.InputResolution != 0 {
		if cfg.InputResolution <= 0 {
			return nil, ErrNonPositive
		}
		if cfg.InputResolution < resolution {
			return nil, ErrResolutionOrder
		}
		sigmaIn = 1 / (cfg.InputResolution * sigmaToFWHM)
	}
	sigma := math.Sqrt(sigmaOut*sigmaOut - sigmaIn*sigmaIn)

	// Trim the input to the output span plus kernel support.
	width := resolution * sigmaToFWHM
	lo := outwave[0] * (1 - padSigma/width)
	hi := outwave[len(outwave)-1] * (1 + padSigma/width)
	start, end := 0, len(wave)
	for start < end && wave[start] <= lo {
		start++
	}
	for end > start && wave[end-1] >= hi {
		end--
	}
	if end-start < 2 {
		return nil, ErrGridOutOfRange
	}
	trimmed := wave[start:end]

	// Power-of-two log-wavelength grid spanning the trimmed range.
	nfft := nextPowerOf2(len(trimmed))
	lnMin := math.Log(trimmed[0])
	lnMax := math.Log(trimmed[len(trimmed)-1])
	dx := (lnMax - lnMin) / float64(nfft-1)
	logWave := make([]float64, nfft)
	for i := range logWave {
		logWave[i] = math.Exp(lnMin + float64(i)*dx)
	}

	plan, err := algofft.NewPlan64(nfft)
	if err != nil {
		return nil, fmt.Errorf("convolve: failed to create FFT plan: %w", err)
	}

	taper := gaussianTaper(nfft, dx, sigma)

	out := make([][]float64, len(fluxes))
	freq := make([]complex128, nfft)
	timeBuf := make([]complex128, nfft)
	for k, flux := range fluxes {
		resampled, err := interp.Linear(trimmed, flux[start:end], logWave, interp.Extrapolate)
		if err != nil {
			return nil, err
		}

		for i, v := range resampled {
			timeBuf[i] = complex(v, 0)
		}
		if err := plan.Forward(freq, timeBuf); err != nil {
			return nil, fmt.Errorf("convolve: forward FFT failed: %w", err)
		}
		for i := range freq {
			freq[i] *= complex(taper[i], 0)
		}
		if err := plan.Inverse(timeBuf, freq); err != nil {
			return nil, fmt.Errorf("convolve: inverse FFT failed: %w", err)
		}

		smoothed := make([]float64, nfft)
		for i := range smoothed {
			smoothed[i] = real(timeBuf[i])
		}

		out[k], err = interp.Linear(logWave, smoothed, outwave, interp.Extrapolate)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// gaussianTaper returns exp(-2 pi^2 sigma^2 s^2) over the full FFT frequency
// axis with sample spacing dx. The taper is even in s, so positive and
// mirrored negative frequencies share values.
func gaussianTaper(n int, dx, sigma float64) []float64 {
	taper := make([]float64, n)
	for k := range taper {
		f := float64(k)
		if k > n/2 {
			f = float64(k - n)
		}
		s := f / (float64(n) * dx)
		taper[k] = math.Exp(-2 * math.Pi * math.Pi * sigma * sigma * s * s)
	}
	return taper
}

func checkSorted(xs []float64) error {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return ErrUnsortedGrid
		}
	}
	return nil
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}
