// Package instrument models spectrograph configurations for simulated
// observations.
//
// A Config fixes an instrument's resolving power, wavelength span, and
// sampling, from which its observed wavelength grid follows, and carries the
// per-pixel signal-to-noise ratio of one simulated exposure. The SNR vector
// is pixel-aligned with the instrument's gradient data during Fisher
// accumulation.
package instrument

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-crlb/wavegrid"
)

// Errors returned by instrument configuration.
var (
	ErrEmptyName   = errors.New("instrument: empty instrument name")
	ErrNonPositive = errors.New("instrument: quantities must be > 0")
	ErrSNRLength   = errors.New("instrument: SNR length does not match pixel count")
	ErrNegativeSNR = errors.New("instrument: SNR values must be non-negative")
)

// Config describes one spectrograph arm and the noise of one simulated
// exposure through it.
type Config struct {
	name       string
	resolution float64
	sampling   float64
	wave       []float64
	snr        []float64
}

// New creates a Config named name with resolving power resolution, sampling
// pixels per resolution element, and a wavelength grid covering
// [start, end]. The grid is truncated at end, and the SNR starts at zero
// until set.
func New(name string, resolution, sampling, start, end float64) (*Config, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	wave, err := wavegrid.Template(start, end, resolution, sampling, true)
	if err != nil {
		return nil, fmt.Errorf("instrument: %q: %w", name, err)
	}

	return &Config{
		name:       name,
		resolution: resolution,
		sampling:   sampling,
		wave:       wave,
		snr:        make([]float64, len(wave)),
	}, nil
}

// Name returns the instrument name.
func (c *Config) Name() string { return c.name }

// Resolution returns the resolving power R.
func (c *Config) Resolution() float64 { return c.resolution }

// Sampling returns the pixels per resolution element.
func (c *Config) Sampling() float64 { return c.sampling }

// Pixels returns the number of wavelength pixels.
func (c *Config) Pixels() int { return len(c.wave) }

// Wavelength returns a copy of the observed wavelength grid.
func (c *Config) Wavelength() []float64 {
	return append([]float64(nil), c.wave...)
}

// SNR returns a copy of the per-pixel signal-to-noise vector.
func (c *Config) SNR() []float64 {
	return append([]float64(nil), c.snr...)
}

// SetSNR sets the per-pixel signal-to-noise vector, which must match the
// pixel count and be non-negative throughout.
func (c *Config) SetSNR(values []float64) error {
	if len(values) != len(c.wave) {
		return fmt.Errorf("instrument: %q has %d pixels, got %d SNR values: %w",
			c.name, len(c.wave), len(values), ErrSNRLength)
	}
	for _, v := range values {
		if v < 0 {
			return fmt.Errorf("instrument: %q: %w", c.name, ErrNegativeSNR)
		}
	}

	copy(c.snr, values)
	return nil
}

// SetConstantSNR sets every pixel's signal-to-noise to value.
func (c *Config) SetConstantSNR(value float64) error {
	if value < 0 {
		return fmt.Errorf("instrument: %q: %w", c.name, ErrNegativeSNR)
	}
	for i := range c.snr {
		c.snr[i] = value
	}
	return nil
}

// KpcToModulus converts a distance in kpc to a distance modulus.
func KpcToModulus(d float64) (float64, error) {
	if d <= 0 {
		return 0, ErrNonPositive
	}
	return 5 * math.Log10(d*1e3/10), nil
}

// ModulusToKpc converts a distance modulus to a distance in kpc.
func ModulusToKpc(mu float64) float64 {
	return 1e-2 * math.Pow(10, mu/5)
}
