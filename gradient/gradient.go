// Package gradient provides per-label flux derivatives of stellar spectra.
//
// A gradient matrix holds, for every label of a reference star, the partial
// derivative of normalized flux with respect to that label at each wavelength
// pixel of one instrument. Matrices are computed by finite differences from a
// stack of synthetic spectra evaluated at perturbed label values, and are the
// primary input to Fisher-information accumulation.
package gradient

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-crlb/label"
)

// Errors returned by gradient construction and computation.
var (
	ErrNilLabels     = errors.New("gradient: nil label set")
	ErrNoPixels      = errors.New("gradient: spectra must have at least one pixel")
	ErrPixelCount    = errors.New("gradient: spectra differ in pixel count")
	ErrSpectrumCount = errors.New("gradient: spectrum count inconsistent with scheme and label count")
	ErrNoReference   = errors.New("gradient: asymmetric scheme requires the reference spectrum at index 0")
	ErrValueShape    = errors.New("gradient: label value table shape mismatch")
)

// Scheme selects the finite-difference stencil used by Compute.
type Scheme int

const (
	// Symmetric differences each label between its +delta and -delta
	// spectra: (f(x+d) - f(x-d)) / (2d).
	Symmetric Scheme = iota

	// Asymmetric differences each label between the reference spectrum and
	// one perturbed spectrum: (f(x) - f(x+d)) / (-d).
	Asymmetric
)

// Matrix is an immutable label-by-pixel matrix of flux derivatives.
//
// Rows are ordered by the label set; storage is flat row-major. A Matrix may
// be a masked view of another Matrix, in which case the two share backing
// storage and the masked rows read as all-zero.
type Matrix struct {
	labels *label.Set
	pixels int
	data   []float64
	masked []bool // nil when no rows are masked
}

// New creates a zero Matrix over labels with the given pixel count.
func New(labels *label.Set, pixels int) (*Matrix, error) {
	if labels == nil {
		return nil, ErrNilLabels
	}
	if pixels <= 0 {
		return nil, ErrNoPixels
	}

	return &Matrix{
		labels: labels,
		pixels: pixels,
		data:   make([]float64, labels.Len()*pixels),
	}, nil
}

// Labels returns the row label set.
func (m *Matrix) Labels() *label.Set { return m.labels }

// Pixels returns the number of wavelength pixels per row.
func (m *Matrix) Pixels() int { return m.pixels }

// Row returns the derivative row for label index i, or nil if the row is
// masked. The returned slice aliases the matrix storage and must not be
// modified; a nil row reads as all-zero.
func (m *Matrix) Row(i int) []float64 {
	if m.masked != nil && m.masked[i] {
		return nil
	}
	return m.data[i*m.pixels : (i+1)*m.pixels]
}

// RowByName returns the derivative row for the named label.
// Missing labels yield ErrUnknown from the label set.
func (m *Matrix) RowByName(name string) ([]float64, error) {
	i, err := m.labels.Index(name)
	if err != nil {
		return nil, err
	}
	return m.Row(i), nil
}

// SetRow copies values into the row for the named label.
func (m *Matrix) SetRow(name string, values []float64) error {
	i, err := m.labels.Index(name)
	if err != nil {
		return err
	}
	if len(values) != m.pixels {
		return fmt.Errorf("gradient: row %q has %d pixels, want %d: %w",
			name, len(values), m.pixels, ErrPixelCount)
	}

	copy(m.data[i*m.pixels:(i+1)*m.pixels], values)
	return nil
}

// Masked returns a view of m in which the rows for names read as all-zero.
// The view shares storage with m; neither is modified by creating it.
// Names absent from the label set are ignored, matching the convention that
// a missing label carries zero sensitivity.
func (m *Matrix) Masked(names ...string) *Matrix {
	masked := make([]bool, m.labels.Len())
	if m.masked != nil {
		copy(masked, m.masked)
	}
	for _, name := range names {
		if i, err := m.labels.Index(name); err == nil {
			masked[i] = true
		}
	}

	return &Matrix{labels: m.labels, pixels: m.pixels, data: m.data, masked: masked}
}

// ValueTable holds the label values at which a spectrum stack was evaluated:
// one row per label, one column per spectrum, in stack order.
type ValueTable struct {
	labels *label.Set
	data   [][]float64
}

// NewValueTable builds a ValueTable for labels from rows, which must contain
// one equally sized row per label.
func NewValueTable(labels *label.Set, rows [][]float64) (*ValueTable, error) {
	if labels == nil {
		return nil, ErrNilLabels
	}
	if len(rows) != labels.Len() {
		return nil, fmt.Errorf("gradient: %d value rows for %d labels: %w",
			len(rows), labels.Len(), ErrValueShape)
	}
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			return nil, fmt.Errorf("gradient: value row %q has %d columns, want %d: %w",
				labels.Name(i), len(row), len(rows[0]), ErrValueShape)
		}
	}

	data := make([][]float64, len(rows))
	for i, row := range rows {
		data[i] = append([]float64(nil), row...)
	}
	return &ValueTable{labels: labels, data: data}, nil
}

// Labels returns the table's label set.
func (t *ValueTable) Labels() *label.Set { return t.labels }

// Spectra returns the number of value columns (spectra) in the table.
func (t *ValueTable) Spectra() int { return len(t.data[0]) }

// Value returns the value of label i for spectrum column j.
func (t *ValueTable) Value(i, j int) float64 { return t.data[i][j] }

// Compute derives a gradient Matrix by finite differences over a spectrum
// stack.
//
// For Symmetric, the stack must hold exactly 2*nlabels perturbed spectra as
// (+delta, -delta) pairs in label order, preceded by the reference spectrum
// when refIncluded is true. For Asymmetric, the reference must be at index 0
// and be followed by either nlabels or 2*nlabels perturbed spectra; in the
// latter case every second spectrum is used.
//
// Steps for Teff and rv are divided by their natural scales (100 and 10)
// before dividing. A zero step is replaced by -Inf, collapsing that label's
// derivatives to signed zero so the label surfaces later as numerically
// unconstrained rather than failing here.
func Compute(spectra [][]float64, values *ValueTable, scheme Scheme, refIncluded bool) (*Matrix, error) {
	if values == nil || values.labels == nil {
		return nil, ErrNilLabels
	}
	if len(spectra) == 0 || len(spectra[0]) == 0 {
		return nil, ErrNoPixels
	}

	pixels := len(spectra[0])
	for i, s := range spectra {
		if len(s) != pixels {
			return nil, fmt.Errorf("gradient: spectrum %d has %d pixels, want %d: %w",
				i, len(s), pixels, ErrPixelCount)
		}
	}
	if values.Spectra() != len(spectra) {
		return nil, fmt.Errorf("gradient: %d value columns for %d spectra: %w",
			values.Spectra(), len(spectra), ErrValueShape)
	}

	labels := values.labels
	n := labels.Len()

	m, err := New(labels, pixels)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case Symmetric:
		skip := 0
		if refIncluded {
			skip = 1
		}
		if len(spectra)-skip != 2*n {
			return nil, fmt.Errorf("gradient: %d perturbed spectra, want %d for symmetric differences: %w",
				len(spectra)-skip, 2*n, ErrSpectrumCount)
		}
		for i := 0; i < n; i++ {
			plus, minus := skip+2*i, skip+2*i+1
			step := values.Value(i, plus) - values.Value(i, minus)
			differenceRow(m.Row(i), spectra[plus], spectra[minus], step, labels.Name(i))
		}

	case Asymmetric:
		if !refIncluded {
			return nil, ErrNoReference
		}
		var stride int
		switch len(spectra) - 1 {
		case n:
			stride = 1
		case 2 * n:
			stride = 2
		default:
			return nil, fmt.Errorf("gradient: %d perturbed spectra, want %d or %d for asymmetric differences: %w",
				len(spectra)-1, n, 2*n, ErrSpectrumCount)
		}
		for i := 0; i < n; i++ {
			perturbed := 1 + stride*i
			step := values.Value(i, 0) - values.Value(i, perturbed)
			differenceRow(m.Row(i), spectra[0], spectra[perturbed], step, labels.Name(i))
		}

	default:
		return nil, fmt.Errorf("gradient: unknown scheme %d: %w", scheme, ErrSpectrumCount)
	}

	return m, nil
}

// differenceRow writes (a - b) / step into dst, applying the label's natural
// step scale first. A zero step becomes -Inf.
func differenceRow(dst, a, b []float64, step float64, name string) {
	step /= label.StepScale(name)
	if step == 0 {
		step = math.Inf(-1)
	}

	for i := range dst {
		dst[i] = a[i] - b[i]
	}
	vecmath.ScaleBlockInPlace(dst, 1/step)
}
