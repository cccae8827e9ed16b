// Package fisher assembles Fisher information matrices from spectral
// gradients and instrument noise models.
//
// The Fisher information of a label pair (i, j) for one instrument is the
// SNR²-weighted inner product of their gradient rows:
//
//	F[i][j] = sum_p G[i][p] * SNR[p]^2 * G[j][p]
//
// Information is additive across independent instruments, so observations
// are concatenated along the pixel axis before accumulation. Accumulation
// proceeds in pixel chunks to bound peak memory for the dense outer product.
package fisher

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-crlb/gradient"
	"github.com/cwbudde/algo-crlb/label"
)

// Errors returned by Fisher matrix assembly.
var (
	ErrNilReference      = errors.New("fisher: nil reference")
	ErrNoObservations    = errors.New("fisher: no observations")
	ErrUnknownInstrument = errors.New("fisher: reference has no gradients for instrument")
	ErrPixelCount        = errors.New("fisher: SNR length does not match gradient pixel count")
	ErrNegativeSNR       = errors.New("fisher: SNR values must be non-negative")
	ErrAlphaMissing      = errors.New("fisher: alpha requested but not present in reference labels")
	ErrDimension         = errors.New("fisher: entry count does not match label set dimension")
)

// Accumulation and regularization constants.
const (
	// DefaultChunkSize is the pixel chunk length used when no explicit
	// chunk size is configured.
	DefaultChunkSize = 10000

	// DegenerateThreshold is the diagonal magnitude below which a label is
	// treated as numerically unconstrained.
	DegenerateThreshold = 1.0

	// ResidualInformation is the diagonal value assigned to unconstrained
	// labels after their row and column are zeroed. It keeps the matrix
	// invertible and pins the label's CRLB at sqrt(1/ResidualInformation).
	ResidualInformation = 1e-6
)

// Matrix is a square, symmetric, label-indexed Fisher information matrix.
type Matrix struct {
	labels *label.Set
	data   []float64 // n*n, row-major
}

// NewMatrix returns a zero Fisher matrix over labels.
func NewMatrix(labels *label.Set) (*Matrix, error) {
	if labels == nil {
		return nil, ErrNilReference
	}
	n := labels.Len()
	return &Matrix{labels: labels, data: make([]float64, n*n)}, nil
}

// NewMatrixWithData creates a Fisher matrix over labels from row-major
// entries, which must hold labels.Len() squared values. The entries are
// copied and should form a symmetric matrix; Build and ApplyPriors only ever
// produce symmetric ones.
func NewMatrixWithData(labels *label.Set, entries []float64) (*Matrix, error) {
	if labels == nil {
		return nil, ErrNilReference
	}
	n := labels.Len()
	if len(entries) != n*n {
		return nil, fmt.Errorf("fisher: %d entries for a %dx%d matrix: %w",
			len(entries), n, n, ErrDimension)
	}
	return &Matrix{labels: labels, data: append([]float64(nil), entries...)}, nil
}

// Labels returns the row/column label set.
func (m *Matrix) Labels() *label.Set { return m.labels }

// Dim returns the matrix dimension.
func (m *Matrix) Dim() int { return m.labels.Len() }

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.labels.Len()+j] }

// set writes the entry at row i, column j.
func (m *Matrix) set(i, j int, v float64) { m.data[i*m.labels.Len()+j] = v }

// add accumulates v into the entry at row i, column j.
func (m *Matrix) add(i, j int, v float64) { m.data[i*m.labels.Len()+j] += v }

// Clone returns an independent copy of m.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{labels: m.labels, data: append([]float64(nil), m.data...)}
}

// zeroLabel clears row and column i and pins the diagonal at
// ResidualInformation.
func (m *Matrix) zeroLabel(i int) {
	n := m.labels.Len()
	for k := 0; k < n; k++ {
		m.set(i, k, 0)
		m.set(k, i, 0)
	}
	m.set(i, i, ResidualInformation)
}

// Reference holds the label set of a reference star together with its
// per-instrument gradient matrices. Gradient data is read non-destructively:
// alpha handling operates on masked views, never on the stored matrices.
type Reference struct {
	labels    *label.Set
	gradients map[string]*gradient.Matrix
}

// NewReference creates a Reference over labels with no gradients attached.
func NewReference(labels *label.Set) (*Reference, error) {
	if labels == nil {
		return nil, ErrNilReference
	}
	return &Reference{labels: labels, gradients: make(map[string]*gradient.Matrix)}, nil
}

// Labels returns the reference label set.
func (r *Reference) Labels() *label.Set { return r.labels }

// SetGradients attaches the gradient matrix for the named instrument.
// The matrix's label set may be a subset or superset of the reference's;
// reference labels without a gradient row contribute zero sensitivity.
func (r *Reference) SetGradients(instrument string, m *gradient.Matrix) error {
	if m == nil {
		return fmt.Errorf("fisher: nil gradients for instrument %q: %w", instrument, ErrNilReference)
	}
	r.gradients[instrument] = m
	return nil
}

// Gradients returns the gradient matrix stored for the named instrument.
func (r *Reference) Gradients(instrument string) (*gradient.Matrix, error) {
	m, ok := r.gradients[instrument]
	if !ok {
		return nil, fmt.Errorf("fisher: %q: %w", instrument, ErrUnknownInstrument)
	}
	return m, nil
}

// Observation pairs an instrument name with its per-pixel SNR vector.
// The SNR must align pixel-for-pixel with the instrument's gradient matrix
// stored in the Reference.
type Observation struct {
	Name string
	SNR  []float64
}

// Config holds Fisher accumulation settings.
type Config struct {
	// ChunkSize bounds the pixel span processed per accumulation step.
	// Zero or negative disables chunking.
	ChunkSize int

	// UseAlpha folds the individual alpha-element gradients into the
	// composite alpha label instead of keeping them separate.
	UseAlpha bool
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the default accumulation settings.
func DefaultConfig() Config {
	return Config{ChunkSize: DefaultChunkSize}
}

// WithChunkSize sets the pixel chunk length. Zero or negative disables
// chunking.
func WithChunkSize(size int) Option {
	return func(cfg *Config) {
		cfg.ChunkSize = size
	}
}

// WithAlpha enables or disables composite alpha-element handling.
func WithAlpha(useAlpha bool) Option {
	return func(cfg *Config) {
		cfg.UseAlpha = useAlpha
	}
}

// Build assembles the Fisher information matrix for one or more observations
// of a reference star.
//
// All inputs are validated before any accumulation. Exactly one of the
// composite alpha label and the individual alpha elements carries gradient
// signal: with UseAlpha the element rows are masked, otherwise the alpha row
// is masked when present. After accumulation, labels whose diagonal magnitude
// falls below DegenerateThreshold are zeroed out and pinned at
// ResidualInformation so near-singular rows cannot corrupt the inversion.
func Build(ref *Reference, observations []Observation, opts ...Option) (*Matrix, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if ref == nil || ref.labels == nil {
		return nil, ErrNilReference
	}
	if len(observations) == 0 {
		return nil, ErrNoObservations
	}
	if cfg.UseAlpha && !ref.labels.Contains(label.Alpha) {
		return nil, ErrAlphaMissing
	}

	grads := make([]*gradient.Matrix, len(observations))
	totalPixels := 0
	for k, obs := range observations {
		g, err := ref.Gradients(obs.Name)
		if err != nil {
			return nil, err
		}
		if len(obs.SNR) != g.Pixels() {
			return nil, fmt.Errorf("fisher: instrument %q has %d SNR values for %d pixels: %w",
				obs.Name, len(obs.SNR), g.Pixels(), ErrPixelCount)
		}
		for _, snr := range obs.SNR {
			if snr < 0 {
				return nil, fmt.Errorf("fisher: instrument %q: %w", obs.Name, ErrNegativeSNR)
			}
		}

		if cfg.UseAlpha {
			g = g.Masked(label.AlphaElements...)
		} else if g.Labels().Contains(label.Alpha) {
			g = g.Masked(label.Alpha)
		}
		grads[k] = g
		totalPixels += g.Pixels()
	}

	rows, snr2 := concatenate(ref.labels, grads, observations, totalPixels)

	fim, err := NewMatrix(ref.labels)
	if err != nil {
		return nil, err
	}

	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = totalPixels
	}
	accumulate(fim, rows, snr2, chunk)
	regularize(fim)

	return fim, nil
}

// concatenate stitches observation gradients and squared SNR along the pixel
// axis, ordered by the reference label set. Reference labels missing from an
// instrument's gradients, and masked rows, contribute zeros.
func concatenate(labels *label.Set, grads []*gradient.Matrix, observations []Observation, totalPixels int) (rows [][]float64, snr2 []float64) {
	n := labels.Len()
	rows = make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, totalPixels)
	}
	snr2 = make([]float64, totalPixels)

	offset := 0
	for k, g := range grads {
		pixels := g.Pixels()
		for i := 0; i < n; i++ {
			row, err := g.RowByName(labels.Name(i))
			if err != nil || row == nil {
				continue // zero sensitivity
			}
			copy(rows[i][offset:offset+pixels], row)
		}
		vecmath.MulBlock(snr2[offset:offset+pixels], observations[k].SNR, observations[k].SNR)
		offset += pixels
	}

	return rows, snr2
}

// accumulate adds G_chunk * diag(snr2_chunk) * G_chunk^T into fim for each
// contiguous pixel chunk. Chunking changes only the floating-point summation
// order, not the mathematical result.
func accumulate(fim *Matrix, rows [][]float64, snr2 []float64, chunkSize int) {
	n := len(rows)
	total := len(snr2)
	weighted := make([]float64, chunkSize)

	for start := 0; start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}

		w := weighted[:end-start]
		for i := 0; i < n; i++ {
			vecmath.MulBlock(w, rows[i][start:end], snr2[start:end])
			for j := i; j < n; j++ {
				v := vecmath.DotProduct(w, rows[j][start:end])
				fim.add(i, j, v)
				if i != j {
					fim.add(j, i, v)
				}
			}
		}
	}
}

// regularize zeroes every label whose accumulated diagonal magnitude is
// below DegenerateThreshold and pins its diagonal at ResidualInformation.
// The degenerate set is decided on the accumulated matrix before any row is
// cleared.
func regularize(fim *Matrix) {
	n := fim.Dim()
	degenerate := make([]int, 0, n)
	for i := 0; i < n; i++ {
		d := fim.At(i, i)
		if d < DegenerateThreshold && d > -DegenerateThreshold {
			degenerate = append(degenerate, i)
		}
	}
	for _, i := range degenerate {
		fim.zeroLabel(i)
	}
}
