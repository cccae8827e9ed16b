package crlb

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-crlb/fisher"
)

// Errors returned by the solver.
var (
	ErrNilFisher = errors.New("crlb: nil Fisher matrix")
	ErrSVDFailed = errors.New("crlb: SVD factorization failed")
)

// PinvRcond is the relative singular-value cutoff of the pseudo-inverse:
// singular values below PinvRcond times the largest one are treated as zero.
const PinvRcond = 1e-15

// Solve computes per-label lower-bound standard deviations from a Fisher
// information matrix.
//
// The matrix is pseudo-inverted through its singular value decomposition,
// F+ = V S+ U^T, and the bounds are the square roots of the diagonal of F+.
// The result is a single-column Table named column, row-aligned with the
// Fisher matrix's label set.
func Solve(fim *fisher.Matrix, column string) (*Table, error) {
	if fim == nil {
		return nil, ErrNilFisher
	}

	diag, err := pinvDiagonal(fim)
	if err != nil {
		return nil, err
	}

	bounds := make([]float64, len(diag))
	for i, d := range diag {
		if d < 0 {
			// Rounding noise on a positive semi-definite matrix.
			d = 0
		}
		bounds[i] = math.Sqrt(d)
	}

	table, err := NewTable(fim.Labels().Names())
	if err != nil {
		return nil, err
	}
	if err := table.AddColumn(column, bounds); err != nil {
		return nil, err
	}
	return table, nil
}

// pinvDiagonal returns the diagonal of the Moore–Penrose pseudo-inverse of
// fim without forming the full inverse.
func pinvDiagonal(fim *fisher.Matrix) ([]float64, error) {
	n := fim.Dim()
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data[i*n+j] = fim.At(i, j)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(n, n, data), mat.SVDThin); !ok {
		return nil, ErrSVDFailed
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Singular values arrive in descending order.
	cutoff := PinvRcond * values[0]

	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			if values[j] <= cutoff {
				continue
			}
			sum += v.At(i, j) * u.At(i, j) / values[j]
		}
		diag[i] = sum
	}
	return diag, nil
}

// Calculate runs the full estimation pipeline for one observation set:
// Fisher accumulation, prior application, and pseudo-inverse solving.
// It returns the single-column CRLB table named column together with the
// prior-augmented Fisher matrix for diagnostic use. priors may be nil.
func Calculate(ref *fisher.Reference, observations []fisher.Observation, priors fisher.Priors, column string, opts ...fisher.Option) (*Table, *fisher.Matrix, error) {
	fim, err := fisher.Build(ref, observations, opts...)
	if err != nil {
		return nil, nil, err
	}

	if len(priors) > 0 {
		fim, err = fisher.ApplyPriors(fim, priors)
		if err != nil {
			return nil, nil, err
		}
	}

	table, err := Solve(fim, column)
	if err != nil {
		return nil, nil, err
	}
	return table, fim, nil
}
