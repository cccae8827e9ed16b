package fisher

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-crlb/label"
)

// Errors returned by prior application.
var (
	ErrUnknownLabel = errors.New("fisher: prior label not present in label set")
	ErrBadPrior     = errors.New("fisher: prior must be zero or a positive 1-sigma value")
)

// Priors maps label names to 1-sigma Gaussian constraints. A label absent
// from the map carries no prior. A value of zero hard-excludes the label
// from joint inference; a positive value adds prior^-2 of information to
// the label's diagonal.
type Priors map[string]float64

// ApplyPriors folds Gaussian priors into a copy of fim and returns it.
// The input matrix is never modified.
//
// The Teff prior is divided by 100 before use, matching the step scaling
// convention of the gradient computation. All priors are validated before
// any entry of the copy is touched; with an empty prior map the result is
// an identical copy of fim.
func ApplyPriors(fim *Matrix, priors Priors) (*Matrix, error) {
	if fim == nil {
		return nil, ErrNilReference
	}

	names := make([]string, 0, len(priors))
	for name := range priors {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !fim.labels.Contains(name) {
			return nil, fmt.Errorf("fisher: %q: %w", name, ErrUnknownLabel)
		}
		if v := priors[name]; v < 0 || math.IsNaN(v) {
			return nil, fmt.Errorf("fisher: prior for %q is %v: %w", name, v, ErrBadPrior)
		}
	}

	out := fim.Clone()
	for _, name := range names {
		prior := priors[name]
		i, err := out.labels.Index(name)
		if err != nil {
			return nil, err
		}

		if name == label.Teff {
			prior /= label.TeffScale
		}
		if prior == 0 {
			out.zeroLabel(i)
			continue
		}
		out.add(i, i, 1/(prior*prior))
	}

	return out, nil
}
