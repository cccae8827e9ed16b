// Package label provides ordered label sets for spectroscopic inference.
//
// A label is a named physical parameter of a star: the stellar parameters
// Teff, logg, and rv, followed by elemental abundances such as Fe or Mg.
// Label order is significant everywhere in this module: it defines the row
// and column order of gradient and Fisher matrices, and the first three
// labels (the stellar parameters) receive special treatment during ranking.
package label

import (
	"errors"
	"fmt"
)

// Errors returned by label set construction and lookup.
var (
	ErrEmpty     = errors.New("label: empty label set")
	ErrDuplicate = errors.New("label: duplicate label name")
	ErrUnknown   = errors.New("label: unknown label name")
)

// Names of labels with non-unit natural scales and of the composite
// alpha-abundance label.
const (
	Teff  = "Teff"
	Logg  = "logg"
	RV    = "rv"
	Alpha = "alpha"
)

// TeffScale and RVScale divide finite-difference steps and priors for the
// corresponding labels, bringing them onto the unit scale shared by the
// abundance labels (Teff is measured in hundreds of K, rv in tens of km/s).
const (
	TeffScale = 100.0
	RVScale   = 10.0
)

// StellarParamCount is the number of leading labels treated as stellar
// parameters. These are always retained by precision ranking.
const StellarParamCount = 3

// AlphaElements lists the individual elements whose abundance signal is
// aggregated by the composite "alpha" label.
var AlphaElements = []string{"O", "Ne", "Mg", "Si", "S", "Ar", "Ca", "Ti"}

// Set is an ordered, unique collection of label names with O(1) index lookup.
// A Set is immutable after construction and safe to share between
// computations.
type Set struct {
	names []string
	index map[string]int
}

// NewSet builds a Set from names, preserving order.
// It returns ErrEmpty for an empty sequence and ErrDuplicate if any name
// repeats.
func NewSet(names []string) (*Set, error) {
	if len(names) == 0 {
		return nil, ErrEmpty
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("label: duplicate label name %q: %w", name, ErrDuplicate)
		}
		index[name] = i
	}

	return &Set{names: append([]string(nil), names...), index: index}, nil
}

// Len returns the number of labels.
func (s *Set) Len() int { return len(s.names) }

// Name returns the label name at position i.
func (s *Set) Name(i int) string { return s.names[i] }

// Names returns a copy of the ordered label names.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Index returns the position of name, or ErrUnknown if absent.
func (s *Set) Index(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, fmt.Errorf("label: %q: %w", name, ErrUnknown)
	}
	return i, nil
}

// Contains reports whether name is a member of the set.
func (s *Set) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// StepScale returns the divisor applied to finite-difference steps and
// Gaussian priors for name: TeffScale for Teff, RVScale for rv, and 1
// otherwise.
func StepScale(name string) float64 {
	switch name {
	case Teff:
		return TeffScale
	case RV:
		return RVScale
	default:
		return 1
	}
}
