package crlb

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-crlb/fisher"
	"github.com/cwbudde/algo-crlb/gradient"
	"github.com/cwbudde/algo-crlb/label"
)

func mustSet(t *testing.T, names ...string) *label.Set {
	t.Helper()
	set, err := label.NewSet(names)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func mustMatrix(t *testing.T, labels *label.Set, entries []float64) *fisher.Matrix {
	t.Helper()
	m, err := fisher.NewMatrixWithData(labels, entries)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// TestSolveDiagonal checks the closed form: a diagonal Fisher matrix with
// entries d_i yields bounds 1/sqrt(d_i).
func TestSolveDiagonal(t *testing.T) {
	labels := mustSet(t, label.Teff, label.Logg, label.RV, "Fe")
	diag := []float64{400, 25, 1e4, fisher.ResidualInformation}
	entries := make([]float64, 16)
	for i, d := range diag {
		entries[i*4+i] = d
	}

	table, err := Solve(mustMatrix(t, labels, entries), "run")
	if err != nil {
		t.Fatal(err)
	}

	values, err := table.Column("run")
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range diag {
		want := 1 / math.Sqrt(d)
		if math.Abs(values[i]-want) > 1e-9*want {
			t.Errorf("bound[%s] = %v, want %v", labels.Name(i), values[i], want)
		}
	}
}

// TestSolveZeroPriorBound checks that a hard-excluded label's bound follows
// purely from the residual diagonal, sqrt(1/1e-6) = 1000, regardless of the
// priors on other labels.
func TestSolveZeroPriorBound(t *testing.T) {
	labels := mustSet(t, label.Teff, label.Logg, label.RV, "Fe")
	fim := mustMatrix(t, labels, []float64{
		400, 10, 2, 5,
		10, 300, 1, 2,
		2, 1, 200, 3,
		5, 2, 3, 100,
	})

	for _, priors := range []fisher.Priors{
		{label.Logg: 0},
		{label.Logg: 0, "Fe": 0.2},
		{label.Logg: 0, label.Teff: 150},
	} {
		augmented, err := fisher.ApplyPriors(fim, priors)
		if err != nil {
			t.Fatal(err)
		}
		table, err := Solve(augmented, "run")
		if err != nil {
			t.Fatal(err)
		}
		values, err := table.Column("run")
		if err != nil {
			t.Fatal(err)
		}

		lg, _ := labels.Index(label.Logg)
		if math.Abs(values[lg]-1000) > 1e-6*1000 {
			t.Errorf("priors %v: logg bound = %v, want 1000", priors, values[lg])
		}
	}
}

// TestSolveRegularizedScenario runs the full pipeline on the two-pixel
// reference scenario: the zero rv gradient must surface as a bound of
// exactly sqrt(1/1e-6) = 1000 while the remaining labels stay finite.
func TestSolveRegularizedScenario(t *testing.T) {
	labels := mustSet(t, label.Teff, label.Logg, label.RV, "Fe")
	grad, err := gradient.New(labels, 2)
	if err != nil {
		t.Fatal(err)
	}
	rows := map[string][]float64{
		label.Teff: {0.1, 0.2},
		label.Logg: {0.05, 0.05},
		label.RV:   {0.0, 0.0},
		"Fe":       {0.3, 0.4},
	}
	for name, row := range rows {
		if err := grad.SetRow(name, row); err != nil {
			t.Fatal(err)
		}
	}
	ref, err := fisher.NewReference(labels)
	if err != nil {
		t.Fatal(err)
	}
	if err := ref.SetGradients("spectrograph", grad); err != nil {
		t.Fatal(err)
	}

	table, fim, err := Calculate(ref,
		[]fisher.Observation{{Name: "spectrograph", SNR: []float64{100, 100}}},
		nil, "run")
	if err != nil {
		t.Fatal(err)
	}
	if fim == nil {
		t.Fatal("Calculate must return the Fisher matrix")
	}

	values, err := table.Column("run")
	if err != nil {
		t.Fatal(err)
	}

	rv, _ := labels.Index(label.RV)
	if math.Abs(values[rv]-1000) > 1e-6*1000 {
		t.Errorf("rv bound = %v, want 1000", values[rv])
	}
	for i, v := range values {
		if i == rv {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			t.Errorf("bound[%s] = %v, want finite non-negative", labels.Name(i), v)
		}
	}
}

func TestSolveTableShape(t *testing.T) {
	labels := mustSet(t, "a", "b")
	table, err := Solve(mustMatrix(t, labels, []float64{4, 0, 0, 16}), "deep")
	if err != nil {
		t.Fatal(err)
	}

	if got := table.Labels(); got[0] != "a" || got[1] != "b" {
		t.Errorf("Labels() = %v, want [a b]", got)
	}
	if got := table.Columns(); len(got) != 1 || got[0] != "deep" {
		t.Errorf("Columns() = %v, want [deep]", got)
	}
}

func TestSolveNilFisher(t *testing.T) {
	if _, err := Solve(nil, "run"); !errors.Is(err, ErrNilFisher) {
		t.Errorf("Solve(nil) error = %v, want ErrNilFisher", err)
	}
}
