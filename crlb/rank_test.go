package crlb

import (
	"errors"
	"math"
	"testing"
)

func mustTable(t *testing.T, labels []string, columns map[string][]float64, order []string) *Table {
	t.Helper()
	table, err := NewTable(labels)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range order {
		if err := table.AddColumn(name, columns[name]); err != nil {
			t.Fatal(err)
		}
	}
	return table
}

// TestRankDropsAboveCutoff covers the reference scenario: with cutoff 0.3,
// Fe at 0.5 is dropped while the three stellar parameters survive.
func TestRankDropsAboveCutoff(t *testing.T) {
	table := mustTable(t,
		[]string{"Teff", "logg", "rv", "Fe"},
		map[string][]float64{"run": {0.05, 0.1, 0.02, 0.5}},
		[]string{"run"})

	ranked, err := Rank(table, 0.3, DefaultSort)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Teff", "logg", "rv"}
	got := ranked.Labels()
	if len(got) != len(want) {
		t.Fatalf("Labels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestRankProtectsStellarParameters checks that the first three labels are
// kept in relative order for any cutoff, even when they fail it.
func TestRankProtectsStellarParameters(t *testing.T) {
	table := mustTable(t,
		[]string{"Teff", "logg", "rv", "Fe"},
		map[string][]float64{"run": {120, 0.4, 55, 0.01}},
		[]string{"run"})

	for _, cutoff := range []float64{0.001, 0.3, 1000} {
		ranked, err := Rank(table, cutoff, DefaultSort)
		if err != nil {
			t.Fatal(err)
		}
		got := ranked.Labels()
		if len(got) < 3 || got[0] != "Teff" || got[1] != "logg" || got[2] != "rv" {
			t.Errorf("cutoff %v: Labels() = %v, want Teff, logg, rv prefix", cutoff, got)
		}

		values, err := ranked.Column("run")
		if err != nil {
			t.Fatal(err)
		}
		if values[0] != 120 || values[2] != 55 {
			t.Errorf("cutoff %v: stellar parameter values filtered: %v", cutoff, values[:3])
		}
	}
}

// TestRankCrossColumnRetention checks that a label survives when any single
// column measures it below the cutoff.
func TestRankCrossColumnRetention(t *testing.T) {
	table := mustTable(t,
		[]string{"Teff", "logg", "rv", "X", "Y"},
		map[string][]float64{
			"a": {0.05, 0.1, 0.02, 0.9, 0.25},
			"b": {0.05, 0.1, 0.02, 0.1, 0.8},
		},
		[]string{"a", "b"})

	ranked, err := Rank(table, 0.3, "b")
	if err != nil {
		t.Fatal(err)
	}

	got := ranked.Labels()
	// X fails in a but passes in b; Y fails in b but passes in a. Both stay.
	if len(got) != 5 {
		t.Fatalf("Labels() = %v, want all five labels", got)
	}

	// Filtered entries surface as NaN in the surviving rows.
	a, err := ranked.Column("a")
	if err != nil {
		t.Fatal(err)
	}
	xi := indexOf(t, got, "X")
	if !math.IsNaN(a[xi]) {
		t.Errorf("X in column a = %v, want NaN", a[xi])
	}
}

func TestRankSortsAscendingNaNLast(t *testing.T) {
	table := mustTable(t,
		[]string{"Teff", "logg", "rv", "X", "Y", "Z"},
		map[string][]float64{
			"a": {0.05, 0.1, 0.02, 0.25, 0.9, 0.15},
			"b": {0.05, 0.1, 0.02, 0.28, 0.2, 0.29},
		},
		[]string{"a", "b"})

	t.Run("default picks least filtered column", func(t *testing.T) {
		// Column a loses Y to the cutoff, column b loses nothing, so the
		// default sort key is b.
		ranked, err := Rank(table, 0.3, DefaultSort)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"Teff", "logg", "rv", "Y", "X", "Z"}
		assertLabels(t, ranked, want)
	})

	t.Run("explicit column with NaN last", func(t *testing.T) {
		ranked, err := Rank(table, 0.3, "a")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"Teff", "logg", "rv", "Z", "X", "Y"}
		assertLabels(t, ranked, want)
	})
}

func TestRankDropsAllColumnFailures(t *testing.T) {
	table := mustTable(t,
		[]string{"Teff", "logg", "rv", "X"},
		map[string][]float64{
			"a": {0.05, 0.1, 0.02, 0.9},
			"b": {0.05, 0.1, 0.02, math.Inf(1)},
		},
		[]string{"a", "b"})

	ranked, err := Rank(table, 0.3, DefaultSort)
	if err != nil {
		t.Fatal(err)
	}
	if got := ranked.Labels(); len(got) != 3 {
		t.Errorf("Labels() = %v, want stellar parameters only", got)
	}
}

// TestRankCutoffIsExclusive locks the strict comparison: a label exactly at
// the cutoff in every column is dropped.
func TestRankCutoffIsExclusive(t *testing.T) {
	table := mustTable(t,
		[]string{"Teff", "logg", "rv", "X"},
		map[string][]float64{"run": {0.05, 0.1, 0.02, 0.3}},
		[]string{"run"})

	ranked, err := Rank(table, 0.3, DefaultSort)
	if err != nil {
		t.Fatal(err)
	}
	if got := ranked.Labels(); len(got) != 3 {
		t.Errorf("Labels() = %v, want X dropped at exact cutoff", got)
	}
}

func TestRankValidation(t *testing.T) {
	table := mustTable(t,
		[]string{"Teff", "logg", "rv", "Fe"},
		map[string][]float64{"run": {0.05, 0.1, 0.02, 0.5}},
		[]string{"run"})

	if _, err := Rank(table, 0.3, "missing"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("unknown sort column error = %v, want ErrUnknownColumn", err)
	}
	if _, err := Rank(nil, 0.3, DefaultSort); !errors.Is(err, ErrNilTable) {
		t.Errorf("nil table error = %v, want ErrNilTable", err)
	}

	empty, err := NewTable([]string{"Teff"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Rank(empty, 0.3, DefaultSort); !errors.Is(err, ErrNoColumns) {
		t.Errorf("no columns error = %v, want ErrNoColumns", err)
	}
}

func TestRankLeavesInputIntact(t *testing.T) {
	table := mustTable(t,
		[]string{"Teff", "logg", "rv", "Fe"},
		map[string][]float64{"run": {0.05, 0.1, 0.02, 0.5}},
		[]string{"run"})

	if _, err := Rank(table, 0.3, DefaultSort); err != nil {
		t.Fatal(err)
	}

	values, err := table.Column("run")
	if err != nil {
		t.Fatal(err)
	}
	if values[3] != 0.5 {
		t.Errorf("input table mutated: Fe = %v, want 0.5", values[3])
	}
	if got := table.Labels(); len(got) != 4 {
		t.Errorf("input table labels = %v, want 4 entries", got)
	}
}

func assertLabels(t *testing.T, table *Table, want []string) {
	t.Helper()
	got := table.Labels()
	if len(got) != len(want) {
		t.Fatalf("Labels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func indexOf(t *testing.T, names []string, name string) int {
	t.Helper()
	for i, n := range names {
		if n == name {
			return i
		}
	}
	t.Fatalf("%q not found in %v", name, names)
	return -1
}
