package crlb

import (
	"errors"
	"math"
	"sort"

	"github.com/cwbudde/algo-crlb/label"
)

// Errors returned by ranking.
var (
	ErrNilTable  = errors.New("crlb: nil table")
	ErrNoColumns = errors.New("crlb: table has no columns")
)

// DefaultSort selects the sort column with the fewest cutoff-failing entries.
const DefaultSort = "default"

// Rank filters and sorts a CRLB table by precision.
//
// The leading stellar-parameter labels are always retained in their original
// relative order. Every other entry worse than cutoff (exceeding it, or
// non-finite) is replaced by NaN; a label survives when its NaN-ignoring
// minimum across columns still beats the cutoff, i.e. when at least one
// column/instrument set measures it well enough. Surviving labels are sorted
// ascending by the chosen column, NaN last, ties in input order.
//
// sortBy is either DefaultSort or the name of an existing column;
// ErrUnknownColumn is returned otherwise.
func Rank(t *Table, cutoff float64, sortBy string) (*Table, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	if len(t.columns) == 0 {
		return nil, ErrNoColumns
	}

	protected := label.StellarParamCount
	if protected > len(t.labels) {
		protected = len(t.labels)
	}

	filtered := t.clone()
	for c := range filtered.columns {
		values := filtered.columns[c].values
		for r := protected; r < len(values); r++ {
			if !(values[r] <= cutoff) {
				values[r] = math.NaN()
			}
		}
	}

	sortColumn, err := chooseSortColumn(filtered, sortBy)
	if err != nil {
		return nil, err
	}

	// Tail labels survive if any column still measures them below cutoff.
	kept := make([]int, 0, len(filtered.labels)-protected)
	for r := protected; r < len(filtered.labels); r++ {
		if rowMin(filtered, r) < cutoff {
			kept = append(kept, r)
		}
	}

	key := sortColumn.values
	sort.SliceStable(kept, func(a, b int) bool {
		va, vb := key[kept[a]], key[kept[b]]
		if math.IsNaN(vb) {
			return !math.IsNaN(va)
		}
		if math.IsNaN(va) {
			return false
		}
		return va < vb
	})

	order := make([]int, 0, protected+len(kept))
	for r := 0; r < protected; r++ {
		order = append(order, r)
	}
	order = append(order, kept...)

	return filtered.reindex(order), nil
}

// chooseSortColumn resolves sortBy against the table's columns. DefaultSort
// picks the column with the fewest NaN entries, first column winning ties.
func chooseSortColumn(t *Table, sortBy string) (*column, error) {
	if sortBy != DefaultSort {
		return t.column(sortBy)
	}

	best := &t.columns[0]
	bestMissing := countNaN(best.values)
	for c := 1; c < len(t.columns); c++ {
		if missing := countNaN(t.columns[c].values); missing < bestMissing {
			best = &t.columns[c]
			bestMissing = missing
		}
	}
	return best, nil
}

// rowMin returns the NaN-ignoring minimum of row r across all columns,
// or +Inf when every column is NaN.
func rowMin(t *Table, r int) float64 {
	min := math.Inf(1)
	for _, c := range t.columns {
		if v := c.values[r]; !math.IsNaN(v) && v < min {
			min = v
		}
	}
	return min
}

func countNaN(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// reindex builds a new table whose rows follow order.
func (t *Table) reindex(order []int) *Table {
	out := &Table{labels: make([]string, len(order))}
	for i, r := range order {
		out.labels[i] = t.labels[r]
	}
	for _, c := range t.columns {
		values := make([]float64, len(order))
		for i, r := range order {
			values[i] = c.values[r]
		}
		out.columns = append(out.columns, column{name: c.name, values: values})
	}
	return out
}
