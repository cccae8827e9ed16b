package crlb

import (
	"errors"
	"fmt"
)

// Errors returned by table construction and lookup.
var (
	ErrNoLabels        = errors.New("crlb: table must have at least one label")
	ErrDuplicateLabel  = errors.New("crlb: duplicate label name")
	ErrDuplicateColumn = errors.New("crlb: duplicate column name")
	ErrUnknownColumn   = errors.New("crlb: unknown column name")
	ErrRowCount        = errors.New("crlb: column length does not match label count")
)

// column is one run's precisions, aligned with the table's label order.
type column struct {
	name   string
	values []float64
}

// Table is a label-indexed table of per-label precision bounds, one column
// per CRLB computation (instrument set, exposure time, etc.). Values are
// non-negative standard deviations; NaN marks a precision filtered out by
// ranking.
type Table struct {
	labels  []string
	columns []column
}

// NewTable creates an empty table over the ordered label names.
func NewTable(labels []string) (*Table, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	seen := make(map[string]struct{}, len(labels))
	for _, name := range labels {
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("crlb: %q: %w", name, ErrDuplicateLabel)
		}
		seen[name] = struct{}{}
	}

	return &Table{labels: append([]string(nil), labels...)}, nil
}

// Len returns the number of label rows.
func (t *Table) Len() int { return len(t.labels) }

// Labels returns a copy of the ordered label names.
func (t *Table) Labels() []string {
	return append([]string(nil), t.labels...)
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// AddColumn appends a named column of per-label precisions.
func (t *Table) AddColumn(name string, values []float64) error {
	if len(values) != len(t.labels) {
		return fmt.Errorf("crlb: column %q has %d values for %d labels: %w",
			name, len(values), len(t.labels), ErrRowCount)
	}
	for _, c := range t.columns {
		if c.name == name {
			return fmt.Errorf("crlb: %q: %w", name, ErrDuplicateColumn)
		}
	}

	t.columns = append(t.columns, column{name: name, values: append([]float64(nil), values...)})
	return nil
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]float64, error) {
	c, err := t.column(name)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), c.values...), nil
}

// column returns the named column without copying.
func (t *Table) column(name string) (*column, error) {
	for i := range t.columns {
		if t.columns[i].name == name {
			return &t.columns[i], nil
		}
	}
	return nil, fmt.Errorf("crlb: %q: %w", name, ErrUnknownColumn)
}

// clone returns a deep copy of the table.
func (t *Table) clone() *Table {
	out := &Table{labels: append([]string(nil), t.labels...)}
	for _, c := range t.columns {
		out.columns = append(out.columns, column{
			name:   c.name,
			values: append([]float64(nil), c.values...),
		})
	}
	return out
}
