// Package frame provides the in-memory survey table handed to scenarios.
// A Dataset is an ordered set of named, equal-length typed columns with one
// row per person.
package frame

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// ErrLengthMismatch is returned when a column does not match the row count.
var ErrLengthMismatch = errors.New("column length does not match dataset")

// Dataset is an ordered collection of named columns.
type Dataset struct {
	names   []string
	columns map[string]core.Array
	rows    int
}

// New creates an empty dataset.
func New() *Dataset {
	return &Dataset{columns: make(map[string]core.Array)}
}

// FromColumns builds a dataset from name/array pairs, in the given order.
func FromColumns(names []string, arrays []core.Array) (*Dataset, error) {
	if len(names) != len(arrays) {
		return nil, fmt.Errorf("got %d names for %d arrays", len(names), len(arrays))
	}
	ds := New()
	for i, name := range names {
		if err := ds.AddColumn(name, arrays[i]); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// AddColumn appends a column. The first column fixes the row count.
func (d *Dataset) AddColumn(name string, values core.Array) error {
	if name == "" {
		return fmt.Errorf("column name is required")
	}
	if _, exists := d.columns[name]; exists {
		return fmt.Errorf("duplicate column %q", name)
	}
	if len(d.names) > 0 && values.Len() != d.rows {
		return fmt.Errorf("column %q has %d rows, dataset has %d: %w", name, values.Len(), d.rows, ErrLengthMismatch)
	}
	if len(d.names) == 0 {
		d.rows = values.Len()
	}
	d.names = append(d.names, name)
	d.columns[name] = values
	return nil
}

// MustAddColumn is AddColumn for fixtures; it panics on error.
func (d *Dataset) MustAddColumn(name string, values core.Array) *Dataset {
	if err := d.AddColumn(name, values); err != nil {
		panic(err)
	}
	return d
}

// Columns returns a snapshot of the column names in order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Column returns a column by name.
func (d *Dataset) Column(name string) (core.Array, bool) {
	a, ok := d.columns[name]
	return a, ok
}

// Has reports whether the dataset has a column.
func (d *Dataset) Has(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return d.rows
}

// Width returns the number of columns.
func (d *Dataset) Width() int {
	return len(d.names)
}

// Drop returns a dataset without the named columns. Unknown names are
// ignored and the receiver is left untouched.
func (d *Dataset) Drop(names ...string) *Dataset {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &Dataset{columns: make(map[string]core.Array, len(d.names)), rows: d.rows}
	for _, n := range d.names {
		if drop[n] {
			continue
		}
		out.names = append(out.names, n)
		out.columns[n] = d.columns[n]
	}
	return out
}
