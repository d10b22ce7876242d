// Package frame is a small row-indexed table model with an optional geometry column.
//
// Tables are immutable: every method that changes shape or content returns a new
// table and leaves the receiver untouched. Value slices are never written after a
// table is built, so derived tables share them freely.
package frame

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrLengthMismatch  = errors.New("length mismatch")
)

// Frame is implemented by *Table and *GeoTable. Derive rebuilds a value of the
// same kind around new data; rows maps every output row to the source row it
// came from (nil means one-to-one).
type Frame[F any] interface {
	Data() *Table
	Derive(data *Table, rows []int) (F, error)
}

type Column struct {
	Name   string
	Values []any
}

type Table struct {
	index Index
	names []string
	cols  map[string][]any
}

var _ Frame[*Table] = (*Table)(nil)

// New builds a table with a range index.
func New(cols ...Column) (*Table, error) {
	n := 0
	if len(cols) > 0 {
		n = len(cols[0].Values)
	}
	return NewIndexed(RangeIndex(n), cols...)
}

func NewIndexed(index Index, cols ...Column) (*Table, error) {
	t := &Table{
		index: index,
		names: make([]string, 0, len(cols)),
		cols:  make(map[string][]any, len(cols)),
	}
	for _, c := range cols {
		if _, dup := t.cols[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		if len(c.Values) != index.Len() {
			return nil, fmt.Errorf("%w: column %q has %d values, index has %d",
				ErrLengthMismatch, c.Name, len(c.Values), index.Len())
		}
		t.names = append(t.names, c.Name)
		t.cols[c.Name] = c.Values
	}
	return t, nil
}

func (t *Table) Len() int { return t.index.Len() }

// Index returns the row index. Labels must be treated as read-only.
func (t *Table) Index() Index { return t.index }

func (t *Table) Columns() []string { return slices.Clone(t.names) }

func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the values of a column. The slice must be treated as read-only.
func (t *Table) Column(name string) ([]any, error) {
	v, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return v, nil
}

// Require fails with ErrUnknownColumn on the first missing name.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if !t.Has(n) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, n)
		}
	}
	return nil
}

func (t *Table) Value(row int, name string) any {
	return t.cols[name][row]
}

// Row returns a copy of row i keyed by column name.
func (t *Table) Row(i int) map[string]any {
	out := make(map[string]any, len(t.names))
	for _, n := range t.names {
		out[n] = t.cols[n][i]
	}
	return out
}

func (t *Table) Data() *Table { return t }

func (t *Table) Derive(data *Table, _ []int) (*Table, error) { return data, nil }

func (t *Table) shallow() *Table {
	cols := make(map[string][]any, len(t.cols))
	for k, v := range t.cols {
		cols[k] = v
	}
	return &Table{index: t.index, names: slices.Clone(t.names), cols: cols}
}

// Assign adds or replaces a column. A replaced column keeps its position.
func (t *Table) Assign(name string, values []any) (*Table, error) {
	if len(values) != t.Len() {
		return nil, fmt.Errorf("%w: assign %q with %d values to %d rows",
			ErrLengthMismatch, name, len(values), t.Len())
	}
	out := t.shallow()
	if _, ok := out.cols[name]; !ok {
		out.names = append(out.names, name)
	}
	out.cols[name] = values
	return out, nil
}

// Drop removes the named columns; names that do not exist are ignored.
func (t *Table) Drop(names ...string) *Table {
	out := t.shallow()
	for _, n := range names {
		if _, ok := out.cols[n]; !ok {
			continue
		}
		delete(out.cols, n)
		out.names = slices.DeleteFunc(out.names, func(s string) bool { return s == n })
	}
	return out
}

func (t *Table) Select(names ...string) (*Table, error) {
	if err := t.Require(names...); err != nil {
		return nil, err
	}
	out := &Table{index: t.index, names: slices.Clone(names), cols: make(map[string][]any, len(names))}
	for _, n := range names {
		out.cols[n] = t.cols[n]
	}
	return out, nil
}

// SetIndex moves a column into the index, replacing the current index.
func (t *Table) SetIndex(name string) (*Table, error) {
	vals, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := t.Drop(name)
	out.index = Index{Name: name, Labels: vals}
	return out, nil
}

// WithIndex replaces the index.
func (t *Table) WithIndex(ix Index) (*Table, error) {
	if ix.Len() != t.Len() {
		return nil, fmt.Errorf("%w: index has %d labels, table has %d rows", ErrLengthMismatch, ix.Len(), t.Len())
	}
	out := t.shallow()
	out.index = ix
	return out, nil
}

// ResetIndex moves the index into a leading column (named after the index, or
// "index" when it has no name) and installs a range index.
func (t *Table) ResetIndex() (*Table, error) {
	name := t.index.Name
	if name == "" {
		name = "index"
	}
	if t.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	out := t.shallow()
	out.names = append([]string{name}, out.names...)
	out.cols[name] = t.index.Labels
	out.index = RangeIndex(t.Len())
	return out, nil
}

// Take returns the rows at the given positions, in order. Positions may repeat.
func (t *Table) Take(rows []int) *Table {
	out := &Table{
		index: t.index.take(rows),
		names: slices.Clone(t.names),
		cols:  make(map[string][]any, len(t.cols)),
	}
	for _, n := range t.names {
		src := t.cols[n]
		dst := make([]any, len(rows))
		for i, r := range rows {
			dst[i] = src[r]
		}
		out.cols[n] = dst
	}
	return out
}
