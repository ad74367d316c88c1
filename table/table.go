// Package table holds the in-memory columnar table the pipeline passes
// between loader, validator and transformer, plus its CSV codec.
package table

import (
	"fmt"

	apperrors "github.com/cemint/cemint-insights/errors"
)

// Table is an ordered set of equally long columns. Transforms never mutate
// a table they receive; they Clone and replace columns on the copy.
type Table struct {
	Name    string
	columns []*Column
	index   map[string]int
}

// New creates an empty table.
func New(name string) *Table {
	return &Table{Name: name, index: make(map[string]int)}
}

// FromColumns builds a table from columns of equal length.
func FromColumns(name string, cols ...*Column) (*Table, error) {
	t := New(name)
	for _, c := range cols {
		if err := t.SetColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustFromColumns is FromColumns for literals known to be well formed.
func MustFromColumns(name string, cols ...*Column) *Table {
	t, err := FromColumns(name, cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// SetColumn replaces the column with the same name in place, or appends it.
func (t *Table) SetColumn(c *Column) error {
	if len(t.columns) > 0 && c.Len() != t.Len() {
		return apperrors.InvalidInput(c.Name,
			fmt.Sprintf("column %s has %d rows, table %s has %d", c.Name, c.Len(), t.Name, t.Len()))
	}
	if i, ok := t.index[c.Name]; ok {
		t.columns[i] = c
		return nil
	}
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Columns returns the columns in order. The slice must not be modified.
func (t *Table) Columns() []*Column { return t.columns }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// NumericColumns returns the names of Int and Float columns in order.
func (t *Table) NumericColumns() []string {
	var names []string
	for _, c := range t.columns {
		if c.Kind.Numeric() {
			names = append(names, c.Name)
		}
	}
	return names
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.Name)
	for _, c := range t.columns {
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c.Clone())
	}
	return out
}

// Select returns a new table holding only the named columns, in that order.
func (t *Table) Select(names ...string) (*Table, error) {
	out := New(t.Name)
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, apperrors.MissingColumn(n)
		}
		if err := out.SetColumn(c.Clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Drop returns a copy without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := New(t.Name)
	for _, c := range t.columns {
		if !skip[c.Name] {
			out.index[c.Name] = len(out.columns)
			out.columns = append(out.columns, c.Clone())
		}
	}
	return out
}

// Row returns row i keyed by column name.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.columns))
	for _, c := range t.columns {
		row[c.Name] = c.Values[i]
	}
	return row
}

// Rows returns every row keyed by column name.
func (t *Table) Rows() []map[string]any {
	rows := make([]map[string]any, t.Len())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}
