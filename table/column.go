package table

import (
	"math"
	"time"
)

// Column is a named, typed sequence of values. A nil value is null; non-null
// values are string, int64, float64, bool or time.Time according to Kind.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// NewColumn creates a column from already-typed values.
func NewColumn(name string, kind Kind, values []any) *Column {
	return &Column{Name: name, Kind: kind, Values: values}
}

// NewFloatColumn creates a Float column. NaN entries become null.
func NewFloatColumn(name string, values []float64) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			out[i] = v
		}
	}
	return &Column{Name: name, Kind: Float, Values: out}
}

// NewIntColumn creates an Int column.
func NewIntColumn(name string, values []int64) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Column{Name: name, Kind: Int, Values: out}
}

// NewStringColumn creates a String column.
func NewStringColumn(name string, values []string) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Column{Name: name, Kind: String, Values: out}
}

// NewBoolColumn creates a Bool column.
func NewBoolColumn(name string, values []bool) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Column{Name: name, Kind: Bool, Values: out}
}

// NewTimestampColumn creates a Timestamp column.
func NewTimestampColumn(name string, values []time.Time) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Column{Name: name, Kind: Timestamp, Values: out}
}

// Len returns the number of values.
func (c *Column) Len() int { return len(c.Values) }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	if c.Values[i] == nil {
		return true
	}
	f, ok := c.Values[i].(float64)
	return ok && math.IsNaN(f)
}

// NullCount returns the number of null values.
func (c *Column) NullCount() int {
	n := 0
	for i := range c.Values {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// AllNull reports whether every value is null. An empty column is all null.
func (c *Column) AllNull() bool {
	return c.NullCount() == c.Len()
}

// Float returns row i as float64. ok is false for nulls and non-numeric values.
func (c *Column) Float(i int) (float64, bool) {
	switch v := c.Values[i].(type) {
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Floats returns every value as float64 with NaN for nulls.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i := range c.Values {
		if f, ok := c.Float(i); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// NonNullFloats returns the non-null numeric values in row order.
func (c *Column) NonNullFloats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i := range c.Values {
		if f, ok := c.Float(i); ok {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a copy that shares no backing array with c.
func (c *Column) Clone() *Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// Renamed returns a copy of c under a new name.
func (c *Column) Renamed(name string) *Column {
	out := c.Clone()
	out.Name = name
	return out
}
