package table

import "math"

// Concat stacks tables row-wise. The result has the union of their columns in
// first-seen order; cells a table lacks are null. Int and Float unify to
// Float, any other conflict promotes the column to String, and an all-null
// column takes its kind from the tables that have data.
func Concat(name string, tables ...*Table) (*Table, error) {
	var order []string
	kinds := make(map[string]Kind)
	settled := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.Columns() {
			if _, seen := kinds[c.Name]; !seen {
				order = append(order, c.Name)
				kinds[c.Name] = c.Kind
			}
			if c.AllNull() {
				continue
			}
			if !settled[c.Name] {
				kinds[c.Name] = c.Kind
				settled[c.Name] = true
				continue
			}
			kinds[c.Name] = unifyKinds(kinds[c.Name], c.Kind)
		}
	}

	out := New(name)
	for _, n := range order {
		var values []any
		for _, t := range tables {
			c, ok := t.Column(n)
			if !ok {
				values = append(values, make([]any, t.Len())...)
				continue
			}
			for _, v := range c.Values {
				values = append(values, convert(v, kinds[n]))
			}
		}
		if values == nil {
			values = []any{}
		}
		if err := out.SetColumn(&Column{Name: n, Kind: kinds[n], Values: values}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func unifyKinds(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case a.Numeric() && b.Numeric():
		return Float
	}
	return String
}

func convert(v any, kind Kind) any {
	switch kind {
	case Float:
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	case String:
		switch x := v.(type) {
		case nil, string:
			return v
		case float64:
			if math.IsNaN(x) {
				return nil
			}
		}
		return FormatValue(v)
	}
	return v
}
