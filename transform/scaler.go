package transform

import (
	"math"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/stats"
	"github.com/cemint/cemint-insights/table"
)

// Params is the fitted state of one column. MinMax fills Min and Max,
// Standard fills Mean and Std. Columns with no values fit to null.
type Params struct {
	Min  stats.Value `json:"min,omitempty"`
	Max  stats.Value `json:"max,omitempty"`
	Mean stats.Value `json:"mean,omitempty"`
	Std  stats.Value `json:"std,omitempty"`
}

// Scaler holds fitted normalization state so the same transform can be
// applied to new data with the same columns.
type Scaler struct {
	Method  Method            `json:"method"`
	Columns []string          `json:"columns"`
	Params  map[string]Params `json:"params"`
}

// Fit computes scaler state for the named columns of t over their non-null
// values.
func Fit(t *table.Table, method Method, columns []string) (*Scaler, error) {
	s := &Scaler{Method: method, Columns: append([]string(nil), columns...), Params: make(map[string]Params, len(columns))}
	for _, name := range columns {
		c, err := numericColumn(t, name)
		if err != nil {
			return nil, err
		}
		values := c.NonNullFloats()
		switch method {
		case MinMax:
			s.Params[name] = Params{Min: stats.Value(stats.Min(values)), Max: stats.Value(stats.Max(values))}
		case Standard:
			s.Params[name] = Params{Mean: stats.Value(stats.Mean(values)), Std: stats.Value(stats.PopStd(values))}
		}
	}
	return s, nil
}

// Transform applies the fitted state to t. Scaled columns become Float and
// nulls stay null.
func (s *Scaler) Transform(t *table.Table) (*table.Table, error) {
	return s.apply(t, s.forward)
}

// Inverse undoes Transform.
func (s *Scaler) Inverse(t *table.Table) (*table.Table, error) {
	return s.apply(t, s.backward)
}

func (s *Scaler) apply(t *table.Table, f func(Params, float64) float64) (*table.Table, error) {
	out := t.Clone()
	for _, name := range s.Columns {
		c, err := numericColumn(out, name)
		if err != nil {
			return nil, err
		}
		p := s.Params[name]
		values := make([]float64, c.Len())
		for i := range c.Values {
			v, ok := c.Float(i)
			if !ok {
				values[i] = math.NaN()
				continue
			}
			values[i] = f(p, v)
		}
		if err := out.SetColumn(table.NewFloatColumn(name, values)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Scaler) forward(p Params, x float64) float64 {
	if s.Method == Standard {
		mean, std := float64(p.Mean), float64(p.Std)
		if std == 0 {
			return x - mean
		}
		return (x - mean) / std
	}
	lo, rng := float64(p.Min), float64(p.Max-p.Min)
	if rng == 0 {
		return 0
	}
	return (x - lo) / rng
}

func (s *Scaler) backward(p Params, x float64) float64 {
	if s.Method == Standard {
		mean, std := float64(p.Mean), float64(p.Std)
		if std == 0 {
			return x + mean
		}
		return x*std + mean
	}
	lo, rng := float64(p.Min), float64(p.Max-p.Min)
	if rng == 0 {
		return lo
	}
	return x*rng + lo
}

func numericColumn(t *table.Table, name string) (*table.Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, apperrors.MissingColumn(name)
	}
	if !c.Kind.Numeric() {
		return nil, apperrors.NotNumeric(name)
	}
	return c, nil
}
