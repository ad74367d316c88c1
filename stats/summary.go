package stats

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"github.com/cemint/cemint-insights/table"
)

// Value is a statistic that encodes NaN and infinities as JSON null.
type Value float64

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler. null decodes to NaN.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*v = Value(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Value(f)
	return nil
}

// ColumnSummary is the describe() row set for one numeric column.
type ColumnSummary struct {
	Count Value `json:"count"`
	Mean  Value `json:"mean"`
	Std   Value `json:"std"`
	Min   Value `json:"min"`
	P25   Value `json:"25%"`
	P50   Value `json:"50%"`
	P75   Value `json:"75%"`
	Max   Value `json:"max"`
}

// Summary maps each numeric column to its statistics.
type Summary map[string]ColumnSummary

// Describe summarises every numeric column of t over its non-null values.
// std is the sample standard deviation.
func Describe(t *table.Table) Summary {
	out := make(Summary)
	for _, name := range t.NumericColumns() {
		c, _ := t.Column(name)
		out[name] = DescribeValues(c.NonNullFloats())
	}
	return out
}

// DescribeValues summarises a slice of values.
func DescribeValues(values []float64) ColumnSummary {
	s := ColumnSummary{
		Count: Value(len(values)),
		Mean:  Value(Mean(values)),
		Std:   Value(SampleStd(values)),
		Min:   Value(math.NaN()),
		P25:   Value(math.NaN()),
		P50:   Value(math.NaN()),
		P75:   Value(math.NaN()),
		Max:   Value(math.NaN()),
	}
	if len(values) == 0 {
		return s
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	s.Min = Value(sorted[0])
	s.P25 = Value(percentileSorted(sorted, 25))
	s.P50 = Value(percentileSorted(sorted, 50))
	s.P75 = Value(percentileSorted(sorted, 75))
	s.Max = Value(sorted[len(sorted)-1])
	return s
}
