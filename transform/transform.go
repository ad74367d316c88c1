// Package transform implements the table-to-table feature engineering steps.
// Every function returns a new table and leaves its input untouched.
package transform

import (
	"math"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/stats"
	"github.com/cemint/cemint-insights/table"
)

const (
	// AnomalyColumn is the Bool column DetectAnomalies adds.
	AnomalyColumn = "is_anomaly"
	// DefaultAnomalyThreshold is the z-score magnitude above which a value is anomalous.
	DefaultAnomalyThreshold = 3.0
	// DefaultClipLower and DefaultClipUpper are the default clip percentiles.
	DefaultClipLower = 1.0
	DefaultClipUpper = 99.0
)

// Time feature columns added by AddTimeFeatures.
const (
	HourColumn    = "hour"
	DayColumn     = "day"
	WeekdayColumn = "weekday"
	MonthColumn   = "month"
)

func log() *logger.Logger {
	return logger.WithComponent("transform")
}

// AddTimeFeatures parses column col as timestamps and adds Int columns hour,
// day, weekday (Monday=0) and month. Unparseable values become null and
// their features are null.
func AddTimeFeatures(t *table.Table, col string) (*table.Table, error) {
	src, ok := t.Column(col)
	if !ok {
		return nil, apperrors.MissingColumn(col)
	}

	n := src.Len()
	stamps := make([]any, n)
	hour, day, weekday, month := make([]any, n), make([]any, n), make([]any, n), make([]any, n)
	invalid := 0
	for i, v := range src.Values {
		ts, ok := table.AsTimestamp(v)
		if !ok {
			invalid++
			continue
		}
		stamps[i] = ts
		hour[i] = int64(ts.Hour())
		day[i] = int64(ts.Day())
		weekday[i] = int64((ts.Weekday() + 6) % 7)
		month[i] = int64(ts.Month())
	}
	if invalid > 0 {
		log().Warn("invalid timestamps", logger.Fields(logger.FieldTable, t.Name, logger.FieldColumn, col, "count", invalid))
	}

	out := t.Clone()
	for _, c := range []*table.Column{
		table.NewColumn(col, table.Timestamp, stamps),
		table.NewColumn(HourColumn, table.Int, hour),
		table.NewColumn(DayColumn, table.Int, day),
		table.NewColumn(WeekdayColumn, table.Int, weekday),
		table.NewColumn(MonthColumn, table.Int, month),
	} {
		if err := out.SetColumn(c); err != nil {
			return nil, err
		}
	}
	log().Debug("time features added", logger.Fields(logger.FieldTable, t.Name))
	return out, nil
}

// NormalizeFeatures fits a scaler over every numeric column of t and applies it.
func NormalizeFeatures(t *table.Table, method Method) (*table.Table, *Scaler, error) {
	cols := t.NumericColumns()
	if len(cols) == 0 {
		return nil, nil, apperrors.NoNumericColumns(t.Name)
	}
	return fitTransform(t, method, cols)
}

// ScaleColumns fits a scaler over the named columns only and applies it.
func ScaleColumns(t *table.Table, cols []string, method Method) (*table.Table, *Scaler, error) {
	return fitTransform(t, method, cols)
}

func fitTransform(t *table.Table, method Method, cols []string) (*table.Table, *Scaler, error) {
	s, err := Fit(t, method, cols)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.Transform(t)
	if err != nil {
		return nil, nil, err
	}
	log().Info("normalization applied", logger.Fields(logger.FieldTable, t.Name, "method", method.String(), "columns", len(cols)))
	return out, s, nil
}

// FillMissingValues replaces nulls in each numeric column with that column's
// statistic. A column with no values is filled with 0. Int columns stay Int
// when the fill value is integral.
func FillMissingValues(t *table.Table, strategy FillStrategy) *table.Table {
	out := t.Clone()
	cols := t.NumericColumns()
	if len(cols) == 0 {
		log().Warn("no numeric columns to fill", logger.Fields(logger.FieldTable, t.Name))
		return out
	}

	for _, name := range cols {
		c, _ := out.Column(name)
		if c.NullCount() == 0 {
			continue
		}
		fill := fillValue(c.NonNullFloats(), strategy)
		intFill := c.Kind == table.Int && fill == math.Trunc(fill)

		values := make([]any, c.Len())
		for i, v := range c.Values {
			switch {
			case c.IsNull(i) && intFill:
				values[i] = int64(fill)
			case c.IsNull(i):
				values[i] = fill
			case intFill:
				values[i] = v
			default:
				f, _ := c.Float(i)
				values[i] = f
			}
		}
		kind := table.Float
		if intFill {
			kind = table.Int
		}
		_ = out.SetColumn(table.NewColumn(name, kind, values))
	}
	log().Info("missing values filled", logger.Fields(logger.FieldTable, t.Name, "strategy", strategy.String()))
	return out
}

func fillValue(values []float64, strategy FillStrategy) float64 {
	var v float64
	switch strategy {
	case FillMean:
		v = stats.Mean(values)
	case FillMedian:
		v = stats.Median(values)
	}
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// DetectAnomalies adds the Bool column is_anomaly. A row is anomalous when
// any numeric column's |x-mean|/std exceeds threshold, with the sample std.
// Non-finite scores never count.
func DetectAnomalies(t *table.Table, threshold float64) *table.Table {
	flags := make([]bool, t.Len())
	cols := t.NumericColumns()
	if len(cols) == 0 {
		log().Warn("no numeric columns for anomaly detection", logger.Fields(logger.FieldTable, t.Name))
	}
	for _, name := range cols {
		c, _ := t.Column(name)
		for i, z := range ZScores(c) {
			if !math.IsNaN(z) && !math.IsInf(z, 0) && z > threshold {
				flags[i] = true
			}
		}
	}

	out := t.Clone()
	_ = out.SetColumn(table.NewBoolColumn(AnomalyColumn, flags))

	count := 0
	for _, f := range flags {
		if f {
			count++
		}
	}
	log().Info("anomaly detection complete", logger.Fields(logger.FieldTable, t.Name, "anomalies", count, "threshold", threshold))
	return out
}

// ZScores returns |x-mean|/std for each row of a numeric column, NaN for nulls.
func ZScores(c *table.Column) []float64 {
	values := c.NonNullFloats()
	mean, std := stats.Mean(values), stats.SampleStd(values)
	out := make([]float64, c.Len())
	for i := range out {
		v, ok := c.Float(i)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Abs(v-mean) / std
	}
	return out
}

// ClipOutliers limits each named column to its [lower, upper] percentile
// range. Unknown, non-numeric and empty columns are skipped with a warning.
// Clipped columns become Float.
func ClipOutliers(t *table.Table, cols []string, lower, upper float64) *table.Table {
	out := t.Clone()
	for _, name := range cols {
		fields := logger.Fields(logger.FieldTable, t.Name, logger.FieldColumn, name)
		c, ok := out.Column(name)
		switch {
		case !ok:
			log().Warn("clip column not found", fields)
			continue
		case !c.Kind.Numeric():
			log().Warn("clip column not numeric", fields)
			continue
		}
		values := c.NonNullFloats()
		if len(values) == 0 {
			log().Warn("clip column has no values", fields)
			continue
		}
		lo, hi := stats.Percentile(values, lower), stats.Percentile(values, upper)
		clipped := c.Floats()
		for i, v := range clipped {
			if !math.IsNaN(v) {
				clipped[i] = math.Min(math.Max(v, lo), hi)
			}
		}
		_ = out.SetColumn(table.NewFloatColumn(name, clipped))
	}
	log().Info("outliers clipped", logger.Fields(logger.FieldTable, t.Name, "columns", cols))
	return out
}
