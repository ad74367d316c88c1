package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/cemint/cemint-insights/errors"
)

// nullTokens are read as missing values.
var nullTokens = map[string]bool{
	"": true, "NaN": true, "nan": true, "-NaN": true, "-nan": true,
	"NA": true, "N/A": true, "n/a": true, "#N/A": true, "<NA>": true,
	"null": true, "NULL": true, "None": true,
}

// IsNullToken reports whether a raw CSV field denotes a missing value.
func IsNullToken(s string) bool {
	return nullTokens[strings.TrimSpace(s)]
}

// ReadCSV reads a headed CSV document and infers one kind per column, trying
// Int, then Float, then Bool, then String. A column with no values is Float.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.InvalidFormat("csv", fmt.Sprintf("%s has no header row", name))
		}
		return nil, apperrors.InvalidFormat("csv", err.Error()).WithCause(err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	raw := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.InvalidFormat("csv", fmt.Sprintf("%s: %v", name, err)).WithCause(err)
		}
		for i := range header {
			raw[i] = append(raw[i], rec[i])
		}
	}

	t := New(name)
	for i, colName := range header {
		colName = strings.TrimSpace(colName)
		if t.Has(colName) {
			return nil, apperrors.InvalidFormat("csv", fmt.Sprintf("%s: duplicate column %q", name, colName))
		}
		if err := t.SetColumn(inferColumn(colName, raw[i])); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func inferColumn(name string, fields []string) *Column {
	kind := inferKind(fields)
	values := make([]any, len(fields))
	for i, f := range fields {
		if IsNullToken(f) {
			continue
		}
		values[i] = parseAs(kind, f)
	}
	return &Column{Name: name, Kind: kind, Values: values}
}

func inferKind(fields []string) Kind {
	isInt, isFloat, isBool, seen := true, true, true, false
	for _, f := range fields {
		if IsNullToken(f) {
			continue
		}
		seen = true
		s := strings.TrimSpace(f)
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat && !isInt {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(s); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return String
		}
	}
	switch {
	case !seen:
		return Float
	case isInt:
		return Int
	case isFloat:
		return Float
	case isBool:
		return Bool
	}
	return String
}

func parseAs(kind Kind, f string) any {
	s := strings.TrimSpace(f)
	switch kind {
	case Int:
		v, _ := strconv.ParseInt(s, 10, 64)
		return v
	case Float:
		v, _ := strconv.ParseFloat(s, 64)
		return v
	case Bool:
		v, _ := parseBool(s)
		return v
	}
	return f
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	}
	return false, false
}

// WriteCSV writes t with a header row. Nulls are empty fields, integral floats
// keep a ".0" suffix so the column reads back as Float.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	rec := make([]string, t.Width())
	for i := 0; i < t.Len(); i++ {
		for j, c := range t.Columns() {
			rec[j] = FormatValue(c.Values[i])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders one cell as CSV text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case time.Time:
		return FormatTimestamp(x)
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
