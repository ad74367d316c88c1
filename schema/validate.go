package schema

import (
	"sort"
	"strings"

	"github.com/cemint/cemint-insights/table"
)

// TimestampColumn is the column whose values must parse as datetimes.
const TimestampColumn = "timestamp"

// Report is the detailed outcome of checking a table against a schema.
type Report struct {
	OK      bool     `json:"ok"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
	Empty   []string `json:"empty,omitempty"`
}

// Validate checks t against s. Checks run in order and the first failure
// decides the message: missing declared columns, entirely null columns, then
// unparseable timestamps.
func Validate(t *table.Table, s *Schema) (bool, string) {
	r := Check(t, s)
	return r.OK, r.Message
}

// Check is Validate with the column lists that led to the verdict. Extra
// columns are reported but never fail the check.
func Check(t *table.Table, s *Schema) Report {
	var r Report
	for _, name := range s.Names() {
		if !t.Has(name) {
			r.Missing = append(r.Missing, name)
		}
	}
	for _, name := range t.ColumnNames() {
		if _, ok := s.Field(name); !ok {
			r.Extra = append(r.Extra, name)
		}
	}
	for _, c := range t.Columns() {
		if c.AllNull() {
			r.Empty = append(r.Empty, c.Name)
		}
	}

	switch {
	case len(r.Missing) > 0:
		missing := append([]string(nil), r.Missing...)
		sort.Strings(missing)
		r.Message = "Missing columns: {" + joinQuoted(missing) + "}"
	case len(r.Empty) > 0:
		r.Message = "Empty columns: [" + joinQuoted(r.Empty) + "]"
	case !timestampsParse(t):
		r.Message = "Timestamp parse error"
	default:
		r.OK = true
		r.Message = "OK"
	}
	return r
}

func timestampsParse(t *table.Table) bool {
	c, ok := t.Column(TimestampColumn)
	if !ok {
		return true
	}
	for i, v := range c.Values {
		if c.IsNull(i) {
			continue
		}
		if _, ok := table.AsTimestamp(v); !ok {
			return false
		}
	}
	return true
}

func joinQuoted(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}

// quote renders a name the way the plant tooling prints string literals:
// single quotes unless the name itself contains one.
func quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
