// Package schema loads per-stage column definitions and validates tables
// against them.
package schema

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/table"
)

// Field declares one expected column.
type Field struct {
	Name string     `json:"name"`
	Type table.Kind `json:"type"`
}

// Schema is the expected column layout of one stage's table.
type Schema struct {
	Stage  string  `json:"stage"`
	Fields []Field `json:"fields"`
}

// Names returns the declared column names in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the declaration for a column.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// document is the on-disk form. Either fields or columns is set; a columns
// entry is a bare name or a field object.
type document struct {
	Fields  []rawField        `json:"fields"`
	Columns []json.RawMessage `json:"columns"`
}

type rawField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Parse decodes a schema document for stage. Bare column names default to
// the string type.
func Parse(stage string, data []byte) (*Schema, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.InvalidFormat("schema", fmt.Sprintf("%s: %v", stage, err)).WithCause(err)
	}

	raw := doc.Fields
	if raw == nil {
		for _, c := range doc.Columns {
			var name string
			if err := json.Unmarshal(c, &name); err == nil {
				raw = append(raw, rawField{Name: name})
				continue
			}
			var f rawField
			if err := json.Unmarshal(c, &f); err != nil {
				return nil, apperrors.InvalidFormat("schema", fmt.Sprintf("%s: column entry %s", stage, c))
			}
			raw = append(raw, f)
		}
	}
	if len(raw) == 0 {
		return nil, apperrors.InvalidFormat("schema", fmt.Sprintf("%s declares no fields", stage))
	}

	s := &Schema{Stage: stage, Fields: make([]Field, 0, len(raw))}
	seen := make(map[string]bool, len(raw))
	for _, f := range raw {
		if f.Name == "" {
			return nil, apperrors.InvalidFormat("schema", fmt.Sprintf("%s: field without a name", stage))
		}
		if seen[f.Name] {
			return nil, apperrors.InvalidFormat("schema", fmt.Sprintf("%s: duplicate field %q", stage, f.Name))
		}
		seen[f.Name] = true

		kind := table.String
		if f.Type != "" {
			k, err := table.ParseKind(f.Type)
			if err != nil {
				return nil, apperrors.InvalidFormat("schema", fmt.Sprintf("%s.%s: %v", stage, f.Name, err))
			}
			kind = k
		}
		s.Fields = append(s.Fields, Field{Name: f.Name, Type: kind})
	}
	return s, nil
}
