package table

import (
	"encoding/json"
	"fmt"
)

// Kind is the logical type of a column.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
	Timestamp
)

var kindNames = map[Kind]string{
	String:    "string",
	Int:       "integer",
	Float:     "float",
	Bool:      "boolean",
	Timestamp: "timestamp",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Numeric reports whether columns of this kind take part in numeric transforms.
// Booleans are not numeric.
func (k Kind) Numeric() bool {
	return k == Int || k == Float
}

// MarshalJSON writes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON reads a kind name or alias.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind resolves a type name, accepting the common aliases.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "string", "str", "text", "object":
		return String, nil
	case "integer", "int", "int64":
		return Int, nil
	case "float", "number", "double", "float64":
		return Float, nil
	case "boolean", "bool":
		return Bool, nil
	case "timestamp", "datetime", "date":
		return Timestamp, nil
	}
	return String, fmt.Errorf("unknown column type %q", name)
}
