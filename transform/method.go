package transform

import (
	"encoding/json"

	apperrors "github.com/cemint/cemint-insights/errors"
)

// Method selects a normalization.
type Method int

const (
	// MinMax rescales each column to [0, 1].
	MinMax Method = iota
	// Standard centers each column and divides by its population std.
	Standard
)

func (m Method) String() string {
	if m == Standard {
		return "standard"
	}
	return "minmax"
}

// ParseMethod resolves "minmax" or "standard".
func ParseMethod(s string) (Method, error) {
	switch s {
	case "minmax":
		return MinMax, nil
	case "standard":
		return Standard, nil
	}
	return MinMax, apperrors.UnsupportedMethod("normalization", s, []string{"minmax", "standard"})
}

// MarshalJSON writes the method name.
func (m Method) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON reads a method name.
func (m *Method) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// FillStrategy selects the statistic missing numeric values are filled with.
type FillStrategy int

const (
	FillMean FillStrategy = iota
	FillMedian
	FillZero
)

func (f FillStrategy) String() string {
	switch f {
	case FillMedian:
		return "median"
	case FillZero:
		return "zero"
	}
	return "mean"
}

// ParseFillStrategy resolves "mean", "median" or "zero".
func ParseFillStrategy(s string) (FillStrategy, error) {
	switch s {
	case "mean":
		return FillMean, nil
	case "median":
		return FillMedian, nil
	case "zero":
		return FillZero, nil
	}
	return FillMean, apperrors.UnsupportedMethod("fill", s, []string{"mean", "median", "zero"})
}
