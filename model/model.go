// Package model fits the small regression and classification models trained
// on processed stage tables, evaluates them, and versions them in storage.
package model

import (
	"fmt"

	apperrors "github.com/cemint/cemint-insights/errors"
)

// Kind names a model family.
type Kind string

const (
	KindRegressor  Kind = "regressor"
	KindClassifier Kind = "classifier"
)

// ParseKind resolves a model family name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRegressor, KindClassifier:
		return Kind(s), nil
	}
	return "", apperrors.UnsupportedMethod("model", s, []string{string(KindRegressor), string(KindClassifier)})
}

// Model predicts one value per feature row.
type Model interface {
	Kind() Kind
	Features() []string
	Predict(rows []map[string]float64) ([]float64, error)
}

// matrix extracts feature rows in the model's feature order.
func matrix(features []string, rows []map[string]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		x := make([]float64, len(features))
		for j, f := range features {
			v, ok := row[f]
			if !ok {
				return nil, apperrors.MissingColumn(f).WithDetail("row", i)
			}
			x[j] = v
		}
		out[i] = x
	}
	return out, nil
}

func checkWidth(x [][]float64, width int) error {
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	return nil
}
