package model

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/cemint/cemint-insights/errors"
)

// CentroidClassifier assigns each row the label of the nearest class mean.
// Features are standardized with the training mean and std first.
type CentroidClassifier struct {
	FeatureNames []string    `json:"features"`
	Mean         []float64   `json:"mean"`
	Std          []float64   `json:"std"`
	Labels       []float64   `json:"labels"`
	Centroids    [][]float64 `json:"centroids"`
}

// FitCentroid computes one centroid per distinct label in y.
func FitCentroid(features []string, x [][]float64, y []float64) (*CentroidClassifier, error) {
	n, p := len(x), len(features)
	if n == 0 || n != len(y) {
		return nil, apperrors.InvalidInput("rows", "need one label per feature row and at least one row")
	}
	if err := checkWidth(x, p); err != nil {
		return nil, apperrors.InvalidInput("features", err.Error())
	}

	m := &CentroidClassifier{
		FeatureNames: append([]string(nil), features...),
		Mean:         make([]float64, p),
		Std:          make([]float64, p),
	}
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		m.Mean[j], m.Std[j] = stat.PopMeanStdDev(col, nil)
	}

	m.Labels = slices.Compact(slices.Sorted(slices.Values(y)))
	m.Centroids = make([][]float64, len(m.Labels))
	counts := make([]float64, len(m.Labels))
	for k := range m.Centroids {
		m.Centroids[k] = make([]float64, p)
	}
	for i, row := range x {
		k, _ := slices.BinarySearch(m.Labels, y[i])
		floats.Add(m.Centroids[k], m.scale(row))
		counts[k]++
	}
	for k := range m.Centroids {
		floats.Scale(1/counts[k], m.Centroids[k])
	}
	return m, nil
}

func (m *CentroidClassifier) Kind() Kind         { return KindClassifier }
func (m *CentroidClassifier) Features() []string { return m.FeatureNames }

// Predict returns the nearest centroid's label for each row. Ties go to the
// smaller label.
func (m *CentroidClassifier) Predict(rows []map[string]float64) ([]float64, error) {
	x, err := matrix(m.FeatureNames, rows)
	if err != nil {
		return nil, err
	}
	return m.predict(x), nil
}

func (m *CentroidClassifier) predict(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		z := m.scale(row)
		best, bestDist := 0, math.Inf(1)
		for k, c := range m.Centroids {
			if d := floats.Distance(z, c, 2); d < bestDist {
				best, bestDist = k, d
			}
		}
		out[i] = m.Labels[best]
	}
	return out
}

func (m *CentroidClassifier) scale(row []float64) []float64 {
	z := make([]float64, len(row))
	for j, v := range row {
		z[j] = v - m.Mean[j]
		if m.Std[j] > 0 {
			z[j] /= m.Std[j]
		}
	}
	return z
}
