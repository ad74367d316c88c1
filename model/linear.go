package model

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	apperrors "github.com/cemint/cemint-insights/errors"
)

// rcond is the relative singular value cutoff when solving least squares.
const rcond = 1e-10

var errSVD = errors.New("singular value decomposition failed")

// LinearRegressor is an ordinary least squares fit with intercept.
type LinearRegressor struct {
	FeatureNames []string  `json:"features"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// FitLinear fits y ~ x. Collinear features get the minimum norm solution.
func FitLinear(features []string, x [][]float64, y []float64) (*LinearRegressor, error) {
	n, p := len(x), len(features)
	if n == 0 || n != len(y) {
		return nil, apperrors.InvalidInput("rows", "need one target per feature row and at least one row")
	}
	if err := checkWidth(x, p); err != nil {
		return nil, apperrors.InvalidInput("features", err.Error())
	}

	design := mat.NewDense(n, p+1, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return nil, apperrors.Internal(errSVD)
	}
	beta := make([]float64, p+1)
	if rank := svd.Rank(rcond); rank > 0 {
		var sol mat.VecDense
		svd.SolveVecTo(&sol, mat.NewVecDense(n, append([]float64(nil), y...)), rank)
		for i := range beta {
			beta[i] = sol.AtVec(i)
		}
	}

	return &LinearRegressor{
		FeatureNames: append([]string(nil), features...),
		Intercept:    beta[0],
		Coefficients: beta[1:],
	}, nil
}

func (m *LinearRegressor) Kind() Kind         { return KindRegressor }
func (m *LinearRegressor) Features() []string { return m.FeatureNames }

// Predict evaluates the fitted line on each row.
func (m *LinearRegressor) Predict(rows []map[string]float64) ([]float64, error) {
	x, err := matrix(m.FeatureNames, rows)
	if err != nil {
		return nil, err
	}
	return m.predict(x), nil
}

func (m *LinearRegressor) predict(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = m.Intercept + floats.Dot(m.Coefficients, row)
	}
	return out
}
