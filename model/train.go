package model

import (
	"math"
	"math/rand/v2"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/table"
)

// Defaults for TrainConfig.
const (
	DefaultTestSize = 0.2
	DefaultSeed     = 42
)

// TrainConfig selects the target and the split.
type TrainConfig struct {
	Target   string  `mapstructure:"target" json:"target" validate:"required"`
	Kind     Kind    `mapstructure:"kind" json:"kind"`
	TestSize float64 `mapstructure:"test_size" json:"test_size" validate:"gte=0,lt=1"`
	Seed     uint64  `mapstructure:"seed" json:"seed"`
}

// ApplyDefaults fills unset fields.
func (c *TrainConfig) ApplyDefaults() {
	if c.Kind == "" {
		c.Kind = KindRegressor
	}
	if c.TestSize == 0 {
		c.TestSize = DefaultTestSize
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
}

// TrainResult is a fitted model with its held-out scores.
type TrainResult struct {
	Model     Model    `json:"-"`
	Features  []string `json:"features"`
	TrainRows int      `json:"train_rows"`
	TestRows  int      `json:"test_rows"`
	Metrics   Metrics  `json:"metrics"`
}

// Train fits a model predicting cfg.Target from every other numeric column of
// t. Rows with a null feature or target are dropped. A boolean target is read
// as 0/1.
func Train(t *table.Table, cfg TrainConfig) (*TrainResult, error) {
	cfg.ApplyDefaults()
	if _, err := ParseKind(string(cfg.Kind)); err != nil {
		return nil, err
	}
	target, ok := t.Column(cfg.Target)
	if !ok {
		return nil, apperrors.MissingColumn(cfg.Target)
	}
	if !target.Kind.Numeric() && target.Kind != table.Bool {
		return nil, apperrors.NotNumeric(cfg.Target)
	}

	var features []string
	for _, name := range t.NumericColumns() {
		if name != cfg.Target {
			features = append(features, name)
		}
	}
	if len(features) == 0 {
		return nil, apperrors.NoNumericColumns(t.Name)
	}

	x, y := samples(t, features, cfg.Target)
	if len(y) < 2 {
		return nil, apperrors.InvalidInput("rows", "need at least two complete rows to train")
	}

	train, test := split(len(y), cfg.TestSize, cfg.Seed)
	xTrain, yTrain := pick(x, y, train)
	xTest, yTest := pick(x, y, test)

	res := &TrainResult{Features: features, TrainRows: len(train), TestRows: len(test)}
	switch cfg.Kind {
	case KindClassifier:
		m, err := FitCentroid(features, xTrain, yTrain)
		if err != nil {
			return nil, err
		}
		cm := EvaluateClassification(yTest, m.predict(xTest))
		res.Model, res.Metrics.Classification = m, &cm
	default:
		m, err := FitLinear(features, xTrain, yTrain)
		if err != nil {
			return nil, err
		}
		rm := EvaluateRegression(yTest, m.predict(xTest))
		res.Model, res.Metrics.Regression = m, &rm
	}

	logger.WithComponent("model").Info("model trained", logger.Fields(
		logger.FieldTable, t.Name,
		"target", cfg.Target,
		"kind", string(cfg.Kind),
		"features", len(features),
		"train_rows", res.TrainRows,
		"test_rows", res.TestRows,
	))
	return res, nil
}

func samples(t *table.Table, features []string, target string) ([][]float64, []float64) {
	cols := make([]*table.Column, len(features))
	for j, f := range features {
		cols[j], _ = t.Column(f)
	}
	tc, _ := t.Column(target)

	var (
		x [][]float64
		y []float64
	)
rows:
	for i := 0; i < t.Len(); i++ {
		label, ok := targetValue(tc, i)
		if !ok {
			continue
		}
		row := make([]float64, len(cols))
		for j, c := range cols {
			v, ok := c.Float(i)
			if !ok {
				continue rows
			}
			row[j] = v
		}
		x = append(x, row)
		y = append(y, label)
	}
	return x, y
}

func targetValue(c *table.Column, i int) (float64, bool) {
	if b, ok := c.Values[i].(bool); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return c.Float(i)
}

// split shuffles row indices with seed and holds out ceil(n*testSize) of
// them, keeping at least one row on each side.
func split(n int, testSize float64, seed uint64) (train, test []int) {
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	nTest := int(math.Ceil(float64(n) * testSize))
	nTest = max(1, min(nTest, n-1))
	return perm[nTest:], perm[:nTest]
}

func pick(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	px := make([][]float64, len(idx))
	py := make([]float64, len(idx))
	for i, j := range idx {
		px[i], py[i] = x[j], y[j]
	}
	return px, py
}
