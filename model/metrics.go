package model

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RegressionMetrics scores continuous predictions.
type RegressionMetrics struct {
	MAE  float64 `json:"MAE"`
	RMSE float64 `json:"RMSE"`
	R2   float64 `json:"R2"`
}

// ClassificationMetrics scores label predictions. Precision, recall and F1
// are support-weighted averages over Labels.
type ClassificationMetrics struct {
	Accuracy        float64   `json:"Accuracy"`
	F1              float64   `json:"F1-Score"`
	Precision       float64   `json:"Precision"`
	Recall          float64   `json:"Recall"`
	Labels          []float64 `json:"labels"`
	ConfusionMatrix [][]int   `json:"Confusion_Matrix"`
}

// Metrics holds whichever score set matches the model kind.
type Metrics struct {
	Regression     *RegressionMetrics     `json:"regression,omitempty"`
	Classification *ClassificationMetrics `json:"classification,omitempty"`
}

// EvaluateRegression computes MAE, RMSE and R². A constant truth gives R² of
// 1 for a perfect fit and 0 otherwise.
func EvaluateRegression(truth, pred []float64) RegressionMetrics {
	n := float64(len(truth))
	if n == 0 {
		return RegressionMetrics{MAE: math.NaN(), RMSE: math.NaN(), R2: math.NaN()}
	}
	m := RegressionMetrics{
		MAE:  floats.Distance(truth, pred, 1) / n,
		RMSE: floats.Distance(truth, pred, 2) / math.Sqrt(n),
	}

	mean := stat.Mean(truth, nil)
	var ssRes, ssTot float64
	for i, y := range truth {
		ssRes += (y - pred[i]) * (y - pred[i])
		ssTot += (y - mean) * (y - mean)
	}
	switch {
	case ssTot != 0:
		m.R2 = 1 - ssRes/ssTot
	case ssRes == 0:
		m.R2 = 1
	}
	return m
}

// EvaluateClassification computes accuracy, weighted precision, recall and F1,
// and the confusion matrix with rows as truth and columns as prediction.
// Undefined per-class ratios count as 0.
func EvaluateClassification(truth, pred []float64) ClassificationMetrics {
	labels := slices.Compact(slices.Sorted(slices.Values(append(slices.Clone(truth), pred...))))
	idx := func(v float64) int {
		i, _ := slices.BinarySearch(labels, v)
		return i
	}

	cm := make([][]int, len(labels))
	for i := range cm {
		cm[i] = make([]int, len(labels))
	}
	correct := 0
	for i, y := range truth {
		cm[idx(y)][idx(pred[i])]++
		if y == pred[i] {
			correct++
		}
	}

	m := ClassificationMetrics{Labels: labels, ConfusionMatrix: cm}
	if len(truth) == 0 {
		return m
	}
	m.Accuracy = float64(correct) / float64(len(truth))

	for k := range labels {
		var support, predicted int
		for j := range labels {
			support += cm[k][j]
			predicted += cm[j][k]
		}
		if support == 0 {
			continue
		}
		tp := float64(cm[k][k])
		var precision, recall, f1 float64
		if predicted > 0 {
			precision = tp / float64(predicted)
		}
		recall = tp / float64(support)
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		w := float64(support) / float64(len(truth))
		m.Precision += w * precision
		m.Recall += w * recall
		m.F1 += w * f1
	}
	return m
}
