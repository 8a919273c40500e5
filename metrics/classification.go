package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// Accuracy computes the fraction of exact matches between truth and estimate.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// Precision computes TP / (TP + FP) for the given positive class. When no
// positive predictions exist the metric is ill-defined: an
// UndefinedMetricWarning is raised and 0 returned.
func Precision(yTrue, yPred *mat.VecDense, positive float64) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Precision", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Precision", n, yPred.Len(), 0)
	}

	var tp, fp float64
	for i := 0; i < n; i++ {
		if yPred.AtVec(i) == positive {
			if yTrue.AtVec(i) == positive {
				tp++
			} else {
				fp++
			}
		}
	}
	if tp+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no positive predictions", 0))
		return 0, nil
	}
	return tp / (tp + fp), nil
}

// Recall computes TP / (TP + FN) for the given positive class. When no
// positive observations exist the metric is ill-defined: an
// UndefinedMetricWarning is raised and 0 returned.
func Recall(yTrue, yPred *mat.VecDense, positive float64) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Recall", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Recall", n, yPred.Len(), 0)
	}

	var tp, fn float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == positive {
			if yPred.AtVec(i) == positive {
				tp++
			} else {
				fn++
			}
		}
	}
	if tp+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no positive observations", 0))
		return 0, nil
	}
	return tp / (tp + fn), nil
}

// F1 computes the harmonic mean of precision and recall for the given
// positive class.
func F1(yTrue, yPred *mat.VecDense, positive float64) (float64, error) {
	p, err := Precision(yTrue, yPred, positive)
	if err != nil {
		return 0, err
	}
	r, err := Recall(yTrue, yPred, positive)
	if err != nil {
		return 0, err
	}
	if p+r == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "precision and recall both zero", 0))
		return 0, nil
	}
	return 2 * p * r / (p + r), nil
}

// LogLoss computes the negative mean log-likelihood over class probability
// estimates. proba must be n×k with columns in class-index order and yTrue
// must hold class indices in [0, k).
func LogLoss(yTrue *mat.VecDense, proba mat.Matrix) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty vector")
	}
	rows, cols := proba.Dims()
	if rows != n {
		return 0, errors.NewDimensionError("LogLoss", n, rows, 0)
	}

	const eps = 1e-15
	var loss float64
	for i := 0; i < n; i++ {
		class := int(yTrue.AtVec(i))
		if class < 0 || class >= cols {
			return 0, errors.NewValueError("LogLoss", "class index out of range")
		}
		p := proba.At(i, class)
		p = math.Min(math.Max(p, eps), 1-eps)
		loss -= math.Log(p)
	}
	return loss / float64(n), nil
}

// ConfusionMatrix counts truth×estimate pairs for nClasses classes. Rows are
// truth, columns are estimates.
func ConfusionMatrix(yTrue, yPred *mat.VecDense, nClasses int) ([][]int, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("ConfusionMatrix", n, yPred.Len(), 0)
	}
	if nClasses < 2 {
		return nil, errors.NewValidationError("nClasses", "must be at least 2", nClasses)
	}

	cm := make([][]int, nClasses)
	for i := range cm {
		cm[i] = make([]int, nClasses)
	}
	for i := 0; i < n; i++ {
		truth := int(yTrue.AtVec(i))
		est := int(yPred.AtVec(i))
		if truth < 0 || truth >= nClasses || est < 0 || est >= nClasses {
			return nil, errors.NewValueError("ConfusionMatrix", "class index out of range")
		}
		cm[truth][est]++
	}
	return cm, nil
}
