package linear_model

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

// LogisticRegression implements L2-regularized logistic regression, binary
// directly and multiclass via one-vs-rest.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	c            float64 // Inverse regularization strength
	fitIntercept bool
	maxIter      int
	tol          float64
	learningRate float64

	// Fitted attributes
	Coef      [][]float64 // One weight vector per class (one row for binary)
	Intercept []float64
	ClassList []int
	NIter     []int
}

// LogisticRegressionOption configures a LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// WithLRC sets the inverse regularization strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithLRFitIntercept controls intercept fitting.
func WithLRFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

// WithLRMaxIter sets the gradient-descent iteration cap.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithLRTol sets the stopping tolerance on the gradient norm.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// NewLogisticRegression creates a classifier with scikit-learn-like
// defaults: C=1, intercept, 100 iterations, tol 1e-4.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		c:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
		learningRate: 0.1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// IsFitted reports whether the model has been fitted.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// Classes returns the labels seen during fitting, ascending.
func (lr *LogisticRegression) Classes() []int { return lr.ClassList }

// Fit trains the classifier. y must hold integer class labels in an n×1
// matrix.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}

	lr.ClassList = extractClasses(y)
	if len(lr.ClassList) < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "need at least 2 classes")
	}

	nBinary := len(lr.ClassList)
	if nBinary == 2 {
		nBinary = 1
	}
	lr.Coef = make([][]float64, nBinary)
	lr.Intercept = make([]float64, nBinary)
	lr.NIter = make([]int, nBinary)

	for k := 0; k < nBinary; k++ {
		positive := lr.ClassList[k]
		if len(lr.ClassList) == 2 {
			positive = lr.ClassList[1]
		}
		target := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			if int(y.At(i, 0)) == positive {
				target[i] = 1
			}
		}
		w, b, iters := lr.fitBinary(X, target)
		lr.Coef[k] = w
		lr.Intercept[k] = b
		lr.NIter[k] = iters
		if iters >= lr.maxIter {
			errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter, ""))
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// fitBinary runs full-batch gradient descent on the regularized logistic
// loss for a 0/1 target.
func (lr *LogisticRegression) fitBinary(X mat.Matrix, target []float64) (w []float64, b float64, iters int) {
	nSamples, nFeatures := X.Dims()
	w = make([]float64, nFeatures)
	lambda := 1.0 / lr.c

	for iters = 0; iters < lr.maxIter; iters++ {
		gradW := make([]float64, nFeatures)
		var gradB float64
		for i := 0; i < nSamples; i++ {
			z := b
			for j := 0; j < nFeatures; j++ {
				z += w[j] * X.At(i, j)
			}
			err := sigmoid(z) - target[i]
			for j := 0; j < nFeatures; j++ {
				gradW[j] += err * X.At(i, j)
			}
			gradB += err
		}

		var norm float64
		for j := 0; j < nFeatures; j++ {
			gradW[j] = gradW[j]/float64(nSamples) + lambda*w[j]/float64(nSamples)
			norm += gradW[j] * gradW[j]
		}
		gradB /= float64(nSamples)
		norm += gradB * gradB

		for j := 0; j < nFeatures; j++ {
			w[j] -= lr.learningRate * gradW[j]
		}
		if lr.fitIntercept {
			b -= lr.learningRate * gradB
		}

		if math.Sqrt(norm) < lr.tol {
			iters++
			break
		}
	}
	return w, b, iters
}

// decisionValues returns the raw scores, one column per binary problem.
func (lr *LogisticRegression) decisionValues(X mat.Matrix) (*mat.Dense, error) {
	r, c := X.Dims()
	nFeatures, _ := lr.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression", nFeatures, c, 1)
	}
	out := mat.NewDense(r, len(lr.Coef), nil)
	for i := 0; i < r; i++ {
		for k := range lr.Coef {
			z := lr.Intercept[k]
			for j := 0; j < c; j++ {
				z += lr.Coef[k][j] * X.At(i, j)
			}
			out.Set(i, k, z)
		}
	}
	return out, nil
}

// PredictProba returns per-class probabilities, columns in Classes() order.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	scores, err := lr.decisionValues(X)
	if err != nil {
		return nil, err
	}
	r, _ := scores.Dims()
	nClasses := len(lr.ClassList)
	out := mat.NewDense(r, nClasses, nil)

	if nClasses == 2 {
		for i := 0; i < r; i++ {
			p := sigmoid(scores.At(i, 0))
			out.Set(i, 0, 1-p)
			out.Set(i, 1, p)
		}
		return out, nil
	}

	// OVR: normalize the per-class sigmoids.
	for i := 0; i < r; i++ {
		var sum float64
		for k := 0; k < nClasses; k++ {
			p := sigmoid(scores.At(i, k))
			out.Set(i, k, p)
			sum += p
		}
		if sum > 0 {
			for k := 0; k < nClasses; k++ {
				out.Set(i, k, out.At(i, k)/sum)
			}
		}
	}
	return out, nil
}

// Predict returns the most probable class label for each row.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestP := 0, proba.At(i, 0)
		for k := 1; k < len(lr.ClassList); k++ {
			if proba.At(i, k) > bestP {
				best, bestP = k, proba.At(i, k)
			}
		}
		out.Set(i, 0, float64(lr.ClassList[best]))
	}
	return out, nil
}

// Score returns accuracy on the given data.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(colVec(y), colVec(pred))
}

// GetParams returns the model's hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.c,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// String returns a printable representation.
func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(C=%g, max_iter=%d)", lr.c, lr.maxIter)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func extractClasses(y mat.Matrix) []int {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}
	classes := make([]int, 0, len(classMap))
	for c := range classMap {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}
