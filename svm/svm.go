// Package svm implements linear support vector machines trained by
// stochastic gradient descent: hinge loss for classification (one-vs-rest
// for multiclass) and epsilon-insensitive loss for regression.
package svm

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

type svmParams struct {
	C           float64
	Epochs      int
	Tol         float64
	Epsilon     float64 // Regression tube width
	RandomState int64
}

func defaultSVMParams() svmParams {
	return svmParams{
		C:           1.0,
		Epochs:      100,
		Tol:         1e-4,
		Epsilon:     0.1,
		RandomState: 42,
	}
}

// SVMOption configures a LinearSVC or LinearSVR.
type SVMOption func(*svmParams)

// WithC sets the regularization trade-off (larger C, less regularization).
func WithC(c float64) SVMOption {
	return func(p *svmParams) { p.C = c }
}

// WithEpochs sets the number of SGD passes over the data.
func WithEpochs(n int) SVMOption {
	return func(p *svmParams) { p.Epochs = n }
}

// WithEpsilon sets the insensitive-tube width for regression.
func WithEpsilon(eps float64) SVMOption {
	return func(p *svmParams) { p.Epsilon = eps }
}

// WithSVMRandomState seeds the SGD sample order.
func WithSVMRandomState(seed int64) SVMOption {
	return func(p *svmParams) { p.RandomState = seed }
}

// LinearSVC is a linear support vector classifier.
type LinearSVC struct {
	state  *model.StateManager
	params svmParams

	// Coef holds one weight vector per binary problem (one row for binary
	// classification).
	Coef      [][]float64
	Intercept []float64
	ClassList []int
}

// NewLinearSVC creates a classifier with C=1 and 100 epochs.
func NewLinearSVC(opts ...SVMOption) *LinearSVC {
	p := defaultSVMParams()
	for _, opt := range opts {
		opt(&p)
	}
	return &LinearSVC{state: model.NewStateManager(), params: p}
}

// IsFitted reports whether the model has been fitted.
func (s *LinearSVC) IsFitted() bool { return s.state.IsFitted() }

// Classes returns the labels seen during fitting, ascending.
func (s *LinearSVC) Classes() []int { return s.ClassList }

// Fit trains one hinge-loss SGD problem per class (a single problem for the
// binary case).
func (s *LinearSVC) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	if err := validateXY("LinearSVC.Fit", X, y); err != nil {
		return err
	}

	classMap := make(map[int]bool)
	for i := 0; i < nSamples; i++ {
		classMap[int(y.At(i, 0))] = true
	}
	s.ClassList = s.ClassList[:0]
	for c := range classMap {
		s.ClassList = append(s.ClassList, c)
	}
	sort.Ints(s.ClassList)
	if len(s.ClassList) < 2 {
		return errors.NewValueError("LinearSVC.Fit", "need at least 2 classes")
	}

	nBinary := len(s.ClassList)
	if nBinary == 2 {
		nBinary = 1
	}
	s.Coef = make([][]float64, nBinary)
	s.Intercept = make([]float64, nBinary)

	for k := 0; k < nBinary; k++ {
		positive := s.ClassList[k]
		if len(s.ClassList) == 2 {
			positive = s.ClassList[1]
		}
		target := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			if int(y.At(i, 0)) == positive {
				target[i] = 1
			} else {
				target[i] = -1
			}
		}
		w, b, converged := s.fitBinary(X, target, int64(k))
		s.Coef[k] = w
		s.Intercept[k] = b
		if !converged {
			errors.Warn(errors.NewConvergenceWarning("LinearSVC", s.params.Epochs, ""))
		}
	}

	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()
	return nil
}

// fitBinary runs Pegasos-style SGD on the hinge loss for a +-1 target.
func (s *LinearSVC) fitBinary(X mat.Matrix, target []float64, seedOffset int64) (w []float64, b float64, converged bool) {
	nSamples, nFeatures := X.Dims()
	w = make([]float64, nFeatures)
	lambda := 1.0 / (s.params.C * float64(nSamples))
	rng := rand.New(rand.NewSource(s.params.RandomState + seedOffset))

	step := 0
	for epoch := 0; epoch < s.params.Epochs; epoch++ {
		var moved float64
		for _, i := range rng.Perm(nSamples) {
			step++
			eta := 1.0 / (lambda * float64(step))

			z := b
			for j := 0; j < nFeatures; j++ {
				z += w[j] * X.At(i, j)
			}

			for j := 0; j < nFeatures; j++ {
				w[j] *= 1 - eta*lambda
			}
			if target[i]*z < 1 {
				for j := 0; j < nFeatures; j++ {
					delta := eta * target[i] * X.At(i, j)
					w[j] += delta
					moved += math.Abs(delta)
				}
				b += eta * target[i]
			}
		}
		if moved/float64(nSamples) < s.params.Tol {
			return w, b, true
		}
	}
	return w, b, false
}

// decisionValues returns raw margins, one column per binary problem.
func (s *LinearSVC) decisionValues(X mat.Matrix) (*mat.Dense, error) {
	r, c := X.Dims()
	nFeatures, _ := s.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("LinearSVC", nFeatures, c, 1)
	}
	out := mat.NewDense(r, len(s.Coef), nil)
	for i := 0; i < r; i++ {
		for k := range s.Coef {
			z := s.Intercept[k]
			for j := 0; j < c; j++ {
				z += s.Coef[k][j] * X.At(i, j)
			}
			out.Set(i, k, z)
		}
	}
	return out, nil
}

// PredictProba maps margins through a sigmoid and normalizes. The scores are
// calibrated only loosely; they exist so SVC workflows can report ROC-AUC.
func (s *LinearSVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("LinearSVC", "PredictProba")
	}
	scores, err := s.decisionValues(X)
	if err != nil {
		return nil, err
	}
	r, _ := scores.Dims()
	nClasses := len(s.ClassList)
	out := mat.NewDense(r, nClasses, nil)

	if nClasses == 2 {
		for i := 0; i < r; i++ {
			p := 1 / (1 + math.Exp(-scores.At(i, 0)))
			out.Set(i, 0, 1-p)
			out.Set(i, 1, p)
		}
		return out, nil
	}

	for i := 0; i < r; i++ {
		var sum float64
		for k := 0; k < nClasses; k++ {
			p := 1 / (1 + math.Exp(-scores.At(i, k)))
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

// Predict returns the margin-winning class label per row.
func (s *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("LinearSVC", "Predict")
	}
	scores, err := s.decisionValues(X)
	if err != nil {
		return nil, err
	}
	r, _ := scores.Dims()
	out := mat.NewDense(r, 1, nil)

	if len(s.ClassList) == 2 {
		for i := 0; i < r; i++ {
			if scores.At(i, 0) >= 0 {
				out.Set(i, 0, float64(s.ClassList[1]))
			} else {
				out.Set(i, 0, float64(s.ClassList[0]))
			}
		}
		return out, nil
	}

	for i := 0; i < r; i++ {
		best, bestZ := 0, scores.At(i, 0)
		for k := 1; k < len(s.ClassList); k++ {
			if scores.At(i, k) > bestZ {
				best, bestZ = k, scores.At(i, k)
			}
		}
		out.Set(i, 0, float64(s.ClassList[best]))
	}
	return out, nil
}

// Score returns accuracy on the given data.
func (s *LinearSVC) Score(X, y mat.Matrix) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(colVec(y), colVec(pred))
}

// GetParams returns the model's hyperparameters.
func (s *LinearSVC) GetParams() map[string]interface{} {
	return map[string]interface{}{"C": s.params.C, "epochs": s.params.Epochs}
}

// String returns a printable representation.
func (s *LinearSVC) String() string {
	return fmt.Sprintf("LinearSVC(C=%g, epochs=%d)", s.params.C, s.params.Epochs)
}

// LinearSVR is a linear support vector regressor with an epsilon-insensitive
// tube.
type LinearSVR struct {
	state  *model.StateManager
	params svmParams

	Coef      []float64
	Intercept float64
}

// NewLinearSVR creates a regressor with C=1 and a 0.1 tube.
func NewLinearSVR(opts ...SVMOption) *LinearSVR {
	p := defaultSVMParams()
	for _, opt := range opts {
		opt(&p)
	}
	return &LinearSVR{state: model.NewStateManager(), params: p}
}

// IsFitted reports whether the model has been fitted.
func (s *LinearSVR) IsFitted() bool { return s.state.IsFitted() }

// Fit runs SGD on the epsilon-insensitive loss.
func (s *LinearSVR) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	if err := validateXY("LinearSVR.Fit", X, y); err != nil {
		return err
	}

	s.Coef = make([]float64, nFeatures)
	s.Intercept = 0
	lambda := 1.0 / (s.params.C * float64(nSamples))
	rng := rand.New(rand.NewSource(s.params.RandomState))

	step := 0
	converged := false
	for epoch := 0; epoch < s.params.Epochs && !converged; epoch++ {
		var moved float64
		for _, i := range rng.Perm(nSamples) {
			step++
			eta := 1.0 / (lambda * float64(step))

			pred := s.Intercept
			for j := 0; j < nFeatures; j++ {
				pred += s.Coef[j] * X.At(i, j)
			}
			residual := y.At(i, 0) - pred

			for j := 0; j < nFeatures; j++ {
				s.Coef[j] *= 1 - eta*lambda
			}
			if math.Abs(residual) > s.params.Epsilon {
				sign := 1.0
				if residual < 0 {
					sign = -1
				}
				for j := 0; j < nFeatures; j++ {
					delta := eta * sign * X.At(i, j)
					s.Coef[j] += delta
					moved += math.Abs(delta)
				}
				s.Intercept += eta * sign
			}
		}
		converged = moved/float64(nSamples) < s.params.Tol
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LinearSVR", s.params.Epochs, ""))
	}

	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()
	return nil
}

// Predict returns fitted values for X as an n×1 matrix.
func (s *LinearSVR) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("LinearSVR", "Predict")
	}
	r, c := X.Dims()
	nFeatures, _ := s.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("LinearSVR.Predict", nFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		v := s.Intercept
		for j := 0; j < c; j++ {
			v += s.Coef[j] * X.At(i, j)
		}
		out.Set(i, 0, v)
	}
	return out, nil
}

// Score returns R² on the given data.
func (s *LinearSVR) Score(X, y mat.Matrix) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(colVec(y), colVec(pred))
}

// GetParams returns the model's hyperparameters.
func (s *LinearSVR) GetParams() map[string]interface{} {
	return map[string]interface{}{"C": s.params.C, "epsilon": s.params.Epsilon, "epochs": s.params.Epochs}
}

// String returns a printable representation.
func (s *LinearSVR) String() string {
	return fmt.Sprintf("LinearSVR(C=%g, epsilon=%g)", s.params.C, s.params.Epsilon)
}

func validateXY(op string, X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError(op, "y must be a column vector")
	}
	return nil
}

func colVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
